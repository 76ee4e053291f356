package domain

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

// FailureKind is the closed classification of a non-success outcome.
type FailureKind int

const (
	// NotFound means the remote explicitly reported the resource absent (404).
	NotFound FailureKind = iota + 1
	// Unauthorized means the remote rejected access (401, 403).
	Unauthorized
	// ConnectionError covers transport failures, timeouts and every
	// status that is neither a success nor one of the kinds above.
	ConnectionError
)

// FailureKinds lists every kind in report order.
var FailureKinds = []FailureKind{NotFound, Unauthorized, ConnectionError}

func (k FailureKind) String() string {
	switch k {
	case NotFound:
		return "not_found"
	case Unauthorized:
		return "unauthorized"
	case ConnectionError:
		return "connection_error"
	default:
		return fmt.Sprintf("FailureKind(%d)", int(k))
	}
}

// CheckOutcome is the in-memory result of probing one entry.
// It is either a success carrying the status code or a failure carrying
// its kind and a human readable detail.
type CheckOutcome struct {
	StatusCode int
	Kind       FailureKind // zero on success
	Detail     string
}

// OK reports whether the outcome is a success.
func (o CheckOutcome) OK() bool { return o.Kind == 0 }

// Success builds a successful outcome.
func Success(status int) CheckOutcome {
	return CheckOutcome{StatusCode: status}
}

// Failure builds a failed outcome.
func Failure(kind FailureKind, detail string) CheckOutcome {
	return CheckOutcome{Kind: kind, Detail: detail}
}

// ClassifyStatus maps an HTTP status code to an outcome.
// 2xx and 3xx succeed, 404 is NotFound, 401 and 403 are Unauthorized,
// anything else is a ConnectionError.
func ClassifyStatus(status int) CheckOutcome {
	switch {
	case status >= 200 && status < 400:
		return Success(status)
	case status == http.StatusNotFound:
		return failureFromStatus(NotFound, status)
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return failureFromStatus(Unauthorized, status)
	default:
		return failureFromStatus(ConnectionError, status)
	}
}

// ClassifyError maps a transport error to a ConnectionError outcome.
// timeout is only used to phrase the detail message.
func ClassifyError(err error, timeout time.Duration) CheckOutcome {
	if IsTimeout(err) {
		return Failure(ConnectionError, fmt.Sprintf("request timed out after %s", timeout))
	}
	return Failure(ConnectionError, fmt.Sprintf("request failed: %v", err))
}

// Classify is the total classification: a non-nil error always wins.
func Classify(status int, err error, timeout time.Duration) CheckOutcome {
	if err != nil {
		return ClassifyError(err, timeout)
	}
	return ClassifyStatus(status)
}

// IsTimeout reports whether err is a deadline or network timeout.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func failureFromStatus(kind FailureKind, status int) CheckOutcome {
	text := http.StatusText(status)
	if text == "" {
		text = "Unknown"
	}
	return CheckOutcome{
		StatusCode: status,
		Kind:       kind,
		Detail:     fmt.Sprintf("HTTP %d %s", status, text),
	}
}

// CheckResult pairs an entry with the outcome of its own probe.
type CheckResult struct {
	Entry   BookmarkEntry
	Outcome CheckOutcome
}
