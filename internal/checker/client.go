package checker

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/bookmark-checker/internal/utils"
)

// maxDrain bounds how much of a response body is read before closing so
// the connection can be reused without downloading large pages.
const maxDrain = 64 << 10

// Prober issues one network probe for a URL and returns the final status.
type Prober interface {
	Probe(ctx context.Context, url string) (int, error)
}

// ClientOptions configures the shared HTTP client.
type ClientOptions struct {
	MaxConcurrency    int
	MaxRedirects      int
	UserAgent         string
	SkipTLSValidation bool
}

// HTTPProber probes URLs with GET requests. The underlying client and its
// connection pool are shared by every worker.
type HTTPProber struct {
	client    *http.Client
	userAgent string
}

// NewHTTPProber builds a prober around a TLS-capable client.
func NewHTTPProber(opts ClientOptions) *HTTPProber {
	return &HTTPProber{
		client:    NewHTTPClient(opts),
		userAgent: opts.UserAgent,
	}
}

// NewHTTPClient returns the client used for probes. Timeouts are enforced
// per request by Probe's context, not by the client.
func NewHTTPClient(opts ClientOptions) *http.Client {
	maxRedirects := opts.MaxRedirects
	perHost := opts.MaxConcurrency
	if perHost < 2 {
		perHost = 2
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   perHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: opts.SkipTLSValidation, //nolint:gosec // opt-in via BMC_SKIP_TLS_VALIDATION
		},
	}

	return &http.Client{
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) > maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}
}

// Probe performs a GET request and returns the status of the final response.
func (p *HTTPProber) Probe(ctx context.Context, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,*/*;q=0.8")

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer utils.DrainClose(resp.Body, maxDrain)

	return resp.StatusCode, nil
}
