package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MrSnakeDoc/bookmark-checker/internal/logger"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

func TestMatchHost(t *testing.T) {
	tests := []struct {
		host, pattern string
		want          bool
	}{
		{"example.com", "example.com", true},
		{"a.example.com", "*.example.com", true},
		{"deep.a.example.com", "*.example.com", true},
		{"example.com", "*.example.com", false},
		{"badexample.com", "*.example.com", false},
		{"other.com", "example.com", false},
	}
	for _, tt := range tests {
		if got := matchHost(tt.host, tt.pattern); got != tt.want {
			t.Errorf("matchHost(%q, %q) = %v, want %v", tt.host, tt.pattern, got, tt.want)
		}
	}
}

func TestEnforceHostIgnoresPortAndCase(t *testing.T) {
	h := EnforceHost([]string{"Checker.Local"}, logger.Nop())(ok)

	req := httptest.NewRequest(http.MethodPost, "/scan", nil)
	req.Host = "checker.local:8080"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestAllowOnlyCIDRS(t *testing.T) {
	h := AllowOnlyCIDRS([]string{"192.168.0.0/16", "10.0.0.7"}, true, logger.Nop())(ok)

	tests := []struct {
		remote string
		xff    string
		want   int
	}{
		{"192.168.1.20:1234", "", http.StatusOK},
		{"10.0.0.7:1", "", http.StatusOK},
		{"8.8.8.8:1", "", http.StatusForbidden},
		{"127.0.0.1:1", "192.168.4.4, 1.1.1.1", http.StatusOK},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = tt.remote
		if tt.xff != "" {
			req.Header.Set("X-Forwarded-For", tt.xff)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != tt.want {
			t.Errorf("remote=%s xff=%q: status = %d, want %d", tt.remote, tt.xff, rec.Code, tt.want)
		}
	}
}

func TestInvalidAllowListFailsClosed(t *testing.T) {
	h := AllowOnlyCIDRS([]string{"10.0.0.0/99"}, false, logger.Nop())(ok)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestEmptyListsPassThrough(t *testing.T) {
	h := AllowOnlyCIDRS(nil, false, logger.Nop())(EnforceHost(nil, logger.Nop())(ok))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestLogCapturesStatus(t *testing.T) {
	h := Log(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d, want 418", rec.Code)
	}
	if !isQuiet("/HEALTHZ") || isQuiet("/scan") {
		t.Error("isQuiet() misclassified paths")
	}
}
