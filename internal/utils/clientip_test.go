package utils

import (
	"net/http/httptest"
	"testing"
)

func TestParseAllowList(t *testing.T) {
	l, err := ParseAllowList([]string{" 10.0.0.0/8 ", "", "192.168.1.7", "fd00::/8", "10.1.2.3/8"})
	if err != nil {
		t.Fatalf("ParseAllowList() error = %v", err)
	}

	tests := []struct {
		ip   string
		want bool
	}{
		{"10.20.30.40", true},
		{"192.168.1.7", true},
		{"192.168.1.8", false},
		{"::ffff:10.0.0.1", true},
		{"fd12::1", true},
		{"2001:db8::1", false},
		{"not-an-ip", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := l.Contains(tt.ip); got != tt.want {
			t.Errorf("Contains(%q) = %v, want %v", tt.ip, got, tt.want)
		}
	}

	if _, err := ParseAllowList([]string{"10.0.0.0/33"}); err == nil {
		t.Error("expected an error for an invalid prefix")
	}
	if _, err := ParseAllowList([]string{"localhost"}); err == nil {
		t.Error("expected an error for a hostname")
	}

	empty, _ := ParseAllowList([]string{" "})
	if !empty.Empty() {
		t.Error("blank entries should give an empty list")
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		trust   bool
		want    string
	}{
		{"remote addr", nil, false, "192.0.2.1"},
		{"headers ignored without trust", map[string]string{"X-Forwarded-For": "10.0.0.1"}, false, "192.0.2.1"},
		{"cloudflare first", map[string]string{"CF-Connecting-IP": "10.0.0.9", "X-Forwarded-For": "10.0.0.1"}, true, "10.0.0.9"},
		{"left-most forwarded", map[string]string{"X-Forwarded-For": " 10.0.0.1 , 172.16.0.1"}, true, "10.0.0.1"},
		{"real ip", map[string]string{"X-Real-IP": "10.0.0.2:4431"}, true, "10.0.0.2"},
		{"no headers with trust", nil, true, "192.0.2.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = "192.0.2.1:1234"
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := ClientIP(r, tt.trust); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHostOnly(t *testing.T) {
	for in, want := range map[string]string{
		"example.com":      "example.com",
		"example.com:8080": "example.com",
		"[::1]:80":         "::1",
		"[::1]":            "::1",
		"10.0.0.1":         "10.0.0.1",
	} {
		if got := HostOnly(in); got != want {
			t.Errorf("HostOnly(%q) = %q, want %q", in, got, want)
		}
	}
}
