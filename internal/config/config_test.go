package config

import (
	"errors"
	"testing"
	"time"

	"github.com/MrSnakeDoc/bookmark-checker/internal/domain"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.MaxConcurrency != DefaultConcurrency() {
		t.Errorf("MaxConcurrency = %d, want %d", cfg.MaxConcurrency, DefaultConcurrency())
	}
	if cfg.HasLimit() {
		t.Errorf("HasLimit() = true with no BMC_MAX_BOOKMARKS")
	}
	if cfg.RequestTimeout != 10*time.Second {
		t.Errorf("RequestTimeout = %v, want 10s", cfg.RequestTimeout)
	}
	if cfg.MaxRedirects != 10 {
		t.Errorf("MaxRedirects = %d, want 10", cfg.MaxRedirects)
	}
	if cfg.ReportFile != DefaultReportFile {
		t.Errorf("ReportFile = %q, want %q", cfg.ReportFile, DefaultReportFile)
	}
	if cfg.RedisAddr != "" {
		t.Errorf("RedisAddr = %q, want empty", cfg.RedisAddr)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("BMC_MAX_CONCURRENCY", "3")
	t.Setenv("BMC_MAX_BOOKMARKS", "0")
	t.Setenv("BMC_REQUEST_TIMEOUT", "250ms")
	t.Setenv("BMC_ALLOWED_CIDRS", `"10.0.0.0/8", 127.0.0.1`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MaxConcurrency != 3 {
		t.Errorf("MaxConcurrency = %d, want 3", cfg.MaxConcurrency)
	}
	if !cfg.HasLimit() || cfg.MaxBookmarks != 0 {
		t.Errorf("MaxBookmarks = %d, want 0 with a limit", cfg.MaxBookmarks)
	}
	if cfg.RequestTimeout != 250*time.Millisecond {
		t.Errorf("RequestTimeout = %v, want 250ms", cfg.RequestTimeout)
	}
	if len(cfg.AllowedCIDRS) != 2 || cfg.AllowedCIDRS[0] != "10.0.0.0/8" {
		t.Errorf("AllowedCIDRS = %v", cfg.AllowedCIDRS)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"zero concurrency", "BMC_MAX_CONCURRENCY", "0"},
		{"negative concurrency", "BMC_MAX_CONCURRENCY", "-4"},
		{"non numeric concurrency", "BMC_MAX_CONCURRENCY", "many"},
		{"negative limit", "BMC_MAX_BOOKMARKS", "-2"},
		{"non numeric limit", "BMC_MAX_BOOKMARKS", "ten"},
		{"zero timeout", "BMC_REQUEST_TIMEOUT", "0s"},
		{"bad timeout", "BMC_REQUEST_TIMEOUT", "soon"},
		{"negative redirects", "BMC_MAX_REDIRECTS", "-1"},
		{"unknown log level", "BMC_LOG_LEVEL", "trace"},
		{"bad cidr", "BMC_ALLOWED_CIDRS", "10.0.0.0/40"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			cfg, err := Load()
			if err == nil {
				t.Fatalf("Load() with %s=%s should fail, got %+v", tt.key, tt.value, cfg)
			}
			if !errors.Is(err, domain.ErrConfig) {
				t.Errorf("Load() error = %v, want a ConfigError", err)
			}
		})
	}
}

func TestValidateAfterOverride(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	cfg.MaxConcurrency = 0
	err = cfg.Validate()

	var cfgErr *domain.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Validate() error = %v, want *domain.ConfigError", err)
	}
	if cfgErr.Key != "max concurrency" {
		t.Errorf("ConfigError.Key = %q", cfgErr.Key)
	}
}

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"empty", "", nil},
		{"single", "a", []string{"a"}},
		{"quoted and spaced", ` "a" , 'b',, c `, []string{"a", "b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitAndTrim(tt.input)
			if len(got) != len(tt.expected) {
				t.Fatalf("splitAndTrim(%q) = %v, want %v", tt.input, got, tt.expected)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("splitAndTrim(%q)[%d] = %q, want %q", tt.input, i, got[i], tt.expected[i])
				}
			}
		})
	}
}
