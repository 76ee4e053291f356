package config

import (
	"errors"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/MrSnakeDoc/bookmark-checker/internal/domain"
	"github.com/MrSnakeDoc/bookmark-checker/internal/logger"
	"github.com/MrSnakeDoc/bookmark-checker/internal/utils"
)

const (
	// NoLimit disables the bookmark cap.
	NoLimit = -1

	// DefaultReportFile is written to the working directory.
	DefaultReportFile = "bookmark_failures.yml"

	DefaultUserAgent = "bookmark-checker/1.0 (+https://github.com/MrSnakeDoc/bookmark-checker)"
)

type Config struct {
	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Checker
	MaxConcurrency    int           // worker pool size (default: GOMAXPROCS * 4)
	MaxBookmarks      int           // cap on checked entries, NoLimit when unset
	RequestTimeout    time.Duration // per request (default: 10s)
	MaxRedirects      int           // redirects followed before giving up (default: 10)
	UserAgent         string        // sent with every probe
	SkipTLSValidation bool          // accept invalid certificates

	// Files
	ReportFile  string // ex: "bookmark_failures.yml"
	Profile     string // browser profile name, empty = "Default"
	BrowserRoot string // override for the profiles root directory

	// Serve mode
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s
	ScanInterval    time.Duration // interval between scheduled scans (default: 24h)
	AllowedHosts    []string      // optional, restrict POST /scan to specific Host headers
	AllowedCIDRS    []string      // optional, restrict POST /scan to specific IPs/CIDRs
	TrustProxy      bool          // true => trust X-Forwarded-For headers

	// Redis report history (optional, empty address = disabled)
	RedisAddr           string
	RedisUser           string
	RedisPassword       string
	RedisDB             int
	RedisDT             time.Duration // dial timeout
	RedisRT             time.Duration // read timeout
	RedisWT             time.Duration // write timeout
	RedisPoolSize       int
	RedisConnectTimeout time.Duration // total time to retry connecting
	RedisRetryInterval  time.Duration // initial wait between retries, grows exponentially
	RedisMaxWait        time.Duration // max wait between retries
	RedisPingTimeout    time.Duration // timeout for each ping attempt
	RedisWarnThreshold  int           // warn after this many attempts
	ReportHistory       int           // reports kept in redis
}

// Load reads the environment (after an optional .env file) and validates it.
// Every invalid value is reported as a *domain.ConfigError before any
// network activity can start.
func Load() (*Config, error) {
	_ = godotenv.Load()

	p := &parser{}
	cfg := &Config{
		LogLevel:  getenv("BMC_LOG_LEVEL", "info"),
		PrettyLog: mustBool("BMC_PRETTY_LOG", true),

		MaxConcurrency:    p.integer("BMC_MAX_CONCURRENCY", DefaultConcurrency()),
		MaxBookmarks:      p.integer("BMC_MAX_BOOKMARKS", NoLimit),
		RequestTimeout:    p.duration("BMC_REQUEST_TIMEOUT", 10*time.Second),
		MaxRedirects:      p.integer("BMC_MAX_REDIRECTS", 10),
		UserAgent:         getenv("BMC_USER_AGENT", DefaultUserAgent),
		SkipTLSValidation: mustBool("BMC_SKIP_TLS_VALIDATION", false),

		ReportFile:  getenv("BMC_REPORT_FILE", DefaultReportFile),
		Profile:     getenv("BMC_PROFILE", ""),
		BrowserRoot: getenv("BMC_BROWSER_ROOT", ""),

		ListenPort:      getenv("BMC_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("BMC_SHUTDOWN_TIMEOUT", 5*time.Second),
		ScanInterval:    p.duration("BMC_SCAN_INTERVAL", 24*time.Hour),
		AllowedHosts:    splitAndTrim(getenv("BMC_ALLOWED_HOSTS", "")),
		AllowedCIDRS:    splitAndTrim(getenv("BMC_ALLOWED_CIDRS", "")),
		TrustProxy:      mustBool("BMC_TRUST_PROXY", false),

		RedisAddr:           getenv("BMC_REDIS_ADDR", ""),
		RedisUser:           getenv("BMC_REDIS_USERNAME", ""),
		RedisPassword:       getenv("BMC_REDIS_PASSWORD", ""),
		RedisDB:             p.integer("BMC_REDIS_DB", 0),
		RedisDT:             mustDuration("BMC_REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("BMC_REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("BMC_REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisPoolSize:       getenvInt("BMC_REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("BMC_REDIS_CONNECT_TIMEOUT", 10*time.Second),
		RedisRetryInterval:  mustDuration("BMC_REDIS_RETRY_INTERVAL", time.Second),
		RedisMaxWait:        mustDuration("BMC_REDIS_MAX_WAIT", 5*time.Second),
		RedisPingTimeout:    mustDuration("BMC_REDIS_PING_TIMEOUT", 2*time.Second),
		RedisWarnThreshold:  getenvInt("BMC_REDIS_WARN_THRESHOLD", 3),
		ReportHistory:       p.integer("BMC_REPORT_HISTORY", 30),
	}

	if err := errors.Join(p.errs...); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultConcurrency derives the pool size from available parallelism.
// Probes spend nearly all their time waiting on the network, so the pool
// is wider than the CPU count.
func DefaultConcurrency() int {
	return runtime.GOMAXPROCS(0) * 4
}

// Validate checks value ranges. It is called by Load and again after CLI
// flags override fields.
func (c *Config) Validate() error {
	var errs []error
	if c.MaxConcurrency < 1 {
		errs = append(errs, &domain.ConfigError{Key: "max concurrency", Value: strconv.Itoa(c.MaxConcurrency), Reason: "must be at least 1"})
	}
	if c.MaxBookmarks < NoLimit {
		errs = append(errs, &domain.ConfigError{Key: "max bookmarks", Value: strconv.Itoa(c.MaxBookmarks), Reason: "must not be negative"})
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, &domain.ConfigError{Key: "request timeout", Value: c.RequestTimeout.String(), Reason: "must be positive"})
	}
	if c.MaxRedirects < 0 {
		errs = append(errs, &domain.ConfigError{Key: "max redirects", Value: strconv.Itoa(c.MaxRedirects), Reason: "must not be negative"})
	}
	if c.ScanInterval <= 0 {
		errs = append(errs, &domain.ConfigError{Key: "scan interval", Value: c.ScanInterval.String(), Reason: "must be positive"})
	}
	if c.ReportHistory < 1 {
		errs = append(errs, &domain.ConfigError{Key: "report history", Value: strconv.Itoa(c.ReportHistory), Reason: "must be at least 1"})
	}
	if !logger.ValidLevel(c.LogLevel) {
		errs = append(errs, &domain.ConfigError{Key: "log level", Value: c.LogLevel, Reason: "must be one of debug, info, warn, error"})
	}
	if _, err := utils.ParseAllowList(c.AllowedCIDRS); err != nil {
		errs = append(errs, &domain.ConfigError{Key: "allowed cidrs", Value: strings.Join(c.AllowedCIDRS, ","), Reason: err.Error()})
	}
	if strings.TrimSpace(c.ReportFile) == "" {
		errs = append(errs, &domain.ConfigError{Key: "report file", Value: c.ReportFile, Reason: "must not be empty"})
	}
	return errors.Join(errs...)
}

// HasLimit reports whether a bookmark cap is configured.
func (c *Config) HasLimit() bool { return c.MaxBookmarks != NoLimit }

// parser collects strict parse failures for keys where a silent fallback
// would hide a user mistake.
type parser struct {
	errs []error
}

func (p *parser) integer(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		p.errs = append(p.errs, &domain.ConfigError{Key: key, Value: v, Reason: "not an integer"})
		return def
	}
	return i
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		p.errs = append(p.errs, &domain.ConfigError{Key: key, Value: v, Reason: "not a duration"})
		return def
	}
	return d
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
