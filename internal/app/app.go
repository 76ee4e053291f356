// Package app wires configuration, the Chrome store, the checker and the
// report into the scan, clean and serve operations.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/bookmark-checker/internal/checker"
	"github.com/MrSnakeDoc/bookmark-checker/internal/cleanup"
	"github.com/MrSnakeDoc/bookmark-checker/internal/config"
	"github.com/MrSnakeDoc/bookmark-checker/internal/logger"
	"github.com/MrSnakeDoc/bookmark-checker/internal/metrics"
	"github.com/MrSnakeDoc/bookmark-checker/internal/progress"
	"github.com/MrSnakeDoc/bookmark-checker/internal/report"
	"github.com/MrSnakeDoc/bookmark-checker/internal/sources/chrome"
	redisstore "github.com/MrSnakeDoc/bookmark-checker/internal/store/redis"
)

// ReportSaver keeps scan reports beyond the report file.
type ReportSaver interface {
	SaveReport(ctx context.Context, r *report.FailureReport) (string, error)
}

// App runs the bookmark checker operations for one configuration.
type App struct {
	cfg     *config.Config
	logger  logger.Logger
	env     chrome.Env
	prober  checker.Prober
	history ReportSaver
	now     func() time.Time
}

// Option customizes an App.
type Option func(*App)

// WithProber replaces the HTTP prober.
func WithProber(p checker.Prober) Option { return func(a *App) { a.prober = p } }

// WithEnv replaces the host environment used to find Chrome profiles.
func WithEnv(env chrome.Env) Option { return func(a *App) { a.env = env } }

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(a *App) { a.now = now } }

// WithHistory stores every scan report in h.
func WithHistory(h ReportSaver) Option { return func(a *App) { a.history = h } }

// New builds an App. cfg must already be validated.
func New(cfg *config.Config, log logger.Logger, opts ...Option) *App {
	if log == nil {
		log = logger.Nop()
	}
	a := &App{
		cfg:    cfg,
		logger: log,
		env:    chrome.HostEnv(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.prober == nil {
		a.prober = checker.NewHTTPProber(checker.ClientOptions{
			MaxConcurrency:    cfg.MaxConcurrency,
			MaxRedirects:      cfg.MaxRedirects,
			UserAgent:         cfg.UserAgent,
			SkipTLSValidation: cfg.SkipTLSValidation,
		})
	}
	return a
}

// ScanOptions tune a single scan.
type ScanOptions struct {
	// Progress receives completion updates. Nil disables progress.
	Progress progress.Sink
	// OnStart is called once the number of entries to check is known,
	// before any network activity.
	OnStart func(planned, total int, file string)
}

// ScanSummary describes a finished scan.
type ScanSummary struct {
	Profile    chrome.Profile
	Total      int // entries found in the store
	Checked    int // entries probed
	Report     *report.FailureReport
	ReportPath string // empty when no report was written
}

// Scan checks the configured profile and writes the failure report.
// A store with no entries, or a zero cap, returns without network activity
// and without writing a report.
func (a *App) Scan(ctx context.Context, opts ScanOptions) (ScanSummary, error) {
	profile, err := a.locate()
	if err != nil {
		return ScanSummary{}, err
	}
	store, err := chrome.Load(profile.File)
	if err != nil {
		return ScanSummary{}, err
	}
	entries := store.Entries()
	summary := ScanSummary{Profile: profile, Total: len(entries)}

	c, err := checker.New(a.prober, checker.Options{
		MaxConcurrency: a.cfg.MaxConcurrency,
		MaxEntries:     a.cfg.MaxBookmarks,
		Timeout:        a.cfg.RequestTimeout,
	}, a.logger, opts.Progress)
	if err != nil {
		return summary, err
	}

	planned := c.Planned(len(entries))
	if opts.OnStart != nil {
		opts.OnStart(planned, len(entries), profile.File)
	}
	a.logger.Info("scan planned",
		logger.String("profile", profile.Name),
		logger.Int("planned", planned),
		logger.Int("total", len(entries)))
	if planned == 0 {
		return summary, nil
	}

	results, err := c.Check(ctx, entries)
	summary.Checked = len(results)
	if err != nil {
		return summary, fmt.Errorf("scan interrupted after %d of %d bookmarks: %w", len(results), planned, err)
	}

	r := report.FromResults(results, a.now())
	summary.Report = r
	if err := report.Write(r, a.cfg.ReportFile); err != nil {
		return summary, err
	}
	summary.ReportPath = a.cfg.ReportFile
	metrics.SetLastScan(r.Counts())

	a.logger.Info("report written",
		logger.String("file", a.cfg.ReportFile),
		logger.Int("failing", r.Total()))

	if a.history != nil {
		if key, err := a.history.SaveReport(ctx, r); err != nil {
			a.logger.Warn("failed to save report history", logger.Error(err))
		} else {
			a.logger.Debug("report saved to history", logger.String("key", key))
		}
	}
	return summary, nil
}

// CleanSummary describes a finished cleanup.
type CleanSummary struct {
	cleanup.Summary
	Profile    chrome.Profile
	ReportPath string
	Listed     int // entries in the report
}

// Clean removes the bookmarks listed in the report file from the
// configured profile. A missing or invalid report is a FormatError.
func (a *App) Clean(ctx context.Context) (CleanSummary, error) {
	r, err := report.Read(a.cfg.ReportFile)
	if err != nil {
		return CleanSummary{}, err
	}
	summary := CleanSummary{ReportPath: a.cfg.ReportFile, Listed: r.Total()}

	profile, err := a.locate()
	if err != nil {
		return summary, err
	}
	summary.Profile = profile

	if err := ctx.Err(); err != nil {
		return summary, err
	}

	store, err := chrome.Load(profile.File)
	if err != nil {
		return summary, err
	}
	res, err := cleanup.New(a.logger).Clean(store, r)
	summary.Summary = res
	return summary, err
}

// ListProfiles returns every Chrome profile with a bookmarks file.
func (a *App) ListProfiles() ([]chrome.Profile, error) {
	loc, err := chrome.NewLocator(a.cfg.BrowserRoot, a.env)
	if err != nil {
		return nil, err
	}
	return loc.ListProfiles()
}

func (a *App) locate() (chrome.Profile, error) {
	loc, err := chrome.NewLocator(a.cfg.BrowserRoot, a.env)
	if err != nil {
		return chrome.Profile{}, err
	}
	return loc.Locate(a.cfg.Profile)
}

var _ ReportSaver = (*redisstore.Store)(nil)
