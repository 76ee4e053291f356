package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/bookmark-checker/internal/config"
	"github.com/MrSnakeDoc/bookmark-checker/internal/domain"
	"github.com/MrSnakeDoc/bookmark-checker/internal/report"
	"github.com/MrSnakeDoc/bookmark-checker/internal/sources/chrome"
)

const bookmarks = `{
   "checksum": "abc",
   "roots": {
      "bookmark_bar": {
         "children": [
            {"id": "1", "name": "Alive", "type": "url", "url": "https://alive.test/"},
            {"id": "2", "name": "Gone", "type": "url", "url": "https://gone.test/"},
            {"id": "3", "name": "Private", "type": "url", "url": "https://private.test/"},
            {"id": "4", "name": "Down", "type": "url", "url": "https://down.test/"}
         ],
         "id": "0",
         "name": "Bookmarks bar",
         "type": "folder"
      }
   },
   "version": 1
}`

type stubProber struct {
	mu     sync.Mutex
	status map[string]int
	calls  int
}

func (p *stubProber) Probe(_ context.Context, url string) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	code, ok := p.status[url]
	if !ok {
		return 0, errors.New("connection refused")
	}
	return code, nil
}

func (p *stubProber) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type savedReports struct {
	mu      sync.Mutex
	reports []*report.FailureReport
}

func (s *savedReports) SaveReport(_ context.Context, r *report.FailureReport) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, r)
	return "bmc:report:1", nil
}

type fixture struct {
	cfg    *config.Config
	prober *stubProber
	file   string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	root := filepath.Join(dir, "chrome")
	file := filepath.Join(root, chrome.DefaultProfile, chrome.BookmarksFile)
	require.NoError(t, os.MkdirAll(filepath.Dir(file), 0o755))
	require.NoError(t, os.WriteFile(file, []byte(bookmarks), 0o644))

	return &fixture{
		cfg: &config.Config{
			LogLevel:       "info",
			MaxConcurrency: 3,
			MaxBookmarks:   config.NoLimit,
			RequestTimeout: time.Second,
			ReportFile:     filepath.Join(dir, config.DefaultReportFile),
			BrowserRoot:    root,
			ReportHistory:  5,
			ScanInterval:   time.Hour,
		},
		prober: &stubProber{status: map[string]int{
			"https://alive.test/":   200,
			"https://gone.test/":    404,
			"https://private.test/": 403,
		}},
		file: file,
	}
}

var fixedNow = time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

func (f *fixture) app(opts ...Option) *App {
	opts = append([]Option{WithProber(f.prober), WithClock(func() time.Time { return fixedNow })}, opts...)
	return New(f.cfg, nil, opts...)
}

func TestScanWritesReport(t *testing.T) {
	f := newFixture(t)
	history := &savedReports{}

	var announced []int
	var announcedFile string
	s, err := f.app(WithHistory(history)).Scan(context.Background(), ScanOptions{
		OnStart: func(planned, total int, file string) {
			announced = []int{planned, total}
			announcedFile = file
		},
	})
	require.NoError(t, err)

	assert.Equal(t, []int{4, 4}, announced)
	assert.Equal(t, f.file, announcedFile)
	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 4, s.Checked)
	assert.Equal(t, f.cfg.ReportFile, s.ReportPath)
	assert.Equal(t, chrome.DefaultProfile, s.Profile.Name)

	r, err := report.Read(f.cfg.ReportFile)
	require.NoError(t, err)
	assert.Equal(t, fixedNow, r.GeneratedAt)
	require.Len(t, r.NotFound, 1)
	assert.Equal(t, "https://gone.test/", r.NotFound[0].URL)
	assert.Equal(t, []string{"Bookmarks bar"}, r.NotFound[0].FolderPath)
	require.Len(t, r.Unauthorized, 1)
	assert.Equal(t, "https://private.test/", r.Unauthorized[0].URL)
	require.Len(t, r.ConnectionErrors, 1)
	assert.Equal(t, "https://down.test/", r.ConnectionErrors[0].URL)

	require.Len(t, history.reports, 1)
	assert.Equal(t, 3, history.reports[0].Total())
}

func TestScanRespectsCap(t *testing.T) {
	f := newFixture(t)
	f.cfg.MaxBookmarks = 2

	s, err := f.app().Scan(context.Background(), ScanOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, s.Checked)
	assert.Equal(t, 2, f.prober.Calls())
	assert.Equal(t, 1, s.Report.Total())
}

func TestScanZeroCapWritesNothing(t *testing.T) {
	f := newFixture(t)
	f.cfg.MaxBookmarks = 0

	s, err := f.app().Scan(context.Background(), ScanOptions{})
	require.NoError(t, err)
	assert.Zero(t, f.prober.Calls())
	assert.Nil(t, s.Report)
	assert.Empty(t, s.ReportPath)
	assert.NoFileExists(t, f.cfg.ReportFile)
}

func TestScanAllHealthyReplacesStaleReport(t *testing.T) {
	f := newFixture(t)
	stale := report.New(fixedNow.Add(-time.Hour))
	stale.Add(domain.NotFound, domain.BookmarkEntry{URL: "https://old.test/"}, "")
	require.NoError(t, report.Write(stale, f.cfg.ReportFile))

	for url := range f.prober.status {
		f.prober.status[url] = 200
	}
	f.prober.status["https://down.test/"] = 200

	_, err := f.app().Scan(context.Background(), ScanOptions{})
	require.NoError(t, err)

	r, err := report.Read(f.cfg.ReportFile)
	require.NoError(t, err)
	assert.Zero(t, r.Total())
	assert.Equal(t, fixedNow, r.GeneratedAt)
}

func TestScanCancelledKeepsPreviousReport(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.app().Scan(ctx, ScanOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, f.cfg.ReportFile)
}

func TestScanUnknownProfile(t *testing.T) {
	f := newFixture(t)
	f.cfg.Profile = "Work"

	_, err := f.app().Scan(context.Background(), ScanOptions{})
	var nf *chrome.ProfileNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "Work", nf.Name)
}

func TestScanThenClean(t *testing.T) {
	f := newFixture(t)
	a := f.app()

	_, err := a.Scan(context.Background(), ScanOptions{})
	require.NoError(t, err)

	s, err := a.Clean(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, s.Listed)
	assert.Equal(t, 3, s.Removed)
	assert.Zero(t, s.Skipped)
	assert.FileExists(t, s.Backup)

	store, err := chrome.Load(f.file)
	require.NoError(t, err)
	entries := store.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "https://alive.test/", entries[0].URL)

	again, err := a.Clean(context.Background())
	require.NoError(t, err)
	assert.Zero(t, again.Removed)
	assert.Equal(t, 3, again.Skipped)
	assert.Empty(t, again.Backup)
}

func TestScanThenCleanDuplicatedBookmark(t *testing.T) {
	f := newFixture(t)
	dup := `{
   "roots": {
      "bookmark_bar": {
         "children": [
            {"id": "1", "name": "Bar", "type": "url", "url": "https://gone.test/"},
            {"id": "2", "name": "Bar again", "type": "url", "url": "https://gone.test/"},
            {"id": "3", "name": "Alive", "type": "url", "url": "https://alive.test/"}
         ],
         "id": "0",
         "name": "Bookmarks bar",
         "type": "folder"
      }
   },
   "version": 1
}`
	require.NoError(t, os.WriteFile(f.file, []byte(dup), 0o644))
	a := f.app()

	s, err := a.Scan(context.Background(), ScanOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, s.Checked)
	require.Len(t, s.Report.NotFound, 1)

	c, err := a.Clean(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, c.Listed)
	assert.Equal(t, 2, c.Removed)

	store, err := chrome.Load(f.file)
	require.NoError(t, err)
	entries := store.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "https://alive.test/", entries[0].URL)
}

func TestCleanWithoutReport(t *testing.T) {
	f := newFixture(t)

	_, err := f.app().Clean(context.Background())
	assert.ErrorIs(t, err, domain.ErrFormat)

	data, readErr := os.ReadFile(f.file)
	require.NoError(t, readErr)
	assert.Equal(t, bookmarks, string(data))
}

func TestListProfiles(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.MkdirAll(filepath.Join(f.cfg.BrowserRoot, "Profile 2"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(f.cfg.BrowserRoot, "Profile 2", chrome.BookmarksFile), []byte("{}"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(f.cfg.BrowserRoot, "Crashpad"), 0o755))

	profiles, err := f.app().ListProfiles()
	require.NoError(t, err)
	require.Len(t, profiles, 2)
	assert.Equal(t, chrome.DefaultProfile, profiles[0].Name)
	assert.Equal(t, "Profile 2", profiles[1].Name)
}

func TestLocatesProfilesFromHomeDirectory(t *testing.T) {
	f := newFixture(t)
	home := t.TempDir()
	file := filepath.Join(home, ".config", "google-chrome", "Profile 3", chrome.BookmarksFile)
	require.NoError(t, os.MkdirAll(filepath.Dir(file), 0o755))
	require.NoError(t, os.WriteFile(file, []byte(bookmarks), 0o644))

	f.cfg.BrowserRoot = ""
	f.cfg.Profile = "PROFILE 3"
	s, err := f.app(WithEnv(chrome.Env{GOOS: "linux", Home: home})).Scan(context.Background(), ScanOptions{})
	require.NoError(t, err)
	assert.Equal(t, file, s.Profile.File)
	assert.Equal(t, 4, s.Checked)

	_, err = f.app(WithEnv(chrome.Env{GOOS: "plan9", Home: home})).ListProfiles()
	assert.ErrorIs(t, err, chrome.ErrUnsupportedPlatform)
}
