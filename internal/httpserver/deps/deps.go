package deps

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/bookmark-checker/internal/index"
	"github.com/MrSnakeDoc/bookmark-checker/internal/logger"
	redisstore "github.com/MrSnakeDoc/bookmark-checker/internal/store/redis"
)

// ScanTrigger queues a scan and reports whether it was accepted.
type ScanTrigger interface {
	Trigger() bool
}

// ReportHistory lists stored reports, newest first.
type ReportHistory interface {
	ListReports(ctx context.Context, limit int) ([]redisstore.ReportSummary, error)
}

// Pinger checks a backing service.
type Pinger func(ctx context.Context) error

type Deps struct {
	Logger       logger.Logger
	StartTime    time.Time
	Version      string
	Commit       string
	BuildDate    string
	GoVersion    string
	TimeNow      func() time.Time   // for testing, defaults to time.Now
	AllowedHosts []string           // Host headers allowed to trigger scans
	AllowedCIDRS []string           // IPs allowed to trigger scans and read status
	TrustProxy   bool               // true if running behind a trusted reverse proxy (e.g., cloudflared)
	Index        *index.ReportIndex // latest report and scan status
	Scanner      ScanTrigger        // manual scan trigger
	History      ReportHistory      // nil when redis is disabled
	RedisPing    Pinger             // nil when redis is disabled
	ReportFile   string             // path of the report written by each scan
	Profile      string             // profile being scanned, for status output
}
