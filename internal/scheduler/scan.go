// Package scheduler runs bookmark scans periodically and on demand.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/bookmark-checker/internal/index"
	"github.com/MrSnakeDoc/bookmark-checker/internal/logger"
	"github.com/MrSnakeDoc/bookmark-checker/internal/report"
)

// Scanner runs one full scan and returns its report and how many entries
// were checked.
type Scanner interface {
	Scan(ctx context.Context) (*report.FailureReport, int, error)
}

// ScanFunc adapts a function to Scanner.
type ScanFunc func(ctx context.Context) (*report.FailureReport, int, error)

// Scan calls f.
func (f ScanFunc) Scan(ctx context.Context) (*report.FailureReport, int, error) { return f(ctx) }

// ScanScheduler handles periodic and manually triggered scans.
// Scans never overlap.
type ScanScheduler struct {
	scanner  Scanner
	index    *index.ReportIndex
	logger   logger.Logger
	interval time.Duration
	trigger  chan struct{}
	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	now      func() time.Time
}

// NewScanScheduler creates a scheduler. interval must be positive.
func NewScanScheduler(
	scanner Scanner,
	idx *index.ReportIndex,
	log logger.Logger,
	interval time.Duration,
) *ScanScheduler {
	return &ScanScheduler{
		scanner:  scanner,
		index:    idx,
		logger:   log,
		interval: interval,
		trigger:  make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
		now:      time.Now,
	}
}

// Start runs a first scan in the background, then one every interval and
// one per accepted Trigger, until Stop or ctx ends.
func (s *ScanScheduler) Start(ctx context.Context) {
	go func() {
		defer close(s.done)

		s.RunOnce(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.RunOnce(ctx)
			case <-s.trigger:
				s.logger.Info("manual scan triggered")
				s.RunOnce(ctx)
			case <-s.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Trigger queues a scan. It returns false when a scan is already running
// or queued.
func (s *ScanScheduler) Trigger() bool {
	if s.index.Status().Running {
		return false
	}
	select {
	case s.trigger <- struct{}{}:
		return true
	default:
		return false
	}
}

// Stop ends the loop and waits for a running scan to return.
func (s *ScanScheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	<-s.done
}

// RunOnce performs one scan and records it in the index.
func (s *ScanScheduler) RunOnce(ctx context.Context) {
	if !s.index.BeginScan(s.now()) {
		s.logger.Warn("scan skipped, another one is running")
		return
	}

	s.logger.Info("scan started")
	r, checked, err := s.scanner.Scan(ctx)
	s.index.FinishScan(s.now(), r, checked, err)

	st := s.index.Status()
	if err != nil {
		s.logger.Error("scan failed",
			logger.Duration("elapsed", st.LastDuration),
			logger.Error(err))
		return
	}
	total := 0
	if r != nil {
		total = r.Total()
	}
	s.logger.Info("scan finished",
		logger.Int("checked", checked),
		logger.Int("failing", total),
		logger.Duration("elapsed", st.LastDuration))
}
