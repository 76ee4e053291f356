package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrSnakeDoc/bookmark-checker/internal/index"
	"github.com/MrSnakeDoc/bookmark-checker/internal/logger"
	"github.com/MrSnakeDoc/bookmark-checker/internal/report"
)

type countingScanner struct {
	calls   int32
	release chan struct{}
	err     error
}

func (c *countingScanner) Scan(ctx context.Context) (*report.FailureReport, int, error) {
	atomic.AddInt32(&c.calls, 1)
	if c.release != nil {
		<-c.release
	}
	if c.err != nil {
		return nil, 0, c.err
	}
	return report.New(time.Now()), 5, nil
}

func (c *countingScanner) count() int { return int(atomic.LoadInt32(&c.calls)) }

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestRunOncePublishesReport(t *testing.T) {
	idx := index.NewReportIndex()
	s := NewScanScheduler(&countingScanner{}, idx, logger.Nop(), time.Hour)

	s.RunOnce(context.Background())

	if !idx.Ready() {
		t.Fatal("index should hold a report")
	}
	if st := idx.Status(); st.Scans != 1 || st.Checked != 5 || st.Running {
		t.Errorf("unexpected status %+v", st)
	}
}

func TestRunOnceRecordsFailure(t *testing.T) {
	idx := index.NewReportIndex()
	s := NewScanScheduler(&countingScanner{err: errors.New("no profile")}, idx, logger.Nop(), time.Hour)

	s.RunOnce(context.Background())

	if idx.Ready() {
		t.Error("failed scan should not publish a report")
	}
	if st := idx.Status(); st.LastError != "no profile" {
		t.Errorf("LastError = %q", st.LastError)
	}
}

func TestStartScansImmediatelyAndOnTrigger(t *testing.T) {
	sc := &countingScanner{}
	idx := index.NewReportIndex()
	s := NewScanScheduler(sc, idx, logger.Nop(), time.Hour)

	s.Start(context.Background())
	defer s.Stop()

	waitFor(t, func() bool { return idx.Status().Scans == 1 })

	if !s.Trigger() {
		t.Fatal("Trigger() on an idle scheduler should be accepted")
	}
	waitFor(t, func() bool { return idx.Status().Scans == 2 })
	if sc.count() != 2 {
		t.Errorf("scanner called %d times, want 2", sc.count())
	}
}

func TestTriggerRejectedWhileBusy(t *testing.T) {
	sc := &countingScanner{release: make(chan struct{})}
	idx := index.NewReportIndex()
	s := NewScanScheduler(sc, idx, logger.Nop(), time.Hour)

	s.Start(context.Background())
	waitFor(t, func() bool { return idx.Status().Running })

	if s.Trigger() {
		t.Error("Trigger() during a running scan should be rejected")
	}

	close(sc.release)
	s.Stop()
	if sc.count() != 1 {
		t.Errorf("scanner called %d times, want 1", sc.count())
	}
}

func TestPeriodicScans(t *testing.T) {
	sc := &countingScanner{}
	idx := index.NewReportIndex()
	s := NewScanScheduler(sc, idx, logger.Nop(), 20*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	waitFor(t, func() bool { return sc.count() >= 3 })
	cancel()
	s.Stop()
}

func TestScanFuncAdapter(t *testing.T) {
	called := false
	var sc Scanner = ScanFunc(func(context.Context) (*report.FailureReport, int, error) {
		called = true
		return nil, 0, nil
	})
	_, _, _ = sc.Scan(context.Background())
	if !called {
		t.Error("ScanFunc did not call the wrapped function")
	}
}
