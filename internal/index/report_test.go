package index

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MrSnakeDoc/bookmark-checker/internal/report"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestNewReportIndex(t *testing.T) {
	idx := NewReportIndex()
	if idx.Ready() {
		t.Error("new index should not be ready")
	}
	if idx.Latest() != nil {
		t.Error("new index should hold no report")
	}
}

func TestSeedKeepsNewest(t *testing.T) {
	idx := NewReportIndex()
	newer := report.New(t0.Add(time.Hour))
	older := report.New(t0)

	idx.Seed(newer)
	idx.Seed(older)
	idx.Seed(nil)

	if idx.Latest() != newer {
		t.Error("Seed() replaced a newer report with an older one")
	}
	if !idx.Ready() {
		t.Error("index should be ready after Seed()")
	}
}

func TestScanLifecycle(t *testing.T) {
	idx := NewReportIndex()

	if !idx.BeginScan(t0) {
		t.Fatal("first BeginScan() should succeed")
	}
	if idx.BeginScan(t0) {
		t.Error("BeginScan() while running should fail")
	}

	r := report.New(t0)
	idx.FinishScan(t0.Add(3*time.Second), r, 12, nil)

	st := idx.Status()
	if st.Running || st.Scans != 1 || st.Checked != 12 || st.LastDuration != 3*time.Second || st.LastError != "" {
		t.Errorf("unexpected status %+v", st)
	}
	if idx.Latest() != r {
		t.Error("FinishScan() should publish the report")
	}

	if !idx.BeginScan(t0.Add(time.Minute)) {
		t.Fatal("BeginScan() after finish should succeed")
	}
	idx.FinishScan(t0.Add(2*time.Minute), nil, 0, errors.New("profile not found"))

	st = idx.Status()
	if st.Scans != 2 || st.LastError != "profile not found" {
		t.Errorf("unexpected status %+v", st)
	}
	if idx.Latest() != r {
		t.Error("failed scan must keep the previous report")
	}
}

func TestConcurrentAccess(t *testing.T) {
	idx := NewReportIndex()
	var wg sync.WaitGroup
	started := make(chan bool, 50)

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			started <- idx.BeginScan(t0)
		}()
		go func() {
			defer wg.Done()
			_ = idx.Status()
			_ = idx.Latest()
		}()
	}
	wg.Wait()
	close(started)

	wins := 0
	for ok := range started {
		if ok {
			wins++
		}
	}
	if wins != 1 {
		t.Errorf("BeginScan() succeeded %d times, want 1", wins)
	}
}
