// Package index keeps the latest scan state in memory for serve mode.
package index

import (
	"sync"
	"time"

	"github.com/MrSnakeDoc/bookmark-checker/internal/report"
)

// ScanStatus describes the most recent scan attempt.
type ScanStatus struct {
	Running      bool          `json:"running"`
	Scans        int           `json:"scans"`
	LastStarted  time.Time     `json:"last_started,omitempty"`
	LastFinished time.Time     `json:"last_finished,omitempty"`
	LastDuration time.Duration `json:"last_duration_ns"`
	LastError    string        `json:"last_error,omitempty"`
	Checked      int           `json:"checked"`
}

// ReportIndex holds the latest report and scan bookkeeping.
// It is safe for concurrent use.
type ReportIndex struct {
	mu     sync.RWMutex
	latest *report.FailureReport
	status ScanStatus
}

// NewReportIndex creates an empty index
func NewReportIndex() *ReportIndex {
	return &ReportIndex{}
}

// Seed installs r as the latest report unless a newer one is already held.
func (idx *ReportIndex) Seed(r *report.FailureReport) {
	if r == nil {
		return
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.latest != nil && !r.GeneratedAt.After(idx.latest.GeneratedAt) {
		return
	}
	idx.latest = r
}

// BeginScan marks a scan as running. It returns false when one already is.
func (idx *ReportIndex) BeginScan(now time.Time) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.status.Running {
		return false
	}
	idx.status.Running = true
	idx.status.LastStarted = now
	return true
}

// FinishScan records the outcome of the running scan. A nil report keeps
// the previous one, so a failed scan never hides the last good result.
func (idx *ReportIndex) FinishScan(now time.Time, r *report.FailureReport, checked int, err error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.status.Running = false
	idx.status.Scans++
	idx.status.LastFinished = now
	idx.status.LastDuration = now.Sub(idx.status.LastStarted)
	idx.status.Checked = checked
	idx.status.LastError = ""
	if err != nil {
		idx.status.LastError = err.Error()
	}
	if r != nil {
		idx.latest = r
	}
}

// Latest returns the newest report, or nil before the first one.
// Callers must not mutate it.
func (idx *ReportIndex) Latest() *report.FailureReport {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.latest
}

// Status returns a copy of the scan bookkeeping.
func (idx *ReportIndex) Status() ScanStatus {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.status
}

// Ready reports whether a report is available.
func (idx *ReportIndex) Ready() bool {
	return idx.Latest() != nil
}
