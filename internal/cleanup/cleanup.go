// Package cleanup removes bookmarks listed in a failure report from a store.
package cleanup

import (
	"github.com/MrSnakeDoc/bookmark-checker/internal/domain"
	"github.com/MrSnakeDoc/bookmark-checker/internal/logger"
	"github.com/MrSnakeDoc/bookmark-checker/internal/report"
)

// Store is a loaded bookmark store that can drop entries by natural key.
type Store interface {
	RemoveMatching(key domain.NaturalKey) int
}

// Saver persists a mutated store.
type Saver interface {
	Save() (backup string, err error)
}

// WritableStore is a Store that can be written back.
type WritableStore interface {
	Store
	Saver
}

// Summary describes one cleanup pass.
type Summary struct {
	Removed int    // store nodes removed
	Skipped int    // report entries with no match in the store
	Backup  string // backup written before saving, empty when nothing was saved
}

// Orchestrator matches report entries against a store. It does no network I/O.
type Orchestrator struct {
	logger logger.Logger
}

// New returns an Orchestrator. log may be nil.
func New(log logger.Logger) *Orchestrator {
	if log == nil {
		log = logger.Nop()
	}
	return &Orchestrator{logger: log}
}

// Apply removes every store entry whose natural key appears in r.
// Unmatched report entries are counted as skipped, never as errors.
func (o *Orchestrator) Apply(store Store, r *report.FailureReport) Summary {
	var s Summary
	for _, e := range r.Entries() {
		n := store.RemoveMatching(e.Key())
		if n == 0 {
			s.Skipped++
			o.logger.Debug("report entry not in store",
				logger.String("url", e.URL),
				logger.String("folder", e.Bookmark().Location()))
			continue
		}
		s.Removed += n
	}
	return s
}

// Clean applies r to store and saves it when anything was removed.
// Saving an unchanged store is skipped so a second run leaves the file alone.
func (o *Orchestrator) Clean(store WritableStore, r *report.FailureReport) (Summary, error) {
	s := o.Apply(store, r)
	if s.Removed == 0 {
		o.logger.Info("nothing to remove", logger.Int("skipped", s.Skipped))
		return s, nil
	}

	backup, err := store.Save()
	if err != nil {
		return s, err
	}
	s.Backup = backup
	o.logger.Info("bookmarks removed",
		logger.Int("removed", s.Removed),
		logger.Int("skipped", s.Skipped),
		logger.String("backup", backup))
	return s, nil
}
