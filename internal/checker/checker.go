// Package checker validates bookmark URLs with a bounded worker pool.
package checker

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MrSnakeDoc/bookmark-checker/internal/domain"
	"github.com/MrSnakeDoc/bookmark-checker/internal/logger"
	"github.com/MrSnakeDoc/bookmark-checker/internal/metrics"
	"github.com/MrSnakeDoc/bookmark-checker/internal/progress"
)

// NoLimit disables the MaxEntries cap.
const NoLimit = -1

// Options configures one Checker.
type Options struct {
	MaxConcurrency int           // worker count, at least 1
	MaxEntries     int           // entries dispatched at most, NoLimit for all
	Timeout        time.Duration // per request
}

// Checker probes entries in parallel and classifies every outcome.
// A Checker holds no state between Check calls.
type Checker struct {
	prober   Prober
	opts     Options
	logger   logger.Logger
	progress progress.Sink
}

// New validates opts and returns a Checker. sink may be nil.
func New(prober Prober, opts Options, log logger.Logger, sink progress.Sink) (*Checker, error) {
	if prober == nil {
		return nil, errors.New("checker: nil prober")
	}
	if opts.MaxConcurrency < 1 {
		return nil, &domain.ConfigError{Key: "max concurrency", Value: strconv.Itoa(opts.MaxConcurrency), Reason: "must be at least 1"}
	}
	if opts.MaxEntries < NoLimit {
		return nil, &domain.ConfigError{Key: "max bookmarks", Value: strconv.Itoa(opts.MaxEntries), Reason: "must not be negative"}
	}
	if opts.Timeout <= 0 {
		return nil, &domain.ConfigError{Key: "request timeout", Value: opts.Timeout.String(), Reason: "must be positive"}
	}
	if log == nil {
		log = logger.Nop()
	}
	if sink == nil {
		sink = progress.Nop{}
	}
	return &Checker{prober: prober, opts: opts, logger: log, progress: sink}, nil
}

// Planned returns how many of total entries a Check call will dispatch.
func (c *Checker) Planned(total int) int {
	if c.opts.MaxEntries != NoLimit && c.opts.MaxEntries < total {
		return c.opts.MaxEntries
	}
	return total
}

type job struct {
	index int
	entry domain.BookmarkEntry
}

type indexedResult struct {
	index  int
	result domain.CheckResult
}

// Check produces exactly one result per dispatched entry. Entries are
// dispatched in input order up to MaxEntries; results are returned in
// input order.
//
// Cancelling ctx stops dispatching. Probes already in flight run to
// completion and their results are returned together with ctx.Err().
func (c *Checker) Check(ctx context.Context, entries []domain.BookmarkEntry) ([]domain.CheckResult, error) {
	total := c.Planned(len(entries))
	if total == 0 {
		return []domain.CheckResult{}, nil
	}

	workers := c.opts.MaxConcurrency
	if workers > total {
		workers = total
	}

	sink := progress.NewAsync(c.progress)
	defer sink.Close()
	sink.Update(0, total)

	c.logger.Debug("starting check",
		logger.Int("entries", total),
		logger.Int("workers", workers),
		logger.Duration("timeout", c.opts.Timeout))

	jobs := make(chan job)
	results := make(chan indexedResult, workers)

	go func() {
		defer close(jobs)
		for i := 0; i < total; i++ {
			if ctx.Err() != nil {
				return
			}
			select {
			case jobs <- job{index: i, entry: entries[i].Clone()}:
			case <-ctx.Done():
				return
			}
		}
	}()

	var g errgroup.Group
	g.SetLimit(workers)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for j := range jobs {
				results <- indexedResult{
					index:  j.index,
					result: domain.CheckResult{Entry: j.entry, Outcome: c.probe(ctx, j.entry)},
				}
			}
			return nil
		})
	}

	go func() {
		// workers never fail; per-entry errors are folded into outcomes
		_ = g.Wait()
		close(results)
	}()

	collected := make([]indexedResult, 0, total)
	for r := range results {
		collected = append(collected, r)
		sink.Update(len(collected), total)
	}

	sort.Slice(collected, func(i, j int) bool { return collected[i].index < collected[j].index })
	out := make([]domain.CheckResult, len(collected))
	for i, r := range collected {
		out[i] = r.result
	}

	if len(out) < total {
		if err := ctx.Err(); err != nil {
			c.logger.Warn("check interrupted",
				logger.Int("checked", len(out)),
				logger.Int("planned", total),
				logger.Error(err))
			return out, err
		}
	}
	return out, nil
}

// probe runs one request. The probe context is detached from ctx so a
// cancelled scan lets in-flight requests finish; the timeout still bounds it.
func (c *Checker) probe(ctx context.Context, entry domain.BookmarkEntry) domain.CheckOutcome {
	reqCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.opts.Timeout)
	defer cancel()

	metrics.ChecksInFlight.Inc()
	start := time.Now()
	status, err := c.prober.Probe(reqCtx, entry.URL)
	elapsed := time.Since(start)
	metrics.ChecksInFlight.Dec()

	outcome := domain.Classify(status, err, c.opts.Timeout)
	metrics.ObserveCheck(outcome, elapsed)

	if !outcome.OK() {
		c.logger.Debug("bookmark check failed",
			logger.String("url", entry.URL),
			logger.String("kind", outcome.Kind.String()),
			logger.String("detail", outcome.Detail),
			logger.Duration("elapsed", elapsed))
	}
	return outcome
}
