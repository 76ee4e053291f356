// Package progress reports checker progress without ever slowing it down.
package progress

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// Sink accepts fire-and-forget progress updates.
type Sink interface {
	Update(completed, total int)
}

// Nop discards updates.
type Nop struct{}

func (Nop) Update(int, int) {}

// Console draws a single self-overwriting progress line.
type Console struct {
	w       io.Writer
	label   string
	workers int
	width   int
	paint   *color.Color

	mu   sync.Mutex
	last int
}

// NewConsole returns a console sink writing to w.
func NewConsole(w io.Writer, label string, workers int) *Console {
	return &Console{
		w:       w,
		label:   label,
		workers: workers,
		width:   40,
		paint:   color.New(color.FgCyan),
		last:    -1,
	}
}

func (c *Console) Update(completed, total int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if completed == c.last {
		return
	}
	c.last = completed

	_, _ = c.paint.Fprintf(c.w, "\r%s %s %d/%d (%d workers)", c.label, c.bar(completed, total), completed, total, c.workers)
}

// Finish terminates the progress line.
func (c *Console) Finish() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last >= 0 {
		_, _ = fmt.Fprintln(c.w)
	}
}

func (c *Console) bar(completed, total int) string {
	filled := c.width
	if total > 0 {
		filled = completed * c.width / total
	}
	if filled > c.width {
		filled = c.width
	}
	if filled == c.width {
		return "[" + strings.Repeat("=", c.width) + "]"
	}
	return "[" + strings.Repeat("=", filled) + ">" + strings.Repeat("-", c.width-filled-1) + "]"
}

// Async decouples a sink from its caller. Update never blocks: only the
// newest value is kept and intermediate values may be skipped. A panicking
// sink is contained.
type Async struct {
	sink Sink

	mu        sync.Mutex
	completed int
	total     int
	dirty     bool
	closed    bool

	wake chan struct{}
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// NewAsync starts forwarding to sink in a background goroutine.
// A nil sink is replaced by Nop.
func NewAsync(sink Sink) *Async {
	if sink == nil {
		sink = Nop{}
	}
	a := &Async{
		sink: sink,
		wake: make(chan struct{}, 1),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *Async) Update(completed, total int) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.completed, a.total, a.dirty = completed, total, true
	a.mu.Unlock()

	select {
	case a.wake <- struct{}{}:
	default:
	}
}

// Close delivers the last pending update and stops the forwarder.
func (a *Async) Close() {
	a.once.Do(func() {
		a.mu.Lock()
		a.closed = true
		a.mu.Unlock()
		close(a.stop)
		<-a.done
	})
}

func (a *Async) run() {
	defer close(a.done)
	for {
		select {
		case <-a.wake:
			a.flush()
		case <-a.stop:
			a.flush()
			return
		}
	}
}

func (a *Async) flush() {
	a.mu.Lock()
	if !a.dirty {
		a.mu.Unlock()
		return
	}
	completed, total := a.completed, a.total
	a.dirty = false
	a.mu.Unlock()

	defer func() { _ = recover() }()
	a.sink.Update(completed, total)
}
