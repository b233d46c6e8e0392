package analyzer

import (
	"context"
	"sync/atomic"
)

// ProgressFunc receives (done, total, path) each time a file finishes.
type ProgressFunc func(done, total int, path string)

// Tracker counts finished files. Workers tick it concurrently.
type Tracker struct {
	total    atomic.Int64
	done     atomic.Int64
	onChange ProgressFunc
}

// NewTracker creates a tracker reporting to fn, which may be nil.
func NewTracker(fn ProgressFunc) *Tracker {
	return &Tracker{onChange: fn}
}

// Add grows the expected total by n.
func (t *Tracker) Add(n int) {
	t.total.Add(int64(n))
}

// SetTotal replaces the expected total.
func (t *Tracker) SetTotal(n int) {
	t.total.Store(int64(n))
}

// Tick marks the file at path as finished.
func (t *Tracker) Tick(path string) {
	done := int(t.done.Add(1))
	if t.onChange != nil {
		t.onChange(done, t.Total(), path)
	}
}

// Current returns the number of finished files.
func (t *Tracker) Current() int {
	return int(t.done.Load())
}

// Total returns the expected number of files.
func (t *Tracker) Total() int {
	return int(t.total.Load())
}

// Remaining returns how many expected files have not finished.
func (t *Tracker) Remaining() int {
	return max(0, t.Total()-t.Current())
}

type trackerKey struct{}

// WithTracker attaches t to ctx.
func WithTracker(ctx context.Context, t *Tracker) context.Context {
	return context.WithValue(ctx, trackerKey{}, t)
}

// TrackerFromContext returns the tracker attached to ctx, or nil.
func TrackerFromContext(ctx context.Context) *Tracker {
	t, _ := ctx.Value(trackerKey{}).(*Tracker)
	return t
}
