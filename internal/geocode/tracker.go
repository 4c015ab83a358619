package geocode

import (
	"context"
	"sync"
)

// Tracker orders overlapping lookups from one user. Each Begin supersedes the
// previous lookup: its context is cancelled and its results are refused by
// Accept.
type Tracker struct {
	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

// Begin starts a new generation derived from parent.
func (t *Tracker) Begin(parent context.Context) (context.Context, uint64) {
	ctx, cancel := context.WithCancel(parent)

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		t.cancel()
	}
	t.gen++
	t.cancel = cancel
	return ctx, t.gen
}

// Accept reports whether gen is still the newest generation and, if so,
// releases its context.
func (t *Tracker) Accept(gen uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if gen != t.gen {
		return false
	}
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	return true
}

// Current returns the newest generation handed out.
func (t *Tracker) Current() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.gen
}

// Stop cancels any in-flight lookup.
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
}

// Search runs one tracked lookup. ok is false when a newer Begin happened
// while it was in flight.
func (t *Tracker) Search(parent context.Context, s Searcher, query string) (results []Candidate, gen uint64, ok bool) {
	ctx, gen := t.Begin(parent)
	results = s.Search(ctx, query)
	return results, gen, t.Accept(gen)
}
