package search

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/hkeats/eats/internal/domain"
)

// DefaultQuietPeriod is the typing pause before a search-as-you-type query runs.
const DefaultQuietPeriod = 300 * time.Millisecond

// Debouncer runs only the most recent of a burst of tasks, after a quiet
// period. A superseded task is cancelled; if it has not started it never runs.
type Debouncer struct {
	delay time.Duration

	mu      sync.Mutex
	cancel  context.CancelFunc
	closed  bool
	running sync.WaitGroup
}

// NewDebouncer creates a debouncer with the given quiet period.
func NewDebouncer(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = DefaultQuietPeriod
	}
	return &Debouncer{delay: delay}
}

// Submit cancels any pending task and schedules fn. fn's context is
// cancelled when a newer task is submitted.
func (d *Debouncer) Submit(fn func(ctx context.Context)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	if d.cancel != nil {
		d.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel

	d.running.Add(1)
	go func() {
		defer d.running.Done()
		timer := time.NewTimer(d.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		fn(ctx)
	}()
}

// Cancel cancels the pending task, if any.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}

// Close cancels pending work, waits for running tasks and rejects new ones.
func (d *Debouncer) Close() {
	d.mu.Lock()
	d.closed = true
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.mu.Unlock()
	d.running.Wait()
}

// Typeahead runs a search for the latest text typed. Results of superseded
// searches are dropped.
type Typeahead struct {
	svc      *Service
	debounce *Debouncer
	base     Query
	onResult func(text string, results []domain.Restaurant, err error)
}

// NewTypeahead creates a typeahead. base supplies filters and geo-bias for
// every query; onResult receives the outcome of each search that was not
// superseded.
func NewTypeahead(svc *Service, quiet time.Duration, base Query, onResult func(string, []domain.Restaurant, error)) *Typeahead {
	return &Typeahead{
		svc:      svc,
		debounce: NewDebouncer(quiet),
		base:     base,
		onResult: onResult,
	}
}

// Submit schedules a search for text. Blank text cancels the pending search.
func (t *Typeahead) Submit(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		t.debounce.Cancel()
		return
	}
	q := t.base
	q.Text = text
	t.debounce.Submit(func(ctx context.Context) {
		results, err := t.svc.Search(ctx, q)
		if ctx.Err() != nil {
			return
		}
		t.onResult(text, results, err)
	})
}

// Close stops the typeahead.
func (t *Typeahead) Close() { t.debounce.Close() }
