// Package mainloop serialises state mutations onto a single goroutine.
//
// UI-facing state (current user, busy flags, errors) lives in Confined cells.
// A cell can be read from anywhere as an immutable snapshot, but it can only
// be changed by a function that the Loop runs on its own goroutine.
package mainloop

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrClosed is returned when work is submitted to a closed loop.
var ErrClosed = errors.New("mainloop: closed")

// Loop runs tasks one at a time, in submission order.
type Loop struct {
	tasks chan func()
	done  chan struct{}

	closeOnce sync.Once
	closed    atomic.Bool
	mu        sync.RWMutex // guards sends on tasks against Close
}

// New starts a loop with the given queue depth.
func New(queue int) *Loop {
	if queue <= 0 {
		queue = 64
	}
	l := &Loop{
		tasks: make(chan func(), queue),
		done:  make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *Loop) run() {
	defer close(l.done)
	for task := range l.tasks {
		task()
	}
}

// Post enqueues fn without waiting for it to run.
func (l *Loop) Post(fn func()) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed.Load() {
		return ErrClosed
	}
	l.tasks <- fn
	return nil
}

// Call runs fn on the loop and waits for it to finish or for ctx to end.
// It must not be called from a task already running on the loop.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if err := l.Post(func() {
		defer close(finished)
		fn()
	}); err != nil {
		return err
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting work, drains queued tasks and waits for the loop to exit.
func (l *Loop) Close() {
	l.closeOnce.Do(func() {
		l.mu.Lock()
		l.closed.Store(true)
		close(l.tasks)
		l.mu.Unlock()
	})
	<-l.done
}

// Confined is a value owned by a Loop.
type Confined[T any] struct {
	loop     *Loop
	value    atomic.Pointer[T]
	watchers []func(T) // only touched on the loop
	nextID   int
	ids      []int
}

// NewConfined creates a cell holding initial.
func NewConfined[T any](loop *Loop, initial T) *Confined[T] {
	c := &Confined[T]{loop: loop}
	c.value.Store(&initial)
	return c
}

// Load returns the latest published snapshot.
func (c *Confined[T]) Load() T {
	return *c.value.Load()
}

// Update replaces the value with fn(current) on the loop and waits.
// Watchers run on the loop after the new value is published.
func (c *Confined[T]) Update(ctx context.Context, fn func(T) T) error {
	return c.loop.Call(ctx, func() {
		c.apply(fn)
	})
}

// Set stores v on the loop and waits.
func (c *Confined[T]) Set(ctx context.Context, v T) error {
	return c.Update(ctx, func(T) T { return v })
}

// UpdateAsync queues fn without waiting.
func (c *Confined[T]) UpdateAsync(fn func(T) T) error {
	return c.loop.Post(func() {
		c.apply(fn)
	})
}

func (c *Confined[T]) apply(fn func(T) T) {
	next := fn(*c.value.Load())
	c.value.Store(&next)
	for _, w := range c.watchers {
		w(next)
	}
}

// Watch registers fn to observe every change. The returned function removes it.
func (c *Confined[T]) Watch(ctx context.Context, fn func(T)) (func(), error) {
	var id int
	err := c.loop.Call(ctx, func() {
		c.nextID++
		id = c.nextID
		c.ids = append(c.ids, id)
		c.watchers = append(c.watchers, fn)
	})
	if err != nil {
		return nil, err
	}
	return func() {
		_ = c.loop.Post(func() {
			for i, existing := range c.ids {
				if existing == id {
					c.ids = append(c.ids[:i], c.ids[i+1:]...)
					c.watchers = append(c.watchers[:i], c.watchers[i+1:]...)
					return
				}
			}
		})
	}, nil
}
