// Package lifetime provides pending-completion handles for work that outlives the
// handler that started it, and a tracker the host drains before shutting down.
package lifetime

import (
	"context"
	"sync"
)

// Pending is a handle on work that continues after its handler returned.
// The zero value is not usable; build one with Go or Done.
type Pending struct {
	name string
	done chan struct{}
	err  error
}

// Go runs fn on its own goroutine and returns a handle on its completion.
func Go(name string, fn func() error) *Pending {
	p := &Pending{name: name, done: make(chan struct{})}
	go func() {
		defer close(p.done)
		p.err = fn()
	}()
	return p
}

// Done returns a handle that is already complete.
func Done(name string) *Pending {
	p := &Pending{name: name, done: make(chan struct{})}
	close(p.done)
	return p
}

// Name returns the label given when the work was started.
func (p *Pending) Name() string {
	return p.name
}

// Finished returns a channel closed once the work completes.
func (p *Pending) Finished() <-chan struct{} {
	return p.done
}

// Wait blocks until the work completes or ctx is done.
func (p *Pending) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return p.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err returns the result of completed work, or nil while it is still running.
func (p *Pending) Err() error {
	select {
	case <-p.done:
		return p.err
	default:
		return nil
	}
}

// Tracker keeps every pending handle alive until it completes.
type Tracker struct {
	mu      sync.Mutex
	running int
	// idle is closed when running drops to zero and replaced when work starts again.
	idle    chan struct{}
	onError func(name string, err error)
}

// NewTracker creates a Tracker. onError, when non-nil, receives every failure
// reported by tracked work.
func NewTracker(onError func(name string, err error)) *Tracker {
	idle := make(chan struct{})
	close(idle)
	return &Tracker{idle: idle, onError: onError}
}

// Track registers p. Nil handles are ignored. Work tracked while Drain is waiting
// extends the wait.
func (t *Tracker) Track(p *Pending) {
	if p == nil {
		return
	}

	t.mu.Lock()
	if t.running == 0 {
		t.idle = make(chan struct{})
	}
	t.running++
	t.mu.Unlock()

	go func() {
		<-p.done
		if p.err != nil && t.onError != nil {
			t.onError(p.name, p.err)
		}

		t.mu.Lock()
		t.running--
		if t.running == 0 {
			close(t.idle)
		}
		t.mu.Unlock()
	}()
}

// Running returns the number of tracked handles that have not completed yet.
func (t *Tracker) Running() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Drain waits until no tracked handle is running, or for ctx to be done.
func (t *Tracker) Drain(ctx context.Context) error {
	for {
		t.mu.Lock()
		if t.running == 0 {
			t.mu.Unlock()
			return nil
		}
		idle := t.idle
		t.mu.Unlock()

		select {
		case <-idle:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
