// Package refresh runs a read-side projection on a fixed interval for the
// lifetime of a session.
package refresh

import (
	"context"
	"errors"
	"sync"
	"time"
)

// DefaultInterval matches the dashboard refresh cadence.
const DefaultInterval = 5 * time.Second

var (
	ErrRunning    = errors.New("refresh: loop already running")
	ErrStopped    = errors.New("refresh: loop is not running")
	ErrSuperseded = errors.New("refresh: read superseded by a newer one")
)

// Fetcher reads a fresh snapshot.
type Fetcher[T any] func(ctx context.Context) (T, error)

type Option[T any] func(*Loop[T])

// WithUpdate sets the callback receiving every accepted snapshot. It runs
// with the loop's lock held and must not call back into the Loop.
func WithUpdate[T any](fn func(T)) Option[T] {
	return func(l *Loop[T]) { l.onUpdate = fn }
}

// WithError sets the callback receiving fetch failures of non-superseded reads.
func WithError[T any](fn func(error)) Option[T] {
	return func(l *Loop[T]) { l.onError = fn }
}

// Loop fetches a snapshot immediately on Start and then every interval.
// Reads are numbered when they begin; a read that finishes after a newer
// read has been accepted is dropped, so the newest read always wins.
type Loop[T any] struct {
	interval time.Duration
	fetch    Fetcher[T]
	onUpdate func(T)
	onError  func(error)

	mu      sync.Mutex
	next    uint64
	applied uint64
	latest  T
	has     bool
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

func New[T any](interval time.Duration, fetch Fetcher[T], opts ...Option[T]) *Loop[T] {
	if interval <= 0 {
		interval = DefaultInterval
	}
	l := &Loop[T]{interval: interval, fetch: fetch}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Start launches the background loop. It stops on its own when ctx ends.
func (l *Loop[T]) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running {
		return ErrRunning
	}

	loopCtx, cancel := context.WithCancel(ctx)
	l.running = true
	l.cancel = cancel
	l.done = make(chan struct{})
	go l.run(loopCtx, l.done)
	return nil
}

// Stop cancels the loop and waits for it to exit. No callback fires once
// Stop has returned. Stop is safe to call more than once.
func (l *Loop[T]) Stop() {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return
	}
	l.running = false
	cancel, done := l.cancel, l.done
	l.mu.Unlock()

	cancel()
	<-done
}

// Running reports whether the loop is between Start and Stop.
func (l *Loop[T]) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

// Now performs a read outside the schedule, typically right after a user
// action. Its result supersedes any scheduled read still in flight. It
// returns ErrStopped unless the loop is running.
func (l *Loop[T]) Now(ctx context.Context) (T, error) {
	return l.read(ctx)
}

// Latest returns the most recently accepted snapshot.
func (l *Loop[T]) Latest() (T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.latest, l.has
}

func (l *Loop[T]) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer func() {
		l.mu.Lock()
		if l.done == done {
			l.running = false
		}
		l.mu.Unlock()
	}()

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	_, _ = l.read(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = l.read(ctx)
		}
	}
}

func (l *Loop[T]) read(ctx context.Context) (T, error) {
	l.mu.Lock()
	l.next++
	seq := l.next
	l.mu.Unlock()

	value, err := l.fetch(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()

	var zero T
	switch {
	case !l.running:
		return zero, ErrStopped
	case seq < l.applied:
		return zero, ErrSuperseded
	case ctx.Err() != nil:
		return zero, ctx.Err()
	}
	if err != nil {
		if l.onError != nil {
			l.onError(err)
		}
		return value, err
	}

	l.applied = seq
	l.latest = value
	l.has = true
	if l.onUpdate != nil {
		l.onUpdate(value)
	}
	return value, nil
}
