package refresh

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoopDeliversSnapshots(t *testing.T) {
	var calls atomic.Int64
	updates := make(chan int64, 16)

	loop := New(5*time.Millisecond, func(ctx context.Context) (int64, error) {
		return calls.Add(1), nil
	}, WithUpdate(func(v int64) {
		select {
		case updates <- v:
		default:
		}
	}))

	require.NoError(t, loop.Start(context.Background()))
	defer loop.Stop()

	for want := int64(1); want <= 3; want++ {
		select {
		case got := <-updates:
			assert.Equal(t, want, got)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for update %d", want)
		}
	}

	latest, ok := loop.Latest()
	assert.True(t, ok)
	assert.GreaterOrEqual(t, latest, int64(3))
}

func TestLoopStartTwice(t *testing.T) {
	loop := New(time.Hour, func(ctx context.Context) (int, error) { return 1, nil })
	require.NoError(t, loop.Start(context.Background()))
	defer loop.Stop()

	assert.ErrorIs(t, loop.Start(context.Background()), ErrRunning)
	assert.True(t, loop.Running())
}

func TestLoopNeverFiresAfterStop(t *testing.T) {
	var updates atomic.Int64
	loop := New(2*time.Millisecond, func(ctx context.Context) (int, error) {
		return 1, nil
	}, WithUpdate(func(int) { updates.Add(1) }))

	require.NoError(t, loop.Start(context.Background()))
	require.Eventually(t, func() bool { return updates.Load() > 0 }, 2*time.Second, time.Millisecond)

	loop.Stop()
	seen := updates.Load()
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, seen, updates.Load())
	assert.False(t, loop.Running())

	_, err := loop.Now(context.Background())
	assert.ErrorIs(t, err, ErrStopped)

	loop.Stop()
}

func TestLoopDropsReadInFlightAtStop(t *testing.T) {
	started := make(chan struct{})
	var once sync.Once
	var updates atomic.Int64

	loop := New(time.Hour, func(ctx context.Context) (string, error) {
		once.Do(func() { close(started) })
		<-ctx.Done()
		return "late", nil
	}, WithUpdate(func(string) { updates.Add(1) }))

	require.NoError(t, loop.Start(context.Background()))
	<-started
	loop.Stop()

	assert.Zero(t, updates.Load())
	_, ok := loop.Latest()
	assert.False(t, ok)
}

func TestLoopNewerReadWins(t *testing.T) {
	slowStarted := make(chan struct{})
	releaseSlow := make(chan struct{})
	var calls atomic.Int64

	var mu sync.Mutex
	var seen []string

	loop := New(time.Hour, func(ctx context.Context) (string, error) {
		if calls.Add(1) == 1 {
			close(slowStarted)
			<-releaseSlow
			return "stale", nil
		}
		return "fresh", nil
	}, WithUpdate(func(v string) {
		mu.Lock()
		seen = append(seen, v)
		mu.Unlock()
	}))

	require.NoError(t, loop.Start(context.Background()))
	<-slowStarted

	got, err := loop.Now(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh", got)

	close(releaseSlow)
	require.Eventually(t, func() bool {
		latest, _ := loop.Latest()
		return latest == "fresh"
	}, time.Second, time.Millisecond)
	loop.Stop()

	latest, ok := loop.Latest()
	assert.True(t, ok)
	assert.Equal(t, "fresh", latest)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"fresh"}, seen)
}

func TestLoopErrorsKeepLastSnapshot(t *testing.T) {
	var calls atomic.Int64
	errs := make(chan error, 4)
	boom := errors.New("server unavailable")

	loop := New(time.Hour, func(ctx context.Context) (int, error) {
		if calls.Add(1) == 1 {
			return 7, nil
		}
		return 0, boom
	}, WithError[int](func(err error) {
		errs <- err
	}))

	require.NoError(t, loop.Start(context.Background()))
	defer loop.Stop()
	require.Eventually(t, func() bool { _, ok := loop.Latest(); return ok }, time.Second, time.Millisecond)

	_, err := loop.Now(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, <-errs, boom)

	latest, _ := loop.Latest()
	assert.Equal(t, 7, latest)
}

func TestLoopStopsWithParentContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	loop := New(time.Millisecond, func(ctx context.Context) (int, error) { return 1, nil })
	require.NoError(t, loop.Start(ctx))

	cancel()
	require.Eventually(t, func() bool { return !loop.Running() }, time.Second, time.Millisecond)

	require.NoError(t, loop.Start(context.Background()))
	loop.Stop()
}

func TestNewDefaultsInterval(t *testing.T) {
	loop := New(0, func(ctx context.Context) (int, error) { return 0, nil })
	assert.Equal(t, DefaultInterval, loop.interval)
}
