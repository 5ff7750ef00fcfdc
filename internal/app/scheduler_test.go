package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingBackuper struct {
	mu     sync.Mutex
	calls  int
	result AutoBackupResult
	err    error
}

func (b *countingBackuper) AutoBackup(ctx context.Context) (AutoBackupResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	return b.result, b.err
}

func (b *countingBackuper) Calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

func TestScheduler_ChecksImmediatelyAndOnTick(t *testing.T) {
	b := &countingBackuper{result: AutoBackupResult{Ran: true, Notify: true}}
	var mu sync.Mutex
	notices := 0
	s := NewScheduler(b, 10*time.Millisecond, func(AutoBackupResult) {
		mu.Lock()
		notices++
		mu.Unlock()
	})

	done := make(chan error, 1)
	go func() { done <- s.Start(context.Background()) }()

	require.Eventually(t, func() bool { return b.Calls() >= 3 }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, s.Stop())
	require.NoError(t, <-done)

	mu.Lock()
	defer mu.Unlock()
	assert.GreaterOrEqual(t, notices, 3)
}

func TestScheduler_ErrorsAndSkipsDoNotNotify(t *testing.T) {
	for name, b := range map[string]*countingBackuper{
		"error":   {err: errors.New("disk full")},
		"skipped": {result: AutoBackupResult{Reason: ReasonNotDue, Notify: true}},
	} {
		t.Run(name, func(t *testing.T) {
			notified := make(chan struct{}, 1)
			s := NewScheduler(b, 10*time.Millisecond, func(AutoBackupResult) {
				select {
				case notified <- struct{}{}:
				default:
				}
			})

			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() { done <- s.Start(ctx) }()

			require.Eventually(t, func() bool { return b.Calls() >= 2 }, 2*time.Second, 5*time.Millisecond)
			cancel()
			assert.ErrorIs(t, <-done, context.Canceled)
			assert.Empty(t, notified)
		})
	}
}

func TestScheduler_StopIsIdempotent(t *testing.T) {
	s := NewScheduler(&countingBackuper{}, 0, nil)
	assert.Equal(t, DefaultTick, s.tick)
	require.NoError(t, s.Stop())
	require.NoError(t, s.Stop())
}

func TestScheduler_StartTwiceReturns(t *testing.T) {
	b := &countingBackuper{}
	s := NewScheduler(b, time.Hour, nil)

	done := make(chan error, 1)
	go func() { done <- s.Start(context.Background()) }()
	require.Eventually(t, func() bool { return b.Calls() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, s.Start(context.Background()), "second start is a no-op")
	require.NoError(t, s.Stop())
	require.NoError(t, <-done)
}

func TestScheduler_RestartsAfterCancel(t *testing.T) {
	b := &countingBackuper{}
	s := NewScheduler(b, time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()
	require.Eventually(t, func() bool { return b.Calls() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	go func() { done <- s.Start(context.Background()) }()
	require.Eventually(t, func() bool { return b.Calls() == 2 }, time.Second, 5*time.Millisecond,
		"a cancelled scheduler can be started again")
	require.NoError(t, s.Stop())
	require.NoError(t, <-done)
}
