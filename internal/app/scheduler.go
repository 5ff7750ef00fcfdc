package app

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultTick is how often the scheduler checks whether a backup is due.
const DefaultTick = time.Minute

// AutoBackuper runs one scheduled backup check.
type AutoBackuper interface {
	AutoBackup(ctx context.Context) (AutoBackupResult, error)
}

// Scheduler runs the recurring backup check. Whether a backup is due is
// decided by the AutoBackuper from durable state, so the tick only bounds
// how late a due backup can start.
type Scheduler struct {
	backups AutoBackuper
	tick    time.Duration
	notify  func(AutoBackupResult)

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup

	// busy is held while a check runs; overlapping ticks are skipped.
	busy sync.Mutex
}

// NewScheduler returns a scheduler over b. notify, if non-nil, is called
// for every completed backup whose result asks for a notice.
func NewScheduler(b AutoBackuper, tick time.Duration, notify func(AutoBackupResult)) *Scheduler {
	if tick <= 0 {
		tick = DefaultTick
	}
	return &Scheduler{backups: b, tick: tick, notify: notify}
}

// Start begins the scheduler loop. It checks immediately, then on every
// tick, and blocks until Stop is called or ctx is done.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stop := s.stopCh
	s.mu.Unlock()

	return s.run(ctx, stop)
}

// Stop ends the loop and waits for a running check to finish.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

func (s *Scheduler) run(ctx context.Context, stop <-chan struct{}) error {
	s.check(ctx)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			s.mu.Lock()
			if s.stopCh == stop {
				s.running = false
			}
			s.mu.Unlock()
			return ctx.Err()
		case <-stop:
			return nil
		case <-ticker.C:
			s.check(ctx)
		}
	}
}

// check starts one backup check unless the previous one is still running.
func (s *Scheduler) check(ctx context.Context) {
	if !s.busy.TryLock() {
		slog.Debug("scheduler: previous backup check still running")
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.busy.Unlock()

		res, err := s.backups.AutoBackup(ctx)
		if err != nil {
			slog.Error("scheduler: auto backup failed", "error", err)
			return
		}
		if !res.Ran {
			slog.Debug("scheduler: auto backup skipped", "reason", res.Reason)
			return
		}
		if res.Notify && s.notify != nil {
			s.notify(res)
		}
	}()
}
