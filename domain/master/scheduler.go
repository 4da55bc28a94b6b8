package master

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Ticker is the tick source of a Scheduler.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct{ t *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

// NewTimeTicker wraps time.NewTicker.
func NewTimeTicker(d time.Duration) Ticker { return timeTicker{time.NewTicker(d)} }

// Scheduler runs a sync function on every tick until stopped.
type Scheduler struct {
	run       func(ctx context.Context) error
	interval  time.Duration
	newTicker func(time.Duration) Ticker
	log       *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler builds a scheduler for run. A nil newTicker uses time.Ticker.
func NewScheduler(run func(ctx context.Context) error, interval time.Duration, newTicker func(time.Duration) Ticker, log *slog.Logger) *Scheduler {
	if newTicker == nil {
		newTicker = NewTimeTicker
	}
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{run: run, interval: interval, newTicker: newTicker, log: log}
}

// Start begins ticking. It fails if the scheduler already runs or the
// interval is not positive.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return errors.New("scheduler already started")
	}
	if s.interval <= 0 {
		return errors.New("scheduler interval must be positive")
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	t := s.newTicker(s.interval)
	go s.loop(ctx, t, s.done)
	s.log.Info("scheduler.start", "interval", s.interval)
	return nil
}

func (s *Scheduler) loop(ctx context.Context, t Ticker, done chan struct{}) {
	defer close(done)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C():
			if err := s.run(ctx); err != nil {
				s.log.Warn("scheduler.run.error", "error", err)
			}
		}
	}
}

// Stop halts the scheduler and waits for an in-flight run to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.log.Info("scheduler.stop")
}

// Running reports whether Start was called without a matching Stop.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}
