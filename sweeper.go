package authkit

import (
	"context"
	"time"
)

// Sweeper deletes stale session records on a fixed cadence, independent
// of request traffic. It holds no long-lived lock: each tick is a single
// bulk delete that interleaves freely with live reads.
type Sweeper struct {
	handler  *PurgeSessionsHandler
	interval time.Duration
	logger   Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

type SweeperOption func(*Sweeper)

func WithSweepInterval(interval time.Duration) SweeperOption {
	return func(s *Sweeper) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

func WithSweeperLogger(logger Logger) SweeperOption {
	return func(s *Sweeper) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewSweeper(store SessionStore, opts ...SweeperOption) *Sweeper {
	s := &Sweeper{
		interval: DefaultSweepInterval,
		logger:   defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	s.handler = NewPurgeSessionsHandler(store, s.logger)

	return s
}

// Start launches the sweep loop. It returns immediately; the loop stops
// when ctx is cancelled or Stop is called. Calling Start on a running
// sweeper is a no-op.
func (s *Sweeper) Start(ctx context.Context) {
	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.run(ctx)
}

func (s *Sweeper) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.handler.Execute(ctx, PurgeSessionsMessage{RequestedBy: "sweeper"}); err != nil {
				s.logger.Error("scheduled session purge failed", "error", err)
			}
		}
	}
}

// Stop cancels the loop and waits for the in-flight tick, if any, to
// finish. Safe to call more than once.
func (s *Sweeper) Stop() {
	if s.cancel == nil {
		return
	}

	s.cancel()
	<-s.done
	s.cancel = nil
}

// SweepNow runs one purge synchronously, outside the schedule.
func (s *Sweeper) SweepNow(ctx context.Context) error {
	return s.handler.Execute(ctx, PurgeSessionsMessage{RequestedBy: "manual"})
}
