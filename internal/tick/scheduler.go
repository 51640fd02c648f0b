// Package tick runs registered callbacks at a fixed interval.
package tick

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Func is a tick callback. Returned errors are logged; they never stop the loop.
type Func func(ctx context.Context) error

type callback struct {
	name string
	fn   Func
}

// Scheduler fires its callbacks once per interval. A tick never starts before
// the previous one has returned, and missed ticks are not replayed.
type Scheduler struct {
	interval time.Duration

	mu        sync.Mutex
	callbacks []callback
	running   bool
	cancel    context.CancelFunc
	stopped   chan struct{}
	ticks     uint64
}

// New creates a stopped scheduler.
func New(interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	return &Scheduler{interval: interval}
}

// Interval returns the tick interval.
func (s *Scheduler) Interval() time.Duration { return s.interval }

// Register adds a callback. Callbacks run in registration order.
func (s *Scheduler) Register(name string, fn Func) {
	s.mu.Lock()
	s.callbacks = append(s.callbacks, callback{name: name, fn: fn})
	s.mu.Unlock()
}

// Ticks returns how many ticks have completed.
func (s *Scheduler) Ticks() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ticks
}

// Running reports whether the loop is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Start launches the loop. Calling Start on a running scheduler does nothing.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.stopped = make(chan struct{})
	s.running = true

	go s.loop(loopCtx, s.stopped)
	log.Info().Dur("interval", s.interval).Msg("Tick scheduler started")
}

// Stop ends the loop after the current tick and waits for it to exit.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	cancel, stopped := s.cancel, s.stopped
	s.mu.Unlock()

	cancel()
	<-stopped
	log.Info().Uint64("ticks", s.Ticks()).Msg("Tick scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context, stopped chan struct{}) {
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		close(stopped)
	}()

	timer := time.NewTimer(s.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		started := time.Now()
		s.runTick(ctx)

		// aim for start+interval; if the tick overran, fire again right away
		wait := time.Until(started.Add(s.interval))
		if wait < 0 {
			wait = 0
		}
		timer.Reset(wait)
	}
}

func (s *Scheduler) runTick(ctx context.Context) {
	s.mu.Lock()
	cbs := make([]callback, len(s.callbacks))
	copy(cbs, s.callbacks)
	s.mu.Unlock()

	for _, cb := range cbs {
		if ctx.Err() != nil {
			return
		}
		if err := safeCall(ctx, cb); err != nil {
			log.Error().Err(err).Str("callback", cb.name).Msg("Tick callback failed")
		}
	}

	s.mu.Lock()
	s.ticks++
	s.mu.Unlock()
}

func safeCall(ctx context.Context, cb callback) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in tick callback: %v", r)
		}
	}()
	return cb.fn(ctx)
}
