// Copyright (C) 2026 Kronoa Authors.
// See LICENSE for copying information.

// Package sync2 provides small concurrency helpers used by the engine's
// periodic loops: lock-lease renewal during stage/flatten/GC.
package sync2

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

type cycleCommand int

const (
	cmdPause cycleCommand = iota
	cmdRestart
	cmdStop
)

type triggerRequest struct {
	wait chan<- struct{}
}

// Cycle repeatedly calls a function on an interval, until stopped. A zero
// Cycle is ready to use once SetInterval has been called, or use
// NewCycle. Cycle is the engine's stand-in for a heartbeat thread: lease
// renewal loops are built on it rather than a raw time.Ticker so tests can
// deterministically Trigger a run instead of sleeping.
type Cycle struct {
	interval time.Duration

	once     sync.Once
	commands chan cycleCommand
	triggers chan triggerRequest
	done     chan struct{}
}

// NewCycle returns a Cycle that runs every interval once Start is called.
func NewCycle(interval time.Duration) *Cycle {
	cycle := &Cycle{}
	cycle.SetInterval(interval)
	return cycle
}

// SetInterval sets the interval between runs. It must be called before
// Start, or on a Cycle that hasn't started yet.
func (cycle *Cycle) SetInterval(interval time.Duration) {
	cycle.interval = interval
}

func (cycle *Cycle) init() {
	cycle.once.Do(func() {
		cycle.commands = make(chan cycleCommand)
		cycle.triggers = make(chan triggerRequest)
		cycle.done = make(chan struct{})
	})
}

// Start launches the cycle in a goroutine tracked by group, calling fn on
// every tick until the context is canceled or Stop is called.
func (cycle *Cycle) Start(ctx context.Context, group *errgroup.Group, fn func(ctx context.Context) error) {
	cycle.init()

	group.Go(func() error {
		return cycle.Run(ctx, fn)
	})
}

// Run executes fn on every tick until ctx is canceled or Stop is called.
// It blocks the calling goroutine; most callers use Start instead.
func (cycle *Cycle) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	cycle.init()
	defer close(cycle.done)

	var ticker *time.Ticker
	var tickerC <-chan time.Time
	if cycle.interval > 0 {
		ticker = time.NewTicker(cycle.interval)
		defer ticker.Stop()
		tickerC = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case cmd := <-cycle.commands:
			switch cmd {
			case cmdPause:
				if ticker != nil {
					ticker.Stop()
				}
				tickerC = nil
			case cmdRestart:
				if cycle.interval > 0 {
					if ticker == nil {
						ticker = time.NewTicker(cycle.interval)
					} else {
						ticker.Reset(cycle.interval)
					}
					tickerC = ticker.C
				}
			case cmdStop:
				return nil
			}

		case req := <-cycle.triggers:
			err := fn(ctx)
			if req.wait != nil {
				close(req.wait)
			}
			if err != nil {
				return err
			}

		case <-tickerC:
			if err := fn(ctx); err != nil {
				return err
			}
		}
	}
}

// Pause stops the cycle from ticking until Restart is called. In-flight
// runs are not interrupted.
func (cycle *Cycle) Pause() {
	cycle.init()
	cycle.sendCommand(cmdPause)
}

// Restart resumes ticking at the configured interval.
func (cycle *Cycle) Restart() {
	cycle.init()
	cycle.sendCommand(cmdRestart)
}

// Trigger requests an immediate run without waiting for it to complete.
func (cycle *Cycle) Trigger() {
	cycle.init()
	select {
	case cycle.triggers <- triggerRequest{}:
	case <-cycle.done:
	}
}

// TriggerWait requests an immediate run and blocks until it completes.
func (cycle *Cycle) TriggerWait() {
	cycle.init()
	wait := make(chan struct{})
	select {
	case cycle.triggers <- triggerRequest{wait: wait}:
	case <-cycle.done:
		return
	}
	select {
	case <-wait:
	case <-cycle.done:
	}
}

// Stop ends the cycle; Run returns shortly afterward.
func (cycle *Cycle) Stop() {
	cycle.init()
	cycle.sendCommand(cmdStop)
}

func (cycle *Cycle) sendCommand(cmd cycleCommand) {
	select {
	case cycle.commands <- cmd:
	case <-cycle.done:
	}
}

// Close releases resources associated with the cycle. It is safe to call
// multiple times and after Stop.
func (cycle *Cycle) Close() {
	cycle.init()
	select {
	case <-cycle.done:
	default:
		cycle.Stop()
	}
}
