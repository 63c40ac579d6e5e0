// Package runtime drives firmware-style timers and triggers on the host.
package runtime

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"readout/core"
)

var ErrInvalidPeriod = errors.New("tick period must be positive")

// Runner advances a core.Scheduler in step with a wall clock, standing in
// for the MCU timer interrupt
type Runner struct {
	clock  clockwork.Clock
	sched  *core.Scheduler
	period time.Duration
}

// NewRunner creates a runner that polls the clock every period
func NewRunner(clock clockwork.Clock, sched *core.Scheduler, period time.Duration) (*Runner, error) {
	if period <= 0 {
		return nil, ErrInvalidPeriod
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Runner{clock: clock, sched: sched, period: period}, nil
}

// Run dispatches due timers until ctx is done
func (r *Runner) Run(ctx context.Context) error {
	start := r.clock.Now()
	base := r.sched.Now()

	ticker := r.clock.NewTicker(r.period)
	defer ticker.Stop()

	slog.Debug("Timer runner started", slog.Duration("period", r.period))
	for {
		select {
		case <-ctx.Done():
			slog.Debug("Timer runner stopped")
			return nil
		case <-ticker.Chan():
			r.sched.AdvanceTo(base + elapsedTicks(r.clock.Since(start)))
		}
	}
}

// elapsedTicks converts a duration to clock ticks, wrapping like the
// hardware counter does
func elapsedTicks(d time.Duration) uint32 {
	if d <= 0 {
		return 0
	}
	return uint32(uint64(d/time.Microsecond) * (core.TimerFreq / 1000000))
}
