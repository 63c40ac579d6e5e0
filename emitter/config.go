package emitter

import (
	"errors"
	"time"

	"readout/core"
	"readout/format"
)

// Defaults used when a binding does not configure them
const (
	DefaultPlaces   = 2
	DefaultTapDelay = 10 * time.Millisecond
)

var ErrInvalidDelay = errors.New("tap delay must be positive")

// Config holds the per-binding settings
type Config struct {
	OID      uint8         // Binding ID, tags timing ring entries
	Places   int           // Decimal places typed, 0-6
	TapDelay time.Duration // Delay between consecutive key transitions
}

// DefaultConfig returns a configuration with all defaults applied
func DefaultConfig() Config {
	return Config{
		Places:   DefaultPlaces,
		TapDelay: DefaultTapDelay,
	}
}

// Validate checks a configuration at setup time
func (c Config) Validate() error {
	if !format.ValidPlaces(c.Places) {
		return format.ErrInvalidPlaces
	}
	if c.TapDelay <= 0 {
		return ErrInvalidDelay
	}
	return nil
}

// delayTicks converts the tap delay to scheduler ticks, never less than one
// so a rescheduled tick always lands in the future
func (c Config) delayTicks() uint32 {
	ticks := core.TimerFromDuration(c.TapDelay)
	if ticks == 0 {
		return 1
	}
	return ticks
}
