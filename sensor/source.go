// Package sensor provides value sources that feed readings to an emitter.
package sensor

import (
	"errors"
	"strings"
	"sync/atomic"

	"readout/format"
)

// Channel selects which quantity of a multi-channel sensor is read
type Channel uint8

const (
	ChannelRotation Channel = iota // encoder rotation in degrees
	ChannelAccelX
	ChannelAccelY
	ChannelAccelZ
)

var (
	ErrUnknownChannel = errors.New("unknown sensor channel")
	ErrNotReady       = errors.New("sensor not ready")
)

// ParseChannel accepts rotation, accel_x, accel_y or accel_z
func ParseChannel(name string) (Channel, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "rotation":
		return ChannelRotation, nil
	case "accel_x", "x":
		return ChannelAccelX, nil
	case "accel_y", "y":
		return ChannelAccelY, nil
	case "accel_z", "z":
		return ChannelAccelZ, nil
	}
	return ChannelRotation, ErrUnknownChannel
}

func (c Channel) String() string {
	switch c {
	case ChannelRotation:
		return "rotation"
	case ChannelAccelX:
		return "accel_x"
	case ChannelAccelY:
		return "accel_y"
	case ChannelAccelZ:
		return "accel_z"
	}
	return "unknown"
}

// Static is a source holding a settable reading, used by the host
// simulator and tests
type Static struct {
	micro atomic.Int64
}

// NewStatic creates a source that returns v until Set is called
func NewStatic(v format.FixedPoint) *Static {
	s := &Static{}
	s.Set(v)
	return s
}

// Set replaces the reading
func (s *Static) Set(v format.FixedPoint) {
	s.micro.Store(v.Scaled())
}

// Fetch returns the current reading
func (s *Static) Fetch() (format.FixedPoint, error) {
	return format.FromMicro(s.micro.Load()), nil
}
