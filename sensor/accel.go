package sensor

import (
	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/adxl345"

	"readout/format"
)

// Unit is the unit an accelerometer reading is typed in
type Unit uint8

const (
	UnitG   Unit = iota // standard gravity
	UnitMS2             // metres per second squared
)

// standardGravityMicro is 9.80665 m/s^2 in micro-units
const standardGravityMicro = 9806650

// Accelerometer reads one axis of an ADXL345 as a fixed-point value
type Accelerometer struct {
	dev     adxl345.Device
	channel Channel
	unit    Unit
}

// NewAccelerometer configures an ADXL345 on bus and returns a source for
// one axis
func NewAccelerometer(bus drivers.I2C, channel Channel, unit Unit) (*Accelerometer, error) {
	if channel != ChannelAccelX && channel != ChannelAccelY && channel != ChannelAccelZ {
		return nil, ErrUnknownChannel
	}
	a := &Accelerometer{
		dev:     adxl345.New(bus),
		channel: channel,
		unit:    unit,
	}
	a.dev.Configure()
	return a, nil
}

// Fetch reads the configured axis. The driver reports micro-g.
func (a *Accelerometer) Fetch() (format.FixedPoint, error) {
	x, y, z, err := a.dev.ReadAcceleration()
	if err != nil {
		return format.FixedPoint{}, err
	}

	var microG int32
	switch a.channel {
	case ChannelAccelX:
		microG = x
	case ChannelAccelY:
		microG = y
	default:
		microG = z
	}

	if a.unit == UnitMS2 {
		return format.FromMicro(int64(microG) * standardGravityMicro / format.MicroPerUnit), nil
	}
	return format.FromMicro(int64(microG)), nil
}

// SetRange selects the measurement range; readings stay in micro-g
func (a *Accelerometer) SetRange(r adxl345.Range) {
	a.dev.SetRange(r)
}

// Close puts the sensor in standby
func (a *Accelerometer) Close() {
	a.dev.Halt()
}
