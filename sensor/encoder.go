package sensor

import (
	"sync/atomic"

	"readout/core"
	"readout/format"
)

// quadratureTable maps (previous<<2 | current) AB states to a step.
// Invalid double transitions count as zero.
var quadratureTable = [16]int8{
	0, -1, 1, 0,
	1, 0, 0, -1,
	-1, 0, 0, 1,
	0, 1, -1, 0,
}

// Encoder accumulates the rotation of a quadrature rotary encoder. Update
// may run from an interrupt or poll timer while Fetch runs from Start.
type Encoder struct {
	pulsesPerRev int64
	position     atomic.Int64 // quadrature transitions since Reset
	last         atomic.Uint32
}

// NewEncoder creates an encoder producing pulsesPerRev transitions per
// full turn (four per detent for a typical EC11)
func NewEncoder(pulsesPerRev int) *Encoder {
	if pulsesPerRev <= 0 {
		pulsesPerRev = 1
	}
	return &Encoder{pulsesPerRev: int64(pulsesPerRev)}
}

// Init records the starting pin state without counting a step
func (e *Encoder) Init(a, b bool) {
	e.last.Store(uint32(pack(a, b)))
}

// Update feeds one sample of the A and B pins
func (e *Encoder) Update(a, b bool) {
	e.Sample(pack(a, b))
}

// Sample feeds one two-bit AB sample (A in bit 1, B in bit 0), the layout
// the PIO sampler pushes
func (e *Encoder) Sample(ab uint8) {
	ab &= 0x3
	prev := uint8(e.last.Swap(uint32(ab)))
	if step := quadratureTable[prev<<2|ab]; step != 0 {
		e.position.Add(int64(step))
	}
}

// Pulses returns the accumulated transition count
func (e *Encoder) Pulses() int64 {
	return e.position.Load()
}

// Reset zeroes the accumulated rotation
func (e *Encoder) Reset() {
	e.position.Store(0)
}

// Fetch returns the accumulated rotation in degrees
func (e *Encoder) Fetch() (format.FixedPoint, error) {
	micro := e.position.Load() * 360 * format.MicroPerUnit / e.pulsesPerRev
	return format.FromMicro(micro), nil
}

func pack(a, b bool) uint8 {
	var v uint8
	if a {
		v |= 2
	}
	if b {
		v |= 1
	}
	return v
}

// PinReader returns the current levels of an encoder's A and B pins
type PinReader func() (a, b bool)

// Poller samples encoder pins from a scheduler timer, for boards without
// pin-change interrupts or PIO
type Poller struct {
	Timer   core.Timer
	encoder *Encoder
	read    PinReader
	period  uint32
	sched   *core.Scheduler
}

// NewPoller creates a poller sampling every period ticks
func NewPoller(sched *core.Scheduler, enc *Encoder, read PinReader, period uint32) *Poller {
	if period == 0 {
		period = 1
	}
	p := &Poller{encoder: enc, read: read, period: period, sched: sched}
	p.Timer.Handler = p.handler
	return p
}

// Start takes the initial pin state and schedules the first sample
func (p *Poller) Start() {
	a, b := p.read()
	p.encoder.Init(a, b)
	p.Timer.WakeTime = p.sched.Now() + p.period
	p.sched.ScheduleTimer(&p.Timer)
}

// Stop unschedules sampling
func (p *Poller) Stop() {
	p.sched.CancelTimer(&p.Timer)
}

func (p *Poller) handler(t *core.Timer) uint8 {
	p.encoder.Update(p.read())
	t.WakeTime += p.period
	return core.SF_RESCHEDULE
}
