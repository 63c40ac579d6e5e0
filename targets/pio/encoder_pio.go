//go:build rp2040 || rp2350

// Package pio samples quadrature encoders with an RP2040 PIO state
// machine so no transition is missed while the CPU is typing.
package pio

import (
	"errors"
	"machine"

	rp2pio "github.com/tinygo-org/pio/rp2-pio"

	"readout/core"
	"readout/sensor"
)

var ErrNoStateMachine = errors.New("no free PIO state machine")

// The sampler reads both encoder pins and pushes a word only when they
// change. Y holds the last pushed state.
//
//	.wrap_target
//	0: mov isr, null
//	1: in pins, 2
//	2: mov x, isr
//	3: jmp x!=y, 5
//	4: jmp 0
//	5: push noblock
//	6: mov y, x
//	.wrap
func buildSamplerProgram() []uint16 {
	asm := rp2pio.AssemblerV0{SidesetBits: 0}
	return []uint16{
		asm.Mov(rp2pio.MovDestISR, rp2pio.MovSrcNull).Encode(),
		asm.In(rp2pio.InSrcPins, 2).Encode(),
		asm.Mov(rp2pio.MovDestX, rp2pio.MovSrcISR).Encode(),
		asm.Jmp(5, rp2pio.JmpXNotEqualY).Encode(),
		asm.Jmp(0, rp2pio.JmpAlways).Encode(),
		asm.Push(false, false).Encode(),
		asm.Mov(rp2pio.MovDestY, rp2pio.MovSrcX).Encode(),
	}
}

const samplerOrigin = 0 // jump targets are absolute

// EncoderSampler feeds an Encoder from a PIO state machine watching two
// consecutive pins (A on base, B on base+1)
type EncoderSampler struct {
	Timer   core.Timer
	pio     *rp2pio.PIO
	sm      rp2pio.StateMachine
	base    machine.Pin
	encoder *sensor.Encoder
	sched   *core.Scheduler
	period  uint32
	offset  uint8

	overruns uint32
}

// NewEncoderSampler claims a state machine for pins base and base+1
func NewEncoderSampler(base machine.Pin, enc *sensor.Encoder, sched *core.Scheduler) (*EncoderSampler, error) {
	pioNum, smNum, ok := allocate()
	if !ok {
		return nil, ErrNoStateMachine
	}

	hw := rp2pio.PIO0
	if pioNum == 1 {
		hw = rp2pio.PIO1
	}
	s := &EncoderSampler{
		pio:     hw,
		sm:      hw.StateMachine(smNum),
		base:    base,
		encoder: enc,
		sched:   sched,
		period:  core.TimerFromUS(1000),
	}
	s.Timer.Handler = s.drain
	return s, nil
}

// Init loads the program and starts sampling
func (s *EncoderSampler) Init() error {
	s.sm.TryClaim()

	program := buildSamplerProgram()
	offset, err := s.pio.AddProgram(program, samplerOrigin)
	if err != nil {
		return err
	}
	s.offset = offset

	s.base.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	(s.base + 1).Configure(machine.PinConfig{Mode: machine.PinInputPullup})

	cfg := rp2pio.DefaultStateMachineConfig()
	cfg.SetInPins(s.base, 2)
	// Shift left so A lands in bit 0 and B in bit 1, no autopush
	cfg.SetInShift(false, false, 32)
	cfg.SetWrap(offset+uint8(len(program))-1, offset)
	// 125MHz / 125 = 1MHz instruction clock, ~200kHz sampling
	cfg.SetClkDivIntFrac(125, 0)

	s.sm.Init(offset, cfg)
	s.sm.SetPindirsConsecutive(s.base, 2, false)

	// Seed the encoder with the current level before the first push
	s.encoder.Init(s.base.Get(), (s.base + 1).Get())
	s.sm.SetEnabled(true)

	s.Timer.WakeTime = s.sched.Now() + s.period
	s.sched.ScheduleTimer(&s.Timer)
	return nil
}

// drain moves every queued sample into the encoder
func (s *EncoderSampler) drain(t *core.Timer) uint8 {
	n := 0
	for !s.sm.IsRxFIFOEmpty() {
		w := s.sm.RxGet()
		s.encoder.Sample(uint8(w&1)<<1 | uint8(w>>1)&1)
		n++
	}
	// A full FIFO means pushes were dropped
	if n >= 4 {
		s.overruns++
	}
	t.WakeTime += s.period
	return core.SF_RESCHEDULE
}

// Overruns returns how many drains found the FIFO full
func (s *EncoderSampler) Overruns() uint32 {
	return s.overruns
}

// Stop halts sampling
func (s *EncoderSampler) Stop() {
	s.sched.CancelTimer(&s.Timer)
	s.sm.SetEnabled(false)
	s.sm.ClearFIFOs()
}
