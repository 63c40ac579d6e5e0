//go:build rp2040 || rp2350

package main

import (
	"machine"

	"readout/core"
)

// Binding is the trigger surface of an emitter
type Binding interface {
	Pressed() error
	Released() error
}

// button polls an active-low push button from a scheduler timer and
// forwards debounced edges to a binding
type button struct {
	Timer   core.Timer
	pin     machine.Pin
	binding Binding
	oid     uint8
	sched   *core.Scheduler
	period  uint32

	stable  bool // debounced state, true = pressed
	samples uint8
}

const (
	buttonPollUS   = 2000
	buttonDebounce = 5 // consecutive samples
)

func newButton(pin machine.Pin, oid uint8, binding Binding, sched *core.Scheduler) *button {
	b := &button{
		pin:     pin,
		binding: binding,
		oid:     oid,
		sched:   sched,
		period:  core.TimerFromUS(buttonPollUS),
	}
	b.Timer.Handler = b.poll
	return b
}

func (b *button) start() {
	b.pin.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	b.Timer.WakeTime = b.sched.Now() + b.period
	b.sched.ScheduleTimer(&b.Timer)
}

func (b *button) poll(t *core.Timer) uint8 {
	pressed := !b.pin.Get()
	if pressed == b.stable {
		b.samples = 0
	} else {
		b.samples++
		if b.samples >= buttonDebounce {
			b.samples = 0
			b.stable = pressed
			b.edge(pressed)
		}
	}
	t.WakeTime += b.period
	return core.SF_RESCHEDULE
}

func (b *button) edge(pressed bool) {
	var err error
	if pressed {
		err = b.binding.Pressed()
	} else {
		err = b.binding.Released()
	}
	if err != nil {
		core.DebugPrintln("[BUTTON] oid=" + core.Itoa(int(b.oid)) + " " + err.Error())
	}
}
