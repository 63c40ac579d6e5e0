//go:build rp2040 || rp2350

package main

import (
	"machine"
	"time"

	"tinygo.org/x/drivers/adxl345"

	"readout/core"
	"readout/emitter"
	"readout/sensor"
	"readout/targets/pio"
)

// Board wiring
const (
	encoderPinA   = machine.GPIO2 // B on GPIO3
	encoderButton = machine.GPIO15
	accelButton   = machine.GPIO14

	encoderPulsesPerRev = 80
)

var (
	sched       = core.NewScheduler()
	hidKeyboard *keyboardSink

	// Debug counters
	tickErrors uint32
)

func main() {
	// Disable watchdog on boot to clear any previous state
	err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0})
	if err != nil {
		return
	}

	InitUSB()
	InitDebugUART()
	sched.SetTime(hardwareTicks())

	hidKeyboard = newKeyboardSink()

	setupEncoderBinding(0)
	setupAccelBinding(1)

	for {
		// Recover from panics in the main loop to prevent a firmware crash
		func() {
			defer func() {
				if r := recover(); r != nil {
					tickErrors++
				}
			}()
			sched.AdvanceTo(hardwareTicks())
		}()

		// Yield to other goroutines (USB stack)
		time.Sleep(10 * time.Microsecond)
	}
}

// setupEncoderBinding types the knob angle in degrees with one decimal
func setupEncoderBinding(oid uint8) {
	enc := sensor.NewEncoder(encoderPulsesPerRev)
	sampler, err := pio.NewEncoderSampler(encoderPinA, enc, sched)
	if err == nil {
		err = sampler.Init()
	}
	if err != nil {
		core.DebugPrintln("[ENCODER] PIO unavailable, polling pins: " + err.Error())
		encoderPinA.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
		(encoderPinA + 1).Configure(machine.PinConfig{Mode: machine.PinInputPullup})
		poller := sensor.NewPoller(sched, enc, func() (bool, bool) {
			return encoderPinA.Get(), (encoderPinA + 1).Get()
		}, core.TimerFromUS(250))
		poller.Start()
	}

	cfg := emitter.DefaultConfig()
	cfg.OID = oid
	cfg.Places = 1
	bind(cfg, enc, encoderButton)
}

// setupAccelBinding types the Z acceleration in g with two decimals
func setupAccelBinding(oid uint8) {
	bus, err := configureAccelBus()
	if err != nil {
		core.DebugPrintln("[ACCEL] i2c: " + err.Error())
		return
	}
	accel, err := sensor.NewAccelerometer(bus, sensor.ChannelAccelZ, sensor.UnitG)
	if err != nil {
		core.DebugPrintln("[ACCEL] " + err.Error())
		return
	}
	accel.SetRange(adxl345.RANGE_4G)

	cfg := emitter.DefaultConfig()
	cfg.OID = oid
	bind(cfg, accel, accelButton)
}

func bind(cfg emitter.Config, source emitter.Source, pin machine.Pin) {
	oid := cfg.OID
	e, err := emitter.New(cfg, source, core.DefaultResolver(),
		multiSink{hidKeyboard, echoSink{oid: oid}}, sched,
		emitter.WithErrorHandler(func(err error) {
			core.DebugPrintln("[EMIT] oid=" + core.Itoa(int(oid)) + " " + err.Error())
		}))
	if err != nil {
		core.DebugPrintln("[EMIT] " + err.Error())
		return
	}
	newButton(pin, oid, e, sched).start()
}

type multiSink []emitter.Sink

func (m multiSink) Emit(code core.KeyCode, pressed bool, clock uint32) {
	for _, s := range m {
		s.Emit(code, pressed, clock)
	}
}
