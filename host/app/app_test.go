package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"readout/core"
	"readout/emitter"
	"readout/format"
	"readout/host/config"
	"readout/host/sink"
	"readout/sensor"
)

func parse(t *testing.T, yaml string) *config.Config {
	t.Helper()
	cfg, err := config.Parse([]byte(yaml))
	require.NoError(t, err)
	return cfg
}

func run(sched *core.Scheduler, d time.Duration) {
	end := sched.Now() + core.TimerFromDuration(d)
	for now := sched.Now(); core.TimerIsBefore(now, end); now += core.TimerFromUS(100) {
		sched.AdvanceTo(now)
	}
}

func TestBuildStaticBinding(t *testing.T) {
	cfg := parse(t, `
bindings:
  - name: voltage
    oid: 3
    value: "-0.25"
    layout: keypad
    separator: KP_COMMA
`)
	sched := core.NewScheduler()
	transcripts := map[uint8]*sink.Transcript{}
	a, err := Build(cfg, sched, func(oid uint8) emitter.Sink {
		transcripts[oid] = sink.NewTranscript()
		return transcripts[oid]
	}, nil)
	require.NoError(t, err)
	defer a.Stop()

	b, err := a.Lookup("voltage")
	require.NoError(t, err)
	require.NotNil(t, b.Static())
	assert.Nil(t, b.Encoder())

	require.NoError(t, b.Emitter.Pressed())
	run(sched, 100*time.Millisecond)

	assert.Equal(t, "-0,25", transcripts[3].Text())
	events := transcripts[3].Events()
	require.Len(t, events, 10)
	assert.Equal(t, core.KeypadMinus, events[0].Code)
	assert.Equal(t, core.KeypadComma, events[4].Code)
}

func TestLookup(t *testing.T) {
	cfg := parse(t, "bindings:\n  - name: a\n    oid: 1\n  - name: b\n    oid: 2\n")
	a, err := Build(cfg, core.NewScheduler(), func(uint8) emitter.Sink { return sink.NewTranscript() }, nil)
	require.NoError(t, err)

	first, err := a.Lookup("")
	require.NoError(t, err)
	assert.Equal(t, "a", first.Name)

	_, err = a.Lookup("c")
	assert.ErrorIs(t, err, ErrUnknownBinding)
	assert.Len(t, a.Bindings(), 2)
}

func TestSimulatedEncoderTurns(t *testing.T) {
	cfg := parse(t, `
bindings:
  - name: knob
    source: encoder
    pulses_per_rev: 4
    spin_every: 1ms
    places: 0
`)
	sched := core.NewScheduler()
	a, err := Build(cfg, sched, func(uint8) emitter.Sink { return sink.NewTranscript() }, nil)
	require.NoError(t, err)

	b, err := a.Lookup("knob")
	require.NoError(t, err)
	require.NotNil(t, b.Encoder())

	// Four transitions per turn, one per millisecond
	run(sched, 8*time.Millisecond+time.Microsecond*500)
	assert.Equal(t, int64(8), b.Encoder().Pulses())
	v, err := b.Encoder().Fetch()
	require.NoError(t, err)
	assert.Equal(t, int32(720), v.Int)

	a.Stop()
	run(sched, 5*time.Millisecond)
	assert.Equal(t, int64(8), b.Encoder().Pulses())
}

func TestApplyReconfigures(t *testing.T) {
	sched := core.NewScheduler()
	transcript := sink.NewTranscript()
	a, err := Build(parse(t, "bindings:\n  - value: '1.234'\n"), sched,
		func(uint8) emitter.Sink { return transcript }, nil)
	require.NoError(t, err)

	a.Apply(parse(t, "bindings:\n  - value: '5.678'\n    places: 1\n    separator: COMMA\n  - oid: 9\n"))

	b, err := a.Lookup("")
	require.NoError(t, err)
	assert.Equal(t, 1, b.Emitter.Config().Places)

	v, err := b.Static().Fetch()
	require.NoError(t, err)
	assert.Equal(t, format.FixedPoint{Int: 5, Micro: 678000}, v)

	require.NoError(t, b.Emitter.Start())
	run(sched, 100*time.Millisecond)
	assert.Equal(t, "5,6", transcript.Text())
}

func TestSpinnerWalksGrayCode(t *testing.T) {
	read := Spinner()
	enc := sensor.NewEncoder(4)
	enc.Init(read())
	for i := 0; i < 12; i++ {
		enc.Update(read())
	}
	assert.Equal(t, int64(12), enc.Pulses())
}
