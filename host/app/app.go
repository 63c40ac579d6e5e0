// Package app assembles emitters from a host configuration.
package app

import (
	"errors"
	"fmt"
	"log/slog"

	"readout/core"
	"readout/emitter"
	"readout/host/config"
	"readout/host/logfields"
	"readout/host/metrics"
	"readout/host/runtime"
	"readout/sensor"
)

var ErrUnknownBinding = errors.New("unknown binding")

// SinkFactory returns the sink for a binding's object id
type SinkFactory func(oid uint8) emitter.Sink

// Binding is one configured emitter and its source
type Binding struct {
	Name    string
	Emitter *emitter.Emitter

	static  *sensor.Static
	encoder *sensor.Encoder
	poller  *sensor.Poller
	faults  chan error
}

// Static returns the settable source of a static binding, or nil
func (b *Binding) Static() *sensor.Static { return b.static }

// Encoder returns the encoder of an encoder binding, or nil
func (b *Binding) Encoder() *sensor.Encoder { return b.encoder }

// Faults delivers errors that aborted a sequence inside a tick. Only the
// most recent unread fault is kept.
func (b *Binding) Faults() <-chan error { return b.faults }

// ClearFaults drops a fault left over from an earlier sequence
func (b *Binding) ClearFaults() {
	select {
	case <-b.faults:
	default:
	}
}

func (b *Binding) fault(err error) {
	b.ClearFaults()
	select {
	case b.faults <- err:
	default:
	}
}

// App owns the bindings built from one configuration
type App struct {
	sched    *core.Scheduler
	recorder metrics.Recorder
	bindings []*Binding
}

// Build creates one emitter per configured binding. Encoder bindings with
// spin_every set are fed by a simulated shaft sampled from sched.
func Build(cfg *config.Config, sched *core.Scheduler, sinks SinkFactory, recorder metrics.Recorder) (*App, error) {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	a := &App{sched: sched, recorder: recorder}

	for _, bc := range cfg.Bindings {
		b, err := a.build(bc, sinks(bc.OID))
		if err != nil {
			a.Stop()
			return nil, fmt.Errorf("binding %q: %w", bc.Name, err)
		}
		a.bindings = append(a.bindings, b)
	}
	return a, nil
}

func (a *App) build(bc config.Binding, sink emitter.Sink) (*Binding, error) {
	ec, err := bc.EmitterConfig()
	if err != nil {
		return nil, err
	}
	res, err := bc.Resolver()
	if err != nil {
		return nil, err
	}

	b := &Binding{Name: bc.Name, faults: make(chan error, 1)}
	var source emitter.Source
	switch bc.Source {
	case config.SourceEncoder:
		b.encoder = sensor.NewEncoder(bc.PulsesPerRev)
		source = b.encoder
		if bc.SpinEvery > 0 {
			b.poller = sensor.NewPoller(a.sched, b.encoder, Spinner(), core.TimerFromDuration(bc.SpinEvery))
		}
	default:
		v, err := config.ParseReading(bc.Value)
		if err != nil {
			return nil, err
		}
		b.static = sensor.NewStatic(v)
		source = b.static
	}

	oid := ec.OID
	b.Emitter, err = emitter.New(ec, source, res, sink, a.sched,
		emitter.WithErrorHandler(func(err error) {
			a.recorder.IncStart(runtime.Classify(err))
			slog.Error("Typing aborted", logfields.OID(oid), logfields.Error(err))
			b.fault(err)
		}))
	if err != nil {
		return nil, err
	}
	if b.poller != nil {
		b.poller.Start()
	}
	return b, nil
}

// Bindings returns the bindings in configuration order
func (a *App) Bindings() []*Binding {
	return a.bindings
}

// Lookup finds a binding by name. An empty name selects the first one.
func (a *App) Lookup(name string) (*Binding, error) {
	for _, b := range a.bindings {
		if name == "" || b.Name == name {
			return b, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBinding, name)
}

// Apply pushes a reloaded configuration into the running emitters.
// Bindings are matched by object id; new or removed bindings need a
// restart.
func (a *App) Apply(cfg *config.Config) {
	for _, bc := range cfg.Bindings {
		b := a.byOID(bc.OID)
		if b == nil {
			slog.Warn("Ignoring new binding until restart", logfields.OID(bc.OID))
			continue
		}
		ec, err := bc.EmitterConfig()
		if err != nil {
			slog.Warn("Rejected binding config", logfields.OID(bc.OID), logfields.Error(err))
			continue
		}
		res, err := bc.Resolver()
		if err != nil {
			slog.Warn("Rejected binding config", logfields.OID(bc.OID), logfields.Error(err))
			continue
		}
		if err := b.Emitter.Reconfigure(ec, res); err != nil {
			slog.Warn("Rejected binding config", logfields.OID(bc.OID), logfields.Error(err))
			continue
		}
		if b.static != nil && bc.Source == config.SourceStatic {
			if v, err := config.ParseReading(bc.Value); err == nil {
				b.static.Set(v)
			}
		}
		slog.Info("Binding reconfigured", logfields.OID(bc.OID), logfields.Places(ec.Places))
	}
}

// Stop cancels every sequence in flight and stops simulated encoders
func (a *App) Stop() {
	for _, b := range a.bindings {
		if b.poller != nil {
			b.poller.Stop()
		}
		b.Emitter.Cancel()
	}
}

func (a *App) byOID(oid uint8) *Binding {
	for _, b := range a.bindings {
		if b.Emitter.Config().OID == oid {
			return b
		}
	}
	return nil
}

// Spinner returns a pin reader that steps a quadrature signal forward one
// transition per read, simulating a shaft turning at constant speed
func Spinner() sensor.PinReader {
	states := [4][2]bool{{false, false}, {true, false}, {true, true}, {false, true}}
	i := 0
	return func() (bool, bool) {
		i = (i + 1) % len(states)
		return states[i][0], states[i][1]
	}
}
