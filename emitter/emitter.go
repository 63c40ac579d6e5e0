// Package emitter types a formatted reading out as timed key transitions.
//
// An Emitter holds one formatted reading and walks it left to right, one
// half-transition per scheduler tick: the press of a character, then after
// the tap delay its release, then the press of the next character. A
// reading of length L therefore produces 2*L events and 2*L ticks.
package emitter

import (
	"errors"
	"fmt"
	"sync"

	"readout/core"
	"readout/format"
)

var (
	ErrBusy              = errors.New("a reading is already being typed")
	ErrSourceUnavailable = errors.New("value source unavailable")
	ErrInvalidCharacter  = errors.New("formatted character has no key code")
)

// Source produces the reading to type. It is called once per Start.
type Source interface {
	Fetch() (format.FixedPoint, error)
}

// SourceFunc adapts a function to Source
type SourceFunc func() (format.FixedPoint, error)

func (f SourceFunc) Fetch() (format.FixedPoint, error) { return f() }

// Resolver maps a formatted character to a key code
type Resolver interface {
	Resolve(c byte) (core.KeyCode, error)
}

// Sink receives key transitions. Emit must not block and must not call
// back into the Emitter.
type Sink interface {
	Emit(code core.KeyCode, pressed bool, clock uint32)
}

// Scheduler arranges the next tick. *core.Scheduler implements it.
type Scheduler interface {
	Now() uint32
	ScheduleTimer(t *core.Timer)
	CancelTimer(t *core.Timer)
}

// Phase is the per-character half of the state machine
type Phase uint8

const (
	AwaitingPress   Phase = iota // key released, next tick presses
	AwaitingRelease              // key held, next tick releases
)

func (p Phase) String() string {
	if p == AwaitingRelease {
		return "awaiting_release"
	}
	return "awaiting_press"
}

// State is a snapshot of an Emitter
type State struct {
	Text   string
	Cursor int
	Phase  Phase
}

// Idle reports whether the snapshot is the idle state
func (s State) Idle() bool {
	return s == State{}
}

// Option customizes an Emitter
type Option func(*Emitter)

// WithErrorHandler receives faults raised inside scheduled ticks, where
// there is no caller to return them to.
func WithErrorHandler(fn func(error)) Option {
	return func(e *Emitter) { e.onError = fn }
}

// Emitter is the typing state machine for one binding.
// All mutation happens under mu, from Start, Cancel or the timer handler.
type Emitter struct {
	mu sync.Mutex

	cfg      Config
	delay    uint32
	source   Source
	resolver Resolver
	sink     Sink
	sched    Scheduler
	onError  func(error)

	// applied at the next Start
	pendingCfg      *Config
	pendingResolver Resolver

	timer  core.Timer
	armed  bool   // a tick is owed to the current sequence
	due    uint32 // WakeTime of that tick
	buf    format.Digits
	cursor int
	phase  Phase
	held   core.KeyCode
	last   format.Digits
}

// New creates an idle Emitter. The configuration is validated here since
// decimal places and delay are fixed at setup time.
func New(cfg Config, source Source, resolver Resolver, sink Sink, sched Scheduler, opts ...Option) (*Emitter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if source == nil || resolver == nil || sink == nil || sched == nil {
		return nil, errors.New("emitter: source, resolver, sink and scheduler are required")
	}

	e := &Emitter{
		cfg:      cfg,
		delay:    cfg.delayTicks(),
		source:   source,
		resolver: resolver,
		sink:     sink,
		sched:    sched,
	}
	e.timer.Handler = e.tick
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Config returns the configuration in effect
func (e *Emitter) Config() Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

// Reconfigure replaces the configuration and resolver. A sequence in
// flight keeps its settings; the new ones apply from the next Start.
// A nil resolver keeps the current one.
func (e *Emitter) Reconfigure(cfg Config, resolver Resolver) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.pendingCfg = &cfg
	e.pendingResolver = resolver
	if e.idle() {
		e.applyPending()
	}
	return nil
}

// Pressed is the binding's press trigger
func (e *Emitter) Pressed() error {
	return e.Start()
}

// Released is the binding's release trigger. Typing continues on its own
// once started, so there is nothing to do.
func (e *Emitter) Released() error {
	return nil
}

// Start fetches a reading, formats it and types the first transition
// synchronously. Later transitions run from the scheduler.
func (e *Emitter) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.sched.Now()
	if !e.idle() {
		core.RecordTiming(core.EvtBusy, e.cfg.OID, now, uint32(e.cursor), 0)
		return ErrBusy
	}

	e.reset()
	e.applyPending()

	value, err := e.source.Fetch()
	if err != nil {
		core.RecordTiming(core.EvtSourceFail, e.cfg.OID, now, 0, 0)
		return fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}

	n, err := format.FormatInto(&e.buf, value, e.cfg.Places)
	if err != nil {
		e.reset()
		return err
	}
	e.last = e.buf
	core.RecordTiming(core.EvtStart, e.cfg.OID, now, uint32(n), 0)

	return e.advance()
}

// Cancel stops a sequence in flight. A held key is released first so no
// key is left logically down.
func (e *Emitter) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.sched.CancelTimer(&e.timer)
	if e.idle() {
		return
	}

	now := e.sched.Now()
	if e.phase == AwaitingRelease {
		e.sink.Emit(e.held, false, now)
	}
	core.RecordTiming(core.EvtCancel, e.cfg.OID, now, uint32(e.cursor), 0)
	e.reset()
	e.applyPending()
}

// State returns a snapshot of the state machine
func (e *Emitter) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return State{Text: e.buf.String(), Cursor: e.cursor, Phase: e.phase}
}

// Last returns the text of the most recently started sequence
func (e *Emitter) Last() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last.String()
}

// Idle reports whether no sequence is in flight
func (e *Emitter) Idle() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.idle()
}

// tick is the timer handler. The next tick is scheduled from inside
// advance while mu is held, so Cancel always sees a consistent timer.
// Dispatch unlinks the timer before the handler takes mu, so a handler
// that lost the race to Cancel (and perhaps a new Start) finds the timer
// disarmed or not yet due and does nothing.
func (e *Emitter) tick(*core.Timer) uint8 {
	e.mu.Lock()
	if !e.armed || core.TimerIsBefore(e.sched.Now(), e.due) {
		e.mu.Unlock()
		return core.SF_DONE
	}
	e.armed = false
	err := e.advance()
	e.mu.Unlock()

	if err != nil {
		e.report(err)
	}
	return core.SF_DONE
}

// advance performs one half-transition. Caller holds mu.
func (e *Emitter) advance() error {
	if e.cursor >= e.buf.Len() || e.cursor >= format.Capacity {
		e.finish()
		return nil
	}

	now := e.sched.Now()

	if e.phase == AwaitingRelease {
		e.sink.Emit(e.held, false, now)
		core.RecordTiming(core.EvtRelease, e.cfg.OID, now, uint32(e.held), uint32(e.cursor))
		e.phase = AwaitingPress
		e.held = core.KeyNone
		e.cursor++
		if e.cursor < e.buf.Len() && e.cursor < format.Capacity {
			e.scheduleNext(now)
		} else {
			e.finish()
		}
		return nil
	}

	c, _ := e.buf.At(e.cursor)
	code, err := e.resolver.Resolve(c)
	if err != nil {
		core.RecordTiming(core.EvtInvalid, e.cfg.OID, now, uint32(c), uint32(e.cursor))
		cursor := e.cursor
		e.reset()
		return fmt.Errorf("%w: %q at %d", ErrInvalidCharacter, c, cursor)
	}

	e.sink.Emit(code, true, now)
	core.RecordTiming(core.EvtPress, e.cfg.OID, now, uint32(code), uint32(e.cursor))
	e.phase = AwaitingRelease
	e.held = code
	e.scheduleNext(now)
	return nil
}

func (e *Emitter) scheduleNext(now uint32) {
	e.timer.WakeTime = now + e.delay
	e.armed = true
	e.due = e.timer.WakeTime
	e.sched.ScheduleTimer(&e.timer)
}

// finish ends a sequence normally
func (e *Emitter) finish() {
	if e.buf.Len() > 0 {
		core.RecordTiming(core.EvtDone, e.cfg.OID, e.sched.Now(), uint32(e.cursor), 0)
	}
	e.reset()
	e.applyPending()
}

func (e *Emitter) reset() {
	e.buf.Reset()
	e.cursor = 0
	e.phase = AwaitingPress
	e.held = core.KeyNone
	e.armed = false
}

func (e *Emitter) idle() bool {
	return e.cursor == 0 && e.phase == AwaitingPress
}

func (e *Emitter) applyPending() {
	if e.pendingCfg != nil {
		e.cfg = *e.pendingCfg
		e.delay = e.cfg.delayTicks()
		e.pendingCfg = nil
	}
	if e.pendingResolver != nil {
		e.resolver = e.pendingResolver
		e.pendingResolver = nil
	}
}

func (e *Emitter) report(err error) {
	core.DebugPrintln("[READOUT] oid=" + core.Itoa(int(e.cfg.OID)) + " " + err.Error())
	if e.onError != nil {
		e.onError(err)
	}
}
