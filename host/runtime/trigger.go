package runtime

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"

	"readout/emitter"
	"readout/host/logfields"
	"readout/host/metrics"
)

// Target is a binding that can be triggered
type Target interface {
	Pressed() error
	Last() string
	Config() emitter.Config
}

// Trigger presses bindings on a fixed interval using gocron
type Trigger struct {
	scheduler gocron.Scheduler
	recorder  metrics.Recorder
}

// NewTrigger creates a trigger scheduler on the given clock
func NewTrigger(clock clockwork.Clock, recorder metrics.Recorder) (*Trigger, error) {
	opts := []gocron.SchedulerOption{}
	if clock != nil {
		opts = append(opts, gocron.WithClock(clock))
	}
	s, err := gocron.NewScheduler(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Trigger{scheduler: s, recorder: recorder}, nil
}

// Every presses target once per interval
func (t *Trigger) Every(name string, interval time.Duration, target Target) error {
	if interval <= 0 {
		return fmt.Errorf("trigger %s: %w", name, ErrInvalidPeriod)
	}
	_, err := t.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(t.Fire, target),
		gocron.WithName(name+"-trigger"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to create trigger job: %w", err)
	}
	return nil
}

// Start begins triggering
func (t *Trigger) Start() {
	slog.Info("Starting trigger scheduler")
	t.scheduler.Start()
}

// Stop shuts the trigger scheduler down
func (t *Trigger) Stop() error {
	slog.Info("Stopping trigger scheduler")
	return t.scheduler.Shutdown()
}

// Fire presses target once and records the outcome
func (t *Trigger) Fire(target Target) error {
	err := target.Pressed()
	outcome := Classify(err)
	t.recorder.IncStart(outcome)

	oid := logfields.OID(target.Config().OID)
	switch outcome {
	case metrics.OutcomeStarted:
		text := target.Last()
		t.recorder.ObserveTypedLength(len(text))
		slog.Debug("Reading started", oid, logfields.Text(text))
	case metrics.OutcomeBusy:
		slog.Debug("Trigger skipped, sequence still running", oid)
	default:
		slog.Warn("Trigger failed", oid, slog.String("outcome", string(outcome)), logfields.Error(err))
	}
	return err
}

// Classify maps a start error to a metrics outcome
func Classify(err error) metrics.Outcome {
	switch {
	case err == nil:
		return metrics.OutcomeStarted
	case errors.Is(err, emitter.ErrBusy):
		return metrics.OutcomeBusy
	case errors.Is(err, emitter.ErrSourceUnavailable):
		return metrics.OutcomeSourceUnavailable
	case errors.Is(err, emitter.ErrInvalidCharacter):
		return metrics.OutcomeInvalidCharacter
	default:
		return metrics.OutcomeFailed
	}
}
