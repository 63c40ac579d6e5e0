// Package metrics records key emission activity for the host tools.
package metrics

// Outcome labels a finished start attempt
type Outcome string

const (
	OutcomeStarted           Outcome = "started"
	OutcomeBusy              Outcome = "busy"
	OutcomeSourceUnavailable Outcome = "source_unavailable"
	OutcomeInvalidCharacter  Outcome = "invalid_character"
	OutcomeFailed            Outcome = "failed"
)

// Recorder defines observability hooks for the emitter. Implementations
// may forward to Prometheus or drop everything.
type Recorder interface {
	IncKeyEvent(pressed bool)
	IncStart(outcome Outcome)
	ObserveTypedLength(n int)
	IncSinkError(sink string)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) IncKeyEvent(bool)       {}
func (NoopRecorder) IncStart(Outcome)       {}
func (NoopRecorder) ObserveTypedLength(int) {}
func (NoopRecorder) IncSinkError(string)    {}
