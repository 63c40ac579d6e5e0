package metrics

import (
	"net/http"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	keyEvents   *prom.CounterVec
	starts      *prom.CounterVec
	typedLength prom.Histogram
	sinkErrors  *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers the metrics on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		keyEvents: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "readout",
			Name:      "key_events_total",
			Help:      "Key transitions emitted, by direction",
		}, []string{"direction"}),
		starts: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "readout",
			Name:      "starts_total",
			Help:      "Start requests by outcome",
		}, []string{"outcome"}),
		typedLength: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "readout",
			Name:      "typed_length_chars",
			Help:      "Length of formatted readings that started typing",
			Buckets:   prom.LinearBuckets(1, 2, 12),
		}),
		sinkErrors: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "readout",
			Name:      "sink_errors_total",
			Help:      "Key events a sink failed to deliver",
		}, []string{"sink"}),
	}
	reg.MustRegister(pr.keyEvents, pr.starts, pr.typedLength, pr.sinkErrors)
	return pr
}

func (p *PrometheusRecorder) IncKeyEvent(pressed bool) {
	if p == nil {
		return
	}
	dir := "release"
	if pressed {
		dir = "press"
	}
	p.keyEvents.WithLabelValues(dir).Inc()
}

func (p *PrometheusRecorder) IncStart(outcome Outcome) {
	if p == nil {
		return
	}
	p.starts.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) ObserveTypedLength(n int) {
	if p == nil {
		return
	}
	p.typedLength.Observe(float64(n))
}

func (p *PrometheusRecorder) IncSinkError(sink string) {
	if p == nil {
		return
	}
	p.sinkErrors.WithLabelValues(sink).Inc()
}

// HTTPHandler returns an http.Handler that serves the metrics in reg.
func HTTPHandler(reg *prom.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
