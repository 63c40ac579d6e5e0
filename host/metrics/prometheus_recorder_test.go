package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)

	pr.IncKeyEvent(true)
	pr.IncKeyEvent(true)
	pr.IncKeyEvent(false)
	pr.IncStart(OutcomeStarted)
	pr.IncStart(OutcomeBusy)
	pr.ObserveTypedLength(5)
	pr.IncSinkError("serial")

	assert.Equal(t, 2.0, testutil.ToFloat64(pr.keyEvents.WithLabelValues("press")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pr.keyEvents.WithLabelValues("release")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pr.starts.WithLabelValues("busy")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pr.sinkErrors.WithLabelValues("serial")))

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, mfs, 4)
}

func TestNilRecorderIsSafe(t *testing.T) {
	var pr *PrometheusRecorder
	assert.NotPanics(t, func() {
		pr.IncKeyEvent(true)
		pr.IncStart(OutcomeFailed)
		pr.ObserveTypedLength(1)
		pr.IncSinkError("log")
	})

	var r Recorder = NoopRecorder{}
	r.IncStart(OutcomeStarted)
}

func TestHTTPHandlerServesMetrics(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.IncStart(OutcomeStarted)

	rec := httptest.NewRecorder()
	HTTPHandler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "readout_starts_total"))
}
