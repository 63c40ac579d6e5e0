package sink

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"readout/core"
	"readout/emitter"
	"readout/format"
	"readout/host/metrics"
	"readout/protocol"
)

// bufferPort is an in-memory serial.Port
type bufferPort struct {
	mu   sync.Mutex
	buf  bytes.Buffer
	fail bool
}

func (p *bufferPort) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf.Read(b)
}

func (p *bufferPort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return 0, errors.New("device gone")
	}
	return p.buf.Write(b)
}

func (p *bufferPort) Close() error { return nil }
func (p *bufferPort) Flush() error { return nil }

func TestSerialSinkWritesFrames(t *testing.T) {
	port := &bufferPort{}
	s := NewSerialSink(port, 4, nil, nil)

	s.Emit(core.Key7, true, 100)
	s.Emit(core.Key7, false, 200)

	r := protocol.NewFrameReader()
	r.Write(port.buf.Bytes())

	var got []protocol.KeyEvent
	var seqs []uint8
	for {
		seq, payload, ok := r.Next()
		if !ok {
			break
		}
		ev, err := protocol.DecodeKeyEvent(payload)
		require.NoError(t, err)
		got = append(got, ev)
		seqs = append(seqs, seq)
	}

	require.Len(t, got, 2)
	assert.Equal(t, protocol.KeyEvent{OID: 4, Code: uint16(core.Key7), Pressed: true, Clock: 100}, got[0])
	assert.Equal(t, protocol.KeyEvent{OID: 4, Code: uint16(core.Key7), Pressed: false, Clock: 200}, got[1])
	assert.Equal(t, []uint8{0, 1}, seqs)
	assert.Zero(t, r.Dropped)
}

func TestSerialSinkWriteFailureIsCounted(t *testing.T) {
	reg := prom.NewRegistry()
	rec := metrics.NewPrometheusRecorder(reg)
	var logBuf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logBuf, nil))

	port := &bufferPort{fail: true}
	s := NewSerialSink(port, 1, logger, rec)

	assert.NotPanics(t, func() { s.Emit(core.Key1, true, 0) })
	assert.Contains(t, logBuf.String(), "device gone")

	mfs, err := reg.Gather()
	require.NoError(t, err)
	found := false
	for _, mf := range mfs {
		if mf.GetName() == "readout_sink_errors_total" {
			found = true
		}
	}
	assert.True(t, found, "sink error counter not exported")
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	LogSink{OID: 2, Logger: logger}.Emit(core.KeyPeriod, true, 42)

	line := buf.String()
	assert.True(t, strings.Contains(line, "key_code=0x0037"), line)
	assert.True(t, strings.Contains(line, "pressed=true"), line)
	assert.True(t, strings.Contains(line, "oid=2"), line)
}

func TestMultiAndMetricsSink(t *testing.T) {
	a, b := NewTranscript(), NewTranscript()
	var s emitter.Sink = MetricsSink{Next: Multi{a, b}, Recorder: metrics.NoopRecorder{}}

	s.Emit(core.Key3, true, 0)
	s.Emit(core.Key3, false, 1)

	assert.Equal(t, "3", a.Text())
	assert.Equal(t, a.Events(), b.Events())
}

func TestTranscriptThroughEmitter(t *testing.T) {
	sched := core.NewScheduler()
	tr := NewTranscript()
	src := emitter.SourceFunc(func() (format.FixedPoint, error) {
		return format.FixedPoint{Int: -12, Micro: -50000}, nil
	})

	cfg := emitter.DefaultConfig()
	e, err := emitter.New(cfg, src, core.Resolver{Layout: core.LayoutKeypad, Separator: core.KeypadComma}, tr, sched)
	require.NoError(t, err)

	done := tr.WaitFor(2 * len("-12,05"))
	require.NoError(t, e.Start())
	for {
		wake, ok := sched.NextWake()
		if !ok {
			break
		}
		sched.AdvanceTo(wake)
	}

	select {
	case <-done:
	default:
		t.Fatal("transcript did not receive every event")
	}
	assert.Equal(t, "-12,05", tr.Text())
	assert.Len(t, tr.Events(), 12)

	tr.Reset()
	assert.Empty(t, tr.Text())
	assert.Empty(t, tr.Events())
}
