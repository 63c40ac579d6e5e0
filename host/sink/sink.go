// Package sink delivers key transitions from an emitter to the outside
// world: a log, a serial USB-HID bridge, metrics, or an in-memory
// transcript.
package sink

import (
	"context"
	"log/slog"
	"sync"

	"readout/core"
	"readout/emitter"
	"readout/host/logfields"
	"readout/host/metrics"
	"readout/host/serial"
	"readout/protocol"
)

// LogSink logs every key transition at debug level
type LogSink struct {
	OID    uint8
	Logger *slog.Logger
}

func (s LogSink) Emit(code core.KeyCode, pressed bool, clock uint32) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.LogAttrs(context.Background(), slog.LevelDebug, "key event",
		logfields.OID(s.OID),
		logfields.KeyCode(uint16(code)),
		logfields.Pressed(pressed),
		logfields.Clock(clock))
}

// SerialSink frames key transitions and writes them to a serial port.
// Write failures are logged and counted; the emitter is never blocked on
// them.
type SerialSink struct {
	mu       sync.Mutex
	port     serial.Port
	oid      uint8
	seq      uint8
	logger   *slog.Logger
	recorder metrics.Recorder
}

// NewSerialSink creates a sink writing to port
func NewSerialSink(port serial.Port, oid uint8, logger *slog.Logger, recorder metrics.Recorder) *SerialSink {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &SerialSink{port: port, oid: oid, logger: logger, recorder: recorder}
}

func (s *SerialSink) Emit(code core.KeyCode, pressed bool, clock uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	frame := protocol.KeyEventFrame(s.seq, protocol.KeyEvent{
		OID:     s.oid,
		Code:    uint16(code),
		Pressed: pressed,
		Clock:   clock,
	})
	s.seq = (s.seq + 1) & protocol.MessageSeqMask

	if _, err := s.port.Write(frame); err != nil {
		s.recorder.IncSinkError("serial")
		s.logger.Warn("Failed to write key event", logfields.OID(s.oid), logfields.KeyCode(uint16(code)), logfields.Error(err))
	}
}

// MetricsSink counts key transitions and forwards them
type MetricsSink struct {
	Next     emitter.Sink
	Recorder metrics.Recorder
}

func (s MetricsSink) Emit(code core.KeyCode, pressed bool, clock uint32) {
	s.Recorder.IncKeyEvent(pressed)
	if s.Next != nil {
		s.Next.Emit(code, pressed, clock)
	}
}

// Multi fans key transitions out to several sinks in order
type Multi []emitter.Sink

func (m Multi) Emit(code core.KeyCode, pressed bool, clock uint32) {
	for _, s := range m {
		s.Emit(code, pressed, clock)
	}
}
