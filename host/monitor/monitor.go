// Package monitor decodes key event frames coming back from a bridge or
// board over a serial link.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"readout/core"
	"readout/host/logfields"
	"readout/protocol"
)

// Handler receives each decoded key event
type Handler func(ev protocol.KeyEvent)

// Monitor reads framed key events from a port
type Monitor struct {
	port    io.Reader
	reader  *protocol.FrameReader
	handler Handler

	frames  int
	invalid int
	lastSeq int
	gaps    int
}

// Stats summarizes what a monitor has seen
type Stats struct {
	Frames  int // valid key event frames
	Invalid int // frames with a valid CRC but an unknown payload
	Dropped int // bytes discarded while resynchronizing
	Gaps    int // sequence numbers skipped
}

// New creates a monitor calling handler for every key event read from port
func New(port io.Reader, handler Handler) *Monitor {
	return &Monitor{
		port:    port,
		reader:  protocol.NewFrameReader(),
		handler: handler,
		lastSeq: -1,
	}
}

// Run reads until ctx is done or the port fails. Ports opened with a read
// timeout return periodically so cancellation is noticed.
func (m *Monitor) Run(ctx context.Context) error {
	buf := make([]byte, protocol.MessageMax)
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		n, err := m.port.Read(buf)
		if n > 0 {
			m.Feed(buf[:n])
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("failed to read from port: %w", err)
		}
	}
}

// Feed decodes any complete frames in data
func (m *Monitor) Feed(data []byte) {
	for len(data) > 0 {
		n := m.reader.Write(data)
		data = data[n:]
		m.drain()
		if n == 0 {
			return
		}
	}
}

func (m *Monitor) drain() {
	for {
		seq, payload, ok := m.reader.Next()
		if !ok {
			return
		}
		m.trackSeq(seq)

		ev, err := protocol.DecodeKeyEvent(payload)
		if err != nil {
			m.invalid++
			slog.Debug("Skipping frame", logfields.Error(err))
			continue
		}
		m.frames++
		core.RecordTiming(eventType(ev.Pressed), ev.OID, ev.Clock, uint32(ev.Code), 0)
		if m.handler != nil {
			m.handler(ev)
		}
	}
}

func (m *Monitor) trackSeq(seq uint8) {
	if m.lastSeq >= 0 {
		expected := uint8(m.lastSeq+1) & protocol.MessageSeqMask
		if seq != expected {
			m.gaps += int((seq - expected) & protocol.MessageSeqMask)
		}
	}
	m.lastSeq = int(seq)
}

// Stats returns the counters collected so far
func (m *Monitor) Stats() Stats {
	return Stats{Frames: m.frames, Invalid: m.invalid, Dropped: m.reader.Dropped, Gaps: m.gaps}
}

func eventType(pressed bool) uint8 {
	if pressed {
		return core.EvtPress
	}
	return core.EvtRelease
}
