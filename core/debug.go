package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// TimingEvent captures a key emission event for post-mortem analysis
type TimingEvent struct {
	EventType uint8  // Event type code
	OID       uint8  // Binding ID
	Clock     uint32 // Scheduler clock at event
	Value1    uint32 // Context-dependent value
	Value2    uint32 // Context-dependent value
}

// Event type codes
const (
	EvtStart      = 1 // Sequence started (v1=length)
	EvtPress      = 2 // Key pressed (v1=key code, v2=cursor)
	EvtRelease    = 3 // Key released (v1=key code, v2=cursor)
	EvtDone       = 4 // Sequence finished (v1=characters typed)
	EvtBusy       = 5 // Start rejected while typing
	EvtInvalid    = 6 // Unmappable character (v1=char, v2=cursor)
	EvtSourceFail = 7 // Value source failed
	EvtCancel     = 8 // Sequence cancelled (v1=cursor)
)

const (
	TimingRingSize = 32 // Keep last 32 events for post-mortem
)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether debug output is active
	debugEnabled bool = false

	// Timing capture ring buffer (non-blocking, for post-mortem)
	timingRing     [TimingRingSize]TimingEvent
	timingRingHead uint8        // Next write position
	timingEnabled  bool  = true // Always capture timing events

	// Async debug output channel
	debugChan chan string
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, USB, etc.
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// InitAsyncDebug starts the async debug output goroutine
// Call this from main() after SetDebugWriter
func InitAsyncDebug() {
	debugChan = make(chan string, 16) // Buffer 16 messages
	go debugOutputWorker()
}

// debugOutputWorker runs in background, drains debug channel
func debugOutputWorker() {
	for msg := range debugChan {
		if debugPrintln != nil {
			debugPrintln(msg)
		}
	}
}

// DebugPrintln writes a debug message using the platform-specific writer.
// Messages go through the async channel when InitAsyncDebug was called,
// so callers on the tick path never block on the UART.
func DebugPrintln(msg string) {
	if !debugEnabled || debugPrintln == nil {
		return
	}
	if debugChan != nil {
		select {
		case debugChan <- msg:
		default:
			// Channel full, drop message (non-blocking)
		}
		return
	}
	debugPrintln(msg)
}

// RecordTiming captures an event in the ring buffer
func RecordTiming(eventType, oid uint8, clock, value1, value2 uint32) {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	if !timingEnabled {
		return
	}
	idx := timingRingHead
	timingRing[idx] = TimingEvent{
		EventType: eventType,
		OID:       oid,
		Clock:     clock,
		Value1:    value1,
		Value2:    value2,
	}
	timingRingHead = (idx + 1) % TimingRingSize
}

// TimingSnapshot returns the recorded events, oldest first
func TimingSnapshot() []TimingEvent {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	events := make([]TimingEvent, 0, TimingRingSize)
	start := timingRingHead
	for i := uint8(0); i < TimingRingSize; i++ {
		evt := timingRing[(start+i)%TimingRingSize]
		if evt.EventType == 0 {
			continue // Empty slot
		}
		events = append(events, evt)
	}
	return events
}

// EventName returns the short name of a timing event type
func EventName(eventType uint8) string {
	switch eventType {
	case EvtStart:
		return "START"
	case EvtPress:
		return "PRESS"
	case EvtRelease:
		return "RELEASE"
	case EvtDone:
		return "DONE"
	case EvtBusy:
		return "BUSY"
	case EvtInvalid:
		return "INVALID_CHAR!"
	case EvtSourceFail:
		return "SOURCE_FAIL"
	case EvtCancel:
		return "CANCEL"
	default:
		return "UNKNOWN"
	}
}

// DumpTimingRing outputs the timing ring buffer through the debug writer
func DumpTimingRing() {
	if debugPrintln == nil {
		return
	}

	debugPrintln("[TIMING] === Timing Ring Dump ===")
	for _, evt := range TimingSnapshot() {
		debugPrintln("[TIMING] " + EventName(evt.EventType) +
			" oid=" + itoa(int(evt.OID)) +
			" clock=" + utoa(evt.Clock) +
			" v1=" + utoa(evt.Value1) +
			" v2=" + utoa(evt.Value2))
	}
	debugPrintln("[TIMING] === End Dump ===")
}

// ClearTimingRing clears the timing buffer
func ClearTimingRing() {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	for i := range timingRing {
		timingRing[i] = TimingEvent{}
	}
	timingRingHead = 0
}
