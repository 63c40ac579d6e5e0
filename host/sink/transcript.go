package sink

import (
	"strings"
	"sync"

	"readout/core"
)

// Event is one recorded key transition
type Event struct {
	Code    core.KeyCode
	Pressed bool
	Clock   uint32
}

var keyChars = map[core.KeyCode]byte{
	core.Key0: '0', core.Key1: '1', core.Key2: '2', core.Key3: '3', core.Key4: '4',
	core.Key5: '5', core.Key6: '6', core.Key7: '7', core.Key8: '8', core.Key9: '9',
	core.Keypad0: '0', core.Keypad1: '1', core.Keypad2: '2', core.Keypad3: '3', core.Keypad4: '4',
	core.Keypad5: '5', core.Keypad6: '6', core.Keypad7: '7', core.Keypad8: '8', core.Keypad9: '9',
	core.KeyMinus: '-', core.KeypadMinus: '-',
	core.KeyPeriod: '.', core.KeypadDot: '.',
	core.KeyComma: ',', core.KeypadComma: ',',
}

// Transcript records key transitions and rebuilds the text a host would
// have received
type Transcript struct {
	mu     sync.Mutex
	events []Event
	text   strings.Builder
	done   chan struct{}
	want   int
}

// NewTranscript creates an empty transcript
func NewTranscript() *Transcript {
	return &Transcript{}
}

func (t *Transcript) Emit(code core.KeyCode, pressed bool, clock uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.events = append(t.events, Event{Code: code, Pressed: pressed, Clock: clock})
	if pressed {
		if c, ok := keyChars[code]; ok {
			t.text.WriteByte(c)
		} else {
			t.text.WriteByte('?')
		}
	}
	if t.done != nil && len(t.events) >= t.want {
		close(t.done)
		t.done = nil
	}
}

// Events returns a copy of the recorded transitions
func (t *Transcript) Events() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Event(nil), t.events...)
}

// Text returns the characters typed so far
func (t *Transcript) Text() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.text.String()
}

// WaitFor returns a channel closed once n transitions have been recorded
func (t *Transcript) WaitFor(n int) <-chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()

	ch := make(chan struct{})
	if len(t.events) >= n {
		close(ch)
		return ch
	}
	t.done = ch
	t.want = n
	return ch
}

// Reset clears the transcript
func (t *Transcript) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = nil
	t.text.Reset()
}
