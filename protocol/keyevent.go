package protocol

import "errors"

// Message IDs carried as the first VLQ of a payload
const (
	MsgKeyEvent = 1
)

var ErrUnknownMessage = errors.New("unknown message id")

// KeyEvent is one key transition as sent on the wire
type KeyEvent struct {
	OID     uint8
	Code    uint16
	Pressed bool
	Clock   uint32
}

// EncodeKeyEvent writes a key_event payload
func EncodeKeyEvent(output OutputBuffer, ev KeyEvent) {
	EncodeVLQUint(output, MsgKeyEvent)
	EncodeVLQUint(output, uint32(ev.OID))
	EncodeVLQUint(output, uint32(ev.Code))
	pressed := uint32(0)
	if ev.Pressed {
		pressed = 1
	}
	EncodeVLQUint(output, pressed)
	EncodeVLQUint(output, ev.Clock)
}

// DecodeKeyEvent parses a key_event payload
func DecodeKeyEvent(payload []byte) (KeyEvent, error) {
	data := payload
	id, err := DecodeVLQUint(&data)
	if err != nil {
		return KeyEvent{}, err
	}
	if id != MsgKeyEvent {
		return KeyEvent{}, ErrUnknownMessage
	}

	var fields [4]uint32
	for i := range fields {
		if fields[i], err = DecodeVLQUint(&data); err != nil {
			return KeyEvent{}, err
		}
	}
	return KeyEvent{
		OID:     uint8(fields[0]),
		Code:    uint16(fields[1]),
		Pressed: fields[2] != 0,
		Clock:   fields[3],
	}, nil
}

// KeyEventFrame builds a complete frame for one key event
func KeyEventFrame(seq uint8, ev KeyEvent) []byte {
	output := NewScratchOutput()
	EncodeFrame(output, seq, func(output OutputBuffer) {
		EncodeKeyEvent(output, ev)
	})
	return append([]byte(nil), output.Result()...)
}
