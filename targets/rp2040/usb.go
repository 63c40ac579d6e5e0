//go:build rp2040 || rp2350

package main

import (
	"machine"

	"readout/core"
	"readout/protocol"
)

var (
	frameSeq      uint8
	writeFailures uint32
)

// InitUSB initializes the USB CDC port used for the key event echo.
// TinyGo sets up a composite device, so CDC works next to the HID keyboard.
func InitUSB() {
	_ = machine.Serial.Configure(machine.UARTConfig{})
}

// USBWriteBytes writes multiple bytes to USB
func USBWriteBytes(data []byte) (int, error) {
	return machine.Serial.Write(data)
}

// echoSink frames every key transition onto USB CDC so a host can watch
// what was typed
type echoSink struct {
	oid uint8
}

func (s echoSink) Emit(code core.KeyCode, pressed bool, clock uint32) {
	frame := protocol.KeyEventFrame(frameSeq, protocol.KeyEvent{
		OID:     s.oid,
		Code:    uint16(code),
		Pressed: pressed,
		Clock:   clock,
	})
	frameSeq = (frameSeq + 1) & protocol.MessageSeqMask

	written := 0
	for written < len(frame) {
		n, err := USBWriteBytes(frame[written:])
		if err != nil || n == 0 {
			// Host not listening; drop the frame
			writeFailures++
			return
		}
		written += n
	}
}
