//go:build rp2040 || rp2350

package main

import (
	"machine/usb/hid/keyboard"

	"readout/core"
)

// keyboardSink presses keys on the USB HID keyboard
type keyboardSink struct {
	kb       *keyboard.Keyboard
	failures uint32
}

func newKeyboardSink() *keyboardSink {
	return &keyboardSink{kb: keyboard.Port()}
}

// usageFlag marks a TinyGo Keycode as a raw HID usage ID
const usageFlag = 0xF000

func (s *keyboardSink) Emit(code core.KeyCode, pressed bool, clock uint32) {
	kc := keyboard.Keycode(usageFlag | uint16(code))
	var err error
	if pressed {
		err = s.kb.Down(kc)
	} else {
		err = s.kb.Up(kc)
	}
	if err != nil {
		s.failures++
		core.DebugPrintln("[HID] key " + core.Itoa(int(code)) + " failed: " + err.Error())
	}
}
