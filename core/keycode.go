package core

import (
	"errors"
	"strconv"
	"strings"
)

// KeyCode is a HID keyboard usage ID (usage page 0x07)
type KeyCode uint16

// Keyboard usage IDs used when typing numbers
const (
	KeyNone KeyCode = 0x00

	Key1 KeyCode = 0x1E
	Key2 KeyCode = 0x1F
	Key3 KeyCode = 0x20
	Key4 KeyCode = 0x21
	Key5 KeyCode = 0x22
	Key6 KeyCode = 0x23
	Key7 KeyCode = 0x24
	Key8 KeyCode = 0x25
	Key9 KeyCode = 0x26
	Key0 KeyCode = 0x27

	KeyMinus  KeyCode = 0x2D
	KeyComma  KeyCode = 0x36
	KeyPeriod KeyCode = 0x37

	KeypadMinus KeyCode = 0x56
	Keypad1     KeyCode = 0x59
	Keypad2     KeyCode = 0x5A
	Keypad3     KeyCode = 0x5B
	Keypad4     KeyCode = 0x5C
	Keypad5     KeyCode = 0x5D
	Keypad6     KeyCode = 0x5E
	Keypad7     KeyCode = 0x5F
	Keypad8     KeyCode = 0x60
	Keypad9     KeyCode = 0x61
	Keypad0     KeyCode = 0x62
	KeypadDot   KeyCode = 0x63
	KeypadComma KeyCode = 0x85
)

// Layout selects which physical keys digits and minus are typed with
type Layout uint8

const (
	LayoutTopRow Layout = iota // number row above the letters
	LayoutKeypad               // numeric keypad
)

var (
	ErrUnmappable     = errors.New("character has no key code")
	ErrUnknownKeyName = errors.New("unknown key name")
	ErrUnknownLayout  = errors.New("unknown layout")
)

var topRowDigits = [10]KeyCode{Key0, Key1, Key2, Key3, Key4, Key5, Key6, Key7, Key8, Key9}
var keypadDigits = [10]KeyCode{Keypad0, Keypad1, Keypad2, Keypad3, Keypad4, Keypad5, Keypad6, Keypad7, Keypad8, Keypad9}

// Resolver maps formatted characters to key codes. Digits and minus are
// fixed by the layout; the decimal separator is per binding since locales
// disagree on it.
type Resolver struct {
	Layout    Layout
	Separator KeyCode
}

// DefaultResolver types on the number row with '.' as separator
func DefaultResolver() Resolver {
	return Resolver{Layout: LayoutTopRow, Separator: KeyPeriod}
}

// Resolve returns the key code for one formatted character
func (r Resolver) Resolve(c byte) (KeyCode, error) {
	switch {
	case c >= '0' && c <= '9':
		if r.Layout == LayoutKeypad {
			return keypadDigits[c-'0'], nil
		}
		return topRowDigits[c-'0'], nil
	case c == '-':
		if r.Layout == LayoutKeypad {
			return KeypadMinus, nil
		}
		return KeyMinus, nil
	case c == '.':
		if r.Separator == KeyNone {
			return KeyNone, ErrUnmappable
		}
		return r.Separator, nil
	}
	return KeyNone, ErrUnmappable
}

var keyNames = map[string]KeyCode{
	"DOT":      KeyPeriod,
	"PERIOD":   KeyPeriod,
	"COMMA":    KeyComma,
	"MINUS":    KeyMinus,
	"KP_DOT":   KeypadDot,
	"KP_COMMA": KeypadComma,
	"KP_MINUS": KeypadMinus,
}

// ParseKeyCode accepts a symbolic key name (DOT, COMMA, KP_DOT, ...) or a
// numeric usage ID such as 0x37.
func ParseKeyCode(name string) (KeyCode, error) {
	name = strings.ToUpper(strings.TrimSpace(name))
	if code, ok := keyNames[name]; ok {
		return code, nil
	}
	v, err := strconv.ParseUint(name, 0, 16)
	if err != nil || v == 0 {
		return KeyNone, ErrUnknownKeyName
	}
	return KeyCode(v), nil
}

// ParseLayout accepts "toprow" / "number_row" or "keypad"
func ParseLayout(name string) (Layout, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "toprow", "top_row", "number_row":
		return LayoutTopRow, nil
	case "keypad", "numpad":
		return LayoutKeypad, nil
	}
	return LayoutTopRow, ErrUnknownLayout
}
