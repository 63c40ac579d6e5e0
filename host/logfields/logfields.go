// Package logfields holds canonical slog field names for the host tools.
package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyOID     = "oid"
	KeyKeyCode = "key_code"
	KeyPressed = "pressed"
	KeyClock   = "clock"
	KeyText    = "text"
	KeyPlaces  = "places"
	KeyDevice  = "device"
	KeyPath    = "path"
	KeyError   = "error"
)

func OID(oid uint8) slog.Attr        { return slog.Int(KeyOID, int(oid)) }
func KeyCode(code uint16) slog.Attr  { return slog.String(KeyKeyCode, hex16(code)) }
func Pressed(p bool) slog.Attr       { return slog.Bool(KeyPressed, p) }
func Clock(c uint32) slog.Attr       { return slog.Uint64(KeyClock, uint64(c)) }
func Text(s string) slog.Attr        { return slog.String(KeyText, s) }
func Places(n int) slog.Attr         { return slog.Int(KeyPlaces, n) }
func Device(d string) slog.Attr      { return slog.String(KeyDevice, d) }
func Path(p string) slog.Attr        { return slog.String(KeyPath, p) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}

func hex16(v uint16) string {
	const digits = "0123456789abcdef"
	return string([]byte{'0', 'x', digits[v>>12&0xF], digits[v>>8&0xF], digits[v>>4&0xF], digits[v&0xF]})
}
