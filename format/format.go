// Package format renders two-component fixed-point readings as decimal
// strings for typing out on a keyboard.
package format

import "errors"

// MicroPerUnit is the scale of FixedPoint.Micro
const MicroPerUnit = 1000000

// MaxPlaces is the largest supported number of decimal places
const MaxPlaces = 6

var (
	ErrInvalidPlaces = errors.New("decimal places must be between 0 and 6")
	ErrOverflow      = errors.New("formatted value exceeds digit capacity")
)

// FixedPoint is a sensor reading split into an integer part and a fraction
// in millionths. Sources are expected to give both fields the same sign.
type FixedPoint struct {
	Int   int32
	Micro int32
}

// FromMicro splits a value expressed in micro-units into a sign-matched
// FixedPoint. Values beyond the int32 integer range are clamped.
func FromMicro(micro int64) FixedPoint {
	whole := micro / MicroPerUnit
	frac := micro % MicroPerUnit
	if whole > 1<<31-1 {
		return FixedPoint{Int: 1<<31 - 1, Micro: MicroPerUnit - 1}
	}
	if whole < -1<<31 {
		return FixedPoint{Int: -1 << 31, Micro: -(MicroPerUnit - 1)}
	}
	return FixedPoint{Int: int32(whole), Micro: int32(frac)}
}

// Scaled returns the reading as a single integer in micro-units
func (v FixedPoint) Scaled() int64 {
	return int64(v.Int)*MicroPerUnit + int64(v.Micro)
}

// ValidPlaces reports whether places is in [0, MaxPlaces]
func ValidPlaces(places int) bool {
	return places >= 0 && places <= MaxPlaces
}

var pow10 = [MaxPlaces + 1]uint64{1, 10, 100, 1000, 10000, 100000, 1000000}

// Format renders v with at most places fractional digits.
//
// The fraction is truncated, not rounded, and trailing zeros are stripped.
// A fraction that truncates to zero produces no decimal point, and a
// reading that renders as zero never carries a sign.
func Format(v FixedPoint, places int) (Digits, error) {
	var d Digits
	_, err := FormatInto(&d, v, places)
	return d, err
}

// FormatInto renders v into d, replacing its contents, and returns the
// number of characters written. On error d is left empty.
func FormatInto(d *Digits, v FixedPoint, places int) (int, error) {
	d.Reset()
	if !ValidPlaces(places) {
		return 0, ErrInvalidPlaces
	}

	scaled := v.Scaled()
	negative := scaled < 0
	var mag uint64
	if negative {
		mag = uint64(-scaled)
	} else {
		mag = uint64(scaled)
	}

	whole := mag / MicroPerUnit
	frac := mag % MicroPerUnit

	var fd uint64
	if places > 0 {
		fd = frac * pow10[places] / MicroPerUnit
	}

	// Only an exact zero is unsigned; a negative that truncates to zero
	// still types as "-0"
	if negative && (whole != 0 || frac != 0) {
		d.push('-')
	}

	if !appendUint(d, whole, 0) {
		d.Reset()
		return 0, ErrOverflow
	}

	if fd != 0 {
		point := d.Len()
		if !d.push('.') || !appendUint(d, fd, places) {
			d.Reset()
			return 0, ErrOverflow
		}
		end := d.Len()
		for end > point+1 && d.buf[end-1] == '0' {
			end--
		}
		if end == point+1 {
			end = point
		}
		d.truncate(end)
	}

	return d.Len(), nil
}

// appendUint writes n in decimal, left padded with zeros to width digits
func appendUint(d *Digits, n uint64, width int) bool {
	var tmp [20]byte
	pos := len(tmp)
	for n > 0 {
		pos--
		tmp[pos] = byte('0' + n%10)
		n /= 10
	}
	for len(tmp)-pos < width || pos == len(tmp) {
		pos--
		tmp[pos] = '0'
	}
	for _, c := range tmp[pos:] {
		if !d.push(c) {
			return false
		}
	}
	return true
}
