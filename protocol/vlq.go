package protocol

import "errors"

var (
	ErrInvalidVLQ     = errors.New("invalid VLQ encoding")
	ErrBufferTooSmall = errors.New("buffer too small for VLQ")
)

// maxVLQBytes covers a full 32-bit value
const maxVLQBytes = 5

// EncodeVLQInt writes v seven bits per byte, most significant group first,
// with the high bit set on every byte but the last. Values in [-32, 96)
// take one byte.
func EncodeVLQInt(output OutputBuffer, v int32) {
	var tmp [maxVLQBytes]byte
	n := 0
	for shift := 28; shift >= 7; shift -= 7 {
		lim := int32(1) << (shift - 2)
		if v < -lim || v >= 3*lim {
			tmp[n] = byte(v>>shift)&0x7F | 0x80
			n++
		}
	}
	tmp[n] = byte(v) & 0x7F
	n++
	output.Output(tmp[:n])
}

// EncodeVLQUint writes v as the int32 with the same bits
func EncodeVLQUint(output OutputBuffer, v uint32) {
	EncodeVLQInt(output, int32(v))
}

// DecodeVLQInt reads one value and advances data past it. data is left
// untouched on error.
func DecodeVLQInt(data *[]byte) (int32, error) {
	buf := *data
	if len(buf) == 0 {
		return 0, ErrBufferTooSmall
	}

	c := buf[0]
	v := uint32(c & 0x7F)
	if c&0x60 == 0x60 {
		v |= ^uint32(0x1F)
	}

	i := 1
	for c&0x80 != 0 {
		if i == maxVLQBytes {
			return 0, ErrInvalidVLQ
		}
		if i == len(buf) {
			return 0, ErrBufferTooSmall
		}
		c = buf[i]
		i++
		v = v<<7 | uint32(c&0x7F)
	}

	*data = buf[i:]
	return int32(v), nil
}

func DecodeVLQUint(data *[]byte) (uint32, error) {
	v, err := DecodeVLQInt(data)
	return uint32(v), err
}
