package protocol

import (
	"testing"
)

func TestVLQEncodeDecodeInt(t *testing.T) {
	testCases := []int32{
		0,
		1,
		-1,
		127,
		-127,
		128,
		-128,
		255,
		-255,
		1000,
		-1000,
		65535,
		-65535,
		1000000,
		-1000000,
	}

	for _, expected := range testCases {
		output := NewScratchOutput()
		EncodeVLQInt(output, expected)
		encoded := output.Result()

		data := encoded
		decoded, err := DecodeVLQInt(&data)
		if err != nil {
			t.Errorf("Failed to decode VLQ for value %d: %v", expected, err)
			continue
		}

		if decoded != expected {
			t.Errorf("VLQ mismatch: expected %d, got %d (encoded as %v)", expected, decoded, encoded)
		}

		if len(data) != 0 {
			t.Errorf("VLQ decode didn't consume all bytes for value %d: %d bytes remaining", expected, len(data))
		}
	}
}

func TestVLQEncodeDecodeUint(t *testing.T) {
	testCases := []uint32{
		0,
		1,
		127,
		128,
		255,
		1000,
		65535,
		1000000,
	}

	for _, expected := range testCases {
		output := NewScratchOutput()
		EncodeVLQUint(output, expected)
		encoded := output.Result()

		data := encoded
		decoded, err := DecodeVLQUint(&data)
		if err != nil {
			t.Errorf("Failed to decode VLQ for value %d: %v", expected, err)
			continue
		}

		if decoded != expected {
			t.Errorf("VLQ mismatch: expected %d, got %d (encoded as %v)", expected, decoded, encoded)
		}
	}
}

func TestVLQLargeUintRoundTrip(t *testing.T) {
	// Clock values above 2^31 travel as negative VLQ ints
	for _, expected := range []uint32{0x7FFFFFFF, 0x80000000, 0xFFFFFFFF} {
		output := NewScratchOutput()
		EncodeVLQUint(output, expected)
		data := output.Result()
		decoded, err := DecodeVLQUint(&data)
		if err != nil || decoded != expected {
			t.Errorf("VLQ mismatch for %#x: got %#x, %v", expected, decoded, err)
		}
	}
}

func TestVLQEncodedLength(t *testing.T) {
	testCases := []struct {
		value int32
		size  int
	}{
		{0, 1},
		{-32, 1},
		{95, 1},
		{96, 2},
		{-33, 2},
		{3<<12 - 1, 2},
		{3 << 12, 3},
		{-(1 << 26), 4},
		{-(1 << 26) - 1, 5},
	}
	for _, tc := range testCases {
		output := NewScratchOutput()
		EncodeVLQInt(output, tc.value)
		if got := len(output.Result()); got != tc.size {
			t.Errorf("EncodeVLQInt(%d) used %d bytes, expected %d", tc.value, got, tc.size)
		}
	}
}

func TestVLQDecodeErrors(t *testing.T) {
	// Continuation byte with nothing after it
	data := []byte{0x80}
	if _, err := DecodeVLQInt(&data); err != ErrBufferTooSmall {
		t.Errorf("Expected ErrBufferTooSmall, got %v", err)
	}
	if len(data) != 1 {
		t.Errorf("Failed decode consumed input: %v", data)
	}

	empty := []byte{}
	if _, err := DecodeVLQInt(&empty); err != ErrBufferTooSmall {
		t.Errorf("Expected ErrBufferTooSmall for empty input, got %v", err)
	}

	// Six bytes with the continuation bit is longer than any 32-bit value
	long := []byte{0x81, 0x81, 0x81, 0x81, 0x81, 0x01}
	if _, err := DecodeVLQInt(&long); err != ErrInvalidVLQ {
		t.Errorf("Expected ErrInvalidVLQ, got %v", err)
	}
}
