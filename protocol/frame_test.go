package protocol

import "testing"

func TestKeyEventFrameRoundTrip(t *testing.T) {
	testCases := []KeyEvent{
		{OID: 0, Code: 0x1E, Pressed: true, Clock: 0},
		{OID: 3, Code: 0x37, Pressed: false, Clock: 120000},
		{OID: 255, Code: 0x85, Pressed: true, Clock: 0xFFFFFFF0},
	}

	for i, expected := range testCases {
		frame := KeyEventFrame(uint8(i), expected)

		if int(frame[0]) != len(frame) {
			t.Errorf("Length byte %d does not match frame size %d", frame[0], len(frame))
		}
		if frame[len(frame)-1] != MessageValueSync {
			t.Errorf("Frame does not end with sync byte: %v", frame)
		}

		seq, payload, err := DecodeFrame(frame)
		if err != nil {
			t.Fatalf("DecodeFrame failed: %v", err)
		}
		if seq != uint8(i) {
			t.Errorf("Expected seq %d, got %d", i, seq)
		}
		got, err := DecodeKeyEvent(payload)
		if err != nil {
			t.Fatalf("DecodeKeyEvent failed: %v", err)
		}
		if got != expected {
			t.Errorf("Key event mismatch: expected %+v, got %+v", expected, got)
		}
	}
}

func TestDecodeFrameRejectsCorruption(t *testing.T) {
	frame := KeyEventFrame(1, KeyEvent{Code: 0x27, Pressed: true, Clock: 42})

	badCRC := append([]byte(nil), frame...)
	badCRC[3] ^= 0x01
	if _, _, err := DecodeFrame(badCRC); err != ErrFrameCRC {
		t.Errorf("Expected ErrFrameCRC, got %v", err)
	}

	noSync := append([]byte(nil), frame...)
	noSync[len(noSync)-1] = 0
	if _, _, err := DecodeFrame(noSync); err != ErrFrameSync {
		t.Errorf("Expected ErrFrameSync, got %v", err)
	}

	if _, _, err := DecodeFrame(frame[:len(frame)-1]); err != ErrFrameLength {
		t.Errorf("Expected ErrFrameLength, got %v", err)
	}

	badSeq := append([]byte(nil), frame...)
	badSeq[MessagePositionSeq] = 0x01
	if _, _, err := DecodeFrame(badSeq); err != ErrFrameSeq {
		t.Errorf("Expected ErrFrameSeq, got %v", err)
	}
}

func TestDecodeKeyEventUnknownMessage(t *testing.T) {
	output := NewScratchOutput()
	EncodeVLQUint(output, 9)
	if _, err := DecodeKeyEvent(output.Result()); err != ErrUnknownMessage {
		t.Errorf("Expected ErrUnknownMessage, got %v", err)
	}

	truncated := []byte{MsgKeyEvent, 1}
	if _, err := DecodeKeyEvent(truncated); err != ErrBufferTooSmall {
		t.Errorf("Expected ErrBufferTooSmall, got %v", err)
	}
}

func TestFrameReaderStream(t *testing.T) {
	r := NewFrameReader()

	first := KeyEventFrame(0, KeyEvent{Code: 0x1F, Pressed: true, Clock: 10})
	second := KeyEventFrame(1, KeyEvent{Code: 0x1F, Pressed: false, Clock: 20})

	// Garbage before the first frame, second frame split across writes
	r.Write([]byte{0xFF, 0x00, MessageValueSync})
	r.Write(first)
	r.Write(second[:3])

	_, payload, ok := r.Next()
	if !ok {
		t.Fatal("Expected first frame")
	}
	ev, err := DecodeKeyEvent(payload)
	if err != nil || !ev.Pressed || ev.Clock != 10 {
		t.Errorf("Unexpected first event %+v, %v", ev, err)
	}
	if r.Dropped != 3 {
		t.Errorf("Expected 3 dropped bytes, got %d", r.Dropped)
	}

	if _, _, ok := r.Next(); ok {
		t.Fatal("Partial frame returned")
	}

	r.Write(second[3:])
	seq, payload, ok := r.Next()
	if !ok || seq != 1 {
		t.Fatalf("Expected second frame, ok=%v seq=%d", ok, seq)
	}
	if ev, _ := DecodeKeyEvent(payload); ev.Pressed || ev.Clock != 20 {
		t.Errorf("Unexpected second event %+v", ev)
	}
}
