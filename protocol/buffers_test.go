package protocol

import (
	"bytes"
	"testing"
)

func TestScratchOutputPatchAndSince(t *testing.T) {
	out := NewScratchOutput()
	out.Output([]byte{0, 2, 3})
	out.Output([]byte{4, 5})

	if out.CurPosition() != 5 {
		t.Fatalf("Expected position 5, got %d", out.CurPosition())
	}

	out.Update(0, 99)
	// Past the write position is ignored
	out.Update(7, 1)
	if !bytes.Equal(out.Result(), []byte{99, 2, 3, 4, 5}) {
		t.Errorf("Unexpected result %v", out.Result())
	}
	if since := out.DataSince(3); !bytes.Equal(since, []byte{4, 5}) {
		t.Errorf("DataSince(3) = %v", since)
	}
	if out.DataSince(9) != nil {
		t.Error("DataSince past the end should be nil")
	}

	out.Reset()
	if out.CurPosition() != 0 || len(out.Result()) != 0 {
		t.Error("Reset did not clear the buffer")
	}
}

func TestScratchOutputOverflow(t *testing.T) {
	out := NewScratchOutput()
	out.Output(make([]byte, MessageMax-1))
	if out.Overflowed() {
		t.Fatal("Overflowed before the buffer was full")
	}
	out.Output([]byte{1, 2})
	if !out.Overflowed() || out.CurPosition() != MessageMax {
		t.Errorf("Expected overflow at %d, got overflow=%v pos=%d", MessageMax, out.Overflowed(), out.CurPosition())
	}
	out.Reset()
	if out.Overflowed() {
		t.Error("Reset did not clear overflow")
	}
}

func TestInputBufferPopAndCompact(t *testing.T) {
	in := NewInputBuffer(6)

	if n := in.Write([]byte{1, 2, 3, 4, 5}); n != 5 {
		t.Fatalf("Expected to buffer 5 bytes, got %d", n)
	}
	in.Pop(4)
	if in.Len() != 1 || in.Free() != 5 {
		t.Errorf("After Pop: len=%d free=%d", in.Len(), in.Free())
	}

	// Does not fit behind the tail, so the remainder moves down first
	if n := in.Write([]byte{6, 7, 8}); n != 3 {
		t.Fatalf("Expected to buffer 3 bytes, got %d", n)
	}
	if !bytes.Equal(in.Data(), []byte{5, 6, 7, 8}) {
		t.Errorf("Expected contiguous [5 6 7 8], got %v", in.Data())
	}

	if n := in.Write([]byte{9, 10, 11}); n != 2 {
		t.Errorf("Expected to buffer 2 bytes when full, got %d", n)
	}

	in.Pop(100)
	if in.Len() != 0 || in.Free() != 6 {
		t.Errorf("Pop past the end: len=%d free=%d", in.Len(), in.Free())
	}
}
