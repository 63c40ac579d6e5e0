package protocol

// OutputBuffer receives encoded bytes. The frame encoder patches the length
// byte in place once the payload is written.
type OutputBuffer interface {
	Output(data []byte)
	CurPosition() int
	Update(pos int, val byte)
	DataSince(pos int) []byte
}

// ScratchOutput is an OutputBuffer over one frame's worth of stack space.
// Bytes past MessageMax are dropped and Overflowed reports it.
type ScratchOutput struct {
	buf      [MessageMax]byte
	pos      int
	overflow bool
}

func NewScratchOutput() *ScratchOutput {
	return &ScratchOutput{}
}

func (s *ScratchOutput) Output(data []byte) {
	n := copy(s.buf[s.pos:], data)
	s.pos += n
	if n < len(data) {
		s.overflow = true
	}
}

func (s *ScratchOutput) CurPosition() int { return s.pos }

func (s *ScratchOutput) Update(pos int, val byte) {
	if pos >= 0 && pos < s.pos {
		s.buf[pos] = val
	}
}

func (s *ScratchOutput) DataSince(pos int) []byte {
	if pos < 0 || pos > s.pos {
		return nil
	}
	return s.buf[pos:s.pos]
}

// Result returns everything written since the last Reset
func (s *ScratchOutput) Result() []byte {
	return s.buf[:s.pos]
}

// Overflowed reports whether any Output was truncated
func (s *ScratchOutput) Overflowed() bool { return s.overflow }

func (s *ScratchOutput) Reset() {
	s.pos = 0
	s.overflow = false
}

// InputBuffer accumulates received bytes for frame parsing. Consumed bytes
// are popped from the front and the remainder is moved down lazily, so
// Data is always one contiguous slice.
type InputBuffer struct {
	buf   []byte
	start int
	end   int
}

func NewInputBuffer(capacity int) *InputBuffer {
	return &InputBuffer{buf: make([]byte, capacity)}
}

// Write appends as much of data as fits and returns the count
func (b *InputBuffer) Write(data []byte) int {
	if b.end+len(data) > len(b.buf) && b.start > 0 {
		b.compact()
	}
	n := copy(b.buf[b.end:], data)
	b.end += n
	return n
}

// Data returns the unconsumed bytes. The slice is valid until the next
// Write or Pop.
func (b *InputBuffer) Data() []byte {
	return b.buf[b.start:b.end]
}

// Pop consumes n bytes from the front
func (b *InputBuffer) Pop(n int) {
	if n > b.Len() {
		n = b.Len()
	}
	b.start += n
	if b.start == b.end {
		b.start, b.end = 0, 0
	}
}

func (b *InputBuffer) Len() int { return b.end - b.start }

// Free is the room left after compaction
func (b *InputBuffer) Free() int { return len(b.buf) - b.Len() }

func (b *InputBuffer) Reset() {
	b.start, b.end = 0, 0
}

func (b *InputBuffer) compact() {
	n := copy(b.buf, b.buf[b.start:b.end])
	b.start, b.end = 0, n
}
