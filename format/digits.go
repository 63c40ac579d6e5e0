package format

// Capacity is the worst case length of a formatted reading: sign, the
// digits of a 64-bit magnitude, decimal point and six fractional digits
// all fit.
const Capacity = 24

// Digits is a fixed-capacity character sequence holding one formatted
// reading. Only '0'-'9', '-' and '.' are written by Format.
type Digits struct {
	buf [Capacity]byte
	n   int
}

// Len returns the number of characters held
func (d *Digits) Len() int {
	return d.n
}

// At returns the character at index i. ok is false outside [0, Len).
func (d *Digits) At(i int) (c byte, ok bool) {
	if i < 0 || i >= d.n || i >= Capacity {
		return 0, false
	}
	return d.buf[i], true
}

// Bytes returns the held characters. The slice aliases the sequence.
func (d *Digits) Bytes() []byte {
	return d.buf[:d.n]
}

// String returns the held characters as a string
func (d *Digits) String() string {
	return string(d.buf[:d.n])
}

// Reset clears the sequence, zeroing every slot
func (d *Digits) Reset() {
	*d = Digits{}
}

// Set replaces the contents with s, truncated to Capacity. It writes the
// characters verbatim and is meant for tests and diagnostics.
func (d *Digits) Set(s string) {
	d.Reset()
	d.n = copy(d.buf[:], s)
}

// push appends c. It reports false when the sequence is full.
func (d *Digits) push(c byte) bool {
	if d.n >= Capacity {
		return false
	}
	d.buf[d.n] = c
	d.n++
	return true
}

// truncate shortens the sequence to n characters
func (d *Digits) truncate(n int) {
	for i := n; i < d.n; i++ {
		d.buf[i] = 0
	}
	d.n = n
}
