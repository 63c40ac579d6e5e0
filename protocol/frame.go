package protocol

import "errors"

var (
	ErrFrameLength = errors.New("invalid frame length")
	ErrFrameCRC    = errors.New("frame CRC mismatch")
	ErrFrameSync   = errors.New("missing frame sync byte")
	ErrFrameSeq    = errors.New("invalid frame sequence")
)

// EncodeFrame writes one frame holding the payload produced by frameData
func EncodeFrame(output OutputBuffer, seq uint8, frameData func(output OutputBuffer)) {
	cursor := output.CurPosition()

	// Header with length placeholder
	output.Output([]byte{0, MessageDest | (seq & MessageSeqMask)})

	frameData(output)

	// Update length field
	changed := len(output.DataSince(cursor))
	output.Update(cursor, uint8(changed+MessageTrailerSize))

	crc := CRC16(output.DataSince(cursor))
	output.Output([]byte{
		uint8((crc & 0xFF00) >> 8),
		uint8(crc & 0xFF),
		MessageValueSync,
	})
}

// DecodeFrame validates a complete frame and returns its sequence number
// and payload
func DecodeFrame(frame []byte) (seq uint8, payload []byte, err error) {
	if len(frame) < MessageLengthMin || len(frame) > MessageMax || int(frame[MessagePositionLen]) != len(frame) {
		return 0, nil, ErrFrameLength
	}
	if frame[len(frame)-1] != MessageValueSync {
		return 0, nil, ErrFrameSync
	}
	if frame[MessagePositionSeq]&^MessageSeqMask != MessageDest {
		return 0, nil, ErrFrameSeq
	}

	body := frame[:len(frame)-MessageTrailerSize]
	crc := uint16(frame[len(frame)-3])<<8 | uint16(frame[len(frame)-2])
	if CRC16(body) != crc {
		return 0, nil, ErrFrameCRC
	}
	return frame[MessagePositionSeq] & MessageSeqMask, body[MessageHeaderSize:], nil
}

// FrameReader reassembles frames from a byte stream, dropping bytes up to
// the next sync byte when a frame is corrupt
type FrameReader struct {
	input   *InputBuffer
	Dropped int // bytes discarded while resynchronizing
}

// NewFrameReader creates a reader with room for a few frames
func NewFrameReader() *FrameReader {
	return &FrameReader{input: NewInputBuffer(4 * MessageMax)}
}

// Write appends received bytes. It returns how many were buffered.
func (r *FrameReader) Write(data []byte) int {
	return r.input.Write(data)
}

// Next returns the next valid frame payload. ok is false when more bytes
// are needed.
func (r *FrameReader) Next() (seq uint8, payload []byte, ok bool) {
	for {
		data := r.input.Data()
		if len(data) == 0 {
			return 0, nil, false
		}

		n := int(data[MessagePositionLen])
		if n < MessageLengthMin || n > MessageMax {
			r.resync(data)
			continue
		}
		if len(data) < n {
			return 0, nil, false
		}

		frame := make([]byte, n)
		copy(frame, data[:n])
		seq, payload, err := DecodeFrame(frame)
		if err != nil {
			r.resync(data)
			continue
		}
		r.input.Pop(n)
		return seq, payload, true
	}
}

// resync drops everything up to and including the next sync byte
func (r *FrameReader) resync(data []byte) {
	for i, b := range data {
		if b == MessageValueSync {
			r.input.Pop(i + 1)
			r.Dropped += i + 1
			return
		}
	}
	r.input.Pop(len(data))
	r.Dropped += len(data)
}
