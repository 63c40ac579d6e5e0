// Package protocol frames key events for transmission to a USB-HID bridge
// or a host monitor. Frames follow the Klipper layout: a length byte, a
// sequence byte, VLQ encoded payload, CRC16 and a sync byte.
package protocol

// Version represents the readout wire format version
const Version = "0.1.0"

// Protocol constants
const (
	MessageMax         = 64 // Maximum frame size
	MessageHeaderSize  = 2
	MessageTrailerSize = 3
	MessageLengthMin   = MessageHeaderSize + MessageTrailerSize
	MessagePositionLen = 0
	MessagePositionSeq = 1
	MessageValueSync   = 0x7E
	MessageDest        = 0x10

	// Message sequence masks
	MessageSeqMask = 0x0F
)
