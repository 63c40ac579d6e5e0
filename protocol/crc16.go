package protocol

// CRC16Init is the register value before the first byte
const CRC16Init uint16 = 0xFFFF

// CRC16Update folds one byte into crc (reflected CCITT, no final xor)
func CRC16Update(crc uint16, b byte) uint16 {
	b ^= uint8(crc & 0xFF)
	b ^= b << 4
	b16 := uint16(b)
	return (b16<<8 | crc>>8) ^ (b16 >> 4) ^ (b16 << 3)
}

// CRC16 returns the frame checksum of data
func CRC16(data []byte) uint16 {
	crc := CRC16Init
	for _, b := range data {
		crc = CRC16Update(crc, b)
	}
	return crc
}
