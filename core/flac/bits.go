package flac

import (
	"encoding/binary"
	"fmt"
)

// Max36Bit is the largest value a 36-bit field can hold.
const Max36Bit = 1<<36 - 1

// ReadBlockHeader splits a 4-byte metadata block header into its last-block
// flag (top bit), 7-bit type and 24-bit big-endian payload size.
func ReadBlockHeader(b []byte) (isLast bool, blockType uint8, size uint32) {
	return b[0]&0x80 != 0, b[0] & 0x7F, Read24BitBigEndian(b[1:4])
}

// Read24BitBigEndian decodes a 24-bit big-endian unsigned integer.
func Read24BitBigEndian(b []byte) uint32 {
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
}

// Read20BitBigEndian decodes the 20 bits starting at the top of b[0]; the
// low nibble of b[2] is not part of the value.
func Read20BitBigEndian(b []byte) uint32 {
	return uint32(b[0])<<12 | uint32(b[1])<<4 | uint32(b[2])>>4
}

// Read36BitUnsignedBigEndianIgnoringFirstOctet decodes a 36-bit big-endian
// value from 5 bytes, ignoring the top nibble of b[0] which belongs to the
// preceding field.
func Read36BitUnsignedBigEndianIgnoringFirstOctet(b []byte) uint64 {
	return uint64(b[0]&0x0F)<<32 | uint64(binary.BigEndian.Uint32(b[1:5]))
}

// Write36BitUnsignedBigEndianIgnoringFirstOctet encodes value into the low
// 36 bits of b[0:5]. The top nibble of b[0] is left exactly as the caller
// supplied it.
func Write36BitUnsignedBigEndianIgnoringFirstOctet(b []byte, value uint64) error {
	if len(b) < 5 {
		return fmt.Errorf("36-bit field needs 5 bytes, have %d", len(b))
	}
	if value > Max36Bit {
		return fmt.Errorf("value %d does not fit in 36 bits", value)
	}
	b[0] = b[0]&0xF0 | byte(value>>32)&0x0F
	binary.BigEndian.PutUint32(b[1:5], uint32(value))
	return nil
}
