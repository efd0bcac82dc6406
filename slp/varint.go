package slp

import "errors"

var (
	ErrVarIntTooBig = errors.New("varint is longer than 5 bytes")
	// errShort means the buffer ended in the middle of a value.
	errShort = errors.New("buffer too short")
)

const maxVarIntLen = 5

// AppendVarInt appends the VarInt encoding of v. Negative values use their
// two's complement form and always take five bytes.
func AppendVarInt(buf []byte, v int32) []byte {
	u := uint32(v)
	for u >= 0x80 {
		buf = append(buf, byte(u)|0x80)
		u >>= 7
	}
	return append(buf, byte(u))
}

// ReadVarInt decodes a VarInt from the front of buf and returns it with the
// number of bytes consumed.
func ReadVarInt(buf []byte) (int32, int, error) {
	var value uint32
	for i := 0; i < maxVarIntLen; i++ {
		if i >= len(buf) {
			return 0, 0, errShort
		}
		b := buf[i]
		value |= uint32(b&0x7f) << (7 * i)
		if b&0x80 == 0 {
			return int32(value), i + 1, nil
		}
	}
	return 0, 0, ErrVarIntTooBig
}
