package codec

import (
	"encoding/binary"
	"fmt"
	"io"
)

const fixed16Scale = 1 << 12

// EncodeNegFixed16 appends the little-endian neg-fixed16 encoding of v to
// dst. v must be <= 0; values more negative than -16 saturate.
func EncodeNegFixed16(dst []byte, v float64) []byte {
	u := negFixed16Bits(v)
	return append(dst, byte(u), byte(u>>8))
}

// WriteNegFixed16 writes the neg-fixed16 encoding of v to w.
func WriteNegFixed16(w io.Writer, v float64) error {
	u := negFixed16Bits(v)
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], u)
	_, err := w.Write(buf[:])
	return err
}

func negFixed16Bits(v float64) uint16 {
	d := -v * fixed16Scale
	if d > 65535 {
		d = 65535
	}
	if d < 0 {
		d = 0
	}
	return uint16(d)
}

// DecodeNegFixed16 decodes a neg-fixed16 value from the start of src.
func DecodeNegFixed16(src []byte) (float64, int, error) {
	if len(src) < 2 {
		return 0, 0, fmt.Errorf("codec: truncated neg-fixed16")
	}
	u := binary.LittleEndian.Uint16(src)
	return -float64(u) / fixed16Scale, 2, nil
}

// ReadNegFixed16 reads a neg-fixed16 value from r.
func ReadNegFixed16(r io.Reader) (float64, error) {
	var buf [2]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, fmt.Errorf("codec: read neg-fixed16: %w", err)
	}
	u := binary.LittleEndian.Uint16(buf[:])
	return -float64(u) / fixed16Scale, nil
}
