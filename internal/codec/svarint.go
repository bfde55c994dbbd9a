package codec

import (
	"fmt"
	"io"
)

// svarintThreshold[i] bounds the payload representable using i+1 bytes
// before the sign bias wraps it into the next byte length.
var svarintThreshold = [4]int32{0x40, 0x2000, 0x100000, 0x8000000}

func svarintLen(v int32) int {
	for i := 1; i <= 4; i++ {
		t := svarintThreshold[i-1]
		if -t <= v && v < t {
			return i
		}
	}
	return 5
}

func svarintPayload(v int32, n int) uint32 {
	if n >= 5 {
		return uint32(v)
	}
	bias := int64(1) << (uint(n) * 7)
	u := int64(v)
	if v < 0 {
		u += bias
	}
	return uint32(u)
}

// EncodeSvarint appends the svint encoding of v to dst and returns the
// extended slice.
func EncodeSvarint(dst []byte, v int32) []byte {
	n := svarintLen(v)
	u := svarintPayload(v, n)
	for i := 0; i < n; i++ {
		b := byte(u & 0x7F)
		if i+1 < n {
			b |= 0x80
		}
		dst = append(dst, b)
		u >>= 7
	}
	return dst
}

// WriteSvarint writes the svint encoding of v to w.
func WriteSvarint(w io.ByteWriter, v int32) error {
	n := svarintLen(v)
	u := svarintPayload(v, n)
	for i := 0; i < n; i++ {
		b := byte(u & 0x7F)
		if i+1 < n {
			b |= 0x80
		}
		if err := w.WriteByte(b); err != nil {
			return err
		}
		u >>= 7
	}
	return nil
}

func svarintUnbias(v uint32, i uint) int32 {
	result := int32(v)
	if i < 4 {
		threshold := uint32(svarintThreshold[i])
		if v >= threshold {
			result = int32(v - (uint32(1) << ((i + 1) * 7)))
		}
	}
	return result
}

// ReadSvarint reads an svint from r.
func ReadSvarint(r io.ByteReader) (int32, error) {
	var v uint32
	var i uint
	for {
		if i >= 5 {
			return 0, fmt.Errorf("codec: svarint too long")
		}
		c, err := r.ReadByte()
		if err != nil {
			return 0, fmt.Errorf("codec: read svarint: %w", err)
		}
		if c&0x80 == 0 {
			v |= uint32(c) << (i * 7)
			return svarintUnbias(v, i), nil
		}
		v |= uint32(c&0x7F) << (i * 7)
		i++
	}
}

// DecodeSvarint decodes an svint from the start of src and returns the value
// plus the number of bytes consumed.
func DecodeSvarint(src []byte) (int32, int, error) {
	var v uint32
	var i uint
	for {
		if i >= 5 {
			return 0, 0, fmt.Errorf("codec: svarint too long")
		}
		if int(i) >= len(src) {
			return 0, 0, fmt.Errorf("codec: truncated svarint")
		}
		c := src[i]
		if c&0x80 == 0 {
			v |= uint32(c) << (i * 7)
			return svarintUnbias(v, i), int(i) + 1, nil
		}
		v |= uint32(c&0x7F) << (i * 7)
		i++
	}
}
