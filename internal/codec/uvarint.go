// Package codec implements the compact binary primitives used by the n-gram
// trie's wire format: a cumulative-base variable-length unsigned integer, its
// signed counterpart, and a 16-bit negative-fixed-point encoding for
// log-probabilities. The scheme matches the original C++ implementation
// byte-for-byte so serialized models are interchangeable across ports.
package codec

import (
	"fmt"
	"io"
)

// uvarintBase[i] is the smallest value representable in exactly i+1 bytes;
// each length's range starts where the previous one's ends, so there is no
// overlap and no wasted encoding space.
var uvarintBase = [5]uint32{0, 0x80, 0x4080, 0x204080, 0x10204080}

// uvarintLen returns the encoded byte length for v, in [1, 5].
func uvarintLen(v uint32) int {
	n := 1
	for n <= 4 && v >= uvarintBase[n] {
		n++
	}
	return n
}

// EncodeUvarint appends the vuint encoding of v to dst and returns the
// extended slice.
func EncodeUvarint(dst []byte, v uint32) []byte {
	n := uvarintLen(v)
	v -= uvarintBase[n-1]
	for i := 0; i < n; i++ {
		b := byte(v & 0x7F)
		if i+1 < n {
			b |= 0x80
		}
		dst = append(dst, b)
		v >>= 7
	}
	return dst
}

// WriteUvarint writes the vuint encoding of v to w.
func WriteUvarint(w io.ByteWriter, v uint32) error {
	n := uvarintLen(v)
	v -= uvarintBase[n-1]
	for i := 0; i < n; i++ {
		b := byte(v & 0x7F)
		if i+1 < n {
			b |= 0x80
		}
		if err := w.WriteByte(b); err != nil {
			return err
		}
		v >>= 7
	}
	return nil
}

// ReadUvarint reads a vuint from r.
func ReadUvarint(r io.ByteReader) (uint32, error) {
	var v uint32
	var i uint
	for {
		c, err := r.ReadByte()
		if err != nil {
			return 0, fmt.Errorf("codec: read uvarint: %w", err)
		}
		if c&0x80 == 0 {
			v |= uint32(c) << (i * 7)
			return v + uvarintBase[i], nil
		}
		v |= uint32(c&0x7F) << (i * 7)
		i++
	}
}

// DecodeUvarint decodes a vuint from the start of src and returns the value
// plus the number of bytes consumed.
func DecodeUvarint(src []byte) (uint32, int, error) {
	var v uint32
	var i uint
	for {
		if int(i) >= len(src) {
			return 0, 0, fmt.Errorf("codec: truncated uvarint")
		}
		c := src[i]
		if c&0x80 == 0 {
			v |= uint32(c) << (i * 7)
			return v + uvarintBase[i], int(i) + 1, nil
		}
		v |= uint32(c&0x7F) << (i * 7)
		i++
	}
}
