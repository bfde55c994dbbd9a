package codec

import (
	"encoding/binary"
	"fmt"
	"io"
)

// WriteFixed32 writes v as a fixed 4-byte little-endian integer, matching
// Utils.hpp's writeToBinStream<uint32_t> (a raw memcpy on a little-endian
// host). Used for the header fields that spec's binary format fixes at
// u32 width rather than varint-encoding.
func WriteFixed32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

// ReadFixed32 reads a fixed 4-byte little-endian integer written by
// WriteFixed32.
func ReadFixed32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, fmt.Errorf("codec: read fixed32: %w", err)
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}
