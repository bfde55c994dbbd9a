package codec

import (
	"bytes"
	"math"
	"testing"
)

func TestUvarintRoundTrip(t *testing.T) {
	values := []uint32{0, 1, 0x7F, 0x80, 0x81, 0x4080 - 1, 0x4080, 0x204080 - 1, 0x204080, 0x10204080 - 1, 0x10204080, 0x10204080 + 1, math.MaxUint32}
	for _, v := range values {
		enc := EncodeUvarint(nil, v)
		got, n, err := DecodeUvarint(enc)
		if err != nil {
			t.Fatalf("DecodeUvarint(%d): %v", v, err)
		}
		if got != v {
			t.Fatalf("DecodeUvarint round trip: want %d got %d (bytes=%v)", v, got, enc)
		}
		if n != len(enc) {
			t.Fatalf("DecodeUvarint consumed %d bytes, encoding is %d bytes", n, len(enc))
		}
	}
}

func TestUvarintByteLengthBoundaries(t *testing.T) {
	cases := []struct {
		v      uint32
		length int
	}{
		{0, 1},
		{0x7F, 1},
		{0x80, 2},
		{0x4080 - 1, 2},
		{0x4080, 3},
		{0x204080 - 1, 3},
		{0x204080, 4},
		{0x10204080 - 1, 4},
		{0x10204080, 5},
	}
	for _, c := range cases {
		enc := EncodeUvarint(nil, c.v)
		if len(enc) != c.length {
			t.Fatalf("EncodeUvarint(%#x): want %d bytes, got %d", c.v, c.length, len(enc))
		}
	}
}

func TestWriteReadUvarintStream(t *testing.T) {
	var buf bytes.Buffer
	values := []uint32{0, 200, 0x4080, 123456789}
	for _, v := range values {
		if err := WriteUvarint(&buf, v); err != nil {
			t.Fatalf("WriteUvarint: %v", err)
		}
	}
	for _, want := range values {
		got, err := ReadUvarint(&buf)
		if err != nil {
			t.Fatalf("ReadUvarint: %v", err)
		}
		if got != want {
			t.Fatalf("ReadUvarint: want %d got %d", want, got)
		}
	}
}

func TestSvarintRoundTrip(t *testing.T) {
	values := []int32{0, 1, -1, 63, -64, 64, -65, 8191, -8192, 8192, -8193,
		1048575, -1048576, 1048576, -1048577, math.MaxInt32, math.MinInt32}
	for _, v := range values {
		enc := EncodeSvarint(nil, v)
		got, n, err := DecodeSvarint(enc)
		if err != nil {
			t.Fatalf("DecodeSvarint(%d): %v", v, err)
		}
		if got != v {
			t.Fatalf("DecodeSvarint round trip: want %d got %d (bytes=%v)", v, got, enc)
		}
		if n != len(enc) {
			t.Fatalf("DecodeSvarint consumed %d bytes, encoding is %d bytes", n, len(enc))
		}
	}
}

func TestSvarintByteLengthBoundaries(t *testing.T) {
	cases := []struct {
		v      int32
		length int
	}{
		{0, 1},
		{63, 1},
		{-64, 1},
		{64, 2},
		{-65, 2},
		{8191, 2},
		{-8192, 2},
		{8192, 3},
		{-8193, 3},
	}
	for _, c := range cases {
		enc := EncodeSvarint(nil, c.v)
		if len(enc) != c.length {
			t.Fatalf("EncodeSvarint(%d): want %d bytes, got %d", c.v, c.length, len(enc))
		}
	}
}

func TestNegFixed16RoundTrip(t *testing.T) {
	values := []float64{0, -0.5, -1, -2.5, -15.9, -16, -1.0 / 4096, -100}
	for _, v := range values {
		enc := EncodeNegFixed16(nil, v)
		got, n, err := DecodeNegFixed16(enc)
		if err != nil {
			t.Fatalf("DecodeNegFixed16(%v): %v", v, err)
		}
		if n != 2 {
			t.Fatalf("neg-fixed16 must be exactly 2 bytes, got %d", n)
		}
		want := v
		if want < -16 {
			// values below -16 saturate
			want = -16
		}
		if math.Abs(got-want) > 1.0/4096 {
			t.Fatalf("DecodeNegFixed16(%v): want ~%v got %v", v, want, got)
		}
	}
}

func TestNegFixed16Saturates(t *testing.T) {
	enc := EncodeNegFixed16(nil, -1000)
	got, _, err := DecodeNegFixed16(enc)
	if err != nil {
		t.Fatalf("DecodeNegFixed16: %v", err)
	}
	if got < -16.01 || got > -15.9 {
		t.Fatalf("expected saturation near -16, got %v", got)
	}
}

func TestDecodeUvarintTruncated(t *testing.T) {
	if _, _, err := DecodeUvarint([]byte{0x80}); err == nil {
		t.Fatal("expected error decoding truncated uvarint")
	}
}

func TestDecodeSvarintTruncated(t *testing.T) {
	if _, _, err := DecodeSvarint([]byte{0x80, 0x80}); err == nil {
		t.Fatal("expected error decoding truncated svarint")
	}
}

func TestFixed32RoundTrip(t *testing.T) {
	values := []uint32{0, 1, 255, 256, 65535, 0x10204080, math.MaxUint32}
	for _, v := range values {
		var buf bytes.Buffer
		if err := WriteFixed32(&buf, v); err != nil {
			t.Fatalf("WriteFixed32(%d): %v", v, err)
		}
		if buf.Len() != 4 {
			t.Fatalf("WriteFixed32(%d): wrote %d bytes, want 4", v, buf.Len())
		}
		got, err := ReadFixed32(&buf)
		if err != nil {
			t.Fatalf("ReadFixed32(%d): %v", v, err)
		}
		if got != v {
			t.Fatalf("ReadFixed32 round trip: want %d got %d", v, got)
		}
	}
}

func TestFixed32IsLittleEndian(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFixed32(&buf, 1); err != nil {
		t.Fatalf("WriteFixed32: %v", err)
	}
	want := []byte{1, 0, 0, 0}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Fatalf("WriteFixed32(1) = %v, want %v (little-endian)", buf.Bytes(), want)
	}
}

func TestReadFixed32Truncated(t *testing.T) {
	if _, err := ReadFixed32(bytes.NewReader([]byte{1, 2})); err == nil {
		t.Fatal("expected error reading truncated fixed32")
	}
}
