package lm

import (
	"bufio"
	"fmt"
	"io"

	"knlm-go/internal/bakedmap"
	"knlm-go/internal/codec"
)

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

func (c *countingWriter) WriteByte(b byte) error {
	_, err := c.Write([]byte{b})
	return err
}

type countingReader struct {
	r *bufio.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

func (c *countingReader) ReadByte() (byte, error) {
	b, err := c.r.ReadByte()
	if err == nil {
		c.n++
	}
	return b, err
}

// WriteTo serializes an optimized model using the trie's native encoding:
// a fixed-width header followed by relative offsets via vuint/svint and
// log-probabilities via neg-fixed16. The model must be optimized.
func (m *Model[W]) WriteTo(w io.Writer) (int64, error) {
	if !m.optimized {
		return 0, ErrNotOptimized
	}

	bw := bufio.NewWriter(w)
	cw := &countingWriter{w: bw}

	if err := codec.WriteFixed32(cw, uint32(wordWidthTag[W]())); err != nil {
		return cw.n, err
	}
	if err := codec.WriteFixed32(cw, uint32(m.order)); err != nil {
		return cw.n, err
	}
	if err := codec.WriteFixed32(cw, uint32(m.vocabSize)); err != nil {
		return cw.n, err
	}
	if err := codec.WriteFixed32(cw, uint32(len(m.nodes))); err != nil {
		return cw.n, err
	}

	for i := range m.nodes {
		if err := m.writeNode(cw, int32(i)); err != nil {
			return cw.n, err
		}
	}

	if err := bw.Flush(); err != nil {
		return cw.n, err
	}
	return cw.n, nil
}

func (m *Model[W]) writeNode(w *countingWriter, idx int32) error {
	n := &m.nodes[idx]

	if err := codec.WriteUvarint(w, uint32(-n.parentOff)); err != nil {
		return err
	}
	if err := codec.WriteSvarint(w, n.lowerOff); err != nil {
		return err
	}
	if err := codec.WriteNegFixed16(w, n.ll); err != nil {
		return err
	}
	if err := codec.WriteNegFixed16(w, n.gamma); err != nil {
		return err
	}
	if err := w.WriteByte(n.depth); err != nil {
		return err
	}

	if int(n.depth) == m.order-1 {
		if err := codec.WriteUvarint(w, uint32(n.bakedLeafLL.Len())); err != nil {
			return err
		}
		var werr error
		n.bakedLeafLL.All(func(tok W, ll float64) bool {
			if werr = codec.WriteUvarint(w, uint32(tok)); werr != nil {
				return false
			}
			werr = codec.WriteNegFixed16(w, ll)
			return werr == nil
		})
		return werr
	}

	if err := codec.WriteUvarint(w, uint32(n.bakedOffsets.Len())); err != nil {
		return err
	}
	var werr error
	n.bakedOffsets.All(func(tok W, off int32) bool {
		if werr = codec.WriteUvarint(w, uint32(tok)); werr != nil {
			return false
		}
		werr = codec.WriteUvarint(w, uint32(off))
		return werr == nil
	})
	return werr
}

// ReadModel deserializes a model written by WriteTo. The caller picks W; if
// the stored word width exceeds W's width, ReadModel fails with
// ErrFormatMismatch so the caller can retry with a wider instantiation. A
// stored width narrower than or equal to W's loads successfully.
func ReadModel[W Word](r io.Reader) (*Model[W], int64, error) {
	cr := &countingReader{r: bufio.NewReader(r)}

	storedWidth, err := codec.ReadFixed32(cr)
	if err != nil {
		return nil, cr.n, fmt.Errorf("lm: read word width: %w", err)
	}
	if storedWidth > uint32(wordWidthTag[W]()) {
		return nil, cr.n, fmt.Errorf("%w: stored word width %d exceeds requested width %d", ErrFormatMismatch, storedWidth, wordWidthTag[W]())
	}

	order, err := codec.ReadFixed32(cr)
	if err != nil {
		return nil, cr.n, fmt.Errorf("lm: read order: %w", err)
	}
	vocabSize, err := codec.ReadFixed32(cr)
	if err != nil {
		return nil, cr.n, fmt.Errorf("lm: read vocab size: %w", err)
	}
	nodeCount, err := codec.ReadFixed32(cr)
	if err != nil {
		return nil, cr.n, fmt.Errorf("lm: read node count: %w", err)
	}

	m := &Model[W]{
		order:     int(order),
		vocabSize: uint64(vocabSize),
		nodes:     make([]node[W], nodeCount),
		optimized: true,
	}
	for i := range m.nodes {
		if err := m.readNode(cr, int32(i)); err != nil {
			return nil, cr.n, fmt.Errorf("lm: read node %d: %w", i, err)
		}
	}
	return m, cr.n, nil
}

func (m *Model[W]) readNode(r *countingReader, idx int32) error {
	negParent, err := codec.ReadUvarint(r)
	if err != nil {
		return err
	}
	lowerOff, err := codec.ReadSvarint(r)
	if err != nil {
		return err
	}
	ll, err := codec.ReadNegFixed16(r)
	if err != nil {
		return err
	}
	gamma, err := codec.ReadNegFixed16(r)
	if err != nil {
		return err
	}
	depth, err := r.ReadByte()
	if err != nil {
		return err
	}
	childCount, err := codec.ReadUvarint(r)
	if err != nil {
		return err
	}

	n := &m.nodes[idx]
	n.parentOff = -int32(negParent)
	n.lowerOff = lowerOff
	n.ll = ll
	n.gamma = gamma
	n.depth = depth
	n.baked = true

	if int(depth) == m.order-1 {
		keys := make([]W, childCount)
		vals := make([]float64, childCount)
		for i := uint32(0); i < childCount; i++ {
			tok, err := codec.ReadUvarint(r)
			if err != nil {
				return err
			}
			ll, err := codec.ReadNegFixed16(r)
			if err != nil {
				return err
			}
			keys[i] = W(tok)
			vals[i] = ll
		}
		n.bakedLeafLL = bakedmap.BuildSorted(keys, vals)
		return nil
	}

	keys := make([]W, childCount)
	vals := make([]int32, childCount)
	for i := uint32(0); i < childCount; i++ {
		tok, err := codec.ReadUvarint(r)
		if err != nil {
			return err
		}
		off, err := codec.ReadUvarint(r)
		if err != nil {
			return err
		}
		keys[i] = W(tok)
		vals[i] = int32(off)
	}
	n.bakedOffsets = bakedmap.BuildSorted(keys, vals)
	return nil
}
