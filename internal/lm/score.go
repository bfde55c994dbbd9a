package lm

import (
	"fmt"
	"math"
)

// getLL returns the log-probability of tok immediately following the
// context represented by node ctxIdx. If that exact continuation was never
// observed during training, it backs off through the lower link,
// accumulating the context's backoff weight at each step, down to root.
func (m *Model[W]) getLL(ctxIdx int32, tok W) float64 {
	n := &m.nodes[ctxIdx]
	if int(n.depth) == m.order-1 {
		if p, ok := n.bakedLeafLL.Lookup(tok); ok {
			return p
		}
	} else if off, ok := n.bakedOffsets.Lookup(tok); ok {
		return m.nodes[ctxIdx+off].ll
	}
	if ctxIdx == 0 {
		return math.Inf(-1)
	}
	return n.gamma + m.getLL(ctxIdx+n.lowerOff, tok)
}

// longestContext finds the longest suffix of hist (at most Order-1 tokens,
// since the trie never holds a deeper context) that the model actually saw
// during training. It tries the full window from root first; if any token
// in that window is missing, it's not a shorter prefix match that's wrong,
// it's the whole attempt, so it drops the oldest token and retries the
// shorter window from root again, down to the empty window (root) as the
// last resort.
func (m *Model[W]) longestContext(hist []W) int32 {
	start := 0
	if len(hist) > m.order-1 {
		start = len(hist) - (m.order - 1)
	}

	for ; start < len(hist); start++ {
		if idx, ok := m.getFromBaked(hist[start:]); ok {
			return idx
		}
	}
	return 0
}

// getFromBaked walks window from root, requiring every token to match; it
// returns the node reached only if the whole window matched.
func (m *Model[W]) getFromBaked(window []W) (int32, bool) {
	idx := int32(0)
	for _, tok := range window {
		n := &m.nodes[idx]
		if int(n.depth) == m.order-1 {
			return 0, false
		}
		off, ok := n.bakedOffsets.Lookup(tok)
		if !ok {
			return 0, false
		}
		idx += off
	}
	return idx, true
}

// advance moves a streaming context cursor forward by one token. A cursor
// sitting on a leaf row can't hold a literal child for tok (no node exists
// past the leaf depth), so it first steps to its own lower context before
// attempting to extend; if tok was never seen there either, it keeps
// falling back through lower links until one works or root is reached.
func (m *Model[W]) advance(cursor int32, tok W) int32 {
	if int(m.nodes[cursor].depth) == m.order-1 {
		cursor += m.nodes[cursor].lowerOff
	}
	for {
		n := &m.nodes[cursor]
		if int(n.depth) < m.order-1 {
			if off, ok := n.bakedOffsets.Lookup(tok); ok {
				return cursor + off
			}
		}
		if cursor == 0 {
			return 0
		}
		cursor += n.lowerOff
	}
}

// EvaluateLL returns the log-probability of seq's last token given
// everything before it.
func (m *Model[W]) EvaluateLL(seq []uint32) (float64, error) {
	if !m.optimized {
		return 0, ErrNotOptimized
	}
	words, err := m.toWords(seq)
	if err != nil {
		return 0, err
	}
	if len(words) == 0 {
		return 0, fmt.Errorf("lm: EvaluateLL: empty sequence")
	}
	ctx := m.longestContext(words[:len(words)-1])
	return m.getLL(ctx, words[len(words)-1]), nil
}

// EvaluateLLSent scores a whole sequence by summing the log-probability of
// each token given everything before it (the first token is not scored,
// since it has no preceding context). Per-token scores are floored at
// minValue, which keeps a single catastrophically unlikely token from
// dominating a long sequence's total.
func (m *Model[W]) EvaluateLLSent(seq []uint32, minValue float64) (float64, error) {
	if !m.optimized {
		return 0, ErrNotOptimized
	}
	words, err := m.toWords(seq)
	if err != nil {
		return 0, err
	}

	var total float64
	cursor := int32(0)
	for i, tok := range words {
		if i > 0 {
			ll := m.getLL(cursor, tok)
			if ll < minValue {
				ll = minValue
			}
			total += ll
		}
		cursor = m.advance(cursor, tok)
	}
	return total, nil
}

// EvaluateLLEachWord is EvaluateLLSent without the running sum or the
// floor: it returns the unclamped log-probability of every position,
// including the first (scored against the empty context).
func (m *Model[W]) EvaluateLLEachWord(seq []uint32) ([]float64, error) {
	if !m.optimized {
		return nil, ErrNotOptimized
	}
	words, err := m.toWords(seq)
	if err != nil {
		return nil, err
	}

	out := make([]float64, len(words))
	cursor := int32(0)
	for i, tok := range words {
		out[i] = m.getLL(cursor, tok)
		cursor = m.advance(cursor, tok)
	}
	return out, nil
}

// PredictNext returns the log-probability of every vocabulary token
// following history, indexed by token id.
func (m *Model[W]) PredictNext(history []uint32) ([]float64, error) {
	if !m.optimized {
		return nil, ErrNotOptimized
	}
	words, err := m.toWords(history)
	if err != nil {
		return nil, err
	}

	ctx := m.longestContext(words)
	out := make([]float64, m.vocabSize)
	for w := uint64(0); w < m.vocabSize; w++ {
		out[w] = m.getLL(ctx, W(w))
	}
	return out, nil
}

// BranchingEntropy returns the Shannon entropy, in nats, of the
// distribution over tokens following seq: how uncertain the model is about
// what comes next.
func (m *Model[W]) BranchingEntropy(seq []uint32) (float64, error) {
	if !m.optimized {
		return 0, ErrNotOptimized
	}
	words, err := m.toWords(seq)
	if err != nil {
		return 0, err
	}

	ctx := m.longestContext(words)
	var entropy float64
	for w := uint64(0); w < m.vocabSize; w++ {
		p := m.getLL(ctx, W(w))
		if math.IsInf(p, -1) {
			continue
		}
		entropy += -math.Exp(p) * p
	}
	return entropy, nil
}
