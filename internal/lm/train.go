package lm

// Train folds one token sequence into the model's counts. seq holds
// logical token ids, not yet narrowed to the model's word width; ids that
// don't fit are a hard error rather than a silent truncation.
//
// Every position in seq seeds a walk of up to Order tokens, so a sequence
// of length L contributes roughly L*Order node visits. The node slice is
// pre-reserved for that before the walk starts.
func (m *Model[W]) Train(seq []uint32) error {
	if m.optimized {
		return ErrAlreadyOptimized
	}
	if len(seq) == 0 {
		return nil
	}

	words, err := m.toWords(seq)
	if err != nil {
		return err
	}
	for _, w := range words {
		if uint64(w)+1 > m.vocabSize {
			m.vocabSize = uint64(w) + 1
		}
	}

	m.reserve(len(words) * m.order)
	for i := range words {
		end := i + m.order
		if end > len(words) {
			end = len(words)
		}
		m.increaseCount(0, words[i:end])
	}
	return nil
}

// increaseCount walks hist from node idx, creating child nodes as needed
// and incrementing each visited node's occurrence count. Once a node's own
// depth reaches the leaf row (order-1), the remaining token is folded
// directly into that node's child table as a raw count instead of
// descending into a node that would sit at the nonexistent depth order.
func (m *Model[W]) increaseCount(idx int32, hist []W) {
	m.nodes[idx].count++
	if len(hist) == 0 {
		return
	}
	tok := hist[0]

	if int(m.nodes[idx].depth) == m.order-1 {
		m.nodes[idx].children[tok]++
		return
	}

	childIdx, ok := m.getChild(idx, tok)
	if !ok {
		childIdx = m.addChild(idx, tok)
	}
	m.increaseCount(childIdx, hist[1:])
}

// getChild returns the index of idx's child keyed by tok, if any. idx must
// be a non-leaf node (depth < order-1).
func (m *Model[W]) getChild(idx int32, tok W) (int32, bool) {
	off, ok := m.nodes[idx].children[tok]
	if !ok {
		return 0, false
	}
	return idx + int32(off), true
}

// addChild creates a new child of node idx keyed by tok and wires its
// lower link: the node representing the same sequence with its leftmost
// token dropped. That node is found (or created) by following idx's own
// lower link and taking its tok child, which recreates the shorter
// suffix's trie path eagerly rather than lazily.
//
// idx must be a non-leaf node (depth < order-1). Appending to m.nodes may
// reallocate the slice; every index used here is a relative position, so
// that reallocation never invalidates a link.
func (m *Model[W]) addChild(idx int32, tok W) int32 {
	depth := m.nodes[idx].depth + 1
	childIdx := int32(len(m.nodes))
	m.nodes = append(m.nodes, newNode[W](depth))
	m.nodes[idx].children[tok] = uint32(childIdx - idx)
	m.nodes[childIdx].parentOff = idx - childIdx

	if m.nodes[idx].depth == 0 {
		// The child of root backs off to the empty context, i.e. root
		// itself.
		m.nodes[childIdx].lowerOff = -childIdx
		return childIdx
	}

	lowerIdx := idx + m.nodes[idx].lowerOff
	nextLower, ok := m.getChild(lowerIdx, tok)
	if !ok {
		nextLower = m.addChild(lowerIdx, tok)
	}
	m.nodes[childIdx].lowerOff = nextLower - childIdx
	return childIdx
}
