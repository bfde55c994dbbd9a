package lm

import "knlm-go/internal/bakedmap"

// node is one trie entry. parentOff and lowerOff are relative to the
// node's own index in Model.nodes, which is what lets the slice be
// reallocated mid-training without invalidating any link.
//
// A node at depth == order-1 is a leaf row: rather than allocating a child
// node per following token (which would sit at the nonexistent depth
// order), it folds the final token directly into its own child table. That
// table holds raw training counts (children) until Optimize runs, then
// smoothed log-probabilities (leafLL, baked into bakedLeafLL). Nodes at any
// shallower depth instead hold child offsets (children, baked into
// bakedOffsets) and carry the smoothed probability of their own last token
// on ll, set by the parent's smoothing pass.
type node[W Word] struct {
	depth     uint8
	parentOff int32
	lowerOff  int32

	count uint32  // training: occurrences of the prefix this node represents
	ll    float64 // serving: log P(this node's last token | parent context)
	gamma float64 // serving: log backoff weight for this node's children

	baked bool

	children map[W]uint32 // training: child offset (non-leaf) or raw count (leaf)
	leafLL   map[W]float64 // optimize, leaf rows only: smoothed log-probabilities

	bakedOffsets bakedmap.Map[W, int32]   // serving, non-leaf rows
	bakedLeafLL  bakedmap.Map[W, float64] // serving, leaf rows
}

func newNode[W Word](depth uint8) node[W] {
	return node[W]{depth: depth, children: make(map[W]uint32)}
}
