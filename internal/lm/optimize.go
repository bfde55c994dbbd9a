package lm

import (
	"math"

	"knlm-go/internal/bakedmap"
)

// Optimize converts accumulated training counts into Modified Kneser-Ney
// smoothed log-probabilities and bakes every node's child table into its
// immutable, binary-searchable form. It must run exactly once, after all
// training and before any scoring call or serialization.
//
// Orders are smoothed from 1 up to Order. Each pass computes, in linear
// probability space, P(w | context) for every context node at the
// previous pass's depth, using that previous pass's already-smoothed
// values as the backoff term — which is why order 1 must be smoothed
// before order 2, and so on. Only after every order has been smoothed does
// a single final pass convert every ll and gamma (and leaf probability) to
// log space, matching how the model is scored and serialized.
func (m *Model[W]) Optimize() error {
	if m.optimized {
		return ErrAlreadyOptimized
	}

	for k := 1; k <= m.order; k++ {
		m.discount(k)
	}

	m.nodes[0].ll = 1 // the empty context has probability 1 of itself
	for i := range m.nodes {
		n := &m.nodes[i]
		n.ll = safeLog(n.ll)
		n.gamma = safeLog(n.gamma)
		for tok, p := range n.leafLL {
			n.leafLL[tok] = safeLog(p)
		}
	}

	m.bakeAll()
	m.optimized = true
	return nil
}

func safeLog(p float64) float64 {
	if p <= 0 {
		return math.Inf(-1)
	}
	return math.Log(p)
}

// discount smooths every context node at depth k-1, writing the result
// either onto its children's own ll (k < Order) or into its leafLL table
// (k == Order, the leaf row).
func (m *Model[W]) discount(k int) {
	if k == 1 {
		m.discountUnigram()
		return
	}

	d0, d1, d2 := m.estimateDiscounts(k)
	leaf := k == m.order

	for idx := range m.nodes {
		if int(m.nodes[idx].depth) != k-1 {
			continue
		}
		if leaf {
			m.smoothLeaves(int32(idx), d0, d1, d2)
		} else {
			m.smoothChildren(int32(idx), d0, d1, d2)
		}
	}
}

// discountUnigram handles order 1. A model of order 1 has no bigram
// structure to draw continuation counts from, so its unigram
// probabilities fall back to plain relative frequency over root's own
// leaf counts. A model of order >= 2 instead uses the Kneser-Ney
// continuation count: the number of distinct bigram contexts each token
// completes, not its raw frequency, which is what makes KN smoothing
// favor tokens that appear after many different words over tokens that
// appear often after only one.
func (m *Model[W]) discountUnigram() {
	root := &m.nodes[0]

	if m.order == 1 {
		var total uint64
		for _, c := range root.children {
			total += uint64(c)
		}
		root.leafLL = make(map[W]float64, len(root.children))
		for tok, c := range root.children {
			if total == 0 {
				root.leafLL[tok] = 0
				continue
			}
			root.leafLL[tok] = float64(c) / float64(total)
		}
		return
	}

	distinct := make(map[W]uint64)
	var total uint64
	for i := range m.nodes {
		if m.nodes[i].depth != 1 {
			continue
		}
		for tok := range m.nodes[i].children {
			distinct[tok]++
			total++
		}
	}

	for tok, off := range root.children {
		childIdx := int32(off)
		if total == 0 {
			m.nodes[childIdx].ll = 0
			continue
		}
		m.nodes[childIdx].ll = float64(distinct[tok]) / float64(total)
	}
}

// estimateDiscounts computes the three Modified Kneser-Ney discounts for
// order k from the global count-of-counts statistics N1..N4: the number of
// distinct k-grams occurring exactly 1, 2, 3, or 4-or-more times.
func (m *Model[W]) estimateDiscounts(k int) (d0, d1, d2 float64) {
	var n [4]uint64
	bump := func(c uint32) {
		switch {
		case c == 1:
			n[0]++
		case c == 2:
			n[1]++
		case c == 3:
			n[2]++
		case c >= 4:
			n[3]++
		}
	}

	if k == m.order {
		for i := range m.nodes {
			if int(m.nodes[i].depth) != k-1 {
				continue
			}
			for _, c := range m.nodes[i].children {
				bump(c)
			}
		}
	} else {
		for i := range m.nodes {
			if int(m.nodes[i].depth) == k {
				bump(m.nodes[i].count)
			}
		}
	}

	var y float64
	if n[0]+2*n[1] > 0 {
		y = float64(n[0]) / float64(n[0]+2*n[1])
	}
	if n[0] > 0 {
		d0 = 1 - 2*y*float64(n[1])/float64(n[0])
	}
	if n[1] > 0 {
		d1 = 2 - 3*y*float64(n[2])/float64(n[1])
	}
	if n[2] > 0 {
		d2 = 3 - 4*y*float64(n[3])/float64(n[2])
	}
	return d0, d1, d2
}

func bucketDiscount(c uint32, d0, d1, d2 float64) float64 {
	switch {
	case c == 0:
		return 0
	case c == 1:
		return d0
	case c == 2:
		return d1
	default:
		return d2
	}
}

// smoothChildren sets gamma on context node ctxIdx and the smoothed ll of
// each of its children, for context depths that still have real child
// nodes (k < Order).
func (m *Model[W]) smoothChildren(ctxIdx int32, d0, d1, d2 float64) {
	ctx := &m.nodes[ctxIdx]
	if ctx.count == 0 || len(ctx.children) == 0 {
		return
	}
	lowerIdx := ctxIdx + ctx.lowerOff

	// The denominator is the number of times the context was followed by
	// a token, not ctx.count, which also counts visits at a sequence's end.
	var gamma, total float64
	for _, off := range ctx.children {
		childIdx := ctxIdx + int32(off)
		gamma += bucketDiscount(m.nodes[childIdx].count, d0, d1, d2)
		total += float64(m.nodes[childIdx].count)
	}
	gamma /= total
	ctx.gamma = gamma

	for tok, off := range ctx.children {
		childIdx := ctxIdx + int32(off)
		c := m.nodes[childIdx].count
		numer := float64(c) - bucketDiscount(c, d0, d1, d2)
		if numer < 0 {
			numer = 0
		}
		backoff := m.backoffLL(lowerIdx, tok)
		m.nodes[childIdx].ll = numer/total + gamma*backoff
	}
}

// smoothLeaves is smoothChildren's counterpart for the leaf row (k ==
// Order): the smoothed probabilities have nowhere to live but the
// context's own leafLL table, since no node exists at depth Order.
func (m *Model[W]) smoothLeaves(ctxIdx int32, d0, d1, d2 float64) {
	ctx := &m.nodes[ctxIdx]
	if ctx.count == 0 || len(ctx.children) == 0 {
		return
	}
	lowerIdx := ctxIdx + ctx.lowerOff

	var gamma, total float64
	for _, c := range ctx.children {
		gamma += bucketDiscount(c, d0, d1, d2)
		total += float64(c)
	}
	gamma /= total
	ctx.gamma = gamma

	ctx.leafLL = make(map[W]float64, len(ctx.children))
	for tok, c := range ctx.children {
		numer := float64(c) - bucketDiscount(c, d0, d1, d2)
		if numer < 0 {
			numer = 0
		}
		backoff := m.backoffLL(lowerIdx, tok)
		ctx.leafLL[tok] = numer/total + gamma*backoff
	}
}

// backoffLL returns the already-smoothed linear probability of tok as a
// continuation of the shorter context at lowerIdx. lowerIdx is always
// shallower than the leaf row here, so its children are node offsets, not
// raw leaf counts. The lookup is expected to succeed whenever the
// higher-order node being smoothed exists, since addChild always creates
// matching lower-chain nodes eagerly during training.
func (m *Model[W]) backoffLL(lowerIdx int32, tok W) float64 {
	off, ok := m.nodes[lowerIdx].children[tok]
	if !ok {
		return 0
	}
	return m.nodes[lowerIdx+int32(off)].ll
}

// bakeAll converts every node's training-phase child table into its
// immutable, sorted form and drops the mutable maps.
func (m *Model[W]) bakeAll() {
	for i := range m.nodes {
		n := &m.nodes[i]
		if int(n.depth) == m.order-1 {
			n.bakedLeafLL = bakedmap.Build(n.leafLL)
			n.leafLL = nil
		} else {
			offsets := make(map[W]int32, len(n.children))
			for tok, off := range n.children {
				offsets[tok] = int32(off)
			}
			n.bakedOffsets = bakedmap.Build(offsets)
		}
		n.children = nil
		n.baked = true
	}
}
