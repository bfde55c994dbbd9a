package lm

import (
	"math"
	"testing"
)

func trainRepeated(t *testing.T, m *Model[uint32], seq []uint32, times int) {
	t.Helper()
	for i := 0; i < times; i++ {
		if err := m.Train(seq); err != nil {
			t.Fatalf("Train: %v", err)
		}
	}
}

func TestOptimizeUnigramOrderOneIsPlainFrequency(t *testing.T) {
	m, err := New[uint32](1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	// token 1 occurs 3 times, token 2 once, across independent sequences.
	trainRepeated(t, m, []uint32{1}, 3)
	trainRepeated(t, m, []uint32{2}, 1)
	if err := m.Optimize(); err != nil {
		t.Fatalf("Optimize: %v", err)
	}

	p1, err := m.EvaluateLL([]uint32{1})
	if err != nil {
		t.Fatalf("EvaluateLL: %v", err)
	}
	p2, err := m.EvaluateLL([]uint32{2})
	if err != nil {
		t.Fatalf("EvaluateLL: %v", err)
	}

	if want := math.Log(0.75); math.Abs(p1-want) > 1e-9 {
		t.Fatalf("P(1) = %v (exp=%v), want log(0.75)", p1, math.Exp(p1))
	}
	if want := math.Log(0.25); math.Abs(p2-want) > 1e-9 {
		t.Fatalf("P(2) = %v (exp=%v), want log(0.25)", p2, math.Exp(p2))
	}
}

func TestOptimizeProducesNormalizedDistribution(t *testing.T) {
	m, err := New[uint32](3)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	seqs := [][]uint32{
		{1, 2, 3, 1, 2, 4},
		{1, 2, 3, 4, 1, 2},
		{2, 3, 1, 2, 4, 1},
		{3, 1, 2, 3, 4, 2},
	}
	for _, s := range seqs {
		if err := m.Train(s); err != nil {
			t.Fatalf("Train: %v", err)
		}
	}
	if err := m.Optimize(); err != nil {
		t.Fatalf("Optimize: %v", err)
	}

	for _, ctx := range [][]uint32{{}, {1}, {1, 2}, {2, 3}} {
		probs, err := m.PredictNext(ctx)
		if err != nil {
			t.Fatalf("PredictNext(%v): %v", ctx, err)
		}
		var sum float64
		for _, ll := range probs {
			if math.IsInf(ll, -1) {
				continue
			}
			sum += math.Exp(ll)
		}
		if math.Abs(sum-1) > 1e-6 {
			t.Fatalf("PredictNext(%v): probabilities sum to %v, want ~1", ctx, sum)
		}
	}
}

func TestOptimizeDiscountsFrequentTokenMore(t *testing.T) {
	// Kneser-Ney continuation counting: a token that completes many
	// distinct bigram contexts should score higher as a backoff unigram
	// than one that repeats after the same single context, even if their
	// raw frequencies are equal.
	m, err := New[uint32](2)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	// token 9 always follows token 1.
	trainRepeated(t, m, []uint32{1, 9}, 4)
	// token 8 follows four different contexts once each.
	for _, ctx := range []uint32{2, 3, 4, 5} {
		if err := m.Train([]uint32{ctx, 8}); err != nil {
			t.Fatalf("Train: %v", err)
		}
	}
	if err := m.Optimize(); err != nil {
		t.Fatalf("Optimize: %v", err)
	}

	// An unseen context backs off straight to the unigram estimate.
	p9, err := m.EvaluateLL([]uint32{100, 9})
	if err != nil {
		t.Fatalf("EvaluateLL: %v", err)
	}
	p8, err := m.EvaluateLL([]uint32{100, 8})
	if err != nil {
		t.Fatalf("EvaluateLL: %v", err)
	}
	if p8 <= p9 {
		t.Fatalf("expected continuation-diverse token 8 (%v) to outscore single-context token 9 (%v) under an unseen context", p8, p9)
	}
}

func TestOptimizeUnseenTokenIsNegativeInfinity(t *testing.T) {
	m, err := New[uint32](2)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	trainRepeated(t, m, []uint32{1, 2}, 3)
	if err := m.Optimize(); err != nil {
		t.Fatalf("Optimize: %v", err)
	}

	p, err := m.EvaluateLL([]uint32{999, 998})
	if err != nil {
		t.Fatalf("EvaluateLL: %v", err)
	}
	if !math.IsInf(p, -1) {
		t.Fatalf("expected -Inf for a wholly unseen token, got %v", p)
	}
}
