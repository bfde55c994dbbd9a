// Package corpus orchestrates training runs against an internal/lm model:
// sequence-level deduplication, structured progress logging, and
// persistence of a trained model alongside its session metadata.
package corpus

import (
	"fmt"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"knlm-go/internal/lm"
)

// Session wraps one model's training lifecycle: a unique id for the run, a
// sequence-level bloom filter for deduplication, and the logging a long
// training pass needs to be observable.
type Session struct {
	ID     uuid.UUID
	Order  int
	logger *zap.Logger

	mu        sync.Mutex
	model     *lm.Model[uint32]
	dedup     bool
	seen      *bloom.BloomFilter
	trained   int64
	skipped   int64
	createdAt time.Time
}

// NewSession creates a training session for a model of the given order.
// When dedup is true, sequences that look identical to one already trained
// in this session are skipped; this guards against a corpus source being
// retrained over an overlapping window, not against genuine repetition
// within the corpus itself (which is exactly what the model should learn
// from).
func NewSession(order int, dedup bool, logger *zap.Logger) (*Session, error) {
	model, err := lm.New[uint32](order)
	if err != nil {
		return nil, err
	}
	s := &Session{
		ID:        uuid.New(),
		Order:     order,
		logger:    logger,
		model:     model,
		dedup:     dedup,
		createdAt: time.Now(),
	}
	if dedup {
		s.seen = bloom.NewWithEstimates(1_000_000, 0.01)
	}
	s.logger.Info("training session started",
		zap.String("session_id", s.ID.String()),
		zap.Int("order", order),
		zap.Bool("dedup", dedup))
	return s, nil
}

// Train folds one token sequence into the model. It logs progress every
// 100 sequences, matching the cadence the rest of this project's batch
// jobs report at.
func (s *Session) Train(seq []uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dedup {
		key := sequenceKey(seq)
		if s.seen.TestString(key) {
			s.skipped++
			return nil
		}
		s.seen.AddString(key)
	}

	if err := s.model.Train(seq); err != nil {
		return fmt.Errorf("corpus: train sequence: %w", err)
	}
	s.trained++
	if s.trained%100 == 0 {
		s.logger.Info("training progress",
			zap.String("session_id", s.ID.String()),
			zap.Int64("sequences_trained", s.trained),
			zap.Int64("sequences_skipped", s.skipped),
			zap.Int("vocab_size", s.model.VocabSize()))
	}
	return nil
}

// Optimize bakes the session's model for serving. No further Train calls
// are accepted afterward.
func (s *Session) Optimize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.model.Optimize(); err != nil {
		return fmt.Errorf("corpus: optimize: %w", err)
	}
	s.logger.Info("training session optimized",
		zap.String("session_id", s.ID.String()),
		zap.Int64("sequences_trained", s.trained),
		zap.Int64("sequences_skipped", s.skipped),
		zap.Int("vocab_size", s.model.VocabSize()),
		zap.Int("node_count", s.model.NodeCount()))
	return nil
}

// Model returns the session's underlying model. Callers must not mutate it
// concurrently with Train.
func (s *Session) Model() *lm.Model[uint32] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model
}

// Stats summarizes the session's progress so far.
type Stats struct {
	SessionID string    `json:"session_id"`
	Order     int       `json:"order"`
	VocabSize int       `json:"vocab_size"`
	NodeCount int       `json:"node_count"`
	Optimized bool      `json:"optimized"`
	Trained   int64     `json:"sequences_trained"`
	Skipped   int64     `json:"sequences_skipped"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		SessionID: s.ID.String(),
		Order:     s.Order,
		VocabSize: s.model.VocabSize(),
		NodeCount: s.model.NodeCount(),
		Optimized: s.model.Optimized(),
		Trained:   s.trained,
		Skipped:   s.skipped,
		CreatedAt: s.createdAt,
	}
}

// sequenceKey renders a token sequence into a bloom filter key. It isn't
// used for anything but membership testing, so a compact decimal joining
// is preferable to a binary encoding here: it's easy to eyeball in a
// debugger and collisions are already tolerated by the bloom filter's
// false-positive rate.
func sequenceKey(seq []uint32) string {
	buf := make([]byte, 0, len(seq)*6)
	for i, tok := range seq {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = appendUint32(buf, tok)
	}
	return string(buf)
}

func appendUint32(buf []byte, v uint32) []byte {
	if v == 0 {
		return append(buf, '0')
	}
	start := len(buf)
	for v > 0 {
		buf = append(buf, byte('0'+v%10))
		v /= 10
	}
	// the digits were appended least-significant first; reverse them.
	for i, j := start, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	return buf
}
