package corpus

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// mustParseID parses a session id known to have round-tripped through
// Stats.SessionID, which is always rendered from a valid uuid.UUID.
func mustParseID(id string) uuid.UUID {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.UUID{}
	}
	return parsed
}

// Registry holds in-memory training sessions by id, and the persistence
// manager used to spill them to the configured store directory.
type Registry struct {
	logger *zap.Logger
	store  *Persistence

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry creates a registry backed by a store directory for
// persistence.
func NewRegistry(storeDir string, logger *zap.Logger) (*Registry, error) {
	store, err := NewPersistence(storeDir, logger)
	if err != nil {
		return nil, err
	}
	return &Registry{
		logger:   logger,
		store:    store,
		sessions: make(map[string]*Session),
	}, nil
}

// Create starts a new training session and registers it.
func (r *Registry) Create(order int, dedup bool) (*Session, error) {
	s, err := NewSession(order, dedup, r.logger)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.sessions[s.ID.String()] = s
	r.mu.Unlock()
	return s, nil
}

// Get returns a registered in-memory session, loading it from the store
// directory on a cache miss.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if ok {
		return s, nil
	}

	loaded, err := r.store.Load(id)
	if err != nil {
		return nil, fmt.Errorf("corpus: session %q not found: %w", id, err)
	}
	s = &Session{
		ID:        mustParseID(id),
		Order:     loaded.Stats.Order,
		logger:    r.logger,
		model:     loaded.Model,
		trained:   loaded.Stats.Trained,
		skipped:   loaded.Stats.Skipped,
		createdAt: loaded.Stats.CreatedAt,
	}
	r.mu.Lock()
	r.sessions[id] = s
	r.mu.Unlock()
	return s, nil
}

// Save persists a session's current model and metadata.
func (r *Registry) Save(id string) error {
	s, err := r.Get(id)
	if err != nil {
		return err
	}
	return r.store.Save(s)
}

// List returns the ids of every session known either in memory or on disk.
func (r *Registry) List() ([]string, error) {
	seen := make(map[string]struct{})

	r.mu.RLock()
	for id := range r.sessions {
		seen[id] = struct{}{}
	}
	r.mu.RUnlock()

	onDisk, err := r.store.List()
	if err != nil {
		return nil, err
	}
	for _, id := range onDisk {
		seen[id] = struct{}{}
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	return ids, nil
}
