package corpus

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"knlm-go/internal/lm"
)

// Persistence saves and loads sessions under a single output directory, one
// pair of files per session: a binary model file and a JSON metadata
// sidecar, following the model/metadata split the rest of this project's
// persistence layer uses.
type Persistence struct {
	dir    string
	logger *zap.Logger
}

// NewPersistence creates a persistence manager rooted at dir, creating the
// directory if it doesn't already exist.
func NewPersistence(dir string, logger *zap.Logger) (*Persistence, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("corpus: create store directory %q: %w", dir, err)
	}
	return &Persistence{dir: dir, logger: logger}, nil
}

// metadata is the JSON sidecar written alongside a session's binary model.
type metadata struct {
	Stats
}

func (p *Persistence) modelPath(id string) string {
	return filepath.Join(p.dir, id+".knlm")
}

func (p *Persistence) metadataPath(id string) string {
	return filepath.Join(p.dir, id+".json")
}

// Save writes the session's model and metadata to disk. The model must
// already be optimized.
func (p *Persistence) Save(s *Session) error {
	s.mu.Lock()
	model := s.model
	stats := Stats{
		SessionID: s.ID.String(),
		Order:     s.Order,
		VocabSize: model.VocabSize(),
		NodeCount: model.NodeCount(),
		Optimized: model.Optimized(),
		Trained:   s.trained,
		Skipped:   s.skipped,
		CreatedAt: s.createdAt,
	}
	s.mu.Unlock()

	modelPath := p.modelPath(s.ID.String())
	f, err := os.Create(modelPath)
	if err != nil {
		return fmt.Errorf("corpus: create model file %q: %w", modelPath, err)
	}
	defer f.Close()

	if _, err := model.WriteTo(f); err != nil {
		return fmt.Errorf("corpus: write model %q: %w", modelPath, err)
	}

	metaBytes, err := json.MarshalIndent(metadata{Stats: stats}, "", "  ")
	if err != nil {
		return fmt.Errorf("corpus: marshal metadata: %w", err)
	}
	metaPath := p.metadataPath(s.ID.String())
	if err := os.WriteFile(metaPath, metaBytes, 0644); err != nil {
		return fmt.Errorf("corpus: write metadata %q: %w", metaPath, err)
	}

	p.logger.Info("session saved",
		zap.String("session_id", s.ID.String()),
		zap.String("model_path", modelPath),
		zap.String("metadata_path", metaPath))
	return nil
}

// Loaded holds a deserialized model alongside the metadata saved with it.
type Loaded struct {
	Model *lm.Model[uint32]
	Stats Stats
}

// Load reads back a session previously written by Save.
func (p *Persistence) Load(id string) (*Loaded, error) {
	modelPath := p.modelPath(id)
	f, err := os.Open(modelPath)
	if err != nil {
		return nil, fmt.Errorf("corpus: open model file %q: %w", modelPath, err)
	}
	defer f.Close()

	model, _, err := lm.ReadModel[uint32](f)
	if err != nil {
		return nil, fmt.Errorf("corpus: read model %q: %w", modelPath, err)
	}

	metaPath := p.metadataPath(id)
	metaBytes, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, fmt.Errorf("corpus: read metadata %q: %w", metaPath, err)
	}
	var meta metadata
	if err := json.Unmarshal(metaBytes, &meta); err != nil {
		return nil, fmt.Errorf("corpus: parse metadata %q: %w", metaPath, err)
	}

	return &Loaded{Model: model, Stats: meta.Stats}, nil
}

// List returns the session ids with a saved model in the store directory.
func (p *Persistence) List() ([]string, error) {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		return nil, fmt.Errorf("corpus: list store directory %q: %w", p.dir, err)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if ext := filepath.Ext(name); ext == ".knlm" {
			ids = append(ids, name[:len(name)-len(ext)])
		}
	}
	return ids, nil
}
