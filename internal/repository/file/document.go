package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/Kerhoff/KitchenboT/internal/models"
	"github.com/Kerhoff/KitchenboT/internal/repository"
)

type documentRepository struct {
	mu   sync.Mutex
	path string
}

// NewDocumentRepository creates a JSON file backed document store
func NewDocumentRepository(path string) (repository.DocumentStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	return &documentRepository{path: path}, nil
}

func (r *documentRepository) Load(ctx context.Context) (*models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	raw, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return models.NewDocument(), nil
		}
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	doc := &models.Document{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, doc); err != nil {
			return nil, fmt.Errorf("failed to decode document: %w", err)
		}
	}
	doc.Normalize()
	return doc, nil
}

// Save writes to a temporary file and renames it over the document so a
// crash mid-write never leaves a truncated file behind.
func (r *documentRepository) Save(ctx context.Context, doc *models.Document) error {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(r.path), filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write document: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close document: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("failed to replace document: %w", err)
	}
	return nil
}

func (r *documentRepository) Close() error {
	return nil
}
