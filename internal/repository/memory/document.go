package memory

import (
	"context"
	"sync"

	"github.com/Kerhoff/KitchenboT/internal/models"
	"github.com/Kerhoff/KitchenboT/internal/repository"
)

// DocumentRepository keeps the document in process memory. Nothing survives
// a restart; it backs dry runs and tests.
type DocumentRepository struct {
	mu    sync.Mutex
	doc   *models.Document
	saves int
}

var _ repository.DocumentStore = (*DocumentRepository)(nil)

// NewDocumentRepository returns a store seeded with doc, or an empty
// document when doc is nil
func NewDocumentRepository(doc *models.Document) *DocumentRepository {
	if doc == nil {
		doc = models.NewDocument()
	}
	doc.Normalize()
	return &DocumentRepository{doc: doc}
}

func (r *DocumentRepository) Load(ctx context.Context) (*models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.doc.Clone()
}

func (r *DocumentRepository) Save(ctx context.Context, doc *models.Document) error {
	clone, err := doc.Clone()
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.doc = clone
	r.saves++
	return nil
}

// Saves returns how many times the document was written
func (r *DocumentRepository) Saves() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saves
}

func (r *DocumentRepository) Close() error {
	return nil
}
