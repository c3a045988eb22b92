package repository

import (
	"context"

	"github.com/Kerhoff/KitchenboT/internal/models"
)

// DocumentStore loads and saves the single document holding all mutable state.
// A store with nothing persisted yet returns an empty normalized document.
type DocumentStore interface {
	Load(ctx context.Context) (*models.Document, error)
	Save(ctx context.Context, doc *models.Document) error
	Close() error
}
