package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Kerhoff/KitchenboT/internal/models"
	"github.com/Kerhoff/KitchenboT/internal/repository"
)

// documentID is the primary key of the single document row
const documentID = "kitchen"

type documentRepository struct {
	db *sql.DB
}

// NewDocumentRepository creates a document store on the documents table
func NewDocumentRepository(db *sql.DB) repository.DocumentStore {
	return &documentRepository{db: db}
}

func (r *documentRepository) Load(ctx context.Context) (*models.Document, error) {
	query := `SELECT body FROM documents WHERE id = $1`

	var raw []byte
	err := r.db.QueryRowContext(ctx, query, documentID).Scan(&raw)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.NewDocument(), nil
		}
		return nil, fmt.Errorf("failed to load document: %w", err)
	}

	doc := &models.Document{}
	if err := json.Unmarshal(raw, doc); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	doc.Normalize()
	return doc, nil
}

func (r *documentRepository) Save(ctx context.Context, doc *models.Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	query := `
		INSERT INTO documents (id, body, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET body = EXCLUDED.body, updated_at = EXCLUDED.updated_at`

	if _, err := r.db.ExecContext(ctx, query, documentID, raw, time.Now()); err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}
	return nil
}

// Close releases the connection pool handed to NewDocumentRepository
func (r *documentRepository) Close() error {
	return r.db.Close()
}
