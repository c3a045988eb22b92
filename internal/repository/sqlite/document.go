package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Kerhoff/KitchenboT/internal/models"
	"github.com/Kerhoff/KitchenboT/internal/repository"
)

//go:embed schema.sql
var ddl embed.FS

const documentID = "kitchen"

type documentRepository struct {
	db *sql.DB
}

// NewDocumentRepository opens (and creates if needed) an embedded SQLite store
func NewDocumentRepository(path string) (repository.DocumentStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &documentRepository{db: db}, nil
}

func migrate(db *sql.DB) error {
	b, err := ddl.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("failed to read schema: %w", err)
	}
	if _, err := db.Exec(string(b)); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

func (r *documentRepository) Load(ctx context.Context) (*models.Document, error) {
	var raw string
	err := r.db.QueryRowContext(ctx, `SELECT body FROM documents WHERE id = ?`, documentID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return models.NewDocument(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load document: %w", err)
	}

	doc := &models.Document{}
	if err := json.Unmarshal([]byte(raw), doc); err != nil {
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
	_, err = r.db.ExecContext(ctx, `
        INSERT INTO documents (id, body, updated_at) VALUES (?,?,?)
        ON CONFLICT(id) DO UPDATE SET body=excluded.body, updated_at=excluded.updated_at
    `, documentID, string(raw), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}
	return nil
}

func (r *documentRepository) Close() error {
	return r.db.Close()
}
