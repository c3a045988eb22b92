package state

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/KitchenboT/internal/metrics"
	"github.com/Kerhoff/KitchenboT/internal/models"
	"github.com/Kerhoff/KitchenboT/internal/repository"
)

// ErrNoChange may be returned from an Update callback to skip persistence.
// Update then returns nil.
var ErrNoChange = errors.New("no change")

// Store is the single in-memory owner of the document. Request handlers and
// the scheduler both go through it, so mutations are serialized and every
// reader sees the last committed state.
type Store struct {
	mu      sync.RWMutex
	repo    repository.DocumentStore
	doc     *models.Document
	logger  *logrus.Logger
	metrics *metrics.Metrics
}

// New loads the document from repo and returns a Store owning it.
// m may be nil.
func New(ctx context.Context, repo repository.DocumentStore, logger *logrus.Logger, m *metrics.Metrics) (*Store, error) {
	doc, err := repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load document: %w", err)
	}
	return &Store{repo: repo, doc: doc, logger: logger, metrics: m}, nil
}

// View runs fn under a read lock. fn must not retain or mutate doc.
func (s *Store) View(fn func(doc *models.Document)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.doc)
}

// Update runs fn under the write lock and persists the result. If fn fails
// or the write fails, the in-memory document is restored to its previous
// state so memory and storage do not diverge.
func (s *Store) Update(ctx context.Context, fn func(doc *models.Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	backup, err := s.doc.Clone()
	if err != nil {
		return fmt.Errorf("failed to snapshot document: %w", err)
	}

	if err := fn(s.doc); err != nil {
		s.doc = backup
		if errors.Is(err, ErrNoChange) {
			return nil
		}
		return err
	}

	if err := s.repo.Save(ctx, s.doc); err != nil {
		s.doc = backup
		s.countWrite("error")
		s.logger.WithError(err).Error("Failed to persist document")
		return fmt.Errorf("failed to persist document: %w", err)
	}
	s.countWrite("ok")
	return nil
}

// Reload replaces the in-memory document with the persisted one. The write
// lock is held across the load so no Update can commit in between.
func (s *Store) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to reload document: %w", err)
	}
	s.doc = doc
	return nil
}

func (s *Store) countWrite(result string) {
	if s.metrics != nil {
		s.metrics.StoreWrites.WithLabelValues(result).Inc()
	}
}
