package service

import (
	"context"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/KitchenboT/internal/metrics"
	"github.com/Kerhoff/KitchenboT/internal/models"
	"github.com/Kerhoff/KitchenboT/internal/notify"
	"github.com/Kerhoff/KitchenboT/internal/repository/memory"
	"github.com/Kerhoff/KitchenboT/internal/state"
	"github.com/Kerhoff/KitchenboT/pkg/logger"
)

const (
	ownerID   int64 = 100
	partnerID int64 = 200
	staffID   int64 = 300
)

var t0 = time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)

type recordingSender struct {
	mu   sync.Mutex
	sent []notify.Message
}

func (s *recordingSender) Deliver(ctx context.Context, msg notify.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return nil
}

// take returns and clears everything delivered so far
func (s *recordingSender) take() []notify.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.sent
	s.sent = nil
	return out
}

func ofKind(msgs []notify.Message, kind string) []notify.Message {
	var out []notify.Message
	for _, m := range msgs {
		if m.Kind == kind {
			out = append(out, m)
		}
	}
	return out
}

func chatIDs(msgs []notify.Message) []int64 {
	var out []int64
	for _, m := range msgs {
		out = append(out, m.ChatID)
	}
	return out
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type harness struct {
	svc    *Service
	sender *recordingSender
	clock  *clock
	repo   *memory.DocumentRepository
	ctx    context.Context
}

// baseDocument has an owner and an admin partner plus one daily-wage staff
// member, all in UTC
func baseDocument() *models.Document {
	doc := models.NewDocument()
	doc.Settings.Timezone = "UTC"
	doc.Partners = []*models.Partner{
		{ID: ownerID, Name: "Owner", Role: models.RoleOwner},
		{ID: partnerID, Name: "Ravi", Role: models.RoleAdmin},
	}
	doc.Staff = []*models.StaffRecord{{
		ID:           staffID,
		Name:         "Cook",
		Role:         models.RoleStaff,
		SalaryType:   models.SalaryDaily,
		SalaryAmount: 500,
		Attendance:   map[string]*models.AttendanceEntry{},
		Payments:     []models.Payment{},
	}}
	return doc
}

func newHarness(t *testing.T, doc *models.Document, opts ...Option) *harness {
	t.Helper()
	if doc == nil {
		doc = baseDocument()
	}
	ctx := context.Background()
	log := logger.Discard()
	m := metrics.New()

	repo := memory.NewDocumentRepository(doc)
	store, err := state.New(ctx, repo, log, m)
	require.NoError(t, err)

	sender := &recordingSender{}
	c := &clock{now: t0}
	opts = append([]Option{WithClock(c.Now), WithMetrics(m)}, opts...)
	svc := New(store, notify.NewDispatcher(sender, log, m), log, opts...)

	return &harness{svc: svc, sender: sender, clock: c, repo: repo, ctx: ctx}
}

// persisted returns the document as last written to the repository
func (h *harness) persisted(t *testing.T) *models.Document {
	t.Helper()
	doc, err := h.repo.Load(h.ctx)
	require.NoError(t, err)
	return doc
}
