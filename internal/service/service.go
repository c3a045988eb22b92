package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/KitchenboT/internal/metrics"
	"github.com/Kerhoff/KitchenboT/internal/models"
	"github.com/Kerhoff/KitchenboT/internal/notify"
	"github.com/Kerhoff/KitchenboT/internal/state"
)

var (
	ErrDuplicate        = errors.New("already exists")
	ErrInvalidAction    = errors.New("invalid action")
	ErrInvalidInput     = errors.New("invalid input")
	ErrInvalidQuantity  = errors.New("quantity must be a positive number")
	ErrAlreadyClockedIn = errors.New("already clocked in today")
	ErrNotClockedIn     = errors.New("not clocked in today")
)

// Service is the central business logic layer. All reads and writes of the
// document go through the state store; outbound messages are collected while
// the store is locked and delivered after the change is persisted.
type Service struct {
	store           *state.Store
	dispatcher      *notify.Dispatcher
	logger          *logrus.Logger
	metrics         *metrics.Metrics
	now             func() time.Time
	adminHash       []byte
	heartbeatSecret string
}

// Option customizes a Service
type Option func(*Service)

// WithClock overrides the wall clock, mainly for tests
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithMetrics attaches Prometheus collectors
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithAdminPasswordHash sets the bcrypt hash checked by AdminLogin
func WithAdminPasswordHash(hash string) Option {
	return func(s *Service) { s.adminHash = []byte(hash) }
}

// WithHeartbeatSecret sets the shared secret required by Beat
func WithHeartbeatSecret(secret string) Option {
	return func(s *Service) { s.heartbeatSecret = secret }
}

// New creates a new Service with all required dependencies.
func New(store *state.Store, dispatcher *notify.Dispatcher, logger *logrus.Logger, opts ...Option) *Service {
	s := &Service{
		store:      store,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the service clock's current time
func (s *Service) Now() time.Time {
	return s.now()
}

// Reload re-reads the document from durable storage
func (s *Service) Reload(ctx context.Context) error {
	return s.store.Reload(ctx)
}

// Location returns the business timezone
func (s *Service) Location() *time.Location {
	var loc *time.Location
	s.store.View(func(doc *models.Document) {
		loc = doc.Settings.Location()
	})
	return loc
}

// BusinessDate returns the calendar date of t in the business timezone
func (s *Service) BusinessDate(t time.Time) string {
	return t.In(s.Location()).Format(models.DateLayout)
}

// Settings returns a copy of the runtime settings
func (s *Service) Settings() models.Settings {
	var out models.Settings
	s.store.View(func(doc *models.Document) {
		out = doc.Settings
	})
	return out
}

// EnsureUser registers a staff record on first interaction. If the user
// already exists but their display name changed, the record is updated.
func (s *Service) EnsureUser(ctx context.Context, id int64, name string) error {
	name = strings.TrimSpace(name)
	return s.commit(ctx, func(doc *models.Document, _ *outbox) error {
		st := doc.StaffMember(id)
		if st == nil {
			doc.Staff = append(doc.Staff, &models.StaffRecord{
				ID:         id,
				Name:       name,
				Role:       models.RoleStaff,
				SalaryType: models.SalaryDaily,
				Attendance: make(map[string]*models.AttendanceEntry),
				Payments:   []models.Payment{},
			})
			if p := doc.Partner(id); p != nil {
				doc.Staff[len(doc.Staff)-1].Role = p.Role
				if p.Name == "" {
					p.Name = name
				}
			}
			s.audit(doc, id, "register", name)
			s.logger.WithFields(logrus.Fields{"user_id": id, "name": name}).Info("Registered new user")
			return nil
		}
		if name == "" || st.Name == name {
			return state.ErrNoChange
		}
		st.Name = name
		if p := doc.Partner(id); p != nil && p.Name == "" {
			p.Name = name
		}
		return nil
	})
}

// IsAdmin reports whether id is an owner or admin partner
func (s *Service) IsAdmin(id int64) bool {
	var ok bool
	s.store.View(func(doc *models.Document) {
		ok = doc.IsAdmin(id)
	})
	return ok
}

// IsPartner reports whether id is a registered partner of any role
func (s *Service) IsPartner(id int64) bool {
	var ok bool
	s.store.View(func(doc *models.Document) {
		ok = doc.Partner(id) != nil
	})
	return ok
}

// AuditLog returns the most recent n audit entries, newest last
func (s *Service) AuditLog(n int) []models.AuditEntry {
	var out []models.AuditEntry
	s.store.View(func(doc *models.Document) {
		from := len(doc.Audit) - n
		if from < 0 {
			from = 0
		}
		out = append(out, doc.Audit[from:]...)
	})
	return out
}

func (s *Service) audit(doc *models.Document, actor int64, action, details string) {
	doc.AppendAudit(models.AuditEntry{
		When:    s.now(),
		Actor:   actor,
		Action:  action,
		Details: details,
	})
}

func (s *Service) requireAdmin(doc *models.Document, actor int64) error {
	if !doc.IsAdmin(actor) {
		return models.ErrNotAuthorized
	}
	return nil
}

func (s *Service) alert(kind string) {
	if s.metrics != nil {
		s.metrics.Alerts.WithLabelValues(kind).Inc()
	}
}

func formatQty(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}
