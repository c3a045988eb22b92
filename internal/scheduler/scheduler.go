package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/KitchenboT/internal/metrics"
	"github.com/Kerhoff/KitchenboT/internal/service"
)

// Step is one stage of a tick
type Step struct {
	Name string
	Run  func(ctx context.Context, now time.Time) error
}

// Scheduler drives every time-based feature from a single fixed-interval tick
type Scheduler struct {
	svc      *service.Service
	logger   *logrus.Logger
	metrics  *metrics.Metrics
	interval time.Duration
	steps    []Step
}

// New creates a Scheduler ticking every interval. m may be nil.
func New(svc *service.Service, logger *logrus.Logger, m *metrics.Metrics, interval time.Duration) *Scheduler {
	return &Scheduler{
		svc:      svc,
		logger:   logger,
		metrics:  m,
		interval: interval,
		steps:    Steps(svc),
	}
}

// Steps returns the tick stages in execution order. Each stage persists its
// own writes before the next one starts.
func Steps(svc *service.Service) []Step {
	return []Step{
		{Name: "reload", Run: func(ctx context.Context, _ time.Time) error { return svc.Reload(ctx) }},
		{Name: "schedules", Run: svc.EvaluateSchedules},
		{Name: "confirmations", Run: svc.ConfirmationTick},
		{Name: "reminders", Run: svc.ReminderTick},
		{Name: "attendance", Run: svc.AttendancePrompt},
		{Name: "payment_check", Run: svc.PaymentCheck},
		{Name: "payday", Run: svc.MonthlyPaydayReminder},
		{Name: "inventory", Run: func(ctx context.Context, _ time.Time) error { return svc.InventoryMonitor(ctx) }},
		{Name: "heartbeats", Run: svc.HeartbeatMonitor},
	}
}

// Tick runs every stage once. A failing or panicking stage is logged and
// does not stop the stages after it.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) {
	start := time.Now()
	for _, step := range s.steps {
		if err := s.runStep(ctx, step, now); err != nil {
			s.logger.WithFields(logrus.Fields{
				"step":  step.Name,
				"error": err,
			}).Error("Scheduler step failed")
		}
	}
	if s.metrics != nil {
		s.metrics.Ticks.Inc()
		s.metrics.TickDuration.Observe(time.Since(start).Seconds())
	}
}

func (s *Scheduler) runStep(ctx context.Context, step Step, now time.Time) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return step.Run(ctx, now)
}

// Start registers the tick with gocron and runs it until ctx is cancelled.
// Overlapping ticks are skipped rather than queued.
func (s *Scheduler) Start(ctx context.Context) error {
	cron, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = cron.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(func() {
			s.Tick(ctx, s.svc.Now())
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("failed to register tick job: %w", err)
	}

	cron.Start()
	s.logger.Infof("Scheduler started (every %s)", s.interval)

	<-ctx.Done()
	if err := cron.Shutdown(); err != nil {
		s.logger.WithError(err).Warn("Scheduler shutdown failed")
	}
	s.logger.Info("Scheduler stopped")
	return nil
}
