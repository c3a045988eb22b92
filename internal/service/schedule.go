package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/KitchenboT/internal/models"
	"github.com/Kerhoff/KitchenboT/internal/notify"
	"github.com/Kerhoff/KitchenboT/internal/state"
)

// AddSchedule registers a static daily message
func (s *Service) AddSchedule(ctx context.Context, actor int64, label, hhmm, message string, intervalDays int) (*models.Schedule, error) {
	if _, err := time.Parse(models.ClockLayout, hhmm); err != nil {
		return nil, fmt.Errorf("%w: time must be HH:MM", ErrInvalidInput)
	}
	if strings.TrimSpace(message) == "" {
		return nil, fmt.Errorf("%w: schedule message is required", ErrInvalidInput)
	}
	if intervalDays < 1 {
		intervalDays = 1
	}

	var out models.Schedule
	err := s.commit(ctx, func(doc *models.Document, _ *outbox) error {
		if err := s.requireAdmin(doc, actor); err != nil {
			return err
		}
		sc := &models.Schedule{
			ID:           uuid.NewString()[:8],
			Label:        strings.TrimSpace(label),
			Time:         hhmm,
			Message:      strings.TrimSpace(message),
			IntervalDays: intervalDays,
		}
		doc.Schedules = append(doc.Schedules, sc)
		out = *sc
		s.audit(doc, actor, "schedule:add", sc.ID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// RemoveSchedule deletes a schedule and its sent markers
func (s *Service) RemoveSchedule(ctx context.Context, actor int64, id string) error {
	return s.commit(ctx, func(doc *models.Document, _ *outbox) error {
		if err := s.requireAdmin(doc, actor); err != nil {
			return err
		}
		for i, sc := range doc.Schedules {
			if sc.ID != id {
				continue
			}
			doc.Schedules = append(doc.Schedules[:i], doc.Schedules[i+1:]...)
			for k := range doc.LastSent {
				if k.Kind == id {
					delete(doc.LastSent, k)
				}
			}
			s.audit(doc, actor, "schedule:remove", id)
			return nil
		}
		return fmt.Errorf("schedule %s: %w", id, models.ErrNotFound)
	})
}

// Schedules returns copies of all schedules
func (s *Service) Schedules() []models.Schedule {
	var out []models.Schedule
	s.store.View(func(doc *models.Document) {
		for _, sc := range doc.Schedules {
			out = append(out, *sc)
		}
	})
	return out
}

// EvaluateSchedules sends static schedule messages and the daily vegetable
// prompt once each partner's local clock reaches the configured time.
// Repeats on the same local day are suppressed by sent markers.
func (s *Service) EvaluateSchedules(ctx context.Context, now time.Time) error {
	return s.commit(ctx, func(doc *models.Document, ob *outbox) error {
		business := doc.Settings.Location()
		date := now.In(business).Format(models.DateLayout)
		changed := false

		for _, p := range doc.Partners {
			loc := p.Location(business)

			for _, sc := range doc.Schedules {
				key := models.SentKey{Kind: sc.ID, Ref: strconv.FormatInt(p.ID, 10)}
				if !models.ReachedClock(now, loc, sc.Time) || !doc.LastSent.DueAfterDays(key, now, loc, sc.IntervalDays) {
					continue
				}
				text := sc.Message
				if sc.Label != "" {
					text = "📌 " + sc.Label + "\n" + sc.Message
				}
				ob.to(p.ID, notify.Message{Kind: "schedule", Text: text})
				doc.LastSent[key] = now
				changed = true
				s.logger.WithFields(logrus.Fields{"schedule_id": sc.ID, "partner_id": p.ID}).Info("Sent scheduled message")
			}

			// the prompt is for the business date, so only once it is also the partner's local date
			if now.In(loc).Format(models.DateLayout) != date || !models.ReachedClock(now, loc, doc.Settings.VegConfirm.ConfirmTime) {
				continue
			}
			if _, sent := doc.LastSent[vegMarker(markerVegPrompt, date, p.ID)]; sent {
				continue
			}
			if s.initiateFor(doc, ob, date, p.ID, now) {
				changed = true
			}
		}

		if !changed {
			return state.ErrNoChange
		}
		return nil
	})
}
