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

// ReminderTick fires every due reminder. Once reminders are marked done,
// daily ones advance by whole days; done reminders are purged afterwards.
func (s *Service) ReminderTick(ctx context.Context, now time.Time) error {
	return s.commit(ctx, func(doc *models.Document, ob *outbox) error {
		changed := false

		for _, r := range doc.Reminders {
			if !r.IsDue(now) {
				continue
			}

			ob.all(reminderTargets(doc, r.Target), notify.Message{
				Kind: "reminder",
				Text: fmt.Sprintf("⏰ Reminder\n%s", r.Text),
				Buttons: [][]notify.Button{notify.Row(
					notify.Button{Text: "✅ Done", Data: "remdone:" + r.ID},
				)},
			})

			if r.Repeat == models.ReminderDaily {
				r.When = r.NextWhen(now)
			} else {
				r.Done = true
			}
			changed = true

			s.logger.WithFields(logrus.Fields{
				"reminder_id": r.ID,
				"target":      r.Target,
				"repeat":      r.Repeat,
			}).Info("Fired reminder")
		}

		active := doc.Reminders[:0]
		for _, r := range doc.Reminders {
			if r.Done {
				changed = true
				continue
			}
			active = append(active, r)
		}
		doc.Reminders = active

		if !changed {
			return state.ErrNoChange
		}
		return nil
	})
}

func reminderTargets(doc *models.Document, target string) []int64 {
	if target == models.TargetAll {
		return notify.PartnerIDs(doc)
	}
	id, err := strconv.ParseInt(target, 10, 64)
	if err != nil {
		return nil
	}
	return []int64{id}
}

// CreateReminder schedules a reminder. target is a user id or "all".
func (s *Service) CreateReminder(ctx context.Context, actor int64, target, text string, when time.Time, repeat models.ReminderRepeat) (*models.Reminder, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: reminder text is required", ErrInvalidInput)
	}
	if repeat == "" {
		repeat = models.ReminderOnce
	}
	if repeat != models.ReminderOnce && repeat != models.ReminderDaily {
		return nil, fmt.Errorf("%w: repeat %q", ErrInvalidAction, repeat)
	}
	if target == "" {
		target = strconv.FormatInt(actor, 10)
	}

	var out models.Reminder
	err := s.commit(ctx, func(doc *models.Document, _ *outbox) error {
		if target == models.TargetAll && !doc.IsAdmin(actor) {
			return models.ErrNotAuthorized
		}
		r := &models.Reminder{
			ID:        uuid.NewString(),
			CreatedBy: actor,
			Target:    target,
			Text:      text,
			When:      when,
			Repeat:    repeat,
		}
		doc.Reminders = append(doc.Reminders, r)
		out = *r
		s.audit(doc, actor, "reminder:add", r.ID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// RemindersFor lists active reminders created by or addressed to user
func (s *Service) RemindersFor(user int64) []models.Reminder {
	self := strconv.FormatInt(user, 10)
	var out []models.Reminder
	s.store.View(func(doc *models.Document) {
		for _, r := range doc.Reminders {
			if r.Done {
				continue
			}
			if r.CreatedBy == user || r.Target == self || (r.Target == models.TargetAll && doc.Partner(user) != nil) {
				out = append(out, *r)
			}
		}
	})
	return out
}

// DeleteReminder removes a reminder owned by actor (admins may remove any)
func (s *Service) DeleteReminder(ctx context.Context, actor int64, id string) error {
	return s.commit(ctx, func(doc *models.Document, _ *outbox) error {
		for i, r := range doc.Reminders {
			if r.ID != id {
				continue
			}
			if r.CreatedBy != actor && !doc.IsAdmin(actor) {
				return models.ErrNotAuthorized
			}
			doc.Reminders = append(doc.Reminders[:i], doc.Reminders[i+1:]...)
			s.audit(doc, actor, "reminder:delete", id)
			return nil
		}
		return fmt.Errorf("reminder %s: %w", id, models.ErrNotFound)
	})
}

// MarkReminderDone handles the Done button. It stops the reminder entirely,
// including daily ones; the next tick purges it.
func (s *Service) MarkReminderDone(ctx context.Context, actor int64, id string) error {
	return s.commit(ctx, func(doc *models.Document, _ *outbox) error {
		r := doc.Reminder(id)
		if r == nil {
			return fmt.Errorf("reminder %s: %w", id, models.ErrNotFound)
		}
		if !canFinishReminder(doc, r, actor) {
			return models.ErrNotAuthorized
		}
		if r.Done {
			return state.ErrNoChange
		}
		r.Done = true
		s.audit(doc, actor, "reminder:done", id)
		return nil
	})
}

// canFinishReminder reports whether actor created, receives or administers r
func canFinishReminder(doc *models.Document, r *models.Reminder, actor int64) bool {
	switch {
	case r.CreatedBy == actor, doc.IsAdmin(actor):
		return true
	case r.Target == models.TargetAll:
		return doc.Partner(actor) != nil
	}
	return r.Target == strconv.FormatInt(actor, 10)
}
