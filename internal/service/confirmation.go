package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/KitchenboT/internal/models"
	"github.com/Kerhoff/KitchenboT/internal/notify"
	"github.com/Kerhoff/KitchenboT/internal/state"
)

// Vegetable-list answers carried in veg:<date>:<action> callbacks
const (
	VegYes    = "yes"
	VegNo     = "no"
	VegNotYet = "notyet"
)

const (
	markerVegPrompt    = "vegcheck"
	markerVegConfirmed = "vegconfirmed"
)

// markerRetention bounds how long per-date vegetable markers are kept
const markerRetention = 72 * time.Hour

func vegMarker(kind, date string, partnerID int64) models.SentKey {
	return models.SentKey{Kind: kind, Ref: date + ":" + strconv.FormatInt(partnerID, 10)}
}

func vegPrompt(date string) notify.Message {
	return notify.Message{
		Kind: "veg_prompt",
		Text: fmt.Sprintf("🥬 Vegetable list for %s\nHas today's vegetable list been checked and confirmed?", date),
		Buttons: [][]notify.Button{notify.Row(
			notify.Button{Text: "✅ Yes", Data: "veg:" + date + ":" + VegYes},
			notify.Button{Text: "❌ No", Data: "veg:" + date + ":" + VegNo},
			notify.Button{Text: "⏳ Not yet", Data: "veg:" + date + ":" + VegNotYet},
		)},
	}
}

// InitiateConfirmation prompts every partner who has neither confirmed nor
// an open entry for date
func (s *Service) InitiateConfirmation(ctx context.Context, date string) error {
	return s.commit(ctx, func(doc *models.Document, ob *outbox) error {
		now := s.now()
		for _, p := range doc.Partners {
			s.initiateFor(doc, ob, date, p.ID, now)
		}
		if ob.len() == 0 {
			return state.ErrNoChange
		}
		return nil
	})
}

func (s *Service) initiateFor(doc *models.Document, ob *outbox, date string, partnerID int64, now time.Time) bool {
	if _, done := doc.LastSent[vegMarker(markerVegConfirmed, date, partnerID)]; done {
		return false
	}
	key := models.ConfirmationKey{Date: date, PartnerID: partnerID}
	if _, open := doc.PendingConfirmations[key]; open {
		return false
	}

	doc.PendingConfirmations[key] = &models.PendingConfirmation{
		Status:      models.ConfirmPending,
		LastUpdated: now,
	}
	doc.LastSent[vegMarker(markerVegPrompt, date, partnerID)] = now
	ob.to(partnerID, vegPrompt(date))

	s.logger.WithFields(logrus.Fields{"partner_id": partnerID, "date": date}).Info("Sent vegetable list prompt")
	return true
}

// OnConfirmationResponse applies a partner's button press for date
func (s *Service) OnConfirmationResponse(ctx context.Context, date string, partnerID int64, action string) error {
	return s.commit(ctx, func(doc *models.Document, ob *outbox) error {
		if doc.Partner(partnerID) == nil {
			return models.ErrNotAuthorized
		}
		now := s.now()
		key := models.ConfirmationKey{Date: date, PartnerID: partnerID}
		followup := time.Duration(doc.Settings.VegConfirm.FollowupMinutes1) * time.Minute

		switch action {
		case VegYes:
			delete(doc.PendingConfirmations, key)
			doc.LastSent[vegMarker(markerVegConfirmed, date, partnerID)] = now
			ob.to(partnerID, notify.Message{Kind: "veg_ack", Text: fmt.Sprintf("👍 Thanks! Vegetable list for %s confirmed.", date)})
		case VegNo, VegNotYet:
			status := models.ConfirmNo
			text := fmt.Sprintf("Noted. I'll check back in %d minutes.", doc.Settings.VegConfirm.FollowupMinutes1)
			if action == VegNotYet {
				status = models.ConfirmNotYet
				text = fmt.Sprintf("OK, I'll ask again in %d minutes.", doc.Settings.VegConfirm.FollowupMinutes1)
			}
			next := now.Add(followup)
			doc.PendingConfirmations[key] = &models.PendingConfirmation{
				Status:      status,
				LastUpdated: now,
				NextCheck:   &next,
			}
			ob.to(partnerID, notify.Message{Kind: "veg_ack", Text: text})
		default:
			return fmt.Errorf("%w: %q", ErrInvalidAction, action)
		}

		s.audit(doc, partnerID, "veg:"+action, date)
		return nil
	})
}

// ConfirmationStatus returns a copy of the open entry for date and partner
func (s *Service) ConfirmationStatus(date string, partnerID int64) (models.PendingConfirmation, bool) {
	var (
		out models.PendingConfirmation
		ok  bool
	)
	s.store.View(func(doc *models.Document) {
		var e *models.PendingConfirmation
		e, ok = doc.PendingConfirmations[models.ConfirmationKey{Date: date, PartnerID: partnerID}]
		if ok {
			out = *e
		}
	})
	return out, ok
}

// ConfirmationTick runs follow-ups and escalations for entries whose next
// check has elapsed. Entries without a next check are due one first
// follow-up window after they were created.
func (s *Service) ConfirmationTick(ctx context.Context, now time.Time) error {
	return s.commit(ctx, func(doc *models.Document, ob *outbox) error {
		cfg := doc.Settings.VegConfirm
		first := time.Duration(cfg.FollowupMinutes1) * time.Minute
		second := time.Duration(cfg.FollowupMinutes2) * time.Minute
		changed := pruneVegMarkers(doc.LastSent, now)

		for _, key := range sortedConfirmationKeys(doc.PendingConfirmations) {
			e := doc.PendingConfirmations[key]
			partner := doc.Partner(key.PartnerID)

			_, confirmed := doc.LastSent[vegMarker(markerVegConfirmed, key.Date, key.PartnerID)]
			if partner == nil || confirmed || e.Status == models.ConfirmConfirmed {
				delete(doc.PendingConfirmations, key)
				changed = true
				continue
			}

			due := e.LastUpdated.Add(first)
			if e.NextCheck != nil {
				due = *e.NextCheck
			}
			if now.Before(due) {
				continue
			}

			fields := logrus.Fields{"partner_id": key.PartnerID, "date": key.Date, "status": e.Status}
			switch e.Status {
			case models.ConfirmNo:
				if now.Sub(e.LastUpdated) < second {
					next := now.Add(second)
					e.NextCheck = &next
					msg := vegPrompt(key.Date)
					msg.Kind = "veg_reminder"
					msg.Text = fmt.Sprintf("🔔 Reminder: the vegetable list for %s is still not confirmed. Is it done now?", key.Date)
					ob.to(key.PartnerID, msg)
					s.logger.WithFields(fields).Info("Sent vegetable list soft reminder")
				} else {
					delete(doc.PendingConfirmations, key)
					ob.all(notify.PartnerIDs(doc), notify.Message{
						Kind: "veg_escalation",
						Text: fmt.Sprintf("🚨 URGENT: %s has not confirmed the vegetable list for %s. Please check immediately!",
							partner.DisplayName(), key.Date),
					})
					s.alert("veg_escalation")
					s.audit(doc, key.PartnerID, "veg:escalated", key.Date)
					s.logger.WithFields(fields).Warn("Escalated unconfirmed vegetable list")
				}
			default:
				next := now.Add(first)
				e.NextCheck = &next
				ob.to(key.PartnerID, vegPrompt(key.Date))
				s.logger.WithFields(fields).Info("Re-sent vegetable list prompt")
			}
			changed = true
		}

		if !changed {
			return state.ErrNoChange
		}
		return nil
	})
}

func pruneVegMarkers(sent models.LastSent, now time.Time) bool {
	pruned := false
	for k, at := range sent {
		if (k.Kind == markerVegPrompt || k.Kind == markerVegConfirmed) && now.Sub(at) > markerRetention {
			delete(sent, k)
			pruned = true
		}
	}
	return pruned
}

func sortedConfirmationKeys(c models.Confirmations) []models.ConfirmationKey {
	keys := make([]models.ConfirmationKey, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Date != keys[j].Date {
			return keys[i].Date < keys[j].Date
		}
		return keys[i].PartnerID < keys[j].PartnerID
	})
	return keys
}

// ParseVegCallback splits "veg:<date>:<action>"
func ParseVegCallback(data string) (date, action string, err error) {
	parts := strings.Split(data, ":")
	if len(parts) != 3 || parts[0] != "veg" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidAction, data)
	}
	if _, err := time.Parse(models.DateLayout, parts[1]); err != nil {
		return "", "", fmt.Errorf("%w: bad date %q", ErrInvalidAction, parts[1])
	}
	return parts[1], parts[2], nil
}
