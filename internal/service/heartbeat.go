package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/KitchenboT/internal/models"
	"github.com/Kerhoff/KitchenboT/internal/notify"
	"github.com/Kerhoff/KitchenboT/internal/state"
)

// Beat records a heartbeat from device id. The secret must match the
// configured shared secret.
func (s *Service) Beat(ctx context.Context, id, secret, status string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: device id is required", ErrInvalidInput)
	}
	if !secretMatches(s.heartbeatSecret, secret) {
		return models.ErrNotAuthorized
	}
	return s.commit(ctx, func(doc *models.Document, _ *outbox) error {
		hb := doc.Heartbeats[id]
		if hb == nil {
			hb = &models.Heartbeat{ID: id}
			doc.Heartbeats[id] = hb
		}
		hb.LastSeen = s.now()
		if status != "" {
			hb.Status = status
		}
		return nil
	})
}

// Heartbeats returns copies of all device heartbeats sorted by id
func (s *Service) Heartbeats() []models.Heartbeat {
	var out []models.Heartbeat
	s.store.View(func(doc *models.Document) {
		for _, hb := range doc.Heartbeats {
			if hb != nil {
				out = append(out, *hb)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// HeartbeatMonitor raises a down alert once per outage and a recovery
// notice when the device reports again
func (s *Service) HeartbeatMonitor(ctx context.Context, now time.Time) error {
	return s.commit(ctx, func(doc *models.Document, ob *outbox) error {
		threshold := time.Duration(doc.Settings.Heartbeat.ThresholdMinutes) * time.Minute
		partners := notify.PartnerIDs(doc)
		changed := false

		ids := make([]string, 0, len(doc.Heartbeats))
		for id := range doc.Heartbeats {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		for _, id := range ids {
			hb := doc.Heartbeats[id]
			if hb == nil {
				continue
			}
			silent := now.Sub(hb.LastSeen)
			down := silent > threshold
			if down == hb.Down {
				continue
			}
			hb.Down = down
			changed = true

			fields := logrus.Fields{"device": id, "silent_minutes": int(silent.Minutes())}
			if down {
				ob.all(partners, notify.Message{
					Kind: "heartbeat_down",
					Text: fmt.Sprintf("🔴 Device %s has not reported for %d minutes.", id, int(silent.Minutes())),
				})
				s.alert("heartbeat_down")
				s.logger.WithFields(fields).Warn("Device heartbeat lost")
			} else {
				ob.all(partners, notify.Message{
					Kind: "heartbeat_up",
					Text: fmt.Sprintf("🟢 Device %s is back online.", id),
				})
				s.logger.WithFields(fields).Info("Device heartbeat restored")
			}
		}

		if !changed {
			return state.ErrNoChange
		}
		return nil
	})
}
