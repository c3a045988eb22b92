package service

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/KitchenboT/internal/models"
	"github.com/Kerhoff/KitchenboT/internal/notify"
	"github.com/Kerhoff/KitchenboT/internal/state"
)

type envelope struct {
	recipients []int64
	msg        notify.Message
	broadcast  bool
}

// outbox collects messages produced by a mutation so they are sent only
// after the mutation is persisted and the store lock is released
type outbox struct {
	items []envelope
}

func (o *outbox) to(chatID int64, msg notify.Message) {
	msg.ChatID = chatID
	o.items = append(o.items, envelope{recipients: []int64{chatID}, msg: msg})
}

func (o *outbox) all(recipients []int64, msg notify.Message) {
	if len(recipients) == 0 {
		return
	}
	o.items = append(o.items, envelope{recipients: recipients, msg: msg, broadcast: true})
}

func (o *outbox) len() int {
	return len(o.items)
}

// commit applies fn through the store and flushes the outbox on success
func (s *Service) commit(ctx context.Context, fn func(doc *models.Document, ob *outbox) error) error {
	var ob outbox
	err := s.store.Update(ctx, func(doc *models.Document) error {
		ob = outbox{}
		err := fn(doc, &ob)
		if errors.Is(err, state.ErrNoChange) {
			ob = outbox{}
		}
		return err
	})
	if err != nil {
		return err
	}
	s.flush(ctx, &ob)
	return nil
}

func (s *Service) flush(ctx context.Context, ob *outbox) {
	for _, e := range ob.items {
		if !e.broadcast {
			// Send already logs the failure
			_ = s.dispatcher.Send(ctx, e.msg)
			continue
		}
		if err := s.dispatcher.Broadcast(ctx, e.recipients, e.msg); err != nil {
			s.logger.WithFields(logrus.Fields{
				"kind":       e.msg.Kind,
				"recipients": len(e.recipients),
				"error":      err,
			}).Warn("Broadcast partially failed")
		}
	}
}
