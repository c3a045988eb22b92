package notify

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/KitchenboT/internal/metrics"
	"github.com/Kerhoff/KitchenboT/internal/models"
)

// Button is one inline button; Data is the callback payload
type Button struct {
	Text string
	Data string
}

// Message is a transport-neutral outbound message
type Message struct {
	ChatID  int64
	Text    string
	Buttons [][]Button
	// Kind labels the message for metrics and logs (e.g. "veg_prompt")
	Kind string
}

// Row is a convenience for building a single row of buttons
func Row(buttons ...Button) []Button {
	return buttons
}

// Sender delivers a message through the chat transport
type Sender interface {
	Deliver(ctx context.Context, msg Message) error
}

// Dispatcher sends messages to one or many recipients. Failures are logged
// per recipient and never stop the remaining fan-out.
type Dispatcher struct {
	sender  Sender
	logger  *logrus.Logger
	metrics *metrics.Metrics
}

// NewDispatcher creates a Dispatcher. m may be nil.
func NewDispatcher(sender Sender, logger *logrus.Logger, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{sender: sender, logger: logger, metrics: m}
}

// Send delivers msg to msg.ChatID
func (d *Dispatcher) Send(ctx context.Context, msg Message) error {
	err := d.sender.Deliver(ctx, msg)
	result := "ok"
	if err != nil {
		result = "error"
		d.logger.WithFields(logrus.Fields{
			"chat_id": msg.ChatID,
			"kind":    msg.Kind,
			"error":   err,
		}).Error("Failed to deliver message")
	}
	if d.metrics != nil {
		d.metrics.Notifications.WithLabelValues(kindLabel(msg.Kind), result).Inc()
	}
	if err != nil {
		return fmt.Errorf("deliver to %d: %w", msg.ChatID, err)
	}
	return nil
}

// Broadcast sends a copy of msg to every recipient and returns the
// aggregated per-recipient failures, if any
func (d *Dispatcher) Broadcast(ctx context.Context, recipients []int64, msg Message) error {
	var result *multierror.Error
	for _, id := range recipients {
		m := msg
		m.ChatID = id
		if err := d.Send(ctx, m); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// PartnerIDs returns the broadcast audience of doc
func PartnerIDs(doc *models.Document) []int64 {
	ids := make([]int64, 0, len(doc.Partners))
	for _, p := range doc.Partners {
		ids = append(ids, p.ID)
	}
	return ids
}

// AdminIDs returns owners and admins only
func AdminIDs(doc *models.Document) []int64 {
	var ids []int64
	for _, p := range doc.Partners {
		if p.IsPrivileged() {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

func kindLabel(kind string) string {
	if kind == "" {
		return "message"
	}
	return kind
}
