package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/KitchenboT/internal/models"
	"github.com/Kerhoff/KitchenboT/internal/notify"
	"github.com/Kerhoff/KitchenboT/internal/state"
)

// Assessment is the outcome of evaluating one item against its thresholds.
// Warned and Critical are the latch values to persist; RaiseWarn and
// RaiseCritical are true only on the tick a threshold is newly crossed.
type Assessment struct {
	DaysLeft      float64
	Warned        bool
	Critical      bool
	RaiseWarn     bool
	RaiseCritical bool
}

// Changed reports whether the latches differ from the item's stored flags
func (a Assessment) Changed(item models.InventoryItem) bool {
	return a.Warned != item.Warned || a.Critical != item.Critical
}

// Evaluate derives the alert latches for item from its current days of
// stock and its previously stored latches. Items with no usage never alert.
func Evaluate(item models.InventoryItem) Assessment {
	a := Assessment{DaysLeft: item.DaysLeft()}
	if math.IsInf(a.DaysLeft, 1) {
		return a
	}

	warn, critical := item.WarnDays, item.CriticalDays
	if warn <= 0 {
		warn = models.DefaultWarnDays
	}
	if critical <= 0 {
		critical = models.DefaultCriticalDays
	}

	a.Warned = a.DaysLeft <= warn
	a.Critical = a.DaysLeft <= critical
	a.RaiseWarn = a.Warned && !item.Warned
	a.RaiseCritical = a.Critical && !item.Critical
	return a
}

// InventoryMonitor evaluates every item and broadcasts newly crossed
// thresholds. Latches are persisted in the same write as the alerts.
func (s *Service) InventoryMonitor(ctx context.Context) error {
	return s.commit(ctx, func(doc *models.Document, ob *outbox) error {
		changed := false
		partners := notify.PartnerIDs(doc)

		for _, item := range doc.Inventory {
			a := Evaluate(*item)
			if !a.Changed(*item) {
				continue
			}
			fields := logrus.Fields{"item_id": item.ID, "days_left": a.DaysLeft}

			if a.RaiseWarn {
				ob.all(partners, notify.Message{
					Kind: "stock_low",
					Text: fmt.Sprintf("⚠️ Low stock: %s, %s %s left (about %.1f days)",
						item.Name, formatQty(item.Stock), item.Unit, a.DaysLeft),
				})
				s.alert("stock_low")
				s.logger.WithFields(fields).Warn("Low stock alert")
			}
			if a.RaiseCritical {
				ob.all(partners, notify.Message{
					Kind: "stock_critical",
					Text: fmt.Sprintf("🚨 CRITICAL stock: %s, only %s %s left (about %.1f days). Reorder now!",
						item.Name, formatQty(item.Stock), item.Unit, a.DaysLeft),
				})
				s.alert("stock_critical")
				s.logger.WithFields(fields).Warn("Critical stock alert")
			}

			item.Warned = a.Warned
			item.Critical = a.Critical
			changed = true
		}

		if !changed {
			return state.ErrNoChange
		}
		return nil
	})
}

// AddItem creates an inventory item with default thresholds
func (s *Service) AddItem(ctx context.Context, actor int64, name, unit string, stock, usage float64) (*models.InventoryItem, error) {
	name = strings.TrimSpace(name)
	unit = strings.TrimSpace(unit)
	if name == "" {
		return nil, fmt.Errorf("%w: item name is required", ErrInvalidInput)
	}
	if stock < 0 || usage < 0 {
		return nil, ErrInvalidQuantity
	}

	var created models.InventoryItem
	err := s.commit(ctx, func(doc *models.Document, _ *outbox) error {
		if err := s.requireAdmin(doc, actor); err != nil {
			return err
		}
		if doc.Item(name) != nil {
			return fmt.Errorf("item %q: %w", name, ErrDuplicate)
		}
		item := &models.InventoryItem{
			ID:           uuid.NewString()[:8],
			Name:         name,
			Stock:        stock,
			Unit:         unit,
			DailyUsage:   usage,
			WarnDays:     doc.Settings.Inventory.WarnDays,
			CriticalDays: doc.Settings.Inventory.CriticalDays,
			LastUpdated:  s.now(),
		}
		doc.Inventory = append(doc.Inventory, item)
		created = *item
		s.audit(doc, actor, "item:add", name)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// Purchase adds qty to an item's stock
func (s *Service) Purchase(ctx context.Context, actor int64, ref string, qty float64) (*models.InventoryItem, error) {
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}
	return s.adjustStock(ctx, actor, ref, qty, "item:purchase")
}

// Consume removes qty from an item's stock, stopping at zero
func (s *Service) Consume(ctx context.Context, actor int64, ref string, qty float64) (*models.InventoryItem, error) {
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}
	return s.adjustStock(ctx, actor, ref, -qty, "item:consume")
}

func (s *Service) adjustStock(ctx context.Context, actor int64, ref string, delta float64, action string) (*models.InventoryItem, error) {
	var out models.InventoryItem
	err := s.commit(ctx, func(doc *models.Document, _ *outbox) error {
		if doc.Partner(actor) == nil && doc.StaffMember(actor) == nil {
			return models.ErrNotAuthorized
		}
		item := doc.Item(ref)
		if item == nil {
			return fmt.Errorf("item %q: %w", ref, models.ErrNotFound)
		}
		item.Stock = math.Max(0, item.Stock+delta)
		item.LastUpdated = s.now()
		out = *item
		s.audit(doc, actor, action, fmt.Sprintf("%s %+g", item.Name, delta))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// SetUsage updates an item's estimated daily usage
func (s *Service) SetUsage(ctx context.Context, actor int64, ref string, usage float64) (*models.InventoryItem, error) {
	if usage < 0 {
		return nil, ErrInvalidQuantity
	}
	var out models.InventoryItem
	err := s.commit(ctx, func(doc *models.Document, _ *outbox) error {
		if err := s.requireAdmin(doc, actor); err != nil {
			return err
		}
		item := doc.Item(ref)
		if item == nil {
			return fmt.Errorf("item %q: %w", ref, models.ErrNotFound)
		}
		item.DailyUsage = usage
		item.LastUpdated = s.now()
		out = *item
		s.audit(doc, actor, "item:usage", fmt.Sprintf("%s %g", item.Name, usage))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// SetThresholds updates the warning and critical day thresholds of an item
func (s *Service) SetThresholds(ctx context.Context, actor int64, ref string, warnDays, criticalDays float64) error {
	if warnDays <= 0 || criticalDays <= 0 || criticalDays > warnDays {
		return fmt.Errorf("%w: thresholds need 0 < critical <= warn", ErrInvalidInput)
	}
	return s.commit(ctx, func(doc *models.Document, _ *outbox) error {
		if err := s.requireAdmin(doc, actor); err != nil {
			return err
		}
		item := doc.Item(ref)
		if item == nil {
			return fmt.Errorf("item %q: %w", ref, models.ErrNotFound)
		}
		item.WarnDays = warnDays
		item.CriticalDays = criticalDays
		s.audit(doc, actor, "item:thresholds", fmt.Sprintf("%s %g/%g", item.Name, warnDays, criticalDays))
		return nil
	})
}

// RemoveItem deletes an inventory item
func (s *Service) RemoveItem(ctx context.Context, actor int64, ref string) error {
	return s.commit(ctx, func(doc *models.Document, _ *outbox) error {
		if err := s.requireAdmin(doc, actor); err != nil {
			return err
		}
		for i, it := range doc.Inventory {
			if it.ID == ref || strings.EqualFold(it.Name, ref) {
				doc.Inventory = append(doc.Inventory[:i], doc.Inventory[i+1:]...)
				s.audit(doc, actor, "item:remove", it.Name)
				return nil
			}
		}
		return fmt.Errorf("item %q: %w", ref, models.ErrNotFound)
	})
}

// Items returns copies of all inventory items sorted by days left
func (s *Service) Items() []models.InventoryItem {
	var out []models.InventoryItem
	s.store.View(func(doc *models.Document) {
		for _, it := range doc.Inventory {
			out = append(out, *it)
		}
	})
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DaysLeft() < out[j].DaysLeft()
	})
	return out
}

// StockReport renders the inventory as a chat message
func (s *Service) StockReport() string {
	items := s.Items()
	if len(items) == 0 {
		return "📦 Inventory is empty. Add items with /additem"
	}

	var sb strings.Builder
	sb.WriteString("📦 Inventory\n\n")
	for _, it := range items {
		a := Evaluate(it)
		icon := "🟢"
		switch {
		case a.Critical:
			icon = "🔴"
		case a.Warned:
			icon = "🟡"
		}
		days := "no usage set"
		if !math.IsInf(a.DaysLeft, 1) {
			days = fmt.Sprintf("%.1f days", a.DaysLeft)
		}
		sb.WriteString(fmt.Sprintf("%s %s: %s %s (%s)\n", icon, it.Name, formatQty(it.Stock), it.Unit, days))
	}
	return sb.String()
}
