package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/KitchenboT/internal/models"
	"github.com/Kerhoff/KitchenboT/internal/session"
	"github.com/Kerhoff/KitchenboT/internal/state"
)

// privilegedFlows may only be started by owners and admins
var privilegedFlows = map[models.FlowAction]bool{
	models.FlowAddItem:     true,
	models.FlowSetUsage:    true,
	models.FlowPayPartial:  true,
	models.FlowAddEmployee: true,
	models.FlowSetRole:     true,
	models.FlowSetSalary:   true,
}

// StartSession stores st as the user's active conversation, replacing any
// previous one, and returns the first prompt
func (s *Service) StartSession(ctx context.Context, user int64, st session.State) (string, error) {
	err := s.commit(ctx, func(doc *models.Document, _ *outbox) error {
		if privilegedFlows[st.Action()] && !doc.IsAdmin(user) {
			return models.ErrNotAuthorized
		}
		doc.Sessions[user] = session.Encode(st, s.now())
		return nil
	})
	if err != nil {
		return "", err
	}
	return st.Prompt(), nil
}

// CancelSession drops the user's active conversation, reporting whether
// there was one
func (s *Service) CancelSession(ctx context.Context, user int64) (bool, error) {
	cancelled := false
	err := s.commit(ctx, func(doc *models.Document, _ *outbox) error {
		if _, ok := doc.Sessions[user]; !ok {
			return state.ErrNoChange
		}
		delete(doc.Sessions, user)
		cancelled = true
		return nil
	})
	return cancelled, err
}

// HasSession reports whether the user is in the middle of a conversation
func (s *Service) HasSession(user int64) bool {
	var ok bool
	s.store.View(func(doc *models.Document) {
		_, ok = doc.Sessions[user]
	})
	return ok
}

// HandleSessionInput feeds free text to the user's active conversation.
// handled is false when there is no conversation. Rejected input keeps the
// conversation on the same step and the reply repeats the question.
func (s *Service) HandleSessionInput(ctx context.Context, user int64, name, input string) (reply string, handled bool, err error) {
	var persisted *models.Session
	s.store.View(func(doc *models.Document) {
		if ss, ok := doc.Sessions[user]; ok {
			cp := *ss
			persisted = &cp
		}
	})
	if persisted == nil {
		return "", false, nil
	}

	fields := logrus.Fields{"user_id": user, "flow": persisted.Action, "step": persisted.Step}

	current, err := session.Decode(persisted)
	if err != nil {
		s.logger.WithFields(fields).WithError(err).Warn("Dropping undecodable session")
		_, _ = s.CancelSession(ctx, user)
		return "⚠️ That conversation expired. Please start again.", true, nil
	}

	next, effect, err := current.Step(input, session.Env{Now: s.now(), Location: s.Location()})
	if err != nil {
		if errors.Is(err, session.ErrInvalidInput) {
			return err.Error() + "\n" + current.Prompt(), true, nil
		}
		return "", true, err
	}

	if next != nil {
		err := s.commit(ctx, func(doc *models.Document, _ *outbox) error {
			doc.Sessions[user] = session.Encode(next, s.now())
			return nil
		})
		if err != nil {
			return "", true, err
		}
		return next.Prompt(), true, nil
	}

	reply, err = s.applyEffect(ctx, user, name, effect)
	if err != nil && correctable(err) {
		return "❌ " + err.Error() + "\n" + current.Prompt(), true, nil
	}
	if _, cerr := s.CancelSession(ctx, user); cerr != nil {
		s.logger.WithFields(fields).WithError(cerr).Error("Failed to close conversation")
	}
	if err == nil {
		s.logger.WithFields(fields).Info("Completed conversation")
	}
	return reply, true, err
}

// correctable errors keep the conversation on its last step so the user can
// answer again
func correctable(err error) bool {
	return errors.Is(err, models.ErrNotFound) || errors.Is(err, ErrDuplicate) || errors.Is(err, ErrInvalidQuantity)
}

func (s *Service) applyEffect(ctx context.Context, user int64, name string, effect session.Effect) (string, error) {
	switch e := effect.(type) {
	case session.AddItemEffect:
		item, err := s.AddItem(ctx, user, e.Name, e.Unit, e.Stock, e.DailyUsage)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("✅ Added %s: %s %s, %s %s/day", item.Name, formatQty(item.Stock), item.Unit, formatQty(item.DailyUsage), item.Unit), nil

	case session.PurchaseEffect:
		item, err := s.Purchase(ctx, user, e.Item, e.Qty)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("🛒 %s stock is now %s %s", item.Name, formatQty(item.Stock), item.Unit), nil

	case session.SetUsageEffect:
		item, err := s.SetUsage(ctx, user, e.Item, e.Usage)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("📉 %s daily usage set to %s %s", item.Name, formatQty(item.DailyUsage), item.Unit), nil

	case session.AddReminderEffect:
		target := e.Target
		if target == session.TargetSelf {
			target = strconv.FormatInt(user, 10)
		}
		r, err := s.CreateReminder(ctx, user, target, e.Text, e.When, e.Repeat)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("⏰ Reminder set for %s (%s)\n📝 %s",
			r.When.In(s.Location()).Format("Mon, 02 Jan 2006 15:04"), r.Repeat, r.Text), nil

	case session.AdminLoginEffect:
		if err := s.AdminLogin(ctx, user, name, e.Password); err != nil {
			return "", err
		}
		return "🔓 You are now an admin.", nil

	case session.PayPartialEffect:
		if err := s.RecordPayment(ctx, user, e.StaffID, e.Amount, models.PaymentPartial); err != nil {
			return "", err
		}
		return fmt.Sprintf("💰 Recorded partial payment of %s", formatQty(e.Amount)), nil

	case session.AddEmployeeEffect:
		if err := s.AddEmployee(ctx, user, e.ID, e.Name, e.SalaryType, e.Amount); err != nil {
			return "", err
		}
		return fmt.Sprintf("👤 %s saved (%s, %s)", e.Name, e.SalaryType, formatQty(e.Amount)), nil

	case session.SetRoleEffect:
		if err := s.SetRole(ctx, user, e.ID, e.Role); err != nil {
			return "", err
		}
		return fmt.Sprintf("🎖 User %d is now %s", e.ID, e.Role), nil

	case session.SetSalaryEffect:
		if err := s.SetSalary(ctx, user, e.ID, e.SalaryType, e.Amount, e.Payday); err != nil {
			return "", err
		}
		return fmt.Sprintf("💵 Salary for %d updated", e.ID), nil
	}
	return "", fmt.Errorf("unhandled effect %T", effect)
}
