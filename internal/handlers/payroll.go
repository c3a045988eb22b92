package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/KitchenboT/internal/models"
	"github.com/Kerhoff/KitchenboT/internal/service"
	"github.com/Kerhoff/KitchenboT/internal/session"
	"github.com/Kerhoff/KitchenboT/internal/telegram"
)

const monthLayout = "2006-01"

// PayrollHandler handles /payroll [YYYY-MM]
type PayrollHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

func NewPayrollHandler(svc *service.Service, logger *logrus.Logger) *PayrollHandler {
	return &PayrollHandler{svc: svc, logger: logger}
}

func (h *PayrollHandler) Handle(ctx context.Context, bot telegram.Messenger, message *tgbotapi.Message, args []string) error {
	if !h.svc.IsAdmin(message.From.ID) {
		return models.ErrNotAuthorized
	}
	month := h.svc.Now().In(h.svc.Location()).Format(monthLayout)
	if len(args) > 0 {
		if _, err := time.Parse(monthLayout, args[0]); err != nil {
			return reply(bot, message.Chat.ID, "Usage: /payroll [YYYY-MM]")
		}
		month = args[0]
	}
	return reply(bot, message.Chat.ID, h.svc.PayrollSummary(month))
}

// PayCallbackHandler handles pay:<staff>:<yes|partial|no> buttons. A partial
// answer asks for the amount in a follow-up conversation.
type PayCallbackHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

func NewPayCallbackHandler(svc *service.Service, logger *logrus.Logger) *PayCallbackHandler {
	return &PayCallbackHandler{svc: svc, logger: logger}
}

func (h *PayCallbackHandler) HandleCallback(ctx context.Context, bot telegram.Messenger, query *tgbotapi.CallbackQuery) error {
	chatID := callbackChat(query)
	staffID, answer, err := service.ParseCallback(query.Data, "pay")
	if err != nil {
		return userError(bot, chatID, err)
	}

	if models.PayDecision(answer) == models.PayPartial {
		if !h.svc.IsAdmin(query.From.ID) {
			return models.ErrNotAuthorized
		}
		prompt, err := h.svc.StartSession(ctx, query.From.ID, session.PayPartialAmount{StaffID: staffID})
		if err != nil {
			return err
		}
		clearButtons(bot, query)
		return reply(bot, chatID, prompt+"\n(/cancel to stop)")
	}

	if err := h.svc.RecordPayDecision(ctx, query.From.ID, staffID, models.PayDecision(answer)); err != nil {
		return userError(bot, chatID, err)
	}
	clearButtons(bot, query)
	return reply(bot, chatID, fmt.Sprintf("💰 Recorded %q for #%d", answer, staffID))
}

// AddEmployeeHandler handles /addemployee <id> <name> <daily|monthly> <amount>
type AddEmployeeHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

func NewAddEmployeeHandler(svc *service.Service, logger *logrus.Logger) *AddEmployeeHandler {
	return &AddEmployeeHandler{svc: svc, logger: logger}
}

func (h *AddEmployeeHandler) Handle(ctx context.Context, bot telegram.Messenger, message *tgbotapi.Message, args []string) error {
	if len(args) == 0 {
		return startFlow(ctx, h.svc, bot, message, session.EmployeeID{})
	}
	usage := "Usage: /addemployee <user id> <name> <daily|monthly> <amount>"
	if len(args) < 4 {
		return reply(bot, message.Chat.ID, usage)
	}
	n := len(args)
	id, err1 := strconv.ParseInt(args[0], 10, 64)
	amount, err2 := parseFloat(args[n-1])
	if err1 != nil || err2 != nil {
		return reply(bot, message.Chat.ID, usage)
	}
	name := strings.Join(args[1:n-2], " ")
	salaryType := models.SalaryType(strings.ToLower(args[n-2]))

	if err := h.svc.AddEmployee(ctx, message.From.ID, id, name, salaryType, amount); err != nil {
		return userError(bot, message.Chat.ID, err)
	}
	return reply(bot, message.Chat.ID, fmt.Sprintf("👤 %s saved (%s, %g)", name, salaryType, amount))
}

// SetRoleHandler handles /setrole <id> <owner|admin|staff>
type SetRoleHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

func NewSetRoleHandler(svc *service.Service, logger *logrus.Logger) *SetRoleHandler {
	return &SetRoleHandler{svc: svc, logger: logger}
}

func (h *SetRoleHandler) Handle(ctx context.Context, bot telegram.Messenger, message *tgbotapi.Message, args []string) error {
	if len(args) == 0 {
		return startFlow(ctx, h.svc, bot, message, session.RoleUser{})
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || len(args) < 2 {
		return reply(bot, message.Chat.ID, "Usage: /setrole <user id> <owner|admin|staff>")
	}
	role := models.Role(strings.ToLower(args[1]))
	if err := h.svc.SetRole(ctx, message.From.ID, id, role); err != nil {
		return userError(bot, message.Chat.ID, err)
	}
	return reply(bot, message.Chat.ID, fmt.Sprintf("🎖 User %d is now %s", id, role))
}

// SetSalaryHandler handles /setsalary <id> <daily|monthly> <amount> [payday]
type SetSalaryHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

func NewSetSalaryHandler(svc *service.Service, logger *logrus.Logger) *SetSalaryHandler {
	return &SetSalaryHandler{svc: svc, logger: logger}
}

func (h *SetSalaryHandler) Handle(ctx context.Context, bot telegram.Messenger, message *tgbotapi.Message, args []string) error {
	if len(args) == 0 {
		return startFlow(ctx, h.svc, bot, message, session.SalaryUser{})
	}
	usage := "Usage: /setsalary <user id> <daily|monthly> <amount> [payday]"
	if len(args) < 3 {
		return reply(bot, message.Chat.ID, usage)
	}
	id, err1 := strconv.ParseInt(args[0], 10, 64)
	amount, err2 := parseFloat(args[2])
	if err1 != nil || err2 != nil {
		return reply(bot, message.Chat.ID, usage)
	}
	payday := 0
	if len(args) > 3 {
		d, err := strconv.Atoi(args[3])
		if err != nil {
			return reply(bot, message.Chat.ID, usage)
		}
		payday = d
	}
	salaryType := models.SalaryType(strings.ToLower(args[1]))
	if err := h.svc.SetSalary(ctx, message.From.ID, id, salaryType, amount, payday); err != nil {
		return userError(bot, message.Chat.ID, err)
	}
	return reply(bot, message.Chat.ID, fmt.Sprintf("💵 Salary for %d updated", id))
}
