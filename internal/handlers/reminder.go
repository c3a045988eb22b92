package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/KitchenboT/internal/models"
	"github.com/Kerhoff/KitchenboT/internal/service"
	"github.com/Kerhoff/KitchenboT/internal/session"
	"github.com/Kerhoff/KitchenboT/internal/telegram"
)

// RemindHandler handles the /remind command
type RemindHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

func NewRemindHandler(svc *service.Service, logger *logrus.Logger) *RemindHandler {
	return &RemindHandler{svc: svc, logger: logger}
}

func (h *RemindHandler) Handle(ctx context.Context, bot telegram.Messenger, message *tgbotapi.Message, args []string) error {
	if len(args) == 0 {
		return startFlow(ctx, h.svc, bot, message, session.ReminderText{})
	}
	if len(args) < 2 {
		return reply(bot, message.Chat.ID, "Usage: /remind <time> <text>\nTime formats: "+session.WhenFormats)
	}

	env := session.Env{Now: h.svc.Now(), Location: h.svc.Location()}

	// "2026-01-15 15:30" spans two arguments
	textStart := 1
	when, err := session.ParseWhen(args[0], env)
	if err != nil && len(args) > 2 {
		when, err = session.ParseWhen(args[0]+" "+args[1], env)
		textStart = 2
	}
	if err != nil {
		return reply(bot, message.Chat.ID, "❌ Could not parse time. Formats: "+session.WhenFormats)
	}

	text := strings.Join(args[textStart:], " ")
	r, err := h.svc.CreateReminder(ctx, message.From.ID, strconv.FormatInt(message.From.ID, 10), text, when, models.ReminderOnce)
	if err != nil {
		return userError(bot, message.Chat.ID, err)
	}

	out := fmt.Sprintf("⏰ Reminder `%s` set for *%s*\n📝 %s",
		shortID(r.ID), r.When.In(h.svc.Location()).Format("Mon, 02 Jan 2006 15:04"),
		tgbotapi.EscapeText(tgbotapi.ModeMarkdown, r.Text))
	return replyMarkdown(bot, message.Chat.ID, out)
}

// RemindersListHandler handles the /reminders command
type RemindersListHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

func NewRemindersListHandler(svc *service.Service, logger *logrus.Logger) *RemindersListHandler {
	return &RemindersListHandler{svc: svc, logger: logger}
}

func (h *RemindersListHandler) Handle(ctx context.Context, bot telegram.Messenger, message *tgbotapi.Message, args []string) error {
	reminders := h.svc.RemindersFor(message.From.ID)
	if len(reminders) == 0 {
		return reply(bot, message.Chat.ID, "⏰ No active reminders. Set one with /remind")
	}

	loc := h.svc.Location()
	var sb strings.Builder
	sb.WriteString("⏰ Reminders:\n\n")
	for _, r := range reminders {
		repeat := ""
		if r.Repeat == models.ReminderDaily {
			repeat = " (🔄 daily)"
		}
		target := ""
		if r.Target == models.TargetAll {
			target = " 👥"
		}
		sb.WriteString(fmt.Sprintf("%s: %s%s\n   📆 %s%s\n",
			shortID(r.ID), r.Text, target, r.When.In(loc).Format("Mon, 02 Jan 15:04"), repeat))
	}
	return reply(bot, message.Chat.ID, sb.String())
}

// RemindDeleteHandler handles the /delremind command
type RemindDeleteHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

func NewRemindDeleteHandler(svc *service.Service, logger *logrus.Logger) *RemindDeleteHandler {
	return &RemindDeleteHandler{svc: svc, logger: logger}
}

func (h *RemindDeleteHandler) Handle(ctx context.Context, bot telegram.Messenger, message *tgbotapi.Message, args []string) error {
	if len(args) == 0 {
		return reply(bot, message.Chat.ID, "Usage: /delremind <id>")
	}

	id, ok := h.resolve(message.From.ID, args[0])
	if !ok {
		return reply(bot, message.Chat.ID, "❌ Reminder not found")
	}
	if err := h.svc.DeleteReminder(ctx, message.From.ID, id); err != nil {
		return userError(bot, message.Chat.ID, err)
	}
	return reply(bot, message.Chat.ID, "🗑 Reminder "+shortID(id)+" deleted")
}

// resolve expands the short id shown by /reminders
func (h *RemindDeleteHandler) resolve(user int64, ref string) (string, bool) {
	for _, r := range h.svc.RemindersFor(user) {
		if r.ID == ref || strings.HasPrefix(r.ID, ref) {
			return r.ID, true
		}
	}
	return "", false
}

// ReminderDoneHandler handles the remdone:<id> button
type ReminderDoneHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

func NewReminderDoneHandler(svc *service.Service, logger *logrus.Logger) *ReminderDoneHandler {
	return &ReminderDoneHandler{svc: svc, logger: logger}
}

func (h *ReminderDoneHandler) HandleCallback(ctx context.Context, bot telegram.Messenger, query *tgbotapi.CallbackQuery) error {
	id := strings.TrimPrefix(query.Data, "remdone:")
	if err := h.svc.MarkReminderDone(ctx, query.From.ID, id); err != nil {
		return userError(bot, callbackChat(query), err)
	}
	clearButtons(bot, query)
	return reply(bot, callbackChat(query), "✅ Done")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
