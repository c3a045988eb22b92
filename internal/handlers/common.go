package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/KitchenboT/internal/models"
	"github.com/Kerhoff/KitchenboT/internal/service"
	"github.com/Kerhoff/KitchenboT/internal/session"
	"github.com/Kerhoff/KitchenboT/internal/telegram"
)

func reply(bot telegram.Messenger, chatID int64, text string) error {
	_, err := bot.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

func replyMarkdown(bot telegram.Messenger, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	_, err := bot.Send(msg)
	return err
}

// clearButtons removes the inline keyboard from the message a button
// belonged to so it cannot be pressed twice
func clearButtons(bot telegram.Messenger, query *tgbotapi.CallbackQuery) {
	if query.Message == nil {
		return
	}
	edit := tgbotapi.NewEditMessageReplyMarkup(query.Message.Chat.ID, query.Message.MessageID,
		tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}})
	bot.Request(edit)
}

func callbackChat(query *tgbotapi.CallbackQuery) int64 {
	if query.Message != nil {
		return query.Message.Chat.ID
	}
	return query.From.ID
}

func displayName(u *tgbotapi.User) string {
	if u == nil {
		return ""
	}
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.UserName
	}
	return name
}

// userError turns expected domain errors into a reply. Other errors are
// returned for the router to log.
func userError(bot telegram.Messenger, chatID int64, err error) error {
	switch {
	case errors.Is(err, models.ErrNotFound),
		errors.Is(err, service.ErrDuplicate),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidAction),
		errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrAlreadyClockedIn),
		errors.Is(err, service.ErrNotClockedIn):
		return reply(bot, chatID, "❌ "+err.Error())
	}
	return err
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), 64)
}

// FlowHandler starts a conversation when its command is sent without arguments
type FlowHandler struct {
	svc    *service.Service
	logger *logrus.Logger
	action models.FlowAction
}

func NewFlowHandler(svc *service.Service, logger *logrus.Logger, action models.FlowAction) *FlowHandler {
	return &FlowHandler{svc: svc, logger: logger, action: action}
}

func (h *FlowHandler) Handle(ctx context.Context, bot telegram.Messenger, message *tgbotapi.Message, args []string) error {
	st, err := session.Start(h.action)
	if err != nil {
		return err
	}
	return startFlow(ctx, h.svc, bot, message, st)
}

func startFlow(ctx context.Context, svc *service.Service, bot telegram.Messenger, message *tgbotapi.Message, st session.State) error {
	prompt, err := svc.StartSession(ctx, message.From.ID, st)
	if err != nil {
		return err
	}
	return reply(bot, message.Chat.ID, prompt+"\n(/cancel to stop)")
}
