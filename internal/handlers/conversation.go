package handlers

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/KitchenboT/internal/service"
	"github.com/Kerhoff/KitchenboT/internal/telegram"
)

// ConversationHandler feeds plain text into the sender's active conversation
type ConversationHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

func NewConversationHandler(svc *service.Service, logger *logrus.Logger) *ConversationHandler {
	return &ConversationHandler{svc: svc, logger: logger}
}

func (h *ConversationHandler) HandleText(ctx context.Context, bot telegram.Messenger, message *tgbotapi.Message) error {
	text, handled, err := h.svc.HandleSessionInput(ctx, message.From.ID, displayName(message.From), message.Text)
	if err != nil {
		return userError(bot, message.Chat.ID, err)
	}
	if !handled {
		return reply(bot, message.Chat.ID, "Use /help to see what I can do.")
	}
	return reply(bot, message.Chat.ID, text)
}

// CancelHandler handles the /cancel command
type CancelHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

func NewCancelHandler(svc *service.Service, logger *logrus.Logger) *CancelHandler {
	return &CancelHandler{svc: svc, logger: logger}
}

func (h *CancelHandler) Handle(ctx context.Context, bot telegram.Messenger, message *tgbotapi.Message, args []string) error {
	cancelled, err := h.svc.CancelSession(ctx, message.From.ID)
	if err != nil {
		return err
	}
	if !cancelled {
		return reply(bot, message.Chat.ID, "Nothing to cancel.")
	}
	return reply(bot, message.Chat.ID, "🚫 Cancelled.")
}
