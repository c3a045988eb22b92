package handlers

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/KitchenboT/internal/models"
	"github.com/Kerhoff/KitchenboT/internal/service"
	"github.com/Kerhoff/KitchenboT/internal/telegram"
)

// VegCheckHandler handles /veg, sending today's vegetable list prompt now
type VegCheckHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

func NewVegCheckHandler(svc *service.Service, logger *logrus.Logger) *VegCheckHandler {
	return &VegCheckHandler{svc: svc, logger: logger}
}

func (h *VegCheckHandler) Handle(ctx context.Context, bot telegram.Messenger, message *tgbotapi.Message, args []string) error {
	if !h.svc.IsAdmin(message.From.ID) {
		return models.ErrNotAuthorized
	}
	date := h.svc.BusinessDate(h.svc.Now())
	if err := h.svc.InitiateConfirmation(ctx, date); err != nil {
		return fmt.Errorf("initiate confirmation: %w", err)
	}
	return reply(bot, message.Chat.ID, "🥬 Vegetable list check sent for "+date)
}

// VegCallbackHandler handles veg:<date>:<yes|no|notyet> button presses
type VegCallbackHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

func NewVegCallbackHandler(svc *service.Service, logger *logrus.Logger) *VegCallbackHandler {
	return &VegCallbackHandler{svc: svc, logger: logger}
}

func (h *VegCallbackHandler) HandleCallback(ctx context.Context, bot telegram.Messenger, query *tgbotapi.CallbackQuery) error {
	date, action, err := service.ParseVegCallback(query.Data)
	if err != nil {
		return userError(bot, callbackChat(query), err)
	}
	if err := h.svc.OnConfirmationResponse(ctx, date, query.From.ID, action); err != nil {
		return userError(bot, callbackChat(query), err)
	}
	clearButtons(bot, query)

	h.logger.WithFields(logrus.Fields{
		"partner_id": query.From.ID,
		"date":       date,
		"action":     action,
	}).Info("Vegetable list answer recorded")
	return nil
}
