package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/KitchenboT/internal/notify"
)

// Messenger is the part of the bot API handlers use to reply.
// *tgbotapi.BotAPI satisfies it.
type Messenger interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot wraps the Telegram bot API
type Bot struct {
	api    *tgbotapi.BotAPI
	logger *logrus.Logger
	router *Router
}

// NewBot creates a new Telegram bot instance
func NewBot(token string, logger *logrus.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}

	logger.Infof("Authorized on account %s", api.Self.UserName)

	return &Bot{
		api:    api,
		logger: logger,
		router: NewRouter(logger, nil),
	}, nil
}

// Start starts the bot with long polling
func (b *Bot) Start(ctx context.Context) error {
	// Delete webhook if exists and use polling
	_, err := b.api.Request(tgbotapi.DeleteWebhookConfig{})
	if err != nil {
		return fmt.Errorf("failed to delete webhook: %w", err)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	b.logger.Info("Bot started with long polling")

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("Stopping bot...")
			b.api.StopReceivingUpdates()
			return nil
		case update := <-updates:
			go b.handleUpdate(ctx, update)
		}
	}
}

// handleUpdate processes incoming updates
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Errorf("Panic in update handler: %v", r)
		}
	}()

	if update.Message != nil {
		b.router.HandleMessage(ctx, b.api, update.Message)
	} else if update.CallbackQuery != nil {
		b.router.HandleCallbackQuery(ctx, b.api, update.CallbackQuery)
	}
}

// Deliver sends a dispatcher message, attaching its buttons as an inline
// keyboard. It implements notify.Sender.
func (b *Bot) Deliver(ctx context.Context, msg notify.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	out := tgbotapi.NewMessage(msg.ChatID, msg.Text)
	if kb, ok := InlineKeyboard(msg.Buttons); ok {
		out.ReplyMarkup = kb
	}

	if _, err := b.api.Send(out); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// InlineKeyboard converts dispatcher buttons into Telegram markup
func InlineKeyboard(rows [][]notify.Button) (tgbotapi.InlineKeyboardMarkup, bool) {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, row := range rows {
		var buttons []tgbotapi.InlineKeyboardButton
		for _, btn := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(btn.Text, btn.Data))
		}
		if len(buttons) > 0 {
			keyboard = append(keyboard, tgbotapi.NewInlineKeyboardRow(buttons...))
		}
	}
	if len(keyboard) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...), true
}

// RegisterCommand registers a command handler on the router
func (b *Bot) RegisterCommand(command string, handler CommandHandler) {
	b.router.RegisterCommand(command, handler)
}

// RegisterCallback registers a button handler for a callback data prefix
func (b *Bot) RegisterCallback(prefix string, handler CallbackHandler) {
	b.router.RegisterCallback(prefix, handler)
}

// SetTextHandler sets the handler for plain (non-command) text
func (b *Bot) SetTextHandler(handler TextHandler) {
	b.router.SetTextHandler(handler)
}

// SetUserRegistrar sets who records users on their first interaction
func (b *Bot) SetUserRegistrar(users UserRegistrar) {
	b.router.users = users
}
