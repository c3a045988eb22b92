package telegram

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/KitchenboT/internal/models"
)

// NotAuthorizedText is the static reply to privileged commands from non-admins
const NotAuthorizedText = "⛔ Not authorized"

// CommandHandler defines the interface for command handlers
type CommandHandler interface {
	Handle(ctx context.Context, bot Messenger, message *tgbotapi.Message, args []string) error
}

// CallbackHandler handles inline button presses for one data prefix
type CallbackHandler interface {
	HandleCallback(ctx context.Context, bot Messenger, query *tgbotapi.CallbackQuery) error
}

// TextHandler handles plain text, used to drive conversations
type TextHandler interface {
	HandleText(ctx context.Context, bot Messenger, message *tgbotapi.Message) error
}

// UserRegistrar records users on their first interaction
type UserRegistrar interface {
	EnsureUser(ctx context.Context, id int64, name string) error
}

// Router handles message routing and command parsing
type Router struct {
	logger    *logrus.Logger
	users     UserRegistrar
	handlers  map[string]CommandHandler
	callbacks map[string]CallbackHandler
	text      TextHandler
}

// NewRouter creates a new message router
func NewRouter(logger *logrus.Logger, users UserRegistrar) *Router {
	return &Router{
		logger:    logger,
		users:     users,
		handlers:  make(map[string]CommandHandler),
		callbacks: make(map[string]CallbackHandler),
	}
}

// RegisterCommand registers a command handler
func (r *Router) RegisterCommand(command string, handler CommandHandler) {
	r.handlers[command] = handler
	r.logger.Debugf("Registered command: %s", command)
}

// RegisterCallback registers a handler for callback data "<prefix>:..."
func (r *Router) RegisterCallback(prefix string, handler CallbackHandler) {
	r.callbacks[prefix] = handler
	r.logger.Debugf("Registered callback: %s", prefix)
}

// SetTextHandler sets the handler for non-command text
func (r *Router) SetTextHandler(handler TextHandler) {
	r.text = handler
}

// HandleMessage handles incoming messages
func (r *Router) HandleMessage(ctx context.Context, bot Messenger, message *tgbotapi.Message) {
	if message.From == nil {
		return
	}

	// Log the incoming message
	r.logger.WithFields(logrus.Fields{
		"chat_id":    message.Chat.ID,
		"user_id":    message.From.ID,
		"username":   message.From.UserName,
		"message_id": message.MessageID,
	}).Info("Received message")

	// Only process text messages
	if message.Text == "" {
		return
	}

	r.register(ctx, message.From)

	if !message.IsCommand() {
		if r.text == nil {
			return
		}
		if err := r.text.HandleText(ctx, bot, message); err != nil {
			r.fail(bot, message.Chat.ID, logrus.Fields{"user_id": message.From.ID}, err)
		}
		return
	}

	command := message.Command()
	args := strings.Fields(message.CommandArguments())

	// Find and execute handler
	if handler, exists := r.handlers[command]; exists {
		if err := handler.Handle(ctx, bot, message, args); err != nil {
			r.fail(bot, message.Chat.ID, logrus.Fields{
				"command": command,
				"chat_id": message.Chat.ID,
				"user_id": message.From.ID,
			}, err)
		}
	} else {
		// Unknown command
		r.logger.WithFields(logrus.Fields{
			"command": command,
			"chat_id": message.Chat.ID,
			"user_id": message.From.ID,
		}).Warn("Unknown command")

		unknownMsg := tgbotapi.NewMessage(message.Chat.ID, "❓ Unknown command. Use /help to see available commands.")
		bot.Send(unknownMsg)
	}
}

// HandleCallbackQuery routes inline keyboard presses by data prefix
func (r *Router) HandleCallbackQuery(ctx context.Context, bot Messenger, query *tgbotapi.CallbackQuery) {
	fields := logrus.Fields{
		"callback_id": query.ID,
		"user_id":     query.From.ID,
		"data":        query.Data,
	}
	r.logger.WithFields(fields).Info("Received callback query")

	// Answer the callback query to remove loading state
	bot.Request(tgbotapi.NewCallback(query.ID, ""))

	r.register(ctx, query.From)

	prefix, _, _ := strings.Cut(query.Data, ":")
	handler, ok := r.callbacks[prefix]
	if !ok {
		r.logger.WithFields(fields).Warn("Unknown callback")
		return
	}

	if err := handler.HandleCallback(ctx, bot, query); err != nil {
		chatID := query.From.ID
		if query.Message != nil {
			chatID = query.Message.Chat.ID
		}
		r.fail(bot, chatID, fields, err)
	}
}

func (r *Router) register(ctx context.Context, from *tgbotapi.User) {
	if r.users == nil || from == nil {
		return
	}
	name := strings.TrimSpace(from.FirstName + " " + from.LastName)
	if name == "" {
		name = from.UserName
	}
	if err := r.users.EnsureUser(ctx, from.ID, name); err != nil {
		r.logger.WithFields(logrus.Fields{"user_id": from.ID, "error": err}).Error("Failed to register user")
	}
}

func (r *Router) fail(bot Messenger, chatID int64, fields logrus.Fields, err error) {
	if errors.Is(err, models.ErrNotAuthorized) {
		r.logger.WithFields(fields).Info("Rejected unauthorized request")
		bot.Send(tgbotapi.NewMessage(chatID, NotAuthorizedText))
		return
	}

	fields["error"] = err
	r.logger.WithFields(fields).Error("Handler failed")

	// Send error message to user
	errorMsg := tgbotapi.NewMessage(chatID, "❌ An error occurred while processing your request. Please try again.")
	bot.Send(errorMsg)
}
