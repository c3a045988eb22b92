package handlers

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/KitchenboT/internal/service"
	"github.com/Kerhoff/KitchenboT/internal/session"
	"github.com/Kerhoff/KitchenboT/internal/telegram"
)

// StockHandler handles the /stock command
type StockHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

func NewStockHandler(svc *service.Service, logger *logrus.Logger) *StockHandler {
	return &StockHandler{svc: svc, logger: logger}
}

func (h *StockHandler) Handle(ctx context.Context, bot telegram.Messenger, message *tgbotapi.Message, args []string) error {
	return reply(bot, message.Chat.ID, h.svc.StockReport())
}

// AddItemHandler handles /additem <name> <unit> <stock> <usage>, or starts
// the add-item conversation without arguments
type AddItemHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

func NewAddItemHandler(svc *service.Service, logger *logrus.Logger) *AddItemHandler {
	return &AddItemHandler{svc: svc, logger: logger}
}

func (h *AddItemHandler) Handle(ctx context.Context, bot telegram.Messenger, message *tgbotapi.Message, args []string) error {
	if len(args) == 0 {
		return startFlow(ctx, h.svc, bot, message, session.AddItemName{})
	}
	if len(args) < 4 {
		return reply(bot, message.Chat.ID, "Usage: /additem <name> <unit> <stock> <daily usage>")
	}

	n := len(args)
	stock, err1 := parseFloat(args[n-2])
	usage, err2 := parseFloat(args[n-1])
	if err1 != nil || err2 != nil {
		return reply(bot, message.Chat.ID, "❌ Stock and usage must be numbers")
	}
	name := strings.Join(args[:n-3], " ")

	item, err := h.svc.AddItem(ctx, message.From.ID, name, args[n-3], stock, usage)
	if err != nil {
		return userError(bot, message.Chat.ID, err)
	}
	return reply(bot, message.Chat.ID, fmt.Sprintf("✅ Added %s (%s)", item.Name, item.ID))
}

// PurchaseHandler handles /purchase <item> <qty>
type PurchaseHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

func NewPurchaseHandler(svc *service.Service, logger *logrus.Logger) *PurchaseHandler {
	return &PurchaseHandler{svc: svc, logger: logger}
}

func (h *PurchaseHandler) Handle(ctx context.Context, bot telegram.Messenger, message *tgbotapi.Message, args []string) error {
	if len(args) == 0 {
		return startFlow(ctx, h.svc, bot, message, session.PurchaseItem{})
	}
	name, qty, ok := itemAndQty(args)
	if !ok {
		return reply(bot, message.Chat.ID, "Usage: /purchase <item> <qty>")
	}
	item, err := h.svc.Purchase(ctx, message.From.ID, name, qty)
	if err != nil {
		return userError(bot, message.Chat.ID, err)
	}
	return reply(bot, message.Chat.ID, fmt.Sprintf("🛒 %s: %g %s in stock", item.Name, item.Stock, item.Unit))
}

// UseHandler handles /use <item> <qty>
type UseHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

func NewUseHandler(svc *service.Service, logger *logrus.Logger) *UseHandler {
	return &UseHandler{svc: svc, logger: logger}
}

func (h *UseHandler) Handle(ctx context.Context, bot telegram.Messenger, message *tgbotapi.Message, args []string) error {
	name, qty, ok := itemAndQty(args)
	if !ok {
		return reply(bot, message.Chat.ID, "Usage: /use <item> <qty>")
	}
	item, err := h.svc.Consume(ctx, message.From.ID, name, qty)
	if err != nil {
		return userError(bot, message.Chat.ID, err)
	}
	return reply(bot, message.Chat.ID, fmt.Sprintf("📦 %s: %g %s left", item.Name, item.Stock, item.Unit))
}

// UsageHandler handles /usage <item> <per day>
type UsageHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

func NewUsageHandler(svc *service.Service, logger *logrus.Logger) *UsageHandler {
	return &UsageHandler{svc: svc, logger: logger}
}

func (h *UsageHandler) Handle(ctx context.Context, bot telegram.Messenger, message *tgbotapi.Message, args []string) error {
	if len(args) == 0 {
		return startFlow(ctx, h.svc, bot, message, session.UsageItem{})
	}
	name, usage, ok := itemAndQty(args)
	if !ok {
		return reply(bot, message.Chat.ID, "Usage: /usage <item> <per day>")
	}
	item, err := h.svc.SetUsage(ctx, message.From.ID, name, usage)
	if err != nil {
		return userError(bot, message.Chat.ID, err)
	}
	return reply(bot, message.Chat.ID, fmt.Sprintf("📉 %s uses %g %s/day", item.Name, item.DailyUsage, item.Unit))
}

// ThresholdHandler handles /threshold <item> <warn days> <critical days>
type ThresholdHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

func NewThresholdHandler(svc *service.Service, logger *logrus.Logger) *ThresholdHandler {
	return &ThresholdHandler{svc: svc, logger: logger}
}

func (h *ThresholdHandler) Handle(ctx context.Context, bot telegram.Messenger, message *tgbotapi.Message, args []string) error {
	if len(args) < 3 {
		return reply(bot, message.Chat.ID, "Usage: /threshold <item> <warn days> <critical days>")
	}
	n := len(args)
	warn, err1 := parseFloat(args[n-2])
	critical, err2 := parseFloat(args[n-1])
	if err1 != nil || err2 != nil {
		return reply(bot, message.Chat.ID, "❌ Thresholds must be numbers")
	}
	name := strings.Join(args[:n-2], " ")
	if err := h.svc.SetThresholds(ctx, message.From.ID, name, warn, critical); err != nil {
		return userError(bot, message.Chat.ID, err)
	}
	return reply(bot, message.Chat.ID, fmt.Sprintf("✅ %s alerts at %g days (critical %g)", name, warn, critical))
}

// RemoveItemHandler handles /delitem <item>
type RemoveItemHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

func NewRemoveItemHandler(svc *service.Service, logger *logrus.Logger) *RemoveItemHandler {
	return &RemoveItemHandler{svc: svc, logger: logger}
}

func (h *RemoveItemHandler) Handle(ctx context.Context, bot telegram.Messenger, message *tgbotapi.Message, args []string) error {
	if len(args) == 0 {
		return reply(bot, message.Chat.ID, "Usage: /delitem <item>")
	}
	name := strings.Join(args, " ")
	if err := h.svc.RemoveItem(ctx, message.From.ID, name); err != nil {
		return userError(bot, message.Chat.ID, err)
	}
	return reply(bot, message.Chat.ID, "🗑 Removed "+name)
}

// itemAndQty splits "<item words...> <number>"
func itemAndQty(args []string) (string, float64, bool) {
	if len(args) < 2 {
		return "", 0, false
	}
	qty, err := parseFloat(args[len(args)-1])
	if err != nil {
		return "", 0, false
	}
	return strings.Join(args[:len(args)-1], " "), qty, true
}
