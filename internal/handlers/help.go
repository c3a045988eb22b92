package handlers

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/KitchenboT/internal/telegram"
)

// HelpHandler handles the /help command
type HelpHandler struct {
	logger *logrus.Logger
}

func NewHelpHandler(logger *logrus.Logger) *HelpHandler {
	return &HelpHandler{logger: logger}
}

func (h *HelpHandler) Handle(ctx context.Context, bot telegram.Messenger, message *tgbotapi.Message, args []string) error {
	helpText := `📚 *KitchenboT Help*

*Inventory:*
• /stock - Show stock and days left
• /purchase [item qty] - Record a purchase
• /use <item> <qty> - Record usage
• /additem [name unit stock usage] - Add item (admin)
• /usage [item perday] - Set daily usage (admin)
• /threshold <item> <warn> <critical> - Alert days (admin)
• /delitem <item> - Remove item (admin)

*Reminders:*
• /remind [10m|15:30 text] - Set a reminder
• /reminders - Your reminders
• /delremind <id> - Delete a reminder

*Staff:*
• /in, /out - Clock in and out
• /attendance - Today's attendance
• /payroll [YYYY-MM] - Monthly payroll (admin)
• /addemployee, /setrole, /setsalary (admin)

*Admin:*
• /veg - Send the vegetable list check now
• /addpartner <id> <owner|admin|staff> [name]
• /partners - List partners
• /schedule list | add HH:MM [days] message | del <id>
• /devices - Device heartbeats
• /audit - Recent changes
• /login - Become admin with the password
• /tz <zone> - Set your timezone

• /cancel - Stop the current conversation`

	return replyMarkdown(bot, message.Chat.ID, helpText)
}
