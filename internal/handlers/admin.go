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
	"github.com/Kerhoff/KitchenboT/internal/telegram"
)

// AddPartnerHandler handles /addpartner <id> <owner|admin|staff> [name]
type AddPartnerHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

func NewAddPartnerHandler(svc *service.Service, logger *logrus.Logger) *AddPartnerHandler {
	return &AddPartnerHandler{svc: svc, logger: logger}
}

func (h *AddPartnerHandler) Handle(ctx context.Context, bot telegram.Messenger, message *tgbotapi.Message, args []string) error {
	usage := "Usage: /addpartner <user id> <owner|admin|staff> [name]"
	if len(args) < 2 {
		return reply(bot, message.Chat.ID, usage)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return reply(bot, message.Chat.ID, usage)
	}
	role := models.Role(strings.ToLower(args[1]))
	name := strings.Join(args[2:], " ")

	if err := h.svc.AddPartner(ctx, message.From.ID, id, name, role); err != nil {
		return userError(bot, message.Chat.ID, err)
	}
	h.logger.WithFields(logrus.Fields{"actor": message.From.ID, "partner_id": id, "role": role}).Info("Partner saved")
	return reply(bot, message.Chat.ID, fmt.Sprintf("🤝 Partner %d saved as %s", id, role))
}

// PartnersHandler handles the /partners command
type PartnersHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

func NewPartnersHandler(svc *service.Service, logger *logrus.Logger) *PartnersHandler {
	return &PartnersHandler{svc: svc, logger: logger}
}

func (h *PartnersHandler) Handle(ctx context.Context, bot telegram.Messenger, message *tgbotapi.Message, args []string) error {
	if !h.svc.IsPartner(message.From.ID) {
		return models.ErrNotAuthorized
	}
	partners := h.svc.Partners()
	if len(partners) == 0 {
		return reply(bot, message.Chat.ID, "No partners yet. Add one with /addpartner")
	}
	var sb strings.Builder
	sb.WriteString("🤝 Partners:\n\n")
	for _, p := range partners {
		tz := ""
		if p.TZ != "" {
			tz = " · " + p.TZ
		}
		sb.WriteString(fmt.Sprintf("%s (%d) %s%s\n", p.DisplayName(), p.ID, p.Role, tz))
	}
	return reply(bot, message.Chat.ID, sb.String())
}

// ScheduleHandler handles /schedule list | add <HH:MM> [days] <message> | del <id>
type ScheduleHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

func NewScheduleHandler(svc *service.Service, logger *logrus.Logger) *ScheduleHandler {
	return &ScheduleHandler{svc: svc, logger: logger}
}

func (h *ScheduleHandler) Handle(ctx context.Context, bot telegram.Messenger, message *tgbotapi.Message, args []string) error {
	if !h.svc.IsAdmin(message.From.ID) {
		return models.ErrNotAuthorized
	}
	sub := "list"
	if len(args) > 0 {
		sub = strings.ToLower(args[0])
	}

	switch sub {
	case "list":
		schedules := h.svc.Schedules()
		if len(schedules) == 0 {
			return reply(bot, message.Chat.ID, "📅 No schedules. Add one with /schedule add <HH:MM> <message>")
		}
		var sb strings.Builder
		sb.WriteString("📅 Schedules:\n\n")
		for _, sc := range schedules {
			every := ""
			if sc.IntervalDays > 1 {
				every = fmt.Sprintf(" every %d days", sc.IntervalDays)
			}
			sb.WriteString(fmt.Sprintf("%s: %s%s\n   %s\n", sc.ID, sc.Time, every, sc.Message))
		}
		return reply(bot, message.Chat.ID, sb.String())

	case "add":
		if len(args) < 3 {
			return reply(bot, message.Chat.ID, "Usage: /schedule add <HH:MM> [days] <message>")
		}
		rest := args[2:]
		days := 1
		if d, err := strconv.Atoi(rest[0]); err == nil && len(rest) > 1 {
			days, rest = d, rest[1:]
		}
		text := strings.Join(rest, " ")
		sc, err := h.svc.AddSchedule(ctx, message.From.ID, "", args[1], text, days)
		if err != nil {
			return userError(bot, message.Chat.ID, err)
		}
		return reply(bot, message.Chat.ID, fmt.Sprintf("📅 Schedule %s added for %s every %d day(s)", sc.ID, sc.Time, sc.IntervalDays))

	case "del":
		if len(args) < 2 {
			return reply(bot, message.Chat.ID, "Usage: /schedule del <id>")
		}
		if err := h.svc.RemoveSchedule(ctx, message.From.ID, args[1]); err != nil {
			return userError(bot, message.Chat.ID, err)
		}
		return reply(bot, message.Chat.ID, "🗑 Schedule "+args[1]+" removed")
	}
	return reply(bot, message.Chat.ID, "Usage: /schedule list | add <HH:MM> [days] <message> | del <id>")
}

// DevicesHandler handles /devices, listing heartbeat state
type DevicesHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

func NewDevicesHandler(svc *service.Service, logger *logrus.Logger) *DevicesHandler {
	return &DevicesHandler{svc: svc, logger: logger}
}

func (h *DevicesHandler) Handle(ctx context.Context, bot telegram.Messenger, message *tgbotapi.Message, args []string) error {
	if !h.svc.IsPartner(message.From.ID) {
		return models.ErrNotAuthorized
	}
	beats := h.svc.Heartbeats()
	if len(beats) == 0 {
		return reply(bot, message.Chat.ID, "📡 No devices have reported yet")
	}
	loc := h.svc.Location()
	var sb strings.Builder
	sb.WriteString("📡 Devices:\n\n")
	for _, hb := range beats {
		icon := "🟢"
		if hb.Down {
			icon = "🔴"
		}
		status := ""
		if hb.Status != "" {
			status = " (" + hb.Status + ")"
		}
		sb.WriteString(fmt.Sprintf("%s %s%s last seen %s\n", icon, hb.ID, status, hb.LastSeen.In(loc).Format("02 Jan 15:04")))
	}
	return reply(bot, message.Chat.ID, sb.String())
}

// AuditHandler handles /audit [n]
type AuditHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

func NewAuditHandler(svc *service.Service, logger *logrus.Logger) *AuditHandler {
	return &AuditHandler{svc: svc, logger: logger}
}

func (h *AuditHandler) Handle(ctx context.Context, bot telegram.Messenger, message *tgbotapi.Message, args []string) error {
	if !h.svc.IsAdmin(message.From.ID) {
		return models.ErrNotAuthorized
	}
	n := 20
	if len(args) > 0 {
		if v, err := strconv.Atoi(args[0]); err == nil && v > 0 {
			n = v
		}
	}
	entries := h.svc.AuditLog(n)
	if len(entries) == 0 {
		return reply(bot, message.Chat.ID, "📜 Audit log is empty")
	}
	loc := h.svc.Location()
	var sb strings.Builder
	sb.WriteString("📜 Recent activity:\n\n")
	for _, e := range entries {
		sb.WriteString(fmt.Sprintf("%s %d %s %s\n", e.When.In(loc).Format("02 Jan 15:04"), e.Actor, e.Action, e.Details))
	}
	return reply(bot, message.Chat.ID, sb.String())
}

// TimezoneHandler handles /tz <IANA zone>
type TimezoneHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

func NewTimezoneHandler(svc *service.Service, logger *logrus.Logger) *TimezoneHandler {
	return &TimezoneHandler{svc: svc, logger: logger}
}

func (h *TimezoneHandler) Handle(ctx context.Context, bot telegram.Messenger, message *tgbotapi.Message, args []string) error {
	if len(args) != 1 {
		return reply(bot, message.Chat.ID, "Usage: /tz <zone>, e.g. /tz Europe/Berlin")
	}
	if err := h.svc.SetTimezone(ctx, message.From.ID, args[0]); err != nil {
		return userError(bot, message.Chat.ID, err)
	}
	return reply(bot, message.Chat.ID, "🌍 Timezone set to "+args[0])
}
