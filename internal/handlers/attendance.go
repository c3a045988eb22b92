package handlers

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/KitchenboT/internal/models"
	"github.com/Kerhoff/KitchenboT/internal/service"
	"github.com/Kerhoff/KitchenboT/internal/telegram"
)

// ClockInHandler handles the /in command sent by staff on arrival
type ClockInHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

func NewClockInHandler(svc *service.Service, logger *logrus.Logger) *ClockInHandler {
	return &ClockInHandler{svc: svc, logger: logger}
}

func (h *ClockInHandler) Handle(ctx context.Context, bot telegram.Messenger, message *tgbotapi.Message, args []string) error {
	at, err := h.svc.ClockIn(ctx, message.From.ID)
	if err != nil {
		return userError(bot, message.Chat.ID, err)
	}
	return reply(bot, message.Chat.ID, "👋 Clocked in at "+h.localClock(message.From.ID, at))
}

func (h *ClockInHandler) localClock(id int64, t time.Time) string {
	loc := h.svc.Location()
	if st, ok := h.svc.StaffMember(id); ok {
		loc = st.Location(loc)
	}
	return t.In(loc).Format(models.ClockLayout)
}

// ClockOutHandler handles the /out command
type ClockOutHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

func NewClockOutHandler(svc *service.Service, logger *logrus.Logger) *ClockOutHandler {
	return &ClockOutHandler{svc: svc, logger: logger}
}

func (h *ClockOutHandler) Handle(ctx context.Context, bot telegram.Messenger, message *tgbotapi.Message, args []string) error {
	worked, err := h.svc.ClockOut(ctx, message.From.ID)
	if err != nil {
		return userError(bot, message.Chat.ID, err)
	}
	return reply(bot, message.Chat.ID, fmt.Sprintf("👋 Clocked out after %s", worked.Round(time.Minute)))
}

// AttendanceHandler handles /attendance, today's report for admins
type AttendanceHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

func NewAttendanceHandler(svc *service.Service, logger *logrus.Logger) *AttendanceHandler {
	return &AttendanceHandler{svc: svc, logger: logger}
}

func (h *AttendanceHandler) Handle(ctx context.Context, bot telegram.Messenger, message *tgbotapi.Message, args []string) error {
	if !h.svc.IsAdmin(message.From.ID) {
		return models.ErrNotAuthorized
	}
	return reply(bot, message.Chat.ID, h.svc.AttendanceReport(h.svc.Now()))
}

// AttendanceCallbackHandler handles att:<staff>:<status> buttons
type AttendanceCallbackHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

func NewAttendanceCallbackHandler(svc *service.Service, logger *logrus.Logger) *AttendanceCallbackHandler {
	return &AttendanceCallbackHandler{svc: svc, logger: logger}
}

func (h *AttendanceCallbackHandler) HandleCallback(ctx context.Context, bot telegram.Messenger, query *tgbotapi.CallbackQuery) error {
	staffID, status, err := service.ParseCallback(query.Data, "att")
	if err != nil {
		return userError(bot, callbackChat(query), err)
	}
	if err := h.svc.MarkAttendance(ctx, query.From.ID, staffID, models.AttendanceStatus(status)); err != nil {
		return userError(bot, callbackChat(query), err)
	}
	clearButtons(bot, query)

	name := fmt.Sprintf("#%d", staffID)
	if st, ok := h.svc.StaffMember(staffID); ok && st.Name != "" {
		name = st.Name
	}
	return reply(bot, callbackChat(query), fmt.Sprintf("🗓 %s marked %s", name, status))
}
