package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/KitchenboT/internal/models"
)

func TestEvaluateSchedulesSendsVegPromptAtConfirmTime(t *testing.T) {
	h := newHarness(t, nil)

	require.NoError(t, h.svc.EvaluateSchedules(h.ctx, t0.Add(-time.Minute)))
	assert.Empty(t, h.sender.take())

	require.NoError(t, h.svc.EvaluateSchedules(h.ctx, t0))
	assert.Len(t, ofKind(h.sender.take(), "veg_prompt"), 2)

	// answered "yes" and the entry is gone, still no second prompt today
	require.NoError(t, h.svc.OnConfirmationResponse(h.ctx, today, ownerID, VegYes))
	h.sender.take()
	require.NoError(t, h.svc.EvaluateSchedules(h.ctx, t0.Add(3*time.Hour)))
	assert.Empty(t, h.sender.take())

	// next business day prompts again
	require.NoError(t, h.svc.EvaluateSchedules(h.ctx, t0.Add(24*time.Hour)))
	assert.Len(t, ofKind(h.sender.take(), "veg_prompt"), 2)
}

func TestEvaluateSchedulesUsesPartnerLocalTime(t *testing.T) {
	doc := baseDocument()
	doc.Partners[1].TZ = "Asia/Kolkata" // UTC+5:30
	h := newHarness(t, doc)

	sc, err := h.svc.AddSchedule(h.ctx, ownerID, "Gas", "09:00", "Check the gas cylinder", 1)
	require.NoError(t, err)

	// 04:00 UTC is 09:30 in Kolkata
	early := time.Date(2026, 10, 18, 4, 0, 0, 0, time.UTC)
	require.NoError(t, h.svc.EvaluateSchedules(h.ctx, early))
	msgs := ofKind(h.sender.take(), "schedule")
	require.Len(t, msgs, 1)
	assert.Equal(t, partnerID, msgs[0].ChatID)
	assert.Contains(t, msgs[0].Text, "📌 Gas")

	require.NoError(t, h.svc.EvaluateSchedules(h.ctx, early.Add(5*time.Hour)))
	msgs = ofKind(h.sender.take(), "schedule")
	require.Len(t, msgs, 1)
	assert.Equal(t, ownerID, msgs[0].ChatID)

	require.NoError(t, h.svc.EvaluateSchedules(h.ctx, early.Add(6*time.Hour)))
	assert.Empty(t, ofKind(h.sender.take(), "schedule"))

	require.NoError(t, h.svc.RemoveSchedule(h.ctx, ownerID, sc.ID))
	for k := range h.persisted(t).LastSent {
		assert.NotEqual(t, sc.ID, k.Kind)
	}
}

func TestVegPromptWaitsForPartnerLocalDate(t *testing.T) {
	doc := baseDocument()
	doc.Settings.Timezone = "Asia/Kolkata"
	doc.Partners[0].TZ = "Asia/Kolkata"
	doc.Partners[1].TZ = "UTC"
	h := newHarness(t, doc)

	// 00:30 on the 18th in Kolkata, still 19:00 on the 17th for the UTC partner
	evening := time.Date(2026, 10, 17, 19, 0, 0, 0, time.UTC)
	require.NoError(t, h.svc.EvaluateSchedules(h.ctx, evening))
	assert.Empty(t, ofKind(h.sender.take(), "veg_prompt"))

	require.NoError(t, h.svc.EvaluateSchedules(h.ctx, evening.Add(3*time.Hour)))
	assert.Empty(t, ofKind(h.sender.take(), "veg_prompt"))

	// 10:00 UTC on the 18th
	require.NoError(t, h.svc.EvaluateSchedules(h.ctx, t0))
	msgs := ofKind(h.sender.take(), "veg_prompt")
	assert.ElementsMatch(t, []int64{ownerID, partnerID}, chatIDs(msgs))
	for _, m := range msgs {
		assert.Contains(t, m.Text, "2026-10-18")
	}
}

func TestScheduleIntervalDays(t *testing.T) {
	h := newHarness(t, nil)
	_, err := h.svc.AddSchedule(h.ctx, ownerID, "", "08:00", "Deep clean the fridge", 3)
	require.NoError(t, err)

	count := func(now time.Time) int {
		require.NoError(t, h.svc.EvaluateSchedules(h.ctx, now))
		return len(ofKind(h.sender.take(), "schedule"))
	}

	assert.Equal(t, 2, count(t0))
	assert.Equal(t, 0, count(t0.Add(24*time.Hour)))
	assert.Equal(t, 0, count(t0.Add(48*time.Hour)))
	assert.Equal(t, 2, count(t0.Add(72*time.Hour)))
}

func TestAddScheduleValidation(t *testing.T) {
	h := newHarness(t, nil)

	_, err := h.svc.AddSchedule(h.ctx, ownerID, "", "25:00", "x", 1)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = h.svc.AddSchedule(h.ctx, ownerID, "", "08:00", " ", 1)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = h.svc.AddSchedule(h.ctx, staffID, "", "08:00", "x", 1)
	assert.ErrorIs(t, err, models.ErrNotAuthorized)

	err = h.svc.RemoveSchedule(h.ctx, ownerID, "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}
