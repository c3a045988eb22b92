package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/KitchenboT/internal/models"
)

const today = "2026-10-18"

func TestInitiateConfirmationPromptsEveryPartnerOnce(t *testing.T) {
	h := newHarness(t, nil)

	require.NoError(t, h.svc.InitiateConfirmation(h.ctx, today))

	prompts := ofKind(h.sender.take(), "veg_prompt")
	require.Len(t, prompts, 2)
	assert.ElementsMatch(t, []int64{ownerID, partnerID}, chatIDs(prompts))
	require.Len(t, prompts[0].Buttons, 1)
	assert.Equal(t, "veg:"+today+":yes", prompts[0].Buttons[0][0].Data)

	entry, ok := h.svc.ConfirmationStatus(today, ownerID)
	require.True(t, ok)
	assert.Equal(t, models.ConfirmPending, entry.Status)
	assert.Nil(t, entry.NextCheck)

	// open entries are not prompted again
	require.NoError(t, h.svc.InitiateConfirmation(h.ctx, today))
	assert.Empty(t, h.sender.take())
}

func TestConfirmationYesTerminates(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.svc.InitiateConfirmation(h.ctx, today))
	h.sender.take()

	require.NoError(t, h.svc.OnConfirmationResponse(h.ctx, today, ownerID, VegNo))
	h.clock.Set(t0.Add(10 * time.Minute))
	require.NoError(t, h.svc.OnConfirmationResponse(h.ctx, today, ownerID, VegYes))

	acks := ofKind(h.sender.take(), "veg_ack")
	require.Len(t, acks, 2)
	assert.Contains(t, acks[1].Text, "confirmed")

	_, open := h.svc.ConfirmationStatus(today, ownerID)
	assert.False(t, open)

	// confirmed partners are never re-prompted for the same date
	require.NoError(t, h.svc.ConfirmationTick(h.ctx, t0.Add(3*time.Hour)))
	for _, m := range h.sender.take() {
		assert.NotEqual(t, ownerID, m.ChatID)
	}
	require.NoError(t, h.svc.InitiateConfirmation(h.ctx, today))
	for _, m := range h.sender.take() {
		assert.NotEqual(t, ownerID, m.ChatID)
	}
}

func TestConfirmationNoSoftReminderThenEscalation(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.svc.OnConfirmationResponse(h.ctx, today, partnerID, VegNo))
	h.sender.take()

	entry, ok := h.svc.ConfirmationStatus(today, partnerID)
	require.True(t, ok)
	assert.Equal(t, models.ConfirmNo, entry.Status)
	require.NotNil(t, entry.NextCheck)
	assert.Equal(t, t0.Add(30*time.Minute), *entry.NextCheck)

	// not due yet
	require.NoError(t, h.svc.ConfirmationTick(h.ctx, t0.Add(29*time.Minute)))
	assert.Empty(t, h.sender.take())

	// first follow-up: soft reminder to the partner only
	require.NoError(t, h.svc.ConfirmationTick(h.ctx, t0.Add(30*time.Minute)))
	msgs := h.sender.take()
	require.Len(t, msgs, 1)
	assert.Equal(t, "veg_reminder", msgs[0].Kind)
	assert.Equal(t, partnerID, msgs[0].ChatID)

	entry, _ = h.svc.ConfirmationStatus(today, partnerID)
	assert.Equal(t, t0.Add(90*time.Minute), *entry.NextCheck)

	// second follow-up: escalate to all partners and stop tracking
	require.NoError(t, h.svc.ConfirmationTick(h.ctx, t0.Add(90*time.Minute)))
	urgent := ofKind(h.sender.take(), "veg_escalation")
	require.Len(t, urgent, 2)
	assert.ElementsMatch(t, []int64{ownerID, partnerID}, chatIDs(urgent))
	assert.Contains(t, urgent[0].Text, "URGENT")

	_, open := h.svc.ConfirmationStatus(today, partnerID)
	assert.False(t, open)
}

func TestConfirmationOverdueEntryEscalatesOnce(t *testing.T) {
	doc := baseDocument()
	doc.PendingConfirmations[models.ConfirmationKey{Date: today, PartnerID: partnerID}] = &models.PendingConfirmation{
		Status:      models.ConfirmNo,
		LastUpdated: t0,
	}
	h := newHarness(t, doc)

	require.NoError(t, h.svc.ConfirmationTick(h.ctx, t0.Add(95*time.Minute)))
	urgent := ofKind(h.sender.take(), "veg_escalation")
	assert.Len(t, urgent, 2)

	require.NoError(t, h.svc.ConfirmationTick(h.ctx, t0.Add(200*time.Minute)))
	assert.Empty(t, h.sender.take())
	assert.Empty(t, h.persisted(t).PendingConfirmations)
}

func TestConfirmationNotYetRepeatsPrompt(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.svc.OnConfirmationResponse(h.ctx, today, ownerID, VegNotYet))
	h.sender.take()

	require.NoError(t, h.svc.ConfirmationTick(h.ctx, t0.Add(31*time.Minute)))
	msgs := h.sender.take()
	require.Len(t, msgs, 1)
	assert.Equal(t, "veg_prompt", msgs[0].Kind)

	entry, ok := h.svc.ConfirmationStatus(today, ownerID)
	require.True(t, ok)
	assert.Equal(t, models.ConfirmNotYet, entry.Status)
	assert.Equal(t, t0.Add(61*time.Minute), *entry.NextCheck)
}

func TestConfirmationPendingWithoutAnswerIsRepromptedAfterFirstWindow(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.svc.InitiateConfirmation(h.ctx, today))
	h.sender.take()

	require.NoError(t, h.svc.ConfirmationTick(h.ctx, t0.Add(20*time.Minute)))
	assert.Empty(t, h.sender.take())

	require.NoError(t, h.svc.ConfirmationTick(h.ctx, t0.Add(30*time.Minute)))
	assert.Len(t, ofKind(h.sender.take(), "veg_prompt"), 2)
}

func TestConfirmationResponseRequiresPartner(t *testing.T) {
	h := newHarness(t, nil)

	err := h.svc.OnConfirmationResponse(h.ctx, today, staffID, VegYes)
	assert.ErrorIs(t, err, models.ErrNotAuthorized)

	err = h.svc.OnConfirmationResponse(h.ctx, today, ownerID, "maybe")
	assert.ErrorIs(t, err, ErrInvalidAction)
	assert.Empty(t, h.sender.take())
}

func TestParseVegCallback(t *testing.T) {
	date, action, err := ParseVegCallback("veg:2026-10-18:notyet")
	require.NoError(t, err)
	assert.Equal(t, "2026-10-18", date)
	assert.Equal(t, VegNotYet, action)

	for _, bad := range []string{"veg:2026-10-18", "pay:2026-10-18:yes", "veg:18-10-2026:yes"} {
		_, _, err := ParseVegCallback(bad)
		assert.ErrorIs(t, err, ErrInvalidAction, bad)
	}
}
