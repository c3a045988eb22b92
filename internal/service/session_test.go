package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/KitchenboT/internal/models"
	"github.com/Kerhoff/KitchenboT/internal/session"
)

func TestStartSessionPrivilegedFlows(t *testing.T) {
	h := newHarness(t, nil)

	_, err := h.svc.StartSession(h.ctx, staffID, session.AddItemName{})
	assert.ErrorIs(t, err, models.ErrNotAuthorized)
	assert.False(t, h.svc.HasSession(staffID))

	prompt, err := h.svc.StartSession(h.ctx, staffID, session.PurchaseItem{})
	require.NoError(t, err)
	assert.Equal(t, session.PurchaseItem{}.Prompt(), prompt)
	assert.True(t, h.svc.HasSession(staffID))
}

func TestReminderConversation(t *testing.T) {
	h := newHarness(t, nil)
	_, err := h.svc.StartSession(h.ctx, ownerID, session.ReminderText{})
	require.NoError(t, err)

	steps := []struct {
		input string
		want  string
	}{
		{"Order gas", "When?"},
		{"sometime", "could not parse"},
		{"15:30", "Repeat?"},
		{"weekly", "once or daily"},
		{"once", "Who should get it?"},
		{"me", "Reminder set for Sun, 18 Oct 2026 15:30"},
	}
	for _, step := range steps {
		reply, handled, err := h.svc.HandleSessionInput(h.ctx, ownerID, "Owner", step.input)
		require.NoError(t, err, step.input)
		assert.True(t, handled)
		assert.Contains(t, reply, step.want, step.input)
	}

	assert.False(t, h.svc.HasSession(ownerID))
	rs := h.svc.RemindersFor(ownerID)
	require.Len(t, rs, 1)
	assert.Equal(t, "Order gas", rs[0].Text)
	assert.Equal(t, time.Date(2026, 10, 18, 15, 30, 0, 0, time.UTC), rs[0].When.UTC())
}

func TestSessionSurvivesReload(t *testing.T) {
	h := newHarness(t, nil)
	_, err := h.svc.StartSession(h.ctx, ownerID, session.AddItemName{})
	require.NoError(t, err)
	_, _, err = h.svc.HandleSessionInput(h.ctx, ownerID, "Owner", "Onions")
	require.NoError(t, err)

	stored := h.persisted(t).Sessions[ownerID]
	require.NotNil(t, stored)
	assert.Equal(t, models.FlowAddItem, stored.Action)
	assert.Equal(t, 1, stored.Step)
	assert.Equal(t, "Onions", stored.Temp["name"])

	require.NoError(t, h.svc.Reload(h.ctx))
	for _, in := range []string{"kg", "20", "2,5"} {
		_, handled, err := h.svc.HandleSessionInput(h.ctx, ownerID, "Owner", in)
		require.NoError(t, err)
		assert.True(t, handled)
	}

	items := h.svc.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "Onions", items[0].Name)
	assert.Equal(t, 2.5, items[0].DailyUsage)
}

func TestCorrectableErrorKeepsSession(t *testing.T) {
	h := newHarness(t, nil)
	_, err := h.svc.StartSession(h.ctx, staffID, session.PurchaseItem{})
	require.NoError(t, err)

	_, _, err = h.svc.HandleSessionInput(h.ctx, staffID, "Cook", "Saffron")
	require.NoError(t, err)
	reply, handled, err := h.svc.HandleSessionInput(h.ctx, staffID, "Cook", "3")
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Contains(t, reply, "not found")
	assert.True(t, h.svc.HasSession(staffID))
}

func TestCancelAndNoSession(t *testing.T) {
	h := newHarness(t, nil)

	_, handled, err := h.svc.HandleSessionInput(h.ctx, ownerID, "Owner", "hello")
	require.NoError(t, err)
	assert.False(t, handled)

	cancelled, err := h.svc.CancelSession(h.ctx, ownerID)
	require.NoError(t, err)
	assert.False(t, cancelled)

	_, err = h.svc.StartSession(h.ctx, ownerID, session.ReminderText{})
	require.NoError(t, err)
	cancelled, err = h.svc.CancelSession(h.ctx, ownerID)
	require.NoError(t, err)
	assert.True(t, cancelled)
	assert.False(t, h.svc.HasSession(ownerID))
}

func TestUndecodableSessionIsDropped(t *testing.T) {
	doc := baseDocument()
	doc.Sessions[ownerID] = &models.Session{Action: "teleport", UpdatedAt: t0}
	h := newHarness(t, doc)

	reply, handled, err := h.svc.HandleSessionInput(h.ctx, ownerID, "Owner", "x")
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Contains(t, reply, "expired")
	assert.False(t, h.svc.HasSession(ownerID))
}
