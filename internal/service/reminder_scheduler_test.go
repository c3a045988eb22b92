package service

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/KitchenboT/internal/models"
)

func TestDailyReminderToAllPartners(t *testing.T) {
	h := newHarness(t, nil)
	r, err := h.svc.CreateReminder(h.ctx, ownerID, models.TargetAll, "Close shop", t0, models.ReminderDaily)
	require.NoError(t, err)

	require.NoError(t, h.svc.ReminderTick(h.ctx, t0))

	msgs := ofKind(h.sender.take(), "reminder")
	require.Len(t, msgs, 2)
	assert.ElementsMatch(t, []int64{ownerID, partnerID}, chatIDs(msgs))
	assert.Equal(t, "remdone:"+r.ID, msgs[0].Buttons[0][0].Data)

	doc := h.persisted(t)
	require.Len(t, doc.Reminders, 1)
	assert.Equal(t, t0.Add(24*time.Hour), doc.Reminders[0].When)
	assert.False(t, doc.Reminders[0].Done)

	// nothing more until the next day
	require.NoError(t, h.svc.ReminderTick(h.ctx, t0.Add(time.Hour)))
	assert.Empty(t, h.sender.take())
}

func TestOnceReminderFiresWithinSlackAndIsPurged(t *testing.T) {
	h := newHarness(t, nil)
	when := t0.Add(45 * time.Second)
	_, err := h.svc.CreateReminder(h.ctx, staffID, "", "Call supplier", when, models.ReminderOnce)
	require.NoError(t, err)

	require.NoError(t, h.svc.ReminderTick(h.ctx, t0.Add(-30*time.Second)))
	assert.Empty(t, h.sender.take())

	require.NoError(t, h.svc.ReminderTick(h.ctx, t0))
	msgs := h.sender.take()
	require.Len(t, msgs, 1)
	assert.Equal(t, staffID, msgs[0].ChatID)
	assert.Empty(t, h.persisted(t).Reminders)

	require.NoError(t, h.svc.ReminderTick(h.ctx, t0.Add(time.Minute)))
	assert.Empty(t, h.sender.take())
}

func TestDailyReminderSkipsMissedDays(t *testing.T) {
	h := newHarness(t, nil)
	_, err := h.svc.CreateReminder(h.ctx, ownerID, "", "Count cash", t0, models.ReminderDaily)
	require.NoError(t, err)

	// process was down for three days
	late := t0.Add(72*time.Hour + 5*time.Hour)
	require.NoError(t, h.svc.ReminderTick(h.ctx, late))
	assert.Len(t, h.sender.take(), 1)
	assert.Equal(t, t0.Add(96*time.Hour), h.persisted(t).Reminders[0].When)
}

func TestMarkReminderDoneStopsDailyReminder(t *testing.T) {
	h := newHarness(t, nil)
	r, err := h.svc.CreateReminder(h.ctx, ownerID, models.TargetAll, "Close shop", t0, models.ReminderDaily)
	require.NoError(t, err)

	require.NoError(t, h.svc.MarkReminderDone(h.ctx, partnerID, r.ID))
	require.NoError(t, h.svc.ReminderTick(h.ctx, t0))
	assert.Empty(t, h.sender.take())
	assert.Empty(t, h.persisted(t).Reminders)

	err = h.svc.MarkReminderDone(h.ctx, partnerID, r.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestReminderOwnership(t *testing.T) {
	h := newHarness(t, nil)

	_, err := h.svc.CreateReminder(h.ctx, staffID, models.TargetAll, "Party", t0, models.ReminderOnce)
	assert.ErrorIs(t, err, models.ErrNotAuthorized)

	_, err = h.svc.CreateReminder(h.ctx, staffID, "", "  ", t0, models.ReminderOnce)
	assert.ErrorIs(t, err, ErrInvalidInput)

	mine, err := h.svc.CreateReminder(h.ctx, staffID, "", "Break", t0.Add(time.Hour), "")
	require.NoError(t, err)
	assert.Equal(t, strconv.FormatInt(staffID, 10), mine.Target)
	assert.Equal(t, models.ReminderOnce, mine.Repeat)

	list := h.svc.RemindersFor(staffID)
	require.Len(t, list, 1)
	assert.Equal(t, mine.ID, list[0].ID)
	assert.Empty(t, h.svc.RemindersFor(partnerID))

	err = h.svc.DeleteReminder(h.ctx, partnerID+1, mine.ID)
	assert.ErrorIs(t, err, models.ErrNotAuthorized)

	// admins may delete anyone's reminder
	require.NoError(t, h.svc.DeleteReminder(h.ctx, partnerID, mine.ID))
	assert.Empty(t, h.svc.RemindersFor(staffID))
}

func TestMarkReminderDoneRequiresRecipient(t *testing.T) {
	h := newHarness(t, nil)
	r, err := h.svc.CreateReminder(h.ctx, ownerID, strconv.FormatInt(ownerID, 10), "Pay rent", t0, models.ReminderDaily)
	require.NoError(t, err)

	err = h.svc.MarkReminderDone(h.ctx, staffID, r.ID)
	assert.ErrorIs(t, err, models.ErrNotAuthorized)
	assert.False(t, h.persisted(t).Reminders[0].Done)

	own, err := h.svc.CreateReminder(h.ctx, staffID, "", "Break", t0.Add(time.Hour), models.ReminderOnce)
	require.NoError(t, err)
	require.NoError(t, h.svc.MarkReminderDone(h.ctx, staffID, own.ID))
	require.NoError(t, h.svc.MarkReminderDone(h.ctx, ownerID, r.ID))
}
