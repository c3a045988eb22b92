package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/KitchenboT/internal/models"
)

func TestBeatRequiresSecret(t *testing.T) {
	h := newHarness(t, nil, WithHeartbeatSecret("pi-secret"))

	assert.ErrorIs(t, h.svc.Beat(h.ctx, "fridge", "nope", ""), models.ErrNotAuthorized)
	assert.ErrorIs(t, h.svc.Beat(h.ctx, " ", "pi-secret", ""), ErrInvalidInput)
	require.NoError(t, h.svc.Beat(h.ctx, "fridge", "pi-secret", "4C"))

	beats := h.svc.Heartbeats()
	require.Len(t, beats, 1)
	assert.Equal(t, "4C", beats[0].Status)
	assert.Equal(t, t0, beats[0].LastSeen)

	open := newHarness(t, nil)
	assert.ErrorIs(t, open.svc.Beat(open.ctx, "fridge", "", ""), models.ErrNotAuthorized)
}

func TestHeartbeatMonitorLatch(t *testing.T) {
	h := newHarness(t, nil, WithHeartbeatSecret("s"))
	require.NoError(t, h.svc.Beat(h.ctx, "fridge", "s", ""))

	require.NoError(t, h.svc.HeartbeatMonitor(h.ctx, t0.Add(5*time.Minute)))
	assert.Empty(t, h.sender.take())

	require.NoError(t, h.svc.HeartbeatMonitor(h.ctx, t0.Add(11*time.Minute)))
	assert.Len(t, ofKind(h.sender.take(), "heartbeat_down"), 2)

	require.NoError(t, h.svc.HeartbeatMonitor(h.ctx, t0.Add(30*time.Minute)))
	assert.Empty(t, h.sender.take())

	h.clock.Set(t0.Add(31 * time.Minute))
	require.NoError(t, h.svc.Beat(h.ctx, "fridge", "s", ""))
	require.NoError(t, h.svc.HeartbeatMonitor(h.ctx, t0.Add(32*time.Minute)))
	assert.Len(t, ofKind(h.sender.take(), "heartbeat_up"), 2)
}

func TestHeartbeatsTolerateEmptyEntry(t *testing.T) {
	doc := baseDocument()
	doc.Heartbeats["ghost"] = nil
	h := newHarness(t, doc, WithHeartbeatSecret("s"))

	require.NotPanics(t, func() {
		assert.NoError(t, h.svc.HeartbeatMonitor(h.ctx, t0.Add(time.Hour)))
		assert.Empty(t, h.svc.Heartbeats())
	})
	assert.Empty(t, h.sender.take())

	require.NoError(t, h.svc.Beat(h.ctx, "ghost", "s", "ok"))
	beats := h.svc.Heartbeats()
	require.Len(t, beats, 1)
	assert.Equal(t, "ghost", beats[0].ID)
}
