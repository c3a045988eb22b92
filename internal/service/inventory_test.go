package service

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/KitchenboT/internal/models"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name string
		item models.InventoryItem
		want Assessment
	}{
		{
			name: "crosses warning only",
			item: models.InventoryItem{Stock: 20, DailyUsage: 5, WarnDays: 4, CriticalDays: 2},
			want: Assessment{DaysLeft: 4, Warned: true, RaiseWarn: true},
		},
		{
			name: "already warned stays quiet",
			item: models.InventoryItem{Stock: 20, DailyUsage: 5, WarnDays: 4, CriticalDays: 2, Warned: true},
			want: Assessment{DaysLeft: 4, Warned: true},
		},
		{
			name: "crosses both at once",
			item: models.InventoryItem{Stock: 5, DailyUsage: 5, WarnDays: 4, CriticalDays: 2},
			want: Assessment{DaysLeft: 1, Warned: true, Critical: true, RaiseWarn: true, RaiseCritical: true},
		},
		{
			name: "recovery clears latches",
			item: models.InventoryItem{Stock: 25, DailyUsage: 5, WarnDays: 4, CriticalDays: 2, Warned: true, Critical: true},
			want: Assessment{DaysLeft: 5},
		},
		{
			name: "missing thresholds use defaults",
			item: models.InventoryItem{Stock: 3, DailyUsage: 1},
			want: Assessment{DaysLeft: 3, Warned: true, RaiseWarn: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.item))
		})
	}
}

func TestEvaluateZeroUsageNeverAlerts(t *testing.T) {
	a := Evaluate(models.InventoryItem{Stock: 0, DailyUsage: 0, Warned: true})
	assert.True(t, math.IsInf(a.DaysLeft, 1))
	assert.False(t, a.Warned)
	assert.False(t, a.RaiseWarn)
	assert.False(t, a.RaiseCritical)
}

func TestInventoryMonitorHysteresis(t *testing.T) {
	h := newHarness(t, nil)
	item, err := h.svc.AddItem(h.ctx, ownerID, "Onion", "kg", 20, 5)
	require.NoError(t, err)
	assert.Equal(t, 4.0, item.WarnDays)
	assert.Equal(t, 2.0, item.CriticalDays)

	// 4 days left: low-stock alert to both partners, no critical
	require.NoError(t, h.svc.InventoryMonitor(h.ctx))
	msgs := h.sender.take()
	assert.Len(t, ofKind(msgs, "stock_low"), 2)
	assert.Empty(t, ofKind(msgs, "stock_critical"))
	assert.True(t, h.persisted(t).Item("onion").Warned)

	// latched: nothing on the next pass
	require.NoError(t, h.svc.InventoryMonitor(h.ctx))
	assert.Empty(t, h.sender.take())

	// +5 brings it to 5 days: latch clears silently
	_, err = h.svc.Purchase(h.ctx, staffID, "onion", 5)
	require.NoError(t, err)
	require.NoError(t, h.svc.InventoryMonitor(h.ctx))
	assert.Empty(t, h.sender.take())
	assert.False(t, h.persisted(t).Item("onion").Warned)

	// dropping to 1.6 days raises both again
	_, err = h.svc.Consume(h.ctx, staffID, "Onion", 17)
	require.NoError(t, err)
	require.NoError(t, h.svc.InventoryMonitor(h.ctx))
	msgs = h.sender.take()
	assert.Len(t, ofKind(msgs, "stock_low"), 2)
	assert.Len(t, ofKind(msgs, "stock_critical"), 2)

	require.NoError(t, h.svc.InventoryMonitor(h.ctx))
	assert.Empty(t, h.sender.take())
}

func TestInventoryStockChanges(t *testing.T) {
	h := newHarness(t, nil)
	_, err := h.svc.AddItem(h.ctx, ownerID, "Rice", "kg", 10, 2)
	require.NoError(t, err)

	_, err = h.svc.AddItem(h.ctx, ownerID, "rice", "kg", 1, 1)
	assert.ErrorIs(t, err, ErrDuplicate)

	_, err = h.svc.AddItem(h.ctx, staffID, "Salt", "kg", 1, 1)
	assert.ErrorIs(t, err, models.ErrNotAuthorized)

	item, err := h.svc.Consume(h.ctx, staffID, "rice", 50)
	require.NoError(t, err)
	assert.Zero(t, item.Stock)

	_, err = h.svc.Purchase(h.ctx, staffID, "rice", -1)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = h.svc.Purchase(h.ctx, staffID, "lentils", 1)
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = h.svc.Purchase(h.ctx, 999, "rice", 1)
	assert.ErrorIs(t, err, models.ErrNotAuthorized)

	require.NoError(t, h.svc.SetThresholds(h.ctx, ownerID, "rice", 7, 3))
	err = h.svc.SetThresholds(h.ctx, ownerID, "rice", 2, 3)
	assert.ErrorIs(t, err, ErrInvalidInput)

	require.NoError(t, h.svc.RemoveItem(h.ctx, ownerID, "RICE"))
	assert.Empty(t, h.svc.Items())
}

func TestStockReportOrdersByDaysLeft(t *testing.T) {
	h := newHarness(t, nil)
	_, err := h.svc.AddItem(h.ctx, ownerID, "Oil", "l", 10, 0)
	require.NoError(t, err)
	_, err = h.svc.AddItem(h.ctx, ownerID, "Tomato", "kg", 3, 3)
	require.NoError(t, err)

	items := h.svc.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "Tomato", items[0].Name)

	report := h.svc.StockReport()
	assert.Contains(t, report, "🔴 Tomato")
	assert.Contains(t, report, "no usage set")
}
