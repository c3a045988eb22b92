package models

import (
	"math"
	"time"
)

const (
	DefaultWarnDays     = 4
	DefaultCriticalDays = 2
)

// InventoryItem represents a stocked ingredient with usage-based thresholds
type InventoryItem struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Stock        float64   `json:"stock"`
	Unit         string    `json:"unit"`
	DailyUsage   float64   `json:"dailyUsage"`
	WarnDays     float64   `json:"warnDays"`
	CriticalDays float64   `json:"criticalDays"`
	LastUpdated  time.Time `json:"lastUpdated"`
	Warned       bool      `json:"_warned"`
	Critical     bool      `json:"_critical"`
}

// DaysLeft estimates remaining days of stock. Zero usage yields +Inf.
func (i *InventoryItem) DaysLeft() float64 {
	if i.DailyUsage <= 0 {
		return math.Inf(1)
	}
	return i.Stock / i.DailyUsage
}
