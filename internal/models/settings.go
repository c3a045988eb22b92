package models

import "time"

// VegConfirmSettings configures the daily vegetable-list confirmation
type VegConfirmSettings struct {
	ConfirmTime      string `json:"confirmTime"`
	FollowupMinutes1 int    `json:"followupMinutes1"`
	FollowupMinutes2 int    `json:"followupMinutes2"`
}

// HeartbeatSettings configures device-down alerting
type HeartbeatSettings struct {
	ThresholdMinutes int `json:"thresholdMinutes"`
}

// InventorySettings holds inventory defaults. CheckIntervalMinutes is kept
// for compatibility with existing documents; the tick interval is set by
// configuration.
type InventorySettings struct {
	CheckIntervalMinutes int     `json:"checkIntervalMinutes"`
	WarnDays             float64 `json:"warnDays"`
	CriticalDays         float64 `json:"criticalDays"`
}

// Settings are the runtime knobs persisted with the document
type Settings struct {
	Timezone                  string             `json:"timezone"`
	VegConfirm                VegConfirmSettings `json:"vegConfirm"`
	AttendancePromptTime      string             `json:"attendancePromptTime"`
	EndOfDayPaymentCheck      string             `json:"endOfDayPaymentCheck"`
	MonthlyReminderDaysBefore int                `json:"monthlyReminderDaysBefore"`
	Heartbeat                 HeartbeatSettings  `json:"heartbeat"`
	Inventory                 InventorySettings  `json:"inventory"`
}

// DefaultTimezone is the business timezone used when none is configured
const DefaultTimezone = "Asia/Kolkata"

func (s *Settings) normalize() {
	if s.Timezone == "" {
		s.Timezone = DefaultTimezone
	}
	if s.VegConfirm.ConfirmTime == "" {
		s.VegConfirm.ConfirmTime = "10:00"
	}
	if s.VegConfirm.FollowupMinutes1 <= 0 {
		s.VegConfirm.FollowupMinutes1 = 30
	}
	if s.VegConfirm.FollowupMinutes2 <= 0 {
		s.VegConfirm.FollowupMinutes2 = 60
	}
	if s.AttendancePromptTime == "" {
		s.AttendancePromptTime = "10:30"
	}
	if s.EndOfDayPaymentCheck == "" {
		s.EndOfDayPaymentCheck = "21:00"
	}
	if s.MonthlyReminderDaysBefore <= 0 {
		s.MonthlyReminderDaysBefore = 2
	}
	if s.Heartbeat.ThresholdMinutes <= 0 {
		s.Heartbeat.ThresholdMinutes = 10
	}
	if s.Inventory.CheckIntervalMinutes <= 0 {
		s.Inventory.CheckIntervalMinutes = 60
	}
	if s.Inventory.WarnDays <= 0 {
		s.Inventory.WarnDays = DefaultWarnDays
	}
	if s.Inventory.CriticalDays <= 0 {
		s.Inventory.CriticalDays = DefaultCriticalDays
	}
}

// Location returns the business timezone, falling back to UTC
func (s *Settings) Location() *time.Location {
	return LoadLocation(s.Timezone, time.UTC)
}

// ReachedClock reports whether the wall clock of now in loc is at or past hhmm.
// Malformed values never match.
func ReachedClock(now time.Time, loc *time.Location, hhmm string) bool {
	t, err := time.Parse(ClockLayout, hhmm)
	if err != nil {
		return false
	}
	local := now.In(loc)
	return local.Hour()*60+local.Minute() >= t.Hour()*60+t.Minute()
}
