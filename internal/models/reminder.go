package models

import "time"

// ReminderRepeat defines how often a reminder repeats
type ReminderRepeat string

const (
	ReminderOnce  ReminderRepeat = "once"
	ReminderDaily ReminderRepeat = "daily"
)

// TargetAll addresses a reminder to every partner
const TargetAll = "all"

// ReminderSlack is the look-ahead that absorbs the polling interval
const ReminderSlack = time.Minute

// Reminder represents a user-scheduled notification
type Reminder struct {
	ID        string         `json:"id"`
	CreatedBy int64          `json:"createdBy"`
	Target    string         `json:"target"`
	Text      string         `json:"text"`
	When      time.Time      `json:"when"`
	Repeat    ReminderRepeat `json:"repeat"`
	Done      bool           `json:"done"`
}

// IsDue returns true if the reminder should fire at now
func (r *Reminder) IsDue(now time.Time) bool {
	if r.Done {
		return false
	}
	return !r.When.After(now.Add(ReminderSlack))
}

// NextWhen returns the next occurrence of a daily reminder strictly after
// now, staying on the original 24h grid. Once reminders return When.
func (r *Reminder) NextWhen(now time.Time) time.Time {
	if r.Repeat != ReminderDaily {
		return r.When
	}
	next := r.When.Add(24 * time.Hour)
	for !next.After(now.Add(ReminderSlack)) {
		next = next.Add(24 * time.Hour)
	}
	return next
}
