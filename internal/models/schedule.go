package models

import (
	"encoding/json"
	"strings"
	"time"
)

// Schedule is a static admin-configured daily trigger evaluated in each
// partner's local time
type Schedule struct {
	ID           string `json:"id"`
	Label        string `json:"label"`
	Time         string `json:"time"`
	Message      string `json:"message"`
	IntervalDays int    `json:"intervalDays"`
}

// SentKey identifies a duplicate-suppression marker
type SentKey struct {
	Kind string
	Ref  string
}

const sentKeySep = "__"

// String renders the composite "kind__ref" form used in the document
func (k SentKey) String() string {
	return k.Kind + sentKeySep + k.Ref
}

// ParseSentKey splits a "kind__ref" string on the first separator
func ParseSentKey(s string) SentKey {
	kind, ref, _ := strings.Cut(s, sentKeySep)
	return SentKey{Kind: kind, Ref: ref}
}

// LastSent maps markers to the time they were last recorded
type LastSent map[SentKey]time.Time

// MarshalJSON writes markers as {"kind__ref": timestamp}
func (l LastSent) MarshalJSON() ([]byte, error) {
	flat := make(map[string]time.Time, len(l))
	for k, v := range l {
		flat[k.String()] = v
	}
	return json.Marshal(flat)
}

// UnmarshalJSON reads the flat {"kind__ref": timestamp} layout
func (l *LastSent) UnmarshalJSON(data []byte) error {
	var flat map[string]time.Time
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}
	out := make(LastSent, len(flat))
	for k, v := range flat {
		out[ParseSentKey(k)] = v
	}
	*l = out
	return nil
}

// SentOn reports whether key was recorded on the same calendar date as now in loc
func (l LastSent) SentOn(key SentKey, now time.Time, loc *time.Location) bool {
	return l.SentOnDate(key, now.In(loc).Format(DateLayout), loc)
}

// SentOnDate reports whether key was recorded on date (YYYY-MM-DD) in loc
func (l LastSent) SentOnDate(key SentKey, date string, loc *time.Location) bool {
	at, ok := l[key]
	if !ok {
		return false
	}
	return at.In(loc).Format(DateLayout) == date
}

// DueAfterDays reports whether at least days calendar days separate the last
// marker for key and now in loc. Missing markers are always due.
func (l LastSent) DueAfterDays(key SentKey, now time.Time, loc *time.Location, days int) bool {
	at, ok := l[key]
	if !ok {
		return true
	}
	if days < 1 {
		days = 1
	}
	last := at.In(loc)
	cur := now.In(loc)
	lastDay := time.Date(last.Year(), last.Month(), last.Day(), 0, 0, 0, 0, time.UTC)
	curDay := time.Date(cur.Year(), cur.Month(), cur.Day(), 0, 0, 0, 0, time.UTC)
	return int(curDay.Sub(lastDay).Hours()/24) >= days
}
