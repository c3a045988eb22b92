package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfirmationsNestedLayout(t *testing.T) {
	at := time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)
	c := Confirmations{
		{Date: "2026-10-18", PartnerID: 7}: {Status: ConfirmNo, LastUpdated: at},
	}

	raw, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, `{"2026-10-18":{"7":{"status":"no","lastUpdated":"2026-10-18T10:00:00Z","nextCheck":null}}}`, string(raw))

	var back Confirmations
	require.NoError(t, json.Unmarshal(raw, &back))
	require.Contains(t, back, ConfirmationKey{Date: "2026-10-18", PartnerID: 7})

	assert.Error(t, json.Unmarshal([]byte(`{"2026-10-18":{"abc":{}}}`), &back))
}

func TestLastSentFlatLayout(t *testing.T) {
	at := time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)
	l := LastSent{{Kind: "veg_prompt", Ref: "2026-10-18:7"}: at}

	raw, err := json.Marshal(l)
	require.NoError(t, err)
	assert.JSONEq(t, `{"veg_prompt__2026-10-18:7":"2026-10-18T10:00:00Z"}`, string(raw))

	var back LastSent
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.True(t, at.Equal(back[SentKey{Kind: "veg_prompt", Ref: "2026-10-18:7"}]))

	assert.Equal(t, SentKey{Kind: "a", Ref: "b__c"}, ParseSentKey("a__b__c"))
}

func TestDueAfterDays(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	key := SentKey{Kind: "s1", Ref: "7"}

	// 23:00 local on the 17th
	last := time.Date(2026, 10, 17, 17, 30, 0, 0, time.UTC)
	l := LastSent{key: last}

	assert.True(t, l.DueAfterDays(SentKey{Kind: "other"}, last, loc, 1))
	assert.False(t, l.DueAfterDays(key, last.Add(30*time.Minute), loc, 1))
	assert.True(t, l.DueAfterDays(key, last.Add(time.Hour+time.Minute), loc, 1))
	assert.False(t, l.DueAfterDays(key, last.Add(24*time.Hour), loc, 2))
	assert.True(t, l.SentOn(key, last.Add(20*time.Minute), loc))
}

func TestReachedClock(t *testing.T) {
	now := time.Date(2026, 10, 18, 4, 30, 0, 0, time.UTC)
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	assert.True(t, ReachedClock(now, loc, "10:00"))
	assert.False(t, ReachedClock(now, loc, "10:01"))
	assert.False(t, ReachedClock(now, time.UTC, "10:00"))
	assert.False(t, ReachedClock(now, loc, "ten"))
}

func TestReminderNextWhen(t *testing.T) {
	when := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	daily := &Reminder{When: when, Repeat: ReminderDaily}

	assert.Equal(t, when.Add(24*time.Hour), daily.NextWhen(when))
	assert.Equal(t, when.Add(96*time.Hour), daily.NextWhen(when.Add(72*time.Hour)))

	once := &Reminder{When: when, Repeat: ReminderOnce}
	assert.Equal(t, when, once.NextWhen(when.Add(time.Hour)))

	assert.True(t, once.IsDue(when.Add(-ReminderSlack)))
	assert.False(t, once.IsDue(when.Add(-2*ReminderSlack)))
	once.Done = true
	assert.False(t, once.IsDue(when))
}

func TestNormalizeAndClone(t *testing.T) {
	var doc Document
	require.NoError(t, json.Unmarshal([]byte(`{"staff":[{"id":1,"name":"Cook"}]}`), &doc))
	doc.Normalize()

	assert.NotNil(t, doc.LastSent)
	assert.NotNil(t, doc.Sessions)
	assert.NotNil(t, doc.Staff[0].Attendance)
	assert.Equal(t, "10:00", doc.Settings.VegConfirm.ConfirmTime)
	assert.Equal(t, 10, doc.Settings.Heartbeat.ThresholdMinutes)

	doc.Staff[0].Day("2026-10-18").Status = AttendancePresent
	cp, err := doc.Clone()
	require.NoError(t, err)
	cp.Staff[0].Day("2026-10-18").Status = AttendanceAbsent
	assert.Equal(t, AttendancePresent, doc.Staff[0].Attendance["2026-10-18"].Status)
}

func TestNormalizeDropsEmptyHeartbeats(t *testing.T) {
	var doc Document
	require.NoError(t, json.Unmarshal([]byte(`{"heartbeats":{"x":null,"pos":{"lastSeen":"2026-10-18T10:00:00Z"}}}`), &doc))
	doc.Normalize()

	assert.NotContains(t, doc.Heartbeats, "x")
	require.Contains(t, doc.Heartbeats, "pos")
	assert.Equal(t, "pos", doc.Heartbeats["pos"].ID)
}

func TestAuditIsBounded(t *testing.T) {
	doc := NewDocument()
	for i := 0; i < MaxAuditEntries+10; i++ {
		doc.AppendAudit(AuditEntry{Action: "x"})
	}
	assert.Len(t, doc.Audit, MaxAuditEntries)
}

func TestStaffEarned(t *testing.T) {
	s := &StaffRecord{SalaryType: SalaryDaily, SalaryAmount: 400}
	s.Day("2026-10-01").Status = AttendancePresent
	s.Day("2026-10-02").Status = AttendanceAbsent
	s.Day("2026-09-30").Status = AttendancePresent
	s.Payments = []Payment{{Date: "2026-10-02", Amount: 100}, {Date: "2026-09-30", Amount: 400}}

	assert.Equal(t, 400.0, s.Earned("2026-10"))
	assert.Equal(t, 100.0, s.PaidTotal("2026-10"))

	s.SalaryType = SalaryMonthly
	s.SalaryAmount = 12000
	assert.Equal(t, 12000.0, s.Earned("2026-10"))
}
