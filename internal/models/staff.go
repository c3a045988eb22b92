package models

import "time"

// SalaryType defines how a staff member is paid
type SalaryType string

const (
	SalaryDaily   SalaryType = "daily"
	SalaryMonthly SalaryType = "monthly"
)

// AttendanceStatus is the per-day attendance mark of a staff member
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendanceLeave   AttendanceStatus = "leave"
)

// Valid reports whether s is one of the known attendance marks
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceLeave:
		return true
	}
	return false
}

// AttendanceEntry records one calendar day for a staff member
type AttendanceEntry struct {
	In     *time.Time       `json:"in,omitempty"`
	Out    *time.Time       `json:"out,omitempty"`
	Status AttendanceStatus `json:"status"`
}

// PaymentKind distinguishes full wage payments from partial ones
type PaymentKind string

const (
	PaymentFull    PaymentKind = "full"
	PaymentPartial PaymentKind = "partial"
)

// Payment is a single wage payout to a staff member
type Payment struct {
	ID        string      `json:"id"`
	Date      string      `json:"date"`
	Amount    float64     `json:"amount"`
	Kind      PaymentKind `json:"kind"`
	PaidBy    int64       `json:"paidBy"`
	CreatedAt time.Time   `json:"createdAt"`
}

// StaffRecord is one registered user with payroll and attendance data
type StaffRecord struct {
	ID           int64                       `json:"id"`
	Name         string                      `json:"name"`
	Role         Role                        `json:"role"`
	TZ           string                      `json:"tz,omitempty"`
	SalaryType   SalaryType                  `json:"salaryType"`
	SalaryAmount float64                     `json:"salaryAmount"`
	Payday       int                         `json:"payday,omitempty"`
	Attendance   map[string]*AttendanceEntry `json:"attendance"`
	Payments     []Payment                   `json:"payments"`
}

// Day returns the attendance entry for date, creating it lazily
func (s *StaffRecord) Day(date string) *AttendanceEntry {
	if s.Attendance == nil {
		s.Attendance = make(map[string]*AttendanceEntry)
	}
	e, ok := s.Attendance[date]
	if !ok {
		e = &AttendanceEntry{}
		s.Attendance[date] = e
	}
	return e
}

// Location returns the staff member's timezone, or fallback
func (s *StaffRecord) Location(fallback *time.Location) *time.Location {
	return LoadLocation(s.TZ, fallback)
}

// DaysPresent counts present days whose date starts with prefix (e.g. "2026-10")
func (s *StaffRecord) DaysPresent(prefix string) int {
	n := 0
	for date, e := range s.Attendance {
		if len(date) >= len(prefix) && date[:len(prefix)] == prefix && e.Status == AttendancePresent {
			n++
		}
	}
	return n
}

// PaidTotal sums payments whose date starts with prefix
func (s *StaffRecord) PaidTotal(prefix string) float64 {
	var total float64
	for _, p := range s.Payments {
		if len(p.Date) >= len(prefix) && p.Date[:len(prefix)] == prefix {
			total += p.Amount
		}
	}
	return total
}

// Earned returns the wage owed for the month identified by prefix ("2006-01")
func (s *StaffRecord) Earned(prefix string) float64 {
	if s.SalaryType == SalaryMonthly {
		return s.SalaryAmount
	}
	return float64(s.DaysPresent(prefix)) * s.SalaryAmount
}

// PayDecision is the answer recorded for the end-of-day payment check
type PayDecision string

const (
	PayYes     PayDecision = "yes"
	PayPartial PayDecision = "partial"
	PayNo      PayDecision = "no"
)

// Valid reports whether d is one of the known pay answers
func (d PayDecision) Valid() bool {
	switch d {
	case PayYes, PayPartial, PayNo:
		return true
	}
	return false
}
