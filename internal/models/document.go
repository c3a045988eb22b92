package models

import (
	"encoding/json"
	"strconv"
	"strings"
)

// MaxAuditEntries bounds the audit trail kept in the document
const MaxAuditEntries = 500

// Document is the single persisted root holding all mutable state
type Document struct {
	LastSent             LastSent                          `json:"lastSent"`
	Partners             []*Partner                        `json:"partners"`
	Schedules            []*Schedule                       `json:"schedules"`
	PendingConfirmations Confirmations                     `json:"pendingConfirmations"`
	Inventory            []*InventoryItem                  `json:"inventory"`
	Reminders            []*Reminder                       `json:"reminders"`
	Staff                []*StaffRecord                    `json:"staff"`
	Payments             map[string]map[string]PayDecision `json:"payments"`
	Heartbeats           map[string]*Heartbeat             `json:"heartbeats"`
	Settings             Settings                          `json:"settings"`
	Audit                []AuditEntry                      `json:"audit"`
	Sessions             map[int64]*Session                `json:"sessions"`
}

// NewDocument returns an empty document with all keys defaulted
func NewDocument() *Document {
	d := &Document{}
	d.Normalize()
	return d
}

// Normalize defaults missing keys and settings after a load
func (d *Document) Normalize() {
	if d.LastSent == nil {
		d.LastSent = make(LastSent)
	}
	if d.Partners == nil {
		d.Partners = []*Partner{}
	}
	if d.Schedules == nil {
		d.Schedules = []*Schedule{}
	}
	if d.PendingConfirmations == nil {
		d.PendingConfirmations = make(Confirmations)
	}
	if d.Inventory == nil {
		d.Inventory = []*InventoryItem{}
	}
	if d.Reminders == nil {
		d.Reminders = []*Reminder{}
	}
	if d.Staff == nil {
		d.Staff = []*StaffRecord{}
	}
	if d.Payments == nil {
		d.Payments = make(map[string]map[string]PayDecision)
	}
	if d.Heartbeats == nil {
		d.Heartbeats = make(map[string]*Heartbeat)
	}
	if d.Audit == nil {
		d.Audit = []AuditEntry{}
	}
	if d.Sessions == nil {
		d.Sessions = make(map[int64]*Session)
	}
	for id, hb := range d.Heartbeats {
		if hb == nil {
			delete(d.Heartbeats, id)
			continue
		}
		if hb.ID == "" {
			hb.ID = id
		}
	}
	for _, s := range d.Staff {
		if s.Attendance == nil {
			s.Attendance = make(map[string]*AttendanceEntry)
		}
	}
	d.Settings.normalize()
}

// Clone returns a deep copy made through the persisted JSON form
func (d *Document) Clone() (*Document, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	out := &Document{}
	if err := json.Unmarshal(raw, out); err != nil {
		return nil, err
	}
	out.Normalize()
	return out, nil
}

// Partner finds a partner by id
func (d *Document) Partner(id int64) *Partner {
	for _, p := range d.Partners {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// IsAdmin reports whether id belongs to an owner or admin partner
func (d *Document) IsAdmin(id int64) bool {
	p := d.Partner(id)
	return p != nil && p.IsPrivileged()
}

// StaffMember finds a staff record by id
func (d *Document) StaffMember(id int64) *StaffRecord {
	for _, s := range d.Staff {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// Item finds an inventory item by id or case-insensitive name
func (d *Document) Item(ref string) *InventoryItem {
	ref = strings.TrimSpace(ref)
	for _, it := range d.Inventory {
		if it.ID == ref || strings.EqualFold(it.Name, ref) {
			return it
		}
	}
	return nil
}

// Reminder finds a reminder by id
func (d *Document) Reminder(id string) *Reminder {
	for _, r := range d.Reminders {
		if r.ID == id {
			return r
		}
	}
	return nil
}

// SetPayDecision records the end-of-day pay answer for a staff member
func (d *Document) SetPayDecision(date string, staffID int64, decision PayDecision) {
	byStaff, ok := d.Payments[date]
	if !ok {
		byStaff = make(map[string]PayDecision)
		d.Payments[date] = byStaff
	}
	byStaff[strconv.FormatInt(staffID, 10)] = decision
}

// PayDecision returns the recorded pay answer, if any
func (d *Document) PayDecision(date string, staffID int64) (PayDecision, bool) {
	v, ok := d.Payments[date][strconv.FormatInt(staffID, 10)]
	return v, ok
}

// AppendAudit adds an audit record, trimming the oldest past MaxAuditEntries
func (d *Document) AppendAudit(e AuditEntry) {
	d.Audit = append(d.Audit, e)
	if n := len(d.Audit); n > MaxAuditEntries {
		d.Audit = append([]AuditEntry(nil), d.Audit[n-MaxAuditEntries:]...)
	}
}
