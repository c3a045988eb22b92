package models

import "time"

// FlowAction names a multi-step conversation
type FlowAction string

const (
	FlowAddItem     FlowAction = "add-item"
	FlowPurchase    FlowAction = "purchase"
	FlowSetUsage    FlowAction = "set-usage"
	FlowAddReminder FlowAction = "add-reminder"
	FlowAdminLogin  FlowAction = "admin-login"
	FlowPayPartial  FlowAction = "pay-partial"
	FlowAddEmployee FlowAction = "add-employee"
	FlowSetRole     FlowAction = "set-role"
	FlowSetSalary   FlowAction = "set-salary"
)

// Session is the persisted form of an in-progress conversation
type Session struct {
	Action    FlowAction        `json:"action"`
	Step      int               `json:"step"`
	Temp      map[string]string `json:"temp,omitempty"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// AuditEntry is an append-only operator trail record
type AuditEntry struct {
	When    time.Time `json:"when"`
	Actor   int64     `json:"actor"`
	Action  string    `json:"action"`
	Details string    `json:"details,omitempty"`
}

// Heartbeat is the last-seen state of an external device
type Heartbeat struct {
	ID       string    `json:"id"`
	LastSeen time.Time `json:"lastSeen"`
	Status   string    `json:"status,omitempty"`
	Down     bool      `json:"_down"`
}
