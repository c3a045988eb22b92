package models

import (
	"strconv"
	"time"
)

// Role defines the privilege level of a partner or staff member
type Role string

const (
	RoleOwner Role = "owner"
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleStaff:
		return true
	}
	return false
}

// Partner is a person who receives broadcast notifications
type Partner struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Role Role   `json:"role"`
	TZ   string `json:"tz,omitempty"`
}

// IsPrivileged returns true for owners and admins
func (p *Partner) IsPrivileged() bool {
	return p.Role == RoleOwner || p.Role == RoleAdmin
}

// DisplayName returns the best display name for the partner
func (p *Partner) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return "#" + strconv.FormatInt(p.ID, 10)
}

// Location returns the partner's timezone, or fallback when unset or invalid
func (p *Partner) Location(fallback *time.Location) *time.Location {
	return LoadLocation(p.TZ, fallback)
}

// LoadLocation resolves an IANA zone name, returning fallback on failure
func LoadLocation(name string, fallback *time.Location) *time.Location {
	if name == "" {
		return fallback
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return fallback
	}
	return loc
}
