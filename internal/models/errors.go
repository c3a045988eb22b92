package models

import "errors"

var (
	// ErrNotFound is returned when a lookup by id finds nothing in the document.
	ErrNotFound = errors.New("not found")
	// ErrNotAuthorized is returned when a non-admin invokes a privileged operation.
	ErrNotAuthorized = errors.New("not authorized")
)

// DateLayout is the layout of business dates used as keys across the document.
const DateLayout = "2006-01-02"

// ClockLayout is the layout of HH:MM times in settings and schedules.
const ClockLayout = "15:04"
