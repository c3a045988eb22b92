// Package session implements the multi-step chat conversations as explicit
// state machines. Every step is its own type, so a conversation can only be
// in a state that exists; Step validates input and either returns the next
// state or, on the final step, a nil state and the Effect to apply.
package session

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Kerhoff/KitchenboT/internal/models"
)

var (
	// ErrInvalidInput marks input rejected by a step; the step is not advanced
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnknownFlow is returned when a persisted session cannot be decoded
	ErrUnknownFlow = errors.New("unknown flow")
)

// InputError carries the user-facing reason an input was rejected
type InputError struct {
	Reason string
}

func (e *InputError) Error() string { return e.Reason }

// Is makes errors.Is(err, ErrInvalidInput) hold for every InputError
func (e *InputError) Is(target error) bool { return target == ErrInvalidInput }

func invalid(format string, args ...any) error {
	return &InputError{Reason: fmt.Sprintf(format, args...)}
}

// Env is the context a step may need to interpret input
type Env struct {
	Now      time.Time
	Location *time.Location
}

// State is one step of a conversation
type State interface {
	Action() models.FlowAction
	Prompt() string
	Step(input string, env Env) (State, Effect, error)
	encode() (int, map[string]string)
}

// Effect is the domain change requested by a completed conversation
type Effect interface {
	effect()
}

// Start returns the first step of a flow that needs no preset data
func Start(action models.FlowAction) (State, error) {
	switch action {
	case models.FlowAddItem:
		return AddItemName{}, nil
	case models.FlowPurchase:
		return PurchaseItem{}, nil
	case models.FlowSetUsage:
		return UsageItem{}, nil
	case models.FlowAddReminder:
		return ReminderText{}, nil
	case models.FlowAdminLogin:
		return AdminPassword{}, nil
	case models.FlowAddEmployee:
		return EmployeeID{}, nil
	case models.FlowSetRole:
		return RoleUser{}, nil
	case models.FlowSetSalary:
		return SalaryUser{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFlow, action)
}

// Encode converts a state into its persisted form
func Encode(st State, now time.Time) *models.Session {
	step, temp := st.encode()
	return &models.Session{Action: st.Action(), Step: step, Temp: temp, UpdatedAt: now}
}

// Decode restores a state from its persisted form
func Decode(s *models.Session) (State, error) {
	t := temp(s.Temp)
	var (
		st  State
		err error
	)
	switch s.Action {
	case models.FlowAddItem:
		st, err = decodeAddItem(s.Step, t)
	case models.FlowPurchase:
		st, err = decodePurchase(s.Step, t)
	case models.FlowSetUsage:
		st, err = decodeUsage(s.Step, t)
	case models.FlowAddReminder:
		st, err = decodeReminder(s.Step, t)
	case models.FlowAdminLogin:
		if s.Step == 0 {
			st = AdminPassword{}
		}
	case models.FlowPayPartial:
		if s.Step == 0 {
			st = PayPartialAmount{StaffID: t.int("staff")}
		}
	case models.FlowAddEmployee:
		st, err = decodeEmployee(s.Step, t)
	case models.FlowSetRole:
		st, err = decodeRole(s.Step, t)
	case models.FlowSetSalary:
		st, err = decodeSalary(s.Step, t)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFlow, s.Action)
	}
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, fmt.Errorf("%w: %s step %d", ErrUnknownFlow, s.Action, s.Step)
	}
	return st, nil
}

type temp map[string]string

func (t temp) int(key string) int64 {
	v, _ := strconv.ParseInt(t[key], 10, 64)
	return v
}

func (t temp) float(key string) float64 {
	v, _ := strconv.ParseFloat(t[key], 64)
	return v
}

func (t temp) time(key string) time.Time {
	v, _ := time.Parse(time.RFC3339, t[key])
	return v
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}

// parseAmount accepts non-negative decimals, with "," as decimal separator
func parseAmount(input string) (float64, error) {
	raw := strings.ReplaceAll(strings.TrimSpace(input), ",", ".")
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return 0, invalid("❌ %q is not a valid number. Please enter a number like 12 or 2.5", strings.TrimSpace(input))
	}
	return v, nil
}

func parsePositive(input string) (float64, error) {
	v, err := parseAmount(input)
	if err != nil {
		return 0, err
	}
	if v == 0 {
		return 0, invalid("❌ The amount must be greater than zero")
	}
	return v, nil
}

func parseUserID(input string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(input), 10, 64)
	if err != nil || id <= 0 {
		return 0, invalid("❌ Please send a numeric Telegram user id")
	}
	return id, nil
}

func nonEmpty(input, what string) (string, error) {
	v := strings.TrimSpace(input)
	if v == "" {
		return "", invalid("❌ %s cannot be empty", what)
	}
	return v, nil
}
