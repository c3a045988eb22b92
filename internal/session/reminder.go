package session

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Kerhoff/KitchenboT/internal/models"
)

// TargetSelf addresses a reminder to the user creating it
const TargetSelf = "me"

// AddReminderEffect schedules a reminder. Target is TargetSelf or models.TargetAll.
type AddReminderEffect struct {
	Text   string
	When   time.Time
	Repeat models.ReminderRepeat
	Target string
}

func (AddReminderEffect) effect() {}

// WhenFormats describes the accepted reminder time formats
const WhenFormats = "10m, 2h, 1d, 15:30, 2026-01-15 15:30"

// ParseWhen parses a reminder time relative to env.Now: a duration such as
// 10m, 2h or 1d, a clock time (today, or tomorrow if already past), or an
// absolute "YYYY-MM-DD HH:MM" in env.Location
func ParseWhen(input string, env Env) (time.Time, error) {
	in := strings.TrimSpace(input)
	now := env.Now.In(env.Location)

	if len(in) >= 2 {
		num, err := strconv.Atoi(in[:len(in)-1])
		if err == nil && num > 0 {
			switch in[len(in)-1:] {
			case "m":
				return now.Add(time.Duration(num) * time.Minute), nil
			case "h":
				return now.Add(time.Duration(num) * time.Hour), nil
			case "d":
				return now.AddDate(0, 0, num), nil
			}
		}
	}

	if t, err := time.ParseInLocation("2006-01-02 15:04", in, env.Location); err == nil {
		if !t.After(now) {
			return time.Time{}, fmt.Errorf("time %s is in the past", in)
		}
		return t, nil
	}

	if t, err := time.Parse(models.ClockLayout, in); err == nil {
		at := time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, env.Location)
		if !at.After(now) {
			at = at.AddDate(0, 0, 1)
		}
		return at, nil
	}

	return time.Time{}, fmt.Errorf("could not parse time %q", in)
}

type ReminderText struct{}

func (ReminderText) Action() models.FlowAction        { return models.FlowAddReminder }
func (ReminderText) Prompt() string                   { return "⏰ What should I remind you about?" }
func (ReminderText) encode() (int, map[string]string) { return 0, nil }
func (ReminderText) Step(in string, _ Env) (State, Effect, error) {
	text, err := nonEmpty(in, "Reminder text")
	if err != nil {
		return nil, nil, err
	}
	return ReminderWhen{Text: text}, nil, nil
}

type ReminderWhen struct{ Text string }

func (ReminderWhen) Action() models.FlowAction { return models.FlowAddReminder }
func (ReminderWhen) Prompt() string {
	return "When? (" + WhenFormats + ")"
}
func (s ReminderWhen) encode() (int, map[string]string) {
	return 1, map[string]string{"text": s.Text}
}
func (s ReminderWhen) Step(in string, env Env) (State, Effect, error) {
	when, err := ParseWhen(in, env)
	if err != nil {
		return nil, nil, invalid("❌ %s. Formats: %s", err.Error(), WhenFormats)
	}
	return ReminderRepeatChoice{Text: s.Text, When: when}, nil, nil
}

type ReminderRepeatChoice struct {
	Text string
	When time.Time
}

func (ReminderRepeatChoice) Action() models.FlowAction { return models.FlowAddReminder }
func (ReminderRepeatChoice) Prompt() string            { return "Repeat? (once / daily)" }
func (s ReminderRepeatChoice) encode() (int, map[string]string) {
	return 2, map[string]string{"text": s.Text, "when": s.When.Format(time.RFC3339)}
}
func (s ReminderRepeatChoice) Step(in string, _ Env) (State, Effect, error) {
	repeat := models.ReminderRepeat(strings.ToLower(strings.TrimSpace(in)))
	if repeat != models.ReminderOnce && repeat != models.ReminderDaily {
		return nil, nil, invalid("❌ Please answer once or daily")
	}
	return ReminderTarget{Text: s.Text, When: s.When, Repeat: repeat}, nil, nil
}

type ReminderTarget struct {
	Text   string
	When   time.Time
	Repeat models.ReminderRepeat
}

func (ReminderTarget) Action() models.FlowAction { return models.FlowAddReminder }
func (ReminderTarget) Prompt() string            { return "Who should get it? (me / all)" }
func (s ReminderTarget) encode() (int, map[string]string) {
	return 3, map[string]string{"text": s.Text, "when": s.When.Format(time.RFC3339), "repeat": string(s.Repeat)}
}
func (s ReminderTarget) Step(in string, _ Env) (State, Effect, error) {
	target := strings.ToLower(strings.TrimSpace(in))
	if target != TargetSelf && target != models.TargetAll {
		return nil, nil, invalid("❌ Please answer me or all")
	}
	return nil, AddReminderEffect{Text: s.Text, When: s.When, Repeat: s.Repeat, Target: target}, nil
}

func decodeReminder(step int, t temp) (State, error) {
	switch step {
	case 0:
		return ReminderText{}, nil
	case 1:
		return ReminderWhen{Text: t["text"]}, nil
	case 2:
		return ReminderRepeatChoice{Text: t["text"], When: t.time("when")}, nil
	case 3:
		return ReminderTarget{Text: t["text"], When: t.time("when"), Repeat: models.ReminderRepeat(t["repeat"])}, nil
	}
	return nil, nil
}
