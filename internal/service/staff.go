package service

import (
	"context"
	"crypto/subtle"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Kerhoff/KitchenboT/internal/models"
	"github.com/Kerhoff/KitchenboT/internal/notify"
	"github.com/Kerhoff/KitchenboT/internal/state"
)

const (
	markerAttendance = "attendance"
	markerPayCheck   = "paycheck"
	markerPayday     = "payday"
)

// SeedOwners makes sure every id is an owner partner
func (s *Service) SeedOwners(ctx context.Context, ids []int64) error {
	return s.commit(ctx, func(doc *models.Document, _ *outbox) error {
		changed := false
		for _, id := range ids {
			p := doc.Partner(id)
			if p == nil {
				doc.Partners = append(doc.Partners, &models.Partner{ID: id, Role: models.RoleOwner})
				changed = true
				continue
			}
			if p.Role != models.RoleOwner {
				p.Role = models.RoleOwner
				changed = true
			}
		}
		if !changed {
			return state.ErrNoChange
		}
		return nil
	})
}

// AddPartner registers or updates a partner. Only admins may do this.
func (s *Service) AddPartner(ctx context.Context, actor, id int64, name string, role models.Role) error {
	if !role.Valid() {
		return fmt.Errorf("%w: role %q", ErrInvalidAction, role)
	}
	return s.commit(ctx, func(doc *models.Document, _ *outbox) error {
		if err := s.requireAdmin(doc, actor); err != nil {
			return err
		}
		if role == models.RoleOwner && doc.Partner(actor).Role != models.RoleOwner {
			return models.ErrNotAuthorized
		}
		upsertPartner(doc, id, name, role)
		s.audit(doc, actor, "partner:add", fmt.Sprintf("%d %s", id, role))
		return nil
	})
}

func upsertPartner(doc *models.Document, id int64, name string, role models.Role) *models.Partner {
	p := doc.Partner(id)
	if p == nil {
		p = &models.Partner{ID: id}
		doc.Partners = append(doc.Partners, p)
	}
	if name = strings.TrimSpace(name); name != "" {
		p.Name = name
	} else if p.Name == "" {
		if st := doc.StaffMember(id); st != nil {
			p.Name = st.Name
		}
	}
	p.Role = role
	if st := doc.StaffMember(id); st != nil {
		st.Role = role
		if p.TZ == "" {
			p.TZ = st.TZ
		}
	}
	return p
}

// Partners returns copies of all partners
func (s *Service) Partners() []models.Partner {
	var out []models.Partner
	s.store.View(func(doc *models.Document) {
		for _, p := range doc.Partners {
			out = append(out, *p)
		}
	})
	return out
}

// AdminLogin grants the admin role when password matches the configured
// bcrypt hash
func (s *Service) AdminLogin(ctx context.Context, id int64, name, password string) error {
	if len(s.adminHash) == 0 {
		return models.ErrNotAuthorized
	}
	if err := bcrypt.CompareHashAndPassword(s.adminHash, []byte(password)); err != nil {
		s.logger.WithField("user_id", id).Warn("Failed admin login")
		return models.ErrNotAuthorized
	}
	return s.commit(ctx, func(doc *models.Document, _ *outbox) error {
		if p := doc.Partner(id); p != nil && p.IsPrivileged() {
			return state.ErrNoChange
		}
		upsertPartner(doc, id, name, models.RoleAdmin)
		s.audit(doc, id, "admin:login", "")
		return nil
	})
}

// AddEmployee creates or replaces the payroll data of a staff member
func (s *Service) AddEmployee(ctx context.Context, actor, id int64, name string, salaryType models.SalaryType, amount float64) error {
	if salaryType != models.SalaryDaily && salaryType != models.SalaryMonthly {
		return fmt.Errorf("%w: salary type %q", ErrInvalidAction, salaryType)
	}
	if amount < 0 {
		return ErrInvalidQuantity
	}
	return s.commit(ctx, func(doc *models.Document, _ *outbox) error {
		if err := s.requireAdmin(doc, actor); err != nil {
			return err
		}
		st := doc.StaffMember(id)
		if st == nil {
			st = &models.StaffRecord{
				ID:         id,
				Role:       models.RoleStaff,
				Attendance: make(map[string]*models.AttendanceEntry),
				Payments:   []models.Payment{},
			}
			doc.Staff = append(doc.Staff, st)
		}
		if name = strings.TrimSpace(name); name != "" {
			st.Name = name
		}
		st.SalaryType = salaryType
		st.SalaryAmount = amount
		s.audit(doc, actor, "staff:add", fmt.Sprintf("%d %s %g", id, salaryType, amount))
		return nil
	})
}

// SetRole changes the role of a user. Owners and admins become partners.
func (s *Service) SetRole(ctx context.Context, actor, id int64, role models.Role) error {
	if !role.Valid() {
		return fmt.Errorf("%w: role %q", ErrInvalidAction, role)
	}
	return s.commit(ctx, func(doc *models.Document, _ *outbox) error {
		if err := s.requireAdmin(doc, actor); err != nil {
			return err
		}
		if role == models.RoleOwner && doc.Partner(actor).Role != models.RoleOwner {
			return models.ErrNotAuthorized
		}
		st := doc.StaffMember(id)
		p := doc.Partner(id)
		if st == nil && p == nil {
			return fmt.Errorf("user %d: %w", id, models.ErrNotFound)
		}
		if p != nil || role != models.RoleStaff {
			upsertPartner(doc, id, "", role)
		} else {
			st.Role = role
		}
		s.audit(doc, actor, "role:set", fmt.Sprintf("%d %s", id, role))
		return nil
	})
}

// SetSalary updates salary type, amount and (for monthly) payday
func (s *Service) SetSalary(ctx context.Context, actor, id int64, salaryType models.SalaryType, amount float64, payday int) error {
	if salaryType != models.SalaryDaily && salaryType != models.SalaryMonthly {
		return fmt.Errorf("%w: salary type %q", ErrInvalidAction, salaryType)
	}
	if amount < 0 || payday < 0 || payday > 31 {
		return ErrInvalidQuantity
	}
	return s.commit(ctx, func(doc *models.Document, _ *outbox) error {
		if err := s.requireAdmin(doc, actor); err != nil {
			return err
		}
		st := doc.StaffMember(id)
		if st == nil {
			return fmt.Errorf("staff %d: %w", id, models.ErrNotFound)
		}
		st.SalaryType = salaryType
		st.SalaryAmount = amount
		st.Payday = payday
		s.audit(doc, actor, "salary:set", fmt.Sprintf("%d %s %g day=%d", id, salaryType, amount, payday))
		return nil
	})
}

// ClockIn marks the staff member present with an arrival time for today
// in their own timezone
func (s *Service) ClockIn(ctx context.Context, id int64) (time.Time, error) {
	now := s.now()
	err := s.commit(ctx, func(doc *models.Document, _ *outbox) error {
		st := doc.StaffMember(id)
		if st == nil {
			return fmt.Errorf("staff %d: %w", id, models.ErrNotFound)
		}
		day := st.Day(now.In(st.Location(doc.Settings.Location())).Format(models.DateLayout))
		if day.In != nil {
			return ErrAlreadyClockedIn
		}
		day.In = &now
		day.Status = models.AttendancePresent
		s.audit(doc, id, "attendance:in", "")
		return nil
	})
	return now, err
}

// ClockOut records the departure time for today
func (s *Service) ClockOut(ctx context.Context, id int64) (time.Duration, error) {
	now := s.now()
	var worked time.Duration
	err := s.commit(ctx, func(doc *models.Document, _ *outbox) error {
		st := doc.StaffMember(id)
		if st == nil {
			return fmt.Errorf("staff %d: %w", id, models.ErrNotFound)
		}
		day := st.Day(now.In(st.Location(doc.Settings.Location())).Format(models.DateLayout))
		if day.In == nil || day.Out != nil {
			return ErrNotClockedIn
		}
		day.Out = &now
		worked = now.Sub(*day.In)
		s.audit(doc, id, "attendance:out", worked.Round(time.Minute).String())
		return nil
	})
	return worked, err
}

// MarkAttendance records an admin's attendance mark for today
func (s *Service) MarkAttendance(ctx context.Context, actor, staffID int64, status models.AttendanceStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: attendance %q", ErrInvalidAction, status)
	}
	return s.commit(ctx, func(doc *models.Document, _ *outbox) error {
		if err := s.requireAdmin(doc, actor); err != nil {
			return err
		}
		st := doc.StaffMember(staffID)
		if st == nil {
			return fmt.Errorf("staff %d: %w", staffID, models.ErrNotFound)
		}
		date := s.now().In(st.Location(doc.Settings.Location())).Format(models.DateLayout)
		st.Day(date).Status = status
		s.audit(doc, actor, "attendance:"+string(status), fmt.Sprintf("%d %s", staffID, date))
		return nil
	})
}

// RecordPayDecision applies an end-of-day pay answer. A "yes" pays the
// daily wage in full; "partial" only records the answer, the amount follows
// through RecordPayment.
func (s *Service) RecordPayDecision(ctx context.Context, actor, staffID int64, decision models.PayDecision) error {
	if !decision.Valid() {
		return fmt.Errorf("%w: pay %q", ErrInvalidAction, decision)
	}
	return s.commit(ctx, func(doc *models.Document, _ *outbox) error {
		if err := s.requireAdmin(doc, actor); err != nil {
			return err
		}
		st := doc.StaffMember(staffID)
		if st == nil {
			return fmt.Errorf("staff %d: %w", staffID, models.ErrNotFound)
		}
		date := s.now().In(doc.Settings.Location()).Format(models.DateLayout)
		doc.SetPayDecision(date, staffID, decision)
		if decision == models.PayYes {
			s.appendPayment(st, date, st.SalaryAmount, models.PaymentFull, actor)
		}
		s.audit(doc, actor, "pay:"+string(decision), fmt.Sprintf("%d %s", staffID, date))
		return nil
	})
}

// RecordPayment stores a payout of amount to a staff member for today
func (s *Service) RecordPayment(ctx context.Context, actor, staffID int64, amount float64, kind models.PaymentKind) error {
	if amount <= 0 {
		return ErrInvalidQuantity
	}
	return s.commit(ctx, func(doc *models.Document, _ *outbox) error {
		if err := s.requireAdmin(doc, actor); err != nil {
			return err
		}
		st := doc.StaffMember(staffID)
		if st == nil {
			return fmt.Errorf("staff %d: %w", staffID, models.ErrNotFound)
		}
		date := s.now().In(doc.Settings.Location()).Format(models.DateLayout)
		if kind == models.PaymentPartial {
			doc.SetPayDecision(date, staffID, models.PayPartial)
		}
		s.appendPayment(st, date, amount, kind, actor)
		s.audit(doc, actor, "payment", fmt.Sprintf("%d %g %s", staffID, amount, kind))
		return nil
	})
}

func (s *Service) appendPayment(st *models.StaffRecord, date string, amount float64, kind models.PaymentKind, by int64) {
	st.Payments = append(st.Payments, models.Payment{
		ID:        uuid.NewString(),
		Date:      date,
		Amount:    amount,
		Kind:      kind,
		PaidBy:    by,
		CreatedAt: s.now(),
	})
}

// StaffMember returns a copy of a staff record
func (s *Service) StaffMember(id int64) (models.StaffRecord, bool) {
	var (
		out models.StaffRecord
		ok  bool
	)
	s.store.View(func(doc *models.Document) {
		if st := doc.StaffMember(id); st != nil {
			out, ok = *st, true
		}
	})
	return out, ok
}

// AttendancePrompt asks admins to mark each unmarked staff member once per
// business day, after the configured prompt time
func (s *Service) AttendancePrompt(ctx context.Context, now time.Time) error {
	return s.commit(ctx, func(doc *models.Document, ob *outbox) error {
		loc := doc.Settings.Location()
		key := models.SentKey{Kind: markerAttendance, Ref: "prompt"}
		if !models.ReachedClock(now, loc, doc.Settings.AttendancePromptTime) || doc.LastSent.SentOn(key, now, loc) {
			return state.ErrNoChange
		}
		admins := notify.AdminIDs(doc)

		for _, st := range sortedStaff(doc) {
			if st.Role != models.RoleStaff {
				continue
			}
			date := now.In(st.Location(loc)).Format(models.DateLayout)
			if e, ok := st.Attendance[date]; ok && e.Status != "" {
				continue
			}
			id := strconv.FormatInt(st.ID, 10)
			ob.all(admins, notify.Message{
				Kind: "attendance_prompt",
				Text: fmt.Sprintf("🕘 Attendance for %s on %s?", staffName(st), date),
				Buttons: [][]notify.Button{notify.Row(
					notify.Button{Text: "✅ Present", Data: "att:" + id + ":" + string(models.AttendancePresent)},
					notify.Button{Text: "❌ Absent", Data: "att:" + id + ":" + string(models.AttendanceAbsent)},
					notify.Button{Text: "🌴 Leave", Data: "att:" + id + ":" + string(models.AttendanceLeave)},
				)},
			})
		}
		doc.LastSent[key] = now
		s.logger.WithField("prompts", ob.len()).Info("Sent attendance prompts")
		return nil
	})
}

// PaymentCheck asks admins whether each present daily-wage staff member
// was paid, once per business day after the end-of-day check time
func (s *Service) PaymentCheck(ctx context.Context, now time.Time) error {
	return s.commit(ctx, func(doc *models.Document, ob *outbox) error {
		loc := doc.Settings.Location()
		key := models.SentKey{Kind: markerPayCheck, Ref: "daily"}
		if !models.ReachedClock(now, loc, doc.Settings.EndOfDayPaymentCheck) || doc.LastSent.SentOn(key, now, loc) {
			return state.ErrNoChange
		}
		date := now.In(loc).Format(models.DateLayout)
		admins := notify.AdminIDs(doc)

		for _, st := range sortedStaff(doc) {
			if st.SalaryType != models.SalaryDaily {
				continue
			}
			if e, ok := st.Attendance[date]; !ok || e.Status != models.AttendancePresent {
				continue
			}
			if _, answered := doc.PayDecision(date, st.ID); answered {
				continue
			}
			id := strconv.FormatInt(st.ID, 10)
			ob.all(admins, notify.Message{
				Kind: "pay_prompt",
				Text: fmt.Sprintf("💰 Was %s paid today's wage of %s?", staffName(st), formatQty(st.SalaryAmount)),
				Buttons: [][]notify.Button{notify.Row(
					notify.Button{Text: "✅ Paid", Data: "pay:" + id + ":" + string(models.PayYes)},
					notify.Button{Text: "➗ Partial", Data: "pay:" + id + ":" + string(models.PayPartial)},
					notify.Button{Text: "❌ Not paid", Data: "pay:" + id + ":" + string(models.PayNo)},
				)},
			})
		}
		doc.LastSent[key] = now
		return nil
	})
}

// MonthlyPaydayReminder warns admins about monthly salaries falling due
// within the configured number of days. It runs once per business day,
// together with the attendance prompt.
func (s *Service) MonthlyPaydayReminder(ctx context.Context, now time.Time) error {
	return s.commit(ctx, func(doc *models.Document, ob *outbox) error {
		loc := doc.Settings.Location()
		key := models.SentKey{Kind: markerPayday, Ref: "monthly"}
		if !models.ReachedClock(now, loc, doc.Settings.AttendancePromptTime) || doc.LastSent.SentOn(key, now, loc) {
			return state.ErrNoChange
		}
		local := now.In(loc)
		today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
		admins := notify.AdminIDs(doc)

		for _, st := range sortedStaff(doc) {
			if st.SalaryType != models.SalaryMonthly || st.Payday == 0 {
				continue
			}
			due := NextPayday(today, st.Payday)
			days := int(due.Sub(today).Hours() / 24)
			if days > doc.Settings.MonthlyReminderDaysBefore {
				continue
			}
			ob.all(admins, notify.Message{
				Kind: "payday_reminder",
				Text: fmt.Sprintf("📅 Salary of %s for %s is due on %s (in %d days).",
					staffName(st), formatQty(st.SalaryAmount), due.Format(models.DateLayout), days),
			})
		}
		doc.LastSent[key] = now
		return nil
	})
}

// NextPayday returns the next date on or after today falling on payday,
// clamped to the last day of shorter months
func NextPayday(today time.Time, payday int) time.Time {
	candidate := clampDay(today.Year(), today.Month(), payday, today.Location())
	if candidate.Before(today) {
		next := today.AddDate(0, 0, -today.Day()+1).AddDate(0, 1, 0)
		candidate = clampDay(next.Year(), next.Month(), payday, today.Location())
	}
	return candidate
}

func clampDay(year int, month time.Month, day int, loc *time.Location) time.Time {
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
	if day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

// PayrollSummary renders earnings and payments for month ("2006-01")
func (s *Service) PayrollSummary(month string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("💼 Payroll for %s\n\n", month))
	s.store.View(func(doc *models.Document) {
		staff := sortedStaff(doc)
		if len(staff) == 0 {
			sb.WriteString("No staff registered.")
			return
		}
		for _, st := range staff {
			earned := st.Earned(month)
			paid := st.PaidTotal(month)
			sb.WriteString(fmt.Sprintf("%s (%s): %d days, earned %s, paid %s, due %s\n",
				staffName(st), st.SalaryType, st.DaysPresent(month),
				formatQty(earned), formatQty(paid), formatQty(earned-paid)))
		}
	})
	return sb.String()
}

// AttendanceReport renders today's attendance marks
func (s *Service) AttendanceReport(now time.Time) string {
	var sb strings.Builder
	s.store.View(func(doc *models.Document) {
		date := now.In(doc.Settings.Location()).Format(models.DateLayout)
		sb.WriteString(fmt.Sprintf("🗓 Attendance %s\n\n", date))
		for _, st := range sortedStaff(doc) {
			status := "unmarked"
			var extra string
			if e, ok := st.Attendance[date]; ok {
				if e.Status != "" {
					status = string(e.Status)
				}
				if e.In != nil {
					extra = " in " + e.In.In(st.Location(doc.Settings.Location())).Format(models.ClockLayout)
				}
				if e.Out != nil {
					extra += " out " + e.Out.In(st.Location(doc.Settings.Location())).Format(models.ClockLayout)
				}
			}
			sb.WriteString(fmt.Sprintf("%s: %s%s\n", staffName(st), status, extra))
		}
	})
	return sb.String()
}

func sortedStaff(doc *models.Document) []*models.StaffRecord {
	out := append([]*models.StaffRecord(nil), doc.Staff...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func staffName(st *models.StaffRecord) string {
	if st.Name != "" {
		return st.Name
	}
	return "#" + strconv.FormatInt(st.ID, 10)
}

// ParseCallback splits "<prefix>:<id>:<action>" callbacks used by the
// attendance and pay buttons
func ParseCallback(data, prefix string) (int64, string, error) {
	parts := strings.Split(data, ":")
	if len(parts) != 3 || parts[0] != prefix {
		return 0, "", fmt.Errorf("%w: %q", ErrInvalidAction, data)
	}
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("%w: bad id %q", ErrInvalidAction, parts[1])
	}
	return id, parts[2], nil
}

func secretMatches(want, got string) bool {
	return want != "" && subtle.ConstantTimeCompare([]byte(want), []byte(got)) == 1
}

// SetTimezone sets the IANA timezone used for a user's local schedules and
// attendance days
func (s *Service) SetTimezone(ctx context.Context, id int64, tz string) error {
	if _, err := time.LoadLocation(tz); err != nil || tz == "" {
		return fmt.Errorf("%w: unknown timezone %q", ErrInvalidInput, tz)
	}
	return s.commit(ctx, func(doc *models.Document, _ *outbox) error {
		p := doc.Partner(id)
		st := doc.StaffMember(id)
		if p == nil && st == nil {
			return fmt.Errorf("user %d: %w", id, models.ErrNotFound)
		}
		if p != nil {
			p.TZ = tz
		}
		if st != nil {
			st.TZ = tz
		}
		s.audit(doc, id, "tz:set", tz)
		return nil
	})
}
