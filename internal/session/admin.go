package session

import (
	"strings"

	"github.com/Kerhoff/KitchenboT/internal/models"
)

// AdminLoginEffect checks a password against the admin hash
type AdminLoginEffect struct{ Password string }

// PayPartialEffect records a partial wage payment
type PayPartialEffect struct {
	StaffID int64
	Amount  float64
}

// AddEmployeeEffect creates or updates a staff payroll record
type AddEmployeeEffect struct {
	ID         int64
	Name       string
	SalaryType models.SalaryType
	Amount     float64
}

// SetRoleEffect changes a user's role
type SetRoleEffect struct {
	ID   int64
	Role models.Role
}

// SetSalaryEffect changes a staff member's salary
type SetSalaryEffect struct {
	ID         int64
	SalaryType models.SalaryType
	Amount     float64
	Payday     int
}

func (AdminLoginEffect) effect()  {}
func (PayPartialEffect) effect()  {}
func (AddEmployeeEffect) effect() {}
func (SetRoleEffect) effect()     {}
func (SetSalaryEffect) effect()   {}

type AdminPassword struct{}

func (AdminPassword) Action() models.FlowAction        { return models.FlowAdminLogin }
func (AdminPassword) Prompt() string                   { return "🔑 Send the admin password" }
func (AdminPassword) encode() (int, map[string]string) { return 0, nil }
func (AdminPassword) Step(in string, _ Env) (State, Effect, error) {
	pw := strings.TrimSpace(in)
	if pw == "" {
		return nil, nil, invalid("❌ Password cannot be empty")
	}
	return nil, AdminLoginEffect{Password: pw}, nil
}

// PayPartialAmount asks how much of a wage was paid. It is started from the
// "partial" pay button, which supplies StaffID.
type PayPartialAmount struct{ StaffID int64 }

func (PayPartialAmount) Action() models.FlowAction { return models.FlowPayPartial }
func (PayPartialAmount) Prompt() string            { return "➗ How much was paid?" }
func (s PayPartialAmount) encode() (int, map[string]string) {
	return 0, map[string]string{"staff": itoa(s.StaffID)}
}
func (s PayPartialAmount) Step(in string, _ Env) (State, Effect, error) {
	v, err := parsePositive(in)
	if err != nil {
		return nil, nil, err
	}
	return nil, PayPartialEffect{StaffID: s.StaffID, Amount: v}, nil
}

type EmployeeID struct{}

func (EmployeeID) Action() models.FlowAction        { return models.FlowAddEmployee }
func (EmployeeID) Prompt() string                   { return "👤 Telegram user id of the employee?" }
func (EmployeeID) encode() (int, map[string]string) { return 0, nil }
func (EmployeeID) Step(in string, _ Env) (State, Effect, error) {
	id, err := parseUserID(in)
	if err != nil {
		return nil, nil, err
	}
	return EmployeeName{ID: id}, nil, nil
}

type EmployeeName struct{ ID int64 }

func (EmployeeName) Action() models.FlowAction { return models.FlowAddEmployee }
func (EmployeeName) Prompt() string            { return "Name?" }
func (s EmployeeName) encode() (int, map[string]string) {
	return 1, map[string]string{"id": itoa(s.ID)}
}
func (s EmployeeName) Step(in string, _ Env) (State, Effect, error) {
	name, err := nonEmpty(in, "Name")
	if err != nil {
		return nil, nil, err
	}
	return EmployeeSalaryType{ID: s.ID, Name: name}, nil, nil
}

type EmployeeSalaryType struct {
	ID   int64
	Name string
}

func (EmployeeSalaryType) Action() models.FlowAction { return models.FlowAddEmployee }
func (EmployeeSalaryType) Prompt() string            { return "Salary type? (daily / monthly)" }
func (s EmployeeSalaryType) encode() (int, map[string]string) {
	return 2, map[string]string{"id": itoa(s.ID), "name": s.Name}
}
func (s EmployeeSalaryType) Step(in string, _ Env) (State, Effect, error) {
	st, err := parseSalaryType(in)
	if err != nil {
		return nil, nil, err
	}
	return EmployeeAmount{ID: s.ID, Name: s.Name, SalaryType: st}, nil, nil
}

type EmployeeAmount struct {
	ID         int64
	Name       string
	SalaryType models.SalaryType
}

func (EmployeeAmount) Action() models.FlowAction { return models.FlowAddEmployee }
func (s EmployeeAmount) Prompt() string {
	return "Salary amount (" + string(s.SalaryType) + ")?"
}
func (s EmployeeAmount) encode() (int, map[string]string) {
	return 3, map[string]string{"id": itoa(s.ID), "name": s.Name, "type": string(s.SalaryType)}
}
func (s EmployeeAmount) Step(in string, _ Env) (State, Effect, error) {
	v, err := parseAmount(in)
	if err != nil {
		return nil, nil, err
	}
	return nil, AddEmployeeEffect{ID: s.ID, Name: s.Name, SalaryType: s.SalaryType, Amount: v}, nil
}

func decodeEmployee(step int, t temp) (State, error) {
	switch step {
	case 0:
		return EmployeeID{}, nil
	case 1:
		return EmployeeName{ID: t.int("id")}, nil
	case 2:
		return EmployeeSalaryType{ID: t.int("id"), Name: t["name"]}, nil
	case 3:
		return EmployeeAmount{ID: t.int("id"), Name: t["name"], SalaryType: models.SalaryType(t["type"])}, nil
	}
	return nil, nil
}

type RoleUser struct{}

func (RoleUser) Action() models.FlowAction        { return models.FlowSetRole }
func (RoleUser) Prompt() string                   { return "🎖 Telegram user id?" }
func (RoleUser) encode() (int, map[string]string) { return 0, nil }
func (RoleUser) Step(in string, _ Env) (State, Effect, error) {
	id, err := parseUserID(in)
	if err != nil {
		return nil, nil, err
	}
	return RoleValue{ID: id}, nil, nil
}

type RoleValue struct{ ID int64 }

func (RoleValue) Action() models.FlowAction { return models.FlowSetRole }
func (RoleValue) Prompt() string            { return "Role? (owner / admin / staff)" }
func (s RoleValue) encode() (int, map[string]string) {
	return 1, map[string]string{"id": itoa(s.ID)}
}
func (s RoleValue) Step(in string, _ Env) (State, Effect, error) {
	role := models.Role(strings.ToLower(strings.TrimSpace(in)))
	if !role.Valid() {
		return nil, nil, invalid("❌ Role must be owner, admin or staff")
	}
	return nil, SetRoleEffect{ID: s.ID, Role: role}, nil
}

func decodeRole(step int, t temp) (State, error) {
	switch step {
	case 0:
		return RoleUser{}, nil
	case 1:
		return RoleValue{ID: t.int("id")}, nil
	}
	return nil, nil
}

type SalaryUser struct{}

func (SalaryUser) Action() models.FlowAction        { return models.FlowSetSalary }
func (SalaryUser) Prompt() string                   { return "💵 Telegram user id of the employee?" }
func (SalaryUser) encode() (int, map[string]string) { return 0, nil }
func (SalaryUser) Step(in string, _ Env) (State, Effect, error) {
	id, err := parseUserID(in)
	if err != nil {
		return nil, nil, err
	}
	return SalaryTypeChoice{ID: id}, nil, nil
}

type SalaryTypeChoice struct{ ID int64 }

func (SalaryTypeChoice) Action() models.FlowAction { return models.FlowSetSalary }
func (SalaryTypeChoice) Prompt() string            { return "Salary type? (daily / monthly)" }
func (s SalaryTypeChoice) encode() (int, map[string]string) {
	return 1, map[string]string{"id": itoa(s.ID)}
}
func (s SalaryTypeChoice) Step(in string, _ Env) (State, Effect, error) {
	st, err := parseSalaryType(in)
	if err != nil {
		return nil, nil, err
	}
	return SalaryAmount{ID: s.ID, SalaryType: st}, nil, nil
}

type SalaryAmount struct {
	ID         int64
	SalaryType models.SalaryType
}

func (SalaryAmount) Action() models.FlowAction { return models.FlowSetSalary }
func (SalaryAmount) Prompt() string            { return "Amount?" }
func (s SalaryAmount) encode() (int, map[string]string) {
	return 2, map[string]string{"id": itoa(s.ID), "type": string(s.SalaryType)}
}
func (s SalaryAmount) Step(in string, _ Env) (State, Effect, error) {
	v, err := parseAmount(in)
	if err != nil {
		return nil, nil, err
	}
	if s.SalaryType == models.SalaryMonthly {
		return SalaryPayday{ID: s.ID, Amount: v}, nil, nil
	}
	return nil, SetSalaryEffect{ID: s.ID, SalaryType: s.SalaryType, Amount: v}, nil
}

// SalaryPayday is only reached for monthly salaries
type SalaryPayday struct {
	ID     int64
	Amount float64
}

func (SalaryPayday) Action() models.FlowAction { return models.FlowSetSalary }
func (SalaryPayday) Prompt() string            { return "Payday (day of month, 1-31)?" }
func (s SalaryPayday) encode() (int, map[string]string) {
	return 3, map[string]string{"id": itoa(s.ID), "amount": ftoa(s.Amount)}
}
func (s SalaryPayday) Step(in string, _ Env) (State, Effect, error) {
	day, err := parseUserID(in)
	if err != nil || day > 31 {
		return nil, nil, invalid("❌ Payday must be a day of month between 1 and 31")
	}
	return nil, SetSalaryEffect{ID: s.ID, SalaryType: models.SalaryMonthly, Amount: s.Amount, Payday: int(day)}, nil
}

func decodeSalary(step int, t temp) (State, error) {
	switch step {
	case 0:
		return SalaryUser{}, nil
	case 1:
		return SalaryTypeChoice{ID: t.int("id")}, nil
	case 2:
		return SalaryAmount{ID: t.int("id"), SalaryType: models.SalaryType(t["type"])}, nil
	case 3:
		return SalaryPayday{ID: t.int("id"), Amount: t.float("amount")}, nil
	}
	return nil, nil
}

func parseSalaryType(in string) (models.SalaryType, error) {
	st := models.SalaryType(strings.ToLower(strings.TrimSpace(in)))
	if st != models.SalaryDaily && st != models.SalaryMonthly {
		return "", invalid("❌ Please answer daily or monthly")
	}
	return st, nil
}
