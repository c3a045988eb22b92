package session

import "github.com/Kerhoff/KitchenboT/internal/models"

// AddItemEffect creates an inventory item
type AddItemEffect struct {
	Name       string
	Unit       string
	Stock      float64
	DailyUsage float64
}

// PurchaseEffect adds stock to an item
type PurchaseEffect struct {
	Item string
	Qty  float64
}

// SetUsageEffect changes an item's daily usage
type SetUsageEffect struct {
	Item  string
	Usage float64
}

func (AddItemEffect) effect()  {}
func (PurchaseEffect) effect() {}
func (SetUsageEffect) effect() {}

type AddItemName struct{}

func (AddItemName) Action() models.FlowAction        { return models.FlowAddItem }
func (AddItemName) Prompt() string                   { return "📦 New item name?" }
func (AddItemName) encode() (int, map[string]string) { return 0, nil }
func (AddItemName) Step(in string, _ Env) (State, Effect, error) {
	name, err := nonEmpty(in, "Item name")
	if err != nil {
		return nil, nil, err
	}
	return AddItemUnit{Name: name}, nil, nil
}

type AddItemUnit struct{ Name string }

func (AddItemUnit) Action() models.FlowAction { return models.FlowAddItem }
func (s AddItemUnit) Prompt() string {
	return "Unit for " + s.Name + "? (kg, l, pcs...)"
}
func (s AddItemUnit) encode() (int, map[string]string) {
	return 1, map[string]string{"name": s.Name}
}
func (s AddItemUnit) Step(in string, _ Env) (State, Effect, error) {
	unit, err := nonEmpty(in, "Unit")
	if err != nil {
		return nil, nil, err
	}
	return AddItemStock{Name: s.Name, Unit: unit}, nil, nil
}

type AddItemStock struct{ Name, Unit string }

func (AddItemStock) Action() models.FlowAction { return models.FlowAddItem }
func (s AddItemStock) Prompt() string {
	return "Current stock of " + s.Name + " in " + s.Unit + "?"
}
func (s AddItemStock) encode() (int, map[string]string) {
	return 2, map[string]string{"name": s.Name, "unit": s.Unit}
}
func (s AddItemStock) Step(in string, _ Env) (State, Effect, error) {
	v, err := parseAmount(in)
	if err != nil {
		return nil, nil, err
	}
	return AddItemUsage{Name: s.Name, Unit: s.Unit, Stock: v}, nil, nil
}

type AddItemUsage struct {
	Name, Unit string
	Stock      float64
}

func (AddItemUsage) Action() models.FlowAction { return models.FlowAddItem }
func (s AddItemUsage) Prompt() string {
	return "Average daily usage of " + s.Name + " in " + s.Unit + "? (0 if unknown)"
}
func (s AddItemUsage) encode() (int, map[string]string) {
	return 3, map[string]string{"name": s.Name, "unit": s.Unit, "stock": ftoa(s.Stock)}
}
func (s AddItemUsage) Step(in string, _ Env) (State, Effect, error) {
	v, err := parseAmount(in)
	if err != nil {
		return nil, nil, err
	}
	return nil, AddItemEffect{Name: s.Name, Unit: s.Unit, Stock: s.Stock, DailyUsage: v}, nil
}

func decodeAddItem(step int, t temp) (State, error) {
	switch step {
	case 0:
		return AddItemName{}, nil
	case 1:
		return AddItemUnit{Name: t["name"]}, nil
	case 2:
		return AddItemStock{Name: t["name"], Unit: t["unit"]}, nil
	case 3:
		return AddItemUsage{Name: t["name"], Unit: t["unit"], Stock: t.float("stock")}, nil
	}
	return nil, nil
}

type PurchaseItem struct{}

func (PurchaseItem) Action() models.FlowAction        { return models.FlowPurchase }
func (PurchaseItem) Prompt() string                   { return "🛒 Which item was purchased?" }
func (PurchaseItem) encode() (int, map[string]string) { return 0, nil }
func (PurchaseItem) Step(in string, _ Env) (State, Effect, error) {
	item, err := nonEmpty(in, "Item")
	if err != nil {
		return nil, nil, err
	}
	return PurchaseQty{Item: item}, nil, nil
}

type PurchaseQty struct{ Item string }

func (PurchaseQty) Action() models.FlowAction { return models.FlowPurchase }
func (s PurchaseQty) Prompt() string          { return "How much " + s.Item + " was bought?" }
func (s PurchaseQty) encode() (int, map[string]string) {
	return 1, map[string]string{"item": s.Item}
}
func (s PurchaseQty) Step(in string, _ Env) (State, Effect, error) {
	v, err := parsePositive(in)
	if err != nil {
		return nil, nil, err
	}
	return nil, PurchaseEffect{Item: s.Item, Qty: v}, nil
}

func decodePurchase(step int, t temp) (State, error) {
	switch step {
	case 0:
		return PurchaseItem{}, nil
	case 1:
		return PurchaseQty{Item: t["item"]}, nil
	}
	return nil, nil
}

type UsageItem struct{}

func (UsageItem) Action() models.FlowAction        { return models.FlowSetUsage }
func (UsageItem) Prompt() string                   { return "📉 Which item's daily usage should change?" }
func (UsageItem) encode() (int, map[string]string) { return 0, nil }
func (UsageItem) Step(in string, _ Env) (State, Effect, error) {
	item, err := nonEmpty(in, "Item")
	if err != nil {
		return nil, nil, err
	}
	return UsageValue{Item: item}, nil, nil
}

type UsageValue struct{ Item string }

func (UsageValue) Action() models.FlowAction { return models.FlowSetUsage }
func (s UsageValue) Prompt() string          { return "New daily usage of " + s.Item + "?" }
func (s UsageValue) encode() (int, map[string]string) {
	return 1, map[string]string{"item": s.Item}
}
func (s UsageValue) Step(in string, _ Env) (State, Effect, error) {
	v, err := parseAmount(in)
	if err != nil {
		return nil, nil, err
	}
	return nil, SetUsageEffect{Item: s.Item, Usage: v}, nil
}

func decodeUsage(step int, t temp) (State, error) {
	switch step {
	case 0:
		return UsageItem{}, nil
	case 1:
		return UsageValue{Item: t["item"]}, nil
	}
	return nil, nil
}
