// Package report computes the dashboard aggregates over a fully loaded order
// collection. Every function rescans its input; nothing is cached between
// calls and the input is never modified.
package report

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/office-lunch/internal/domain/order"
)

// CashEntry is the cash-in-hand contribution of a single order.
type CashEntry struct {
	OrderID      string
	EmployeeName string
	AmountPaid   decimal.Decimal
	Change       decimal.Decimal
	CashInHand   decimal.Decimal
}

// DebtEntry is an outstanding amount grouped by employee.
type DebtEntry struct {
	EmployeeName string
	Amount       decimal.Decimal
}

// ItemQuantity is the total quantity ordered of one menu item.
type ItemQuantity struct {
	ItemName string
	Quantity int
}

// Reporter aggregates orders. Malformed orders are skipped with a warning so
// that a single bad record never breaks the dashboard.
type Reporter struct {
	lg *zap.Logger
}

// New creates a Reporter. A nil logger discards skip warnings.
func New(lg *zap.Logger) *Reporter {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &Reporter{lg: lg}
}

// usable reports whether o carries everything the aggregates need.
func (r *Reporter) usable(o *order.Order) bool {
	var reason string
	switch {
	case o.ID == "":
		reason = "missing id"
	case !o.Status.Valid():
		reason = "unknown payment status"
	case len(o.Lines) == 0:
		reason = "no lines"
	default:
		return true
	}
	r.lg.Warn("Skipping malformed order",
		zap.String("order_id", o.ID),
		zap.String("reason", reason),
	)
	return false
}

// cashContribution is what an order adds to the cash in hand.
func cashContribution(o *order.Order) decimal.Decimal {
	switch o.Status {
	case order.StatusCompleted:
		return o.Total
	case order.StatusEmployeeOwes:
		return decimal.Max(o.AmountPaid, decimal.Zero)
	default:
		return o.AmountPaid.Sub(o.Change)
	}
}

// intermediaryDebt is the change the intermediary has not handed back yet
// for an office-credit order.
func intermediaryDebt(o *order.Order) decimal.Decimal {
	return o.Balance.Neg()
}

// employeeDebt is what the employee owes for an employee-debt order.
func employeeDebt(o *order.Order) decimal.Decimal {
	return o.Total.Sub(o.AmountPaid)
}

// CashOnHand sums the cash contribution of every order.
func (r *Reporter) CashOnHand(orders []order.Order) decimal.Decimal {
	sum := decimal.Zero
	for i := range orders {
		if o := &orders[i]; r.usable(o) {
			sum = sum.Add(cashContribution(o))
		}
	}
	return sum
}

// CashOnHandDetails lists the cash contribution of each order.
func (r *Reporter) CashOnHandDetails(orders []order.Order) []CashEntry {
	out := make([]CashEntry, 0, len(orders))
	for i := range orders {
		o := &orders[i]
		if !r.usable(o) {
			continue
		}
		out = append(out, CashEntry{
			OrderID:      o.ID,
			EmployeeName: o.EmployeeName(),
			AmountPaid:   o.AmountPaid,
			Change:       o.Change,
			CashInHand:   cashContribution(o),
		})
	}
	return out
}

// IntermediaryDebt totals what the intermediary still owes employees.
func (r *Reporter) IntermediaryDebt(orders []order.Order) decimal.Decimal {
	return r.sum(orders, order.StatusIntermediaryOwes, intermediaryDebt)
}

// IntermediaryDebtByEmployee groups IntermediaryDebt by employee name.
func (r *Reporter) IntermediaryDebtByEmployee(orders []order.Order) []DebtEntry {
	return r.group(orders, order.StatusIntermediaryOwes, intermediaryDebt)
}

// EmployeeDebt totals what employees owe.
func (r *Reporter) EmployeeDebt(orders []order.Order) decimal.Decimal {
	return r.sum(orders, order.StatusEmployeeOwes, employeeDebt)
}

// EmployeeDebtByEmployee groups EmployeeDebt by employee name.
func (r *Reporter) EmployeeDebtByEmployee(orders []order.Order) []DebtEntry {
	return r.group(orders, order.StatusEmployeeOwes, employeeDebt)
}

func (r *Reporter) sum(orders []order.Order, st order.Status, amount func(*order.Order) decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for i := range orders {
		o := &orders[i]
		if o.Status != st || !r.usable(o) {
			continue
		}
		total = total.Add(amount(o))
	}
	return total
}

// group sums amount per employee name in first-encounter order and keeps only
// groups with a positive total.
func (r *Reporter) group(orders []order.Order, st order.Status, amount func(*order.Order) decimal.Decimal) []DebtEntry {
	idx := make(map[string]int)
	var groups []DebtEntry
	for i := range orders {
		o := &orders[i]
		if o.Status != st || !r.usable(o) {
			continue
		}
		name := o.EmployeeName()
		j, ok := idx[name]
		if !ok {
			j = len(groups)
			idx[name] = j
			groups = append(groups, DebtEntry{EmployeeName: name, Amount: decimal.Zero})
		}
		groups[j].Amount = groups[j].Amount.Add(amount(o))
	}

	out := groups[:0]
	for _, g := range groups {
		if g.Amount.IsPositive() {
			out = append(out, g)
		}
	}
	return out
}

// ItemsSummary totals quantities per item name across every order line.
// Lines whose menu item no longer resolves are labelled "Item <id>". Output
// follows first-encounter order; use SortItems for a stable ranking.
func (r *Reporter) ItemsSummary(orders []order.Order) []ItemQuantity {
	idx := make(map[string]int)
	var out []ItemQuantity
	for i := range orders {
		o := &orders[i]
		if !r.usable(o) {
			continue
		}
		for _, l := range o.Lines {
			name := l.MenuItemName
			if name == "" {
				name = fmt.Sprintf("Item %s", l.MenuItemID)
			}
			j, ok := idx[name]
			if !ok {
				j = len(out)
				idx[name] = j
				out = append(out, ItemQuantity{ItemName: name})
			}
			out[j].Quantity += l.Quantity
		}
	}
	return out
}

// SortBy selects the ordering applied by SortItems.
type SortBy string

const (
	SortByQuantity SortBy = "quantity"
	SortByName     SortBy = "name"
)

// SortItems returns a sorted copy of items: by descending quantity (ties by
// name) or by name.
func SortItems(items []ItemQuantity, by SortBy) []ItemQuantity {
	out := slices.Clone(items)
	slices.SortFunc(out, func(a, b ItemQuantity) int {
		if by == SortByQuantity {
			if c := cmp.Compare(b.Quantity, a.Quantity); c != 0 {
				return c
			}
		}
		return cmp.Compare(a.ItemName, b.ItemName)
	})
	return out
}
