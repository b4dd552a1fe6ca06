package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/office-lunch/internal/domain/employee"
)

// ErrNotFound is returned when a requested order does not exist.
var ErrNotFound = errors.New("order not found")

// Status is the payment state of an order. It is derived from the settlement
// balance and never set independently.
type Status string

const (
	// StatusCompleted means the intermediary returned exactly the change owed.
	StatusCompleted Status = "completed"
	// StatusEmployeeOwes means the employee received more change than owed.
	StatusEmployeeOwes Status = "employee-debt"
	// StatusIntermediaryOwes means the intermediary still owes change.
	StatusIntermediaryOwes Status = "office-credit"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusCompleted, StatusEmployeeOwes, StatusIntermediaryOwes:
		return true
	}
	return false
}

// Label returns the human readable form shown in order lists.
func (s Status) Label() string {
	switch s {
	case StatusCompleted:
		return "Completed"
	case StatusEmployeeOwes:
		return "Employee Debt"
	case StatusIntermediaryOwes:
		return "Office Credit"
	}
	return string(s)
}

// Line is a single menu item on an order. MenuItemID is a weak reference:
// the item may have been deleted since, in which case MenuItemName is empty.
type Line struct {
	ID           string
	MenuItemID   string
	MenuItemName string
	Quantity     int
	UnitPrice    decimal.Decimal
}

// Total returns Quantity × UnitPrice.
func (l Line) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Order is a lunch order together with its settlement figures.
type Order struct {
	ID         string
	EmployeeID string
	// Employee is resolved on read and nil when the employee was deleted.
	Employee       *employee.Employee
	Lines          []Line
	Total          decimal.Decimal
	AmountPaid     decimal.Decimal
	AmountReturned decimal.Decimal
	Settlement
	OrderDate time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// EmployeeName returns the resolved employee name or "Unknown".
func (o *Order) EmployeeName() string {
	if o.Employee == nil || o.Employee.Name == "" {
		return "Unknown"
	}
	return o.Employee.Name
}

// Repository defines persistence operations for orders. Create and Update
// write the header and the full line set as one unit.
type Repository interface {
	// List returns every order with employee and menu item names resolved.
	List(ctx context.Context) ([]Order, error)
	Get(ctx context.Context, id string) (*Order, error)
	Create(ctx context.Context, o *Order) error
	// Update replaces the header fields and all lines of an existing order.
	Update(ctx context.Context, o *Order) error
	// Delete removes the order and its lines.
	Delete(ctx context.Context, id string) error
}

// EventType names an order lifecycle event.
type EventType string

const (
	EventCreated EventType = "order.created"
	EventUpdated EventType = "order.updated"
	EventDeleted EventType = "order.deleted"
)

// Event is emitted after an order write has been committed.
type Event struct {
	Type       EventType
	OrderID    string
	EmployeeID string
	Total      decimal.Decimal
	Status     Status
	At         time.Time
}

// Publisher delivers order events to interested parties.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, Event) error { return nil }
