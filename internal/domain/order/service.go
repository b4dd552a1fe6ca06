package order

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"

	"github.com/xenking/office-lunch/internal/domain/apperr"
	"github.com/xenking/office-lunch/internal/domain/employee"
	"github.com/xenking/office-lunch/internal/domain/menu"
)

// LineInput is one requested line of an order draft.
type LineInput struct {
	MenuItemID string
	Quantity   int
}

// MaxQuantity is the largest quantity a single line accepts.
const MaxQuantity = math.MaxInt32

// Draft holds the input for creating, editing or quoting an order.
type Draft struct {
	EmployeeID     string
	Items          []LineInput
	AmountPaid     decimal.Decimal
	AmountReturned decimal.Decimal
	// OrderDate defaults to now on create and to the stored date on update.
	OrderDate time.Time
}

// Validate checks the draft before any lookup is attempted.
func (d *Draft) Validate() error {
	d.EmployeeID = strings.TrimSpace(d.EmployeeID)
	if d.EmployeeID == "" {
		return apperr.Invalid("employeeId", "employee is required")
	}
	if len(d.Items) == 0 {
		return apperr.Invalid("items", "at least one item is required")
	}
	for i, it := range d.Items {
		if strings.TrimSpace(it.MenuItemID) == "" {
			return apperr.Invalid(fmt.Sprintf("items[%d].menuItemId", i), "menu item is required")
		}
		if it.Quantity <= 0 {
			return apperr.Invalid(fmt.Sprintf("items[%d].quantity", i), "must be greater than 0")
		}
		if it.Quantity > MaxQuantity {
			return apperr.Invalid(fmt.Sprintf("items[%d].quantity", i), "is too large")
		}
	}
	if d.AmountPaid.IsNegative() {
		return apperr.Invalid("amountPaid", "must not be negative")
	}
	if !menu.AmountInRange(d.AmountPaid.Round(2)) {
		return apperr.Invalid("amountPaid", "is too large")
	}
	if d.AmountReturned.IsNegative() {
		return apperr.Invalid("amountReturned", "must not be negative")
	}
	if !menu.AmountInRange(d.AmountReturned.Round(2)) {
		return apperr.Invalid("amountReturned", "is too large")
	}
	return nil
}

// checkAmounts rejects an order whose derived figures do not fit the money
// columns.
func checkAmounts(o *Order) error {
	for i, l := range o.Lines {
		if !menu.AmountInRange(l.Total()) {
			return apperr.Invalid(fmt.Sprintf("items[%d].quantity", i), "line total is too large")
		}
	}
	if !menu.AmountInRange(o.Total) {
		return apperr.Invalid("items", "order total is too large")
	}
	if !menu.AmountInRange(o.Balance) {
		return apperr.Invalid("amountReturned", "settlement balance is too large")
	}
	return nil
}

// Service implements the order creation, edit and deletion protocol.
type Service struct {
	employees employee.Repository
	menu      menu.Repository
	orders    Repository
	publisher Publisher
	idem      IdempotencyStore
	now       func() time.Time
	written   metric.Int64Counter
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher sets the destination of order events.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithMeterProvider enables the orders-written counter.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(s *Service) {
		c, err := mp.Meter("github.com/xenking/office-lunch/internal/domain/order").Int64Counter(
			"lunch.orders.written",
			metric.WithDescription("Orders written, by operation and payment status"),
		)
		if err == nil {
			s.written = c
		}
	}
}

func withClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates an order Service with the required domain dependencies.
func NewService(
	employees employee.Repository,
	menuItems menu.Repository,
	orders Repository,
	opts ...Option,
) *Service {
	nopCounter, _ := noop.NewMeterProvider().Meter("").Int64Counter("")
	s := &Service{
		employees: employees,
		menu:      menuItems,
		orders:    orders,
		publisher: nopPublisher{},
		now:       time.Now,
		written:   nopCounter,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// List returns every order.
func (s *Service) List(ctx context.Context) ([]Order, error) {
	return s.orders.List(ctx)
}

// Get returns a single order or ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	return s.orders.Get(ctx, id)
}

// Quote runs validation, pricing and settlement without persisting anything.
func (s *Service) Quote(ctx context.Context, d Draft) (*Order, error) {
	return s.build(ctx, d, nil)
}

// Create validates the draft, prices it, classifies the settlement and
// persists header and lines together.
func (s *Service) Create(ctx context.Context, d Draft) (*Order, error) {
	o, err := s.build(ctx, d, nil)
	if err != nil {
		return nil, err
	}
	o.ID = uuid.New().String()

	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	s.record(ctx, "create", o.Status)
	s.publish(ctx, EventCreated, o)
	return o, nil
}

// Update replaces an existing order with the draft. The full line set is
// replaced. Lines for menu items already on the order keep their captured
// unit price.
func (s *Service) Update(ctx context.Context, id string, d Draft) (*Order, error) {
	prev, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	o, err := s.build(ctx, d, prev)
	if err != nil {
		return nil, err
	}
	o.ID = prev.ID
	o.CreatedAt = prev.CreatedAt
	if d.OrderDate.IsZero() {
		o.OrderDate = prev.OrderDate
	}

	if err := s.orders.Update(ctx, o); err != nil {
		return nil, errors.Wrap(err, "update order")
	}

	s.record(ctx, "update", o.Status)
	s.publish(ctx, EventUpdated, o)
	return o, nil
}

// Delete removes the order and all its lines.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.orders.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, EventDeleted, &Order{ID: id})
	return nil
}

func (s *Service) build(ctx context.Context, d Draft, prev *Order) (*Order, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	emp, err := s.resolveEmployee(ctx, d.EmployeeID, prev)
	if err != nil {
		return nil, err
	}

	// Batch fetch every referenced menu item.
	seen := make(map[string]struct{}, len(d.Items))
	ids := make([]string, 0, len(d.Items))
	for _, it := range d.Items {
		if _, ok := seen[it.MenuItemID]; ok {
			continue
		}
		seen[it.MenuItemID] = struct{}{}
		ids = append(ids, it.MenuItemID)
	}
	items, err := s.menu.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get menu items")
	}

	captured := make(map[string]Line)
	if prev != nil {
		for _, l := range prev.Lines {
			if _, ok := captured[l.MenuItemID]; !ok {
				captured[l.MenuItemID] = l
			}
		}
	}

	b := NewBuilder(menu.NewCatalog(items))
	for _, it := range d.Items {
		if l, ok := captured[it.MenuItemID]; ok {
			err = b.addCaptured(l, it.Quantity)
		} else {
			err = b.Add(it.MenuItemID, it.Quantity)
		}
		if err != nil {
			return nil, err
		}
	}

	total := b.Total()
	orderDate := d.OrderDate
	if orderDate.IsZero() {
		orderDate = s.now()
	}

	o := &Order{
		EmployeeID:     emp.ID,
		Employee:       emp,
		Lines:          b.Lines(),
		Total:          total,
		AmountPaid:     d.AmountPaid.Round(2),
		AmountReturned: d.AmountReturned.Round(2),
		Settlement:     Settle(total, d.AmountPaid.Round(2), d.AmountReturned.Round(2)),
		OrderDate:      orderDate,
	}
	if err := checkAmounts(o); err != nil {
		return nil, err
	}
	return o, nil
}

// resolveEmployee loads the employee of a draft. Inactive employees are only
// accepted when they are already the owner of the order being edited.
func (s *Service) resolveEmployee(ctx context.Context, id string, prev *Order) (*employee.Employee, error) {
	emp, err := s.employees.Get(ctx, id)
	if err != nil {
		if errors.Is(err, employee.ErrNotFound) {
			return nil, &apperr.ReferenceNotFoundError{Kind: "employee", ID: id}
		}
		return nil, errors.Wrap(err, "get employee")
	}
	if !emp.Active && (prev == nil || prev.EmployeeID != emp.ID) {
		return nil, apperr.Invalid("employeeId", "employee is not active")
	}
	return emp, nil
}

func (s *Service) record(ctx context.Context, op string, st Status) {
	s.written.Add(ctx, 1, metric.WithAttributes(
		attribute.String("op", op),
		attribute.String("status", string(st)),
	))
}

// publish emits an order event. Delivery is best-effort: the write has
// already been committed.
func (s *Service) publish(ctx context.Context, typ EventType, o *Order) {
	ev := Event{
		Type:       typ,
		OrderID:    o.ID,
		EmployeeID: o.EmployeeID,
		Total:      o.Total,
		Status:     o.Status,
		At:         s.now(),
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		zctx.From(ctx).Warn("Publish order event failed",
			zap.String("event", string(typ)),
			zap.String("order_id", o.ID),
			zap.Error(err),
		)
	}
}
