package postgres

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/office-lunch/internal/domain/apperr"
	"github.com/xenking/office-lunch/internal/domain/employee"
	"github.com/xenking/office-lunch/internal/domain/order"
)

const (
	selectOrdersSQL = `SELECT o.id, o.employee_id,
			e.name, e.contact, e.active, e.created_at, e.updated_at,
			o.total, o.amount_paid, o.amount_returned, o.change_amount, o.balance,
			o.payment_status, o.order_date, o.created_at, o.updated_at
		FROM orders o
		LEFT JOIN employees e ON e.id = o.employee_id`

	listOrdersSQL = selectOrdersSQL + ` ORDER BY o.order_date DESC, o.id`

	listOrdersSinceSQL = selectOrdersSQL + ` WHERE o.order_date >= $1 ORDER BY o.order_date DESC, o.id`

	getOrderSQL = selectOrdersSQL + ` WHERE o.id = $1`

	listOrderLinesSQL = `SELECT i.order_id, i.id, i.menu_item_id, COALESCE(m.name, ''), i.quantity, i.unit_price
		FROM order_items i
		LEFT JOIN menu_items m ON m.id = i.menu_item_id
		WHERE i.order_id = ANY($1)
		ORDER BY i.order_id, i.position`

	createOrderSQL = `INSERT INTO orders (id, employee_id, total, amount_paid, amount_returned,
			change_amount, balance, payment_status, order_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`

	updateOrderSQL = `UPDATE orders SET employee_id = $2, total = $3, amount_paid = $4,
			amount_returned = $5, change_amount = $6, balance = $7, payment_status = $8,
			order_date = $9, updated_at = now()
		WHERE id = $1
		RETURNING created_at, updated_at`

	deleteOrderLinesSQL = `DELETE FROM order_items WHERE order_id = $1`

	deleteOrderSQL = `DELETE FROM orders WHERE id = $1`
)

var orderLineColumns = []string{
	"id", "order_id", "position", "menu_item_id", "quantity", "unit_price", "total_price",
}

var readSnapshot = pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL. Headers
// live in orders and lines in order_items; both are written in one
// transaction.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// List returns every order, latest order date first, with lines attached.
func (r *OrderRepository) List(ctx context.Context) ([]order.Order, error) {
	out, err := r.load(ctx, listOrdersSQL)
	if err != nil {
		return nil, apperr.Persistence("listing orders", err)
	}
	return out, nil
}

// ListSince returns the orders dated at or after since.
func (r *OrderRepository) ListSince(ctx context.Context, since time.Time) ([]order.Order, error) {
	out, err := r.load(ctx, listOrdersSinceSQL, since)
	if err != nil {
		return nil, apperr.Persistence("listing orders", err)
	}
	return out, nil
}

// Get returns a single order by id.
func (r *OrderRepository) Get(ctx context.Context, id string) (*order.Order, error) {
	out, err := r.load(ctx, getOrderSQL, id)
	if err != nil {
		return nil, apperr.Persistence("getting order", err)
	}
	if len(out) == 0 {
		return nil, order.ErrNotFound
	}
	return &out[0], nil
}

// Create inserts the header and all lines of o.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	if err := checkSettlement(o); err != nil {
		return err
	}
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, createOrderSQL, headerArgs(o)...).Scan(&o.CreatedAt, &o.UpdatedAt)
		if err != nil {
			return err
		}
		return insertLines(ctx, tx, o)
	})
	return apperr.Persistence("creating order", err)
}

// Update replaces the header and the full line set of o.
func (r *OrderRepository) Update(ctx context.Context, o *order.Order) error {
	if err := checkSettlement(o); err != nil {
		return err
	}
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, updateOrderSQL, headerArgs(o)...).Scan(&o.CreatedAt, &o.UpdatedAt)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return order.ErrNotFound
			}
			return err
		}
		if _, err := tx.Exec(ctx, deleteOrderLinesSQL, o.ID); err != nil {
			return err
		}
		return insertLines(ctx, tx, o)
	})
	if errors.Is(err, order.ErrNotFound) {
		return err
	}
	return apperr.Persistence("updating order", err)
}

// Delete removes the order. Lines go with it through ON DELETE CASCADE.
func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteOrderSQL, id)
	if err != nil {
		return apperr.Persistence("deleting order", err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

// load reads headers and their lines from one snapshot.
func (r *OrderRepository) load(ctx context.Context, query string, args ...any) ([]order.Order, error) {
	var out []order.Order
	err := pgx.BeginTxFunc(ctx, r.pool, readSnapshot, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		headers, err := pgx.CollectRows(rows, scanOrderRow)
		if err != nil {
			return err
		}
		if len(headers) == 0 {
			return nil
		}

		ids := make([]string, len(headers))
		for i, h := range headers {
			ids[i] = h.ID
		}
		rows, err = tx.Query(ctx, listOrderLinesSQL, ids)
		if err != nil {
			return err
		}
		lines, err := pgx.CollectRows(rows, scanLineRow)
		if err != nil {
			return err
		}

		byOrder := make(map[string][]order.Line, len(headers))
		for _, l := range lines {
			byOrder[l.OrderID] = append(byOrder[l.OrderID], l.Line)
		}
		out = make([]order.Order, len(headers))
		for i, h := range headers {
			out[i] = h.toDomain(byOrder[h.ID])
		}
		return nil
	})
	return out, err
}

func insertLines(ctx context.Context, tx pgx.Tx, o *order.Order) error {
	_, err := tx.CopyFrom(ctx, pgx.Identifier{"order_items"}, orderLineColumns,
		pgx.CopyFromSlice(len(o.Lines), func(i int) ([]any, error) {
			l := o.Lines[i]
			return []any{l.ID, o.ID, i, l.MenuItemID, l.Quantity, l.UnitPrice, l.Total()}, nil
		}),
	)
	return err
}

func headerArgs(o *order.Order) []any {
	return []any{
		o.ID, o.EmployeeID, o.Total, o.AmountPaid, o.AmountReturned,
		o.Change, o.Balance, string(o.Status), o.OrderDate,
	}
}

// checkSettlement rejects an order whose stored figures disagree with the
// settlement derived from its amounts.
func checkSettlement(o *order.Order) error {
	s := order.Settle(o.Total, o.AmountPaid, o.AmountReturned)
	if s.Status != o.Status || !s.Balance.Equal(o.Balance) || !s.Change.Equal(o.Change) {
		return apperr.Invalid("paymentStatus", "does not match settlement")
	}
	return nil
}

// orderRow mirrors a row of selectOrdersSQL. Employee columns are NULL when
// the employee has been deleted.
type orderRow struct {
	ID              string
	EmployeeID      string
	EmployeeName    *string
	EmployeeContact *string
	EmployeeActive  *bool
	EmployeeCreated *time.Time
	EmployeeUpdated *time.Time
	Total           decimal.Decimal
	AmountPaid      decimal.Decimal
	AmountReturned  decimal.Decimal
	Change          decimal.Decimal
	Balance         decimal.Decimal
	PaymentStatus   string
	OrderDate       time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func scanOrderRow(row pgx.CollectableRow) (orderRow, error) {
	var r orderRow
	err := row.Scan(
		&r.ID, &r.EmployeeID,
		&r.EmployeeName, &r.EmployeeContact, &r.EmployeeActive, &r.EmployeeCreated, &r.EmployeeUpdated,
		&r.Total, &r.AmountPaid, &r.AmountReturned, &r.Change, &r.Balance,
		&r.PaymentStatus, &r.OrderDate, &r.CreatedAt, &r.UpdatedAt,
	)
	return r, err
}

func (r orderRow) toDomain(lines []order.Line) order.Order {
	o := order.Order{
		ID:             r.ID,
		EmployeeID:     r.EmployeeID,
		Lines:          lines,
		Total:          r.Total,
		AmountPaid:     r.AmountPaid,
		AmountReturned: r.AmountReturned,
		Settlement: order.Settlement{
			Change:  r.Change,
			Balance: r.Balance,
			Status:  order.Status(r.PaymentStatus),
		},
		OrderDate: r.OrderDate,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.EmployeeName != nil {
		o.Employee = &employee.Employee{
			ID:        r.EmployeeID,
			Name:      *r.EmployeeName,
			Contact:   deref(r.EmployeeContact),
			Active:    r.EmployeeActive != nil && *r.EmployeeActive,
			CreatedAt: derefTime(r.EmployeeCreated),
			UpdatedAt: derefTime(r.EmployeeUpdated),
		}
	}
	return o
}

type lineRow struct {
	OrderID string
	order.Line
}

func scanLineRow(row pgx.CollectableRow) (lineRow, error) {
	var l lineRow
	err := row.Scan(&l.OrderID, &l.ID, &l.MenuItemID, &l.MenuItemName, &l.Quantity, &l.UnitPrice)
	return l, err
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
