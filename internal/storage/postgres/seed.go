package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/office-lunch/internal/domain/employee"
	"github.com/xenking/office-lunch/internal/domain/menu"
)

const (
	upsertEmployeeSQL = `INSERT INTO employees (id, name, contact, active)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, contact = EXCLUDED.contact, active = EXCLUDED.active, updated_at = now()`

	upsertMenuItemSQL = `INSERT INTO menu_items (id, name, price)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, price = EXCLUDED.price, updated_at = now()`
)

// UpsertEmployees inserts or refreshes the given employees in one batch.
func UpsertEmployees(ctx context.Context, pool *pgxpool.Pool, employees []employee.Employee) error {
	b := &pgx.Batch{}
	for _, e := range employees {
		b.Queue(upsertEmployeeSQL, e.ID, e.Name, e.Contact, e.Active)
	}
	if err := pool.SendBatch(ctx, b).Close(); err != nil {
		return errors.Wrap(err, "upsert employees")
	}
	return nil
}

// UpsertMenuItems inserts or refreshes the given menu items in one batch.
func UpsertMenuItems(ctx context.Context, pool *pgxpool.Pool, items []menu.Item) error {
	b := &pgx.Batch{}
	for _, it := range items {
		b.Queue(upsertMenuItemSQL, it.ID, it.Name, it.Price)
	}
	if err := pool.SendBatch(ctx, b).Close(); err != nil {
		return errors.Wrap(err, "upsert menu items")
	}
	return nil
}
