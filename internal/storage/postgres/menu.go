package postgres

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/office-lunch/internal/domain/apperr"
	"github.com/xenking/office-lunch/internal/domain/menu"
)

const (
	menuItemColumns = `id, name, price, created_at, updated_at`

	listMenuItemsSQL = `SELECT ` + menuItemColumns + ` FROM menu_items ORDER BY name, id`

	getMenuItemSQL = `SELECT ` + menuItemColumns + ` FROM menu_items WHERE id = $1`

	getMenuItemsByIDsSQL = `SELECT ` + menuItemColumns + ` FROM menu_items WHERE id = ANY($1)`

	createMenuItemSQL = `INSERT INTO menu_items (id, name, price)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at`

	updateMenuItemSQL = `UPDATE menu_items SET name = $2, price = $3, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`

	deleteMenuItemSQL = `DELETE FROM menu_items WHERE id = $1`
)

var _ menu.Repository = (*MenuRepository)(nil)

// MenuRepository implements menu.Repository backed by PostgreSQL.
type MenuRepository struct {
	pool *pgxpool.Pool
}

// NewMenuRepository returns a MenuRepository that uses the given pool.
func NewMenuRepository(pool *pgxpool.Pool) *MenuRepository {
	return &MenuRepository{pool: pool}
}

// List returns every menu item ordered by name.
func (r *MenuRepository) List(ctx context.Context) ([]menu.Item, error) {
	rows, err := r.pool.Query(ctx, listMenuItemsSQL)
	if err != nil {
		return nil, apperr.Persistence("listing menu items", err)
	}
	out, err := pgx.CollectRows(rows, scanMenuItem)
	if err != nil {
		return nil, apperr.Persistence("listing menu items", err)
	}
	return out, nil
}

// Get returns a single menu item by id.
func (r *MenuRepository) Get(ctx context.Context, id string) (*menu.Item, error) {
	rows, err := r.pool.Query(ctx, getMenuItemSQL, id)
	if err != nil {
		return nil, apperr.Persistence("getting menu item", err)
	}
	it, err := pgx.CollectExactlyOneRow(rows, scanMenuItem)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, menu.ErrNotFound
		}
		return nil, apperr.Persistence("getting menu item", err)
	}
	return &it, nil
}

// GetByIDs returns the menu items matching any of ids.
func (r *MenuRepository) GetByIDs(ctx context.Context, ids []string) ([]menu.Item, error) {
	rows, err := r.pool.Query(ctx, getMenuItemsByIDsSQL, ids)
	if err != nil {
		return nil, apperr.Persistence("getting menu items by ids", err)
	}
	out, err := pgx.CollectRows(rows, scanMenuItem)
	if err != nil {
		return nil, apperr.Persistence("getting menu items by ids", err)
	}
	return out, nil
}

// Create inserts it and fills in its timestamps.
func (r *MenuRepository) Create(ctx context.Context, it *menu.Item) error {
	err := r.pool.QueryRow(ctx, createMenuItemSQL, it.ID, it.Name, it.Price).
		Scan(&it.CreatedAt, &it.UpdatedAt)
	return apperr.Persistence("creating menu item", err)
}

// Update stores the name and price of it. Existing orders keep the price
// captured when their lines were added.
func (r *MenuRepository) Update(ctx context.Context, it *menu.Item) error {
	var updated time.Time
	err := r.pool.QueryRow(ctx, updateMenuItemSQL, it.ID, it.Name, it.Price).Scan(&updated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return menu.ErrNotFound
		}
		return apperr.Persistence("updating menu item", err)
	}
	it.UpdatedAt = updated
	return nil
}

// Delete removes the menu item. Order lines referencing it are kept.
func (r *MenuRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteMenuItemSQL, id)
	if err != nil {
		return apperr.Persistence("deleting menu item", err)
	}
	if tag.RowsAffected() == 0 {
		return menu.ErrNotFound
	}
	return nil
}

func scanMenuItem(row pgx.CollectableRow) (menu.Item, error) {
	var it menu.Item
	err := row.Scan(&it.ID, &it.Name, &it.Price, &it.CreatedAt, &it.UpdatedAt)
	return it, err
}
