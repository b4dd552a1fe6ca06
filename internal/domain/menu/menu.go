package menu

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/office-lunch/internal/domain/apperr"
)

// ErrNotFound is returned when a requested menu item does not exist.
var ErrNotFound = errors.New("menu item not found")

// Item is something that can be ordered for lunch.
type Item struct {
	ID        string
	Name      string
	Price     decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MaxAmount is the exclusive bound of every stored money value. Money columns
// are NUMERIC(12,2).
var MaxAmount = decimal.New(1, 10)

// AmountInRange reports whether d fits a money column.
func AmountInRange(d decimal.Decimal) bool {
	return d.Abs().LessThan(MaxAmount)
}

// Input carries the operator-editable fields of a menu item.
type Input struct {
	Name  string
	Price decimal.Decimal
}

// Validate trims the input, checks required fields and rounds the price to
// currency precision.
func (in *Input) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return apperr.Invalid("name", "must not be empty")
	}
	if in.Price.IsNegative() {
		return apperr.Invalid("price", "must not be negative")
	}
	in.Price = in.Price.Round(2)
	if !AmountInRange(in.Price) {
		return apperr.Invalid("price", "is too large")
	}
	return nil
}

// Repository defines persistence operations for menu items.
type Repository interface {
	// List returns every menu item ordered by name.
	List(ctx context.Context) ([]Item, error)
	Get(ctx context.Context, id string) (*Item, error)
	// GetByIDs returns the items matching ids. Unknown ids are omitted.
	GetByIDs(ctx context.Context, ids []string) ([]Item, error)
	Create(ctx context.Context, it *Item) error
	Update(ctx context.Context, it *Item) error
	Delete(ctx context.Context, id string) error
}

// Catalog resolves menu items by id.
type Catalog struct {
	byID map[string]Item
}

// NewCatalog indexes items by id.
func NewCatalog(items []Item) Catalog {
	byID := make(map[string]Item, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}
	return Catalog{byID: byID}
}

// Lookup returns the item with the given id, if it still exists.
func (c Catalog) Lookup(id string) (Item, bool) {
	it, ok := c.byID[id]
	return it, ok
}

// Len returns the number of indexed items.
func (c Catalog) Len() int { return len(c.byID) }
