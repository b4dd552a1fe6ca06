package order

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/office-lunch/internal/domain/apperr"
	"github.com/xenking/office-lunch/internal/domain/menu"
)

// Total sums the line totals and rounds to currency precision.
// An empty line set totals zero.
func Total(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Total())
	}
	return sum.Round(2)
}

// Builder assembles the line set of an order. Unit prices are captured from
// the catalog when a line is added and are not repriced afterwards.
type Builder struct {
	catalog menu.Catalog
	lines   []Line
}

// NewBuilder returns an empty Builder resolving items through catalog.
func NewBuilder(catalog menu.Catalog) *Builder {
	return &Builder{catalog: catalog}
}

// Add appends a line for the given menu item. A missing item yields a
// ReferenceNotFoundError and the line set is left untouched.
func (b *Builder) Add(menuItemID string, quantity int) error {
	if quantity < 1 {
		return apperr.Invalid("quantity", "must be greater than 0")
	}
	it, ok := b.catalog.Lookup(menuItemID)
	if !ok {
		return &apperr.ReferenceNotFoundError{Kind: "menu item", ID: menuItemID}
	}
	b.lines = append(b.lines, Line{
		ID:           uuid.New().String(),
		MenuItemID:   it.ID,
		MenuItemName: it.Name,
		Quantity:     quantity,
		UnitPrice:    it.Price,
	})
	return nil
}

// addCaptured appends a line that keeps a previously captured unit price.
func (b *Builder) addCaptured(l Line, quantity int) error {
	if quantity < 1 {
		return apperr.Invalid("quantity", "must be greater than 0")
	}
	l.ID = uuid.New().String()
	l.Quantity = quantity
	b.lines = append(b.lines, l)
	return nil
}

// SetQuantity changes the quantity of the line at index. Non-positive
// quantities are rejected and the line is kept as it was.
func (b *Builder) SetQuantity(index, quantity int) error {
	if index < 0 || index >= len(b.lines) {
		return apperr.Invalid("index", "out of range")
	}
	if quantity <= 0 {
		return apperr.Invalid("quantity", "must be greater than 0")
	}
	b.lines[index].Quantity = quantity
	return nil
}

// Remove drops the line at index.
func (b *Builder) Remove(index int) error {
	if index < 0 || index >= len(b.lines) {
		return apperr.Invalid("index", "out of range")
	}
	b.lines = append(b.lines[:index], b.lines[index+1:]...)
	return nil
}

// Lines returns a copy of the current line set.
func (b *Builder) Lines() []Line {
	out := make([]Line, len(b.lines))
	copy(out, b.lines)
	return out
}

// Total returns the total of the current line set.
func (b *Builder) Total() decimal.Decimal {
	return Total(b.lines)
}
