package order

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/office-lunch/internal/domain/employee"
)

func TestFilter(t *testing.T) {
	orders := []Order{
		{ID: "aaa-1", Employee: &employee.Employee{Name: "Asha Rao"}, Settlement: Settlement{Status: StatusCompleted}},
		{ID: "bbb-2", Employee: &employee.Employee{Name: "Vikram"}, Settlement: Settlement{Status: StatusEmployeeOwes}},
		{ID: "ccc-3", Settlement: Settlement{Status: StatusIntermediaryOwes}},
	}

	assert.Len(t, Filter(orders, ""), 3)
	assert.Len(t, Filter(orders, "  "), 3)

	got := Filter(orders, "ASHA")
	require.Len(t, got, 1)
	assert.Equal(t, "aaa-1", got[0].ID)

	got = Filter(orders, "debt")
	require.Len(t, got, 1)
	assert.Equal(t, "bbb-2", got[0].ID)

	got = Filter(orders, "ccc")
	require.Len(t, got, 1)
	assert.Equal(t, "ccc-3", got[0].ID)

	assert.Empty(t, Filter(orders, "nobody"))
}

func TestRecent(t *testing.T) {
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	orders := []Order{
		{ID: "old", OrderDate: base.Add(-48 * time.Hour)},
		{ID: "new", OrderDate: base},
		{ID: "mid", OrderDate: base.Add(-24 * time.Hour)},
	}

	got := Recent(orders, 2)
	require.Len(t, got, 2)
	assert.Equal(t, "new", got[0].ID)
	assert.Equal(t, "mid", got[1].ID)
	assert.Equal(t, "old", orders[0].ID, "input must not be reordered")

	assert.Len(t, Recent(orders, 10), 3)
}

func TestEmployeeName(t *testing.T) {
	o := &Order{}
	assert.Equal(t, "Unknown", o.EmployeeName())
	o.Employee = &employee.Employee{Name: "Asha"}
	assert.Equal(t, "Asha", o.EmployeeName())
}
