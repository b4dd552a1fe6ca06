package order

import (
	"slices"
	"strings"
)

// Filter returns the orders whose employee name, id or status contains term,
// ignoring case. An empty term matches everything.
func Filter(orders []Order, term string) []Order {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return orders
	}
	out := make([]Order, 0, len(orders))
	for i := range orders {
		o := &orders[i]
		name := ""
		if o.Employee != nil {
			name = o.Employee.Name
		}
		if strings.Contains(strings.ToLower(name), term) ||
			strings.Contains(strings.ToLower(o.ID), term) ||
			strings.Contains(strings.ToLower(string(o.Status)), term) {
			out = append(out, *o)
		}
	}
	return out
}

// Recent returns up to n orders, latest order date first. The input is not
// modified.
func Recent(orders []Order, n int) []Order {
	sorted := slices.Clone(orders)
	slices.SortStableFunc(sorted, func(a, b Order) int {
		return b.OrderDate.Compare(a.OrderDate)
	})
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
