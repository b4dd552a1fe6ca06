package order

import "github.com/shopspring/decimal"

// Settlement reconciles what the employee paid against the order total and
// what the intermediary handed back.
type Settlement struct {
	// Change is what the employee should get back: paid - total.
	Change decimal.Decimal
	// Balance is returned - Change. Zero means settled.
	Balance decimal.Decimal
	Status  Status
}

// Settle computes the settlement for an order. Amounts are fixed-point, so
// the zero comparison is exact.
func Settle(total, paid, returned decimal.Decimal) Settlement {
	change := paid.Sub(total)
	balance := returned.Sub(change)

	status := StatusCompleted
	switch balance.Sign() {
	case 1:
		status = StatusEmployeeOwes
	case -1:
		status = StatusIntermediaryOwes
	}

	return Settlement{
		Change:  change,
		Balance: balance,
		Status:  status,
	}
}
