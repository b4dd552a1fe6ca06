package order

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestSettle(t *testing.T) {
	tests := []struct {
		name        string
		total       string
		paid        string
		returned    string
		wantChange  string
		wantBalance string
		wantStatus  Status
	}{
		{
			name:  "exact payment",
			total: "500", paid: "500", returned: "0",
			wantChange: "0", wantBalance: "0", wantStatus: StatusCompleted,
		},
		{
			name:  "change fully returned",
			total: "500", paid: "600", returned: "100",
			wantChange: "100", wantBalance: "0", wantStatus: StatusCompleted,
		},
		{
			name:  "change partly returned",
			total: "500", paid: "600", returned: "50",
			wantChange: "100", wantBalance: "-50", wantStatus: StatusIntermediaryOwes,
		},
		{
			name:  "employee underpaid",
			total: "500", paid: "400", returned: "0",
			wantChange: "-100", wantBalance: "100", wantStatus: StatusEmployeeOwes,
		},
		{
			name:  "too much change returned",
			total: "120.50", paid: "200", returned: "80",
			wantChange: "79.50", wantBalance: "0.50", wantStatus: StatusEmployeeOwes,
		},
		{
			name:  "cents that break float equality",
			total: "0.30", paid: "0.50", returned: "0.20",
			wantChange: "0.20", wantBalance: "0", wantStatus: StatusCompleted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Settle(dec(tt.total), dec(tt.paid), dec(tt.returned))
			assert.True(t, dec(tt.wantChange).Equal(got.Change), "change: got %s", got.Change)
			assert.True(t, dec(tt.wantBalance).Equal(got.Balance), "balance: got %s", got.Balance)
			assert.Equal(t, tt.wantStatus, got.Status)
		})
	}
}

func TestSettle_Idempotent(t *testing.T) {
	a := Settle(dec("500"), dec("600"), dec("50"))
	b := Settle(dec("500"), dec("600"), dec("50"))
	assert.True(t, a.Change.Equal(b.Change))
	assert.True(t, a.Balance.Equal(b.Balance))
	assert.Equal(t, a.Status, b.Status)
}

func TestSettle_PaidEqualsTotalIsCompleted(t *testing.T) {
	for _, total := range []string{"0", "0.01", "45.99", "1000"} {
		s := Settle(dec(total), dec(total), decimal.Zero)
		assert.Equal(t, StatusCompleted, s.Status, total)
		assert.True(t, s.Change.IsZero(), total)
	}
}

func TestStatus(t *testing.T) {
	assert.True(t, StatusCompleted.Valid())
	assert.True(t, StatusEmployeeOwes.Valid())
	assert.True(t, StatusIntermediaryOwes.Valid())
	assert.False(t, Status("pending").Valid())
	assert.Equal(t, "Office Credit", StatusIntermediaryOwes.Label())
	assert.Equal(t, "pending", Status("pending").Label())
}
