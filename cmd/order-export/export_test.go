package main

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xenking/office-lunch/internal/domain/employee"
	"github.com/xenking/office-lunch/internal/domain/order"
	"github.com/xenking/office-lunch/internal/domain/report"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testOrder(id string, total, paid, returned string) order.Order {
	return order.Order{
		ID:         id,
		EmployeeID: "emp-1",
		Employee:   &employee.Employee{ID: "emp-1", Name: "Asha"},
		Lines: []order.Line{
			{ID: id + "-l1", MenuItemID: "item-1", MenuItemName: "Thali", Quantity: 1, UnitPrice: dec(total)},
		},
		Total:          dec(total),
		AmountPaid:     dec(paid),
		AmountReturned: dec(returned),
		Settlement:     order.Settle(dec(total), dec(paid), dec(returned)),
		OrderDate:      time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC),
	}
}

func TestWriteOrders(t *testing.T) {
	orders := []order.Order{
		testOrder("o1", "100", "100", "0"),
		testOrder("o2", "100", "200", "90"),
	}

	var buf bytes.Buffer
	n, err := writeOrders(context.Background(), &buf, orders)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	gz, err := pgzip.NewReader(&buf)
	require.NoError(t, err)
	defer func() { _ = gz.Close() }()

	var ids, statuses []string
	sc := bufio.NewScanner(gz)
	for sc.Scan() {
		require.NoError(t, jx.DecodeBytes(sc.Bytes()).Obj(func(d *jx.Decoder, key string) error {
			switch key {
			case "id":
				s, err := d.Str()
				ids = append(ids, s)
				return err
			case "paymentStatus":
				s, err := d.Str()
				statuses = append(statuses, s)
				return err
			default:
				return d.Skip()
			}
		}))
	}
	require.NoError(t, sc.Err())
	assert.Equal(t, []string{"o1", "o2"}, ids)
	assert.Equal(t, []string{"completed", "office-credit"}, statuses)
}

func TestWriteOrders_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := writeOrders(ctx, &bytes.Buffer{}, []order.Order{testOrder("o1", "10", "10", "0")})
	assert.ErrorIs(t, err, context.Canceled)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteOrders_WriteErrorStopsCompressors(t *testing.T) {
	before := runtime.NumGoroutine()

	orders := make([]order.Order, 5000)
	for i := range orders {
		orders[i] = testOrder("o", "10", "10", "0")
	}
	_, err := writeOrders(context.Background(), failingWriter{}, orders)
	require.Error(t, err)

	assert.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before
	}, time.Second, 10*time.Millisecond)
}

func TestExportFile_RemovesPartialOnError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	path := filepath.Join(t.TempDir(), "orders.jsonl.gz")
	_, err := exportFile(ctx, path, []order.Order{testOrder("o1", "10", "10", "0")})
	require.Error(t, err)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestSummarize(t *testing.T) {
	orders := []order.Order{
		testOrder("o1", "100", "100", "0"),
		testOrder("o2", "100", "200", "90"),
		testOrder("o3", "50", "20", "0"),
	}

	s := summarize(report.New(zap.NewNop()), orders)
	assert.Equal(t, "220.00", s.CashOnHand.StringFixed(2))
	assert.Equal(t, "10.00", s.IntermediaryDebt.StringFixed(2))
	assert.Equal(t, "30.00", s.EmployeeDebt.StringFixed(2))
	assert.Equal(t, 1, s.DistinctItems)
}
