package main

import (
	"bufio"
	"context"
	"io"
	"os"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"

	"github.com/xenking/office-lunch/internal/domain/order"
	"github.com/xenking/office-lunch/internal/domain/report"
)

type summary struct {
	CashOnHand       decimal.Decimal
	IntermediaryDebt decimal.Decimal
	EmployeeDebt     decimal.Decimal
	DistinctItems    int
}

func summarize(r *report.Reporter, orders []order.Order) summary {
	return summary{
		CashOnHand:       r.CashOnHand(orders),
		IntermediaryDebt: r.IntermediaryDebt(orders),
		EmployeeDebt:     r.EmployeeDebt(orders),
		DistinctItems:    len(r.ItemsSummary(orders)),
	}
}

// exportFile writes orders to path and removes the partial file on failure.
func exportFile(ctx context.Context, path string, orders []order.Order) (n int, err error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, errors.Wrapf(err, "create %s", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "close %s", path)
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()
	return writeOrders(ctx, f, orders)
}

// writeOrders streams orders to w as gzip-compressed JSON lines.
func writeOrders(ctx context.Context, w io.Writer, orders []order.Order) (n int, err error) {
	gz := pgzip.NewWriter(w)
	defer func() {
		// Stops the compression workers when returning early.
		if err != nil {
			_ = gz.Close()
		}
	}()
	bw := bufio.NewWriter(gz)

	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	for i := range orders {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		e.Reset()
		encodeOrder(e, &orders[i])
		if _, err := bw.Write(e.Bytes()); err != nil {
			return i, errors.Wrap(err, "write order")
		}
		if err := bw.WriteByte('\n'); err != nil {
			return i, errors.Wrap(err, "write order")
		}
	}
	if err := bw.Flush(); err != nil {
		return len(orders), errors.Wrap(err, "flush")
	}
	if err := gz.Close(); err != nil {
		return len(orders), errors.Wrap(err, "close gzip")
	}
	return len(orders), nil
}

func money(e *jx.Encoder, d decimal.Decimal) {
	e.Num(jx.Num(d.StringFixed(2)))
}

func encodeOrder(e *jx.Encoder, o *order.Order) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(o.ID)
	e.FieldStart("employeeId")
	e.Str(o.EmployeeID)
	e.FieldStart("employeeName")
	e.Str(o.EmployeeName())
	e.FieldStart("items")
	e.ArrStart()
	for _, l := range o.Lines {
		e.ObjStart()
		e.FieldStart("menuItemId")
		e.Str(l.MenuItemID)
		e.FieldStart("menuItemName")
		e.Str(l.MenuItemName)
		e.FieldStart("quantity")
		e.Int(l.Quantity)
		e.FieldStart("unitPrice")
		money(e, l.UnitPrice)
		e.ObjEnd()
	}
	e.ArrEnd()
	e.FieldStart("total")
	money(e, o.Total)
	e.FieldStart("amountPaid")
	money(e, o.AmountPaid)
	e.FieldStart("amountReturned")
	money(e, o.AmountReturned)
	e.FieldStart("changeAmount")
	money(e, o.Change)
	e.FieldStart("balance")
	money(e, o.Balance)
	e.FieldStart("paymentStatus")
	e.Str(string(o.Status))
	e.FieldStart("orderDate")
	e.Str(o.OrderDate.UTC().Format(time.RFC3339))
	e.ObjEnd()
}
