// Command order-export writes lunch orders as gzip-compressed JSON lines and
// logs the ledger totals for the exported set.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/office-lunch/internal/domain/order"
	"github.com/xenking/office-lunch/internal/domain/report"
	"github.com/xenking/office-lunch/internal/storage/postgres"
)

func main() {
	var (
		databaseURL string
		out         string
		since       string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&out, "out", "orders.jsonl.gz", "output file")
	flag.StringVar(&since, "since", "", "only export orders dated on or after this day (YYYY-MM-DD)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}

	app.Run(func(ctx context.Context, lg *zap.Logger, _ *app.Telemetry) error {
		if databaseURL == "" {
			return errors.New("database URL is required: set --database-url or DATABASE_URL")
		}
		var from time.Time
		if since != "" {
			t, err := time.Parse(time.DateOnly, since)
			if err != nil {
				return errors.Wrap(err, "parse --since")
			}
			from = t
		}
		return run(ctx, lg, databaseURL, out, from)
	})
}

func run(ctx context.Context, lg *zap.Logger, databaseURL, out string, since time.Time) error {
	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	repo := postgres.NewOrderRepository(pool)

	var orders []order.Order
	if since.IsZero() {
		orders, err = repo.List(ctx)
	} else {
		orders, err = repo.ListSince(ctx, since)
	}
	if err != nil {
		return errors.Wrap(err, "load orders")
	}
	lg.Info("Loaded orders", zap.Int("count", len(orders)), zap.Time("since", since))

	var (
		written int
		sum     summary
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := exportFile(ctx, out, orders)
		written = n
		return err
	})
	g.Go(func() error {
		sum = summarize(report.New(lg.Named("report")), orders)
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	lg.Info("Export completed",
		zap.String("file", out),
		zap.Int("orders", written),
		zap.String("cash_on_hand", sum.CashOnHand.StringFixed(2)),
		zap.String("intermediary_debt", sum.IntermediaryDebt.StringFixed(2)),
		zap.String("employee_debt", sum.EmployeeDebt.StringFixed(2)),
		zap.Int("distinct_items", sum.DistinctItems),
	)
	return nil
}
