// Command seed-db applies the schema and loads the default employees and
// menu items.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"go.uber.org/zap"

	"github.com/xenking/office-lunch/internal/storage/postgres"
)

func main() {
	var (
		databaseURL   string
		employeesFile string
		menuFile      string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&employeesFile, "employees-file", "", "path to employees JSON file (embedded default when empty)")
	flag.StringVar(&menuFile, "menu-file", "", "path to menu items JSON file (embedded default when empty)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}

	app.Run(func(ctx context.Context, lg *zap.Logger, _ *app.Telemetry) error {
		if databaseURL == "" {
			return errors.New("database URL is required: set --database-url or DATABASE_URL")
		}
		return run(ctx, lg, databaseURL, employeesFile, menuFile)
	})
}

func run(ctx context.Context, lg *zap.Logger, databaseURL, employeesFile, menuFile string) error {
	employees, err := loadEmployees(employeesFile)
	if err != nil {
		return errors.Wrap(err, "load employees")
	}
	items, err := loadMenuItems(menuFile)
	if err != nil {
		return errors.Wrap(err, "load menu items")
	}

	lg.Info("Connecting to database")
	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	lg.Info("Running migrations")
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := postgres.UpsertEmployees(ctx, pool, employees); err != nil {
		return err
	}
	lg.Info("Upserted employees", zap.Int("count", len(employees)))

	if err := postgres.UpsertMenuItems(ctx, pool, items); err != nil {
		return err
	}
	lg.Info("Upserted menu items", zap.Int("count", len(items)))

	lg.Info("Seed completed")
	return nil
}
