// Package app wires the lunch ledger API server together.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/office-lunch/internal/broker/rabbitmq"
	"github.com/xenking/office-lunch/internal/domain/employee"
	"github.com/xenking/office-lunch/internal/domain/menu"
	"github.com/xenking/office-lunch/internal/domain/order"
	"github.com/xenking/office-lunch/internal/domain/report"
	"github.com/xenking/office-lunch/internal/handler"
	"github.com/xenking/office-lunch/internal/storage/postgres"
	"github.com/xenking/office-lunch/internal/storage/redis"
	"github.com/xenking/office-lunch/pkg/health"
	"github.com/xenking/office-lunch/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application. m is usually
// the *app.Telemetry handed out by the go-faster/sdk runner.
func Run(ctx context.Context, lg *zap.Logger, m httpmiddleware.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// PostgreSQL pool + migrations.
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	healthSvc := health.New(lg.Named("health"))
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, health.PingCheck(pool))
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))

	// Repositories.
	employeeRepo := postgres.NewEmployeeRepository(pool)
	menuRepo := postgres.NewMenuRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)

	orderOpts := []order.Option{order.WithMeterProvider(m.MeterProvider())}

	// Optional Redis: Idempotency-Key support for order creation.
	if cfg.RedisURL != "" {
		rdb, err := redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return errors.Wrap(err, "connect redis")
		}
		defer func() { _ = rdb.Close() }()

		healthSvc.AddReadinessCheck("redis", 2*time.Second, func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
		orderOpts = append(orderOpts, order.WithIdempotency(redis.NewIdempotencyStore(rdb, cfg.IdempotencyTTL)))
		lg.Info("Idempotency keys enabled", zap.Duration("ttl", cfg.IdempotencyTTL))
	}

	// Optional RabbitMQ: order events. A lost connection fails liveness so
	// the process is restarted and reconnects.
	if cfg.AMQPURL != "" {
		pub, err := rabbitmq.Dial(cfg.AMQPURL)
		if err != nil {
			return errors.Wrap(err, "connect amqp")
		}
		defer func() {
			if err := pub.Close(); err != nil {
				lg.Warn("Close amqp publisher", zap.Error(err))
			}
		}()

		healthSvc.AddLivenessCheck("amqp", time.Second, health.ConnectedCheck("amqp", pub.IsClosed))
		orderOpts = append(orderOpts, order.WithPublisher(pub))
		lg.Info("Order events enabled", zap.String("exchange", rabbitmq.Exchange))
	}

	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Domain services.
	employeeService := employee.NewService(employeeRepo)
	menuService := menu.NewService(menuRepo)
	orderService := order.NewService(employeeRepo, menuRepo, orderRepo, orderOpts...)
	reportService := report.NewService(orderRepo, employeeRepo, menuRepo, report.New(lg.Named("report")))

	// Mux: health endpoints + API routes on one server.
	mux := http.NewServeMux()
	mux.HandleFunc("GET /livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("GET /readyz", healthSvc.ReadyEndpoint)
	handler.NewHandler(employeeService, menuService, orderService, reportService).Register(mux)

	routeFinder := httpmiddleware.MakeRouteFinder(mux)
	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", handler.IdempotencyKeyHeader, httpmiddleware.RequestIDHeader},
				ExposeHeaders:    []string{httpmiddleware.RequestIDHeader, "Location", "Idempotent-Replayed"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.Instrument("lunch-api", routeFinder, m),
			httpmiddleware.LogRequests(routeFinder),
			httpmiddleware.Labeler(routeFinder),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
