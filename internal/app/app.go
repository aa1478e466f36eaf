// Package app wires the todo API server together.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/todo-api/db"
	"github.com/xenking/todo-api/internal/domain/todo"
	"github.com/xenking/todo-api/internal/handler"
	"github.com/xenking/todo-api/internal/migrate"
	"github.com/xenking/todo-api/internal/storage/postgres"
	"github.com/xenking/todo-api/pkg/health"
	"github.com/xenking/todo-api/pkg/httpmiddleware"
)

const serviceName = "todo-api"

// Run creates all dependencies, serves HTTP until ctx is cancelled and then
// drains the server.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, postgres.PoolOptions{
		MaxConns: cfg.Database.MaxConns,
	})
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if cfg.AutoMigrate {
		if err := migrateUp(ctx, lg, pool); err != nil {
			return errors.Wrap(err, "run migrations")
		}
	}

	gdb, err := postgres.OpenGorm(pool)
	if err != nil {
		return errors.Wrap(err, "open gorm")
	}

	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, health.PingCheck(pool))
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.AddLivenessCheck("gc_pause", time.Second, health.GCMaxPauseCheck(time.Second))

	todos := todo.NewService(postgres.NewTodoRepository(gdb))
	router := handler.NewRouter(handler.NewHandler(todos),
		httpmiddleware.LogRequests(),
		httpmiddleware.Labeler(),
	)
	router.Get("/livez", healthSvc.LiveEndpoint)
	router.Get("/readyz", healthSvc.ReadyEndpoint)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(router,
			httpmiddleware.Instrument(serviceName, m.TracerProvider(), m.MeterProvider()),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(lg),
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", httpmiddleware.RequestIDHeader},
				ExposeHeaders:    []string{httpmiddleware.RequestIDHeader},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
		),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		healthSvc.SetReady(true)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "serve")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		healthSvc.SetReady(false)
		// Give load balancers time to observe /readyz failing, unless the
		// listener itself died.
		if ctx.Err() != nil {
			lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
			time.Sleep(cfg.Graceful.ReadinessDelay)
		}

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "shutdown")
		}
		return nil
	})
	return g.Wait()
}

func migrateUp(ctx context.Context, lg *zap.Logger, pool *pgxpool.Pool) error {
	migrations, err := migrate.Load(db.Migrations())
	if err != nil {
		return err
	}
	applied, err := migrate.Apply(ctx, pool, migrations)
	if err != nil {
		return err
	}
	for _, m := range applied {
		lg.Info("Applied migration", zap.String("file", m.File()))
	}
	if len(applied) == 0 {
		lg.Debug("Schema is up to date", zap.Int("migrations", len(migrations)))
	}
	return nil
}
