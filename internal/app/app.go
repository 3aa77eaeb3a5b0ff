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

	"github.com/xenking/food-ordering/internal/domain/auth"
	"github.com/xenking/food-ordering/internal/domain/menu"
	"github.com/xenking/food-ordering/internal/domain/order"
	"github.com/xenking/food-ordering/internal/domain/payment"
	"github.com/xenking/food-ordering/internal/handler"
	"github.com/xenking/food-ordering/internal/session"
	"github.com/xenking/food-ordering/internal/storage/postgres"
	"github.com/xenking/food-ordering/pkg/health"
	"github.com/xenking/food-ordering/pkg/httpmiddleware"
)

const serviceName = "food-api"

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	api, checker, err := newAPI(ctx, lg, m, cfg, pool)
	if err != nil {
		return err
	}
	checker.Start(ctx, 10*time.Second)
	defer checker.Stop()

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler:           api,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		checker.SetReady(false)
		if ctx.Err() != nil {
			// Give load balancers time to see the failing probe.
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
	checker.SetReady(true)

	return g.Wait()
}

// newAPI builds the domain services over pool and returns the instrumented
// HTTP handler together with its health checker. The checker is not started.
func newAPI(
	ctx context.Context,
	lg *zap.Logger,
	t httpmiddleware.Telemetry,
	cfg *Config,
	pool *pgxpool.Pool,
) (http.Handler, *health.Checker, error) {
	pricing, err := cfg.Pricing()
	if err != nil {
		return nil, nil, err
	}
	methods, err := cfg.PaymentMethods()
	if err != nil {
		return nil, nil, err
	}

	sessions := session.NewRegistry(cfg.Session.IdleTimeout)
	sessions.StartCleanup(ctx)

	checker := health.New()
	checker.Register(health.Readiness, "postgres", 5*time.Second, health.PingCheck(pool))
	checker.Register(health.Liveness, "goroutines", time.Second, health.GoroutineCountCheck(10000))
	checker.Register(health.Liveness, "gc_pause", time.Second, health.GCPauseCheck(time.Second))
	checker.Register(health.Liveness, "carts", time.Second,
		health.CapacityCheck("carts", sessions.Len, cfg.Session.MaxCarts),
	)

	users := auth.NewService(postgres.NewUserRepository(pool), auth.Config{
		Secret:   []byte(cfg.Auth.Secret),
		TokenTTL: cfg.Auth.TokenTTL,
	})
	catalog := menu.NewCatalog(postgres.NewMenuRepository(pool), nil)
	gateway := payment.NewOffline(methods...)
	orders, err := order.NewService(
		postgres.NewOrderRepository(pool),
		gateway,
		pricing,
		order.WithMeterProvider(t.MeterProvider()),
		order.WithTracerProvider(t.TracerProvider()),
	)
	if err != nil {
		return nil, nil, errors.Wrap(err, "create order service")
	}

	h := handler.NewHandler(handler.Config{PaymentMethods: gateway.Enabled()}, users, catalog, sessions, orders)
	return newRouter(ctx, lg, t, cfg, h, checker), checker, nil
}

// newRouter mounts the health probes and the API on one mux and wraps it in
// the middleware chain. The first middleware is the outermost.
func newRouter(
	ctx context.Context,
	lg *zap.Logger,
	t httpmiddleware.Telemetry,
	cfg *Config,
	h *handler.Handler,
	checker *health.Checker,
) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /livez", checker.LiveEndpoint)
	mux.HandleFunc("GET /readyz", checker.ReadyEndpoint)
	h.Register(mux)

	return httpmiddleware.Wrap(mux,
		httpmiddleware.InjectLogger(lg),
		httpmiddleware.Recovery(),
		httpmiddleware.RequestID(),
		httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
			Max:    cfg.RateLimit.Max,
			Window: cfg.RateLimit.Window,
			Exempt: isProbe,
		}),
		httpmiddleware.Instrument(serviceName, t, isProbe),
		httpmiddleware.LogRequests(),
	)
}

func isProbe(r *http.Request) bool {
	return r.URL.Path == "/livez" || r.URL.Path == "/readyz"
}
