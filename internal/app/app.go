package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	sdkapp "github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/menuflow/menuflow/internal/domain/delivery"
	"github.com/menuflow/menuflow/internal/domain/loyalty"
	"github.com/menuflow/menuflow/internal/domain/notify"
	"github.com/menuflow/menuflow/internal/domain/order"
	"github.com/menuflow/menuflow/internal/gateway"
	"github.com/menuflow/menuflow/internal/handler"
	"github.com/menuflow/menuflow/internal/repository"
	"github.com/menuflow/menuflow/pkg/health"
	"github.com/menuflow/menuflow/pkg/httpmiddleware"
	"github.com/menuflow/menuflow/pkg/tasks"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *sdkapp.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// PostgreSQL pool + migrations.
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Background runner for post-commit best-effort work.
	runner := tasks.NewRunner(lg.Named("tasks"), cfg.Tasks.Timeout)

	// Repositories.
	menuRepo := repository.NewMenuRepository(pool)
	orderStore := repository.NewOrderStore(pool)
	deliveryRepo := repository.NewDeliveryRepository(pool)
	loyaltyRepo := repository.NewLoyaltyRepository(pool)
	pushRepo := repository.NewPushRepository(pool)

	// Domain services.
	dispatcher := delivery.NewDispatcher(deliveryRepo)
	loyaltySvc := loyalty.NewService(loyaltyRepo)
	pushGateway := gateway.NewWebPush(gateway.WebPushConfig{
		Subscriber:      cfg.Push.Subscriber,
		VAPIDPublicKey:  cfg.Push.VAPIDPublicKey,
		VAPIDPrivateKey: cfg.Push.VAPIDPrivateKey,
		TTL:             cfg.Push.TTL,
	})
	notifySvc := notify.NewService(pushRepo, pushGateway)
	orderSvc := order.NewService(menuRepo, orderStore, dispatcher, notify.NewWhatsAppLinker(), runner)
	transitioner := order.NewTransitioner(orderStore, notifySvc, loyaltySvc, runner)

	// HTTP surface: health endpoints + API routes on one mux. The order
	// submission limiter runs after routing so its key can include the menu
	// ID from the path.
	h := handler.NewHandler(orderSvc, transitioner, orderStore)
	orderLimit := httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
		Max:     cfg.OrderLimit.Max,
		Window:  cfg.OrderLimit.Window,
		KeyFunc: httpmiddleware.MenuKey("menuID"),
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	h.Register(mux, orderLimit)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "X-User-ID"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Metrics(m.MeterProvider()),
			httpmiddleware.Instrument("menuflow-api",
				otelhttp.WithTracerProvider(m.TracerProvider()),
				otelhttp.WithMeterProvider(m.MeterProvider()),
			),
			httpmiddleware.LogRequests(),
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
		runner.Close(cfg.Tasks.ShutdownGrace)
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
