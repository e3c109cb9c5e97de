package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"

	"github.com/ecobazaarx/backend-eco/internal/auth"
	"github.com/ecobazaarx/backend-eco/internal/cart"
	"github.com/ecobazaarx/backend-eco/internal/checkout"
	"github.com/ecobazaarx/backend-eco/internal/common"
	"github.com/ecobazaarx/backend-eco/internal/config"
	"github.com/ecobazaarx/backend-eco/internal/events"
	"github.com/ecobazaarx/backend-eco/internal/health"
	"github.com/ecobazaarx/backend-eco/internal/lock"
	"github.com/ecobazaarx/backend-eco/internal/loyalty"
	"github.com/ecobazaarx/backend-eco/internal/notify"
	"github.com/ecobazaarx/backend-eco/internal/obs"
	"github.com/ecobazaarx/backend-eco/internal/order"
	"github.com/ecobazaarx/backend-eco/internal/payment"
	"github.com/ecobazaarx/backend-eco/internal/ratelimit"
	"github.com/ecobazaarx/backend-eco/internal/repo"
	"github.com/ecobazaarx/backend-eco/internal/shipping"
	"github.com/ecobazaarx/backend-eco/internal/user"
)

const serviceName = "ecobazaar-api"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("service", serviceName).Logger()

	obs.MustRegisterDomainMetrics("ecobazaar", prometheus.DefaultRegisterer)
	httpMetrics := obs.NewHTTPMetrics("ecobazaar", obs.ParseBucketsCSV(cfg.MetricsBuckets), prometheus.DefaultRegisterer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.TracingEndpoint != "" {
		shutdown, err := obs.InitTracer(ctx, obs.TracingConfig{
			ServiceName:   serviceName,
			Endpoint:      cfg.TracingEndpoint,
			SamplingRatio: cfg.TracingRatio,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("init tracer")
		}
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			if err := shutdown(shutdownCtx); err != nil {
				logger.Warn().Err(err).Msg("tracer shutdown")
			}
		}()
	}

	if err := runMigrations(cfg.DatabaseURL); err != nil {
		logger.Fatal().Err(err).Msg("run migrations")
	}
	logger.Info().Msg("database schema up to date")

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database url")
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = serviceName
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("create pgx pool")
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}
	store := repo.NewStore(pool)

	redisOpt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	rdb := redis.NewClient(redisOpt)
	defer rdb.Close()
	if err := redisotel.InstrumentTracing(rdb); err != nil {
		logger.Warn().Err(err).Msg("redis tracing instrumentation")
	}
	if err := redisotel.InstrumentMetrics(rdb); err != nil {
		logger.Warn().Err(err).Msg("redis metrics instrumentation")
	}
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}

	queueClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     redisOpt.Addr,
		Password: redisOpt.Password,
		DB:       redisOpt.DB,
	})
	defer queueClient.Close()

	bus := &events.Bus{
		Notifiers: []events.Notifier{&notify.QueueNotifier{Client: queueClient}},
		Logger:    logger,
	}

	gateway := payment.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeBaseURL, cfg.PaymentTimeout, logger)

	authSvc := &auth.Service{
		Store:     store,
		Secret:    []byte(cfg.JWTSecret),
		Issuer:    "ecobazaar",
		AccessTTL: cfg.AccessTokenTTL,
		Logger:    logger,
	}
	cartSvc := &cart.Service{
		Store:     store,
		Warehouse: shipping.Warehouse{
			City:    cfg.WarehouseCity,
			State:   cfg.WarehouseState,
			Country: cfg.WarehouseCountry,
		},
		Logger:    logger,
	}
	checkoutSvc := &checkout.Service{
		Store:       store,
		Gateway:     gateway,
		Bus:         bus,
		Logger:      logger,
		PointRate:   cfg.PointConversionRate,
		Currency:    cfg.Currency,
		TaxRateName: cfg.TaxRateName,
	}

	authHandlers := &auth.Handlers{Service: authSvc}
	authMW := auth.Middleware{Service: authSvc}
	cartHandlers := &cart.Handlers{Service: cartSvc, Checkout: checkoutSvc}
	checkoutHandlers := &checkout.Handlers{Service: checkoutSvc}
	orderHandlers := &order.Handlers{Store: store}
	loyaltyHandlers := &loyalty.Handlers{Ledger: store.Q()}
	userHandlers := &user.Handlers{Store: store}
	healthHandler := health.Handler{Checker: probe{pool: pool, rdb: rdb}}

	locker := lock.Locker{R: rdb}
	idem := common.Idem{R: rdb, TTL: 24 * time.Hour}

	authLimit, err := ratelimit.New(rdb, "20-M")
	if err != nil {
		logger.Fatal().Err(err).Msg("auth rate limiter")
	}
	checkoutLimit, err := ratelimit.New(rdb, "30-M")
	if err != nil {
		logger.Fatal().Err(err).Msg("checkout rate limiter")
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	r.Use(obs.TracingMiddleware)
	r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", healthHandler.Live)
	r.Get("/readyz", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())
	r.Mount("/debug", debugMux())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(authLimit).Post("/register", authHandlers.Register)
			r.With(authLimit).Post("/login", authHandlers.Login)
			r.With(authMW.RequireAuth).Get("/me", authHandlers.Me)
		})

		r.Group(func(r chi.Router) {
			r.Use(authMW.RequireAuth)

			r.Route("/addresses", func(r chi.Router) {
				r.Get("/", userHandlers.ListAddresses)
				r.Post("/", userHandlers.CreateAddress)
				r.Put("/{addressID}", userHandlers.UpdateAddress)
				r.Delete("/{addressID}", userHandlers.DeleteAddress)
			})

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartHandlers.Get)
				r.Post("/items", cartHandlers.AddItem)
				r.Delete("/items/{productID}", cartHandlers.RemoveItem)
				r.Post("/discount", cartHandlers.ApplyDiscount)
				r.Delete("/discount", cartHandlers.RemoveDiscount)
				r.Put("/shipping", cartHandlers.SelectShipping)
				r.Get("/shipping-options", cartHandlers.ShippingOptions)
				r.Get("/totals", checkoutHandlers.PreviewTotals)
			})

			r.With(checkoutLimit, idem.Middleware).
				Post("/checkout", serializedCheckout(locker, checkoutHandlers))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", orderHandlers.List)
				r.Get("/{orderID}", orderHandlers.Get)
			})

			r.Get("/points/history", loyaltyHandlers.PointsHistory)
		})
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info().Msg("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
}

// serializedCheckout wraps the checkout handler with a per-user Redis lock so a
// double-submitted checkout fails fast instead of racing itself over stock and
// points.
func serializedCheckout(locker lock.Locker, h *checkout.Handlers) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := common.UserID(r.Context())
		if !ok {
			common.JSONError(w, http.StatusUnauthorized, "unauthorized", "authentication required", nil)
			return
		}
		err := locker.TryLock(r.Context(), lock.CheckoutKey(userID), 30*time.Second, func(ctx context.Context) error {
			h.PlaceOrder(w, r.WithContext(ctx))
			return nil
		})
		switch {
		case err == nil:
		case errors.Is(err, lock.ErrNotAcquired):
			common.JSONError(w, http.StatusConflict, "checkout_in_progress",
				"another checkout for this user is already in flight", nil)
		default:
			common.RenderError(w, err)
		}
	}
}

func runMigrations(databaseURL string) error {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	defer db.Close()

	driver, err := migratepgx.WithInstance(db, &migratepgx.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		return fmt.Errorf("migration setup: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func debugMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	return mux
}

type probe struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
}

func (p probe) PingDB(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.pool.Ping(ctx)
}

func (p probe) PingRedis(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.rdb.Ping(ctx).Err()
}
