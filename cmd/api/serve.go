package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/ec-orders/internal/api"
	"github.com/example/ec-orders/internal/auth"
	"github.com/example/ec-orders/internal/command"
	"github.com/example/ec-orders/internal/domain/order"
	"github.com/example/ec-orders/internal/infrastructure/cache"
	"github.com/example/ec-orders/internal/infrastructure/kafka"
	"github.com/example/ec-orders/internal/infrastructure/store"
	"github.com/example/ec-orders/internal/observability"
	"github.com/example/ec-orders/internal/query"
	"github.com/example/ec-orders/internal/seed"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var seedPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Example: `  ec-orders serve
  ec-orders serve --seed internal/seed/testdata/dev.yaml`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&seedPath, "seed", "", "YAML fixture of users and orders for the in-memory store")
}

// orderStore is what the API needs from a backing store
type orderStore interface {
	store.OrderStoreInterface
	store.UserStoreInterface
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.SetupTracing(ctx, observability.TracingConfig{
		ServiceName:  cfg.Tracing.ServiceName,
		OTLPEndpoint: cfg.Tracing.Endpoint,
		SampleRate:   cfg.Tracing.SampleRate,
		Insecure:     cfg.Tracing.Insecure,
	}, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("Tracing shutdown failed", zap.Error(err))
		}
	}()

	orders, db, err := openStore(ctx)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	opts := []order.Option{order.WithLogger(logger)}

	if len(cfg.Kafka.Brokers) > 0 {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
		defer producer.Close()
		opts = append(opts, order.WithPublisher(producer))
		logger.Info("Publishing order events", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	if cfg.Redis.Addr != "" {
		statsCache := cache.NewRedisStatsCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL, logger)
		defer statsCache.Close()
		if err := statsCache.Ping(ctx); err != nil {
			logger.Warn("Redis unreachable, stats will be recomputed until it recovers", zap.Error(err))
		}
		opts = append(opts, order.WithStatsCache(statsCache))
	}

	orderSvc := order.NewService(orders, opts...)
	jwtService := auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.AccessExpiry, cfg.Auth.RefreshExpiry)

	router := api.NewRouter(api.RouterConfig{
		Handlers: api.NewHandlers(
			command.NewHandler(orderSvc),
			query.NewHandler(orders, orderSvc, logger),
			logger,
		),
		AuthHandlers: api.NewAuthHandlers(jwtService, orders, logger),
		JWTService:   jwtService,
		Logger:       logger,
	})

	server := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server started", zap.String("addr", cfg.HTTP.Addr))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

// openStore connects to PostgreSQL, or falls back to memory when no URL is set.
// The returned *sql.DB is nil for the memory store.
func openStore(ctx context.Context) (orderStore, *sql.DB, error) {
	if cfg.Database.URL == "" {
		logger.Warn("No database configured, using in-memory store")
		mem := store.NewMemoryStore()
		if seedPath != "" {
			fixture, err := seed.Load(seedPath)
			if err != nil {
				return nil, nil, err
			}
			if err := seed.Apply(ctx, mem, fixture, time.Now()); err != nil {
				return nil, nil, err
			}
			logger.Info("Seeded in-memory store",
				zap.String("path", seedPath),
				zap.Int("users", len(fixture.Users)),
				zap.Int("orders", len(fixture.Orders)))
		}
		return mem, nil, nil
	}
	if seedPath != "" {
		return nil, nil, errors.New("--seed only applies to the in-memory store; unset DATABASE_URL")
	}

	db, err := store.ConnectPostgres(cfg.Database.URL)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("Connected to PostgreSQL")
	return store.NewPostgresStore(db), db, nil
}
