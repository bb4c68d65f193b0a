package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/ec-orders/internal/config"
	"github.com/example/ec-orders/internal/email"
	"github.com/example/ec-orders/internal/infrastructure/kafka"
	"github.com/example/ec-orders/internal/infrastructure/store"
	"github.com/example/ec-orders/internal/logging"
	"github.com/example/ec-orders/internal/notification"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:          "notifier",
	Short:        "Email customers when their order status changes",
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the YAML config file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Development)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	if len(cfg.Kafka.Brokers) == 0 {
		return errors.New("kafka brokers not configured (set KAFKA_BROKERS)")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Events normally carry the customer's email; the user table is only a fallback
	var users store.UserStoreInterface
	if cfg.Database.URL != "" {
		db, err := store.ConnectPostgres(cfg.Database.URL)
		if err != nil {
			return err
		}
		defer db.Close()
		users = store.NewPostgresStore(db)
	}

	handler := notification.NewHandler(email.NewService(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.From), users, logger)

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.NotifierGroup, logger)
	defer consumer.Close()

	logger.Info("Notifier started",
		zap.Strings("brokers", cfg.Kafka.Brokers),
		zap.String("topic", cfg.Kafka.Topic),
		zap.String("group", cfg.Kafka.NotifierGroup),
		zap.String("smtp", cfg.SMTP.Host+":"+cfg.SMTP.Port))

	if err := consumer.Consume(ctx, handler.HandleEvent); err != nil && ctx.Err() == nil {
		return err
	}
	logger.Info("Shutting down")
	return nil
}
