package main

import (
	"database/sql"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/example/ec-orders/internal/auth"
	"github.com/example/ec-orders/internal/domain/order"
	"github.com/example/ec-orders/internal/infrastructure/store"
	"github.com/example/ec-orders/internal/readmodel"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := connectDB()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := store.Migrate(cmd.Context(), db); err != nil {
			return err
		}
		logger.Info("Schema applied")
		return nil
	},
}

var (
	userEmail    string
	userPassword string
	userStaff    bool
)

var userAddCmd = &cobra.Command{
	Use:   "useradd [username]",
	Short: "Create a user account",
	Example: `  ec-orders useradd alice --email alice@example.com --password s3cret
  ec-orders useradd admin --password s3cret --staff`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if userPassword == "" {
			return errors.New("--password is required")
		}
		hash, err := auth.HashPassword(userPassword)
		if err != nil {
			return err
		}

		db, err := connectDB()
		if err != nil {
			return err
		}
		defer db.Close()

		u := &readmodel.UserReadModel{
			ID:           uuid.New().String(),
			Username:     args[0],
			Email:        userEmail,
			PasswordHash: hash,
			IsStaff:      userStaff,
			IsActive:     true,
			CreatedAt:    time.Now(),
		}
		if err := store.NewPostgresStore(db).CreateUser(cmd.Context(), u); err != nil {
			return err
		}
		logger.Info("User created", zap.String("user_id", u.ID), zap.String("username", u.Username), zap.Bool("is_staff", u.IsStaff))
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print order counts by status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := connectDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := order.NewService(store.NewPostgresStore(db), order.WithLogger(logger)).CountByStatus(cmd.Context())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		for _, choice := range order.StatusChoices() {
			fmt.Fprintf(w, "%s\t%d\n", choice.Label, stats.Count(choice.Value))
		}
		fmt.Fprintf(w, "Total\t%d\n", stats.Total)
		if !stats.Consistent {
			fmt.Fprintf(w, "Counted\t%d (mismatch)\n", stats.CalculatedTotal)
		}
		return w.Flush()
	},
}

func init() {
	userAddCmd.Flags().StringVar(&userEmail, "email", "", "email address")
	userAddCmd.Flags().StringVar(&userPassword, "password", "", "initial password")
	userAddCmd.Flags().BoolVar(&userStaff, "staff", false, "grant staff access")
}

func connectDB() (*sql.DB, error) {
	if cfg.Database.URL == "" {
		return nil, errors.New("database not configured (set DATABASE_URL)")
	}
	return store.ConnectPostgres(cfg.Database.URL)
}
