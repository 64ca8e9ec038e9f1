// Command bloodctl runs one-off maintenance tasks against the blood donation
// database.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"blood-donation/internal/config"
	"blood-donation/internal/repository"
	"blood-donation/internal/service"
	"blood-donation/internal/service/compatibility"
)

var rootCmd = &cobra.Command{
	Use:           "bloodctl",
	Short:         "Blood donation maintenance tool",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load .env: %w", err)
		}
		cfg = config.Load()

		var err error
		logger, err = config.NewLogger(cfg.LogLevel, "console", "bloodctl")
		return err
	},
}

var (
	cfg    *config.Config
	logger *zap.Logger
)

func init() {
	rootCmd.AddCommand(migrateCmd, seedCmd, sweepCmd, tokenCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		log.Printf("bloodctl: %v", err)
		os.Exit(1)
	}
}

func openDB() (*sqlx.DB, error) {
	db, err := config.NewPostgresDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return db, nil
}

// buildServices wires the service layer without object storage. Redis is
// optional; without it dashboard caches are simply not invalidated.
func buildServices(db *sqlx.DB) (*service.Services, func(), error) {
	rules, err := compatibility.LoadRules(cfg.CompatibilityRulesFile)
	if err != nil {
		return nil, nil, err
	}
	engine, err := compatibility.New(rules)
	if err != nil {
		return nil, nil, err
	}

	var rdb *redis.Client
	cleanup := func() {}
	if client, err := config.NewRedisClient(cfg); err != nil {
		logger.Warn("redis unavailable, skipping cache invalidation", zap.Error(err))
	} else {
		rdb = client
		cleanup = func() { _ = client.Close() }
	}

	services := service.NewServices(repository.NewRepositories(db), rdb, nil, engine, cfg, logger)
	return services, cleanup, nil
}
