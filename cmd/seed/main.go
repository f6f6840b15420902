package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"safety-lms/backend/internal/config"
	"safety-lms/backend/internal/logging"
	"safety-lms/backend/internal/repository"
)

// Logger is the logging surface used while seeding.
type Logger interface {
	Info(msg string, args ...any)
}

func main() {
	var configPath, catalogPath string

	cmd := &cobra.Command{
		Use:          "seed",
		Short:        "Load a course catalog into the database",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), configPath, catalogPath)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "Path to config file (default ./config.yaml)")
	cmd.Flags().StringVar(&catalogPath, "catalog", "cmd/seed/testdata/catalog.yaml", "Path to the catalog YAML file")

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath, catalogPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger := logging.NewLoggerWithLevel(os.Stdout, cfg.LogLevel)

	f, err := os.Open(catalogPath)
	if err != nil {
		return err
	}
	defer f.Close()

	cat, err := LoadCatalog(f)
	if err != nil {
		return err
	}

	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.DB.Host, cfg.DB.Port, cfg.DB.User, cfg.DB.Password, cfg.DB.Name, cfg.DB.SSLMode,
	)
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return fmt.Errorf("failed to connect to DB: %w", err)
	}
	defer pool.Close()

	store := repository.NewPostgres(pool)
	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}

	if err := cat.Apply(ctx, store, logger); err != nil {
		return err
	}
	logger.Info("Seeding complete", "courses", len(cat.Courses))
	return nil
}
