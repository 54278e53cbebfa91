// Package main seeds the storefront catalog: it connects to PostgreSQL,
// runs the migrations, and inserts the fixed showcase products unless they
// already exist. Safe to run repeatedly.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/utafrali/StorefrontGo/internal/config"
	"github.com/utafrali/StorefrontGo/internal/repository/postgres"
	"github.com/utafrali/StorefrontGo/internal/service"
	"github.com/utafrali/StorefrontGo/migrations"
	"github.com/utafrali/StorefrontGo/pkg/database"
	"github.com/utafrali/StorefrontGo/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New("storefront-seed", cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pgCfg := database.PostgresConfig{
		Host:     cfg.PostgresHost,
		Port:     cfg.PostgresPort,
		User:     cfg.PostgresUser,
		Password: cfg.PostgresPass,
		DBName:   cfg.PostgresDB,
		SSLMode:  cfg.PostgresSSL,
		MaxConns: 2,
		MinConns: 1,
	}

	pool, err := database.NewPostgresPoolWithLogger(ctx, &pgCfg, log)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool, migrations.FS, log); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	catalog := service.NewCatalogService(postgres.NewProductRepository(pool), nil, 0, log)

	inserted, err := catalog.SeedDefaults(ctx)
	if err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}

	log.Info("seed complete", slog.Int("inserted", inserted))
	return nil
}
