package main

import (
	"context"
	"flag"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/inventary/manager-service/internal/config"
	"github.com/inventary/manager-service/internal/observability/logger"
	"github.com/inventary/manager-service/internal/store"
	pgmigrations "github.com/inventary/manager-service/migrations/postgres"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to YAML config (storage.postgres.dsn)")
		dsn        = flag.String("dsn", "", "Postgres DSN (overrides config; env MANAGER_POSTGRES_DSN)")
	)
	flag.Parse()

	_ = godotenv.Load()
	logger.Init(logger.Config{Env: "dev", Level: "info", Service: "manager-migrate"})
	defer func() { _ = logger.Sync() }()
	log := logger.S()

	action := "up"
	if args := flag.Args(); len(args) >= 1 && args[0] != "" {
		action = strings.ToLower(args[0])
	}

	migrator := store.NewMigrator(pgmigrations.FS, pgmigrations.Dir)

	if action == "list" {
		migs, err := migrator.ParseMigrations()
		if err != nil {
			log.Fatalf("parse migrations: %v", err)
		}
		for _, m := range migs {
			log.Infof("%04d %s", m.Version, m.Name)
		}
		return
	}
	if action != "up" {
		log.Fatalf("unknown action %q. Use: up | list", action)
	}

	target := *dsn
	if target == "" {
		target = os.Getenv("MANAGER_POSTGRES_DSN")
	}
	if target == "" && *configPath != "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("config load: %v", err)
		}
		target = cfg.Storage.Postgres.DSN
	}
	if target == "" {
		log.Fatal("postgres DSN missing (use -dsn, MANAGER_POSTGRES_DSN or -config)")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, target)
	if err != nil {
		log.Fatalf("pgxpool: %v", err)
	}
	defer pool.Close()

	res, err := migrator.Run(ctx, pool)
	if err != nil {
		log.Fatalf("migrate: %v", err)
	}
	log.Infow("migrations completed",
		"applied", res.Applied,
		"skipped", res.Skipped,
		"duration", res.Duration,
	)
}
