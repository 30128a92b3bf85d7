package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/inventary/manager-service/internal/app"
	"github.com/inventary/manager-service/internal/config"
	"github.com/inventary/manager-service/internal/observability/logger"
)

func fileExists(p string) bool {
	st, err := os.Stat(p)
	return err == nil && !st.IsDir()
}

func main() {
	var (
		flagConfigPath = flag.String("config", "", "ruta a config.yaml (fallback: $CONFIG_PATH o configs/config.yaml)")
		flagEnvFile    = flag.String("env-file", ".env", "ruta a .env (si existe, se carga)")
		flagPrint      = flag.Bool("print-config", false, "imprime config efectiva y termina")
	)
	flag.Parse()

	if *flagEnvFile != "" && fileExists(*flagEnvFile) {
		if err := godotenv.Load(*flagEnvFile); err != nil {
			fmt.Fprintf(os.Stderr, "dotenv: %v\n", err)
		}
	}

	cfgPath := *flagConfigPath
	if cfgPath == "" {
		cfgPath = os.Getenv("CONFIG_PATH")
	}
	if cfgPath == "" && fileExists("configs/config.yaml") {
		cfgPath = "configs/config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.Log.Level,
		Service: cfg.App.Name,
		Version: cfg.App.Version,
	})
	defer func() { _ = logger.Sync() }()
	log := logger.L()

	if *flagPrint {
		printConfigSummary(cfg)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, app.Options{})
	if err != nil {
		log.Fatal("wiring failed", logger.Err(err))
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn("cleanup error", logger.Err(err))
		}
	}()

	if err := a.Run(ctx); err != nil {
		log.Error("server stopped with error", logger.Err(err))
		return
	}
	log.Info("server stopped")
}

func printConfigSummary(c *config.Config) {
	fmt.Printf(`app.env=%s name=%s version=%s
server.addr=%s api_version=%s public_routes=%v cors=%v
storage.driver=%s mongo.db=%s mongo.collection=%s postgres.auto_migrate=%v
idp.driver=%s
authz.mode=%s authz.base_url=%s directive_roles=%v shared_roles=%v
rate.enabled=%v backend=%s window=%s max=%d
`,
		c.App.Env, c.App.Name, c.App.Version,
		c.Server.Addr, c.Server.APIVersion, c.Server.PublicRoutes, c.Server.CORSAllowedOrigins,
		c.Storage.Driver, c.Storage.Mongo.Database, c.Storage.Mongo.Collection, c.Storage.Postgres.AutoMigrate,
		c.IDP.Driver,
		c.Authz.Mode, c.Authz.BaseURL, c.Authz.DirectiveRoles, c.Authz.SharedRoles,
		c.Rate.Enabled, c.Rate.Backend, c.Rate.Window, c.Rate.MaxRequests,
	)
}
