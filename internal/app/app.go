// Package app arma el servicio a partir de la configuración: store, identity
// provider, validator, gate, orquestador, router y servidor HTTP.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	rdb "github.com/redis/go-redis/v9"

	"github.com/inventary/manager-service/internal/authz"
	"github.com/inventary/manager-service/internal/config"
	healthctrl "github.com/inventary/manager-service/internal/http/controllers/health"
	managerctrl "github.com/inventary/manager-service/internal/http/controllers/manager"
	mw "github.com/inventary/manager-service/internal/http/middlewares"
	"github.com/inventary/manager-service/internal/http/router"
	"github.com/inventary/manager-service/internal/idp"
	"github.com/inventary/manager-service/internal/idp/firebase"
	"github.com/inventary/manager-service/internal/idp/keycloak"
	idpmem "github.com/inventary/manager-service/internal/idp/memory"
	"github.com/inventary/manager-service/internal/manager"
	"github.com/inventary/manager-service/internal/observability/logger"
	"github.com/inventary/manager-service/internal/rate"
	"github.com/inventary/manager-service/internal/store"

	// Registra los adapters de store via init()
	_ "github.com/inventary/manager-service/internal/store/adapters/dal"
)

// Options permite reemplazar piezas en tests.
type Options struct {
	// Registry para las métricas; nil => prometheus.DefaultRegisterer.
	Registry prometheus.Registerer
	// Provider reemplaza al identity provider configurado.
	Provider idp.Provider
	// Validator reemplaza al validator configurado.
	Validator authz.Validator
}

// App es la aplicación cableada.
type App struct {
	Handler http.Handler
	Server  *http.Server

	cfg      *config.Config
	cleanups []func() error
}

type pinger interface {
	Ping(ctx context.Context) error
}

// New construye la aplicación. Si algo falla, libera lo ya abierto.
func New(ctx context.Context, cfg *config.Config, opts Options) (_ *App, err error) {
	log := logger.From(ctx).With(logger.Component("app"))
	a := &App{cfg: cfg}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	// 1. Store
	conn, err := store.OpenAdapter(ctx, storeConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("app: open store %q: %w", cfg.Storage.Driver, err)
	}
	a.cleanups = append(a.cleanups, conn.Close)
	log.Info("store connected", logger.String("driver", conn.Name()))

	// 2. Identity provider
	provider := opts.Provider
	if provider == nil {
		provider, err = newProvider(ctx, cfg)
		if err != nil {
			return nil, err
		}
	}
	log.Info("identity provider ready", logger.Provider(provider.Name()))

	// 3. Validator + gate
	validator := opts.Validator
	if validator == nil {
		validator, err = newValidator(cfg)
		if err != nil {
			return nil, err
		}
	}
	gate := authz.NewGate(validator)

	// 4. Rate limiter (opcional)
	var limiter rate.Limiter
	if cfg.Rate.Enabled {
		limiter, err = a.newLimiter(ctx, cfg)
		if err != nil {
			return nil, err
		}
	}

	// 5. Métricas
	var poolFn func() *pgxpool.Pool
	if pc, ok := conn.(interface{ Pool() *pgxpool.Pool }); ok {
		poolFn = pc.Pool
	}
	metricsHandler, err := mw.RegisterMetrics(mw.MetricsConfig{Registry: opts.Registry, Pool: poolFn})
	if err != nil {
		return nil, fmt.Errorf("app: metrics: %w", err)
	}

	// 6. Orquestador + controllers
	svc := manager.NewService(manager.Deps{
		Repo:     conn.Managers(),
		Provider: provider,
	})

	checks := map[string]healthctrl.Check{"store": conn.Ping}
	if p, ok := validator.(pinger); ok {
		checks["validator"] = p.Ping
	}
	if p, ok := limiter.(pinger); ok {
		checks["rate"] = p.Ping
	}

	a.Handler = router.New(router.Deps{
		APIVersion:     cfg.Server.APIVersion,
		Manager:        managerctrl.NewController(svc),
		Health:         healthctrl.NewController(cfg.App.Version, 3*time.Second, checks),
		Gate:           gate,
		Metrics:        metricsHandler,
		RateLimiter:    limiter,
		CORSOrigins:    cfg.Server.CORSAllowedOrigins,
		DirectiveRoles: cfg.Authz.DirectiveRoles,
		SharedRoles:    cfg.Authz.SharedRoles,
		PublicRoutes:   cfg.Server.PublicRoutes,
	})
	if cfg.Server.PublicRoutes {
		log.Warn("public manager routes enabled without authorization gate")
	}

	a.Server = &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           a.Handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       config.MustDuration(cfg.Server.ReadTimeout),
		WriteTimeout:      config.MustDuration(cfg.Server.WriteTimeout),
	}
	return a, nil
}

func storeConfig(cfg *config.Config) store.AdapterConfig {
	sc := store.AdapterConfig{Name: cfg.Storage.Driver}
	switch cfg.Storage.Driver {
	case "mongo":
		sc.DSN = cfg.Storage.Mongo.URI
		sc.Database = cfg.Storage.Mongo.Database
		sc.Collection = cfg.Storage.Mongo.Collection
	case "postgres":
		sc.DSN = cfg.Storage.Postgres.DSN
		sc.MaxOpenConns = cfg.Storage.Postgres.MaxOpenConns
		sc.MaxIdleConns = cfg.Storage.Postgres.MaxIdleConns
		sc.AutoMigrate = cfg.Storage.Postgres.AutoMigrate
	}
	return sc
}

func newProvider(ctx context.Context, cfg *config.Config) (idp.Provider, error) {
	switch cfg.IDP.Driver {
	case "firebase":
		p, err := firebase.New(ctx, firebase.Config{
			ProjectID:       cfg.IDP.Firebase.ProjectID,
			CredentialsFile: cfg.IDP.Firebase.CredentialsFile,
		})
		if err != nil {
			return nil, fmt.Errorf("app: firebase: %w", err)
		}
		return p, nil
	case "keycloak":
		kc := cfg.IDP.Keycloak
		p, err := keycloak.New(ctx, keycloak.Config{
			BaseURL:      kc.BaseURL,
			Realm:        kc.Realm,
			ClientID:     kc.ClientID,
			ClientSecret: kc.ClientSecret,
			Timeout:      config.MustDuration(kc.Timeout),
		})
		if err != nil {
			return nil, fmt.Errorf("app: keycloak: %w", err)
		}
		return p, nil
	case "memory":
		return idpmem.New(), nil
	default:
		return nil, fmt.Errorf("app: unknown idp driver %q", cfg.IDP.Driver)
	}
}

func newValidator(cfg *config.Config) (authz.Validator, error) {
	switch cfg.Authz.Mode {
	case "remote":
		return authz.NewHTTPValidator(cfg.Authz.BaseURL, nil, config.MustDuration(cfg.Authz.Timeout)), nil
	case "jwt":
		return authz.NewJWTValidator([]byte(cfg.Authz.JWTSecret)), nil
	default:
		return nil, fmt.Errorf("app: unknown authz mode %q", cfg.Authz.Mode)
	}
}

func (a *App) newLimiter(ctx context.Context, cfg *config.Config) (rate.Limiter, error) {
	window := config.MustDuration(cfg.Rate.Window)
	if cfg.Rate.Backend != "redis" {
		return rate.NewMemoryLimiter(cfg.Rate.MaxRequests, window), nil
	}

	client := rdb.NewClient(&rdb.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	a.cleanups = append(a.cleanups, client.Close)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("app: redis ping: %w", err)
	}
	return rate.NewRedisLimiter(client, cfg.Redis.Prefix, cfg.Rate.MaxRequests, window), nil
}

// Run sirve HTTP hasta que ctx se cancele y luego hace shutdown ordenado.
func (a *App) Run(ctx context.Context) error {
	log := logger.From(ctx).With(logger.Component("app"))

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", logger.String("addr", a.Server.Addr))
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.MustDuration(a.cfg.Server.ShutdownTimeout))
	defer cancel()
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("app: shutdown: %w", err)
	}
	return <-errCh
}

// Close libera store y clientes en orden inverso de apertura.
func (a *App) Close() error {
	var errs []error
	for i := len(a.cleanups) - 1; i >= 0; i-- {
		if err := a.cleanups[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.cleanups = nil
	return errors.Join(errs...)
}
