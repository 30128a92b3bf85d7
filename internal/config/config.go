package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		// dev | staging | prod
		Env     string `yaml:"app_env"`
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Server struct {
		Addr               string   `yaml:"addr"`
		APIVersion         string   `yaml:"api_version"`
		CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
		// PublicRoutes expone /public/manager sin gate (comportamiento heredado).
		PublicRoutes    bool   `yaml:"public_routes"`
		ReadTimeout     string `yaml:"read_timeout"`
		WriteTimeout    string `yaml:"write_timeout"`
		ShutdownTimeout string `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Storage struct {
		// mongo | postgres | memory
		Driver string `yaml:"driver"`
		Mongo  struct {
			URI        string `yaml:"uri"`
			Database   string `yaml:"database"`
			Collection string `yaml:"collection"`
		} `yaml:"mongo"`
		Postgres struct {
			DSN          string `yaml:"dsn"`
			MaxOpenConns int    `yaml:"max_open_conns"`
			MaxIdleConns int    `yaml:"max_idle_conns"`
			AutoMigrate  bool   `yaml:"auto_migrate"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	IDP struct {
		// firebase | keycloak | memory
		Driver   string `yaml:"driver"`
		Firebase struct {
			ProjectID       string `yaml:"project_id"`
			CredentialsFile string `yaml:"credentials_file"`
		} `yaml:"firebase"`
		Keycloak struct {
			BaseURL      string `yaml:"base_url"`
			Realm        string `yaml:"realm"`
			ClientID     string `yaml:"client_id"`
			ClientSecret string `yaml:"client_secret"`
			Timeout      string `yaml:"timeout"`
		} `yaml:"keycloak"`
	} `yaml:"idp"`

	Authz struct {
		// remote | jwt
		Mode    string `yaml:"mode"`
		BaseURL string `yaml:"base_url"`
		Timeout string `yaml:"timeout"`
		// JWTSecret sólo se usa con mode=jwt (desarrollo offline).
		JWTSecret      string   `yaml:"jwt_secret"`
		DirectiveRoles []string `yaml:"directive_roles"`
		SharedRoles    []string `yaml:"shared_roles"`
	} `yaml:"authz"`

	Rate struct {
		Enabled bool `yaml:"enabled"`
		// memory | redis
		Backend     string `yaml:"backend"`
		Window      string `yaml:"window"`
		MaxRequests int    `yaml:"max_requests"`
	} `yaml:"rate"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`
}

// Load lee el YAML en path, aplica defaults, overrides por env y valida.
// Si path está vacío se parte de una config vacía (sólo defaults + env).
func Load(path string) (*Config, error) {
	var c Config
	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	c.applyDefaults()

	// Overrides por env
	c.applyEnvOverrides()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.App.Name == "" {
		c.App.Name = "manager-service"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8085"
	}
	if c.Server.APIVersion == "" {
		c.Server.APIVersion = "v1"
	}
	if c.Server.CORSAllowedOrigins == nil {
		c.Server.CORSAllowedOrigins = []string{"*"}
	}
	if c.Server.ReadTimeout == "" {
		c.Server.ReadTimeout = "10s"
	}
	if c.Server.WriteTimeout == "" {
		c.Server.WriteTimeout = "30s"
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = "10s"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "mongo"
	}
	if c.Storage.Mongo.Database == "" {
		c.Storage.Mongo.Database = "enriqueta"
	}
	if c.Storage.Mongo.Collection == "" {
		c.Storage.Mongo.Collection = "manager"
	}
	if c.IDP.Driver == "" {
		c.IDP.Driver = "firebase"
	}
	if c.IDP.Keycloak.Timeout == "" {
		c.IDP.Keycloak.Timeout = "10s"
	}
	if c.Authz.Mode == "" {
		c.Authz.Mode = "remote"
	}
	if c.Authz.Timeout == "" {
		c.Authz.Timeout = "5s"
	}
	if len(c.Authz.DirectiveRoles) == 0 {
		c.Authz.DirectiveRoles = []string{"DEVELOP", "DIRECTOR"}
	}
	if len(c.Authz.SharedRoles) == 0 {
		c.Authz.SharedRoles = []string{"DEVELOP", "SECRETARIO", "INVENTARIO"}
	}
	if c.Rate.Backend == "" {
		c.Rate.Backend = "memory"
	}
	if c.Rate.Window == "" {
		c.Rate.Window = "1m"
	}
	if c.Rate.MaxRequests == 0 {
		c.Rate.MaxRequests = 120
	}
	if c.Redis.Prefix == "" {
		c.Redis.Prefix = "mgr:rl:"
	}
}

// envPrefix se antepone a todas las variables de override.
const envPrefix = "MANAGER_"

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(envPrefix + key)
	return v, v != ""
}
func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}
func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}
func getEnvCSV(key string) ([]string, bool) {
	if s, ok := getEnvStr(key); ok {
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				out = append(out, p)
			}
		}
		return out, true
	}
	return nil, false
}

// applyEnvOverrides: pisa config.yaml con variables de entorno.
func (c *Config) applyEnvOverrides() {
	// APP
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = v
	}

	// SERVER
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvStr("API_VERSION"); ok {
		c.Server.APIVersion = v
	}
	if v, ok := getEnvCSV("SERVER_CORS_ALLOWED_ORIGINS"); ok {
		c.Server.CORSAllowedOrigins = v
	}
	if v, ok := getEnvBool("SERVER_PUBLIC_ROUTES"); ok {
		c.Server.PublicRoutes = v
	}

	// STORAGE
	if v, ok := getEnvStr("STORAGE_DRIVER"); ok {
		c.Storage.Driver = v
	}
	if v, ok := getEnvStr("MONGO_URI"); ok {
		c.Storage.Mongo.URI = v
	}
	if v, ok := getEnvStr("MONGO_DATABASE"); ok {
		c.Storage.Mongo.Database = v
	}
	if v, ok := getEnvStr("POSTGRES_DSN"); ok {
		c.Storage.Postgres.DSN = v
	}
	if v, ok := getEnvInt("POSTGRES_MAX_OPEN_CONNS"); ok {
		c.Storage.Postgres.MaxOpenConns = v
	}
	if v, ok := getEnvBool("POSTGRES_AUTO_MIGRATE"); ok {
		c.Storage.Postgres.AutoMigrate = v
	}

	// IDP
	if v, ok := getEnvStr("IDP_DRIVER"); ok {
		c.IDP.Driver = v
	}
	if v, ok := getEnvStr("FIREBASE_PROJECT_ID"); ok {
		c.IDP.Firebase.ProjectID = v
	}
	if v, ok := getEnvStr("FIREBASE_CREDENTIALS_FILE"); ok {
		c.IDP.Firebase.CredentialsFile = v
	}
	if v, ok := getEnvStr("KEYCLOAK_BASE_URL"); ok {
		c.IDP.Keycloak.BaseURL = v
	}
	if v, ok := getEnvStr("KEYCLOAK_REALM"); ok {
		c.IDP.Keycloak.Realm = v
	}
	if v, ok := getEnvStr("KEYCLOAK_CLIENT_ID"); ok {
		c.IDP.Keycloak.ClientID = v
	}
	if v, ok := getEnvStr("KEYCLOAK_CLIENT_SECRET"); ok {
		c.IDP.Keycloak.ClientSecret = v
	}

	// AUTHZ
	if v, ok := getEnvStr("AUTHZ_MODE"); ok {
		c.Authz.Mode = strings.ToLower(v)
	}
	if v, ok := getEnvStr("AUTHZ_BASE_URL"); ok {
		c.Authz.BaseURL = v
	}
	if v, ok := getEnvStr("AUTHZ_TIMEOUT"); ok {
		c.Authz.Timeout = v
	}
	if v, ok := getEnvStr("AUTHZ_JWT_SECRET"); ok {
		c.Authz.JWTSecret = v
	}
	if v, ok := getEnvCSV("AUTHZ_DIRECTIVE_ROLES"); ok && len(v) > 0 {
		c.Authz.DirectiveRoles = v
	}
	if v, ok := getEnvCSV("AUTHZ_SHARED_ROLES"); ok && len(v) > 0 {
		c.Authz.SharedRoles = v
	}

	// RATE
	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
	if v, ok := getEnvStr("RATE_BACKEND"); ok {
		c.Rate.Backend = v
	}
	if v, ok := getEnvStr("RATE_WINDOW"); ok {
		c.Rate.Window = v
	}
	if v, ok := getEnvInt("RATE_MAX_REQUESTS"); ok {
		c.Rate.MaxRequests = v
	}

	// REDIS
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Redis.Addr = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Redis.Password = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Redis.DB = v
	}
}

// Validate verifica combinaciones obligatorias según drivers elegidos.
func (c *Config) Validate() error {
	var errs []error

	for name, v := range map[string]string{
		"server.read_timeout":     c.Server.ReadTimeout,
		"server.write_timeout":    c.Server.WriteTimeout,
		"server.shutdown_timeout": c.Server.ShutdownTimeout,
		"authz.timeout":           c.Authz.Timeout,
		"rate.window":             c.Rate.Window,
		"idp.keycloak.timeout":    c.IDP.Keycloak.Timeout,
	} {
		if _, err := time.ParseDuration(v); err != nil {
			errs = append(errs, fmt.Errorf("config: %s: %w", name, err))
		}
	}

	switch c.Storage.Driver {
	case "mongo":
		if strings.TrimSpace(c.Storage.Mongo.URI) == "" {
			errs = append(errs, errors.New("config: storage.mongo.uri required for driver mongo"))
		}
	case "postgres":
		if strings.TrimSpace(c.Storage.Postgres.DSN) == "" {
			errs = append(errs, errors.New("config: storage.postgres.dsn required for driver postgres"))
		}
	case "memory":
	default:
		errs = append(errs, fmt.Errorf("config: unknown storage.driver %q", c.Storage.Driver))
	}

	switch c.IDP.Driver {
	case "firebase":
		if strings.TrimSpace(c.IDP.Firebase.ProjectID) == "" && strings.TrimSpace(c.IDP.Firebase.CredentialsFile) == "" {
			errs = append(errs, errors.New("config: idp.firebase.project_id or credentials_file required"))
		}
	case "keycloak":
		k := c.IDP.Keycloak
		if k.BaseURL == "" || k.Realm == "" || k.ClientID == "" || k.ClientSecret == "" {
			errs = append(errs, errors.New("config: idp.keycloak requires base_url, realm, client_id and client_secret"))
		}
	case "memory":
	default:
		errs = append(errs, fmt.Errorf("config: unknown idp.driver %q", c.IDP.Driver))
	}

	switch c.Authz.Mode {
	case "remote":
		if strings.TrimSpace(c.Authz.BaseURL) == "" {
			errs = append(errs, errors.New("config: authz.base_url required for mode remote"))
		}
	case "jwt":
		if len(c.Authz.JWTSecret) < 32 {
			errs = append(errs, errors.New("config: authz.jwt_secret must be at least 32 bytes"))
		}
	default:
		errs = append(errs, fmt.Errorf("config: unknown authz.mode %q", c.Authz.Mode))
	}

	if c.Rate.Enabled {
		switch c.Rate.Backend {
		case "memory":
		case "redis":
			if strings.TrimSpace(c.Redis.Addr) == "" {
				errs = append(errs, errors.New("config: redis.addr required for rate.backend redis"))
			}
		default:
			errs = append(errs, fmt.Errorf("config: unknown rate.backend %q", c.Rate.Backend))
		}
		if c.Rate.MaxRequests <= 0 {
			errs = append(errs, errors.New("config: rate.max_requests must be > 0"))
		}
	}

	// Guardia dura: en prod no se permite el validador offline.
	if strings.EqualFold(c.App.Env, "prod") && c.Authz.Mode == "jwt" {
		errs = append(errs, errors.New("config: authz.mode jwt is not allowed in prod"))
	}

	return errors.Join(errs...)
}

// MustDuration parsea una duración ya validada por Validate.
func MustDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		panic(fmt.Sprintf("config: invalid duration %q", s))
	}
	return d
}
