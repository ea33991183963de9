package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var ErrMissingEnvironmentVariables = errors.New("missing required environment variables")

const EnvProduction = "production"

// Store drivers selectable with DB_DRIVER.
const (
	DriverSQLite    = "sqlite"
	DriverPostgres  = "postgres"
	DriverPostgREST = "postgrest"
	DriverMemory    = "memory"
)

// Config holds the server configuration loaded from an optional
// config/config.yaml, a .env file and the process environment.
type Config struct {
	Env           string        `mapstructure:"env"`            // local, dev, production
	HTTPAddr      string        `mapstructure:"http_addr"`      // listen address
	RemoteTimeout time.Duration `mapstructure:"remote_timeout"` // bound for each remote store call
	SeedFile      string        `mapstructure:"seed_file"`      // JSON catalog imported at startup

	DB        DB        `mapstructure:"db"`
	PostgREST PostgREST `mapstructure:"postgrest"`
	Auth      Auth      `mapstructure:"auth"`
	CORS      CORS      `mapstructure:"cors"`
}

type DB struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"-"` // from DB_DSN
}

// PostgREST points at a Supabase-style REST endpoint used as the remote store.
type PostgREST struct {
	URL    string `mapstructure:"url"`
	APIKey string `mapstructure:"-"` // from POSTGREST_API_KEY
}

type Auth struct {
	HMACSecret string `mapstructure:"-"` // from AUTH_HMAC_SECRET
}

type CORS struct {
	Origins []string `mapstructure:"origins"`
}

func (c *Config) IsProduction() bool { return c.Env == EnvProduction }

// Load reads configuration the same way in every environment; only the
// required-secret checks get stricter in production.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")

	v.SetDefault("env", "local")
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("remote_timeout", "10s")
	v.SetDefault("seed_file", "")
	v.SetDefault("db.driver", DriverSQLite)
	v.SetDefault("postgrest.url", "")
	v.SetDefault("cors.origins", []string{"http://localhost:3000"})

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("env", "APP_ENV")
	_ = v.BindEnv("db_dsn", "DB_DSN")
	_ = v.BindEnv("postgrest_api_key", "POSTGREST_API_KEY")
	_ = v.BindEnv("auth_hmac_secret", "AUTH_HMAC_SECRET")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}
	// Comma separated CORS_ORIGINS arrives as a single string.
	cfg.CORS.Origins = splitCSV(cfg.CORS.Origins)

	cfg.DB.DSN = v.GetString("db_dsn")
	cfg.PostgREST.APIKey = v.GetString("postgrest_api_key")
	cfg.Auth.HMACSecret = v.GetString("auth_hmac_secret")

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.DB.Driver {
	case DriverSQLite, DriverPostgres, DriverMemory:
	case DriverPostgREST:
		if c.PostgREST.URL == "" || c.PostgREST.APIKey == "" {
			return fmt.Errorf("%w: POSTGREST_URL and POSTGREST_API_KEY", ErrMissingEnvironmentVariables)
		}
	default:
		return fmt.Errorf("unsupported db driver %q", c.DB.Driver)
	}

	if c.Auth.HMACSecret == "" {
		if c.IsProduction() {
			return fmt.Errorf("%w: AUTH_HMAC_SECRET", ErrMissingEnvironmentVariables)
		}
		c.Auth.HMACSecret = "dev-secret-change-me"
	}
	if c.RemoteTimeout < 0 {
		return fmt.Errorf("remote_timeout must not be negative, got %s", c.RemoteTimeout)
	}
	return nil
}

func splitCSV(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, p := range strings.Split(item, ",") {
			if s := strings.TrimSpace(p); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}
