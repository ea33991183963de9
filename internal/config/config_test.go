package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("AUTH_HMAC_SECRET", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 10*time.Second, cfg.RemoteTimeout)
	assert.Equal(t, DriverSQLite, cfg.DB.Driver)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORS.Origins)
	assert.NotEmpty(t, cfg.Auth.HMACSecret)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("REMOTE_TIMEOUT", "3s")
	t.Setenv("DB_DRIVER", DriverPostgREST)
	t.Setenv("POSTGREST_URL", "https://example.supabase.co/rest/v1")
	t.Setenv("POSTGREST_API_KEY", "anon-key")
	t.Setenv("AUTH_HMAC_SECRET", "s3cret")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, 3*time.Second, cfg.RemoteTimeout)
	assert.Equal(t, DriverPostgREST, cfg.DB.Driver)
	assert.Equal(t, "https://example.supabase.co/rest/v1", cfg.PostgREST.URL)
	assert.Equal(t, "anon-key", cfg.PostgREST.APIKey)
	assert.Equal(t, "s3cret", cfg.Auth.HMACSecret)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.Origins)
}

func TestLoad_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("APP_ENV", EnvProduction)
	t.Setenv("AUTH_HMAC_SECRET", "")

	_, err := Load()
	require.ErrorIs(t, err, ErrMissingEnvironmentVariables)
}

func TestLoad_PostgRESTRequiresEndpoint(t *testing.T) {
	t.Setenv("DB_DRIVER", DriverPostgREST)
	t.Setenv("POSTGREST_URL", "")
	t.Setenv("POSTGREST_API_KEY", "")

	_, err := Load()
	require.ErrorIs(t, err, ErrMissingEnvironmentVariables)
}

func TestLoad_UnknownDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "mongo")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported db driver")
}
