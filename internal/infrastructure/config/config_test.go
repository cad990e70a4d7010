package config

import (
	"encoding/hex"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearPortalEnv unsets every PORTAL_ variable for the duration of the test
func clearPortalEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(key, "PORTAL_") {
			t.Setenv(key, "")
			os.Unsetenv(key)
		}
	}
}

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearPortalEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "member-portal", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "portal", cfg.Database.DBName)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)
		assert.Equal(t, "https://tripay.co.id/api-sandbox", cfg.Tripay.BaseURL)
		assert.Equal(t, int64(10000), cfg.Tripay.MinAmount)
		assert.Equal(t, 3, cfg.Tripay.MaxAttempts)
		assert.Equal(t, time.Second, cfg.Tripay.RetryBaseDelay)
		assert.Equal(t, 10*time.Second, cfg.Tripay.RetryMaxDelay)
		assert.Equal(t, "memory", cfg.Cache.Backend)
		assert.Equal(t, 10*time.Minute, cfg.Cache.ChannelsTTL)
		assert.Equal(t, "@every 1m", cfg.Scheduler.ExpireTopUpsSchedule)
		assert.False(t, cfg.Telemetry.ProfilingEnabled)
		assert.Equal(t, []string{"cpu", "alloc_objects", "alloc_space", "inuse_objects", "inuse_space"}, cfg.Telemetry.ProfilingTypes)
	})

	t.Run("loads values from environment variables with PORTAL prefix", func(t *testing.T) {
		clearPortalEnv(t)
		t.Setenv("PORTAL_APP_NAME", "test-app")
		t.Setenv("PORTAL_APP_PORT", "9000")
		t.Setenv("PORTAL_DATABASE_HOST", "testdb.local")
		t.Setenv("PORTAL_DATABASE_PORT", "5433")
		t.Setenv("PORTAL_DATABASE_MAX_OPEN_CONNS", "50")
		t.Setenv("PORTAL_DATABASE_MAX_IDLE_CONNS", "10")
		t.Setenv("PORTAL_TRIPAY_MERCHANT_CODE", "T1234")
		t.Setenv("PORTAL_TRIPAY_EXPIRY", "2h")
		t.Setenv("PORTAL_CACHE_BACKEND", "redis")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, 50, cfg.Database.MaxOpenConns)
		assert.Equal(t, 10, cfg.Database.MaxIdleConns)
		assert.Equal(t, "T1234", cfg.Tripay.MerchantCode)
		assert.Equal(t, 2*time.Hour, cfg.Tripay.Expiry)
		assert.Equal(t, "redis", cfg.Cache.Backend)
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearPortalEnv(t)
		t.Setenv("PORTAL_DATABASE_MAX_OPEN_CONNS", "10")
		t.Setenv("PORTAL_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("validates top-up bounds", func(t *testing.T) {
		clearPortalEnv(t)
		t.Setenv("PORTAL_TRIPAY_MIN_AMOUNT", "50000")
		t.Setenv("PORTAL_TRIPAY_MAX_AMOUNT", "20000")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "tripay.min_amount")
	})

	t.Run("loads profiling settings", func(t *testing.T) {
		clearPortalEnv(t)
		t.Setenv("PORTAL_TELEMETRY_PROFILING_ENABLED", "true")
		t.Setenv("PORTAL_TELEMETRY_PROFILING_SERVER_ADDRESS", "http://pyroscope:4040")
		t.Setenv("PORTAL_TELEMETRY_PROFILING_TYPES", "cpu, goroutines,mutex_count")

		cfg, err := Load()
		require.NoError(t, err)
		assert.True(t, cfg.Telemetry.ProfilingEnabled)
		assert.Equal(t, "http://pyroscope:4040", cfg.Telemetry.ProfilingServerAddress)
		assert.Equal(t, []string{"cpu", "goroutines", "mutex_count"}, cfg.Telemetry.ProfilingTypes)
	})

	t.Run("profiling requires a server address", func(t *testing.T) {
		clearPortalEnv(t)
		t.Setenv("PORTAL_TELEMETRY_PROFILING_ENABLED", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "profiling_server_address")
	})

	t.Run("rejects unknown cache backend", func(t *testing.T) {
		clearPortalEnv(t)
		t.Setenv("PORTAL_CACHE_BACKEND", "memcached")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cache.backend")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	setValidProductionBase := func(t *testing.T) {
		clearPortalEnv(t)
		t.Setenv("PORTAL_APP_ENV", "production")
		t.Setenv("PORTAL_JWT_SECRET", "this-is-a-very-secure-jwt-secret-key-32chars")
		t.Setenv("PORTAL_DATABASE_PASSWORD", "secure-password")
		t.Setenv("PORTAL_DATABASE_SSLMODE", "require")
		t.Setenv("PORTAL_TRIPAY_API_KEY", "api-key")
		t.Setenv("PORTAL_TRIPAY_PRIVATE_KEY", "private-key")
		t.Setenv("PORTAL_TRIPAY_MERCHANT_CODE", "T0001")
		t.Setenv("PORTAL_CATALOG_CREDENTIAL_KEY", hex.EncodeToString(make([]byte, 32)))
	}

	t.Run("passes validation with valid production config", func(t *testing.T) {
		setValidProductionBase(t)

		cfg, err := Load()
		require.NoError(t, err)
		assert.True(t, cfg.IsProduction())
		assert.Equal(t, "https://tripay.co.id/api", cfg.Tripay.BaseURL)
	})

	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"short jwt secret", map[string]string{"PORTAL_JWT_SECRET": "short"}, "at least 32 characters"},
		{"missing db password", map[string]string{"PORTAL_DATABASE_PASSWORD": ""}, "database.password is required"},
		{"ssl disabled", map[string]string{"PORTAL_DATABASE_SSLMODE": "disable"}, "database.sslmode"},
		{"missing tripay key", map[string]string{"PORTAL_TRIPAY_PRIVATE_KEY": ""}, "tripay.api_key"},
		{"bad credential key", map[string]string{"PORTAL_CATALOG_CREDENTIAL_KEY": "abcd"}, "32 bytes"},
		{"cors wildcard", map[string]string{"PORTAL_HTTP_CORS_ALLOW_ORIGINS": "*"}, "cors_allow_origins"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setValidProductionBase(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCatalogConfig_CredentialKeyBytes(t *testing.T) {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}

	c := CatalogConfig{CredentialKey: hex.EncodeToString(key)}
	got, err := c.CredentialKeyBytes()
	require.NoError(t, err)
	assert.Equal(t, key, got)

	c = CatalogConfig{CredentialKey: "AAECAwQFBgcICQoLDA0ODxAREhMUFRYXGBkaGxwdHh8="}
	got, err = c.CredentialKeyBytes()
	require.NoError(t, err)
	assert.Equal(t, key, got)

	c = CatalogConfig{}
	_, err = c.CredentialKeyBytes()
	assert.Error(t, err)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "testuser",
			Password: "testpass",
			DBName:   "testdb",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost:5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "pass@word#123",
			DBName:   "db",
			SSLMode:  "disable",
		}

		assert.Contains(t, cfg.DSN(), "pass%40word%23123")
	})
}
