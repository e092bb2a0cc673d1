package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"DIR_APP_NAME",
	"DIR_APP_ENV",
	"DIR_APP_PORT",
	"DIR_APP_API_KEY",
	"DIR_APP_SEED_DATA",
	"DIR_DATABASE_DRIVER",
	"DIR_DATABASE_HOST",
	"DIR_DATABASE_PORT",
	"DIR_DATABASE_USER",
	"DIR_DATABASE_PASSWORD",
	"DIR_DATABASE_DBNAME",
	"DIR_DATABASE_MAX_OPEN_CONNS",
	"DIR_DATABASE_MAX_IDLE_CONNS",
	"DIR_AUTH_SECRET",
	"DIR_AUTH_ADMIN_EMAIL",
	"DIR_AUTH_ADMIN_PASSWORD",
	"DIR_AUTH_TOKEN_LIFETIME",
	"DIR_STORAGE_ENABLED",
	"DIR_STORAGE_BUCKET",
	"DIR_STORAGE_SCHEDULE_ENABLED",
	"DIR_STORAGE_SCHEDULE_HOUR",
	"DIR_TELEMETRY_SAMPLING_RATIO",
}

// clearEnv unsets every variable the tests touch; t.Setenv restores them afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "directory", cfg.App.Name)
		assert.Equal(t, "Справочник", cfg.App.Title)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "0.0.0.0:8000", cfg.App.Addr())
		assert.Equal(t, DefaultAPIKey, cfg.App.APIKey)
		assert.True(t, cfg.App.SeedData)
		assert.Equal(t, DriverPostgres, cfg.Database.Driver)
		assert.Equal(t, "admin", cfg.Database.User)
		assert.Equal(t, "admin123", cfg.Database.Password)
		assert.Equal(t, "mydatabase", cfg.Database.DBName)
		assert.Equal(t, DefaultJWTSecret, cfg.Auth.Secret)
		assert.Equal(t, time.Hour, cfg.Auth.TokenLifetime)
		assert.Equal(t, "auth/jwt/login", cfg.Auth.TokenURL)
		assert.Equal(t, 3, cfg.Auth.PasswordLength)
		assert.False(t, cfg.RedisEnabled())
		assert.Equal(t, 2, cfg.Storage.ScheduleHour)
		assert.Equal(t, 10*time.Minute, cfg.Storage.ScheduleTimeout)
	})

	t.Run("loads values from environment variables with DIR prefix", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("DIR_APP_PORT", "9000")
		t.Setenv("DIR_APP_API_KEY", "another-key")
		t.Setenv("DIR_APP_SEED_DATA", "false")
		t.Setenv("DIR_DATABASE_DRIVER", "sqlite")
		t.Setenv("DIR_AUTH_ADMIN_EMAIL", "admin@example.com")
		t.Setenv("DIR_AUTH_ADMIN_PASSWORD", "strong-password")
		t.Setenv("DIR_AUTH_TOKEN_LIFETIME", "30m")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "another-key", cfg.App.APIKey)
		assert.False(t, cfg.App.SeedData)
		assert.Equal(t, DriverSQLite, cfg.Database.Driver)
		assert.Equal(t, "./directory.db", cfg.Database.DSN())
		assert.Equal(t, "admin@example.com", cfg.Auth.AdminEmail)
		assert.Equal(t, 30*time.Minute, cfg.Auth.TokenLifetime)
	})

	t.Run("rejects unknown database driver", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("DIR_DATABASE_DRIVER", "mysql")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.driver")
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("DIR_DATABASE_MAX_OPEN_CONNS", "10")
		t.Setenv("DIR_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("requires admin email and password together", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("DIR_AUTH_ADMIN_EMAIL", "admin@example.com")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "admin_password")
	})

	t.Run("requires bucket when storage is enabled", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("DIR_STORAGE_ENABLED", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage.bucket")
	})

	t.Run("schedule needs storage", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("DIR_STORAGE_SCHEDULE_ENABLED", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage.schedule_enabled")
	})

	t.Run("rejects out of range schedule hour", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("DIR_STORAGE_SCHEDULE_HOUR", "24")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "schedule_hour")
	})

	t.Run("rejects out of range sampling ratio", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("DIR_TELEMETRY_SAMPLING_RATIO", "1.5")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sampling_ratio")
	})
}

func TestValidate_Production(t *testing.T) {
	base := func() *Config {
		cfg := &Config{App: AppConfig{Env: "production"}}
		applyDefaults(cfg)
		cfg.Database.Password = "prod-password"
		cfg.App.APIKey = "a-production-api-key"
		cfg.Auth.Secret = "0123456789abcdef0123456789abcdef"
		return cfg
	}

	t.Run("accepts hardened config", func(t *testing.T) {
		require.NoError(t, base().validate())
	})

	t.Run("rejects default jwt secret", func(t *testing.T) {
		cfg := base()
		cfg.Auth.Secret = DefaultJWTSecret
		err := cfg.validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "auth.secret")
	})

	t.Run("rejects default api key", func(t *testing.T) {
		cfg := base()
		cfg.App.APIKey = DefaultAPIKey
		err := cfg.validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "api_key")
	})

	t.Run("rejects wildcard cors", func(t *testing.T) {
		cfg := base()
		cfg.HTTP.CORSAllowOrigins = []string{"*"}
		require.Error(t, cfg.validate())
	})

	t.Run("does not default database password", func(t *testing.T) {
		cfg := &Config{App: AppConfig{Env: "production"}}
		applyDefaults(cfg)
		assert.Empty(t, cfg.Database.Password)
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{
		Driver:   DriverPostgres,
		Host:     "db",
		Port:     5432,
		User:     "admin",
		Password: "p@ss word",
		DBName:   "mydatabase",
		SSLMode:  "disable",
	}
	assert.Equal(t, "postgres://admin:p%40ss%20word@db:5432/mydatabase?sslmode=disable", d.DSN())
}
