package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "fablecraft", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "postgres", cfg.Database.Driver)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "fablecraft", cfg.Database.DBName)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTokenExpiration)
		assert.Equal(t, "gemini", cfg.AI.Provider)
		assert.False(t, cfg.AI.Enabled)
		assert.Equal(t, "@every 30s", cfg.Monitor.Schedule)
		assert.True(t, cfg.Metrics.Enabled)
		assert.Equal(t, "/metrics", cfg.Metrics.Path)
	})

	t.Run("loads values from environment variables with FABLE prefix", func(t *testing.T) {
		t.Setenv("FABLE_APP_PORT", "9000")
		t.Setenv("FABLE_DATABASE_DRIVER", "sqlite")
		t.Setenv("FABLE_DATABASE_SQLITE_PATH", "/tmp/fable.db")
		t.Setenv("FABLE_DATABASE_MAX_OPEN_CONNS", "50")
		t.Setenv("FABLE_DATABASE_MAX_IDLE_CONNS", "10")
		t.Setenv("FABLE_CACHE_ENABLED", "true")
		t.Setenv("FABLE_CACHE_TTL", "5s")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "sqlite", cfg.Database.Driver)
		assert.Equal(t, "/tmp/fable.db", cfg.Database.SQLitePath)
		assert.Equal(t, 50, cfg.Database.MaxOpenConns)
		assert.Equal(t, 10, cfg.Database.MaxIdleConns)
		assert.True(t, cfg.Cache.Enabled)
		assert.Equal(t, 5*time.Second, cfg.Cache.TTL)
	})

	t.Run("loads values from an explicit toml file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "fable.toml")
		content := `
[app]
name = "fable-test"

[ai]
enabled = true
api_key = "key"
model = "gemini-test"
requests_per_minute = 2
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		cfg, err := LoadFrom(path)
		require.NoError(t, err)
		assert.Equal(t, "fable-test", cfg.App.Name)
		assert.True(t, cfg.AI.Enabled)
		assert.Equal(t, "gemini-test", cfg.AI.Model)
		assert.Equal(t, 2, cfg.AI.RequestsPerMinute)
	})

	t.Run("rejects unknown database driver", func(t *testing.T) {
		t.Setenv("FABLE_DATABASE_DRIVER", "mysql")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.driver")
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		t.Setenv("FABLE_DATABASE_MAX_OPEN_CONNS", "10")
		t.Setenv("FABLE_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("requires api key when ai is enabled", func(t *testing.T) {
		t.Setenv("FABLE_AI_ENABLED", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ai.api_key")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	setValidProductionBase := func(t *testing.T) {
		t.Setenv("FABLE_APP_ENV", "production")
		t.Setenv("FABLE_JWT_SECRET", "this-is-a-very-secure-jwt-secret-key-32chars")
		t.Setenv("FABLE_DATABASE_PASSWORD", "secure-password")
		t.Setenv("FABLE_DATABASE_SSLMODE", "require")
	}

	t.Run("passes validation with valid production config", func(t *testing.T) {
		setValidProductionBase(t)

		cfg, err := Load()
		require.NoError(t, err)
		assert.True(t, cfg.App.IsProduction())
	})

	tests := []struct {
		name    string
		key     string
		value   string
		wantErr string
	}{
		{"short jwt secret", "FABLE_JWT_SECRET", "short", "jwt.secret must be at least 32 characters"},
		{"missing database password", "FABLE_DATABASE_PASSWORD", "", "database.password is required"},
		{"ssl disabled", "FABLE_DATABASE_SSLMODE", "disable", "database.sslmode cannot be 'disable'"},
		{"auth disabled", "FABLE_JWT_DISABLED", "true", "jwt.disabled"},
		{"sqlite driver", "FABLE_DATABASE_DRIVER", "sqlite", "must be postgres in production"},
		{"auto migrate", "FABLE_DATABASE_AUTO_MIGRATE", "true", "auto_migrate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setValidProductionBase(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "writer",
			Password: "secret",
			DBName:   "fablecraft",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost:5432")
		assert.Contains(t, dsn, "writer")
		assert.Contains(t, dsn, "/fablecraft")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{Host: "localhost", Port: 5432, User: "u", Password: "pass@word#123", DBName: "db", SSLMode: "disable"}
		assert.Contains(t, cfg.DSN(), "pass%40word%23123")
	})
}

func TestRedisConfig_Addr(t *testing.T) {
	assert.Equal(t, "cache.local:6380", RedisConfig{Host: "cache.local", Port: 6380}.Addr())
}
