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
	// Save original env vars and restore after tests
	originalEnv := map[string]string{
		"LINKDECK_APP_NAME":                os.Getenv("LINKDECK_APP_NAME"),
		"LINKDECK_APP_ENV":                 os.Getenv("LINKDECK_APP_ENV"),
		"LINKDECK_APP_PORT":                os.Getenv("LINKDECK_APP_PORT"),
		"LINKDECK_STORE_DRIVER":            os.Getenv("LINKDECK_STORE_DRIVER"),
		"LINKDECK_REDIS_HOST":              os.Getenv("LINKDECK_REDIS_HOST"),
		"LINKDECK_REDIS_PORT":              os.Getenv("LINKDECK_REDIS_PORT"),
		"LINKDECK_REDIS_KEY_PREFIX":        os.Getenv("LINKDECK_REDIS_KEY_PREFIX"),
		"LINKDECK_DATABASE_SQLITE_PATH":    os.Getenv("LINKDECK_DATABASE_SQLITE_PATH"),
		"LINKDECK_DATABASE_MAX_OPEN_CONNS": os.Getenv("LINKDECK_DATABASE_MAX_OPEN_CONNS"),
		"LINKDECK_DATABASE_MAX_IDLE_CONNS": os.Getenv("LINKDECK_DATABASE_MAX_IDLE_CONNS"),
		"LINKDECK_AUTH_ENABLED":            os.Getenv("LINKDECK_AUTH_ENABLED"),
		"LINKDECK_AUTH_USERNAME":           os.Getenv("LINKDECK_AUTH_USERNAME"),
		"LINKDECK_AUTH_PASSWORD_HASH":      os.Getenv("LINKDECK_AUTH_PASSWORD_HASH"),
		"LINKDECK_JWT_SECRET":              os.Getenv("LINKDECK_JWT_SECRET"),
		"LINKDECK_BACKUP_ENABLED":          os.Getenv("LINKDECK_BACKUP_ENABLED"),
		"LINKDECK_BACKUP_BUCKET":           os.Getenv("LINKDECK_BACKUP_BUCKET"),
		"LINKDECK_BACKUP_DIR":              os.Getenv("LINKDECK_BACKUP_DIR"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	clearEnv := func() {
		for k := range originalEnv {
			os.Unsetenv(k)
		}
	}

	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv()

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "linkdeck", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, StoreDriverMemory, cfg.Store.Driver)
		assert.Equal(t, "localhost", cfg.Redis.Host)
		assert.Equal(t, 6379, cfg.Redis.Port)
		assert.Equal(t, "linkdeck:", cfg.Redis.KeyPrefix)
		assert.Equal(t, "linkdeck.db", cfg.Database.SQLitePath)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)
		assert.Equal(t, 5*time.Second, cfg.Links.FetchTimeout)
		assert.Equal(t, "linkdeck", cfg.Telemetry.ServiceName)
		assert.Equal(t, 1.0, cfg.Telemetry.SamplingRatio)
		assert.False(t, cfg.Auth.Enabled)
		assert.False(t, cfg.Backup.Enabled)
	})

	t.Run("loads values from environment variables with LINKDECK prefix", func(t *testing.T) {
		clearEnv()
		os.Setenv("LINKDECK_APP_NAME", "test-deck")
		os.Setenv("LINKDECK_APP_PORT", "9000")
		os.Setenv("LINKDECK_STORE_DRIVER", "redis")
		os.Setenv("LINKDECK_REDIS_HOST", "cache.local")
		os.Setenv("LINKDECK_REDIS_PORT", "6380")
		os.Setenv("LINKDECK_REDIS_KEY_PREFIX", "ld:")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-deck", cfg.App.Name)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, StoreDriverRedis, cfg.Store.Driver)
		assert.Equal(t, "cache.local", cfg.Redis.Host)
		assert.Equal(t, 6380, cfg.Redis.Port)
		assert.Equal(t, "ld:", cfg.Redis.KeyPrefix)
		assert.Equal(t, "cache.local:6380", cfg.Redis.RedisAddr())
	})

	t.Run("rejects unknown store driver", func(t *testing.T) {
		clearEnv()
		os.Setenv("LINKDECK_STORE_DRIVER", "etcd")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "store.driver")
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearEnv()
		os.Setenv("LINKDECK_DATABASE_MAX_OPEN_CONNS", "10")
		os.Setenv("LINKDECK_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns")
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("requires credentials when auth enabled", func(t *testing.T) {
		clearEnv()
		os.Setenv("LINKDECK_AUTH_ENABLED", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "auth.username")
	})

	t.Run("requires jwt secret when auth enabled", func(t *testing.T) {
		clearEnv()
		os.Setenv("LINKDECK_AUTH_ENABLED", "true")
		os.Setenv("LINKDECK_AUTH_USERNAME", "admin")
		os.Setenv("LINKDECK_AUTH_PASSWORD_HASH", "$2a$10$abcdefghijklmnopqrstuv")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt.secret")
	})

	t.Run("requires target when backup enabled", func(t *testing.T) {
		clearEnv()
		os.Setenv("LINKDECK_BACKUP_ENABLED", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "backup.bucket or backup.dir")
	})

	t.Run("accepts local directory as backup target", func(t *testing.T) {
		clearEnv()
		os.Setenv("LINKDECK_BACKUP_ENABLED", "true")
		os.Setenv("LINKDECK_BACKUP_DIR", "/var/lib/linkdeck/backups")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "/var/lib/linkdeck/backups", cfg.Backup.Dir)
	})
}

func TestLoadFrom(t *testing.T) {
	for _, k := range []string{"LINKDECK_APP_NAME", "LINKDECK_APP_PORT", "LINKDECK_CLIENT_SERVER_URL"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	t.Run("reads an explicit config file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		content := "[app]\nname = \"file-deck\"\nport = \"9100\"\n\n[client]\nserver_url = \"https://links.example.com\"\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		cfg, err := LoadFrom(path)
		require.NoError(t, err)
		assert.Equal(t, "file-deck", cfg.App.Name)
		assert.Equal(t, "9100", cfg.App.Port)
		assert.Equal(t, "https://links.example.com", cfg.Client.ServerURL)
	})

	t.Run("fails when the explicit file is missing", func(t *testing.T) {
		_, err := LoadFrom(filepath.Join(t.TempDir(), "absent.toml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "error reading config file")
	})

	t.Run("empty path behaves like Load", func(t *testing.T) {
		cfg, err := LoadFrom("")
		require.NoError(t, err)
		assert.Equal(t, "linkdeck", cfg.App.Name)
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	originalEnv := map[string]string{
		"LINKDECK_APP_ENV":            os.Getenv("LINKDECK_APP_ENV"),
		"LINKDECK_STORE_DRIVER":       os.Getenv("LINKDECK_STORE_DRIVER"),
		"LINKDECK_DATABASE_PASSWORD":  os.Getenv("LINKDECK_DATABASE_PASSWORD"),
		"LINKDECK_DATABASE_SSLMODE":   os.Getenv("LINKDECK_DATABASE_SSLMODE"),
		"LINKDECK_AUTH_ENABLED":       os.Getenv("LINKDECK_AUTH_ENABLED"),
		"LINKDECK_AUTH_USERNAME":      os.Getenv("LINKDECK_AUTH_USERNAME"),
		"LINKDECK_AUTH_PASSWORD_HASH": os.Getenv("LINKDECK_AUTH_PASSWORD_HASH"),
		"LINKDECK_JWT_SECRET":         os.Getenv("LINKDECK_JWT_SECRET"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	clearEnv := func() {
		for k := range originalEnv {
			os.Unsetenv(k)
		}
	}

	t.Run("requires jwt.secret at least 32 characters in production", func(t *testing.T) {
		clearEnv()
		os.Setenv("LINKDECK_APP_ENV", "production")
		os.Setenv("LINKDECK_AUTH_ENABLED", "true")
		os.Setenv("LINKDECK_AUTH_USERNAME", "admin")
		os.Setenv("LINKDECK_AUTH_PASSWORD_HASH", "$2a$10$abcdefghijklmnopqrstuv")
		os.Setenv("LINKDECK_JWT_SECRET", "short-secret")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt.secret must be at least 32 characters")
	})

	t.Run("requires database password for postgres in production", func(t *testing.T) {
		clearEnv()
		os.Setenv("LINKDECK_APP_ENV", "production")
		os.Setenv("LINKDECK_STORE_DRIVER", "postgres")
		os.Setenv("LINKDECK_DATABASE_SSLMODE", "require")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password is required in production")
	})

	t.Run("rejects sslmode disable for postgres in production", func(t *testing.T) {
		clearEnv()
		os.Setenv("LINKDECK_APP_ENV", "production")
		os.Setenv("LINKDECK_STORE_DRIVER", "postgres")
		os.Setenv("LINKDECK_DATABASE_PASSWORD", "secure-password")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sslmode")
	})

	t.Run("sqlite in production does not require database credentials", func(t *testing.T) {
		clearEnv()
		os.Setenv("LINKDECK_APP_ENV", "production")
		os.Setenv("LINKDECK_STORE_DRIVER", "sqlite")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, StoreDriverSQLite, cfg.Store.Driver)
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "db.local",
		Port:     5432,
		User:     "linkdeck",
		Password: "p@ss:word/",
		DBName:   "linkdeck",
		SSLMode:  "require",
	}

	dsn := cfg.DSN()

	assert.Contains(t, dsn, "postgres://")
	assert.Contains(t, dsn, "db.local:5432")
	assert.Contains(t, dsn, "sslmode=require")
	// Special characters in the password must be escaped
	assert.NotContains(t, dsn, "p@ss:word/linkdeck")
}
