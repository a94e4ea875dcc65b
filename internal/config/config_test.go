package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir()) // no .env
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("JWT_SECRET_KEY", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, StorageDriverMemory, cfg.Database.Driver)
	assert.Equal(t, time.Hour, cfg.JWT.AccessExpiration)
	assert.Equal(t, 24*time.Hour, cfg.Compliance.PreApprovalTTL)
	assert.Zero(t, cfg.Compliance.SweepInterval)
	assert.Equal(t, 30*time.Second, cfg.Offline.DrainInterval)
	assert.Empty(t, cfg.Offline.QueuePath)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.App.CORSAllowedOrigins)
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
	assert.Equal(t, 5*time.Minute, cfg.Ledger.MaxClockSkew)
}

func TestLoad_Overrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("DB_NAME", "ledger")
	t.Setenv("JWT_SECRET_KEY", "secret")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("PREAPPROVAL_TTL", "48h")
	t.Setenv("OFFLINE_QUEUE_PATH", "/tmp/q.db")
	t.Setenv("LEDGER_MAX_CLOCK_SKEW", "90s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://postgres:pw@localhost:5432/ledger?sslmode=disable", cfg.DatabaseURL())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.App.CORSAllowedOrigins)
	assert.Equal(t, 48*time.Hour, cfg.Compliance.PreApprovalTTL)
	assert.Equal(t, 90*time.Second, cfg.Ledger.MaxClockSkew)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing secret", map[string]string{"STORAGE_DRIVER": "memory"}, "JWT_SECRET_KEY"},
		{"missing db password", map[string]string{"JWT_SECRET_KEY": "s"}, "DB_PASSWORD"},
		{"unknown driver", map[string]string{"JWT_SECRET_KEY": "s", "STORAGE_DRIVER": "mysql"}, "STORAGE_DRIVER"},
		{"bad duration", map[string]string{"JWT_SECRET_KEY": "s", "STORAGE_DRIVER": "memory", "PREAPPROVAL_TTL": "soon"}, "PREAPPROVAL_TTL"},
		{"memory in production", map[string]string{"JWT_SECRET_KEY": "s", "STORAGE_DRIVER": "memory", "APP_ENV": "production"}, "production"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			for _, k := range []string{"STORAGE_DRIVER", "DB_PASSWORD", "JWT_SECRET_KEY", "PREAPPROVAL_TTL", "APP_ENV"} {
				t.Setenv(k, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
