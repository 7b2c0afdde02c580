package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/settle/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, "es-MX", cfg.App.Locale)
	assert.Equal(t, 15*time.Second, cfg.Ledger.Timeout)
	assert.Equal(t, "./receipts", cfg.Receipts.Dir)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("LEDGER_URL", "https://ledger.example.com/api/v1")
	t.Setenv("LEDGER_TIMEOUT", "3s")
	t.Setenv("DB_NAME", "condo")
	t.Setenv("CORS_ORIGINS", "https://a.example.com,https://b.example.com")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "https://ledger.example.com/api/v1", cfg.Ledger.URL)
	assert.Equal(t, 3*time.Second, cfg.Ledger.Timeout)
	assert.Equal(t, "postgres://postgres:@localhost:5432/condo?sslmode=disable", cfg.ConnectionString())
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.Server.AllowedOrigins)
}
