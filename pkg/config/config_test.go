package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Env: "production"},
		JWT:    JWTConfig{Secret: "a-real-secret", ExpiryHours: 168},
		Ledger: LedgerConfig{BarcodeScope: BarcodeScopeGlobal},
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Run("accepts valid config", func(t *testing.T) {
		require.NoError(t, validConfig().Validate())
	})

	t.Run("rejects empty secret", func(t *testing.T) {
		cfg := validConfig()
		cfg.JWT.Secret = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects default secret in production", func(t *testing.T) {
		cfg := validConfig()
		cfg.JWT.Secret = defaultJWTSecret
		assert.Error(t, cfg.Validate())
	})

	t.Run("allows default secret in development", func(t *testing.T) {
		cfg := validConfig()
		cfg.Server.Env = "development"
		cfg.JWT.Secret = defaultJWTSecret
		assert.NoError(t, cfg.Validate())
	})

	t.Run("rejects unknown barcode scope", func(t *testing.T) {
		cfg := validConfig()
		cfg.Ledger.BarcodeScope = "warehouse"
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects non-positive expiry", func(t *testing.T) {
		cfg := validConfig()
		cfg.JWT.ExpiryHours = 0
		assert.Error(t, cfg.Validate())
	})
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SERVER_ENV", "development")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 168, cfg.JWT.ExpiryHours)
	assert.True(t, cfg.Ledger.GlobalBarcodes())
	assert.True(t, cfg.Ledger.RecordZeroDelta)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
}

func TestLoad_TenantBarcodeScope(t *testing.T) {
	t.Setenv("SERVER_ENV", "development")
	t.Setenv("LEDGER_BARCODE_SCOPE", "Tenant")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.False(t, cfg.Ledger.GlobalBarcodes())
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.AllowedOrigins)
}
