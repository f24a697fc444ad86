package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8081", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "filesystem", cfg.Storage.Type)
	assert.Equal(t, "./storage", cfg.Storage.BasePath)

	// Valeurs de provisioning par défaut : 3 tentatives, 1s puis x2, 5s au total
	assert.Equal(t, 3, cfg.Provisioner.Retry.Attempts)
	assert.Equal(t, time.Second, cfg.Provisioner.Retry.BaseDelay)
	assert.Equal(t, 2.0, cfg.Provisioner.Retry.Multiplier)
	assert.Equal(t, 5*time.Second, cfg.Provisioner.Timeout)

	assert.Equal(t, 3, cfg.Upload.Attempts)
	assert.Equal(t, 4, cfg.PhotoConcurrency)
	assert.Equal(t, 12*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, time.Hour, cfg.CleanupInterval)
	assert.Equal(t, 720*time.Hour, cfg.PurgeAfter)
}

func TestConfigLoadFromEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("PORT", "9090")
	t.Setenv("STORAGE_TYPE", "minio")
	t.Setenv("STORAGE_ENDPOINT", "localhost:9000")
	t.Setenv("PROVISION_ATTEMPTS", "5")
	t.Setenv("PROVISION_BASE_DELAY", "200ms")
	t.Setenv("PROVISION_TIMEOUT", "2s")
	t.Setenv("UPLOAD_ATTEMPTS", "2")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "minio", cfg.Storage.Type)
	assert.Equal(t, "localhost:9000", cfg.Storage.Endpoint)
	assert.Equal(t, 5, cfg.Provisioner.Retry.Attempts)
	assert.Equal(t, 200*time.Millisecond, cfg.Provisioner.Retry.BaseDelay)
	assert.Equal(t, 2*time.Second, cfg.Provisioner.Timeout)
	assert.Equal(t, 2, cfg.Upload.Attempts)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "missing secret",
			env:     map[string]string{"JWT_SECRET": ""},
			wantErr: "JWT_SECRET",
		},
		{
			name:    "unknown storage",
			env:     map[string]string{"JWT_SECRET": "s", "STORAGE_TYPE": "ftp"},
			wantErr: "STORAGE_TYPE",
		},
		{
			name:    "auth disabled in production",
			env:     map[string]string{"ENVIRONMENT": "production", "AUTH_DISABLED": "true"},
			wantErr: "AUTH_DISABLED",
		},
		{
			name:    "zero attempts",
			env:     map[string]string{"JWT_SECRET": "s", "UPLOAD_ATTEMPTS": "0"},
			wantErr: "retry attempts",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAuthDisabledInDevelopment(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("AUTH_DISABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Auth.Disabled)
	assert.False(t, cfg.IsProduction())
}

func TestDescription(t *testing.T) {
	text := Description()
	assert.Contains(t, text, "STORAGE_TYPE")
	assert.Contains(t, text, "PROVISION_TIMEOUT")
}
