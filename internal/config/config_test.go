package config_test

import (
	"testing"
	"time"

	"github.com/central-university-dev/go-shuttle/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "token", cfg.TelegramBotToken)
	assert.Equal(t, config.PollIntake, cfg.IntakeMode)
	assert.Equal(t, 5*time.Minute, cfg.RefreshRate)
	assert.Equal(t, 3, cfg.FetchAttempts)
	assert.Equal(t, 14*24*time.Hour, cfg.Retention)
	assert.Equal(t, 24*time.Hour, cfg.EvictionInterval)
	assert.False(t, cfg.BlockCascade)
	assert.Equal(t, config.SQLAccess, cfg.DatabaseAccessType)
	assert.Equal(t, config.TelegramTransport, cfg.MessageTransport)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("SHUTTLE_REFRESH_RATE", "90s")
	t.Setenv("SHUTTLE_BLOCK_CASCADE", "true")
	t.Setenv("DATABASE_ACCESS_TYPE", "SQUIRREL")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 90*time.Second, cfg.RefreshRate)
	assert.True(t, cfg.BlockCascade)
	assert.Equal(t, config.SquirrelAccess, cfg.DatabaseAccessType)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *config.Config)
		wantErr bool
	}{
		{
			name:    "defaults with token",
			mutate:  func(_ *config.Config) {},
			wantErr: false,
		},
		{
			name:    "missing token",
			mutate:  func(cfg *config.Config) { cfg.TelegramBotToken = "" },
			wantErr: true,
		},
		{
			name:    "webhook without certificate",
			mutate:  func(cfg *config.Config) { cfg.IntakeMode = config.WebhookIntake },
			wantErr: true,
		},
		{
			name: "webhook with certificate",
			mutate: func(cfg *config.Config) {
				cfg.IntakeMode = config.WebhookIntake
				cfg.PrivateKeyPath = "key.pem"
				cfg.CertificatePath = "cert.pem"
			},
			wantErr: false,
		},
		{
			name:    "unknown access type",
			mutate:  func(cfg *config.Config) { cfg.DatabaseAccessType = "ORM" },
			wantErr: true,
		},
		{
			name:    "zero attempts",
			mutate:  func(cfg *config.Config) { cfg.FetchAttempts = 0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.TelegramBotToken = "token"
			tt.mutate(cfg)

			err := config.Validate(cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
