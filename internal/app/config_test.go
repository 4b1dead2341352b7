package app

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join("testdata")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "debug", cfg.Server.LogLevel)
	require.Equal(t, "https://compass.example.com", cfg.Server.BaseURL)
	require.Equal(t, 30, cfg.Server.RateLimit)

	require.Equal(t, "postgres", cfg.Database.Driver)
	require.Equal(t, "db.example.com", cfg.Database.Postgres.Host)
	require.Equal(t, 5433, cfg.Database.Postgres.Port)
	require.Equal(t, "compass", cfg.Database.Postgres.Username)

	require.Equal(t, "jwt-secret", cfg.Auth.JWT.Secret)
	require.Equal(t, "compass-test", cfg.Auth.JWT.Issuer)
	require.Equal(t, 30*time.Minute, cfg.Auth.JWT.TTL)

	require.True(t, cfg.Identity.Enabled)
	require.Equal(t, "https://id.example.com", cfg.Identity.Issuer)
	require.Equal(t, "compass-web", cfg.Identity.Audience)
	require.Equal(t, 5*time.Second, cfg.Identity.Timeout)

	require.True(t, cfg.Email.Mailgun.Enabled)
	require.Equal(t, "mg.example.com", cfg.Email.Mailgun.Domain)
	require.Equal(t, "key-123", cfg.Email.Mailgun.APIKey)
	require.Equal(t, "no-reply@example.com", cfg.Email.Mailgun.From)
	require.Equal(t, 15*time.Second, cfg.Email.Mailgun.Timeout)

	require.Equal(t, 512, cfg.Shares.QRSize)
	require.Equal(t, "owner@example.com", cfg.Contact.OwnerEmail)
	require.Equal(t, 3, cfg.Contact.RateLimitPerHour)

	require.False(t, cfg.Demo.Enabled)
	require.Equal(t, "demo@example.com", cfg.Demo.OwnerEmail)

	require.False(t, cfg.Maintenance.Enabled)
	require.Equal(t, "@every 30m", cfg.Maintenance.Schedule)
	require.Equal(t, 720*time.Hour, cfg.Maintenance.RetainVisits)
	require.Equal(t, 240*time.Hour, cfg.Maintenance.RetainActivity)

	require.False(t, cfg.Monitoring.Prometheus.Enabled)
	require.Equal(t, "/internal/metrics", cfg.Monitoring.Prometheus.Endpoint)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 8000, cfg.Server.Port)
	require.Equal(t, "info", cfg.Server.LogLevel)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, "./data/compass.sqlite", cfg.Database.Path)
	require.Equal(t, 24*time.Hour, cfg.Auth.JWT.TTL)
	require.False(t, cfg.Identity.Enabled)
	require.False(t, cfg.Email.Mailgun.Enabled)
	require.Equal(t, 256, cfg.Shares.QRSize)
	require.True(t, cfg.Demo.Enabled)
	require.Equal(t, "@hourly", cfg.Maintenance.Schedule)
	require.True(t, cfg.Monitoring.Prometheus.Enabled)
	require.Equal(t, "/metrics", cfg.Monitoring.Prometheus.Endpoint)
}
