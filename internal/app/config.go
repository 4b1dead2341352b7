package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Config represents the runtime configuration for the Product Compass backend.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Auth        AuthConfig        `mapstructure:"auth"`
	Identity    IdentityConfig    `mapstructure:"identity"`
	Email       EmailConfig       `mapstructure:"email"`
	Shares      ShareConfig       `mapstructure:"shares"`
	Contact     ContactConfig     `mapstructure:"contact"`
	Demo        DemoConfig        `mapstructure:"demo"`
	Maintenance MaintenanceConfig `mapstructure:"maintenance"`
	Monitoring  MonitoringConfig  `mapstructure:"monitoring"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port      int    `mapstructure:"port"`
	LogLevel  string `mapstructure:"log_level"`
	BaseURL   string `mapstructure:"base_url"`
	RateLimit int    `mapstructure:"rate_limit_per_minute"`
}

// DatabaseConfig describes connection options for the supported databases.
type DatabaseConfig struct {
	Driver   string       `mapstructure:"driver"`
	Path     string       `mapstructure:"path"`
	DSN      string       `mapstructure:"dsn"`
	Postgres DBAuthConfig `mapstructure:"postgres"`
	MySQL    DBAuthConfig `mapstructure:"mysql"`
}

// DBAuthConfig represents host based database parameters.
type DBAuthConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// AuthConfig captures session token settings.
type AuthConfig struct {
	JWT JWTSettings `mapstructure:"jwt"`
}

// JWTSettings configures JWT access tokens.
type JWTSettings struct {
	Secret string        `mapstructure:"secret"`
	Issuer string        `mapstructure:"issuer"`
	TTL    time.Duration `mapstructure:"access_token_ttl"`
}

// IdentityConfig configures the federated identity verifier.
type IdentityConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Issuer   string        `mapstructure:"issuer"`
	Audience string        `mapstructure:"audience"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// EmailConfig captures outbound email settings.
type EmailConfig struct {
	Mailgun MailgunConfig `mapstructure:"mailgun"`
}

// MailgunConfig defines the Mailgun HTTP API settings.
type MailgunConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	BaseURL  string        `mapstructure:"base_url"`
	Domain   string        `mapstructure:"domain"`
	APIKey   string        `mapstructure:"api_key"`
	From     string        `mapstructure:"from"`
	FromName string        `mapstructure:"from_name"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// ShareConfig tunes shareable link behaviour.
type ShareConfig struct {
	QRSize int `mapstructure:"qr_size"`
}

// ContactConfig routes contact-form submissions.
type ContactConfig struct {
	OwnerEmail       string `mapstructure:"owner_email"`
	RateLimitPerHour int    `mapstructure:"rate_limit_per_hour"`
}

// DemoConfig controls the public demo roadmap.
type DemoConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	OwnerEmail string `mapstructure:"owner_email"`
}

// MaintenanceConfig schedules background cleanup.
type MaintenanceConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	Schedule       string        `mapstructure:"schedule"`
	RetainVisits   time.Duration `mapstructure:"retain_visits"`
	RetainActivity time.Duration `mapstructure:"retain_activity"`
}

// MonitoringConfig enables metrics endpoints.
type MonitoringConfig struct {
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
}

// PrometheusConfig toggles metrics endpoints.
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

// LoadConfig initialises application configuration using Viper with sensible defaults.
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.NewWithOptions(viper.ExperimentalBindStruct())
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath("./config")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	v.SetEnvPrefix("COMPASS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var cfgErr viper.ConfigFileNotFoundError
		if !errors.As(err, &cfgErr) {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config, decodeHook()); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.base_url", "http://localhost:8000")
	v.SetDefault("server.rate_limit_per_minute", 120)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/compass.sqlite")

	v.SetDefault("auth.jwt.issuer", "product-compass")
	v.SetDefault("auth.jwt.access_token_ttl", "24h")

	v.SetDefault("identity.enabled", false)
	v.SetDefault("identity.timeout", "10s")

	v.SetDefault("email.mailgun.enabled", false)
	v.SetDefault("email.mailgun.timeout", "10s")
	v.SetDefault("email.mailgun.from_name", "Product Compass")

	v.SetDefault("shares.qr_size", 256)

	v.SetDefault("contact.rate_limit_per_hour", 10)

	v.SetDefault("demo.enabled", true)
	v.SetDefault("demo.owner_email", "demo@product-compass.local")

	v.SetDefault("maintenance.enabled", true)
	v.SetDefault("maintenance.schedule", "@hourly")
	v.SetDefault("maintenance.retain_visits", "2160h")   // 90 days
	v.SetDefault("maintenance.retain_activity", "2160h") // 90 days

	v.SetDefault("monitoring.prometheus.enabled", true)
	v.SetDefault("monitoring.prometheus.endpoint", "/metrics")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}
