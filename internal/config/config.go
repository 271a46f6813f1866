// Package config loads service configuration from defaults, an optional file and the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
)

// Config is the complete service configuration
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	GRPC     GRPCConfig     `mapstructure:"grpc"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Sweep    SweepConfig    `mapstructure:"sweep"`
	Log      LogConfig      `mapstructure:"log"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// DatabaseConfig selects and configures the store
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`   // postgres or memory
	ConnStr         string        `mapstructure:"conn_str"` // Overrides the individual fields when set
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	StartupDelay    time.Duration `mapstructure:"startup_delay"` // Wait before the first connection attempt
}

// DSN returns the lib/pq connection string
func (d DatabaseConfig) DSN() string {
	if d.ConnStr != "" {
		return d.ConnStr
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// HTTPConfig configures the REST API
type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// GRPCConfig configures the trigger service
type GRPCConfig struct {
	Addr       string `mapstructure:"addr"`
	Reflection bool   `mapstructure:"reflection"`
}

// AuthConfig holds the shared API token
type AuthConfig struct {
	APIToken string `mapstructure:"api_token"`
}

// SweepConfig configures the periodic sweep
type SweepConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Interval    time.Duration `mapstructure:"interval"`
	Concurrency int           `mapstructure:"concurrency"`
	Rate        float64       `mapstructure:"rate"` // Runs per second, 0 = unlimited
	PageSize    int           `mapstructure:"page_size"`
}

// LogConfig configures logging
type LogConfig struct {
	JSON  bool   `mapstructure:"json"`
	Level string `mapstructure:"level"`
}

// MetricsConfig configures the /metrics endpoint
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// SetDefaults registers default values on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.name", "autofund")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)
	v.SetDefault("database.startup_delay", 0)

	v.SetDefault("http.addr", ":8081")
	v.SetDefault("http.shutdown_timeout", 15*time.Second)

	v.SetDefault("grpc.addr", ":8080")
	v.SetDefault("grpc.reflection", true)

	v.SetDefault("auth.api_token", "dev-token")

	v.SetDefault("sweep.enabled", true)
	v.SetDefault("sweep.interval", time.Minute)
	v.SetDefault("sweep.concurrency", 4)
	v.SetDefault("sweep.rate", 0)
	v.SetDefault("sweep.page_size", 100)

	v.SetDefault("log.json", false)
	v.SetDefault("log.level", "info")

	v.SetDefault("metrics.enabled", true)
}

// bindLegacyEnv keeps the plain DB_* and API_TOKEN variables used by existing deployments
func bindLegacyEnv(v *viper.Viper) {
	v.BindEnv("database.conn_str", "AUTOFUND_DATABASE_CONN_STR", "DB_CONN_STR")
	v.BindEnv("database.host", "AUTOFUND_DATABASE_HOST", "DB_HOST")
	v.BindEnv("database.port", "AUTOFUND_DATABASE_PORT", "DB_PORT")
	v.BindEnv("database.user", "AUTOFUND_DATABASE_USER", "DB_USER")
	v.BindEnv("database.password", "AUTOFUND_DATABASE_PASSWORD", "DB_PASSWORD")
	v.BindEnv("database.name", "AUTOFUND_DATABASE_NAME", "DB_NAME")
	v.BindEnv("auth.api_token", "AUTOFUND_AUTH_API_TOKEN", "API_TOKEN")
}

// New returns a Viper instance with defaults and environment binding applied
func New() *viper.Viper {
	v := viper.New()

	v.SetEnvPrefix("AUTOFUND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindLegacyEnv(v)

	SetDefaults(v)
	return v
}

// Load reads configuration; path is optional and its format follows its extension
// Precedence (lowest to highest): defaults < file < environment
func Load(path string) (*Config, error) {
	v := New()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", path)
		}
	}

	return LoadWithViper(v)
}

// LoadWithViper unmarshals and validates configuration from v
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the service cannot start with
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "memory":
	default:
		return errors.Newf("database.driver must be postgres or memory, got %q", c.Database.Driver)
	}
	if c.Auth.APIToken == "" {
		return errors.New("auth.api_token is required")
	}
	if c.HTTP.Addr == "" && c.GRPC.Addr == "" {
		return errors.New("at least one of http.addr or grpc.addr is required")
	}
	if c.Sweep.Enabled && c.Sweep.Interval <= 0 {
		return errors.Newf("sweep.interval must be positive, got %s", c.Sweep.Interval)
	}
	if c.Sweep.Concurrency < 1 {
		return errors.Newf("sweep.concurrency must be at least 1, got %d", c.Sweep.Concurrency)
	}
	if c.Sweep.Rate < 0 {
		return errors.Newf("sweep.rate cannot be negative, got %v", c.Sweep.Rate)
	}
	if c.Sweep.PageSize < 1 {
		return errors.Newf("sweep.page_size must be at least 1, got %d", c.Sweep.PageSize)
	}
	return nil
}
