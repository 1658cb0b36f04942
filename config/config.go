package config

import (
	"errors"
	"fmt"
	"strings"
	_ "time/tzdata" // app.display_timezone must resolve without a system zoneinfo

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	App      AppConfig      `mapstructure:"app"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

type ServerConfig struct {
	Port               string   `mapstructure:"port" validate:"required,numeric"`
	ReadTimeout        string   `mapstructure:"read_timeout"`
	WriteTimeout       string   `mapstructure:"write_timeout"`
	IdleTimeout        string   `mapstructure:"idle_timeout"`
	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
}

type DatabaseConfig struct {
	Type     string         `mapstructure:"type" validate:"oneof=memory sqlite postgres redis"`
	SQLite   SQLiteConfig   `mapstructure:"sqlite"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

type PostgresConfig struct {
	URL string `mapstructure:"url"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"gte=0"`
}

type AppConfig struct {
	BaseURL             string `mapstructure:"base_url" validate:"required,url"`
	ShortCodeLength     int    `mapstructure:"short_code_length" validate:"min=1,max=16"`
	MaxGenerateAttempts int    `mapstructure:"max_generate_attempts" validate:"min=1"`
	RecentLimit         int    `mapstructure:"recent_limit" validate:"min=1,max=100"`
	DisplayTimezone     string `mapstructure:"display_timezone" validate:"timezone"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"omitempty,oneof=debug info warn warning error"`
	Format string `mapstructure:"format" validate:"omitempty,oneof=json text"`
}

type MetricsConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Path           string `mapstructure:"path" validate:"omitempty,startswith=/"`
	Namespace      string `mapstructure:"namespace"`
	Subsystem      string `mapstructure:"subsystem"`
	CollectRuntime bool   `mapstructure:"collect_runtime"`
}

// Load reads config.yaml (if present) and the environment. A .env file in the
// working directory is loaded into the environment first.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/shortlink/")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	// Read config file if it exists
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.cors_allowed_origins", []string{"*"})

	v.SetDefault("database.type", "memory")
	v.SetDefault("database.sqlite.path", "./data/shortlink.db")
	v.SetDefault("database.postgres.url", "")
	v.SetDefault("database.redis.addr", "localhost:6379")
	v.SetDefault("database.redis.password", "")
	v.SetDefault("database.redis.db", 0)

	v.SetDefault("app.base_url", "http://localhost:8080")
	v.SetDefault("app.short_code_length", 7)
	v.SetDefault("app.max_generate_attempts", 10)
	v.SetDefault("app.recent_limit", 10)
	v.SetDefault("app.display_timezone", "Asia/Kolkata")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.namespace", "shortlink")
	v.SetDefault("metrics.subsystem", "")
	v.SetDefault("metrics.collect_runtime", true)
}

// Validate checks field rules and the settings each database type needs.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	switch c.Database.Type {
	case "sqlite":
		if c.Database.SQLite.Path == "" {
			return errors.New("invalid configuration: database.sqlite.path is required")
		}
	case "postgres":
		if c.Database.Postgres.URL == "" {
			return errors.New("invalid configuration: database.postgres.url is required")
		}
	case "redis":
		if c.Database.Redis.Addr == "" {
			return errors.New("invalid configuration: database.redis.addr is required")
		}
	}
	return nil
}

func (c *Config) GetDatabaseURL() string {
	switch c.Database.Type {
	case "sqlite":
		return c.Database.SQLite.Path
	case "postgres":
		return c.Database.Postgres.URL
	case "redis":
		return c.Database.Redis.Addr
	default:
		return ""
	}
}
