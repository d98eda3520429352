// Package config resolves runtime settings from the environment, an optional
// YAML file and command-line flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Log      LogConfig      `mapstructure:"log"`
	Voting   VotingConfig   `mapstructure:"voting"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	AllowOrigins    []string      `mapstructure:"allow_origins"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	VoteRatePerMin  int           `mapstructure:"vote_rate_per_min"`
	WriteRatePerMin int           `mapstructure:"write_rate_per_min"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	URL             string        `mapstructure:"url"`
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	Path            string        `mapstructure:"path"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	SlowThreshold   time.Duration `mapstructure:"slow_threshold"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	Issuer    string        `mapstructure:"issuer"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type VotingConfig struct {
	MaxRetries     uint64        `mapstructure:"max_retries"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff"`
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// envBindings keeps the variable names the service has always read.
var envBindings = map[string]string{
	"server.port":       "PORT",
	"database.driver":   "DB_DRIVER",
	"database.url":      "DATABASE_URL",
	"database.host":     "DB_HOST",
	"database.port":     "DB_PORT",
	"database.user":     "DB_USER",
	"database.password": "DB_PASSWORD",
	"database.name":     "DB_NAME",
	"database.sslmode":  "DB_SSLMODE",
	"database.path":     "DB_PATH",
	"auth.jwt_secret":   "JWT_SECRET",
	"auth.issuer":       "JWT_ISSUER",
	"log.level":         "LOG_LEVEL",
	"log.format":        "LOG_FORMAT",
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.allow_origins", []string{"*"})
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", time.Minute)
	v.SetDefault("server.vote_rate_per_min", 60)
	v.SetDefault("server.write_rate_per_min", 30)

	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.name", "stackit")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.path", "stackit.db")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.slow_threshold", time.Second)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("auth.token_ttl", 24*time.Hour)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("voting.max_retries", 3)
	v.SetDefault("voting.initial_backoff", 20*time.Millisecond)
	v.SetDefault("voting.max_backoff", 500*time.Millisecond)
}

// Load reads configuration into a Config. An empty file skips the YAML step.
func Load(v *viper.Viper, file string) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix("STACKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envBindings {
		if err := v.BindEnv(key, "STACKIT_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Database.Driver = strings.ToLower(cfg.Database.Driver)
	return cfg, nil
}

// Validate checks settings every command needs. requireSecret is set by
// commands that verify or mint tokens.
func (c *Config) Validate(requireSecret bool) error {
	var errs []error
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("unsupported database driver %q", c.Database.Driver))
	}
	if c.Server.Port == "" {
		errs = append(errs, errors.New("server port is required"))
	}
	if requireSecret && c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.Voting.MaxRetries > 10 {
		errs = append(errs, fmt.Errorf("voting.max_retries %d exceeds 10", c.Voting.MaxRetries))
	}
	return errors.Join(errs...)
}

// DSN returns the connection string for the configured driver. DATABASE_URL
// wins over the discrete DB_* settings.
func (d DatabaseConfig) DSN() string {
	if d.Driver == DriverSQLite {
		return d.Path
	}
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode,
	)
}
