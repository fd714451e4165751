// Package config loads application configuration from environment
// variables (and optionally a .env file) via Viper.
package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/viper"
)

// Config groups the full application configuration.
type Config struct {
	App  AppConfig
	DB   DBConfig
	HTTP HTTPConfig
	Log  LogConfig
}

// AppConfig holds general application settings.
type AppConfig struct {
	Env  string // development, staging, production
	Name string
}

// DBConfig holds PostgreSQL connection settings.
// If DatabaseURL is set it is used verbatim as the connection string.
type DBConfig struct {
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string

	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// ConnectionString returns DatabaseURL when set, else the built DSN.
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN builds the PostgreSQL connection string. Credentials are URL
// encoded so special characters in the password survive.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
}

// Addr returns the listen address (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level       string
	Development bool
}

// WorkerConfig holds outbox relay settings read by cmd/worker.
type WorkerConfig struct {
	PollInterval time.Duration
	BatchSize    int
	DLQInterval  time.Duration
}

// Load reads configuration from environment variables, with an
// optional .env file. Env vars take priority. Expected names:
// APP_ENV, DB_HOST, DB_PORT, HTTP_PORT, LOG_LEVEL, etc.
func Load() (*Config, error) {
	v := newViper()

	cfg := &Config{
		App: AppConfig{
			Env:  getString(v, "APP_ENV", "development"),
			Name: getString(v, "APP_NAME", "retailops"),
		},
		DB: DBConfig{
			DatabaseURL:     getString(v, "DATABASE_URL", ""),
			Host:            getString(v, "DB_HOST", "localhost"),
			Port:            getInt(v, "DB_PORT", 5432),
			User:            getString(v, "DB_USER", "postgres"),
			Password:        getString(v, "DB_PASSWORD", ""),
			DBName:          getString(v, "DB_NAME", "retailops"),
			SSLMode:         getString(v, "DB_SSLMODE", "disable"),
			MaxConns:        int32(getInt(v, "DB_MAX_CONNS", 10)),
			MinConns:        int32(getInt(v, "DB_MIN_CONNS", 2)),
			MaxConnLifetime: getDuration(v, "DB_MAX_CONN_LIFETIME", time.Hour),
			MaxConnIdleTime: getDuration(v, "DB_MAX_CONN_IDLE_TIME", 30*time.Minute),
		},
		HTTP: HTTPConfig{
			Host:            getString(v, "HTTP_HOST", "0.0.0.0"),
			Port:            getInt(v, "HTTP_PORT", 8080),
			ShutdownTimeout: getDuration(v, "HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Log: LogConfig{
			Level:       getString(v, "LOG_LEVEL", "info"),
			Development: getString(v, "APP_ENV", "development") == "development",
		},
	}

	return cfg, nil
}

// LoadWorker reads outbox relay settings for cmd/worker.
func LoadWorker() (*WorkerConfig, error) {
	v := newViper()

	return &WorkerConfig{
		PollInterval: getDuration(v, "WORKER_POLL_INTERVAL", 2*time.Second),
		BatchSize:    getInt(v, "WORKER_BATCH_SIZE", 50),
		DLQInterval:  getDuration(v, "WORKER_DLQ_INTERVAL", time.Minute),
	}, nil
}

func newViper() *viper.Viper {
	v := viper.New()

	// Optional local .env file; env vars win
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	return v
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		return v.GetInt(key)
	}
	return def
}

func getDuration(v *viper.Viper, key string, def time.Duration) time.Duration {
	if v.IsSet(key) {
		return v.GetDuration(key)
	}
	return def
}
