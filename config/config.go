package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Config holds every runtime setting of the server.
type Config struct {
	Env         string   `yaml:"env"`
	Addr        string   `yaml:"addr"`
	LogLevel    string   `yaml:"log_level"`
	LogFormat   string   `yaml:"log_format"`
	CORSOrigins []string `yaml:"cors_origins"`
	BcryptCost  int      `yaml:"bcrypt_cost"`

	Database  DatabaseConfig  `yaml:"database"`
	Admin     AdminConfig     `yaml:"admin"`
	Storage   StorageConfig   `yaml:"storage"`
	Redis     RedisConfig     `yaml:"redis"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	AMQP      AMQPConfig      `yaml:"amqp"`
}

type DatabaseConfig struct {
	Driver          string        `yaml:"driver"` // mysql | postgres
	URL             string        `yaml:"url"`
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Name            string        `yaml:"name"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// AdminConfig seeds the bootstrap superuser. Empty Email disables seeding.
type AdminConfig struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	FullName string `yaml:"full_name"`
}

type StorageConfig struct {
	Backend       string `yaml:"backend"` // local | s3
	UploadDir     string `yaml:"upload_dir"`
	PublicBaseURL string `yaml:"public_base_url"`
	S3Bucket      string `yaml:"s3_bucket"`
	S3Region      string `yaml:"s3_region"`
	S3Endpoint    string `yaml:"s3_endpoint"`
	S3AccessKey   string `yaml:"s3_access_key"`
	S3SecretKey   string `yaml:"s3_secret_key"`
}

// RedisConfig points at the Redis used by the rate limiter. Empty Addr
// disables it.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	TLS      bool   `yaml:"tls"`
}

type RateLimitConfig struct {
	Enabled        bool          `yaml:"enabled"`
	Capacity       int           `yaml:"capacity"`
	RefillTokens   int           `yaml:"refill_tokens"`
	RefillInterval time.Duration `yaml:"refill_interval"`
	TTL            time.Duration `yaml:"ttl"`
	Prefix         string        `yaml:"prefix"`
}

// AMQPConfig configures booking event publishing. Empty URL disables it.
type AMQPConfig struct {
	URL   string `yaml:"url"`
	Queue string `yaml:"queue"`
}

// Default returns development defaults.
func Default() *Config {
	return &Config{
		Env:         "dev",
		Addr:        ":8080",
		LogLevel:    "info",
		LogFormat:   "json",
		CORSOrigins: []string{"*"},
		BcryptCost:  12,
		Database: DatabaseConfig{
			Driver:          "mysql",
			Host:            "127.0.0.1",
			Port:            "3306",
			User:            "root",
			Name:            "room_booking",
			MaxOpenConns:    25,
			MaxIdleConns:    25,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Admin: AdminConfig{FullName: "Administrator"},
		Storage: StorageConfig{
			Backend:       "local",
			UploadDir:     "./uploads",
			PublicBaseURL: "/uploads",
			S3Region:      "us-east-1",
		},
		RateLimit: RateLimitConfig{
			Enabled:        true,
			Capacity:       10,
			RefillTokens:   1,
			RefillInterval: 6 * time.Second,
			TTL:            10 * time.Minute,
			Prefix:         "rl",
		},
		AMQP: AMQPConfig{Queue: "booking.events"},
	}
}

// Load builds the configuration from defaults, an optional YAML file
// (--config), the process environment and finally command-line flags.
func Load(args []string) (*Config, error) {
	return LoadWith(args, os.Getenv)
}

// LoadWith is Load with an injectable environment lookup.
func LoadWith(args []string, getenv func(string) string) (*Config, error) {
	cfg := Default()

	fs := pflag.NewFlagSet("room-booking", pflag.ContinueOnError)
	configPath := fs.String("config", "", "path to a YAML config file")
	addr := fs.String("addr", "", "HTTP listen address")
	dbDriver := fs.String("db-driver", "", "database driver (mysql or postgres)")
	dbURL := fs.String("db-url", "", "database URL or DSN")
	logLevel := fs.String("log-level", "", "log level (debug, info, warn, error)")
	logFormat := fs.String("log-format", "", "log format (json or text)")
	storageBackend := fs.String("storage", "", "image storage backend (local or s3)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if *configPath != "" {
		if err := cfg.loadYAML(*configPath); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv(getenv)

	if fs.Changed("addr") {
		cfg.Addr = *addr
	}
	if fs.Changed("db-driver") {
		cfg.Database.Driver = *dbDriver
	}
	if fs.Changed("db-url") {
		cfg.Database.URL = *dbURL
	}
	if fs.Changed("log-level") {
		cfg.LogLevel = *logLevel
	}
	if fs.Changed("log-format") {
		cfg.LogFormat = *logFormat
	}
	if fs.Changed("storage") {
		cfg.Storage.Backend = *storageBackend
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadYAML(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	env := func(key string) string { return strings.TrimSpace(getenv(key)) }
	setStr := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v := env(k); v != "" {
				*dst = v
				return
			}
		}
	}
	setInt := func(dst *int, key string) {
		if v := env(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	setBool := func(dst *bool, key string) {
		if v := env(key); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				*dst = b
			}
		}
	}
	setDur := func(dst *time.Duration, key string) {
		if v := env(key); v != "" {
			if d, err := time.ParseDuration(v); err == nil {
				*dst = d
			}
		}
	}

	setStr(&c.Env, "APP_ENV")
	if port := env("PORT"); port != "" {
		c.Addr = ":" + port
	}
	setStr(&c.Addr, "APP_ADDR")
	setStr(&c.LogLevel, "LOG_LEVEL")
	setStr(&c.LogFormat, "LOG_FORMAT")
	if raw := env("CORS_ORIGINS"); raw != "" {
		c.CORSOrigins = parseCorsOrigins(raw)
	}
	setInt(&c.BcryptCost, "BCRYPT_COST")

	setStr(&c.Database.Driver, "DB_DRIVER")
	setStr(&c.Database.URL, "MYSQL_URL", "DATABASE_URL")
	setStr(&c.Database.Host, "DB_HOST")
	setStr(&c.Database.Port, "DB_PORT")
	setStr(&c.Database.User, "DB_USER")
	setStr(&c.Database.Password, "DB_PASS")
	setStr(&c.Database.Name, "DB_NAME")
	setInt(&c.Database.MaxOpenConns, "DB_MAX_OPEN_CONNS")
	setInt(&c.Database.MaxIdleConns, "DB_MAX_IDLE_CONNS")
	setDur(&c.Database.ConnMaxLifetime, "DB_CONN_MAX_LIFETIME")

	setStr(&c.Admin.Email, "ADMIN_EMAIL")
	setStr(&c.Admin.Password, "ADMIN_PASSWORD")
	setStr(&c.Admin.FullName, "ADMIN_FULL_NAME")

	setStr(&c.Storage.Backend, "STORAGE_BACKEND")
	setStr(&c.Storage.UploadDir, "UPLOAD_DIR")
	setStr(&c.Storage.PublicBaseURL, "PUBLIC_BASE_URL")
	setStr(&c.Storage.S3Bucket, "S3_BUCKET")
	setStr(&c.Storage.S3Region, "S3_REGION")
	setStr(&c.Storage.S3Endpoint, "S3_ENDPOINT")
	setStr(&c.Storage.S3AccessKey, "S3_ACCESS_KEY")
	setStr(&c.Storage.S3SecretKey, "S3_SECRET_KEY")

	setStr(&c.Redis.Addr, "REDIS_ADDR")
	if host, port := env("REDIS_HOST"), env("REDIS_PORT"); host != "" && port != "" {
		c.Redis.Addr = host + ":" + port
	}
	setStr(&c.Redis.Password, "REDIS_PASSWORD")
	setInt(&c.Redis.DB, "REDIS_DB")
	setBool(&c.Redis.TLS, "REDIS_TLS")

	setBool(&c.RateLimit.Enabled, "RATE_LIMIT_ENABLED")
	setInt(&c.RateLimit.Capacity, "RATE_LIMIT_CAPACITY")
	setInt(&c.RateLimit.RefillTokens, "RATE_LIMIT_REFILL_TOKENS")
	setDur(&c.RateLimit.RefillInterval, "RATE_LIMIT_REFILL_INTERVAL")
	setDur(&c.RateLimit.TTL, "RATE_LIMIT_TTL")

	setStr(&c.AMQP.URL, "RABBITMQ_URL", "AMQP_URL")
	setStr(&c.AMQP.Queue, "AMQP_QUEUE")
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	switch c.Database.Driver {
	case "mysql", "postgres":
	default:
		errs = append(errs, fmt.Errorf("unsupported database driver %q", c.Database.Driver))
	}
	switch c.Storage.Backend {
	case "local":
	case "s3":
		if c.Storage.S3Bucket == "" {
			errs = append(errs, errors.New("s3 storage requires a bucket"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported storage backend %q", c.Storage.Backend))
	}
	if c.Admin.Email != "" && c.Admin.Password == "" {
		errs = append(errs, errors.New("admin email set without admin password"))
	}
	if c.RateLimit.Capacity < 1 {
		c.RateLimit.Capacity = 1
	}
	if c.RateLimit.RefillTokens < 1 {
		c.RateLimit.RefillTokens = 1
	}
	if c.RateLimit.RefillInterval <= 0 {
		c.RateLimit.RefillInterval = time.Second
	}
	if minTTL := 5 * c.RateLimit.RefillInterval; c.RateLimit.TTL < minTTL {
		c.RateLimit.TTL = minTTL
	}
	return errors.Join(errs...)
}

func parseCorsOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, part := range parts {
		origin := strings.TrimSpace(part)
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
