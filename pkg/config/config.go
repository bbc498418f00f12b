package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const defaultJWTSecret = "change-me-in-production"

// Barcode uniqueness scopes.
const (
	BarcodeScopeGlobal = "global"
	BarcodeScopeTenant = "tenant"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Ledger    LedgerConfig
	RateLimit RateLimitConfig
	SMTP      SMTPConfig
	Worker    WorkerConfig
	Log       LogConfig
}

type ServerConfig struct {
	Host           string
	Port           int
	Env            string
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	Debug        bool
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
}

type JWTConfig struct {
	Secret      string
	ExpiryHours int
}

type LedgerConfig struct {
	BarcodeScope    string
	RecordZeroDelta bool
}

type RateLimitConfig struct {
	Requests      int
	WindowSeconds int
	LoginAttempts int
}

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

type WorkerConfig struct {
	Concurrency int
}

type LogConfig struct {
	Level string
}

func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// Enabled reports whether a Redis host is configured.
func (r *RedisConfig) Enabled() bool {
	return r.Host != ""
}

func (j *JWTConfig) Expiry() time.Duration {
	return time.Duration(j.ExpiryHours) * time.Hour
}

func (s *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func (s *ServerConfig) IsDevelopment() bool {
	return s.Env == "development"
}

// GlobalBarcodes reports whether barcodes must be unique across all tenants.
func (l *LedgerConfig) GlobalBarcodes() bool {
	return l.BarcodeScope == BarcodeScopeGlobal
}

func (s *SMTPConfig) Enabled() bool {
	return s.Host != ""
}

func (s *SMTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Validate rejects configurations the server must not start with.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("JWT_SECRET must be set")
	}
	if c.JWT.Secret == defaultJWTSecret && !c.Server.IsDevelopment() {
		return errors.New("JWT_SECRET must be changed outside development")
	}
	if c.JWT.ExpiryHours <= 0 {
		return errors.New("JWT_EXPIRY_HOURS must be positive")
	}
	switch c.Ledger.BarcodeScope {
	case BarcodeScopeGlobal, BarcodeScopeTenant:
	default:
		return fmt.Errorf("LEDGER_BARCODE_SCOPE must be %q or %q, got %q",
			BarcodeScopeGlobal, BarcodeScopeTenant, c.Ledger.BarcodeScope)
	}
	return nil
}

func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("SERVER_ENV", "development")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "")
	v.SetDefault("DATABASE_HOST", "localhost")
	v.SetDefault("DATABASE_PORT", 5432)
	v.SetDefault("DATABASE_USER", "stockroom")
	v.SetDefault("DATABASE_PASSWORD", "stockroom_secret")
	v.SetDefault("DATABASE_NAME", "stockroom")
	v.SetDefault("DATABASE_SSLMODE", "disable")
	v.SetDefault("DATABASE_MAX_OPEN_CONNS", 100)
	v.SetDefault("DATABASE_MAX_IDLE_CONNS", 10)
	v.SetDefault("DATABASE_DEBUG", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("JWT_EXPIRY_HOURS", 168)
	v.SetDefault("LEDGER_BARCODE_SCOPE", BarcodeScopeGlobal)
	v.SetDefault("LEDGER_RECORD_ZERO_DELTA", true)
	v.SetDefault("RATE_LIMIT_REQUESTS", 100)
	v.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 60)
	v.SetDefault("LOGIN_RATE_LIMIT", 20)
	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_FROM", "no-reply@stockroom.local")
	v.SetDefault("WORKER_CONCURRENCY", 10)
	v.SetDefault("LOG_LEVEL", "")

	// Load from .env file if present
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	// Override with environment variables
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		Server: ServerConfig{
			Host:           v.GetString("SERVER_HOST"),
			Port:           v.GetInt("SERVER_PORT"),
			Env:            v.GetString("SERVER_ENV"),
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Database: DatabaseConfig{
			Host:         v.GetString("DATABASE_HOST"),
			Port:         v.GetInt("DATABASE_PORT"),
			User:         v.GetString("DATABASE_USER"),
			Password:     v.GetString("DATABASE_PASSWORD"),
			Name:         v.GetString("DATABASE_NAME"),
			SSLMode:      v.GetString("DATABASE_SSLMODE"),
			MaxOpenConns: v.GetInt("DATABASE_MAX_OPEN_CONNS"),
			MaxIdleConns: v.GetInt("DATABASE_MAX_IDLE_CONNS"),
			Debug:        v.GetBool("DATABASE_DEBUG"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetInt("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
		},
		JWT: JWTConfig{
			Secret:      v.GetString("JWT_SECRET"),
			ExpiryHours: v.GetInt("JWT_EXPIRY_HOURS"),
		},
		Ledger: LedgerConfig{
			BarcodeScope:    strings.ToLower(v.GetString("LEDGER_BARCODE_SCOPE")),
			RecordZeroDelta: v.GetBool("LEDGER_RECORD_ZERO_DELTA"),
		},
		RateLimit: RateLimitConfig{
			Requests:      v.GetInt("RATE_LIMIT_REQUESTS"),
			WindowSeconds: v.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
			LoginAttempts: v.GetInt("LOGIN_RATE_LIMIT"),
		},
		SMTP: SMTPConfig{
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetInt("SMTP_PORT"),
			User:     v.GetString("SMTP_USER"),
			Password: v.GetString("SMTP_PASSWORD"),
			From:     v.GetString("SMTP_FROM"),
		},
		Worker: WorkerConfig{
			Concurrency: v.GetInt("WORKER_CONCURRENCY"),
		},
		Log: LogConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
