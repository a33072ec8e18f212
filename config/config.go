// Package config loads application settings from a .env file and environment variables.
// Environment variables always take precedence over .env file values.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/jraweb/jraweb/validate"
)

// Supported database drivers.
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
)

// Config holds all server configuration.
type Config struct {
	// Database – either set DatabaseURL directly, or the individual fields.
	Driver       string
	DatabaseURL  string
	DBUser       string
	DBPass       string
	DBHost       string
	DBPort       string
	DBName       string
	DBSSLMode    string
	SQLitePath   string
	MaxOpenConns int

	// JWT signing secret (required).
	JWTSecret  string
	BcryptCost int

	// Server
	Debug      bool
	Port       string
	TLSDomains []string

	// Redis is optional; an empty address selects the in-memory cache.
	RedisAddr     string
	RedisPassword string
	CacheTTL      time.Duration

	// OtherAchievements keeps the other_achievements horse filter available.
	OtherAchievements bool

	Entry validate.EntryRules

	// MySQL – legacy jra_website database, used only by cmd/migrate.
	MySQLDSN string
}

// ClientConfig holds configuration used by the jractl terminal client.
type ClientConfig struct {
	APIBase     string
	SessionDir  string
	NotifyDelay time.Duration
	Debug       bool

	Entry validate.EntryRules
}

// Load reads configuration from a .env file (if present) and then from
// environment variables. Environment variables always win.
func Load() *Config {
	cfg, err := FromViper(newViper())
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return cfg
}

// FromViper builds and validates a Config from an already prepared viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	// Defaults
	v.SetDefault("DB_DRIVER", DriverPostgres)
	v.SetDefault("DB_USER", "jra")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "jra_website")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("SQLITE_PATH", "jra.db")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("BCRYPT_COST", 10)
	v.SetDefault("PORT", ":9000")
	v.SetDefault("TLS_DOMAINS", "")
	v.SetDefault("DEBUG", false)
	v.SetDefault("CACHE_TTL", "5m")
	v.SetDefault("FILTER_OTHER_ACHIEVEMENTS", true)
	setRangeDefaults(v)

	cfg := &Config{
		Driver:            strings.ToLower(strings.TrimSpace(v.GetString("DB_DRIVER"))),
		DatabaseURL:       v.GetString("DATABASE_URL"),
		DBUser:            v.GetString("DB_USER"),
		DBPass:            v.GetString("DB_PASS"),
		DBHost:            v.GetString("DB_HOST"),
		DBPort:            v.GetString("DB_PORT"),
		DBName:            v.GetString("DB_NAME"),
		DBSSLMode:         v.GetString("DB_SSLMODE"),
		SQLitePath:        v.GetString("SQLITE_PATH"),
		MaxOpenConns:      v.GetInt("DB_MAX_OPEN_CONNS"),
		JWTSecret:         v.GetString("JWT_SECRET"),
		BcryptCost:        v.GetInt("BCRYPT_COST"),
		Debug:             v.GetBool("DEBUG"),
		Port:              v.GetString("PORT"),
		TLSDomains:        splitTrimmed(v.GetString("TLS_DOMAINS")),
		RedisAddr:         v.GetString("REDIS_ADDR"),
		RedisPassword:     v.GetString("REDIS_PASSWORD"),
		CacheTTL:          v.GetDuration("CACHE_TTL"),
		OtherAchievements: v.GetBool("FILTER_OTHER_ACHIEVEMENTS"),
		Entry:             entryRules(v),
		MySQLDSN:          v.GetString("MYSQL_DSN"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadClient reads config for the terminal client from .env and environment variables.
func LoadClient() *ClientConfig {
	cfg, err := ClientFromViper(newViper())
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return cfg
}

// ClientFromViper builds and validates a ClientConfig.
func ClientFromViper(v *viper.Viper) (*ClientConfig, error) {
	v.SetDefault("API_BASE", "http://localhost:9000/api")
	v.SetDefault("SESSION_DIR", ".jra")
	v.SetDefault("NOTIFY_DELAY", "3s")
	v.SetDefault("DEBUG", false)
	setRangeDefaults(v)

	cfg := &ClientConfig{
		APIBase:     strings.TrimRight(v.GetString("API_BASE"), "/"),
		SessionDir:  v.GetString("SESSION_DIR"),
		NotifyDelay: v.GetDuration("NOTIFY_DELAY"),
		Debug:       v.GetBool("DEBUG"),
		Entry:       entryRules(v),
	}
	if cfg.APIBase == "" {
		return nil, errors.New("API_BASE must be set")
	}
	if err := cfg.Entry.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DSN returns the connection string for the configured driver.
// DATABASE_URL takes precedence over individual fields.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	switch c.Driver {
	case DriverSQLite:
		return c.SQLitePath
	case DriverMySQL:
		return fmt.Sprintf(
			"%s:%s@tcp(%s:%s)/%s?parseTime=true",
			c.DBUser,
			c.DBPass,
			c.DBHost,
			c.DBPort,
			c.DBName,
		)
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser,
		c.DBPass,
		c.DBHost,
		c.DBPort,
		c.DBName,
		c.DBSSLMode,
	)
}

// JWTKey returns the JWT signing key as a byte slice.
func (c *Config) JWTKey() []byte {
	return []byte(c.JWTSecret)
}

func (c *Config) validate() error {
	switch c.Driver {
	case DriverPostgres, DriverMySQL:
		if c.DatabaseURL == "" && c.DBPass == "" {
			return errors.New("DATABASE_URL or DB_PASS must be set")
		}
	case DriverSQLite:
		if c.DatabaseURL == "" && c.SQLitePath == "" {
			return errors.New("DATABASE_URL or SQLITE_PATH must be set")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Driver)
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set")
	}
	if c.MaxOpenConns < 1 {
		return errors.New("DB_MAX_OPEN_CONNS must be positive")
	}
	return c.Entry.Validate()
}

func setRangeDefaults(v *viper.Viper) {
	v.SetDefault("DECLARED_WEIGHT_MIN", 50)
	v.SetDefault("DECLARED_WEIGHT_MAX", 70)
	v.SetDefault("HORSE_WEIGHT_MIN", 300)
	v.SetDefault("HORSE_WEIGHT_MAX", 600)
	v.SetDefault("SADDLECLOTH_MIN", 1)
	v.SetDefault("SADDLECLOTH_MAX", 24)
	v.SetDefault("BARRIER_MIN", 1)
	v.SetDefault("BARRIER_MAX", 24)
}

func entryRules(v *viper.Viper) validate.EntryRules {
	return validate.EntryRules{
		DeclaredWeight: validate.Range{Name: "declared weight", Unit: "kg", Min: v.GetFloat64("DECLARED_WEIGHT_MIN"), Max: v.GetFloat64("DECLARED_WEIGHT_MAX")},
		HorseWeight:    validate.Range{Name: "horse weight", Unit: "kg", Min: v.GetFloat64("HORSE_WEIGHT_MIN"), Max: v.GetFloat64("HORSE_WEIGHT_MAX")},
		Saddlecloth:    validate.Range{Name: "saddlecloth", Min: v.GetFloat64("SADDLECLOTH_MIN"), Max: v.GetFloat64("SADDLECLOTH_MAX")},
		Barrier:        validate.Range{Name: "barrier", Min: v.GetFloat64("BARRIER_MIN"), Max: v.GetFloat64("BARRIER_MAX")},
	}
}

func newViper() *viper.Viper {
	// Silently load .env – OK if the file doesn't exist (production uses real env vars).
	if err := godotenv.Load(); err != nil {
		log.Println("config: no .env file found, using environment variables only")
	}

	v := viper.New()
	v.AutomaticEnv()
	return v
}

func splitTrimmed(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
