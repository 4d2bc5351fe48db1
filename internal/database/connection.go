// Package database provides the direct Postgres connection used only to
// run goose schema migrations against the Aurora Serverless cluster. The
// request path never uses this package — it talks to Postgres through
// the RDS Data API (internal/store/rdsdata) instead, since the core
// runs behind a VPC boundary that only exposes the Data API endpoint to
// application workloads. This package exists for the one-off migration
// job that does have direct network access.
package database

import (
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

// Config is the direct-connection configuration for the migration job.
type Config struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultConfig returns the baseline migration connection settings.
func DefaultConfig() *Config {
	return &Config{
		Host:            "localhost",
		Port:            5432,
		User:            "media_intel_migrator",
		Database:        "media_intel",
		SSLMode:         "disable",
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: 5 * time.Minute,
	}
}

// LoadFromEnv overlays MIGRATION_DB_* environment variables onto the
// config, leaving unset/invalid values untouched.
func (c *Config) LoadFromEnv() {
	if v := os.Getenv("MIGRATION_DB_HOST"); v != "" {
		c.Host = v
	}
	if v := os.Getenv("MIGRATION_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Port = port
		}
	}
	if v := os.Getenv("MIGRATION_DB_USER"); v != "" {
		c.User = v
	}
	if v := os.Getenv("MIGRATION_DB_PASSWORD"); v != "" {
		c.Password = v
	}
	if v := os.Getenv("MIGRATION_DB_NAME"); v != "" {
		c.Database = v
	}
	if v := os.Getenv("MIGRATION_DB_SSL_MODE"); v != "" {
		c.SSLMode = v
	}
}

// Validate checks that the config has everything needed to open a
// connection.
func (c *Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("database port must be between 1 and 65535")
	}
	if c.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Database == "" {
		return fmt.Errorf("database name is required")
	}
	if c.MaxOpenConns <= 0 {
		return fmt.Errorf("max open connections must be greater than 0")
	}
	if c.MaxIdleConns < 0 {
		return fmt.Errorf("max idle connections must be non-negative")
	}
	return nil
}

// ConnectionString renders the libpq-style DSN pgx/stdlib expects.
func (c *Config) ConnectionString() string {
	dsn := fmt.Sprintf("host=%s port=%d user=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Database, c.SSLMode)
	if c.Password != "" {
		dsn += fmt.Sprintf(" password=%s", c.Password)
	}
	return dsn
}

// Connect validates the config and opens a pooled *sql.DB over the pgx
// stdlib driver, used exclusively by the goose migration runner.
func Connect(cfg *Config, logger *zap.Logger) (*sql.DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid database configuration: %w", err)
	}

	db, err := sql.Open("pgx", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	logger.Info("migration database connection pool configured",
		zap.String("host", cfg.Host), zap.Int("port", cfg.Port), zap.String("database", cfg.Database))

	return db, nil
}
