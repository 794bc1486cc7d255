package db

import (
	"context"
	"database/sql"
	"log"
	"log/slog"
	"os"
	"strconv"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// ConnectionConfig holds database connection pool configuration.
type ConnectionConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultConnectionConfig returns the default pool configuration. The worker
// is a single cron-driven process doing short bursts of guild reads and
// writes, so the pool stays small.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 1 * time.Hour,
		ConnMaxIdleTime: 30 * time.Minute,
	}
}

// Open creates and configures a new database connection pool.
// It reads DATABASE_URL from environment and applies connection pool settings.
func Open() *sql.DB {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL not set")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		log.Fatal(err)
	}

	cfg := getConnectionConfigFromEnv()
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	slog.Info("database connection pool configured",
		slog.Int("max_open_conns", cfg.MaxOpenConns),
		slog.Int("max_idle_conns", cfg.MaxIdleConns),
		slog.Duration("conn_max_lifetime", cfg.ConnMaxLifetime),
		slog.Duration("conn_max_idle_time", cfg.ConnMaxIdleTime))

	// Fail at startup rather than on the first sync pass.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping database: %v", err)
	}

	slog.Info("database connection established")
	return db
}

// getConnectionConfigFromEnv reads connection pool configuration from
// environment variables, falling back to defaults for unset or invalid
// values.
func getConnectionConfigFromEnv() ConnectionConfig {
	cfg := DefaultConnectionConfig()
	overrideInt("DB_MAX_OPEN_CONNS", &cfg.MaxOpenConns)
	overrideInt("DB_MAX_IDLE_CONNS", &cfg.MaxIdleConns)
	overrideDuration("DB_CONN_MAX_LIFETIME", &cfg.ConnMaxLifetime)
	overrideDuration("DB_CONN_MAX_IDLE_TIME", &cfg.ConnMaxIdleTime)
	return cfg
}

func overrideInt(key string, dst *int) {
	if raw := os.Getenv(key); raw != "" {
		if val, err := strconv.Atoi(raw); err == nil && val > 0 {
			*dst = val
		}
	}
}

func overrideDuration(key string, dst *time.Duration) {
	if raw := os.Getenv(key); raw != "" {
		if val, err := time.ParseDuration(raw); err == nil && val > 0 {
			*dst = val
		}
	}
}
