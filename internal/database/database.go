package database

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/pump-monitoring-system/internal/config"
)

//go:embed schema.sql
var schema string

// Connect opens the pool, retrying while Postgres comes up.
func Connect() (*sqlx.DB, error) {
	return ConnectWithRetry(config.DBDSN(), config.DBConnectAttempts(), config.DBConnectDelay())
}

func ConnectWithRetry(dsn string, attempts int, delay time.Duration) (*sqlx.DB, error) {
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for i := 1; i <= attempts; i++ {
		db, err := sqlx.Connect("pgx", dsn)
		if err == nil {
			db.SetMaxOpenConns(config.DBMaxOpenConns())
			db.SetMaxIdleConns(config.DBMaxIdleConns())
			db.SetConnMaxLifetime(30 * time.Minute)
			return db, nil
		}
		lastErr = err
		log.Warn().Err(err).Int("attempt", i).Int("of", attempts).Msg("db not ready")
		time.Sleep(delay)
	}
	return nil, fmt.Errorf("db connect failed after %d attempts: %w", attempts, lastErr)
}

// Migrate applies the embedded schema. Every statement is idempotent.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
