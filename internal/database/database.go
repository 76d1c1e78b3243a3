// Package database centralises sqlx connection helpers.  The driver is
// go-sql-driver/mysql, which also works with MariaDB and any service that
// speaks the MySQL wire protocol.
//
// Public entry points:
//
//	Open(ctx, dsn)                              – small pool for the settings store.
//	OpenWithOptions(ctx, dsn, maxOpen, maxIdle) – fine-grained control.
//	NewLazy(opener)                             – connect on first use, retry on failure.
//
// Open helpers Ping the database before returning so callers fail fast.
// Callers should Close() the returned *sqlx.DB when no longer needed.
package database

import (
	"context"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/sydneysamil/samil-web/internal/config"
)

// defaultMaxIdle is the idle pool size for every pool opened here.
const defaultMaxIdle = 2

// Open returns a *sqlx.DB with the defaults the settings store was tuned
// for: config.DefaultMaxOpen max open, 2 idle, and a 30-minute lifetime.
func Open(ctx context.Context, dsn string) (*sqlx.DB, error) {
	return OpenWithOptions(ctx, dsn, config.DefaultMaxOpen, defaultMaxIdle)
}

// OpenWithOptions lets callers tune maxOpen and maxIdle per pool.
func OpenWithOptions(ctx context.Context, dsn string, maxOpen, maxIdle int) (*sqlx.DB, error) {
	db, err := sqlx.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(30 * time.Second)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
