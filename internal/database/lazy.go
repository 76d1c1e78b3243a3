package database

import (
	"context"
	"sync"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/sydneysamil/samil-web/internal/config"
)

// Opener produces a connected pool.  It is called at most once per
// successful connection; failed attempts are not remembered.
type Opener func(ctx context.Context) (*sqlx.DB, error)

// Lazy holds one process-wide pool that is opened on first use.  A failed
// open leaves Lazy empty so the next caller retries, which lets an operator
// fix a missing setting and SIGHUP without restarting.
type Lazy struct {
	open Opener

	mu sync.Mutex
	db *sqlx.DB
}

// NewLazy wraps open.
func NewLazy(open Opener) *Lazy { return &Lazy{open: open} }

// ConfigOpener re-reads the database section on every attempt so a
// configuration error is reported per call rather than cached.
func ConfigOpener(get func() *config.Config) Opener {
	return func(ctx context.Context) (*sqlx.DB, error) {
		cfg := get()
		if cfg == nil {
			return nil, ErrNotConfigured
		}
		dsn, err := DSN(cfg.Database)
		if err != nil {
			return nil, err
		}
		if n := cfg.Database.MaxOpen; n > 0 && n != config.DefaultMaxOpen {
			return OpenWithOptions(ctx, dsn, n, defaultMaxIdle)
		}
		return Open(ctx, dsn)
	}
}

// DB returns the shared pool, opening it when necessary.
func (l *Lazy) DB(ctx context.Context) (*sqlx.DB, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.db != nil {
		return l.db, nil
	}
	db, err := l.open(ctx)
	if err != nil {
		zap.S().Warnw("database open failed", "err", err)
		return nil, err
	}
	l.db = db
	zap.S().Infow("database online")
	return db, nil
}

// Ping opens the pool if needed and checks connectivity.  Used by /readyz.
func (l *Lazy) Ping(ctx context.Context) error {
	db, err := l.DB(ctx)
	if err != nil {
		return err
	}
	return db.PingContext(ctx)
}

// Close releases the pool.  A later DB call opens a fresh one.
func (l *Lazy) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.db == nil {
		return nil
	}
	err := l.db.Close()
	l.db = nil
	return err
}
