// internal/site/store.go
//
// Settings store for the site-wide theme row.
//
// Context
// -------
// One table, one logical row per setting key:
//
//	site_settings (setting_key PK, theme_id, updated_by NULL, updated_at NULL)
//
// The table provisions itself on first access.  Concurrent first callers
// share one CREATE TABLE IF NOT EXISTS through singleflight; a failure is
// not remembered, so the next call tries again.  The connection itself is
// opened lazily by the Connector and reused for the process lifetime.
//
// Writes are a single INSERT … ON DUPLICATE KEY UPDATE statement.  Two
// concurrent writers race at the database and the later commit wins.
// updated_at is bumped to at least one microsecond past its previous value,
// so it never repeats or moves backwards even if the server clock does.
package site

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/singleflight"

	"github.com/sydneysamil/samil-web/internal/logger"
	"github.com/sydneysamil/samil-web/internal/metrics"
	"github.com/sydneysamil/samil-web/internal/theme"
)

const schemaDDL = `
	CREATE TABLE IF NOT EXISTS site_settings (
	    setting_key VARCHAR(100) NOT NULL PRIMARY KEY,
	    theme_id    VARCHAR(50)  NOT NULL,
	    updated_by  VARCHAR(256) NULL,
	    updated_at  DATETIME(6)  NULL
	)`

const selectSQL = `
	SELECT  setting_key, theme_id, updated_by, updated_at
	FROM    site_settings
	WHERE   setting_key = ?`

const provisionSQL = `
	INSERT IGNORE INTO site_settings (setting_key, theme_id)
	VALUES (?, ?)`

const upsertSQL = `
	INSERT INTO site_settings (setting_key, theme_id, updated_by, updated_at)
	VALUES (?, ?, ?, UTC_TIMESTAMP(6))
	ON DUPLICATE KEY UPDATE
	    theme_id   = VALUES(theme_id),
	    updated_by = VALUES(updated_by),
	    updated_at = GREATEST(
	        VALUES(updated_at),
	        COALESCE(updated_at + INTERVAL 1 MICROSECOND, VALUES(updated_at)))`

// Connector hands out the shared pool.  *database.Lazy satisfies it.
type Connector interface {
	DB(ctx context.Context) (*sqlx.DB, error)
}

// Store reads and writes the theme setting.  Safe for concurrent use.
type Store struct {
	conn  Connector
	sf    singleflight.Group
	ready atomic.Bool
}

// NewStore returns a Store that connects through conn on first use.
func NewStore(conn Connector) *Store {
	return &Store{conn: conn}
}

/*──────────────────────────── public API ──────────────────────────────────*/

// Read returns the theme row, provisioning the default row when it is
// missing.  Concurrent first reads are safe: INSERT IGNORE turns the loser
// of the race into a no-op.
func (s *Store) Read(ctx context.Context) (Setting, error) {
	db, err := s.open(ctx)
	if err != nil {
		return Setting{}, err
	}

	row, err := s.selectRow(ctx, db)
	if err == nil {
		metrics.SettingsReadsTotal.Inc()
		return row, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Setting{}, fmt.Errorf("select setting: %w", err)
	}

	if _, err := db.ExecContext(ctx, provisionSQL, ThemeKey, theme.Default); err != nil {
		return Setting{}, fmt.Errorf("provision default setting: %w", err)
	}
	logger.FromContext(ctx).Infow("site settings provisioned", "theme", theme.Default)

	row, err = s.selectRow(ctx, db)
	if err != nil {
		return Setting{}, fmt.Errorf("select setting: %w", err)
	}
	metrics.SettingsReadsTotal.Inc()
	return row, nil
}

// Write stores themeID and updatedBy in one atomic upsert and returns the
// row as Read would see it.  Callers validate themeID beforehand.
func (s *Store) Write(ctx context.Context, themeID, updatedBy string) (Setting, error) {
	db, err := s.open(ctx)
	if err != nil {
		return Setting{}, err
	}

	if _, err := db.ExecContext(ctx, upsertSQL, ThemeKey, themeID, updatedBy); err != nil {
		return Setting{}, fmt.Errorf("upsert setting: %w", err)
	}
	metrics.SettingsWritesTotal.Inc()
	logger.FromContext(ctx).Infow("site settings written", "theme", themeID, "by", updatedBy)

	return s.Read(ctx)
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

// open returns the pool with the schema in place.
func (s *Store) open(ctx context.Context) (*sqlx.DB, error) {
	db, err := s.conn.DB(ctx)
	if err != nil {
		return nil, fmt.Errorf("connect settings store: %w", err)
	}
	if err := s.ensureSchema(ctx, db); err != nil {
		return nil, fmt.Errorf("provision settings schema: %w", err)
	}
	return db, nil
}

func (s *Store) ensureSchema(ctx context.Context, db *sqlx.DB) error {
	if s.ready.Load() {
		return nil
	}
	_, err, _ := s.sf.Do("schema", func() (any, error) {
		if s.ready.Load() {
			return nil, nil
		}
		// Callers share this flight, so one aborted request must not fail the rest.
		if _, err := db.ExecContext(context.WithoutCancel(ctx), schemaDDL); err != nil {
			return nil, err
		}
		s.ready.Store(true)
		return nil, nil
	})
	return err
}

func (s *Store) selectRow(ctx context.Context, db *sqlx.DB) (Setting, error) {
	var row Setting
	err := db.GetContext(ctx, &row, selectSQL, ThemeKey)
	return row, err
}
