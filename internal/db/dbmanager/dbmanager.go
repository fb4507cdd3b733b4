// Package dbmanager owns the connection pool of the backing store. It understands
// the supported backing-store URLs, opens a pooled handle for them and applies the
// schema migrations of the matching SQL dialect.
package dbmanager

import (
	"context"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/mugiliam/unitycatalogsrv/internal/config"
	"github.com/mugiliam/unitycatalogsrv/internal/db/dberror"
	"github.com/rs/zerolog/log"
)

type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// Placeholder returns the bind-parameter format of the dialect.
func (d Dialect) Placeholder() sq.PlaceholderFormat {
	if d == DialectPostgres {
		return sq.Dollar
	}
	return sq.Question
}

func (d Dialect) driverName() string {
	if d == DialectPostgres {
		return "pgx"
	}
	return "sqlite3"
}

// DB is a pooled handle on the backing store.
type DB struct {
	*sqlx.DB
	Dialect Dialect
}

// ParseURL maps a backing_store_url onto a dialect and a driver DSN.
//
//	postgres://... | postgresql://...   Postgres, DSN passed through
//	sqlite::memory:                       private in-memory SQLite database
//	sqlite:<path> | sqlite://<path>       SQLite database file
//	file:<path>                           SQLite URI filename
func ParseURL(url string) (Dialect, string, error) {
	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return DialectPostgres, url, nil
	case strings.HasPrefix(url, "file:"):
		return DialectSQLite, withSQLiteParams(url), nil
	case strings.HasPrefix(url, "sqlite:"):
		dsn := strings.TrimPrefix(strings.TrimPrefix(url, "sqlite:"), "//")
		if dsn == "" {
			return "", "", dberror.ErrInvalidInput.Msg("sqlite backing store url has no path")
		}
		return DialectSQLite, withSQLiteParams(dsn), nil
	}
	return "", "", dberror.ErrInvalidInput.Msg("unsupported backing store url")
}

func withSQLiteParams(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_foreign_keys=1&_busy_timeout=5000"
}

// Open creates the connection pool described by cfg and verifies that the store is reachable.
func Open(ctx context.Context, cfg config.StoreConfig) (*DB, error) {
	dialect, dsn, err := ParseURL(cfg.BackingStoreURL)
	if err != nil {
		return nil, err
	}
	conn, err := sqlx.Open(dialect.driverName(), dsn)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("dialect", string(dialect)).Msg("unable to open backing store")
		return nil, dberror.ErrUnavailable.MsgErr("unable to open backing store", err)
	}

	switch dialect {
	case DialectPostgres:
		maxConns := cfg.MaxConnections
		if maxConns <= 0 {
			maxConns = config.DefaultMaxConnections
		}
		conn.SetMaxOpenConns(maxConns)
		conn.SetMaxIdleConns(maxConns / 4)
		conn.SetConnMaxIdleTime(5 * time.Minute)
	case DialectSQLite:
		// SQLite has a single writer, and a private in-memory database lives
		// only as long as its one connection.
		conn.SetMaxOpenConns(1)
		conn.SetMaxIdleConns(1)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		log.Ctx(ctx).Error().Err(err).Str("dialect", string(dialect)).Msg("backing store is not reachable")
		return nil, dberror.ErrUnavailable.MsgErr("backing store is not reachable", err)
	}
	log.Ctx(ctx).Info().Str("dialect", string(dialect)).Int("max_connections", cfg.MaxConnections).Msg("backing store opened")
	return &DB{DB: conn, Dialect: dialect}, nil
}
