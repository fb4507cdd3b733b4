// Package sqlstore implements the catalog graph store over a SQL backing store.
// Postgres and SQLite are supported; the differences between them are confined to
// the dialect helpers in dialect.go.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/mugiliam/unitycatalogsrv/internal/db/dberror"
	"github.com/mugiliam/unitycatalogsrv/internal/db/dbmanager"
	"github.com/mugiliam/unitycatalogsrv/internal/db/pagination"
	"github.com/mugiliam/unitycatalogsrv/internal/metrics"
	"github.com/rs/zerolog/log"
)

type Options struct {
	MaxPageSize          int
	MaxRetries           int
	RetryInitialInterval time.Duration
	Metrics              *metrics.Metrics
}

// CatalogDb is the graph store. It is safe for concurrent use; every operation
// borrows a connection from the pool, or runs on the transaction carried by its
// context when called inside InTx.
type CatalogDb struct {
	db      *dbmanager.DB
	dialect dbmanager.Dialect
	sb      sq.StatementBuilderType
	limits  pagination.Limits
	opts    Options
}

func NewCatalogDb(db *dbmanager.DB, opts Options) *CatalogDb {
	if opts.RetryInitialInterval <= 0 {
		opts.RetryInitialInterval = 50 * time.Millisecond
	}
	return &CatalogDb{
		db:      db,
		dialect: db.Dialect,
		sb:      sq.StatementBuilder.PlaceholderFormat(db.Dialect.Placeholder()),
		limits:  pagination.Limits{MaxPageSize: opts.MaxPageSize},
		opts:    opts,
	}
}

type ctxTxKeyType string

const ctxTxKey ctxTxKeyType = "CatalogDbTx"

type txState struct {
	tx    *sqlx.Tx
	owner *CatalogDb
}

func (h *CatalogDb) txFromContext(ctx context.Context) *sqlx.Tx {
	if s, ok := ctx.Value(ctxTxKey).(*txState); ok && s.owner == h {
		return s.tx
	}
	return nil
}

// conn returns the transaction carried by ctx, or the pool.
func (h *CatalogDb) conn(ctx context.Context) sqlx.ExtContext {
	if tx := h.txFromContext(ctx); tx != nil {
		return tx
	}
	return h.db
}

func (h *CatalogDb) txOptions() *sql.TxOptions {
	if h.dialect == dbmanager.DialectPostgres {
		return &sql.TxOptions{Isolation: sql.LevelSerializable}
	}
	return nil
}

// InTx runs fn inside a transaction. Store calls made with the context passed to
// fn join the transaction; nested InTx calls join it too. The transaction commits
// when fn returns nil and rolls back otherwise. A top-level transaction that fails
// with a serialization conflict is retried with exponential backoff and jitter.
func (h *CatalogDb) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if h.txFromContext(ctx) != nil {
		return fn(ctx)
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = h.opts.RetryInitialInterval
	eb.MaxElapsedTime = 0
	b := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(max(h.opts.MaxRetries, 0))), ctx)

	op := func() error {
		err := h.runTx(ctx, fn)
		if err != nil && !errors.Is(err, dberror.ErrSerialization) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		h.opts.Metrics.TxRetry()
		log.Ctx(ctx).Debug().Err(err).Dur("backoff", wait).Msg("retrying transaction")
	}
	return backoff.RetryNotify(op, b, notify)
}

func (h *CatalogDb) runTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	tx, err := h.db.BeginTxx(ctx, h.txOptions())
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("unable to begin transaction")
		return dberror.Translate(err, "unable to begin transaction")
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				log.Ctx(ctx).Error().Err(rbErr).Msg("unable to roll back transaction")
			}
		}
		h.opts.Metrics.TxDone(err)
	}()

	if err = fn(context.WithValue(ctx, ctxTxKey, &txState{tx: tx, owner: h})); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("unable to commit transaction")
		return dberror.Translate(err, "unable to commit transaction")
	}
	return nil
}

// Ping checks that the backing store is reachable.
func (h *CatalogDb) Ping(ctx context.Context) error {
	if err := h.db.PingContext(ctx); err != nil {
		return dberror.ErrUnavailable.MsgErr("backing store is not reachable", err)
	}
	return nil
}

func (h *CatalogDb) Close(ctx context.Context) {
	if err := h.db.Close(); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("unable to close backing store")
	}
}

// MaxPageSize returns the hard cap applied to every list call.
func (h *CatalogDb) MaxPageSize() int {
	return h.limits.PageSize(0)
}

func newID() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		// the v7 generator only fails when the random source does
		return uuid.New()
	}
	return id
}

// now returns the store clock. Postgres keeps microseconds, so both dialects do.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
