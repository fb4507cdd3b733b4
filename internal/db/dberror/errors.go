package dberror

import (
	"context"
	"database/sql"
	"errors"
	"net"

	"github.com/jackc/pgconn"
	"github.com/mattn/go-sqlite3"
	"github.com/mugiliam/unitycatalogsrv/internal/apperrors"
)

var (
	ErrDatabase      apperrors.Error = apperrors.ErrInternal.New("db error")
	ErrAlreadyExists apperrors.Error = apperrors.ErrAlreadyExists.New("already exists")
	ErrNotFound      apperrors.Error = apperrors.ErrNotFound.New("not found")
	ErrInvalidInput  apperrors.Error = apperrors.ErrInvalid.New("invalid input")
	ErrInvalidCursor apperrors.Error = ErrInvalidInput.New("invalid page token")
	ErrUnavailable   apperrors.Error = apperrors.ErrUnavailable.New("database unavailable")
	ErrSerialization apperrors.Error = ErrUnavailable.New("transaction conflict, retry")
)

// Postgres SQLSTATE codes the store distinguishes.
const (
	pgUniqueViolation      = "23505"
	pgForeignKeyViolation  = "23503"
	pgCheckViolation       = "23514"
	pgInvalidTextRepr      = "22P02"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgTooManyConnections   = "53300"
	pgAdminShutdown        = "57P01"
	pgCannotConnectNow     = "57P03"
)

// Translate maps a driver error onto the store's error kinds. msg describes the
// failed operation. Errors that are already application errors pass through unchanged.
func Translate(err error, msg string) error {
	if err == nil {
		return nil
	}
	var ae apperrors.Error
	if errors.As(err, &ae) {
		return err
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound.Msg(msg)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ErrUnavailable.MsgErr(msg, err)
	}
	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, sql.ErrTxDone) {
		return ErrUnavailable.MsgErr(msg, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return ErrAlreadyExists.MsgErr(msg, err)
		case pgForeignKeyViolation:
			return ErrNotFound.MsgErr(msg, err)
		case pgCheckViolation, pgInvalidTextRepr:
			return ErrInvalidInput.MsgErr(msg, err)
		case pgSerializationFailure, pgDeadlockDetected:
			return ErrSerialization.MsgErr(msg, err)
		case pgTooManyConnections, pgAdminShutdown, pgCannotConnectNow:
			return ErrUnavailable.MsgErr(msg, err)
		}
		return ErrDatabase.MsgErr(msg, err)
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		switch liteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return ErrAlreadyExists.MsgErr(msg, err)
		case sqlite3.ErrConstraintForeignKey:
			return ErrNotFound.MsgErr(msg, err)
		case sqlite3.ErrConstraintCheck, sqlite3.ErrConstraintNotNull:
			return ErrInvalidInput.MsgErr(msg, err)
		}
		switch liteErr.Code {
		case sqlite3.ErrBusy, sqlite3.ErrLocked:
			return ErrSerialization.MsgErr(msg, err)
		}
		return ErrDatabase.MsgErr(msg, err)
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ErrUnavailable.MsgErr(msg, err)
	}
	return ErrDatabase.MsgErr(msg, err)
}
