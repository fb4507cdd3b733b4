package sqlstore

import (
	"encoding/json"
	"strings"
	"unicode/utf8"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgtype"
	"github.com/mugiliam/unitycatalogsrv/internal/db/dberror"
	"github.com/mugiliam/unitycatalogsrv/internal/db/dbmanager"
)

// nameSeparator joins name segments in dialects without array columns.
const nameSeparator = "."

func validateName(name []string) error {
	if len(name) == 0 {
		return dberror.ErrInvalidInput.Msg("name must have at least one segment")
	}
	for _, seg := range name {
		if seg == "" {
			return dberror.ErrInvalidInput.Msg("name segments must not be empty")
		}
		if strings.Contains(seg, nameSeparator) {
			return dberror.ErrInvalidInput.Msg("name segments must not contain '.'")
		}
	}
	return nil
}

// nameArg returns the bind value of name for the dialect.
func (h *CatalogDb) nameArg(name []string) (any, error) {
	if h.dialect == dbmanager.DialectPostgres {
		var ta pgtype.TextArray
		if err := ta.Set(name); err != nil {
			return nil, dberror.ErrInvalidInput.MsgErr("invalid name", err)
		}
		return ta, nil
	}
	return strings.Join(name, nameSeparator), nil
}

// decodeName converts a scanned name column back into segments. Postgres returns
// text[] in its text representation.
func (h *CatalogDb) decodeName(raw string) ([]string, error) {
	if h.dialect == dbmanager.DialectPostgres {
		var ta pgtype.TextArray
		if err := ta.DecodeText(nil, []byte(raw)); err != nil {
			return nil, dberror.ErrDatabase.MsgErr("unable to decode object name", err)
		}
		name := make([]string, 0, len(ta.Elements))
		for _, e := range ta.Elements {
			name = append(name, e.String)
		}
		return name, nil
	}
	return strings.Split(raw, nameSeparator), nil
}

// prefixPredicate matches names whose leading segments equal prefix.
func (h *CatalogDb) prefixPredicate(prefix []string) (sq.Sqlizer, error) {
	if h.dialect == dbmanager.DialectPostgres {
		arg, err := h.nameArg(prefix)
		if err != nil {
			return nil, err
		}
		return sq.Expr("name[1:?] = ?", len(prefix), arg), nil
	}
	p := strings.Join(prefix, nameSeparator)
	return sq.Or{
		sq.Eq{"name": p},
		sq.Expr("substr(name, 1, ?) = ?", utf8.RuneCountInString(p)+1, p+nameSeparator),
	}, nil
}

// propsArg returns the bind value of a properties payload; empty payloads are stored as NULL.
func propsArg(props json.RawMessage) (any, error) {
	if len(props) == 0 {
		return nil, nil
	}
	if !json.Valid(props) {
		return nil, dberror.ErrInvalidInput.Msg("properties must be valid JSON")
	}
	return string(props), nil
}

func idArg(id uuid.UUID) string {
	return id.String()
}

func idArgs(ids []uuid.UUID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}
