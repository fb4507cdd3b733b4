package sqlstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/mugiliam/unitycatalogsrv/internal/db/dberror"
	"github.com/mugiliam/unitycatalogsrv/internal/db/models"
	"github.com/mugiliam/unitycatalogsrv/internal/db/pagination"
	"github.com/rs/zerolog/log"
)

var associationColumns = []string{"id", "from_id", "label", "to_id", "to_label", "properties", "created_at", "updated_at"}

type associationRow struct {
	ID         uuid.UUID `db:"id"`
	FromID     uuid.UUID `db:"from_id"`
	Label      string    `db:"label"`
	ToID       uuid.UUID `db:"to_id"`
	ToLabel    string    `db:"to_label"`
	Properties []byte    `db:"properties"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func (r *associationRow) toAssociation() models.Association {
	return models.Association{
		ID:         r.ID,
		FromID:     r.FromID,
		Label:      models.AssociationLabel(r.Label),
		ToID:       r.ToID,
		ToLabel:    models.ObjectLabel(r.ToLabel),
		Properties: json.RawMessage(r.Properties),
		CreatedAt:  r.CreatedAt.UTC(),
		UpdatedAt:  r.UpdatedAt.UTC(),
	}
}

func (h *CatalogDb) objectLabel(ctx context.Context, id uuid.UUID) (models.ObjectLabel, error) {
	query, args, err := h.sb.Select("label").From("objects").Where(sq.Eq{"id": idArg(id)}).ToSql()
	if err != nil {
		return "", dberror.ErrDatabase.MsgErr("unable to build query", err)
	}
	var label string
	if err := sqlx.GetContext(ctx, h.conn(ctx), &label, query, args...); err != nil {
		return "", dberror.Translate(err, "object "+id.String()+" not found")
	}
	return models.ObjectLabel(label), nil
}

func (h *CatalogDb) insertAssociation(ctx context.Context, a *models.Association, props any) error {
	query, args, err := h.sb.Insert("associations").
		Columns(associationColumns...).
		Values(idArg(a.ID), idArg(a.FromID), string(a.Label), idArg(a.ToID), string(a.ToLabel), props, a.CreatedAt, a.UpdatedAt).
		ToSql()
	if err != nil {
		return dberror.ErrDatabase.MsgErr("unable to build query", err)
	}
	if _, err := h.conn(ctx).ExecContext(ctx, query, args...); err != nil {
		err = dberror.Translate(err, "unable to create association")
		if errors.Is(err, dberror.ErrAlreadyExists) {
			log.Ctx(ctx).Info().Str("from_id", a.FromID.String()).Str("label", string(a.Label)).Str("to_id", a.ToID.String()).Msg("association already exists")
			return dberror.ErrAlreadyExists.Msg("association " + string(a.Label) + " already exists")
		}
		log.Ctx(ctx).Error().Err(err).Str("from_id", a.FromID.String()).Str("label", string(a.Label)).Msg("failed to insert association")
		return err
	}
	return nil
}

// AddAssociation creates the edge from -label-> to and, when label declares an
// inverse, the inverse edge with the same properties. Both endpoints must exist.
func (h *CatalogDb) AddAssociation(ctx context.Context, from uuid.UUID, label models.AssociationLabel, to uuid.UUID, properties json.RawMessage) (*models.Association, error) {
	if !label.Valid() {
		return nil, dberror.ErrInvalidInput.Msg("invalid association label")
	}
	props, err := propsArg(properties)
	if err != nil {
		return nil, err
	}

	var fwd *models.Association
	err = h.InTx(ctx, func(ctx context.Context) error {
		fromLabel, err := h.objectLabel(ctx, from)
		if err != nil {
			return err
		}
		toLabel, err := h.objectLabel(ctx, to)
		if err != nil {
			return err
		}

		ts := now()
		fwd = &models.Association{
			ID:         newID(),
			FromID:     from,
			Label:      label,
			ToID:       to,
			ToLabel:    toLabel,
			Properties: properties,
			CreatedAt:  ts,
			UpdatedAt:  ts,
		}
		if err := h.insertAssociation(ctx, fwd, props); err != nil {
			return err
		}
		if inv, ok := label.Inverse(); ok {
			back := &models.Association{
				ID:         newID(),
				FromID:     to,
				Label:      inv,
				ToID:       from,
				ToLabel:    fromLabel,
				Properties: properties,
				CreatedAt:  ts,
				UpdatedAt:  ts,
			}
			if err := h.insertAssociation(ctx, back, props); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return fwd, nil
}

// DeleteAssociation removes the edge from -label-> to and its inverse.
func (h *CatalogDb) DeleteAssociation(ctx context.Context, from uuid.UUID, label models.AssociationLabel, to uuid.UUID) error {
	if !label.Valid() {
		return dberror.ErrInvalidInput.Msg("invalid association label")
	}
	return h.InTx(ctx, func(ctx context.Context) error {
		n, err := h.deleteEdge(ctx, from, label, to)
		if err != nil {
			return err
		}
		if n == 0 {
			return dberror.ErrNotFound.Msg("association " + string(label) + " not found")
		}
		if inv, ok := label.Inverse(); ok {
			n, err := h.deleteEdge(ctx, to, inv, from)
			if err != nil {
				return err
			}
			if n == 0 {
				log.Ctx(ctx).Warn().Str("from_id", to.String()).Str("label", string(inv)).Str("to_id", from.String()).Msg("inverse association was missing")
			}
		}
		return nil
	})
}

func (h *CatalogDb) deleteEdge(ctx context.Context, from uuid.UUID, label models.AssociationLabel, to uuid.UUID) (int64, error) {
	query, args, err := h.sb.Delete("associations").
		Where(sq.Eq{"from_id": idArg(from), "label": string(label), "to_id": idArg(to)}).
		ToSql()
	if err != nil {
		return 0, dberror.ErrDatabase.MsgErr("unable to build query", err)
	}
	res, err := h.conn(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("from_id", from.String()).Str("label", string(label)).Msg("failed to delete association")
		return 0, dberror.Translate(err, "unable to delete association")
	}
	return res.RowsAffected()
}

// GetAssociations returns the edges from -label-> t for each t in to that exists.
func (h *CatalogDb) GetAssociations(ctx context.Context, from uuid.UUID, label models.AssociationLabel, to []uuid.UUID, page pagination.Request) ([]models.Association, string, error) {
	if len(to) == 0 {
		return []models.Association{}, "", nil
	}
	return h.listAssociations(ctx, sq.And{
		sq.Eq{"from_id": idArg(from), "label": string(label)},
		sq.Eq{"to_id": idArgs(to)},
	}, page)
}

// ListAssociations returns the outgoing edges of from with the given label,
// optionally restricted to targets of kind toLabel.
func (h *CatalogDb) ListAssociations(ctx context.Context, from uuid.UUID, label models.AssociationLabel, toLabel models.ObjectLabel, page pagination.Request) ([]models.Association, string, error) {
	pred := sq.Eq{"from_id": idArg(from), "label": string(label)}
	if toLabel != "" {
		pred["to_label"] = string(toLabel)
	}
	return h.listAssociations(ctx, pred, page)
}

func (h *CatalogDb) listAssociations(ctx context.Context, pred sq.Sqlizer, page pagination.Request) ([]models.Association, string, error) {
	cursor, err := pagination.DecodeOptional(page.Token)
	if err != nil {
		return nil, "", err
	}
	size := h.limits.PageSize(page.MaxSize)

	sel := h.sb.Select(associationColumns...).From("associations").Where(pred)
	if cursor != nil {
		sel = sel.Where(sq.Lt{"id": idArg(cursor.ID)})
	}
	query, args, err := sel.OrderBy("id DESC").Limit(uint64(size)).ToSql()
	if err != nil {
		return nil, "", dberror.ErrDatabase.MsgErr("unable to build query", err)
	}

	var rows []associationRow
	if err := sqlx.SelectContext(ctx, h.conn(ctx), &rows, query, args...); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to list associations")
		return nil, "", dberror.Translate(err, "unable to list associations")
	}
	assocs := make([]models.Association, 0, len(rows))
	for i := range rows {
		assocs = append(assocs, rows[i].toAssociation())
	}
	next, err := pagination.NextToken(assocs, size, func(a models.Association) (time.Time, uuid.UUID) {
		return a.CreatedAt, a.ID
	})
	if err != nil {
		return nil, "", err
	}
	return assocs, next, nil
}
