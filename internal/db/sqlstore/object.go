package sqlstore

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/mugiliam/unitycatalogsrv/internal/db/dberror"
	"github.com/mugiliam/unitycatalogsrv/internal/db/models"
	"github.com/mugiliam/unitycatalogsrv/internal/db/pagination"
	"github.com/rs/zerolog/log"
)

var objectColumns = []string{"id", "label", "name", "properties", "created_at", "updated_at"}

type objectRow struct {
	ID         uuid.UUID `db:"id"`
	Label      string    `db:"label"`
	Name       string    `db:"name"`
	Properties []byte    `db:"properties"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func (h *CatalogDb) toObject(r *objectRow) (*models.Object, error) {
	name, err := h.decodeName(r.Name)
	if err != nil {
		return nil, err
	}
	return &models.Object{
		ID:         r.ID,
		Label:      models.ObjectLabel(r.Label),
		Name:       name,
		Properties: json.RawMessage(r.Properties),
		CreatedAt:  r.CreatedAt.UTC(),
		UpdatedAt:  r.UpdatedAt.UTC(),
	}, nil
}

// ObjectUpdate lists the fields an update rewrites. Nil fields are preserved.
type ObjectUpdate struct {
	Label      *models.ObjectLabel
	Name       []string
	Properties json.RawMessage
}

// AddObject creates an object. (label, name) must be unique.
func (h *CatalogDb) AddObject(ctx context.Context, label models.ObjectLabel, name []string, properties json.RawMessage) (*models.Object, error) {
	if !label.Valid() {
		return nil, dberror.ErrInvalidInput.Msg("invalid object label")
	}
	if err := validateName(name); err != nil {
		return nil, err
	}
	nameArg, err := h.nameArg(name)
	if err != nil {
		return nil, err
	}
	props, err := propsArg(properties)
	if err != nil {
		return nil, err
	}

	ts := now()
	obj := &models.Object{
		ID:         newID(),
		Label:      label,
		Name:       append([]string(nil), name...),
		Properties: properties,
		CreatedAt:  ts,
		UpdatedAt:  ts,
	}
	query, args, err := h.sb.Insert("objects").
		Columns(objectColumns...).
		Values(idArg(obj.ID), string(label), nameArg, props, ts, ts).
		ToSql()
	if err != nil {
		return nil, dberror.ErrDatabase.MsgErr("unable to build query", err)
	}
	if _, err := h.conn(ctx).ExecContext(ctx, query, args...); err != nil {
		err = dberror.Translate(err, "unable to create object")
		if errors.Is(err, dberror.ErrAlreadyExists) {
			log.Ctx(ctx).Info().Str("label", string(label)).Strs("name", name).Msg("object already exists")
			return nil, dberror.ErrAlreadyExists.Msg(string(label) + " " + strings.Join(name, ".") + " already exists")
		}
		log.Ctx(ctx).Error().Err(err).Str("label", string(label)).Strs("name", name).Msg("failed to insert object")
		return nil, err
	}
	return obj, nil
}

// GetObject returns the object with the given id.
func (h *CatalogDb) GetObject(ctx context.Context, id uuid.UUID) (*models.Object, error) {
	query, args, err := h.sb.Select(objectColumns...).From("objects").
		Where(sq.Eq{"id": idArg(id)}).
		ToSql()
	if err != nil {
		return nil, dberror.ErrDatabase.MsgErr("unable to build query", err)
	}
	return h.getObject(ctx, query, args, "object "+id.String()+" not found")
}

// GetObjectByName returns the object with the given label and name.
func (h *CatalogDb) GetObjectByName(ctx context.Context, label models.ObjectLabel, name []string) (*models.Object, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	nameArg, err := h.nameArg(name)
	if err != nil {
		return nil, err
	}
	query, args, err := h.sb.Select(objectColumns...).From("objects").
		Where(sq.Eq{"label": string(label)}).
		Where(sq.Expr("name = ?", nameArg)).
		ToSql()
	if err != nil {
		return nil, dberror.ErrDatabase.MsgErr("unable to build query", err)
	}
	return h.getObject(ctx, query, args, string(label)+" "+strings.Join(name, ".")+" not found")
}

func (h *CatalogDb) getObject(ctx context.Context, query string, args []any, notFound string) (*models.Object, error) {
	var row objectRow
	if err := sqlx.GetContext(ctx, h.conn(ctx), &row, query, args...); err != nil {
		err = dberror.Translate(err, notFound)
		if errors.Is(err, dberror.ErrNotFound) {
			log.Ctx(ctx).Debug().Msg(notFound)
			return nil, err
		}
		log.Ctx(ctx).Error().Err(err).Msg("failed to retrieve object")
		return nil, err
	}
	return h.toObject(&row)
}

// UpdateObject rewrites the label, name or properties of an object, keeping its id.
func (h *CatalogDb) UpdateObject(ctx context.Context, id uuid.UUID, upd ObjectUpdate) (*models.Object, error) {
	set := map[string]any{"updated_at": now()}
	if upd.Label != nil {
		if !upd.Label.Valid() {
			return nil, dberror.ErrInvalidInput.Msg("invalid object label")
		}
		set["label"] = string(*upd.Label)
	}
	if upd.Name != nil {
		if err := validateName(upd.Name); err != nil {
			return nil, err
		}
		nameArg, err := h.nameArg(upd.Name)
		if err != nil {
			return nil, err
		}
		set["name"] = nameArg
	}
	if upd.Properties != nil {
		props, err := propsArg(upd.Properties)
		if err != nil {
			return nil, err
		}
		set["properties"] = props
	}

	var obj *models.Object
	err := h.InTx(ctx, func(ctx context.Context) error {
		query, args, err := h.sb.Update("objects").SetMap(set).
			Where(sq.Eq{"id": idArg(id)}).
			ToSql()
		if err != nil {
			return dberror.ErrDatabase.MsgErr("unable to build query", err)
		}
		res, err := h.conn(ctx).ExecContext(ctx, query, args...)
		if err != nil {
			err = dberror.Translate(err, "unable to update object")
			if errors.Is(err, dberror.ErrAlreadyExists) {
				log.Ctx(ctx).Info().Str("id", id.String()).Strs("name", upd.Name).Msg("rename collides with an existing object")
				return dberror.ErrAlreadyExists.Msg("an object with name " + strings.Join(upd.Name, ".") + " already exists")
			}
			log.Ctx(ctx).Error().Err(err).Str("id", id.String()).Msg("failed to update object")
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return dberror.ErrNotFound.Msg("object " + id.String() + " not found")
		}

		// keep the denormalized target label of incoming edges in step
		if upd.Label != nil {
			query, args, err := h.sb.Update("associations").
				Set("to_label", string(*upd.Label)).
				Where(sq.Eq{"to_id": idArg(id)}).
				ToSql()
			if err != nil {
				return dberror.ErrDatabase.MsgErr("unable to build query", err)
			}
			if _, err := h.conn(ctx).ExecContext(ctx, query, args...); err != nil {
				log.Ctx(ctx).Error().Err(err).Str("id", id.String()).Msg("failed to update association labels")
				return dberror.Translate(err, "unable to update association labels")
			}
		}

		obj, err = h.GetObject(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return obj, nil
}

// DeleteObject removes an object together with every association it takes part in.
func (h *CatalogDb) DeleteObject(ctx context.Context, id uuid.UUID) error {
	return h.InTx(ctx, func(ctx context.Context) error {
		query, args, err := h.sb.Delete("associations").
			Where(sq.Or{sq.Eq{"from_id": idArg(id)}, sq.Eq{"to_id": idArg(id)}}).
			ToSql()
		if err != nil {
			return dberror.ErrDatabase.MsgErr("unable to build query", err)
		}
		if _, err := h.conn(ctx).ExecContext(ctx, query, args...); err != nil {
			log.Ctx(ctx).Error().Err(err).Str("id", id.String()).Msg("failed to delete associations")
			return dberror.Translate(err, "unable to delete associations")
		}

		query, args, err = h.sb.Delete("objects").Where(sq.Eq{"id": idArg(id)}).ToSql()
		if err != nil {
			return dberror.ErrDatabase.MsgErr("unable to build query", err)
		}
		res, err := h.conn(ctx).ExecContext(ctx, query, args...)
		if err != nil {
			log.Ctx(ctx).Error().Err(err).Str("id", id.String()).Msg("failed to delete object")
			return dberror.Translate(err, "unable to delete object")
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			log.Ctx(ctx).Debug().Str("id", id.String()).Msg("object not found for delete")
			return dberror.ErrNotFound.Msg("object " + id.String() + " not found")
		}
		return nil
	})
}

// ListObjects returns objects with the given label whose name starts with prefix,
// newest first, together with the token of the next page.
func (h *CatalogDb) ListObjects(ctx context.Context, label models.ObjectLabel, prefix []string, page pagination.Request) ([]models.Object, string, error) {
	cursor, err := pagination.DecodeOptional(page.Token)
	if err != nil {
		return nil, "", err
	}
	size := h.limits.PageSize(page.MaxSize)

	sel := h.sb.Select(objectColumns...).From("objects").Where(sq.Eq{"label": string(label)})
	if len(prefix) > 0 {
		if err := validateName(prefix); err != nil {
			return nil, "", err
		}
		pred, err := h.prefixPredicate(prefix)
		if err != nil {
			return nil, "", err
		}
		sel = sel.Where(pred)
	}
	if cursor != nil {
		sel = sel.Where(sq.Lt{"id": idArg(cursor.ID)})
	}
	query, args, err := sel.OrderBy("id DESC").Limit(uint64(size)).ToSql()
	if err != nil {
		return nil, "", dberror.ErrDatabase.MsgErr("unable to build query", err)
	}

	var rows []objectRow
	if err := sqlx.SelectContext(ctx, h.conn(ctx), &rows, query, args...); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("label", string(label)).Msg("failed to list objects")
		return nil, "", dberror.Translate(err, "unable to list objects")
	}
	objs := make([]models.Object, 0, len(rows))
	for i := range rows {
		o, err := h.toObject(&rows[i])
		if err != nil {
			return nil, "", err
		}
		objs = append(objs, *o)
	}
	next, err := pagination.NextToken(objs, size, func(o models.Object) (time.Time, uuid.UUID) {
		return o.CreatedAt, o.ID
	})
	if err != nil {
		return nil, "", err
	}
	return objs, next, nil
}
