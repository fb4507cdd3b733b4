// Package catalogmanager implements the resource services of the catalog: one
// manager per resource kind, each mapping API requests onto graph store
// operations inside a single transaction.
package catalogmanager

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mugiliam/unitycatalogsrv/internal/apperrors"
	"github.com/mugiliam/unitycatalogsrv/internal/catalogmanager/schemavalidator"
	"github.com/mugiliam/unitycatalogsrv/internal/catalogmanager/validationerrors"
	"github.com/mugiliam/unitycatalogsrv/internal/db"
	"github.com/mugiliam/unitycatalogsrv/internal/db/dberror"
	"github.com/mugiliam/unitycatalogsrv/internal/db/models"
	"github.com/mugiliam/unitycatalogsrv/internal/db/pagination"
	"github.com/rs/zerolog/log"
)

const DefaultTokenLifetime = 90 * 24 * time.Hour

type Options struct {
	// TokenLifetime bounds recipient bearer tokens issued without an explicit expiration.
	TokenLifetime time.Duration
	// Clock defaults to time.Now.
	Clock func() time.Time
	// SecretKey seals credential secrets.
	SecretKey string
}

// Managers bundles the resource services sharing one graph store.
type Managers struct {
	Catalogs          *CatalogManager
	Schemas           *SchemaManager
	Tables            *TableManager
	Volumes           *VolumeManager
	Credentials       *CredentialManager
	ExternalLocations *ExternalLocationManager
	Shares            *ShareManager
	Recipients        *RecipientManager
}

func New(store db.GraphDB, opts Options) *Managers {
	if opts.TokenLifetime <= 0 {
		opts.TokenLifetime = DefaultTokenLifetime
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	b := &base{db: store, opts: opts, secrets: newSecretBox(opts.SecretKey)}
	return &Managers{
		Catalogs:          &CatalogManager{b},
		Schemas:           &SchemaManager{b},
		Tables:            &TableManager{b},
		Volumes:           &VolumeManager{b},
		Credentials:       &CredentialManager{b},
		ExternalLocations: &ExternalLocationManager{b},
		Shares:            &ShareManager{b},
		Recipients:        &RecipientManager{b},
	}
}

type base struct {
	db      db.GraphDB
	opts    Options
	secrets *secretBox
}

func (b *base) now() time.Time {
	return b.opts.Clock().UTC()
}

// ListOptions carries the paging parameters of a list call.
type ListOptions struct {
	MaxResults int
	PageToken  string
}

func (o ListOptions) page() pagination.Request {
	return pagination.Request{Token: o.PageToken, MaxSize: o.MaxResults}
}

func validateRequest(req any) error {
	if err := schemavalidator.V().Struct(req); err != nil {
		return ErrInvalidRequest.Err(validationerrors.FromValidator(err))
	}
	return nil
}

// translate maps graph store errors onto the manager's sentinels. Only not-found
// and invalid cursors are rewritten; everything else passes through.
func translate(err error, notFound apperrors.Error, msg string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, dberror.ErrInvalidCursor):
		return ErrInvalidPageToken.Err(err)
	case notFound != nil && errors.Is(err, dberror.ErrNotFound):
		return notFound.Msg(msg)
	}
	return err
}

// conflict rewrites a uniqueness violation reported by the store.
func conflict(err error, msg string) error {
	if errors.Is(err, dberror.ErrAlreadyExists) {
		return ErrAlreadyExists.Msg(msg)
	}
	return err
}

func marshalProps(ctx context.Context, v any) (json.RawMessage, error) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("unable to encode object properties")
		return nil, ErrCatalogError.MsgErr("unable to encode object properties", err).SetKind(apperrors.KindInternal)
	}
	return b, nil
}

func unmarshalProps(ctx context.Context, o *models.Object, v any) error {
	if err := o.UnmarshalProperties(v); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("id", o.ID.String()).Str("label", string(o.Label)).Msg("invalid object properties")
		return ErrInvalidObjectFormat.Err(err)
	}
	return nil
}

func millis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

// children lists all targets of the outgoing edges of id with the given label.
func (b *base) children(ctx context.Context, id uuid.UUID, label models.AssociationLabel, toLabel models.ObjectLabel) ([]models.Association, error) {
	return db.CollectAll(func(p pagination.Request) ([]models.Association, string, error) {
		return b.db.ListAssociations(ctx, id, label, toLabel, p)
	})
}

func (b *base) hasChildren(ctx context.Context, id uuid.UUID, toLabel models.ObjectLabel) (bool, error) {
	edges, _, err := b.db.ListAssociations(ctx, id, models.AssocParentOf, toLabel, pagination.Request{MaxSize: 1})
	if err != nil {
		return false, err
	}
	return len(edges) > 0, nil
}

// deleteTree removes id and, depth first, every object it is parent_of.
func (b *base) deleteTree(ctx context.Context, id uuid.UUID) error {
	edges, err := b.children(ctx, id, models.AssocParentOf, "")
	if err != nil {
		return err
	}
	for _, e := range edges {
		if err := b.deleteTree(ctx, e.ToID); err != nil {
			return err
		}
	}
	return b.db.DeleteObject(ctx, id)
}

// renameTree rewrites the leading segments of every descendant of id reachable over
// parent_of to newPrefix.
func (b *base) renameTree(ctx context.Context, id uuid.UUID, newPrefix []string) error {
	edges, err := b.children(ctx, id, models.AssocParentOf, "")
	if err != nil {
		return err
	}
	for _, e := range edges {
		child, err := b.db.GetObject(ctx, e.ToID)
		if err != nil {
			return err
		}
		name := append(append([]string(nil), newPrefix...), child.Name[len(newPrefix):]...)
		if _, err := b.db.UpdateObject(ctx, child.ID, db.ObjectUpdate{Name: name}); err != nil {
			return err
		}
		if err := b.renameTree(ctx, child.ID, name); err != nil {
			return err
		}
	}
	return nil
}

// scanFiltered lists objects of label under prefix that satisfy match. Pages are
// filled from as many store pages as needed; the returned token resumes after
// the last returned object.
func (b *base) scanFiltered(ctx context.Context, label models.ObjectLabel, prefix []string, opts ListOptions, match func(*models.Object) bool) ([]models.Object, string, error) {
	size := pagination.Limits{MaxPageSize: b.db.MaxPageSize()}.PageSize(opts.MaxResults)
	page := pagination.Request{Token: opts.PageToken, MaxSize: size}
	out := []models.Object{}
	for {
		objs, next, err := b.db.ListObjects(ctx, label, prefix, page)
		if err != nil {
			return nil, "", translate(err, nil, "")
		}
		for i := range objs {
			if !match(&objs[i]) {
				continue
			}
			out = append(out, objs[i])
			if len(out) == size {
				last := out[len(out)-1]
				token, err := pagination.After(last.CreatedAt, last.ID).Encode()
				if err != nil {
					return nil, "", err
				}
				return out, token, nil
			}
		}
		if next == "" {
			return out, "", nil
		}
		page.Token = next
	}
}

// parentName returns name without its last segment.
func parentName(name []string) []string {
	return name[:len(name)-1]
}

func withLeaf(name []string, leaf string) []string {
	return append(append([]string(nil), parentName(name)...), leaf)
}
