// Package resolver translates user-facing resource references into graph store
// identifiers and enforces the naming rules of each resource kind.
package resolver

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/mugiliam/unitycatalogsrv/internal/apperrors"
	"github.com/mugiliam/unitycatalogsrv/internal/db/models"
)

var (
	ErrInvalidReference apperrors.Error = apperrors.ErrInvalid.New("invalid resource reference")
	ErrInvalidName      apperrors.Error = ErrInvalidReference.New("invalid resource name")
)

// RefKind discriminates the variants of a ResourceRef.
type RefKind int

const (
	RefUndefined RefKind = iota
	RefUuid
	RefName
)

// ResourceRef is either an already resolved id or a hierarchical name. The zero
// value is undefined and is rejected by Resolve.
type ResourceRef struct {
	kind RefKind
	id   uuid.UUID
	name []string
}

func ByID(id uuid.UUID) ResourceRef {
	return ResourceRef{kind: RefUuid, id: id}
}

func ByName(segments ...string) ResourceRef {
	return ResourceRef{kind: RefName, name: append([]string(nil), segments...)}
}

// ByFullName splits a dotted full name such as "catalog.schema.table".
func ByFullName(fullName string) ResourceRef {
	return ByName(strings.Split(fullName, ".")...)
}

func (r ResourceRef) Kind() RefKind {
	return r.kind
}

func (r ResourceRef) ID() uuid.UUID {
	return r.id
}

func (r ResourceRef) Name() []string {
	return r.name
}

func (r ResourceRef) String() string {
	switch r.kind {
	case RefUuid:
		return r.id.String()
	case RefName:
		return strings.Join(r.name, ".")
	}
	return "<undefined>"
}

// ResourceIdent identifies a resource of a given kind.
type ResourceIdent struct {
	Label models.ObjectLabel
	Ref   ResourceRef
}

func Ident(label models.ObjectLabel, ref ResourceRef) ResourceIdent {
	return ResourceIdent{Label: label, Ref: ref}
}

func Catalog(name string) ResourceIdent {
	return Ident(models.LabelCatalog, ByName(name))
}

func Schema(catalog, schema string) ResourceIdent {
	return Ident(models.LabelSchema, ByName(catalog, schema))
}

func Table(catalog, schema, table string) ResourceIdent {
	return Ident(models.LabelTable, ByName(catalog, schema, table))
}

func Volume(catalog, schema, volume string) ResourceIdent {
	return Ident(models.LabelVolume, ByName(catalog, schema, volume))
}

// ObjectReader is the part of the graph store the resolver needs.
type ObjectReader interface {
	GetObject(ctx context.Context, id uuid.UUID) (*models.Object, error)
	GetObjectByName(ctx context.Context, label models.ObjectLabel, name []string) (*models.Object, error)
}

// Resolve returns the id of ident. When a name lookup was needed the fetched
// object is returned too; for an id reference the object is nil.
func Resolve(ctx context.Context, r ObjectReader, ident ResourceIdent) (uuid.UUID, *models.Object, error) {
	switch ident.Ref.kind {
	case RefUuid:
		if ident.Ref.id == uuid.Nil {
			return uuid.Nil, nil, ErrInvalidReference.Msg("nil resource id")
		}
		return ident.Ref.id, nil, nil
	case RefName:
		if err := ValidateName(ident.Label, ident.Ref.name); err != nil {
			return uuid.Nil, nil, err
		}
		obj, err := r.GetObjectByName(ctx, ident.Label, ident.Ref.name)
		if err != nil {
			return uuid.Nil, nil, err
		}
		return obj.ID, obj, nil
	}
	return uuid.Nil, nil, ErrInvalidReference.Msg("undefined " + string(ident.Label) + " reference")
}

// Fetch resolves ident and always returns the object, loading it by id when needed.
// An object of a different kind than ident.Label is reported as not found.
func Fetch(ctx context.Context, r ObjectReader, ident ResourceIdent) (*models.Object, error) {
	id, obj, err := Resolve(ctx, r, ident)
	if err != nil {
		return nil, err
	}
	if obj != nil {
		return obj, nil
	}
	obj, err = r.GetObject(ctx, id)
	if err != nil {
		return nil, err
	}
	if obj.Label != ident.Label {
		return nil, apperrors.ErrNotFound.Msg(string(ident.Label) + " " + id.String() + " not found")
	}
	return obj, nil
}
