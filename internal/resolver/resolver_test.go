package resolver

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/mugiliam/unitycatalogsrv/internal/apperrors"
	"github.com/mugiliam/unitycatalogsrv/internal/db/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	byID   map[uuid.UUID]*models.Object
	byName map[string]*models.Object
	calls  int
}

func newFakeReader(objs ...*models.Object) *fakeReader {
	f := &fakeReader{byID: map[uuid.UUID]*models.Object{}, byName: map[string]*models.Object{}}
	for _, o := range objs {
		f.byID[o.ID] = o
		f.byName[string(o.Label)+":"+o.FullName()] = o
	}
	return f
}

func (f *fakeReader) GetObject(_ context.Context, id uuid.UUID) (*models.Object, error) {
	f.calls++
	if o, ok := f.byID[id]; ok {
		return o, nil
	}
	return nil, apperrors.ErrNotFound.Msg("not found")
}

func (f *fakeReader) GetObjectByName(_ context.Context, label models.ObjectLabel, name []string) (*models.Object, error) {
	f.calls++
	if o, ok := f.byName[string(label)+":"+FullName(name...)]; ok {
		return o, nil
	}
	return nil, apperrors.ErrNotFound.Msg("not found")
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	schema := &models.Object{ID: uuid.New(), Label: models.LabelSchema, Name: []string{"c1", "s1"}}
	r := newFakeReader(schema)

	id, obj, err := Resolve(ctx, r, Schema("c1", "s1"))
	require.NoError(t, err)
	assert.Equal(t, schema.ID, id)
	assert.Same(t, schema, obj)

	// an id reference needs no round trip
	r.calls = 0
	id, obj, err = Resolve(ctx, r, Ident(models.LabelSchema, ByID(schema.ID)))
	require.NoError(t, err)
	assert.Equal(t, schema.ID, id)
	assert.Nil(t, obj)
	assert.Zero(t, r.calls)

	_, _, err = Resolve(ctx, r, Schema("c1", "nope"))
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestResolveRejects(t *testing.T) {
	ctx := context.Background()
	r := newFakeReader()

	_, _, err := Resolve(ctx, r, ResourceIdent{Label: models.LabelCatalog})
	assert.ErrorIs(t, err, ErrInvalidReference)

	_, _, err = Resolve(ctx, r, Ident(models.LabelTable, ByName("c1", "s1")))
	assert.ErrorIs(t, err, ErrInvalidName)

	_, _, err = Resolve(ctx, r, Ident(models.LabelCatalog, ByName("bad name")))
	assert.ErrorIs(t, err, ErrInvalidName)

	_, _, err = Resolve(ctx, r, Ident(models.LabelCatalog, ByID(uuid.Nil)))
	assert.ErrorIs(t, err, ErrInvalidReference)
	assert.Zero(t, r.calls)
}

func TestFetch(t *testing.T) {
	ctx := context.Background()
	tbl := &models.Object{ID: uuid.New(), Label: models.LabelTable, Name: []string{"c", "s", "t"}}
	r := newFakeReader(tbl)

	obj, err := Fetch(ctx, r, Ident(models.LabelTable, ByID(tbl.ID)))
	require.NoError(t, err)
	assert.Equal(t, "c.s.t", obj.FullName())

	_, err = Fetch(ctx, r, Ident(models.LabelVolume, ByID(tbl.ID)))
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestNames(t *testing.T) {
	assert.Equal(t, 1, Arity(models.LabelCatalog))
	assert.Equal(t, 2, Arity(models.LabelSchema))
	assert.Equal(t, 3, Arity(models.LabelTable))
	assert.Equal(t, 3, Arity(models.LabelVolume))
	assert.Equal(t, 1, Arity(models.LabelShare))

	name, err := SplitFullName(models.LabelTable, "c1.s1.t1")
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "s1", "t1"}, name)
	_, err = SplitFullName(models.LabelSchema, "c1.s1.t1")
	assert.ErrorIs(t, err, ErrInvalidName)
	_, err = SplitFullName(models.LabelSchema, "c1.")
	assert.ErrorIs(t, err, ErrInvalidName)

	prefix, err := ChildPrefix(models.LabelTable, []string{"c1", "s1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "s1"}, prefix)
	_, err = ChildPrefix(models.LabelSchema, []string{"c1", "s1"})
	assert.ErrorIs(t, err, ErrInvalidName)

	assert.Equal(t, "c1.s1", ByFullName("c1.s1").String())
	assert.Equal(t, "<undefined>", ResourceRef{}.String())
}
