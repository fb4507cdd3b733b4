package sqlstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/mugiliam/unitycatalogsrv/internal/apperrors"
	"github.com/mugiliam/unitycatalogsrv/internal/config"
	"github.com/mugiliam/unitycatalogsrv/internal/db/dberror"
	"github.com/mugiliam/unitycatalogsrv/internal/db/dbmanager"
	"github.com/mugiliam/unitycatalogsrv/internal/db/models"
	"github.com/mugiliam/unitycatalogsrv/internal/db/pagination"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// postgresURLEnv names a Postgres database the store tests run against instead
// of in-memory SQLite. The database is truncated before every test.
const postgresURLEnv = "UNITYCATALOG_TEST_POSTGRES_URL"

func newTestDb(t *testing.T, maxPageSize int) (context.Context, *CatalogDb) {
	t.Helper()
	ctx := log.Logger.WithContext(context.Background())
	cfg := config.Default().Store
	if url := os.Getenv(postgresURLEnv); url != "" {
		cfg.BackingStoreURL = url
	}
	conn, err := dbmanager.Open(ctx, cfg)
	require.NoError(t, err)
	require.NoError(t, conn.Migrate(ctx))
	if conn.Dialect == dbmanager.DialectPostgres {
		_, err = conn.ExecContext(ctx, "TRUNCATE associations, objects")
		require.NoError(t, err)
	}
	h := NewCatalogDb(conn, Options{MaxPageSize: maxPageSize, MaxRetries: 2})
	t.Cleanup(func() { h.Close(ctx) })
	return ctx, h
}

func mustAdd(t *testing.T, ctx context.Context, h *CatalogDb, label models.ObjectLabel, name ...string) *models.Object {
	t.Helper()
	o, err := h.AddObject(ctx, label, name, nil)
	require.NoError(t, err)
	return o
}

func TestObjectRoundTrip(t *testing.T) {
	ctx, h := newTestDb(t, 100)

	props := json.RawMessage(`{"comment":"hello","properties":{"k":"v"}}`)
	created, err := h.AddObject(ctx, models.LabelSchema, []string{"c1", "s1"}, props)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)

	got, err := h.GetObjectByName(ctx, models.LabelSchema, []string{"c1", "s1"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, models.LabelSchema, got.Label)
	assert.Equal(t, []string{"c1", "s1"}, got.Name)
	assert.JSONEq(t, string(props), string(got.Properties))
	assert.True(t, created.CreatedAt.Equal(got.CreatedAt))

	byID, err := h.GetObject(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, got.Name, byID.Name)

	// same name under another label does not collide
	_, err = h.AddObject(ctx, models.LabelCatalog, []string{"c1", "s1"}, nil)
	assert.NoError(t, err)
}

func TestObjectUniqueness(t *testing.T) {
	ctx, h := newTestDb(t, 100)
	mustAdd(t, ctx, h, models.LabelCatalog, "c1")

	_, err := h.AddObject(ctx, models.LabelCatalog, []string{"c1"}, json.RawMessage(`{"comment":"other"}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, dberror.ErrAlreadyExists)
	assert.Equal(t, apperrors.KindAlreadyExists, apperrors.KindOf(err))
}

func TestObjectInvalidInput(t *testing.T) {
	ctx, h := newTestDb(t, 100)

	for _, name := range [][]string{nil, {}, {""}, {"c1", ""}, {"a.b"}} {
		_, err := h.AddObject(ctx, models.LabelCatalog, name, nil)
		assert.ErrorIs(t, err, dberror.ErrInvalidInput, "name %v", name)
	}
	_, err := h.AddObject(ctx, models.ObjectLabel("bogus"), []string{"x"}, nil)
	assert.ErrorIs(t, err, dberror.ErrInvalidInput)
	_, err = h.AddObject(ctx, models.LabelCatalog, []string{"x"}, json.RawMessage(`{bad`))
	assert.ErrorIs(t, err, dberror.ErrInvalidInput)
}

func TestObjectNotFound(t *testing.T) {
	ctx, h := newTestDb(t, 100)

	_, err := h.GetObject(ctx, uuid.New())
	assert.ErrorIs(t, err, dberror.ErrNotFound)
	_, err = h.GetObjectByName(ctx, models.LabelCatalog, []string{"missing"})
	assert.ErrorIs(t, err, dberror.ErrNotFound)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
	err = h.DeleteObject(ctx, uuid.New())
	assert.ErrorIs(t, err, dberror.ErrNotFound)
	_, err = h.UpdateObject(ctx, uuid.New(), ObjectUpdate{Properties: json.RawMessage(`{}`)})
	assert.ErrorIs(t, err, dberror.ErrNotFound)
}

func TestUpdateObject(t *testing.T) {
	ctx, h := newTestDb(t, 100)
	o, err := h.AddObject(ctx, models.LabelShare, []string{"sh1"}, json.RawMessage(`{"comment":"a"}`))
	require.NoError(t, err)
	mustAdd(t, ctx, h, models.LabelShare, "sh2")

	// properties only: name preserved
	u, err := h.UpdateObject(ctx, o.ID, ObjectUpdate{Properties: json.RawMessage(`{"comment":"b"}`)})
	require.NoError(t, err)
	assert.Equal(t, []string{"sh1"}, u.Name)
	assert.JSONEq(t, `{"comment":"b"}`, string(u.Properties))
	assert.False(t, u.UpdatedAt.Before(o.UpdatedAt))

	// rename: properties preserved, id fixed
	u, err = h.UpdateObject(ctx, o.ID, ObjectUpdate{Name: []string{"sh3"}})
	require.NoError(t, err)
	assert.Equal(t, o.ID, u.ID)
	assert.Equal(t, []string{"sh3"}, u.Name)
	assert.JSONEq(t, `{"comment":"b"}`, string(u.Properties))

	// rename onto an existing name
	_, err = h.UpdateObject(ctx, o.ID, ObjectUpdate{Name: []string{"sh2"}})
	assert.ErrorIs(t, err, dberror.ErrAlreadyExists)
	got, err := h.GetObject(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"sh3"}, got.Name)
}

func TestUpdateLabelKeepsToLabel(t *testing.T) {
	ctx, h := newTestDb(t, 100)
	a := mustAdd(t, ctx, h, models.LabelShare, "sh1")
	b := mustAdd(t, ctx, h, models.LabelTable, "c", "s", "t")
	_, err := h.AddAssociation(ctx, a.ID, models.AssocShareContains, b.ID, nil)
	require.NoError(t, err)

	vol := models.LabelVolume
	_, err = h.UpdateObject(ctx, b.ID, ObjectUpdate{Label: &vol})
	require.NoError(t, err)

	edges, _, err := h.ListAssociations(ctx, a.ID, models.AssocShareContains, models.LabelVolume, pagination.Request{})
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, models.LabelVolume, edges[0].ToLabel)
}

func TestInverseAssociations(t *testing.T) {
	ctx, h := newTestDb(t, 100)
	props := json.RawMessage(`{"sharedAs":"s1.t1"}`)

	for _, label := range models.AssociationLabels() {
		a := mustAdd(t, ctx, h, models.LabelShare, "from-"+string(label))
		b := mustAdd(t, ctx, h, models.LabelTable, "c", "s", "to-"+string(label))

		fwd, err := h.AddAssociation(ctx, a.ID, label, b.ID, props)
		require.NoError(t, err, "label %s", label)
		assert.Equal(t, models.LabelTable, fwd.ToLabel)

		inv, _ := label.Inverse()
		edges, _, err := h.GetAssociations(ctx, b.ID, inv, []uuid.UUID{a.ID}, pagination.Request{})
		require.NoError(t, err)
		require.Len(t, edges, 1, "label %s", label)
		assert.JSONEq(t, string(props), string(edges[0].Properties))
		assert.Equal(t, models.LabelShare, edges[0].ToLabel)

		require.NoError(t, h.DeleteAssociation(ctx, a.ID, label, b.ID))
		edges, _, err = h.GetAssociations(ctx, b.ID, inv, []uuid.UUID{a.ID}, pagination.Request{})
		require.NoError(t, err)
		assert.Empty(t, edges)
	}
}

func TestAssociationErrors(t *testing.T) {
	ctx, h := newTestDb(t, 100)
	a := mustAdd(t, ctx, h, models.LabelCatalog, "c1")
	b := mustAdd(t, ctx, h, models.LabelSchema, "c1", "s1")

	_, err := h.AddAssociation(ctx, a.ID, models.AssocParentOf, uuid.New(), nil)
	assert.ErrorIs(t, err, dberror.ErrNotFound)
	_, err = h.AddAssociation(ctx, uuid.New(), models.AssocParentOf, b.ID, nil)
	assert.ErrorIs(t, err, dberror.ErrNotFound)
	_, err = h.AddAssociation(ctx, a.ID, models.AssociationLabel("bogus"), b.ID, nil)
	assert.ErrorIs(t, err, dberror.ErrInvalidInput)

	_, err = h.AddAssociation(ctx, a.ID, models.AssocParentOf, b.ID, nil)
	require.NoError(t, err)
	_, err = h.AddAssociation(ctx, a.ID, models.AssocParentOf, b.ID, nil)
	assert.ErrorIs(t, err, dberror.ErrAlreadyExists)

	// the mutual inverse from the other end collides with the stored inverse
	_, err = h.AddAssociation(ctx, b.ID, models.AssocChildOf, a.ID, nil)
	assert.ErrorIs(t, err, dberror.ErrAlreadyExists)

	err = h.DeleteAssociation(ctx, b.ID, models.AssocParentOf, a.ID)
	assert.ErrorIs(t, err, dberror.ErrNotFound)
}

func TestConcurrentInverseAssociations(t *testing.T) {
	ctx, h := newTestDb(t, 100)
	h.opts.RetryInitialInterval = 1

	for i := 0; i < 10; i++ {
		a := mustAdd(t, ctx, h, models.LabelCatalog, fmt.Sprintf("c%d", i))
		b := mustAdd(t, ctx, h, models.LabelSchema, fmt.Sprintf("c%d", i), "s")

		var wg sync.WaitGroup
		errs := make([]error, 2)
		add := func(idx int, from uuid.UUID, label models.AssociationLabel, to uuid.UUID) {
			defer wg.Done()
			errs[idx] = h.InTx(ctx, func(ctx context.Context) error {
				_, err := h.AddAssociation(ctx, from, label, to, nil)
				return err
			})
		}
		wg.Add(2)
		go add(0, a.ID, models.AssocParentOf, b.ID)
		go add(1, b.ID, models.AssocChildOf, a.ID)
		wg.Wait()

		var committed, rejected int
		for _, err := range errs {
			switch {
			case err == nil:
				committed++
			case errors.Is(err, dberror.ErrAlreadyExists):
				rejected++
			default:
				t.Fatalf("unexpected error: %v", err)
			}
		}
		assert.Equal(t, 1, committed)
		assert.Equal(t, 1, rejected)

		down, _, err := h.GetAssociations(ctx, a.ID, models.AssocParentOf, []uuid.UUID{b.ID}, pagination.Request{})
		require.NoError(t, err)
		assert.Len(t, down, 1)
		up, _, err := h.GetAssociations(ctx, b.ID, models.AssocChildOf, []uuid.UUID{a.ID}, pagination.Request{})
		require.NoError(t, err)
		assert.Len(t, up, 1)
	}
}

func TestDeleteCascades(t *testing.T) {
	ctx, h := newTestDb(t, 2)
	c := mustAdd(t, ctx, h, models.LabelCatalog, "c1")
	var schemas []*models.Object
	for i := 0; i < 5; i++ {
		s := mustAdd(t, ctx, h, models.LabelSchema, "c1", fmt.Sprintf("s%d", i))
		_, err := h.AddAssociation(ctx, c.ID, models.AssocParentOf, s.ID, nil)
		require.NoError(t, err)
		_, err = h.AddAssociation(ctx, s.ID, models.AssocReferences, c.ID, nil)
		require.NoError(t, err)
		schemas = append(schemas, s)
	}

	require.NoError(t, h.DeleteObject(ctx, c.ID))

	for _, s := range schemas {
		for _, label := range models.AssociationLabels() {
			edges, err := collect(func(p pagination.Request) ([]models.Association, string, error) {
				return h.ListAssociations(ctx, s.ID, label, "", p)
			})
			require.NoError(t, err)
			assert.Empty(t, edges, "schema %s still has %s edges", s.FullName(), label)
		}
	}
	var n int
	require.NoError(t, h.db.GetContext(ctx, &n, `SELECT count(*) FROM associations`))
	assert.Zero(t, n)
}

func collect[T any](list func(p pagination.Request) ([]T, string, error)) ([]T, error) {
	var all []T
	p := pagination.Request{}
	for {
		items, next, err := list(p)
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
		if next == "" {
			return all, nil
		}
		p.Token = next
	}
}

func TestListObjectsPagination(t *testing.T) {
	ctx, h := newTestDb(t, 100)
	var ids []uuid.UUID
	for i := 0; i < 7; i++ {
		o := mustAdd(t, ctx, h, models.LabelSchema, "c1", fmt.Sprintf("s%d", i))
		ids = append(ids, o.ID)
	}
	mustAdd(t, ctx, h, models.LabelSchema, "c2", "s0")
	mustAdd(t, ctx, h, models.LabelSchema, "c10", "s0")
	mustAdd(t, ctx, h, models.LabelTable, "c1", "s0", "t0")

	full, next, err := h.ListObjects(ctx, models.LabelSchema, []string{"c1"}, pagination.Request{})
	require.NoError(t, err)
	assert.Empty(t, next)
	require.Len(t, full, 7)
	for i := range full {
		assert.Equal(t, ids[len(ids)-1-i], full[i].ID, "descending id order")
	}

	for _, size := range []int{1, 2, 3, 7, 8} {
		var got []models.Object
		page := pagination.Request{MaxSize: size}
		calls := 0
		for {
			items, next, err := h.ListObjects(ctx, models.LabelSchema, []string{"c1"}, page)
			require.NoError(t, err)
			calls++
			assert.LessOrEqual(t, len(items), size)
			got = append(got, items...)
			if next == "" {
				break
			}
			assert.Len(t, items, size, "a cursor is only issued for full pages")
			page.Token = next
		}
		require.Len(t, got, len(full), "page size %d", size)
		for i := range got {
			assert.Equal(t, full[i].ID, got[i].ID)
		}
		assert.LessOrEqual(t, calls, len(full)/size+1)
	}

	all, _, err := h.ListObjects(ctx, models.LabelSchema, nil, pagination.Request{})
	require.NoError(t, err)
	assert.Len(t, all, 9)

	exact, _, err := h.ListObjects(ctx, models.LabelSchema, []string{"c1", "s3"}, pagination.Request{})
	require.NoError(t, err)
	require.Len(t, exact, 1)
	assert.Equal(t, ids[3], exact[0].ID)
}

func TestListObjectsPageSizeCap(t *testing.T) {
	ctx, h := newTestDb(t, 3)
	for i := 0; i < 4; i++ {
		mustAdd(t, ctx, h, models.LabelCatalog, fmt.Sprintf("c%d", i))
	}
	items, next, err := h.ListObjects(ctx, models.LabelCatalog, nil, pagination.Request{MaxSize: 50})
	require.NoError(t, err)
	assert.Len(t, items, 3)
	assert.NotEmpty(t, next)
	assert.Equal(t, 3, h.MaxPageSize())
}

func TestListObjectsBadCursor(t *testing.T) {
	ctx, h := newTestDb(t, 10)
	_, _, err := h.ListObjects(ctx, models.LabelCatalog, nil, pagination.Request{Token: "garbage"})
	assert.ErrorIs(t, err, dberror.ErrInvalidCursor)
	assert.Equal(t, apperrors.KindInvalid, apperrors.KindOf(err))
}

func TestListAssociationsFilter(t *testing.T) {
	ctx, h := newTestDb(t, 10)
	s := mustAdd(t, ctx, h, models.LabelSchema, "c1", "s1")
	t1 := mustAdd(t, ctx, h, models.LabelTable, "c1", "s1", "t1")
	v1 := mustAdd(t, ctx, h, models.LabelVolume, "c1", "s1", "v1")
	for _, child := range []*models.Object{t1, v1} {
		_, err := h.AddAssociation(ctx, s.ID, models.AssocParentOf, child.ID, nil)
		require.NoError(t, err)
	}

	edges, _, err := h.ListAssociations(ctx, s.ID, models.AssocParentOf, models.LabelTable, pagination.Request{})
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, t1.ID, edges[0].ToID)

	edges, _, err = h.ListAssociations(ctx, s.ID, models.AssocParentOf, "", pagination.Request{})
	require.NoError(t, err)
	require.Len(t, edges, 2)
	assert.Equal(t, v1.ID, edges[0].ToID)

	edges, _, err = h.GetAssociations(ctx, s.ID, models.AssocParentOf, []uuid.UUID{v1.ID, uuid.New()}, pagination.Request{})
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, v1.ID, edges[0].ToID)

	edges, _, err = h.GetAssociations(ctx, s.ID, models.AssocParentOf, nil, pagination.Request{})
	require.NoError(t, err)
	assert.Empty(t, edges)
}

var errAbort = errors.New("abort")

func TestInTxRollsBack(t *testing.T) {
	ctx, h := newTestDb(t, 10)

	err := h.InTx(ctx, func(ctx context.Context) error {
		c, err := h.AddObject(ctx, models.LabelCatalog, []string{"c1"}, nil)
		if err != nil {
			return err
		}
		s, err := h.AddObject(ctx, models.LabelSchema, []string{"c1", "s1"}, nil)
		if err != nil {
			return err
		}
		if _, err := h.AddAssociation(ctx, c.ID, models.AssocParentOf, s.ID, nil); err != nil {
			return err
		}
		// visible inside the transaction
		if _, err := h.GetObjectByName(ctx, models.LabelSchema, []string{"c1", "s1"}); err != nil {
			return err
		}
		return errAbort
	})
	assert.ErrorIs(t, err, errAbort)

	_, err = h.GetObjectByName(ctx, models.LabelCatalog, []string{"c1"})
	assert.ErrorIs(t, err, dberror.ErrNotFound)
	_, err = h.GetObjectByName(ctx, models.LabelSchema, []string{"c1", "s1"})
	assert.ErrorIs(t, err, dberror.ErrNotFound)
}

func TestInTxCommitsAndNests(t *testing.T) {
	ctx, h := newTestDb(t, 10)

	err := h.InTx(ctx, func(ctx context.Context) error {
		if _, err := h.AddObject(ctx, models.LabelCatalog, []string{"c1"}, nil); err != nil {
			return err
		}
		return h.InTx(ctx, func(ctx context.Context) error {
			_, err := h.AddObject(ctx, models.LabelCatalog, []string{"c2"}, nil)
			return err
		})
	})
	require.NoError(t, err)

	items, _, err := h.ListObjects(ctx, models.LabelCatalog, nil, pagination.Request{})
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestInTxRetriesSerializationConflicts(t *testing.T) {
	ctx, h := newTestDb(t, 10)
	h.opts.RetryInitialInterval = 1

	attempts := 0
	err := h.InTx(ctx, func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return dberror.ErrSerialization.Msg("conflict")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, attempts)

	attempts = 0
	err = h.InTx(ctx, func(ctx context.Context) error {
		attempts++
		return dberror.ErrSerialization.Msg("conflict")
	})
	assert.ErrorIs(t, err, dberror.ErrSerialization)
	assert.Equal(t, 3, attempts, "one attempt plus MaxRetries")

	attempts = 0
	err = h.InTx(ctx, func(ctx context.Context) error {
		attempts++
		return dberror.ErrAlreadyExists.Msg("dup")
	})
	assert.ErrorIs(t, err, dberror.ErrAlreadyExists)
	assert.Equal(t, 1, attempts)
}

func TestInTxRetriesPostgresConflicts(t *testing.T) {
	ctx, h := newTestDb(t, 10)
	h.opts.RetryInitialInterval = 1

	for _, code := range []string{"40001", "40P01"} {
		attempts := 0
		err := h.InTx(ctx, func(ctx context.Context) error {
			attempts++
			if attempts == 1 {
				return dberror.Translate(&pgconn.PgError{Code: code}, "unable to commit transaction")
			}
			return nil
		})
		assert.NoError(t, err, "code %s", code)
		assert.Equal(t, 2, attempts, "code %s", code)
	}
}
