package catalogmanager

import (
	"context"
	"testing"

	"github.com/mugiliam/unitycatalogsrv/internal/apperrors"
	"github.com/mugiliam/unitycatalogsrv/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tableRequest(catalog, schema, table string) *api.CreateTableRequest {
	return &api.CreateTableRequest{
		Name:             table,
		CatalogName:      catalog,
		SchemaName:       schema,
		TableType:        api.TableTypeExternal,
		DataSourceFormat: api.DataSourceFormatDelta,
		StorageLocation:  "s3://bucket/" + catalog + "/" + schema + "/" + table,
		Columns: []api.ColumnInfo{
			{Name: "id", TypeName: "LONG", Position: 0},
			{Name: "name", TypeName: "STRING", Position: 1, Nullable: true},
		},
	}
}

func createCatalogSchemaTable(t *testing.T, ctx context.Context, m *Managers, catalog, schema string, tables ...string) {
	t.Helper()
	if _, err := m.Catalogs.Get(ctx, catalog); err != nil {
		_, err := m.Catalogs.Create(ctx, &api.CreateCatalogRequest{Name: catalog})
		require.NoError(t, err)
	}
	if _, err := m.Schemas.Get(ctx, catalog+"."+schema); err != nil {
		_, err := m.Schemas.Create(ctx, &api.CreateSchemaRequest{Name: schema, CatalogName: catalog})
		require.NoError(t, err)
	}
	for _, tbl := range tables {
		_, err := m.Tables.Create(ctx, tableRequest(catalog, schema, tbl))
		require.NoError(t, err)
	}
}

func TestCreateSchema(t *testing.T) {
	ctx, m, _ := newTestManagers(t)

	_, err := m.Schemas.Create(ctx, &api.CreateSchemaRequest{Name: "s1", CatalogName: "c1"})
	assert.ErrorIs(t, err, ErrCatalogNotFound)

	_, err = m.Catalogs.Create(ctx, &api.CreateCatalogRequest{Name: "c1"})
	require.NoError(t, err)
	s, err := m.Schemas.Create(ctx, &api.CreateSchemaRequest{Name: "s1", CatalogName: "c1", Comment: "raw"})
	require.NoError(t, err)
	assert.Equal(t, "c1.s1", s.FullName)
	assert.Equal(t, "c1", s.CatalogName)
	assert.Equal(t, "s1", s.Name)

	_, err = m.Schemas.Create(ctx, &api.CreateSchemaRequest{Name: "s1", CatalogName: "c1"})
	assert.Equal(t, apperrors.KindAlreadyExists, apperrors.KindOf(err))

	_, err = m.Schemas.Get(ctx, "c1")
	assert.Equal(t, apperrors.KindInvalid, apperrors.KindOf(err))
}

func TestListSchemasPaginated(t *testing.T) {
	ctx, m, _ := newTestManagers(t)
	_, err := m.Catalogs.Create(ctx, &api.CreateCatalogRequest{Name: "c1"})
	require.NoError(t, err)
	_, err = m.Catalogs.Create(ctx, &api.CreateCatalogRequest{Name: "other"})
	require.NoError(t, err)
	for _, s := range []string{"s1", "s2", "s3"} {
		_, err := m.Schemas.Create(ctx, &api.CreateSchemaRequest{Name: s, CatalogName: "c1"})
		require.NoError(t, err)
	}
	_, err = m.Schemas.Create(ctx, &api.CreateSchemaRequest{Name: "s4", CatalogName: "other"})
	require.NoError(t, err)

	first, err := m.Schemas.List(ctx, "c1", ListOptions{MaxResults: 2})
	require.NoError(t, err)
	require.Len(t, first.Schemas, 2)
	assert.Equal(t, "s3", first.Schemas[0].Name)
	assert.Equal(t, "s2", first.Schemas[1].Name)
	require.NotEmpty(t, first.NextPageToken)

	second, err := m.Schemas.List(ctx, "c1", ListOptions{MaxResults: 2, PageToken: first.NextPageToken})
	require.NoError(t, err)
	require.Len(t, second.Schemas, 1)
	assert.Equal(t, "s1", second.Schemas[0].Name)
	assert.Empty(t, second.NextPageToken)

	_, err = m.Schemas.List(ctx, "nope", ListOptions{})
	assert.ErrorIs(t, err, ErrCatalogNotFound)
}

func TestRenameAndDeleteSchema(t *testing.T) {
	ctx, m, _ := newTestManagers(t)
	createCatalogSchemaTable(t, ctx, m, "c1", "s1", "t1")
	_, err := m.Volumes.Create(ctx, &api.CreateVolumeRequest{
		Name: "v1", CatalogName: "c1", SchemaName: "s1",
		VolumeType: api.VolumeTypeExternal, StorageLocation: "s3://bucket/v1",
	})
	require.NoError(t, err)

	s, err := m.Schemas.Update(ctx, "c1.s1", &api.UpdateSchemaRequest{NewName: "s2"})
	require.NoError(t, err)
	assert.Equal(t, "c1.s2", s.FullName)
	_, err = m.Tables.Get(ctx, "c1.s2.t1")
	require.NoError(t, err)
	_, err = m.Volumes.Get(ctx, "c1.s2.v1")
	require.NoError(t, err)

	err = m.Schemas.Delete(ctx, "c1.s2", false)
	assert.ErrorIs(t, err, ErrForceRequired)
	require.NoError(t, m.Schemas.Delete(ctx, "c1.s2", true))
	_, err = m.Volumes.Get(ctx, "c1.s2.v1")
	assert.ErrorIs(t, err, ErrVolumeNotFound)
	_, err = m.Catalogs.Get(ctx, "c1")
	require.NoError(t, err)
}
