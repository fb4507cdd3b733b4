package sharing

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mugiliam/unitycatalogsrv/internal/apperrors"
	"github.com/mugiliam/unitycatalogsrv/internal/catalogmanager"
	"github.com/mugiliam/unitycatalogsrv/internal/common"
	"github.com/mugiliam/unitycatalogsrv/internal/db"
	"github.com/mugiliam/unitycatalogsrv/internal/types"
	"github.com/mugiliam/unitycatalogsrv/pkg/api"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fixture struct {
	ctx    context.Context
	m      *catalogmanager.Managers
	svc    *Service
	signer *HMACSigner
	clock  *testClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := log.Logger.WithContext(context.Background())
	store, err := db.OpenInMemory(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close(ctx) })
	clock := &testClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	signer, err := NewHMACSigner("secret")
	require.NoError(t, err)
	return &fixture{
		ctx:    ctx,
		m:      catalogmanager.New(store, catalogmanager.Options{Clock: clock.Now}),
		svc:    NewService(store, signer, Options{URLExpiration: time.Hour, Clock: clock.Now}),
		signer: signer,
		clock:  clock,
	}
}

func (f *fixture) table(t *testing.T, catalog, schema, table string) {
	t.Helper()
	if _, err := f.m.Catalogs.Get(f.ctx, catalog); err != nil {
		_, err := f.m.Catalogs.Create(f.ctx, &api.CreateCatalogRequest{Name: catalog})
		require.NoError(t, err)
	}
	if _, err := f.m.Schemas.Get(f.ctx, catalog+"."+schema); err != nil {
		_, err := f.m.Schemas.Create(f.ctx, &api.CreateSchemaRequest{Name: schema, CatalogName: catalog})
		require.NoError(t, err)
	}
	part := 0
	_, err := f.m.Tables.Create(f.ctx, &api.CreateTableRequest{
		Name:             table,
		CatalogName:      catalog,
		SchemaName:       schema,
		TableType:        api.TableTypeExternal,
		DataSourceFormat: api.DataSourceFormatDelta,
		StorageLocation:  "s3://bucket/" + schema + "/" + table,
		Comment:          "table " + table,
		Columns: []api.ColumnInfo{
			{Name: "id", TypeName: "LONG", Position: 0},
			{Name: "day", TypeName: "DATE", Position: 2, Nullable: true, PartitionIndex: &part},
			{Name: "amount", TypeName: "DECIMAL", TypePrecision: 12, TypeScale: 2, Position: 1, Nullable: true, Comment: "in cents"},
		},
	})
	require.NoError(t, err)
}

func (f *fixture) share(t *testing.T, name string, updates ...api.DataObjectUpdate) {
	t.Helper()
	_, err := f.m.Shares.Create(f.ctx, &api.CreateShareRequest{Name: name})
	require.NoError(t, err)
	if len(updates) > 0 {
		_, err = f.m.Shares.Update(f.ctx, name, &api.UpdateShareRequest{Updates: updates})
		require.NoError(t, err)
	}
}

func (f *fixture) recipient(t *testing.T, name string, shares ...string) context.Context {
	t.Helper()
	r, err := f.m.Recipients.Create(f.ctx, &api.CreateRecipientRequest{Name: name, AuthenticationType: api.AuthenticationTypeToken})
	require.NoError(t, err)
	for _, sh := range shares {
		_, err := f.m.Shares.UpdatePermissions(f.ctx, sh, &api.UpdateSharePermissionsRequest{
			Changes: []api.PermissionsChange{{Principal: name, Add: []string{api.PrivilegeSelect}}},
		})
		require.NoError(t, err)
	}
	return common.SetRecipientInContext(f.ctx, types.Recipient{Id: types.RecipientId(uuid.MustParse(r.ID)), Name: name})
}

func addTable(name, sharedAs string) api.DataObjectUpdate {
	return api.DataObjectUpdate{Action: api.DataObjectActionAdd, DataObject: api.DataObject{
		Name: name, DataObjectType: api.DataObjectTypeTable, SharedAs: sharedAs,
	}}
}

func addSchema(name string) api.DataObjectUpdate {
	return api.DataObjectUpdate{Action: api.DataObjectActionAdd, DataObject: api.DataObject{
		Name: name, DataObjectType: api.DataObjectTypeSchema,
	}}
}

func shareNames(rsp *api.SharingListSharesResponse) []string {
	names := []string{}
	for _, s := range rsp.Items {
		names = append(names, s.Name)
	}
	return names
}

func tableNames(rsp *api.SharingListTablesResponse) []string {
	names := []string{}
	for _, t := range rsp.Items {
		names = append(names, t.Schema+"."+t.Name)
	}
	return names
}

func TestListShares(t *testing.T) {
	f := newFixture(t)
	f.share(t, "sh1")
	f.share(t, "sh2")
	f.share(t, "sh3")

	rsp, err := f.svc.ListShares(f.ctx, ListOptions{MaxResults: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"sh3", "sh2"}, shareNames(rsp))
	require.NotEmpty(t, rsp.NextPageToken)

	rsp, err = f.svc.ListShares(f.ctx, ListOptions{MaxResults: 2, PageToken: rsp.NextPageToken})
	require.NoError(t, err)
	assert.Equal(t, []string{"sh1"}, shareNames(rsp))
	assert.Empty(t, rsp.NextPageToken)

	_, err = f.svc.ListShares(f.ctx, ListOptions{PageToken: "garbage"})
	assert.Equal(t, apperrors.KindInvalid, apperrors.KindOf(err))
}

func TestRecipientSeesGrantedSharesOnly(t *testing.T) {
	f := newFixture(t)
	f.share(t, "sh1")
	f.share(t, "sh2")
	ctx := f.recipient(t, "r1", "sh1")

	rsp, err := f.svc.ListShares(ctx, ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"sh1"}, shareNames(rsp))

	got, err := f.svc.GetShare(ctx, "sh1")
	require.NoError(t, err)
	assert.Equal(t, "sh1", got.Share.Name)
	assert.NotEmpty(t, got.Share.ID)

	_, err = f.svc.GetShare(ctx, "sh2")
	assert.ErrorIs(t, err, ErrShareNotFound)
	_, err = f.svc.ListSchemas(ctx, "sh2", ListOptions{})
	assert.ErrorIs(t, err, ErrShareNotFound)

	// an unauthenticated caller is not restricted
	_, err = f.svc.GetShare(f.ctx, "sh2")
	assert.NoError(t, err)
	_, err = f.svc.GetShare(f.ctx, "missing")
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestSchemasAndTables(t *testing.T) {
	f := newFixture(t)
	f.table(t, "c1", "s2", "t1")
	f.table(t, "c1", "s2", "t2")
	f.table(t, "c1", "s", "t")
	f.table(t, "c1", "s", "u")
	f.share(t, "sh2",
		addTable("c1.s.t", ""),
		addSchema("c1.s2"),
		addTable("c1.s.u", "s2.t1"),
	)

	schemas, err := f.svc.ListSchemas(f.ctx, "sh2", ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, []api.SharingSchema{{Name: "s2", Share: "sh2"}, {Name: "s", Share: "sh2"}}, schemas.Items)

	all, err := f.svc.ListAllTables(f.ctx, "sh2", ListOptions{})
	require.NoError(t, err)
	// the direct member shared as s2.t1 hides c1.s2.t1
	assert.Equal(t, []string{"s2.t1", "s.t", "s2.t2"}, tableNames(all))
	u, err := f.m.Tables.Get(f.ctx, "c1.s.u")
	require.NoError(t, err)
	assert.Equal(t, u.ID, all.Items[0].ID)
	assert.Equal(t, "sh2", all.Items[0].Share)

	page, err := f.svc.ListAllTables(f.ctx, "sh2", ListOptions{MaxResults: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"s2.t1", "s.t"}, tableNames(page))
	require.NotEmpty(t, page.NextPageToken)
	page, err = f.svc.ListAllTables(f.ctx, "sh2", ListOptions{MaxResults: 2, PageToken: page.NextPageToken})
	require.NoError(t, err)
	assert.Equal(t, []string{"s2.t2"}, tableNames(page))
	assert.Empty(t, page.NextPageToken)

	inSchema, err := f.svc.ListSchemaTables(f.ctx, "sh2", "s2", ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"s2.t1", "s2.t2"}, tableNames(inSchema))

	_, err = f.svc.ListSchemaTables(f.ctx, "sh2", "nope", ListOptions{})
	assert.ErrorIs(t, err, ErrSchemaNotFound)
}

func TestTableMetadata(t *testing.T) {
	f := newFixture(t)
	f.table(t, "c1", "s", "t")
	f.share(t, "sh2", addTable("c1.s.t", ""))

	res, err := f.svc.TableMetadata(f.ctx, "sh2", "s", "t")
	require.NoError(t, err)
	actions := res.Actions()
	require.Len(t, actions, 2)
	assert.Equal(t, api.ProtocolAction{Kind: api.ActionKindProtocol, Protocol: api.Protocol{MinReaderVersion: 1}}, actions[0])
	md, ok := actions[1].(api.MetadataAction)
	require.True(t, ok)
	assert.Equal(t, api.ActionKindMetadata, md.Kind)
	assert.Equal(t, "t", md.MetaData.Name)
	assert.Equal(t, "table t", md.MetaData.Description)
	assert.Equal(t, "parquet", md.MetaData.Format.Provider)
	assert.Equal(t, []string{"day"}, md.MetaData.PartitionColumns)
	assert.JSONEq(t, `{"type":"struct","fields":[
		{"name":"id","type":"long","nullable":false,"metadata":{}},
		{"name":"amount","type":"decimal(12,2)","nullable":true,"metadata":{"comment":"in cents"}},
		{"name":"day","type":"date","nullable":true,"metadata":{}}
	]}`, md.MetaData.SchemaString)

	_, err = f.svc.TableMetadata(f.ctx, "sh2", "s", "missing")
	assert.ErrorIs(t, err, ErrTableNotFound)
}

func TestTableVersion(t *testing.T) {
	f := newFixture(t)
	f.table(t, "c1", "s", "t")
	f.share(t, "sh2", addTable("c1.s.t", ""))
	f.clock.Advance(time.Hour)
	_, err := f.m.Tables.Commit(f.ctx, "c1.s.t", &api.CommitTableRequest{Add: []api.DataFile{{Path: "part-0.parquet", Size: 10}}})
	require.NoError(t, err)

	v, err := f.svc.TableVersion(f.ctx, "sh2", "s", "t", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	at := func(s string) *time.Time {
		ts, err := time.Parse(time.RFC3339, s)
		require.NoError(t, err)
		return &ts
	}
	v, err = f.svc.TableVersion(f.ctx, "sh2", "s", "t", at("2024-01-01T00:00:00Z"))
	require.NoError(t, err)
	assert.Equal(t, int64(0), v)
	v, err = f.svc.TableVersion(f.ctx, "sh2", "s", "t", at("2024-01-01T00:30:00Z"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	_, err = f.svc.TableVersion(f.ctx, "sh2", "s", "t", at("2025-01-01T00:00:00Z"))
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestQueryTable(t *testing.T) {
	f := newFixture(t)
	f.table(t, "c1", "s", "t")
	f.share(t, "sh2", addTable("c1.s.t", ""))
	f.clock.Advance(time.Hour)
	_, err := f.m.Tables.Commit(f.ctx, "c1.s.t", &api.CommitTableRequest{Add: []api.DataFile{
		{Path: "part-0.parquet", Size: 10, PartitionValues: map[string]string{"day": "2024-01-01"}},
		{Path: "part-1.parquet", Size: 20},
	}})
	require.NoError(t, err)
	f.clock.Advance(time.Hour)
	_, err = f.m.Tables.Commit(f.ctx, "c1.s.t", &api.CommitTableRequest{
		Add:    []api.DataFile{{Path: "s3://other/part-2.parquet", Size: 30}},
		Remove: []string{"part-0.parquet"},
	})
	require.NoError(t, err)

	res, err := f.svc.QueryTable(f.ctx, "sh2", "s", "t", &api.QueryTableRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Version)
	require.Len(t, res.Files, 2)
	assert.Equal(t, api.ActionKindFile, res.Files[0].Kind)
	assert.Equal(t, int64(20), res.Files[0].File.Size)
	assert.Contains(t, res.Files[0].File.URL, "s3://bucket/s/t/part-1.parquet?")
	assert.Contains(t, res.Files[1].File.URL, "s3://other/part-2.parquet?")
	assert.Equal(t, map[string]string{}, res.Files[0].File.PartitionValues)
	assert.Equal(t, int64(0), res.Files[0].File.Version)
	assert.Equal(t, f.clock.Now().Add(time.Hour).UnixMilli(), res.Files[0].File.ExpirationTimestamp)
	assert.NoError(t, f.signer.Verify(res.Files[0].File.URL, f.clock.Now()))
	assert.Equal(t, int64(2), res.Metadata.MetaData.NumFiles)
	assert.Equal(t, int64(50), res.Metadata.MetaData.Size)
	assert.Len(t, res.Actions(), 4)

	one := int64(1)
	res, err = f.svc.QueryTable(f.ctx, "sh2", "s", "t", &api.QueryTableRequest{Version: &one})
	require.NoError(t, err)
	require.Len(t, res.Files, 2)
	assert.Equal(t, map[string]string{"day": "2024-01-01"}, res.Files[0].File.PartitionValues)

	res, err = f.svc.QueryTable(f.ctx, "sh2", "s", "t", &api.QueryTableRequest{Timestamp: "2024-01-01T01:30:00Z"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Version)

	res, err = f.svc.QueryTable(f.ctx, "sh2", "s", "t", &api.QueryTableRequest{LimitHint: &one})
	require.NoError(t, err)
	assert.Len(t, res.Files, 1)

	res, err = f.svc.QueryTable(f.ctx, "sh2", "s", "t", &api.QueryTableRequest{StartingVersion: &one})
	require.NoError(t, err)
	require.Len(t, res.Files, 3)
	assert.Equal(t, int64(1), res.Files[0].File.Version)
	assert.Equal(t, int64(2), res.Files[2].File.Version)

	// file ids are stable across queries
	again, err := f.svc.QueryTable(f.ctx, "sh2", "s", "t", &api.QueryTableRequest{StartingVersion: &one})
	require.NoError(t, err)
	assert.Equal(t, res.Files[0].File.ID, again.Files[0].File.ID)

	nine := int64(9)
	_, err = f.svc.QueryTable(f.ctx, "sh2", "s", "t", &api.QueryTableRequest{Version: &nine})
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
	_, err = f.svc.QueryTable(f.ctx, "sh2", "s", "t", &api.QueryTableRequest{Version: &one, Timestamp: "2024-01-01T01:30:00Z"})
	assert.ErrorIs(t, err, ErrInvalidQuery)
	_, err = f.svc.QueryTable(f.ctx, "sh2", "s", "t", &api.QueryTableRequest{Timestamp: "yesterday"})
	assert.ErrorIs(t, err, ErrInvalidQuery)
}
