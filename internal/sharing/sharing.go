// Package sharing serves the Delta-Sharing protocol as a read-only projection of
// the catalog graph. Share membership comes from share_contains associations and
// table versions from the table objects; nothing here writes to the store.
package sharing

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mugiliam/unitycatalogsrv/internal/catalogmanager"
	"github.com/mugiliam/unitycatalogsrv/internal/common"
	"github.com/mugiliam/unitycatalogsrv/internal/db"
	"github.com/mugiliam/unitycatalogsrv/internal/db/dberror"
	"github.com/mugiliam/unitycatalogsrv/internal/db/models"
	"github.com/mugiliam/unitycatalogsrv/internal/db/pagination"
	"github.com/mugiliam/unitycatalogsrv/internal/resolver"
	"github.com/mugiliam/unitycatalogsrv/pkg/api"
	"github.com/rs/zerolog/log"
)

const DefaultURLExpiration = 15 * time.Minute

type Options struct {
	URLExpiration time.Duration
	Clock         func() time.Time
}

// Service is the Delta-Sharing projection over a graph store.
type Service struct {
	db     db.GraphDB
	signer URLSigner
	opts   Options
}

func NewService(store db.GraphDB, signer URLSigner, opts Options) *Service {
	if opts.URLExpiration <= 0 {
		opts.URLExpiration = DefaultURLExpiration
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Service{db: store, signer: signer, opts: opts}
}

type ListOptions struct {
	MaxResults int
	PageToken  string
}

func (o ListOptions) page() pagination.Request {
	return pagination.Request{Token: o.PageToken, MaxSize: o.MaxResults}
}

func (s *Service) now() time.Time {
	return s.opts.Clock().UTC()
}

// ListShares returns the shares visible to the caller, newest first.
func (s *Service) ListShares(ctx context.Context, opts ListOptions) (*api.SharingListSharesResponse, error) {
	rsp := &api.SharingListSharesResponse{Items: []api.SharingShare{}}
	err := s.db.InTx(ctx, func(ctx context.Context) error {
		if r, ok := common.RecipientFromContext(ctx); ok {
			edges, next, err := s.db.ListAssociations(ctx, uuid.UUID(r.Id), models.AssocCanAccess, models.LabelShare, opts.page())
			if err != nil {
				return err
			}
			for _, e := range edges {
				o, err := s.db.GetObject(ctx, e.ToID)
				if err != nil {
					return err
				}
				rsp.Items = append(rsp.Items, api.SharingShare{Name: o.Leaf(), ID: o.ID.String()})
			}
			rsp.NextPageToken = next
			return nil
		}
		objs, next, err := s.db.ListObjects(ctx, models.LabelShare, nil, opts.page())
		if err != nil {
			return err
		}
		for _, o := range objs {
			rsp.Items = append(rsp.Items, api.SharingShare{Name: o.Leaf(), ID: o.ID.String()})
		}
		rsp.NextPageToken = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rsp, nil
}

// share resolves a share by name and checks that the caller may read it. Shares the
// caller cannot access are reported as missing.
func (s *Service) share(ctx context.Context, name string) (*models.Object, error) {
	missing := ErrShareNotFound.Msg("share '" + name + "' not found")
	o, err := resolver.Fetch(ctx, s.db, resolver.Ident(models.LabelShare, resolver.ByName(name)))
	if err != nil {
		if errors.Is(err, dberror.ErrNotFound) {
			return nil, missing
		}
		return nil, err
	}
	if r, ok := common.RecipientFromContext(ctx); ok {
		edges, _, err := s.db.GetAssociations(ctx, uuid.UUID(r.Id), models.AssocCanAccess, []uuid.UUID{o.ID}, pagination.Request{})
		if err != nil {
			return nil, err
		}
		if len(edges) == 0 {
			log.Ctx(ctx).Info().Str("share", name).Str("recipient", r.Name).Msg("recipient has no access to share")
			return nil, missing
		}
	}
	return o, nil
}

func (s *Service) GetShare(ctx context.Context, name string) (*api.SharingGetShareResponse, error) {
	var rsp *api.SharingGetShareResponse
	err := s.db.InTx(ctx, func(ctx context.Context) error {
		o, err := s.share(ctx, name)
		if err != nil {
			return err
		}
		rsp = &api.SharingGetShareResponse{Share: api.SharingShare{Name: o.Leaf(), ID: o.ID.String()}}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rsp, nil
}

type member struct {
	catalogmanager.ShareMember
	edge   models.Association
	target *models.Object
}

// members returns the data objects of a share, newest edge first.
func (s *Service) members(ctx context.Context, shareID uuid.UUID) ([]member, error) {
	edges, err := db.CollectAll(func(page pagination.Request) ([]models.Association, string, error) {
		return s.db.ListAssociations(ctx, shareID, models.AssocShareContains, "", page)
	})
	if err != nil {
		return nil, err
	}
	out := make([]member, 0, len(edges))
	for i := range edges {
		sm, err := catalogmanager.DecodeShareMember(&edges[i])
		if err != nil {
			return nil, err
		}
		target, err := s.db.GetObject(ctx, edges[i].ToID)
		if err != nil {
			return nil, err
		}
		out = append(out, member{ShareMember: *sm, edge: edges[i], target: target})
	}
	return out, nil
}

// sharedSchema is a schema name exposed by a share. Its position is the newest edge
// that exposes it.
type sharedSchema struct {
	name      string
	id        uuid.UUID
	createdAt time.Time
}

func schemasOf(members []member) []sharedSchema {
	seen := map[string]struct{}{}
	var out []sharedSchema
	for _, m := range members {
		name, _, _ := strings.Cut(m.SharedAs, ".")
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, sharedSchema{name: name, id: m.edge.ID, createdAt: m.edge.CreatedAt})
	}
	return out
}

// sharedTable is a table exposed by a share under schema.name.
type sharedTable struct {
	schema    string
	name      string
	table     *models.Object
	id        uuid.UUID
	createdAt time.Time
}

// tablesOf expands the members of a share into its tables. Directly shared tables
// take their alias from sharedAs; tables of a shared schema appear as
// sharedAs.<table>. A direct member wins when both produce the same alias. The
// result is ordered by id, newest first.
func (s *Service) tablesOf(ctx context.Context, members []member) ([]sharedTable, error) {
	byAlias := map[string]struct{}{}
	var out []sharedTable
	for _, m := range members {
		if m.DataObjectType != api.DataObjectTypeTable {
			continue
		}
		schema, name, _ := strings.Cut(m.SharedAs, ".")
		byAlias[m.SharedAs] = struct{}{}
		out = append(out, sharedTable{schema: schema, name: name, table: m.target, id: m.edge.ID, createdAt: m.edge.CreatedAt})
	}
	for _, m := range members {
		if m.DataObjectType != api.DataObjectTypeSchema {
			continue
		}
		tables, err := db.CollectAll(func(page pagination.Request) ([]models.Object, string, error) {
			return s.db.ListObjects(ctx, models.LabelTable, m.target.Name, page)
		})
		if err != nil {
			return nil, err
		}
		for i := range tables {
			t := &tables[i]
			alias := m.SharedAs + "." + t.Leaf()
			if _, ok := byAlias[alias]; ok {
				continue
			}
			byAlias[alias] = struct{}{}
			out = append(out, sharedTable{schema: m.SharedAs, name: t.Leaf(), table: t, id: t.ID, createdAt: t.CreatedAt})
		}
	}
	sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i].id[:], out[j].id[:]) > 0 })
	return out, nil
}

// paginate pages through items that are already ordered by id, newest first.
func paginate[T any](items []T, key func(T) (time.Time, uuid.UUID), page pagination.Request, maxPageSize int) ([]T, string, error) {
	cursor, err := pagination.DecodeOptional(page.Token)
	if err != nil {
		return nil, "", err
	}
	size := pagination.Limits{MaxPageSize: maxPageSize}.PageSize(page.MaxSize)
	out := make([]T, 0, size)
	for _, it := range items {
		if cursor != nil {
			if _, id := key(it); bytes.Compare(id[:], cursor.ID[:]) >= 0 {
				continue
			}
		}
		out = append(out, it)
		if len(out) == size {
			break
		}
	}
	next, err := pagination.NextToken(out, size, key)
	if err != nil {
		return nil, "", err
	}
	return out, next, nil
}

func schemaKey(s sharedSchema) (time.Time, uuid.UUID) { return s.createdAt, s.id }
func tableKey(t sharedTable) (time.Time, uuid.UUID)   { return t.createdAt, t.id }

func (s *Service) sharingTables(share *models.Object, tables []sharedTable) []api.SharingTable {
	items := make([]api.SharingTable, 0, len(tables))
	for _, t := range tables {
		items = append(items, api.SharingTable{
			Name:    t.name,
			Schema:  t.schema,
			Share:   share.Leaf(),
			ShareID: share.ID.String(),
			ID:      t.table.ID.String(),
		})
	}
	return items
}

func (s *Service) ListSchemas(ctx context.Context, shareName string, opts ListOptions) (*api.SharingListSchemasResponse, error) {
	rsp := &api.SharingListSchemasResponse{Items: []api.SharingSchema{}}
	err := s.db.InTx(ctx, func(ctx context.Context) error {
		share, err := s.share(ctx, shareName)
		if err != nil {
			return err
		}
		members, err := s.members(ctx, share.ID)
		if err != nil {
			return err
		}
		schemas, next, err := paginate(schemasOf(members), schemaKey, opts.page(), s.db.MaxPageSize())
		if err != nil {
			return err
		}
		for _, sc := range schemas {
			rsp.Items = append(rsp.Items, api.SharingSchema{Name: sc.name, Share: share.Leaf()})
		}
		rsp.NextPageToken = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rsp, nil
}

func (s *Service) ListSchemaTables(ctx context.Context, shareName, schemaName string, opts ListOptions) (*api.SharingListTablesResponse, error) {
	rsp := &api.SharingListTablesResponse{Items: []api.SharingTable{}}
	err := s.db.InTx(ctx, func(ctx context.Context) error {
		share, err := s.share(ctx, shareName)
		if err != nil {
			return err
		}
		members, err := s.members(ctx, share.ID)
		if err != nil {
			return err
		}
		found := false
		for _, sc := range schemasOf(members) {
			found = found || sc.name == schemaName
		}
		if !found {
			return ErrSchemaNotFound.Msg("schema '" + schemaName + "' not found in share '" + shareName + "'")
		}
		all, err := s.tablesOf(ctx, members)
		if err != nil {
			return err
		}
		var inSchema []sharedTable
		for _, t := range all {
			if t.schema == schemaName {
				inSchema = append(inSchema, t)
			}
		}
		tables, next, err := paginate(inSchema, tableKey, opts.page(), s.db.MaxPageSize())
		if err != nil {
			return err
		}
		rsp.Items = s.sharingTables(share, tables)
		rsp.NextPageToken = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rsp, nil
}

func (s *Service) ListAllTables(ctx context.Context, shareName string, opts ListOptions) (*api.SharingListTablesResponse, error) {
	rsp := &api.SharingListTablesResponse{Items: []api.SharingTable{}}
	err := s.db.InTx(ctx, func(ctx context.Context) error {
		share, err := s.share(ctx, shareName)
		if err != nil {
			return err
		}
		members, err := s.members(ctx, share.ID)
		if err != nil {
			return err
		}
		all, err := s.tablesOf(ctx, members)
		if err != nil {
			return err
		}
		tables, next, err := paginate(all, tableKey, opts.page(), s.db.MaxPageSize())
		if err != nil {
			return err
		}
		rsp.Items = s.sharingTables(share, tables)
		rsp.NextPageToken = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rsp, nil
}

// table finds the table a share exposes as schema.name.
func (s *Service) table(ctx context.Context, shareName, schemaName, tableName string) (*sharedTable, *catalogmanager.TableProperties, error) {
	share, err := s.share(ctx, shareName)
	if err != nil {
		return nil, nil, err
	}
	members, err := s.members(ctx, share.ID)
	if err != nil {
		return nil, nil, err
	}
	tables, err := s.tablesOf(ctx, members)
	if err != nil {
		return nil, nil, err
	}
	for i := range tables {
		if tables[i].schema == schemaName && tables[i].name == tableName {
			p, err := catalogmanager.DecodeTableProperties(ctx, tables[i].table)
			if err != nil {
				return nil, nil, err
			}
			return &tables[i], p, nil
		}
	}
	return nil, nil, ErrTableNotFound.Msg("table '" + schemaName + "." + tableName + "' not found in share '" + shareName + "'")
}
