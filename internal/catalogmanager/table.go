package catalogmanager

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/mugiliam/unitycatalogsrv/internal/db"
	"github.com/mugiliam/unitycatalogsrv/internal/db/dberror"
	"github.com/mugiliam/unitycatalogsrv/internal/db/models"
	"github.com/mugiliam/unitycatalogsrv/internal/resolver"
	"github.com/mugiliam/unitycatalogsrv/pkg/api"
	"github.com/rs/zerolog/log"
)

type TableManager struct {
	*base
}

func (m *TableManager) toInfo(ctx context.Context, o *models.Object) (*api.TableInfo, error) {
	p, err := DecodeTableProperties(ctx, o)
	if err != nil {
		return nil, err
	}
	columns := p.Columns
	if columns == nil {
		columns = []api.ColumnInfo{}
	}
	return &api.TableInfo{
		ID:               o.ID.String(),
		Name:             o.Name[2],
		CatalogName:      o.Name[0],
		SchemaName:       o.Name[1],
		FullName:         o.FullName(),
		TableType:        p.TableType,
		DataSourceFormat: p.DataSourceFormat,
		Columns:          columns,
		StorageLocation:  p.StorageLocation,
		Comment:          p.Comment,
		Properties:       p.Properties,
		Owner:            p.Owner,
		Version:          p.CurrentVersion(),
		CreatedAt:        millis(o.CreatedAt),
		UpdatedAt:        millis(o.UpdatedAt),
	}, nil
}

func (m *TableManager) fetch(ctx context.Context, fullName string) (*models.Object, error) {
	o, err := resolver.Fetch(ctx, m.db, resolver.Ident(models.LabelTable, resolver.ByFullName(fullName)))
	if err != nil {
		return nil, translate(err, ErrTableNotFound, "table '"+fullName+"' not found")
	}
	return o, nil
}

func (m *TableManager) fetchSchema(ctx context.Context, catalogName, schemaName string) (*models.Object, error) {
	o, err := resolver.Fetch(ctx, m.db, resolver.Schema(catalogName, schemaName))
	if err != nil {
		return nil, translate(err, ErrSchemaNotFound, "schema '"+resolver.FullName(catalogName, schemaName)+"' not found")
	}
	return o, nil
}

// managedLocation places a managed table or volume under the storage root of its catalog.
func (b *base) managedLocation(ctx context.Context, catalogName string, leaf ...string) (string, error) {
	catalog, err := resolver.Fetch(ctx, b.db, resolver.Catalog(catalogName))
	if err != nil {
		return "", translate(err, ErrCatalogNotFound, "catalog '"+catalogName+"' not found")
	}
	var p catalogProps
	if err := unmarshalProps(ctx, catalog, &p); err != nil {
		return "", err
	}
	if p.StorageRoot == "" {
		return "", nil
	}
	return strings.TrimRight(p.StorageRoot, "/") + "/" + strings.Join(leaf, "/"), nil
}

func (m *TableManager) Create(ctx context.Context, req *api.CreateTableRequest) (*api.TableInfo, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	name := []string{req.CatalogName, req.SchemaName, req.Name}
	fullName := resolver.FullName(name...)
	var info *api.TableInfo
	err := m.db.InTx(ctx, func(ctx context.Context) error {
		schema, err := m.fetchSchema(ctx, req.CatalogName, req.SchemaName)
		if err != nil {
			return err
		}
		p := TableProperties{
			TableType:        req.TableType,
			DataSourceFormat: req.DataSourceFormat,
			Columns:          req.Columns,
			StorageLocation:  req.StorageLocation,
			Comment:          req.Comment,
			Properties:       req.Properties,
			Owner:            req.Owner,
		}
		if p.StorageLocation == "" {
			if p.StorageLocation, err = m.managedLocation(ctx, req.CatalogName, req.SchemaName, "tables", req.Name); err != nil {
				return err
			}
		}
		if _, err := p.commit(m.now(), nil, nil); err != nil {
			return err
		}
		props, err := marshalProps(ctx, p)
		if err != nil {
			return err
		}
		o, err := m.db.AddObject(ctx, models.LabelTable, name, props)
		if err != nil {
			return conflict(err, "table '"+fullName+"' already exists")
		}
		if _, err := m.db.AddAssociation(ctx, schema.ID, models.AssocParentOf, o.ID, nil); err != nil {
			log.Ctx(ctx).Error().Err(err).Str("table", fullName).Msg("failed to link table to schema")
			return err
		}
		info, err = m.toInfo(ctx, o)
		return err
	})
	if err != nil {
		return nil, err
	}
	log.Ctx(ctx).Info().Str("table", fullName).Msg("table created")
	return info, nil
}

func (m *TableManager) Get(ctx context.Context, fullName string) (*api.TableInfo, error) {
	var info *api.TableInfo
	err := m.db.InTx(ctx, func(ctx context.Context) error {
		o, err := m.fetch(ctx, fullName)
		if err != nil {
			return err
		}
		info, err = m.toInfo(ctx, o)
		return err
	})
	return info, err
}

// Exists reports whether the table exists. A malformed name is an error.
func (m *TableManager) Exists(ctx context.Context, fullName string) (bool, error) {
	_, err := m.Get(ctx, fullName)
	if errors.Is(err, ErrTableNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (m *TableManager) List(ctx context.Context, catalogName, schemaName string, opts ListOptions) (*api.ListTablesResponse, error) {
	prefix, err := resolver.ChildPrefix(models.LabelTable, []string{catalogName, schemaName})
	if err != nil {
		return nil, err
	}
	rsp := &api.ListTablesResponse{Tables: []api.TableInfo{}}
	err = m.db.InTx(ctx, func(ctx context.Context) error {
		if _, err := m.fetchSchema(ctx, catalogName, schemaName); err != nil {
			return err
		}
		objs, next, err := m.db.ListObjects(ctx, models.LabelTable, prefix, opts.page())
		if err != nil {
			return translate(err, nil, "")
		}
		for i := range objs {
			info, err := m.toInfo(ctx, &objs[i])
			if err != nil {
				return err
			}
			rsp.Tables = append(rsp.Tables, *info)
		}
		rsp.NextPageToken = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rsp, nil
}

// likePattern compiles a SQL LIKE pattern ("%" any run, "_" any character).
// An empty pattern matches everything.
func likePattern(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, nil
	}
	var sb strings.Builder
	sb.WriteString("^")
	for _, r := range pattern {
		switch r {
		case '%':
			sb.WriteString(".*")
		case '_':
			sb.WriteString(".")
		default:
			sb.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	sb.WriteString("$")
	re, err := regexp.Compile(sb.String())
	if err != nil {
		return nil, ErrInvalidRequest.MsgErr("invalid name pattern '"+pattern+"'", err)
	}
	return re, nil
}

// ListSummaries lists the tables of a catalog whose schema and table names match
// the given LIKE patterns.
func (m *TableManager) ListSummaries(ctx context.Context, catalogName, schemaPattern, tablePattern string, opts ListOptions) (*api.ListTableSummariesResponse, error) {
	prefix, err := resolver.ChildPrefix(models.LabelSchema, []string{catalogName})
	if err != nil {
		return nil, err
	}
	schemaRe, err := likePattern(schemaPattern)
	if err != nil {
		return nil, err
	}
	tableRe, err := likePattern(tablePattern)
	if err != nil {
		return nil, err
	}
	rsp := &api.ListTableSummariesResponse{Tables: []api.TableSummary{}}
	err = m.db.InTx(ctx, func(ctx context.Context) error {
		if _, err := resolver.Fetch(ctx, m.db, resolver.Catalog(catalogName)); err != nil {
			return translate(err, ErrCatalogNotFound, "catalog '"+catalogName+"' not found")
		}
		objs, next, err := m.scanFiltered(ctx, models.LabelTable, prefix, opts, func(o *models.Object) bool {
			return (schemaRe == nil || schemaRe.MatchString(o.Name[1])) &&
				(tableRe == nil || tableRe.MatchString(o.Name[2]))
		})
		if err != nil {
			return err
		}
		for i := range objs {
			p, err := DecodeTableProperties(ctx, &objs[i])
			if err != nil {
				return err
			}
			rsp.Tables = append(rsp.Tables, api.TableSummary{FullName: objs[i].FullName(), TableType: p.TableType})
		}
		rsp.NextPageToken = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rsp, nil
}

func (m *TableManager) Update(ctx context.Context, fullName string, req *api.UpdateTableRequest) (*api.TableInfo, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	var info *api.TableInfo
	err := m.db.InTx(ctx, func(ctx context.Context) error {
		o, err := m.fetch(ctx, fullName)
		if err != nil {
			return err
		}
		p, err := DecodeTableProperties(ctx, o)
		if err != nil {
			return err
		}
		p.Comment = req.Comment.Apply(p.Comment)
		p.Owner = req.Owner.Apply(p.Owner)
		p.Properties = req.Properties.Apply(p.Properties)
		props, err := marshalProps(ctx, p)
		if err != nil {
			return err
		}
		if o, err = m.db.UpdateObject(ctx, o.ID, db.ObjectUpdate{Properties: props}); err != nil {
			return translate(err, ErrTableNotFound, "table '"+fullName+"' not found")
		}
		info, err = m.toInfo(ctx, o)
		return err
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}

// Commit records a new version of the table.
func (m *TableManager) Commit(ctx context.Context, fullName string, req *api.CommitTableRequest) (*api.CommitTableResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	var rsp *api.CommitTableResponse
	err := m.db.InTx(ctx, func(ctx context.Context) error {
		o, err := m.fetch(ctx, fullName)
		if err != nil {
			return err
		}
		p, err := DecodeTableProperties(ctx, o)
		if err != nil {
			return err
		}
		tv, err := p.commit(m.now(), req.Add, req.Remove)
		if err != nil {
			return err
		}
		rsp = &api.CommitTableResponse{Version: tv.Version, Timestamp: tv.Timestamp}
		props, err := marshalProps(ctx, p)
		if err != nil {
			return err
		}
		_, err = m.db.UpdateObject(ctx, o.ID, db.ObjectUpdate{Properties: props})
		return err
	})
	if err != nil {
		return nil, err
	}
	log.Ctx(ctx).Info().Str("table", fullName).Int64("version", rsp.Version).Msg("table version committed")
	return rsp, nil
}

// Delete removes the table. Its share memberships go with it.
func (m *TableManager) Delete(ctx context.Context, fullName string) error {
	err := m.db.InTx(ctx, func(ctx context.Context) error {
		o, err := m.fetch(ctx, fullName)
		if err != nil {
			return err
		}
		err = m.db.DeleteObject(ctx, o.ID)
		if errors.Is(err, dberror.ErrNotFound) {
			return ErrTableNotFound.Msg("table '" + fullName + "' not found")
		}
		return err
	})
	if err != nil {
		return err
	}
	log.Ctx(ctx).Info().Str("table", fullName).Msg("table deleted")
	return nil
}
