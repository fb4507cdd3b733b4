package catalogmanager

import (
	"context"

	"github.com/mugiliam/unitycatalogsrv/internal/db"
	"github.com/mugiliam/unitycatalogsrv/internal/db/models"
	"github.com/mugiliam/unitycatalogsrv/internal/resolver"
	"github.com/mugiliam/unitycatalogsrv/pkg/api"
	"github.com/rs/zerolog/log"
)

type schemaProps struct {
	Comment    string            `json:"comment,omitempty"`
	Properties map[string]string `json:"properties,omitempty"`
	Owner      string            `json:"owner,omitempty"`
}

type SchemaManager struct {
	*base
}

func (m *SchemaManager) toInfo(ctx context.Context, o *models.Object) (*api.SchemaInfo, error) {
	var p schemaProps
	if err := unmarshalProps(ctx, o, &p); err != nil {
		return nil, err
	}
	return &api.SchemaInfo{
		ID:          o.ID.String(),
		Name:        o.Leaf(),
		CatalogName: o.Name[0],
		FullName:    o.FullName(),
		Comment:     p.Comment,
		Properties:  p.Properties,
		Owner:       p.Owner,
		CreatedAt:   millis(o.CreatedAt),
		UpdatedAt:   millis(o.UpdatedAt),
	}, nil
}

func (m *SchemaManager) fetch(ctx context.Context, fullName string) (*models.Object, error) {
	o, err := resolver.Fetch(ctx, m.db, resolver.Ident(models.LabelSchema, resolver.ByFullName(fullName)))
	if err != nil {
		return nil, translate(err, ErrSchemaNotFound, "schema '"+fullName+"' not found")
	}
	return o, nil
}

func (m *SchemaManager) Create(ctx context.Context, req *api.CreateSchemaRequest) (*api.SchemaInfo, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	props, err := marshalProps(ctx, schemaProps{
		Comment:    req.Comment,
		Properties: req.Properties,
		Owner:      req.Owner,
	})
	if err != nil {
		return nil, err
	}
	fullName := resolver.FullName(req.CatalogName, req.Name)
	var info *api.SchemaInfo
	err = m.db.InTx(ctx, func(ctx context.Context) error {
		catalog, err := resolver.Fetch(ctx, m.db, resolver.Catalog(req.CatalogName))
		if err != nil {
			return translate(err, ErrCatalogNotFound, "catalog '"+req.CatalogName+"' not found")
		}
		o, err := m.db.AddObject(ctx, models.LabelSchema, []string{req.CatalogName, req.Name}, props)
		if err != nil {
			return conflict(err, "schema '"+fullName+"' already exists")
		}
		if _, err := m.db.AddAssociation(ctx, catalog.ID, models.AssocParentOf, o.ID, nil); err != nil {
			log.Ctx(ctx).Error().Err(err).Str("schema", fullName).Msg("failed to link schema to catalog")
			return err
		}
		info, err = m.toInfo(ctx, o)
		return err
	})
	if err != nil {
		return nil, err
	}
	log.Ctx(ctx).Info().Str("schema", fullName).Msg("schema created")
	return info, nil
}

func (m *SchemaManager) Get(ctx context.Context, fullName string) (*api.SchemaInfo, error) {
	var info *api.SchemaInfo
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

// List returns the schemas of a catalog, newest first.
func (m *SchemaManager) List(ctx context.Context, catalogName string, opts ListOptions) (*api.ListSchemasResponse, error) {
	prefix, err := resolver.ChildPrefix(models.LabelSchema, []string{catalogName})
	if err != nil {
		return nil, err
	}
	rsp := &api.ListSchemasResponse{Schemas: []api.SchemaInfo{}}
	err = m.db.InTx(ctx, func(ctx context.Context) error {
		if _, err := resolver.Fetch(ctx, m.db, resolver.Catalog(catalogName)); err != nil {
			return translate(err, ErrCatalogNotFound, "catalog '"+catalogName+"' not found")
		}
		objs, next, err := m.db.ListObjects(ctx, models.LabelSchema, prefix, opts.page())
		if err != nil {
			return translate(err, nil, "")
		}
		for i := range objs {
			info, err := m.toInfo(ctx, &objs[i])
			if err != nil {
				return err
			}
			rsp.Schemas = append(rsp.Schemas, *info)
		}
		rsp.NextPageToken = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rsp, nil
}

func (m *SchemaManager) Update(ctx context.Context, fullName string, req *api.UpdateSchemaRequest) (*api.SchemaInfo, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	var info *api.SchemaInfo
	err := m.db.InTx(ctx, func(ctx context.Context) error {
		o, err := m.fetch(ctx, fullName)
		if err != nil {
			return err
		}
		var p schemaProps
		if err := unmarshalProps(ctx, o, &p); err != nil {
			return err
		}
		p.Comment = req.Comment.Apply(p.Comment)
		p.Owner = req.Owner.Apply(p.Owner)
		p.Properties = req.Properties.Apply(p.Properties)
		props, err := marshalProps(ctx, p)
		if err != nil {
			return err
		}
		upd := db.ObjectUpdate{Properties: props}
		if req.NewName != "" && req.NewName != o.Leaf() {
			upd.Name = withLeaf(o.Name, req.NewName)
		}
		o, err = m.db.UpdateObject(ctx, o.ID, upd)
		if err != nil {
			return conflict(err, "schema '"+resolver.FullName(upd.Name...)+"' already exists")
		}
		if upd.Name != nil {
			if err := m.renameTree(ctx, o.ID, upd.Name); err != nil {
				return conflict(err, "rename of schema '"+fullName+"' collides with an existing object")
			}
			log.Ctx(ctx).Info().Str("schema", fullName).Str("new_name", o.FullName()).Msg("schema renamed")
		}
		info, err = m.toInfo(ctx, o)
		return err
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}

// Delete removes the schema. Tables and volumes in it require force.
func (m *SchemaManager) Delete(ctx context.Context, fullName string, force bool) error {
	err := m.db.InTx(ctx, func(ctx context.Context) error {
		o, err := m.fetch(ctx, fullName)
		if err != nil {
			return err
		}
		if !force {
			nonEmpty, err := m.hasChildren(ctx, o.ID, "")
			if err != nil {
				return err
			}
			if nonEmpty {
				return ErrForceRequired.Msg("schema '" + fullName + "' is not empty; use force to delete")
			}
		}
		return m.deleteTree(ctx, o.ID)
	})
	if err != nil {
		return err
	}
	log.Ctx(ctx).Info().Str("schema", fullName).Bool("force", force).Msg("schema deleted")
	return nil
}
