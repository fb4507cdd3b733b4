package catalogmanager

import (
	"context"

	"github.com/mugiliam/unitycatalogsrv/internal/db"
	"github.com/mugiliam/unitycatalogsrv/internal/db/models"
	"github.com/mugiliam/unitycatalogsrv/internal/resolver"
	"github.com/mugiliam/unitycatalogsrv/pkg/api"
	"github.com/rs/zerolog/log"
)

type catalogProps struct {
	Comment     string            `json:"comment,omitempty"`
	Properties  map[string]string `json:"properties,omitempty"`
	Owner       string            `json:"owner,omitempty"`
	StorageRoot string            `json:"storageRoot,omitempty"`
}

type CatalogManager struct {
	*base
}

func (m *CatalogManager) toInfo(ctx context.Context, o *models.Object) (*api.CatalogInfo, error) {
	var p catalogProps
	if err := unmarshalProps(ctx, o, &p); err != nil {
		return nil, err
	}
	return &api.CatalogInfo{
		ID:          o.ID.String(),
		Name:        o.Leaf(),
		Comment:     p.Comment,
		Properties:  p.Properties,
		Owner:       p.Owner,
		StorageRoot: p.StorageRoot,
		CreatedAt:   millis(o.CreatedAt),
		UpdatedAt:   millis(o.UpdatedAt),
	}, nil
}

func (m *CatalogManager) fetch(ctx context.Context, name string) (*models.Object, error) {
	o, err := resolver.Fetch(ctx, m.db, resolver.Catalog(name))
	if err != nil {
		return nil, translate(err, ErrCatalogNotFound, "catalog '"+name+"' not found")
	}
	return o, nil
}

func (m *CatalogManager) Create(ctx context.Context, req *api.CreateCatalogRequest) (*api.CatalogInfo, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	props, err := marshalProps(ctx, catalogProps{
		Comment:     req.Comment,
		Properties:  req.Properties,
		Owner:       req.Owner,
		StorageRoot: req.StorageRoot,
	})
	if err != nil {
		return nil, err
	}
	var info *api.CatalogInfo
	err = m.db.InTx(ctx, func(ctx context.Context) error {
		o, err := m.db.AddObject(ctx, models.LabelCatalog, []string{req.Name}, props)
		if err != nil {
			return conflict(err, "catalog '"+req.Name+"' already exists")
		}
		info, err = m.toInfo(ctx, o)
		return err
	})
	if err != nil {
		return nil, err
	}
	log.Ctx(ctx).Info().Str("catalog", req.Name).Msg("catalog created")
	return info, nil
}

func (m *CatalogManager) Get(ctx context.Context, name string) (*api.CatalogInfo, error) {
	var info *api.CatalogInfo
	err := m.db.InTx(ctx, func(ctx context.Context) error {
		o, err := m.fetch(ctx, name)
		if err != nil {
			return err
		}
		info, err = m.toInfo(ctx, o)
		return err
	})
	return info, err
}

func (m *CatalogManager) List(ctx context.Context, opts ListOptions) (*api.ListCatalogsResponse, error) {
	rsp := &api.ListCatalogsResponse{Catalogs: []api.CatalogInfo{}}
	err := m.db.InTx(ctx, func(ctx context.Context) error {
		objs, next, err := m.db.ListObjects(ctx, models.LabelCatalog, nil, opts.page())
		if err != nil {
			return translate(err, nil, "")
		}
		for i := range objs {
			info, err := m.toInfo(ctx, &objs[i])
			if err != nil {
				return err
			}
			rsp.Catalogs = append(rsp.Catalogs, *info)
		}
		rsp.NextPageToken = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rsp, nil
}

// Update applies the fields present in req. A rename moves every schema, table
// and volume of the catalog to the new name.
func (m *CatalogManager) Update(ctx context.Context, name string, req *api.UpdateCatalogRequest) (*api.CatalogInfo, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	var info *api.CatalogInfo
	err := m.db.InTx(ctx, func(ctx context.Context) error {
		o, err := m.fetch(ctx, name)
		if err != nil {
			return err
		}
		var p catalogProps
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
		if req.NewName != "" && req.NewName != name {
			upd.Name = []string{req.NewName}
		}
		o, err = m.db.UpdateObject(ctx, o.ID, upd)
		if err != nil {
			return conflict(err, "catalog '"+req.NewName+"' already exists")
		}
		if upd.Name != nil {
			if err := m.renameTree(ctx, o.ID, upd.Name); err != nil {
				return conflict(err, "rename of catalog '"+name+"' collides with an existing object")
			}
			log.Ctx(ctx).Info().Str("catalog", name).Str("new_name", req.NewName).Msg("catalog renamed")
		}
		info, err = m.toInfo(ctx, o)
		return err
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}

// Delete removes the catalog. A catalog that still has schemas is only removed
// with force, which deletes the schemas and their contents too.
func (m *CatalogManager) Delete(ctx context.Context, name string, force bool) error {
	err := m.db.InTx(ctx, func(ctx context.Context) error {
		o, err := m.fetch(ctx, name)
		if err != nil {
			return err
		}
		if !force {
			nonEmpty, err := m.hasChildren(ctx, o.ID, models.LabelSchema)
			if err != nil {
				return err
			}
			if nonEmpty {
				return ErrForceRequired.Msg("catalog '" + name + "' is not empty; use force to delete")
			}
		}
		return m.deleteTree(ctx, o.ID)
	})
	if err != nil {
		return err
	}
	log.Ctx(ctx).Info().Str("catalog", name).Bool("force", force).Msg("catalog deleted")
	return nil
}
