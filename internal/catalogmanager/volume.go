package catalogmanager

import (
	"context"

	"github.com/mugiliam/unitycatalogsrv/internal/db"
	"github.com/mugiliam/unitycatalogsrv/internal/db/models"
	"github.com/mugiliam/unitycatalogsrv/internal/resolver"
	"github.com/mugiliam/unitycatalogsrv/pkg/api"
	"github.com/rs/zerolog/log"
)

type volumeProps struct {
	VolumeType      string `json:"volumeType"`
	StorageLocation string `json:"storageLocation,omitempty"`
	Comment         string `json:"comment,omitempty"`
	Owner           string `json:"owner,omitempty"`
}

type VolumeManager struct {
	*base
}

func (m *VolumeManager) toInfo(ctx context.Context, o *models.Object) (*api.VolumeInfo, error) {
	var p volumeProps
	if err := unmarshalProps(ctx, o, &p); err != nil {
		return nil, err
	}
	return &api.VolumeInfo{
		ID:              o.ID.String(),
		Name:            o.Name[2],
		CatalogName:     o.Name[0],
		SchemaName:      o.Name[1],
		FullName:        o.FullName(),
		VolumeType:      p.VolumeType,
		StorageLocation: p.StorageLocation,
		Comment:         p.Comment,
		Owner:           p.Owner,
		CreatedAt:       millis(o.CreatedAt),
		UpdatedAt:       millis(o.UpdatedAt),
	}, nil
}

func (m *VolumeManager) fetch(ctx context.Context, fullName string) (*models.Object, error) {
	o, err := resolver.Fetch(ctx, m.db, resolver.Ident(models.LabelVolume, resolver.ByFullName(fullName)))
	if err != nil {
		return nil, translate(err, ErrVolumeNotFound, "volume '"+fullName+"' not found")
	}
	return o, nil
}

func (m *VolumeManager) Create(ctx context.Context, req *api.CreateVolumeRequest) (*api.VolumeInfo, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	name := []string{req.CatalogName, req.SchemaName, req.Name}
	fullName := resolver.FullName(name...)
	var info *api.VolumeInfo
	err := m.db.InTx(ctx, func(ctx context.Context) error {
		schema, err := resolver.Fetch(ctx, m.db, resolver.Schema(req.CatalogName, req.SchemaName))
		if err != nil {
			return translate(err, ErrSchemaNotFound, "schema '"+resolver.FullName(req.CatalogName, req.SchemaName)+"' not found")
		}
		p := volumeProps{
			VolumeType:      req.VolumeType,
			StorageLocation: req.StorageLocation,
			Comment:         req.Comment,
			Owner:           req.Owner,
		}
		if p.StorageLocation == "" {
			if p.StorageLocation, err = m.managedLocation(ctx, req.CatalogName, req.SchemaName, "volumes", req.Name); err != nil {
				return err
			}
		}
		props, err := marshalProps(ctx, p)
		if err != nil {
			return err
		}
		o, err := m.db.AddObject(ctx, models.LabelVolume, name, props)
		if err != nil {
			return conflict(err, "volume '"+fullName+"' already exists")
		}
		if _, err := m.db.AddAssociation(ctx, schema.ID, models.AssocParentOf, o.ID, nil); err != nil {
			log.Ctx(ctx).Error().Err(err).Str("volume", fullName).Msg("failed to link volume to schema")
			return err
		}
		info, err = m.toInfo(ctx, o)
		return err
	})
	if err != nil {
		return nil, err
	}
	log.Ctx(ctx).Info().Str("volume", fullName).Msg("volume created")
	return info, nil
}

func (m *VolumeManager) Get(ctx context.Context, fullName string) (*api.VolumeInfo, error) {
	var info *api.VolumeInfo
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

func (m *VolumeManager) List(ctx context.Context, catalogName, schemaName string, opts ListOptions) (*api.ListVolumesResponse, error) {
	prefix, err := resolver.ChildPrefix(models.LabelVolume, []string{catalogName, schemaName})
	if err != nil {
		return nil, err
	}
	rsp := &api.ListVolumesResponse{Volumes: []api.VolumeInfo{}}
	err = m.db.InTx(ctx, func(ctx context.Context) error {
		if _, err := resolver.Fetch(ctx, m.db, resolver.Schema(catalogName, schemaName)); err != nil {
			return translate(err, ErrSchemaNotFound, "schema '"+resolver.FullName(catalogName, schemaName)+"' not found")
		}
		objs, next, err := m.db.ListObjects(ctx, models.LabelVolume, prefix, opts.page())
		if err != nil {
			return translate(err, nil, "")
		}
		for i := range objs {
			info, err := m.toInfo(ctx, &objs[i])
			if err != nil {
				return err
			}
			rsp.Volumes = append(rsp.Volumes, *info)
		}
		rsp.NextPageToken = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rsp, nil
}

func (m *VolumeManager) Update(ctx context.Context, fullName string, req *api.UpdateVolumeRequest) (*api.VolumeInfo, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	var info *api.VolumeInfo
	err := m.db.InTx(ctx, func(ctx context.Context) error {
		o, err := m.fetch(ctx, fullName)
		if err != nil {
			return err
		}
		var p volumeProps
		if err := unmarshalProps(ctx, o, &p); err != nil {
			return err
		}
		p.Comment = req.Comment.Apply(p.Comment)
		p.Owner = req.Owner.Apply(p.Owner)
		props, err := marshalProps(ctx, p)
		if err != nil {
			return err
		}
		upd := db.ObjectUpdate{Properties: props}
		if req.NewName != "" && req.NewName != o.Leaf() {
			upd.Name = withLeaf(o.Name, req.NewName)
		}
		if o, err = m.db.UpdateObject(ctx, o.ID, upd); err != nil {
			return conflict(err, "volume '"+resolver.FullName(upd.Name...)+"' already exists")
		}
		info, err = m.toInfo(ctx, o)
		return err
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}

func (m *VolumeManager) Delete(ctx context.Context, fullName string) error {
	err := m.db.InTx(ctx, func(ctx context.Context) error {
		o, err := m.fetch(ctx, fullName)
		if err != nil {
			return err
		}
		return m.db.DeleteObject(ctx, o.ID)
	})
	if err != nil {
		return err
	}
	log.Ctx(ctx).Info().Str("volume", fullName).Msg("volume deleted")
	return nil
}
