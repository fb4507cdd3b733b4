package catalogmanager

import (
	"context"

	"github.com/google/uuid"
	"github.com/mugiliam/unitycatalogsrv/internal/db"
	"github.com/mugiliam/unitycatalogsrv/internal/db/models"
	"github.com/mugiliam/unitycatalogsrv/internal/resolver"
	"github.com/mugiliam/unitycatalogsrv/pkg/api"
	"github.com/rs/zerolog/log"
)

type externalLocationProps struct {
	URL      string `json:"url"`
	ReadOnly bool   `json:"readOnly,omitempty"`
	Comment  string `json:"comment,omitempty"`
	Owner    string `json:"owner,omitempty"`
}

type ExternalLocationManager struct {
	*base
}

// credentialOf returns the credential the location depends on, nil when unbound.
func (m *ExternalLocationManager) credentialOf(ctx context.Context, id uuid.UUID) (*models.Object, error) {
	edges, err := m.children(ctx, id, models.AssocDependsOn, models.LabelCredential)
	if err != nil || len(edges) == 0 {
		return nil, err
	}
	return m.db.GetObject(ctx, edges[0].ToID)
}

func (m *ExternalLocationManager) toInfo(ctx context.Context, o *models.Object) (*api.ExternalLocationInfo, error) {
	var p externalLocationProps
	if err := unmarshalProps(ctx, o, &p); err != nil {
		return nil, err
	}
	info := &api.ExternalLocationInfo{
		ID:        o.ID.String(),
		Name:      o.Leaf(),
		URL:       p.URL,
		ReadOnly:  p.ReadOnly,
		Comment:   p.Comment,
		Owner:     p.Owner,
		CreatedAt: millis(o.CreatedAt),
		UpdatedAt: millis(o.UpdatedAt),
	}
	cred, err := m.credentialOf(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	if cred != nil {
		info.CredentialName = cred.Leaf()
		info.CredentialID = cred.ID.String()
	}
	return info, nil
}

func (m *ExternalLocationManager) fetch(ctx context.Context, name string) (*models.Object, error) {
	o, err := resolver.Fetch(ctx, m.db, resolver.Ident(models.LabelExternalLocation, resolver.ByName(name)))
	if err != nil {
		return nil, translate(err, ErrExternalLocationNotFound, "external location '"+name+"' not found")
	}
	return o, nil
}

// storageCredential loads a credential and checks it may back a storage location.
func (m *ExternalLocationManager) storageCredential(ctx context.Context, name string) (*models.Object, error) {
	cred, err := m.fetchCredential(ctx, name)
	if err != nil {
		return nil, err
	}
	var p credentialProps
	if err := unmarshalProps(ctx, cred, &p); err != nil {
		return nil, err
	}
	if p.Purpose != api.CredentialPurposeStorage {
		return nil, ErrCredentialPurpose.Msg("credential '" + name + "' has purpose " + p.Purpose + "; external locations need a STORAGE credential")
	}
	return cred, nil
}

func (m *ExternalLocationManager) Create(ctx context.Context, req *api.CreateExternalLocationRequest) (*api.ExternalLocationInfo, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	props, err := marshalProps(ctx, externalLocationProps{
		URL:      req.URL,
		ReadOnly: req.ReadOnly,
		Comment:  req.Comment,
		Owner:    req.Owner,
	})
	if err != nil {
		return nil, err
	}
	var info *api.ExternalLocationInfo
	err = m.db.InTx(ctx, func(ctx context.Context) error {
		cred, err := m.storageCredential(ctx, req.CredentialName)
		if err != nil {
			return err
		}
		o, err := m.db.AddObject(ctx, models.LabelExternalLocation, []string{req.Name}, props)
		if err != nil {
			return conflict(err, "external location '"+req.Name+"' already exists")
		}
		if _, err := m.db.AddAssociation(ctx, o.ID, models.AssocDependsOn, cred.ID, nil); err != nil {
			log.Ctx(ctx).Error().Err(err).Str("external_location", req.Name).Msg("failed to bind credential")
			return err
		}
		info, err = m.toInfo(ctx, o)
		return err
	})
	if err != nil {
		return nil, err
	}
	log.Ctx(ctx).Info().Str("external_location", req.Name).Str("credential", req.CredentialName).Msg("external location created")
	return info, nil
}

func (m *ExternalLocationManager) Get(ctx context.Context, name string) (*api.ExternalLocationInfo, error) {
	var info *api.ExternalLocationInfo
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

func (m *ExternalLocationManager) List(ctx context.Context, opts ListOptions) (*api.ListExternalLocationsResponse, error) {
	rsp := &api.ListExternalLocationsResponse{ExternalLocations: []api.ExternalLocationInfo{}}
	err := m.db.InTx(ctx, func(ctx context.Context) error {
		objs, next, err := m.db.ListObjects(ctx, models.LabelExternalLocation, nil, opts.page())
		if err != nil {
			return translate(err, nil, "")
		}
		for i := range objs {
			info, err := m.toInfo(ctx, &objs[i])
			if err != nil {
				return err
			}
			rsp.ExternalLocations = append(rsp.ExternalLocations, *info)
		}
		rsp.NextPageToken = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rsp, nil
}

// Update applies the fields present in req. A new credential replaces the
// depends_on edge to the old one.
func (m *ExternalLocationManager) Update(ctx context.Context, name string, req *api.UpdateExternalLocationRequest) (*api.ExternalLocationInfo, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	var info *api.ExternalLocationInfo
	err := m.db.InTx(ctx, func(ctx context.Context) error {
		o, err := m.fetch(ctx, name)
		if err != nil {
			return err
		}
		var p externalLocationProps
		if err := unmarshalProps(ctx, o, &p); err != nil {
			return err
		}
		if req.URL != "" {
			p.URL = req.URL
		}
		if req.ReadOnly != nil {
			p.ReadOnly = *req.ReadOnly
		}
		p.Comment = req.Comment.Apply(p.Comment)
		p.Owner = req.Owner.Apply(p.Owner)

		if req.CredentialName != "" {
			cred, err := m.storageCredential(ctx, req.CredentialName)
			if err != nil {
				return err
			}
			old, err := m.credentialOf(ctx, o.ID)
			if err != nil {
				return err
			}
			if old == nil || old.ID != cred.ID {
				if old != nil {
					if err := m.db.DeleteAssociation(ctx, o.ID, models.AssocDependsOn, old.ID); err != nil {
						return err
					}
				}
				if _, err := m.db.AddAssociation(ctx, o.ID, models.AssocDependsOn, cred.ID, nil); err != nil {
					return err
				}
			}
		}

		props, err := marshalProps(ctx, p)
		if err != nil {
			return err
		}
		upd := db.ObjectUpdate{Properties: props}
		if req.NewName != "" && req.NewName != name {
			upd.Name = []string{req.NewName}
		}
		if o, err = m.db.UpdateObject(ctx, o.ID, upd); err != nil {
			return conflict(err, "external location '"+req.NewName+"' already exists")
		}
		info, err = m.toInfo(ctx, o)
		return err
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}

func (m *ExternalLocationManager) Delete(ctx context.Context, name string) error {
	err := m.db.InTx(ctx, func(ctx context.Context) error {
		o, err := m.fetch(ctx, name)
		if err != nil {
			return err
		}
		return m.db.DeleteObject(ctx, o.ID)
	})
	if err != nil {
		return err
	}
	log.Ctx(ctx).Info().Str("external_location", name).Msg("external location deleted")
	return nil
}
