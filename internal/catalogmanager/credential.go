package catalogmanager

import (
	"context"

	"github.com/mugiliam/unitycatalogsrv/internal/db"
	"github.com/mugiliam/unitycatalogsrv/internal/db/models"
	"github.com/mugiliam/unitycatalogsrv/internal/resolver"
	"github.com/mugiliam/unitycatalogsrv/pkg/api"
	"github.com/rs/zerolog/log"
)

type credentialProps struct {
	Purpose  string `json:"purpose"`
	ReadOnly bool   `json:"readOnly,omitempty"`
	Comment  string `json:"comment,omitempty"`
	Owner    string `json:"owner,omitempty"`
}

type CredentialManager struct {
	*base
}

func (m *CredentialManager) toInfo(ctx context.Context, o *models.Object) (*api.CredentialInfo, error) {
	var p credentialProps
	if err := unmarshalProps(ctx, o, &p); err != nil {
		return nil, err
	}
	return &api.CredentialInfo{
		ID:        o.ID.String(),
		Name:      o.Leaf(),
		Purpose:   p.Purpose,
		ReadOnly:  p.ReadOnly,
		Comment:   p.Comment,
		Owner:     p.Owner,
		CreatedAt: millis(o.CreatedAt),
		UpdatedAt: millis(o.UpdatedAt),
	}, nil
}

func (b *base) fetchCredential(ctx context.Context, name string) (*models.Object, error) {
	o, err := resolver.Fetch(ctx, b.db, resolver.Ident(models.LabelCredential, resolver.ByName(name)))
	if err != nil {
		return nil, translate(err, ErrCredentialNotFound, "credential '"+name+"' not found")
	}
	return o, nil
}

func (m *CredentialManager) Create(ctx context.Context, req *api.CreateCredentialRequest) (*api.CredentialInfo, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	props, err := marshalProps(ctx, credentialProps{
		Purpose:  req.Purpose,
		ReadOnly: req.ReadOnly,
		Comment:  req.Comment,
		Owner:    req.Owner,
	})
	if err != nil {
		return nil, err
	}
	var info *api.CredentialInfo
	err = m.db.InTx(ctx, func(ctx context.Context) error {
		o, err := m.db.AddObject(ctx, models.LabelCredential, []string{req.Name}, props)
		if err != nil {
			return conflict(err, "credential '"+req.Name+"' already exists")
		}
		if _, err := m.putSecret(ctx, o.ID, req.Secret()); err != nil {
			return err
		}
		info, err = m.toInfo(ctx, o)
		return err
	})
	if err != nil {
		return nil, err
	}
	log.Ctx(ctx).Info().Str("credential", req.Name).Str("purpose", req.Purpose).Msg("credential created")
	return info, nil
}

func (m *CredentialManager) Get(ctx context.Context, name string) (*api.CredentialInfo, error) {
	var info *api.CredentialInfo
	err := m.db.InTx(ctx, func(ctx context.Context) error {
		o, err := m.fetchCredential(ctx, name)
		if err != nil {
			return err
		}
		info, err = m.toInfo(ctx, o)
		return err
	})
	return info, err
}

// Secret returns the newest version of the credential's secret material and its
// version number. It is for server-side use and is not exposed over the API.
func (m *CredentialManager) Secret(ctx context.Context, name string) (*api.CredentialSecret, int64, error) {
	var (
		secret  *api.CredentialSecret
		version int64
	)
	err := m.db.InTx(ctx, func(ctx context.Context) error {
		o, err := m.fetchCredential(ctx, name)
		if err != nil {
			return err
		}
		secret, version, err = m.latestSecret(ctx, o.ID)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return secret, version, nil
}

// List returns credentials, restricted to one purpose when purpose is not empty.
func (m *CredentialManager) List(ctx context.Context, purpose string, opts ListOptions) (*api.ListCredentialsResponse, error) {
	switch purpose {
	case "", api.CredentialPurposeStorage, api.CredentialPurposeService:
	default:
		return nil, ErrInvalidRequest.Msg("invalid credential purpose '" + purpose + "'")
	}
	rsp := &api.ListCredentialsResponse{Credentials: []api.CredentialInfo{}}
	err := m.db.InTx(ctx, func(ctx context.Context) error {
		var decodeErr error
		objs, next, err := m.scanFiltered(ctx, models.LabelCredential, nil, opts, func(o *models.Object) bool {
			if purpose == "" {
				return true
			}
			var p credentialProps
			if err := unmarshalProps(ctx, o, &p); err != nil {
				decodeErr = err
				return false
			}
			return p.Purpose == purpose
		})
		if err != nil {
			return err
		}
		if decodeErr != nil {
			return decodeErr
		}
		for i := range objs {
			info, err := m.toInfo(ctx, &objs[i])
			if err != nil {
				return err
			}
			rsp.Credentials = append(rsp.Credentials, *info)
		}
		rsp.NextPageToken = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rsp, nil
}

func (m *CredentialManager) Update(ctx context.Context, name string, req *api.UpdateCredentialRequest) (*api.CredentialInfo, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	var info *api.CredentialInfo
	err := m.db.InTx(ctx, func(ctx context.Context) error {
		o, err := m.fetchCredential(ctx, name)
		if err != nil {
			return err
		}
		var p credentialProps
		if err := unmarshalProps(ctx, o, &p); err != nil {
			return err
		}
		p.Comment = req.Comment.Apply(p.Comment)
		p.Owner = req.Owner.Apply(p.Owner)
		if req.ReadOnly != nil {
			p.ReadOnly = *req.ReadOnly
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
			return conflict(err, "credential '"+req.NewName+"' already exists")
		}
		if secret := req.Secret(); secret.Count() > 0 {
			if _, err := m.putSecret(ctx, o.ID, secret); err != nil {
				return err
			}
		}
		info, err = m.toInfo(ctx, o)
		return err
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}

// Delete removes the credential. External locations still bound to it require
// force; they are kept and lose their credential binding.
func (m *CredentialManager) Delete(ctx context.Context, name string, force bool) error {
	err := m.db.InTx(ctx, func(ctx context.Context) error {
		o, err := m.fetchCredential(ctx, name)
		if err != nil {
			return err
		}
		if !force {
			deps, err := m.children(ctx, o.ID, models.AssocDependencyOf, models.LabelExternalLocation)
			if err != nil {
				return err
			}
			if len(deps) > 0 {
				return ErrForceRequired.Msg("credential '" + name + "' is used by external locations; use force to delete")
			}
		}
		if err := m.deleteSecrets(ctx, o.ID); err != nil {
			return err
		}
		return m.db.DeleteObject(ctx, o.ID)
	})
	if err != nil {
		return err
	}
	log.Ctx(ctx).Info().Str("credential", name).Bool("force", force).Msg("credential deleted")
	return nil
}
