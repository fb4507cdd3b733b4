package catalogmanager

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mugiliam/unitycatalogsrv/internal/apperrors"
	"github.com/mugiliam/unitycatalogsrv/internal/db"
	"github.com/mugiliam/unitycatalogsrv/internal/db/dberror"
	"github.com/mugiliam/unitycatalogsrv/internal/db/models"
	"github.com/mugiliam/unitycatalogsrv/internal/resolver"
	"github.com/mugiliam/unitycatalogsrv/pkg/api"
	"github.com/rs/zerolog/log"
)

var (
	ErrInvalidToken apperrors.Error = apperrors.ErrUnauthenticated.New("invalid bearer token")
	ErrExpiredToken apperrors.Error = ErrInvalidToken.New("bearer token has expired")
)

type recipientProps struct {
	AuthenticationType string            `json:"authenticationType"`
	Owner              string            `json:"owner,omitempty"`
	Comment            string            `json:"comment,omitempty"`
	Properties         map[string]string `json:"properties,omitempty"`
}

type tokenProps struct {
	ExpirationTime int64 `json:"expirationTime"`
}

// TokenDigest is the stored form of a bearer token.
func TokenDigest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func newBearerToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", ErrCatalogError.MsgErr("unable to generate token", err).SetKind(apperrors.KindInternal)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

type RecipientManager struct {
	*base
}

func (m *RecipientManager) fetch(ctx context.Context, name string) (*models.Object, error) {
	o, err := resolver.Fetch(ctx, m.db, resolver.Ident(models.LabelRecipient, resolver.ByName(name)))
	if err != nil {
		return nil, translate(err, ErrRecipientNotFound, "recipient '"+name+"' not found")
	}
	return o, nil
}

func (m *RecipientManager) tokens(ctx context.Context, recipientID uuid.UUID) ([]*models.Object, error) {
	edges, err := m.children(ctx, recipientID, models.AssocHasPart, models.LabelRecipientToken)
	if err != nil {
		return nil, err
	}
	out := make([]*models.Object, 0, len(edges))
	for _, e := range edges {
		t, err := m.db.GetObject(ctx, e.ToID)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (m *RecipientManager) toInfo(ctx context.Context, o *models.Object) (*api.RecipientInfo, error) {
	var p recipientProps
	if err := unmarshalProps(ctx, o, &p); err != nil {
		return nil, err
	}
	info := &api.RecipientInfo{
		ID:                 o.ID.String(),
		Name:               o.Leaf(),
		AuthenticationType: p.AuthenticationType,
		Owner:              p.Owner,
		Comment:            p.Comment,
		Properties:         p.Properties,
		Tokens:             []api.RecipientToken{},
		CreatedAt:          millis(o.CreatedAt),
		UpdatedAt:          millis(o.UpdatedAt),
	}
	tokens, err := m.tokens(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	for _, t := range tokens {
		var tp tokenProps
		if err := unmarshalProps(ctx, t, &tp); err != nil {
			return nil, err
		}
		info.Tokens = append(info.Tokens, api.RecipientToken{
			ID:             t.ID.String(),
			CreatedAt:      millis(t.CreatedAt),
			ExpirationTime: tp.ExpirationTime,
		})
	}
	return info, nil
}

// issueToken creates a token for the recipient and returns the bearer value.
func (m *RecipientManager) issueToken(ctx context.Context, recipientID uuid.UUID, expiration int64) (string, error) {
	if expiration == 0 {
		expiration = m.now().Add(m.opts.TokenLifetime).UnixMilli()
	}
	bearer, err := newBearerToken()
	if err != nil {
		return "", err
	}
	props, err := marshalProps(ctx, tokenProps{ExpirationTime: expiration})
	if err != nil {
		return "", err
	}
	t, err := m.db.AddObject(ctx, models.LabelRecipientToken, []string{TokenDigest(bearer)}, props)
	if err != nil {
		return "", err
	}
	if _, err := m.db.AddAssociation(ctx, recipientID, models.AssocHasPart, t.ID, nil); err != nil {
		return "", err
	}
	return bearer, nil
}

// withBearer puts the freshly issued token value on the matching token entry.
func withBearer(info *api.RecipientInfo, bearer string) {
	for i := range info.Tokens {
		if info.Tokens[i].BearerToken == "" {
			info.Tokens[i].BearerToken = bearer
			return
		}
	}
}

func (m *RecipientManager) Create(ctx context.Context, req *api.CreateRecipientRequest) (*api.RecipientInfo, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	props, err := marshalProps(ctx, recipientProps{
		AuthenticationType: req.AuthenticationType,
		Owner:              req.Owner,
		Comment:            req.Comment,
		Properties:         req.Properties,
	})
	if err != nil {
		return nil, err
	}
	var info *api.RecipientInfo
	err = m.db.InTx(ctx, func(ctx context.Context) error {
		o, err := m.db.AddObject(ctx, models.LabelRecipient, []string{req.Name}, props)
		if err != nil {
			return conflict(err, "recipient '"+req.Name+"' already exists")
		}
		var bearer string
		if req.AuthenticationType == api.AuthenticationTypeToken {
			if bearer, err = m.issueToken(ctx, o.ID, req.ExpirationTime); err != nil {
				return err
			}
		}
		if info, err = m.toInfo(ctx, o); err != nil {
			return err
		}
		if bearer != "" {
			withBearer(info, bearer)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Ctx(ctx).Info().Str("recipient", req.Name).Str("authentication_type", req.AuthenticationType).Msg("recipient created")
	return info, nil
}

func (m *RecipientManager) Get(ctx context.Context, name string) (*api.RecipientInfo, error) {
	var info *api.RecipientInfo
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

func (m *RecipientManager) List(ctx context.Context, opts ListOptions) (*api.ListRecipientsResponse, error) {
	rsp := &api.ListRecipientsResponse{Recipients: []api.RecipientInfo{}}
	err := m.db.InTx(ctx, func(ctx context.Context) error {
		objs, next, err := m.db.ListObjects(ctx, models.LabelRecipient, nil, opts.page())
		if err != nil {
			return translate(err, nil, "")
		}
		for i := range objs {
			info, err := m.toInfo(ctx, &objs[i])
			if err != nil {
				return err
			}
			rsp.Recipients = append(rsp.Recipients, *info)
		}
		rsp.NextPageToken = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rsp, nil
}

func (m *RecipientManager) Update(ctx context.Context, name string, req *api.UpdateRecipientRequest) (*api.RecipientInfo, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	var info *api.RecipientInfo
	err := m.db.InTx(ctx, func(ctx context.Context) error {
		o, err := m.fetch(ctx, name)
		if err != nil {
			return err
		}
		var p recipientProps
		if err := unmarshalProps(ctx, o, &p); err != nil {
			return err
		}
		p.Owner = req.Owner.Apply(p.Owner)
		p.Comment = req.Comment.Apply(p.Comment)
		p.Properties = req.Properties.Apply(p.Properties)
		props, err := marshalProps(ctx, p)
		if err != nil {
			return err
		}
		upd := db.ObjectUpdate{Properties: props}
		if req.NewName != "" && req.NewName != name {
			upd.Name = []string{req.NewName}
		}
		if o, err = m.db.UpdateObject(ctx, o.ID, upd); err != nil {
			return conflict(err, "recipient '"+req.NewName+"' already exists")
		}
		info, err = m.toInfo(ctx, o)
		return err
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}

// RotateToken issues a new bearer token. Existing tokens expire after
// ExistingTokenExpireInSeconds; zero revokes them immediately.
func (m *RecipientManager) RotateToken(ctx context.Context, name string, req *api.RotateRecipientTokenRequest) (*api.RecipientInfo, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	var info *api.RecipientInfo
	err := m.db.InTx(ctx, func(ctx context.Context) error {
		o, err := m.fetch(ctx, name)
		if err != nil {
			return err
		}
		var p recipientProps
		if err := unmarshalProps(ctx, o, &p); err != nil {
			return err
		}
		if p.AuthenticationType != api.AuthenticationTypeToken {
			return ErrNotTokenRecipient.Msg("recipient '" + name + "' does not use token authentication")
		}
		tokens, err := m.tokens(ctx, o.ID)
		if err != nil {
			return err
		}
		expireAt := m.now().Add(time.Duration(req.ExistingTokenExpireInSeconds) * time.Second).UnixMilli()
		for _, t := range tokens {
			if req.ExistingTokenExpireInSeconds == 0 {
				if err := m.db.DeleteObject(ctx, t.ID); err != nil {
					return err
				}
				continue
			}
			var tp tokenProps
			if err := unmarshalProps(ctx, t, &tp); err != nil {
				return err
			}
			if tp.ExpirationTime <= expireAt {
				continue
			}
			tp.ExpirationTime = expireAt
			props, err := marshalProps(ctx, tp)
			if err != nil {
				return err
			}
			if _, err := m.db.UpdateObject(ctx, t.ID, db.ObjectUpdate{Properties: props}); err != nil {
				return err
			}
		}
		bearer, err := m.issueToken(ctx, o.ID, 0)
		if err != nil {
			return err
		}
		if info, err = m.toInfo(ctx, o); err != nil {
			return err
		}
		// tokens are listed newest first
		info.Tokens[0].BearerToken = bearer
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Ctx(ctx).Info().Str("recipient", name).Msg("recipient token rotated")
	return info, nil
}

// Delete removes the recipient with its tokens and share grants.
func (m *RecipientManager) Delete(ctx context.Context, name string) error {
	err := m.db.InTx(ctx, func(ctx context.Context) error {
		o, err := m.fetch(ctx, name)
		if err != nil {
			return err
		}
		tokens, err := m.tokens(ctx, o.ID)
		if err != nil {
			return err
		}
		for _, t := range tokens {
			if err := m.db.DeleteObject(ctx, t.ID); err != nil {
				return err
			}
		}
		return m.db.DeleteObject(ctx, o.ID)
	})
	if err != nil {
		return err
	}
	log.Ctx(ctx).Info().Str("recipient", name).Msg("recipient deleted")
	return nil
}

// Authenticate returns the recipient owning bearer. Unknown and expired tokens
// are Unauthenticated.
func (m *RecipientManager) Authenticate(ctx context.Context, bearer string) (*models.Object, error) {
	if bearer == "" {
		return nil, ErrInvalidToken
	}
	var recipient *models.Object
	err := m.db.InTx(ctx, func(ctx context.Context) error {
		t, err := m.db.GetObjectByName(ctx, models.LabelRecipientToken, []string{TokenDigest(bearer)})
		if errors.Is(err, dberror.ErrNotFound) {
			return ErrInvalidToken
		}
		if err != nil {
			return err
		}
		var tp tokenProps
		if err := unmarshalProps(ctx, t, &tp); err != nil {
			return err
		}
		if tp.ExpirationTime != 0 && m.now().UnixMilli() >= tp.ExpirationTime {
			return ErrExpiredToken
		}
		owners, err := m.children(ctx, t.ID, models.AssocPartOf, models.LabelRecipient)
		if err != nil {
			return err
		}
		if len(owners) == 0 {
			log.Ctx(ctx).Error().Str("token_id", t.ID.String()).Msg("recipient token without recipient")
			return ErrInvalidToken
		}
		recipient, err = m.db.GetObject(ctx, owners[0].ToID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return recipient, nil
}
