package catalogmanager

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"sort"
	"strconv"

	"github.com/google/uuid"
	"github.com/mugiliam/unitycatalogsrv/internal/db/models"
	"github.com/mugiliam/unitycatalogsrv/pkg/api"
	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

// secretBox seals credential secrets with NaCl secretbox under a key derived
// from the configured secret.
type secretBox struct {
	key [32]byte
}

func newSecretBox(secret string) *secretBox {
	if secret == "" {
		secret = uuid.NewString()
	}
	return &secretBox{key: sha256.Sum256([]byte(secret))}
}

func (s *secretBox) seal(plain []byte) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, ErrSecretSeal.MsgErr("unable to generate nonce", err)
	}
	return secretbox.Seal(nonce[:], plain, &nonce, &s.key), nil
}

func (s *secretBox) open(sealed []byte) ([]byte, error) {
	if len(sealed) < nonceSize+secretbox.Overhead {
		return nil, ErrSecretUnreadable.Msg("sealed secret is truncated")
	}
	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])
	plain, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, &s.key)
	if !ok {
		return nil, ErrSecretUnreadable
	}
	return plain, nil
}

type secretProps struct {
	Version int64  `json:"version"`
	Sealed  []byte `json:"sealed"`
}

type secretVersion struct {
	id uuid.UUID
	secretProps
}

// secretVersions returns the secret versions of a credential, oldest first.
func (b *base) secretVersions(ctx context.Context, credentialID uuid.UUID) ([]secretVersion, error) {
	edges, err := b.children(ctx, credentialID, models.AssocHasPart, models.LabelCredentialSecret)
	if err != nil {
		return nil, err
	}
	versions := make([]secretVersion, 0, len(edges))
	for _, e := range edges {
		o, err := b.db.GetObject(ctx, e.ToID)
		if err != nil {
			return nil, err
		}
		v := secretVersion{id: o.ID}
		if err := unmarshalProps(ctx, o, &v.secretProps); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i].Version < versions[j].Version })
	return versions, nil
}

// putSecret stores secret as the next version of the credential's secret.
func (b *base) putSecret(ctx context.Context, credentialID uuid.UUID, secret api.CredentialSecret) (int64, error) {
	versions, err := b.secretVersions(ctx, credentialID)
	if err != nil {
		return 0, err
	}
	version := int64(1)
	if n := len(versions); n > 0 {
		version = versions[n-1].Version + 1
	}
	plain, err := json.Marshal(secret)
	if err != nil {
		return 0, ErrSecretSeal.MsgErr("unable to encode secret", err)
	}
	sealed, err := b.secrets.seal(plain)
	if err != nil {
		return 0, err
	}
	props, err := marshalProps(ctx, secretProps{Version: version, Sealed: sealed})
	if err != nil {
		return 0, err
	}
	name := []string{credentialID.String(), strconv.FormatInt(version, 10)}
	o, err := b.db.AddObject(ctx, models.LabelCredentialSecret, name, props)
	if err != nil {
		return 0, err
	}
	if _, err := b.db.AddAssociation(ctx, credentialID, models.AssocHasPart, o.ID, nil); err != nil {
		return 0, err
	}
	return version, nil
}

// latestSecret opens the newest version of the credential's secret.
func (b *base) latestSecret(ctx context.Context, credentialID uuid.UUID) (*api.CredentialSecret, int64, error) {
	versions, err := b.secretVersions(ctx, credentialID)
	if err != nil {
		return nil, 0, err
	}
	if len(versions) == 0 {
		return nil, 0, ErrSecretNotFound
	}
	latest := versions[len(versions)-1]
	plain, err := b.secrets.open(latest.Sealed)
	if err != nil {
		return nil, 0, err
	}
	secret := &api.CredentialSecret{}
	if err := json.Unmarshal(plain, secret); err != nil {
		return nil, 0, ErrSecretUnreadable.MsgErr("unable to decode secret", err)
	}
	return secret, latest.Version, nil
}

// deleteSecrets removes every secret version of the credential.
func (b *base) deleteSecrets(ctx context.Context, credentialID uuid.UUID) error {
	versions, err := b.secretVersions(ctx, credentialID)
	if err != nil {
		return err
	}
	for _, v := range versions {
		if err := b.db.DeleteObject(ctx, v.id); err != nil {
			return err
		}
	}
	return nil
}
