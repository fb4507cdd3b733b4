package sharing

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strconv"
	"time"
)

const (
	ExpiresParam   = "X-UC-Expires"
	SignatureParam = "X-UC-Signature"
)

// URLSigner turns a storage location into a URL a recipient can fetch until expiresAt.
type URLSigner interface {
	SignURL(ctx context.Context, location string, expiresAt time.Time) (string, error)
}

// HMACSigner signs locations with HMAC-SHA256 over the location and its expiry.
type HMACSigner struct {
	key []byte
}

var _ URLSigner = (*HMACSigner)(nil)

// NewHMACSigner returns a signer keyed with key. An empty key is replaced by a random
// one, so URLs signed by the process cannot be verified after a restart.
func NewHMACSigner(key string) (*HMACSigner, error) {
	k := []byte(key)
	if len(k) == 0 {
		k = make([]byte, 32)
		if _, err := rand.Read(k); err != nil {
			return nil, ErrUnableToSign.MsgErr("unable to generate signing key", err)
		}
	}
	return &HMACSigner{key: k}, nil
}

func (s *HMACSigner) signature(u *url.URL, expires string) string {
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(u.Scheme + "://" + u.Host + u.EscapedPath()))
	mac.Write([]byte{'\n'})
	mac.Write([]byte(expires))
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *HMACSigner) SignURL(_ context.Context, location string, expiresAt time.Time) (string, error) {
	u, err := url.Parse(location)
	if err != nil {
		return "", ErrUnableToSign.MsgErr("invalid storage location '"+location+"'", err)
	}
	expires := strconv.FormatInt(expiresAt.Unix(), 10)
	q := u.Query()
	q.Set(ExpiresParam, expires)
	q.Set(SignatureParam, s.signature(u, expires))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Verify checks a URL produced by SignURL against now.
func (s *HMACSigner) Verify(signed string, now time.Time) error {
	u, err := url.Parse(signed)
	if err != nil {
		return ErrInvalidSignature.Err(err)
	}
	q := u.Query()
	expires, sig := q.Get(ExpiresParam), q.Get(SignatureParam)
	if expires == "" || sig == "" {
		return ErrInvalidSignature.Msg("url is not signed")
	}
	want, err := hex.DecodeString(s.signature(u, expires))
	if err != nil {
		return ErrInvalidSignature.Err(err)
	}
	got, err := hex.DecodeString(sig)
	if err != nil || !hmac.Equal(want, got) {
		return ErrInvalidSignature
	}
	exp, err := strconv.ParseInt(expires, 10, 64)
	if err != nil {
		return ErrInvalidSignature.Err(err)
	}
	if now.Unix() > exp {
		return ErrExpiredSignature
	}
	return nil
}
