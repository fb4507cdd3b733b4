package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mugiliam/unitycatalogsrv/internal/common"
	"github.com/mugiliam/unitycatalogsrv/internal/db/models"
	"github.com/mugiliam/unitycatalogsrv/internal/httpx"
	"github.com/mugiliam/unitycatalogsrv/internal/types"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Authenticator resolves a bearer token to the recipient that owns it.
type Authenticator interface {
	Authenticate(ctx context.Context, bearer string) (*models.Object, error)
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", false
	}
	scheme, token, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", true
	}
	return strings.TrimSpace(token), true
}

// LoadRecipientContext puts the recipient presenting a bearer token into the request
// context. A request without a token passes through unrestricted unless required
// is set; a presented token that does not authenticate is always rejected.
func LoadRecipientContext(auth Authenticator, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token, present := bearerToken(r)
			if !present {
				if required {
					httpx.SendError(ctx, w, httpx.ErrUnauthenticated.Msg("missing bearer token"))
					return
				}
				next.ServeHTTP(w, r)
				return
			}
			recipient, err := auth.Authenticate(ctx, token)
			if err != nil {
				httpx.SendError(ctx, w, err)
				return
			}
			ctx = common.SetRecipientInContext(ctx, types.Recipient{
				Id:   types.RecipientId(recipient.ID),
				Name: recipient.Leaf(),
			})
			log.Ctx(ctx).UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str("recipient", recipient.Leaf())
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
