// Description: This file contains the context package which is used to set and retrieve data from the context.
package common

import (
	"context"

	"github.com/mugiliam/unitycatalogsrv/internal/types"
)

// ctxRecipientKeyType represents the key type for the authenticated recipient in the context.
type ctxRecipientKeyType string

const ctxRecipientKey ctxRecipientKeyType = "UnityCatalogRecipient"

// SetRecipientInContext sets the authenticated recipient in the provided context.
func SetRecipientInContext(ctx context.Context, recipient types.Recipient) context.Context {
	return context.WithValue(ctx, ctxRecipientKey, recipient)
}

// RecipientFromContext retrieves the authenticated recipient from the provided context.
// ok is false for an unauthenticated caller.
func RecipientFromContext(ctx context.Context) (recipient types.Recipient, ok bool) {
	recipient, ok = ctx.Value(ctxRecipientKey).(types.Recipient)
	return recipient, ok && !recipient.Id.IsNil()
}
