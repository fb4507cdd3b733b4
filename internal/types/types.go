package types

import "github.com/google/uuid"

type RecipientId uuid.UUID

func (u RecipientId) String() string {
	return uuid.UUID(u).String()
}

func (u RecipientId) IsNil() bool {
	return u == RecipientId(uuid.Nil)
}

// Recipient is the authenticated caller of the sharing API.
type Recipient struct {
	Id   RecipientId
	Name string
}
