package api

import "github.com/mugiliam/unitycatalogsrv/pkg/types"

const (
	AuthenticationTypeToken                  = "TOKEN"
	AuthenticationTypeOauthClientCredentials = "OAUTH_CLIENT_CREDENTIALS"
)

type RecipientToken struct {
	ID             string `json:"id"`
	CreatedAt      int64  `json:"createdAt"`
	ExpirationTime int64  `json:"expirationTime"`
	// BearerToken is returned only when the token is issued.
	BearerToken string `json:"bearerToken,omitempty"`
}

type RecipientInfo struct {
	ID                 string            `json:"id"`
	Name               string            `json:"name"`
	AuthenticationType string            `json:"authenticationType"`
	Owner              string            `json:"owner,omitempty"`
	Comment            string            `json:"comment,omitempty"`
	Properties         map[string]string `json:"properties,omitempty"`
	Tokens             []RecipientToken  `json:"tokens"`
	CreatedAt          int64             `json:"createdAt"`
	UpdatedAt          int64             `json:"updatedAt,omitempty"`
}

type CreateRecipientRequest struct {
	Name               string            `json:"name" validate:"required,nameFormatValidator"`
	AuthenticationType string            `json:"authenticationType" validate:"required,oneof=TOKEN OAUTH_CLIENT_CREDENTIALS"`
	Owner              string            `json:"owner,omitempty"`
	Comment            string            `json:"comment,omitempty" validate:"max=1024"`
	Properties         map[string]string `json:"properties,omitempty"`
	// ExpirationTime is the token expiry in epoch milliseconds; zero uses the server default.
	ExpirationTime int64 `json:"expirationTime,omitempty" validate:"min=0"`
}

type UpdateRecipientRequest struct {
	NewName    string               `json:"newName,omitempty" validate:"omitempty,nameFormatValidator"`
	Owner      types.NullableString `json:"owner"`
	Comment    types.NullableString `json:"comment"`
	Properties types.NullableMap    `json:"properties"`
}

type RotateRecipientTokenRequest struct {
	// ExistingTokenExpireInSeconds shortens the lifetime of the current tokens; 0 expires them now.
	ExistingTokenExpireInSeconds int64 `json:"existingTokenExpireInSeconds" validate:"min=0"`
}

type ListRecipientsResponse struct {
	Recipients    []RecipientInfo `json:"recipients"`
	NextPageToken string          `json:"nextPageToken,omitempty"`
}
