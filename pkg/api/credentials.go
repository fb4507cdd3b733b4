package api

import "github.com/mugiliam/unitycatalogsrv/pkg/types"

const (
	CredentialPurposeStorage = "STORAGE"
	CredentialPurposeService = "SERVICE"
)

type CredentialInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Purpose   string `json:"purpose"`
	ReadOnly  bool   `json:"readOnly"`
	Comment   string `json:"comment,omitempty"`
	Owner     string `json:"owner,omitempty"`
	CreatedAt int64  `json:"createdAt"`
	UpdatedAt int64  `json:"updatedAt,omitempty"`
}

// AzureManagedIdentity identifies a managed identity by exactly one of its ids.
type AzureManagedIdentity struct {
	ObjectID      string `json:"objectId,omitempty" validate:"required_without_all=ApplicationID MsiResourceID"`
	ApplicationID string `json:"applicationId,omitempty"`
	MsiResourceID string `json:"msiResourceId,omitempty"`
}

type AzureServicePrincipal struct {
	DirectoryID        string `json:"directoryId" validate:"required"`
	ApplicationID      string `json:"applicationId" validate:"required"`
	ClientSecret       string `json:"clientSecret,omitempty" validate:"required_without=FederatedTokenFile,excluded_with=FederatedTokenFile"`
	FederatedTokenFile string `json:"federatedTokenFile,omitempty"`
}

type AzureStorageKey struct {
	AccountName string `json:"accountName" validate:"required"`
	AccountKey  string `json:"accountKey" validate:"required"`
}

// CredentialSecret is the secret material of a credential. It is accepted on
// create and update and never returned.
type CredentialSecret struct {
	AzureManagedIdentity  *AzureManagedIdentity  `json:"azureManagedIdentity,omitempty"`
	AzureServicePrincipal *AzureServicePrincipal `json:"azureServicePrincipal,omitempty"`
	AzureStorageKey       *AzureStorageKey       `json:"azureStorageKey,omitempty"`
}

// Count returns the number of members that are set.
func (s CredentialSecret) Count() int {
	n := 0
	if s.AzureManagedIdentity != nil {
		n++
	}
	if s.AzureServicePrincipal != nil {
		n++
	}
	if s.AzureStorageKey != nil {
		n++
	}
	return n
}

// CreateCredentialRequest must carry exactly one kind of secret material.
type CreateCredentialRequest struct {
	Name                  string                 `json:"name" validate:"required,nameFormatValidator"`
	Purpose               string                 `json:"purpose" validate:"required,oneof=STORAGE SERVICE"`
	ReadOnly              bool                   `json:"readOnly"`
	Comment               string                 `json:"comment,omitempty" validate:"max=1024"`
	Owner                 string                 `json:"owner,omitempty"`
	AzureManagedIdentity  *AzureManagedIdentity  `json:"azureManagedIdentity,omitempty" validate:"required_without_all=AzureServicePrincipal AzureStorageKey,omitempty,excluded_with=AzureServicePrincipal AzureStorageKey"`
	AzureServicePrincipal *AzureServicePrincipal `json:"azureServicePrincipal,omitempty" validate:"omitempty,excluded_with=AzureStorageKey"`
	AzureStorageKey       *AzureStorageKey       `json:"azureStorageKey,omitempty"`
}

func (r *CreateCredentialRequest) Secret() CredentialSecret {
	return CredentialSecret{
		AzureManagedIdentity:  r.AzureManagedIdentity,
		AzureServicePrincipal: r.AzureServicePrincipal,
		AzureStorageKey:       r.AzureStorageKey,
	}
}

// UpdateCredentialRequest stores a new version of the secret material when one
// kind of it is set.
type UpdateCredentialRequest struct {
	NewName               string                 `json:"newName,omitempty" validate:"omitempty,nameFormatValidator"`
	ReadOnly              *bool                  `json:"readOnly,omitempty"`
	Comment               types.NullableString   `json:"comment"`
	Owner                 types.NullableString   `json:"owner"`
	AzureManagedIdentity  *AzureManagedIdentity  `json:"azureManagedIdentity,omitempty" validate:"omitempty,excluded_with=AzureServicePrincipal AzureStorageKey"`
	AzureServicePrincipal *AzureServicePrincipal `json:"azureServicePrincipal,omitempty" validate:"omitempty,excluded_with=AzureStorageKey"`
	AzureStorageKey       *AzureStorageKey       `json:"azureStorageKey,omitempty"`
}

func (r *UpdateCredentialRequest) Secret() CredentialSecret {
	return CredentialSecret{
		AzureManagedIdentity:  r.AzureManagedIdentity,
		AzureServicePrincipal: r.AzureServicePrincipal,
		AzureStorageKey:       r.AzureStorageKey,
	}
}

type ListCredentialsResponse struct {
	Credentials   []CredentialInfo `json:"credentials"`
	NextPageToken string           `json:"nextPageToken,omitempty"`
}

type ExternalLocationInfo struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	URL            string `json:"url"`
	CredentialName string `json:"credentialName"`
	CredentialID   string `json:"credentialId"`
	ReadOnly       bool   `json:"readOnly"`
	Comment        string `json:"comment,omitempty"`
	Owner          string `json:"owner,omitempty"`
	CreatedAt      int64  `json:"createdAt"`
	UpdatedAt      int64  `json:"updatedAt,omitempty"`
}

type CreateExternalLocationRequest struct {
	Name           string `json:"name" validate:"required,nameFormatValidator"`
	URL            string `json:"url" validate:"required,url"`
	CredentialName string `json:"credentialName" validate:"required,nameFormatValidator"`
	ReadOnly       bool   `json:"readOnly"`
	Comment        string `json:"comment,omitempty" validate:"max=1024"`
	Owner          string `json:"owner,omitempty"`
}

type UpdateExternalLocationRequest struct {
	NewName        string               `json:"newName,omitempty" validate:"omitempty,nameFormatValidator"`
	URL            string               `json:"url,omitempty" validate:"omitempty,url"`
	CredentialName string               `json:"credentialName,omitempty" validate:"omitempty,nameFormatValidator"`
	ReadOnly       *bool                `json:"readOnly,omitempty"`
	Comment        types.NullableString `json:"comment"`
	Owner          types.NullableString `json:"owner"`
}

type ListExternalLocationsResponse struct {
	ExternalLocations []ExternalLocationInfo `json:"externalLocations"`
	NextPageToken     string                 `json:"nextPageToken,omitempty"`
}
