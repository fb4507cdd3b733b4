package api

import "github.com/mugiliam/unitycatalogsrv/pkg/types"

type CatalogInfo struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Comment     string            `json:"comment,omitempty"`
	Properties  map[string]string `json:"properties,omitempty"`
	Owner       string            `json:"owner,omitempty"`
	StorageRoot string            `json:"storageRoot,omitempty"`
	CreatedAt   int64             `json:"createdAt"`
	UpdatedAt   int64             `json:"updatedAt,omitempty"`
}

type CreateCatalogRequest struct {
	Name        string            `json:"name" validate:"required,nameFormatValidator"`
	Comment     string            `json:"comment,omitempty" validate:"max=1024"`
	Properties  map[string]string `json:"properties,omitempty"`
	Owner       string            `json:"owner,omitempty"`
	StorageRoot string            `json:"storageRoot,omitempty" validate:"omitempty,url"`
}

type UpdateCatalogRequest struct {
	NewName    string               `json:"newName,omitempty" validate:"omitempty,nameFormatValidator"`
	Comment    types.NullableString `json:"comment"`
	Owner      types.NullableString `json:"owner"`
	Properties types.NullableMap    `json:"properties"`
}

type ListCatalogsResponse struct {
	Catalogs      []CatalogInfo `json:"catalogs"`
	NextPageToken string        `json:"nextPageToken,omitempty"`
}
