package api

import "github.com/mugiliam/unitycatalogsrv/pkg/types"

type SchemaInfo struct {
	ID          string            `json:"schemaId"`
	Name        string            `json:"name"`
	CatalogName string            `json:"catalogName"`
	FullName    string            `json:"fullName"`
	Comment     string            `json:"comment,omitempty"`
	Properties  map[string]string `json:"properties,omitempty"`
	Owner       string            `json:"owner,omitempty"`
	CreatedAt   int64             `json:"createdAt"`
	UpdatedAt   int64             `json:"updatedAt,omitempty"`
}

type CreateSchemaRequest struct {
	Name        string            `json:"name" validate:"required,nameFormatValidator"`
	CatalogName string            `json:"catalogName" validate:"required,nameFormatValidator"`
	Comment     string            `json:"comment,omitempty" validate:"max=1024"`
	Properties  map[string]string `json:"properties,omitempty"`
	Owner       string            `json:"owner,omitempty"`
}

type UpdateSchemaRequest struct {
	NewName    string               `json:"newName,omitempty" validate:"omitempty,nameFormatValidator"`
	Comment    types.NullableString `json:"comment"`
	Owner      types.NullableString `json:"owner"`
	Properties types.NullableMap    `json:"properties"`
}

type ListSchemasResponse struct {
	Schemas       []SchemaInfo `json:"schemas"`
	NextPageToken string       `json:"nextPageToken,omitempty"`
}
