package api

import "github.com/mugiliam/unitycatalogsrv/pkg/types"

const (
	VolumeTypeManaged  = "MANAGED"
	VolumeTypeExternal = "EXTERNAL"
)

type VolumeInfo struct {
	ID              string `json:"volumeId"`
	Name            string `json:"name"`
	CatalogName     string `json:"catalogName"`
	SchemaName      string `json:"schemaName"`
	FullName        string `json:"fullName"`
	VolumeType      string `json:"volumeType"`
	StorageLocation string `json:"storageLocation,omitempty"`
	Comment         string `json:"comment,omitempty"`
	Owner           string `json:"owner,omitempty"`
	CreatedAt       int64  `json:"createdAt"`
	UpdatedAt       int64  `json:"updatedAt,omitempty"`
}

type CreateVolumeRequest struct {
	Name            string `json:"name" validate:"required,nameFormatValidator"`
	CatalogName     string `json:"catalogName" validate:"required,nameFormatValidator"`
	SchemaName      string `json:"schemaName" validate:"required,nameFormatValidator"`
	VolumeType      string `json:"volumeType" validate:"required,oneof=MANAGED EXTERNAL"`
	StorageLocation string `json:"storageLocation,omitempty" validate:"required_if=VolumeType EXTERNAL"`
	Comment         string `json:"comment,omitempty" validate:"max=1024"`
	Owner           string `json:"owner,omitempty"`
}

type UpdateVolumeRequest struct {
	NewName string               `json:"newName,omitempty" validate:"omitempty,nameFormatValidator"`
	Comment types.NullableString `json:"comment"`
	Owner   types.NullableString `json:"owner"`
}

type ListVolumesResponse struct {
	Volumes       []VolumeInfo `json:"volumes"`
	NextPageToken string       `json:"nextPageToken,omitempty"`
}
