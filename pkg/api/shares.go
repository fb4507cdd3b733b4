package api

import "github.com/mugiliam/unitycatalogsrv/pkg/types"

const (
	DataObjectTypeTable  = "TABLE"
	DataObjectTypeSchema = "SCHEMA"

	DataObjectActionAdd    = "ADD"
	DataObjectActionRemove = "REMOVE"
	DataObjectActionUpdate = "UPDATE"

	PrivilegeSelect = "SELECT"
)

type DataObject struct {
	Name           string `json:"name" validate:"required"`
	DataObjectType string `json:"dataObjectType,omitempty" validate:"omitempty,oneof=TABLE SCHEMA"`
	SharedAs       string `json:"sharedAs,omitempty"`
	Comment        string `json:"comment,omitempty"`
	AddedAt        int64  `json:"addedAt,omitempty"`
	AddedBy        string `json:"addedBy,omitempty"`
}

type ShareInfo struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Comment     string       `json:"comment,omitempty"`
	Owner       string       `json:"owner,omitempty"`
	DataObjects []DataObject `json:"dataObjects"`
	CreatedAt   int64        `json:"createdAt"`
	UpdatedAt   int64        `json:"updatedAt,omitempty"`
}

type CreateShareRequest struct {
	Name    string `json:"name" validate:"required,nameFormatValidator"`
	Comment string `json:"comment,omitempty" validate:"max=1024"`
	Owner   string `json:"owner,omitempty"`
}

type DataObjectUpdate struct {
	Action     string     `json:"action" validate:"required,oneof=ADD REMOVE UPDATE"`
	DataObject DataObject `json:"dataObject"`
}

type UpdateShareRequest struct {
	NewName string               `json:"newName,omitempty" validate:"omitempty,nameFormatValidator"`
	Comment types.NullableString `json:"comment"`
	Owner   types.NullableString `json:"owner"`
	Updates []DataObjectUpdate   `json:"updates,omitempty" validate:"dive"`
}

type ListSharesResponse struct {
	Shares        []ShareInfo `json:"shares"`
	NextPageToken string      `json:"nextPageToken,omitempty"`
}

type PrivilegeAssignment struct {
	Principal  string   `json:"principal"`
	Privileges []string `json:"privileges"`
}

type GetSharePermissionsResponse struct {
	PrivilegeAssignments []PrivilegeAssignment `json:"privilegeAssignments"`
	NextPageToken        string                `json:"nextPageToken,omitempty"`
}

type PermissionsChange struct {
	Principal string   `json:"principal" validate:"required,nameFormatValidator"`
	Add       []string `json:"add,omitempty" validate:"dive,oneof=SELECT"`
	Remove    []string `json:"remove,omitempty" validate:"dive,oneof=SELECT"`
}

type UpdateSharePermissionsRequest struct {
	Changes []PermissionsChange `json:"changes" validate:"dive"`
}
