package api

import "github.com/mugiliam/unitycatalogsrv/pkg/types"

const (
	TableTypeManaged  = "MANAGED"
	TableTypeExternal = "EXTERNAL"

	DataSourceFormatDelta   = "DELTA"
	DataSourceFormatParquet = "PARQUET"
)

type ColumnInfo struct {
	Name           string `json:"name" validate:"required,max=255"`
	TypeName       string `json:"typeName" validate:"required,columnTypeValidator"`
	TypeText       string `json:"typeText,omitempty"`
	TypeJson       string `json:"typeJson,omitempty" validate:"omitempty,json"`
	TypePrecision  int    `json:"typePrecision,omitempty"`
	TypeScale      int    `json:"typeScale,omitempty"`
	Position       int    `json:"position"`
	Nullable       bool   `json:"nullable"`
	Comment        string `json:"comment,omitempty"`
	PartitionIndex *int   `json:"partitionIndex,omitempty"`
}

type TableInfo struct {
	ID               string            `json:"tableId"`
	Name             string            `json:"name"`
	CatalogName      string            `json:"catalogName"`
	SchemaName       string            `json:"schemaName"`
	FullName         string            `json:"fullName"`
	TableType        string            `json:"tableType"`
	DataSourceFormat string            `json:"dataSourceFormat"`
	Columns          []ColumnInfo      `json:"columns"`
	StorageLocation  string            `json:"storageLocation,omitempty"`
	Comment          string            `json:"comment,omitempty"`
	Properties       map[string]string `json:"properties,omitempty"`
	Owner            string            `json:"owner,omitempty"`
	Version          int64             `json:"version"`
	CreatedAt        int64             `json:"createdAt"`
	UpdatedAt        int64             `json:"updatedAt,omitempty"`
}

type CreateTableRequest struct {
	Name             string            `json:"name" validate:"required,nameFormatValidator"`
	CatalogName      string            `json:"catalogName" validate:"required,nameFormatValidator"`
	SchemaName       string            `json:"schemaName" validate:"required,nameFormatValidator"`
	TableType        string            `json:"tableType" validate:"required,oneof=MANAGED EXTERNAL"`
	DataSourceFormat string            `json:"dataSourceFormat" validate:"required,oneof=DELTA PARQUET CSV JSON AVRO ORC TEXT"`
	Columns          []ColumnInfo      `json:"columns" validate:"dive"`
	StorageLocation  string            `json:"storageLocation,omitempty" validate:"required_if=TableType EXTERNAL"`
	Comment          string            `json:"comment,omitempty" validate:"max=1024"`
	Properties       map[string]string `json:"properties,omitempty"`
	Owner            string            `json:"owner,omitempty"`
}

type UpdateTableRequest struct {
	Comment    types.NullableString `json:"comment"`
	Owner      types.NullableString `json:"owner"`
	Properties types.NullableMap    `json:"properties"`
}

type ListTablesResponse struct {
	Tables        []TableInfo `json:"tables"`
	NextPageToken string      `json:"nextPageToken,omitempty"`
}

type TableExistsResponse struct {
	TableExists bool `json:"tableExists"`
}

type TableSummary struct {
	FullName  string `json:"fullName"`
	TableType string `json:"tableType"`
}

type ListTableSummariesResponse struct {
	Tables        []TableSummary `json:"tables"`
	NextPageToken string         `json:"nextPageToken,omitempty"`
}

// DataFile is a data file of a table version.
type DataFile struct {
	Path            string            `json:"path" validate:"required"`
	Size            int64             `json:"size" validate:"min=0"`
	PartitionValues map[string]string `json:"partitionValues,omitempty"`
	Stats           string            `json:"stats,omitempty"`
}

// CommitTableRequest records a new table version that adds and removes data files.
type CommitTableRequest struct {
	Add    []DataFile `json:"add,omitempty" validate:"dive"`
	Remove []string   `json:"remove,omitempty"`
}

type CommitTableResponse struct {
	Version   int64 `json:"version"`
	Timestamp int64 `json:"timestamp"`
}
