package api

// Delta-Sharing protocol messages.

type SharingShare struct {
	Name string `json:"name"`
	ID   string `json:"id,omitempty"`
}

type SharingListSharesResponse struct {
	Items         []SharingShare `json:"items"`
	NextPageToken string         `json:"nextPageToken,omitempty"`
}

type SharingGetShareResponse struct {
	Share SharingShare `json:"share"`
}

type SharingSchema struct {
	Name  string `json:"name"`
	Share string `json:"share"`
}

type SharingListSchemasResponse struct {
	Items         []SharingSchema `json:"items"`
	NextPageToken string          `json:"nextPageToken,omitempty"`
}

type SharingTable struct {
	Name    string `json:"name"`
	Schema  string `json:"schema"`
	Share   string `json:"share"`
	ShareID string `json:"shareId,omitempty"`
	ID      string `json:"id,omitempty"`
}

type SharingListTablesResponse struct {
	Items         []SharingTable `json:"items"`
	NextPageToken string         `json:"nextPageToken,omitempty"`
}

const (
	ActionKindProtocol = "protocol"
	ActionKindMetadata = "metadata"
	ActionKindFile     = "file"
)

type Protocol struct {
	MinReaderVersion int `json:"minReaderVersion"`
}

type Format struct {
	Provider string            `json:"provider"`
	Options  map[string]string `json:"options,omitempty"`
}

type Metadata struct {
	ID               string            `json:"id"`
	Name             string            `json:"name,omitempty"`
	Description      string            `json:"description,omitempty"`
	Format           Format            `json:"format"`
	SchemaString     string            `json:"schemaString"`
	PartitionColumns []string          `json:"partitionColumns"`
	Configuration    map[string]string `json:"configuration,omitempty"`
	Version          int64             `json:"version,omitempty"`
	NumFiles         int64             `json:"numFiles,omitempty"`
	Size             int64             `json:"size,omitempty"`
}

type File struct {
	URL                 string            `json:"url"`
	ID                  string            `json:"id"`
	PartitionValues     map[string]string `json:"partitionValues"`
	Size                int64             `json:"size"`
	Stats               string            `json:"stats,omitempty"`
	Version             int64             `json:"version,omitempty"`
	Timestamp           int64             `json:"timestamp,omitempty"`
	ExpirationTimestamp int64             `json:"expirationTimestamp,omitempty"`
}

// Each line of a metadata or query response is one action. Kind names the action
// next to the Delta-Sharing action key.

type ProtocolAction struct {
	Kind     string   `json:"kind"`
	Protocol Protocol `json:"protocol"`
}

type MetadataAction struct {
	Kind     string   `json:"kind"`
	MetaData Metadata `json:"metaData"`
}

type FileAction struct {
	Kind string `json:"kind"`
	File File   `json:"file"`
}

type QueryTableRequest struct {
	PredicateHints     []string `json:"predicateHints,omitempty"`
	JSONPredicateHints string   `json:"jsonPredicateHints,omitempty"`
	LimitHint          *int64   `json:"limitHint,omitempty"`
	Version            *int64   `json:"version,omitempty"`
	Timestamp          string   `json:"timestamp,omitempty"`
	StartingVersion    *int64   `json:"startingVersion,omitempty"`
	EndingVersion      *int64   `json:"endingVersion,omitempty"`
}
