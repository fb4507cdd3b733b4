package api

const (
	ApiVersion_2_1 = "2.1"

	// ServerVersion is reported by GET /version.
	ServerVersion = "0.3.0"
)

type GetVersionRsp struct {
	ServerVersion string `json:"server_version"`
	ApiVersion    string `json:"api_version"`
}
