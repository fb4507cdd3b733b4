package api

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	ErrorCode string        `json:"error_code"`
	Message   string        `json:"message"`
	Details   []ErrorDetail `json:"details"`
}

type ErrorDetail struct {
	Field       string `json:"field,omitempty"`
	Description string `json:"description"`
}
