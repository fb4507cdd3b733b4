package apperrors

import "net/http"

type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindAlreadyExists
	KindInvalid
	KindPermissionDenied
	KindUnauthenticated
	KindFailedPrecondition
	KindResourceExhausted
	KindUnavailable
	KindInternal
)

var kindNames = map[Kind]string{
	KindUnknown:            "Unknown",
	KindNotFound:           "NotFound",
	KindAlreadyExists:      "AlreadyExists",
	KindInvalid:            "Invalid",
	KindPermissionDenied:   "PermissionDenied",
	KindUnauthenticated:    "Unauthenticated",
	KindFailedPrecondition: "FailedPrecondition",
	KindResourceExhausted:  "ResourceExhausted",
	KindUnavailable:        "Unavailable",
	KindInternal:           "Internal",
}

// String returns the stable wire name of the kind, used as error_code.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return kindNames[KindInternal]
}

func (k Kind) StatusCode() int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindAlreadyExists, KindFailedPrecondition:
		return http.StatusConflict
	case KindInvalid:
		return http.StatusBadRequest
	case KindPermissionDenied:
		return http.StatusForbidden
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindResourceExhausted:
		return http.StatusTooManyRequests
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Root sentinels, one per kind. Packages derive their own sentinels from these.
var (
	ErrNotFound           Error = New("not found").SetKind(KindNotFound)
	ErrAlreadyExists      Error = New("already exists").SetKind(KindAlreadyExists)
	ErrInvalid            Error = New("invalid argument").SetKind(KindInvalid)
	ErrPermissionDenied   Error = New("permission denied").SetKind(KindPermissionDenied)
	ErrUnauthenticated    Error = New("unauthenticated").SetKind(KindUnauthenticated)
	ErrFailedPrecondition Error = New("failed precondition").SetKind(KindFailedPrecondition)
	ErrResourceExhausted  Error = New("resource exhausted").SetKind(KindResourceExhausted)
	ErrUnavailable        Error = New("service unavailable").SetKind(KindUnavailable)
	ErrInternal           Error = New("internal error").SetKind(KindInternal)
)
