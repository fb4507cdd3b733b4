package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mugiliam/unitycatalogsrv/internal/apperrors"
	"github.com/mugiliam/unitycatalogsrv/internal/catalogmanager/validationerrors"
	"github.com/mugiliam/unitycatalogsrv/pkg/api"
	"github.com/rs/zerolog/log"
)

var (
	ErrInvalidRequest         apperrors.Error = apperrors.ErrInvalid.New("invalid request")
	ErrUnableToReadRequest    apperrors.Error = ErrInvalidRequest.New("unable to read request")
	ErrInvalidRequestBody     apperrors.Error = ErrInvalidRequest.New("unable to parse request body")
	ErrInvalidParameter       apperrors.Error = ErrInvalidRequest.New("invalid request parameter")
	ErrUnableToEncodeResponse apperrors.Error = apperrors.ErrInternal.New("unable to encode response")
	ErrTooManyRequests        apperrors.Error = apperrors.ErrResourceExhausted.New("too many requests")
	ErrUnauthenticated        apperrors.Error = apperrors.ErrUnauthenticated.New("missing or invalid bearer token")
	ErrRouteNotFound          apperrors.Error = apperrors.ErrNotFound.New("no route for request")
	ErrMethodNotAllowed       apperrors.Error = apperrors.ErrInvalid.New("method not allowed")
)

// ErrorResponse builds the wire body for err. Internal errors do not leak their
// message.
func ErrorResponse(err error) (int, *api.ErrorResponse) {
	kind := apperrors.KindOf(err)
	body := &api.ErrorResponse{
		ErrorCode: kind.String(),
		Message:   apperrors.Message(err),
		Details:   []api.ErrorDetail{},
	}
	if kind == apperrors.KindInternal {
		body.Message = "internal error"
	}
	var ves validationerrors.ValidationErrors
	if errors.As(err, &ves) {
		for _, ve := range ves {
			body.Details = append(body.Details, api.ErrorDetail{Field: ve.Field, Description: ve.ErrStr})
		}
	}
	return kind.StatusCode(), body
}

// SendError writes the error body for err.
func SendError(ctx context.Context, w http.ResponseWriter, err error) {
	status, body := ErrorResponse(err)
	ev := log.Ctx(ctx).Info()
	if status >= http.StatusInternalServerError {
		ev = log.Ctx(ctx).Error()
	}
	ev.Err(err).Int("status", status).Str("error_code", body.ErrorCode).Msg("request failed")

	b, mErr := json.Marshal(body)
	if mErr != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", ContentTypeJSON)
	w.WriteHeader(status)
	_, _ = w.Write(b)
}
