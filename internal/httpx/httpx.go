// Package httpx adapts request handlers that return a Response or an error to
// net/http, and writes JSON, NDJSON and error bodies.
package httpx

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

const (
	ContentTypeJSON   = "application/json"
	ContentTypeNDJSON = "application/x-ndjson; charset=utf-8"
)

// Response is the result of a handler. Response is encoded as JSON unless
// Lines is set, in which case each line is written as one NDJSON record.
type Response struct {
	StatusCode int
	Location   string
	Header     http.Header
	Response   any
	Lines      []any
}

type HandlerFunc func(r *http.Request) (*Response, error)

// RequestHandlerParam is one entry of a handler table.
type RequestHandlerParam struct {
	Method  string
	Path    string
	Handler HandlerFunc
}

// WrapHttpRsp turns a HandlerFunc into an http.HandlerFunc. Errors become an error
// body with the status code of their kind.
func WrapHttpRsp(handler HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rsp, err := handler(r)
		if err != nil {
			SendError(r.Context(), w, err)
			return
		}
		if rsp == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		for k, vs := range rsp.Header {
			for _, v := range vs {
				w.Header().Add(k, v)
			}
		}
		if rsp.Location != "" {
			w.Header().Set("Location", rsp.Location)
		}
		status := rsp.StatusCode
		if status == 0 {
			status = http.StatusOK
		}
		switch {
		case rsp.Lines != nil:
			SendNDJsonRsp(r.Context(), w, status, rsp.Lines)
		case rsp.Response != nil:
			SendJsonRsp(r.Context(), w, status, rsp.Response)
		default:
			w.WriteHeader(status)
		}
	}
}

// SendJsonRsp writes v as a JSON body.
func SendJsonRsp(ctx context.Context, w http.ResponseWriter, status int, v any) {
	var b []byte
	switch body := v.(type) {
	case []byte:
		b = body
	case json.RawMessage:
		b = body
	default:
		var err error
		if b, err = json.Marshal(v); err != nil {
			log.Ctx(ctx).Error().Err(err).Msg("unable to encode response")
			SendError(ctx, w, ErrUnableToEncodeResponse.Err(err))
			return
		}
	}
	w.Header().Set("Content-Type", ContentTypeJSON)
	w.WriteHeader(status)
	if _, err := w.Write(b); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("unable to write response")
	}
}

// SendNDJsonRsp writes lines as newline-delimited JSON, one record per line.
func SendNDJsonRsp(ctx context.Context, w http.ResponseWriter, status int, lines []any) {
	w.Header().Set("Content-Type", ContentTypeNDJSON)
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, line := range lines {
		if err := enc.Encode(line); err != nil {
			// the status is already sent; the client sees a truncated stream
			log.Ctx(ctx).Error().Err(err).Msg("unable to write response line")
			return
		}
	}
}
