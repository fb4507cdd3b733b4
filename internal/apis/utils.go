package apis

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/mugiliam/unitycatalogsrv/internal/catalogmanager"
	"github.com/mugiliam/unitycatalogsrv/internal/httpx"
)

const maxRequestBody = 4 << 20

// decodeRequest reads a JSON body into v.
func decodeRequest(r *http.Request, v any) error {
	if r.Body == nil {
		return httpx.ErrInvalidRequestBody.Msg("missing request body")
	}
	b, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		return httpx.ErrUnableToReadRequest.Err(err)
	}
	if len(b) == 0 {
		return httpx.ErrInvalidRequestBody.Msg("missing request body")
	}
	if err := json.Unmarshal(b, v); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return httpx.ErrInvalidRequestBody.Msg("invalid value for field '" + typeErr.Field + "'")
		}
		return httpx.ErrInvalidRequestBody.Err(err)
	}
	return nil
}

// listOptions reads max_results and page_token.
func listOptions(r *http.Request) (catalogmanager.ListOptions, error) {
	q := r.URL.Query()
	opts := catalogmanager.ListOptions{PageToken: q.Get("page_token")}
	if s := q.Get("max_results"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return opts, httpx.ErrInvalidParameter.Msg("max_results must be a non-negative integer")
		}
		opts.MaxResults = n
	}
	return opts, nil
}

// boolParam reads an optional boolean query parameter.
func boolParam(r *http.Request, name string, def bool) (bool, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return def, httpx.ErrInvalidParameter.Msg(name + " must be true or false")
	}
	return v, nil
}

func nameParam(r *http.Request) string {
	return chi.URLParam(r, "name")
}

func ok(v any) *httpx.Response {
	return &httpx.Response{StatusCode: http.StatusOK, Response: v}
}

func created(location string, v any) *httpx.Response {
	return &httpx.Response{StatusCode: http.StatusCreated, Location: location, Response: v}
}
