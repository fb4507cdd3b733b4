package sharingapi

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mugiliam/unitycatalogsrv/internal/httpx"
	"github.com/mugiliam/unitycatalogsrv/internal/sharing"
	"github.com/mugiliam/unitycatalogsrv/pkg/api"
)

// listOptions reads maxResults and pageToken. The snake_case spellings of the
// management API are accepted too.
func listOptions(r *http.Request) (sharing.ListOptions, error) {
	q := r.URL.Query()
	opts := sharing.ListOptions{PageToken: q.Get("pageToken")}
	if opts.PageToken == "" {
		opts.PageToken = q.Get("page_token")
	}
	s := q.Get("maxResults")
	if s == "" {
		s = q.Get("max_results")
	}
	if s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return opts, httpx.ErrInvalidParameter.Msg("maxResults must be a non-negative integer")
		}
		opts.MaxResults = n
	}
	return opts, nil
}

type tableRef struct {
	share, schema, table string
}

func tableParams(r *http.Request) tableRef {
	return tableRef{
		share:  chi.URLParam(r, "share"),
		schema: chi.URLParam(r, "schema"),
		table:  chi.URLParam(r, "table"),
	}
}

func versionHeader(v int64) http.Header {
	return http.Header{TableVersionHeader: []string{sharing.FormatVersion(v)}}
}

func (a *API) listShares(r *http.Request) (*httpx.Response, error) {
	opts, err := listOptions(r)
	if err != nil {
		return nil, err
	}
	rsp, err := a.svc.ListShares(r.Context(), opts)
	if err != nil {
		return nil, err
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: rsp}, nil
}

func (a *API) getShare(r *http.Request) (*httpx.Response, error) {
	rsp, err := a.svc.GetShare(r.Context(), chi.URLParam(r, "share"))
	if err != nil {
		return nil, err
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: rsp}, nil
}

func (a *API) listSchemas(r *http.Request) (*httpx.Response, error) {
	opts, err := listOptions(r)
	if err != nil {
		return nil, err
	}
	rsp, err := a.svc.ListSchemas(r.Context(), chi.URLParam(r, "share"), opts)
	if err != nil {
		return nil, err
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: rsp}, nil
}

func (a *API) listSchemaTables(r *http.Request) (*httpx.Response, error) {
	opts, err := listOptions(r)
	if err != nil {
		return nil, err
	}
	rsp, err := a.svc.ListSchemaTables(r.Context(), chi.URLParam(r, "share"), chi.URLParam(r, "schema"), opts)
	if err != nil {
		return nil, err
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: rsp}, nil
}

func (a *API) listAllTables(r *http.Request) (*httpx.Response, error) {
	opts, err := listOptions(r)
	if err != nil {
		return nil, err
	}
	rsp, err := a.svc.ListAllTables(r.Context(), chi.URLParam(r, "share"), opts)
	if err != nil {
		return nil, err
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: rsp}, nil
}

func (a *API) tableVersion(r *http.Request) (*httpx.Response, error) {
	t := tableParams(r)
	var starting *time.Time
	if s := r.URL.Query().Get("startingTimestamp"); s != "" {
		ts, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return nil, httpx.ErrInvalidParameter.Msg("startingTimestamp must be an RFC 3339 timestamp")
		}
		starting = &ts
	}
	a.metrics.SharingRead("version")
	v, err := a.svc.TableVersion(r.Context(), t.share, t.schema, t.table, starting)
	if err != nil {
		return nil, err
	}
	return &httpx.Response{StatusCode: http.StatusOK, Header: versionHeader(v)}, nil
}

func (a *API) tableMetadata(r *http.Request) (*httpx.Response, error) {
	if _, err := sharing.ParseCapabilities(r.Header.Get(sharing.CapabilitiesHeader)); err != nil {
		return nil, err
	}
	t := tableParams(r)
	a.metrics.SharingRead("metadata")
	res, err := a.svc.TableMetadata(r.Context(), t.share, t.schema, t.table)
	if err != nil {
		return nil, err
	}
	return &httpx.Response{StatusCode: http.StatusOK, Header: versionHeader(res.Version), Lines: res.Actions()}, nil
}

func (a *API) queryTable(r *http.Request) (*httpx.Response, error) {
	if _, err := sharing.ParseCapabilities(r.Header.Get(sharing.CapabilitiesHeader)); err != nil {
		return nil, err
	}
	req := &api.QueryTableRequest{}
	if r.Body != nil {
		b, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		if err != nil {
			return nil, httpx.ErrUnableToReadRequest.Err(err)
		}
		if len(b) > 0 {
			if err := json.Unmarshal(b, req); err != nil {
				return nil, httpx.ErrInvalidRequestBody.Err(err)
			}
		}
	}
	t := tableParams(r)
	a.metrics.SharingRead("query")
	res, err := a.svc.QueryTable(r.Context(), t.share, t.schema, t.table, req)
	if err != nil {
		return nil, err
	}
	return &httpx.Response{StatusCode: http.StatusOK, Header: versionHeader(res.Version), Lines: res.Actions()}, nil
}
