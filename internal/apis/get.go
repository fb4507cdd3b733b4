package apis

import (
	"net/http"

	"github.com/mugiliam/unitycatalogsrv/internal/httpx"
	"github.com/mugiliam/unitycatalogsrv/pkg/api"
)

func (a *API) getCatalog(r *http.Request) (*httpx.Response, error) {
	info, err := a.m.Catalogs.Get(r.Context(), nameParam(r))
	if err != nil {
		return nil, err
	}
	return ok(info), nil
}

func (a *API) listCatalogs(r *http.Request) (*httpx.Response, error) {
	opts, err := listOptions(r)
	if err != nil {
		return nil, err
	}
	rsp, err := a.m.Catalogs.List(r.Context(), opts)
	if err != nil {
		return nil, err
	}
	return ok(rsp), nil
}

func (a *API) getSchema(r *http.Request) (*httpx.Response, error) {
	info, err := a.m.Schemas.Get(r.Context(), nameParam(r))
	if err != nil {
		return nil, err
	}
	return ok(info), nil
}

func (a *API) listSchemas(r *http.Request) (*httpx.Response, error) {
	opts, err := listOptions(r)
	if err != nil {
		return nil, err
	}
	catalog := r.URL.Query().Get("catalog_name")
	if catalog == "" {
		return nil, httpx.ErrInvalidParameter.Msg("catalog_name is required")
	}
	rsp, err := a.m.Schemas.List(r.Context(), catalog, opts)
	if err != nil {
		return nil, err
	}
	return ok(rsp), nil
}

func (a *API) getTable(r *http.Request) (*httpx.Response, error) {
	info, err := a.m.Tables.Get(r.Context(), nameParam(r))
	if err != nil {
		return nil, err
	}
	return ok(info), nil
}

func (a *API) tableExists(r *http.Request) (*httpx.Response, error) {
	exists, err := a.m.Tables.Exists(r.Context(), nameParam(r))
	if err != nil {
		return nil, err
	}
	return ok(&api.TableExistsResponse{TableExists: exists}), nil
}

func (a *API) listTables(r *http.Request) (*httpx.Response, error) {
	opts, err := listOptions(r)
	if err != nil {
		return nil, err
	}
	q := r.URL.Query()
	catalog, schema := q.Get("catalog_name"), q.Get("schema_name")
	if catalog == "" || schema == "" {
		return nil, httpx.ErrInvalidParameter.Msg("catalog_name and schema_name are required")
	}
	rsp, err := a.m.Tables.List(r.Context(), catalog, schema, opts)
	if err != nil {
		return nil, err
	}
	return ok(rsp), nil
}

func (a *API) listTableSummaries(r *http.Request) (*httpx.Response, error) {
	opts, err := listOptions(r)
	if err != nil {
		return nil, err
	}
	q := r.URL.Query()
	catalog := q.Get("catalog_name")
	if catalog == "" {
		return nil, httpx.ErrInvalidParameter.Msg("catalog_name is required")
	}
	rsp, err := a.m.Tables.ListSummaries(r.Context(), catalog, q.Get("schema_name_pattern"), q.Get("table_name_pattern"), opts)
	if err != nil {
		return nil, err
	}
	return ok(rsp), nil
}

func (a *API) getVolume(r *http.Request) (*httpx.Response, error) {
	info, err := a.m.Volumes.Get(r.Context(), nameParam(r))
	if err != nil {
		return nil, err
	}
	return ok(info), nil
}

func (a *API) listVolumes(r *http.Request) (*httpx.Response, error) {
	opts, err := listOptions(r)
	if err != nil {
		return nil, err
	}
	q := r.URL.Query()
	catalog, schema := q.Get("catalog_name"), q.Get("schema_name")
	if catalog == "" || schema == "" {
		return nil, httpx.ErrInvalidParameter.Msg("catalog_name and schema_name are required")
	}
	rsp, err := a.m.Volumes.List(r.Context(), catalog, schema, opts)
	if err != nil {
		return nil, err
	}
	return ok(rsp), nil
}

func (a *API) getCredential(r *http.Request) (*httpx.Response, error) {
	info, err := a.m.Credentials.Get(r.Context(), nameParam(r))
	if err != nil {
		return nil, err
	}
	return ok(info), nil
}

func (a *API) listCredentials(r *http.Request) (*httpx.Response, error) {
	opts, err := listOptions(r)
	if err != nil {
		return nil, err
	}
	rsp, err := a.m.Credentials.List(r.Context(), r.URL.Query().Get("purpose"), opts)
	if err != nil {
		return nil, err
	}
	return ok(rsp), nil
}

func (a *API) getExternalLocation(r *http.Request) (*httpx.Response, error) {
	info, err := a.m.ExternalLocations.Get(r.Context(), nameParam(r))
	if err != nil {
		return nil, err
	}
	return ok(info), nil
}

func (a *API) listExternalLocations(r *http.Request) (*httpx.Response, error) {
	opts, err := listOptions(r)
	if err != nil {
		return nil, err
	}
	rsp, err := a.m.ExternalLocations.List(r.Context(), opts)
	if err != nil {
		return nil, err
	}
	return ok(rsp), nil
}

func (a *API) getShare(r *http.Request) (*httpx.Response, error) {
	include, err := boolParam(r, "include_shared_data", true)
	if err != nil {
		return nil, err
	}
	info, err := a.m.Shares.Get(r.Context(), nameParam(r), include)
	if err != nil {
		return nil, err
	}
	return ok(info), nil
}

func (a *API) listShares(r *http.Request) (*httpx.Response, error) {
	opts, err := listOptions(r)
	if err != nil {
		return nil, err
	}
	rsp, err := a.m.Shares.List(r.Context(), opts)
	if err != nil {
		return nil, err
	}
	return ok(rsp), nil
}

func (a *API) getSharePermissions(r *http.Request) (*httpx.Response, error) {
	opts, err := listOptions(r)
	if err != nil {
		return nil, err
	}
	rsp, err := a.m.Shares.GetPermissions(r.Context(), nameParam(r), opts)
	if err != nil {
		return nil, err
	}
	return ok(rsp), nil
}

func (a *API) getRecipient(r *http.Request) (*httpx.Response, error) {
	info, err := a.m.Recipients.Get(r.Context(), nameParam(r))
	if err != nil {
		return nil, err
	}
	return ok(info), nil
}

func (a *API) listRecipients(r *http.Request) (*httpx.Response, error) {
	opts, err := listOptions(r)
	if err != nil {
		return nil, err
	}
	rsp, err := a.m.Recipients.List(r.Context(), opts)
	if err != nil {
		return nil, err
	}
	return ok(rsp), nil
}
