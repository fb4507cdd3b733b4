// Package sharingapi exposes the sharing projection as the Delta-Sharing REST API.
package sharingapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mugiliam/unitycatalogsrv/internal/httpx"
	"github.com/mugiliam/unitycatalogsrv/internal/metrics"
	"github.com/mugiliam/unitycatalogsrv/internal/sharing"
)

const (
	Prefix = "/api/v1/delta-sharing"

	TableVersionHeader = "Delta-Table-Version"
)

type API struct {
	svc     *sharing.Service
	metrics *metrics.Metrics
}

func New(svc *sharing.Service, m *metrics.Metrics) *API {
	return &API{svc: svc, metrics: m}
}

func (a *API) sharingHandlers() []httpx.RequestHandlerParam {
	const table = "/shares/{share}/schemas/{schema}/tables/{table}"
	return []httpx.RequestHandlerParam{
		{Method: http.MethodGet, Path: "/shares", Handler: a.listShares},
		{Method: http.MethodGet, Path: "/shares/{share}", Handler: a.getShare},
		{Method: http.MethodGet, Path: "/shares/{share}/schemas", Handler: a.listSchemas},
		{Method: http.MethodGet, Path: "/shares/{share}/schemas/{schema}/tables", Handler: a.listSchemaTables},
		{Method: http.MethodGet, Path: "/shares/{share}/all-tables", Handler: a.listAllTables},
		{Method: http.MethodGet, Path: table + "/version", Handler: a.tableVersion},
		{Method: http.MethodGet, Path: table + "/metadata", Handler: a.tableMetadata},
		{Method: http.MethodPost, Path: table + "/query", Handler: a.queryTable},
	}
}

// Router mounts the sharing handlers on r.
func (a *API) Router(r chi.Router) {
	for _, handler := range a.sharingHandlers() {
		r.Method(handler.Method, handler.Path, httpx.WrapHttpRsp(handler.Handler))
	}
}
