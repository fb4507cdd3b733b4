// Package apis exposes the resource managers as the management REST API.
package apis

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mugiliam/unitycatalogsrv/internal/catalogmanager"
	"github.com/mugiliam/unitycatalogsrv/internal/httpx"
)

const Prefix = "/api/2.1/unity-catalog"

type API struct {
	m *catalogmanager.Managers
}

func New(m *catalogmanager.Managers) *API {
	return &API{m: m}
}

func (a *API) resourceHandlers() []httpx.RequestHandlerParam {
	return []httpx.RequestHandlerParam{
		{Method: http.MethodPost, Path: "/catalogs", Handler: a.createCatalog},
		{Method: http.MethodGet, Path: "/catalogs", Handler: a.listCatalogs},
		{Method: http.MethodGet, Path: "/catalogs/{name}", Handler: a.getCatalog},
		{Method: http.MethodPatch, Path: "/catalogs/{name}", Handler: a.updateCatalog},
		{Method: http.MethodDelete, Path: "/catalogs/{name}", Handler: a.deleteCatalog},

		{Method: http.MethodPost, Path: "/schemas", Handler: a.createSchema},
		{Method: http.MethodGet, Path: "/schemas", Handler: a.listSchemas},
		{Method: http.MethodGet, Path: "/schemas/{name}", Handler: a.getSchema},
		{Method: http.MethodPatch, Path: "/schemas/{name}", Handler: a.updateSchema},
		{Method: http.MethodDelete, Path: "/schemas/{name}", Handler: a.deleteSchema},

		{Method: http.MethodPost, Path: "/tables", Handler: a.createTable},
		{Method: http.MethodGet, Path: "/tables", Handler: a.listTables},
		{Method: http.MethodGet, Path: "/tables/{name}", Handler: a.getTable},
		{Method: http.MethodGet, Path: "/tables/{name}/exists", Handler: a.tableExists},
		{Method: http.MethodPatch, Path: "/tables/{name}", Handler: a.updateTable},
		{Method: http.MethodPost, Path: "/tables/{name}/commits", Handler: a.commitTable},
		{Method: http.MethodDelete, Path: "/tables/{name}", Handler: a.deleteTable},
		{Method: http.MethodGet, Path: "/table-summaries", Handler: a.listTableSummaries},

		{Method: http.MethodPost, Path: "/volumes", Handler: a.createVolume},
		{Method: http.MethodGet, Path: "/volumes", Handler: a.listVolumes},
		{Method: http.MethodGet, Path: "/volumes/{name}", Handler: a.getVolume},
		{Method: http.MethodPatch, Path: "/volumes/{name}", Handler: a.updateVolume},
		{Method: http.MethodDelete, Path: "/volumes/{name}", Handler: a.deleteVolume},

		{Method: http.MethodPost, Path: "/credentials", Handler: a.createCredential},
		{Method: http.MethodGet, Path: "/credentials", Handler: a.listCredentials},
		{Method: http.MethodGet, Path: "/credentials/{name}", Handler: a.getCredential},
		{Method: http.MethodPatch, Path: "/credentials/{name}", Handler: a.updateCredential},
		{Method: http.MethodDelete, Path: "/credentials/{name}", Handler: a.deleteCredential},

		{Method: http.MethodPost, Path: "/external-locations", Handler: a.createExternalLocation},
		{Method: http.MethodGet, Path: "/external-locations", Handler: a.listExternalLocations},
		{Method: http.MethodGet, Path: "/external-locations/{name}", Handler: a.getExternalLocation},
		{Method: http.MethodPatch, Path: "/external-locations/{name}", Handler: a.updateExternalLocation},
		{Method: http.MethodDelete, Path: "/external-locations/{name}", Handler: a.deleteExternalLocation},

		{Method: http.MethodPost, Path: "/shares", Handler: a.createShare},
		{Method: http.MethodGet, Path: "/shares", Handler: a.listShares},
		{Method: http.MethodGet, Path: "/shares/{name}", Handler: a.getShare},
		{Method: http.MethodPatch, Path: "/shares/{name}", Handler: a.updateShare},
		{Method: http.MethodDelete, Path: "/shares/{name}", Handler: a.deleteShare},
		{Method: http.MethodGet, Path: "/shares/{name}/permissions", Handler: a.getSharePermissions},
		{Method: http.MethodPatch, Path: "/shares/{name}/permissions", Handler: a.updateSharePermissions},

		{Method: http.MethodPost, Path: "/recipients", Handler: a.createRecipient},
		{Method: http.MethodGet, Path: "/recipients", Handler: a.listRecipients},
		{Method: http.MethodGet, Path: "/recipients/{name}", Handler: a.getRecipient},
		{Method: http.MethodPatch, Path: "/recipients/{name}", Handler: a.updateRecipient},
		{Method: http.MethodPost, Path: "/recipients/{name}/rotate-token", Handler: a.rotateRecipientToken},
		{Method: http.MethodDelete, Path: "/recipients/{name}", Handler: a.deleteRecipient},
	}
}

// Router mounts the management handlers on r.
func (a *API) Router(r chi.Router) {
	for _, handler := range a.resourceHandlers() {
		r.Method(handler.Method, handler.Path, httpx.WrapHttpRsp(handler.Handler))
	}
}
