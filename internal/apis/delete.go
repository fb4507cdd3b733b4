package apis

import (
	"net/http"

	"github.com/mugiliam/unitycatalogsrv/internal/httpx"
)

// Deletes answer 204 with no body.

func (a *API) deleteCatalog(r *http.Request) (*httpx.Response, error) {
	force, err := boolParam(r, "force", false)
	if err != nil {
		return nil, err
	}
	return nil, a.m.Catalogs.Delete(r.Context(), nameParam(r), force)
}

func (a *API) deleteSchema(r *http.Request) (*httpx.Response, error) {
	force, err := boolParam(r, "force", false)
	if err != nil {
		return nil, err
	}
	return nil, a.m.Schemas.Delete(r.Context(), nameParam(r), force)
}

func (a *API) deleteTable(r *http.Request) (*httpx.Response, error) {
	return nil, a.m.Tables.Delete(r.Context(), nameParam(r))
}

func (a *API) deleteVolume(r *http.Request) (*httpx.Response, error) {
	return nil, a.m.Volumes.Delete(r.Context(), nameParam(r))
}

func (a *API) deleteCredential(r *http.Request) (*httpx.Response, error) {
	force, err := boolParam(r, "force", false)
	if err != nil {
		return nil, err
	}
	return nil, a.m.Credentials.Delete(r.Context(), nameParam(r), force)
}

func (a *API) deleteExternalLocation(r *http.Request) (*httpx.Response, error) {
	return nil, a.m.ExternalLocations.Delete(r.Context(), nameParam(r))
}

func (a *API) deleteShare(r *http.Request) (*httpx.Response, error) {
	return nil, a.m.Shares.Delete(r.Context(), nameParam(r))
}

func (a *API) deleteRecipient(r *http.Request) (*httpx.Response, error) {
	return nil, a.m.Recipients.Delete(r.Context(), nameParam(r))
}
