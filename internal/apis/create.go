package apis

import (
	"net/http"

	"github.com/mugiliam/unitycatalogsrv/internal/httpx"
	"github.com/mugiliam/unitycatalogsrv/pkg/api"
)

func (a *API) createCatalog(r *http.Request) (*httpx.Response, error) {
	req := &api.CreateCatalogRequest{}
	if err := decodeRequest(r, req); err != nil {
		return nil, err
	}
	info, err := a.m.Catalogs.Create(r.Context(), req)
	if err != nil {
		return nil, err
	}
	return created(Prefix+"/catalogs/"+info.Name, info), nil
}

func (a *API) createSchema(r *http.Request) (*httpx.Response, error) {
	req := &api.CreateSchemaRequest{}
	if err := decodeRequest(r, req); err != nil {
		return nil, err
	}
	info, err := a.m.Schemas.Create(r.Context(), req)
	if err != nil {
		return nil, err
	}
	return created(Prefix+"/schemas/"+info.FullName, info), nil
}

func (a *API) createTable(r *http.Request) (*httpx.Response, error) {
	req := &api.CreateTableRequest{}
	if err := decodeRequest(r, req); err != nil {
		return nil, err
	}
	info, err := a.m.Tables.Create(r.Context(), req)
	if err != nil {
		return nil, err
	}
	return created(Prefix+"/tables/"+info.FullName, info), nil
}

func (a *API) createVolume(r *http.Request) (*httpx.Response, error) {
	req := &api.CreateVolumeRequest{}
	if err := decodeRequest(r, req); err != nil {
		return nil, err
	}
	info, err := a.m.Volumes.Create(r.Context(), req)
	if err != nil {
		return nil, err
	}
	return created(Prefix+"/volumes/"+info.FullName, info), nil
}

func (a *API) createCredential(r *http.Request) (*httpx.Response, error) {
	req := &api.CreateCredentialRequest{}
	if err := decodeRequest(r, req); err != nil {
		return nil, err
	}
	info, err := a.m.Credentials.Create(r.Context(), req)
	if err != nil {
		return nil, err
	}
	return created(Prefix+"/credentials/"+info.Name, info), nil
}

func (a *API) createExternalLocation(r *http.Request) (*httpx.Response, error) {
	req := &api.CreateExternalLocationRequest{}
	if err := decodeRequest(r, req); err != nil {
		return nil, err
	}
	info, err := a.m.ExternalLocations.Create(r.Context(), req)
	if err != nil {
		return nil, err
	}
	return created(Prefix+"/external-locations/"+info.Name, info), nil
}

func (a *API) createShare(r *http.Request) (*httpx.Response, error) {
	req := &api.CreateShareRequest{}
	if err := decodeRequest(r, req); err != nil {
		return nil, err
	}
	info, err := a.m.Shares.Create(r.Context(), req)
	if err != nil {
		return nil, err
	}
	return created(Prefix+"/shares/"+info.Name, info), nil
}

// The bearer token of a TOKEN recipient is only returned here and by rotate-token.
func (a *API) createRecipient(r *http.Request) (*httpx.Response, error) {
	req := &api.CreateRecipientRequest{}
	if err := decodeRequest(r, req); err != nil {
		return nil, err
	}
	info, err := a.m.Recipients.Create(r.Context(), req)
	if err != nil {
		return nil, err
	}
	return created(Prefix+"/recipients/"+info.Name, info), nil
}
