package apis

import (
	"net/http"

	"github.com/mugiliam/unitycatalogsrv/internal/httpx"
	"github.com/mugiliam/unitycatalogsrv/pkg/api"
)

func (a *API) updateCatalog(r *http.Request) (*httpx.Response, error) {
	req := &api.UpdateCatalogRequest{}
	if err := decodeRequest(r, req); err != nil {
		return nil, err
	}
	info, err := a.m.Catalogs.Update(r.Context(), nameParam(r), req)
	if err != nil {
		return nil, err
	}
	return ok(info), nil
}

func (a *API) updateSchema(r *http.Request) (*httpx.Response, error) {
	req := &api.UpdateSchemaRequest{}
	if err := decodeRequest(r, req); err != nil {
		return nil, err
	}
	info, err := a.m.Schemas.Update(r.Context(), nameParam(r), req)
	if err != nil {
		return nil, err
	}
	return ok(info), nil
}

func (a *API) updateTable(r *http.Request) (*httpx.Response, error) {
	req := &api.UpdateTableRequest{}
	if err := decodeRequest(r, req); err != nil {
		return nil, err
	}
	info, err := a.m.Tables.Update(r.Context(), nameParam(r), req)
	if err != nil {
		return nil, err
	}
	return ok(info), nil
}

func (a *API) commitTable(r *http.Request) (*httpx.Response, error) {
	req := &api.CommitTableRequest{}
	if err := decodeRequest(r, req); err != nil {
		return nil, err
	}
	rsp, err := a.m.Tables.Commit(r.Context(), nameParam(r), req)
	if err != nil {
		return nil, err
	}
	return ok(rsp), nil
}

func (a *API) updateVolume(r *http.Request) (*httpx.Response, error) {
	req := &api.UpdateVolumeRequest{}
	if err := decodeRequest(r, req); err != nil {
		return nil, err
	}
	info, err := a.m.Volumes.Update(r.Context(), nameParam(r), req)
	if err != nil {
		return nil, err
	}
	return ok(info), nil
}

func (a *API) updateCredential(r *http.Request) (*httpx.Response, error) {
	req := &api.UpdateCredentialRequest{}
	if err := decodeRequest(r, req); err != nil {
		return nil, err
	}
	info, err := a.m.Credentials.Update(r.Context(), nameParam(r), req)
	if err != nil {
		return nil, err
	}
	return ok(info), nil
}

func (a *API) updateExternalLocation(r *http.Request) (*httpx.Response, error) {
	req := &api.UpdateExternalLocationRequest{}
	if err := decodeRequest(r, req); err != nil {
		return nil, err
	}
	info, err := a.m.ExternalLocations.Update(r.Context(), nameParam(r), req)
	if err != nil {
		return nil, err
	}
	return ok(info), nil
}

func (a *API) updateShare(r *http.Request) (*httpx.Response, error) {
	req := &api.UpdateShareRequest{}
	if err := decodeRequest(r, req); err != nil {
		return nil, err
	}
	info, err := a.m.Shares.Update(r.Context(), nameParam(r), req)
	if err != nil {
		return nil, err
	}
	return ok(info), nil
}

func (a *API) updateSharePermissions(r *http.Request) (*httpx.Response, error) {
	req := &api.UpdateSharePermissionsRequest{}
	if err := decodeRequest(r, req); err != nil {
		return nil, err
	}
	rsp, err := a.m.Shares.UpdatePermissions(r.Context(), nameParam(r), req)
	if err != nil {
		return nil, err
	}
	return ok(rsp), nil
}

func (a *API) updateRecipient(r *http.Request) (*httpx.Response, error) {
	req := &api.UpdateRecipientRequest{}
	if err := decodeRequest(r, req); err != nil {
		return nil, err
	}
	info, err := a.m.Recipients.Update(r.Context(), nameParam(r), req)
	if err != nil {
		return nil, err
	}
	return ok(info), nil
}

func (a *API) rotateRecipientToken(r *http.Request) (*httpx.Response, error) {
	req := &api.RotateRecipientTokenRequest{}
	if err := decodeRequest(r, req); err != nil {
		return nil, err
	}
	info, err := a.m.Recipients.RotateToken(r.Context(), nameParam(r), req)
	if err != nil {
		return nil, err
	}
	return ok(info), nil
}
