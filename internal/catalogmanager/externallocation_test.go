package catalogmanager

import (
	"testing"

	"github.com/mugiliam/unitycatalogsrv/internal/apperrors"
	"github.com/mugiliam/unitycatalogsrv/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExternalLocations(t *testing.T) {
	ctx, m, _ := newTestManagers(t)
	_, err := m.Credentials.Create(ctx, credentialRequest("store", api.CredentialPurposeStorage))
	require.NoError(t, err)
	_, err = m.Credentials.Create(ctx, credentialRequest("store2", api.CredentialPurposeStorage))
	require.NoError(t, err)
	_, err = m.Credentials.Create(ctx, credentialRequest("svc", api.CredentialPurposeService))
	require.NoError(t, err)

	_, err = m.ExternalLocations.Create(ctx, &api.CreateExternalLocationRequest{Name: "loc", URL: "s3://bucket/a", CredentialName: "svc"})
	assert.ErrorIs(t, err, ErrCredentialPurpose)
	assert.Equal(t, apperrors.KindFailedPrecondition, apperrors.KindOf(err))
	_, err = m.ExternalLocations.Create(ctx, &api.CreateExternalLocationRequest{Name: "loc", URL: "s3://bucket/a", CredentialName: "missing"})
	assert.ErrorIs(t, err, ErrCredentialNotFound)

	loc, err := m.ExternalLocations.Create(ctx, &api.CreateExternalLocationRequest{Name: "loc", URL: "s3://bucket/a", CredentialName: "store"})
	require.NoError(t, err)
	assert.Equal(t, "store", loc.CredentialName)
	assert.NotEmpty(t, loc.CredentialID)

	loc, err = m.ExternalLocations.Update(ctx, "loc", &api.UpdateExternalLocationRequest{CredentialName: "store2", URL: "s3://bucket/b"})
	require.NoError(t, err)
	assert.Equal(t, "store2", loc.CredentialName)
	assert.Equal(t, "s3://bucket/b", loc.URL)

	// the old credential is no longer in use
	require.NoError(t, m.Credentials.Delete(ctx, "store", false))

	err = m.Credentials.Delete(ctx, "store2", false)
	assert.ErrorIs(t, err, ErrForceRequired)
	require.NoError(t, m.Credentials.Delete(ctx, "store2", true))
	loc, err = m.ExternalLocations.Get(ctx, "loc")
	require.NoError(t, err)
	assert.Empty(t, loc.CredentialName)

	list, err := m.ExternalLocations.List(ctx, ListOptions{})
	require.NoError(t, err)
	assert.Len(t, list.ExternalLocations, 1)
	require.NoError(t, m.ExternalLocations.Delete(ctx, "loc"))
	assert.ErrorIs(t, m.ExternalLocations.Delete(ctx, "loc"), ErrExternalLocationNotFound)
}
