package catalogmanager

import (
	"testing"

	"github.com/mugiliam/unitycatalogsrv/internal/apperrors"
	"github.com/mugiliam/unitycatalogsrv/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVolumes(t *testing.T) {
	ctx, m, _ := newTestManagers(t)
	createCatalogSchemaTable(t, ctx, m, "c1", "s1")

	_, err := m.Volumes.Create(ctx, &api.CreateVolumeRequest{Name: "v1", CatalogName: "c1", SchemaName: "s1", VolumeType: api.VolumeTypeExternal})
	assert.Equal(t, apperrors.KindInvalid, apperrors.KindOf(err))

	v, err := m.Volumes.Create(ctx, &api.CreateVolumeRequest{Name: "v1", CatalogName: "c1", SchemaName: "s1", VolumeType: api.VolumeTypeManaged})
	require.NoError(t, err)
	assert.Equal(t, "c1.s1.v1", v.FullName)

	v, err = m.Volumes.Update(ctx, "c1.s1.v1", &api.UpdateVolumeRequest{NewName: "v2"})
	require.NoError(t, err)
	assert.Equal(t, "c1.s1.v2", v.FullName)

	list, err := m.Volumes.List(ctx, "c1", "s1", ListOptions{})
	require.NoError(t, err)
	require.Len(t, list.Volumes, 1)
	assert.Equal(t, "v2", list.Volumes[0].Name)

	require.NoError(t, m.Volumes.Delete(ctx, "c1.s1.v2"))
	_, err = m.Volumes.Get(ctx, "c1.s1.v2")
	assert.ErrorIs(t, err, ErrVolumeNotFound)
}
