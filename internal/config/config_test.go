package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mugiliam/unitycatalogsrv/internal/apperrors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, 96, cfg.Store.MaxConnections)
	assert.Equal(t, 1, cfg.Store.CursorVersion)
	assert.Equal(t, DefaultMaxPageSize, cfg.Store.MaxPageSize)
	assert.Equal(t, 15*time.Minute, cfg.Sharing.URLExpiration.Duration)
	assert.Equal(t, zerolog.InfoLevel, cfg.Log.LogLevel())
}

func TestParse(t *testing.T) {
	data := `
[store]
backing_store_url = "postgres://uc:uc@localhost:5432/uc"
max_connections = 10
max_page_size = 50
retry_initial_interval = "10ms"
secret_key = "sealing-key"

[server]
listen_address = ":9090"
rate_limit = 5.5
rate_burst = 10

[sharing]
require_authentication = true
url_expiration = "1h"

[log]
level = "debug"
`
	cfg, err := Parse([]byte(data))
	require.NoError(t, err)
	assert.Equal(t, "postgres://uc:uc@localhost:5432/uc", cfg.Store.BackingStoreURL)
	assert.Equal(t, 10, cfg.Store.MaxConnections)
	assert.Equal(t, 50, cfg.Store.MaxPageSize)
	assert.Equal(t, 10*time.Millisecond, cfg.Store.RetryInitialInterval.Duration)
	assert.Equal(t, "sealing-key", cfg.Store.SecretKey)
	assert.Equal(t, ":9090", cfg.Server.ListenAddress)
	assert.Equal(t, 5.5, cfg.Server.RateLimit)
	assert.True(t, cfg.Sharing.RequireAuthentication)
	assert.Equal(t, time.Hour, cfg.Sharing.URLExpiration.Duration)
	assert.Equal(t, zerolog.DebugLevel, cfg.Log.LogLevel())
}

func TestUnknownOptionsRejected(t *testing.T) {
	data := `
[store]
backing_store_url = "sqlite::memory:"
max_conections = 10

[cache]
size = 1
`
	_, err := Parse([]byte(data))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownOptions)
	assert.Contains(t, err.Error(), "store.max_conections")
	assert.Contains(t, err.Error(), "cache.size")
	assert.Equal(t, apperrors.KindInvalid, apperrors.KindOf(err))
}

func TestValidation(t *testing.T) {
	for name, data := range map[string]string{
		"cursor version": "[store]\ncursor_version = 2\n",
		"connections":    "[store]\nmax_connections = 0\n",
		"page size":      "[store]\nmax_page_size = -1\n",
		"log level":      "[log]\nlevel = \"loud\"\n",
		"bad duration":   "[sharing]\nurl_expiration = \"soon\"\n",
		"empty url":      "[store]\nbacking_store_url = \"\"\n",
	} {
		_, err := Parse([]byte(data))
		assert.ErrorIs(t, err, ErrConfig, name)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ucsrv.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server]\nhandle_cors = true\n"), 0o600))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Server.HandleCORS)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, ErrConfig)
}
