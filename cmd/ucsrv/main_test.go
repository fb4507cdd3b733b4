package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "UnityCatalogSrv")
	assert.Contains(t, out, "API 2.1")
}

func TestMigrateAndBootstrap(t *testing.T) {
	dir := t.TempDir()
	config := writeFile(t, dir, "ucsrv.toml", `
[store]
backing_store_url = "sqlite:`+filepath.Join(dir, "catalog.db")+`"

[log]
level = "disabled"
`)
	seed := writeFile(t, dir, "seed.yaml", `
catalogs:
  - name: c1
    schemas:
      - name: s
shares:
  - name: sh
recipients:
  - name: r1
    shares: [sh]
`)

	_, err := run(t, "migrate", "--config", config)
	require.NoError(t, err)

	out, err := run(t, "bootstrap", "--config", config, "--seed", seed)
	require.NoError(t, err)
	assert.Contains(t, out, "created 4, skipped 0")
	assert.Contains(t, out, "recipient r1 bearer token: ")

	out, err = run(t, "bootstrap", "--config", config, "--seed", seed)
	require.NoError(t, err)
	assert.Contains(t, out, "created 0, skipped 4")
}

func TestBadConfig(t *testing.T) {
	dir := t.TempDir()
	config := writeFile(t, dir, "ucsrv.toml", "[store]\nnot_an_option = 1\n")
	_, err := run(t, "migrate", "--config", config)
	assert.Error(t, err)

	_, err = run(t, "bootstrap")
	assert.Error(t, err)
}
