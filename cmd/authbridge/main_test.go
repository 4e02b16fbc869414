package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
app:
  env: dev
server:
  base_url: http://localhost:8080
providers:
  github:
    client_id: gh-id
    client_secret: gh-secret
  twitter:
    client_id: tw-key
    client_secret: tw-secret
  legacy:
    type: github
    client_id: x
    disabled: true
`

func TestProvidersCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "authbridge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o600))

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"providers", "--config", path, "--env-file", filepath.Join(dir, ".env"), "--out", "json"})
	require.NoError(t, cmd.Execute())

	var got []map[string]string
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "github", got[0]["name"])
	assert.Equal(t, "http://localhost:8080/auth/github/callback", got[0]["redirect_uri"])
	assert.Equal(t, "twitter", got[1]["type"])
}

func TestProvidersCommandInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "authbridge.yaml")
	require.NoError(t, os.WriteFile(path, []byte("providers:\n  github: {}\n"), 0o600))

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"providers", "--config", path, "--env-file", filepath.Join(dir, ".env")})
	assert.Error(t, cmd.Execute())
}
