package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

const sample = `
app:
  env: dev
server:
  addr: ":9090"
  base_url: "https://login.example.com/"
token_store:
  driver: redis
  ttl: 5m
  redis:
    addr: "localhost:6379"
providers:
  github:
    client_id: gh-id
    client_secret: gh-secret
  twitter:
    client_id: tw-key
    client_secret: tw-secret
    redirect_uri: "https://other.example.com/cb"
  corp:
    type: oauth2
    client_id: corp-id
    auth_url: https://idp.corp/authorize
    token_url: https://idp.corp/token
    userinfo_url: https://idp.corp/userinfo
    fields:
      id: uid
  legacy:
    type: github
    disabled: true
    client_id: x
`

func TestLoad(t *testing.T) {
	cfg, err := Load(writeFile(t, "authbridge.yaml", sample))
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "redis", cfg.TokenStore.Driver)
	assert.Equal(t, 5*time.Minute, cfg.TokenStore.TTL)
	assert.Equal(t, "authbridge", cfg.TokenStore.Redis.Prefix)
	assert.Equal(t, "random", cfg.State.Driver)
	assert.Equal(t, "authbridge_session", cfg.Session.CookieName)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 30, cfg.RateLimit.Max)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)

	assert.Equal(t, []string{"corp", "github", "twitter"}, cfg.ProviderNames())
	gh := cfg.Providers["github"]
	assert.Equal(t, "github", gh.Type)
	assert.Equal(t, "https://login.example.com/auth/github/callback", gh.RedirectURI)
	assert.Equal(t, "https://other.example.com/cb", cfg.Providers["twitter"].RedirectURI)

	oc := cfg.Providers["corp"].OAuth("corp")
	assert.Equal(t, "corp", oc.Name)
	assert.Equal(t, "uid", oc.Fields["id"])
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("AUTHBRIDGE_SERVER_ADDR", ":7000")
	t.Setenv("AUTHBRIDGE_TOKEN_STORE_DRIVER", "memory")
	t.Setenv("AUTHBRIDGE_TOKEN_STORE_REDIS_DB", "3")
	t.Setenv("AUTHBRIDGE_STATE_TTL", "2m")
	t.Setenv("AUTHBRIDGE_RATE_LIMIT_ENABLED", "true")
	t.Setenv("AUTHBRIDGE_PROVIDERS_GITHUB_CLIENT_SECRET", "from-env")

	cfg, err := Load(writeFile(t, "authbridge.yaml", sample))
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, "memory", cfg.TokenStore.Driver)
	assert.Equal(t, 3, cfg.TokenStore.Redis.DB)
	assert.Equal(t, 2*time.Minute, cfg.State.TTL)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, "from-env", cfg.Providers["github"].ClientSecret)
	assert.Equal(t, "https://login.example.com/", cfg.Server.BaseURL)
}

func TestLoadWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.TokenStore.Driver)
	assert.Empty(t, cfg.ProviderNames())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"bad driver", "token_store:\n  driver: etcd\n", "token_store.driver"},
		{"postgres without dsn", "token_store:\n  driver: postgres\n", "postgres.dsn"},
		{"signed without key", "state:\n  driver: signed\n  signing_key: short\n", "signing_key"},
		{"prod without hash key", "app:\n  env: prod\n", "hash_key"},
		{"session without encryption", "token_store:\n  driver: session\n", "session.block_key"},
		{"bad seal key", "token_store:\n  seal_key: nope\n", "seal_key"},
		{"provider type", "providers:\n  foo:\n    client_id: x\n    redirect_uri: https://a/cb\n", `type inválido: "foo"`},
		{"oauth2 endpoints", "providers:\n  corp:\n    type: oauth2\n    client_id: x\n    redirect_uri: https://a/cb\n", "userinfo_url"},
		{"twitter secret", "providers:\n  twitter:\n    client_id: x\n    redirect_uri: https://a/cb\n", "client_secret"},
		{"redirect", "providers:\n  github:\n    client_id: x\n", "redirect_uri"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, "c.yaml", tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSessionDriverWithEncryption(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"block key", "token_store:\n  driver: session\nsession:\n  block_key: " + strings.Repeat("b", 32) + "\n"},
		{"seal key", "token_store:\n  driver: session\n  seal_key: " + strings.Repeat("k", 32) + "\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeFile(t, "c.yaml", tt.yaml))
			require.NoError(t, err)
			assert.Equal(t, "session", cfg.TokenStore.Driver)
			assert.True(t, cfg.SessionEncrypted())
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	p := writeFile(t, ".env", "AUTHBRIDGE_TEST_DOTENV=hello\n")
	t.Setenv("AUTHBRIDGE_TEST_DOTENV_KEEP", "kept")
	t.Cleanup(func() { os.Unsetenv("AUTHBRIDGE_TEST_DOTENV") })

	require.NoError(t, LoadDotEnv(p, filepath.Join(t.TempDir(), "missing.env")))
	assert.Equal(t, "hello", os.Getenv("AUTHBRIDGE_TEST_DOTENV"))
	assert.Equal(t, "kept", os.Getenv("AUTHBRIDGE_TEST_DOTENV_KEEP"))
}

func TestEnvName(t *testing.T) {
	assert.Equal(t, "MY_CORP_SSO", envName("my-corp.sso"))
	assert.True(t, strings.HasPrefix(EnvPrefix, "AUTHBRIDGE"))
}
