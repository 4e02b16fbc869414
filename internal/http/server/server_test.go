package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dropDatabas3/authbridge/internal/config"
	"github.com/dropDatabas3/authbridge/internal/observability/logger"
)

// newIdentityProvider fakes an OAuth2 server with token and userinfo endpoints.
func newIdentityProvider(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.PostForm.Get("code") != "good-code" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at-1","token_type":"bearer"}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sub":"42","name":"Ada","preferred_username":"ada","email":"ada@example.com"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(idp string) *config.Config {
	cfg := &config.Config{
		App:     config.AppConfig{Env: "test", Name: "authbridge", Version: "v0.0.0-test"},
		Session: config.SessionConfig{CookieName: "authbridge_session", HashKey: strings.Repeat("h", 32)},
		TokenStore: config.TokenStoreConfig{
			Driver:  "memory",
			SealKey: strings.Repeat("k", 32),
		},
		State: config.StateConfig{Driver: "signed", SigningKey: strings.Repeat("s", 32)},
		Providers: map[string]config.ProviderConfig{
			"example": {
				Type:        "oauth2",
				ClientID:    "cid",
				RedirectURI: "http://app.test/auth/example/callback",
				AuthURL:     idp + "/authorize",
				TokenURL:    idp + "/token",
				UserInfoURL: idp + "/userinfo",
			},
			"off": {Type: "github", ClientID: "x", Disabled: true},
		},
	}
	cfg.TokenStore.Redis.Prefix = "test"
	return cfg
}

type harness struct {
	app    *App
	jar    []*http.Cookie
	server *httptest.Server
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	restore := logger.Replace(zap.NewNop())
	t.Cleanup(restore)

	idp := newIdentityProvider(t)
	app, err := Build(context.Background(), testConfig(idp.URL), Options{
		Registry:   prometheus.NewRegistry(),
		HTTPClient: idp.Client(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	srv := httptest.NewServer(app.Handler)
	t.Cleanup(srv.Close)
	return &harness{app: app, server: srv}
}

func (h *harness) do(t *testing.T, method, path string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, h.server.URL+path, nil)
	require.NoError(t, err)
	for _, c := range h.jar {
		req.AddCookie(c)
	}
	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	resp, err := client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	if cookies := resp.Cookies(); len(cookies) > 0 {
		h.jar = cookies
	}
	return resp
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func (h *harness) login(t *testing.T) string {
	t.Helper()
	resp := h.do(t, http.MethodGet, "/auth/example/login")
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
	loc, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	state := loc.Query().Get("state")
	require.NotEmpty(t, state)
	return state
}

func TestLoginAndCallback(t *testing.T) {
	h := newHarness(t)
	state := h.login(t)

	resp := h.do(t, http.MethodGet, "/auth/example/callback?code=good-code&state="+url.QueryEscape(state))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, "example", body["provider"])
	assert.Equal(t, "42", body["id"])
	assert.Equal(t, "ada@example.com", body["email"])

	// Replay with the same state fails: it was consumed.
	resp = h.do(t, http.MethodGet, "/auth/example/callback?code=good-code&state="+url.QueryEscape(state))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "CALLBACK_INVALID", decode(t, resp)["code"])
}

func TestCallbackFailures(t *testing.T) {
	tests := []struct {
		name   string
		query  func(state string) string
		status int
		code   string
	}{
		{"state mismatch", func(string) string { return "code=good-code&state=forged" }, http.StatusBadRequest, "CALLBACK_INVALID"},
		{"missing code", func(s string) string { return "state=" + url.QueryEscape(s) }, http.StatusBadRequest, "CALLBACK_INVALID"},
		{"denied", func(string) string { return "error=access_denied" }, http.StatusForbidden, "ACCESS_DENIED"},
		{"provider error", func(string) string { return "error=server_error&error_description=down" }, http.StatusBadGateway, "PROVIDER_ERROR"},
		{"exchange rejected", func(s string) string { return "code=bad-code&state=" + url.QueryEscape(s) }, http.StatusBadGateway, "PROVIDER_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			state := h.login(t)

			resp := h.do(t, http.MethodGet, "/auth/example/callback?"+tt.query(state))
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.code, decode(t, resp)["code"])
		})
	}
}

func TestCallbackWithoutSession(t *testing.T) {
	h := newHarness(t)
	resp := h.do(t, http.MethodGet, "/auth/example/callback?code=good-code&state=abc")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUnknownProvider(t *testing.T) {
	h := newHarness(t)
	resp := h.do(t, http.MethodGet, "/auth/off/login")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "PROVIDER_NOT_FOUND", decode(t, resp)["code"])
}

func TestProvidersAndHealth(t *testing.T) {
	h := newHarness(t)

	resp := h.do(t, http.MethodGet, "/auth/providers")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	providers := decode(t, resp)["providers"].([]any)
	require.Len(t, providers, 1)
	assert.Equal(t, "example", providers[0].(map[string]any)["name"])

	resp = h.do(t, http.MethodGet, "/healthz")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "ok", body["components"].(map[string]any)["cache"])
}

func TestMetricsEndpoint(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	resp := h.do(t, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var sb strings.Builder
	_, _ = io.Copy(&sb, resp.Body)
	assert.Contains(t, sb.String(), "authbridge_flow_transitions_total")
}

func TestLoginRateLimit(t *testing.T) {
	restore := logger.Replace(zap.NewNop())
	t.Cleanup(restore)

	idp := newIdentityProvider(t)
	cfg := testConfig(idp.URL)
	cfg.RateLimit = config.RateLimitConfig{Enabled: true, Max: 1, Window: time.Hour}
	app, err := Build(context.Background(), cfg, Options{Registry: prometheus.NewRegistry(), HTTPClient: idp.Client()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	srv := httptest.NewServer(app.Handler)
	t.Cleanup(srv.Close)
	h := &harness{app: app, server: srv}

	h.login(t)
	resp := h.do(t, http.MethodGet, "/auth/example/login")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestBuildRegistryUnknownType(t *testing.T) {
	cfg := testConfig("http://idp.test")
	cfg.Providers["weird"] = config.ProviderConfig{Type: "saml", ClientID: "x"}
	_, err := BuildRegistry(cfg)
	assert.Error(t, err)
}
