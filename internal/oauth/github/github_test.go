package github

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/authbridge/internal/oauth"
)

func newServer(t *testing.T, user string, emailsStatus int, emails string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(user))
	})
	mux.HandleFunc("/user/emails", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(emailsStatus)
		_, _ = w.Write([]byte(emails))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := New(oauth.ProviderConfig{
		Name:        "github",
		ClientID:    "cid",
		UserInfoURL: srv.URL + "/user",
		Extra:       map[string]string{"emails_url": srv.URL + "/user/emails"},
	}, srv.Client(), nil)
	require.NoError(t, err)
	return c
}

func token(t *testing.T) *oauth.AccessToken {
	t.Helper()
	tok, err := oauth.NewAccessToken(map[string]any{"access_token": "gho_x"}, time.Now())
	require.NoError(t, err)
	return tok
}

func TestResourceOwnerPublicEmail(t *testing.T) {
	srv := newServer(t, `{"id":1,"login":"octocat","name":"The Octocat","email":"octo@github.com"}`, http.StatusOK, `[]`)

	owner, err := newClient(t, srv).ResourceOwner(context.Background(), token(t))
	require.NoError(t, err)
	assert.Equal(t, "1", owner.ID())
	assert.Equal(t, "octocat", owner.ScreenName())
	assert.Equal(t, "The Octocat", owner.Name())
	email, ok := owner.Email()
	assert.True(t, ok)
	assert.Equal(t, "octo@github.com", email)
}

func TestResourceOwnerEmailFallback(t *testing.T) {
	srv := newServer(t, `{"id":1,"login":"octocat","email":null}`, http.StatusOK,
		`[{"email":"old@example.com","primary":false,"verified":true},{"email":"main@example.com","primary":true,"verified":true}]`)

	owner, err := newClient(t, srv).ResourceOwner(context.Background(), token(t))
	require.NoError(t, err)
	email, ok := owner.Email()
	assert.True(t, ok)
	assert.Equal(t, "main@example.com", email)
}

func TestResourceOwnerUnverifiedEmailAbsent(t *testing.T) {
	srv := newServer(t, `{"id":1,"login":"octocat","email":null}`, http.StatusOK,
		`[{"email":"victim@example.com","primary":true,"verified":false}]`)

	owner, err := newClient(t, srv).ResourceOwner(context.Background(), token(t))
	require.NoError(t, err)
	_, ok := owner.Email()
	assert.False(t, ok)
}

func TestResourceOwnerEmailForbidden(t *testing.T) {
	srv := newServer(t, `{"id":1,"login":"octocat"}`, http.StatusForbidden, `{"message":"scope"}`)

	owner, err := newClient(t, srv).ResourceOwner(context.Background(), token(t))
	require.NoError(t, err)
	_, ok := owner.Email()
	assert.False(t, ok)
}

func TestPrimaryEmailOrder(t *testing.T) {
	tests := []struct {
		name   string
		emails string
		want   string
		err    error
	}{
		{"verified over unverified", `[{"email":"a@x","verified":false},{"email":"b@x","verified":true}]`, "b@x", nil},
		{"unverified primary ignored", `[{"email":"a@x","primary":true,"verified":false},{"email":"b@x","verified":true}]`, "b@x", nil},
		{"none verified", `[{"email":"a@x","primary":true},{"email":"b@x"}]`, "", ErrNoEmail},
		{"empty list", `[]`, "", ErrNoEmail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServer(t, `{}`, http.StatusOK, tt.emails)
			info, err := newClient(t, srv).PrimaryEmail(context.Background(), token(t))
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, info.Email)
		})
	}
}

func TestFactoryDefaults(t *testing.T) {
	p, err := Factory(oauth.ProviderConfig{Name: "github", ClientID: "cid", RedirectURI: "https://app/cb"}, oauth.Deps{})
	require.NoError(t, err)

	u, err := p.AuthorizationURL(context.Background(), oauth.AuthorizationOptions{})
	require.NoError(t, err)
	assert.Contains(t, u, authEndpoint)
	assert.Contains(t, u, "scope=user%3Aemail+read%3Auser")
	assert.NotEmpty(t, p.State())
}
