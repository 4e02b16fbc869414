package oauth

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubOwner struct{ id string }

func (o stubOwner) ID() string            { return o.id }
func (o stubOwner) Name() string          { return "Stub" }
func (o stubOwner) ScreenName() string    { return "stub" }
func (o stubOwner) Email() (string, bool) { return "", false }
func (o stubOwner) ToMap() map[string]any { return map[string]any{"id": o.id} }

type stubProvider struct {
	state       string
	urlErr      error
	exchangeErr error
	ownerErr    error
	gotCode     string
}

func (p *stubProvider) Name() string  { return "stub" }
func (p *stubProvider) Kind() Kind    { return KindOAuth2 }
func (p *stubProvider) State() string { return p.state }

func (p *stubProvider) AuthorizationURL(context.Context, AuthorizationOptions) (string, error) {
	if p.urlErr != nil {
		return "", p.urlErr
	}
	p.state = "generated"
	return "https://idp.example.com/authorize?state=generated", nil
}

func (p *stubProvider) CheckCallback(_ context.Context, params url.Values, expected string) error {
	if err := CheckProviderError(params); err != nil {
		return err
	}
	if params.Get(ParamState) != expected {
		return NewCallbackError("state mismatch", params)
	}
	return nil
}

func (p *stubProvider) AuthCodeFromCallback(params url.Values) string { return params.Get(ParamCode) }

func (p *stubProvider) AccessTokenFromAuthCode(_ context.Context, code string) (*AccessToken, error) {
	p.gotCode = code
	if p.exchangeErr != nil {
		return nil, p.exchangeErr
	}
	return NewAccessToken(map[string]any{KeyAccessToken: "at"}, time.Now())
}

func (p *stubProvider) ResourceOwner(context.Context, *AccessToken) (ResourceOwner, error) {
	if p.ownerErr != nil {
		return nil, p.ownerErr
	}
	return stubOwner{id: "42"}, nil
}

func TestAttemptBeginReturnsStateAfterURL(t *testing.T) {
	a := NewAttempt(&stubProvider{})
	assert.Equal(t, StateStart, a.State())

	u, st, err := a.Begin(context.Background(), AuthorizationOptions{})
	require.NoError(t, err)
	assert.Contains(t, u, "state=generated")
	assert.Equal(t, "generated", st)
	assert.Equal(t, StateAuthorizationURLIssued, a.State())
}

func TestAttemptBeginFailure(t *testing.T) {
	a := NewAttempt(&stubProvider{urlErr: NewProviderError("down", 503, "", nil)})

	_, _, err := a.Begin(context.Background(), AuthorizationOptions{})
	require.Error(t, err)
	assert.Equal(t, StateFailed, a.State())
	failure, kind := a.Failure()
	assert.Same(t, err, failure)
	assert.Equal(t, KindProvider, kind)
}

func TestAttemptComplete(t *testing.T) {
	p := &stubProvider{}
	a := NewAttempt(p)

	res, err := a.Complete(context.Background(), url.Values{"state": {"abc"}, "code": {"xyz"}}, "abc")
	require.NoError(t, err)
	assert.Equal(t, "xyz", p.gotCode)
	assert.Equal(t, "at", res.Token.Token())
	assert.Equal(t, "42", res.Owner.ID())
	assert.Equal(t, StateOwnerFetched, a.State())
	failure, kind := a.Failure()
	assert.NoError(t, failure)
	assert.Empty(t, kind)
}

func TestAttemptCompleteFailures(t *testing.T) {
	tests := []struct {
		name     string
		provider *stubProvider
		params   url.Values
		kind     FailureKind
	}{
		{"denied", &stubProvider{}, url.Values{"error": {"access_denied"}}, KindDenied},
		{"csrf", &stubProvider{}, url.Values{"state": {"evil"}, "code": {"c"}}, KindCallback},
		{"exchange", &stubProvider{exchangeErr: NewProviderError("bad code", 400, "", nil)}, url.Values{"state": {"abc"}, "code": {"c"}}, KindProvider},
		{"owner", &stubProvider{ownerErr: errors.New("decode")}, url.Values{"state": {"abc"}, "code": {"c"}}, KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAttempt(tt.provider)
			res, err := a.Complete(context.Background(), tt.params, "abc")
			require.Error(t, err)
			assert.Nil(t, res)
			assert.Equal(t, StateFailed, a.State())
			_, kind := a.Failure()
			assert.Equal(t, tt.kind, kind)
		})
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	var gotCfg ProviderConfig
	r.Register(ProviderConfig{Name: "b", ClientID: "cid"}, func(cfg ProviderConfig, _ Deps) (Provider, error) {
		gotCfg = cfg
		return &stubProvider{}, nil
	})
	r.Register(ProviderConfig{Name: "a"}, func(ProviderConfig, Deps) (Provider, error) {
		return nil, errors.New("misconfigured")
	})

	assert.Equal(t, []string{"a", "b"}, r.Available())

	p1, err := r.Build("b", Deps{})
	require.NoError(t, err)
	p2, err := r.Build("b", Deps{})
	require.NoError(t, err)
	assert.NotSame(t, p1, p2)
	assert.Equal(t, "cid", gotCfg.ClientID)

	_, err = r.Build("a", Deps{})
	assert.ErrorContains(t, err, "misconfigured")

	_, err = r.Build("missing", Deps{})
	assert.ErrorContains(t, err, "provider not registered: missing")

	cfg, ok := r.Config("b")
	assert.True(t, ok)
	assert.Equal(t, "cid", cfg.ClientID)
}

func TestProfileOf(t *testing.T) {
	p := ProfileOf("stub", stubOwner{id: "42"})
	assert.Equal(t, "42", p.ID)
	assert.Nil(t, p.Email)
	assert.Equal(t, "stub", p.ScreenName)
}
