// Package standard adapts any standards-compliant OAuth2 provider to the
// oauth.Provider contract. The adapter adds no state beyond the client it
// wraps; its job is callback validation and delegation.
package standard

import (
	"context"
	"net/url"

	"github.com/dropDatabas3/authbridge/internal/oauth"
	"github.com/dropDatabas3/authbridge/internal/oauth/state"
)

// StateVerifier checks a returned state beyond equality, e.g. a signature.
type StateVerifier interface {
	Verify(state string) error
}

// Adapter implements oauth.Provider over a Client.
type Adapter struct {
	name     string
	client   Client
	verifier StateVerifier
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithStateVerifier makes CheckCallback run v on the returned state.
func WithStateVerifier(v StateVerifier) Option {
	return func(a *Adapter) { a.verifier = v }
}

// New wraps client under name.
func New(name string, client Client, opts ...Option) *Adapter {
	a := &Adapter{name: name, client: client}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Client returns the wrapped client.
func (a *Adapter) Client() Client { return a.client }

func (a *Adapter) Name() string     { return a.name }
func (a *Adapter) Kind() oauth.Kind { return oauth.KindOAuth2 }
func (a *Adapter) State() string    { return a.client.State() }

func (a *Adapter) AuthorizationURL(ctx context.Context, opts oauth.AuthorizationOptions) (string, error) {
	return a.client.AuthCodeURL(ctx, opts)
}

// CheckCallback rejects, in order: a denial, any other provider error, a
// missing or mismatched state, and a missing code.
func (a *Adapter) CheckCallback(_ context.Context, params url.Values, expectedState string) error {
	if err := oauth.CheckProviderError(params); err != nil {
		return err
	}

	got := params.Get(oauth.ParamState)
	if got == "" {
		return oauth.NewCallbackError("missing state parameter", params)
	}
	if !state.Equal(expectedState, got) {
		return oauth.NewCallbackError("state does not match the expected value", params)
	}
	if a.verifier != nil {
		if err := a.verifier.Verify(got); err != nil {
			cerr := oauth.NewCallbackError("state verification failed", params)
			cerr.Err = err
			return cerr
		}
	}
	if params.Get(oauth.ParamCode) == "" {
		return oauth.NewCallbackError("missing code parameter", params)
	}
	return nil
}

func (a *Adapter) AuthCodeFromCallback(params url.Values) string {
	return params.Get(oauth.ParamCode)
}

func (a *Adapter) AccessTokenFromAuthCode(ctx context.Context, code string) (*oauth.AccessToken, error) {
	return a.client.Exchange(ctx, code)
}

func (a *Adapter) ResourceOwner(ctx context.Context, token *oauth.AccessToken) (oauth.ResourceOwner, error) {
	return a.client.ResourceOwner(ctx, token)
}

var _ oauth.Provider = (*Adapter)(nil)
