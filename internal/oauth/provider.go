// Package oauth defines the common contract for login flows against external
// identity providers, whatever protocol they speak.
//
// A flow is always driven in the same order:
//
//	State -> AuthorizationURL -> (redirect) -> CheckCallback ->
//	AuthCodeFromCallback -> AccessTokenFromAuthCode -> ResourceOwner
//
// OAuth2 providers map onto it directly. OAuth1 providers (Twitter) issue a
// temporary token while building the authorization URL and carry it across
// the redirect in a token store; their State is always empty because the
// temporary token secret never reaches the browser.
//
// Calling the operations out of order is a caller error and is not validated.
package oauth

import (
	"context"
	"net/http"
	"net/url"
)

// Kind indicates the underlying protocol.
type Kind string

const (
	KindOAuth2 Kind = "oauth2"
	KindOAuth1 Kind = "oauth1"
)

// Callback parameter names.
const (
	ParamError            = "error"
	ParamErrorDescription = "error_description"
	ParamState            = "state"
	ParamCode             = "code"
	ParamOAuthToken       = "oauth_token"
	ParamOAuthVerifier    = "oauth_verifier"
	// ParamDenied is sent by Twitter instead of error=access_denied.
	ParamDenied = "denied"

	ErrorAccessDenied = "access_denied"
)

// AuthorizationOptions customizes the authorization URL. OAuth1 providers
// ignore it.
type AuthorizationOptions struct {
	Scopes []string
	Extra  map[string]string
}

// Provider is implemented by every protocol adapter.
type Provider interface {
	Name() string
	Kind() Kind

	// State returns the CSRF token to embed in the redirect and check on
	// callback. Empty for temporary-token (OAuth1) flows.
	State() string

	// AuthorizationURL builds the URL the user is redirected to. OAuth1
	// adapters perform a network round-trip here and persist the temporary
	// token.
	AuthorizationURL(ctx context.Context, opts AuthorizationOptions) (string, error)

	// CheckCallback validates the parameters the provider redirected back with.
	CheckCallback(ctx context.Context, params url.Values, expectedState string) error

	// AuthCodeFromCallback extracts the exchange code (authorization code or
	// OAuth1 verifier). CheckCallback must have succeeded first.
	AuthCodeFromCallback(params url.Values) string

	// AccessTokenFromAuthCode trades the exchange code for an access token.
	AccessTokenFromAuthCode(ctx context.Context, code string) (*AccessToken, error)

	// ResourceOwner fetches the profile of the token's owner.
	ResourceOwner(ctx context.Context, token *AccessToken) (ResourceOwner, error)
}

// CallbackParams collects the callback parameters of r: the query string
// merged with any form body. Query values win on conflict.
func CallbackParams(r *http.Request) url.Values {
	out := url.Values{}
	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err == nil {
			for k, v := range r.PostForm {
				out[k] = append([]string(nil), v...)
			}
		}
	}
	for k, v := range r.URL.Query() {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// CheckProviderError inspects the provider error signals shared by every
// protocol: an explicit denial first, then any other error code.
func CheckProviderError(params url.Values) error {
	if params.Has(ParamDenied) {
		return &UserDeniedAccessError{Params: cloneParams(params)}
	}
	code := params.Get(ParamError)
	if code == "" {
		return nil
	}
	if code == ErrorAccessDenied {
		return &UserDeniedAccessError{Params: cloneParams(params)}
	}
	msg := code
	if desc := params.Get(ParamErrorDescription); desc != "" {
		msg += ": " + desc
	}
	return NewProviderError(msg, http.StatusBadRequest, formatParams(params), nil)
}
