package oauth

import (
	"context"
	"errors"
)

// TemporaryToken is an OAuth1 request token and its secret. It lives only for
// the duration of the authorization handshake.
type TemporaryToken struct {
	value  string
	secret string
}

// ErrEmptyTemporaryToken is returned when a temporary token has no value.
var ErrEmptyTemporaryToken = errors.New("oauth: temporary token value is empty")

// NewTemporaryToken builds a TemporaryToken. The value is required; the
// secret may be empty for providers that do not issue one.
func NewTemporaryToken(value, secret string) (TemporaryToken, error) {
	if value == "" {
		return TemporaryToken{}, ErrEmptyTemporaryToken
	}
	return TemporaryToken{value: value, secret: secret}, nil
}

// Value returns the token value, the one embedded in the authorization URL.
func (t TemporaryToken) Value() string { return t.value }

// Secret returns the token secret. It must never reach the browser.
func (t TemporaryToken) Secret() string { return t.secret }

// IsZero reports whether t is the zero token.
func (t TemporaryToken) IsZero() bool { return t.value == "" && t.secret == "" }

// TokenStore carries the temporary token of one attempt across the redirect.
//
// Save overwrites any previous token, Load fails with ErrNotFound when nothing
// is stored and Clear is a no-op when already cleared. Implementations must be
// scoped to the attempt (session), never global. Clearing is best effort:
// callers tolerate stale entries and rely on expiry for cleanup.
type TokenStore interface {
	Save(ctx context.Context, token TemporaryToken) error
	Load(ctx context.Context) (TemporaryToken, error)
	Clear(ctx context.Context) error
}
