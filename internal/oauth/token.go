package oauth

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"
)

// Canonical access token keys. Providers that speak a different dialect are
// remapped onto these before an AccessToken is built.
const (
	KeyAccessToken     = "access_token"
	KeyResourceOwnerID = "resource_owner_id"
	KeyRefreshToken    = "refresh_token"
	KeyExpires         = "expires"
	KeyExpiresIn       = "expires_in"
)

var canonicalKeys = map[string]bool{
	KeyAccessToken:     true,
	KeyResourceOwnerID: true,
	KeyRefreshToken:    true,
	KeyExpires:         true,
	KeyExpiresIn:       true,
}

// ErrMissingAccessToken is returned by NewAccessToken when the provider values
// carry no access_token.
var ErrMissingAccessToken = errors.New("oauth: access_token missing from provider response")

// AccessToken is the opaque bag of values returned by a token exchange. It is
// never mutated after construction.
type AccessToken struct {
	token           string
	resourceOwnerID string
	refreshToken    string
	expires         time.Time
	values          map[string]any
}

// NewAccessToken builds an AccessToken from canonical provider values.
// expires_in (relative seconds) is resolved against now; an explicit expires
// (unix seconds) wins. A zero or negative expiry means the token never expires.
func NewAccessToken(values map[string]any, now time.Time) (*AccessToken, error) {
	tok := stringValue(values[KeyAccessToken])
	if tok == "" {
		return nil, ErrMissingAccessToken
	}
	at := &AccessToken{
		token:           tok,
		resourceOwnerID: stringValue(values[KeyResourceOwnerID]),
		refreshToken:    stringValue(values[KeyRefreshToken]),
		values:          make(map[string]any, len(values)),
	}
	for k, v := range values {
		at.values[k] = v
	}
	if secs, ok := int64Value(values[KeyExpiresIn]); ok && secs > 0 {
		at.expires = now.Add(time.Duration(secs) * time.Second)
	}
	if ts, ok := int64Value(values[KeyExpires]); ok && ts > 0 {
		at.expires = time.Unix(ts, 0)
	}
	return at, nil
}

// Token returns the access token string.
func (t *AccessToken) Token() string { return t.token }

// ResourceOwnerID returns the provider's identifier for the owner, if the
// exchange returned one.
func (t *AccessToken) ResourceOwnerID() string { return t.resourceOwnerID }

// RefreshToken returns the refresh token, if any.
func (t *AccessToken) RefreshToken() string { return t.refreshToken }

// Expires reports the expiry time and whether the token expires at all.
func (t *AccessToken) Expires() (time.Time, bool) {
	return t.expires, !t.expires.IsZero()
}

// HasExpired reports whether the token expired at or before now.
func (t *AccessToken) HasExpired(now time.Time) bool {
	return !t.expires.IsZero() && !t.expires.After(now)
}

// Values returns a copy of the provider-specific extras, without the
// canonical keys.
func (t *AccessToken) Values() map[string]any {
	out := make(map[string]any, len(t.values))
	for k, v := range t.values {
		if !canonicalKeys[k] {
			out[k] = v
		}
	}
	return out
}

// Value returns a single extra as a string ("" when absent).
func (t *AccessToken) Value(key string) string {
	return stringValue(t.values[key])
}

// Raw returns a copy of every value the token was built from.
func (t *AccessToken) Raw() map[string]any {
	out := make(map[string]any, len(t.values))
	for k, v := range t.values {
		out[k] = v
	}
	return out
}

// String masks the token so it can be logged.
func (t *AccessToken) String() string {
	return fmt.Sprintf("AccessToken{token:%q, resource_owner_id:%q}", mask(t.token), t.resourceOwnerID)
}

// FieldMapping renames provider-specific keys onto canonical ones.
// Keys are the provider names, values the canonical names.
type FieldMapping map[string]string

// OAuth1TokenMapping normalizes the Twitter access token response.
// oauth_token_secret and screen_name keep their original names.
var OAuth1TokenMapping = FieldMapping{
	"oauth_token":    KeyAccessToken,
	"user_id":        KeyResourceOwnerID,
	"x_auth_expires": KeyExpires,
}

// Remap returns a new map with every mapped key renamed. Unmapped keys are
// copied untouched and the input is never modified. When a mapped key and its
// target are both present, the mapped value wins.
//
// Targets should be unique. When several present sources share a target,
// the lexically first source wins.
func (m FieldMapping) Remap(values map[string]any) map[string]any {
	out := make(map[string]any, len(values))
	for k, v := range values {
		if _, renamed := m[k]; renamed {
			continue
		}
		out[k] = v
	}
	sources := make([]string, 0, len(m))
	for from := range m {
		sources = append(sources, from)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(sources)))
	for _, from := range sources {
		if v, ok := values[from]; ok {
			out[m[from]] = v
		}
	}
	return out
}

func stringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []string:
		if len(t) == 0 {
			return ""
		}
		return t[0]
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

func int64Value(v any) (int64, bool) {
	switch t := v.(type) {
	case int:
		return int64(t), true
	case int64:
		return t, true
	case float64:
		return int64(t), true
	case string:
		n, err := strconv.ParseInt(t, 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

func mask(s string) string {
	if len(s) >= 4 {
		return s[:4] + "****"
	}
	if s == "" {
		return ""
	}
	return "****"
}
