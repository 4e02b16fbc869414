package oauth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOAuth1TokenMappingRemap(t *testing.T) {
	in := map[string]any{"oauth_token": "T", "user_id": "U", "screen_name": "S"}

	out := OAuth1TokenMapping.Remap(in)

	assert.Equal(t, map[string]any{"access_token": "T", "resource_owner_id": "U", "screen_name": "S"}, out)
	assert.Equal(t, map[string]any{"oauth_token": "T", "user_id": "U", "screen_name": "S"}, in, "input must not change")
}

func TestRemapIdempotent(t *testing.T) {
	in := map[string]any{"oauth_token": "T", "oauth_token_secret": "X", "x_auth_expires": "0"}
	once := OAuth1TokenMapping.Remap(in)
	twice := OAuth1TokenMapping.Remap(once)

	assert.Equal(t, once, twice)
	assert.Equal(t, "X", once["oauth_token_secret"])
	assert.Equal(t, "0", once["expires"])
}

func TestRemapMappedValueWins(t *testing.T) {
	out := FieldMapping{"uid": "id"}.Remap(map[string]any{"uid": "new", "id": "old"})
	assert.Equal(t, map[string]any{"id": "new"}, out)
}

func TestRemapSharedTargetIsDeterministic(t *testing.T) {
	m := FieldMapping{"user_id": KeyResourceOwnerID, "uid": KeyResourceOwnerID, "id_str": KeyResourceOwnerID}
	in := map[string]any{"user_id": "A", "uid": "B", "id_str": "C"}
	for i := 0; i < 50; i++ {
		assert.Equal(t, map[string]any{KeyResourceOwnerID: "C"}, m.Remap(in))
	}
}

func TestNewAccessToken(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	tok, err := NewAccessToken(map[string]any{
		"access_token":       "secret-token",
		"resource_owner_id":  "U",
		"refresh_token":      "R",
		"expires_in":         float64(60),
		"oauth_token_secret": "X",
	}, now)
	require.NoError(t, err)

	assert.Equal(t, "secret-token", tok.Token())
	assert.Equal(t, "U", tok.ResourceOwnerID())
	assert.Equal(t, "R", tok.RefreshToken())
	exp, ok := tok.Expires()
	require.True(t, ok)
	assert.Equal(t, now.Add(time.Minute), exp)
	assert.False(t, tok.HasExpired(now))
	assert.True(t, tok.HasExpired(now.Add(time.Minute)))
	assert.Equal(t, map[string]any{"oauth_token_secret": "X"}, tok.Values())
	assert.Len(t, tok.Raw(), 5)
	assert.NotContains(t, tok.String(), "secret-token")

	tok.Values()["oauth_token_secret"] = "changed"
	assert.Equal(t, "X", tok.Value("oauth_token_secret"))
}

func TestNewAccessTokenExpiry(t *testing.T) {
	now := time.Unix(1000, 0)

	tok, err := NewAccessToken(map[string]any{"access_token": "a", "expires": "2000", "expires_in": 5}, now)
	require.NoError(t, err)
	exp, ok := tok.Expires()
	require.True(t, ok)
	assert.Equal(t, time.Unix(2000, 0), exp)

	tok, err = NewAccessToken(map[string]any{"access_token": "a", "expires": "0"}, now)
	require.NoError(t, err)
	_, ok = tok.Expires()
	assert.False(t, ok)
	assert.False(t, tok.HasExpired(now.Add(time.Hour)))
}

func TestNewAccessTokenRequiresToken(t *testing.T) {
	_, err := NewAccessToken(map[string]any{"screen_name": "S"}, time.Now())
	assert.ErrorIs(t, err, ErrMissingAccessToken)
}

func TestTemporaryToken(t *testing.T) {
	tok, err := NewTemporaryToken("T", "S")
	require.NoError(t, err)
	assert.Equal(t, "T", tok.Value())
	assert.Equal(t, "S", tok.Secret())
	assert.False(t, tok.IsZero())

	_, err = NewTemporaryToken("", "S")
	assert.ErrorIs(t, err, ErrEmptyTemporaryToken)
	assert.True(t, TemporaryToken{}.IsZero())
}
