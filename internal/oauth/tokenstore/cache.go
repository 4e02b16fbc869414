package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dropDatabas3/authbridge/internal/cache"
	"github.com/dropDatabas3/authbridge/internal/oauth"
)

// DefaultTTL bounds how long a temporary token outlives its attempt in the
// shared backends.
const DefaultTTL = 15 * time.Minute

type cachedToken struct {
	Value  string `json:"v"`
	Secret string `json:"s"`
}

// CacheStore keeps the temporary token in a cache.Client entry keyed by
// attempt id.
type CacheStore struct {
	client    cache.Client
	attemptID string
	ttl       time.Duration
}

// NewCacheStore binds a cache client to one attempt. ttl <= 0 uses DefaultTTL.
func NewCacheStore(client cache.Client, attemptID string, ttl time.Duration) (*CacheStore, error) {
	if attemptID == "" {
		return nil, errors.New("tokenstore: attempt id is required")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CacheStore{client: client, attemptID: attemptID, ttl: ttl}, nil
}

func (s *CacheStore) key() string { return "oauth1:tmp:" + s.attemptID }

func (s *CacheStore) Save(ctx context.Context, token oauth.TemporaryToken) error {
	b, err := json.Marshal(cachedToken{Value: token.Value(), Secret: token.Secret()})
	if err != nil {
		return fmt.Errorf("tokenstore: encode: %w", err)
	}
	if err := s.client.Set(ctx, s.key(), string(b), s.ttl); err != nil {
		return fmt.Errorf("tokenstore: save: %w", err)
	}
	return nil
}

func (s *CacheStore) Load(ctx context.Context) (oauth.TemporaryToken, error) {
	raw, err := s.client.Get(ctx, s.key())
	if cache.IsNotFound(err) {
		return oauth.TemporaryToken{}, oauth.ErrNotFound
	}
	if err != nil {
		return oauth.TemporaryToken{}, fmt.Errorf("tokenstore: load: %w", err)
	}
	var ct cachedToken
	if err := json.Unmarshal([]byte(raw), &ct); err != nil {
		return oauth.TemporaryToken{}, fmt.Errorf("tokenstore: decode: %w", err)
	}
	if ct.Value == "" {
		return oauth.TemporaryToken{}, oauth.ErrNotFound
	}
	return oauth.NewTemporaryToken(ct.Value, ct.Secret)
}

func (s *CacheStore) Clear(ctx context.Context) error {
	if err := s.client.Delete(ctx, s.key()); err != nil {
		return fmt.Errorf("tokenstore: clear: %w", err)
	}
	return nil
}
