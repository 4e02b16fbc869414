package tokenstore

import (
	"context"
	"fmt"

	"github.com/dropDatabas3/authbridge/internal/oauth"
	"github.com/dropDatabas3/authbridge/internal/security/secretbox"
)

// Sealed encrypts the temporary token secret before handing it to the
// wrapped store. A secret that fails to open reads as a forged callback.
type Sealed struct {
	inner oauth.TokenStore
	box   *secretbox.Box
}

// NewSealed wraps inner.
func NewSealed(inner oauth.TokenStore, box *secretbox.Box) *Sealed {
	return &Sealed{inner: inner, box: box}
}

func (s *Sealed) Save(ctx context.Context, token oauth.TemporaryToken) error {
	sealed, err := s.box.Seal(token.Secret())
	if err != nil {
		return fmt.Errorf("tokenstore: seal: %w", err)
	}
	wrapped, err := oauth.NewTemporaryToken(token.Value(), sealed)
	if err != nil {
		return err
	}
	return s.inner.Save(ctx, wrapped)
}

func (s *Sealed) Load(ctx context.Context) (oauth.TemporaryToken, error) {
	stored, err := s.inner.Load(ctx)
	if err != nil {
		return oauth.TemporaryToken{}, err
	}
	secret, err := s.box.Open(stored.Secret())
	if err != nil {
		cerr := oauth.NewCallbackError("stored temporary token secret cannot be opened", nil)
		cerr.Err = err
		return oauth.TemporaryToken{}, cerr
	}
	return oauth.NewTemporaryToken(stored.Value(), secret)
}

func (s *Sealed) Clear(ctx context.Context) error {
	return s.inner.Clear(ctx)
}
