// Package login runs the two halves of a login attempt on top of the oauth
// registry: Start issues the authorization URL and remembers what the
// callback must present, Callback validates it and resolves the owner.
package login

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gorilla/sessions"

	"github.com/dropDatabas3/authbridge/internal/oauth"
	"github.com/dropDatabas3/authbridge/internal/oauth/tokenstore"
	"github.com/dropDatabas3/authbridge/internal/observability/logger"
)

// ErrProviderUnknown is returned for a provider name that is not registered.
var ErrProviderUnknown = errors.New("login: provider not configured")

const sessionKeyStatePrefix = "authbridge.state."

// Deps are the collaborators of a Service.
type Deps struct {
	Registry   *oauth.Registry
	Stores     *Stores
	State      oauth.StateGenerator
	HTTPClient *http.Client
}

// Service drives login attempts. It is safe for concurrent use; all
// per-attempt data lives in the session.
type Service struct {
	registry   *oauth.Registry
	stores     *Stores
	state      oauth.StateGenerator
	httpClient *http.Client
}

// New creates a Service.
func New(d Deps) *Service {
	return &Service{
		registry:   d.Registry,
		stores:     d.Stores,
		state:      d.State,
		httpClient: d.HTTPClient,
	}
}

// ProviderInfo describes a configured provider.
type ProviderInfo struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Providers lists the configured providers, sorted by name.
func (s *Service) Providers() []ProviderInfo {
	names := s.registry.Available()
	out := make([]ProviderInfo, 0, len(names))
	for _, name := range names {
		cfg, _ := s.registry.Config(name)
		out = append(out, ProviderInfo{Name: name, Type: cfg.Type})
	}
	return out
}

// Outcome is the result of a completed login.
type Outcome struct {
	Profile oauth.Profile
	Token   *oauth.AccessToken
}

// Start begins an attempt for provider and returns the URL to redirect the
// user to. The expected state is kept in sess, which the caller must save.
func (s *Service) Start(ctx context.Context, sess *sessions.Session, provider string, opts oauth.AuthorizationOptions) (string, error) {
	p, err := s.build(sess, provider)
	if err != nil {
		return "", err
	}

	authURL, state, err := oauth.NewAttempt(p).Begin(ctx, opts)
	if err != nil {
		return "", err
	}
	if state != "" {
		sess.Values[sessionKeyStatePrefix+provider] = state
	} else {
		delete(sess.Values, sessionKeyStatePrefix+provider)
	}

	logger.From(ctx).Debug("login started",
		logger.Layer("service"),
		logger.Provider(provider),
		logger.Flow(string(p.Kind())),
	)
	return authURL, nil
}

// Callback completes the attempt for provider. The expected state and the
// attempt id are consumed whatever the outcome, so a callback cannot be
// replayed.
func (s *Service) Callback(ctx context.Context, sess *sessions.Session, provider string, params url.Values) (*Outcome, error) {
	p, err := s.build(sess, provider)
	if err != nil {
		return nil, err
	}

	expected, _ := sess.Values[sessionKeyStatePrefix+provider].(string)
	delete(sess.Values, sessionKeyStatePrefix+provider)
	defer tokenstore.ResetAttempt(sess)

	res, err := oauth.NewAttempt(p).Complete(ctx, params, expected)
	if err != nil {
		return nil, err
	}

	logger.From(ctx).Debug("login completed",
		logger.Layer("service"),
		logger.Provider(provider),
		logger.OwnerID(res.Owner.ID()),
	)
	return &Outcome{Profile: oauth.ProfileOf(provider, res.Owner), Token: res.Token}, nil
}

func (s *Service) build(sess *sessions.Session, provider string) (oauth.Provider, error) {
	if _, ok := s.registry.Config(provider); !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderUnknown, provider)
	}
	store, err := s.stores.For(sess)
	if err != nil {
		return nil, fmt.Errorf("login: token store: %w", err)
	}
	return s.registry.Build(provider, oauth.Deps{
		TokenStore: store,
		HTTPClient: s.httpClient,
		State:      s.state,
	})
}
