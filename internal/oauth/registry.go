package oauth

import (
	"fmt"
	"net/http"
	"sort"
	"sync"
)

// ProviderConfig contains the configuration for a provider instance.
type ProviderConfig struct {
	Name         string
	Type         string
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       []string

	// Endpoint overrides; empty means the provider default.
	AuthURL     string
	TokenURL    string
	UserInfoURL string

	// Profile field paths for generic OAuth2 providers.
	Fields map[string]string

	// Provider-specific extra config
	Extra map[string]string
}

// Deps are the per-attempt collaborators handed to a factory.
type Deps struct {
	// TokenStore is required by OAuth1 providers and scoped to the attempt.
	TokenStore TokenStore
	// HTTPClient is used for server-to-server calls. nil means a default
	// client with a timeout.
	HTTPClient *http.Client
	// State generates CSRF state for OAuth2 providers. nil means random.
	State StateGenerator
}

// StateGenerator produces CSRF state values.
type StateGenerator interface {
	Generate() (string, error)
}

// Factory creates a provider for one attempt.
type Factory func(cfg ProviderConfig, deps Deps) (Provider, error)

// Registry maps configured provider names to their factory and config.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	configs   map[string]ProviderConfig
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		configs:   make(map[string]ProviderConfig),
	}
}

// Register binds a provider name to a factory and its configuration.
// Registering the same name twice replaces the previous entry.
func (r *Registry) Register(cfg ProviderConfig, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[cfg.Name] = factory
	r.configs[cfg.Name] = cfg
}

// Build returns a fresh provider for the named entry. Providers are never
// cached: OAuth1 adapters hold a token store scoped to one attempt.
func (r *Registry) Build(name string, deps Deps) (Provider, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	cfg := r.configs[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("provider not registered: %s", name)
	}

	p, err := factory(cfg, deps)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider %s: %w", name, err)
	}
	return p, nil
}

// Config returns the configuration registered under name.
func (r *Registry) Config(name string) (ProviderConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.configs[name]
	return cfg, ok
}

// Available returns the registered provider names, sorted.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
