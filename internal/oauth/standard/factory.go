package standard

import (
	"github.com/dropDatabas3/authbridge/internal/oauth"
)

// ConfigFrom converts a registry entry into a client Config.
func ConfigFrom(cfg oauth.ProviderConfig) Config {
	return Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURI:  cfg.RedirectURI,
		Scopes:       cfg.Scopes,
		AuthURL:      cfg.AuthURL,
		TokenURL:     cfg.TokenURL,
		UserInfoURL:  cfg.UserInfoURL,
		Fields:       FieldsFromMap(cfg.Fields),
	}
}

// AdapterOptions returns the options implied by deps: a signed state
// generator also verifies the states it issued.
func AdapterOptions(deps oauth.Deps) []Option {
	if v, ok := deps.State.(StateVerifier); ok {
		return []Option{WithStateVerifier(v)}
	}
	return nil
}

// Factory builds a generic OAuth2 provider with explicit endpoints.
func Factory(cfg oauth.ProviderConfig, deps oauth.Deps) (oauth.Provider, error) {
	client, err := NewOAuth2Client(ConfigFrom(cfg), deps.HTTPClient, deps.State)
	if err != nil {
		return nil, err
	}
	return New(cfg.Name, client, AdapterOptions(deps)...), nil
}
