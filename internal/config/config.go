package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/dropDatabas3/authbridge/internal/oauth"
	"github.com/dropDatabas3/authbridge/internal/security/secretbox"
)

// EnvPrefix prefija todas las variables de entorno de override.
const EnvPrefix = "AUTHBRIDGE_"

type Config struct {
	App        AppConfig                 `yaml:"app" envPrefix:"APP_"`
	Server     ServerConfig              `yaml:"server" envPrefix:"SERVER_"`
	Log        LogConfig                 `yaml:"log" envPrefix:"LOG_"`
	Session    SessionConfig             `yaml:"session" envPrefix:"SESSION_"`
	TokenStore TokenStoreConfig          `yaml:"token_store" envPrefix:"TOKEN_STORE_"`
	State      StateConfig               `yaml:"state" envPrefix:"STATE_"`
	RateLimit  RateLimitConfig           `yaml:"rate_limit" envPrefix:"RATE_LIMIT_"`
	Providers  map[string]ProviderConfig `yaml:"providers"`
}

type AppConfig struct {
	// dev | staging | prod
	Env     string `yaml:"env" env:"ENV"`
	Name    string `yaml:"name" env:"NAME"`
	Version string `yaml:"version" env:"VERSION"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr" env:"ADDR"`
	BaseURL         string        `yaml:"base_url" env:"BASE_URL"` // para autogenerar redirect_uri
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	// Timeout de las llamadas server-to-server hacia los providers.
	ProviderTimeout time.Duration `yaml:"provider_timeout" env:"PROVIDER_TIMEOUT"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"LEVEL"`
}

type SessionConfig struct {
	CookieName string        `yaml:"cookie_name" env:"COOKIE_NAME"`
	HashKey    string        `yaml:"hash_key" env:"HASH_KEY"`   // HMAC de la cookie
	BlockKey   string        `yaml:"block_key" env:"BLOCK_KEY"` // cifrado opcional (16/24/32 bytes)
	Secure     bool          `yaml:"secure" env:"SECURE"`
	MaxAge     time.Duration `yaml:"max_age" env:"MAX_AGE"`
}

type TokenStoreConfig struct {
	// memory (default) | session | redis | postgres. session exige
	// session.block_key o seal_key.
	Driver  string        `yaml:"driver" env:"DRIVER"`
	TTL     time.Duration `yaml:"ttl" env:"TTL"`
	SealKey string        `yaml:"seal_key" env:"SEAL_KEY"` // base64/hex 32 bytes; vacío => sin cifrado
	Redis   struct {
		Addr     string `yaml:"addr" env:"ADDR"`
		Password string `yaml:"password" env:"PASSWORD"`
		DB       int    `yaml:"db" env:"DB"`
		Prefix   string `yaml:"prefix" env:"PREFIX"`
	} `yaml:"redis" envPrefix:"REDIS_"`
	Postgres struct {
		DSN           string        `yaml:"dsn" env:"DSN"`
		Migrate       bool          `yaml:"migrate" env:"MIGRATE"`
		PurgeInterval time.Duration `yaml:"purge_interval" env:"PURGE_INTERVAL"`
	} `yaml:"postgres" envPrefix:"POSTGRES_"`
}

type StateConfig struct {
	// random | signed
	Driver     string        `yaml:"driver" env:"DRIVER"`
	SigningKey string        `yaml:"signing_key" env:"SIGNING_KEY"`
	TTL        time.Duration `yaml:"ttl" env:"TTL"`
}

// RateLimitConfig limita los inicios de login por IP. Usa Redis si el token
// store es redis; si no, memoria local.
type RateLimitConfig struct {
	Enabled bool          `yaml:"enabled" env:"ENABLED"`
	Max     int           `yaml:"max" env:"MAX"`
	Window  time.Duration `yaml:"window" env:"WINDOW"`
}

// ProviderConfig describe un provider de login.
type ProviderConfig struct {
	// github | google | oauth2 | twitter
	Type         string            `yaml:"type"`
	Disabled     bool              `yaml:"disabled"`
	ClientID     string            `yaml:"client_id"`
	ClientSecret string            `yaml:"client_secret"`
	RedirectURI  string            `yaml:"redirect_uri"` // si vacío => <server.base_url>/auth/<name>/callback
	Scopes       []string          `yaml:"scopes"`
	AuthURL      string            `yaml:"auth_url"`
	TokenURL     string            `yaml:"token_url"`
	UserInfoURL  string            `yaml:"userinfo_url"`
	Fields       map[string]string `yaml:"fields"`
	Extra        map[string]string `yaml:"extra"`
}

// OAuth convierte la entrada al formato del registry.
func (p ProviderConfig) OAuth(name string) oauth.ProviderConfig {
	return oauth.ProviderConfig{
		Name:         name,
		Type:         p.Type,
		ClientID:     p.ClientID,
		ClientSecret: p.ClientSecret,
		RedirectURI:  p.RedirectURI,
		Scopes:       p.Scopes,
		AuthURL:      p.AuthURL,
		TokenURL:     p.TokenURL,
		UserInfoURL:  p.UserInfoURL,
		Fields:       p.Fields,
		Extra:        p.Extra,
	}
}

// Load lee el YAML (opcional si path es ""), aplica overrides de entorno,
// defaults y valida.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(&c, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("config: parse env: %w", err)
	}
	c.applyProviderEnvOverrides()
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// applyProviderEnvOverrides permite inyectar credenciales sin escribirlas en
// el YAML: AUTHBRIDGE_PROVIDERS_<NAME>_CLIENT_ID, _CLIENT_SECRET, _REDIRECT_URI.
func (c *Config) applyProviderEnvOverrides() {
	for name, p := range c.Providers {
		key := EnvPrefix + "PROVIDERS_" + envName(name) + "_"
		if v, ok := getEnvStr(key + "CLIENT_ID"); ok {
			p.ClientID = v
		}
		if v, ok := getEnvStr(key + "CLIENT_SECRET"); ok {
			p.ClientSecret = v
		}
		if v, ok := getEnvStr(key + "REDIRECT_URI"); ok {
			p.RedirectURI = v
		}
		c.Providers[name] = p
	}
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.App.Name == "" {
		c.App.Name = "authbridge"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 15 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Server.ProviderTimeout == 0 {
		c.Server.ProviderTimeout = 10 * time.Second
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = "authbridge_session"
	}
	if c.Session.MaxAge == 0 {
		c.Session.MaxAge = time.Hour
	}
	if c.TokenStore.Driver == "" {
		c.TokenStore.Driver = "memory"
	}
	if c.TokenStore.TTL == 0 {
		c.TokenStore.TTL = 15 * time.Minute
	}
	if c.TokenStore.Redis.Prefix == "" {
		c.TokenStore.Redis.Prefix = "authbridge"
	}
	if c.TokenStore.Postgres.PurgeInterval == 0 {
		c.TokenStore.Postgres.PurgeInterval = 5 * time.Minute
	}
	if c.State.Driver == "" {
		c.State.Driver = "random"
	}
	if c.State.TTL == 0 {
		c.State.TTL = 10 * time.Minute
	}
	if c.RateLimit.Max == 0 {
		c.RateLimit.Max = 30
	}
	if c.RateLimit.Window == 0 {
		c.RateLimit.Window = time.Minute
	}

	// Si RedirectURI vacío pero tenemos base_url ⇒ autogenerar
	base := strings.TrimRight(strings.TrimSpace(c.Server.BaseURL), "/")
	for name, p := range c.Providers {
		if p.Type == "" {
			p.Type = name
		}
		if strings.TrimSpace(p.RedirectURI) == "" && base != "" {
			p.RedirectURI = base + "/auth/" + name + "/callback"
		}
		c.Providers[name] = p
	}
}

// ErrSessionNotEncrypted: la cookie de sesión solo va firmada, y el driver
// session guardaría ahí el secreto del token temporal.
var ErrSessionNotEncrypted = errors.New("token_store.driver session requiere session.block_key o token_store.seal_key")

// SessionEncrypted indica si el secreto del token temporal queda cifrado
// cuando se guarda en la cookie de sesión.
func (c *Config) SessionEncrypted() bool {
	return c.Session.BlockKey != "" || c.TokenStore.SealKey != ""
}

// IsProd indica si la app corre en producción.
func (c *Config) IsProd() bool {
	return strings.EqualFold(c.App.Env, "prod")
}

// Validate performs validation of critical configuration values.
func (c *Config) Validate() error {
	var errs []error

	switch c.TokenStore.Driver {
	case "session":
		if !c.SessionEncrypted() {
			errs = append(errs, ErrSessionNotEncrypted)
		}
	case "memory":
	case "redis":
		if c.TokenStore.Redis.Addr == "" {
			errs = append(errs, errors.New("token_store.redis.addr es requerido con driver redis"))
		}
	case "postgres":
		if c.TokenStore.Postgres.DSN == "" {
			errs = append(errs, errors.New("token_store.postgres.dsn es requerido con driver postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("token_store.driver inválido: %q", c.TokenStore.Driver))
	}
	if c.TokenStore.SealKey != "" {
		if _, err := secretbox.ParseKey(c.TokenStore.SealKey); err != nil {
			errs = append(errs, fmt.Errorf("token_store.seal_key: %w", err))
		}
	}

	switch c.State.Driver {
	case "random":
	case "signed":
		if len(c.State.SigningKey) < 32 {
			errs = append(errs, errors.New("state.signing_key debe tener al menos 32 bytes con driver signed"))
		}
	default:
		errs = append(errs, fmt.Errorf("state.driver inválido: %q", c.State.Driver))
	}

	if c.IsProd() && len(c.Session.HashKey) < 32 {
		errs = append(errs, errors.New("session.hash_key debe tener al menos 32 bytes en prod"))
	}
	if n := len(c.Session.BlockKey); n != 0 && n != 16 && n != 24 && n != 32 {
		errs = append(errs, fmt.Errorf("session.block_key debe tener 16, 24 o 32 bytes, tiene %d", n))
	}

	if c.RateLimit.Enabled && (c.RateLimit.Max < 0 || c.RateLimit.Window < time.Second) {
		errs = append(errs, errors.New("rate_limit: max debe ser >= 0 y window >= 1s"))
	}

	for _, name := range c.ProviderNames() {
		if err := c.Providers[name].validate(); err != nil {
			errs = append(errs, fmt.Errorf("providers.%s: %w", name, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

func (p ProviderConfig) validate() error {
	if p.ClientID == "" {
		return errors.New("client_id es requerido")
	}
	if p.RedirectURI == "" {
		return errors.New("redirect_uri es requerido (o server.base_url)")
	}
	switch p.Type {
	case "github", "google":
	case "oauth2":
		if p.AuthURL == "" || p.TokenURL == "" || p.UserInfoURL == "" {
			return errors.New("auth_url, token_url y userinfo_url son requeridos para oauth2")
		}
	case "twitter":
		if p.ClientSecret == "" {
			return errors.New("client_secret es requerido para twitter")
		}
	default:
		return fmt.Errorf("type inválido: %q", p.Type)
	}
	return nil
}

// ProviderNames lista los providers habilitados, ordenados.
func (c *Config) ProviderNames() []string {
	names := make([]string, 0, len(c.Providers))
	for name, p := range c.Providers {
		if !p.Disabled {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

func envName(name string) string {
	return strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(name))
}
