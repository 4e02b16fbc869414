// Package server arma el handler HTTP con todas sus dependencias a partir
// de la configuración.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dropDatabas3/authbridge/internal/cache"
	"github.com/dropDatabas3/authbridge/internal/config"
	"github.com/dropDatabas3/authbridge/internal/http/controllers"
	"github.com/dropDatabas3/authbridge/internal/http/router"
	"github.com/dropDatabas3/authbridge/internal/http/services/login"
	"github.com/dropDatabas3/authbridge/internal/metrics"
	"github.com/dropDatabas3/authbridge/internal/oauth"
	"github.com/dropDatabas3/authbridge/internal/oauth/github"
	"github.com/dropDatabas3/authbridge/internal/oauth/google"
	"github.com/dropDatabas3/authbridge/internal/oauth/standard"
	"github.com/dropDatabas3/authbridge/internal/oauth/state"
	"github.com/dropDatabas3/authbridge/internal/oauth/tokenstore"
	"github.com/dropDatabas3/authbridge/internal/oauth/twitter"
	"github.com/dropDatabas3/authbridge/internal/observability/logger"
	"github.com/dropDatabas3/authbridge/internal/rate"
	"github.com/dropDatabas3/authbridge/internal/security/secretbox"
)

// Factories mapea provider type -> factory.
var Factories = map[string]oauth.Factory{
	"github":  github.Factory,
	"google":  google.Factory,
	"oauth2":  standard.Factory,
	"twitter": twitter.Factory,
}

// App es el resultado del wiring: handler listo para servir más los
// recursos que hay que liberar al apagar.
type App struct {
	Handler  http.Handler
	Registry *oauth.Registry

	db       *pgxpool.Pool
	cache    cache.Client
	cleanups []func() error
}

// Options ajusta el wiring (tests).
type Options struct {
	// Registerer/Gatherer de Prometheus; nil usa los default.
	Registry *prometheus.Registry
	// HTTPClient para las llamadas a providers; nil crea uno con
	// server.provider_timeout.
	HTTPClient *http.Client
}

// Build construye la App desde cfg.
func Build(ctx context.Context, cfg *config.Config, opts Options) (_ *App, err error) {
	log := logger.From(ctx).With(logger.Component("server.wiring"))
	app := &App{}
	defer func() {
		if err != nil {
			_ = app.Close()
		}
	}()

	// 1. Métricas
	var (
		reg      prometheus.Registerer
		gatherer prometheus.Gatherer
	)
	if opts.Registry != nil {
		reg, gatherer = opts.Registry, opts.Registry
	}
	if err := metrics.Register(reg); err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}

	// 2. Providers
	app.Registry, err = BuildRegistry(cfg)
	if err != nil {
		return nil, err
	}

	// 3. CSRF state
	gen, err := buildState(cfg.State, cfg.App.Name)
	if err != nil {
		return nil, err
	}

	// 4. Token store (OAuth1)
	if d := cfg.TokenStore.Driver; (d == "" || d == login.DriverSession) && !cfg.SessionEncrypted() {
		return nil, fmt.Errorf("token store: %w", config.ErrSessionNotEncrypted)
	}
	storeCfg, err := app.buildStoreConfig(ctx, cfg.TokenStore)
	if err != nil {
		return nil, err
	}
	stores, err := login.NewStores(storeCfg)
	if err != nil {
		return nil, err
	}

	// 5. Sesiones
	cookies, err := buildSessionStore(cfg.Session, cfg.IsProd())
	if err != nil {
		return nil, err
	}
	if cfg.Session.HashKey == "" {
		log.Warn("session.hash_key vacío: usando clave efímera, las sesiones no sobreviven un reinicio")
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Server.ProviderTimeout}
	}

	svc := login.New(login.Deps{
		Registry:   app.Registry,
		Stores:     stores,
		State:      gen,
		HTTPClient: httpClient,
	})

	checks := map[string]controllers.Check{}
	if app.cache != nil {
		checks["cache"] = app.cache.Ping
	}
	if app.db != nil {
		checks["postgres"] = app.db.Ping
	}

	app.Handler = router.New(router.Deps{
		Auth:        controllers.NewAuthController(svc, cookies, cfg.Session.CookieName),
		Health:      controllers.NewHealthController(cfg.App.Version, checks),
		Gatherer:    gatherer,
		RateLimiter: app.buildLimiter(cfg.RateLimit, cfg.TokenStore.Redis.Prefix),
	})

	log.Info("wiring completed",
		logger.Any("providers", app.Registry.Available()),
		logger.String("token_store", stores.Driver()),
		logger.String("state", cfg.State.Driver),
	)
	return app, nil
}

// BuildRegistry registra los providers habilitados de cfg.
func BuildRegistry(cfg *config.Config) (*oauth.Registry, error) {
	reg := oauth.NewRegistry()
	for _, name := range cfg.ProviderNames() {
		pc := cfg.Providers[name]
		factory, ok := Factories[pc.Type]
		if !ok {
			return nil, fmt.Errorf("provider %s: type desconocido %q", name, pc.Type)
		}
		reg.Register(pc.OAuth(name), factory)
	}
	return reg, nil
}

func buildState(cfg config.StateConfig, issuer string) (oauth.StateGenerator, error) {
	switch cfg.Driver {
	case "signed":
		s, err := state.NewSigned([]byte(cfg.SigningKey), cfg.TTL, issuer)
		if err != nil {
			return nil, fmt.Errorf("state: %w", err)
		}
		return s, nil
	default:
		return state.Random{}, nil
	}
}

func (a *App) buildStoreConfig(ctx context.Context, cfg config.TokenStoreConfig) (login.StoreConfig, error) {
	out := login.StoreConfig{Driver: cfg.Driver, TTL: cfg.TTL}

	switch cfg.Driver {
	case login.DriverMemory, login.DriverRedis:
		c, err := cache.New(ctx, cache.Config{
			Driver:   cfg.Driver,
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
		if err != nil {
			return out, fmt.Errorf("token store: %w", err)
		}
		a.cache = c
		a.cleanups = append(a.cleanups, c.Close)
		out.Cache = c

	case login.DriverPostgres:
		pool, err := pgxpool.New(ctx, cfg.Postgres.DSN)
		if err != nil {
			return out, fmt.Errorf("token store: postgres: %w", err)
		}
		a.db = pool
		a.cleanups = append(a.cleanups, func() error { pool.Close(); return nil })

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := pool.Ping(pingCtx); err != nil {
			return out, fmt.Errorf("token store: postgres ping: %w", err)
		}
		if cfg.Postgres.Migrate {
			if err := tokenstore.Migrate(ctx, pool); err != nil {
				return out, err
			}
		}
		out.DB = pool
	}

	if cfg.SealKey != "" {
		key, err := secretbox.ParseKey(cfg.SealKey)
		if err != nil {
			return out, fmt.Errorf("token store: seal_key: %w", err)
		}
		box, err := secretbox.New(key)
		if err != nil {
			return out, fmt.Errorf("token store: seal_key: %w", err)
		}
		out.Box = box
	}
	return out, nil
}

// buildLimiter comparte la conexión Redis del token store si existe.
func (a *App) buildLimiter(cfg config.RateLimitConfig, prefix string) rate.Limiter {
	if !cfg.Enabled {
		return nil
	}
	if r, ok := a.cache.(*cache.Redis); ok {
		return rate.NewRedisLimiter(r.Client(), prefix+":rl:", cfg.Max, cfg.Window)
	}
	return rate.NewMemoryLimiter(cfg.Max, cfg.Window)
}

func buildSessionStore(cfg config.SessionConfig, prod bool) (*sessions.CookieStore, error) {
	hashKey := []byte(cfg.HashKey)
	if len(hashKey) == 0 {
		if prod {
			return nil, errors.New("session.hash_key es requerido en prod")
		}
		hashKey = securecookie.GenerateRandomKey(32)
	}

	var store *sessions.CookieStore
	if cfg.BlockKey != "" {
		store = sessions.NewCookieStore(hashKey, []byte(cfg.BlockKey))
	} else {
		store = sessions.NewCookieStore(hashKey)
	}
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.MaxAge.Seconds()),
		Secure:   cfg.Secure || prod,
		HttpOnly: true,
		// Lax: el callback es una navegación top-level GET desde el provider.
		SameSite: http.SameSiteLaxMode,
	}
	return store, nil
}

// PurgeLoop borra periódicamente los tokens temporales vencidos cuando el
// driver es postgres. Bloquea hasta que ctx se cancele.
func (a *App) PurgeLoop(ctx context.Context, every time.Duration) {
	if a.db == nil || every <= 0 {
		return
	}
	log := logger.From(ctx).With(logger.Component("tokenstore.purge"))
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			n, err := tokenstore.Purge(ctx, a.db, now)
			if err != nil {
				log.Warn("purge failed", logger.Err(err))
				continue
			}
			if n > 0 {
				log.Debug("expired temporary tokens purged", logger.Any("count", n))
			}
		}
	}
}

// Close libera cache y pool de base de datos.
func (a *App) Close() error {
	var errs []error
	for i := len(a.cleanups) - 1; i >= 0; i-- {
		if err := a.cleanups[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.cleanups = nil
	return errors.Join(errs...)
}
