// Package router arma el árbol de rutas HTTP.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dropDatabas3/authbridge/internal/http/controllers"
	httperrors "github.com/dropDatabas3/authbridge/internal/http/errors"
	mw "github.com/dropDatabas3/authbridge/internal/http/middlewares"
	"github.com/dropDatabas3/authbridge/internal/rate"
)

// Deps contiene las dependencias del router.
type Deps struct {
	Auth   *controllers.AuthController
	Health *controllers.HealthController
	// Gatherer para /metrics; nil usa el registry default.
	Gatherer prometheus.Gatherer
	// RateLimiter para /auth/{provider}/login; nil desactiva el límite.
	RateLimiter rate.Limiter
}

// New registra todas las rutas.
//
//	GET      /auth/providers
//	GET      /auth/{provider}/login
//	GET|POST /auth/{provider}/callback
//	GET      /healthz
//	GET      /metrics
func New(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(mw.WithRecover(), mw.WithRequestID(), mw.WithSecurityHeaders())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})

	// Sin logging para health y metrics (muy frecuentes)
	r.Get("/healthz", deps.Health.Healthz)

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/auth", func(r chi.Router) {
		r.Use(mw.WithLogging(), mw.WithNoStore())
		r.Get("/providers", deps.Auth.Providers)
		r.With(mw.WithRateLimit(mw.RateLimitConfig{Limiter: deps.RateLimiter})).
			Get("/{provider}/login", deps.Auth.Login)
		r.Get("/{provider}/callback", deps.Auth.Callback)
		r.Post("/{provider}/callback", deps.Auth.Callback)
	})

	return r
}
