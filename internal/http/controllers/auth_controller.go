// Package controllers contiene los handlers HTTP del login.
package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"

	httperrors "github.com/dropDatabas3/authbridge/internal/http/errors"
	"github.com/dropDatabas3/authbridge/internal/http/services/login"
	"github.com/dropDatabas3/authbridge/internal/oauth"
	"github.com/dropDatabas3/authbridge/internal/observability/logger"
)

// AuthController maneja login, callback y descubrimiento de providers.
type AuthController struct {
	service     *login.Service
	sessions    sessions.Store
	sessionName string
}

// NewAuthController crea el controller.
func NewAuthController(service *login.Service, store sessions.Store, sessionName string) *AuthController {
	return &AuthController{service: service, sessions: store, sessionName: sessionName}
}

// Login maneja GET /auth/{provider}/login
func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	provider := chi.URLParam(r, "provider")
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("AuthController.Login"), logger.Provider(provider))

	sess, err := c.session(r)
	if err != nil {
		log.Error("session unavailable", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
		return
	}

	opts := oauth.AuthorizationOptions{Scopes: r.URL.Query()["scope"]}
	authURL, err := c.service.Start(ctx, sess, provider, opts)
	if err != nil {
		c.fail(w, log, err)
		return
	}

	if err := sess.Save(r, w); err != nil {
		log.Error("session save failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
		return
	}

	http.Redirect(w, r, authURL, http.StatusFound)
	log.Debug("redirect to provider")
}

// Callback maneja GET|POST /auth/{provider}/callback
func (c *AuthController) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	provider := chi.URLParam(r, "provider")
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("AuthController.Callback"), logger.Provider(provider))

	sess, err := c.session(r)
	if err != nil {
		log.Error("session unavailable", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
		return
	}

	out, err := c.service.Callback(ctx, sess, provider, oauth.CallbackParams(r))

	// El estado esperado se consume siempre; se persiste antes de responder.
	if serr := sess.Save(r, w); serr != nil {
		log.Error("session save failed", logger.Err(serr))
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
		return
	}
	if err != nil {
		c.fail(w, log, err)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(out.Profile)

	log.Info("login completed", logger.OwnerID(out.Profile.ID))
}

type providersResponse struct {
	Providers []login.ProviderInfo `json:"providers"`
}

// Providers maneja GET /auth/providers
func (c *AuthController) Providers(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(providersResponse{Providers: c.service.Providers()})
}

// session devuelve la sesión del request. Una cookie inválida (clave rotada,
// manipulada) no es fatal: gorilla devuelve igual una sesión nueva.
func (c *AuthController) session(r *http.Request) (*sessions.Session, error) {
	sess, err := c.sessions.Get(r, c.sessionName)
	if sess != nil && sess.IsNew {
		return sess, nil
	}
	return sess, err
}

// fail loguea el error una sola vez, con su kind, y escribe la respuesta.
func (c *AuthController) fail(w http.ResponseWriter, log *zap.Logger, err error) {
	if errors.Is(err, login.ErrProviderUnknown) {
		log.Warn("unknown provider")
		httperrors.WriteError(w, httperrors.ErrProviderNotFound)
		return
	}

	kind := oauth.KindOf(err)
	fields := []zap.Field{logger.FailureKind(string(kind)), logger.Err(err)}
	switch kind {
	case oauth.KindDenied:
		log.Info("login denied by user", fields...)
	case oauth.KindCallback, oauth.KindNotFound:
		log.Warn("login callback rejected", fields...)
	default:
		log.Error("login failed", fields...)
	}
	httperrors.WriteError(w, err)
}
