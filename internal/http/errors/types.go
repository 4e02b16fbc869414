package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/dropDatabas3/authbridge/internal/oauth"
)

// AppError define la estructura estándar de errores HTTP.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // causa original, sólo para logs
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

// New crea un nuevo AppError.
func New(status int, code, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status}
}

// WithDetail devuelve una COPIA con detalle.
func (e *AppError) WithDetail(detail string) *AppError {
	cp := *e
	cp.Detail = detail
	return &cp
}

// WithCause devuelve una COPIA con la causa original.
func (e *AppError) WithCause(err error) *AppError {
	cp := *e
	cp.Err = err
	return &cp
}

// FromError convierte cualquier error en AppError. Los errores del flujo
// OAuth se mapean por su kind; el resto es un 500 genérico que conserva la causa.
func FromError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}

	switch oauth.KindOf(err) {
	case oauth.KindDenied:
		return ErrAccessDenied.WithCause(err)
	case oauth.KindCallback:
		var cerr *oauth.CallbackValidationError
		if stderrors.As(err, &cerr) {
			return ErrCallbackInvalid.WithDetail(cerr.Reason).WithCause(err)
		}
		return ErrCallbackInvalid.WithCause(err)
	case oauth.KindProvider:
		var perr *oauth.ProviderCommunicationError
		if stderrors.As(err, &perr) {
			return ErrProvider.WithDetail(perr.Message).WithCause(err)
		}
		return ErrProvider.WithCause(err)
	case oauth.KindNotFound:
		return ErrAttemptExpired.WithCause(err)
	}
	return ErrInternalServerError.WithCause(err)
}

// =================================================================================
// ERRORES PREDEFINIDOS
// =================================================================================

var (
	ErrAccessDenied = &AppError{
		Code:       "ACCESS_DENIED",
		Message:    "El usuario rechazó el acceso en el proveedor.",
		HTTPStatus: http.StatusForbidden,
	}

	ErrCallbackInvalid = &AppError{
		Code:       "CALLBACK_INVALID",
		Message:    "El callback del proveedor es inválido.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrAttemptExpired = &AppError{
		Code:       "ATTEMPT_EXPIRED",
		Message:    "El intento de login expiró o no existe. Iniciá el login nuevamente.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrProvider = &AppError{
		Code:       "PROVIDER_ERROR",
		Message:    "Error comunicándose con el proveedor de identidad.",
		HTTPStatus: http.StatusBadGateway,
	}

	ErrProviderNotFound = &AppError{
		Code:       "PROVIDER_NOT_FOUND",
		Message:    "El proveedor solicitado no está configurado.",
		HTTPStatus: http.StatusNotFound,
	}

	ErrRateLimitExceeded = &AppError{
		Code:       "RATE_LIMIT_EXCEEDED",
		Message:    "Demasiados intentos de login. Probá de nuevo más tarde.",
		HTTPStatus: http.StatusTooManyRequests,
	}

	ErrNotFound = &AppError{
		Code:       "NOT_FOUND",
		Message:    "Recurso no encontrado.",
		HTTPStatus: http.StatusNotFound,
	}

	ErrMethodNotAllowed = &AppError{
		Code:       "METHOD_NOT_ALLOWED",
		Message:    "Método no permitido.",
		HTTPStatus: http.StatusMethodNotAllowed,
	}

	ErrInternalServerError = &AppError{
		Code:       "INTERNAL_SERVER_ERROR",
		Message:    "Ocurrió un error inesperado en el servidor.",
		HTTPStatus: http.StatusInternalServerError,
	}
)
