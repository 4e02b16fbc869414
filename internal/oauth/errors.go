package oauth

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// FailureKind classifies a failed operation. Used for metrics labels and HTTP mapping.
type FailureKind string

const (
	KindDenied   FailureKind = "denied"
	KindProvider FailureKind = "provider"
	KindCallback FailureKind = "callback"
	KindNotFound FailureKind = "not_found"
	KindInternal FailureKind = "internal"
)

// ErrNotFound is returned by a temporary token store when no token is saved
// for the current attempt.
var ErrNotFound = errors.New("oauth: temporary token not found")

// Sentinels for errors.Is. Each one matches every error of its type.
var (
	ErrUserDenied         = &UserDeniedAccessError{}
	ErrProvider           = &ProviderCommunicationError{}
	ErrCallbackValidation = &CallbackValidationError{}
)

// UserDeniedAccessError signals that the user declined consent at the provider.
// It is an expected outcome, not a fault.
type UserDeniedAccessError struct {
	Params url.Values
}

func (e *UserDeniedAccessError) Error() string { return "oauth: user denied access" }

// Is matches any *UserDeniedAccessError.
func (e *UserDeniedAccessError) Is(target error) bool {
	_, ok := target.(*UserDeniedAccessError)
	return ok
}

// ParamsString renders the callback parameters in a stable order for display.
func (e *UserDeniedAccessError) ParamsString() string {
	return formatParams(e.Params)
}

// ProviderCommunicationError covers every network or provider-side failure:
// request token issuance, token exchange and profile fetch. Status is the
// HTTP status reported by the provider (0 when the request never completed).
type ProviderCommunicationError struct {
	Message string
	Status  int
	Body    string
	Err     error
}

func (e *ProviderCommunicationError) Error() string {
	var b strings.Builder
	b.WriteString("oauth: ")
	b.WriteString(e.Message)
	if e.Status != 0 {
		fmt.Fprintf(&b, " (status %d)", e.Status)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ProviderCommunicationError) Unwrap() error { return e.Err }

// Is matches any *ProviderCommunicationError.
func (e *ProviderCommunicationError) Is(target error) bool {
	_, ok := target.(*ProviderCommunicationError)
	return ok
}

// CallbackValidationError reports a structural problem with the callback:
// missing or mismatched state, missing code or verifier, mismatched OAuth1
// token, or a stale attempt with no stored temporary token. It may indicate
// tampering and must always reach the caller.
type CallbackValidationError struct {
	Reason string
	Params url.Values
	Err    error
}

func (e *CallbackValidationError) Error() string {
	if e.Err != nil {
		return "oauth: invalid callback: " + e.Reason + ": " + e.Err.Error()
	}
	return "oauth: invalid callback: " + e.Reason
}

func (e *CallbackValidationError) Unwrap() error { return e.Err }

// Is matches any *CallbackValidationError.
func (e *CallbackValidationError) Is(target error) bool {
	_, ok := target.(*CallbackValidationError)
	return ok
}

// NewProviderError builds a ProviderCommunicationError.
func NewProviderError(message string, status int, body string, err error) *ProviderCommunicationError {
	return &ProviderCommunicationError{Message: message, Status: status, Body: body, Err: err}
}

// NewCallbackError builds a CallbackValidationError keeping a copy of the params.
func NewCallbackError(reason string, params url.Values) *CallbackValidationError {
	return &CallbackValidationError{Reason: reason, Params: cloneParams(params)}
}

// KindOf classifies err. Callback errors caused by a missing stored token
// are reported as callback failures, since the attempt is stale or forged.
func KindOf(err error) FailureKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUserDenied):
		return KindDenied
	case errors.Is(err, ErrCallbackValidation):
		return KindCallback
	case errors.Is(err, ErrProvider):
		return KindProvider
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	default:
		return KindInternal
	}
}

func cloneParams(params url.Values) url.Values {
	if params == nil {
		return nil
	}
	out := make(url.Values, len(params))
	for k, v := range params {
		out[k] = append([]string(nil), v...)
	}
	return out
}

func formatParams(params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString("[")
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(k)
		b.WriteString(" => ")
		b.WriteString(strings.Join(params[k], ","))
	}
	b.WriteString("]")
	return b.String()
}
