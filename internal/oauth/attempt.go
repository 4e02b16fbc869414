package oauth

import (
	"context"
	"net/url"
	"time"

	"github.com/dropDatabas3/authbridge/internal/metrics"
	"github.com/dropDatabas3/authbridge/internal/observability/logger"
)

// FlowState is the position of an attempt in the login state machine.
type FlowState string

const (
	StateStart                  FlowState = "start"
	StateAuthorizationURLIssued FlowState = "authorization_url_issued"
	StateCallbackReceived       FlowState = "callback_received"
	StateCallbackValidated      FlowState = "callback_validated"
	StateTokenExchanged         FlowState = "token_exchanged"
	StateOwnerFetched           FlowState = "owner_fetched"
	StateFailed                 FlowState = "failed"
)

// Result is the outcome of a completed attempt.
type Result struct {
	Token *AccessToken
	Owner ResourceOwner
}

// Attempt drives a single authentication attempt through a Provider and
// records where it stands. The redirect splits an attempt across two
// requests, so the callback half usually runs on a fresh Attempt.
//
// An Attempt is not safe for concurrent use.
type Attempt struct {
	provider Provider
	state    FlowState
	failure  error
	kind     FailureKind
}

// NewAttempt starts a new attempt against p.
func NewAttempt(p Provider) *Attempt {
	return &Attempt{provider: p, state: StateStart}
}

// State returns the current state.
func (a *Attempt) State() FlowState { return a.state }

// Failure returns the error that moved the attempt to StateFailed, and its kind.
func (a *Attempt) Failure() (error, FailureKind) { return a.failure, a.kind }

// Begin builds the authorization URL and returns it with the CSRF state the
// caller must keep until the callback. The state is read after the URL is
// built, since some clients only generate it then.
func (a *Attempt) Begin(ctx context.Context, opts AuthorizationOptions) (authURL, csrfState string, err error) {
	start := time.Now()
	authURL, err = a.provider.AuthorizationURL(ctx, opts)
	metrics.ObserveProviderRequest(a.provider.Name(), "authorization_url", time.Since(start))
	if err != nil {
		return "", "", a.fail(ctx, err)
	}
	a.transition(ctx, StateAuthorizationURLIssued)
	return authURL, a.provider.State(), nil
}

// Complete validates the callback, exchanges the code and fetches the owner.
func (a *Attempt) Complete(ctx context.Context, params url.Values, expectedState string) (*Result, error) {
	a.transition(ctx, StateCallbackReceived)

	if err := a.provider.CheckCallback(ctx, params, expectedState); err != nil {
		return nil, a.fail(ctx, err)
	}
	a.transition(ctx, StateCallbackValidated)

	code := a.provider.AuthCodeFromCallback(params)

	start := time.Now()
	token, err := a.provider.AccessTokenFromAuthCode(ctx, code)
	metrics.ObserveProviderRequest(a.provider.Name(), "access_token", time.Since(start))
	if err != nil {
		return nil, a.fail(ctx, err)
	}
	a.transition(ctx, StateTokenExchanged)

	start = time.Now()
	owner, err := a.provider.ResourceOwner(ctx, token)
	metrics.ObserveProviderRequest(a.provider.Name(), "resource_owner", time.Since(start))
	if err != nil {
		return nil, a.fail(ctx, err)
	}
	a.transition(ctx, StateOwnerFetched)

	return &Result{Token: token, Owner: owner}, nil
}

func (a *Attempt) transition(ctx context.Context, to FlowState) {
	logger.From(ctx).Debug("oauth flow transition",
		logger.Component("oauth.attempt"),
		logger.Provider(a.provider.Name()),
		logger.String("from", string(a.state)),
		logger.String("to", string(to)),
	)
	a.state = to
	metrics.RecordTransition(a.provider.Name(), string(to))
}

// fail records err without logging it; reporting is left to the caller.
func (a *Attempt) fail(ctx context.Context, err error) error {
	a.failure = err
	a.kind = KindOf(err)
	a.transition(ctx, StateFailed)
	metrics.RecordFailure(a.provider.Name(), string(a.kind))
	return err
}
