package tokenstore

import (
	"context"

	"github.com/dropDatabas3/authbridge/internal/oauth"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
)

// Session keys for the temporary token pair.
const (
	SessionKeyToken  = "Authenticator.twitter.temporary_token"
	SessionKeySecret = "Authenticator.twitter.temporary_token_secret"

	sessionKeyAttempt = "Authenticator.attempt_id"
)

// SessionStore keeps the temporary token in the values of a gorilla session.
// It only mutates the in-memory session; the host saves it before writing
// the response.
type SessionStore struct {
	sess *sessions.Session
}

// NewSessionStore wraps sess.
func NewSessionStore(sess *sessions.Session) *SessionStore {
	return &SessionStore{sess: sess}
}

func (s *SessionStore) Save(_ context.Context, token oauth.TemporaryToken) error {
	s.sess.Values[SessionKeyToken] = token.Value()
	s.sess.Values[SessionKeySecret] = token.Secret()
	return nil
}

func (s *SessionStore) Load(context.Context) (oauth.TemporaryToken, error) {
	value, _ := s.sess.Values[SessionKeyToken].(string)
	secret, _ := s.sess.Values[SessionKeySecret].(string)
	if value == "" {
		return oauth.TemporaryToken{}, oauth.ErrNotFound
	}
	return oauth.NewTemporaryToken(value, secret)
}

func (s *SessionStore) Clear(context.Context) error {
	delete(s.sess.Values, SessionKeyToken)
	delete(s.sess.Values, SessionKeySecret)
	return nil
}

// AttemptID returns the attempt id held in sess, creating one when absent.
// The boolean reports whether a new id was created and the session must be
// saved.
func AttemptID(sess *sessions.Session) (string, bool) {
	if id, ok := sess.Values[sessionKeyAttempt].(string); ok && id != "" {
		return id, false
	}
	id := uuid.NewString()
	sess.Values[sessionKeyAttempt] = id
	return id, true
}

// ResetAttempt drops the attempt id so the next login starts a new one.
func ResetAttempt(sess *sessions.Session) {
	delete(sess.Values, sessionKeyAttempt)
}
