package login

import (
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/sessions"

	"github.com/dropDatabas3/authbridge/internal/cache"
	"github.com/dropDatabas3/authbridge/internal/oauth"
	"github.com/dropDatabas3/authbridge/internal/oauth/tokenstore"
	"github.com/dropDatabas3/authbridge/internal/security/secretbox"
)

// Token store drivers.
const (
	DriverSession  = "session"
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// StoreConfig selects where temporary tokens live between the redirect and
// the callback.
type StoreConfig struct {
	Driver string
	TTL    time.Duration
	// Cache backs the memory and redis drivers.
	Cache cache.Client
	// DB backs the postgres driver.
	DB tokenstore.DB
	// Box, when set, seals the token secret before it is stored.
	Box *secretbox.Box
}

// Stores builds a token store scoped to the attempt held in a session.
type Stores struct {
	cfg StoreConfig
}

// NewStores validates cfg. An empty driver means session.
func NewStores(cfg StoreConfig) (*Stores, error) {
	if cfg.Driver == "" {
		cfg.Driver = DriverSession
	}
	switch cfg.Driver {
	case DriverSession:
	case DriverMemory, DriverRedis:
		if cfg.Cache == nil {
			return nil, fmt.Errorf("login: token store %q requires a cache client", cfg.Driver)
		}
	case DriverPostgres:
		if cfg.DB == nil {
			return nil, errors.New("login: token store postgres requires a database")
		}
	default:
		return nil, fmt.Errorf("login: unknown token store driver %q", cfg.Driver)
	}
	return &Stores{cfg: cfg}, nil
}

// Driver returns the configured driver.
func (s *Stores) Driver() string { return s.cfg.Driver }

// For returns the store for the attempt in sess, creating the attempt id when
// needed. The caller must save sess afterwards.
func (s *Stores) For(sess *sessions.Session) (oauth.TokenStore, error) {
	var (
		store oauth.TokenStore
		err   error
	)
	switch s.cfg.Driver {
	case DriverSession:
		store = tokenstore.NewSessionStore(sess)
	case DriverMemory, DriverRedis:
		id, _ := tokenstore.AttemptID(sess)
		store, err = tokenstore.NewCacheStore(s.cfg.Cache, id, s.cfg.TTL)
	case DriverPostgres:
		id, _ := tokenstore.AttemptID(sess)
		store, err = tokenstore.NewPostgresStore(s.cfg.DB, id, s.cfg.TTL)
	}
	if err != nil {
		return nil, err
	}
	if s.cfg.Box != nil {
		store = tokenstore.NewSealed(store, s.cfg.Box)
	}
	return store, nil
}
