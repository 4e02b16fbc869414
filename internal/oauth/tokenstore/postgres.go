package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dropDatabas3/authbridge/internal/oauth"
	migrations "github.com/dropDatabas3/authbridge/migrations/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of *pgxpool.Pool used by PostgresStore.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore keeps temporary tokens in Postgres, one row per attempt.
// Expired rows read as missing; Purge removes them.
type PostgresStore struct {
	db        DB
	attemptID string
	ttl       time.Duration
	now       func() time.Time
}

// NewPostgresStore binds db to one attempt. ttl <= 0 uses DefaultTTL.
func NewPostgresStore(db DB, attemptID string, ttl time.Duration) (*PostgresStore, error) {
	if attemptID == "" {
		return nil, errors.New("tokenstore: attempt id is required")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &PostgresStore{db: db, attemptID: attemptID, ttl: ttl, now: time.Now}, nil
}

// Migrate applies the embedded migrations. Every file is idempotent.
func Migrate(ctx context.Context, db DB) error {
	all, err := migrations.All()
	if err != nil {
		return fmt.Errorf("tokenstore: migrate: %w", err)
	}
	for _, m := range all {
		if _, err := db.Exec(ctx, m.SQL); err != nil {
			return fmt.Errorf("tokenstore: migrate %s: %w", m.Name, err)
		}
	}
	return nil
}

// Purge deletes every expired row and returns how many were removed.
func Purge(ctx context.Context, db DB, now time.Time) (int64, error) {
	tag, err := db.Exec(ctx, `DELETE FROM oauth1_temporary_tokens WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("tokenstore: purge: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) Save(ctx context.Context, token oauth.TemporaryToken) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO oauth1_temporary_tokens (attempt_id, token, secret, expires_at)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (attempt_id)
		DO UPDATE SET token = EXCLUDED.token,
		              secret = EXCLUDED.secret,
		              expires_at = EXCLUDED.expires_at
	`, s.attemptID, token.Value(), token.Secret(), s.now().Add(s.ttl))
	if err != nil {
		return fmt.Errorf("tokenstore: save: %w", err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context) (oauth.TemporaryToken, error) {
	row := s.db.QueryRow(ctx, `
		SELECT token, secret FROM oauth1_temporary_tokens
		WHERE attempt_id = $1 AND expires_at > $2
	`, s.attemptID, s.now())
	var value, secret string
	if err := row.Scan(&value, &secret); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return oauth.TemporaryToken{}, oauth.ErrNotFound
		}
		return oauth.TemporaryToken{}, fmt.Errorf("tokenstore: load: %w", err)
	}
	return oauth.NewTemporaryToken(value, secret)
}

func (s *PostgresStore) Clear(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM oauth1_temporary_tokens WHERE attempt_id = $1`, s.attemptID); err != nil {
		return fmt.Errorf("tokenstore: clear: %w", err)
	}
	return nil
}
