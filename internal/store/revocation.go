package store

import (
	"context"
	"database/sql"
	"time"
)

// RevocationRepository is the refresh-token denylist. The insert
// commits before Revoke returns, so every later lookup for the same
// identifier observes the revocation regardless of which connection
// serves it.
type RevocationRepository struct {
	db *sql.DB
}

func NewRevocationRepository(db *sql.DB) *RevocationRepository {
	return &RevocationRepository{db: db}
}

// Revoke adds a token identifier to the denylist. Revoking an already
// revoked identifier is not an error.
func (r *RevocationRepository) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	const query = `
		INSERT INTO revoked_tokens (jti, expires_at, revoked_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (jti) DO NOTHING`
	_, err := r.db.ExecContext(ctx, query, jti, expiresAt, time.Now())
	return err
}

// IsRevoked reports whether a token identifier is in the denylist.
func (r *RevocationRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE jti = $1)`
	var revoked bool
	if err := r.db.QueryRowContext(ctx, query, jti).Scan(&revoked); err != nil {
		return false, err
	}
	return revoked, nil
}

// PurgeExpired drops denylist rows whose tokens have expired anyway.
func (r *RevocationRepository) PurgeExpired(ctx context.Context) (int64, error) {
	const query = `DELETE FROM revoked_tokens WHERE expires_at < $1`
	result, err := r.db.ExecContext(ctx, query, time.Now())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
