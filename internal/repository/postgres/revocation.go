package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RevokedTokenRepo keeps the jti revocation ledger in Postgres.
// Rows are permanent until the sweeper removes ones whose tokens expired.
type RevokedTokenRepo struct {
	DB DBTX
}

const revokeToken = `-- name: RevokeToken
INSERT INTO revoked_tokens (jti, expires_at)
VALUES ($1, $2)
ON CONFLICT DO NOTHING
`

func (r *RevokedTokenRepo) RevokeToken(ctx context.Context, jti uuid.UUID, expiresAt time.Time) error {
	_, err := r.DB.Exec(ctx, revokeToken, jti, expiresAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

const isTokenRevoked = `-- name: IsTokenRevoked
SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE jti = $1)
`

func (r *RevokedTokenRepo) IsTokenRevoked(ctx context.Context, jti uuid.UUID) (bool, error) {
	var revoked bool
	err := r.DB.QueryRow(ctx, isTokenRevoked, jti).Scan(&revoked)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	return revoked, nil
}

const deleteExpiredTokens = `-- name: DeleteExpiredTokens
DELETE FROM revoked_tokens
WHERE expires_at < $1
`

// Drop ledger entries for tokens that are expired anyway: the codec rejects
// them on expiry alone, so the ledger no longer needs to remember them.
func (r *RevokedTokenRepo) DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.DB.Exec(ctx, deleteExpiredTokens, now)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return tag.RowsAffected(), nil
}
