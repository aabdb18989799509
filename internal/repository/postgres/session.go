package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/esavelyev/staffpass/internal/apperrors"
	"github.com/esavelyev/staffpass/internal/models"
)

type SessionRepo struct {
	DB DBTX
}

const createSession = `-- name: CreateSession
INSERT INTO sessions (id, user_id, current_refresh_jti)
VALUES ($1, $2, $3)
RETURNING id, user_id, current_refresh_jti, created_at, revoked_at
`

func (r *SessionRepo) CreateSession(ctx context.Context, userID uuid.UUID, refreshJti uuid.UUID) (models.Session, error) {
	rows, _ := r.DB.Query(ctx, createSession, uuid.New(), userID, refreshJti)
	session, err := pgx.CollectOneRow(rows, rowToSession)
	if err != nil {
		return session, fmt.Errorf("db error: %w", err)
	}

	return session, nil
}

const getSession = `-- name: GetSession
SELECT id, user_id, current_refresh_jti, created_at, revoked_at
FROM sessions
WHERE id = $1
`

func (r *SessionRepo) GetSession(ctx context.Context, id uuid.UUID) (models.Session, error) {
	rows, _ := r.DB.Query(ctx, getSession, id)
	session, err := pgx.CollectOneRow(rows, rowToSession)

	switch {
	case err == nil:
		return session, nil
	case errors.Is(err, pgx.ErrNoRows):
		return session, fmt.Errorf("repo error: %w", apperrors.ErrSessionNotFound)
	default:
		return session, fmt.Errorf("db error: %w", err)
	}
}

// Swap the jti only if the stored one is still the expected one and the
// session is alive. Concurrent rotations race on this row: exactly one
// update matches, everyone else gets no rows back.
const rotateRefreshJti = `-- name: RotateRefreshJti
UPDATE sessions
SET current_refresh_jti = $3
WHERE id = $1 AND current_refresh_jti = $2 AND revoked_at IS NULL
RETURNING id, user_id, current_refresh_jti, created_at, revoked_at
`

// Rotate session refresh jti with a single conditional update.
// If the update matched no row the session is read back to tell the caller
// what actually happened: not found, revoked, or someone else rotated first.
func (r *SessionRepo) RotateRefreshJti(ctx context.Context, id uuid.UUID, currentJti uuid.UUID, nextJti uuid.UUID) (models.Session, error) {
	rows, _ := r.DB.Query(ctx, rotateRefreshJti, id, currentJti, nextJti)
	session, err := pgx.CollectOneRow(rows, rowToSession)

	switch {
	case err == nil:
		return session, nil
	case errors.Is(err, pgx.ErrNoRows):
		return r.classifyFailedRotate(ctx, id, currentJti)
	default:
		return session, fmt.Errorf("db error: %w", err)
	}
}

func (r *SessionRepo) classifyFailedRotate(ctx context.Context, id uuid.UUID, currentJti uuid.UUID) (models.Session, error) {
	session, err := r.GetSession(ctx, id)

	switch {
	case err != nil:
		return session, err
	case session.Revoked():
		return session, fmt.Errorf("repo error: %w", apperrors.ErrSessionRevoked)
	case session.CurrentRefreshJTI != currentJti:
		return session, fmt.Errorf("repo error: %w", apperrors.ErrRefreshJtiMismatch)
	default:
		// The conditional update matched nothing but the re-read says it
		// should have. Report it, the caller must not treat this as success.
		return session, errors.New("rotate failed but session looks rotatable")
	}
}

const revokeSession = `-- name: RevokeSession
UPDATE sessions
SET revoked_at = COALESCE(revoked_at, $2)
WHERE id = $1
`

// Revoke session: set revoked_at once and never overwrite it.
// Revoking a revoked or unknown session is not an error.
func (r *SessionRepo) RevokeSession(ctx context.Context, id uuid.UUID) error {
	_, err := r.DB.Exec(ctx, revokeSession, id, time.Now())
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

const deleteSessionsRevokedBefore = `-- name: DeleteSessionsRevokedBefore
DELETE FROM sessions
WHERE revoked_at IS NOT NULL AND revoked_at < $1
`

func (r *SessionRepo) DeleteSessionsRevokedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.DB.Exec(ctx, deleteSessionsRevokedBefore, cutoff)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return tag.RowsAffected(), nil
}

func rowToSession(row pgx.CollectableRow) (models.Session, error) {
	var s models.Session
	err := row.Scan(&s.ID, &s.UserID, &s.CurrentRefreshJTI, &s.CreatedAt, &s.RevokedAt)
	return s, err
}
