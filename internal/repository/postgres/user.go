package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/esavelyev/staffpass/internal/apperrors"
	"github.com/esavelyev/staffpass/internal/models"
	"github.com/esavelyev/staffpass/internal/repository"
)

type UserRepo struct {
	DB DBTX
}

// Insert user and role assignments in one statement, then return the row
// together with its role ids and the permissions those roles carry.
const createUser = `-- name: CreateUser
WITH new_user AS (
	INSERT INTO users (id, email, password_hash)
	VALUES ($1, $2, $3)
	RETURNING id, created_at, email, password_hash
), assigned AS (
	INSERT INTO user_roles (user_id, role_id)
	SELECT new_user.id, role_id FROM new_user, unnest($4::text[]) AS role_id
)
SELECT nu.id, nu.created_at, nu.email, nu.password_hash,
	$4::text[] AS role_ids,
	COALESCE((
		SELECT array_agg(DISTINCT rp.permission)
		FROM role_permissions rp
		WHERE rp.role_id = ANY($4::text[])
	), '{}') AS permissions
FROM new_user nu
`

func (r *UserRepo) CreateUser(ctx context.Context, arg repository.CreateUserParams) (models.Identity, error) {
	rows, _ := r.DB.Query(ctx, createUser, uuid.New(), arg.Email, arg.PasswordHash, arg.RoleIDs)
	user, err := pgx.CollectOneRow(rows, rowToIdentity)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgerrcode.UniqueViolation:
				return user, apperrors.ErrUserAlreadyExists
			case pgerrcode.ForeignKeyViolation:
				return user, fmt.Errorf("unknown role id: %w", err)
			}
		}

		return user, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

const getUserByID = `-- name: GetUserByID
SELECT u.id, u.created_at, u.email, u.password_hash,
	COALESCE(array_agg(DISTINCT ur.role_id) FILTER (WHERE ur.role_id IS NOT NULL), '{}') AS role_ids,
	COALESCE(array_agg(DISTINCT rp.permission) FILTER (WHERE rp.permission IS NOT NULL), '{}') AS permissions
FROM users u
LEFT JOIN user_roles ur ON ur.user_id = u.id
LEFT JOIN role_permissions rp ON rp.role_id = ur.role_id
WHERE u.id = $1
GROUP BY u.id
`

func (r *UserRepo) GetUserByID(ctx context.Context, id uuid.UUID) (models.Identity, error) {
	rows, _ := r.DB.Query(ctx, getUserByID, id)
	user, err := pgx.CollectOneRow(rows, rowToIdentity)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user, apperrors.ErrUserNotFound
	default:
		return user, fmt.Errorf("db error: %w", err)
	}
}

const getUserByEmail = `-- name: GetUserByEmail
SELECT u.id, u.created_at, u.email, u.password_hash,
	COALESCE(array_agg(DISTINCT ur.role_id) FILTER (WHERE ur.role_id IS NOT NULL), '{}') AS role_ids,
	COALESCE(array_agg(DISTINCT rp.permission) FILTER (WHERE rp.permission IS NOT NULL), '{}') AS permissions
FROM users u
LEFT JOIN user_roles ur ON ur.user_id = u.id
LEFT JOIN role_permissions rp ON rp.role_id = ur.role_id
WHERE u.email = $1
GROUP BY u.id
`

func (r *UserRepo) GetUserByEmail(ctx context.Context, email string) (models.Identity, error) {
	rows, _ := r.DB.Query(ctx, getUserByEmail, email)
	user, err := pgx.CollectOneRow(rows, rowToIdentity)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user, apperrors.ErrUserNotFound
	default:
		return user, fmt.Errorf("db error: %w", err)
	}
}

func rowToIdentity(row pgx.CollectableRow) (models.Identity, error) {
	var u models.Identity
	err := row.Scan(&u.ID, &u.CreatedAt, &u.Email, &u.PasswordHash, &u.RoleIDs, &u.Permissions)
	return u, err
}
