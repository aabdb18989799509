package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/esavelyev/staffpass/internal/models"
)

type CreateUserParams struct {
	Email        string
	PasswordHash string
	RoleIDs      []string
}

// User repository interface
type UserRepo interface {
	// Create user with the given roles
	// If user with the email exists already has to return apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, arg CreateUserParams) (models.Identity, error)

	// Get user by id or email, with role ids and flattened permissions loaded
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, id uuid.UUID) (models.Identity, error)
	GetUserByEmail(ctx context.Context, email string) (models.Identity, error)
}

// Session repository interface
type SessionRepo interface {
	// Create session with the initial refresh jti and no revocation timestamp
	CreateSession(ctx context.Context, userID uuid.UUID, refreshJti uuid.UUID) (models.Session, error)

	// Get session by id
	// If session not found must return apperrors.ErrSessionNotFound
	GetSession(ctx context.Context, id uuid.UUID) (models.Session, error)

	// Swap the session's current refresh jti in a single conditional update:
	// succeeds only when the stored jti equals currentJti and the session is
	// not revoked. On failure must return one of
	// apperrors.ErrSessionNotFound, apperrors.ErrSessionRevoked or
	// apperrors.ErrRefreshJtiMismatch, so the caller can tell a lost
	// rotation race from a dead session.
	RotateRefreshJti(ctx context.Context, id uuid.UUID, currentJti uuid.UUID, nextJti uuid.UUID) (models.Session, error)

	// Set the revocation timestamp if unset. Idempotent: revoking an
	// already-revoked session is a no-op, revoking an unknown session id is
	// not an error.
	RevokeSession(ctx context.Context, id uuid.UUID) error

	// Remove sessions revoked before the cutoff. Maintenance only, the core
	// never depends on removal.
	DeleteSessionsRevokedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Revocation ledger interface: the durable set of jtis that must never be
// accepted again, consulted on every refresh independent of session state.
type RevokedTokenRepo interface {
	// Add jti to the ledger. Idempotent. expiresAt is the original token
	// expiry and is only a garbage-collection hint.
	RevokeToken(ctx context.Context, jti uuid.UUID, expiresAt time.Time) error

	IsTokenRevoked(ctx context.Context, jti uuid.UUID) (bool, error)

	// Remove entries whose tokens are expired anyway. Maintenance only.
	DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error)
}

type CreateEmployeeParams struct {
	FirstName  string
	LastName   string
	Email      string
	Department string
	Position   string
	Salary     decimal.Decimal
	HiredAt    time.Time
}

type UpdateEmployeeParams struct {
	FirstName  string
	LastName   string
	Email      string
	Department string
	Position   string
	Salary     decimal.Decimal
	HiredAt    time.Time
}

type ListEmployeesOpts struct {
	// Filter by department if not empty
	Department string

	// Limit number of returned rows, 0 means no limit
	Limit int
}

// Employee repository interface
type EmployeeRepo interface {
	// Create employee
	// If the work email is taken must return apperrors.ErrEmployeeEmailTaken
	CreateEmployee(ctx context.Context, arg CreateEmployeeParams) (models.Employee, error)

	// Get employee by id
	// If not found must return apperrors.ErrEmployeeNotFound
	GetEmployee(ctx context.Context, id uuid.UUID) (models.Employee, error)

	// List employees ordered by hire date, newest first
	ListEmployees(ctx context.Context, opts ListEmployeesOpts) ([]models.Employee, error)

	// Overwrite all mutable fields
	// If not found must return apperrors.ErrEmployeeNotFound
	UpdateEmployee(ctx context.Context, id uuid.UUID, arg UpdateEmployeeParams) (models.Employee, error)

	// Delete employee by id
	// If not found must return apperrors.ErrEmployeeNotFound
	DeleteEmployee(ctx context.Context, id uuid.UUID) error
}

// Storage bundles repositories backed by the same database handle
type Storage interface {
	User() UserRepo
	Session() SessionRepo
	Revocation() RevokedTokenRepo
	Employee() EmployeeRepo

	// Run fn within a database transaction
	InTx(ctx context.Context, fn func(Storage) error) error
}
