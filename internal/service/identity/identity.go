package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/esavelyev/staffpass/internal/apperrors"
	"github.com/esavelyev/staffpass/internal/models"
	"github.com/esavelyev/staffpass/internal/repository"
	"github.com/esavelyev/staffpass/internal/service/auth"
)

// AdminRoleID is assigned to the bootstrap admin account.
const AdminRoleID = "admin"

type IdentityService struct {
	hasher auth.PasswordHasher
	users  repository.UserRepo
}

func NewService(hasher auth.PasswordHasher, users repository.UserRepo) *IdentityService {
	if hasher == nil {
		hasher = auth.DefaultHasher
	}

	return &IdentityService{
		hasher: hasher,
		users:  users,
	}
}

// CreateUser stores a new identity with the given roles.
// The password is hashed before it ever reaches the repository.
func (s *IdentityService) CreateUser(ctx context.Context, email string, password string, roleIDs []string) (models.Identity, error) {
	var user models.Identity

	if email == "" || password == "" {
		return user, fmt.Errorf("email and password are required: %w", apperrors.ErrBadRequest)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return user, fmt.Errorf("can't use this as password, Err: %w", err)
	}

	user, err = s.users.CreateUser(ctx, repository.CreateUserParams{
		Email:        email,
		PasswordHash: hash,
		RoleIDs:      roleIDs,
	})
	if err != nil {
		return user, fmt.Errorf("can't create user. Err: %w", err)
	}

	return user, nil
}

func (s *IdentityService) GetUserByID(ctx context.Context, id uuid.UUID) (models.Identity, error) {
	return s.users.GetUserByID(ctx, id)
}

func (s *IdentityService) GetUserByEmail(ctx context.Context, email string) (models.Identity, error) {
	return s.users.GetUserByEmail(ctx, email)
}

// EnsureAdmin creates the bootstrap admin account if it does not exist yet.
// Returns true when the account was created on this call. Empty credentials
// mean bootstrap is not configured and are not an error.
func (s *IdentityService) EnsureAdmin(ctx context.Context, email string, password string) (bool, error) {
	if email == "" || password == "" {
		return false, nil
	}

	_, err := s.CreateUser(ctx, email, password, []string{AdminRoleID})
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, apperrors.ErrUserAlreadyExists):
		return false, nil
	default:
		return false, fmt.Errorf("can't bootstrap admin. Err: %w", err)
	}
}
