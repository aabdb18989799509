package identity

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/esavelyev/staffpass/internal/apperrors"
	"github.com/esavelyev/staffpass/internal/repository"
	"github.com/esavelyev/staffpass/internal/repository/postgres"
	"github.com/esavelyev/staffpass/internal/testutil"
)

func Test_IdentityService(t *testing.T) {
	t.Parallel() // It's ok to run in parallel with other tests, but not with subtests

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	// Helper to run each subtest against a rolled-back transaction
	inTx := func(t *testing.T, fn func(s *IdentityService, storage repository.Storage)) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			storage := postgres.NewStorage(tx)
			fn(NewService(nil, storage.User()), storage)
		})
	}

	t.Run("CreateUser", func(t *testing.T) {
		t.Run("ok with roles", func(t *testing.T) {
			inTx(t, func(s *IdentityService, _ repository.Storage) {
				user, err := s.CreateUser(t.Context(), "nina@staffpass.io", "password123", []string{"hr.manager"})

				require.NoError(t, err, "creating new user should be ok")
				assert.NotEmpty(t, user.ID, "user ID should not be empty")
				assert.Equal(t, "nina@staffpass.io", user.Email)
				assert.NotEqual(t, "password123", user.PasswordHash, "password must be stored hashed")
				assert.NotZero(t, user.CreatedAt)
				assert.Equal(t, []string{"hr.manager"}, user.RoleIDs)
				assert.ElementsMatch(t, []string{"employees:read", "employees:write"}, user.Permissions)
			})
		})

		t.Run("empty password fail", func(t *testing.T) {
			inTx(t, func(s *IdentityService, _ repository.Storage) {
				_, err := s.CreateUser(t.Context(), "nina@staffpass.io", "", nil)

				require.Error(t, err)
				assert.ErrorIs(t, err, apperrors.ErrBadRequest)
			})
		})

		t.Run("duplicate email fail", func(t *testing.T) {
			inTx(t, func(s *IdentityService, _ repository.Storage) {
				_, err := s.CreateUser(t.Context(), "nina@staffpass.io", "password123", []string{"staff"})
				require.NoError(t, err)

				_, err = s.CreateUser(t.Context(), "nina@staffpass.io", "other-password", []string{"staff"})

				require.Error(t, err)
				assert.ErrorIs(t, err, apperrors.ErrUserAlreadyExists)
			})
		})

		t.Run("unknown role fail", func(t *testing.T) {
			inTx(t, func(s *IdentityService, _ repository.Storage) {
				_, err := s.CreateUser(t.Context(), "nina@staffpass.io", "password123", []string{"overlord"})

				require.Error(t, err, "roles must exist before they can be assigned")
			})
		})
	})

	t.Run("lookups", func(t *testing.T) {
		t.Run("by id and email return the same identity", func(t *testing.T) {
			inTx(t, func(s *IdentityService, _ repository.Storage) {
				created, err := s.CreateUser(t.Context(), "finn@staffpass.io", "password123", []string{"staff"})
				require.NoError(t, err)

				byID, err := s.GetUserByID(t.Context(), created.ID)
				require.NoError(t, err)
				byEmail, err := s.GetUserByEmail(t.Context(), "finn@staffpass.io")
				require.NoError(t, err)

				assert.Equal(t, byID, byEmail)
				assert.Equal(t, created.ID, byID.ID)
				assert.Equal(t, []string{"employees:read"}, byID.Permissions)
			})
		})

		t.Run("missing user fail", func(t *testing.T) {
			inTx(t, func(s *IdentityService, _ repository.Storage) {
				_, err := s.GetUserByID(t.Context(), uuid.New())

				require.Error(t, err)
				assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
			})
		})
	})

	t.Run("EnsureAdmin", func(t *testing.T) {
		t.Run("creates admin once", func(t *testing.T) {
			inTx(t, func(s *IdentityService, _ repository.Storage) {
				created, err := s.EnsureAdmin(t.Context(), "root@staffpass.io", "bootstrap-secret")
				require.NoError(t, err)
				assert.True(t, created, "first call must create the account")

				created, err = s.EnsureAdmin(t.Context(), "root@staffpass.io", "bootstrap-secret")
				require.NoError(t, err)
				assert.False(t, created, "second call must be a no-op")

				admin, err := s.GetUserByEmail(t.Context(), "root@staffpass.io")
				require.NoError(t, err)
				assert.Equal(t, []string{AdminRoleID}, admin.RoleIDs)
				assert.Contains(t, admin.Permissions, "users:manage")
			})
		})

		t.Run("not configured is a no-op", func(t *testing.T) {
			inTx(t, func(s *IdentityService, _ repository.Storage) {
				created, err := s.EnsureAdmin(t.Context(), "", "")

				require.NoError(t, err)
				assert.False(t, created)
			})
		})
	})
}
