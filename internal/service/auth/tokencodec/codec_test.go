package tokencodec

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/esavelyev/staffpass/internal/apperrors"
	"github.com/esavelyev/staffpass/internal/models"
)

func Test_Codec(t *testing.T) {
	t.Parallel()

	testUser := models.Identity{
		ID:          uuid.New(),
		Email:       "mila@staffpass.io",
		RoleIDs:     []string{"hr.manager"},
		Permissions: []string{"employees:read", "employees:write"},
	}

	newCodec := func(t *testing.T, mutate func(*Config)) *Codec {
		t.Helper()
		cfg := Config{
			AccessSecret:  "access-secret",
			RefreshSecret: "refresh-secret",
		}
		if mutate != nil {
			mutate(&cfg)
		}

		codec, err := New(cfg)
		require.NoError(t, err, "codec should be created without errors")
		return codec
	}

	t.Run("new defaults", func(t *testing.T) {
		c := newCodec(t, nil)

		require.Equal(t, defaultAccessTokenTTL, c.accessTTL, "default access token TTL should be set")
		require.Equal(t, defaultRefreshTokenTTL, c.refreshTTL, "default refresh token TTL should be set")
		require.Equal(t, defaultSigningMethod, c.alg.Alg(), "default signing method should be set")
		require.Equal(t, defaultIssuer, c.issuer)
		require.Equal(t, defaultAudience, c.audience)
	})

	t.Run("new requires both secrets", func(t *testing.T) {
		_, err := New(Config{AccessSecret: "only-one"})

		require.Error(t, err)
	})

	t.Run("new rejects equal secrets", func(t *testing.T) {
		_, err := New(Config{AccessSecret: "same", RefreshSecret: "same"})

		require.Error(t, err, "same secret for both token kinds must not be accepted")
	})

	t.Run("IssueAccess", func(t *testing.T) {
		t.Run("claims", func(t *testing.T) {
			c := newCodec(t, nil)

			issued, err := c.IssueAccess(testUser)
			require.NoError(t, err)
			require.NotEmpty(t, issued.Value)
			assert.WithinDuration(t, time.Now().Add(defaultAccessTokenTTL), issued.ExpiresAt, time.Second)

			token, err := jwt.ParseWithClaims(issued.Value, &AccessClaims{}, func(token *jwt.Token) (any, error) {
				return []byte("access-secret"), nil
			})
			require.NoError(t, err)
			require.True(t, token.Valid, "access token should be valid")

			claims, ok := token.Claims.(*AccessClaims)
			require.True(t, ok, "claims should be of type AccessClaims")
			assert.Equal(t, TokenTypeAccess, claims.TokenType)
			assert.Equal(t, testUser.ID, claims.UserID, "user ID in token should match")
			assert.Equal(t, testUser.ID.String(), claims.Subject)
			assert.Equal(t, testUser.Email, claims.Email)
			assert.Equal(t, testUser.RoleIDs, claims.RoleIDs)
			assert.Equal(t, testUser.Permissions, claims.Permissions)
			assert.Equal(t, defaultIssuer, claims.Issuer)
			assert.NotEmpty(t, claims.ID, "token has to has jti")
			assert.WithinDuration(t, time.Now(), claims.IssuedAt.Time, time.Second, "issued at should be close to now")
			assert.WithinDuration(t, issued.ExpiresAt, claims.ExpiresAt.Time, 0, "expires at should match the issued token")
		})

		t.Run("generate different tokens", func(t *testing.T) {
			c := newCodec(t, nil)

			first, err := c.IssueAccess(testUser)
			require.NoError(t, err)
			second, err := c.IssueAccess(testUser)
			require.NoError(t, err)

			assert.NotEqual(t, first.Value, second.Value, "every access token should carry a fresh jti")
		})
	})

	t.Run("IssueRefresh", func(t *testing.T) {
		c := newCodec(t, nil)
		sessionID := uuid.New()
		jti := uuid.New()

		issued, err := c.IssueRefresh(testUser.ID, sessionID, jti)
		require.NoError(t, err)
		assert.WithinDuration(t, time.Now().Add(defaultRefreshTokenTTL), issued.ExpiresAt, time.Second)

		claims, err := c.VerifyRefresh(issued.Value)
		require.NoError(t, err)
		assert.Equal(t, TokenTypeRefresh, claims.TokenType)
		assert.Equal(t, testUser.ID, claims.UserID)
		assert.Equal(t, sessionID, claims.SessionID)
		assert.Equal(t, jti.String(), claims.ID, "jti claim must be exactly the one the caller provided")

		got, err := claims.Jti()
		require.NoError(t, err)
		assert.Equal(t, jti, got)
	})

	t.Run("VerifyAccess", func(t *testing.T) {
		t.Run("valid token", func(t *testing.T) {
			c := newCodec(t, nil)
			issued, err := c.IssueAccess(testUser)
			require.NoError(t, err)

			claims, err := c.VerifyAccess(issued.Value)

			require.NoError(t, err, "valid token should be parsed without errors")
			require.Equal(t, testUser.ID, claims.UserID)
			require.Equal(t, testUser.Permissions, claims.Permissions)
		})

		t.Run("not a token", func(t *testing.T) {
			c := newCodec(t, nil)

			_, err := c.VerifyAccess("not a token")

			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
		})

		t.Run("expired token", func(t *testing.T) {
			c := newCodec(t, func(cfg *Config) { cfg.AccessTTL = -time.Minute })
			issued, err := c.IssueAccess(testUser)
			require.NoError(t, err)

			_, err = c.VerifyAccess(issued.Value)

			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrTokenExpired, "expiry must be reported distinctly from other failures")
		})

		t.Run("wrong secret", func(t *testing.T) {
			c := newCodec(t, nil)
			other := newCodec(t, func(cfg *Config) { cfg.AccessSecret = "some-other-secret" })
			issued, err := other.IssueAccess(testUser)
			require.NoError(t, err)

			_, err = c.VerifyAccess(issued.Value)

			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
		})

		t.Run("refresh token presented as access", func(t *testing.T) {
			c := newCodec(t, nil)
			issued, err := c.IssueRefresh(testUser.ID, uuid.New(), uuid.New())
			require.NoError(t, err)

			_, err = c.VerifyAccess(issued.Value)

			require.Error(t, err, "token kinds must never be interchangeable")
			assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
		})

		t.Run("not signed token", func(t *testing.T) {
			c := newCodec(t, nil)
			token := jwt.NewWithClaims(
				jwt.SigningMethodNone,
				AccessClaims{
					RegisteredClaims: jwt.RegisteredClaims{
						ID:        uuid.NewString(),
						Issuer:    defaultIssuer,
						Audience:  jwt.ClaimStrings{defaultAudience},
						IssuedAt:  jwt.NewNumericDate(time.Now()),
						ExpiresAt: jwt.NewNumericDate(time.Now().Add(15 * time.Minute)),
					},
					TokenType: TokenTypeAccess,
					UserID:    testUser.ID,
				},
			)
			access, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
			require.NoError(t, err)

			_, err = c.VerifyAccess(access)

			require.Error(t, err, "valid token with none alg must fail")
			assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
		})

		t.Run("wrong issuer", func(t *testing.T) {
			c := newCodec(t, nil)
			other := newCodec(t, func(cfg *Config) { cfg.Issuer = "someone-else" })
			issued, err := other.IssueAccess(testUser)
			require.NoError(t, err)

			_, err = c.VerifyAccess(issued.Value)

			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
		})
	})

	t.Run("VerifyRefresh", func(t *testing.T) {
		t.Run("access token presented as refresh", func(t *testing.T) {
			c := newCodec(t, nil)
			issued, err := c.IssueAccess(testUser)
			require.NoError(t, err)

			_, err = c.VerifyRefresh(issued.Value)

			require.Error(t, err, "access token must not pass as refresh even with type check bypassed: different secret")
			assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
		})

		t.Run("expired token", func(t *testing.T) {
			c := newCodec(t, func(cfg *Config) { cfg.RefreshTTL = -time.Minute })
			issued, err := c.IssueRefresh(testUser.ID, uuid.New(), uuid.New())
			require.NoError(t, err)

			_, err = c.VerifyRefresh(issued.Value)

			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrTokenExpired)
		})

		t.Run("garbage", func(t *testing.T) {
			c := newCodec(t, nil)

			_, err := c.VerifyRefresh("garbage.token.here")

			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
		})
	})
}
