package tokencodec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/esavelyev/staffpass/internal/apperrors"
	"github.com/esavelyev/staffpass/internal/models"
)

const (
	defaultAccessTokenTTL  = 15 * time.Minute
	defaultRefreshTokenTTL = 30 * 24 * time.Hour
	defaultSigningMethod   = "HS256"
	defaultIssuer          = "staffpass"
	defaultAudience        = "staffpass"
)

// Type discriminator values baked into every token.
// An access token presented on the refresh endpoint (or the other way
// around) fails verification on this claim even before key checks matter.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

type AccessClaims struct {
	jwt.RegisteredClaims
	TokenType   string    `json:"typ"`
	UserID      uuid.UUID `json:"uid"`
	Email       string    `json:"email"`
	RoleIDs     []string  `json:"roles"`
	Permissions []string  `json:"perms"`
}

func (c AccessClaims) HasPermission(name string) bool {
	for _, p := range c.Permissions {
		if p == name {
			return true
		}
	}
	return false
}

type RefreshClaims struct {
	jwt.RegisteredClaims
	TokenType string    `json:"typ"`
	UserID    uuid.UUID `json:"uid"`
	SessionID uuid.UUID `json:"sid"`
}

// Jti returns the token id claim parsed as uuid.
// Verify guarantees it parses, so the error only matters for hand-built claims.
func (c RefreshClaims) Jti() (uuid.UUID, error) {
	return uuid.Parse(c.ID)
}

// Token codec config with sensible defaults
type Config struct {
	// Secrets to sign tokens with
	// Both are required and must not be equal to each other: an access token
	// must never verify as a refresh token even if the type check is skipped
	AccessSecret  string
	RefreshSecret string

	// JWT MAC (Message Authentication Code) algorithm
	// If not set than default is used
	Alg string

	// Access and refresh token lifetimes
	// If not set than default is used
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Issuer and audience claims stamped into and required from every token
	// If not set than default is used
	Issuer   string
	Audience string
}

// Codec issues and verifies signed access and refresh tokens.
// It keeps no state besides the signing config: session bookkeeping
// belongs to the auth service.
type Codec struct {
	accessSecret  string
	refreshSecret string

	alg jwt.SigningMethod

	accessTTL  time.Duration
	refreshTTL time.Duration

	issuer   string
	audience string
}

func New(cfg Config) (*Codec, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("access and refresh secrets must not be empty")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("access and refresh secrets must not be the same")
	}

	if cfg.Alg == "" {
		cfg.Alg = defaultSigningMethod
	}
	if cfg.Issuer == "" {
		cfg.Issuer = defaultIssuer
	}
	if cfg.Audience == "" {
		cfg.Audience = defaultAudience
	}

	setDefaultDuration := func(field *time.Duration, def time.Duration) {
		if *field == 0 {
			*field = def
		}
	}
	setDefaultDuration(&cfg.AccessTTL, defaultAccessTokenTTL)
	setDefaultDuration(&cfg.RefreshTTL, defaultRefreshTokenTTL)

	return &Codec{
		accessSecret:  cfg.AccessSecret,
		refreshSecret: cfg.RefreshSecret,
		alg:           jwt.GetSigningMethod(cfg.Alg),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		issuer:        cfg.Issuer,
		audience:      cfg.Audience,
	}, nil
}

func (c *Codec) AccessTTL() time.Duration  { return c.accessTTL }
func (c *Codec) RefreshTTL() time.Duration { return c.refreshTTL }

// IssueAccess signs a short lived token carrying the user's identity and
// flattened permissions. Pure function over the configured secret.
func (c *Codec) IssueAccess(user models.Identity) (models.IssuedToken, error) {
	now := time.Now().Truncate(time.Second)
	expiresAt := now.Add(c.accessTTL)

	token := jwt.NewWithClaims(
		c.alg,
		AccessClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        uuid.NewString(),
				Subject:   user.ID.String(),
				Issuer:    c.issuer,
				Audience:  jwt.ClaimStrings{c.audience},
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(expiresAt),
			},
			TokenType:   TokenTypeAccess,
			UserID:      user.ID,
			Email:       user.Email,
			RoleIDs:     user.RoleIDs,
			Permissions: user.Permissions,
		},
	)

	signed, err := token.SignedString([]byte(c.accessSecret))
	if err != nil {
		return models.IssuedToken{}, fmt.Errorf("error while signing access token. Err: %w", err)
	}

	return models.IssuedToken{Value: signed, ExpiresAt: expiresAt}, nil
}

// IssueRefresh signs a long lived token bound to the session and the given
// jti. The jti is what the rotation protocol tracks, so the caller owns it.
func (c *Codec) IssueRefresh(userID uuid.UUID, sessionID uuid.UUID, jti uuid.UUID) (models.IssuedToken, error) {
	now := time.Now().Truncate(time.Second)
	expiresAt := now.Add(c.refreshTTL)

	token := jwt.NewWithClaims(
		c.alg,
		RefreshClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        jti.String(),
				Subject:   userID.String(),
				Issuer:    c.issuer,
				Audience:  jwt.ClaimStrings{c.audience},
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(expiresAt),
			},
			TokenType: TokenTypeRefresh,
			UserID:    userID,
			SessionID: sessionID,
		},
	)

	signed, err := token.SignedString([]byte(c.refreshSecret))
	if err != nil {
		return models.IssuedToken{}, fmt.Errorf("error while signing refresh token. Err: %w", err)
	}

	return models.IssuedToken{Value: signed, ExpiresAt: expiresAt}, nil
}

// VerifyAccess parses and validates an access token.
// Expired tokens fail with apperrors.ErrTokenExpired, everything else that is
// wrong with the token (signature, issuer, audience, type) with
// apperrors.ErrInvalidToken.
func (c *Codec) VerifyAccess(tokenString string) (AccessClaims, error) {
	claims := &AccessClaims{}

	err := c.parse(tokenString, claims, c.accessSecret)
	if err != nil {
		return AccessClaims{}, err
	}

	if claims.TokenType != TokenTypeAccess || claims.UserID == uuid.Nil {
		return AccessClaims{}, fmt.Errorf("not an access token: %w", apperrors.ErrInvalidToken)
	}

	return *claims, nil
}

// VerifyRefresh parses and validates a refresh token.
// Claims returned on success always carry a parseable jti and session id.
func (c *Codec) VerifyRefresh(tokenString string) (RefreshClaims, error) {
	claims := &RefreshClaims{}

	err := c.parse(tokenString, claims, c.refreshSecret)
	if err != nil {
		return RefreshClaims{}, err
	}

	if claims.TokenType != TokenTypeRefresh || claims.SessionID == uuid.Nil || claims.UserID == uuid.Nil {
		return RefreshClaims{}, fmt.Errorf("not a refresh token: %w", apperrors.ErrInvalidToken)
	}
	if _, err := uuid.Parse(claims.ID); err != nil {
		return RefreshClaims{}, fmt.Errorf("refresh token jti is not uuid: %w", apperrors.ErrInvalidToken)
	}

	return *claims, nil
}

func (c *Codec) parse(tokenString string, claims jwt.Claims, secret string) error {
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (any, error) { return []byte(secret), nil },
		jwt.WithValidMethods([]string{c.alg.Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithAudience(c.audience),
		jwt.WithExpirationRequired(),
	)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("token verify error: %w", apperrors.ErrTokenExpired)
	default:
		return fmt.Errorf("token verify error: %w", apperrors.ErrInvalidToken)
	}
}
