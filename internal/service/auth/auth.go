package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/esavelyev/staffpass/internal/apperrors"
	"github.com/esavelyev/staffpass/internal/models"
	"github.com/esavelyev/staffpass/internal/repository"
	"github.com/esavelyev/staffpass/internal/service/auth/tokencodec"
)

// Interface to create or compare user password hashes
type PasswordHasher interface {
	// Generate Hash from password
	Hash(password string) (string, error)

	// Compare known hashedPassword and user provided password
	// Must be protected against timing attacks
	Compare(hashedPassword string, password string) error
}

type Config struct {
	// Hasher to compare stored hashes with provided passwords
	// Default bcrypt hasher is used when not set
	Hasher PasswordHasher
}

// Result of a successful login: the freshly issued pair plus an identity
// summary safe to show to the caller. Password material never leaves here.
type LoginResult struct {
	User   models.Identity
	Tokens models.TokenPair
}

// AuthService owns login, refresh and logout, including the refresh
// rotation and reuse detection protocol. All session and ledger state
// lives in the repositories: the service keeps nothing in memory, every
// request sees the stores as they are.
type AuthService struct {
	codec  *tokencodec.Codec
	hasher PasswordHasher

	users    repository.UserRepo
	sessions repository.SessionRepo

	// Revocation ledger, deliberately separate from storage so the
	// redis-backed one can be plugged in instead of the postgres one
	revoked repository.RevokedTokenRepo
}

func NewService(cfg Config, codec *tokencodec.Codec, storage repository.Storage, ledger repository.RevokedTokenRepo) (*AuthService, error) {
	if codec == nil {
		return nil, errors.New("token codec must not be nil")
	}
	if storage == nil {
		return nil, errors.New("storage must not be nil")
	}

	hasher := cfg.Hasher
	if hasher == nil {
		hasher = DefaultHasher
	}

	if ledger == nil {
		ledger = storage.Revocation()
	}

	return &AuthService{
		codec:    codec,
		hasher:   hasher,
		users:    storage.User(),
		sessions: storage.Session(),
		revoked:  ledger,
	}, nil
}

// Login verifies credentials, opens a session and issues the first pair.
// Unknown email and wrong password both fail with the same
// apperrors.ErrInvalidCredentials: callers must not learn which one it was.
func (s *AuthService) Login(ctx context.Context, email string, password string) (LoginResult, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		// Burn a hash comparison anyway so the miss costs as much as a mismatch
		_ = s.hasher.Compare(dummyHash, password)
		return LoginResult{}, apperrors.ErrInvalidCredentials
	case err != nil:
		return LoginResult{}, fmt.Errorf("error while loading user. Err: %w", err)
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return LoginResult{}, apperrors.ErrInvalidCredentials
	}

	jti := uuid.New()
	session, err := s.sessions.CreateSession(ctx, user.ID, jti)
	if err != nil {
		return LoginResult{}, fmt.Errorf("error while creating session. Err: %w", err)
	}

	pair, err := s.issuePair(user, session.ID, jti)
	if err != nil {
		return LoginResult{}, err
	}

	return LoginResult{User: user, Tokens: pair}, nil
}

// Refresh trades a valid refresh token for a fresh pair, rotating the
// session's jti. The presented token becomes unusable no matter what: on
// success it is ledgered as consumed, on reuse the whole session dies.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (models.TokenPair, error) {
	var pair models.TokenPair

	// Signature, expiry, type. Expired and malformed fail differently.
	claims, err := s.codec.VerifyRefresh(refreshToken)
	if err != nil {
		return pair, err
	}
	jti, err := claims.Jti()
	if err != nil {
		return pair, fmt.Errorf("refresh token jti is not uuid: %w", apperrors.ErrInvalidToken)
	}

	// The ledger is consulted before any session state: a ledgered jti is
	// dead even if the session row was lost or resurrected.
	revoked, err := s.revoked.IsTokenRevoked(ctx, jti)
	if err != nil {
		return pair, fmt.Errorf("error while checking revocation ledger. Err: %w", err)
	}
	if revoked {
		return pair, fmt.Errorf("refresh token already consumed: %w", apperrors.ErrTokenRevoked)
	}

	session, err := s.sessions.GetSession(ctx, claims.SessionID)
	if err != nil {
		return pair, err
	}
	if session.Revoked() {
		return pair, fmt.Errorf("session is dead: %w", apperrors.ErrSessionRevoked)
	}

	// Reuse check: a jti that is not the current one was rotated away
	// before, so it was either stolen and replayed or lost a refresh race.
	if session.CurrentRefreshJTI != jti {
		return pair, s.containReuse(ctx, session.ID, jti, claims.ExpiresAt.Time)
	}

	// Single use: remember the presented jti before rotating, so a replay
	// arriving from now on is cut off at the ledger check already.
	if err := s.revoked.RevokeToken(ctx, jti, claims.ExpiresAt.Time); err != nil {
		return pair, fmt.Errorf("error while consuming refresh token. Err: %w", err)
	}

	// Roles and permissions may have changed since login, reload by id
	user, err := s.users.GetUserByID(ctx, claims.UserID)
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		return pair, fmt.Errorf("session owner is gone: %w", apperrors.ErrSessionNotFound)
	case err != nil:
		return pair, fmt.Errorf("error while reloading user. Err: %w", err)
	}

	// Conditional rotation. Losing the swap means someone else rotated
	// between our checks, which is the reuse case again.
	nextJti := uuid.New()
	session, err = s.sessions.RotateRefreshJti(ctx, session.ID, jti, nextJti)
	switch {
	case errors.Is(err, apperrors.ErrRefreshJtiMismatch):
		return pair, s.containReuse(ctx, session.ID, jti, claims.ExpiresAt.Time)
	case err != nil:
		return pair, err
	}

	return s.issuePair(user, session.ID, nextJti)
}

// Logout revokes the session and ledgers its current refresh jti so the
// outstanding refresh token dies with it. Idempotent and silent about
// unknown or already revoked sessions: logout must never reveal whether a
// session existed.
func (s *AuthService) Logout(ctx context.Context, sessionID uuid.UUID) error {
	session, err := s.sessions.GetSession(ctx, sessionID)
	switch {
	case errors.Is(err, apperrors.ErrSessionNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("error while loading session. Err: %w", err)
	}

	if err := s.sessions.RevokeSession(ctx, sessionID); err != nil {
		return fmt.Errorf("error while revoking session. Err: %w", err)
	}

	// The session does not track the token's real expiry, the refresh ttl
	// from now is a safe upper bound for the garbage collection hint
	if err := s.revoked.RevokeToken(ctx, session.CurrentRefreshJTI, time.Now().Add(s.codec.RefreshTTL())); err != nil {
		return fmt.Errorf("error while revoking refresh token. Err: %w", err)
	}

	return nil
}

// LogoutWithToken recovers the session id from a refresh token and logs it
// out. A token that does not verify names no session, which for logout is
// a success, not an error.
func (s *AuthService) LogoutWithToken(ctx context.Context, refreshToken string) error {
	claims, err := s.codec.VerifyRefresh(refreshToken)
	if err != nil {
		return nil
	}

	return s.Logout(ctx, claims.SessionID)
}

// VerifyAccess checks a bearer access token and returns its claims
func (s *AuthService) VerifyAccess(tokenString string) (tokencodec.AccessClaims, error) {
	return s.codec.VerifyAccess(tokenString)
}

// Reuse containment. Not a benign error: the session is killed entirely
// and the presented jti is ledgered, the legitimate client has to log in
// again.
func (s *AuthService) containReuse(ctx context.Context, sessionID uuid.UUID, jti uuid.UUID, expiresAt time.Time) error {
	if err := s.sessions.RevokeSession(ctx, sessionID); err != nil {
		return fmt.Errorf("error while revoking session on reuse. Err: %w", err)
	}
	if err := s.revoked.RevokeToken(ctx, jti, expiresAt); err != nil {
		return fmt.Errorf("error while ledgering reused jti. Err: %w", err)
	}

	return fmt.Errorf("refresh token reuse: %w", apperrors.ErrTokenReuseDetected)
}

func (s *AuthService) issuePair(user models.Identity, sessionID uuid.UUID, jti uuid.UUID) (models.TokenPair, error) {
	access, err := s.codec.IssueAccess(user)
	if err != nil {
		return models.TokenPair{}, err
	}

	refresh, err := s.codec.IssueRefresh(user.ID, sessionID, jti)
	if err != nil {
		return models.TokenPair{}, err
	}

	return models.TokenPair{Access: access, Refresh: refresh}, nil
}
