package apperrors

import (
	"errors"
)

var (
	ErrBadRequest = errors.New("bad request")

	// Same error for unknown email and wrong password: callers must not be
	// able to tell which one happened.
	ErrInvalidCredentials = errors.New("invalid email or password")

	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserNotFound      = errors.New("user not found")

	ErrTokenExpired       = errors.New("token expired")
	ErrInvalidToken       = errors.New("token invalid")
	ErrTokenRevoked       = errors.New("token revoked")
	ErrTokenReuseDetected = errors.New("token reuse detected")

	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionRevoked     = errors.New("session revoked")
	ErrRefreshJtiMismatch = errors.New("refresh jti does not match session")

	ErrEmployeeNotFound   = errors.New("employee not found")
	ErrEmployeeEmailTaken = errors.New("employee email already taken")
)
