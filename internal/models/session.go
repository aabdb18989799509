package models

import (
	"time"

	"github.com/google/uuid"
)

// Session is one logical login. At most one refresh token is usable for a
// session at any time: the one whose jti equals CurrentRefreshJTI.
type Session struct {
	ID                uuid.UUID
	UserID            uuid.UUID
	CurrentRefreshJTI uuid.UUID
	CreatedAt         time.Time
	RevokedAt         *time.Time // nil while the session is active; set once, never cleared
}

// Revoked sessions are terminal and never reactivated.
func (s Session) Revoked() bool {
	return s.RevokedAt != nil
}
