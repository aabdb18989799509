package models

import (
	"time"

	"github.com/google/uuid"
)

// Identity is an authenticated principal: the user row joined with its role
// ids and the flattened union of permissions those roles grant.
type Identity struct {
	ID           uuid.UUID
	CreatedAt    time.Time
	Email        string
	PasswordHash string
	RoleIDs      []string
	Permissions  []string
}

func (i Identity) HasPermission(name string) bool {
	for _, p := range i.Permissions {
		if p == name {
			return true
		}
	}
	return false
}
