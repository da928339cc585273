package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID             uuid.UUID `json:"_id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"`
	Avatar         string    `json:"avatar,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// UserUpdate carries the fields of a profile update. Nil fields are left
// unchanged.
type UserUpdate struct {
	Username *string
	Avatar   *string
}
