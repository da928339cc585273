package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Channel struct {
	ID          uuid.UUID   `json:"_id"`
	Owner       uuid.UUID   `json:"owner"`
	Name        string      `json:"name"`
	Handle      string      `json:"handle"`
	Avatar      string      `json:"avatar"`
	Description string      `json:"description"`
	Subscribers int         `json:"subscribers"`
	Videos      []uuid.UUID `json:"videos"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// ChannelUpdate carries the fields of a partial channel update. Nil fields are
// left unchanged.
type ChannelUpdate struct {
	Name        *string
	Handle      *string
	Description *string
	Avatar      *string
}

// CanonicalHandle returns the lookup form of a channel handle.
func CanonicalHandle(handle string) string {
	return strings.ToLower(strings.TrimSpace(handle))
}
