package models

import (
	"time"

	"github.com/google/uuid"
)

type Video struct {
	ID           uuid.UUID `json:"_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Category     string    `json:"category"`
	URL          string    `json:"url"`
	ThumbnailURL string    `json:"thumbnailUrl"`
	Likes        int       `json:"likes"`
	Dislikes     int       `json:"dislikes"`
	ChannelID    uuid.UUID `json:"channelId"`
	UploadedBy   uuid.UUID `json:"uploadedBy"`
	CreatedAt    time.Time `json:"createdAt"`
}

// VideoFilter narrows a video listing. Empty fields do not filter.
type VideoFilter struct {
	TitleContains string // case-insensitive literal substring
	Category      string // case-insensitive exact match
	Limit         int64
}

// ReactionField names the counter bumped by a like or dislike.
type ReactionField string

const (
	ReactionLike    ReactionField = "likes"
	ReactionDislike ReactionField = "dislikes"
)
