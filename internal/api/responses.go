package api

import (
	"vidshare/internal/models"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// ChannelResponse pairs a channel with the videos whose channelId points at it.
type ChannelResponse struct {
	Channel *models.Channel `json:"channel"`
	Videos  []*models.Video `json:"videos"`
}

// VideoDetail is a video enriched with its channel's display name.
type VideoDetail struct {
	*models.Video
	ChannelName string `json:"channelName,omitempty"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type AvatarResponse struct {
	AvatarURL string       `json:"avatarUrl"`
	User      *models.User `json:"user"`
}

type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Uptime   string `json:"uptime"`
}
