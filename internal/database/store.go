package database

import (
	"context"
	"vidshare/internal/models"

	"github.com/google/uuid"
)

// UserStore is the credential store. Lookups that miss return an AppError
// with code utils.ErrUserNotFound; a taken email returns utils.ErrDuplicate.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, id uuid.UUID, update models.UserUpdate) (*models.User, error)
}

// ChannelStore persists channels and their denormalized video lists.
type ChannelStore interface {
	CreateChannel(ctx context.Context, channel *models.Channel) error
	GetChannel(ctx context.Context, id uuid.UUID) (*models.Channel, error)
	GetChannelByOwner(ctx context.Context, owner uuid.UUID) (*models.Channel, error)
	GetChannelByHandle(ctx context.Context, handle string) (*models.Channel, error)
	UpdateChannel(ctx context.Context, id uuid.UUID, update models.ChannelUpdate) (*models.Channel, error)
	AddChannelVideo(ctx context.Context, channelID, videoID uuid.UUID) error
	// DeleteChannelVideo unlinks videoID from the channel and deletes the
	// video document. The video must belong to the channel.
	DeleteChannelVideo(ctx context.Context, channelID, videoID uuid.UUID) error
}

type VideoStore interface {
	CreateVideo(ctx context.Context, video *models.Video) error
	GetVideo(ctx context.Context, id uuid.UUID) (*models.Video, error)
	ListVideos(ctx context.Context, filter models.VideoFilter) ([]*models.Video, error)
	ListChannelVideos(ctx context.Context, channelID uuid.UUID) ([]*models.Video, error)
	// IncrementVideoReaction atomically bumps a counter by one and returns the
	// updated video.
	IncrementVideoReaction(ctx context.Context, id uuid.UUID, field models.ReactionField) (*models.Video, error)
	UpdateVideoDetails(ctx context.Context, id uuid.UUID, title, description *string) (*models.Video, error)
	DeleteVideo(ctx context.Context, id uuid.UUID) error
}

type CommentStore interface {
	CreateComment(ctx context.Context, comment *models.Comment) error
	GetVideoComments(ctx context.Context, videoID uuid.UUID) ([]*models.Comment, error)
	UpdateComment(ctx context.Context, id uuid.UUID, content string) (*models.Comment, error)
	DeleteComment(ctx context.Context, id uuid.UUID) error
}

// Store is everything the HTTP handlers need from persistence.
type Store interface {
	UserStore
	ChannelStore
	VideoStore
	CommentStore
	Ping(ctx context.Context) error
}
