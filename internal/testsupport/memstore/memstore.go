// Package memstore provides an in-memory database.Store for tests.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"vidshare/internal/database"
	"vidshare/internal/models"
	"vidshare/internal/utils"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Operation names accepted by FailOn.
const (
	OpCreateUser         = "CreateUser"
	OpCreateChannel      = "CreateChannel"
	OpAddChannelVideo    = "AddChannelVideo"
	OpCreateVideo        = "CreateVideo"
	OpListVideos         = "ListVideos"
	OpDeleteVideo        = "DeleteVideo"
	OpDeleteChannelVideo = "DeleteChannelVideo"
	OpPing               = "Ping"
)

// Store is a mutex-guarded database.Store that mirrors the MongoDB store's
// error codes and unique-index behaviour. Returned values are copies.
type Store struct {
	mu       sync.RWMutex
	users    map[uuid.UUID]models.User
	channels map[uuid.UUID]models.Channel
	videos   map[uuid.UUID]models.Video
	comments map[uuid.UUID]models.Comment
	failures map[string]error
}

var _ database.Store = (*Store)(nil)

// New constructs an empty Store.
func New() *Store {
	return &Store{
		users:    make(map[uuid.UUID]models.User),
		channels: make(map[uuid.UUID]models.Channel),
		videos:   make(map[uuid.UUID]models.Video),
		comments: make(map[uuid.UUID]models.Comment),
		failures: make(map[string]error),
	}
}

// FailOn makes every later call to op return err. A nil err clears it.
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

func (s *Store) failure(op string) error {
	if err, ok := s.failures[op]; ok {
		return err
	}
	return nil
}

func (s *Store) Ping(context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.failure(OpPing)
}

// UserCount reports how many users are stored.
func (s *Store) UserCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

// VideoCount reports how many videos are stored.
func (s *Store) VideoCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.videos)
}

// Users

func (s *Store) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure(OpCreateUser); err != nil {
		return err
	}

	for _, existing := range s.users {
		if existing.Email == user.Email {
			return utils.NewAppError(utils.ErrDuplicate, "Email already registered", nil)
		}
	}
	s.users[user.ID] = *user
	return nil
}

func (s *Store) GetUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, utils.NewAppError(utils.ErrUserNotFound, "User not found", nil)
	}
	return &user, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, utils.NewAppError(utils.ErrUserNotFound, "User not found", nil)
}

func (s *Store) UpdateUser(_ context.Context, id uuid.UUID, update models.UserUpdate) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, utils.NewAppError(utils.ErrUserNotFound, "User not found", nil)
	}
	if update.Username != nil {
		user.Username = *update.Username
	}
	if update.Avatar != nil {
		user.Avatar = *update.Avatar
	}
	s.users[id] = user
	return &user, nil
}

// Channels

func (s *Store) CreateChannel(_ context.Context, channel *models.Channel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure(OpCreateChannel); err != nil {
		return err
	}

	for _, existing := range s.channels {
		if existing.Handle == channel.Handle {
			return utils.NewAppError(utils.ErrHandleTaken, "Handle already taken", nil)
		}
		if existing.Owner == channel.Owner {
			return utils.NewAppError(utils.ErrChannelExists, "User already owns a channel", nil)
		}
	}
	stored := *channel
	stored.Videos = append([]uuid.UUID{}, channel.Videos...)
	s.channels[channel.ID] = stored
	return nil
}

func (s *Store) GetChannel(_ context.Context, id uuid.UUID) (*models.Channel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	channel, ok := s.channels[id]
	if !ok {
		return nil, channelNotFound()
	}
	return copyChannel(channel), nil
}

func (s *Store) GetChannelByOwner(_ context.Context, owner uuid.UUID) (*models.Channel, error) {
	return s.findChannel(func(ch models.Channel) bool { return ch.Owner == owner })
}

func (s *Store) GetChannelByHandle(_ context.Context, handle string) (*models.Channel, error) {
	handle = models.CanonicalHandle(handle)
	return s.findChannel(func(ch models.Channel) bool { return ch.Handle == handle })
}

func (s *Store) findChannel(match func(models.Channel) bool) (*models.Channel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, channel := range s.channels {
		if match(channel) {
			return copyChannel(channel), nil
		}
	}
	return nil, channelNotFound()
}

func (s *Store) UpdateChannel(_ context.Context, id uuid.UUID, update models.ChannelUpdate) (*models.Channel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	channel, ok := s.channels[id]
	if !ok {
		return nil, channelNotFound()
	}
	if update.Handle != nil {
		handle := models.CanonicalHandle(*update.Handle)
		for otherID, other := range s.channels {
			if otherID != id && other.Handle == handle {
				return nil, utils.NewAppError(utils.ErrHandleTaken, "Handle already taken", nil)
			}
		}
		channel.Handle = handle
	}
	if update.Name != nil {
		channel.Name = *update.Name
	}
	if update.Description != nil {
		channel.Description = *update.Description
	}
	if update.Avatar != nil {
		channel.Avatar = *update.Avatar
	}
	s.channels[id] = channel
	return copyChannel(channel), nil
}

func (s *Store) AddChannelVideo(_ context.Context, channelID, videoID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure(OpAddChannelVideo); err != nil {
		return err
	}

	channel, ok := s.channels[channelID]
	if !ok {
		return channelNotFound()
	}
	channel.Videos = append(append([]uuid.UUID{}, channel.Videos...), videoID)
	s.channels[channelID] = channel
	return nil
}

// DeleteChannelVideo applies both writes under one lock, matching the
// transactional MongoDB path.
func (s *Store) DeleteChannelVideo(_ context.Context, channelID, videoID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure(OpDeleteChannelVideo); err != nil {
		return err
	}

	channel, ok := s.channels[channelID]
	if !ok {
		return channelNotFound()
	}
	video, ok := s.videos[videoID]
	if !ok || video.ChannelID != channelID {
		return videoNotFound()
	}

	channel.Videos = lo.Without(channel.Videos, videoID)
	s.channels[channelID] = channel
	delete(s.videos, videoID)
	return nil
}

// Videos

func (s *Store) CreateVideo(_ context.Context, video *models.Video) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure(OpCreateVideo); err != nil {
		return err
	}

	s.videos[video.ID] = *video
	return nil
}

func (s *Store) GetVideo(_ context.Context, id uuid.UUID) (*models.Video, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	video, ok := s.videos[id]
	if !ok {
		return nil, videoNotFound()
	}
	return &video, nil
}

func (s *Store) ListVideos(_ context.Context, filter models.VideoFilter) ([]*models.Video, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.failure(OpListVideos); err != nil {
		return nil, err
	}

	title := strings.ToLower(filter.TitleContains)
	videos := s.sortedVideos(func(v models.Video) bool {
		if title != "" && !strings.Contains(strings.ToLower(v.Title), title) {
			return false
		}
		if filter.Category != "" && !strings.EqualFold(v.Category, filter.Category) {
			return false
		}
		return true
	})
	if filter.Limit > 0 && int64(len(videos)) > filter.Limit {
		videos = videos[:filter.Limit]
	}
	return videos, nil
}

func (s *Store) ListChannelVideos(_ context.Context, channelID uuid.UUID) ([]*models.Video, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sortedVideos(func(v models.Video) bool { return v.ChannelID == channelID }), nil
}

// sortedVideos returns copies of matching videos, newest first. Callers hold mu.
func (s *Store) sortedVideos(match func(models.Video) bool) []*models.Video {
	matched := lo.Filter(lo.Values(s.videos), func(v models.Video, _ int) bool {
		return match(v)
	})
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID.String() < matched[j].ID.String()
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return lo.Map(matched, func(v models.Video, _ int) *models.Video {
		video := v
		return &video
	})
}

func (s *Store) IncrementVideoReaction(_ context.Context, id uuid.UUID, field models.ReactionField) (*models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	video, ok := s.videos[id]
	if !ok {
		return nil, videoNotFound()
	}
	switch field {
	case models.ReactionLike:
		video.Likes++
	case models.ReactionDislike:
		video.Dislikes++
	default:
		return nil, utils.NewInvalidInputError("unknown reaction " + string(field))
	}
	s.videos[id] = video
	return &video, nil
}

func (s *Store) UpdateVideoDetails(_ context.Context, id uuid.UUID, title, description *string) (*models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	video, ok := s.videos[id]
	if !ok {
		return nil, videoNotFound()
	}
	if title != nil {
		video.Title = *title
	}
	if description != nil {
		video.Description = *description
	}
	s.videos[id] = video
	return &video, nil
}

func (s *Store) DeleteVideo(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure(OpDeleteVideo); err != nil {
		return err
	}

	if _, ok := s.videos[id]; !ok {
		return videoNotFound()
	}
	delete(s.videos, id)
	return nil
}

// Comments

func (s *Store) CreateComment(_ context.Context, comment *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.comments[comment.ID] = *comment
	return nil
}

func (s *Store) GetVideoComments(_ context.Context, videoID uuid.UUID) ([]*models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := lo.Filter(lo.Values(s.comments), func(c models.Comment, _ int) bool {
		return c.VideoID == videoID
	})
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})
	return lo.Map(matched, func(c models.Comment, _ int) *models.Comment {
		comment := c
		return &comment
	}), nil
}

func (s *Store) UpdateComment(_ context.Context, id uuid.UUID, content string) (*models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	comment, ok := s.comments[id]
	if !ok {
		return nil, commentNotFound()
	}
	comment.Content = content
	s.comments[id] = comment
	return &comment, nil
}

func (s *Store) DeleteComment(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.comments[id]; !ok {
		return commentNotFound()
	}
	delete(s.comments, id)
	return nil
}

func copyChannel(channel models.Channel) *models.Channel {
	channel.Videos = append([]uuid.UUID{}, channel.Videos...)
	return &channel
}

func channelNotFound() error {
	return utils.NewAppError(utils.ErrChannelNotFound, "Channel not found", nil)
}

func videoNotFound() error {
	return utils.NewAppError(utils.ErrVideoNotFound, "Video not found", nil)
}

func commentNotFound() error {
	return utils.NewAppError(utils.ErrNotFound, "Comment not found", nil)
}
