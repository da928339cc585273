package memstore

import (
	"context"
	"sync"
	"testing"
	"time"
	"vidshare/internal/models"
	"vidshare/internal/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedVideo(t *testing.T, s *Store, channelID uuid.UUID, title, category string, at time.Time) *models.Video {
	t.Helper()
	video := &models.Video{
		ID:        uuid.New(),
		Title:     title,
		Category:  category,
		ChannelID: channelID,
		CreatedAt: at,
	}
	require.NoError(t, s.CreateVideo(context.Background(), video))
	return video
}

func TestUniqueEmail(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.CreateUser(ctx, &models.User{ID: uuid.New(), Email: "a@x.com"}))
	err := s.CreateUser(ctx, &models.User{ID: uuid.New(), Email: "a@x.com"})

	assert.True(t, utils.IsErrorCode(err, utils.ErrDuplicate))
	assert.Equal(t, 1, s.UserCount())
}

func TestChannelUniqueness(t *testing.T) {
	s := New()
	ctx := context.Background()
	owner := uuid.New()

	require.NoError(t, s.CreateChannel(ctx, &models.Channel{ID: uuid.New(), Owner: owner, Handle: "a"}))

	err := s.CreateChannel(ctx, &models.Channel{ID: uuid.New(), Owner: uuid.New(), Handle: "a"})
	assert.True(t, utils.IsErrorCode(err, utils.ErrHandleTaken))

	err = s.CreateChannel(ctx, &models.Channel{ID: uuid.New(), Owner: owner, Handle: "b"})
	assert.True(t, utils.IsErrorCode(err, utils.ErrChannelExists))

	found, err := s.GetChannelByHandle(ctx, "  A ")
	require.NoError(t, err)
	assert.Equal(t, owner, found.Owner)
}

func TestConcurrentReactionsAreNotLost(t *testing.T) {
	s := New()
	video := seedVideo(t, s, uuid.New(), "clip", "Music", time.Now())

	const workers = 50
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, err := s.IncrementVideoReaction(context.Background(), video.ID, models.ReactionLike)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := s.GetVideo(context.Background(), video.ID)
	require.NoError(t, err)
	assert.Equal(t, workers, got.Likes)
	assert.Equal(t, 0, got.Dislikes)
}

func TestListVideosFilters(t *testing.T) {
	s := New()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	channelID := uuid.New()

	oldest := seedVideo(t, s, channelID, "Go Concurrency", "Education", base)
	middle := seedVideo(t, s, channelID, "Cooking pasta", "Food", base.Add(time.Hour))
	newest := seedVideo(t, s, uuid.New(), "Advanced GO tricks", "education", base.Add(2*time.Hour))

	all, err := s.ListVideos(ctx, models.VideoFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []uuid.UUID{newest.ID, middle.ID, oldest.ID}, []uuid.UUID{all[0].ID, all[1].ID, all[2].ID})

	byTitle, err := s.ListVideos(ctx, models.VideoFilter{TitleContains: "go"})
	require.NoError(t, err)
	assert.Len(t, byTitle, 2)

	byCategory, err := s.ListVideos(ctx, models.VideoFilter{Category: "EDUCATION"})
	require.NoError(t, err)
	assert.Len(t, byCategory, 2)

	limited, err := s.ListVideos(ctx, models.VideoFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, newest.ID, limited[0].ID)

	channelVideos, err := s.ListChannelVideos(ctx, channelID)
	require.NoError(t, err)
	assert.Len(t, channelVideos, 2)
}

func TestDeleteChannelVideo(t *testing.T) {
	s := New()
	ctx := context.Background()
	channel := &models.Channel{ID: uuid.New(), Owner: uuid.New(), Handle: "c"}
	require.NoError(t, s.CreateChannel(ctx, channel))

	video := seedVideo(t, s, channel.ID, "clip", "", time.Now())
	require.NoError(t, s.AddChannelVideo(ctx, channel.ID, video.ID))

	foreign := seedVideo(t, s, uuid.New(), "other", "", time.Now())
	err := s.DeleteChannelVideo(ctx, channel.ID, foreign.ID)
	assert.True(t, utils.IsErrorCode(err, utils.ErrVideoNotFound), "video from another channel")

	require.NoError(t, s.DeleteChannelVideo(ctx, channel.ID, video.ID))

	stored, err := s.GetChannel(ctx, channel.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Videos)
	_, err = s.GetVideo(ctx, video.ID)
	assert.True(t, utils.IsErrorCode(err, utils.ErrVideoNotFound))
}

func TestReturnedValuesAreCopies(t *testing.T) {
	s := New()
	ctx := context.Background()
	channel := &models.Channel{ID: uuid.New(), Owner: uuid.New(), Handle: "c"}
	require.NoError(t, s.CreateChannel(ctx, channel))
	require.NoError(t, s.AddChannelVideo(ctx, channel.ID, uuid.New()))

	got, err := s.GetChannel(ctx, channel.ID)
	require.NoError(t, err)
	got.Name = "mutated"
	got.Videos[0] = uuid.Nil

	again, err := s.GetChannel(ctx, channel.ID)
	require.NoError(t, err)
	assert.Empty(t, again.Name)
	assert.NotEqual(t, uuid.Nil, again.Videos[0])
}

func TestFailOn(t *testing.T) {
	s := New()
	boom := utils.NewDatabaseError("boom", nil)

	s.FailOn(OpPing, boom)
	assert.Equal(t, boom, s.Ping(context.Background()))

	s.FailOn(OpPing, nil)
	assert.NoError(t, s.Ping(context.Background()))
}
