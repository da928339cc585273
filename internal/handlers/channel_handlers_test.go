package handlers

import (
	"context"
	"net/http"
	"testing"
	"vidshare/internal/api"
	"vidshare/internal/models"
	"vidshare/internal/testsupport/memstore"
	"vidshare/internal/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelOwnershipScenario(t *testing.T) {
	env := newTestEnv(t)
	user1, token1 := env.signUp(t, "user1", "u1@x.com")
	_, token2 := env.signUp(t, "user2", "u2@x.com")

	channel := env.createChannel(t, token1, "A", "a")
	assert.Equal(t, user1.ID, channel.Owner)
	assert.Equal(t, "a", channel.Handle)

	w := env.do(t, http.MethodPost, "/channels", token2, CreateChannelRequest{Name: "B", Handle: "a"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Handle already taken", errorMessage(t, w))

	w = env.do(t, http.MethodPost, "/channels", token2, CreateChannelRequest{Name: "B", Handle: "  A "})
	assert.Equal(t, http.StatusConflict, w.Code, "handle is canonicalized before the check")

	newName := "Hijacked"
	w = env.do(t, http.MethodPut, "/channels/"+channel.ID.String(), token2, UpdateChannelRequest{Name: &newName})
	assert.Equal(t, http.StatusForbidden, w.Code)

	stored, err := env.store.GetChannel(context.Background(), channel.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", stored.Name, "rejected update leaves the channel unchanged")
}

func TestCreateChannelValidation(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.signUp(t, "eve", "eve@x.com")

	w := env.do(t, http.MethodPost, "/channels", "", CreateChannelRequest{Name: "A", Handle: "a"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodPost, "/channels", token, CreateChannelRequest{Name: "A"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/channels", token, CreateChannelRequest{Handle: "a"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	env.createChannel(t, token, "A", "MixedCase")
	w = env.do(t, http.MethodPost, "/channels", token, CreateChannelRequest{Name: "Second", Handle: "second"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "User already owns a channel", errorMessage(t, w))

	found, err := env.store.GetChannelByHandle(context.Background(), "mixedcase")
	require.NoError(t, err)
	assert.Equal(t, "mixedcase", found.Handle)
}

func TestUpdateChannelPartial(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.signUp(t, "frank", "frank@x.com")
	_, otherToken := env.signUp(t, "gina", "gina@x.com")
	channel := env.createChannel(t, token, "Frank TV", "frank")
	env.createChannel(t, otherToken, "Gina TV", "gina")

	description := "  cooking and code "
	w := env.do(t, http.MethodPut, "/channels/"+channel.ID.String(), token, UpdateChannelRequest{Description: &description})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updated models.Channel
	decode(t, w, &updated)
	assert.Equal(t, "Frank TV", updated.Name, "absent fields are untouched")
	assert.Equal(t, "frank", updated.Handle)
	assert.Equal(t, "cooking and code", updated.Description)

	handle := " FrankLive "
	w = env.do(t, http.MethodPut, "/channels/"+channel.ID.String(), token, UpdateChannelRequest{Handle: &handle})
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &updated)
	assert.Equal(t, "franklive", updated.Handle)

	same := "FRANKLIVE"
	w = env.do(t, http.MethodPut, "/channels/"+channel.ID.String(), token, UpdateChannelRequest{Handle: &same})
	assert.Equal(t, http.StatusOK, w.Code, "keeping the own handle is not a collision")

	taken := "Gina"
	w = env.do(t, http.MethodPut, "/channels/"+channel.ID.String(), token, UpdateChannelRequest{Handle: &taken})
	assert.Equal(t, http.StatusConflict, w.Code)

	empty := "  "
	w = env.do(t, http.MethodPut, "/channels/"+channel.ID.String(), token, UpdateChannelRequest{Name: &empty})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPut, "/channels/"+uuid.NewString(), token, UpdateChannelRequest{Description: &description})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetChannelWithVideos(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.signUp(t, "hank", "hank@x.com")
	channel := env.createChannel(t, token, "Hank", "hank")
	video := env.uploadVideo(t, token, channel, "First", "Music")

	w := env.do(t, http.MethodGet, "/channels/"+channel.ID.String(), "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp api.ChannelResponse
	decode(t, w, &resp)
	require.NotNil(t, resp.Channel)
	assert.Equal(t, []uuid.UUID{video.ID}, resp.Channel.Videos)
	require.Len(t, resp.Videos, 1)
	assert.Equal(t, video.ID, resp.Videos[0].ID)

	w = env.do(t, http.MethodGet, "/channels/"+uuid.NewString(), "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodGet, "/channels/not-a-uuid", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMyChannel(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.signUp(t, "ivy", "ivy@x.com")

	w := env.do(t, http.MethodGet, "/channels/me", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "No channel found", errorMessage(t, w))

	channel := env.createChannel(t, token, "Ivy", "ivy")

	w = env.do(t, http.MethodGet, "/api/channels/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got models.Channel
	decode(t, w, &got)
	assert.Equal(t, channel.ID, got.ID)
}

func TestDeleteChannelVideo(t *testing.T) {
	env := newTestEnv(t)
	_, ownerToken := env.signUp(t, "jack", "jack@x.com")
	_, otherToken := env.signUp(t, "kate", "kate@x.com")
	channel := env.createChannel(t, ownerToken, "Jack", "jack")
	video := env.uploadVideo(t, ownerToken, channel, "Keep me", "")

	path := "/channels/" + channel.ID.String() + "/video/" + video.ID.String()

	w := env.do(t, http.MethodDelete, path, otherToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	_, err := env.store.GetVideo(context.Background(), video.ID)
	require.NoError(t, err, "forbidden delete leaves the video in place")

	w = env.do(t, http.MethodDelete, path, ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp api.SuccessResponse
	decode(t, w, &resp)
	assert.True(t, resp.Success)

	_, err = env.store.GetVideo(context.Background(), video.ID)
	assert.True(t, utils.IsErrorCode(err, utils.ErrVideoNotFound))
	stored, err := env.store.GetChannel(context.Background(), channel.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Videos)

	w = env.do(t, http.MethodDelete, path, ownerToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteChannelVideoPartialFailure(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.signUp(t, "liam", "liam@x.com")
	channel := env.createChannel(t, token, "Liam", "liam")
	video := env.uploadVideo(t, token, channel, "clip", "")

	env.store.FailOn(memstore.OpDeleteChannelVideo, utils.NewAppError(utils.ErrPartialFailure, "Video unlinked but not deleted", nil))

	w := env.do(t, http.MethodDelete, "/channels/"+channel.ID.String()+"/video/"+video.ID.String(), token, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal server error", errorMessage(t, w))
}
