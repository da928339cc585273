package handlers

import (
	"net/http"
	"testing"
	"time"
	"vidshare/internal/api"
	"vidshare/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentLifecycle(t *testing.T) {
	env := newTestEnv(t)
	video := seedVideos(t, env, uuid.New(), models.Video{Title: "talk"})[0]
	path := "/comments/" + video.ID.String()

	w := env.do(t, http.MethodPost, path, "", CommentRequest{Content: "  first!  "})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var first models.Comment
	decode(t, w, &first)
	assert.Equal(t, "first!", first.Content)
	assert.Equal(t, video.ID, first.VideoID)

	time.Sleep(2 * time.Millisecond)
	w = env.do(t, http.MethodPost, "/api"+path, "", CommentRequest{Content: "second"})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var comments []models.Comment
	decode(t, w, &comments)
	require.Len(t, comments, 2)
	assert.Equal(t, "first!", comments[0].Content, "oldest first")
	assert.Equal(t, "second", comments[1].Content)

	w = env.do(t, http.MethodPut, "/comments/"+first.ID.String(), "", CommentRequest{Content: "edited"})
	require.Equal(t, http.StatusOK, w.Code)
	var edited models.Comment
	decode(t, w, &edited)
	assert.Equal(t, "edited", edited.Content)
	assert.Equal(t, first.ID, edited.ID)

	w = env.do(t, http.MethodDelete, "/comments/"+first.ID.String(), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var deleted api.MessageResponse
	decode(t, w, &deleted)
	assert.Equal(t, "Deleted", deleted.Message)

	w = env.do(t, http.MethodDelete, "/comments/"+first.ID.String(), "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPut, "/comments/"+first.ID.String(), "", CommentRequest{Content: "again"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCommentValidation(t *testing.T) {
	env := newTestEnv(t)
	video := seedVideos(t, env, uuid.New(), models.Video{Title: "talk"})[0]

	w := env.do(t, http.MethodPost, "/comments/"+video.ID.String(), "", CommentRequest{Content: "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/comments/"+uuid.NewString(), "", CommentRequest{Content: "hi"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodGet, "/comments/"+uuid.NewString(), "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodGet, "/comments/"+video.ID.String(), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}
