package handlers

import (
	"context"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
	"vidshare/internal/api"
	"vidshare/internal/middleware"
	"vidshare/internal/models"
	"vidshare/internal/storage"
	"vidshare/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	suggestionLimit = 5
	allCategories   = "all"
)

// UpdateVideoRequest carries editable video fields
type UpdateVideoRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

// storedFile is an upload written to the FileStore.
type storedFile struct {
	key string
	url string
}

// HandleUploadVideo stores a video and its thumbnail, creates the video and
// appends it to the caller's channel
func (s *Server) HandleUploadVideo() middleware.AuthedHandler {
	return func(c *gin.Context, identity middleware.Identity) {
		videoFile, videoErr := c.FormFile("video")
		thumbFile, thumbErr := c.FormFile("thumbnail")
		title := strings.TrimSpace(c.PostForm("title"))
		rawChannelID := strings.TrimSpace(c.PostForm("channelId"))
		if videoErr != nil || thumbErr != nil || title == "" || rawChannelID == "" {
			s.respondError(c, utils.NewInvalidInputError("Missing required fields"))
			return
		}

		channelID, err := uuid.Parse(rawChannelID)
		if err != nil {
			s.respondError(c, utils.NewInvalidInputError("Invalid channel ID format"))
			return
		}

		ctx, cancel := s.requestContext(c)
		defer cancel()

		channel, err := s.Store.GetChannel(ctx, channelID)
		if err != nil {
			s.respondError(c, err)
			return
		}
		if err := middleware.RequireOwner(channel.Owner, identity); err != nil {
			s.respondError(c, err)
			return
		}

		stored := make([]storedFile, 0, 2)
		cleanup := func() {
			for _, f := range stored {
				if err := s.Files.Delete(context.Background(), f.key); err != nil {
					s.Log.Warn("failed to remove orphaned upload", zap.String("key", f.key), zap.Error(err))
				}
			}
		}

		for _, part := range []struct {
			prefix string
			header *multipart.FileHeader
		}{
			{prefix: "videos", header: videoFile},
			{prefix: "thumbnails", header: thumbFile},
		} {
			f, err := s.saveUpload(ctx, part.prefix, part.header)
			if err != nil {
				cleanup()
				s.respondError(c, err)
				return
			}
			stored = append(stored, f)
		}

		video := &models.Video{
			ID:           uuid.New(),
			Title:        title,
			Description:  strings.TrimSpace(c.PostForm("description")),
			Category:     strings.TrimSpace(c.PostForm("category")),
			URL:          stored[0].url,
			ThumbnailURL: stored[1].url,
			ChannelID:    channelID,
			UploadedBy:   identity.UserID,
			CreatedAt:    time.Now().UTC(),
		}
		if err := s.Store.CreateVideo(ctx, video); err != nil {
			cleanup()
			s.respondError(c, err)
			return
		}

		if err := s.Store.AddChannelVideo(ctx, channelID, video.ID); err != nil {
			// Undo the insert so no video exists outside its channel's list.
			if delErr := s.Store.DeleteVideo(context.Background(), video.ID); delErr != nil {
				s.Log.Error("failed to roll back video after channel update failed",
					zap.String("videoId", video.ID.String()), zap.Error(delErr))
			}
			cleanup()
			s.respondError(c, err)
			return
		}

		s.Log.Info("video uploaded",
			zap.String("videoId", video.ID.String()),
			zap.String("channelId", channelID.String()))
		c.JSON(http.StatusCreated, video)
	}
}

func (s *Server) saveUpload(ctx context.Context, prefix string, header *multipart.FileHeader) (storedFile, error) {
	file, err := header.Open()
	if err != nil {
		return storedFile{}, utils.NewInvalidInputError("Unreadable upload " + header.Filename)
	}
	defer file.Close()

	key := storage.ObjectKey(prefix, header.Filename)
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = storage.ContentType(key)
	}

	url, err := s.Files.Save(ctx, key, file, contentType)
	if err != nil {
		return storedFile{}, utils.NewAppError(utils.ErrStorage, "Failed to store upload", err)
	}
	return storedFile{key: key, url: url}, nil
}

// HandleListVideos returns every video, newest first
func (s *Server) HandleListVideos() gin.HandlerFunc {
	return s.listVideos(func(c *gin.Context) (models.VideoFilter, bool) {
		return models.VideoFilter{}, true
	})
}

// HandleSearchVideos filters by title substring and optional category. An
// empty query matches every title.
func (s *Server) HandleSearchVideos() gin.HandlerFunc {
	return s.listVideos(func(c *gin.Context) (models.VideoFilter, bool) {
		return models.VideoFilter{
			TitleContains: strings.TrimSpace(c.Query("q")),
			Category:      categoryFilter(c.Query("category")),
		}, true
	})
}

// HandleSuggestions returns up to five title matches. An empty query yields
// an empty list.
func (s *Server) HandleSuggestions() gin.HandlerFunc {
	return s.listVideos(func(c *gin.Context) (models.VideoFilter, bool) {
		q := strings.TrimSpace(c.Query("q"))
		if q == "" {
			return models.VideoFilter{}, false
		}
		return models.VideoFilter{TitleContains: q, Limit: suggestionLimit}, true
	})
}

// HandleVideosByCategory returns the videos in one category
func (s *Server) HandleVideosByCategory() gin.HandlerFunc {
	return s.listVideos(func(c *gin.Context) (models.VideoFilter, bool) {
		return models.VideoFilter{Category: categoryFilter(c.Param("category"))}, true
	})
}

// listVideos runs the filter built from the request. When build reports false
// the response is an empty list without a store round-trip.
func (s *Server) listVideos(build func(c *gin.Context) (models.VideoFilter, bool)) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter, ok := build(c)
		if !ok {
			c.JSON(http.StatusOK, []*models.Video{})
			return
		}

		ctx, cancel := s.requestContext(c)
		defer cancel()

		start := time.Now()
		videos, err := s.Store.ListVideos(ctx, filter)
		s.Metrics.AddOperationLatency("ListVideos", time.Since(start))
		if err != nil {
			s.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, videos)
	}
}

// categoryFilter maps "All" (any case) and blank to no filter.
func categoryFilter(raw string) string {
	category := strings.TrimSpace(raw)
	if strings.EqualFold(category, allCategories) {
		return ""
	}
	return category
}

// HandleGetVideo returns a video with its channel's name
func (s *Server) HandleGetVideo() gin.HandlerFunc {
	return func(c *gin.Context) {
		videoID, err := pathID(c, "id", utils.ErrVideoNotFound, "Video not found")
		if err != nil {
			s.respondError(c, err)
			return
		}

		ctx, cancel := s.requestContext(c)
		defer cancel()

		video, err := s.Store.GetVideo(ctx, videoID)
		if err != nil {
			s.respondError(c, err)
			return
		}

		detail := api.VideoDetail{Video: video}
		channel, err := s.Store.GetChannel(ctx, video.ChannelID)
		switch {
		case err == nil:
			detail.ChannelName = channel.Name
		case !utils.IsErrorCode(err, utils.ErrChannelNotFound):
			s.Log.Warn("failed to resolve video channel",
				zap.String("videoId", videoID.String()), zap.Error(err))
		}

		c.JSON(http.StatusOK, detail)
	}
}

// HandleLikeVideo increments a video's like counter
func (s *Server) HandleLikeVideo() gin.HandlerFunc {
	return s.handleReaction(models.ReactionLike)
}

// HandleDislikeVideo increments a video's dislike counter
func (s *Server) HandleDislikeVideo() gin.HandlerFunc {
	return s.handleReaction(models.ReactionDislike)
}

func (s *Server) handleReaction(field models.ReactionField) gin.HandlerFunc {
	return func(c *gin.Context) {
		videoID, err := pathID(c, "id", utils.ErrVideoNotFound, "Video not found")
		if err != nil {
			s.respondError(c, err)
			return
		}

		ctx, cancel := s.requestContext(c)
		defer cancel()

		video, err := s.Store.IncrementVideoReaction(ctx, videoID, field)
		if err != nil {
			s.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, video)
	}
}

// HandleUpdateVideo edits title and description. Only the owner of the
// video's channel may do so; if that channel is gone, the uploader may.
func (s *Server) HandleUpdateVideo() middleware.AuthedHandler {
	return func(c *gin.Context, identity middleware.Identity) {
		videoID, err := pathID(c, "id", utils.ErrVideoNotFound, "Video not found")
		if err != nil {
			s.respondError(c, err)
			return
		}

		var req UpdateVideoRequest
		if err := bindJSON(c, &req); err != nil {
			s.respondError(c, err)
			return
		}

		ctx, cancel := s.requestContext(c)
		defer cancel()

		video, err := s.Store.GetVideo(ctx, videoID)
		if err != nil {
			s.respondError(c, err)
			return
		}

		owner := video.UploadedBy
		channel, err := s.Store.GetChannel(ctx, video.ChannelID)
		switch {
		case err == nil:
			owner = channel.Owner
		case !utils.IsErrorCode(err, utils.ErrChannelNotFound):
			s.respondError(c, err)
			return
		}
		if err := middleware.RequireOwner(owner, identity); err != nil {
			s.respondError(c, err)
			return
		}

		var title, description *string
		if req.Title != nil {
			t := strings.TrimSpace(*req.Title)
			if t == "" {
				s.respondError(c, utils.NewInvalidInputError("Title must not be empty"))
				return
			}
			title = &t
		}
		if req.Description != nil {
			d := strings.TrimSpace(*req.Description)
			description = &d
		}

		updated, err := s.Store.UpdateVideoDetails(ctx, videoID, title, description)
		if err != nil {
			s.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, updated)
	}
}
