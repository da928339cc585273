package handlers

import (
	"net/http"
	"strings"
	"time"
	"vidshare/internal/api"
	"vidshare/internal/middleware"
	"vidshare/internal/models"
	"vidshare/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateChannelRequest represents a request to create a channel
type CreateChannelRequest struct {
	Name        string `json:"name"`
	Handle      string `json:"handle"`
	Description string `json:"description"`
	Avatar      string `json:"avatar"`
}

// UpdateChannelRequest carries a partial channel update; absent fields are
// left unchanged.
type UpdateChannelRequest struct {
	Name        *string `json:"name"`
	Handle      *string `json:"handle"`
	Description *string `json:"description"`
	Avatar      *string `json:"avatar"`
}

// HandleCreateChannel creates the caller's channel
func (s *Server) HandleCreateChannel() middleware.AuthedHandler {
	return func(c *gin.Context, identity middleware.Identity) {
		var req CreateChannelRequest
		if err := bindJSON(c, &req); err != nil {
			s.respondError(c, err)
			return
		}

		name := strings.TrimSpace(req.Name)
		handle := models.CanonicalHandle(req.Handle)
		if name == "" || handle == "" {
			s.respondError(c, utils.NewInvalidInputError("Name and handle are required"))
			return
		}

		ctx, cancel := s.requestContext(c)
		defer cancel()

		if err := s.ensureHandleFree(c, handle); err != nil {
			s.respondError(c, err)
			return
		}
		if _, err := s.Store.GetChannelByOwner(ctx, identity.UserID); err == nil {
			s.respondError(c, utils.NewAppError(utils.ErrChannelExists, "User already owns a channel", nil))
			return
		} else if !utils.IsErrorCode(err, utils.ErrChannelNotFound) {
			s.respondError(c, err)
			return
		}

		channel := &models.Channel{
			ID:          uuid.New(),
			Owner:       identity.UserID,
			Name:        name,
			Handle:      handle,
			Avatar:      strings.TrimSpace(req.Avatar),
			Description: strings.TrimSpace(req.Description),
			Videos:      []uuid.UUID{},
			CreatedAt:   time.Now().UTC(),
		}
		if err := s.Store.CreateChannel(ctx, channel); err != nil {
			s.respondError(c, err)
			return
		}

		s.Log.Info("channel created",
			zap.String("channelId", channel.ID.String()),
			zap.String("owner", identity.UserID.String()))
		c.JSON(http.StatusCreated, channel)
	}
}

// HandleGetChannel returns a channel and the videos that reference it
func (s *Server) HandleGetChannel() gin.HandlerFunc {
	return func(c *gin.Context) {
		channelID, err := pathID(c, "id", utils.ErrChannelNotFound, "Channel not found")
		if err != nil {
			s.respondError(c, err)
			return
		}

		ctx, cancel := s.requestContext(c)
		defer cancel()

		channel, err := s.Store.GetChannel(ctx, channelID)
		if err != nil {
			s.respondError(c, err)
			return
		}

		videos, err := s.Store.ListChannelVideos(ctx, channelID)
		if err != nil {
			s.respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, api.ChannelResponse{Channel: channel, Videos: videos})
	}
}

// HandleMyChannel returns the caller's channel
func (s *Server) HandleMyChannel() middleware.AuthedHandler {
	return func(c *gin.Context, identity middleware.Identity) {
		ctx, cancel := s.requestContext(c)
		defer cancel()

		channel, err := s.Store.GetChannelByOwner(ctx, identity.UserID)
		if err != nil {
			if utils.IsErrorCode(err, utils.ErrChannelNotFound) {
				err = utils.NewAppError(utils.ErrChannelNotFound, "No channel found", nil)
			}
			s.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, channel)
	}
}

// HandleUpdateChannel applies a partial update to a channel the caller owns
func (s *Server) HandleUpdateChannel() middleware.AuthedHandler {
	return func(c *gin.Context, identity middleware.Identity) {
		channelID, err := pathID(c, "id", utils.ErrChannelNotFound, "Channel not found")
		if err != nil {
			s.respondError(c, err)
			return
		}

		var req UpdateChannelRequest
		if err := bindJSON(c, &req); err != nil {
			s.respondError(c, err)
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
			s.Log.Warn("channel update refused",
				zap.String("channelId", channelID.String()),
				zap.String("userId", identity.UserID.String()))
			s.respondError(c, err)
			return
		}

		update := models.ChannelUpdate{Avatar: req.Avatar}
		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				s.respondError(c, utils.NewInvalidInputError("Name must not be empty"))
				return
			}
			update.Name = &name
		}
		if req.Handle != nil {
			handle := models.CanonicalHandle(*req.Handle)
			if handle == "" {
				s.respondError(c, utils.NewInvalidInputError("Handle must not be empty"))
				return
			}
			if handle != channel.Handle {
				if err := s.ensureHandleFree(c, handle); err != nil {
					s.respondError(c, err)
					return
				}
			}
			update.Handle = &handle
		}
		if req.Description != nil {
			description := strings.TrimSpace(*req.Description)
			update.Description = &description
		}

		updated, err := s.Store.UpdateChannel(ctx, channelID, update)
		if err != nil {
			s.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, updated)
	}
}

// HandleDeleteChannelVideo unlinks a video from the caller's channel and
// deletes it
func (s *Server) HandleDeleteChannelVideo() middleware.AuthedHandler {
	return func(c *gin.Context, identity middleware.Identity) {
		channelID, err := pathID(c, "id", utils.ErrChannelNotFound, "Channel not found")
		if err != nil {
			s.respondError(c, err)
			return
		}
		videoID, err := pathID(c, "videoId", utils.ErrVideoNotFound, "Video not found")
		if err != nil {
			s.respondError(c, err)
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

		if err := s.Store.DeleteChannelVideo(ctx, channelID, videoID); err != nil {
			s.respondError(c, err)
			return
		}

		s.Log.Info("video deleted",
			zap.String("channelId", channelID.String()),
			zap.String("videoId", videoID.String()))
		c.JSON(http.StatusOK, api.SuccessResponse{Success: true})
	}
}

// ensureHandleFree fails with ErrHandleTaken when another channel uses handle.
func (s *Server) ensureHandleFree(c *gin.Context, handle string) error {
	ctx, cancel := s.requestContext(c)
	defer cancel()

	_, err := s.Store.GetChannelByHandle(ctx, handle)
	switch {
	case err == nil:
		return utils.NewAppError(utils.ErrHandleTaken, "Handle already taken", nil)
	case utils.IsErrorCode(err, utils.ErrChannelNotFound):
		return nil
	default:
		return err
	}
}
