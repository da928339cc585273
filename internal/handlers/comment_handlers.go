package handlers

import (
	"net/http"
	"strings"
	"time"
	"vidshare/internal/api"
	"vidshare/internal/models"
	"vidshare/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CommentRequest represents a request to create or edit a comment
type CommentRequest struct {
	Content string `json:"content"`
}

func (req CommentRequest) validate() (string, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return "", utils.NewInvalidInputError("Comment content is required")
	}
	return content, nil
}

// HandleGetVideoComments returns a video's comments, oldest first
func (s *Server) HandleGetVideoComments() gin.HandlerFunc {
	return func(c *gin.Context) {
		videoID, err := pathID(c, "videoId", utils.ErrVideoNotFound, "Video not found")
		if err != nil {
			s.respondError(c, err)
			return
		}

		ctx, cancel := s.requestContext(c)
		defer cancel()

		if _, err := s.Store.GetVideo(ctx, videoID); err != nil {
			s.respondError(c, err)
			return
		}

		comments, err := s.Store.GetVideoComments(ctx, videoID)
		if err != nil {
			s.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, comments)
	}
}

// HandleCreateComment adds a comment to an existing video
func (s *Server) HandleCreateComment() gin.HandlerFunc {
	return func(c *gin.Context) {
		videoID, err := pathID(c, "videoId", utils.ErrVideoNotFound, "Video not found")
		if err != nil {
			s.respondError(c, err)
			return
		}

		var req CommentRequest
		if err := bindJSON(c, &req); err != nil {
			s.respondError(c, err)
			return
		}
		content, err := req.validate()
		if err != nil {
			s.respondError(c, err)
			return
		}

		ctx, cancel := s.requestContext(c)
		defer cancel()

		if _, err := s.Store.GetVideo(ctx, videoID); err != nil {
			s.respondError(c, err)
			return
		}

		comment := &models.Comment{
			ID:        uuid.New(),
			VideoID:   videoID,
			Content:   content,
			CreatedAt: time.Now().UTC(),
		}
		if err := s.Store.CreateComment(ctx, comment); err != nil {
			s.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, comment)
	}
}

// HandleUpdateComment replaces a comment's content
func (s *Server) HandleUpdateComment() gin.HandlerFunc {
	return func(c *gin.Context) {
		commentID, err := pathID(c, "commentId", utils.ErrNotFound, "Comment not found")
		if err != nil {
			s.respondError(c, err)
			return
		}

		var req CommentRequest
		if err := bindJSON(c, &req); err != nil {
			s.respondError(c, err)
			return
		}
		content, err := req.validate()
		if err != nil {
			s.respondError(c, err)
			return
		}

		ctx, cancel := s.requestContext(c)
		defer cancel()

		comment, err := s.Store.UpdateComment(ctx, commentID, content)
		if err != nil {
			s.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, comment)
	}
}

// HandleDeleteComment removes a comment
func (s *Server) HandleDeleteComment() gin.HandlerFunc {
	return func(c *gin.Context) {
		commentID, err := pathID(c, "commentId", utils.ErrNotFound, "Comment not found")
		if err != nil {
			s.respondError(c, err)
			return
		}

		ctx, cancel := s.requestContext(c)
		defer cancel()

		if err := s.Store.DeleteComment(ctx, commentID); err != nil {
			s.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, api.MessageResponse{Message: "Deleted"})
	}
}
