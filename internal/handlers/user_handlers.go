package handlers

import (
	"fmt"
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
	"golang.org/x/crypto/bcrypt"
)

const passwordHashCost = 10

// RegisterUserRequest represents a request to register a new user
type RegisterUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Avatar   string `json:"avatar"`
}

// LoginRequest represents a request to log in a user
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateProfileRequest carries a partial profile update
type UpdateProfileRequest struct {
	Username *string `json:"username"`
	Avatar   *string `json:"avatar"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// HandleRegister handles requests to register a new user
func (s *Server) HandleRegister() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterUserRequest
		if err := bindJSON(c, &req); err != nil {
			s.respondError(c, err)
			return
		}

		username := strings.TrimSpace(req.Username)
		email := normalizeEmail(req.Email)
		if username == "" || email == "" || req.Password == "" {
			s.respondError(c, utils.NewInvalidInputError("Username, email and password are required"))
			return
		}

		ctx, cancel := s.requestContext(c)
		defer cancel()

		// The unique email index still catches a concurrent duplicate.
		if _, err := s.Store.GetUserByEmail(ctx, email); err == nil {
			s.respondError(c, utils.NewAppError(utils.ErrDuplicate, "Email already registered", nil))
			return
		} else if !utils.IsErrorCode(err, utils.ErrUserNotFound) {
			s.respondError(c, err)
			return
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), passwordHashCost)
		if err != nil {
			s.respondError(c, utils.NewAppError(utils.ErrInternal, "Failed to hash password", err))
			return
		}

		now := time.Now().UTC()
		user := &models.User{
			ID:             uuid.New(),
			Username:       username,
			Email:          email,
			HashedPassword: string(hashed),
			Avatar:         strings.TrimSpace(req.Avatar),
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := s.Store.CreateUser(ctx, user); err != nil {
			s.respondError(c, err)
			return
		}

		s.Log.Info("user registered", zap.String("userId", user.ID.String()))
		c.JSON(http.StatusCreated, user)
	}
}

// HandleLogin handles requests to log in a user
func (s *Server) HandleLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := bindJSON(c, &req); err != nil {
			s.respondError(c, err)
			return
		}

		email := normalizeEmail(req.Email)
		if email == "" || req.Password == "" {
			s.respondError(c, utils.NewInvalidInputError("Email and password are required"))
			return
		}

		ctx, cancel := s.requestContext(c)
		defer cancel()

		user, err := s.Store.GetUserByEmail(ctx, email)
		if err != nil {
			s.respondError(c, err)
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(req.Password)); err != nil {
			s.respondError(c, utils.NewAppError(utils.ErrInvalidCredentials, "Invalid credentials", nil))
			return
		}

		token, err := s.Tokens.Issue(middleware.Identity{UserID: user.ID, Username: user.Username})
		if err != nil {
			s.respondError(c, utils.NewAppError(utils.ErrInternal, "Failed to generate auth token", err))
			return
		}

		c.JSON(http.StatusOK, api.LoginResponse{Token: token, User: user})
	}
}

// HandleMe returns the caller's stored profile
func (s *Server) HandleMe() middleware.AuthedHandler {
	return func(c *gin.Context, identity middleware.Identity) {
		ctx, cancel := s.requestContext(c)
		defer cancel()

		user, err := s.Store.GetUser(ctx, identity.UserID)
		if err != nil {
			s.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// HandleUpdateProfile applies a partial update to the caller's profile
func (s *Server) HandleUpdateProfile() middleware.AuthedHandler {
	return func(c *gin.Context, identity middleware.Identity) {
		var req UpdateProfileRequest
		if err := bindJSON(c, &req); err != nil {
			s.respondError(c, err)
			return
		}

		update := models.UserUpdate{Avatar: req.Avatar}
		if req.Username != nil {
			username := strings.TrimSpace(*req.Username)
			if username == "" {
				s.respondError(c, utils.NewInvalidInputError("Username must not be empty"))
				return
			}
			update.Username = &username
		}

		ctx, cancel := s.requestContext(c)
		defer cancel()

		user, err := s.Store.UpdateUser(ctx, identity.UserID, update)
		if err != nil {
			s.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// HandleAvatarUpload stores a square JPEG avatar and links it to the caller
func (s *Server) HandleAvatarUpload() middleware.AuthedHandler {
	return func(c *gin.Context, identity middleware.Identity) {
		header, err := c.FormFile("avatar")
		if err != nil {
			s.respondError(c, utils.NewInvalidInputError("Avatar file is required"))
			return
		}

		file, err := header.Open()
		if err != nil {
			s.respondError(c, utils.NewInvalidInputError("Unreadable avatar file"))
			return
		}
		defer file.Close()

		normalized, err := storage.NormalizeAvatar(file)
		if err != nil {
			s.respondError(c, utils.NewInvalidInputError("Avatar must be a PNG, JPEG or GIF image"))
			return
		}

		ctx, cancel := s.requestContext(c)
		defer cancel()

		key := fmt.Sprintf("avatars/%s-%d.jpg", identity.UserID, time.Now().UnixMilli())
		avatarURL, err := s.Files.Save(ctx, key, normalized, "image/jpeg")
		if err != nil {
			s.respondError(c, utils.NewAppError(utils.ErrStorage, "Failed to store avatar", err))
			return
		}

		user, err := s.Store.UpdateUser(ctx, identity.UserID, models.UserUpdate{Avatar: &avatarURL})
		if err != nil {
			if delErr := s.Files.Delete(ctx, key); delErr != nil {
				s.Log.Warn("failed to remove orphaned avatar", zap.String("key", key), zap.Error(delErr))
			}
			s.respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, api.AvatarResponse{AvatarURL: avatarURL, User: user})
	}
}
