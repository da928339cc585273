package handlers

import (
	"context"
	"net/http"
	"time"
	"vidshare/internal/api"
	"vidshare/internal/database"
	"vidshare/internal/logging"
	"vidshare/internal/middleware"
	"vidshare/internal/storage"
	"vidshare/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Server holds all handler dependencies
type Server struct {
	Store          database.Store
	Tokens         *middleware.TokenService
	Guard          *middleware.Guard
	Files          storage.FileStore
	Metrics        *utils.MetricsCollector
	Log            *zap.Logger
	RequestTimeout time.Duration
}

// NewServer creates a new Server instance with the given components
func NewServer(
	store database.Store,
	tokens *middleware.TokenService,
	files storage.FileStore,
	metrics *utils.MetricsCollector,
	log *zap.Logger,
) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if metrics == nil {
		metrics = utils.NewMetricsCollector()
	}
	return &Server{
		Store:          store,
		Tokens:         tokens,
		Guard:          middleware.NewGuard(tokens, log),
		Files:          files,
		Metrics:        metrics,
		Log:            log,
		RequestTimeout: 10 * time.Second, // Default timeout for store calls
	}
}

// requestContext bounds store calls made on behalf of a request.
func (s *Server) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), s.RequestTimeout)
}

// respondError writes err as {"error": message}. Internal failures are logged
// with their cause and answered with a generic message.
func (s *Server) respondError(c *gin.Context, err error) {
	appErr, ok := utils.AsAppError(err)
	if !ok {
		appErr = utils.NewAppError(utils.ErrInternal, "Internal server error", err)
	}

	status := utils.AppErrorToHTTPStatus(appErr.Code)
	if status >= http.StatusInternalServerError {
		s.Log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("code", appErr.Code),
			zap.String("requestId", logging.RequestID(c)),
			zap.Error(err))
		_ = c.Error(err)
	}

	c.AbortWithStatusJSON(status, api.ErrorResponse{Error: utils.PublicMessage(appErr)})
}

// pathID parses a UUID path parameter. A malformed id can never match a
// stored document, so it is reported with the resource's not-found code.
func pathID(c *gin.Context, name, notFoundCode, message string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, utils.NewAppError(notFoundCode, message, nil)
	}
	return id, nil
}

func bindJSON(c *gin.Context, dst interface{}) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return utils.NewInvalidInputError("Invalid request body")
	}
	return nil
}
