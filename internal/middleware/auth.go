package middleware

import (
	"strings"
	"vidshare/internal/api"
	"vidshare/internal/logging"
	"vidshare/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuthedHandler is a handler that runs only after authentication succeeded.
type AuthedHandler func(c *gin.Context, identity Identity)

// Guard turns a bearer credential into an Identity for protected routes.
type Guard struct {
	tokens *TokenService
	log    *zap.Logger
}

func NewGuard(tokens *TokenService, log *zap.Logger) *Guard {
	if log == nil {
		log = zap.NewNop()
	}
	return &Guard{tokens: tokens, log: log}
}

// Authenticate validates an Authorization header value. A missing header or
// non-Bearer scheme is ErrUnauthenticated; a bad token is ErrInvalidToken.
// Both map to 401.
func (g *Guard) Authenticate(header string) (Identity, error) {
	if header == "" {
		return Identity{}, utils.NewUnauthenticatedError("authorization header required")
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return Identity{}, utils.NewUnauthenticatedError("invalid authorization format")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return Identity{}, utils.NewUnauthenticatedError("invalid authorization format")
	}

	return g.tokens.Verify(token)
}

// Protect rejects unauthenticated requests with 401 and otherwise hands the
// caller's identity to next.
func (g *Guard) Protect(next AuthedHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := g.Authenticate(c.GetHeader("Authorization"))
		if err != nil {
			g.log.Debug("authentication failed",
				zap.String("path", c.Request.URL.Path),
				zap.String("requestId", logging.RequestID(c)),
				zap.Error(err))
			if !utils.IsAuthError(err) {
				err = utils.NewUnauthenticatedError("invalid credentials")
			}
			abortWithError(c, err)
			return
		}
		next(c, identity)
	}
}

// abortWithError writes err as an api.ErrorResponse with the status its
// code maps to.
func abortWithError(c *gin.Context, err error) {
	appErr, ok := utils.AsAppError(err)
	if !ok {
		appErr = utils.NewAppError(utils.ErrInternal, "Internal server error", err)
	}
	c.AbortWithStatusJSON(utils.AppErrorToHTTPStatus(appErr.Code), api.ErrorResponse{Error: utils.PublicMessage(appErr)})
}

// RequireOwner returns ErrForbidden unless identity owns the resource.
func RequireOwner(ownerID uuid.UUID, identity Identity) error {
	if ownerID == uuid.Nil || ownerID != identity.UserID {
		return utils.NewForbiddenError()
	}
	return nil
}
