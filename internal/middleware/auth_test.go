package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
	"vidshare/internal/api"
	"vidshare/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGuard(t *testing.T) (*Guard, *TokenService) {
	t.Helper()
	ts := newTestTokens(t, time.Now())
	return NewGuard(ts, nil), ts
}

func TestAuthenticate(t *testing.T) {
	guard, ts := newTestGuard(t)
	identity := Identity{UserID: uuid.New(), Username: "bob"}
	token, err := ts.Issue(identity)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		code   string
	}{
		{name: "missing header", header: "", code: utils.ErrUnauthenticated},
		{name: "basic scheme", header: "Basic dXNlcjpwYXNz", code: utils.ErrUnauthenticated},
		{name: "bare token", header: token, code: utils.ErrUnauthenticated},
		{name: "empty bearer", header: "Bearer ", code: utils.ErrUnauthenticated},
		{name: "garbage token", header: "Bearer not.a.token", code: utils.ErrInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := guard.Authenticate(tt.header)
			require.Error(t, err)
			assert.True(t, utils.IsErrorCode(err, tt.code), "got %v", err)
			assert.True(t, utils.IsAuthError(err))
		})
	}

	got, err := guard.Authenticate("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, identity, got)
}

func TestProtect(t *testing.T) {
	gin.SetMode(gin.TestMode)
	guard, ts := newTestGuard(t)
	userID := uuid.New()
	token, err := ts.Issue(Identity{UserID: userID})
	require.NoError(t, err)

	router := gin.New()
	router.GET("/private", guard.Protect(func(c *gin.Context, identity Identity) {
		c.JSON(http.StatusOK, gin.H{"userId": identity.UserID.String()})
	}))

	t.Run("no credential", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/private", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		var body api.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "Unauthorized: authorization header required", body.Error)
	})

	t.Run("foreign issuer is 401", func(t *testing.T) {
		foreign := signClaims(t, jwt.SigningMethodHS256, jwt.MapClaims{
			"userId": userID.String(),
			"iss":    "someone-else",
			"exp":    jwt.NewNumericDate(time.Now().Add(time.Hour)),
		})
		req := httptest.NewRequest(http.MethodGet, "/private", nil)
		req.Header.Set("Authorization", "Bearer "+foreign)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		var body api.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "Invalid or expired token", body.Error)
	})

	t.Run("invalid token is 401", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/private", nil)
		req.Header.Set("Authorization", "Bearer "+token+"x")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/private", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, userID.String(), body["userId"])
	})
}

func TestRequireOwner(t *testing.T) {
	owner := uuid.New()

	assert.NoError(t, RequireOwner(owner, Identity{UserID: owner}))

	err := RequireOwner(owner, Identity{UserID: uuid.New()})
	assert.True(t, utils.IsErrorCode(err, utils.ErrForbidden))
	assert.Equal(t, http.StatusForbidden, utils.AppErrorToHTTPStatus(utils.ErrForbidden))

	err = RequireOwner(uuid.Nil, Identity{})
	assert.True(t, utils.IsErrorCode(err, utils.ErrForbidden))
}
