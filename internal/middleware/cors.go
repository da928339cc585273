package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// CORSConfig holds configuration for CORS middleware
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

// DefaultCORSConfig returns a default CORS configuration
func DefaultCORSConfig(allowedOrigins []string) *CORSConfig {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	return &CORSConfig{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "Accept", "Origin", "X-Requested-With", "X-Request-Id"},
		ExposedHeaders:   []string{"Content-Length", "Content-Type", "X-Request-Id"},
		MaxAge:           86400, // 24 hours
		AllowCredentials: true,
	}
}

// allowOrigin returns the Access-Control-Allow-Origin value for origin and
// whether it was matched by name. Named origins are echoed; a "*" entry
// admits every other origin under the literal wildcard.
func (cfg *CORSConfig) allowOrigin(origin string) (value string, named bool) {
	if origin == "" {
		return "", false
	}
	wildcard := false
	for _, allowed := range cfg.AllowedOrigins {
		switch allowed {
		case origin:
			return origin, true
		case "*":
			wildcard = true
		}
	}
	if wildcard {
		return "*", false
	}
	return "", false
}

// CORS sets CORS headers for allowed origins and answers preflight requests.
func CORS(config *CORSConfig) gin.HandlerFunc {
	if config == nil {
		config = DefaultCORSConfig(nil)
	}
	methods := strings.Join(config.AllowedMethods, ", ")
	headers := strings.Join(config.AllowedHeaders, ", ")
	exposed := strings.Join(config.ExposedHeaders, ", ")
	maxAge := strconv.Itoa(config.MaxAge)

	return func(c *gin.Context) {
		allowed, named := config.allowOrigin(c.GetHeader("Origin"))
		if allowed == "" {
			c.Next()
			return
		}

		c.Header("Access-Control-Allow-Origin", allowed)
		c.Header("Vary", "Origin")
		c.Header("Access-Control-Allow-Methods", methods)
		c.Header("Access-Control-Allow-Headers", headers)
		c.Header("Access-Control-Expose-Headers", exposed)
		c.Header("Access-Control-Max-Age", maxAge)
		// Browsers reject credentials alongside a wildcard origin.
		if config.AllowCredentials && named {
			c.Header("Access-Control-Allow-Credentials", "true")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
