package handlers

import (
	"vidshare/internal/logging"
	"vidshare/internal/middleware"

	"github.com/gin-gonic/gin"
)

// RouterOptions controls the optional parts of the HTTP surface.
type RouterOptions struct {
	CORS           *middleware.CORSConfig
	LoginLimiter   *middleware.RateLimiter
	MetricsEnabled bool
	// StaticDir, when set, is served under StaticPath.
	StaticDir  string
	StaticPath string
}

// NewRouter builds the gin engine. Every route is mounted at the root and
// again under /api.
func (s *Server) NewRouter(opts RouterOptions) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logging.RequestLogger(s.Log, s.Metrics))
	router.Use(middleware.CORS(opts.CORS))

	if opts.StaticDir != "" {
		path := opts.StaticPath
		if path == "" {
			path = "/uploads"
		}
		router.Static(path, opts.StaticDir)
	}

	router.GET("/health", s.HandleHealth())
	if opts.MetricsEnabled {
		router.GET("/metrics", s.HandleMetrics())
	}

	s.registerRoutes(&router.RouterGroup, opts)
	s.registerRoutes(router.Group("/api"), opts)
	return router
}

func (s *Server) registerRoutes(group *gin.RouterGroup, opts RouterOptions) {
	protect := s.Guard.Protect

	credentials := []gin.HandlerFunc{}
	if opts.LoginLimiter != nil {
		credentials = append(credentials, opts.LoginLimiter.Middleware())
	}
	group.POST("/register", append(credentials, s.HandleRegister())...)
	group.POST("/login", append(credentials, s.HandleLogin())...)
	group.GET("/me", protect(s.HandleMe()))

	users := group.Group("/users")
	users.GET("/me", protect(s.HandleMe()))
	users.PUT("/me", protect(s.HandleUpdateProfile()))
	users.POST("/avatar", protect(s.HandleAvatarUpload()))

	channels := group.Group("/channels")
	channels.POST("", protect(s.HandleCreateChannel()))
	channels.GET("/me", protect(s.HandleMyChannel()))
	channels.GET("/:id", s.HandleGetChannel())
	channels.PUT("/:id", protect(s.HandleUpdateChannel()))
	channels.DELETE("/:id/video/:videoId", protect(s.HandleDeleteChannelVideo()))

	videos := group.Group("/videos")
	videos.GET("", s.HandleListVideos())
	videos.GET("/search", s.HandleSearchVideos())
	videos.GET("/suggestions", s.HandleSuggestions())
	videos.GET("/category/:category", s.HandleVideosByCategory())
	videos.GET("/:id", s.HandleGetVideo())
	videos.POST("/upload", protect(s.HandleUploadVideo()))
	videos.POST("/:id/like", s.HandleLikeVideo())
	videos.POST("/:id/dislike", s.HandleDislikeVideo())
	videos.PUT("/:id", protect(s.HandleUpdateVideo()))

	comments := group.Group("/comments")
	comments.GET("/:videoId", s.HandleGetVideoComments())
	comments.POST("/:videoId", s.HandleCreateComment())
	comments.PUT("/:commentId", s.HandleUpdateComment())
	comments.DELETE("/:commentId", s.HandleDeleteComment())
}
