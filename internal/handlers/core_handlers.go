package handlers

import (
	"net/http"
	"time"
	"vidshare/internal/api"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// HandleHealth reports liveness and whether the store answers a ping
func (s *Server) HandleHealth() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := s.requestContext(c)
		defer cancel()

		response := api.HealthResponse{
			Status:   "ok",
			Database: "ok",
			Uptime:   s.Metrics.Uptime().Round(time.Second).String(),
		}

		status := http.StatusOK
		if err := s.Store.Ping(ctx); err != nil {
			s.Log.Warn("health check: store ping failed", zap.Error(err))
			response.Status = "degraded"
			response.Database = "unreachable"
			status = http.StatusServiceUnavailable
		}

		c.JSON(status, response)
	}
}

// HandleMetrics exposes the Prometheus registry
func (s *Server) HandleMetrics() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(s.Metrics.Registry(), promhttp.HandlerOpts{}))
}
