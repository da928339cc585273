package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	"vidshare/internal/config"
	"vidshare/internal/database"
	"vidshare/internal/handlers"
	"vidshare/internal/logging"
	"vidshare/internal/middleware"
	"vidshare/internal/storage"
	"vidshare/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(logging.Config{Level: cfg.LogLevel, File: cfg.LogFile, Debug: cfg.Debug})
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
	logger.Info("server stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewMongoDB(ctx, database.Options{
		URI:             cfg.MongoURI,
		Database:        cfg.MongoDatabase,
		UseTransactions: cfg.MongoTransactions,
	}, logging.WithComponent(logger, "database"))
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.Close(closeCtx); err != nil {
			logger.Warn("failed to disconnect from MongoDB", zap.Error(err))
		}
	}()

	if err := db.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	tokens, err := middleware.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer)
	if err != nil {
		return err
	}

	files, err := storage.New(cfg, logging.WithComponent(logger, "storage"))
	if err != nil {
		return err
	}

	server := handlers.NewServer(db, tokens, files, utils.NewMetricsCollector(), logger)

	opts := handlers.RouterOptions{
		CORS:           middleware.DefaultCORSConfig(cfg.AllowedOrigins),
		LoginLimiter:   middleware.NewRateLimiter(cfg.LoginRatePerMinute),
		MetricsEnabled: cfg.MetricsEnabled,
	}
	if local, ok := files.(*storage.LocalStore); ok {
		opts.StaticDir = local.Root()
		opts.StaticPath = local.PublicPath()
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           server.NewRouter(opts),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("starting server",
		zap.String("addr", httpServer.Addr),
		zap.String("storage", cfg.StorageBackend))
	return serve(ctx, httpServer, nil)
}

// serve runs srv until it fails or ctx is cancelled, then shuts it down
// within shutdownTimeout. ready, when non-nil, is closed once the listener
// is bound.
func serve(ctx context.Context, srv *http.Server, ready chan<- struct{}) error {
	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return err
	}
	if ready != nil {
		close(ready)
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(ln)
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
