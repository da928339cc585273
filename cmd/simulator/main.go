package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"
	"vidshare/internal/logging"
	"vidshare/simulator"

	"go.uber.org/zap"
)

func main() {
	config := simulator.SimConfig{}
	flag.StringVar(&config.BaseURL, "url", "http://localhost:8080", "API base URL")
	flag.IntVar(&config.NumUsers, "users", 20, "number of simulated users")
	flag.IntVar(&config.NumChannels, "channels", 5, "number of users that own a channel")
	flag.DurationVar(&config.SimulationTime, "duration", 2*time.Minute, "how long to generate traffic")
	flag.Float64Var(&config.UploadFrequency, "uploads", 30, "uploads per channel owner per hour")
	flag.Float64Var(&config.CommentFrequency, "comments", 60, "comments per user per hour")
	flag.Float64Var(&config.ReactionFrequency, "reactions", 120, "reactions per user per hour")
	flag.Float64Var(&config.DislikeRatio, "dislike-ratio", 0.2, "share of reactions that are dislikes")
	flag.Float64Var(&config.ZipfS, "zipf", 1.07, "Zipf exponent for video popularity")
	debug := flag.Bool("debug", false, "log every failed request")
	flag.Parse()

	level := "info"
	if *debug {
		level = "debug"
	}
	logger := logging.New(logging.Config{Level: level, Debug: true})
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, config.SimulationTime)
	defer cancel()

	sim := simulator.NewSimulator(config, logging.WithComponent(logger, "simulator"))
	if err := sim.Run(ctx); err != nil {
		logger.Fatal("simulation failed", zap.Error(err))
	}

	m := sim.GetMetrics()
	logger.Info("simulation completed",
		zap.Int("users", m.TotalUsers),
		zap.Int("videos", m.TotalVideos),
		zap.Int("uploads", m.TotalUploads),
		zap.Int("comments", m.TotalComments),
		zap.Int("likes", m.TotalLikes),
		zap.Int("dislikes", m.TotalDislikes),
		zap.Duration("averageLatency", m.AverageLatency),
		zap.Int("errors", m.ErrorCount),
		zap.Float64("requestsPerSecond", m.RequestsPerSecond))
}
