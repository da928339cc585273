package simulator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"
	"mime/multipart"
	"net/http"
	"sync"
	"time"
	"vidshare/internal/api"
	"vidshare/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const simPassword = "testpass123"

type SimConfig struct {
	NumUsers          int
	NumChannels       int
	SimulationTime    time.Duration
	UploadFrequency   float64 // uploads per channel owner per hour
	CommentFrequency  float64 // comments per user per hour
	ReactionFrequency float64 // likes or dislikes per user per hour
	DislikeRatio      float64
	ZipfS             float64
	Workers           int
	TickInterval      time.Duration
	BaseURL           string
}

type SimulationStats struct {
	mu              sync.RWMutex
	StartTime       time.Time
	TotalRequests   int64
	SuccessRequests int64
	FailedRequests  int64
	AverageLatency  time.Duration
	TotalUploads    int
	TotalComments   int
	TotalLikes      int
	TotalDislikes   int
}

// SimulatedUser is a registered account and its bearer token.
type SimulatedUser struct {
	ID        uuid.UUID
	Username  string
	Email     string
	Token     string
	ChannelID uuid.UUID // uuid.Nil when the user has no channel
}

// StatusError is returned for responses with a 4xx or 5xx status.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request failed with status %d: %s", e.Status, e.Message)
}

// Simulator drives a running API with synthetic users, uploads, comments
// and reactions.
type Simulator struct {
	config SimConfig
	stats  *SimulationStats
	client *http.Client
	log    *zap.Logger

	mu     sync.RWMutex
	users  []*SimulatedUser
	videos []uuid.UUID // popularity rank order: earlier videos get picked more

	rngMu sync.Mutex
	rng   *rand.Rand
}

func NewSimulator(config SimConfig, log *zap.Logger) *Simulator {
	if log == nil {
		log = zap.NewNop()
	}
	if config.Workers <= 0 {
		config.Workers = 5
	}
	if config.TickInterval <= 0 {
		config.TickInterval = 500 * time.Millisecond
	}
	if config.ZipfS <= 1 {
		config.ZipfS = 1.07
	}
	if config.NumChannels > config.NumUsers {
		config.NumChannels = config.NumUsers
	}

	return &Simulator{
		config: config,
		stats:  &SimulationStats{StartTime: time.Now()},
		client: &http.Client{Timeout: 10 * time.Second},
		log:    log,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Run seeds users, channels and one video per channel, then generates
// traffic until ctx is done.
func (s *Simulator) Run(ctx context.Context) error {
	s.log.Info("starting simulation",
		zap.String("baseUrl", s.config.BaseURL),
		zap.Int("users", s.config.NumUsers),
		zap.Int("channels", s.config.NumChannels))

	if err := s.initialize(ctx); err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.SimulateActivities(ctx)
	}()
	go func() {
		defer wg.Done()
		s.collectMetrics(ctx)
	}()
	wg.Wait()
	return nil
}

func (s *Simulator) initialize(ctx context.Context) error {
	s.log.Info("phase 1: registering users", zap.Int("count", s.config.NumUsers))
	if err := s.createInitialUsers(ctx); err != nil {
		return err
	}
	if len(s.users) == 0 {
		return fmt.Errorf("no users could be registered")
	}

	s.log.Info("phase 2: creating channels", zap.Int("count", s.config.NumChannels))
	for i := 0; i < s.config.NumChannels && i < len(s.users); i++ {
		user := s.users[i]
		if err := s.createChannel(ctx, user, i); err != nil {
			s.log.Warn("failed to create channel", zap.String("user", user.Username), zap.Error(err))
			continue
		}
		if _, err := s.uploadVideo(ctx, user); err != nil {
			s.log.Warn("failed to upload seed video", zap.String("user", user.Username), zap.Error(err))
		}
	}

	s.log.Info("initialization completed", zap.Int("users", len(s.users)), zap.Int("videos", len(s.videos)))
	return nil
}

func (s *Simulator) createInitialUsers(ctx context.Context) error {
	jobs := make(chan int)
	results := make(chan *SimulatedUser, s.config.NumUsers)

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for n := range jobs {
				user := &SimulatedUser{
					Username: fmt.Sprintf("user_%d", n),
					Email:    fmt.Sprintf("user_%d@sim.test", n),
				}

				var err error
				for retries := 0; retries < 3; retries++ {
					if err = s.registerAndLogin(ctx, user); err == nil {
						results <- user
						break
					}
					backoff := time.Duration(math.Pow(2, float64(retries))) * 100 * time.Millisecond
					s.log.Debug("retrying registration",
						zap.Int("worker", workerID), zap.String("user", user.Username),
						zap.Duration("backoff", backoff), zap.Error(err))
					select {
					case <-ctx.Done():
						return
					case <-time.After(backoff):
					}
				}
				if err != nil {
					s.log.Warn("failed to register user", zap.String("user", user.Username), zap.Error(err))
				}
			}
		}(i)
	}

	go func() {
		defer close(jobs)
		for i := 0; i < s.config.NumUsers; i++ {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	wg.Wait()
	close(results)

	users := make([]*SimulatedUser, 0, s.config.NumUsers)
	for user := range results {
		users = append(users, user)
	}

	s.mu.Lock()
	s.users = users
	s.mu.Unlock()
	return ctx.Err()
}

// registerAndLogin registers the user, tolerating an existing account, and
// stores the token from logging in.
func (s *Simulator) registerAndLogin(ctx context.Context, user *SimulatedUser) error {
	_, err := s.makeRequest(ctx, http.MethodPost, "/register", "", map[string]string{
		"username": user.Username,
		"email":    user.Email,
		"password": simPassword,
	})
	if statusErr, ok := err.(*StatusError); ok && statusErr.Status == http.StatusConflict {
		err = nil
	}
	if err != nil {
		return err
	}

	resp, err := s.makeRequest(ctx, http.MethodPost, "/login", "", map[string]string{
		"email":    user.Email,
		"password": simPassword,
	})
	if err != nil {
		return err
	}

	var login api.LoginResponse
	if err := json.Unmarshal(resp, &login); err != nil {
		return fmt.Errorf("failed to parse login response: %w", err)
	}
	if login.User == nil || login.Token == "" {
		return fmt.Errorf("login response without token")
	}
	user.ID = login.User.ID
	user.Token = login.Token
	return nil
}

func (s *Simulator) createChannel(ctx context.Context, user *SimulatedUser, n int) error {
	theme := getRandomTheme(s.intn)
	resp, err := s.makeRequest(ctx, http.MethodPost, "/channels", user.Token, map[string]string{
		"name":        fmt.Sprintf("%s with %s", theme, user.Username),
		"handle":      fmt.Sprintf("%s-%d-%s", theme, n, uuid.NewString()[:8]),
		"description": fmt.Sprintf("A channel about %s", theme),
	})
	if err != nil {
		return err
	}

	var channel models.Channel
	if err := json.Unmarshal(resp, &channel); err != nil {
		return fmt.Errorf("failed to parse channel response: %w", err)
	}
	user.ChannelID = channel.ID
	return nil
}

// uploadVideo posts a small synthetic video and thumbnail to the user's
// channel.
func (s *Simulator) uploadVideo(ctx context.Context, user *SimulatedUser) (uuid.UUID, error) {
	theme := getRandomTheme(s.intn)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fields := map[string]string{
		"title":       fmt.Sprintf("%s clip by %s at %d", theme, user.Username, time.Now().UnixNano()),
		"description": fmt.Sprintf("Simulated %s upload", theme),
		"category":    theme,
		"channelId":   user.ChannelID.String(),
	}
	for name, value := range fields {
		if err := mw.WriteField(name, value); err != nil {
			return uuid.Nil, err
		}
	}
	for name, file := range map[string]string{"video": "clip.mp4", "thumbnail": "thumb.jpg"} {
		part, err := mw.CreateFormFile(name, file)
		if err != nil {
			return uuid.Nil, err
		}
		if _, err := part.Write([]byte("simulated " + name)); err != nil {
			return uuid.Nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return uuid.Nil, err
	}

	resp, err := s.do(ctx, http.MethodPost, "/videos/upload", user.Token, mw.FormDataContentType(), &body)
	if err != nil {
		return uuid.Nil, err
	}

	var video models.Video
	if err := json.Unmarshal(resp, &video); err != nil {
		return uuid.Nil, fmt.Errorf("failed to parse upload response: %w", err)
	}

	s.mu.Lock()
	s.videos = append(s.videos, video.ID)
	s.mu.Unlock()

	s.stats.mu.Lock()
	s.stats.TotalUploads++
	s.stats.mu.Unlock()
	return video.ID, nil
}

// makeRequest sends data as JSON.
func (s *Simulator) makeRequest(ctx context.Context, method, endpoint, token string, data interface{}) ([]byte, error) {
	var body io.Reader
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(raw)
	}
	return s.do(ctx, method, endpoint, token, "application/json", body)
}

func (s *Simulator) do(ctx context.Context, method, endpoint, token, contentType string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, s.config.BaseURL+endpoint, body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		s.recordRequestMetrics(start, err)
		return nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err == nil && resp.StatusCode >= 400 {
		var apiErr api.ErrorResponse
		_ = json.Unmarshal(payload, &apiErr)
		err = &StatusError{Status: resp.StatusCode, Message: apiErr.Error}
	}
	s.recordRequestMetrics(start, err)
	if err != nil {
		return nil, err
	}
	return payload, nil
}

func (s *Simulator) recordRequestMetrics(start time.Time, err error) {
	s.stats.mu.Lock()
	defer s.stats.mu.Unlock()

	latency := time.Since(start)
	s.stats.TotalRequests++
	if err != nil {
		s.stats.FailedRequests++
	} else {
		s.stats.SuccessRequests++
	}

	total := s.stats.AverageLatency * time.Duration(s.stats.TotalRequests-1)
	s.stats.AverageLatency = (total + latency) / time.Duration(s.stats.TotalRequests)
}

func (s *Simulator) collectMetrics(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m := s.GetMetrics()
			s.log.Info("simulation metrics",
				zap.Float64("requestsPerSecond", m.RequestsPerSecond),
				zap.Duration("averageLatency", m.AverageLatency),
				zap.Int("uploads", m.TotalUploads),
				zap.Int("comments", m.TotalComments),
				zap.Int("likes", m.TotalLikes),
				zap.Int("dislikes", m.TotalDislikes),
				zap.Int("errors", m.ErrorCount))
		}
	}
}

// SimulationMetrics is a snapshot of the simulation counters
type SimulationMetrics struct {
	TotalUsers        int
	TotalVideos       int
	TotalUploads      int
	TotalComments     int
	TotalLikes        int
	TotalDislikes     int
	AverageLatency    time.Duration
	ErrorCount        int
	RequestsPerSecond float64
}

// GetMetrics returns the current simulation metrics
func (s *Simulator) GetMetrics() SimulationMetrics {
	s.mu.RLock()
	users, videos := len(s.users), len(s.videos)
	s.mu.RUnlock()

	s.stats.mu.RLock()
	defer s.stats.mu.RUnlock()

	elapsed := time.Since(s.stats.StartTime)
	return SimulationMetrics{
		TotalUsers:        users,
		TotalVideos:       videos,
		TotalUploads:      s.stats.TotalUploads,
		TotalComments:     s.stats.TotalComments,
		TotalLikes:        s.stats.TotalLikes,
		TotalDislikes:     s.stats.TotalDislikes,
		AverageLatency:    s.stats.AverageLatency,
		ErrorCount:        int(s.stats.FailedRequests),
		RequestsPerSecond: float64(s.stats.TotalRequests) / elapsed.Seconds(),
	}
}

func (s *Simulator) intn(n int) int {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Intn(n)
}

func (s *Simulator) float64() float64 {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Float64()
}

func getRandomTheme(intn func(int) int) string {
	themes := []string{
		"gaming", "tech", "science", "music", "movies",
		"books", "sports", "food", "travel", "art",
		"photography", "fitness", "programming", "news", "comedy",
	}
	return themes[intn(len(themes))]
}
