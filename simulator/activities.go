package simulator

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type activity func(ctx context.Context, user *SimulatedUser) error

// SimulateActivities runs the upload, comment and reaction loops until ctx
// is done.
func (s *Simulator) SimulateActivities(ctx context.Context) {
	var wg sync.WaitGroup
	loops := []struct {
		name      string
		frequency float64
		act       activity
	}{
		{name: "upload", frequency: s.config.UploadFrequency, act: s.simulateUpload},
		{name: "comment", frequency: s.config.CommentFrequency, act: s.simulateComment},
		{name: "reaction", frequency: s.config.ReactionFrequency, act: s.simulateReaction},
	}
	for _, loop := range loops {
		if loop.frequency <= 0 {
			continue
		}
		wg.Add(1)
		go func(name string, frequency float64, act activity) {
			defer wg.Done()
			s.runActivity(ctx, name, frequency, act)
		}(loop.name, loop.frequency, loop.act)
	}
	wg.Wait()
}

// runActivity offers every user to a worker pool once per tick. A worker acts
// with probability frequency (per hour) scaled to the tick length.
func (s *Simulator) runActivity(ctx context.Context, name string, frequency float64, act activity) {
	probability := frequency * s.config.TickInterval.Seconds() / 3600
	if probability > 1 {
		probability = 1
	}

	jobs := make(chan *SimulatedUser, len(s.users))
	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for user := range jobs {
				if ctx.Err() != nil || s.float64() >= probability {
					continue
				}
				// In-flight requests finish after cancellation so the
				// counters match what the server applied.
				if err := act(context.WithoutCancel(ctx), user); err != nil {
					s.log.Debug("activity failed",
						zap.String("activity", name),
						zap.Int("worker", workerID),
						zap.String("user", user.Username),
						zap.Error(err))
				}
			}
		}(i)
	}

	ticker := time.NewTicker(s.config.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return
		case <-ticker.C:
			s.mu.RLock()
			for _, user := range s.users {
				select {
				case jobs <- user:
				default: // Don't block if channel is full
				}
			}
			s.mu.RUnlock()
		}
	}
}

func (s *Simulator) simulateUpload(ctx context.Context, user *SimulatedUser) error {
	if user.ChannelID == uuid.Nil {
		return nil
	}
	_, err := s.uploadVideo(ctx, user)
	return err
}

func (s *Simulator) simulateComment(ctx context.Context, user *SimulatedUser) error {
	videoID, ok := s.pickVideo()
	if !ok {
		return nil
	}

	_, err := s.makeRequest(ctx, http.MethodPost, "/comments/"+videoID.String(), "", map[string]string{
		"content": fmt.Sprintf("Comment from %s at %s", user.Username, time.Now().Format(time.RFC3339)),
	})
	if err != nil {
		return err
	}

	s.stats.mu.Lock()
	s.stats.TotalComments++
	s.stats.mu.Unlock()
	return nil
}

func (s *Simulator) simulateReaction(ctx context.Context, _ *SimulatedUser) error {
	videoID, ok := s.pickVideo()
	if !ok {
		return nil
	}

	dislike := s.float64() < s.config.DislikeRatio
	endpoint := "/videos/" + videoID.String() + "/like"
	if dislike {
		endpoint = "/videos/" + videoID.String() + "/dislike"
	}
	if _, err := s.makeRequest(ctx, http.MethodPost, endpoint, "", nil); err != nil {
		return err
	}

	s.stats.mu.Lock()
	if dislike {
		s.stats.TotalDislikes++
	} else {
		s.stats.TotalLikes++
	}
	s.stats.mu.Unlock()
	return nil
}

// pickVideo chooses a known video, favouring early uploads along a Zipf
// distribution.
func (s *Simulator) pickVideo() (uuid.UUID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch len(s.videos) {
	case 0:
		return uuid.Nil, false
	case 1:
		return s.videos[0], true
	}

	s.rngMu.Lock()
	zipf := rand.NewZipf(s.rng, s.config.ZipfS, 1, uint64(len(s.videos)-1))
	idx := zipf.Uint64()
	s.rngMu.Unlock()

	return s.videos[idx], true
}
