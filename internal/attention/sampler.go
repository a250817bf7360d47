// Package attention periodically checks whether the candidate is facing the
// camera and feeds the result into session feedback.
package attention

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/kmercer/greenroom/internal/config"
	"github.com/kmercer/greenroom/internal/feedback"
)

// FrameSource produces single camera frames on demand.
type FrameSource interface {
	Grab(ctx context.Context) ([]byte, error)
}

// FaceDetector reports whether a frame contains a forward-facing face.
type FaceDetector interface {
	FacePresent(ctx context.Context, frame []byte) (bool, error)
}

// Sampler polls the camera on a fixed interval while a question is being
// answered and records eye-contact feedback. Frame grabs and detection
// calls that fail are skipped; attention is advisory, never fatal.
type Sampler struct {
	cfg      config.AttentionConfig
	frames   FrameSource
	detector FaceDetector
	agg      *feedback.Aggregator
	logger   *slog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped chan struct{}
}

// New builds a sampler. A nil frame source or detector makes Start a no-op.
func New(cfg config.AttentionConfig, frames FrameSource, detector FaceDetector, agg *feedback.Aggregator, logger *slog.Logger) *Sampler {
	return &Sampler{cfg: cfg, frames: frames, detector: detector, agg: agg, logger: logger}
}

// Active reports whether a sampling loop is running.
func (s *Sampler) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// Start begins periodic sampling. Starting an active sampler restarts the
// interval.
func (s *Sampler) Start(ctx context.Context) {
	if !s.cfg.Enable || s.frames == nil || s.detector == nil {
		return
	}

	s.Stop()

	interval := time.Duration(s.cfg.IntervalMS) * time.Millisecond
	if interval <= 0 {
		interval = 2 * time.Second
	}

	ctx, cancel := context.WithCancel(ctx)
	stopped := make(chan struct{})

	s.mu.Lock()
	s.cancel = cancel
	s.stopped = stopped
	s.mu.Unlock()

	go s.loop(ctx, interval, stopped)
}

// Stop halts sampling and waits for the loop to exit.
func (s *Sampler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	stopped := s.stopped
	s.cancel = nil
	s.stopped = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-stopped
}

func (s *Sampler) loop(ctx context.Context, interval time.Duration, stopped chan struct{}) {
	defer close(stopped)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sample(ctx)
		}
	}
}

func (s *Sampler) sample(ctx context.Context) {
	frame, err := s.frames.Grab(ctx)
	if err != nil {
		// Camera may be mid-release or busy; skip this tick.
		if s.logger != nil {
			s.logger.Debug("attention frame grab failed", "error", err.Error())
		}
		return
	}

	present, err := s.detector.FacePresent(ctx, frame)
	if err != nil {
		if s.logger != nil {
			s.logger.Debug("face detection failed", "error", err.Error())
		}
		return
	}

	s.agg.Set(feedback.CategoryEyeContact, feedback.AnalyzeEyeContact(present))
}
