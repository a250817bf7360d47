package session

import (
	"context"

	"github.com/kmercer/greenroom/internal/feedback"
	"github.com/kmercer/greenroom/internal/plan"
	"github.com/kmercer/greenroom/internal/transcribe"
)

// Listener is the session-facing transcription feed contract.
type Listener interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) (transcribe.StopOutcome, error)
	Cancel()
	Running() bool
}

// Speaker narrates question text and signals completion.
type Speaker interface {
	Speak(ctx context.Context, text string, done func())
	Interrupt()
}

// CameraGate owns the camera for the duration of a session attempt.
type CameraGate interface {
	Acquire(ctx context.Context) error
	Release()
}

// AttentionSampler runs eye-contact sampling between acquire and release.
type AttentionSampler interface {
	Start(ctx context.Context)
	Stop()
}

// PlanSource fetches the interview plan for a target.
type PlanSource interface {
	LoadPlan(ctx context.Context, target string, rounds int) (plan.Plan, error)
}

// FeedbackSink persists the end-of-session report to the backend.
type FeedbackSink interface {
	SaveFeedback(ctx context.Context, target string, report feedback.Report) error
}

// Archiver stores the report locally.
type Archiver interface {
	Save(ctx context.Context, report feedback.Report) error
}

// Deps bundles the session's collaborators. Nil fields fall back to safe
// no-op implementations so a degraded environment still yields a usable
// session.
type Deps struct {
	Plans    PlanSource
	Feedback FeedbackSink
	Archive  Archiver
	Listener Listener
	Speaker  Speaker
	Camera   CameraGate
	Sampler  AttentionSampler
	Analyzer feedback.CodeAnalyzer
}

type fallbackPlans struct{}

func (fallbackPlans) LoadPlan(_ context.Context, target string, _ int) (plan.Plan, error) {
	return plan.Fallback(target), nil
}

type noopSink struct{}

func (noopSink) SaveFeedback(context.Context, string, feedback.Report) error { return nil }

type noopArchive struct{}

func (noopArchive) Save(context.Context, feedback.Report) error { return nil }

// unavailableListener stands in when no recognizer could be built; the feed
// is then never started and the session reports degraded capability.
type unavailableListener struct{}

func (unavailableListener) Start(context.Context) error { return transcribe.ErrUnsupported }

func (unavailableListener) Stop(context.Context) (transcribe.StopOutcome, error) {
	return transcribe.StopOutcome{}, nil
}

func (unavailableListener) Cancel()       {}
func (unavailableListener) Running() bool { return false }

// silentSpeaker signals narration completion immediately.
type silentSpeaker struct{}

func (silentSpeaker) Speak(_ context.Context, _ string, done func()) {
	if done != nil {
		done()
	}
}

func (silentSpeaker) Interrupt() {}

type noopCamera struct{}

func (noopCamera) Acquire(context.Context) error { return nil }
func (noopCamera) Release()                      {}

type noopSampler struct{}

func (noopSampler) Start(context.Context) {}
func (noopSampler) Stop()                 {}

func (d Deps) withDefaults() Deps {
	if d.Plans == nil {
		d.Plans = fallbackPlans{}
	}
	if d.Feedback == nil {
		d.Feedback = noopSink{}
	}
	if d.Archive == nil {
		d.Archive = noopArchive{}
	}
	if d.Listener == nil {
		d.Listener = unavailableListener{}
	}
	if d.Speaker == nil {
		d.Speaker = silentSpeaker{}
	}
	if d.Camera == nil {
		d.Camera = noopCamera{}
	}
	if d.Sampler == nil {
		d.Sampler = noopSampler{}
	}
	if d.Analyzer == nil {
		d.Analyzer = feedback.HeuristicAnalyzer{}
	}
	return d
}
