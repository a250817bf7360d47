// Package session coordinates the interview lifecycle: plan loading,
// narration, answer capture, feedback, and completion.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/kmercer/greenroom/internal/config"
	"github.com/kmercer/greenroom/internal/console"
	"github.com/kmercer/greenroom/internal/feedback"
	"github.com/kmercer/greenroom/internal/fsm"
	"github.com/kmercer/greenroom/internal/ipc"
	"github.com/kmercer/greenroom/internal/logging"
	"github.com/kmercer/greenroom/internal/plan"
	"github.com/kmercer/greenroom/internal/timer"
	"github.com/kmercer/greenroom/internal/transcribe"
)

type action int

const (
	actionStop action = iota + 1
	actionEnd
	actionAnalyze
)

// ErrCameraGate indicates the camera could not be acquired and the session
// was not allowed to start.
var ErrCameraGate = errors.New("camera unavailable")

// Result is the complete outcome of one Run invocation.
type Result struct {
	State      fsm.Lifecycle
	Report     feedback.Report
	Answers    int
	Persisted  bool
	Archived   bool
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
}

// Controller orchestrates one interview session end to end. All lifecycle
// mutations happen on the Run goroutine; IPC handlers only read snapshots
// and enqueue actions.
type Controller struct {
	cfg      config.Config
	target   string
	logger   *slog.Logger
	display  console.Display
	deps     Deps
	agg      *feedback.Aggregator
	clock    *timer.Counter

	mu        sync.RWMutex
	lifecycle fsm.Lifecycle
	phase     fsm.Phase
	plan      plan.Plan
	pos       plan.Position
	answers   []feedback.QuestionAnswer
	planGen   uint64
	qGen      uint64

	actions       chan action
	narrationDone chan uint64
}

// NewController builds a session controller for one target.
func NewController(cfg config.Config, target string, display console.Display, deps Deps, logger *slog.Logger) *Controller {
	if display == nil {
		display = console.Noop{}
	}

	c := &Controller{
		cfg:           cfg,
		target:        strings.TrimSpace(target),
		logger:        logger,
		display:       display,
		deps:          deps.withDefaults(),
		lifecycle:     fsm.LifecycleNotStarted,
		phase:         fsm.PhaseIdle,
		actions:       make(chan action, 1),
		narrationDone: make(chan uint64, 4),
	}
	c.agg = feedback.NewAggregator(func(item feedback.Item) {
		c.display.Feedback(item)
	})
	c.clock = timer.New(func(seconds int) {
		c.display.Timer(seconds)
	})
	return c
}

// Feedback exposes the session's aggregator so the attention sampler can
// write into the same category map the controller reports from.
func (c *Controller) Feedback() *feedback.Aggregator {
	return c.agg
}

// AttachSampler wires the attention sampler after construction; the sampler
// needs the controller's aggregator, which only exists once the controller
// does. Must be called before Run.
func (c *Controller) AttachSampler(sampler AttentionSampler) {
	if sampler != nil {
		c.deps.Sampler = sampler
	}
}

// Lifecycle returns the current lifecycle snapshot.
func (c *Controller) Lifecycle() fsm.Lifecycle {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lifecycle
}

// Phase returns the current per-question phase snapshot.
func (c *Controller) Phase() fsm.Phase {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.phase
}

// Position describes the current question for status output.
func (c *Controller) Position() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.plan.Valid(c.pos) {
		return ""
	}
	return fmt.Sprintf("round %d/%d question %d/%d",
		c.pos.Round+1, len(c.plan.Rounds),
		c.pos.Question+1, len(c.plan.Rounds[c.pos.Round]))
}

// Run executes the full session: plan load, camera gate, question loop,
// completion, persistence. It returns when the session completes, ends, or
// the context is cancelled.
func (c *Controller) Run(ctx context.Context) Result {
	result := Result{StartedAt: time.Now()}

	if err := c.transition(fsm.EventSelectTarget); err != nil {
		return c.fail(result, err)
	}
	c.display.Notice("preparing interview for " + c.target)

	if c.cfg.Attention.Enable {
		if err := c.deps.Camera.Acquire(ctx); err != nil {
			c.display.Error("camera unavailable: " + err.Error())
			_ = c.transition(fsm.EventPlanFailed)
			c.teardown()
			return c.fail(result, fmt.Errorf("%w: %v", ErrCameraGate, err))
		}
		c.deps.Sampler.Start(ctx)
	}

	if !c.loadPlan(ctx) {
		_ = c.transition(fsm.EventPlanFailed)
		c.teardown()
		return c.fail(result, errors.New("plan load superseded"))
	}
	if err := c.transition(fsm.EventPlanReady); err != nil {
		c.teardown()
		return c.fail(result, err)
	}

	c.askCurrent(ctx)

	for {
		select {
		case <-ctx.Done():
			c.teardown()
			result.State = c.Lifecycle()
			result.Err = ctx.Err()
			result.FinishedAt = time.Now()
			return result
		case gen := <-c.narrationDone:
			c.onNarrated(ctx, gen)
		case a := <-c.actions:
			switch a {
			case actionStop:
				if c.onStop(ctx) {
					return c.finish(ctx, result)
				}
			case actionEnd:
				c.onEnd(ctx)
				return c.finish(ctx, result)
			case actionAnalyze:
				c.onAnalyze(ctx)
			}
		}
	}
}

// Handle serves IPC commands for the active owner session.
func (c *Controller) Handle(_ context.Context, req ipc.Request) ipc.Response {
	switch req.Command {
	case ipc.CommandStatus:
		return c.status(true, "status")
	case ipc.CommandNext, ipc.CommandStop:
		return c.requestStop()
	case ipc.CommandEnd:
		return c.request(actionEnd, "end requested")
	case ipc.CommandAnalyze:
		return c.request(actionAnalyze, "analysis requested")
	default:
		resp := c.status(false, "")
		resp.Error = fmt.Sprintf("unknown command: %s", req.Command)
		return resp
	}
}

// HandleTranscript receives live transcript overwrites from the feed.
func (c *Controller) HandleTranscript(text string) {
	c.display.Transcript(text)
	c.agg.Set(feedback.CategorySpeech, feedback.AnalyzeSpeechPace(text, c.clock.Elapsed()))
}

// HandleFeedError surfaces a recognition engine failure to the candidate.
func (c *Controller) HandleFeedError(err error) {
	c.display.Error("speech recognition failed: " + err.Error())
}

// Reset clears per-session state while preserving the target, returning the
// lifecycle to plan loading. In-flight plan fetches from before the reset
// are invalidated.
func (c *Controller) Reset() error {
	if err := c.transition(fsm.EventReset); err != nil {
		return err
	}

	c.mu.Lock()
	c.plan = plan.Plan{}
	c.pos = plan.Position{}
	c.answers = nil
	c.phase = fsm.PhaseIdle
	c.planGen++
	c.qGen++
	c.mu.Unlock()

	c.clock.Clear()
	c.agg.Reset()
	return nil
}

func (c *Controller) status(ok bool, message string) ipc.Response {
	return ipc.Response{
		OK:       ok,
		State:    string(c.Lifecycle()),
		Phase:    string(c.Phase()),
		Position: c.Position(),
		Message:  message,
	}
}

func (c *Controller) requestStop() ipc.Response {
	if c.Lifecycle() != fsm.LifecycleInProgress {
		resp := c.status(false, "")
		resp.Error = fmt.Sprintf("no question in progress (state %s)", c.Lifecycle())
		return resp
	}
	if c.Phase() != fsm.PhaseListening {
		resp := c.status(false, "")
		resp.Error = "question is still being narrated"
		return resp
	}

	select {
	case c.actions <- actionStop:
		return c.status(true, "stop requested")
	default:
		return c.status(true, "stop already requested")
	}
}

func (c *Controller) request(a action, message string) ipc.Response {
	if c.Lifecycle() != fsm.LifecycleInProgress {
		resp := c.status(false, "")
		resp.Error = fmt.Sprintf("no active session (state %s)", c.Lifecycle())
		return resp
	}

	select {
	case c.actions <- a:
		return c.status(true, message)
	default:
		return c.status(true, message)
	}
}

func (c *Controller) transition(event fsm.LifecycleEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, err := fsm.TransitionLifecycle(c.lifecycle, event)
	if err != nil {
		return err
	}
	c.lifecycle = next
	return nil
}

func (c *Controller) transitionPhase(event fsm.PhaseEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, err := fsm.TransitionPhase(c.phase, event)
	if err != nil {
		return err
	}
	c.phase = next
	return nil
}

// loadPlan fetches the plan, falling back to the canned single question on
// any fetch or decode failure. It reports false when the response arrived
// after a reset invalidated the fetch generation.
func (c *Controller) loadPlan(ctx context.Context) bool {
	c.mu.Lock()
	c.planGen++
	gen := c.planGen
	c.mu.Unlock()

	fetched, err := c.deps.Plans.LoadPlan(ctx, c.target, c.cfg.Backend.Rounds)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.planGen {
		c.log("stale plan response discarded")
		return false
	}

	if err != nil {
		c.log("question fetch failed; using fallback plan", "error", err.Error())
		c.display.Notice("could not fetch questions; starting with a warm-up question")
		fetched = plan.Fallback(c.target)
	}
	if fetched.Empty() {
		c.log("plan contained no questions; using fallback plan")
		fetched = plan.Fallback(c.target)
	}

	c.plan = fetched
	// The first round may hold no questions; start at the first real one.
	c.pos, _ = fetched.First()
	c.answers = nil
	return true
}

// askCurrent presents the current question and starts narration. Listening
// begins only after narration signals completion.
func (c *Controller) askCurrent(ctx context.Context) {
	c.mu.Lock()
	if !c.plan.Valid(c.pos) {
		c.mu.Unlock()
		return
	}
	q := c.plan.At(c.pos)
	pos := c.pos
	roundCount := len(c.plan.Rounds)
	questionCount := len(c.plan.Rounds[pos.Round])
	c.qGen++
	gen := c.qGen
	c.mu.Unlock()

	c.clock.Clear()
	if err := c.transitionPhase(fsm.EventNarrate); err != nil {
		c.log("enter narrating phase", "error", err.Error())
		return
	}

	c.display.Question(q.RoundType, pos.Round+1, roundCount, pos.Question+1, questionCount, q.Text)
	if q.RequiresCodeEditor {
		c.display.Notice("this question expects code; write your solution in " + c.scratchPath() +
			" and run `greenroom analyze` for feedback")
	}

	c.deps.Speaker.Speak(ctx, q.Text, func() {
		select {
		case c.narrationDone <- gen:
		default:
		}
	})
}

// onNarrated moves the current question into the listening phase and starts
// transcription and the timer. Completions from superseded narrations are
// dropped.
func (c *Controller) onNarrated(ctx context.Context, gen uint64) {
	c.mu.RLock()
	current := gen == c.qGen && c.phase == fsm.PhaseNarrating
	c.mu.RUnlock()
	if !current {
		return
	}

	if err := c.transitionPhase(fsm.EventNarrated); err != nil {
		c.log("enter listening phase", "error", err.Error())
		return
	}

	if err := c.deps.Listener.Start(ctx); err != nil {
		if errors.Is(err, transcribe.ErrUnsupported) {
			c.display.Notice("speech recognition unavailable; your answer will not be transcribed")
		} else {
			c.display.Error("could not start transcription: " + err.Error())
		}
		c.log("transcription start failed", "error", err.Error())
	}

	c.clock.Start()
	c.display.Listening("microphone")
}

// onStop ends recording for the current question, appends the answer, and
// advances. It reports true when the session is complete.
func (c *Controller) onStop(ctx context.Context) bool {
	if c.Phase() != fsm.PhaseListening {
		return false
	}

	c.clock.Stop()
	elapsed := c.clock.Elapsed()

	outcome, err := c.deps.Listener.Stop(ctx)
	if err != nil {
		c.display.Error("speech recognition failed: " + err.Error())
		c.log("transcription stop failed", "error", err.Error())
	}

	answer := outcome.Transcript
	if strings.TrimSpace(answer) != "" {
		c.agg.Set(feedback.CategorySpeech, feedback.AnalyzeSpeechPace(answer, elapsed))
	}

	c.mu.Lock()
	q := c.plan.At(c.pos)
	c.answers = append(c.answers, feedback.QuestionAnswer{Question: q.Text, Answer: answer})
	c.mu.Unlock()

	if err := c.transitionPhase(fsm.EventStopped); err != nil {
		c.log("leave listening phase", "error", err.Error())
	}

	c.mu.Lock()
	next, ok := c.plan.Next(c.pos)
	if ok {
		c.pos = next
	}
	c.mu.Unlock()

	if !ok {
		return true
	}
	c.askCurrent(ctx)
	return false
}

// onEnd ends the session immediately, recording the in-flight answer when
// one is being captured.
func (c *Controller) onEnd(ctx context.Context) {
	c.deps.Speaker.Interrupt()

	if c.Phase() != fsm.PhaseListening {
		c.mu.Lock()
		c.phase = fsm.PhaseIdle
		c.mu.Unlock()
		return
	}

	c.clock.Stop()
	outcome, err := c.deps.Listener.Stop(ctx)
	if err != nil {
		c.log("transcription stop failed during end", "error", err.Error())
	}

	c.mu.Lock()
	if c.plan.Valid(c.pos) {
		q := c.plan.At(c.pos)
		c.answers = append(c.answers, feedback.QuestionAnswer{Question: q.Text, Answer: outcome.Transcript})
	}
	c.mu.Unlock()

	if err := c.transitionPhase(fsm.EventStopped); err != nil {
		c.log("leave listening phase", "error", err.Error())
	}
}

// onAnalyze refreshes the technical feedback category from the scratch file.
func (c *Controller) onAnalyze(ctx context.Context) {
	code := c.readScratch()
	if strings.TrimSpace(code) == "" {
		c.display.Notice("nothing to analyze yet; write your solution in " + c.scratchPath())
		return
	}

	c.mu.RLock()
	question := ""
	if c.plan.Valid(c.pos) {
		question = c.plan.At(c.pos).Text
	}
	c.mu.RUnlock()

	message, err := c.deps.Analyzer.Analyze(ctx, question, code)
	if err != nil {
		c.display.Error("code analysis failed: " + err.Error())
		c.log("code analysis failed", "error", err.Error())
		message = feedback.AnalyzeCode(code)
	}
	c.agg.Set(feedback.CategoryTechnical, message)
}

// finish completes the session: teardown, report assembly, display, and a
// single best-effort persistence attempt.
func (c *Controller) finish(ctx context.Context, result Result) Result {
	_ = c.transition(fsm.EventFinish)
	c.teardown()

	c.mu.RLock()
	answers := make([]feedback.QuestionAnswer, len(c.answers))
	copy(answers, c.answers)
	c.mu.RUnlock()

	result.FinishedAt = time.Now()
	report := feedback.BuildReport(c.target, answers, c.readScratch(), c.agg.Snapshot(),
		result.StartedAt, result.FinishedAt)

	c.display.Summary(report)

	if err := c.deps.Feedback.SaveFeedback(ctx, c.target, report); err != nil {
		c.log("feedback persistence failed", "error", err.Error())
		c.display.Notice("could not save feedback to the backend; report kept locally")
	} else {
		result.Persisted = true
	}

	if err := c.deps.Archive.Save(ctx, report); err != nil {
		c.log("history archive failed", "error", err.Error())
	} else {
		result.Archived = true
	}

	result.State = c.Lifecycle()
	result.Report = report
	result.Answers = len(answers)
	return result
}

// teardown releases every held resource. Safe to call on any session-ending
// path, repeatedly.
func (c *Controller) teardown() {
	c.deps.Speaker.Interrupt()
	c.deps.Sampler.Stop()
	c.deps.Camera.Release()
	c.clock.Stop()
	if c.deps.Listener.Running() {
		c.deps.Listener.Cancel()
	}

	c.mu.Lock()
	c.planGen++
	c.qGen++
	c.mu.Unlock()
}

func (c *Controller) fail(result Result, err error) Result {
	result.State = c.Lifecycle()
	result.Err = err
	result.FinishedAt = time.Now()
	return result
}

func (c *Controller) scratchPath() string {
	if path := strings.TrimSpace(c.cfg.Code.ScratchFile); path != "" {
		return path
	}
	dir, err := logging.StateDir()
	if err != nil {
		return "greenroom-scratch.txt"
	}
	return filepath.Join(dir, "scratch.txt")
}

func (c *Controller) readScratch() string {
	data, err := os.ReadFile(c.scratchPath())
	if err != nil {
		return ""
	}
	return string(data)
}

func (c *Controller) log(message string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(message, args...)
	}
}
