// Package narrate speaks interview questions aloud before listening begins.
package narrate

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/kmercer/greenroom/internal/config"
)

// Synthesizer renders text to 16 kHz mono LINEAR16 PCM.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Player plays raw PCM to the default output device.
type Player interface {
	Play(ctx context.Context, pcm []byte) error
}

// Narrator reads questions aloud and signals when the candidate may begin
// answering. Narration failures never block a session: the done callback
// always fires so listening can start regardless.
type Narrator struct {
	cfg    config.NarrateConfig
	synth  Synthesizer
	player Player
	logger *slog.Logger

	// settle is overridable in tests.
	settle func(d time.Duration)

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

// New builds a narrator. A nil synthesizer or player means spoken narration
// is unavailable; questions are then presented in text only.
func New(cfg config.NarrateConfig, synth Synthesizer, player Player, logger *slog.Logger) *Narrator {
	return &Narrator{
		cfg:    cfg,
		synth:  synth,
		player: player,
		logger: logger,
		settle: time.Sleep,
	}
}

// Enabled reports whether spoken narration will actually happen.
func (n *Narrator) Enabled() bool {
	return n.cfg.Enable && n.synth != nil && n.player != nil
}

// Speak narrates text asynchronously and invokes done when the candidate
// should start answering. A later Speak supersedes an in-flight one: the
// superseded narration is cancelled and its done callback is dropped.
func (n *Narrator) Speak(ctx context.Context, text string, done func()) {
	n.mu.Lock()
	n.gen++
	gen := n.gen
	if n.cancel != nil {
		n.cancel()
	}
	ctx, n.cancel = context.WithCancel(ctx)
	n.mu.Unlock()

	if !n.Enabled() {
		if n.cfg.Enable && n.logger != nil {
			n.logger.Warn("narration unavailable; presenting question as text only")
		}
		if done != nil && n.current(gen) {
			done()
		}
		return
	}

	go func() {
		n.speak(ctx, text)
		if ctx.Err() != nil {
			return
		}
		if n.cfg.SettleMS > 0 {
			n.settle(time.Duration(n.cfg.SettleMS) * time.Millisecond)
		}
		if done != nil && n.current(gen) {
			done()
		}
	}()
}

// Interrupt stops any in-flight narration without firing its callback.
func (n *Narrator) Interrupt() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.gen++
	if n.cancel != nil {
		n.cancel()
		n.cancel = nil
	}
}

func (n *Narrator) current(gen uint64) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return gen == n.gen
}

func (n *Narrator) speak(ctx context.Context, text string) {
	pcm, err := n.synth.Synthesize(ctx, text)
	if err != nil {
		if ctx.Err() == nil && n.logger != nil {
			n.logger.Error("synthesize narration", "error", err.Error())
		}
		return
	}
	if err := n.player.Play(ctx, pcm); err != nil {
		if ctx.Err() == nil && n.logger != nil {
			n.logger.Error("play narration", "error", err.Error())
		}
	}
}
