// Package transcribe turns microphone audio into a live answer transcript.
package transcribe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/kmercer/greenroom/internal/capture"
	"github.com/kmercer/greenroom/internal/config"
)

// ErrUnsupported indicates no speech recognizer is available in this
// environment; the feed must not be started at all.
var ErrUnsupported = errors.New("speech recognition is not available; check Google credentials")

// Result is one recognizer emission.
type Result struct {
	Text  string
	Final bool
}

// Recognizer opens streaming recognition sessions.
type Recognizer interface {
	Open(ctx context.Context) (Stream, error)
}

// Stream is one active recognition session.
type Stream interface {
	Send(chunk []byte) error
	Recv() (Result, error)
	CloseSend() error
	Cancel()
}

// micStream is the capture-facing subset the feed consumes.
type micStream interface {
	Chunks() <-chan []byte
	Stop() error
	BytesCaptured() int64
	Device() capture.Device
}

// StopOutcome is what Stop reports back to the session controller.
type StopOutcome struct {
	// Started is false when Stop was called on a feed that never started;
	// the caller must treat that as a no-op and record nothing.
	Started       bool
	Transcript    string
	AudioDevice   string
	BytesCaptured int64
}

// Feed owns one continuous capture -> recognition -> transcript pipeline.
// Results overwrite the current transcript: the most recent recognized
// segment is authoritative for the question being answered.
type Feed struct {
	cfg    config.Config
	logger *slog.Logger

	recognizer Recognizer
	openMic    func(ctx context.Context) (micStream, error)

	// OnResult receives every transcript overwrite. OnError receives
	// engine-level failures; both may be nil and both fire off the caller's
	// goroutine.
	OnResult func(text string)
	OnError  func(err error)

	mu        sync.Mutex
	started   bool
	mic       micStream
	stream    Stream
	latest    string
	sendErrCh chan error
	recvDone  chan struct{}
}

// NewFeed builds a feed over the given recognizer.
func NewFeed(cfg config.Config, recognizer Recognizer, logger *slog.Logger) *Feed {
	f := &Feed{cfg: cfg, recognizer: recognizer, logger: logger}
	f.openMic = func(ctx context.Context) (micStream, error) {
		selection, err := capture.SelectDevice(ctx, cfg.Audio.Input, cfg.Audio.Fallback)
		if err != nil {
			return nil, err
		}
		if selection.Warning != "" && logger != nil {
			logger.Warn(selection.Warning)
		}
		return capture.StartMic(ctx, selection.Device)
	}
	return f
}

// Running reports whether the feed is currently transcribing.
func (f *Feed) Running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.started
}

// Latest returns the current transcript snapshot.
func (f *Feed) Latest() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.latest
}

// Start begins continuous transcription. A feed that is already running is
// left untouched: double-start is rejected with a warning, not queued.
func (f *Feed) Start(ctx context.Context) error {
	f.mu.Lock()
	if f.started {
		f.mu.Unlock()
		if f.logger != nil {
			f.logger.Warn("transcription feed already running; start ignored")
		}
		return nil
	}
	f.mu.Unlock()

	if f.recognizer == nil {
		return ErrUnsupported
	}

	stream, err := f.recognizer.Open(ctx)
	if err != nil {
		return fmt.Errorf("open recognition stream: %w", err)
	}

	mic, err := f.openMic(ctx)
	if err != nil {
		stream.Cancel()
		return fmt.Errorf("open microphone: %w", err)
	}

	f.mu.Lock()
	f.started = true
	f.mic = mic
	f.stream = stream
	f.latest = ""
	f.sendErrCh = make(chan error, 1)
	f.recvDone = make(chan struct{})
	f.mu.Unlock()

	go f.sendLoop(mic, stream, f.sendErrCh)
	go f.recvLoop(stream, f.recvDone)

	return nil
}

// Stop halts capture and recognition and returns the final transcript.
// Stopping a feed that never started is a no-op.
func (f *Feed) Stop(ctx context.Context) (StopOutcome, error) {
	f.mu.Lock()
	if !f.started {
		f.mu.Unlock()
		return StopOutcome{}, nil
	}
	f.started = false
	mic := f.mic
	stream := f.stream
	sendErrCh := f.sendErrCh
	recvDone := f.recvDone
	f.mic = nil
	f.stream = nil
	f.mu.Unlock()

	_ = mic.Stop()

	outcome := StopOutcome{
		Started:       true,
		AudioDevice:   capture.DescribeDevice(mic.Device()),
		BytesCaptured: mic.BytesCaptured(),
	}

	sendErr := <-sendErrCh
	if sendErr != nil {
		stream.Cancel()
		<-recvDone
		outcome.Transcript = f.Latest()
		return outcome, fmt.Errorf("send audio stream: %w", sendErr)
	}

	if err := stream.CloseSend(); err != nil {
		stream.Cancel()
		<-recvDone
		outcome.Transcript = f.Latest()
		return outcome, fmt.Errorf("close recognition stream: %w", err)
	}

	select {
	case <-recvDone:
	case <-time.After(15 * time.Second):
		stream.Cancel()
		<-recvDone
		outcome.Transcript = f.Latest()
		return outcome, errors.New("timed out collecting final transcript")
	case <-ctx.Done():
		stream.Cancel()
		<-recvDone
		outcome.Transcript = f.Latest()
		return outcome, ctx.Err()
	}

	outcome.Transcript = f.Latest()
	return outcome, nil
}

// Cancel tears the feed down without returning a transcript.
func (f *Feed) Cancel() {
	f.mu.Lock()
	if !f.started {
		f.mu.Unlock()
		return
	}
	f.started = false
	mic := f.mic
	stream := f.stream
	f.mic = nil
	f.stream = nil
	f.mu.Unlock()

	_ = mic.Stop()
	stream.Cancel()
}

// sendLoop forwards capture chunks to the recognizer and reports the first
// send failure. The error channel is buffered so the loop never blocks on a
// caller that tore the feed down through Cancel.
func (f *Feed) sendLoop(mic micStream, stream Stream, errCh chan<- error) {
	var sendErr error
	for chunk := range mic.Chunks() {
		if len(chunk) == 0 {
			continue
		}
		if err := stream.Send(chunk); err != nil {
			_ = mic.Stop()
			sendErr = err
			break
		}
	}
	errCh <- sendErr
}

// recvLoop applies recognizer results until the stream ends.
func (f *Feed) recvLoop(stream Stream, recvDone chan struct{}) {
	defer close(recvDone)

	for {
		result, err := stream.Recv()
		if err != nil {
			if !isStreamEnd(err) {
				if f.logger != nil {
					f.logger.Error("recognition stream failed", "error", err.Error())
				}
				if f.OnError != nil {
					f.OnError(err)
				}
			}
			return
		}
		if result.Text == "" {
			continue
		}

		f.mu.Lock()
		f.latest = result.Text
		f.mu.Unlock()

		if f.OnResult != nil {
			f.OnResult(result.Text)
		}
	}
}
