package transcribe

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kmercer/greenroom/internal/capture"
	"github.com/kmercer/greenroom/internal/config"
)

type fakeMic struct {
	mu      sync.Mutex
	chunks  chan []byte
	stopped bool
	bytes   int64
}

func newFakeMic() *fakeMic {
	return &fakeMic{chunks: make(chan []byte, 16)}
}

func (m *fakeMic) Chunks() <-chan []byte { return m.chunks }

func (m *fakeMic) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.stopped {
		m.stopped = true
		close(m.chunks)
	}
	return nil
}

func (m *fakeMic) BytesCaptured() int64 { return m.bytes }

func (m *fakeMic) Device() capture.Device {
	return capture.Device{ID: "fake-mic", Description: "Fake Microphone"}
}

type fakeStream struct {
	mu        sync.Mutex
	sent      [][]byte
	results   chan Result
	sendErr   error
	closed    bool
	cancelled bool
}

func newFakeStream() *fakeStream {
	return &fakeStream{results: make(chan Result, 16)}
}

func (s *fakeStream) Send(chunk []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sendErr != nil {
		return s.sendErr
	}
	s.sent = append(s.sent, chunk)
	return nil
}

func (s *fakeStream) Recv() (Result, error) {
	result, ok := <-s.results
	if !ok {
		return Result{}, io.EOF
	}
	return result, nil
}

func (s *fakeStream) CloseSend() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.results)
	}
	return nil
}

func (s *fakeStream) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelled = true
	if !s.closed {
		s.closed = true
		close(s.results)
	}
}

func (s *fakeStream) emit(text string, final bool) {
	s.results <- Result{Text: text, Final: final}
}

type fakeRecognizer struct {
	stream  *fakeStream
	openErr error
	opens   int
}

func (r *fakeRecognizer) Open(_ context.Context) (Stream, error) {
	r.opens++
	if r.openErr != nil {
		return nil, r.openErr
	}
	return r.stream, nil
}

func newTestFeed(t *testing.T, rec Recognizer, mic *fakeMic) *Feed {
	t.Helper()
	feed := NewFeed(config.Default(), rec, nil)
	feed.openMic = func(_ context.Context) (micStream, error) {
		return mic, nil
	}
	return feed
}

func TestFeedOverwritesTranscript(t *testing.T) {
	stream := newFakeStream()
	mic := newFakeMic()
	feed := newTestFeed(t, &fakeRecognizer{stream: stream}, mic)

	var mu sync.Mutex
	var seen []string
	feed.OnResult = func(text string) {
		mu.Lock()
		seen = append(seen, text)
		mu.Unlock()
	}

	require.NoError(t, feed.Start(context.Background()))
	assert.True(t, feed.Running())

	stream.emit("tell me", false)
	stream.emit("tell me about", false)
	stream.emit("tell me about yourself", true)

	assert.Eventually(t, func() bool {
		return feed.Latest() == "tell me about yourself"
	}, time.Second, 5*time.Millisecond)

	outcome, err := feed.Stop(context.Background())
	require.NoError(t, err)
	assert.True(t, outcome.Started)
	assert.Equal(t, "tell me about yourself", outcome.Transcript)
	assert.False(t, feed.Running())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"tell me", "tell me about", "tell me about yourself"}, seen)
}

func TestFeedForwardsCaptureChunks(t *testing.T) {
	stream := newFakeStream()
	mic := newFakeMic()
	feed := newTestFeed(t, &fakeRecognizer{stream: stream}, mic)

	require.NoError(t, feed.Start(context.Background()))
	mic.chunks <- []byte{1, 2, 3}
	mic.chunks <- []byte{4, 5}

	assert.Eventually(t, func() bool {
		stream.mu.Lock()
		defer stream.mu.Unlock()
		return len(stream.sent) == 2
	}, time.Second, 5*time.Millisecond)

	_, err := feed.Stop(context.Background())
	require.NoError(t, err)
}

func TestFeedDoubleStartIgnored(t *testing.T) {
	stream := newFakeStream()
	rec := &fakeRecognizer{stream: stream}
	mic := newFakeMic()
	feed := newTestFeed(t, rec, mic)

	require.NoError(t, feed.Start(context.Background()))
	require.NoError(t, feed.Start(context.Background()))
	assert.Equal(t, 1, rec.opens)

	_, err := feed.Stop(context.Background())
	require.NoError(t, err)
}

func TestFeedStopWithoutStartIsNoop(t *testing.T) {
	feed := newTestFeed(t, &fakeRecognizer{stream: newFakeStream()}, newFakeMic())

	outcome, err := feed.Stop(context.Background())
	require.NoError(t, err)
	assert.False(t, outcome.Started)
	assert.Empty(t, outcome.Transcript)
}

func TestFeedStartWithoutRecognizer(t *testing.T) {
	feed := NewFeed(config.Default(), nil, nil)

	err := feed.Start(context.Background())
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestFeedStartOpenFailure(t *testing.T) {
	rec := &fakeRecognizer{openErr: errors.New("no credentials")}
	feed := newTestFeed(t, rec, newFakeMic())

	err := feed.Start(context.Background())
	require.Error(t, err)
	assert.False(t, feed.Running())
}

func TestFeedSendFailureSurfacesOnStop(t *testing.T) {
	stream := newFakeStream()
	stream.sendErr = errors.New("stream broken")
	mic := newFakeMic()
	feed := newTestFeed(t, &fakeRecognizer{stream: stream}, mic)

	require.NoError(t, feed.Start(context.Background()))
	mic.chunks <- []byte{1, 2, 3}

	assert.Eventually(t, func() bool {
		mic.mu.Lock()
		defer mic.mu.Unlock()
		return mic.stopped
	}, time.Second, 5*time.Millisecond)

	outcome, err := feed.Stop(context.Background())
	require.Error(t, err)
	assert.True(t, outcome.Started)
}

func TestFeedCancelTearsDown(t *testing.T) {
	stream := newFakeStream()
	mic := newFakeMic()
	feed := newTestFeed(t, &fakeRecognizer{stream: stream}, mic)

	require.NoError(t, feed.Start(context.Background()))
	feed.Cancel()

	assert.False(t, feed.Running())
	assert.Eventually(t, func() bool {
		stream.mu.Lock()
		defer stream.mu.Unlock()
		return stream.cancelled
	}, time.Second, 5*time.Millisecond)
}
