package capture

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"
)

const (
	// SampleRate is the PCM rate shared by capture, recognition, and playback.
	SampleRate = 16000

	chunkSizeBytes = 640 // 20ms @ 16kHz mono s16
)

// Mic streams fixed-size PCM chunks from one selected Pulse source.
type Mic struct {
	device Device

	client *pulse.Client
	stream *pulse.RecordStream

	chunks chan []byte
	stopCh chan struct{}

	mu      sync.Mutex
	pending []byte
	stopped bool

	inflight sync.WaitGroup
	bytes    atomic.Int64
}

// StartMic creates and starts a 16kHz mono s16 record stream.
func StartMic(ctx context.Context, selected Device) (*Mic, error) {
	client, err := pulse.NewClient(
		pulse.ClientApplicationName("greenroom"),
		pulse.ClientApplicationIconName("audio-input-microphone"),
	)
	if err != nil {
		return nil, fmt.Errorf("connect pulse server: %w", err)
	}

	source, err := client.SourceByID(selected.ID)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("resolve source %q: %w", selected.ID, err)
	}

	mic := &Mic{
		device: selected,
		client: client,
		chunks: make(chan []byte, 128),
		stopCh: make(chan struct{}),
	}

	writer := pulse.NewWriter(writerFunc(mic.onPCM), pulseproto.FormatInt16LE)
	stream, err := client.NewRecord(
		writer,
		pulse.RecordSource(source),
		pulse.RecordMono,
		pulse.RecordSampleRate(SampleRate),
		pulse.RecordBufferFragmentSize(chunkSizeBytes),
		pulse.RecordMediaName("greenroom answer capture"),
	)
	if err != nil {
		_ = mic.Stop()
		return nil, fmt.Errorf("create pulse record stream: %w", err)
	}

	mic.stream = stream
	stream.Start()

	go func() {
		<-ctx.Done()
		_ = mic.Stop()
	}()

	return mic, nil
}

// Device returns capture metadata for logging and diagnostics.
func (m *Mic) Device() Device {
	return m.device
}

// Chunks returns the PCM stream as fixed-size byte slices.
func (m *Mic) Chunks() <-chan []byte {
	return m.chunks
}

// BytesCaptured reports total bytes accepted from Pulse.
func (m *Mic) BytesCaptured() int64 {
	return m.bytes.Load()
}

// Stop halts the stream, flushes residual PCM, and closes Chunks exactly once.
func (m *Mic) Stop() error {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return nil
	}
	m.stopped = true
	close(m.stopCh)
	m.mu.Unlock()

	if m.stream != nil {
		m.stream.Stop()
		m.stream.Close()
	}
	if m.client != nil {
		m.client.Close()
	}

	m.inflight.Wait()

	m.mu.Lock()
	pending := append([]byte(nil), m.pending...)
	m.pending = nil
	m.mu.Unlock()

	if len(pending) > 0 {
		chunk := make([]byte, len(pending))
		copy(chunk, pending)
		select {
		case m.chunks <- chunk:
		default:
		}
	}

	close(m.chunks)
	return nil
}

// onPCM receives raw Pulse frames and emits chunkSizeBytes slices to m.chunks.
func (m *Mic) onPCM(buffer []byte) (int, error) {
	if len(buffer) == 0 {
		return 0, nil
	}

	select {
	case <-m.stopCh:
		return 0, io.EOF
	default:
	}

	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return 0, io.EOF
	}
	// Guard Add under the same mutex as m.stopped to avoid Add/Wait races.
	m.inflight.Add(1)

	m.pending = append(m.pending, buffer...)

	chunks := make([][]byte, 0, len(m.pending)/chunkSizeBytes)
	for len(m.pending) >= chunkSizeBytes {
		chunk := make([]byte, chunkSizeBytes)
		copy(chunk, m.pending[:chunkSizeBytes])
		m.pending = m.pending[chunkSizeBytes:]
		chunks = append(chunks, chunk)
	}
	m.mu.Unlock()
	defer m.inflight.Done()

	m.bytes.Add(int64(len(buffer)))

	for _, chunk := range chunks {
		select {
		case <-m.stopCh:
			return 0, io.EOF
		case m.chunks <- chunk:
		}
	}

	return len(buffer), nil
}

// writerFunc adapts a function to io.Writer for pulse.NewWriter.
type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(b []byte) (int, error) {
	return f(b)
}
