package narrate

import (
	"context"
	"fmt"

	"github.com/jfreymuth/pulse"
)

// PulsePlayer plays PCM through the PulseAudio default sink. Each playback
// opens a fresh client so a narration never holds the server between
// questions.
type PulsePlayer struct{}

// Play blocks until the samples drain or the context ends.
func (PulsePlayer) Play(ctx context.Context, pcm []byte) error {
	samples := decodeInt16LE(pcm)
	if len(samples) == 0 {
		return nil
	}

	client, err := pulse.NewClient(
		pulse.ClientApplicationName("greenroom"),
		pulse.ClientApplicationIconName("audio-headphones"),
	)
	if err != nil {
		return fmt.Errorf("connect pulse server: %w", err)
	}
	defer client.Close()

	cursor := 0
	reader := pulse.Int16Reader(func(buf []int16) (int, error) {
		if ctx.Err() != nil {
			return 0, pulse.EndOfData
		}
		if cursor >= len(samples) {
			return 0, pulse.EndOfData
		}

		n := copy(buf, samples[cursor:])
		cursor += n
		if cursor >= len(samples) {
			return n, pulse.EndOfData
		}
		return n, nil
	})

	stream, err := client.NewPlayback(
		reader,
		pulse.PlaybackMono,
		pulse.PlaybackSampleRate(synthSampleRate),
		pulse.PlaybackLatency(0.1),
		pulse.PlaybackMediaName("greenroom narration"),
	)
	if err != nil {
		return fmt.Errorf("create pulse playback stream: %w", err)
	}
	defer stream.Close()

	stream.Start()
	stream.Drain()
	if err := stream.Error(); err != nil {
		return fmt.Errorf("play narration stream: %w", err)
	}

	return nil
}

func decodeInt16LE(pcm []byte) []int16 {
	samples := make([]int16, len(pcm)/2)
	for i := range samples {
		samples[i] = int16(pcm[2*i]) | int16(pcm[2*i+1])<<8
	}
	return samples
}
