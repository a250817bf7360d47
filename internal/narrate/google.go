package narrate

import (
	"context"
	"fmt"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"

	"github.com/kmercer/greenroom/internal/config"
)

const synthSampleRate = 16000

// GoogleSynthesizer renders narration through the Google Cloud
// Text-to-Speech API.
type GoogleSynthesizer struct {
	client *texttospeech.Client
	voice  string
}

// NewGoogleSynthesizer dials the Text-to-Speech API with ambient Google
// credentials.
func NewGoogleSynthesizer(ctx context.Context, cfg config.NarrateConfig) (*GoogleSynthesizer, error) {
	client, err := texttospeech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("dial text-to-speech API: %w", err)
	}
	return &GoogleSynthesizer{client: client, voice: cfg.Voice}, nil
}

// Close releases the underlying API client.
func (g *GoogleSynthesizer) Close() error {
	return g.client.Close()
}

// Synthesize returns 16 kHz mono LINEAR16 PCM for the given text.
func (g *GoogleSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	resp, err := g.client.SynthesizeSpeech(ctx, &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: languageOf(g.voice),
			Name:         g.voice,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding:   texttospeechpb.AudioEncoding_LINEAR16,
			SampleRateHertz: synthSampleRate,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("synthesize speech: %w", err)
	}
	return stripWAVHeader(resp.AudioContent), nil
}

// languageOf derives the language code from a full voice name such as
// "en-US-Neural2-D".
func languageOf(voice string) string {
	if len(voice) >= 5 && voice[2] == '-' {
		return voice[:5]
	}
	return "en-US"
}

// stripWAVHeader drops the RIFF container the LINEAR16 encoding wraps the
// samples in, leaving bare PCM for the playback stream.
func stripWAVHeader(audio []byte) []byte {
	const headerSize = 44
	if len(audio) > headerSize && string(audio[:4]) == "RIFF" {
		return audio[headerSize:]
	}
	return audio
}
