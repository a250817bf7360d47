package transcribe

import (
	"context"
	"errors"
	"fmt"
	"io"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/kmercer/greenroom/internal/capture"
	"github.com/kmercer/greenroom/internal/config"
)

// GoogleRecognizer streams audio to the Google Cloud Speech-to-Text API.
type GoogleRecognizer struct {
	client *speech.Client
	asr    config.ASRConfig
}

// NewGoogleRecognizer dials the Speech API using ambient Google
// credentials. A missing credential environment maps to ErrUnsupported so
// callers can degrade instead of failing the whole session.
func NewGoogleRecognizer(ctx context.Context, asr config.ASRConfig) (*GoogleRecognizer, error) {
	client, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	return &GoogleRecognizer{client: client, asr: asr}, nil
}

// Close releases the underlying API client.
func (g *GoogleRecognizer) Close() error {
	return g.client.Close()
}

// Open starts one streaming recognition session and sends its
// configuration frame.
func (g *GoogleRecognizer) Open(ctx context.Context) (Stream, error) {
	ctx, cancel := context.WithCancel(ctx)

	stream, err := g.client.StreamingRecognize(ctx)
	if err != nil {
		cancel()
		return nil, classifyStreamError(err)
	}

	cfgReq := &speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_StreamingConfig{
			StreamingConfig: &speechpb.StreamingRecognitionConfig{
				Config: &speechpb.RecognitionConfig{
					Encoding:                   speechpb.RecognitionConfig_LINEAR16,
					SampleRateHertz:            capture.SampleRate,
					LanguageCode:               g.asr.LanguageCode,
					Model:                      g.asr.Model,
					EnableAutomaticPunctuation: g.asr.AutomaticPunctuation,
				},
				InterimResults: true,
			},
		},
	}
	if err := stream.Send(cfgReq); err != nil {
		cancel()
		return nil, classifyStreamError(err)
	}

	return &googleStream{stream: stream, cancel: cancel}, nil
}

type googleStream struct {
	stream speechpb.Speech_StreamingRecognizeClient
	cancel context.CancelFunc
}

func (s *googleStream) Send(chunk []byte) error {
	err := s.stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_AudioContent{
			AudioContent: chunk,
		},
	})
	if err != nil {
		return classifyStreamError(err)
	}
	return nil
}

func (s *googleStream) Recv() (Result, error) {
	for {
		resp, err := s.stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return Result{}, io.EOF
			}
			return Result{}, classifyStreamError(err)
		}
		for _, res := range resp.Results {
			if len(res.Alternatives) == 0 {
				continue
			}
			text := res.Alternatives[0].Transcript
			if text == "" {
				continue
			}
			return Result{Text: text, Final: res.IsFinal}, nil
		}
	}
}

func (s *googleStream) CloseSend() error {
	return s.stream.CloseSend()
}

func (s *googleStream) Cancel() {
	s.cancel()
}

// classifyStreamError maps gRPC failures onto operator-actionable messages.
func classifyStreamError(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return fmt.Errorf("speech API rejected credentials: %s", st.Message())
	case codes.Unavailable:
		return fmt.Errorf("speech API unreachable: %s", st.Message())
	case codes.ResourceExhausted:
		return fmt.Errorf("speech API quota exhausted: %s", st.Message())
	case codes.OutOfRange:
		// Streaming sessions expire after ~5 minutes of audio.
		return fmt.Errorf("speech stream exceeded maximum duration: %s", st.Message())
	default:
		return err
	}
}

// isStreamEnd reports whether the receive loop ended for a benign reason.
func isStreamEnd(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
		return true
	}
	if st, ok := status.FromError(err); ok && st.Code() == codes.Canceled {
		return true
	}
	return false
}
