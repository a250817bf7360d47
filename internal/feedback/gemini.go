package feedback

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// CodeAnalyzer produces a technical-category message for scratch code.
type CodeAnalyzer interface {
	Analyze(ctx context.Context, question string, code string) (string, error)
}

// HeuristicAnalyzer is the default dependency-free technical analyzer.
type HeuristicAnalyzer struct{}

func (HeuristicAnalyzer) Analyze(_ context.Context, _ string, code string) (string, error) {
	return AnalyzeCode(code), nil
}

const geminiSystemPrompt = "You are an interview coach reviewing a candidate's " +
	"scratch code during a mock interview. Reply with one short sentence of " +
	"actionable feedback. Do not include code."

// GeminiAnalyzer asks Gemini for one-sentence technical feedback. Used only
// when an API key is configured; callers fall back to HeuristicAnalyzer on error.
type GeminiAnalyzer struct {
	client *genai.Client
	model  string
}

// NewGeminiAnalyzer builds a Gemini-backed analyzer.
func NewGeminiAnalyzer(ctx context.Context, apiKey string, model string) (*GeminiAnalyzer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	if model == "" {
		model = "gemini-2.5-flash-lite"
	}
	return &GeminiAnalyzer{client: client, model: model}, nil
}

func (g *GeminiAnalyzer) Analyze(ctx context.Context, question string, code string) (string, error) {
	prompt := fmt.Sprintf("Question:\n%s\n\nCandidate code:\n%s", question, code)

	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: geminiSystemPrompt}},
		},
	}
	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("generate technical feedback: %w", err)
	}

	message := strings.TrimSpace(result.Text())
	if message == "" {
		return "", fmt.Errorf("empty technical feedback from model")
	}
	return message, nil
}
