package console

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kmercer/greenroom/internal/feedback"
)

func TestTerminalQuestion(t *testing.T) {
	var buf bytes.Buffer
	d := NewTerminal(&buf)

	d.Question("behavioral", 1, 2, 2, 3, "Why Google?")

	out := buf.String()
	assert.Contains(t, out, "[behavioral round 1/2 · question 2/3]")
	assert.Contains(t, out, "Why Google?")
}

func TestTerminalTimerLineBrokenBeforeOutput(t *testing.T) {
	var buf bytes.Buffer
	d := NewTerminal(&buf)

	d.Timer(65)
	d.Transcript("my answer so far")

	out := buf.String()
	assert.Contains(t, out, "\r  01:05 elapsed")
	assert.Contains(t, out, "\n  you: my answer so far\n")
}

func TestTerminalSummary(t *testing.T) {
	var buf bytes.Buffer
	d := NewTerminal(&buf)

	start := time.Now()
	report := feedback.BuildReport(
		"Google",
		[]feedback.QuestionAnswer{
			{Question: "Tell me about yourself.", Answer: "I build services."},
			{Question: "Why Google?", Answer: ""},
		},
		"",
		[]feedback.Item{{Category: feedback.CategorySpeech, Message: feedback.PaceGoodMessage}},
		start,
		start.Add(9*time.Minute),
	)
	d.Summary(report)

	out := buf.String()
	assert.Contains(t, out, "Session complete: Google (9m0s)")
	assert.Contains(t, out, feedback.PaceGoodMessage)
	assert.Contains(t, out, "Q1: Tell me about yourself.")
	assert.Contains(t, out, "(no answer recorded)")
}

func TestNoopImplementsDisplay(t *testing.T) {
	var d Display = Noop{}
	d.Question("technical", 1, 1, 1, 1, "q")
	d.Timer(1)
	d.Summary(feedback.Report{})
}
