// Package console renders session progress for the candidate's terminal.
package console

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/kmercer/greenroom/internal/feedback"
)

// Display is the session-facing output contract.
type Display interface {
	Question(roundType string, round, roundCount, question, questionCount int, text string)
	Transcript(text string)
	Feedback(item feedback.Item)
	Timer(seconds int)
	Listening(device string)
	Notice(text string)
	Error(text string)
	Summary(report feedback.Report)
}

// Terminal writes session progress as plain lines. The timer redraws in
// place; any other output first terminates the timer line.
type Terminal struct {
	mu          sync.Mutex
	out         io.Writer
	timerActive bool
}

// NewTerminal builds a display over the given writer.
func NewTerminal(out io.Writer) *Terminal {
	return &Terminal{out: out}
}

func (t *Terminal) Question(roundType string, round, roundCount, question, questionCount int, text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.breakTimerLine()
	fmt.Fprintf(t.out, "\n[%s round %d/%d · question %d/%d]\n%s\n",
		roundType, round, roundCount, question, questionCount, text)
}

func (t *Terminal) Transcript(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.breakTimerLine()
	fmt.Fprintf(t.out, "  you: %s\n", text)
}

func (t *Terminal) Feedback(item feedback.Item) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.breakTimerLine()
	fmt.Fprintf(t.out, "  [%s] %s\n", item.Category, item.Message)
}

func (t *Terminal) Timer(seconds int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, "\r  %02d:%02d elapsed", seconds/60, seconds%60)
	t.timerActive = true
}

func (t *Terminal) Listening(device string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.breakTimerLine()
	fmt.Fprintf(t.out, "  listening on %s: speak your answer, run `greenroom stop` when done\n", device)
}

func (t *Terminal) Notice(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.breakTimerLine()
	fmt.Fprintf(t.out, "  %s\n", text)
}

func (t *Terminal) Error(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.breakTimerLine()
	fmt.Fprintf(t.out, "  error: %s\n", text)
}

func (t *Terminal) Summary(report feedback.Report) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.breakTimerLine()

	var b strings.Builder
	fmt.Fprintf(&b, "\nSession complete: %s (%s)\n",
		report.Target, report.FinishedAt.Sub(report.StartedAt).Round(time.Second))
	for _, item := range report.Items {
		fmt.Fprintf(&b, "  [%s] %s\n", item.Category, item.Message)
	}
	for i, qa := range report.QuestionsAnswers {
		answer := qa.Answer
		if strings.TrimSpace(answer) == "" {
			answer = "(no answer recorded)"
		}
		fmt.Fprintf(&b, "  Q%d: %s\n      %s\n", i+1, qa.Question, answer)
	}
	io.WriteString(t.out, b.String())
}

// breakTimerLine finishes an in-place timer line before regular output.
// Callers must hold t.mu.
func (t *Terminal) breakTimerLine() {
	if t.timerActive {
		fmt.Fprintln(t.out)
		t.timerActive = false
	}
}

// Noop is used when no terminal is attached, such as forwarded IPC
// commands.
type Noop struct{}

func (Noop) Question(string, int, int, int, int, string) {}
func (Noop) Transcript(string)                           {}
func (Noop) Feedback(feedback.Item)                      {}
func (Noop) Timer(int)                                   {}
func (Noop) Listening(string)                            {}
func (Noop) Notice(string)                               {}
func (Noop) Error(string)                                {}
func (Noop) Summary(feedback.Report)                     {}
