package feedback

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAggregatorKeepsOnlyLatestPerCategory(t *testing.T) {
	a := NewAggregator(nil)

	a.Set(CategorySpeech, PaceSlowMessage)
	a.Set(CategorySpeech, PaceGoodMessage)
	a.Set(CategoryEyeContact, EyeContactGoodMessage)

	msg, ok := a.Latest(CategorySpeech)
	require.True(t, ok)
	require.Equal(t, PaceGoodMessage, msg)

	snapshot := a.Snapshot()
	require.Equal(t, []Item{
		{Category: CategorySpeech, Message: PaceGoodMessage},
		{Category: CategoryEyeContact, Message: EyeContactGoodMessage},
	}, snapshot)
}

func TestAggregatorNotifiesOnUpdate(t *testing.T) {
	var got []Item
	a := NewAggregator(func(item Item) { got = append(got, item) })

	a.Set(CategoryTechnical, CodeCorrectMessage)
	a.Set(CategoryTechnical, "")

	require.Equal(t, []Item{{Category: CategoryTechnical, Message: CodeCorrectMessage}}, got)
}

func TestAggregatorReset(t *testing.T) {
	a := NewAggregator(nil)
	a.Set(CategorySpeech, PaceGoodMessage)
	a.Reset()
	require.Empty(t, a.Snapshot())
}

func TestAnalyzeSpeechPaceBoundaries(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		elapsed int
		want    string
	}{
		{name: "two words in one second is exactly 120 wpm", text: "hello world", elapsed: 1, want: PaceGoodMessage},
		{name: "one word in one second is too slow", text: "hello", elapsed: 1, want: PaceSlowMessage},
		{name: "four words in one second is too fast", text: "one two three four", elapsed: 1, want: PaceFastMessage},
		{name: "three words in one second is exactly 180 wpm", text: "one two three", elapsed: 1, want: PaceGoodMessage},
		{name: "zero elapsed is floored at one second", text: "hello world", elapsed: 0, want: PaceGoodMessage},
		{name: "empty transcript is slow", text: "", elapsed: 5, want: PaceSlowMessage},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, AnalyzeSpeechPace(tc.text, tc.elapsed))
		})
	}
}

func TestAnalyzeEyeContact(t *testing.T) {
	require.Equal(t, EyeContactGoodMessage, AnalyzeEyeContact(true))
	require.Equal(t, EyeContactCorrectMessage, AnalyzeEyeContact(false))
}

func TestHeuristicAnalyzer(t *testing.T) {
	analyzer := HeuristicAnalyzer{}

	msg, err := analyzer.Analyze(context.Background(), "reverse a list", "func f() int { return 1 }")
	require.NoError(t, err)
	require.Equal(t, CodeGoodMessage, msg)

	msg, err = analyzer.Analyze(context.Background(), "reverse a list", "fmt.Println(1)")
	require.NoError(t, err)
	require.Equal(t, CodeCorrectMessage, msg)
}

func TestBuildReport(t *testing.T) {
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	finished := started.Add(12 * time.Minute)
	answers := []QuestionAnswer{
		{Question: "Q1", Answer: "first answer"},
		{Question: "Q2", Answer: "  "},
		{Question: "Q3", Answer: "third answer"},
	}
	items := []Item{{Category: CategorySpeech, Message: PaceGoodMessage}}

	report := BuildReport("Google", answers, "return x", items, started, finished)

	require.NotEmpty(t, report.ID)
	require.Equal(t, "Google", report.Target)
	require.Equal(t, "first answer\nthird answer", report.Transcript)
	require.Equal(t, answers, report.QuestionsAnswers)
	require.Equal(t, items, report.Items)
	require.Equal(t, started, report.StartedAt)
	require.Equal(t, finished, report.FinishedAt)
}
