package feedback

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// QuestionAnswer pairs a question with the transcript recorded for it.
type QuestionAnswer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Report is the assembled end-of-session output persisted to the backend and
// the local archive.
type Report struct {
	ID               string           `json:"id"`
	Target           string           `json:"target"`
	StartedAt        time.Time        `json:"startedAt"`
	FinishedAt       time.Time        `json:"finishedAt"`
	Transcript       string           `json:"transcript"`
	Code             string           `json:"code"`
	Items            []Item           `json:"feedbackItems"`
	QuestionsAnswers []QuestionAnswer `json:"questionsAndAnswers"`
}

// BuildReport assembles the persisted report from the session's answer log,
// scratch code, and the final feedback snapshot.
func BuildReport(target string, answers []QuestionAnswer, code string, items []Item, startedAt, finishedAt time.Time) Report {
	transcripts := make([]string, 0, len(answers))
	for _, qa := range answers {
		if trimmed := strings.TrimSpace(qa.Answer); trimmed != "" {
			transcripts = append(transcripts, trimmed)
		}
	}

	return Report{
		ID:               uuid.NewString(),
		Target:           target,
		StartedAt:        startedAt,
		FinishedAt:       finishedAt,
		Transcript:       strings.Join(transcripts, "\n"),
		Code:             code,
		Items:            items,
		QuestionsAnswers: answers,
	}
}
