// Package plan models the interview plan and decodes backend question payloads.
package plan

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// FallbackQuestionText is the canned single-question plan used when the
// question fetch fails or returns a malformed payload.
const FallbackQuestionText = "Tell me about yourself."

// Question is one interview prompt within a round. Read-only after decode.
type Question struct {
	ID                 int
	RoundType          string
	Text               string
	RequiresCodeEditor bool
}

// Round is an ordered, themed group of questions.
type Round []Question

// Plan is the full ordered set of rounds for one session. A plan is created
// once per fetch and replaced wholesale; it is never mutated in place.
type Plan struct {
	Rounds []Round
}

// Empty reports whether the plan holds no questions at all.
func (p Plan) Empty() bool {
	for _, round := range p.Rounds {
		if len(round) > 0 {
			return false
		}
	}
	return true
}

// TotalQuestions counts questions across all rounds.
func (p Plan) TotalQuestions() int {
	total := 0
	for _, round := range p.Rounds {
		total += len(round)
	}
	return total
}

// Position addresses one question within a plan.
type Position struct {
	Round    int
	Question int
}

// First returns the position of the first question, skipping any leading
// rounds with no questions, or ok=false for a plan with no questions at all.
func (p Plan) First() (Position, bool) {
	for round := range p.Rounds {
		if len(p.Rounds[round]) > 0 {
			return Position{Round: round}, true
		}
	}
	return Position{}, false
}

// Valid reports whether pos addresses an existing question.
func (p Plan) Valid(pos Position) bool {
	if pos.Round < 0 || pos.Round >= len(p.Rounds) {
		return false
	}
	return pos.Question >= 0 && pos.Question < len(p.Rounds[pos.Round])
}

// At returns the question at pos. Callers must check Valid first.
func (p Plan) At(pos Position) Question {
	return p.Rounds[pos.Round][pos.Question]
}

// Next returns the strictly-forward successor of pos, or ok=false when pos is
// the last question of the last round. Rounds with no questions are skipped.
func (p Plan) Next(pos Position) (Position, bool) {
	if pos.Question+1 < len(p.Rounds[pos.Round]) {
		return Position{Round: pos.Round, Question: pos.Question + 1}, true
	}
	for round := pos.Round + 1; round < len(p.Rounds); round++ {
		if len(p.Rounds[round]) > 0 {
			return Position{Round: round}, true
		}
	}
	return pos, false
}

// Fallback returns the one-question plan used when a fetch cannot produce a
// usable multi-round payload.
func Fallback(target string) Plan {
	return Plan{Rounds: []Round{{Question{
		ID:        1,
		RoundType: strings.TrimSpace(target),
		Text:      FallbackQuestionText,
	}}}}
}

// ErrMalformedPayload indicates the backend response was not a question array.
var ErrMalformedPayload = errors.New("question payload is not an array")

// wireQuestion is the backend question object shape.
type wireQuestion struct {
	ID           int    `json:"id"`
	Type         string `json:"type"`
	Question     string `json:"question"`
	RequiresCode bool   `json:"requiresCode"`
}

// Decode parses a generate-questions response body.
//
// The pinned contract is an array of rounds (array of arrays of question
// objects). A flat array of question objects is still accepted as a single
// legacy round. Anything that is not a JSON array fails with
// ErrMalformedPayload so the caller can fall back to a canned plan.
func Decode(body []byte) (Plan, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return Plan{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if len(raw) == 0 {
		return Plan{}, fmt.Errorf("%w: empty array", ErrMalformedPayload)
	}

	if isArray(raw[0]) {
		return decodeRounds(raw)
	}
	return decodeLegacyFlat(body)
}

// decodeRounds parses the pinned array-of-rounds shape. Rounds that decode
// to no questions are dropped so position (0,0) always addresses a real
// question.
func decodeRounds(raw []json.RawMessage) (Plan, error) {
	rounds := make([]Round, 0, len(raw))
	nextID := 1
	for i, element := range raw {
		var wire []wireQuestion
		if err := json.Unmarshal(element, &wire); err != nil {
			return Plan{}, fmt.Errorf("decode round %d: %w", i, err)
		}
		round := fromWire(wire, &nextID)
		if len(round) == 0 {
			continue
		}
		rounds = append(rounds, round)
	}
	if len(rounds) == 0 {
		return Plan{}, fmt.Errorf("%w: rounds contain no questions", ErrMalformedPayload)
	}
	return Plan{Rounds: rounds}, nil
}

func decodeLegacyFlat(body []byte) (Plan, error) {
	var wire []wireQuestion
	if err := json.Unmarshal(body, &wire); err != nil {
		return Plan{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	nextID := 1
	round := fromWire(wire, &nextID)
	if len(round) == 0 {
		return Plan{}, fmt.Errorf("%w: no questions", ErrMalformedPayload)
	}
	return Plan{Rounds: []Round{round}}, nil
}

func fromWire(wire []wireQuestion, nextID *int) Round {
	round := make(Round, 0, len(wire))
	for _, q := range wire {
		text := strings.TrimSpace(q.Question)
		if text == "" {
			continue
		}
		id := q.ID
		if id == 0 {
			id = *nextID
		}
		*nextID++
		round = append(round, Question{
			ID:                 id,
			RoundType:          strings.TrimSpace(q.Type),
			Text:               text,
			RequiresCodeEditor: q.RequiresCode,
		})
	}
	return round
}

func isArray(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return strings.HasPrefix(trimmed, "[")
}
