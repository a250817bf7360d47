package feedback

import "strings"

const (
	PaceSlowMessage = "Try speaking a bit faster and more confidently."
	PaceFastMessage = "Slow down a bit to maintain clarity."
	PaceGoodMessage = "Good speaking pace!"

	EyeContactGoodMessage    = "Good eye contact!"
	EyeContactCorrectMessage = "Maintain eye contact with the camera."

	CodeGoodMessage    = "Good approach! Consider optimizing for edge cases."
	CodeCorrectMessage = "Make sure to return the result."
)

// AnalyzeSpeechPace maps a transcript and its elapsed answer time to a pace
// message. Elapsed seconds are floored at 1 to avoid division by zero. The
// comfortable band is 120-180 words per minute inclusive.
func AnalyzeSpeechPace(text string, elapsedSeconds int) string {
	if elapsedSeconds < 1 {
		elapsedSeconds = 1
	}
	words := len(strings.Fields(text))
	wordsPerMinute := float64(words) / float64(elapsedSeconds) * 60

	switch {
	case wordsPerMinute < 120:
		return PaceSlowMessage
	case wordsPerMinute > 180:
		return PaceFastMessage
	default:
		return PaceGoodMessage
	}
}

// AnalyzeEyeContact maps one attention sample to an eye-contact message.
func AnalyzeEyeContact(facePresent bool) string {
	if facePresent {
		return EyeContactGoodMessage
	}
	return EyeContactCorrectMessage
}

// AnalyzeCode is the heuristic technical check used when no model-backed
// analyzer is configured.
func AnalyzeCode(code string) string {
	if strings.Contains(code, "return") {
		return CodeGoodMessage
	}
	return CodeCorrectMessage
}
