// Package config resolves, parses, validates, and defaults greenroom configuration.
package config

// Config is the fully materialized runtime configuration used by greenroom.
type Config struct {
	Backend   BackendConfig
	Audio     AudioConfig
	ASR       ASRConfig
	Narrate   NarrateConfig
	Attention AttentionConfig
	Camera    CommandConfig
	Code      CodeConfig
	History   HistoryConfig
	Gemini    GeminiConfig
}

// BackendConfig controls the career-platform API connection and plan shape.
type BackendConfig struct {
	BaseURL string
	Rounds  int
}

// AudioConfig controls preferred and fallback microphone selection.
type AudioConfig struct {
	Input    string
	Fallback string
}

// ASRConfig controls request-level hints passed to the speech recognizer.
type ASRConfig struct {
	AutomaticPunctuation bool
	LanguageCode         string
	Model                string
}

// NarrateConfig controls question narration and the post-playback settle delay.
type NarrateConfig struct {
	Enable   bool
	Voice    string
	SettleMS int
}

// AttentionConfig controls face-presence sampling cadence.
type AttentionConfig struct {
	Enable     bool
	IntervalMS int
}

// CommandConfig stores a raw command string and its parsed argv form.
type CommandConfig struct {
	Raw  string
	Argv []string
}

// CodeConfig controls the scratch file read for code-editor questions.
type CodeConfig struct {
	ScratchFile string
}

// HistoryConfig controls the local session archive.
type HistoryConfig struct {
	Enable bool
	Path   string
}

// GeminiConfig selects the model for the optional technical analyzer. The API
// key comes from the environment, never from the config file.
type GeminiConfig struct {
	Model string
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}
