package config

// DefaultCameraCmd grabs one webcam frame as a JPEG on stdout.
const DefaultCameraCmd = "ffmpeg -loglevel error -f v4l2 -i /dev/video0 -frames:v 1 -f image2 -"

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	return Config{
		Backend: BackendConfig{
			BaseURL: "http://127.0.0.1:5000",
			Rounds:  2,
		},
		Audio: AudioConfig{
			Input:    "default",
			Fallback: "default",
		},
		ASR: ASRConfig{
			AutomaticPunctuation: true,
			LanguageCode:         "en-US",
			Model:                "",
		},
		Narrate: NarrateConfig{
			Enable:   true,
			Voice:    "en-US-Neural2-D",
			SettleMS: 400,
		},
		Attention: AttentionConfig{
			Enable:     true,
			IntervalMS: 2000,
		},
		Camera: CommandConfig{Raw: DefaultCameraCmd, Argv: mustSplitCameraCmd(DefaultCameraCmd)},
		Code: CodeConfig{
			ScratchFile: "",
		},
		History: HistoryConfig{
			Enable: true,
			Path:   "",
		},
		Gemini: GeminiConfig{
			Model: "gemini-2.5-flash-lite",
		},
	}
}
