package config

import (
	"encoding/json"
	"fmt"
	"strings"
)

type jsoncConfig struct {
	Backend   *jsoncBackend   `json:"backend"`
	Audio     *jsoncAudio     `json:"audio"`
	ASR       *jsoncASR       `json:"asr"`
	Narrate   *jsoncNarrate   `json:"narrate"`
	Attention *jsoncAttention `json:"attention"`
	CameraCmd *string         `json:"camera_cmd"`
	Code      *jsoncCode      `json:"code"`
	History   *jsoncHistory   `json:"history"`
	Gemini    *jsoncGemini    `json:"gemini"`
}

type jsoncBackend struct {
	BaseURL *string `json:"base_url"`
	Rounds  *int    `json:"rounds"`
}

type jsoncAudio struct {
	Input    *string `json:"input"`
	Fallback *string `json:"fallback"`
}

type jsoncASR struct {
	AutomaticPunctuation *bool   `json:"automatic_punctuation"`
	LanguageCode         *string `json:"language_code"`
	Model                *string `json:"model"`
}

type jsoncNarrate struct {
	Enable   *bool   `json:"enable"`
	Voice    *string `json:"voice"`
	SettleMS *int    `json:"settle_ms"`
}

type jsoncAttention struct {
	Enable     *bool `json:"enable"`
	IntervalMS *int  `json:"interval_ms"`
}

type jsoncCode struct {
	ScratchFile *string `json:"scratch_file"`
}

type jsoncHistory struct {
	Enable *bool   `json:"enable"`
	Path   *string `json:"path"`
}

type jsoncGemini struct {
	Model *string `json:"model"`
}

// Parse reads configuration content as JSONC layered over base defaults.
func Parse(content string, base Config) (Config, []Warning, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		warnings, err := Validate(base)
		if err != nil {
			return Config{}, nil, err
		}
		return base, warnings, nil
	}

	normalized := stripJSONCComments(content)

	decoder := json.NewDecoder(strings.NewReader(normalized))
	decoder.DisallowUnknownFields()

	var payload jsoncConfig
	if err := decoder.Decode(&payload); err != nil {
		return Config{}, nil, fmt.Errorf("decode config JSONC: %w", err)
	}

	cfg := base
	if err := payload.applyTo(&cfg); err != nil {
		return Config{}, nil, err
	}

	warnings, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	return cfg, warnings, nil
}

func (payload jsoncConfig) applyTo(cfg *Config) error {
	if payload.Backend != nil {
		if payload.Backend.BaseURL != nil {
			cfg.Backend.BaseURL = strings.TrimSpace(*payload.Backend.BaseURL)
		}
		if payload.Backend.Rounds != nil {
			cfg.Backend.Rounds = *payload.Backend.Rounds
		}
	}

	if payload.Audio != nil {
		if payload.Audio.Input != nil {
			cfg.Audio.Input = *payload.Audio.Input
		}
		if payload.Audio.Fallback != nil {
			cfg.Audio.Fallback = *payload.Audio.Fallback
		}
	}

	if payload.ASR != nil {
		if payload.ASR.AutomaticPunctuation != nil {
			cfg.ASR.AutomaticPunctuation = *payload.ASR.AutomaticPunctuation
		}
		if payload.ASR.LanguageCode != nil {
			cfg.ASR.LanguageCode = *payload.ASR.LanguageCode
		}
		if payload.ASR.Model != nil {
			cfg.ASR.Model = *payload.ASR.Model
		}
	}

	if payload.Narrate != nil {
		if payload.Narrate.Enable != nil {
			cfg.Narrate.Enable = *payload.Narrate.Enable
		}
		if payload.Narrate.Voice != nil {
			cfg.Narrate.Voice = strings.TrimSpace(*payload.Narrate.Voice)
		}
		if payload.Narrate.SettleMS != nil {
			cfg.Narrate.SettleMS = *payload.Narrate.SettleMS
		}
	}

	if payload.Attention != nil {
		if payload.Attention.Enable != nil {
			cfg.Attention.Enable = *payload.Attention.Enable
		}
		if payload.Attention.IntervalMS != nil {
			cfg.Attention.IntervalMS = *payload.Attention.IntervalMS
		}
	}

	if payload.CameraCmd != nil {
		raw := *payload.CameraCmd
		argv, err := splitCameraCmd(raw)
		if err != nil {
			return fmt.Errorf("invalid camera_cmd: %w", err)
		}
		cfg.Camera = CommandConfig{Raw: raw, Argv: argv}
	}

	if payload.Code != nil && payload.Code.ScratchFile != nil {
		cfg.Code.ScratchFile = strings.TrimSpace(*payload.Code.ScratchFile)
	}

	if payload.History != nil {
		if payload.History.Enable != nil {
			cfg.History.Enable = *payload.History.Enable
		}
		if payload.History.Path != nil {
			cfg.History.Path = strings.TrimSpace(*payload.History.Path)
		}
	}

	if payload.Gemini != nil && payload.Gemini.Model != nil {
		cfg.Gemini.Model = strings.TrimSpace(*payload.Gemini.Model)
	}

	return nil
}

// stripJSONCComments removes // and /* */ comments outside string literals.
func stripJSONCComments(content string) string {
	var out strings.Builder
	out.Grow(len(content))

	inString := false
	escape := false
	lineComment := false
	blockComment := false

	runes := []rune(content)
	for i := 0; i < len(runes); i++ {
		r := runes[i]

		switch {
		case lineComment:
			if r == '\n' {
				lineComment = false
				out.WriteRune(r)
			}
		case blockComment:
			if r == '*' && i+1 < len(runes) && runes[i+1] == '/' {
				blockComment = false
				i++
			} else if r == '\n' {
				out.WriteRune(r)
			}
		case inString:
			out.WriteRune(r)
			if escape {
				escape = false
			} else if r == '\\' {
				escape = true
			} else if r == '"' {
				inString = false
			}
		case r == '"':
			inString = true
			out.WriteRune(r)
		case r == '/' && i+1 < len(runes) && runes[i+1] == '/':
			lineComment = true
			i++
		case r == '/' && i+1 < len(runes) && runes[i+1] == '*':
			blockComment = true
			i++
		default:
			out.WriteRune(r)
		}
	}

	return out.String()
}
