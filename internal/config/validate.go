package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	base := strings.TrimSpace(cfg.Backend.BaseURL)
	if base == "" {
		return nil, fmt.Errorf("backend.base_url must not be empty")
	}
	if parsed, err := url.Parse(base); err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("backend.base_url %q is not an absolute URL", base)
	}
	if cfg.Backend.Rounds <= 0 {
		return nil, fmt.Errorf("backend.rounds must be > 0")
	}
	if cfg.Backend.Rounds > 8 {
		warnings = append(warnings, Warning{Message: fmt.Sprintf("backend.rounds=%d is unusually high", cfg.Backend.Rounds)})
	}

	if strings.TrimSpace(cfg.ASR.LanguageCode) == "" {
		return nil, fmt.Errorf("asr.language_code must not be empty")
	}

	if cfg.Narrate.SettleMS < 0 {
		return nil, fmt.Errorf("narrate.settle_ms must be >= 0")
	}
	if cfg.Narrate.Enable && strings.TrimSpace(cfg.Narrate.Voice) == "" {
		return nil, fmt.Errorf("narrate.voice must not be empty when narrate.enable=true")
	}

	if cfg.Attention.IntervalMS <= 0 {
		return nil, fmt.Errorf("attention.interval_ms must be > 0")
	}
	if cfg.Attention.IntervalMS < 500 {
		warnings = append(warnings, Warning{Message: "attention.interval_ms below 500 will hammer the vision API"})
	}

	if cfg.Attention.Enable && len(cfg.Camera.Argv) == 0 {
		return nil, fmt.Errorf("camera_cmd must not be empty when attention.enable=true")
	}

	return warnings, nil
}
