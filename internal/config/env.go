package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variable names. Secrets only ever come from the environment.
const (
	EnvBackendURL   = "GREENROOM_BACKEND_URL"
	EnvGeminiAPIKey = "GEMINI_API_KEY"
)

// LoadDotEnv loads a .env file from the working directory when present.
// Missing files are fine; malformed files are reported.
func LoadDotEnv() error {
	if _, err := os.Stat(".env"); err != nil {
		return nil
	}
	if err := godotenv.Load(".env"); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// GeminiAPIKey returns the configured Gemini key, empty when unset.
func GeminiAPIKey() string {
	return strings.TrimSpace(os.Getenv(EnvGeminiAPIKey))
}

// applyEnv layers environment overrides on top of file config.
func applyEnv(cfg Config) (Config, []Warning) {
	warnings := make([]Warning, 0)

	if base := strings.TrimSpace(os.Getenv(EnvBackendURL)); base != "" {
		if base != cfg.Backend.BaseURL && cfg.Backend.BaseURL != Default().Backend.BaseURL {
			warnings = append(warnings, Warning{
				Message: fmt.Sprintf("%s overrides backend.base_url from config file", EnvBackendURL),
			})
		}
		cfg.Backend.BaseURL = base
	}

	return cfg, warnings
}
