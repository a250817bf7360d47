// Package doctor runs environment readiness diagnostics for config, backend,
// credentials, audio, and camera.
package doctor

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/kmercer/greenroom/internal/backend"
	"github.com/kmercer/greenroom/internal/capture"
	"github.com/kmercer/greenroom/internal/config"
)

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Warn    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all required checks pass. Warn-only checks never
// fail the report.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass && !check.Warn {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
			if check.Warn {
				status = "WARN"
			}
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes environment/config/runtime checks for a loaded config.
func Run(cfg config.Loaded) Report {
	checks := []Check{}

	checks = append(checks, Check{
		Name:    "config",
		Pass:    true,
		Message: fmt.Sprintf("loaded %q", cfg.Path),
	})

	checks = append(checks, checkBackendURL(cfg.Config))
	checks = append(checks, checkBackendReachable(cfg.Config))
	checks = append(checks, checkToken())
	checks = append(checks, checkGoogleCredentials())
	checks = append(checks, checkAudioSelection(cfg.Config))

	if cfg.Config.Attention.Enable {
		checks = append(checks, checkCommand(cfg.Config.Camera.Argv, "camera_cmd"))
	}

	checks = append(checks, checkGeminiKey())

	return Report{Checks: checks}
}

// checkBackendURL validates that the configured base URL parses.
func checkBackendURL(cfg config.Config) Check {
	base := strings.TrimSpace(cfg.Backend.BaseURL)
	if base == "" {
		return Check{Name: "backend.url", Pass: false, Message: "backend base_url is empty"}
	}
	parsed, err := url.Parse(base)
	if err != nil || !parsed.IsAbs() {
		return Check{Name: "backend.url", Pass: false, Message: fmt.Sprintf("base_url %q is not an absolute URL", base)}
	}
	return Check{Name: "backend.url", Pass: true, Message: base}
}

// checkBackendReachable probes the backend with a short request.
func checkBackendReachable(cfg config.Config) Check {
	base := strings.TrimSpace(cfg.Backend.BaseURL)
	if base == "" {
		return Check{Name: "backend.reachable", Pass: false, Message: "no base_url configured"}
	}

	client := http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(strings.TrimRight(base, "/") + "/")
	if err != nil {
		return Check{Name: "backend.reachable", Pass: false, Message: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()

	return Check{Name: "backend.reachable", Pass: true, Message: fmt.Sprintf("HTTP %d from %s", resp.StatusCode, base)}
}

// checkToken verifies a stored bearer token exists for authenticated calls.
func checkToken() Check {
	token, err := backend.LoadToken()
	if err != nil {
		return Check{Name: "auth.token", Pass: false, Message: err.Error()}
	}
	if strings.TrimSpace(token) == "" {
		return Check{Name: "auth.token", Pass: false, Message: "no stored token; run `greenroom login`"}
	}
	path, _ := backend.TokenPath()
	return Check{Name: "auth.token", Pass: true, Message: fmt.Sprintf("token stored at %s", path)}
}

// checkGoogleCredentials looks for visible Google Cloud credentials: either
// GOOGLE_APPLICATION_CREDENTIALS or gcloud application-default credentials.
func checkGoogleCredentials() Check {
	if path := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")); path != "" {
		if _, err := os.Stat(path); err != nil {
			return Check{Name: "google.credentials", Pass: false,
				Message: fmt.Sprintf("GOOGLE_APPLICATION_CREDENTIALS points to missing file %q", path)}
		}
		return Check{Name: "google.credentials", Pass: true, Message: fmt.Sprintf("service account file %q", path)}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		adc := filepath.Join(home, ".config", "gcloud", "application_default_credentials.json")
		if _, err := os.Stat(adc); err == nil {
			return Check{Name: "google.credentials", Pass: true, Message: "gcloud application-default credentials found"}
		}
	}

	return Check{Name: "google.credentials", Pass: false,
		Message: "no Google credentials; set GOOGLE_APPLICATION_CREDENTIALS or run `gcloud auth application-default login`"}
}

// checkCommand validates that argv contains a runnable command.
func checkCommand(argv []string, name string) Check {
	if len(argv) == 0 {
		return Check{Name: name, Pass: false, Message: "command is empty"}
	}
	return checkBinary(argv[0], fmt.Sprintf("%s command is available", name))
}

// checkBinary validates that a binary exists in PATH.
func checkBinary(bin string, okMsg string) Check {
	path, err := exec.LookPath(bin)
	if err != nil {
		return Check{Name: bin, Pass: false, Message: fmt.Sprintf("binary not found in PATH: %s", bin)}
	}
	return Check{Name: bin, Pass: true, Message: fmt.Sprintf("found at %s (%s)", path, okMsg)}
}

// checkAudioSelection runs live device selection to surface selection/fallback issues.
func checkAudioSelection(cfg config.Config) Check {
	selection, err := capture.SelectDevice(context.Background(), cfg.Audio.Input, cfg.Audio.Fallback)
	if err != nil {
		return Check{Name: "audio.device", Pass: false, Message: err.Error()}
	}
	message := fmt.Sprintf("selected %q", selection.Device.ID)
	if selection.Warning != "" {
		message = message + " (" + selection.Warning + ")"
	}
	return Check{Name: "audio.device", Pass: true, Message: message}
}

// checkGeminiKey reports whether the optional Gemini analyzer is configured.
func checkGeminiKey() Check {
	if config.GeminiAPIKey() == "" {
		return Check{Name: "gemini.key", Pass: false, Warn: true,
			Message: "GEMINI_API_KEY not set; code feedback uses the built-in heuristic"}
	}
	return Check{Name: "gemini.key", Pass: true, Message: "GEMINI_API_KEY is set"}
}
