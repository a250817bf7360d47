package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseEmptyContentYieldsDefaults(t *testing.T) {
	cfg, warnings, err := Parse("", Default())
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.Equal(t, Default(), cfg)
}

func TestParseJSONCWithCommentsLayersOverDefaults(t *testing.T) {
	content := `{
		// career platform API
		"backend": {"base_url": "https://api.example.com", "rounds": 3},
		/* narration tweaks */
		"narrate": {"settle_ms": 700},
		"attention": {"interval_ms": 1500}
	}`

	cfg, _, err := Parse(content, Default())
	require.NoError(t, err)
	require.Equal(t, "https://api.example.com", cfg.Backend.BaseURL)
	require.Equal(t, 3, cfg.Backend.Rounds)
	require.Equal(t, 700, cfg.Narrate.SettleMS)
	require.Equal(t, 1500, cfg.Attention.IntervalMS)
	// untouched sections keep defaults
	require.Equal(t, "en-US", cfg.ASR.LanguageCode)
	require.Equal(t, Default().Camera.Raw, cfg.Camera.Raw)
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, _, err := Parse(`{"backends": {}}`, Default())
	require.Error(t, err)
}

func TestParseCameraCmdArgv(t *testing.T) {
	cfg, _, err := Parse(`{"camera_cmd": "grab-frame --device '/dev/video 2'"}`, Default())
	require.NoError(t, err)
	require.Equal(t, []string{"grab-frame", "--device", "/dev/video 2"}, cfg.Camera.Argv)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		substr string
	}{
		{name: "empty base url", mutate: func(c *Config) { c.Backend.BaseURL = " " }, substr: "backend.base_url"},
		{name: "relative base url", mutate: func(c *Config) { c.Backend.BaseURL = "api.example.com" }, substr: "absolute URL"},
		{name: "zero rounds", mutate: func(c *Config) { c.Backend.Rounds = 0 }, substr: "backend.rounds"},
		{name: "empty language", mutate: func(c *Config) { c.ASR.LanguageCode = "" }, substr: "asr.language_code"},
		{name: "negative settle", mutate: func(c *Config) { c.Narrate.SettleMS = -1 }, substr: "narrate.settle_ms"},
		{name: "empty voice while enabled", mutate: func(c *Config) { c.Narrate.Voice = "" }, substr: "narrate.voice"},
		{name: "zero attention interval", mutate: func(c *Config) { c.Attention.IntervalMS = 0 }, substr: "attention.interval_ms"},
		{name: "attention without camera", mutate: func(c *Config) { c.Camera = CommandConfig{} }, substr: "camera_cmd"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			_, err := Validate(cfg)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.substr)
		})
	}
}

func TestValidateWarnsOnAggressiveSampling(t *testing.T) {
	cfg := Default()
	cfg.Attention.IntervalMS = 250
	warnings, err := Validate(cfg)
	require.NoError(t, err)
	require.NotEmpty(t, warnings)
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv(EnvBackendURL, "")

	loaded, err := Load("")
	require.NoError(t, err)
	require.False(t, loaded.Exists)
	require.Equal(t, Default().Backend.BaseURL, loaded.Config.Backend.BaseURL)
	require.NotEmpty(t, loaded.Warnings)
}

func TestLoadReadsExplicitPathAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.conf")
	require.NoError(t, os.WriteFile(path, []byte(`{"backend": {"rounds": 4}}`), 0o600))
	t.Setenv(EnvBackendURL, "https://staging.example.com")

	loaded, err := Load(path)
	require.NoError(t, err)
	require.True(t, loaded.Exists)
	require.Equal(t, 4, loaded.Config.Backend.Rounds)
	require.Equal(t, "https://staging.example.com", loaded.Config.Backend.BaseURL)
}

func TestResolvePathPrefersExplicitThenXDG(t *testing.T) {
	path, err := ResolvePath("/tmp/custom.conf")
	require.NoError(t, err)
	require.Equal(t, "/tmp/custom.conf", path)

	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	path, err = ResolvePath("")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(xdg, "greenroom", "config.conf"), path)
}

func TestSplitCameraCmdQuoting(t *testing.T) {
	argv, err := splitCameraCmd(`ffmpeg -i "/dev/video 0" -frames:v 1 -`)
	require.NoError(t, err)
	require.Equal(t, []string{"ffmpeg", "-i", "/dev/video 0", "-frames:v", "1", "-"}, argv)

	argv, err = splitCameraCmd(`# ffmpeg disabled for now`)
	require.NoError(t, err)
	require.Nil(t, argv)

	_, err = splitCameraCmd(`broken "quote`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "camera command")

	_, err = splitCameraCmd(`trailing \`)
	require.Error(t, err)
}
