package cli

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDefaultsToHelp(t *testing.T) {
	parsed, err := Parse(nil)
	require.NoError(t, err)
	require.True(t, parsed.ShowHelp)
	require.Equal(t, CommandHelp, parsed.Command)
}

func TestParsePracticeWithFlags(t *testing.T) {
	parsed, err := Parse([]string{"practice", "--target", "Google", "--rounds", "3"})
	require.NoError(t, err)
	require.Equal(t, CommandPractice, parsed.Command)
	require.Equal(t, "Google", parsed.Target)
	require.Equal(t, 3, parsed.Rounds)
	require.False(t, parsed.ShowHelp)
}

func TestParseArgMatrix(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantErr    string
		wantCmd    Command
		wantHelp   bool
		wantPath   string
		wantTarget string
	}{
		{
			name:     "help short flag",
			args:     []string{"-h"},
			wantCmd:  CommandHelp,
			wantHelp: true,
		},
		{
			name:     "version flag",
			args:     []string{"--version"},
			wantCmd:  CommandVersion,
			wantHelp: false,
		},
		{
			name:     "config before command",
			args:     []string{"--config", "/tmp/cfg", "stop"},
			wantCmd:  CommandStop,
			wantPath: "/tmp/cfg",
		},
		{
			name:     "config after command",
			args:     []string{"status", "--config", "/tmp/cfg"},
			wantCmd:  CommandStatus,
			wantPath: "/tmp/cfg",
		},
		{
			name:    "register command",
			args:    []string{"register"},
			wantCmd: CommandRegister,
		},
		{
			name:       "target flag",
			args:       []string{"practice", "--target", "Stripe"},
			wantCmd:    CommandPractice,
			wantTarget: "Stripe",
		},
		{
			name:    "missing config path",
			args:    []string{"--config"},
			wantErr: "requires a path",
		},
		{
			name:    "missing target value",
			args:    []string{"practice", "--target"},
			wantErr: "requires a name",
		},
		{
			name:    "non-numeric rounds",
			args:    []string{"practice", "--rounds", "three"},
			wantErr: "must be a positive number",
		},
		{
			name:    "zero rounds",
			args:    []string{"practice", "--rounds", "0"},
			wantErr: "must be a positive number",
		},
		{
			name:    "unknown flag",
			args:    []string{"--bogus"},
			wantErr: "unknown flag",
		},
		{
			name:    "unknown command",
			args:    []string{"bogus"},
			wantErr: "unknown command",
		},
		{
			name:    "two commands",
			args:    []string{"doctor", "status"},
			wantErr: "second command",
		},
		{
			name:     "valid end command",
			args:     []string{"end"},
			wantCmd:  CommandEnd,
			wantHelp: false,
		},
		{
			name:     "valid analyze command",
			args:     []string{"analyze"},
			wantCmd:  CommandAnalyze,
			wantHelp: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			parsed, err := Parse(tc.args)
			if tc.wantErr != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.wantErr)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tc.wantCmd, parsed.Command)
			require.Equal(t, tc.wantHelp, parsed.ShowHelp)
			require.Equal(t, tc.wantPath, parsed.ConfigPath)
			require.Equal(t, tc.wantTarget, parsed.Target)
		})
	}
}

func TestParseHistoryWithSessionID(t *testing.T) {
	parsed, err := Parse([]string{"history", "3f2a-9c"})
	require.NoError(t, err)
	require.Equal(t, CommandHistory, parsed.Command)
	require.Equal(t, "3f2a-9c", parsed.SessionID)

	parsed, err = Parse([]string{"history"})
	require.NoError(t, err)
	require.Empty(t, parsed.SessionID)

	_, err = Parse([]string{"history", "3f2a-9c", "extra"})
	require.Error(t, err)
}

func TestHelpTextIncludesCoreCommands(t *testing.T) {
	text := HelpText("greenroom")
	require.Contains(t, text, "practice")
	require.Contains(t, text, "next")
	require.Contains(t, text, "register")
	require.Contains(t, text, "login")
	require.Contains(t, text, "history")
	require.Contains(t, text, "doctor")
	require.Contains(t, text, "--target NAME")
	require.Contains(t, text, "--config PATH")
}
