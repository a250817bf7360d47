package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type Command string

const (
	CommandPractice Command = "practice"
	CommandNext     Command = "next"
	CommandStop     Command = "stop"
	CommandEnd      Command = "end"
	CommandStatus   Command = "status"
	CommandAnalyze  Command = "analyze"
	CommandRegister Command = "register"
	CommandLogin    Command = "login"
	CommandDevices  Command = "devices"
	CommandHistory  Command = "history"
	CommandDoctor   Command = "doctor"
	CommandVersion  Command = "version"
	CommandHelp     Command = "help"
)

var validCommands = map[Command]struct{}{
	CommandPractice: {},
	CommandNext:     {},
	CommandStop:     {},
	CommandEnd:      {},
	CommandStatus:   {},
	CommandAnalyze:  {},
	CommandRegister: {},
	CommandLogin:    {},
	CommandDevices:  {},
	CommandHistory:  {},
	CommandDoctor:   {},
	CommandVersion:  {},
	CommandHelp:     {},
}

type Parsed struct {
	Command    Command
	ConfigPath string
	Target     string
	Rounds     int
	SessionID  string
	ShowHelp   bool
}

func Parse(args []string) (Parsed, error) {
	parsed := Parsed{Command: CommandHelp, ShowHelp: true}
	haveCommand := false

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "-h", "--help":
			parsed.ShowHelp = true
			parsed.Command = CommandHelp
		case "--version":
			parsed.ShowHelp = false
			parsed.Command = CommandVersion
		case "--config":
			i++
			if i >= len(args) {
				return Parsed{}, errors.New("--config requires a path")
			}
			parsed.ConfigPath = args[i]
		case "--target":
			i++
			if i >= len(args) {
				return Parsed{}, errors.New("--target requires a name")
			}
			parsed.Target = args[i]
		case "--rounds":
			i++
			if i >= len(args) {
				return Parsed{}, errors.New("--rounds requires a number")
			}
			rounds, err := strconv.Atoi(args[i])
			if err != nil || rounds <= 0 {
				return Parsed{}, fmt.Errorf("--rounds must be a positive number, got %q", args[i])
			}
			parsed.Rounds = rounds
		default:
			if strings.HasPrefix(arg, "-") {
				return Parsed{}, fmt.Errorf("unknown flag: %s", arg)
			}

			// history takes an optional session id argument.
			if haveCommand && parsed.Command == CommandHistory && parsed.SessionID == "" {
				parsed.SessionID = arg
				continue
			}

			cmd := Command(arg)
			if _, ok := validCommands[cmd]; !ok {
				return Parsed{}, fmt.Errorf("unknown command: %s", arg)
			}
			if haveCommand {
				return Parsed{}, fmt.Errorf("unexpected second command %q", arg)
			}

			haveCommand = true
			parsed.Command = cmd
			parsed.ShowHelp = cmd == CommandHelp
		}
	}

	return parsed, nil
}

func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [--config PATH] <command> [flags]

Commands:
  practice  Start a mock interview session (owner process)
  next      Stop recording for the current question and advance
  stop      Alias of next
  end       End the active session immediately
  status    Print current session state
  analyze   Analyze the code scratch file for the current question
  register  Create a backend account
  login     Authenticate against the backend and store a token
  devices   List available microphone devices
  history   List archived practice sessions; ` + "`history <id>`" + ` prints one report
  doctor    Run configuration and environment checks
  version   Print version information
  help      Show this help

Flags:
  --config PATH   Config file path (default: $XDG_CONFIG_HOME/greenroom/config.conf)
  --target NAME   Practice target company or ambition (default: backend profile)
  --rounds N      Number of interview rounds to request
  -h, --help      Show help
  --version       Show version
`, binaryName)
}
