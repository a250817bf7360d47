package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/kmercer/greenroom/internal/attention"
	"github.com/kmercer/greenroom/internal/backend"
	"github.com/kmercer/greenroom/internal/capture"
	"github.com/kmercer/greenroom/internal/cli"
	"github.com/kmercer/greenroom/internal/config"
	"github.com/kmercer/greenroom/internal/console"
	"github.com/kmercer/greenroom/internal/doctor"
	"github.com/kmercer/greenroom/internal/feedback"
	"github.com/kmercer/greenroom/internal/history"
	"github.com/kmercer/greenroom/internal/ipc"
	"github.com/kmercer/greenroom/internal/logging"
	"github.com/kmercer/greenroom/internal/narrate"
	"github.com/kmercer/greenroom/internal/session"
	"github.com/kmercer/greenroom/internal/transcribe"
	"github.com/kmercer/greenroom/internal/version"
)

type Runner struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

func Execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	r := Runner{Stdin: stdin, Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText("greenroom"))
		return 2
	}

	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, cli.HelpText("greenroom"))
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	logRuntime, err := logging.New()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	if err := config.LoadDotEnv(); err != nil {
		logger.Warn("load .env failed", "error", err.Error())
	}

	cfgLoaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("load config failed", "error", err.Error())
		return 1
	}
	for _, w := range cfgLoaded.Warnings {
		msg := w.Message
		if w.Line > 0 {
			msg = fmt.Sprintf("line %d: %s", w.Line, w.Message)
		}
		fmt.Fprintf(r.Stderr, "warning: %s\n", msg)
		logger.Warn("config warning", "line", w.Line, "message", w.Message)
	}
	if parsed.Rounds > 0 {
		cfgLoaded.Config.Backend.Rounds = parsed.Rounds
	}

	logger.Info("command start",
		"command", parsed.Command,
		"config", cfgLoaded.Path,
		"log", logRuntime.Path,
	)

	switch parsed.Command {
	case cli.CommandDoctor:
		report := doctor.Run(cfgLoaded)
		fmt.Fprintln(r.Stdout, report.String())
		if report.OK() {
			return 0
		}
		return 1
	case cli.CommandDevices:
		return r.commandDevices(ctx)
	case cli.CommandStatus:
		return r.commandStatus(ctx)
	case cli.CommandRegister:
		return r.commandRegister(ctx, cfgLoaded.Config, logger)
	case cli.CommandLogin:
		return r.commandLogin(ctx, cfgLoaded.Config, logger)
	case cli.CommandHistory:
		return r.commandHistory(ctx, cfgLoaded.Config, parsed.SessionID)
	case cli.CommandNext, cli.CommandStop:
		return r.forwardOrFail(ctx, ipc.CommandStop)
	case cli.CommandEnd:
		return r.forwardOrFail(ctx, ipc.CommandEnd)
	case cli.CommandAnalyze:
		return r.forwardOrFail(ctx, ipc.CommandAnalyze)
	case cli.CommandPractice:
		return r.commandPractice(ctx, cfgLoaded.Config, parsed.Target, logger)
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

func (r Runner) commandDevices(ctx context.Context) int {
	devices, err := capture.ListDevices(ctx)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if len(devices) == 0 {
		fmt.Fprintln(r.Stdout, "no audio devices found")
		return 1
	}

	for _, device := range devices {
		defaultMark := " "
		if device.Default {
			defaultMark = "*"
		}
		availability := "yes"
		if !device.Available {
			availability = "no"
		}
		muted := "no"
		if device.Muted {
			muted = "yes"
		}
		fmt.Fprintf(
			r.Stdout,
			"%s id=%s | description=%q | state=%s | available=%s | muted=%s\n",
			defaultMark,
			device.ID,
			device.Description,
			device.State,
			availability,
			muted,
		)
	}

	return 0
}

func (r Runner) commandStatus(ctx context.Context) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintln(r.Stdout, "no active session")
		return 0
	}

	resp, handled, err := tryForward(ctx, socketPath, ipc.CommandStatus)
	if handled {
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		line := resp.State
		if resp.Phase != "" {
			line += " / " + resp.Phase
		}
		if resp.Position != "" {
			line += " (" + resp.Position + ")"
		}
		fmt.Fprintln(r.Stdout, line)
		return 0
	}

	fmt.Fprintln(r.Stdout, "no active session")
	return 0
}

func (r Runner) commandRegister(ctx context.Context, cfg config.Config, logger *slog.Logger) int {
	reader := bufio.NewReader(r.Stdin)

	fmt.Fprint(r.Stdout, "name: ")
	name, err := reader.ReadString('\n')
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: read name: %v\n", err)
		return 1
	}
	fmt.Fprint(r.Stdout, "email: ")
	email, err := reader.ReadString('\n')
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: read email: %v\n", err)
		return 1
	}
	fmt.Fprint(r.Stdout, "password: ")
	password, err := reader.ReadString('\n')
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: read password: %v\n", err)
		return 1
	}

	client := backend.New(cfg.Backend.BaseURL, "", logger)
	result, err := client.Register(ctx, strings.TrimSpace(name), strings.TrimSpace(email), strings.TrimSpace(password))
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	// Newer backend iterations sign the account in immediately.
	if token := strings.TrimSpace(result.Token); token != "" {
		if err := backend.SaveToken(token); err != nil {
			fmt.Fprintf(r.Stderr, "error: store token: %v\n", err)
			return 1
		}
	}

	message := strings.TrimSpace(result.Message)
	if message == "" {
		message = "account created"
	}
	fmt.Fprintln(r.Stdout, message)
	return 0
}

func (r Runner) commandLogin(ctx context.Context, cfg config.Config, logger *slog.Logger) int {
	reader := bufio.NewReader(r.Stdin)

	fmt.Fprint(r.Stdout, "email: ")
	email, err := reader.ReadString('\n')
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: read email: %v\n", err)
		return 1
	}
	fmt.Fprint(r.Stdout, "password: ")
	password, err := reader.ReadString('\n')
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: read password: %v\n", err)
		return 1
	}

	client := backend.New(cfg.Backend.BaseURL, "", logger)
	result, err := client.Login(ctx, strings.TrimSpace(email), strings.TrimSpace(password))
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if err := backend.SaveToken(result.Token); err != nil {
		fmt.Fprintf(r.Stderr, "error: store token: %v\n", err)
		return 1
	}

	name := strings.TrimSpace(result.User.Name)
	if name == "" {
		name = strings.TrimSpace(email)
	}
	fmt.Fprintf(r.Stdout, "logged in as %s\n", name)
	return 0
}

func (r Runner) commandHistory(ctx context.Context, cfg config.Config, sessionID string) int {
	path := strings.TrimSpace(cfg.History.Path)
	if path == "" {
		var err error
		path, err = history.DefaultPath()
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
	}

	store, err := history.Open(path)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer store.Close()

	if sessionID != "" {
		report, err := store.Report(ctx, sessionID)
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		console.NewTerminal(r.Stdout).Summary(report)
		return 0
	}

	entries, err := store.Recent(ctx, 20)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if len(entries) == 0 {
		fmt.Fprintln(r.Stdout, "no practice sessions recorded yet")
		return 0
	}

	for _, entry := range entries {
		fmt.Fprintf(r.Stdout, "%s  %-20s  %2d answers  %s\n",
			entry.FinishedAt.Local().Format("2006-01-02 15:04"),
			entry.Target,
			entry.Answers,
			entry.ID,
		)
	}
	return 0
}

func (r Runner) forwardOrFail(ctx context.Context, command string) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	resp, handled, err := tryForward(ctx, socketPath, command)
	if !handled {
		fmt.Fprintln(r.Stderr, "error: no active greenroom session")
		return 1
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if resp.Message != "" {
		fmt.Fprintln(r.Stdout, resp.Message)
	}
	return 0
}

func (r Runner) commandPractice(ctx context.Context, cfg config.Config, target string, logger *slog.Logger) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	if _, handled, _ := tryForward(ctx, socketPath, ipc.CommandStatus); handled {
		fmt.Fprintln(r.Stderr, "error: a greenroom session is already running")
		return 1
	}

	listener, err := ipc.Acquire(ctx, socketPath, 180*time.Millisecond, 8)
	if err != nil {
		if errors.Is(err, ipc.ErrAlreadyRunning) {
			fmt.Fprintln(r.Stderr, "error: a greenroom session is already running")
			return 1
		}
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	token, err := backend.LoadToken()
	if err != nil {
		logger.Warn("load token failed", "error", err.Error())
	}
	client := backend.New(cfg.Backend.BaseURL, token, logger)

	target = strings.TrimSpace(target)
	if target == "" {
		target, err = profileTarget(ctx, client)
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
	}

	controller, cleanup := r.buildSession(ctx, cfg, target, client, logger)
	defer cleanup()

	serverCtx, serverCancel := context.WithCancel(ctx)
	defer serverCancel()

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- ipc.Serve(serverCtx, listener, controller)
	}()

	result := controller.Run(ctx)
	serverCancel()
	if serverErr := <-serverErrCh; serverErr != nil {
		fmt.Fprintf(r.Stderr, "error: ipc server failed: %v\n", serverErr)
		return 1
	}

	logSessionResult(logger, result)

	if result.Err != nil {
		if errors.Is(result.Err, context.Canceled) {
			fmt.Fprintln(r.Stdout, "session cancelled")
			return 0
		}
		fmt.Fprintf(r.Stderr, "error: %v\n", result.Err)
		return 1
	}

	return 0
}

// profileTarget resolves the practice target from the backend profile when
// --target was not given.
func profileTarget(ctx context.Context, client *backend.Client) (string, error) {
	profile, err := client.FetchProfile(ctx)
	if err != nil {
		if errors.Is(err, backend.ErrUnauthorized) {
			return "", errors.New("no --target given and not logged in; run `greenroom login` or pass --target")
		}
		return "", fmt.Errorf("resolve target from profile: %w", err)
	}

	target := profile.Target()
	if target == "" {
		return "", errors.New("profile has no dream company or ambition; pass --target")
	}
	return target, nil
}

// buildSession wires the controller with whichever capabilities the
// environment provides; missing cloud credentials degrade individual
// features instead of blocking practice.
func (r Runner) buildSession(ctx context.Context, cfg config.Config, target string, client *backend.Client, logger *slog.Logger) (*session.Controller, func()) {
	var closers []func()

	deps := session.Deps{
		Plans:    client,
		Feedback: client,
	}

	recognizer, err := transcribe.NewGoogleRecognizer(ctx, cfg.ASR)
	var feed *transcribe.Feed
	if err != nil {
		logger.Warn("speech recognition unavailable", "error", err.Error())
	} else {
		closers = append(closers, func() { _ = recognizer.Close() })
		feed = transcribe.NewFeed(cfg, recognizer, logger)
		deps.Listener = feed
	}

	if cfg.Narrate.Enable {
		synth, err := narrate.NewGoogleSynthesizer(ctx, cfg.Narrate)
		if err != nil {
			logger.Warn("narration unavailable", "error", err.Error())
		} else {
			closers = append(closers, func() { _ = synth.Close() })
			deps.Speaker = narrate.New(cfg.Narrate, synth, narrate.PulsePlayer{}, logger)
		}
	}

	var camera *capture.Camera
	if cfg.Attention.Enable {
		camera = capture.NewCamera(cfg.Camera.Argv, logger)
		deps.Camera = camera
	}

	if key := config.GeminiAPIKey(); key != "" {
		analyzer, err := feedback.NewGeminiAnalyzer(ctx, key, cfg.Gemini.Model)
		if err != nil {
			logger.Warn("gemini analyzer unavailable", "error", err.Error())
		} else {
			deps.Analyzer = analyzer
		}
	}

	if cfg.History.Enable {
		path := strings.TrimSpace(cfg.History.Path)
		pathErr := error(nil)
		if path == "" {
			path, pathErr = history.DefaultPath()
		}
		if pathErr != nil {
			logger.Warn("history archive unavailable", "error", pathErr.Error())
		} else if store, storeErr := history.Open(path); storeErr != nil {
			logger.Warn("history archive unavailable", "error", storeErr.Error())
		} else {
			closers = append(closers, func() { _ = store.Close() })
			deps.Archive = store
		}
	}

	display := console.NewTerminal(r.Stdout)
	controller := session.NewController(cfg, target, display, deps, logger)

	if feed != nil {
		feed.OnResult = controller.HandleTranscript
		feed.OnError = controller.HandleFeedError
	}
	if camera != nil {
		var detector attention.FaceDetector
		vision, visionErr := attention.NewVisionDetector(ctx)
		if visionErr != nil {
			logger.Warn("face detection unavailable", "error", visionErr.Error())
		} else {
			closers = append(closers, func() { _ = vision.Close() })
			detector = vision
		}
		controller.AttachSampler(attention.New(cfg.Attention, camera, detector, controller.Feedback(), logger))
	}

	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	return controller, cleanup
}

func logSessionResult(logger *slog.Logger, result session.Result) {
	if logger == nil {
		return
	}
	fields := []any{
		"state", result.State,
		"answers", result.Answers,
		"persisted", result.Persisted,
		"archived", result.Archived,
		"started_at", result.StartedAt.Format(time.RFC3339Nano),
		"finished_at", result.FinishedAt.Format(time.RFC3339Nano),
		"duration_ms", result.FinishedAt.Sub(result.StartedAt).Milliseconds(),
	}

	if result.Err != nil {
		logger.Error("session failed", append(fields, "error", result.Err.Error())...)
		return
	}
	logger.Info("session complete", fields...)
}

func tryForward(ctx context.Context, socketPath string, command string) (ipc.Response, bool, error) {
	resp, err := ipc.Send(ctx, socketPath, ipc.Request{Command: command}, 220*time.Millisecond)
	if err == nil {
		if resp.OK {
			return resp, true, nil
		}
		return resp, true, errors.New(resp.Error)
	}

	if ipc.IsSocketMissing(err) || ipc.IsConnectionRefused(err) {
		return ipc.Response{}, false, nil
	}

	return ipc.Response{}, true, fmt.Errorf("forward command %q: %w", command, err)
}
