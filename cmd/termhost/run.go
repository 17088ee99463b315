package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"
	"golang.org/x/term"
	"golang.org/x/time/rate"

	"github.com/termhost/termhost/internal/bridge"
	"github.com/termhost/termhost/internal/config"
	"github.com/termhost/termhost/internal/display"
	"github.com/termhost/termhost/internal/geometry"
	"github.com/termhost/termhost/internal/host"
	"github.com/termhost/termhost/internal/logging"
	"github.com/termhost/termhost/internal/loop"
	"github.com/termhost/termhost/internal/platform"
	"github.com/termhost/termhost/internal/session"
)

var cliLog = logging.ForComponent(logging.CompCLI)

var (
	noteStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	matchStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

// resizeInterval limits how often SIGWINCH turns into a resize.
const resizeInterval = 50 * time.Millisecond

func run(ctx context.Context, opts *cliOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.configPath != "" {
		config.SetPath(opts.configPath)
	}
	cfg, cfgErr := config.Load()
	s := resolveSettings(opts, cfg)

	setupLogging(s)
	defer logging.Shutdown()
	log.SetFlags(0)
	log.SetOutput(logging.NewStdlibWriter(logging.CompCLI))

	if cfgErr != nil {
		warn(cfgErr.Error())
	}
	for _, w := range s.warnings {
		warn(w)
	}
	cliLog.Info("termhost_started",
		slog.Int("pid", os.Getpid()),
		slog.String("cursor_blink", s.cursorBlink.String()),
		slog.String("cursor_shape", s.cursorShape.String()),
		slog.String("scrollbar_policy", s.scrollbarPolicy.String()),
		slog.Int("scrollback_lines", s.scrollbackLines))

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	stdinFd, stdoutFd := int(os.Stdin.Fd()), int(os.Stdout.Fd())
	interactive := term.IsTerminal(stdinFd) && term.IsTerminal(stdoutFd)
	cols, rows := s.cols, s.rows
	if interactive && s.geometry == "" {
		if w, h, err := term.GetSize(stdoutFd); err == nil {
			cols, rows = w, h
		}
	}

	l, err := loop.New()
	if err != nil {
		return err
	}
	defer l.Close()

	buffer := display.NewVTBuffer(cols, rows)
	buffer.SetScrollbackLines(s.scrollbackLines)
	window := display.NewHeadlessWindow()
	var sink bridge.Sink = buffer
	var out io.Writer = os.Stdout
	if interactive {
		sink = &mirror{buffer: buffer, out: os.Stdout}
		out = crlfWriter{w: os.Stdout}
	}

	h := host.New(host.Config{
		Session: session.Config{
			Loop:       l,
			Buffer:     buffer,
			Window:     window,
			Bridge:     bridge.New(sink),
			OutputPath: s.outputFile,
			Debug:      s.debug,
		},
		Geometry:      geometry.Options{DisableHints: !s.geometryHints},
		RemoveOnMatch: s.removeOnMatch,
		IconTitle:     s.iconTitle,
		Out:           out,
		Style:         func(s string) string { return matchStyle.Render(s) },
	})
	defer h.Shutdown()
	buffer.OnTitle = func(title string) {
		h.Dispatch(display.Event{Kind: display.TitleChanged, Text: title})
	}

	if s.builtinDingus {
		h.Registry().RegisterBuiltins()
	}
	for _, err := range h.SetUserPatterns(s.patterns) {
		warn(err.Error())
	}

	sess, err := startSession(h.Controller(), s)
	if err != nil {
		return err
	}
	h.Track(sess)

	window.Realize()
	coord := h.Geometry()
	coord.Realized()
	if err := coord.ApplyGeometry(s.geometry); err != nil {
		warn("Could not parse the geometry spec passed to --geometry")
	}
	if s.fontScale != 1 {
		coord.OnFontScaleRequest(s.fontScale)
	}

	restoreTerm := func() {}
	if interactive {
		restore, err := enterRaw(stdinFd, h.Registry().Len() > 0)
		if err != nil {
			warn(err.Error())
		} else {
			restoreTerm = sync.OnceFunc(restore)
			defer restoreTerm()
		}
	}
	defer watchInput(l, h, sess, stdinFd)()

	// The loop outlives the signal context so the session can still be
	// closed from it after an interrupt.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		if err := l.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	if interactive {
		g.Go(func() error { return forwardResizes(gctx, l, h, stdoutFd) })
	}
	g.Go(func() error { return dumpOnSignal(gctx) })
	startConfigWatcher(gctx, g, l, h, opts.dingus)

	select {
	case <-sess.Done():
	case <-ctx.Done():
		l.Post(sess.Close)
		<-sess.Done()
	}
	restoreTerm()
	if code, ok := sess.ExitStatus(); ok {
		cliLog.Info("child_finished", slog.Int("code", code))
	}

	if s.keep {
		<-ctx.Done()
	}
	cancel()
	return g.Wait()
}

// startSession starts the console watch, shell or placeholder child
// selected by s. A console that cannot be opened falls back to a shell.
func startSession(ctrl *session.Controller, s settings) (*session.Session, error) {
	if s.console {
		sess, err := ctrl.StartMonitor(s.consoleDevice, s.ptyFlags)
		if err == nil {
			return sess, nil
		}
		warn(consoleWarning(err))
	}

	if s.noShell {
		sess, err := ctrl.StartPlaceholder(s.ptyFlags)
		if err != nil {
			return nil, fmt.Errorf("failed to create PTY: %w", err)
		}
		note(fmt.Sprintf("Child PID is %d (mine is %d).", sess.PID(), os.Getpid()))
		return sess, nil
	}

	sess, err := ctrl.StartShell(session.ShellOptions{
		Command:    s.command,
		Env:        s.env,
		WorkingDir: s.workingDir,
		Flags:      s.ptyFlags,
		Term:       s.term,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fork: %w", err)
	}
	note(fmt.Sprintf("Fork succeeded, PID %d", sess.PID()))
	return sess, nil
}

// consoleWarning words the notice shown when the console cannot be
// watched and a shell is started instead.
func consoleWarning(err error) string {
	if session.IsUnsupported(err) {
		if platform.IsWSL() {
			return "Console watching is not available on WSL; starting a shell instead."
		}
		return "Console watching is not supported on this system; starting a shell instead."
	}
	return fmt.Sprintf("Could not open console: %v", err)
}

// enterRaw puts the terminal in raw mode, optionally with mouse reports,
// and returns the function that undoes it.
func enterRaw(fd int, mouse bool) (func(), error) {
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("raw mode: %w", err)
	}
	if mouse {
		_, _ = os.Stdout.WriteString(mouseOn)
	}
	return func() {
		if mouse {
			_, _ = os.Stdout.WriteString(mouseOff)
		}
		_ = term.Restore(fd, state)
	}, nil
}

// watchInput forwards stdin to the session from the loop. Mouse presses
// go to the host for dingus checks. The returned function puts stdin back
// in blocking mode.
func watchInput(l *loop.Loop, h *host.Host, sess *session.Session, fd int) func() {
	if sess.Mode == session.ModeConsoleWatch {
		return func() {}
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		cliLog.Warn("stdin_nonblock_failed", slog.String("error", err.Error()))
		return func() {}
	}

	var filter inputFilter
	buf := make([]byte, 4096)
	var id loop.WatchID
	id = l.Watch(fd, func() {
		n, err := unix.Read(fd, buf)
		if n > 0 {
			keys, clicks := filter.Feed(buf[:n])
			for _, c := range clicks {
				h.ButtonPress(c.button, c.col, c.row, c.ctrl)
			}
			if len(keys) > 0 {
				if _, err := sess.Write(keys); err != nil {
					cliLog.Debug("input_dropped", slog.String("error", err.Error()))
				}
			}
			return
		}
		if n == 0 || (err != nil && !errors.Is(err, unix.EAGAIN) && !errors.Is(err, unix.EINTR)) {
			l.Release(id)
		}
	})
	go func() {
		<-sess.Done()
		l.Post(func() { l.Release(id) })
	}()
	return func() { _ = unix.SetNonblock(fd, false) }
}

// forwardResizes turns SIGWINCH into resize requests, at most one per
// resizeInterval.
func forwardResizes(ctx context.Context, l *loop.Loop, h *host.Host, fd int) error {
	winch := make(chan os.Signal, 1)
	signal.Notify(winch, syscall.SIGWINCH)
	defer signal.Stop(winch)

	limiter := rate.NewLimiter(rate.Every(resizeInterval), 1)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-winch:
			if err := limiter.Wait(ctx); err != nil {
				return nil
			}
			cols, rows, err := term.GetSize(fd)
			if err != nil {
				continue
			}
			l.Post(func() {
				h.Dispatch(display.Event{Kind: display.ResizeWindow, Cols: cols, Rows: rows})
			})
		}
	}
}

// dumpOnSignal writes the log ring buffer to a file on SIGUSR1.
func dumpOnSignal(ctx context.Context) error {
	usr1 := make(chan os.Signal, 1)
	signal.Notify(usr1, syscall.SIGUSR1)
	defer signal.Stop(usr1)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-usr1:
			dumpPath := filepath.Join(os.TempDir(), fmt.Sprintf("termhost-dump-%d.jsonl", time.Now().Unix()))
			if err := logging.DumpRingBuffer(dumpPath); err != nil {
				cliLog.Error("crash_dump_failed", slog.String("error", err.Error()))
			} else {
				cliLog.Info("crash_dump_written", slog.String("path", dumpPath))
			}
		}
	}
}

// startConfigWatcher re-registers the user patterns when the config file
// changes.
func startConfigWatcher(ctx context.Context, g *errgroup.Group, l *loop.Loop, h *host.Host, flagPatterns []string) {
	path, err := config.Path()
	if err != nil {
		return
	}
	w, err := config.NewWatcher(path, func(cfg *config.Config, err error) {
		if err != nil {
			return
		}
		patterns := append(append([]string(nil), cfg.Match.Patterns...), flagPatterns...)
		l.Post(func() {
			for _, err := range h.SetUserPatterns(patterns) {
				cliLog.Warn("pattern_skipped", slog.String("error", err.Error()))
			}
		})
	})
	if err != nil {
		cliLog.Warn("config_watch_unavailable", slog.String("error", err.Error()))
		return
	}
	g.Go(func() error {
		w.Start()
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		w.Stop()
		return nil
	})
}

// setupLogging initializes logging from the [logs] settings. Debug mode
// logs to the state directory when no dir is configured.
func setupLogging(s settings) {
	ls := config.GetLogSettings()
	debug := s.debug || ls.Debug
	dir := ls.Dir
	if dir == "" && debug {
		dir = defaultLogDir()
	}
	if dir != "" {
		_ = os.MkdirAll(dir, 0o755)
	}
	level := ls.Level
	if debug {
		level = "debug"
	}
	logging.Init(logging.Config{
		LogDir:                dir,
		Level:                 level,
		Format:                ls.Format,
		MaxSizeMB:             ls.MaxSizeMB,
		MaxBackups:            ls.MaxBackups,
		MaxAgeDays:            ls.MaxAgeDays,
		Compress:              ls.Compress,
		RingBufferSize:        4 << 20,
		AggregateIntervalSecs: 30,
		Debug:                 debug,
	})
}

func defaultLogDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "termhost")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "state", "termhost")
	}
	return filepath.Join(os.TempDir(), "termhost")
}

func note(msg string) {
	fmt.Println(noteStyle.Render(msg))
}

func warn(msg string) {
	cliLog.Warn("cli_warning", slog.String("message", msg))
	fmt.Fprintln(os.Stderr, warnStyle.Render("Warning: "+msg))
}
