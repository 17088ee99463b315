// Package session owns the processes and descriptors whose output is shown
// in the display buffer, and the order in which they are torn down.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"syscall"

	"github.com/creack/pty"
	"github.com/google/uuid"
	"github.com/mattn/go-shellwords"
	"golang.org/x/sys/unix"

	"github.com/termhost/termhost/internal/bridge"
	"github.com/termhost/termhost/internal/display"
	"github.com/termhost/termhost/internal/logging"
	"github.com/termhost/termhost/internal/loop"
)

var sessionLog = logging.ForComponent(logging.CompSession)

const (
	// FallbackShell is used when neither a command nor $SHELL is set.
	FallbackShell = "/bin/sh"
	// DefaultDrainLimit bounds the reads made at child exit.
	DefaultDrainLimit = 32
	// DefaultTerm is the TERM given to children unless ShellOptions.Term
	// names another.
	DefaultTerm = "xterm-256color"
)

// Config holds the collaborators a Controller drives.
type Config struct {
	Loop   *loop.Loop
	Buffer display.Buffer
	// Window is closed at teardown. Optional.
	Window display.Window
	// Bridge defaults to one feeding Buffer.
	Bridge *bridge.Bridge
	// Logger defaults to the session component logger.
	Logger *slog.Logger

	// OutputPath, when set, receives the buffer contents at teardown.
	OutputPath string
	// DrainLimit bounds the final drain; DefaultDrainLimit when zero.
	DrainLimit int
	// Debug feeds diagnostic banners into the buffer.
	Debug bool
}

// ShellOptions describe a shell or command session.
type ShellOptions struct {
	// Command is parsed with POSIX shell quoting. Empty means the user's
	// shell.
	Command string
	// Env entries ("KEY=VALUE") are added to the inherited environment.
	Env        []string
	WorkingDir string
	Flags      PtyFlags
	// Term is the child's TERM; DefaultTerm when empty.
	Term string
}

// Controller starts sessions.
type Controller struct {
	loop       *loop.Loop
	buffer     display.Buffer
	window     display.Window
	bridge     *bridge.Bridge
	log        *slog.Logger
	outputPath string
	drainLimit int
	debug      bool

	getenv   func(string) string
	hostname func() (string, error)
}

// NewController returns a controller for cfg.
func NewController(cfg Config) *Controller {
	c := &Controller{
		loop:       cfg.Loop,
		buffer:     cfg.Buffer,
		window:     cfg.Window,
		bridge:     cfg.Bridge,
		log:        cfg.Logger,
		outputPath: cfg.OutputPath,
		drainLimit: cfg.DrainLimit,
		debug:      cfg.Debug,
		getenv:     os.Getenv,
		hostname:   os.Hostname,
	}
	if c.bridge == nil {
		c.bridge = bridge.New(cfg.Buffer)
	}
	if c.log == nil {
		c.log = sessionLog
	}
	if c.drainLimit <= 0 {
		c.drainLimit = DefaultDrainLimit
	}
	return c
}

func (c *Controller) newSession(mode Mode, flags PtyFlags) *Session {
	id := uuid.NewString()
	return &Session{
		ID:         id,
		Mode:       mode,
		Flags:      flags,
		OutputPath: c.outputPath,
		ctrl:       c,
		log:        c.log.With(slog.String("session", id[:8]), slog.String("mode", mode.String())),
		fd:         -1,
		done:       make(chan struct{}),
	}
}

// resolveCommand picks the command line: explicit, then $SHELL, then the
// fallback shell unless PtyNoFallback is set.
func (c *Controller) resolveCommand(opts ShellOptions) (string, Mode, error) {
	if strings.TrimSpace(opts.Command) != "" {
		return opts.Command, ModeExplicitCommand, nil
	}
	if sh := c.getenv("SHELL"); sh != "" {
		return sh, ModeShell, nil
	}
	if opts.Flags.Has(PtyNoFallback) {
		return "", ModeShell, ErrNoShell
	}
	return FallbackShell, ModeShell, nil
}

// StartShell starts a command, or the user's shell, on a new PTY.
func (c *Controller) StartShell(opts ShellOptions) (*Session, error) {
	cmdline, mode, err := c.resolveCommand(opts)
	s := c.newSession(mode, opts.Flags)
	s.setState(StateSpawning)
	if err != nil {
		s.fail(err)
		return nil, &SpawnError{Op: "resolve", Command: opts.Command, Err: err}
	}

	argv, err := shellwords.Parse(cmdline)
	if err != nil {
		s.fail(err)
		return nil, &SpawnError{Op: "parse", Command: cmdline, Err: err}
	}
	if len(argv) == 0 {
		s.fail(ErrEmptyCommand)
		return nil, &SpawnError{Op: "parse", Command: cmdline, Err: ErrEmptyCommand}
	}

	if c.debug {
		c.buffer.Feed([]byte("Launching interactive shell...\r\n"))
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Env = childEnv(opts.Term, opts.Env)
	cmd.Dir = opts.WorkingDir
	return c.startOnPTY(s, cmd, cmdline)
}

// StartPlaceholder starts a child that only prints a counter, used to
// exercise the host without a real program.
func (c *Controller) StartPlaceholder(flags PtyFlags) (*Session, error) {
	s := c.newSession(ModeNone, flags)
	s.setState(StateSpawning)

	exe, err := os.Executable()
	if err != nil {
		s.fail(err)
		return nil, &SpawnError{Op: "resolve", Command: "placeholder", Err: err}
	}
	cmd := exec.Command(exe)
	cmd.Env = childEnv("", []string{PlaceholderEnv + "=1"})
	return c.startOnPTY(s, cmd, exe)
}

func childEnv(term string, extra []string) []string {
	if term == "" {
		term = DefaultTerm
	}
	env := append(os.Environ(), "TERM="+term)
	// Later entries win over inherited ones.
	return append(env, extra...)
}

// startOnPTY starts cmd with a new PTY as its controlling terminal. Every
// descriptor besides the PTY slave is close-on-exec, so the child never
// holds the master.
func (c *Controller) startOnPTY(s *Session, cmd *exec.Cmd, label string) (*Session, error) {
	cols, rows := c.buffer.Size()
	master, err := pty.StartWithSize(cmd, &pty.Winsize{Cols: uint16(cols), Rows: uint16(rows)})
	if err != nil {
		// StartWithSize has already closed both PTY ends.
		s.fail(err)
		return nil, &SpawnError{Op: "start", Command: label, Err: err}
	}

	fd := int(master.Fd())
	if err := unix.SetNonblock(fd, true); err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		_ = master.Close()
		s.fail(err)
		return nil, &SpawnError{Op: "start", Command: label, Err: fmt.Errorf("set pty nonblocking: %w", err)}
	}

	s.mu.Lock()
	s.pty = master
	s.fd = fd
	s.proc = cmd.Process
	s.pid = cmd.Process.Pid
	s.mu.Unlock()

	s.setState(StateRunning)
	s.attach()
	s.log.Info("child_started", slog.Int("pid", s.pid), slog.String("command", label),
		slog.String("pty_flags", s.Flags.String()))

	go c.waitChild(s, cmd)
	return s, nil
}

// waitChild reaps the child and delivers its exit on the loop.
func (c *Controller) waitChild(s *Session, cmd *exec.Cmd) {
	err := cmd.Wait()
	code := exitCode(cmd.ProcessState, err)
	s.log.Debug("child_reaped", slog.Int("pid", s.PID()), slog.Int("code", code))
	c.loop.Post(func() { s.OnChildExited(code) })
}

// exitCode converts a wait result to a shell-style status: the exit code,
// or 128 plus the signal number for a killed child.
func exitCode(ps *os.ProcessState, err error) int {
	if ps == nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			ps = exitErr.ProcessState
		}
	}
	if ps == nil {
		return -1
	}
	if ws, ok := ps.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return ps.ExitCode()
}
