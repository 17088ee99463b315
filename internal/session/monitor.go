package session

import (
	"errors"
	"log/slog"
	"os"

	"golang.org/x/sys/unix"

	"github.com/termhost/termhost/internal/platform"
)

// DefaultConsoleDevice is the device watched in console mode.
const DefaultConsoleDevice = "/dev/console"

// StartMonitor opens devicePath read-only, without making it the
// controlling terminal, and redirects console output to it. The window
// claims the MIT_CONSOLE_<hostname> selection once realized; losing it
// closes the session.
func (c *Controller) StartMonitor(devicePath string, flags PtyFlags) (*Session, error) {
	if devicePath == "" {
		devicePath = DefaultConsoleDevice
	}
	s := c.newSession(ModeConsoleWatch, flags)
	s.setState(StateSpawning)

	if !platform.SupportsConsoleAttach() {
		s.fail(ErrUnsupported)
		return nil, &OpenError{Op: "attach", Path: devicePath, Err: ErrUnsupported}
	}

	f, err := openConsole(devicePath)
	if err != nil {
		s.fail(err)
		return nil, err
	}
	return c.watchDevice(s, f, devicePath)
}

// watchDevice makes the opened device f the session's output source.
func (c *Controller) watchDevice(s *Session, f *os.File, devicePath string) (*Session, error) {
	fd := int(f.Fd())
	if err := unix.SetNonblock(fd, true); err != nil {
		_ = f.Close()
		s.fail(err)
		return nil, &OpenError{Op: "open", Path: devicePath, Err: err}
	}

	s.mu.Lock()
	s.console = f
	s.fd = fd
	s.mu.Unlock()

	s.setState(StateRunning)
	s.attach()
	s.log.Info("console_attached", slog.String("device", devicePath))

	if c.debug {
		c.buffer.Feed([]byte("Console log for ...\r\n"))
	}
	if c.window != nil {
		c.window.OnRealize(func() { c.claimConsole(s) })
	}
	return s, nil
}

// ConsoleSelection returns the selection name announcing a console owner.
func ConsoleSelection(hostname string) string {
	return "MIT_CONSOLE_" + hostname
}

func (c *Controller) claimConsole(s *Session) {
	host, err := c.hostname()
	if err != nil {
		s.log.Warn("hostname_failed", slog.String("error", err.Error()))
	}
	name := ConsoleSelection(host)
	if err := c.window.ClaimSelection(name, s.Close); err != nil {
		s.log.Warn("selection_claim_failed", slog.String("selection", name), slog.String("error", err.Error()))
		return
	}
	s.log.Debug("selection_claimed", slog.String("selection", name))
}

// IsUnsupported reports whether err means console attach is unavailable.
func IsUnsupported(err error) bool {
	return errors.Is(err, ErrUnsupported)
}
