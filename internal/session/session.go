package session

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/termhost/termhost/internal/bridge"
	"github.com/termhost/termhost/internal/loop"
)

// Session is one output source (a child on a PTY, or a watched console)
// feeding the display buffer.
type Session struct {
	ID         string
	Mode       Mode
	Flags      PtyFlags
	OutputPath string

	ctrl *Controller
	log  *slog.Logger

	// readMu serializes bridge reads between the watch and the final drain.
	readMu sync.Mutex
	// fdMu guards the descriptor's lifetime: I/O holds it shared and
	// teardown holds it exclusively while closing.
	fdMu sync.RWMutex

	mu       sync.Mutex
	state    State
	pid      int
	proc     *os.Process
	pty      *os.File
	console  *os.File
	fd       int
	watch    loop.WatchID
	watching bool
	exited   bool
	exitCode int
	done     chan struct{}
}

// State returns the lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// PID returns the child's process id, or 0 when there is no child.
func (s *Session) PID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pid
}

// ExitStatus returns the child's exit code once it has exited.
func (s *Session) ExitStatus() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exitCode, s.exited
}

// Done is closed when the session is torn down.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Watching reports whether the output watch is still registered.
func (s *Session) Watching() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.watching
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	prev := s.state
	s.state = st
	s.mu.Unlock()
	s.log.Debug("state_changed", slog.String("from", prev.String()), slog.String("to", st.String()))
}

// fail moves a session that never started straight to TornDown.
func (s *Session) fail(err error) {
	s.setState(StateTornDown)
	close(s.done)
	s.log.Warn("spawn_failed", slog.String("error", err.Error()))
}

// attach registers the output descriptor with the loop.
func (s *Session) attach() {
	s.mu.Lock()
	fd := s.fd
	s.mu.Unlock()

	id := s.ctrl.loop.Watch(fd, s.onReadable)

	s.mu.Lock()
	s.watch = id
	s.watching = true
	s.mu.Unlock()
}

func (s *Session) onReadable() {
	res := s.read()
	switch res.Status {
	case bridge.Continue:
	case bridge.EndOfStream:
		s.releaseWatch("end_of_stream")
	case bridge.Error:
		err := &IOError{Op: "read", Err: res.Err}
		s.log.Warn("watch_read_failed", slog.String("error", err.Error()))
		s.releaseWatch("read_error")
	}
}

func (s *Session) read() bridge.Result {
	s.readMu.Lock()
	defer s.readMu.Unlock()
	s.fdMu.RLock()
	defer s.fdMu.RUnlock()

	fd := s.descriptor()
	if fd < 0 {
		return bridge.Result{Status: bridge.EndOfStream}
	}
	return s.ctrl.bridge.ReadAndForward(bridge.FDReader(fd))
}

// descriptor returns the output descriptor, or -1 once it is closed.
func (s *Session) descriptor() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fd
}

// releaseWatch drops the output watch. Only the first call does anything.
func (s *Session) releaseWatch(reason string) bool {
	s.mu.Lock()
	if !s.watching {
		s.mu.Unlock()
		s.log.Debug("watch_release_ignored", slog.String("reason", reason))
		return false
	}
	s.watching = false
	id := s.watch
	s.mu.Unlock()

	s.ctrl.loop.Release(id)
	s.log.Debug("watch_released", slog.String("reason", reason))
	return true
}

// OnChildExited records the child's exit and tears the session down. Only
// the first call has any effect.
func (s *Session) OnChildExited(code int) {
	s.mu.Lock()
	if s.state != StateRunning {
		state := s.state
		s.mu.Unlock()
		s.log.Debug("child_exit_ignored", slog.Int("code", code), slog.String("state", state.String()))
		return
	}
	s.state = StateExitPending
	s.exited = true
	s.exitCode = code
	s.mu.Unlock()

	s.log.Info("child_exited", slog.Int("code", code))
	s.teardown("child_exited")
}

// Close tears the session down without waiting for the child, which is
// sent SIGHUP as when a terminal window goes away. Closing twice, or after
// the child has exited, does nothing.
func (s *Session) Close() {
	s.mu.Lock()
	if s.state != StateRunning {
		s.mu.Unlock()
		return
	}
	s.state = StateExitPending
	proc := s.proc
	s.mu.Unlock()

	if proc != nil {
		if err := proc.Signal(syscall.SIGHUP); err != nil && !errors.Is(err, os.ErrProcessDone) {
			s.log.Debug("child_signal_failed", slog.String("error", err.Error()))
		}
	}
	s.teardown("closed")
}

// teardown runs the ordered shutdown: bounded drain, watch release, output
// snapshot, descriptor close, window close.
func (s *Session) teardown(reason string) {
	if s.Watching() {
		s.drain()
	}
	s.releaseWatch(reason)

	if s.OutputPath != "" {
		// Failures are logged inside and never stop teardown.
		_ = s.WriteContentsToFile(s.OutputPath)
	}

	s.fdMu.Lock()
	s.mu.Lock()
	f := s.pty
	if f == nil {
		f = s.console
	}
	s.pty, s.console = nil, nil
	s.fd = -1
	s.mu.Unlock()
	if f != nil {
		if err := f.Close(); err != nil {
			s.log.Debug("descriptor_close_failed", slog.String("error", err.Error()))
		}
	}
	s.fdMu.Unlock()

	if w := s.ctrl.window; w != nil {
		w.Close()
	}

	s.setState(StateTornDown)
	close(s.done)
	s.log.Info("session_torn_down", slog.String("reason", reason))
}

// drain forwards output still queued in the descriptor, up to DrainLimit
// reads. It stops at the first read that returns nothing, so it is not a
// guaranteed flush.
func (s *Session) drain() {
	total := 0
	for i := 0; i < s.ctrl.drainLimit; i++ {
		res := s.read()
		if res.Status != bridge.Continue || res.N == 0 {
			break
		}
		total += res.N
	}
	if total > 0 {
		s.log.Debug("output_drained", slog.Int("bytes", total))
	}
}

// WriteContentsToFile writes the display buffer's text to path, replacing
// any existing file.
func (s *Session) WriteContentsToFile(path string) error {
	contents := s.ctrl.buffer.Contents()
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		ioErr := &IOError{Op: "write contents", Path: path, Err: err}
		s.log.Error("contents_write_failed", slog.String("path", path), slog.String("error", err.Error()))
		return ioErr
	}
	s.log.Info("contents_written", slog.String("path", path), slog.Int("bytes", len(contents)))
	return nil
}

// Write sends input to the child.
func (s *Session) Write(p []byte) (int, error) {
	s.mu.Lock()
	state, fd, mode := s.state, s.fd, s.Mode
	s.mu.Unlock()

	if state != StateRunning || fd < 0 {
		return 0, ErrClosed
	}
	if mode == ModeConsoleWatch {
		return 0, &IOError{Op: "write", Err: errors.New("console session is read-only")}
	}

	written := 0
	for written < len(p) {
		n, err := s.writeOnce(p[written:])
		if n > 0 {
			written += n
		}
		switch {
		case err == nil:
		case errors.Is(err, ErrClosed):
			return written, err
		case errors.Is(err, unix.EAGAIN), errors.Is(err, unix.EINTR):
			waitWritable(fd, 100*time.Millisecond)
		default:
			return written, &IOError{Op: "write", Err: err}
		}
	}
	return written, nil
}

// writeOnce makes one write to the descriptor unless teardown closed it.
func (s *Session) writeOnce(p []byte) (int, error) {
	s.fdMu.RLock()
	defer s.fdMu.RUnlock()
	fd := s.descriptor()
	if fd < 0 {
		return 0, ErrClosed
	}
	return unix.Write(fd, p)
}

func waitWritable(fd int, timeout time.Duration) {
	fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLOUT}}
	_, _ = unix.Poll(fds, int(timeout/time.Millisecond))
}

// Resize sets the PTY window size. Console sessions ignore it.
func (s *Session) Resize(cols, rows int) error {
	if cols <= 0 || rows <= 0 {
		return fmt.Errorf("invalid size %dx%d", cols, rows)
	}
	s.fdMu.RLock()
	defer s.fdMu.RUnlock()
	s.mu.Lock()
	state, fd, isPty := s.state, s.fd, s.pty != nil
	s.mu.Unlock()

	if state != StateRunning || fd < 0 {
		return ErrClosed
	}
	if !isPty {
		return nil
	}
	// The raw descriptor is used because File.Fd would switch the master
	// back to blocking mode.
	ws := &unix.Winsize{Col: uint16(cols), Row: uint16(rows)}
	if err := unix.IoctlSetWinsize(fd, unix.TIOCSWINSZ, ws); err != nil {
		return fmt.Errorf("set pty size: %w", err)
	}
	s.log.Debug("pty_resized", slog.Int("cols", cols), slog.Int("rows", rows))
	return nil
}
