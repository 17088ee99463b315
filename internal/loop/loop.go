// Package loop runs descriptor watches and posted tasks on a single
// goroutine. Every callback runs on the goroutine that called Run, so the
// state they touch needs no further synchronization.
package loop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/termhost/termhost/internal/logging"
)

var loopLog = logging.ForComponent(logging.CompLoop)

// ErrRunning is returned by Run when another Run is in progress.
var ErrRunning = errors.New("loop already running")

// WatchID identifies a registered watch. Zero is never issued.
type WatchID uint64

type watch struct {
	id WatchID
	fd int
	fn func()
}

// Loop is a poll(2)-based event loop. Watch, Release and Post may be called
// from any goroutine; callbacks only ever run inside Run.
type Loop struct {
	wakeR, wakeW int

	mu      sync.Mutex
	nextID  WatchID
	watches map[WatchID]*watch
	order   []WatchID
	tasks   []func()
	running bool
	quit    bool
	closed  bool
}

// New creates a loop with its wake pipe.
func New() (*Loop, error) {
	var p [2]int
	if err := unix.Pipe(p[:]); err != nil {
		return nil, fmt.Errorf("create wake pipe: %w", err)
	}
	for _, fd := range p {
		unix.CloseOnExec(fd)
		if err := unix.SetNonblock(fd, true); err != nil {
			unix.Close(p[0])
			unix.Close(p[1])
			return nil, fmt.Errorf("set wake pipe nonblocking: %w", err)
		}
	}
	return &Loop{
		wakeR:   p[0],
		wakeW:   p[1],
		watches: make(map[WatchID]*watch),
	}, nil
}

// Watch calls fn on the loop goroutine whenever fd is readable, has hung up
// or is in error. fn must consume the condition or Release the watch,
// otherwise it is called again on the next iteration.
func (l *Loop) Watch(fd int, fn func()) WatchID {
	l.mu.Lock()
	l.nextID++
	id := l.nextID
	l.watches[id] = &watch{id: id, fd: fd, fn: fn}
	l.order = append(l.order, id)
	l.mu.Unlock()

	loopLog.Debug("watch_added", slog.Uint64("id", uint64(id)), slog.Int("fd", fd))
	l.wake()
	return id
}

// Release removes a watch. It reports whether the watch was still active;
// releasing twice is harmless.
func (l *Loop) Release(id WatchID) bool {
	l.mu.Lock()
	w, ok := l.watches[id]
	if ok {
		delete(l.watches, id)
		for i, v := range l.order {
			if v == id {
				l.order = append(l.order[:i], l.order[i+1:]...)
				break
			}
		}
	}
	l.mu.Unlock()

	if !ok {
		loopLog.Debug("watch_release_ignored", slog.Uint64("id", uint64(id)))
		return false
	}
	loopLog.Debug("watch_released", slog.Uint64("id", uint64(id)), slog.Int("fd", w.fd))
	l.wake()
	return true
}

// Watching reports whether id is still registered.
func (l *Loop) Watching(id WatchID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.watches[id]
	return ok
}

// Post queues fn to run on the loop goroutine. Tasks run in posting order.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.tasks = append(l.tasks, fn)
	l.mu.Unlock()
	l.wake()
}

// Quit makes Run return after the current iteration.
func (l *Loop) Quit() {
	l.mu.Lock()
	l.quit = true
	l.mu.Unlock()
	l.wake()
}

func (l *Loop) wake() {
	l.mu.Lock()
	closed := l.closed
	l.mu.Unlock()
	if closed {
		return
	}
	// A full pipe already guarantees a wakeup.
	_, _ = unix.Write(l.wakeW, []byte{1})
}

func (l *Loop) drainWake() {
	var buf [64]byte
	for {
		n, err := unix.Read(l.wakeR, buf[:])
		if n <= 0 || err != nil {
			return
		}
	}
}

// Run dispatches watches and tasks until ctx is done or Quit is called.
func (l *Loop) Run(ctx context.Context) error {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return ErrRunning
	}
	l.running = true
	l.quit = false
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		l.running = false
		l.mu.Unlock()
	}()

	stop := context.AfterFunc(ctx, l.wake)
	defer stop()

	loopLog.Debug("loop_started")
	for {
		if err := ctx.Err(); err != nil {
			loopLog.Debug("loop_stopped", slog.String("reason", err.Error()))
			return err
		}

		l.mu.Lock()
		if l.quit {
			l.mu.Unlock()
			loopLog.Debug("loop_stopped", slog.String("reason", "quit"))
			return nil
		}
		fds := make([]unix.PollFd, 1, len(l.order)+1)
		fds[0] = unix.PollFd{Fd: int32(l.wakeR), Events: unix.POLLIN}
		ids := make([]WatchID, 0, len(l.order))
		for _, id := range l.order {
			fds = append(fds, unix.PollFd{Fd: int32(l.watches[id].fd), Events: unix.POLLIN})
			ids = append(ids, id)
		}
		pending := len(l.tasks) > 0
		l.mu.Unlock()

		timeout := -1
		if pending {
			timeout = 0
		}
		if _, err := unix.Poll(fds, timeout); err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return fmt.Errorf("poll: %w", err)
		}

		if fds[0].Revents != 0 {
			l.drainWake()
		}
		l.runTasks()

		for i, id := range ids {
			re := fds[i+1].Revents
			if re == 0 {
				continue
			}
			l.mu.Lock()
			w, ok := l.watches[id]
			l.mu.Unlock()
			if !ok {
				continue
			}
			if re&unix.POLLNVAL != 0 {
				loopLog.Warn("watch_invalid_fd", slog.Uint64("id", uint64(id)), slog.Int("fd", w.fd))
				l.Release(id)
				continue
			}
			logging.Aggregate(logging.CompLoop, "fd_ready", 1)
			w.fn()
		}
	}
}

// RunPending runs the queued tasks once on the calling goroutine. Tests and
// hosts without a running loop use it to deliver posted work.
func (l *Loop) RunPending() {
	l.mu.Lock()
	closed := l.closed
	l.mu.Unlock()
	if closed {
		return
	}
	l.drainWake()
	l.runTasks()
}

func (l *Loop) runTasks() {
	l.mu.Lock()
	tasks := l.tasks
	l.tasks = nil
	l.mu.Unlock()

	for _, fn := range tasks {
		fn()
	}
}

// Close releases every watch and the wake pipe. Tasks posted afterwards are
// dropped.
func (l *Loop) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	l.watches = make(map[WatchID]*watch)
	l.order = nil
	l.tasks = nil
	l.mu.Unlock()

	err := unix.Close(l.wakeW)
	if rerr := unix.Close(l.wakeR); err == nil {
		err = rerr
	}
	return err
}
