// Package bridge moves bytes from a readable descriptor into the display
// buffer, one bounded read per readiness notification.
package bridge

import (
	"errors"
	"io"
	"log/slog"
	"os"

	"golang.org/x/sys/unix"

	"github.com/termhost/termhost/internal/logging"
)

var bridgeLog = logging.ForComponent(logging.CompBridge)

// BufferSize bounds a single read.
const BufferSize = 2048

// Sink receives forwarded bytes. display.Buffer satisfies it.
type Sink interface {
	Feed(p []byte)
}

// Status is the outcome of one ReadAndForward call.
type Status int

const (
	// Continue means the watch stays armed.
	Continue Status = iota
	// EndOfStream means the source is exhausted or hung up.
	EndOfStream
	// Error means a hard read failure; Result.Err holds the cause.
	Error
)

func (s Status) String() string {
	switch s {
	case Continue:
		return "continue"
	case EndOfStream:
		return "end_of_stream"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Result reports what one read did.
type Result struct {
	Status Status
	N      int
	Err    error
}

// Bridge forwards reads to a sink. It holds no state across calls besides
// its scratch buffer, so partial multi-byte sequences pass through as-is.
type Bridge struct {
	sink Sink
	buf  [BufferSize]byte
}

// New returns a bridge feeding sink.
func New(sink Sink) *Bridge {
	return &Bridge{sink: sink}
}

// ReadAndForward performs one read of at most BufferSize bytes from src.
// It never blocks on a non-blocking source: would-block and interrupted
// reads come back as Continue with N == 0.
func (b *Bridge) ReadAndForward(src io.Reader) Result {
	n, err := src.Read(b.buf[:])
	if n > 0 {
		b.sink.Feed(b.buf[:n])
		logging.Aggregate(logging.CompBridge, "bytes_forwarded", int64(n))
		// A short read with an error still delivered data; the error
		// shows up again on the next read.
		return Result{Status: Continue, N: n}
	}

	switch {
	case err == nil:
		return Result{Status: EndOfStream}
	case isTransient(err):
		return Result{Status: Continue}
	case isEndOfStream(err):
		bridgeLog.Debug("end_of_stream", slog.String("cause", err.Error()))
		return Result{Status: EndOfStream}
	default:
		bridgeLog.Warn("read_failed", slog.String("error", err.Error()))
		return Result{Status: Error, Err: err}
	}
}

func isTransient(err error) bool {
	return errors.Is(err, unix.EAGAIN) ||
		errors.Is(err, unix.EWOULDBLOCK) ||
		errors.Is(err, unix.EINTR) ||
		errors.Is(err, os.ErrDeadlineExceeded)
}

// A PTY master whose slave side has closed reports EIO on Linux.
func isEndOfStream(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, unix.EIO)
}

// FDReader reads a raw descriptor with read(2), bypassing the runtime
// poller. The descriptor should be non-blocking.
type FDReader int

func (r FDReader) Read(p []byte) (int, error) {
	n, err := unix.Read(int(r), p)
	if err != nil {
		return 0, err
	}
	if n == 0 && len(p) > 0 {
		return 0, io.EOF
	}
	return n, nil
}
