package session

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupported means the platform cannot attach an auxiliary console.
	ErrUnsupported = errors.New("console attach not supported on this platform")
	// ErrEmptyCommand means the command line tokenized to nothing.
	ErrEmptyCommand = errors.New("empty command")
	// ErrClosed is returned for operations on a torn down session.
	ErrClosed = errors.New("session closed")
	// ErrNoShell means no command or $SHELL was given and the /bin/sh
	// fallback is disabled.
	ErrNoShell = errors.New("no shell available and fallback disabled")
)

// SpawnError reports a failure to parse a command line or start a child.
type SpawnError struct {
	Op      string // "parse", "open pty", "start"
	Command string
	Err     error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawn %s %q: %v", e.Op, e.Command, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// OpenError reports a failure to open or attach a watched device.
type OpenError struct {
	Op   string // "open", "attach"
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// IOError reports a failed read of the watched descriptor or a failed
// write of the output snapshot.
type IOError struct {
	Op   string // "read", "write contents"
	Path string
	Err  error
}

func (e *IOError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }
