//go:build linux || darwin || freebsd

package session

import (
	"os"

	"golang.org/x/sys/unix"
)

// openConsole opens path without acquiring it as controlling terminal and
// makes it receive console output (TIOCCONS).
func openConsole(path string) (*os.File, error) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_NOCTTY|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, &OpenError{Op: "open", Path: path, Err: err}
	}
	if err := unix.IoctlSetPointerInt(fd, unix.TIOCCONS, 1); err != nil {
		unix.Close(fd)
		return nil, &OpenError{Op: "attach", Path: path, Err: err}
	}
	return os.NewFile(uintptr(fd), path), nil
}
