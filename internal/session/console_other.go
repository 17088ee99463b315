//go:build !(linux || darwin || freebsd)

package session

import "os"

func openConsole(path string) (*os.File, error) {
	return nil, &OpenError{Op: "attach", Path: path, Err: ErrUnsupported}
}
