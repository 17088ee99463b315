package session

import (
	"fmt"
	"io"
	"os"
	"time"
)

// PlaceholderEnv marks a re-executed binary as the placeholder child.
const PlaceholderEnv = "TERMHOST_PLACEHOLDER_CHILD"

// RunPlaceholderChildIfRequested turns the process into the placeholder
// child when PlaceholderEnv is set, and never returns in that case. Call it
// first thing in main (and TestMain).
func RunPlaceholderChildIfRequested() {
	if os.Getenv(PlaceholderEnv) != "1" {
		return
	}
	runPlaceholder(os.Stdout, os.Stderr, time.Second, -1)
	os.Exit(0)
}

// runPlaceholder prints a counter once per interval, every third line to
// stderr. A negative limit counts forever.
func runPlaceholder(stdout, stderr io.Writer, interval time.Duration, limit int) {
	for i := 0; limit < 0 || i < limit; i++ {
		w := stdout
		if i%3 == 2 {
			w = stderr
		}
		fmt.Fprintf(w, "%d\n", i)
		time.Sleep(interval)
	}
}
