package logging

import (
	"bytes"
	"log/slog"
	"strings"
)

// StdlibWriter lets the standard library "log" package feed the structured
// logger. Install it with log.SetOutput(logging.NewStdlibWriter(CompCLI))
// and log.SetFlags(0). A leading "[name] " tag selects the component.
type StdlibWriter struct {
	fallback string
}

// NewStdlibWriter returns a writer that logs untagged lines under fallback.
func NewStdlibWriter(fallback string) *StdlibWriter {
	return &StdlibWriter{fallback: fallback}
}

// Write logs each non-empty line of p at info level.
func (w *StdlibWriter) Write(p []byte) (int, error) {
	for _, line := range bytes.Split(p, []byte{'\n'}) {
		msg := string(bytes.TrimSpace(line))
		if msg == "" {
			continue
		}
		component, text := splitTag(msg, w.fallback)
		Logger().Info(text, slog.String("component", component))
	}
	return len(p), nil
}

// splitTag extracts a "[tag] " prefix and maps it to a known component.
func splitTag(msg, fallback string) (string, string) {
	if !strings.HasPrefix(msg, "[") {
		return fallback, msg
	}
	end := strings.Index(msg, "] ")
	if end <= 1 {
		return fallback, msg
	}
	return canonicalComponent(strings.ToLower(msg[1:end])), msg[end+2:]
}

func canonicalComponent(tag string) string {
	switch tag {
	case "pty", "child", "spawn", "session":
		return CompSession
	case "feed", "bridge", "watch":
		return CompBridge
	case "dingus", "match", "regex":
		return CompMatch
	case "geometry", "resize", "font":
		return CompGeometry
	case "loop", "poll":
		return CompLoop
	case "config":
		return CompConfig
	case "window", "display", "buffer":
		return CompDisplay
	default:
		return tag
	}
}
