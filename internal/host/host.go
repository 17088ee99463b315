// Package host ties a terminal session to its display, the dingus
// registry and the geometry coordinator, and handles pointer input.
package host

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/termhost/termhost/internal/display"
	"github.com/termhost/termhost/internal/geometry"
	"github.com/termhost/termhost/internal/logging"
	"github.com/termhost/termhost/internal/match"
	"github.com/termhost/termhost/internal/session"
)

var hostLog = logging.ForComponent(logging.CompHost)

// MatchButton is the pointer button that checks for dingus matches.
const MatchButton = 3

// Config describes the pieces a Host connects.
type Config struct {
	Session  session.Config
	Registry *match.Registry
	// Geometry configures the coordinator over Session.Window and
	// Session.Buffer. OnGridResize defaults to Host.Resize.
	Geometry geometry.Options

	// RemoveOnMatch removes a rule after it first matches a click.
	RemoveOnMatch bool
	// IconTitle forwards icon title changes to the window.
	IconTitle bool

	// Out receives the user-facing diagnostic lines. Default: os.Stdout
	Out io.Writer
	// Style decorates diagnostic lines. Optional.
	Style func(string) string
}

// Host owns the wiring for one terminal window.
type Host struct {
	ctrl     *session.Controller
	buffer   display.Buffer
	window   display.Window
	registry *match.Registry
	geometry *geometry.Coordinator
	events   *display.Events

	removeOnMatch bool
	out           io.Writer
	style         func(string) string

	mu        sync.Mutex
	userRules []int
	session   *session.Session
}

// New builds a host from cfg.
func New(cfg Config) *Host {
	h := &Host{
		buffer:        cfg.Session.Buffer,
		window:        cfg.Session.Window,
		registry:      cfg.Registry,
		removeOnMatch: cfg.RemoveOnMatch,
		out:           cfg.Out,
		style:         cfg.Style,
	}
	if h.registry == nil {
		h.registry = match.NewRegistry()
	}
	if h.out == nil {
		h.out = os.Stdout
	}
	if h.style == nil {
		h.style = func(s string) string { return s }
	}
	if h.window != nil && h.buffer != nil {
		opts := cfg.Geometry
		if opts.OnGridResize == nil {
			opts.OnGridResize = h.Resize
		}
		h.geometry = geometry.New(h.window, h.buffer, opts)
	}
	h.ctrl = session.NewController(cfg.Session)
	if h.window != nil {
		h.events = &display.Events{
			Window:    h.window,
			IconTitle: cfg.IconTitle,
			OnStatus:  h.printStatus,
		}
		if h.geometry != nil {
			h.events.Geometry = h.geometry
		}
	}
	return h
}

// Controller starts the sessions shown by this host.
func (h *Host) Controller() *session.Controller { return h.ctrl }

// Registry returns the dingus registry.
func (h *Host) Registry() *match.Registry { return h.registry }

// Geometry returns the geometry coordinator, or nil without a window.
func (h *Host) Geometry() *geometry.Coordinator { return h.geometry }

// Track makes s the session that follows grid resizes.
func (h *Host) Track(s *session.Session) {
	h.mu.Lock()
	h.session = s
	h.mu.Unlock()
}

// Resize sets the buffer and the tracked session's PTY to cols x rows.
func (h *Host) Resize(cols, rows int) {
	if h.buffer != nil {
		h.buffer.Resize(cols, rows)
	}
	h.mu.Lock()
	s := h.session
	h.mu.Unlock()
	if s == nil {
		return
	}
	if err := s.Resize(cols, rows); err != nil {
		hostLog.Debug("pty_resize_skipped", slog.String("error", err.Error()))
	}
}

// Dispatch routes a buffer request to the window and coordinator.
func (h *Host) Dispatch(ev display.Event) {
	if h.events == nil {
		return
	}
	h.events.Dispatch(ev)
}

// ButtonPress handles a pointer press over cell (col, row). The match
// button checks for a dingus under the pointer, or copies the selection
// with ctrl held. It returns the match, if any.
func (h *Host) ButtonPress(button, col, row int, ctrl bool) (match.Match, bool) {
	if button != MatchButton {
		return match.Match{}, false
	}
	if ctrl {
		if h.window != nil {
			h.window.Copy()
		}
		return match.Match{}, false
	}
	if h.buffer == nil {
		return match.Match{}, false
	}

	m, ok := h.registry.CheckCell(h.buffer.Line(row), col)
	if !ok {
		return match.Match{}, false
	}
	h.printf("Matched `%s' (%d).", m.Text, m.ID)
	hostLog.Debug("dingus_matched", slog.Int("rule", m.ID), slog.Int("col", col), slog.Int("row", row))
	if h.removeOnMatch {
		h.registry.Remove(m.ID)
		h.forgetUserRule(m.ID)
	}
	return m, true
}

// SetUserPatterns replaces the rules registered from user patterns. Rules
// that fail to compile are skipped and their errors returned.
func (h *Host) SetUserPatterns(patterns []string) []error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, id := range h.userRules {
		h.registry.Remove(id)
	}
	ids, errs := h.registry.RegisterAll(patterns)
	h.userRules = ids
	hostLog.Info("user_patterns_set", slog.Int("registered", len(ids)), slog.Int("failed", len(errs)))
	return errs
}

// UserRules returns the ids registered by the last SetUserPatterns call.
func (h *Host) UserRules() []int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]int(nil), h.userRules...)
}

func (h *Host) forgetUserRule(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, rid := range h.userRules {
		if rid == id {
			h.userRules = append(h.userRules[:i], h.userRules[i+1:]...)
			return
		}
	}
}

// Shutdown drops every dingus rule.
func (h *Host) Shutdown() {
	h.mu.Lock()
	h.userRules = nil
	h.mu.Unlock()
	h.registry.RemoveAll()
}

func (h *Host) printStatus(status string) {
	h.printf("Status = `%s'.", status)
}

func (h *Host) printf(format string, args ...any) {
	fmt.Fprintln(h.out, h.style(fmt.Sprintf(format, args...)))
}
