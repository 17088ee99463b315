package display

import (
	"fmt"
	"log/slog"
	"sync"
)

// HeadlessWindow is a Window with no on-screen presence. It keeps the state
// a real window would have so the host and tests can inspect it.
type HeadlessWindow struct {
	mu sync.Mutex

	realized  bool
	toplevel  bool
	onRealize []func()

	title     string
	iconTitle string
	hints     Hints
	hintsSet  bool
	cols      int
	rows      int
	x, y      int
	iconified bool
	maximized bool
	raised    int
	lowered   int
	refreshes int
	copies    int
	closed    bool

	selections map[string]func()

	// OnClose runs once, on the first Close.
	OnClose func()
}

// NewHeadlessWindow returns an unrealized toplevel window.
func NewHeadlessWindow() *HeadlessWindow {
	return &HeadlessWindow{toplevel: true, selections: make(map[string]func())}
}

// Realize marks the window realized and runs queued OnRealize callbacks.
func (w *HeadlessWindow) Realize() {
	w.mu.Lock()
	if w.realized {
		w.mu.Unlock()
		return
	}
	w.realized = true
	pending := w.onRealize
	w.onRealize = nil
	w.mu.Unlock()

	displayLog.Debug("window_realized")
	for _, fn := range pending {
		fn()
	}
}

func (w *HeadlessWindow) Realized() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.realized
}

func (w *HeadlessWindow) OnRealize(fn func()) {
	w.mu.Lock()
	if !w.realized {
		w.onRealize = append(w.onRealize, fn)
		w.mu.Unlock()
		return
	}
	w.mu.Unlock()
	fn()
}

// SetToplevel changes whether the window is a toplevel. Embedded windows
// ignore resize requests.
func (w *HeadlessWindow) SetToplevel(v bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.toplevel = v
}

func (w *HeadlessWindow) Toplevel() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.toplevel
}

func (w *HeadlessWindow) SetTitle(title string) {
	w.mu.Lock()
	w.title = title
	w.mu.Unlock()
	displayLog.Debug("window_title", slog.String("title", title))
}

func (w *HeadlessWindow) SetIconTitle(title string) {
	w.mu.Lock()
	w.iconTitle = title
	w.mu.Unlock()
}

func (w *HeadlessWindow) SetGeometryHints(h Hints) {
	w.mu.Lock()
	w.hints = h
	w.hintsSet = true
	w.mu.Unlock()
	displayLog.Debug("window_hints",
		slog.Int("base_width", h.BaseWidth), slog.Int("base_height", h.BaseHeight),
		slog.Int("width_inc", h.WidthInc), slog.Int("height_inc", h.HeightInc))
}

func (w *HeadlessWindow) ResizeToGeometry(cols, rows int) {
	w.mu.Lock()
	w.cols, w.rows = cols, rows
	w.mu.Unlock()
	displayLog.Debug("window_resize", slog.Int("cols", cols), slog.Int("rows", rows))
}

func (w *HeadlessWindow) Move(x, y int) {
	w.mu.Lock()
	w.x, w.y = x, y
	w.mu.Unlock()
}

func (w *HeadlessWindow) Iconify() {
	w.mu.Lock()
	w.iconified = true
	w.mu.Unlock()
}

func (w *HeadlessWindow) Deiconify() {
	w.mu.Lock()
	w.iconified = false
	w.mu.Unlock()
}

func (w *HeadlessWindow) Raise() {
	w.mu.Lock()
	w.raised++
	w.mu.Unlock()
}

func (w *HeadlessWindow) Lower() {
	w.mu.Lock()
	w.lowered++
	w.mu.Unlock()
}

func (w *HeadlessWindow) Maximize() {
	w.mu.Lock()
	w.maximized = true
	w.mu.Unlock()
}

func (w *HeadlessWindow) Restore() {
	w.mu.Lock()
	w.maximized = false
	w.mu.Unlock()
}

func (w *HeadlessWindow) Refresh() {
	w.mu.Lock()
	w.refreshes++
	w.mu.Unlock()
}

func (w *HeadlessWindow) ClaimSelection(name string, onLost func()) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return fmt.Errorf("claim selection %s: window closed", name)
	}
	w.selections[name] = onLost
	displayLog.Debug("selection_claimed", slog.String("selection", name))
	return nil
}

// LoseSelection simulates another client taking the named selection.
func (w *HeadlessWindow) LoseSelection(name string) {
	w.mu.Lock()
	onLost, ok := w.selections[name]
	delete(w.selections, name)
	w.mu.Unlock()
	if ok && onLost != nil {
		displayLog.Debug("selection_lost", slog.String("selection", name))
		onLost()
	}
}

// OwnsSelection reports whether the window holds the named selection.
func (w *HeadlessWindow) OwnsSelection(name string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.selections[name]
	return ok
}

func (w *HeadlessWindow) Copy() {
	w.mu.Lock()
	w.copies++
	w.mu.Unlock()
}

func (w *HeadlessWindow) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	w.selections = make(map[string]func())
	onClose := w.OnClose
	w.mu.Unlock()

	displayLog.Debug("window_closed")
	if onClose != nil {
		onClose()
	}
}

// State is a snapshot of a HeadlessWindow.
type State struct {
	Title     string
	IconTitle string
	Hints     Hints
	HintsSet  bool
	Cols      int
	Rows      int
	X, Y      int
	Iconified bool
	Maximized bool
	Raised    int
	Lowered   int
	Refreshes int
	Copies    int
	Closed    bool
}

// Snapshot returns the current window state.
func (w *HeadlessWindow) Snapshot() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return State{
		Title:     w.title,
		IconTitle: w.iconTitle,
		Hints:     w.hints,
		HintsSet:  w.hintsSet,
		Cols:      w.cols,
		Rows:      w.rows,
		X:         w.x,
		Y:         w.y,
		Iconified: w.iconified,
		Maximized: w.maximized,
		Raised:    w.raised,
		Lowered:   w.lowered,
		Refreshes: w.refreshes,
		Copies:    w.copies,
		Closed:    w.closed,
	}
}
