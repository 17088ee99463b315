package display

import (
	"fmt"
	"log/slog"
)

// EventKind is a request emitted by the buffer on behalf of the child.
type EventKind int

const (
	TitleChanged EventKind = iota
	IconTitleChanged
	StatusLineChanged
	CharSizeChanged
	IncreaseFontSize
	DecreaseFontSize
	IconifyWindow
	DeiconifyWindow
	RaiseWindow
	LowerWindow
	MaximizeWindow
	RestoreWindow
	RefreshWindow
	ResizeWindow
	MoveWindow
)

var eventNames = map[EventKind]string{
	TitleChanged:      "title_changed",
	IconTitleChanged:  "icon_title_changed",
	StatusLineChanged: "status_line_changed",
	CharSizeChanged:   "char_size_changed",
	IncreaseFontSize:  "increase_font_size",
	DecreaseFontSize:  "decrease_font_size",
	IconifyWindow:     "iconify_window",
	DeiconifyWindow:   "deiconify_window",
	RaiseWindow:       "raise_window",
	LowerWindow:       "lower_window",
	MaximizeWindow:    "maximize_window",
	RestoreWindow:     "restore_window",
	RefreshWindow:     "refresh_window",
	ResizeWindow:      "resize_window",
	MoveWindow:        "move_window",
}

func (k EventKind) String() string {
	if name, ok := eventNames[k]; ok {
		return name
	}
	return fmt.Sprintf("event(%d)", int(k))
}

// Event carries the arguments of one request. Only the fields relevant to
// Kind are set.
type Event struct {
	Kind EventKind
	Text string

	Cols, Rows            int
	X, Y                  int
	CellWidth, CellHeight int
}

// Geometry is the part of the geometry coordinator that events reach.
type Geometry interface {
	OnCellSizeChanged(cellWidth, cellHeight int, win Window)
	Enlarge()
	Shrink()
	OnResizeRequest(cols, rows int) bool
	OnMoveRequest(x, y int)
}

// Events routes buffer requests to the window and geometry coordinator.
type Events struct {
	Window   Window
	Geometry Geometry

	// IconTitle enables forwarding of icon title changes.
	IconTitle bool
	// OnStatus receives status line changes.
	OnStatus func(status string)
}

// Dispatch acts on ev. Geometry requests are dropped when no coordinator is
// attached.
func (e *Events) Dispatch(ev Event) {
	displayLog.Debug("buffer_event", slog.String("event", ev.Kind.String()))

	switch ev.Kind {
	case TitleChanged:
		e.Window.SetTitle(ev.Text)
	case IconTitleChanged:
		if e.IconTitle {
			e.Window.SetIconTitle(ev.Text)
		}
	case StatusLineChanged:
		if e.OnStatus != nil {
			e.OnStatus(ev.Text)
		}
	case IconifyWindow:
		e.Window.Iconify()
	case DeiconifyWindow:
		e.Window.Deiconify()
	case RaiseWindow:
		e.Window.Raise()
	case LowerWindow:
		e.Window.Lower()
	case MaximizeWindow:
		e.Window.Maximize()
	case RestoreWindow:
		e.Window.Restore()
	case RefreshWindow:
		e.Window.Refresh()
	case CharSizeChanged, IncreaseFontSize, DecreaseFontSize, ResizeWindow, MoveWindow:
		e.dispatchGeometry(ev)
	default:
		displayLog.Warn("buffer_event_unknown", slog.Int("kind", int(ev.Kind)))
	}
}

func (e *Events) dispatchGeometry(ev Event) {
	if e.Geometry == nil {
		return
	}
	switch ev.Kind {
	case CharSizeChanged:
		e.Geometry.OnCellSizeChanged(ev.CellWidth, ev.CellHeight, e.Window)
	case IncreaseFontSize:
		e.Geometry.Enlarge()
	case DecreaseFontSize:
		e.Geometry.Shrink()
	case ResizeWindow:
		e.Geometry.OnResizeRequest(ev.Cols, ev.Rows)
	case MoveWindow:
		e.Geometry.OnMoveRequest(ev.X, ev.Y)
	}
}
