package display

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeGeometry struct {
	cellW, cellH int
	cellWin      Window
	enlarged     int
	shrunk       int
	resizes      [][2]int
	moves        [][2]int
}

func (g *fakeGeometry) OnCellSizeChanged(w, h int, win Window) {
	g.cellW, g.cellH, g.cellWin = w, h, win
}
func (g *fakeGeometry) Enlarge() { g.enlarged++ }
func (g *fakeGeometry) Shrink()  { g.shrunk++ }
func (g *fakeGeometry) OnResizeRequest(cols, rows int) bool {
	g.resizes = append(g.resizes, [2]int{cols, rows})
	return true
}
func (g *fakeGeometry) OnMoveRequest(x, y int) { g.moves = append(g.moves, [2]int{x, y}) }

func TestEventsWindowRequests(t *testing.T) {
	w := NewHeadlessWindow()
	var status []string
	e := &Events{Window: w, OnStatus: func(s string) { status = append(status, s) }}

	e.Dispatch(Event{Kind: TitleChanged, Text: "vim"})
	e.Dispatch(Event{Kind: IconTitleChanged, Text: "ignored"})
	e.Dispatch(Event{Kind: StatusLineChanged, Text: "ready"})
	e.Dispatch(Event{Kind: IconifyWindow})
	e.Dispatch(Event{Kind: RaiseWindow})
	e.Dispatch(Event{Kind: LowerWindow})
	e.Dispatch(Event{Kind: MaximizeWindow})
	e.Dispatch(Event{Kind: RefreshWindow})
	e.Dispatch(Event{Kind: EventKind(99)})

	s := w.Snapshot()
	assert.Equal(t, "vim", s.Title)
	assert.Empty(t, s.IconTitle)
	assert.True(t, s.Iconified)
	assert.True(t, s.Maximized)
	assert.Equal(t, 1, s.Raised)
	assert.Equal(t, 1, s.Lowered)
	assert.Equal(t, 1, s.Refreshes)
	assert.Equal(t, []string{"ready"}, status)

	e.IconTitle = true
	e.Dispatch(Event{Kind: IconTitleChanged, Text: "icon"})
	e.Dispatch(Event{Kind: DeiconifyWindow})
	e.Dispatch(Event{Kind: RestoreWindow})
	s = w.Snapshot()
	assert.Equal(t, "icon", s.IconTitle)
	assert.False(t, s.Iconified)
	assert.False(t, s.Maximized)
}

func TestEventsGeometryRequests(t *testing.T) {
	w := NewHeadlessWindow()
	g := &fakeGeometry{}
	e := &Events{Window: w, Geometry: g}

	e.Dispatch(Event{Kind: CharSizeChanged, CellWidth: 7, CellHeight: 15})
	e.Dispatch(Event{Kind: IncreaseFontSize})
	e.Dispatch(Event{Kind: DecreaseFontSize})
	e.Dispatch(Event{Kind: ResizeWindow, Cols: 100, Rows: 40})
	e.Dispatch(Event{Kind: MoveWindow, X: 3, Y: 4})

	assert.Equal(t, 7, g.cellW)
	assert.Equal(t, 15, g.cellH)
	assert.Same(t, w, g.cellWin)
	assert.Equal(t, 1, g.enlarged)
	assert.Equal(t, 1, g.shrunk)
	assert.Equal(t, [][2]int{{100, 40}}, g.resizes)
	assert.Equal(t, [][2]int{{3, 4}}, g.moves)
}

func TestEventsWithoutGeometry(t *testing.T) {
	e := &Events{Window: NewHeadlessWindow()}
	e.Dispatch(Event{Kind: ResizeWindow, Cols: 10, Rows: 10})
}

func TestEventKindString(t *testing.T) {
	assert.Equal(t, "resize_window", ResizeWindow.String())
	assert.Equal(t, "event(42)", EventKind(42).String())
}
