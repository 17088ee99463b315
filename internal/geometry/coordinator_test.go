package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/termhost/termhost/internal/display"
)

type fixedGrid struct{ cols, rows int }

func (g *fixedGrid) Size() (int, int) { return g.cols, g.rows }

func newCoordinator(t *testing.T, opts Options) (*Coordinator, *display.HeadlessWindow, *fixedGrid) {
	t.Helper()
	win := display.NewHeadlessWindow()
	grid := &fixedGrid{cols: 80, rows: 24}
	return New(win, grid, opts), win, grid
}

var _ display.Geometry = (*Coordinator)(nil)

func TestHintsAreAffine(t *testing.T) {
	h := Hints(4, 6, 9, 18)
	assert.Equal(t, display.Hints{
		BaseWidth: 4, BaseHeight: 6,
		WidthInc: 9, HeightInc: 18,
		MinWidth: 22, MinHeight: 42,
	}, h)
}

func TestCellSizeChangeIgnoredUntilRealized(t *testing.T) {
	c, win, _ := newCoordinator(t, Options{PaddingWidth: 2, PaddingHeight: 2})

	c.OnCellSizeChanged(10, 20, win)
	assert.False(t, win.Snapshot().HintsSet)
	w, h := c.CellSize()
	assert.Equal(t, 8, w, "metrics untouched while unrealized")
	assert.Equal(t, 16, h)

	c.OnCellSizeChanged(10, 20, nil)

	win.Realize()
	c.OnCellSizeChanged(10, 20, win)
	s := win.Snapshot()
	require.True(t, s.HintsSet)
	assert.Equal(t, Hints(2, 2, 10, 20), s.Hints)
}

func TestRealizedAppliesCurrentHints(t *testing.T) {
	c, win, _ := newCoordinator(t, Options{CellWidth: 7, CellHeight: 14})
	win.OnRealize(c.Realized)
	win.Realize()
	assert.Equal(t, 7, win.Snapshot().Hints.WidthInc)
}

func TestHintsCanBeDisabled(t *testing.T) {
	c, win, _ := newCoordinator(t, Options{DisableHints: true})
	win.Realize()
	c.OnCellSizeChanged(10, 20, win)
	assert.False(t, win.Snapshot().HintsSet)
	w, _ := c.CellSize()
	assert.Equal(t, 10, w)
}

func TestResizeRequestPolicy(t *testing.T) {
	var grid [][2]int
	c, win, _ := newCoordinator(t, Options{OnGridResize: func(cols, rows int) {
		grid = append(grid, [2]int{cols, rows})
	}})

	assert.False(t, c.OnResizeRequest(1, 10))
	assert.False(t, c.OnResizeRequest(10, 1))
	assert.False(t, c.OnResizeRequest(0, 0))
	assert.Zero(t, win.Snapshot().Cols)

	assert.True(t, c.OnResizeRequest(2, 2))
	s := win.Snapshot()
	assert.Equal(t, 2, s.Cols)
	assert.Equal(t, 2, s.Rows)
	assert.Equal(t, [][2]int{{2, 2}}, grid)

	win.SetToplevel(false)
	assert.False(t, c.OnResizeRequest(100, 50))
	assert.Equal(t, 2, win.Snapshot().Cols)
}

func TestFontScaleRoundTrip(t *testing.T) {
	c, win, grid := newCoordinator(t, Options{CellWidth: 10, CellHeight: 20})
	win.Realize()

	c.Enlarge()
	assert.InDelta(t, 1.2, c.Scale(), 1e-9)
	w, h := c.CellSize()
	assert.Equal(t, 12, w)
	assert.Equal(t, 24, h)
	s := win.Snapshot()
	assert.Equal(t, grid.cols, s.Cols)
	assert.Equal(t, grid.rows, s.Rows)
	assert.Equal(t, 12, s.Hints.WidthInc)

	c.Shrink()
	assert.InDelta(t, 1.0, c.Scale(), 1e-9)
	w, h = c.CellSize()
	assert.Equal(t, 10, w)
	assert.Equal(t, 20, h)
	s = win.Snapshot()
	assert.Equal(t, 80, s.Cols)
	assert.Equal(t, 24, s.Rows)
}

func TestFontScaleUsesUnscaledMetrics(t *testing.T) {
	c, win, _ := newCoordinator(t, Options{})
	win.Realize()

	c.OnFontScaleRequest(2)
	c.OnCellSizeChanged(18, 34, win)
	c.OnFontScaleRequest(0.5)

	w, h := c.CellSize()
	assert.Equal(t, 9, w)
	assert.Equal(t, 17, h)
}

func TestFontScaleRejectsBadFactor(t *testing.T) {
	c, _, _ := newCoordinator(t, Options{})
	c.OnFontScaleRequest(0)
	c.OnFontScaleRequest(-1)
	assert.Equal(t, 1.0, c.Scale())
}

func TestMoveAndHandle(t *testing.T) {
	c, win, _ := newCoordinator(t, Options{})

	c.OnMoveRequest(5, 6)
	s := win.Snapshot()
	assert.Equal(t, 5, s.X)
	assert.Equal(t, 6, s.Y)

	assert.True(t, c.Handle(Request{X: 1, Y: 2}))
	assert.Equal(t, 1, win.Snapshot().X)
	assert.True(t, c.Handle(Request{Columns: 90, Rows: 30}))
	assert.Equal(t, 90, win.Snapshot().Cols)
	assert.False(t, c.Handle(Request{Columns: 1, Rows: 30}))
}
