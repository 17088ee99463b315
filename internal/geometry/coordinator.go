// Package geometry turns character-cell sizes into window size constraints
// and acts on resize, move and font-scale requests.
package geometry

import (
	"log/slog"
	"math"
	"sync"

	"github.com/termhost/termhost/internal/display"
	"github.com/termhost/termhost/internal/logging"
)

var geomLog = logging.ForComponent(logging.CompGeometry)

// Font scale steps used by Enlarge and Shrink.
const (
	ScaleStep = 1.2
	MinCells  = 2
)

// Grid reports the current size of the terminal in cells.
type Grid interface {
	Size() (cols, rows int)
}

// Options configures a Coordinator.
type Options struct {
	// PaddingWidth and PaddingHeight are the pixels around the cell area.
	PaddingWidth  int
	PaddingHeight int
	// CellWidth and CellHeight are the unscaled font metrics.
	CellWidth  int
	CellHeight int
	// DisableHints stops the coordinator from setting geometry hints.
	DisableHints bool
	// OnGridResize is called after an accepted resize request so the
	// buffer and PTY can follow.
	OnGridResize func(cols, rows int)
}

// Request is a geometry request: a grid size or a window position.
type Request struct {
	Columns, Rows int
	X, Y          int
}

// Coordinator keeps window hints in step with the cell metrics.
type Coordinator struct {
	win  display.Window
	grid Grid
	opts Options

	mu           sync.Mutex
	scale        float64
	baseW, baseH float64
	cellW, cellH int
}

// New returns a coordinator for win showing grid at font scale 1.
func New(win display.Window, grid Grid, opts Options) *Coordinator {
	if opts.CellWidth <= 0 {
		opts.CellWidth = 8
	}
	if opts.CellHeight <= 0 {
		opts.CellHeight = 16
	}
	return &Coordinator{
		win:   win,
		grid:  grid,
		opts:  opts,
		scale: 1,
		baseW: float64(opts.CellWidth),
		baseH: float64(opts.CellHeight),
		cellW: opts.CellWidth,
		cellH: opts.CellHeight,
	}
}

// Hints computes window hints from a cell size: the base is the padding,
// the increment one cell, the minimum two cells in each direction.
func Hints(padW, padH, cellW, cellH int) display.Hints {
	return display.Hints{
		BaseWidth:  padW,
		BaseHeight: padH,
		WidthInc:   cellW,
		HeightInc:  cellH,
		MinWidth:   padW + MinCells*cellW,
		MinHeight:  padH + MinCells*cellH,
	}
}

// OnCellSizeChanged records a new cell size and updates win's hints. It
// does nothing until win is realized.
func (c *Coordinator) OnCellSizeChanged(cellWidth, cellHeight int, win display.Window) {
	if win == nil || !win.Realized() {
		geomLog.Debug("cell_size_ignored", slog.String("reason", "unrealized"))
		return
	}
	if cellWidth <= 0 || cellHeight <= 0 {
		return
	}

	c.mu.Lock()
	c.cellW, c.cellH = cellWidth, cellHeight
	c.baseW = float64(cellWidth) / c.scale
	c.baseH = float64(cellHeight) / c.scale
	c.mu.Unlock()

	c.applyHints(win)
}

// Realized applies the hints for the current cell size once the window
// exists.
func (c *Coordinator) Realized() {
	w, h := c.CellSize()
	c.OnCellSizeChanged(w, h, c.win)
}

func (c *Coordinator) applyHints(win display.Window) {
	if c.opts.DisableHints {
		return
	}
	w, h := c.CellSize()
	hints := Hints(c.opts.PaddingWidth, c.opts.PaddingHeight, w, h)
	win.SetGeometryHints(hints)
	geomLog.Debug("hints_applied", slog.Int("width_inc", w), slog.Int("height_inc", h))
}

// OnFontScaleRequest multiplies the font scale by factor and resizes the
// window so it keeps the same number of columns and rows.
func (c *Coordinator) OnFontScaleRequest(factor float64) {
	if factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		geomLog.Warn("font_scale_rejected", slog.Float64("factor", factor))
		return
	}
	cols, rows := c.grid.Size()

	c.mu.Lock()
	c.scale *= factor
	c.cellW = scaled(c.baseW, c.scale)
	c.cellH = scaled(c.baseH, c.scale)
	scale := c.scale
	c.mu.Unlock()

	geomLog.Info("font_scale_changed", slog.Float64("scale", scale),
		slog.Int("cols", cols), slog.Int("rows", rows))

	if c.win == nil {
		return
	}
	if c.win.Realized() {
		c.applyHints(c.win)
	}
	c.win.ResizeToGeometry(cols, rows)
}

func scaled(base, scale float64) int {
	v := int(math.Round(base * scale))
	if v < 1 {
		return 1
	}
	return v
}

// Enlarge grows the font by one step.
func (c *Coordinator) Enlarge() { c.OnFontScaleRequest(ScaleStep) }

// Shrink shrinks the font by one step.
func (c *Coordinator) Shrink() { c.OnFontScaleRequest(1 / ScaleStep) }

// OnResizeRequest resizes a toplevel window to cols x rows. Requests below
// two cells in either direction are ignored.
func (c *Coordinator) OnResizeRequest(cols, rows int) bool {
	if cols < MinCells || rows < MinCells {
		geomLog.Debug("resize_ignored", slog.Int("cols", cols), slog.Int("rows", rows))
		return false
	}
	if c.win == nil || !c.win.Toplevel() {
		geomLog.Debug("resize_ignored", slog.String("reason", "not toplevel"))
		return false
	}

	c.win.ResizeToGeometry(cols, rows)
	if c.opts.OnGridResize != nil {
		c.opts.OnGridResize(cols, rows)
	}
	geomLog.Debug("resize_applied", slog.Int("cols", cols), slog.Int("rows", rows))
	return true
}

// OnMoveRequest moves the window to x, y.
func (c *Coordinator) OnMoveRequest(x, y int) {
	if c.win == nil {
		return
	}
	c.win.Move(x, y)
}

// Handle acts on a Request. A request with a size resizes; one without
// moves.
func (c *Coordinator) Handle(r Request) bool {
	if r.Columns != 0 || r.Rows != 0 {
		return c.OnResizeRequest(r.Columns, r.Rows)
	}
	c.OnMoveRequest(r.X, r.Y)
	return true
}

// Scale returns the current font scale.
func (c *Coordinator) Scale() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scale
}

// CellSize returns the current scaled cell size in pixels.
func (c *Coordinator) CellSize() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cellW, c.cellH
}
