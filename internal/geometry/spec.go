package geometry

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
)

var specRe = regexp.MustCompile(`^(?:(\d+)[xX](\d+))?(?:([+-]\d+)([+-]\d+))?$`)

// Spec is a parsed X11-style geometry string.
type Spec struct {
	Cols, Rows  int
	HasSize     bool
	X, Y        int
	HasPosition bool
	// XNegative and YNegative mark offsets from the right and bottom edges.
	XNegative, YNegative bool
}

// ParseSpec parses "COLSxROWS", "+X+Y" or both, as in "80x24+10-20".
func ParseSpec(s string) (Spec, error) {
	m := specRe.FindStringSubmatch(s)
	if s == "" || m == nil {
		return Spec{}, fmt.Errorf("parse geometry %q: want COLSxROWS[+X+Y]", s)
	}

	var spec Spec
	if m[1] != "" {
		spec.Cols, _ = strconv.Atoi(m[1])
		spec.Rows, _ = strconv.Atoi(m[2])
		spec.HasSize = true
	}
	if m[3] != "" {
		spec.X, _ = strconv.Atoi(m[3])
		spec.Y, _ = strconv.Atoi(m[4])
		spec.XNegative = m[3][0] == '-'
		spec.YNegative = m[4][0] == '-'
		spec.HasPosition = true
	}
	return spec, nil
}

// ApplyGeometry sizes and places the window from a geometry string. An
// empty or unparsable string falls back to the grid's current size.
func (c *Coordinator) ApplyGeometry(s string) error {
	if s == "" {
		c.DefaultGeometry()
		return nil
	}
	spec, err := ParseSpec(s)
	if err != nil {
		geomLog.Warn("geometry_parse_failed", slog.String("geometry", s), slog.String("error", err.Error()))
		c.DefaultGeometry()
		return err
	}
	if spec.HasSize {
		c.OnResizeRequest(spec.Cols, spec.Rows)
	}
	if spec.HasPosition {
		c.OnMoveRequest(spec.X, spec.Y)
	}
	return nil
}

// DefaultGeometry resizes the window to the grid's size.
func (c *Coordinator) DefaultGeometry() {
	if c.win == nil {
		return
	}
	cols, rows := c.grid.Size()
	c.win.ResizeToGeometry(cols, rows)
}
