// Package display holds the collaborators the session host drives: the
// terminal buffer that interprets output and the window that shows it.
package display

import "github.com/termhost/termhost/internal/logging"

var displayLog = logging.ForComponent(logging.CompDisplay)

// Buffer is the terminal display buffer. Feed receives raw child output,
// which may end in the middle of a multi-byte sequence.
type Buffer interface {
	Feed(p []byte)
	// Contents returns the accumulated text, scrollback first, one line
	// per row, without trailing blanks.
	Contents() string
	Line(row int) string
	Size() (cols, rows int)
	Resize(cols, rows int)
	Title() string
}

// Hints are window sizing constraints in pixels. Width and height grow in
// steps of one cell from the base size.
type Hints struct {
	BaseWidth, BaseHeight int
	WidthInc, HeightInc   int
	MinWidth, MinHeight   int
}

// Window is the toplevel window showing a buffer.
type Window interface {
	Realized() bool
	// OnRealize runs fn once the window is realized, immediately if it
	// already is.
	OnRealize(fn func())
	Toplevel() bool

	SetTitle(title string)
	SetIconTitle(title string)
	SetGeometryHints(h Hints)
	ResizeToGeometry(cols, rows int)
	Move(x, y int)

	Iconify()
	Deiconify()
	Raise()
	Lower()
	Maximize()
	Restore()
	Refresh()

	// ClaimSelection takes ownership of a named selection; onLost runs when
	// another client takes it over.
	ClaimSelection(name string, onLost func()) error
	// Copy asks the window to copy the buffer selection to the clipboard.
	Copy()
	Close()
}
