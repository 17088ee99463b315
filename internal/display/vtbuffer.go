package display

import (
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/hinshun/vt10x"
)

// VTBuffer is a Buffer backed by a vt10x emulator. Rows scrolled off the
// top of the screen are kept in a bounded scrollback.
type VTBuffer struct {
	term vt10x.Terminal

	// feedMu serializes writes to the emulator with scrollback capture.
	feedMu sync.Mutex
	// region is set while the child uses a partial scroll region, when
	// scrolled rows cannot be attributed to the top of the screen.
	region bool

	mu      sync.Mutex
	pending []byte
	title   string
	history scrollback

	// OnTitle is called after a Feed that changed the window title.
	OnTitle func(title string)
}

// NewVTBuffer returns a buffer of the given size. Non-positive sizes fall
// back to 80x24.
func NewVTBuffer(cols, rows int) *VTBuffer {
	if cols <= 0 || rows <= 0 {
		cols, rows = 80, 24
	}
	return &VTBuffer{
		term:    vt10x.New(vt10x.WithSize(cols, rows)),
		history: scrollback{limit: DefaultScrollbackLines},
	}
}

// SetScrollbackLines bounds the scrollback to n rows. Zero disables it and
// a negative n keeps every row.
func (b *VTBuffer) SetScrollbackLines(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.history.limit = n
	b.history.trim()
}

// Feed interprets p. An incomplete UTF-8 sequence at the end of p is held
// back until the rest of it arrives.
func (b *VTBuffer) Feed(p []byte) {
	b.feedMu.Lock()
	b.mu.Lock()
	data := append(b.pending, p...)
	cut := incompleteTail(data)
	b.pending = append([]byte(nil), data[cut:]...)
	data = data[:cut]
	b.mu.Unlock()

	for len(data) > 0 {
		data = data[b.writePiece(data):]
	}
	b.feedMu.Unlock()

	title := b.Title()
	b.mu.Lock()
	changed := title != b.title
	b.title = title
	onTitle := b.OnTitle
	b.mu.Unlock()
	if changed && onTitle != nil {
		onTitle(title)
	}
}

// incompleteTail returns the index where a trailing partial rune starts, or
// len(p) when p ends on a rune boundary.
func incompleteTail(p []byte) int {
	for i := len(p) - 1; i >= 0 && i >= len(p)-utf8.UTFMax; i-- {
		if utf8.RuneStart(p[i]) {
			if utf8.FullRune(p[i:]) {
				return len(p)
			}
			return i
		}
	}
	return len(p)
}

// writePiece writes the next piece of data to the emulator, saving the
// rows it scrolls away, and returns the bytes consumed. feedMu must be held.
func (b *VTBuffer) writePiece(data []byte) int {
	b.term.Lock()
	cols, rows := b.term.Size()
	mode := b.term.Mode()
	p := nextPiece(data, b.term.Cursor(), mode, cols, rows)
	var lost []string
	if !b.region && mode&vt10x.ModeAltScreen == 0 {
		for y := 0; y < p.lost; y++ {
			lost = append(lost, b.row(y, cols))
		}
	}
	b.term.Unlock()

	if _, err := b.term.Write(data[:p.n]); err != nil {
		displayLog.Warn("buffer_feed_failed", slog.String("error", err.Error()))
	}
	if p.region {
		b.region = !p.full
	}
	if len(lost) > 0 {
		b.mu.Lock()
		b.history.push(lost...)
		b.mu.Unlock()
	}
	return p.n
}

func (b *VTBuffer) Contents() string {
	b.feedMu.Lock()
	defer b.feedMu.Unlock()

	b.mu.Lock()
	lines := append([]string(nil), b.history.lines...)
	b.mu.Unlock()

	b.term.Lock()
	cols, rows := b.term.Size()
	for y := 0; y < rows; y++ {
		lines = append(lines, b.row(y, cols))
	}
	b.term.Unlock()

	end := len(lines)
	for end > 0 && lines[end-1] == "" {
		end--
	}
	if end == 0 {
		return ""
	}
	return strings.Join(lines[:end], "\n") + "\n"
}

// row reads one row; the terminal lock must be held.
func (b *VTBuffer) row(y, cols int) string {
	var sb strings.Builder
	for x := 0; x < cols; x++ {
		ch := b.term.Cell(x, y).Char
		if ch == 0 {
			ch = ' '
		}
		sb.WriteRune(ch)
	}
	return strings.TrimRight(sb.String(), " ")
}

// Line returns row without trailing blanks, or "" when out of range.
func (b *VTBuffer) Line(row int) string {
	b.term.Lock()
	defer b.term.Unlock()
	cols, rows := b.term.Size()
	if row < 0 || row >= rows {
		return ""
	}
	return b.row(row, cols)
}

func (b *VTBuffer) Size() (cols, rows int) {
	b.term.Lock()
	defer b.term.Unlock()
	return b.term.Size()
}

func (b *VTBuffer) Resize(cols, rows int) {
	if cols <= 0 || rows <= 0 {
		return
	}
	b.feedMu.Lock()
	defer b.feedMu.Unlock()

	// Shrinking below the cursor row slides the top rows away.
	b.term.Lock()
	oldCols, _ := b.term.Size()
	var lost []string
	if b.term.Mode()&vt10x.ModeAltScreen == 0 {
		for y := 0; y < b.term.Cursor().Y-rows+1; y++ {
			lost = append(lost, b.row(y, oldCols))
		}
	}
	b.term.Unlock()

	b.term.Resize(cols, rows)
	b.region = false
	if len(lost) > 0 {
		b.mu.Lock()
		b.history.push(lost...)
		b.mu.Unlock()
	}
	displayLog.Debug("buffer_resized", slog.Int("cols", cols), slog.Int("rows", rows))
}

func (b *VTBuffer) Title() string {
	b.term.Lock()
	defer b.term.Unlock()
	return b.term.Title()
}
