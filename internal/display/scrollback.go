package display

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/hinshun/vt10x"
)

// DefaultScrollbackLines is how many scrolled-off rows a new buffer keeps.
const DefaultScrollbackLines = 100

// vtWrapNext is vt10x's cursor state bit for a pending autowrap.
const vtWrapNext = 1 << 1

// piece is the next unit of output written to the emulator in one call.
type piece struct {
	n int
	// lost is how many rows at the top of the screen the piece scrolls
	// away, assuming the scroll region covers the whole screen.
	lost int
	// region reports a DECSTBM or reset: full is whether the scroll
	// region is the whole screen afterwards.
	region, full bool
}

// nextPiece splits data so that any scroll caused by writing a piece is
// known before it is written. Printable runs stop where the cursor would
// wrap off the bottom row.
func nextPiece(data []byte, cur vt10x.Cursor, mode vt10x.ModeFlag, cols, rows int) piece {
	bottom := cur.Y == rows-1
	switch c := data[0]; {
	case c == '\n' || c == '\v' || c == '\f':
		return piece{n: 1, lost: boolInt(bottom)}
	case c == 0x1b:
		return escapePiece(data, bottom, rows)
	case c < 0x20 || c == 0x7f:
		return piece{n: 1}
	}

	wrap := mode&vt10x.ModeWrap != 0
	if wrap && bottom && cur.State&vtWrapNext != 0 {
		_, size := utf8.DecodeRune(data)
		return piece{n: size, lost: 1}
	}

	budget := len(data)
	if wrap {
		budget = cols - cur.X + (rows-1-cur.Y)*cols
		if cur.State&vtWrapNext != 0 {
			budget = (rows - 1 - cur.Y) * cols
		}
	}
	n, cells := 0, 0
	for n < len(data) && cells < budget {
		r, size := utf8.DecodeRune(data[n:])
		if r < 0x20 || r == 0x7f {
			break
		}
		n += size
		cells++
	}
	if n == 0 {
		_, n = utf8.DecodeRune(data)
	}
	return piece{n: n}
}

// escapePiece covers one escape sequence. Sequences that may scroll
// (IND, NEL, SU) report the rows they push off the top.
func escapePiece(data []byte, bottom bool, rows int) piece {
	if len(data) < 2 {
		return piece{n: len(data)}
	}
	switch data[1] {
	case 'D', 'E':
		return piece{n: 2, lost: boolInt(bottom)}
	case 'c':
		return piece{n: 2, region: true, full: true}
	case '[':
		for i := 2; i < len(data); i++ {
			if data[i] < 0x40 || data[i] > 0x7e {
				continue
			}
			p := piece{n: i + 1}
			params := string(data[2:i])
			switch data[i] {
			case 'S':
				p.lost = min(csiArg(params, 0, 1), rows)
			case 'r':
				if !strings.HasPrefix(params, "?") {
					top, bot := csiArg(params, 0, 1), csiArg(params, 1, rows)
					p.region, p.full = true, top <= 1 && bot >= rows
				}
			}
			return p
		}
		return piece{n: len(data)}
	case ']', 'P', '_', '^':
		for i := 2; i < len(data); i++ {
			if data[i] == 0x07 {
				return piece{n: i + 1}
			}
			if data[i] == 0x1b && i+1 < len(data) && data[i+1] == '\\' {
				return piece{n: i + 2}
			}
		}
		return piece{n: len(data)}
	}
	_, size := utf8.DecodeRune(data[1:])
	return piece{n: 1 + size}
}

// csiArg returns parameter i of a CSI sequence, or def when it is absent.
func csiArg(params string, i, def int) int {
	fields := strings.Split(params, ";")
	if i >= len(fields) || fields[i] == "" {
		return def
	}
	v, err := strconv.Atoi(fields[i])
	if err != nil {
		return def
	}
	return v
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// scrollback is a bounded list of rows that left the top of the screen.
// A negative limit keeps every row.
type scrollback struct {
	limit int
	lines []string
}

func (s *scrollback) push(lines ...string) {
	if s.limit == 0 {
		return
	}
	s.lines = append(s.lines, lines...)
	s.trim()
}

func (s *scrollback) trim() {
	if s.limit >= 0 && len(s.lines) > s.limit {
		s.lines = append([]string(nil), s.lines[len(s.lines)-s.limit:]...)
	}
}
