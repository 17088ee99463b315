package display

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// numbered returns "line0\r\n" .. "line<n-1>\r\n" and the text Contents
// should report for it.
func numbered(n int) (feed, want string) {
	var f, w strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&f, "line%d\r\n", i)
		fmt.Fprintf(&w, "line%d\n", i)
	}
	return f.String(), w.String()
}

func TestVTBufferKeepsScrolledLines(t *testing.T) {
	b := NewVTBuffer(20, 5)
	feed, want := numbered(40)
	b.SetScrollbackLines(-1)
	b.Feed([]byte(feed))

	assert.Equal(t, want, b.Contents())
	assert.Equal(t, "line36", b.Line(0), "screen rows unaffected")
}

func TestVTBufferScrollbackLimit(t *testing.T) {
	b := NewVTBuffer(20, 5)
	feed, _ := numbered(12)
	b.SetScrollbackLines(3)
	b.Feed([]byte(feed))
	assert.True(t, strings.HasPrefix(b.Contents(), "line5\nline6\nline7\nline8\n"), b.Contents())

	b.SetScrollbackLines(1)
	assert.True(t, strings.HasPrefix(b.Contents(), "line7\nline8\n"), b.Contents())

	b.SetScrollbackLines(0)
	b.Feed([]byte(feed))
	assert.True(t, strings.HasPrefix(b.Contents(), "line8\n"), b.Contents())
}

func TestVTBufferDefaultScrollback(t *testing.T) {
	b := NewVTBuffer(20, 4)
	feed, _ := numbered(DefaultScrollbackLines + 50)
	b.Feed([]byte(feed))

	lines := strings.Split(strings.TrimSuffix(b.Contents(), "\n"), "\n")
	assert.Len(t, lines, DefaultScrollbackLines+3)
	assert.Equal(t, "line47", lines[0])
}

func TestVTBufferKeepsWrappedLines(t *testing.T) {
	b := NewVTBuffer(10, 3)
	b.Feed([]byte("0123456789abcdefghijABCDEFGHIJxyz01"))
	assert.Equal(t, "0123456789\nabcdefghij\nABCDEFGHIJ\nxyz01\n", b.Contents())
}

func TestVTBufferScrollUpSequence(t *testing.T) {
	b := NewVTBuffer(20, 3)
	b.Feed([]byte("a\r\nb\r\nc\x1b[2S"))
	assert.Equal(t, "a\nb\nc\n", b.Contents())
}

func TestVTBufferIgnoresAltScreenAndRegions(t *testing.T) {
	feed, _ := numbered(10)

	b := NewVTBuffer(20, 3)
	b.Feed([]byte("\x1b[?1049h" + feed))
	assert.NotContains(t, b.Contents(), "line0")

	// Rows scrolled inside a region below the top row are not kept.
	b = NewVTBuffer(20, 5)
	b.Feed([]byte("\x1b[2;5r" + feed))
	assert.Equal(t, "line0\nline7\nline8\nline9\n", b.Contents())

	b.Feed([]byte("\x1b[r\x1b[5;1Hx\r\n"))
	assert.Equal(t, "line0\nline7\nline8\nline9\nx\n", b.Contents())
}

func TestVTBufferResizeKeepsSlidRows(t *testing.T) {
	b := NewVTBuffer(20, 5)
	b.Feed([]byte("1\r\n2\r\n3\r\n4\r\n5"))
	b.Resize(20, 2)
	assert.Equal(t, "1\n2\n3\n4\n5\n", b.Contents())
}

func TestNextPieceEscapes(t *testing.T) {
	assert.Equal(t, 10, escapePiece([]byte("\x1b]0;title\aafter"), false, 24).n)
	assert.Equal(t, 11, escapePiece([]byte("\x1b]2;title\x1b\\x"), false, 24).n)
	assert.Equal(t, 5, escapePiece([]byte("\x1b[31mred"), false, 24).n)
	assert.Equal(t, piece{n: 2, lost: 1}, escapePiece([]byte("\x1bD"), true, 24))
	assert.Equal(t, piece{n: 4, lost: 3}, escapePiece([]byte("\x1b[3S"), false, 24))
	assert.Equal(t, piece{n: 6, region: true}, escapePiece([]byte("\x1b[2;9r"), false, 24))
	assert.Equal(t, piece{n: 3, region: true, full: true}, escapePiece([]byte("\x1b[r"), false, 24))
}
