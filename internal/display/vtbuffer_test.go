package display

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVTBufferContents(t *testing.T) {
	b := NewVTBuffer(20, 5)
	b.Feed([]byte("hello   \r\nworld\r\n"))

	assert.Equal(t, "hello\nworld\n", b.Contents())
	assert.Equal(t, "hello", b.Line(0))
	assert.Equal(t, "world", b.Line(1))
	assert.Equal(t, "", b.Line(4))
	assert.Equal(t, "", b.Line(-1))
	assert.Equal(t, "", b.Line(5))
}

func TestVTBufferEmpty(t *testing.T) {
	b := NewVTBuffer(10, 3)
	assert.Equal(t, "", b.Contents())
}

func TestVTBufferKeepsInnerBlankLines(t *testing.T) {
	b := NewVTBuffer(10, 5)
	b.Feed([]byte("a\r\n\r\nb"))
	assert.Equal(t, "a\n\nb\n", b.Contents())
}

func TestVTBufferSplitRune(t *testing.T) {
	b := NewVTBuffer(10, 2)
	euro := []byte("€") // three bytes

	b.Feed(euro[:1])
	b.Feed(euro[1:2])
	assert.Equal(t, "", b.Contents())

	b.Feed(euro[2:])
	assert.Equal(t, "€\n", b.Contents())
}

func TestIncompleteTail(t *testing.T) {
	euro := []byte("€")
	assert.Equal(t, 3, incompleteTail([]byte("abc")))
	assert.Equal(t, 1, incompleteTail(append([]byte("a"), euro[:2]...)))
	assert.Equal(t, 4, incompleteTail(append([]byte("a"), euro...)))
	assert.Equal(t, 0, incompleteTail(nil))
}

func TestVTBufferTitleCallback(t *testing.T) {
	b := NewVTBuffer(20, 2)
	var titles []string
	b.OnTitle = func(title string) { titles = append(titles, title) }

	b.Feed([]byte("\x1b]0;first\a"))
	b.Feed([]byte("plain output"))
	b.Feed([]byte("\x1b]2;second\x1b\\"))

	assert.Equal(t, []string{"first", "second"}, titles)
	assert.Equal(t, "second", b.Title())
}

func TestVTBufferResize(t *testing.T) {
	b := NewVTBuffer(0, 0)
	cols, rows := b.Size()
	require.Equal(t, 80, cols)
	require.Equal(t, 24, rows)

	b.Resize(100, 30)
	cols, rows = b.Size()
	assert.Equal(t, 100, cols)
	assert.Equal(t, 30, rows)

	b.Resize(0, 10)
	cols, _ = b.Size()
	assert.Equal(t, 100, cols)
}
