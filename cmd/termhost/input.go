package main

import (
	"bytes"
	"io"
	"strconv"
	"strings"
)

// SGR mouse reporting (xterm 1006): ESC [ < b ; x ; y M|m
var sgrPrefix = []byte("\x1b[<")

const (
	mouseOn  = "\x1b[?1000h\x1b[?1006h"
	mouseOff = "\x1b[?1006l\x1b[?1000l"

	// maxReport bounds how long an unterminated report is held back.
	maxReport = 32
)

// click is a button press at a zero-based cell.
type click struct {
	button   int
	col, row int
	ctrl     bool
}

// inputFilter splits keyboard input from mouse reports.
type inputFilter struct {
	pending []byte
}

// Feed returns the key bytes to forward to the child and the button
// presses found in p. A report split across reads is completed by the
// next call.
func (f *inputFilter) Feed(p []byte) ([]byte, []click) {
	data := append(f.pending, p...)
	f.pending = nil

	var keys []byte
	var clicks []click
	for len(data) > 0 {
		i := bytes.Index(data, sgrPrefix)
		if i < 0 {
			keys = append(keys, data...)
			break
		}
		keys = append(keys, data[:i]...)
		rest := data[i+len(sgrPrefix):]
		end := bytes.IndexAny(rest, "Mm")
		if end < 0 {
			if len(rest) > maxReport {
				keys = append(keys, data[i:]...)
			} else {
				f.pending = append([]byte(nil), data[i:]...)
			}
			break
		}

		c, isButton, ok := parseSGR(string(rest[:end]))
		switch {
		case !ok:
			keys = append(keys, data[i:i+len(sgrPrefix)+end+1]...)
		case isButton && rest[end] == 'M':
			clicks = append(clicks, c)
		}
		data = rest[end+1:]
	}
	return keys, clicks
}

// parseSGR decodes "b;x;y". isButton is false for motion and wheel reports.
func parseSGR(body string) (c click, isButton, ok bool) {
	parts := strings.Split(body, ";")
	if len(parts) != 3 {
		return click{}, false, false
	}
	var n [3]int
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 {
			return click{}, false, false
		}
		n[i] = v
	}
	cb, x, y := n[0], n[1], n[2]
	if x < 1 || y < 1 {
		return click{}, false, false
	}
	if cb&(32|64) != 0 {
		return click{}, false, true
	}
	return click{button: cb&3 + 1, col: x - 1, row: y - 1, ctrl: cb&16 != 0}, true, true
}

// crlfWriter turns "\n" into "\r\n" for a terminal in raw mode.
type crlfWriter struct {
	w io.Writer
}

func (c crlfWriter) Write(p []byte) (int, error) {
	if _, err := c.w.Write(bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n"))); err != nil {
		return 0, err
	}
	return len(p), nil
}

// mirror feeds child output to the buffer and copies it to the real
// terminal.
type mirror struct {
	buffer interface{ Feed([]byte) }
	out    io.Writer
}

func (m *mirror) Feed(p []byte) {
	m.buffer.Feed(p)
	_, _ = m.out.Write(p)
}
