// Package options parses the display option names accepted on the command
// line and in the config file. An unknown name yields the default value and
// an error the caller reports as a warning.
package options

import (
	"fmt"
	"strings"
)

// CursorBlink controls cursor blinking.
type CursorBlink int

const (
	CursorBlinkSystem CursorBlink = iota
	CursorBlinkOn
	CursorBlinkOff
)

// CursorShape is the cursor glyph.
type CursorShape int

const (
	CursorShapeBlock CursorShape = iota
	CursorShapeUnderline
	CursorShapeIBeam
)

// ScrollbarPolicy controls when the scrollbar is shown.
type ScrollbarPolicy int

const (
	ScrollbarAlways ScrollbarPolicy = iota
	ScrollbarAuto
	ScrollbarNever
)

var cursorBlinkNames = []string{"system", "on", "off"}
var cursorShapeNames = []string{"block", "underline", "ibeam"}
var scrollbarNames = []string{"always", "auto", "never"}

func (b CursorBlink) String() string     { return name(cursorBlinkNames, int(b)) }
func (s CursorShape) String() string     { return name(cursorShapeNames, int(s)) }
func (p ScrollbarPolicy) String() string { return name(scrollbarNames, int(p)) }

func name(names []string, v int) string {
	if v < 0 || v >= len(names) {
		return fmt.Sprintf("unknown(%d)", v)
	}
	return names[v]
}

// UnknownValueError reports a name that is not one of the accepted values.
type UnknownValueError struct {
	Option string
	Value  string
	Valid  []string
}

func (e *UnknownValueError) Error() string {
	return fmt.Sprintf("unknown %s %q (valid: %s)", e.Option, e.Value, strings.Join(e.Valid, ", "))
}

func lookup(option, value string, names []string) (int, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return 0, nil
	}
	for i, n := range names {
		if v == n {
			return i, nil
		}
	}
	return 0, &UnknownValueError{Option: option, Value: value, Valid: names}
}

// ParseCursorBlink parses "system", "on" or "off". Empty means system.
func ParseCursorBlink(s string) (CursorBlink, error) {
	v, err := lookup("cursor blink mode", s, cursorBlinkNames)
	return CursorBlink(v), err
}

// ParseCursorShape parses "block", "underline" or "ibeam". Empty means block.
func ParseCursorShape(s string) (CursorShape, error) {
	v, err := lookup("cursor shape", s, cursorShapeNames)
	return CursorShape(v), err
}

// ParseScrollbarPolicy parses "always", "auto" or "never". Empty means always.
func ParseScrollbarPolicy(s string) (ScrollbarPolicy, error) {
	v, err := lookup("scrollbar policy", s, scrollbarNames)
	return ScrollbarPolicy(v), err
}
