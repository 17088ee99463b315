package session

import (
	"strings"
)

// PtyFlags select optional PTY setup behaviors.
type PtyFlags uint

const (
	PtyDefault   PtyFlags = 0
	PtyNoLastlog PtyFlags = 1 << (iota - 1)
	PtyNoUtmp
	PtyNoWtmp
	PtyNoHelper
	PtyNoFallback
)

var ptyFlagNames = []struct {
	flag PtyFlags
	nick string
}{
	{PtyNoLastlog, "no-lastlog"},
	{PtyNoUtmp, "no-utmp"},
	{PtyNoWtmp, "no-wtmp"},
	{PtyNoHelper, "no-helper"},
	{PtyNoFallback, "no-fallback"},
}

// ParsePtyFlags ORs together a comma or pipe separated list of flag nicks.
// Unknown nicks are returned for the caller to warn about and otherwise
// ignored.
func ParsePtyFlags(s string) (PtyFlags, []string) {
	var flags PtyFlags
	var unknown []string
	for _, tok := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '|' }) {
		nick := strings.ToLower(strings.TrimSpace(tok))
		if nick == "" || nick == "default" {
			continue
		}
		found := false
		for _, n := range ptyFlagNames {
			if n.nick == nick {
				flags |= n.flag
				found = true
				break
			}
		}
		if !found {
			unknown = append(unknown, tok)
		}
	}
	return flags, unknown
}

// Has reports whether every bit of f2 is set.
func (f PtyFlags) Has(f2 PtyFlags) bool { return f&f2 == f2 }

func (f PtyFlags) String() string {
	if f == PtyDefault {
		return "default"
	}
	var parts []string
	for _, n := range ptyFlagNames {
		if f.Has(n.flag) {
			parts = append(parts, n.nick)
		}
	}
	return strings.Join(parts, "|")
}
