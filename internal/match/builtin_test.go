package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinNarrow(t *testing.T) {
	cases := map[string]string{
		"visit http://example.com now":        "http://example.com",
		"mirror ftp.kernel.org:21 today":      "ftp.kernel.org:21",
		"go to www.gnome.org.":                "www.gnome.org.",
		"telnet://bbs.example.net:2323/board": "telnet://bbs.example.net:2323",
	}
	for text, want := range cases {
		assert.Equal(t, want, narrowRe.FindString(text), text)
	}
	assert.Empty(t, narrowRe.FindString("no links here"))
}

func TestBuiltinBroadTrimsTrailingPunctuation(t *testing.T) {
	cases := map[string]string{
		"see https://example.com/a/b?q=1&r=2 ok": "https://example.com/a/b?q=1&r=2",
		"(https://example.com/path).":            "https://example.com/path",
		`"http://x.org/index.html"`:              "http://x.org/index.html",
		"<http://x.org/~user/>":                  "http://x.org/~user/",
		"http://x.org/a, then":                   "http://x.org/a",
	}
	for text, want := range cases {
		assert.Equal(t, want, broadRe.FindString(text), text)
	}
	// Without a path the broad rule needs at least one path character.
	assert.Empty(t, broadRe.FindString("http://example.com"))
}

func TestRegisterBuiltinsOrderAndHints(t *testing.T) {
	r := NewRegistry()
	ids := r.RegisterBuiltins()
	require.Equal(t, []int{0, 1}, ids)

	h0, _ := r.Hint(ids[0])
	h1, _ := r.Hint(ids[1])
	assert.Equal(t, HintPointer, h0)
	assert.Equal(t, HintHand, h1)

	// On the host part the narrow rule is first and wins.
	text := "open https://example.com/docs/index.html please"
	m, ok := r.Check(text, 10)
	require.True(t, ok)
	assert.Equal(t, ids[0], m.ID)
	assert.Equal(t, "https://example.com", m.Text)

	// On the path only the broad rule covers the position.
	m, ok = r.Check(text, 28)
	require.True(t, ok)
	assert.Equal(t, ids[1], m.ID)
	assert.Equal(t, "https://example.com/docs/index.html", m.Text)
}
