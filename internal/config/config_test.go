package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// useConfig points the package at a temp file holding body.
func useConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	if body != "" {
		require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	}
	SetPath(path)
	t.Cleanup(func() { SetPath("") })
	return path
}

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	useConfig(t, "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 80, cfg.Display.GetColumns())
	assert.Equal(t, 24, cfg.Display.GetRows())
	assert.Equal(t, 100, cfg.Display.GetScrollbackLines())
	assert.InDelta(t, 1.0, cfg.Display.GetFontScale(), 1e-9)
	assert.True(t, cfg.Display.GetGeometryHints())
	assert.False(t, cfg.Match.Builtin)
}

func TestDefaultsAreNotShared(t *testing.T) {
	useConfig(t, "")

	cfg, err := Load()
	require.NoError(t, err)
	cfg.Display.Columns = 10
	cfg.Match.Patterns = append(cfg.Match.Patterns, "x+")

	cfg, err = Reload()
	require.NoError(t, err)
	assert.Equal(t, 80, cfg.Display.GetColumns())
	assert.Empty(t, cfg.Match.Patterns)
}

func TestLoadParsesAllTables(t *testing.T) {
	useConfig(t, `
[session]
command = "top -d 1"
working_directory = "/tmp"
pty_flags = "no-utmp,no-wtmp"
output_file = "/tmp/out.txt"
env = ["A=1", "B=2"]
term = "vt220"

[display]
columns = 132
rows = 43
scrollback_lines = 500
cursor_blink = "off"
cursor_shape = "ibeam"
scrollbar_policy = "never"
geometry = "100x30+10+20"
font_scale = 1.44
geometry_hints = false

[match]
builtin = true
patterns = ["[0-9]+", "foo(bar"]

[logs]
level = "debug"
format = "text"
debug = true
`)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "top -d 1", cfg.Session.Command)
	assert.Equal(t, "no-utmp,no-wtmp", cfg.Session.PtyFlags)
	assert.Equal(t, []string{"A=1", "B=2"}, cfg.Session.Env)
	assert.Equal(t, "vt220", cfg.Session.Term)
	assert.Equal(t, 132, cfg.Display.GetColumns())
	assert.Equal(t, 43, cfg.Display.GetRows())
	assert.Equal(t, "ibeam", cfg.Display.CursorShape)
	assert.Equal(t, "100x30+10+20", cfg.Display.Geometry)
	assert.InDelta(t, 1.44, cfg.Display.GetFontScale(), 1e-9)
	assert.False(t, cfg.Display.GetGeometryHints())
	assert.True(t, cfg.Match.Builtin)
	assert.Equal(t, []string{"[0-9]+", "foo(bar"}, cfg.Match.Patterns)

	logs := GetLogSettings()
	assert.Equal(t, "debug", logs.Level)
	assert.Equal(t, "text", logs.Format)
	assert.True(t, logs.Debug)
	assert.Equal(t, 10, logs.MaxSizeMB)
	assert.Equal(t, 5, logs.MaxBackups)
	assert.Equal(t, 10, logs.MaxAgeDays)
}

func TestLoadIsCachedUntilReload(t *testing.T) {
	path := useConfig(t, "[display]\ncolumns = 90\n")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 90, cfg.Display.Columns)

	require.NoError(t, os.WriteFile(path, []byte("[display]\ncolumns = 120\n"), 0o600))
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, 90, cfg.Display.Columns, "served from cache")

	cfg, err = Reload()
	require.NoError(t, err)
	assert.Equal(t, 120, cfg.Display.Columns)
	cached, err := Load()
	require.NoError(t, err)
	assert.Same(t, cfg, cached)
}

func TestLoadMalformedReturnsDefaultsAndError(t *testing.T) {
	useConfig(t, "[display\ncolumns = ")

	cfg, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse error")
	require.NotNil(t, cfg)
	assert.Equal(t, 80, cfg.Display.GetColumns())

	// Defaults stay cached; the error is reported once.
	_, err = Load()
	assert.NoError(t, err)
	assert.Equal(t, "info", GetLogSettings().Level)
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	p, err := DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/xdg", "termhost", FileName), p)

	SetPath("")
	p, err = Path()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/xdg", "termhost", FileName), p)
}
