package main

import (
	"os"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/termhost/termhost/internal/config"
	"github.com/termhost/termhost/internal/options"
	"github.com/termhost/termhost/internal/session"
)

// parseFlags parses args with the root command's flags.
func parseFlags(t *testing.T, args ...string) *cliOptions {
	t.Helper()
	opts := &cliOptions{}
	fs := pflag.NewFlagSet("termhost", pflag.ContinueOnError)
	opts.bind(fs)
	require.NoError(t, fs.Parse(args))
	opts.markChanged(fs)
	return opts
}

func TestResolveSettingsDefaults(t *testing.T) {
	opts := parseFlags(t)
	s := resolveSettings(opts, &config.Config{})

	assert.False(t, s.console)
	assert.Equal(t, 80, s.cols)
	assert.Equal(t, 24, s.rows)
	assert.Equal(t, 100, s.scrollbackLines)
	assert.Equal(t, options.CursorBlinkSystem, s.cursorBlink)
	assert.Equal(t, options.CursorShapeBlock, s.cursorShape)
	assert.Equal(t, options.ScrollbarAlways, s.scrollbarPolicy)
	assert.Equal(t, session.PtyDefault, s.ptyFlags)
	assert.True(t, s.geometryHints)
	assert.Equal(t, session.DefaultTerm, s.term)
	assert.Empty(t, s.env)
	assert.Empty(t, s.warnings)
}

func TestResolveSettingsFlagsOverrideConfig(t *testing.T) {
	hints := true
	cfg := &config.Config{
		Session: config.SessionSettings{
			Command:  "top",
			PtyFlags: "no-utmp",
			Env:      []string{"A=1"},
			Term:     "vt220",
		},
		Display: config.DisplaySettings{
			CursorShape:   "underline",
			CursorBlink:   "on",
			Geometry:      "90x30",
			GeometryHints: &hints,
		},
		Match: config.MatchSettings{Patterns: []string{"cfg+"}},
	}
	opts := parseFlags(t,
		"-c", "htop -d 5",
		"--pty-flags", "no-wtmp,bogus",
		"--cursor-shape", "ibeam",
		"-g", "100x40+5+5",
		"-G",
		"--dingu", "flag+",
		"-D",
	)
	s := resolveSettings(opts, cfg)

	assert.Equal(t, "htop -d 5", s.command)
	assert.Equal(t, "vt220", s.term, "config used when flag not given")
	assert.Equal(t, session.PtyNoWtmp, s.ptyFlags)
	assert.Equal(t, options.CursorShapeIBeam, s.cursorShape)
	assert.Equal(t, options.CursorBlinkOn, s.cursorBlink, "config used when flag not given")
	assert.Equal(t, "100x40+5+5", s.geometry)
	assert.False(t, s.geometryHints)
	assert.True(t, s.builtinDingus)
	assert.Equal(t, []string{"cfg+", "flag+"}, s.patterns)
	assert.Equal(t, []string{"A=1"}, s.env)
	require.Len(t, s.warnings, 1)
	assert.Contains(t, s.warnings[0], "bogus")
}

func TestResolveSettingsDebugEnvAndBadNames(t *testing.T) {
	opts := parseFlags(t, "-d", "--cursor-blink", "sometimes", "-P", "sideways")
	s := resolveSettings(opts, &config.Config{Session: config.SessionSettings{Env: []string{"X=1"}}})

	assert.True(t, s.debug)
	assert.Equal(t, []string{"X=1", "FOO=BAR", "BOO=BIZ"}, s.env)
	assert.Equal(t, options.CursorBlinkSystem, s.cursorBlink)
	assert.Equal(t, options.ScrollbarAlways, s.scrollbarPolicy)
	assert.Len(t, s.warnings, 2)
}

func TestTermcapFlagWins(t *testing.T) {
	opts := parseFlags(t, "-t", "linux")
	s := resolveSettings(opts, &config.Config{Session: config.SessionSettings{Term: "vt220"}})
	assert.Equal(t, "linux", s.term)
}

func TestConsoleWarning(t *testing.T) {
	unsupported := &session.OpenError{Op: "attach", Path: "/dev/console", Err: session.ErrUnsupported}
	assert.Contains(t, consoleWarning(unsupported), "starting a shell instead")

	denied := &session.OpenError{Op: "open", Path: "/dev/console", Err: os.ErrPermission}
	assert.Equal(t, "Could not open console: open /dev/console: permission denied", consoleWarning(denied))
}

func TestRootCommandRejectsArgs(t *testing.T) {
	cmd := newRootCmd()
	assert.True(t, strings.HasPrefix(cmd.Short, "termhost: "), cmd.Short)
	cmd.SetArgs([]string{"stray"})
	cmd.SilenceErrors = true
	assert.Error(t, cmd.Execute())
}
