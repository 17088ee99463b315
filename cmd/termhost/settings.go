package main

import (
	"fmt"
	"strings"

	"github.com/termhost/termhost/internal/config"
	"github.com/termhost/termhost/internal/options"
	"github.com/termhost/termhost/internal/session"
)

// debugEnv is added to the child's environment in debug mode.
var debugEnv = []string{"FOO=BAR", "BOO=BIZ"}

// settings are the effective options after merging flags over the config.
type settings struct {
	console       bool
	consoleDevice string
	noShell       bool
	command       string
	workingDir    string
	term          string
	env           []string
	ptyFlags      session.PtyFlags
	outputFile    string

	cols, rows      int
	scrollbackLines int
	cursorBlink     options.CursorBlink
	cursorShape     options.CursorShape
	scrollbarPolicy options.ScrollbarPolicy
	geometry        string
	fontScale       float64
	geometryHints   bool
	iconTitle       bool

	builtinDingus bool
	patterns      []string
	removeOnMatch bool

	debug bool
	keep  bool

	// warnings are reported once logging is up.
	warnings []string
}

func (o *cliOptions) set(name string) bool { return o.changed[name] }

// resolveSettings merges opts over cfg. Bad option values fall back to
// defaults and are reported as warnings.
func resolveSettings(opts *cliOptions, cfg *config.Config) settings {
	s := settings{
		console:       opts.console,
		consoleDevice: opts.consoleDevice,
		noShell:       opts.noShell,
		command:       cfg.Session.Command,
		workingDir:    cfg.Session.WorkingDirectory,
		term:          pick(opts, "termcap", opts.termcap, cfg.Session.Term),
		env:           append([]string(nil), cfg.Session.Env...),
		outputFile:    cfg.Session.OutputFile,

		cols:            cfg.Display.GetColumns(),
		rows:            cfg.Display.GetRows(),
		scrollbackLines: cfg.Display.GetScrollbackLines(),
		geometry:        cfg.Display.Geometry,
		fontScale:       cfg.Display.GetFontScale(),
		geometryHints:   cfg.Display.GetGeometryHints(),
		iconTitle:       opts.iconTitle,

		builtinDingus: cfg.Match.Builtin || opts.builtinDingus,
		patterns:      append(append([]string(nil), cfg.Match.Patterns...), opts.dingus...),
		removeOnMatch: opts.removeOnMatch,

		debug: cfg.Logs.Debug || opts.debug,
		keep:  opts.keep,
	}

	if opts.set("command") {
		s.command = opts.command
	}
	if opts.set("working-directory") {
		s.workingDir = opts.workingDir
	}
	if opts.set("output-file") {
		s.outputFile = opts.outputFile
	}
	if opts.set("scrollback-lines") {
		s.scrollbackLines = opts.scrollbackLines
	}
	if opts.set("geometry") {
		s.geometry = opts.geometry
	}
	if opts.noGeometryHints {
		s.geometryHints = false
	}
	if s.debug {
		s.env = append(s.env, debugEnv...)
	}

	ptyFlags := cfg.Session.PtyFlags
	if opts.set("pty-flags") {
		ptyFlags = opts.ptyFlags
	}
	var unknown []string
	s.ptyFlags, unknown = session.ParsePtyFlags(ptyFlags)
	for _, u := range unknown {
		s.warnings = append(s.warnings, fmt.Sprintf("unknown pty flag %q ignored", strings.TrimSpace(u)))
	}

	var err error
	blink := pick(opts, "cursor-blink", opts.cursorBlink, cfg.Display.CursorBlink)
	if s.cursorBlink, err = options.ParseCursorBlink(blink); err != nil {
		s.warnings = append(s.warnings, err.Error())
	}
	shape := pick(opts, "cursor-shape", opts.cursorShape, cfg.Display.CursorShape)
	if s.cursorShape, err = options.ParseCursorShape(shape); err != nil {
		s.warnings = append(s.warnings, err.Error())
	}
	policy := pick(opts, "scrollbar-policy", opts.scrollbarPolicy, cfg.Display.ScrollbarPolicy)
	if s.scrollbarPolicy, err = options.ParseScrollbarPolicy(policy); err != nil {
		s.warnings = append(s.warnings, err.Error())
	}
	return s
}

// pick returns the flag value when it was set, else the config value when
// present, else the flag default.
func pick(opts *cliOptions, name, flagValue, configValue string) string {
	if opts.set(name) || configValue == "" {
		return flagValue
	}
	return configValue
}
