package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/termhost/termhost/internal/session"
)

// cliOptions are the command-line settings. Flags the user set win over the
// config file.
type cliOptions struct {
	console         bool
	consoleDevice   string
	builtinDingus   bool
	dingus          []string
	noShell         bool
	command         string
	debug           bool
	geometry        string
	keep            bool
	scrollbackLines int
	cursorBlink     string
	cursorShape     string
	scrollbarPolicy string
	workingDir      string
	outputFile      string
	ptyFlags        string
	noGeometryHints bool
	configPath      string
	iconTitle       bool
	removeOnMatch   bool
	termcap         string

	// changed records which flags were given explicitly.
	changed map[string]bool
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}
	cmd := &cobra.Command{
		Use:   "termhost",
		Short: "termhost: run a shell or watch a console in a terminal buffer",
		Long: "termhost runs a command on a pseudo-terminal (or watches the system console),\n" +
			"feeds its output into a terminal buffer and marks regex \"dingus\" matches.",
		Version: Version,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.markChanged(cmd.Flags())
			return run(cmd.Context(), opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	opts.bind(cmd.Flags())
	return cmd
}

func (o *cliOptions) bind(f *pflag.FlagSet) {
	f.BoolVarP(&o.console, "console", "C", false, "watch /dev/console instead of running a shell")
	f.StringVar(&o.consoleDevice, "console-device", "", "device watched with --console (default /dev/console)")
	f.BoolVarP(&o.builtinDingus, "builtin-dingus", "D", false, "highlight URLs inside the terminal")
	f.StringArrayVar(&o.dingus, "dingu", nil, "add regex highlight (repeatable)")
	f.BoolVarP(&o.noShell, "no-shell", "S", false, "run a placeholder counter instead of a shell")
	f.StringVarP(&o.command, "command", "c", "", "execute a command in the terminal")
	f.BoolVarP(&o.debug, "debug", "d", false, "enable debug output")
	f.StringVarP(&o.geometry, "geometry", "g", "", "set the size (COLSxROWS) and position (+X+Y)")
	f.BoolVarP(&o.keep, "keep", "k", false, "stay alive after the terminal closes")
	f.IntVarP(&o.scrollbackLines, "scrollback-lines", "n", 100, "number of scrollback lines")
	f.StringVar(&o.cursorBlink, "cursor-blink", "system", "cursor blink mode (system|on|off)")
	f.StringVar(&o.cursorShape, "cursor-shape", "block", "cursor shape (block|underline|ibeam)")
	f.StringVarP(&o.scrollbarPolicy, "scrollbar-policy", "P", "always", "scrollbar policy (always|auto|never)")
	f.StringVarP(&o.workingDir, "working-directory", "w", "", "working directory for the child")
	f.StringVar(&o.outputFile, "output-file", "", "save terminal contents to this file at exit")
	f.StringVar(&o.ptyFlags, "pty-flags", "", "PTY flags (no-lastlog,no-utmp,no-wtmp,no-helper,no-fallback)")
	f.BoolVarP(&o.noGeometryHints, "no-geometry-hints", "G", false, "do not set window geometry hints")
	f.StringVar(&o.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/termhost/config.toml)")
	f.BoolVarP(&o.iconTitle, "icon-title", "i", false, "forward icon title changes")
	f.BoolVar(&o.removeOnMatch, "remove-on-match", false, "remove a dingus after its first match")
	f.StringVarP(&o.termcap, "termcap", "t", session.DefaultTerm, "TERM value given to the child")
}

// markChanged records the flags given on the command line.
func (o *cliOptions) markChanged(f *pflag.FlagSet) {
	o.changed = make(map[string]bool)
	f.Visit(func(fl *pflag.Flag) { o.changed[fl.Name] = true })
}
