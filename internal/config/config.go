// Package config loads the user's termhost.toml settings.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/termhost/termhost/internal/logging"
)

var configLog = logging.ForComponent(logging.CompConfig)

// FileName is the config file name inside the config directory.
const FileName = "config.toml"

// Config is the whole user config file.
type Config struct {
	Session SessionSettings `toml:"session"`
	Display DisplaySettings `toml:"display"`
	Match   MatchSettings   `toml:"match"`
	Logs    LogSettings     `toml:"logs"`
}

// SessionSettings configure the child started in the terminal.
type SessionSettings struct {
	// Command runs instead of the user's shell. Parsed with shell quoting.
	Command          string `toml:"command"`
	WorkingDirectory string `toml:"working_directory"`

	// PtyFlags is a comma separated list such as "no-utmp,no-wtmp".
	PtyFlags string `toml:"pty_flags"`

	// OutputFile receives the buffer contents when the session ends.
	OutputFile string `toml:"output_file"`

	// Env entries ("KEY=VALUE") are added to the child's environment.
	Env []string `toml:"env"`

	// Term is the child's TERM (default "xterm-256color").
	Term string `toml:"term"`
}

// DisplaySettings configure the buffer and window.
type DisplaySettings struct {
	// Columns and Rows size the buffer. Default: 80x24
	Columns int `toml:"columns"`
	Rows    int `toml:"rows"`

	// ScrollbackLines is accepted for compatibility; the buffer keeps no
	// scrollback. Default: 100
	ScrollbackLines int `toml:"scrollback_lines"`

	CursorBlink     string `toml:"cursor_blink"`
	CursorShape     string `toml:"cursor_shape"`
	ScrollbarPolicy string `toml:"scrollbar_policy"`

	// Geometry is an X11-style spec, "COLSxROWS+X+Y".
	Geometry string `toml:"geometry"`

	// FontScale is the initial font scale. Default: 1.0
	FontScale float64 `toml:"font_scale"`

	// GeometryHints publishes size increments to the window.
	// Default: true
	GeometryHints *bool `toml:"geometry_hints"`
}

// MatchSettings configure the dingus registry.
type MatchSettings struct {
	// Builtin registers the URL-ish patterns.
	Builtin bool `toml:"builtin"`

	// Patterns are extra regexes registered at startup and on reload.
	Patterns []string `toml:"patterns"`
}

// LogSettings configure the debug log.
type LogSettings struct {
	// Dir holds termhost.log. Empty keeps logs off unless Debug is set.
	Dir string `toml:"dir"`

	// Level: "debug", "info", "warn", "error". Default: "info"
	Level string `toml:"level"`

	// Format: "json" (default) or "text"
	Format string `toml:"format"`

	// MaxSizeMB before rotation. Default: 10
	MaxSizeMB int `toml:"max_size_mb"`

	// MaxBackups rotated files to keep. Default: 5
	MaxBackups int `toml:"max_backups"`

	// MaxAgeDays to keep rotated files. Default: 10
	MaxAgeDays int `toml:"max_age_days"`

	Compress bool `toml:"compress"`
	Debug    bool `toml:"debug"`
}

// defaults returns a fresh zero-value config; its getters supply the
// default values.
func defaults() *Config {
	return &Config{}
}

// Cache for the loaded config
var (
	configCache   *Config
	configCacheMu sync.RWMutex
	configPath    string
)

// DefaultPath returns $XDG_CONFIG_HOME/termhost/config.toml, falling back
// to ~/.config.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "termhost", FileName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(home, ".config", "termhost", FileName), nil
}

// SetPath makes later loads read path instead of the default location and
// drops the cache. An empty path restores the default.
func SetPath(path string) {
	configCacheMu.Lock()
	configPath = path
	configCache = nil
	configCacheMu.Unlock()
}

// Path returns the file Load reads.
func Path() (string, error) {
	configCacheMu.RLock()
	p := configPath
	configCacheMu.RUnlock()
	if p != "" {
		return p, nil
	}
	return DefaultPath()
}

// Load reads the config file. The result is cached after the first call.
// A missing file yields the defaults; a malformed one yields the defaults
// and the parse error.
func Load() (*Config, error) {
	configCacheMu.RLock()
	if configCache != nil {
		defer configCacheMu.RUnlock()
		return configCache, nil
	}
	configCacheMu.RUnlock()

	path, err := Path()

	configCacheMu.Lock()
	defer configCacheMu.Unlock()
	if configCache != nil {
		return configCache, nil
	}
	if err != nil {
		configCache = defaults()
		return configCache, nil
	}

	cfg, err := decodeFile(path)
	if err != nil {
		// Cache the defaults so a broken file is not re-parsed on every call.
		configCache = defaults()
		return configCache, err
	}
	configCache = cfg
	return configCache, nil
}

func decodeFile(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return defaults(), nil
	}
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s parse error: %w", filepath.Base(path), err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		configLog.Warn("config_unknown_keys", slog.String("path", path), slog.String("keys", fmt.Sprint(undecoded)))
	}
	return &cfg, nil
}

// Reload drops the cache and reads the file again.
func Reload() (*Config, error) {
	ClearCache()
	return Load()
}

// ClearCache makes the next Load read from disk.
func ClearCache() {
	configCacheMu.Lock()
	configCache = nil
	configCacheMu.Unlock()
}

// GetColumns returns the buffer width, default 80.
func (d *DisplaySettings) GetColumns() int {
	if d.Columns <= 0 {
		return 80
	}
	return d.Columns
}

// GetRows returns the buffer height, default 24.
func (d *DisplaySettings) GetRows() int {
	if d.Rows <= 0 {
		return 24
	}
	return d.Rows
}

// GetScrollbackLines returns the scrollback length, default 100.
func (d *DisplaySettings) GetScrollbackLines() int {
	if d.ScrollbackLines <= 0 {
		return 100
	}
	return d.ScrollbackLines
}

// GetFontScale returns the font scale, default 1.0.
func (d *DisplaySettings) GetFontScale() float64 {
	if d.FontScale <= 0 {
		return 1.0
	}
	return d.FontScale
}

// GetGeometryHints reports whether geometry hints are enabled, default true.
func (d *DisplaySettings) GetGeometryHints() bool {
	if d.GeometryHints == nil {
		return true
	}
	return *d.GeometryHints
}

// GetLogSettings returns log settings with defaults applied.
func GetLogSettings() LogSettings {
	settings := LogSettings{}
	if cfg, err := Load(); err == nil && cfg != nil {
		settings = cfg.Logs
	}
	if settings.Level == "" {
		settings.Level = "info"
	}
	if settings.Format == "" {
		settings.Format = "json"
	}
	if settings.MaxSizeMB <= 0 {
		settings.MaxSizeMB = 10
	}
	if settings.MaxBackups <= 0 {
		settings.MaxBackups = 5
	}
	if settings.MaxAgeDays <= 0 {
		settings.MaxAgeDays = 10
	}
	return settings
}
