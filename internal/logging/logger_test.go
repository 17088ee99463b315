package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// readRecords parses every JSON line in the log file under dir.
func readRecords(t *testing.T, dir string) []map[string]any {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, LogFileName))
	require.NoError(t, err)

	var records []map[string]any
	for _, line := range bytes.Split(data, []byte{'\n'}) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var r map[string]any
		if err := json.Unmarshal(line, &r); err == nil {
			records = append(records, r)
		}
	}
	return records
}

func findMsg(records []map[string]any, msg string) map[string]any {
	for _, r := range records {
		if r["msg"] == msg {
			return r
		}
	}
	return nil
}

func TestInitWritesJSONLines(t *testing.T) {
	Shutdown()
	dir := t.TempDir()
	Init(Config{LogDir: dir})
	defer Shutdown()

	Logger().Info("session_started", "pid", 42)

	rec := findMsg(readRecords(t, dir), "session_started")
	require.NotNil(t, rec)
	assert.EqualValues(t, 42, rec["pid"])
}

func TestInitWithoutDirOrDebugDiscards(t *testing.T) {
	Shutdown()
	Init(Config{})
	defer Shutdown()

	require.NotNil(t, Logger())
	Logger().Info("nowhere")
}

func TestLoggerBeforeInit(t *testing.T) {
	Shutdown()
	require.NotNil(t, Logger())
	ForComponent(CompLoop).Warn("early_record")
}

func TestForComponentTagsRecords(t *testing.T) {
	Shutdown()
	dir := t.TempDir()

	// Created before Init, as package-level loggers are.
	l := ForComponent(CompBridge).With(slog.Int("fd", 7))

	Init(Config{LogDir: dir})
	defer Shutdown()

	l.Info("watch_released")

	rec := findMsg(readRecords(t, dir), "watch_released")
	require.NotNil(t, rec)
	assert.Equal(t, CompBridge, rec["component"])
	assert.EqualValues(t, 7, rec["fd"])
}

func TestLevelFiltering(t *testing.T) {
	Shutdown()
	dir := t.TempDir()
	Init(Config{LogDir: dir, Level: "warn"})
	defer Shutdown()

	Logger().Info("filtered_out")
	Logger().Warn("kept")

	records := readRecords(t, dir)
	assert.Nil(t, findMsg(records, "filtered_out"))
	assert.NotNil(t, findMsg(records, "kept"))
}

func TestTextFormat(t *testing.T) {
	Shutdown()
	dir := t.TempDir()
	Init(Config{LogDir: dir, Format: "text"})
	defer Shutdown()

	Logger().Info("text_record")

	data, err := os.ReadFile(filepath.Join(dir, LogFileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "msg=text_record")
}

func TestDebugCopiesToStderr(t *testing.T) {
	Shutdown()
	var stderr bytes.Buffer
	Init(Config{Debug: true, Stderr: &stderr})
	defer Shutdown()

	Logger().Info("visible_in_debug")
	assert.Contains(t, stderr.String(), "visible_in_debug")
}

func TestDumpRingBuffer(t *testing.T) {
	Shutdown()
	dir := t.TempDir()
	Init(Config{LogDir: dir, RingBufferSize: 4096})
	defer Shutdown()

	Logger().Info("ring_record")

	dump := filepath.Join(dir, "dump.jsonl")
	require.NoError(t, DumpRingBuffer(dump))
	data, err := os.ReadFile(dump)
	require.NoError(t, err)
	assert.Contains(t, string(data), "ring_record")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}
