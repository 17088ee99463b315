package session

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParsePtyFlags(t *testing.T) {
	flags, unknown := ParsePtyFlags("no-utmp, no-wtmp|NO-FALLBACK,bogus,default")
	assert.True(t, flags.Has(PtyNoUtmp|PtyNoWtmp|PtyNoFallback))
	assert.False(t, flags.Has(PtyNoLastlog))
	assert.Equal(t, []string{"bogus"}, unknown)

	flags, unknown = ParsePtyFlags("")
	assert.Equal(t, PtyDefault, flags)
	assert.Empty(t, unknown)
}

func TestPtyFlagsString(t *testing.T) {
	assert.Equal(t, "default", PtyDefault.String())
	assert.Equal(t, "no-lastlog|no-helper", (PtyNoLastlog | PtyNoHelper).String())
	assert.EqualValues(t, 1, PtyNoLastlog)
	assert.EqualValues(t, 16, PtyNoFallback)
}

func TestStateAndModeNames(t *testing.T) {
	assert.Equal(t, "exit_pending", StateExitPending.String())
	assert.Equal(t, "torn_down", StateTornDown.String())
	assert.Equal(t, "console", ModeConsoleWatch.String())
	assert.Equal(t, "command", ModeExplicitCommand.String())
}

func TestRunPlaceholderAlternatesStreams(t *testing.T) {
	var stdout, stderr bytes.Buffer
	runPlaceholder(&stdout, &stderr, time.Millisecond, 6)
	assert.Equal(t, "0\n1\n3\n4\n", stdout.String())
	assert.Equal(t, "2\n5\n", stderr.String())
}
