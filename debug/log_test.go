package debug

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogWritesCategoryLine(t *testing.T) {
	var buf bytes.Buffer
	EnableTo(&buf)
	defer Disable()

	Log("session", "generated %d notes", 4)

	line := buf.String()
	assert.Contains(t, line, "session")
	assert.Contains(t, line, "generated 4 notes")
	assert.True(t, strings.HasSuffix(line, "\n"))
}

func TestLogDisabledIsSilent(t *testing.T) {
	var buf bytes.Buffer
	EnableTo(&buf)
	Disable()

	Log("session", "should not appear")
	assert.Empty(t, buf.String())
	assert.False(t, Enabled())
}

func TestLogEveryThrottles(t *testing.T) {
	var buf bytes.Buffer
	EnableTo(&buf)
	defer Disable()

	for i := 0; i < 9; i++ {
		LogEvery(3, "tick", "frame")
	}
	assert.Equal(t, 3, strings.Count(buf.String(), "frame"))
}
