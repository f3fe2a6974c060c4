package extractor

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCommand_Success(t *testing.T) {
	result := runCommand(context.Background(), 5*time.Second, "sh", "-c", "echo hello out; echo hello err >&2")

	assert.Equal(t, 0, result.ExitCode)
	assert.False(t, result.TimedOut)
	assert.Equal(t, "hello out\n", result.Stdout)
	assert.Equal(t, "hello err\n", result.Stderr)
}

func TestRunCommand_NonZeroExit(t *testing.T) {
	result := runCommand(context.Background(), 5*time.Second, "sh", "-c", "echo broken >&2; exit 3")

	assert.Equal(t, 3, result.ExitCode)
	assert.False(t, result.TimedOut)
	assert.Contains(t, result.Stderr, "broken")
}

func TestRunCommand_Timeout(t *testing.T) {
	start := time.Now()
	result := runCommand(context.Background(), 50*time.Millisecond, "sh", "-c", "sleep 5")
	elapsed := time.Since(start)

	assert.True(t, result.TimedOut)
	assert.Equal(t, -1, result.ExitCode)
	assert.Contains(t, result.Stderr, "timeout")
	assert.Less(t, elapsed, 500*time.Millisecond, "timeout must win the race, not hang")
}

func TestRunCommand_TimeoutClassifiesAsTimeout(t *testing.T) {
	result := runCommand(context.Background(), 50*time.Millisecond, "sh", "-c", "sleep 5")
	assert.Equal(t, KindTimeout, Classify(result.Stderr))
}

func TestRunCommand_SpawnError(t *testing.T) {
	result := runCommand(context.Background(), time.Second, "/definitely/not/a/binary")

	assert.Equal(t, -1, result.ExitCode)
	assert.False(t, result.TimedOut)
	assert.NotEmpty(t, result.Stderr)
}

func TestPublicError(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"single line", "ERROR: something broke", "ERROR: something broke"},
		{"skips blank leading lines", "\n\n  \nfirst real line\nsecond line", "first real line"},
		{"empty input", "", "unknown error"},
		{"whitespace only", "   \n\t\n", "unknown error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, publicError(tt.input))
		})
	}
}

func TestPublicError_Truncation(t *testing.T) {
	long := strings.Repeat("x", 500)
	out := publicError(long)

	require.Len(t, out, maxPublicErrorLen)
	assert.Equal(t, strings.Repeat("x", maxPublicErrorLen), out)
}
