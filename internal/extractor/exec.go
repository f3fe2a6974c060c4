package extractor

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// maxPublicErrorLen bounds how much subprocess stderr leaks into
// user-visible failure messages.
const maxPublicErrorLen = 200

// commandResult captures a finished (or killed) subprocess. Stdout and
// stderr are accumulated in full, not streamed.
type commandResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
	TimedOut bool
}

// runCommand executes name with args under a hard deadline. On timeout
// the process is killed and the accumulated stderr plus a timeout
// marker becomes the diagnostic. A spawn-level error (binary missing,
// permission denied) surfaces as exit code -1 with the error message as
// stderr.
func runCommand(ctx context.Context, timeout time.Duration, name string, args ...string) commandResult {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	// Unblock Wait even if a child of the killed process holds the
	// output pipes open.
	cmd.WaitDelay = 100 * time.Millisecond

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	result := commandResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if ctx.Err() == context.DeadlineExceeded {
		result.TimedOut = true
		result.ExitCode = -1
		result.Stderr = strings.TrimSpace(result.Stderr + fmt.Sprintf("\nkilled: timeout after %v", timeout))
		return result
	}

	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.ExitCode = -1
			if result.Stderr == "" {
				result.Stderr = err.Error()
			}
		}
	}

	return result
}

// publicError reduces raw diagnostics to a short user-facing message:
// the first non-blank line, truncated.
func publicError(diagnostic string) string {
	for _, line := range strings.Split(diagnostic, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if len(line) > maxPublicErrorLen {
			return line[:maxPublicErrorLen]
		}
		return line
	}
	return "unknown error"
}
