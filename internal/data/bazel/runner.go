package bazel

import (
	"bytes"
	"context"
	"os/exec"
	"path/filepath"
	"strings"

	"moduledeps/internal/core/errors"
	"moduledeps/internal/shared/observability"
)

// Runner executes a command in dir and returns its standard output.
type Runner func(ctx context.Context, dir, name string, args ...string) ([]byte, error)

// ExecRunner runs commands as subprocesses. Stderr is attached to the error.
func ExecRunner(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	tool := filepath.Base(name)
	if err := cmd.Run(); err != nil {
		observability.SubprocessRunsTotal.WithLabelValues(tool, "error").Inc()
		wrapped := errors.Wrap(err, errors.CodeInternal, "command failed")
		wrapped = errors.AddContext(wrapped, errors.CtxCommand, strings.TrimSpace(name+" "+strings.Join(args, " ")))
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			wrapped = errors.AddContext(wrapped, "stderr", lastLine(msg))
		}
		return nil, wrapped
	}
	observability.SubprocessRunsTotal.WithLabelValues(tool, "ok").Inc()
	return stdout.Bytes(), nil
}

func lastLine(s string) string {
	if idx := strings.LastIndex(s, "\n"); idx >= 0 {
		return s[idx+1:]
	}
	return s
}

// lines splits command output into trimmed, non-empty lines.
func lines(out []byte) []string {
	var result []string
	for _, line := range strings.Split(string(out), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			result = append(result, line)
		}
	}
	return result
}
