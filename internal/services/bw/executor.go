package bw

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
)

// maxStderr bounds how much captured stderr is carried in a CommandError.
const maxStderr = 4096

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string, opts RunOptions) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	if opts.Interactive {
		cmd.Stdin = os.Stdin
		cmd.Stderr = os.Stderr
	} else {
		cmd.Stderr = &stderr
	}

	if err := cmd.Run(); err != nil {
		cmdErr := &CommandError{
			Args:     RedactArgs(args),
			ExitCode: -1,
			Stderr:   tail(strings.TrimSpace(stderr.String()), maxStderr),
			Err:      err,
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && ctx.Err() == nil {
			cmdErr.ExitCode = exitErr.ExitCode()
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			cmdErr.Err = ctxErr
		}
		return stdout.Bytes(), cmdErr
	}
	return stdout.Bytes(), nil
}

func tail(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return "..." + s[len(s)-limit:]
}
