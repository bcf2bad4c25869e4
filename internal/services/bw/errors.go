package bw

import (
	"fmt"
	"strings"
)

const redacted = "[redacted]"

// CommandError describes a failed bw invocation. Args never contain the
// session key.
type CommandError struct {
	Args     []string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	var b strings.Builder
	if e.ExitCode >= 0 {
		fmt.Fprintf(&b, "exit status %d", e.ExitCode)
	} else if e.Err != nil {
		b.WriteString(e.Err.Error())
	} else {
		b.WriteString("command failed")
	}
	if e.Stderr != "" {
		b.WriteString(": ")
		b.WriteString(e.Stderr)
	}
	return b.String()
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// Exited reports whether the process ran and returned a non-zero status, as
// opposed to failing to start or being killed.
func (e *CommandError) Exited() bool {
	return e.ExitCode > 0
}

// RedactArgs returns a copy of args with session values masked.
func RedactArgs(args []string) []string {
	out := make([]string, len(args))
	for i, arg := range args {
		switch {
		case strings.HasPrefix(arg, "--session="):
			out[i] = "--session=" + redacted
		case i > 0 && args[i-1] == "--session":
			out[i] = redacted
		default:
			out[i] = arg
		}
	}
	return out
}
