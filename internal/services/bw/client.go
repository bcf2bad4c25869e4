package bw

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"bwexport/internal/logging"
)

// RunOptions controls how a single invocation is wired to the terminal.
type RunOptions struct {
	// Interactive hands stdin and stderr to the child so bw can prompt for
	// credentials. Stderr is captured otherwise.
	Interactive bool
}

// Executor abstracts command execution for testability. It returns whatever the
// command wrote to stdout, even on failure.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, opts RunOptions) ([]byte, error)
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// WithLogger attaches a logger used for command tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithVerbose promotes command tracing from debug to info level.
func WithVerbose(verbose bool) Option {
	return func(c *Client) {
		c.verbose = verbose
	}
}

// Client wraps Bitwarden CLI interactions.
type Client struct {
	binary  string
	timeout time.Duration
	exec    Executor
	logger  *slog.Logger
	verbose bool
}

// New constructs a bw client. A zero timeout disables the per-command limit;
// interactive commands are never subject to it.
func New(binary string, timeout time.Duration, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("bw binary required")
	}
	client := &Client{
		binary:  binary,
		timeout: timeout,
		exec:    commandExecutor{},
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	client.logger = logging.NewComponentLogger(client.logger, "bw")
	return client, nil
}

// Binary returns the configured executable.
func (c *Client) Binary() string {
	return c.binary
}

// Version reports the installed bw version.
func (c *Client) Version(ctx context.Context) (string, error) {
	out, err := c.run(ctx, []string{"--version"}, RunOptions{})
	if err != nil {
		return "", fmt.Errorf("bw version: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// CheckLogin reports whether bw holds an authenticated account. A non-zero exit
// means "not logged in"; failing to run bw at all is an error.
func (c *Client) CheckLogin(ctx context.Context) (bool, error) {
	_, err := c.run(ctx, []string{"login", "--check"}, RunOptions{})
	if err == nil {
		return true, nil
	}
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) && cmdErr.Exited() {
		return false, nil
	}
	return false, fmt.Errorf("bw login --check: %w", err)
}

// Login authenticates interactively and returns the raw session key.
func (c *Client) Login(ctx context.Context) (string, error) {
	return c.sessionCommand(ctx, "login")
}

// Unlock unlocks the local vault interactively and returns the raw session key.
func (c *Client) Unlock(ctx context.Context) (string, error) {
	return c.sessionCommand(ctx, "unlock")
}

func (c *Client) sessionCommand(ctx context.Context, command string) (string, error) {
	out, err := c.run(ctx, []string{command, "--raw"}, RunOptions{Interactive: true})
	if err != nil {
		return "", fmt.Errorf("bw %s: %w", command, err)
	}
	key := strings.TrimSpace(string(out))
	if key == "" {
		return "", fmt.Errorf("bw %s: empty session key", command)
	}
	return key, nil
}

// ListItems returns the raw JSON array printed by `bw list items`.
func (c *Client) ListItems(ctx context.Context, session string) ([]byte, error) {
	out, err := c.run(ctx, []string{"list", "items", "--nointeraction", sessionArg(session)}, RunOptions{})
	if err != nil {
		return nil, fmt.Errorf("bw list items: %w", err)
	}
	return out, nil
}

// GetAttachment writes one attachment to outputPath.
func (c *Client) GetAttachment(ctx context.Context, session, itemID, attachmentID, outputPath string) error {
	if strings.TrimSpace(outputPath) == "" {
		return errors.New("bw get attachment: output path required")
	}
	args := []string{
		"get", "attachment", attachmentID,
		"--itemid=" + itemID,
		"--nointeraction",
		sessionArg(session),
		"--output=" + outputPath,
	}
	if _, err := c.run(ctx, args, RunOptions{}); err != nil {
		return fmt.Errorf("bw get attachment %s: %w", attachmentID, err)
	}
	return nil
}

func (c *Client) run(ctx context.Context, args []string, opts RunOptions) ([]byte, error) {
	runCtx := ctx
	if c.timeout > 0 && !opts.Interactive {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	level := slog.LevelDebug
	if c.verbose {
		level = slog.LevelInfo
	}
	c.logger.Log(ctx, level, "running bw", logging.String("args", strings.Join(RedactArgs(args), " ")))

	start := time.Now()
	out, err := c.exec.Run(runCtx, c.binary, args, opts)
	c.logger.Debug("bw finished",
		logging.String("command", firstArgs(args)),
		logging.Duration("elapsed", time.Since(start)),
		logging.Bool("ok", err == nil),
	)
	return out, err
}

func sessionArg(session string) string {
	return "--session=" + session
}

func firstArgs(args []string) string {
	if len(args) > 2 {
		args = args[:2]
	}
	return strings.Join(args, " ")
}
