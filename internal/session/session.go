package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"bwexport/internal/logging"
)

// ErrAcquisition matches every *AcquisitionError.
var ErrAcquisition = errors.New("session acquisition failed")

// AcquisitionError reports which step of obtaining a session failed.
type AcquisitionError struct {
	Step string
	Err  error
}

func (e *AcquisitionError) Error() string {
	return fmt.Sprintf("acquire session (%s): %v", e.Step, e.Err)
}

func (e *AcquisitionError) Unwrap() error {
	return e.Err
}

func (e *AcquisitionError) Is(target error) bool {
	return target == ErrAcquisition
}

// Token is an opaque session credential. Its zero value is empty.
type Token struct {
	value string
}

// NewToken wraps a raw session key.
func NewToken(value string) Token {
	return Token{value: strings.TrimSpace(value)}
}

// Reveal returns the raw key for passing to the vault CLI.
func (t Token) Reveal() string {
	return t.value
}

// Empty reports whether no key is held.
func (t Token) Empty() bool {
	return t.value == ""
}

func (t Token) String() string {
	if t.value == "" {
		return "<none>"
	}
	return "[redacted]"
}

func (t Token) GoString() string {
	return "session.Token{" + t.String() + "}"
}

// LogValue keeps the key out of structured logs.
func (t Token) LogValue() slog.Value {
	return slog.StringValue(t.String())
}

// Authenticator is the slice of the vault CLI the provider needs.
type Authenticator interface {
	CheckLogin(ctx context.Context) (bool, error)
	Login(ctx context.Context) (string, error)
	Unlock(ctx context.Context) (string, error)
}

// Source describes how a token was obtained.
type Source string

const (
	SourceEnv    Source = "env"
	SourceUnlock Source = "unlock"
	SourceLogin  Source = "login"
)

// Option configures a Provider.
type Option func(*Provider)

// WithSessionEnv names an environment variable whose non-empty value is used
// as the session key without invoking the CLI. An empty name disables reuse.
func WithSessionEnv(name string) Option {
	return func(p *Provider) {
		p.envName = strings.TrimSpace(name)
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithTerminalCheck overrides stdin terminal detection (primarily for tests).
func WithTerminalCheck(fn func() bool) Option {
	return func(p *Provider) {
		if fn != nil {
			p.isTerminal = fn
		}
	}
}

// Provider obtains session tokens.
type Provider struct {
	auth       Authenticator
	envName    string
	logger     *slog.Logger
	isTerminal func() bool
	source     Source
}

// NewProvider constructs a Provider around the given CLI capability.
func NewProvider(auth Authenticator, opts ...Option) *Provider {
	p := &Provider{
		auth:       auth,
		logger:     logging.NewNop(),
		isTerminal: stdinIsTerminal,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = logging.NewComponentLogger(p.logger, "session")
	return p
}

// Acquire returns a session token, prompting through the vault CLI when needed.
func (p *Provider) Acquire(ctx context.Context) (Token, error) {
	if p.envName != "" {
		if value, ok := os.LookupEnv(p.envName); ok && strings.TrimSpace(value) != "" {
			p.source = SourceEnv
			p.logger.Debug("reusing session from environment", logging.String("env", p.envName))
			return NewToken(value), nil
		}
	}

	loggedIn, err := p.auth.CheckLogin(ctx)
	if err != nil {
		return Token{}, &AcquisitionError{Step: "check-login", Err: err}
	}

	if !p.isTerminal() {
		p.logger.Warn("stdin is not a terminal; bw may be unable to prompt for credentials")
	}

	step, fetch := SourceLogin, p.auth.Login
	if loggedIn {
		step, fetch = SourceUnlock, p.auth.Unlock
	}
	p.logger.Info("requesting session", logging.String("method", string(step)))

	raw, err := fetch(ctx)
	if err != nil {
		return Token{}, &AcquisitionError{Step: string(step), Err: err}
	}
	token := NewToken(raw)
	if token.Empty() {
		return Token{}, &AcquisitionError{Step: string(step), Err: errors.New("empty session key")}
	}
	p.source = step
	return token, nil
}

// Source reports how the last successful Acquire obtained its token.
func (p *Provider) Source() Source {
	return p.source
}

func stdinIsTerminal() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
