package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
)

const stubSessionEnv = "BWEXPORT_TEST_SESSION"

const stubItems = `[{"object":"item","id":"A","type":1,"name":"Item A","attachments":[{"id":"a1","fileName":"a.txt","size":"4","sizeName":"4 Bytes","url":"https://example.invalid/a1"},{"id":"a2","fileName":"b.txt","size":"6","sizeName":"6 Bytes","url":"https://example.invalid/a2"}]},{"object":"item","id":"B","type":2,"name":"Item B","attachments":[{"id":"b1","fileName":"a.txt","size":"8","sizeName":"8 Bytes","url":"https://example.invalid/b1"}]}]`

// stubBW answers the bw subcommands bwexport uses. BW_STUB_FAIL names an
// attachment id whose download exits non-zero.
const stubBW = `#!/bin/sh
session=""
output=""
for arg in "$@"; do
  case "$arg" in
    --session=*) session="${arg#--session=}" ;;
    --output=*) output="${arg#--output=}" ;;
  esac
done
case "$1 $2" in
  "login --check")
    exit 0
    ;;
  "unlock --raw")
    printf 'stub-session'
    exit 0
    ;;
  "list items")
    [ "$session" = "stub-session" ] || { echo "invalid session" >&2; exit 1; }
    cat "$(dirname "$0")/items.json"
    exit 0
    ;;
  "get attachment")
    [ "$session" = "stub-session" ] || { echo "invalid session" >&2; exit 1; }
    if [ -n "$BW_STUB_FAIL" ] && [ "$3" = "$BW_STUB_FAIL" ]; then
      echo "Attachment not found." >&2
      exit 1
    fi
    printf 'payload %s' "$3" > "$output"
    exit 0
    ;;
esac
echo "unsupported: $*" >&2
exit 3
`

type cliTestEnv struct {
	baseDir    string
	configPath string
	dest       string
	stateDir   string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("BWEXPORT_BW_BINARY", "")
	t.Setenv("BW_STUB_FAIL", "")
	t.Setenv(stubSessionEnv, "stub-session")

	noColor := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = noColor })

	binDir := filepath.Join(base, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatalf("mkdir bin: %v", err)
	}
	bwPath := filepath.Join(binDir, "bw")
	if err := os.WriteFile(bwPath, []byte(stubBW), 0o755); err != nil {
		t.Fatalf("write bw stub: %v", err)
	}
	if err := os.WriteFile(filepath.Join(binDir, "items.json"), []byte(stubItems), 0o644); err != nil {
		t.Fatalf("write items: %v", err)
	}

	env := &cliTestEnv{
		baseDir:    base,
		configPath: filepath.Join(base, "config.toml"),
		dest:       filepath.Join(base, "export"),
		stateDir:   filepath.Join(base, "state"),
	}
	content := fmt.Sprintf(`[bw]
binary = %q
session_env = %q

[export]
destination = %q
max_parallel = 2

[paths]
state_dir = %q

[logging]
level = "error"
`, bwPath, stubSessionEnv, env.dest, env.stateDir)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

// runCLI executes the command tree against the test config and returns
// stdout, stderr and the process exit code.
func (e *cliTestEnv) runCLI(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(append([]string{"--config", e.configPath}, args...), &stdout, &stderr)
	return stdout.String(), stderr.String(), code
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
