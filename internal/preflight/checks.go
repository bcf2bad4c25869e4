package preflight

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"bwexport/internal/config"
	"bwexport/internal/deps"
)

// LoginChecker reports whether the vault CLI holds a logged-in account.
type LoginChecker interface {
	CheckLogin(ctx context.Context) (bool, error)
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckCreatableDirectory accepts an existing writable directory, or a missing
// one whose nearest existing ancestor is writable.
func CheckCreatableDirectory(name, path string) Result {
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	if _, err := os.Stat(path); err == nil {
		return CheckDirectoryAccess(name, path)
	}

	ancestor, err := nearestExisting(filepath.Dir(path))
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	parent := CheckDirectoryAccess(name, ancestor)
	if !parent.Passed {
		return Result{Name: name, Detail: fmt.Sprintf("%s (cannot be created: %s)", path, parent.Detail)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (will be created)", path)}
}

func nearestExisting(path string) (string, error) {
	for {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		} else if !os.IsNotExist(err) {
			return "", err
		}
		parent := filepath.Dir(path)
		if parent == path {
			return "", errors.New("no existing ancestor")
		}
		path = parent
	}
}

// CheckDependencies converts binary availability into check results.
func CheckDependencies(cfg *config.Config) []Result {
	statuses := deps.CheckBinaries(deps.Requirements(cfg))
	results := make([]Result, 0, len(statuses))
	for _, status := range statuses {
		result := Result{Name: status.Name, Passed: status.Available || status.Optional}
		switch {
		case status.Available:
			result.Detail = status.Path
		default:
			result.Detail = status.Detail
		}
		results = append(results, result)
	}
	return results
}

// CheckLogin reports how a session will be obtained. A missing login is not a
// failure because the export prompts for one.
func CheckLogin(ctx context.Context, checker LoginChecker, sessionEnv string) Result {
	const name = "Bitwarden session"

	if sessionEnv != "" && strings.TrimSpace(os.Getenv(sessionEnv)) != "" {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("reusing $%s", sessionEnv)}
	}
	if checker == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	loggedIn, err := checker.CheckLogin(ctx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("login check failed (%v)", err)}
	}
	if loggedIn {
		return Result{Name: name, Passed: true, Detail: "logged in (unlock will prompt for the master password)"}
	}
	return Result{Name: name, Passed: true, Detail: "not logged in (login will prompt)"}
}
