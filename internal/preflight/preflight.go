package preflight

import (
	"context"

	"bwexport/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// RunAll executes every preflight check for the given config. The login check
// is skipped when the bw binary is unavailable.
func RunAll(ctx context.Context, cfg *config.Config, checker LoginChecker) []Result {
	if cfg == nil {
		return nil
	}

	results := CheckDependencies(cfg)
	bwAvailable := allPassed(results)

	results = append(results,
		CheckCreatableDirectory("Export destination", cfg.Export.Destination),
		CheckCreatableDirectory("State directory", cfg.Paths.StateDir),
	)

	if bwAvailable {
		results = append(results, CheckLogin(ctx, checker, cfg.BW.SessionEnv))
	}
	return results
}

// Failed reports whether any result did not pass.
func Failed(results []Result) bool {
	return !allPassed(results)
}

func allPassed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}
