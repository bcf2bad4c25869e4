// Package bw mediates access to the Bitwarden CLI.
//
// It normalizes command invocation for the handful of operations bwexport
// needs (login state, login/unlock, item listing, attachment retrieval),
// redacts session tokens from anything it logs or reports, and exposes an
// Executor seam so callers can be tested without a live `bw` binary.
//
// Prefer this package over ad-hoc exec.Command usage when talking to bw so
// interactive passthrough, timeouts, and error reporting stay consistent.
package bw
