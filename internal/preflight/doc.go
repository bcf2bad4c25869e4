// Package preflight provides readiness checks for the bw binary, the Bitwarden
// login state and the filesystem paths an export writes to.
//
// The CLI "bwexport check" command runs RunAll and renders the results; the
// individual checks are exported for callers that only need one of them.
package preflight
