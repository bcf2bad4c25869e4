// Package main hosts the bwexport CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration once, builds the bw client and
// logger, and hands off to the internal export pipeline. Exit status 1 means a
// run failed; exit status 2 means the invocation itself was invalid.
package main
