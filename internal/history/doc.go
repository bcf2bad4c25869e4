// Package history persists a ledger of export runs in SQLite.
//
// Each run records its destination, verdict and per-status counts, plus one
// row per attachment outcome so `bwexport history show` can explain what a
// past export did. The session token is never stored.
package history
