// Package vault models the records returned by the Bitwarden CLI.
//
// Items are decoded from `bw list items` output and treated as immutable once
// fetched. Only the attachment metadata drives export behaviour; the remaining
// fields exist so callers can log or summarize items without reaching for the
// raw JSON.
package vault
