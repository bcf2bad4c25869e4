// Package catalog retrieves the full list of vault items from the Bitwarden CLI.
//
// The decoded items drive attachment extraction while the raw payload is kept
// alongside them so the on-disk dump reproduces every field bw emitted, not
// just the ones bwexport models.
package catalog
