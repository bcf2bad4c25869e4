// Package config loads, normalizes, and validates bwexport configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files from ~/.config/bwexport/config.toml or a
// project-local bwexport.toml. Command-line flags are applied on top of the
// loaded Config by the CLI; everything downstream receives sanitized paths and
// clear validation errors from here.
package config
