// Package output owns every filesystem write an export performs.
//
// Directories are created recursively and idempotently, the item catalog is
// rewritten on every run, and attachment files are placed with an atomic
// rename so an interrupted fetch never leaves a truncated file at its final
// path. Names coming from the vault are sanitized before they touch the
// filesystem. Unexpected filesystem failures surface as *FilesystemError.
package output
