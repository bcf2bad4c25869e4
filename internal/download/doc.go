// Package download materializes attachment jobs on disk with bounded parallelism.
//
// Jobs are split into contiguous batches of at most MaxParallel entries.
// Batches run one after another; every job inside a batch runs on its own
// goroutine and the batch is joined before the next one starts, so no more
// than MaxParallel bw subprocesses are ever in flight.
//
// Any failure is fatal: once a batch settles, the lowest-indexed failed job
// determines the returned error and no further batches are started. Files are
// fetched into a staging path and renamed into place, so a failed fetch never
// leaves a partial file where a finished one is expected.
package download
