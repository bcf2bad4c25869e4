// Package export wires the session provider, catalog fetcher, attachment
// extractor, download scheduler and output writer into a single run.
//
// A run acquires a session, lists every vault item, dumps the catalog to the
// destination, derives one job per attachment and hands the jobs to the
// scheduler. An exclusive lock on the destination keeps two exports from
// writing into the same tree, and the finished run (successful or not) is
// recorded in the history ledger when one is configured.
package export
