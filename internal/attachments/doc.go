// Package attachments flattens vault items into an ordered list of download jobs.
//
// Output is partitioned by item, so file names only need to be unique within
// one item. A collision there is a data integrity failure that aborts the
// export before any download starts; Extract never returns a partial list.
package attachments
