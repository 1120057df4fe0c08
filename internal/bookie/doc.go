// Package bookie implements the node-local entry storage engine: an
// append-only, rotating entry log shared across ledgers, a position index
// mapping logical (ledgerId, entryId) addresses to physical locations, and a
// bounded cache of read-only log handles.
//
// Entries from many ledgers interleave into the same physical log file;
// logical grouping is reconstructed entirely through the position index. A
// log file, once rolled past, is immutable and only ever opened for reads.
package bookie
