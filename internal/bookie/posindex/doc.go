// Package posindex stores the durable mapping from logical entry addresses
// (ledgerId, entryId) to physical log locations (logId, offset). The Pebble
// implementation backs production bookies; the in-memory one backs tests.
package posindex
