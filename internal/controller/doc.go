// Package controller implements the replicated control plane: a raft-backed
// state machine owning cluster membership (the bookie registry) and ledger id
// allocation. Every mutation rides the replicated log so all controller
// replicas observe the same history, and allocation survives leader changes.
//
// A write that times out has an indeterminate outcome: the command may still
// commit after the caller gave up. Callers must treat such timeouts as
// "unknown", retrying only idempotent operations (registration) and
// reconciling allocation via a fresh read instead of blind retry.
package controller
