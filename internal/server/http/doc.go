// Package httpserver exposes the controller and bookie surfaces over a
// JSON/HTTP API. It is a boundary adapter: handlers call only
// Controller.RegisterBookie/ListBookies/NextLedgerID and
// Ledger.AddEntry/ReadEntry, never log files, caches, or raft internals.
package httpserver
