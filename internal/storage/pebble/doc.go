// Package pebblestore provides a thin wrapper around Pebble with an fsync
// policy, batches, and a not-found sentinel. The bookie's position index is
// built on top of it.
//
// Usage:
//
//	db, err := pebblestore.Open(pebblestore.Options{
//	    DataDir: "./data/index",
//	    Fsync:   pebblestore.FsyncModeAlways,
//	})
//	if err != nil { /* handle */ }
//	defer db.Close()
//
//	_ = db.Set([]byte("k"), []byte("v"))
//	v, err := db.Get([]byte("k"))
package pebblestore
