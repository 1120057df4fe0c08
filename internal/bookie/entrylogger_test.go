package bookie

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
)

func newTestEntryLogger(t *testing.T, cacheSize int) *EntryLogger {
	t.Helper()
	el, err := NewEntryLogger(EntryLoggerOptions{Dir: t.TempDir(), ReaderCacheSize: cacheSize})
	if err != nil {
		t.Fatalf("new entry logger: %v", err)
	}
	t.Cleanup(func() { _ = el.Close() })
	return el
}

func TestAddReadRoundTrip(t *testing.T) {
	el := newTestEntryLogger(t, 8)

	in := Entry{LedgerID: 7, EntryID: 0, LastAddConfirmed: -1, Payload: []byte("x")}
	loc, err := el.AddEntry(in)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if loc.LogID != 1 || loc.Offset != 0 {
		t.Fatalf("first location: got %v want (log=1, offset=0)", loc)
	}

	out, err := el.ReadEntry(7, 0, loc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if out.LedgerID != 7 || out.EntryID != 0 || string(out.Payload) != "x" {
		t.Fatalf("round trip mismatch: %+v", out)
	}
}

func TestLocationsNeverOverlap(t *testing.T) {
	el := newTestEntryLogger(t, 8)

	seen := map[string]bool{}
	for i := int64(0); i < 50; i++ {
		loc, err := el.AddEntry(Entry{LedgerID: i % 3, EntryID: i, Payload: []byte("payload")})
		if err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
		key := fmt.Sprintf("%d:%d", loc.LogID, loc.Offset)
		if seen[key] {
			t.Fatalf("duplicate location %v", loc)
		}
		seen[key] = true
	}
}

func TestInterleavedLedgersReadBack(t *testing.T) {
	el := newTestEntryLogger(t, 8)

	type written struct {
		entry Entry
		loc   EntryLocation
	}
	var all []written
	for i := int64(0); i < 10; i++ {
		e := Entry{LedgerID: i % 2, EntryID: i / 2, Payload: []byte(fmt.Sprintf("p%d", i))}
		loc, err := el.AddEntry(e)
		if err != nil {
			t.Fatalf("add: %v", err)
		}
		all = append(all, written{e, loc})
	}
	for _, w := range all {
		got, err := el.ReadEntry(w.entry.LedgerID, w.entry.EntryID, w.loc)
		if err != nil {
			t.Fatalf("read %v: %v", w.loc, err)
		}
		if string(got.Payload) != string(w.entry.Payload) {
			t.Fatalf("payload mismatch at %v", w.loc)
		}
	}
}

func TestConcurrentAppendsSerialize(t *testing.T) {
	el := newTestEntryLogger(t, 8)

	const n = 32
	var wg sync.WaitGroup
	locs := make([]EntryLocation, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			locs[i], errs[i] = el.AddEntry(Entry{LedgerID: 1, EntryID: int64(i), Payload: []byte("c")})
		}(i)
	}
	wg.Wait()

	seen := map[int64]bool{}
	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("add %d: %v", i, errs[i])
		}
		if seen[locs[i].Offset] {
			t.Fatalf("offset %d assigned twice", locs[i].Offset)
		}
		seen[locs[i].Offset] = true
	}
}

func TestMismatchedLocationFailsLoudly(t *testing.T) {
	el := newTestEntryLogger(t, 8)

	locA, err := el.AddEntry(Entry{LedgerID: 1, EntryID: 0, Payload: []byte("a")})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := el.AddEntry(Entry{LedgerID: 2, EntryID: 0, Payload: []byte("b")}); err != nil {
		t.Fatalf("add: %v", err)
	}

	// Ask for ledger 2's entry but hand over ledger 1's location.
	_, err = el.ReadEntry(2, 0, locA)
	var corrupt *CorruptLocationError
	if !errors.As(err, &corrupt) {
		t.Fatalf("expected CorruptLocationError, got %v", err)
	}
	if corrupt.ExpectedLedger != 2 || corrupt.FoundLedger != 1 {
		t.Fatalf("error should carry expected and found ids: %v", corrupt)
	}
}

func TestClosedReaderFailsInsteadOfReading(t *testing.T) {
	el := newTestEntryLogger(t, 8)

	loc, err := el.AddEntry(Entry{LedgerID: 1, EntryID: 0, Payload: []byte("a")})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := el.ReadEntry(1, 0, loc); err != nil {
		t.Fatalf("warm read: %v", err)
	}

	// Simulate an eviction racing the next read: close the cached handle out
	// from under the engine.
	reader, err := el.readers.getOrOpen(loc.LogID, func() (*EntryLogReader, error) {
		t.Fatalf("reader should already be cached")
		return nil, nil
	})
	if err != nil {
		t.Fatalf("get cached reader: %v", err)
	}
	_ = reader.Close()

	if _, err := el.ReadEntry(1, 0, loc); !errors.Is(err, ErrReaderClosed) {
		t.Fatalf("expected ErrReaderClosed, got %v", err)
	}
}

func TestReaderCacheEvictionClosesHandles(t *testing.T) {
	el := newTestEntryLogger(t, 8)

	loc, err := el.AddEntry(Entry{LedgerID: 1, EntryID: 0, Payload: []byte("a")})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	reader, err := el.readers.getOrOpen(loc.LogID, func() (*EntryLogReader, error) {
		return openEntryLogReader(loc.LogID, filepath.Join(el.dir, logFileName(loc.LogID)))
	})
	if err != nil {
		t.Fatalf("open via cache: %v", err)
	}
	el.readers.close()
	if !reader.Closed() {
		t.Fatalf("purge should close cached readers")
	}
}

func TestLogIdsSurviveReopen(t *testing.T) {
	dir := t.TempDir()
	el, err := NewEntryLogger(EntryLoggerOptions{Dir: dir, ReaderCacheSize: 8})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	loc, err := el.AddEntry(Entry{LedgerID: 1, EntryID: 0, Payload: []byte("a")})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := el.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewEntryLogger(EntryLoggerOptions{Dir: dir, ReaderCacheSize: 8})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	t.Cleanup(func() { _ = reopened.Close() })

	loc2, err := reopened.AddEntry(Entry{LedgerID: 1, EntryID: 1, Payload: []byte("b")})
	if err != nil {
		t.Fatalf("add after reopen: %v", err)
	}
	if loc2.LogID <= loc.LogID {
		t.Fatalf("log ids must never be reused: %d then %d", loc.LogID, loc2.LogID)
	}

	// The sealed log from the first incarnation stays readable.
	got, err := reopened.ReadEntry(1, 0, loc)
	if err != nil {
		t.Fatalf("read sealed log: %v", err)
	}
	if string(got.Payload) != "a" {
		t.Fatalf("payload mismatch after reopen")
	}
}
