package bookie

import (
	"errors"
	"testing"
)

func TestEntryCodecRoundTrip(t *testing.T) {
	in := Entry{LedgerID: 7, EntryID: 3, LastAddConfirmed: 2, Payload: []byte("hello")}
	out, err := DecodeEntry(in.Encode())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.LedgerID != in.LedgerID || out.EntryID != in.EntryID || out.LastAddConfirmed != in.LastAddConfirmed {
		t.Fatalf("identity mismatch: %+v vs %+v", out, in)
	}
	if string(out.Payload) != string(in.Payload) {
		t.Fatalf("payload mismatch: %q vs %q", out.Payload, in.Payload)
	}
}

func TestEntryCodecEmptyPayload(t *testing.T) {
	out, err := DecodeEntry(Entry{LedgerID: 1, EntryID: 0}.Encode())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Payload) != 0 {
		t.Fatalf("expected empty payload, got %q", out.Payload)
	}
}

func TestDecodeRejectsShortRecord(t *testing.T) {
	if _, err := DecodeEntry([]byte("short")); !errors.Is(err, ErrCorruptRecord) {
		t.Fatalf("expected ErrCorruptRecord, got %v", err)
	}
}

func TestDecodeRejectsBitFlip(t *testing.T) {
	b := Entry{LedgerID: 7, EntryID: 3, Payload: []byte("x")}.Encode()
	b[entryHeaderSize] ^= 0xff
	if _, err := DecodeEntry(b); !errors.Is(err, ErrCorruptRecord) {
		t.Fatalf("expected ErrCorruptRecord, got %v", err)
	}
}
