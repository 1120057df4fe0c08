package bookie

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
)

// Entry is the immutable unit of storage. LastAddConfirmed records the
// highest entryId the writer knew to be durable at append time; recovery uses
// it to bound how much of a ledger is safely readable.
type Entry struct {
	LedgerID         int64
	EntryID          int64
	LastAddConfirmed int64
	Payload          []byte
}

// EntryLocation is the physical address of an entry inside a log file.
type EntryLocation struct {
	LogID  int
	Offset int64
}

func (l EntryLocation) String() string {
	return fmt.Sprintf("(log=%d, offset=%d)", l.LogID, l.Offset)
}

// Record encoding: 24-byte header (ledgerId, entryId, lastAddConfirmed as
// big-endian int64s) | payload | crc32c(header|payload). Records are written
// length-delimited: a 4-byte big-endian frame length precedes each record.

const (
	entryHeaderSize = 24
	crcSize         = 4
	frameLenSize    = 4
)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// Encode serializes the entry into a record (without the frame length).
func (e Entry) Encode() []byte {
	out := make([]byte, entryHeaderSize+len(e.Payload)+crcSize)
	binary.BigEndian.PutUint64(out[0:8], uint64(e.LedgerID))
	binary.BigEndian.PutUint64(out[8:16], uint64(e.EntryID))
	binary.BigEndian.PutUint64(out[16:24], uint64(e.LastAddConfirmed))
	copy(out[entryHeaderSize:], e.Payload)
	crc := crc32.Checksum(out[:entryHeaderSize+len(e.Payload)], castagnoli)
	binary.BigEndian.PutUint32(out[len(out)-crcSize:], crc)
	return out
}

// DecodeEntry parses a record produced by Encode, validating the checksum.
func DecodeEntry(b []byte) (Entry, error) {
	if len(b) < entryHeaderSize+crcSize {
		return Entry{}, fmt.Errorf("%w: record too short (%d bytes)", ErrCorruptRecord, len(b))
	}
	body := b[:len(b)-crcSize]
	expect := binary.BigEndian.Uint32(b[len(b)-crcSize:])
	if crc := crc32.Checksum(body, castagnoli); crc != expect {
		return Entry{}, fmt.Errorf("%w: checksum mismatch (want %08x, got %08x)", ErrCorruptRecord, expect, crc)
	}
	e := Entry{
		LedgerID:         int64(binary.BigEndian.Uint64(b[0:8])),
		EntryID:          int64(binary.BigEndian.Uint64(b[8:16])),
		LastAddConfirmed: int64(binary.BigEndian.Uint64(b[16:24])),
	}
	if payload := body[entryHeaderSize:]; len(payload) > 0 {
		e.Payload = append([]byte(nil), payload...)
	}
	return e, nil
}
