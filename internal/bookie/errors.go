package bookie

import (
	"errors"
	"fmt"
)

// ErrNoEntry reports that the position index holds no location for the
// requested (ledgerId, entryId). It is a valid outcome, not a failure.
var ErrNoEntry = errors.New("bookie: no such entry")

// ErrReaderClosed reports that a cached log reader was closed by a racing
// eviction between retrieval and use. Callers may retry with a fresh handle.
var ErrReaderClosed = errors.New("bookie: cached log reader already closed")

// ErrCorruptRecord reports a log record that failed framing or checksum
// validation.
var ErrCorruptRecord = errors.New("bookie: corrupt log record")

// CorruptLocationError reports that the entry decoded at a physical location
// does not carry the identity the index claimed. It indicates index
// corruption or a misrouted location.
type CorruptLocationError struct {
	Location       EntryLocation
	ExpectedLedger int64
	ExpectedEntry  int64
	FoundLedger    int64
	FoundEntry     int64
}

func (e *CorruptLocationError) Error() string {
	return fmt.Sprintf(
		"bookie: bad location %v: expected entry (%d, %d), found (%d, %d)",
		e.Location, e.ExpectedLedger, e.ExpectedEntry, e.FoundLedger, e.FoundEntry,
	)
}
