package bookie

import "fmt"

// PositionIndex maps logical (ledgerId, entryId) addresses to physical
// locations. It is durable: a position added before a crash is found after
// restart.
type PositionIndex interface {
	AddPosition(ledgerID, entryID int64, logID int, offset int64) error
	FindPosition(ledgerID, entryID int64) (logID int, offset int64, ok bool, err error)
}

// Ledger is a stateless facade binding one ledgerId to the shared entry
// logger and position index. It owns no buffers of its own.
type Ledger struct {
	ledgerID    int64
	entryLogger *EntryLogger
	index       PositionIndex
}

// NewLedger binds ledgerID to the given engine and index.
func NewLedger(ledgerID int64, entryLogger *EntryLogger, index PositionIndex) *Ledger {
	return &Ledger{ledgerID: ledgerID, entryLogger: entryLogger, index: index}
}

// ID returns the ledger id this facade serves.
func (l *Ledger) ID() int64 { return l.ledgerID }

// AddEntry persists the entry and records its position in the index.
func (l *Ledger) AddEntry(entry Entry) (EntryLocation, error) {
	if entry.LedgerID != l.ledgerID {
		return EntryLocation{}, fmt.Errorf("bookie: entry for ledger %d added through ledger %d", entry.LedgerID, l.ledgerID)
	}
	location, err := l.entryLogger.AddEntry(entry)
	if err != nil {
		return EntryLocation{}, err
	}
	if err := l.index.AddPosition(l.ledgerID, entry.EntryID, location.LogID, location.Offset); err != nil {
		return EntryLocation{}, fmt.Errorf("index entry (%d, %d): %w", l.ledgerID, entry.EntryID, err)
	}
	return location, nil
}

// ReadEntry resolves entryID through the index and reads it back. A missing
// position yields ErrNoEntry.
func (l *Ledger) ReadEntry(entryID int64) (Entry, error) {
	logID, offset, ok, err := l.index.FindPosition(l.ledgerID, entryID)
	if err != nil {
		return Entry{}, fmt.Errorf("find position (%d, %d): %w", l.ledgerID, entryID, err)
	}
	if !ok {
		return Entry{}, fmt.Errorf("%w: (%d, %d)", ErrNoEntry, l.ledgerID, entryID)
	}
	return l.entryLogger.ReadEntry(l.ledgerID, entryID, EntryLocation{LogID: logID, Offset: offset})
}
