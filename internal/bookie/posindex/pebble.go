package posindex

import (
	"errors"
	"fmt"

	pebblestore "github.com/tisonkun/morax/internal/storage/pebble"
)

// PebbleIndex is the durable position index. Every put syncs before
// returning so a location handed back to the engine survives a crash.
type PebbleIndex struct {
	db *pebblestore.DB
}

// Open creates or opens the index database under dir.
func Open(dir string) (*PebbleIndex, error) {
	db, err := pebblestore.Open(pebblestore.Options{DataDir: dir, Fsync: pebblestore.FsyncModeAlways})
	if err != nil {
		return nil, fmt.Errorf("open position index: %w", err)
	}
	return &PebbleIndex{db: db}, nil
}

// AddPosition records (ledgerId, entryId) -> (logId, offset).
func (i *PebbleIndex) AddPosition(ledgerID, entryID int64, logID int, offset int64) error {
	return i.db.Set(keyPosition(ledgerID, entryID), encodeLocation(logID, offset))
}

// FindPosition looks up the physical location for (ledgerId, entryId). A
// missing key reports ok=false with no error.
func (i *PebbleIndex) FindPosition(ledgerID, entryID int64) (int, int64, bool, error) {
	v, err := i.db.Get(keyPosition(ledgerID, entryID))
	if err != nil {
		if errors.Is(err, pebblestore.ErrNotFound) {
			return 0, 0, false, nil
		}
		return 0, 0, false, err
	}
	logID, offset, ok := decodeLocation(v)
	if !ok {
		return 0, 0, false, fmt.Errorf("posindex: malformed location value for (%d, %d)", ledgerID, entryID)
	}
	return logID, offset, true, nil
}

// Close closes the underlying database.
func (i *PebbleIndex) Close() error {
	return i.db.Close()
}
