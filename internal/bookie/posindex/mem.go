package posindex

import "sync"

type posKey struct {
	ledgerID int64
	entryID  int64
}

type posValue struct {
	logID  int
	offset int64
}

// MemIndex is a volatile position index for tests.
type MemIndex struct {
	mu        sync.RWMutex
	positions map[posKey]posValue
}

// NewMem returns an empty in-memory index.
func NewMem() *MemIndex {
	return &MemIndex{positions: make(map[posKey]posValue)}
}

func (i *MemIndex) AddPosition(ledgerID, entryID int64, logID int, offset int64) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.positions[posKey{ledgerID, entryID}] = posValue{logID, offset}
	return nil
}

func (i *MemIndex) FindPosition(ledgerID, entryID int64) (int, int64, bool, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	v, ok := i.positions[posKey{ledgerID, entryID}]
	if !ok {
		return 0, 0, false, nil
	}
	return v.logID, v.offset, true, nil
}
