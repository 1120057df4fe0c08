package bookie

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"
)

// EntryLogReader serves positional reads against a sealed log file. The
// liveness flag is checked under the same lock Close takes, so a reader is
// never used after its descriptor has been released.
type EntryLogReader struct {
	logID int

	mu     sync.RWMutex
	f      *os.File
	closed bool
}

func openEntryLogReader(logID int, path string) (*EntryLogReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &EntryLogReader{logID: logID, f: f}, nil
}

// LogID returns the id of the log file this reader serves.
func (r *EntryLogReader) LogID() int { return r.logID }

// ReadEntryAt reads the length-delimited record starting at offset. It
// returns ErrReaderClosed if the reader was closed by a racing cache
// eviction.
func (r *EntryLogReader) ReadEntryAt(offset int64) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return nil, fmt.Errorf("%w (log=%d)", ErrReaderClosed, r.logID)
	}

	var frame [frameLenSize]byte
	if _, err := r.f.ReadAt(frame[:], offset); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("%w: no frame at offset %d in log %d", ErrCorruptRecord, offset, r.logID)
		}
		return nil, err
	}
	record := make([]byte, binary.BigEndian.Uint32(frame[:]))
	if _, err := io.ReadFull(io.NewSectionReader(r.f, offset+frameLenSize, int64(len(record))), record); err != nil {
		return nil, fmt.Errorf("%w: truncated frame at offset %d in log %d: %v", ErrCorruptRecord, offset, r.logID, err)
	}
	return record, nil
}

// Close releases the descriptor. Subsequent reads fail with ErrReaderClosed.
func (r *EntryLogReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	return r.f.Close()
}

// Closed reports whether the reader has been closed.
func (r *EntryLogReader) Closed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.closed
}
