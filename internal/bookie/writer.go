package bookie

import (
	"bufio"
	"encoding/binary"
	"os"
	"sync"
)

// EntryLogWriter appends length-delimited records to the active log file.
// Appends are strictly serialized so offsets are assigned without races.
type EntryLogWriter struct {
	logID int

	mu     sync.Mutex
	f      *os.File
	w      *bufio.Writer
	offset int64
}

func newEntryLogWriter(logID int, path string) (*EntryLogWriter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return nil, err
	}
	return &EntryLogWriter{logID: logID, f: f, w: bufio.NewWriter(f)}, nil
}

// LogID returns the id of the log file this writer appends to.
func (w *EntryLogWriter) LogID() int { return w.logID }

// WriteDelimitedEntry appends a 4-byte big-endian frame length followed by
// the record, returning the offset where the frame begins.
func (w *EntryLogWriter) WriteDelimitedEntry(record []byte) (int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	start := w.offset
	var frame [frameLenSize]byte
	binary.BigEndian.PutUint32(frame[:], uint32(len(record)))
	if _, err := w.w.Write(frame[:]); err != nil {
		return 0, err
	}
	if _, err := w.w.Write(record); err != nil {
		return 0, err
	}
	w.offset += int64(frameLenSize + len(record))
	return start, nil
}

// Flush drains the buffer and syncs the file. An append is durable once
// Flush returns.
func (w *EntryLogWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.w.Flush(); err != nil {
		return err
	}
	return w.f.Sync()
}

// Close flushes and closes the underlying file.
func (w *EntryLogWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.w.Flush(); err != nil {
		return err
	}
	if err := w.f.Sync(); err != nil {
		return err
	}
	return w.f.Close()
}
