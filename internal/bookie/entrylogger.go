package bookie

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	logpkg "github.com/tisonkun/morax/pkg/log"
)

// EntryLogger owns the physical storage path: the active log file, the log id
// allocator, and the reader cache. At most one log file is open for appends
// at any time; rolling always produces a fresh id, never clears back to none.
type EntryLogger struct {
	dir     string
	ids     *EntryLogIds
	readers *readerCache
	logger  logpkg.Logger

	mu     sync.Mutex
	writer *EntryLogWriter
}

// EntryLoggerOptions configures an EntryLogger.
type EntryLoggerOptions struct {
	// Dir is the directory holding the entry log files.
	Dir string
	// ReaderCacheSize bounds how many sealed logs stay open for reads.
	ReaderCacheSize int
	// Logger receives storage events. Optional.
	Logger logpkg.Logger
}

// NewEntryLogger recovers the log id sequence from Dir and returns an engine
// with no active log; the first append rolls one.
func NewEntryLogger(opts EntryLoggerOptions) (*EntryLogger, error) {
	if opts.Dir == "" {
		return nil, errors.New("bookie: EntryLoggerOptions.Dir is required")
	}
	if opts.ReaderCacheSize <= 0 {
		return nil, errors.New("bookie: EntryLoggerOptions.ReaderCacheSize must be positive")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logpkg.NewLogger()
	}
	ids, err := OpenEntryLogIds(opts.Dir)
	if err != nil {
		return nil, err
	}
	readers, err := newReaderCache(opts.ReaderCacheSize)
	if err != nil {
		return nil, err
	}
	return &EntryLogger{
		dir:     opts.Dir,
		ids:     ids,
		readers: readers,
		logger:  logger.WithComponent("entrylogger"),
	}, nil
}

// AddEntry appends the entry to the active log, rolling a new log lazily on
// the first append, and returns its physical location. The location is
// durable once AddEntry returns.
func (el *EntryLogger) AddEntry(entry Entry) (EntryLocation, error) {
	el.mu.Lock()
	defer el.mu.Unlock()

	if el.writer == nil {
		logID := el.ids.NextID()
		writer, err := newEntryLogWriter(logID, filepath.Join(el.dir, logFileName(logID)))
		if err != nil {
			return EntryLocation{}, fmt.Errorf("roll log %d: %w", logID, err)
		}
		el.writer = writer
		el.logger.Info("log roll", logpkg.Int("new_log_id", logID))
	}

	logID := el.writer.LogID()
	offset, err := el.writer.WriteDelimitedEntry(entry.Encode())
	if err != nil {
		return EntryLocation{}, err
	}
	// TODO(batching): move the flush onto a background writer and return once
	// the group commit containing this entry syncs. The contract "a returned
	// location is durable" must survive that change.
	if err := el.writer.Flush(); err != nil {
		return EntryLocation{}, err
	}
	return EntryLocation{LogID: logID, Offset: offset}, nil
}

// ReadEntry reads and decodes the entry at location, verifying that its
// identity matches the requested (ledgerId, entryId). A mismatch means the
// index handed out a bad location and fails with a CorruptLocationError.
func (el *EntryLogger) ReadEntry(ledgerID, entryID int64, location EntryLocation) (Entry, error) {
	reader, err := el.readers.getOrOpen(location.LogID, func() (*EntryLogReader, error) {
		return openEntryLogReader(location.LogID, filepath.Join(el.dir, logFileName(location.LogID)))
	})
	if err != nil {
		return Entry{}, fmt.Errorf("open log %d for read: %w", location.LogID, err)
	}

	// The cache may have evicted and closed this reader between retrieval and
	// use; ReadEntryAt detects that under the reader's own lock.
	record, err := reader.ReadEntryAt(location.Offset)
	if err != nil {
		return Entry{}, err
	}
	entry, err := DecodeEntry(record)
	if err != nil {
		return Entry{}, fmt.Errorf("decode entry at %v: %w", location, err)
	}

	if entry.LedgerID != ledgerID || entry.EntryID != entryID {
		return Entry{}, &CorruptLocationError{
			Location:       location,
			ExpectedLedger: ledgerID,
			ExpectedEntry:  entryID,
			FoundLedger:    entry.LedgerID,
			FoundEntry:     entry.EntryID,
		}
	}
	return entry, nil
}

// Close flushes and closes the active writer and every cached reader.
func (el *EntryLogger) Close() error {
	el.mu.Lock()
	defer el.mu.Unlock()
	el.readers.close()
	if el.writer == nil {
		return nil
	}
	return el.writer.Close()
}
