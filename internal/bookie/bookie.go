package bookie

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/tisonkun/morax/internal/bookie/posindex"
	logpkg "github.com/tisonkun/morax/pkg/log"
)

// Bookie is the storage-node facade: one entry logger and one position index
// per data directory, shared by every ledger the node serves.
type Bookie struct {
	entryLogger *EntryLogger
	index       *posindex.PebbleIndex
	logger      logpkg.Logger
}

// Options configures a Bookie.
type Options struct {
	// DataDir is the node's storage root; log files live under logs/ and the
	// position index under index/.
	DataDir string
	// ReaderCacheSize bounds how many sealed logs stay open for reads.
	ReaderCacheSize int
	// Logger receives storage events. Optional.
	Logger logpkg.Logger
}

// Open prepares the data directory and brings up the engine and index.
func Open(opts Options) (*Bookie, error) {
	if opts.DataDir == "" {
		return nil, fmt.Errorf("bookie: Options.DataDir is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logpkg.NewLogger()
	}

	logDir := filepath.Join(opts.DataDir, "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, err
	}
	entryLogger, err := NewEntryLogger(EntryLoggerOptions{
		Dir:             logDir,
		ReaderCacheSize: opts.ReaderCacheSize,
		Logger:          logger,
	})
	if err != nil {
		return nil, err
	}

	index, err := posindex.Open(filepath.Join(opts.DataDir, "index"))
	if err != nil {
		_ = entryLogger.Close()
		return nil, err
	}

	return &Bookie{
		entryLogger: entryLogger,
		index:       index,
		logger:      logger.WithComponent("bookie"),
	}, nil
}

// Ledger returns a facade for ledgerID over the shared engine and index.
func (b *Bookie) Ledger(ledgerID int64) *Ledger {
	return NewLedger(ledgerID, b.entryLogger, b.index)
}

// Close shuts down the engine and the index.
func (b *Bookie) Close() error {
	err := b.entryLogger.Close()
	if cerr := b.index.Close(); err == nil {
		err = cerr
	}
	return err
}
