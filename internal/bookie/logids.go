package bookie

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

const logFileSuffix = ".log"

// logFileName is the fixed textual encoding of a log id: the id in lowercase
// hex plus the ".log" suffix.
func logFileName(logID int) string {
	return strconv.FormatInt(int64(logID), 16) + logFileSuffix
}

// EntryLogIds allocates monotonically increasing log ids for one log
// directory. Ids are recovered at open by scanning the directory for the
// highest existing log file, so ids never regress or repeat across restarts.
type EntryLogIds struct {
	mu     sync.Mutex
	nextID int
}

// OpenEntryLogIds scans dir and returns an allocator whose next id is one
// past the highest id found. Files that do not parse as log files are
// ignored.
func OpenEntryLogIds(dir string) (*EntryLogIds, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scan log dir %s: %w", dir, err)
	}
	maxID := 0
	for _, ent := range entries {
		if ent.IsDir() {
			continue
		}
		name := ent.Name()
		if !strings.HasSuffix(name, logFileSuffix) {
			continue
		}
		id, err := strconv.ParseInt(strings.TrimSuffix(name, logFileSuffix), 16, 32)
		if err != nil {
			continue
		}
		if int(id) > maxID {
			maxID = int(id)
		}
	}
	return &EntryLogIds{nextID: maxID + 1}, nil
}

// NextID returns a fresh log id. Ids are never reused.
func (g *EntryLogIds) NextID() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.nextID
	g.nextID++
	return id
}
