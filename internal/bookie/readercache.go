package bookie

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// readerCache is a bounded cache of open read-only log handles keyed by
// logId. Eviction closes the handle; a reader retrieved just before its
// eviction reports ErrReaderClosed on use rather than reading through a
// released descriptor.
type readerCache struct {
	mu    sync.Mutex
	inner *lru.Cache[int, *EntryLogReader]
}

func newReaderCache(size int) (*readerCache, error) {
	inner, err := lru.NewWithEvict(size, func(_ int, r *EntryLogReader) {
		_ = r.Close()
	})
	if err != nil {
		return nil, err
	}
	return &readerCache{inner: inner}, nil
}

// getOrOpen returns the cached reader for logID, opening and inserting one on
// a miss. The open runs under the cache lock so two concurrent readers of the
// same log share a single descriptor instead of leaking one.
func (c *readerCache) getOrOpen(logID int, open func() (*EntryLogReader, error)) (*EntryLogReader, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if r, ok := c.inner.Get(logID); ok {
		return r, nil
	}
	r, err := open()
	if err != nil {
		return nil, err
	}
	c.inner.Add(logID, r)
	return r, nil
}

// close evicts every cached reader, closing their descriptors.
func (c *readerCache) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inner.Purge()
}
