package hours

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// CacheTTL is how long a computed open/closed result stays valid.
const CacheTTL = 300000 * time.Millisecond

// StatusCache stores computed open/closed results per partner.
// Get reports ok=false for missing and expired entries.
type StatusCache interface {
	Get(ctx context.Context, partnerID uuid.UUID) (isOpen, ok bool, err error)
	Put(ctx context.Context, partnerID uuid.UUID, isOpen bool) error
	Invalidate(ctx context.Context, partnerID uuid.UUID) error
	InvalidateAll(ctx context.Context) error
}

type cacheEntry struct {
	isOpen       bool
	computedAtMs int64
}

func expired(computedAtMs, nowMs int64) bool {
	return nowMs-computedAtMs > CacheTTL.Milliseconds()
}

// MemoryCache is a process-local StatusCache. Entries are immutable and
// replaced whole, so readers never observe a half-written value.
type MemoryCache struct {
	clock   Clock
	entries sync.Map // uuid.UUID -> *cacheEntry
}

func NewMemoryCache(clock Clock) *MemoryCache {
	return &MemoryCache{clock: clock}
}

func (c *MemoryCache) Get(_ context.Context, partnerID uuid.UUID) (bool, bool, error) {
	v, ok := c.entries.Load(partnerID)
	if !ok {
		return false, false, nil
	}
	e := v.(*cacheEntry)
	if expired(e.computedAtMs, c.clock.Now().UnixMilli()) {
		// Only drop the entry we saw; a fresher Put may have replaced it.
		c.entries.CompareAndDelete(partnerID, e)
		return false, false, nil
	}
	return e.isOpen, true, nil
}

func (c *MemoryCache) Put(_ context.Context, partnerID uuid.UUID, isOpen bool) error {
	c.entries.Store(partnerID, &cacheEntry{isOpen: isOpen, computedAtMs: c.clock.Now().UnixMilli()})
	return nil
}

func (c *MemoryCache) Invalidate(_ context.Context, partnerID uuid.UUID) error {
	c.entries.Delete(partnerID)
	return nil
}

func (c *MemoryCache) InvalidateAll(_ context.Context) error {
	c.entries.Clear()
	return nil
}

// Len counts live and expired entries.
func (c *MemoryCache) Len() int {
	n := 0
	c.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
