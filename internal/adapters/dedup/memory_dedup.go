package dedup

import (
	"context"
	"sync"
	"time"
)

// MemoryDeduplicator tracks seen message IDs in process memory
type MemoryDeduplicator struct {
	mu   sync.Mutex
	seen map[string]time.Time
	ttl  time.Duration
	now  func() time.Time
}

// NewMemoryDeduplicator creates an in-memory deduplicator. IDs are forgotten
// after ttl; a zero ttl remembers them forever.
func NewMemoryDeduplicator(ttl time.Duration) *MemoryDeduplicator {
	return &MemoryDeduplicator{
		seen: make(map[string]time.Time),
		ttl:  ttl,
		now:  time.Now,
	}
}

// IsNew reports whether messageID has not been seen within the TTL
func (d *MemoryDeduplicator) IsNew(ctx context.Context, messageID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if expires, ok := d.seen[messageID]; ok && (d.ttl <= 0 || now.Before(expires)) {
		return false, nil
	}
	d.seen[messageID] = now.Add(d.ttl)
	d.sweep(now)
	return true, nil
}

// sweep drops expired IDs once the map has grown
func (d *MemoryDeduplicator) sweep(now time.Time) {
	if d.ttl <= 0 || len(d.seen) < 1024 {
		return
	}
	for id, expires := range d.seen {
		if !now.Before(expires) {
			delete(d.seen, id)
		}
	}
}
