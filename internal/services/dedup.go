package services

import (
	"sync"
	"time"
)

// DefaultDedupTTL bounds how long a change signature suppresses repeats.
const DefaultDedupTTL = 300 * time.Second

type dedupEntry struct {
	signature string
	expiresAt time.Time
}

// DedupWindow remembers the last change signature per entity for a bounded
// TTL so re-polling the same change does not produce duplicate notifications.
// State is process-local and safe to lose on restart; this is best-effort
// suppression, not an exactly-once guarantee.
type DedupWindow struct {
	mu      sync.Mutex
	entries map[string]dedupEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewDedupWindow(ttl time.Duration) *DedupWindow {
	if ttl <= 0 {
		ttl = DefaultDedupTTL
	}
	return &DedupWindow{
		entries: make(map[string]dedupEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// ShouldEmit reports whether an observation of (entityKey, signature) should
// produce a notification. It returns true and records the signature when the
// key is unseen, the signature changed, or the stored entry expired. Expired
// entries are evicted lazily on each call.
func (d *DedupWindow) ShouldEmit(entityKey, signature string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	for k, e := range d.entries {
		if now.After(e.expiresAt) {
			delete(d.entries, k)
		}
	}

	if e, ok := d.entries[entityKey]; ok && e.signature == signature {
		return false
	}
	d.entries[entityKey] = dedupEntry{signature: signature, expiresAt: now.Add(d.ttl)}
	return true
}

// Forget drops the entry for entityKey so the next observation is treated
// as unseen. Emit calls this when persisting a gated event fails; otherwise
// the producer's retry would be suppressed for the rest of the TTL.
func (d *DedupWindow) Forget(entityKey string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.entries, entityKey)
}

// Len returns the number of live entries, counting ones not yet evicted.
func (d *DedupWindow) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.entries)
}
