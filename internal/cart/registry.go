package cart

import (
	"sync"
	"time"

	"github.com/angelmondragon/storefront-cart/pkg/metrics"
)

// entry is one resident session. mu guards cart and hydrated; the remaining
// fields belong to the registry lock. A dirty entry holds changes storage
// has not accepted yet and is never evicted. A dropped entry is no longer
// reachable from the registry and must not be used.
type entry struct {
	mu       sync.Mutex
	cart     *Cart
	hydrated bool

	lastSeen time.Time
	inUse    int
	dirty    bool
	dropped  bool
}

// Registry maps session ids to their live carts. Entries are created on first
// touch and hydrated by the caller while holding the entry lock. Idle entries
// and, past capacity, the least recently touched ones are dropped unless a
// request still holds them or they carry unsaved changes; dropped sessions
// rehydrate from storage.
type Registry struct {
	mu          sync.Mutex
	entries     map[string]*entry
	maxSessions int
	idleTTL     time.Duration
	metrics     *metrics.CartMetrics
	now         func() time.Time
}

// NewRegistry builds a registry holding up to maxSessions carts (0 means
// unbounded) and evicting those idle longer than idleTTL (0 disables it).
func NewRegistry(maxSessions int, idleTTL time.Duration, m *metrics.CartMetrics) *Registry {
	return &Registry{
		entries:     make(map[string]*entry),
		maxSessions: maxSessions,
		idleTTL:     idleTTL,
		metrics:     m,
		now:         time.Now,
	}
}

// acquire returns the entry for sessionID, creating it when absent, and pins
// it against eviction until release. The caller must lock entry.mu before
// reading or mutating the cart.
func (r *Registry) acquire(sessionID string) *entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if e, ok := r.entries[sessionID]; ok {
		e.lastSeen = now
		e.inUse++
		return e
	}

	r.evictLocked(now)
	e := &entry{lastSeen: now, inUse: 1}
	r.entries[sessionID] = e
	r.metrics.SetActiveSessions(len(r.entries))
	return e
}

func (r *Registry) release(e *entry) {
	r.mu.Lock()
	e.inUse--
	e.lastSeen = r.now()
	r.mu.Unlock()
}

// drop removes the entry for sessionID if it is still the given one. Requests
// already waiting on the entry see it as dropped and acquire a fresh one.
func (r *Registry) drop(sessionID string, e *entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.entries[sessionID]; ok && current == e {
		delete(r.entries, sessionID)
		r.metrics.SetActiveSessions(len(r.entries))
	}
	e.dropped = true
}

func (r *Registry) isDropped(e *entry) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return e.dropped
}

// markDirty records whether the entry holds changes storage has not accepted.
func (r *Registry) markDirty(e *entry, dirty bool) {
	r.mu.Lock()
	e.dirty = dirty
	r.mu.Unlock()
}

// Len reports how many sessions are resident.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep drops entries idle longer than the configured TTL, keeping dirty ones.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	before := len(r.entries)
	r.evictIdleLocked(r.now())
	r.metrics.SetActiveSessions(len(r.entries))
	return before - len(r.entries)
}

func (r *Registry) evictLocked(now time.Time) {
	r.evictIdleLocked(now)
	if r.maxSessions <= 0 {
		return
	}
	for len(r.entries) >= r.maxSessions {
		var (
			oldestID   string
			oldestSeen time.Time
		)
		for id, e := range r.entries {
			if !evictable(e) {
				continue
			}
			if oldestID == "" || e.lastSeen.Before(oldestSeen) {
				oldestID = id
				oldestSeen = e.lastSeen
			}
		}
		if oldestID == "" {
			return
		}
		r.entries[oldestID].dropped = true
		delete(r.entries, oldestID)
	}
}

func evictable(e *entry) bool {
	return e.inUse == 0 && !e.dirty
}

func (r *Registry) evictIdleLocked(now time.Time) {
	if r.idleTTL <= 0 {
		return
	}
	for id, e := range r.entries {
		if evictable(e) && now.Sub(e.lastSeen) > r.idleTTL {
			e.dropped = true
			delete(r.entries, id)
		}
	}
}
