package collision

import (
	"github.com/arloliu/fastcodec/format"
	"github.com/arloliu/fastcodec/internal/hash"
)

// Entry is the dictionary cell registered for a qualified key.
type Entry struct {
	Cell int              // index into the dictionary cell arena
	Type format.FieldType // type of the first field that registered the key
}

type hashed struct {
	key   string
	entry Entry
}

// Tracker indexes qualified dictionary keys by their xxHash64.
//
// Keys are looked up by hash first and verified against the stored key
// string. When two different keys share a hash, the later one is kept in an
// overflow map keyed by the full string and the collision flag is set, so
// lookups stay exact.
type Tracker struct {
	byHash       map[uint64]hashed
	overflow     map[string]Entry
	keys         []string // registration order
	hasCollision bool
	hashFn       func(string) uint64
}

// NewTracker creates a new key tracker.
func NewTracker() *Tracker {
	return newTrackerWithHash(hash.Key)
}

func newTrackerWithHash(fn func(string) uint64) *Tracker {
	return &Tracker{
		byHash:   make(map[uint64]hashed),
		overflow: make(map[string]Entry),
		keys:     make([]string, 0),
		hashFn:   fn,
	}
}

// Lookup returns the entry registered for key.
func (t *Tracker) Lookup(key string) (Entry, bool) {
	h, ok := t.byHash[t.hashFn(key)]
	if !ok {
		return Entry{}, false
	}
	if h.key == key {
		return h.entry, true
	}

	e, ok := t.overflow[key]

	return e, ok
}

// Register records entry for key. It reports whether the key hash collided
// with a different, already registered key.
//
// Registering a key twice replaces its entry.
func (t *Tracker) Register(key string, entry Entry) bool {
	sum := t.hashFn(key)

	existing, exists := t.byHash[sum]
	switch {
	case !exists:
		t.byHash[sum] = hashed{key: key, entry: entry}
	case existing.key == key:
		t.byHash[sum] = hashed{key: key, entry: entry}
		return false
	default:
		if _, dup := t.overflow[key]; !dup {
			t.keys = append(t.keys, key)
		}
		t.overflow[key] = entry
		t.hasCollision = true

		return true
	}

	t.keys = append(t.keys, key)

	return false
}

// HasCollision returns true if two registered keys share a hash.
func (t *Tracker) HasCollision() bool {
	return t.hasCollision
}

// Keys returns the registered keys in registration order.
func (t *Tracker) Keys() []string {
	return t.keys
}

// Count returns the number of registered keys.
func (t *Tracker) Count() int {
	return len(t.keys)
}

// Reset clears all keys and the collision flag.
func (t *Tracker) Reset() {
	clear(t.byHash)
	clear(t.overflow)
	t.keys = t.keys[:0]
	t.hasCollision = false
}
