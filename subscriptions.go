package gobayeux

import (
	"reflect"
	"sync"
)

// SubscriptionCallback receives messages published on a subscribed
// channel.
type SubscriptionCallback func(msg Message)

type subscriptionEntry struct {
	callback SubscriptionCallback
	// id identifies the callback for dedup purposes, independent of
	// whether func values happen to compare equal.
	id reflect.Value
}

// SubscriptionTable maps subscription patterns (which may contain
// wildcards, see Channel.Match) to the callbacks registered against them.
// Subscribing the same pattern with the same callback twice is a no-op:
// the table dedups on (pattern, callback identity) rather than forwarding
// the duplicate to the server, since a Bayeux server is free to treat a
// repeat /meta/subscribe as either a no-op or an error depending on
// implementation.
type SubscriptionTable struct {
	mu      sync.RWMutex
	entries map[Channel][]subscriptionEntry
}

// NewSubscriptionTable creates an empty SubscriptionTable.
func NewSubscriptionTable() *SubscriptionTable {
	return &SubscriptionTable{entries: make(map[Channel][]subscriptionEntry)}
}

// Add registers callback against pattern. It reports whether the
// (pattern, callback) pair was newly added; false means that exact pair
// was already present and nothing changed.
func (t *SubscriptionTable) Add(pattern Channel, callback SubscriptionCallback) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := reflect.ValueOf(callback)
	for _, e := range t.entries[pattern] {
		if e.id == id {
			return false
		}
	}

	t.entries[pattern] = append(t.entries[pattern], subscriptionEntry{callback: callback, id: id})
	return true
}

// Remove unregisters callback from pattern. It reports whether an entry
// was actually removed.
func (t *SubscriptionTable) Remove(pattern Channel, callback SubscriptionCallback) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	entries, ok := t.entries[pattern]
	if !ok {
		return false
	}

	id := reflect.ValueOf(callback)
	for i, e := range entries {
		if e.id == id {
			t.entries[pattern] = append(entries[:i], entries[i+1:]...)
			if len(t.entries[pattern]) == 0 {
				delete(t.entries, pattern)
			}
			return true
		}
	}
	return false
}

// RemovePattern unregisters every callback registered against pattern. It
// reports whether pattern had any callbacks at all.
func (t *SubscriptionTable) RemovePattern(pattern Channel) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, ok := t.entries[pattern]
	delete(t.entries, pattern)
	return ok
}

// HasPattern reports whether pattern currently has at least one callback
// registered.
func (t *SubscriptionTable) HasPattern(pattern Channel) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries[pattern]) > 0
}

// Patterns returns a snapshot of every pattern currently subscribed. The
// returned slice is safe to range over without holding the table's lock.
func (t *SubscriptionTable) Patterns() []Channel {
	t.mu.RLock()
	defer t.mu.RUnlock()

	patterns := make([]Channel, 0, len(t.entries))
	for p := range t.entries {
		patterns = append(patterns, p)
	}
	return patterns
}

// Dispatch runs every callback whose pattern matches msg.Channel,
// synchronously in the calling goroutine. It reports whether at least one
// callback matched, so the caller can notify its delegate of an
// unexpected message otherwise.
func (t *SubscriptionTable) Dispatch(msg Message) bool {
	return t.DispatchVia(msg, func(fn func()) { fn() })
}

// DispatchVia behaves like Dispatch but hands each matched callback to run
// instead of invoking it directly, letting a caller fan matched callbacks
// out onto its own Executor rather than run them in the dispatching
// goroutine.
func (t *SubscriptionTable) DispatchVia(msg Message, run func(func())) bool {
	t.mu.RLock()
	var matched []SubscriptionCallback
	for pattern, entries := range t.entries {
		if !pattern.Match(msg.Channel) {
			continue
		}
		for _, e := range entries {
			matched = append(matched, e.callback)
		}
	}
	t.mu.RUnlock()

	for _, cb := range matched {
		cb := cb
		run(func() { cb(msg) })
	}
	return len(matched) > 0
}
