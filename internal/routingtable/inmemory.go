// Package routingtable maps topic strings to ordered listener lists.
//
// Topics match exactly and case-sensitively. There is no wildcard or prefix
// matching: a listener registered for "/lol-chat/v1/conversations" never sees
// events published on "/lol-chat/v1/conversations/active".
package routingtable

import "sync"

// ListenerID identifies a single registration within a Table
type ListenerID uint64

type entry[L any] struct {
	id       ListenerID
	listener L
}

// Table is a concurrency-safe topic to listener registry.
// Listeners of a topic are kept in registration order.
type Table[L any] struct {
	mu     sync.RWMutex
	topics map[string][]entry[L]
	nextID ListenerID
}

// New creates an empty table
func New[L any]() *Table[L] {
	return &Table[L]{
		topics: make(map[string][]entry[L]),
	}
}

// Subscribe appends listener to the topic and returns its registration ID
func (t *Table[L]) Subscribe(topic string, listener L) ListenerID {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.nextID++
	t.topics[topic] = append(t.topics[topic], entry[L]{id: t.nextID, listener: listener})
	return t.nextID
}

// Unsubscribe removes the registration with the given ID from topic.
// Other listeners of the topic keep their relative order.
// Returns false if no such registration exists.
func (t *Table[L]) Unsubscribe(topic string, id ListenerID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	entries := t.topics[topic]
	for i, e := range entries {
		if e.id != id {
			continue
		}
		// Build a fresh slice so snapshots handed out earlier stay intact
		rest := make([]entry[L], 0, len(entries)-1)
		rest = append(rest, entries[:i]...)
		rest = append(rest, entries[i+1:]...)
		if len(rest) == 0 {
			delete(t.topics, topic)
		} else {
			t.topics[topic] = rest
		}
		return true
	}
	return false
}

// Subscribers returns a snapshot of the listeners registered for topic, in
// registration order. The snapshot is safe to iterate while other goroutines
// subscribe or unsubscribe.
func (t *Table[L]) Subscribers(topic string) []L {
	t.mu.RLock()
	defer t.mu.RUnlock()

	entries := t.topics[topic]
	if len(entries) == 0 {
		return nil
	}
	out := make([]L, len(entries))
	for i, e := range entries {
		out[i] = e.listener
	}
	return out
}

// TopicCount returns the number of topics with at least one listener
func (t *Table[L]) TopicCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.topics)
}

// SubscriberCount returns the total number of registrations across all topics
func (t *Table[L]) SubscriberCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n := 0
	for _, entries := range t.topics {
		n += len(entries)
	}
	return n
}
