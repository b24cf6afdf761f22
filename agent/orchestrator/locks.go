package orchestrator

import "sync"

// conversationLocks serializes turns per conversation. Distinct conversations
// never contend; entries are dropped once the last holder releases.
type conversationLocks struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newConversationLocks() *conversationLocks {
	return &conversationLocks{entries: make(map[string]*lockEntry)}
}

func (l *conversationLocks) lock(id string) {
	l.mu.Lock()
	entry, ok := l.entries[id]
	if !ok {
		entry = &lockEntry{}
		l.entries[id] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
}

func (l *conversationLocks) unlock(id string) {
	l.mu.Lock()
	entry, ok := l.entries[id]
	if ok {
		entry.refs--
		if entry.refs == 0 {
			delete(l.entries, id)
		}
	}
	l.mu.Unlock()

	if ok {
		entry.mu.Unlock()
	}
}
