package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryStore keeps encoded sessions in process memory. Sessions are stored
// as JSON so callers never share state with the store.
type MemoryStore struct {
	mu        sync.Mutex
	entries   map[string]memoryEntry
	ttl       time.Duration
	now       func() time.Time
	nextSweep time.Time
}

// NewMemoryStore returns a store whose sessions expire ttl after they were
// last read or saved. A ttl <= 0 disables expiry. Expired sessions are
// evicted on access and by a sweep that Save runs at most once per ttl.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	entry, ok := m.entries[id]
	if ok && m.expired(entry) {
		delete(m.entries, id)
		ok = false
	}
	if ok && m.ttl > 0 {
		entry.expiresAt = m.now().Add(m.ttl)
		m.entries[id] = entry
	}
	m.mu.Unlock()

	if !ok {
		return nil, ErrNotFound
	}
	return decode(entry.data)
}

func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	data, err := encode(s)
	if err != nil {
		return err
	}

	now := m.now()
	entry := memoryEntry{data: data}
	if m.ttl > 0 {
		entry.expiresAt = now.Add(m.ttl)
	}

	m.mu.Lock()
	if m.ttl > 0 && !now.Before(m.nextSweep) {
		m.sweep()
		m.nextSweep = now.Add(m.ttl)
	}
	m.entries[s.ID] = entry
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.entries, id)
	m.mu.Unlock()
	return nil
}

// sweep drops every expired entry. Callers hold m.mu.
func (m *MemoryStore) sweep() {
	removed := 0
	for id, entry := range m.entries {
		if m.expired(entry) {
			delete(m.entries, id)
			removed++
		}
	}
	if removed > 0 {
		log.Debug().Int("removed", removed).Int("remaining", len(m.entries)).Msg("session: evicted expired sessions")
	}
}

func (m *MemoryStore) expired(e memoryEntry) bool {
	return !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt)
}
