package server

import (
	"sync"

	"github.com/google/uuid"

	"github.com/mkarpel/convoview/internal/convo"
	"github.com/mkarpel/convoview/internal/detect"
)

// Entry is one stored conversation plus its detected kind.
type Entry struct {
	StoreID string
	Kind    detect.Kind
	Conv    convo.Conversation
}

// Store holds ingested conversations in memory for the lifetime of the
// server. Uploads and reads may race, so access goes through a RWMutex;
// the normalization core itself stays lock-free.
type Store struct {
	mu      sync.RWMutex
	entries map[string]Entry
	order   []string
}

func NewStore() *Store {
	return &Store{entries: make(map[string]Entry)}
}

// Add stores a conversation under a fresh id and returns it. Export ids
// are not reused as keys: two uploads of the same file must not collide.
func (s *Store) Add(kind detect.Kind, c convo.Conversation) string {
	id := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[id] = Entry{StoreID: id, Kind: kind, Conv: c}
	s.order = append(s.order, id)
	return id
}

// Get returns the entry for id, if present.
func (s *Store) Get(id string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	return e, ok
}

// List returns entries in insertion order, optionally skipping
// soft-deleted conversations.
func (s *Store) List(showDeleted bool) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, 0, len(s.order))
	for _, id := range s.order {
		e := s.entries[id]
		if !showDeleted && e.Conv.SoftDeleted() {
			continue
		}
		out = append(out, e)
	}
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
