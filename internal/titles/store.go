package titles

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Snapshot is one complete load of the title set. The slice must be
// treated as read-only by consumers.
type Snapshot struct {
	ID       uuid.UUID
	LoadedAt time.Time
	Titles   []Title
}

// Store holds the current snapshot. Reloads swap the whole snapshot
// atomically, so a reader never observes a partially replaced set.
type Store struct {
	current atomic.Pointer[Snapshot]
}

// NewStore returns a store holding an empty snapshot.
func NewStore() *Store {
	s := &Store{}
	s.current.Store(&Snapshot{ID: uuid.New(), LoadedAt: time.Now().UTC()})
	return s
}

// Current returns the active snapshot.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Replace installs a new snapshot wholesale and returns it.
func (s *Store) Replace(set []Title) *Snapshot {
	snap := &Snapshot{ID: uuid.New(), LoadedAt: time.Now().UTC(), Titles: set}
	s.current.Store(snap)
	return snap
}
