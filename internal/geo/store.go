package geo

import (
	"errors"
	"fmt"
)

// ErrEmptySelection is returned when a remove action finds no eligible
// candidate. Non-fatal: the store is left untouched.
var ErrEmptySelection = errors.New("no removable entity in range")

// Store splits each entity kind into three sets: existing (provider
// supplied), user-added, and removed. Removal is a membership overlay on
// top of the other two sets, never a destructive delete of provider data.
type Store struct {
	existing  map[Kind][]*Entity
	userAdded map[Kind][]*Entity
	removed   map[Kind]map[string]*Entity
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		existing:  make(map[Kind][]*Entity),
		userAdded: make(map[Kind][]*Entity),
		removed:   make(map[Kind]map[string]*Entity),
	}
}

// Load replaces the existing sets with a freshly fetched batch and clears
// all user edits. Called once per location change.
func (s *Store) Load(batch map[Kind][]*Entity) {
	s.existing = make(map[Kind][]*Entity, len(batch))
	for k, list := range batch {
		s.existing[k] = append([]*Entity(nil), list...)
	}
	s.userAdded = make(map[Kind][]*Entity)
	s.removed = make(map[Kind]map[string]*Entity)
}

// AddUserEntity assigns a fresh id, tags the entity user-added and appends
// it to its kind's set. Returns the stored entity.
func (s *Store) AddUserEntity(e *Entity) *Entity {
	e.ID = NewUserID()
	e.Origin = OriginUserAdded
	s.userAdded[e.Kind] = append(s.userAdded[e.Kind], e)
	return e
}

// MarkRemoved moves an active entity (existing or user-added) into the
// removed overlay. Removing an unknown or already-removed id is a no-op.
func (s *Store) MarkRemoved(kind Kind, id string) {
	if s.removed[kind] != nil {
		if _, done := s.removed[kind][id]; done {
			return
		}
	}
	e := s.findActive(kind, id)
	if e == nil {
		return
	}
	if s.removed[kind] == nil {
		s.removed[kind] = make(map[string]*Entity)
	}
	s.removed[kind][id] = e
}

// DeleteUserEntity drops a user-added entity outright (first-class undo).
// Returns true if the id was found and deleted.
func (s *Store) DeleteUserEntity(kind Kind, id string) bool {
	list := s.userAdded[kind]
	for i, e := range list {
		if e.ID == id {
			s.userAdded[kind] = append(list[:i], list[i+1:]...)
			return true
		}
	}
	return false
}

// ActiveExisting returns provider entities of a kind minus the removed
// overlay.
func (s *Store) ActiveExisting(kind Kind) []*Entity {
	return s.filterRemoved(kind, s.existing[kind])
}

// ActiveUserAdded returns player entities of a kind minus the removed
// overlay.
func (s *Store) ActiveUserAdded(kind Kind) []*Entity {
	return s.filterRemoved(kind, s.userAdded[kind])
}

// Removed returns the removed entities of a kind, kept for ghost rendering.
func (s *Store) Removed(kind Kind) []*Entity {
	out := make([]*Entity, 0, len(s.removed[kind]))
	for _, list := range [2][]*Entity{s.existing[kind], s.userAdded[kind]} {
		for _, e := range list {
			if _, gone := s.removed[kind][e.ID]; gone {
				out = append(out, e)
			}
		}
	}
	return out
}

// AddedCount returns the number of active user-added entities of a kind.
func (s *Store) AddedCount(kind Kind) int {
	return len(s.ActiveUserAdded(kind))
}

// RemovedCount returns the size of a kind's removed overlay.
func (s *Store) RemovedCount(kind Kind) int {
	return len(s.removed[kind])
}

// Reset clears user-added and removed sets for all kinds. Existing sets
// keep their last-loaded value.
func (s *Store) Reset() {
	s.userAdded = make(map[Kind][]*Entity)
	s.removed = make(map[Kind]map[string]*Entity)
}

// String returns a summary of the store.
func (s *Store) String() string {
	total, added, removed := 0, 0, 0
	for _, k := range Kinds {
		total += len(s.existing[k])
		added += len(s.userAdded[k])
		removed += len(s.removed[k])
	}
	return fmt.Sprintf("Store(existing=%d, added=%d, removed=%d)", total, added, removed)
}

func (s *Store) filterRemoved(kind Kind, list []*Entity) []*Entity {
	gone := s.removed[kind]
	if len(gone) == 0 {
		return append([]*Entity(nil), list...)
	}
	out := make([]*Entity, 0, len(list))
	for _, e := range list {
		if _, ok := gone[e.ID]; !ok {
			out = append(out, e)
		}
	}
	return out
}

func (s *Store) findActive(kind Kind, id string) *Entity {
	for _, list := range [2][]*Entity{s.existing[kind], s.userAdded[kind]} {
		for _, e := range list {
			if e.ID == id {
				return e
			}
		}
	}
	return nil
}
