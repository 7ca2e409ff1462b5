// Package store holds the in-memory graph of notes: the authoritative
// Note-by-id table, the path/id binding, and backlink adjacency. Nothing
// in this package touches disk; persistence is the cache package's job,
// and parsing is the parser/assembler packages' job.
package store

import (
	"sync"
	"sync/atomic"

	"github.com/dendrite/dendrite/internal/model"
)

// Store is safe for concurrent use. Upsert/Remove/RemoveByPath take the
// write lock, so concurrent writers are serialized by the Store itself;
// any number of readers may call the read methods concurrently via the
// RWMutex.
type Store struct {
	mu sync.RWMutex

	notes    map[model.NoteId]*model.Note
	pathToID map[string]model.NoteId

	// backlinks[target] is the set of note ids that link to target.
	backlinks map[model.NoteId]map[model.NoteId]struct{}

	version atomic.Uint64
}

// New constructs an empty Store.
func New() *Store {
	return &Store{
		notes:     make(map[model.NoteId]*model.Note),
		pathToID:  make(map[string]model.NoteId),
		backlinks: make(map[model.NoteId]map[model.NoteId]struct{}),
	}
}

// Version returns a counter bumped on every mutation. Callers (the
// hierarchy builder) use it to invalidate their own caches without the
// Store needing to know anything about hierarchy trees.
func (s *Store) Version() uint64 {
	return s.version.Load()
}

func (s *Store) bump() {
	s.version.Add(1)
}

// removeOutgoingLinks drops n's current contribution to every target's
// backlink set. Called before replacing n's links during Upsert.
func (s *Store) removeOutgoingLinks(n *model.Note) {
	for _, l := range n.Links {
		if set, ok := s.backlinks[l.Target]; ok {
			delete(set, n.ID)
			if len(set) == 0 {
				delete(s.backlinks, l.Target)
			}
		}
	}
}

func (s *Store) addOutgoingLinks(n *model.Note) {
	for _, l := range n.Links {
		set, ok := s.backlinks[l.Target]
		if !ok {
			set = make(map[model.NoteId]struct{})
			s.backlinks[l.Target] = set
		}
		set[n.ID] = struct{}{}
	}
}

// Upsert inserts or replaces the note. If a ghost note (no path) already
// existed under n.ID — i.e. something linked to it before it had a file —
// n.ID should already equal that ghost's id via the identity registry, so
// this simply materializes it.
func (s *Store) Upsert(n *model.Note) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.notes[n.ID]; ok {
		s.removeOutgoingLinks(old)
		if old.Path != "" && old.Path != n.Path {
			delete(s.pathToID, old.Path)
		}
	}
	s.notes[n.ID] = n
	if n.Path != "" {
		s.pathToID[n.Path] = n.ID
	}
	s.addOutgoingLinks(n)
	s.bump()
}

// Remove deletes the note with id, if present, along with its outgoing
// link contributions. It does not remove the note as a backlink *target*:
// other notes' links to it simply start resolving to a ghost.
func (s *Store) Remove(id model.NoteId) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notes[id]
	if !ok {
		return
	}
	s.removeOutgoingLinks(n)
	if n.Path != "" {
		delete(s.pathToID, n.Path)
	}
	delete(s.notes, id)
	s.bump()
}

// RemoveByPath is a convenience wrapper for the indexer's Delete events.
func (s *Store) RemoveByPath(path string) (model.NoteId, bool) {
	s.mu.Lock()
	id, ok := s.pathToID[path]
	s.mu.Unlock()
	if !ok {
		return model.NoteId{}, false
	}
	s.Remove(id)
	return id, true
}

// Note returns the note with id, if present.
func (s *Store) Note(id model.NoteId) (*model.Note, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.notes[id]
	return n, ok
}

// NoteByPath returns the note backed by path, if present.
func (s *Store) NoteByPath(path string) (*model.Note, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.pathToID[path]
	if !ok {
		return nil, false
	}
	return s.notes[id], true
}

// Backlinks returns the ids of every note with an outgoing link to target.
func (s *Store) Backlinks(target model.NoteId) []model.NoteId {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set := s.backlinks[target]
	out := make([]model.NoteId, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

// AllNotes returns a snapshot slice of every note currently in the store.
// The slice and its contents must be treated as read-only by the caller.
func (s *Store) AllNotes() []*model.Note {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.Note, 0, len(s.notes))
	for _, n := range s.notes {
		out = append(out, n)
	}
	return out
}

// Len returns the number of notes currently tracked.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.notes)
}
