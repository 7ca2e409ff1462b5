// Package identity maintains the stable mapping between NoteKeys and
// NoteIds, so that renaming or moving a note never changes the id other
// parts of the graph (links, the undo stack) refer to it by.
package identity

import (
	"sync"

	"github.com/dendrite/dendrite/internal/model"
)

// Registry is the identity map, grounded on
// original_source/crates/dendrite-core/src/identity.rs's key_to_id /
// id_to_key pair. It is guarded by its own mutex rather than the Store's,
// since link resolution during assembly needs to allocate ids for targets
// that may not have a Note yet.
type Registry struct {
	mu      sync.Mutex
	keyToID map[model.NoteKey]model.NoteId
	idToKey map[model.NoteId]model.NoteKey
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		keyToID: make(map[model.NoteKey]model.NoteId),
		idToKey: make(map[model.NoteId]model.NoteKey),
	}
}

// GetOrCreate returns the id bound to key, allocating a fresh one if this
// is the first time key has been seen (e.g. a link pointing at a note
// that does not exist on disk yet — a "ghost" target).
func (r *Registry) GetOrCreate(key model.NoteKey) model.NoteId {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.keyToID[key]; ok {
		return id
	}
	id := model.NewNoteId()
	r.keyToID[key] = id
	r.idToKey[id] = key
	return id
}

// Lookup returns the id bound to key, if any.
func (r *Registry) Lookup(key model.NoteKey) (model.NoteId, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.keyToID[key]
	return id, ok
}

// KeyOf returns the key currently bound to id, if any.
func (r *Registry) KeyOf(id model.NoteId) (model.NoteKey, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key, ok := r.idToKey[id]
	return key, ok
}

// Rebind moves the binding for id from oldKey to newKey, used when a note
// is renamed: the id is unchanged, only the key it resolves to.
func (r *Registry) Rebind(id model.NoteId, oldKey, newKey model.NoteKey) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.keyToID[oldKey]; ok && cur == id {
		delete(r.keyToID, oldKey)
	}
	r.keyToID[newKey] = id
	r.idToKey[id] = newKey
}

// Forget removes id's binding entirely, used when a note is deleted and
// nothing still links to its key.
func (r *Registry) Forget(id model.NoteId) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if key, ok := r.idToKey[id]; ok {
		delete(r.keyToID, key)
		delete(r.idToKey, id)
	}
}

// Snapshot returns a copy of the key->id table, for persistence.
func (r *Registry) Snapshot() map[model.NoteKey]model.NoteId {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[model.NoteKey]model.NoteId, len(r.keyToID))
	for k, v := range r.keyToID {
		out[k] = v
	}
	return out
}

// Restore replaces the registry's contents from a persisted snapshot.
func (r *Registry) Restore(snapshot map[model.NoteKey]model.NoteId) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keyToID = make(map[model.NoteKey]model.NoteId, len(snapshot))
	r.idToKey = make(map[model.NoteId]model.NoteKey, len(snapshot))
	for k, v := range snapshot {
		r.keyToID[k] = v
		r.idToKey[v] = k
	}
}
