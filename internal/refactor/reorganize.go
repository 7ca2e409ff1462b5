package refactor

import (
	"sort"

	"github.com/dendrite/dendrite/internal/identity"
	"github.com/dendrite/dendrite/internal/model"
	"github.com/dendrite/dendrite/internal/semantic"
	"github.com/dendrite/dendrite/internal/store"
)

// CalculateReorganizeEdits renames an entire hierarchy prefix: every note
// whose key equals oldPrefix or nests under it (per Model.IsDescendant)
// moves to the path its reparented key implies, and every backlink across
// the whole set is rewritten. There is no Rust prototype for this
// operation — refactor/hierarchy.rs was only ever a stub — so this is
// built directly from spec.md §4.10's prose: delegate each affected note
// to the structural-edit calculator and merge the resulting edit groups by
// URI, so a note referenced by two renamed siblings gets one merged group
// rather than two colliding ones.
func CalculateReorganizeEdits(
	st *store.Store,
	reg *identity.Registry,
	content ContentProvider,
	m semantic.Model,
	oldPrefix, newPrefix model.NoteKey,
) (*EditPlan, bool) {
	affected := affectedKeys(st, m, oldPrefix)
	if len(affected) == 0 {
		return nil, false
	}

	merged := map[string]*EditGroup{}
	order := []string{}
	var preconditions []Precondition

	for _, key := range affected {
		n := findByKey(st, key)
		if n == nil || !n.HasPath() {
			continue
		}
		newKey := m.ReparentKey(key, oldPrefix, newPrefix)
		newPath := m.PathFromKey(newKey)

		plan, ok := CalculateStructuralEdits(st, reg, content, m, n.ID, newPath, newKey)
		if !ok {
			continue
		}
		preconditions = append(preconditions, plan.Preconditions...)
		for _, g := range plan.Edits {
			if existing, found := merged[g.URI]; found {
				existing.Changes = append(existing.Changes, g.Changes...)
			} else {
				copyGroup := g
				merged[g.URI] = &copyGroup
				order = append(order, g.URI)
			}
		}
	}

	edits := make([]EditGroup, 0, len(order))
	for _, uri := range order {
		g := merged[uri]
		g.SortTextEditsDescending()
		edits = append(edits, *g)
	}

	return &EditPlan{
		Kind:          KindReorganize,
		Edits:         edits,
		Preconditions: preconditions,
		Reversible:    true,
	}, true
}

// affectedKeys returns the descendants of prefix in sorted order, so the
// edit groups Reorganize merges (and the order it merges them in) do not
// depend on Store.AllNotes' map iteration order.
func affectedKeys(st *store.Store, m semantic.Model, prefix model.NoteKey) []model.NoteKey {
	var out []model.NoteKey
	for _, n := range st.AllNotes() {
		if !n.HasPath() {
			continue
		}
		if m.IsDescendant(prefix, n.Key) {
			out = append(out, n.Key)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func findByKey(st *store.Store, key model.NoteKey) *model.Note {
	for _, n := range st.AllNotes() {
		if n.Key == key {
			return n
		}
	}
	return nil
}
