// Package query is the read-only façade LSP handlers and the debug HTTP
// surface go through: resolving links, listing backlinks, walking the
// hierarchy, and jumping to definitions — never mutating the Store.
package query

import (
	"strings"

	"github.com/dendrite/dendrite/internal/hierarchy"
	"github.com/dendrite/dendrite/internal/model"
	"github.com/dendrite/dendrite/internal/semantic"
	"github.com/dendrite/dendrite/internal/store"
)

// API is grounded on
// original_source/crates/dendrite-core/src/workspace/queries.rs's
// Workspace read methods.
type API struct {
	model   semantic.Model
	store   *store.Store
	builder *hierarchy.Builder
}

// New constructs a query API over a Store and semantic Model, sharing one
// hierarchy.Builder so repeated calls reuse its memoized tree.
func New(m semantic.Model, st *store.Store) *API {
	return &API{model: m, store: st, builder: hierarchy.NewBuilder(m)}
}

// ResolveKey finds the note currently bound to key, if one exists with a
// real file backing it.
func (a *API) ResolveKey(key model.NoteKey) (*model.Note, bool) {
	for _, n := range a.store.AllNotes() {
		if n.Key == key && n.HasPath() {
			return n, true
		}
	}
	return nil, false
}

// NoteByPath returns the note backed by path.
func (a *API) NoteByPath(path string) (*model.Note, bool) {
	return a.store.NoteByPath(path)
}

// Backlinks returns every note that links to target's key.
func (a *API) Backlinks(key model.NoteKey) []*model.Note {
	target, ok := a.ResolveKey(key)
	if !ok {
		return nil
	}
	var out []*model.Note
	for _, id := range a.store.Backlinks(target.ID) {
		if n, ok := a.store.Note(id); ok {
			out = append(out, n)
		}
	}
	return out
}

// Hierarchy returns the current note tree.
func (a *API) Hierarchy() *hierarchy.Tree {
	return a.builder.Build(a.store)
}

// AllNoteKeys returns every known key, for completion.
func (a *API) AllNoteKeys() []model.NoteKey {
	out := make([]model.NoteKey, 0, a.store.Len())
	for _, n := range a.store.AllNotes() {
		out = append(out, n.Key)
	}
	return out
}

// DisplayName resolves a key's human-facing label.
func (a *API) DisplayName(key model.NoteKey) string {
	title := ""
	if n, ok := a.ResolveKey(key); ok {
		title = n.Title
	}
	return a.model.DisplayName(key, title)
}

// FindLinkAt returns the link at p within note, if any, for definition
// lookups (click-through on a wikilink under the cursor).
func FindLinkAt(note *model.Note, p model.Point) (model.Link, bool) {
	for _, l := range note.Links {
		if l.Range.Contains(p) {
			return l, true
		}
	}
	return model.Link{}, false
}

// ResolveAnchor locates the position within target that l's anchor refers
// to. It supports the standard heading-slug and block-id anchors plus the
// reserved ^begin / ^end anchors — supplemental to spec.md's literal text,
// grounded on original_source/.../workspace/queries.rs's
// resolve_link_anchor, which treats ^begin as the span before the first
// heading and ^end as the span after the last block. Both reserved
// anchors are also accepted without the "^".
func ResolveAnchor(target *model.Note, anchor string) (model.Point, bool) {
	if anchor == "" {
		return model.Point{}, false
	}
	switch anchor {
	case "^begin", "begin":
		return model.Point{Line: 0, Column: 0}, true
	case "^end", "end":
		return lastPoint(target), true
	}
	if id, ok := strings.CutPrefix(anchor, "^"); ok {
		for _, b := range target.Blocks {
			if b.ID == id {
				return b.Range.Start, true
			}
		}
		return model.Point{}, false
	}
	for _, h := range target.Headings {
		if h.Slug == anchor {
			return h.Range.Start, true
		}
	}
	// A bare block id without the "^" marker (some editors omit it).
	for _, b := range target.Blocks {
		if b.ID == anchor {
			return b.Range.Start, true
		}
	}
	return model.Point{}, false
}

func lastPoint(n *model.Note) model.Point {
	last := model.Point{}
	for _, h := range n.Headings {
		if h.Range.End.Line > last.Line {
			last = h.Range.End
		}
	}
	for _, b := range n.Blocks {
		if b.Range.End.Line > last.Line {
			last = b.Range.End
		}
	}
	return last
}
