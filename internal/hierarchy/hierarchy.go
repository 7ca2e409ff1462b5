// Package hierarchy builds the note tree a semantic model's parent chain
// implies, inserting ghost nodes for ancestors that have no backing file.
package hierarchy

import (
	"sort"
	"strings"
	"sync"

	"github.com/dendrite/dendrite/internal/model"
	"github.com/dendrite/dendrite/internal/semantic"
	"github.com/dendrite/dendrite/internal/store"
)

// Node is one entry in the tree. IsGhost is true when no note backs this
// key — it exists only because a descendant's parent chain requires it.
type Node struct {
	Key         model.NoteKey
	DisplayName string
	NoteID      model.NoteId
	IsGhost     bool
	Children    []*Node
}

// Tree is the full materialized hierarchy, rooted at an implicit, keyless
// root whose Children are the top-level keys.
type Tree struct {
	Root *Node
}

// Builder builds and memoizes a Tree against a Store's version counter, so
// repeated Query calls in between mutations don't re-walk the whole graph.
type Builder struct {
	model semantic.Model

	mu        sync.RWMutex
	cachedFor uint64
	cached    *Tree
}

// NewBuilder constructs a Builder for the given semantic model.
func NewBuilder(m semantic.Model) *Builder {
	return &Builder{model: m}
}

// Build returns the current tree for st, rebuilding only if st has
// mutated since the last call.
func (b *Builder) Build(st *store.Store) *Tree {
	v := st.Version()

	b.mu.RLock()
	if b.cached != nil && b.cachedFor == v {
		t := b.cached
		b.mu.RUnlock()
		return t
	}
	b.mu.RUnlock()

	t := build(st, b.model)

	b.mu.Lock()
	b.cached = t
	b.cachedFor = v
	b.mu.Unlock()
	return t
}

func build(st *store.Store, m semantic.Model) *Tree {
	nodes := make(map[model.NoteKey]*Node)

	ensure := func(key model.NoteKey) *Node {
		if n, ok := nodes[key]; ok {
			return n
		}
		n := &Node{Key: key, DisplayName: m.DisplayName(key, ""), IsGhost: true}
		nodes[key] = n
		return n
	}

	for _, n := range st.AllNotes() {
		node := ensure(n.Key)
		node.NoteID = n.ID
		node.IsGhost = false
		node.DisplayName = m.DisplayName(n.Key, n.Title)
	}

	// Materialize every ancestor chain, ghosts included.
	for key := range nodes {
		cur := key
		for {
			parent, ok := m.Parent(cur)
			if !ok {
				break
			}
			ensure(parent)
			cur = parent
		}
	}

	root := &Node{}
	for key, node := range nodes {
		parent, ok := m.Parent(key)
		if !ok {
			root.Children = append(root.Children, node)
			continue
		}
		p := nodes[parent]
		p.Children = append(p.Children, node)
	}

	sortChildren(root)
	return &Tree{Root: root}
}

func sortChildren(n *Node) {
	sort.Slice(n.Children, func(i, j int) bool {
		a, b := n.Children[i], n.Children[j]
		la, lb := strings.ToLower(a.DisplayName), strings.ToLower(b.DisplayName)
		if la != lb {
			return la < lb
		}
		return a.Key < b.Key
	})
	for _, c := range n.Children {
		sortChildren(c)
	}
}

// Find walks the tree looking for key, returning nil if absent.
func (t *Tree) Find(key model.NoteKey) *Node {
	var found *Node
	var walk func(*Node)
	walk = func(n *Node) {
		if found != nil {
			return
		}
		if n.Key == key {
			found = n
			return
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(t.Root)
	return found
}
