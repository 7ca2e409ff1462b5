package hierarchy

import (
	"testing"

	"github.com/dendrite/dendrite/internal/model"
	"github.com/dendrite/dendrite/internal/semantic"
	"github.com/dendrite/dendrite/internal/store"
)

func TestBuilder_MaterializesGhostAncestors(t *testing.T) {
	st := store.New()
	st.Upsert(&model.Note{ID: model.NewNoteId(), Path: "foo.bar.baz.md", Key: "foo.bar.baz"})

	b := NewBuilder(semantic.NewDendronModel())
	tree := b.Build(st)

	foo := tree.Find("foo")
	if foo == nil || !foo.IsGhost {
		t.Fatalf("expected ghost node for foo")
	}
	bar := tree.Find("foo.bar")
	if bar == nil || !bar.IsGhost {
		t.Fatalf("expected ghost node for foo.bar")
	}
	baz := tree.Find("foo.bar.baz")
	if baz == nil || baz.IsGhost {
		t.Fatalf("expected real node for foo.bar.baz")
	}
}

func TestBuilder_CachesUntilStoreMutates(t *testing.T) {
	st := store.New()
	st.Upsert(&model.Note{ID: model.NewNoteId(), Path: "a.md", Key: "a"})

	b := NewBuilder(semantic.NewDendronModel())
	first := b.Build(st)
	second := b.Build(st)
	if first != second {
		t.Fatalf("expected cached tree to be reused")
	}

	st.Upsert(&model.Note{ID: model.NewNoteId(), Path: "b.md", Key: "b"})
	third := b.Build(st)
	if third == second {
		t.Fatalf("expected tree to rebuild after mutation")
	}
}

func TestBuilder_SortsChildrenByDisplayName(t *testing.T) {
	st := store.New()
	st.Upsert(&model.Note{ID: model.NewNoteId(), Path: "zeta.md", Key: "zeta", Title: "Zeta"})
	st.Upsert(&model.Note{ID: model.NewNoteId(), Path: "alpha.md", Key: "alpha", Title: "Alpha"})

	b := NewBuilder(semantic.NewDendronModel())
	tree := b.Build(st)

	if len(tree.Root.Children) != 2 {
		t.Fatalf("got %d top-level children, want 2", len(tree.Root.Children))
	}
	if tree.Root.Children[0].Key != "alpha" {
		t.Fatalf("expected alpha first, got %s", tree.Root.Children[0].Key)
	}
}
