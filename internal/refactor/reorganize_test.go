package refactor

import (
	"testing"

	"github.com/dendrite/dendrite/internal/identity"
	"github.com/dendrite/dendrite/internal/model"
	"github.com/dendrite/dendrite/internal/semantic"
	"github.com/dendrite/dendrite/internal/store"
)

func TestCalculateReorganizeEdits_RenamesDescendants(t *testing.T) {
	st := store.New()
	reg := identity.NewRegistry()
	m := semantic.NewDendronModel()

	idParent := reg.GetOrCreate("foo")
	idChild := reg.GetOrCreate("foo.child")
	idRef := reg.GetOrCreate("ref")
	st.Upsert(&model.Note{ID: idParent, Key: "foo", Path: "foo.md"})
	st.Upsert(&model.Note{ID: idChild, Key: "foo.child", Path: "foo.child.md"})
	st.Upsert(&model.Note{ID: idRef, Key: "ref", Path: "ref.md", Links: []model.Link{
		{Target: idParent, Kind: model.LinkWikiLink},
		{Target: idChild, Kind: model.LinkWikiLink},
	}})

	plan, ok := CalculateReorganizeEdits(st, reg, mockContent{}, m, "foo", "bar")
	if !ok {
		t.Fatalf("expected a plan")
	}
	if plan.Kind != KindReorganize {
		t.Fatalf("kind = %v", plan.Kind)
	}

	var refGroup *EditGroup
	var renames int
	for i := range plan.Edits {
		g := &plan.Edits[i]
		if g.URI == "ref.md" {
			refGroup = g
		}
		for _, c := range g.Changes {
			if c.Resource != nil && c.Resource.Kind == ResourceRenameFile {
				renames++
			}
		}
	}
	if renames != 2 {
		t.Fatalf("expected 2 rename ops, got %d", renames)
	}
	if refGroup == nil || len(refGroup.Changes) != 2 {
		t.Fatalf("expected ref.md's two links merged into one group, got %+v", refGroup)
	}
}

func TestCalculateReorganizeEdits_NoMatchingNotes(t *testing.T) {
	st := store.New()
	reg := identity.NewRegistry()
	m := semantic.NewDendronModel()

	if _, ok := CalculateReorganizeEdits(st, reg, mockContent{}, m, "missing", "also-missing"); ok {
		t.Fatalf("expected no plan when nothing matches the prefix")
	}
}
