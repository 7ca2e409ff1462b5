package refactor

import (
	"testing"

	"github.com/dendrite/dendrite/internal/identity"
	"github.com/dendrite/dendrite/internal/model"
	"github.com/dendrite/dendrite/internal/semantic"
	"github.com/dendrite/dendrite/internal/store"
)

func TestPlanner_RenameNote(t *testing.T) {
	st := store.New()
	reg := identity.NewRegistry()
	m := semantic.NewDendronModel()
	idB := reg.GetOrCreate("B")
	st.Upsert(&model.Note{ID: idB, Key: "B", Path: "B.md"})

	p := NewPlanner(st, reg, m, 5)
	plan, err := p.RenameNote(mockContent{}, "B", "C")
	if err != nil {
		t.Fatalf("RenameNote: %v", err)
	}
	if plan.Kind != KindRenameNote {
		t.Fatalf("kind = %v", plan.Kind)
	}
}

func TestPlanner_UndoRejectsOnDigestDrift(t *testing.T) {
	st := store.New()
	reg := identity.NewRegistry()
	m := semantic.NewDendronModel()
	idB := reg.GetOrCreate("B")
	st.Upsert(&model.Note{ID: idB, Key: "B", Path: "B.md"})

	p := NewPlanner(st, reg, m, 5)
	plan, err := p.RenameNote(mockContent{}, "B", "C")
	if err != nil {
		t.Fatalf("RenameNote: %v", err)
	}

	digests := map[string]string{}
	for _, g := range plan.Edits {
		digests[g.URI] = "digest-at-apply-time"
	}
	p.Record(*plan, func(uri string) string { return digests[uri] })
	if p.UndoDepth() != 1 {
		t.Fatalf("expected 1 recorded plan, got %d", p.UndoDepth())
	}

	if _, err := p.Undo(func(uri string) string { return digests[uri] }); err != nil {
		t.Fatalf("Undo with matching digests: %v", err)
	}
	if p.UndoDepth() != 0 {
		t.Fatalf("expected undo stack drained, got %d", p.UndoDepth())
	}

	// Record again, then drift a digest before undoing.
	plan2, err := p.RenameNote(mockContent{}, "B", "D")
	if err != nil {
		t.Fatalf("RenameNote: %v", err)
	}
	p.Record(*plan2, func(uri string) string { return digests[uri] })
	if _, err := p.Undo(func(uri string) string { return "a-different-digest" }); err == nil {
		t.Fatalf("expected Undo to reject a drifted digest")
	}
	if p.UndoDepth() != 1 {
		t.Fatalf("a rejected undo must not pop the stack, got depth %d", p.UndoDepth())
	}
}

func TestPlanner_Audit(t *testing.T) {
	st := store.New()
	reg := identity.NewRegistry()
	m := semantic.NewDendronModel()
	idA := reg.GetOrCreate("A")
	idMissing := reg.GetOrCreate("Missing")
	st.Upsert(&model.Note{ID: idA, Key: "A", Path: "A.md", Links: []model.Link{
		{Target: idMissing, RawTarget: "Missing", Kind: model.LinkWikiLink},
	}})

	p := NewPlanner(st, reg, m, 5)
	plan := p.Audit()
	if len(plan.Diagnostics) != 1 {
		t.Fatalf("diagnostics = %+v", plan.Diagnostics)
	}
}
