package refactor

import (
	"errors"
	"testing"

	"github.com/dendrite/dendrite/internal/identity"
	"github.com/dendrite/dendrite/internal/model"
	"github.com/dendrite/dendrite/internal/semantic"
	"github.com/dendrite/dendrite/internal/store"
)

var errNoContent = errors.New("no content")

type mockContent struct{ byURI map[string]string }

func (m mockContent) GetContent(uri string) (string, error) {
	if c, ok := m.byURI[uri]; ok {
		return c, nil
	}
	return "", errNoContent
}

func TestCalculateStructuralEdits_RenameSimple(t *testing.T) {
	st := store.New()
	reg := identity.NewRegistry()
	m := semantic.NewDendronModel()

	idA := reg.GetOrCreate("A")
	idB := reg.GetOrCreate("B")
	st.Upsert(&model.Note{ID: idB, Key: "B", Path: "B.md"})
	st.Upsert(&model.Note{ID: idA, Key: "A", Path: "A.md", Links: []model.Link{{Target: idB, Kind: model.LinkWikiLink}}})

	plan, ok := CalculateStructuralEdits(st, reg, mockContent{}, m, idB, "C.md", "C")
	if !ok {
		t.Fatalf("expected a plan")
	}
	if plan.Kind != KindRenameNote {
		t.Fatalf("kind = %v", plan.Kind)
	}
	if len(plan.Edits) != 2 {
		t.Fatalf("edits = %+v", plan.Edits)
	}

	var renameFound, linkFound bool
	for _, g := range plan.Edits {
		if g.URI == "B.md" {
			renameFound = true
			if g.Changes[0].Resource == nil || g.Changes[0].Resource.NewURI != "C.md" {
				t.Fatalf("expected rename to C.md, got %+v", g.Changes[0])
			}
		}
		if g.URI == "A.md" {
			linkFound = true
			if g.Changes[0].TextEdit.NewText != "[[C]]" {
				t.Fatalf("new text = %q", g.Changes[0].TextEdit.NewText)
			}
		}
	}
	if !renameFound || !linkFound {
		t.Fatalf("missing expected edit groups: %+v", plan.Edits)
	}
}

func TestCalculateStructuralEdits_MoveWithoutRename(t *testing.T) {
	st := store.New()
	reg := identity.NewRegistry()
	m := semantic.NewDendronModel()

	idA := reg.GetOrCreate("A")
	st.Upsert(&model.Note{ID: idA, Key: "A", Path: "A.md"})

	plan, ok := CalculateStructuralEdits(st, reg, mockContent{}, m, idA, "sub/A.md", "A")
	if !ok {
		t.Fatalf("expected a plan")
	}
	if plan.Kind != KindMoveNote {
		t.Fatalf("kind = %v", plan.Kind)
	}
	if len(plan.Edits) != 1 || plan.Edits[0].Changes[0].Resource.NewURI != "sub/A.md" {
		t.Fatalf("edits = %+v", plan.Edits)
	}
}

func TestCalculateStructuralEdits_PreservesBlockAnchor(t *testing.T) {
	st := store.New()
	reg := identity.NewRegistry()
	m := semantic.NewDendronModel()

	idOld := reg.GetOrCreate("Old Note")
	idRef := reg.GetOrCreate("Referencer")
	st.Upsert(&model.Note{ID: idOld, Key: "Old Note", Path: "Old Note.md"})
	st.Upsert(&model.Note{ID: idRef, Key: "Referencer", Path: "Referencer.md", Links: []model.Link{
		{Target: idOld, Anchor: "^block-id", Kind: model.LinkWikiLink},
	}})

	plan, ok := CalculateStructuralEdits(st, reg, mockContent{}, m, idOld, "New Note.md", "New Note")
	if !ok {
		t.Fatalf("expected a plan")
	}
	found := false
	for _, g := range plan.Edits {
		for _, c := range g.Changes {
			if c.TextEdit != nil {
				found = true
				if c.TextEdit.NewText != "[[New Note#^block-id]]" {
					t.Fatalf("new text = %q", c.TextEdit.NewText)
				}
			}
		}
	}
	if !found {
		t.Fatalf("expected a text edit for the block-anchored link")
	}
}

func TestCalculateStructuralEdits_CrossFolderMarkdownLink(t *testing.T) {
	st := store.New()
	reg := identity.NewRegistry()
	m := semantic.NewDendronModel()

	idTarget := reg.GetOrCreate("Target")
	idSource := reg.GetOrCreate("Source")
	st.Upsert(&model.Note{ID: idTarget, Key: "Target", Path: "Target.md"})
	st.Upsert(&model.Note{ID: idSource, Key: "Source", Path: "docs/Source.md", Links: []model.Link{
		{Target: idTarget, Kind: model.LinkMarkdownLink},
	}})

	plan, ok := CalculateStructuralEdits(st, reg, mockContent{}, m, idTarget, "archive/Target.md", "Target")
	if !ok {
		t.Fatalf("expected a plan")
	}
	var got string
	for _, g := range plan.Edits {
		for _, c := range g.Changes {
			if c.TextEdit != nil {
				got = c.TextEdit.NewText
			}
		}
	}
	if got != "[Target](../archive/Target.md)" {
		t.Fatalf("new text = %q", got)
	}
}

func TestCalculateStructuralEdits_UndoTextRoundTrip(t *testing.T) {
	st := store.New()
	reg := identity.NewRegistry()
	m := semantic.NewDendronModel()

	idOld := reg.GetOrCreate("Old Note")
	idRef := reg.GetOrCreate("Referencer")
	st.Upsert(&model.Note{ID: idOld, Key: "Old Note", Path: "Old Note.md"})
	st.Upsert(&model.Note{ID: idRef, Key: "Referencer", Path: "Referencer.md", Links: []model.Link{
		{Target: idOld, Kind: model.LinkWikiLink, Range: model.TextRange{
			Start: model.Point{Line: 0, Column: 6},
			End:   model.Point{Line: 0, Column: 18},
		}},
	}})
	provider := mockContent{byURI: map[string]string{"Referencer.md": "Check [[Old Note]] here."}}

	plan, ok := CalculateStructuralEdits(st, reg, provider, m, idOld, "New Note.md", "New Note")
	if !ok {
		t.Fatalf("expected a plan")
	}
	var edit *TextEdit
	for _, g := range plan.Edits {
		for _, c := range g.Changes {
			if c.TextEdit != nil {
				edit = c.TextEdit
			}
		}
	}
	if edit == nil || edit.UndoText != "[[Old Note]]" || edit.NewText != "[[New Note]]" {
		t.Fatalf("edit = %+v", edit)
	}
	if !plan.Reversible {
		t.Fatalf("expected plan to be reversible")
	}
	inv := edit.Invert()
	if inv.NewText != "[[Old Note]]" {
		t.Fatalf("invert = %+v", inv)
	}
}
