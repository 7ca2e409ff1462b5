package refactor

import (
	"testing"

	"github.com/dendrite/dendrite/internal/model"
	"github.com/dendrite/dendrite/internal/semantic"
	"github.com/dendrite/dendrite/internal/store"
)

func TestCalculateSplitEdits_ExtractSelection(t *testing.T) {
	st := store.New()
	m := semantic.NewDendronModel()

	idA := model.NewNoteId()
	st.Upsert(&model.Note{ID: idA, Key: "source", Path: "source.md"})

	provider := mockContent{byURI: map[string]string{"source.md": "Line 1\nTarget Text\nLine 3"}}
	selection := model.TextRange{Start: model.Point{Line: 1, Column: 0}, End: model.Point{Line: 1, Column: 11}}

	plan, ok := CalculateSplitEdits(st, provider, m, idA, selection, "target")
	if !ok {
		t.Fatalf("expected a plan")
	}

	var sourceEdit *TextEdit
	var createContent string
	var createFound bool
	for _, g := range plan.Edits {
		if g.URI == "source.md" {
			sourceEdit = g.Changes[0].TextEdit
		}
		if g.URI == "target.md" {
			createFound = true
			createContent = g.Changes[0].Resource.Content
		}
	}
	if sourceEdit == nil || sourceEdit.NewText != "[[target]]" || sourceEdit.Range != selection {
		t.Fatalf("source edit = %+v", sourceEdit)
	}
	if !createFound || createContent != "Target Text" {
		t.Fatalf("create content = %q found=%v", createContent, createFound)
	}
}

func TestExtractText_MultiLine(t *testing.T) {
	content := "abc\ndefgh\nij"
	r := model.TextRange{Start: model.Point{Line: 0, Column: 1}, End: model.Point{Line: 2, Column: 1}}
	got, ok := extractText(content, r)
	if !ok {
		t.Fatalf("expected ok")
	}
	want := "bc\ndefgh\ni"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}
