package query

import (
	"testing"

	"github.com/dendrite/dendrite/internal/model"
	"github.com/dendrite/dendrite/internal/semantic"
	"github.com/dendrite/dendrite/internal/store"
)

func TestAPI_Backlinks(t *testing.T) {
	st := store.New()
	target := model.NewNoteId()
	source := model.NewNoteId()
	st.Upsert(&model.Note{ID: target, Path: "target.md", Key: "target"})
	st.Upsert(&model.Note{ID: source, Path: "source.md", Key: "source", Links: []model.Link{{Target: target}}})

	api := New(semantic.NewDendronModel(), st)
	bl := api.Backlinks("target")
	if len(bl) != 1 || bl[0].Key != "source" {
		t.Fatalf("Backlinks = %+v", bl)
	}
}

func TestResolveAnchor_ReservedBeginEnd(t *testing.T) {
	note := &model.Note{
		Headings: []model.Heading{{Slug: "h1", Range: model.TextRange{Start: model.Point{Line: 2}, End: model.Point{Line: 5}}}},
	}
	p, ok := ResolveAnchor(note, "begin")
	if !ok || p.Line != 0 {
		t.Fatalf("begin anchor = %+v %v", p, ok)
	}
	p, ok = ResolveAnchor(note, "end")
	if !ok || p.Line != 5 {
		t.Fatalf("end anchor = %+v %v", p, ok)
	}
}

func TestResolveAnchor_BlockID(t *testing.T) {
	note := &model.Note{Blocks: []model.Block{{ID: "blk", Range: model.TextRange{Start: model.Point{Line: 3}}}}}
	p, ok := ResolveAnchor(note, "^blk")
	if !ok || p.Line != 3 {
		t.Fatalf("block anchor = %+v %v", p, ok)
	}
}
