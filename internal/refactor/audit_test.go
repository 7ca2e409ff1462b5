package refactor

import (
	"strings"
	"testing"

	"github.com/dendrite/dendrite/internal/identity"
	"github.com/dendrite/dendrite/internal/model"
	"github.com/dendrite/dendrite/internal/semantic"
	"github.com/dendrite/dendrite/internal/store"
)

func TestCalculateAuditDiagnostics_BrokenLink(t *testing.T) {
	st := store.New()
	reg := identity.NewRegistry()
	m := semantic.NewDendronModel()

	idA := reg.GetOrCreate("A")
	idMissing := reg.GetOrCreate("Missing")
	st.Upsert(&model.Note{ID: idA, Key: "A", Path: "A.md", Links: []model.Link{
		{Target: idMissing, RawTarget: "Missing", Kind: model.LinkWikiLink},
	}})

	plan := CalculateAuditDiagnostics(st, m)
	if len(plan.Diagnostics) != 1 || !strings.Contains(plan.Diagnostics[0].Message, "Broken link") {
		t.Fatalf("diagnostics = %+v", plan.Diagnostics)
	}
	if plan.Reversible {
		t.Fatalf("audit plans must not be reversible")
	}
}

func TestCalculateAuditDiagnostics_InvalidAnchor(t *testing.T) {
	st := store.New()
	reg := identity.NewRegistry()
	m := semantic.NewDendronModel()

	idTarget := reg.GetOrCreate("Target")
	idA := reg.GetOrCreate("A")
	st.Upsert(&model.Note{ID: idTarget, Key: "Target", Path: "Target.md", Headings: []model.Heading{
		{Text: "Existing", Level: 1, Slug: "existing"},
	}})
	st.Upsert(&model.Note{ID: idA, Key: "A", Path: "A.md", Links: []model.Link{
		{Target: idTarget, RawTarget: "Target", Anchor: "NonExistent", Kind: model.LinkWikiLink},
	}})

	plan := CalculateAuditDiagnostics(st, m)
	if len(plan.Diagnostics) != 1 || !strings.Contains(plan.Diagnostics[0].Message, "Invalid anchor") {
		t.Fatalf("diagnostics = %+v", plan.Diagnostics)
	}
}

func TestCalculateAuditDiagnostics_DendronBareAnchor(t *testing.T) {
	st := store.New()
	reg := identity.NewRegistry()
	m := semantic.NewDendronModel()

	idA := reg.GetOrCreate("A")
	st.Upsert(&model.Note{ID: idA, Key: "A", Path: "A.md", Links: []model.Link{
		{Target: idA, RawTarget: "#forbidden", Anchor: "forbidden", Kind: model.LinkWikiLink},
	}})

	plan := CalculateAuditDiagnostics(st, m)
	found := false
	for _, d := range plan.Diagnostics {
		if strings.Contains(d.Message, "strictly forbids bare anchor") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a bare-anchor diagnostic, got %+v", plan.Diagnostics)
	}
}
