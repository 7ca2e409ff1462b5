package refactor

import (
	"fmt"
	"strings"

	"github.com/dendrite/dendrite/internal/model"
	"github.com/dendrite/dendrite/internal/semantic"
	"github.com/dendrite/dendrite/internal/store"
)

// CalculateAuditDiagnostics scans every note's outgoing links for broken
// targets, invalid anchors, and model-strict syntax violations (Dendron
// forbids bare "#anchor" links outside a "[[note#anchor]]" form). Grounded
// on original_source/.../refactor/audit.rs::calculate_audit_diagnostics.
// The returned plan carries no edits; it is never Reversible.
func CalculateAuditDiagnostics(st *store.Store, m semantic.Model) *EditPlan {
	var diagnostics []Diagnostic

	for _, note := range st.AllNotes() {
		uri := note.Path
		for _, l := range note.Links {
			if l.Kind == model.LinkAutoLink {
				continue
			}
			lower := strings.ToLower(l.RawTarget)
			if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") || strings.HasPrefix(lower, "mailto:") {
				continue
			}

			target, found := st.Note(l.Target)
			isBroken := !found || !target.HasPath()
			if isBroken {
				diagnostics = append(diagnostics, Diagnostic{
					Severity: SeverityError,
					Message:  "Broken link: target note not found.",
					URI:      uri,
					Range:    l.Range,
				})
			}

			if !isBroken && l.Anchor != "" {
				if !anchorExists(target, l.Anchor) {
					diagnostics = append(diagnostics, Diagnostic{
						Severity: SeverityError,
						Message:  fmt.Sprintf("Invalid anchor: %q not found in target note.", l.Anchor),
						URI:      uri,
						Range:    l.Range,
					})
				}
			}

			if m.ID() == "Dendron" && strings.HasPrefix(l.RawTarget, "#") {
				diagnostics = append(diagnostics, Diagnostic{
					Severity: SeverityWarning,
					Message:  fmt.Sprintf("Dendron strictly forbids bare anchor links like %q. Use \"[[note#anchor]]\".", l.RawTarget),
					URI:      uri,
					Range:    l.Range,
				})
			}
		}
	}

	return &EditPlan{
		Kind:        KindAudit,
		Diagnostics: diagnostics,
		Reversible:  false,
	}
}

// anchorExists checks a target note's headings and blocks for anchor,
// matching audit.rs's distinction between "^block-id" anchors (matched
// against block ids) and everything else (matched against heading slug or
// heading text).
func anchorExists(note *model.Note, anchor string) bool {
	if strings.HasPrefix(anchor, "^") {
		id := strings.TrimPrefix(anchor, "^")
		for _, b := range note.Blocks {
			if b.ID == id {
				return true
			}
		}
		return false
	}
	for _, h := range note.Headings {
		if h.Slug == anchor || h.Text == anchor {
			return true
		}
	}
	return false
}
