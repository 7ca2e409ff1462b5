// Package refactor computes EditPlans: descriptions of text edits and
// resource operations a client should apply to carry out a rename, move,
// split, reorganize, or audit. Nothing here touches disk — every
// calculate* function is pure given a ContentProvider to read "as if
// already open" buffer content from.
package refactor

import (
	"sort"
	"strings"

	"github.com/dendrite/dendrite/internal/model"
)

// ContentProvider supplies the current text of a note, honoring the LSP
// overlay (an open, unsaved buffer shadows the file on disk).
type ContentProvider interface {
	GetContent(path string) (string, error)
}

// Kind classifies which operation produced an EditPlan.
type Kind int

const (
	KindRenameNote Kind = iota
	KindMoveNote
	KindSplitNote
	KindReorganize
	KindAudit
)

func (k Kind) String() string {
	switch k {
	case KindRenameNote:
		return "rename_note"
	case KindMoveNote:
		return "move_note"
	case KindSplitNote:
		return "split_note"
	case KindReorganize:
		return "reorganize"
	case KindAudit:
		return "audit"
	default:
		return "unknown"
	}
}

// PreconditionKind classifies a Precondition.
type PreconditionKind int

const (
	PreNoteExists PreconditionKind = iota
	PrePathNotExists
	PreContentUnchanged
)

// Precondition must hold at apply time or the whole plan is rejected.
type Precondition struct {
	Kind     PreconditionKind
	Key      model.NoteKey // for PreNoteExists
	Path     string        // for PrePathNotExists / PreContentUnchanged
	Checksum string        // for PreContentUnchanged
}

// Severity classifies a Diagnostic.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

// Diagnostic is a non-edit finding surfaced to the client (used by Audit,
// and attachable to key-collision conflicts during indexing).
type Diagnostic struct {
	Severity Severity
	Message  string
	URI      string
	Range    model.TextRange
}

// TextEdit replaces the text in [Range] with NewText. UndoText, when
// present, is the text that Range originally covered — required for
// Invert.
type TextEdit struct {
	Range    model.TextRange
	NewText  string
	UndoText string
}

// Invert recomputes a TextEdit that would undo this one: it replaces the
// range NewText now occupies with UndoText. Grounded on
// original_source/.../refactor/model.rs's TextEdit::invert, which walks
// NewText's characters to recompute the replaced end position.
func (e TextEdit) Invert() TextEdit {
	end := walkEnd(e.Range.Start, e.NewText)
	return TextEdit{
		Range:    model.TextRange{Start: e.Range.Start, End: end},
		NewText:  e.UndoText,
		UndoText: e.NewText,
	}
}

func walkEnd(start model.Point, text string) model.Point {
	line, col := start.Line, start.Column
	for _, r := range text {
		if r == '\n' {
			line++
			col = 0
		} else {
			col++
		}
	}
	return model.Point{Line: line, Column: col}
}

// ResourceOpKind classifies a ResourceOperation.
type ResourceOpKind int

const (
	ResourceCreateFile ResourceOpKind = iota
	ResourceDeleteFile
	ResourceRenameFile
)

// ResourceOperation is a file-system-level change (as opposed to a text
// edit within a file).
type ResourceOperation struct {
	Kind            ResourceOpKind
	Content         string // for ResourceCreateFile
	IgnoreIfMissing bool   // for ResourceDeleteFile
	NewURI          string // for ResourceRenameFile
	Overwrite       bool   // for ResourceRenameFile
}

// Invert returns the resource operation that undoes this one, given the
// URI it was originally described against.
func (op ResourceOperation) Invert(originalURI string) ResourceOperation {
	switch op.Kind {
	case ResourceCreateFile:
		return ResourceOperation{Kind: ResourceDeleteFile, IgnoreIfMissing: true}
	case ResourceDeleteFile:
		return ResourceOperation{Kind: ResourceCreateFile}
	case ResourceRenameFile:
		return ResourceOperation{Kind: ResourceRenameFile, NewURI: originalURI, Overwrite: op.Overwrite}
	default:
		return op
	}
}

// Change is either a TextEdit or a ResourceOperation.
type Change struct {
	TextEdit *TextEdit
	Resource *ResourceOperation
}

// Invert undoes a Change. originalURI is the URI the group lived at
// before this change (needed to invert a RenameFile correctly).
func (c Change) Invert(originalURI string) Change {
	if c.TextEdit != nil {
		inv := c.TextEdit.Invert()
		return Change{TextEdit: &inv}
	}
	if c.Resource != nil {
		inv := c.Resource.Invert(originalURI)
		return Change{Resource: &inv}
	}
	return c
}

// EditGroup bundles every Change that applies to one URI.
type EditGroup struct {
	URI     string
	Changes []Change
}

// SortTextEditsDescending reorders g's text-edit Changes by descending
// Range.Start, per spec.md §4.10's "text edits are sorted by descending
// start offset": applying them top-to-bottom (i.e. bottom of the file
// first) means an earlier edit in the list never shifts the range a later
// one in the list still needs to address. Resource operations keep their
// relative order and sort ahead of the text edits.
func (g *EditGroup) SortTextEditsDescending() {
	var resourceChanges, textChanges []Change
	for _, c := range g.Changes {
		if c.TextEdit != nil {
			textChanges = append(textChanges, c)
		} else {
			resourceChanges = append(resourceChanges, c)
		}
	}
	sort.SliceStable(textChanges, func(i, j int) bool {
		return pointAfter(textChanges[i].TextEdit.Range.Start, textChanges[j].TextEdit.Range.Start)
	})
	g.Changes = append(resourceChanges, textChanges...)
}

func pointAfter(a, b model.Point) bool {
	if a.Line != b.Line {
		return a.Line > b.Line
	}
	return a.Column > b.Column
}

// Invert returns the inverse EditGroup. If one of the changes is a
// RenameFile, the inverted group's URI becomes the rename's NewURI, since
// that's where the file will be after the forward plan applies.
func (g EditGroup) Invert() EditGroup {
	newURI := g.URI
	for _, c := range g.Changes {
		if c.Resource != nil && c.Resource.Kind == ResourceRenameFile {
			newURI = c.Resource.NewURI
		}
	}
	inverted := make([]Change, len(g.Changes))
	for i := len(g.Changes) - 1; i >= 0; i-- {
		inverted[len(g.Changes)-1-i] = g.Changes[i].Invert(g.URI)
	}
	return EditGroup{URI: newURI, Changes: inverted}
}

// EditPlan is the full output of a refactor calculation.
type EditPlan struct {
	Kind          Kind
	Edits         []EditGroup
	Preconditions []Precondition
	Diagnostics   []Diagnostic
	Reversible    bool
}

// Invert returns the plan that undoes this one. Audit plans (which carry
// no edits) are not reversible and Invert is never called on them.
func (p EditPlan) Invert() EditPlan {
	inverted := make([]EditGroup, len(p.Edits))
	for i, g := range p.Edits {
		inverted[i] = g.Invert()
	}
	return EditPlan{Kind: p.Kind, Edits: inverted, Reversible: p.Reversible}
}

// relativePath computes the relative path from the directory containing
// fromPath to toPath, using forward slashes, grounded on
// original_source/.../refactor/structural.rs's calculate_relative_path:
// walk off the common prefix of path segments, then prepend one ".." per
// remaining source segment.
func relativePath(fromPath, toPath string) string {
	fromDir := dirOf(fromPath)
	fromSegs := splitPath(fromDir)
	toSegs := splitPath(toPath)

	common := 0
	for common < len(fromSegs) && common < len(toSegs)-1 && fromSegs[common] == toSegs[common] {
		common++
	}

	var parts []string
	for i := common; i < len(fromSegs); i++ {
		parts = append(parts, "..")
	}
	parts = append(parts, toSegs[common:]...)
	if len(parts) == 0 {
		return toSegs[len(toSegs)-1]
	}
	return strings.Join(parts, "/")
}

func dirOf(p string) string {
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		return p[:i]
	}
	return ""
}

func splitPath(p string) []string {
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}
