package refactor

import (
	"strings"

	"github.com/dendrite/dendrite/internal/model"
	"github.com/dendrite/dendrite/internal/semantic"
	"github.com/dendrite/dendrite/internal/store"
)

// CalculateSplitEdits plans "extract selection to a new note": the text
// covered by selection in sourceID's note is lifted into a brand-new note
// titled newNoteTitle, and replaced in place with a wikilink to it.
// Grounded on original_source/.../refactor/split.rs::calculate_split_edits.
func CalculateSplitEdits(
	st *store.Store,
	content ContentProvider,
	m semantic.Model,
	sourceID model.NoteId,
	selection model.TextRange,
	newNoteTitle model.NoteKey,
) (*EditPlan, bool) {
	source, ok := st.Note(sourceID)
	if !ok || !source.HasPath() {
		return nil, false
	}
	sourceContent, err := content.GetContent(source.Path)
	if err != nil {
		return nil, false
	}
	extracted, ok := extractText(sourceContent, selection)
	if !ok {
		return nil, false
	}

	newPath := m.PathFromKey(newNoteTitle)
	linkText := m.RenderWikilink(newNoteTitle, "", "", false)

	edits := []EditGroup{
		{
			URI: newPath,
			Changes: []Change{{Resource: &ResourceOperation{
				Kind:    ResourceCreateFile,
				Content: extracted,
			}}},
		},
		{
			URI: source.Path,
			Changes: []Change{{TextEdit: &TextEdit{
				Range:    selection,
				NewText:  linkText,
				UndoText: extracted,
			}}},
		},
	}

	return &EditPlan{
		Kind:       KindSplitNote,
		Edits:      edits,
		Reversible: true,
	}, true
}

// extractText pulls the substring of content covered by r, matching
// split.rs::extract_text's line-oriented reconstruction across multi-line
// selections.
func extractText(content string, r model.TextRange) (string, bool) {
	lines := strings.Split(content, "\n")
	if r.Start.Line >= len(lines) || r.End.Line >= len(lines) {
		return "", false
	}

	if r.Start.Line == r.End.Line {
		line := lines[r.Start.Line]
		if r.Start.Column > len(line) || r.End.Column > len(line) || r.Start.Column > r.End.Column {
			return "", false
		}
		return line[r.Start.Column:r.End.Column], true
	}

	var b strings.Builder
	first := lines[r.Start.Line]
	if r.Start.Column <= len(first) {
		b.WriteString(first[r.Start.Column:])
		b.WriteByte('\n')
	}
	for i := r.Start.Line + 1; i < r.End.Line; i++ {
		b.WriteString(lines[i])
		b.WriteByte('\n')
	}
	last := lines[r.End.Line]
	if r.End.Column <= len(last) {
		b.WriteString(last[:r.End.Column])
	}
	return b.String(), true
}
