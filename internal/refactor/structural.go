package refactor

import (
	"fmt"

	"github.com/dendrite/dendrite/internal/identity"
	"github.com/dendrite/dendrite/internal/model"
	"github.com/dendrite/dendrite/internal/semantic"
	"github.com/dendrite/dendrite/internal/store"
)

// CalculateStructuralEdits plans a rename and/or move of one note,
// rewriting every backlink that points at it. Grounded on
// original_source/.../refactor/structural.rs::calculate_structural_edits,
// which folds rename.rs's plain-rename logic together with a relative-path
// recomputation for cross-folder Markdown links. Returns (nil, false) if
// the note doesn't exist or newPath/newKey are both unchanged.
func CalculateStructuralEdits(
	st *store.Store,
	reg *identity.Registry,
	content ContentProvider,
	m semantic.Model,
	noteID model.NoteId,
	newPath string,
	newKey model.NoteKey,
) (*EditPlan, bool) {
	note, ok := st.Note(noteID)
	if !ok || !note.HasPath() {
		return nil, false
	}
	oldPath := note.Path
	oldKey := note.Key

	isRename := oldKey != newKey
	isMove := oldPath != newPath
	if !isRename && !isMove {
		return nil, false
	}

	preconditions := []Precondition{{Kind: PreNoteExists, Key: oldKey}}
	if isMove {
		preconditions = append(preconditions, Precondition{Kind: PrePathNotExists, Path: newPath})
	}

	var edits []EditGroup
	if isMove {
		edits = append(edits, EditGroup{
			URI: oldPath,
			Changes: []Change{{Resource: &ResourceOperation{
				Kind:   ResourceRenameFile,
				NewURI: newPath,
			}}},
		})
	}

	for _, sourceID := range st.Backlinks(noteID) {
		source, ok := st.Note(sourceID)
		if !ok || !source.HasPath() {
			continue
		}
		var changes []Change
		for _, l := range source.Links {
			if l.Target != noteID {
				continue
			}
			newText, needsUpdate := formatUpdatedLink(l, m, newKey, newPath, source.Path, isRename, isMove)
			if !needsUpdate {
				continue
			}
			undoText := extractUndoText(content, source.Path, l.Range)
			changes = append(changes, Change{TextEdit: &TextEdit{
				Range:    l.Range,
				NewText:  newText,
				UndoText: undoText,
			}})
		}
		if len(changes) > 0 {
			group := EditGroup{URI: source.Path, Changes: changes}
			group.SortTextEditsDescending()
			edits = append(edits, group)
		}
	}

	kind := KindMoveNote
	if isRename {
		kind = KindRenameNote
	}
	return &EditPlan{
		Kind:          kind,
		Edits:         edits,
		Preconditions: preconditions,
		Reversible:    true,
	}, true
}

func formatUpdatedLink(
	l model.Link,
	m semantic.Model,
	newKey model.NoteKey,
	newPath string,
	sourcePath string,
	isRename, isMove bool,
) (string, bool) {
	switch l.Kind {
	case model.LinkWikiLink, model.LinkEmbeddedWikiLink:
		if !isRename {
			return "", false
		}
		return m.RenderWikilink(newKey, l.Alias, l.Anchor, l.Kind == model.LinkEmbeddedWikiLink), true
	case model.LinkMarkdownLink, model.LinkMarkdownImage:
		if !isRename && !isMove {
			return "", false
		}
		label := string(newKey)
		if l.Alias != "" {
			label = l.Alias
		}
		rel := relativePath(sourcePath, newPath)
		bang := ""
		if l.Kind == model.LinkMarkdownImage {
			bang = "!"
		}
		return fmt.Sprintf("%s[%s](%s)", bang, label, rel), true
	default:
		return "", false
	}
}

func extractUndoText(content ContentProvider, uri string, r model.TextRange) string {
	if content == nil {
		return ""
	}
	text, err := content.GetContent(uri)
	if err != nil {
		return ""
	}
	return sliceByPoints(text, r)
}

// sliceByPoints extracts the substring of text covered by r, walking
// line/column positions the same way the parser's lineMap does.
func sliceByPoints(text string, r model.TextRange) string {
	start, ok1 := offsetOf(text, r.Start)
	end, ok2 := offsetOf(text, r.End)
	if !ok1 || !ok2 || start > end || end > len(text) {
		return ""
	}
	return text[start:end]
}

func offsetOf(text string, p model.Point) (int, bool) {
	line, col := 0, 0
	for i, r := range text {
		if line == p.Line && col == p.Column {
			return i, true
		}
		if r == '\n' {
			line++
			col = 0
		} else {
			col++
		}
	}
	if line == p.Line && col == p.Column {
		return len(text), true
	}
	return 0, false
}

