package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dendrite/dendrite/internal/model"
	"github.com/dendrite/dendrite/internal/query"
)

type textDocumentIdentifier struct {
	URI string `json:"uri"`
}

type position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

func (p position) toPoint() model.Point { return model.Point{Line: p.Line, Column: p.Character} }

type lspRange struct {
	Start position `json:"start"`
	End   position `json:"end"`
}

func (r lspRange) toTextRange() model.TextRange {
	return model.TextRange{Start: r.Start.toPoint(), End: r.End.toPoint()}
}

type didOpenParams struct {
	TextDocument struct {
		textDocumentIdentifier
		Text string `json:"text"`
	} `json:"textDocument"`
}

func handleDidOpen(s *Server, ctx context.Context, params json.RawMessage) (any, error) {
	p, err := unmarshalParams[didOpenParams](params)
	if err != nil {
		return nil, err
	}
	s.overlay.Open(p.TextDocument.URI, p.TextDocument.Text)
	s.reindexAndNotify(p.TextDocument.URI)
	return nil, nil
}

type didChangeParams struct {
	TextDocument  textDocumentIdentifier `json:"textDocument"`
	ContentChanges []struct {
		Text string `json:"text"`
	} `json:"contentChanges"`
}

func handleDidChange(s *Server, ctx context.Context, params json.RawMessage) (any, error) {
	p, err := unmarshalParams[didChangeParams](params)
	if err != nil {
		return nil, err
	}
	if len(p.ContentChanges) == 0 {
		return nil, nil
	}
	// Full-document sync: the last change entry carries the whole text.
	s.overlay.Update(p.TextDocument.URI, p.ContentChanges[len(p.ContentChanges)-1].Text)
	s.reindexAndNotify(p.TextDocument.URI)
	return nil, nil
}

type didSaveParams struct {
	TextDocument textDocumentIdentifier `json:"textDocument"`
}

func handleDidSave(s *Server, ctx context.Context, params json.RawMessage) (any, error) {
	p, err := unmarshalParams[didSaveParams](params)
	if err != nil {
		return nil, err
	}
	s.reindexAndNotify(p.TextDocument.URI)
	return nil, nil
}

type didCloseParams struct {
	TextDocument textDocumentIdentifier `json:"textDocument"`
}

func handleDidClose(s *Server, ctx context.Context, params json.RawMessage) (any, error) {
	p, err := unmarshalParams[didCloseParams](params)
	if err != nil {
		return nil, err
	}
	s.overlay.Close(p.TextDocument.URI)
	s.reindexAndNotify(p.TextDocument.URI)
	return nil, nil
}

// reindexAndNotify re-parses uri against the overlay (if open) or disk,
// then fires the hierarchy-changed signal. Errors are logged, not
// surfaced: a transient parse failure on a half-typed buffer must not
// crash the connection.
func (s *Server) reindexAndNotify(uri string) {
	var err error
	if s.overlay.IsOpen(uri) {
		text, getErr := s.overlay.GetContent(uri)
		if getErr != nil {
			s.logger.Warn("rpc: reindex failed", "uri", uri, "error", getErr.Error())
			return
		}
		err = s.idx.IndexContent(uri, []byte(text))
	} else {
		_, err = s.idx.IndexFile(uri)
	}
	if err != nil {
		s.logger.Warn("rpc: reindex failed", "uri", uri, "error", err.Error())
		return
	}
	s.notify("dendrite/hierarchyChanged", map[string]string{})
	if s.onHierarchyChanged != nil {
		s.onHierarchyChanged()
	}
}

type textDocumentPositionParams struct {
	TextDocument textDocumentIdentifier `json:"textDocument"`
	Position     position               `json:"position"`
}

type location struct {
	URI   string   `json:"uri"`
	Range lspRange `json:"range"`
}

func pointRange(p model.Point) lspRange {
	pos := position{Line: p.Line, Character: p.Column}
	return lspRange{Start: pos, End: pos}
}

// handleDefinition implements textDocument/definition: click-through on
// the wikilink under the cursor to its target note (and anchor, if any).
func handleDefinition(s *Server, ctx context.Context, params json.RawMessage) (any, error) {
	p, err := unmarshalParams[textDocumentPositionParams](params)
	if err != nil {
		return nil, err
	}
	note, ok := s.api.NoteByPath(p.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	link, ok := query.FindLinkAt(note, p.Position.toPoint())
	if !ok {
		return nil, nil
	}
	target, ok := s.store.Note(link.Target)
	if !ok || !target.HasPath() {
		return nil, nil
	}
	if link.Anchor == "" {
		return []location{{URI: target.Path, Range: pointRange(model.Point{})}}, nil
	}
	at, ok := query.ResolveAnchor(target, link.Anchor)
	if !ok {
		return []location{{URI: target.Path, Range: pointRange(model.Point{})}}, nil
	}
	return []location{{URI: target.Path, Range: pointRange(at)}}, nil
}

type completionItem struct {
	Label      string `json:"label"`
	Kind       int    `json:"kind"`
	InsertText string `json:"insertText"`
	Detail     string `json:"detail,omitempty"`
	FilterText string `json:"filterText,omitempty"`
}

const (
	completionKindFile  = 17 // Reference
	completionKindClass = 7
	completionKindField = 5
)

// handleCompletion implements textDocument/completion. Spec §4.9: anything
// typed between the nearest unclosed "[[" and the cursor drives the mode.
// A bare target (no "#") completes note keys; "target#" completes that
// target's headings and block anchors together, letting the client's own
// filterText/label matching narrow to one or the other as the user keeps
// typing (a "^" after "#" only ever matches block anchors, since heading
// labels carry no leading "^").
func handleCompletion(s *Server, ctx context.Context, params json.RawMessage) (any, error) {
	p, err := unmarshalParams[textDocumentPositionParams](params)
	if err != nil {
		return nil, err
	}
	linkPrefix, ok := linkPrefixAt(s, p.TextDocument.URI, p.Position.toPoint())
	if !ok {
		return []completionItem{}, nil
	}

	notePart, _, hasAnchor := strings.Cut(linkPrefix, "#")
	if !hasAnchor {
		return noteKeyCompletions(s), nil
	}

	var target *model.Note
	if notePart == "" {
		target, ok = s.api.NoteByPath(p.TextDocument.URI)
	} else {
		target, ok = s.api.ResolveKey(model.NoteKey(notePart))
	}
	if !ok {
		return []completionItem{}, nil
	}
	return anchorCompletions(target), nil
}

func noteKeyCompletions(s *Server) []completionItem {
	keys := s.api.AllNoteKeys()
	items := make([]completionItem, 0, len(keys))
	for _, k := range keys {
		items = append(items, completionItem{
			Label:      string(k),
			Kind:       completionKindFile,
			InsertText: string(k),
			Detail:     s.api.DisplayName(k),
		})
	}
	return items
}

func anchorCompletions(note *model.Note) []completionItem {
	items := make([]completionItem, 0, len(note.Headings)+len(note.Blocks))
	for _, h := range note.Headings {
		items = append(items, completionItem{
			Label:      h.Text,
			Kind:       completionKindClass,
			InsertText: h.Slug,
			FilterText: "#" + h.Text,
			Detail:     fmt.Sprintf("Heading H%d", h.Level),
		})
	}
	for _, b := range note.Blocks {
		items = append(items, completionItem{
			Label:      "^" + b.ID,
			Kind:       completionKindField,
			InsertText: "^" + b.ID,
			Detail:     "Block anchor",
		})
	}
	return items
}

// linkPrefixAt returns the text between the start of the nearest unclosed
// "[[" on the cursor's line and the cursor itself, reporting false if the
// cursor isn't inside an open wikilink.
func linkPrefixAt(s *Server, uri string, pos model.Point) (string, bool) {
	text, err := s.overlay.GetContent(uri)
	if err != nil {
		return "", false
	}
	lineStart := 0
	line := 0
	for i, r := range text {
		if line == pos.Line {
			lineStart = i
			break
		}
		if r == '\n' {
			line++
		}
	}
	lineEnd := len(text)
	for i := lineStart; i < len(text); i++ {
		if text[i] == '\n' {
			lineEnd = i
			break
		}
	}
	col := pos.Column
	if lineStart+col > lineEnd {
		col = lineEnd - lineStart
	}
	upToCursor := text[lineStart : lineStart+col]

	open := strings.LastIndex(upToCursor, "[[")
	if open == -1 {
		return "", false
	}
	prefix := upToCursor[open+2:]
	if strings.Contains(prefix, "]]") {
		return "", false
	}
	return prefix, true
}

// handleReferences implements textDocument/references: every backlink to
// the note whose definition the cursor sits on.
func handleReferences(s *Server, ctx context.Context, params json.RawMessage) (any, error) {
	p, err := unmarshalParams[textDocumentPositionParams](params)
	if err != nil {
		return nil, err
	}
	note, ok := s.api.NoteByPath(p.TextDocument.URI)
	if !ok {
		return []location{}, nil
	}
	backlinks := s.api.Backlinks(note.Key)
	out := make([]location, 0, len(backlinks))
	for _, n := range backlinks {
		out = append(out, location{URI: n.Path, Range: pointRange(model.Point{})})
	}
	return out, nil
}

type renameParams struct {
	TextDocument textDocumentIdentifier `json:"textDocument"`
	Position     position               `json:"position"`
	NewName      string                 `json:"newName"`
}

// handleRename implements textDocument/rename: the note of the document
// named in the request (the cursor position is not consulted) is renamed
// to newName via the structural rename calculator,
// returned as a WorkspaceEdit for the client to apply.
func handleRename(s *Server, ctx context.Context, params json.RawMessage) (any, error) {
	p, err := unmarshalParams[renameParams](params)
	if err != nil {
		return nil, err
	}
	note, ok := s.api.NoteByPath(p.TextDocument.URI)
	if !ok {
		return nil, invalidParams("no note open at " + p.TextDocument.URI)
	}
	plan, err := s.planner.RenameNote(s.overlay, note.Key, model.NoteKey(p.NewName))
	if err != nil {
		return nil, internalErr(err.Error())
	}
	edit := planToWorkspaceEdit(*plan)
	s.planner.Record(*plan, s.digestOfURI)
	return edit, nil
}

// handleCodeAction implements textDocument/codeAction: offers a "split
// selection into new note" quick-fix whenever the request carries a
// non-empty range.
func handleCodeAction(s *Server, ctx context.Context, params json.RawMessage) (any, error) {
	type codeActionParams struct {
		TextDocument textDocumentIdentifier `json:"textDocument"`
		Range        lspRange               `json:"range"`
	}
	p, err := unmarshalParams[codeActionParams](params)
	if err != nil {
		return nil, err
	}
	if p.Range.Start == p.Range.End {
		return []any{}, nil
	}
	return []map[string]any{{
		"title": "Extract selection to new note",
		"command": map[string]any{
			"title":     "Extract selection to new note",
			"command":   "dendrite/splitNote",
			"arguments": []any{p.TextDocument.URI, p.Range, ""},
		},
	}}, nil
}

type didChangeWatchedFilesParams struct {
	Changes []struct {
		URI  string `json:"uri"`
		Type int    `json:"type"`
	} `json:"changes"`
}

// handleDidChangeWatchedFiles folds external file-system changes (edits
// made outside the editor) back into the index.
func handleDidChangeWatchedFiles(s *Server, ctx context.Context, params json.RawMessage) (any, error) {
	p, err := unmarshalParams[didChangeWatchedFilesParams](params)
	if err != nil {
		return nil, err
	}
	for _, c := range p.Changes {
		if !strings.HasSuffix(c.URI, ".md") {
			continue
		}
		s.reindexAndNotify(c.URI)
	}
	return nil, nil
}
