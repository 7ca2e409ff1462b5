package rpc

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/dendrite/dendrite/internal/hierarchy"
	"github.com/dendrite/dendrite/internal/model"
	"github.com/dendrite/dendrite/internal/refactor"
)

type executeCommandParams struct {
	Command   string            `json:"command"`
	Arguments []json.RawMessage `json:"arguments"`
}

type commandFunc func(s *Server, ctx context.Context, args []json.RawMessage) (any, error)

var commandTable = map[string]commandFunc{
	"dendrite/getHierarchy":         cmdGetHierarchy,
	"dendrite/listNotes":            cmdListNotes,
	"dendrite/getNoteKey":           cmdGetNoteKey,
	"dendrite/getBacklinks":         cmdGetBacklinks,
	"dendrite/createNote":           cmdCreateNote,
	"dendrite/deleteNote":           cmdDeleteNote,
	"dendrite/splitNote":            cmdSplitNote,
	"dendrite/reorganizeHierarchy":  cmdReorganizeHierarchy,
	"dendrite/resolveHierarchyEdits": cmdResolveHierarchyEdits,
	"dendrite/workspaceAudit":       cmdWorkspaceAudit,
	"dendrite/undoMutation":         cmdUndoMutation,
}

func handleExecuteCommand(s *Server, ctx context.Context, params json.RawMessage) (any, error) {
	p, err := unmarshalParams[executeCommandParams](params)
	if err != nil {
		return nil, err
	}
	fn, ok := commandTable[p.Command]
	if !ok {
		return nil, invalidParams("unknown command: " + p.Command)
	}
	return fn(s, ctx, p.Arguments)
}

func argAt[T any](args []json.RawMessage, i int) (T, error) {
	var v T
	if i >= len(args) {
		return v, invalidParams("missing argument")
	}
	if err := json.Unmarshal(args[i], &v); err != nil {
		return v, invalidParams(err.Error())
	}
	return v, nil
}

type hierarchyNodeDTO struct {
	Key         string             `json:"key"`
	DisplayName string             `json:"displayName"`
	IsGhost     bool               `json:"isGhost"`
	Children    []hierarchyNodeDTO `json:"children,omitempty"`
}

func cmdGetHierarchy(s *Server, ctx context.Context, args []json.RawMessage) (any, error) {
	tree := s.api.Hierarchy()
	roots := make([]hierarchyNodeDTO, 0, len(tree.Root.Children))
	for _, c := range tree.Root.Children {
		roots = append(roots, toHierarchyNodeDTO(c))
	}
	return map[string]any{"roots": roots}, nil
}

func toHierarchyNodeDTO(n *hierarchy.Node) hierarchyNodeDTO {
	out := hierarchyNodeDTO{Key: string(n.Key), DisplayName: n.DisplayName, IsGhost: n.IsGhost}
	for _, c := range n.Children {
		out.Children = append(out.Children, toHierarchyNodeDTO(c))
	}
	return out
}

type noteRef struct {
	Key   string `json:"key"`
	Title string `json:"title"`
	URI   string `json:"uri"`
}

func cmdListNotes(s *Server, ctx context.Context, args []json.RawMessage) (any, error) {
	keys := s.api.AllNoteKeys()
	out := make([]noteRef, 0, len(keys))
	for _, k := range keys {
		n, ok := s.api.ResolveKey(k)
		if !ok {
			continue
		}
		out = append(out, noteRef{Key: string(n.Key), Title: n.Title, URI: n.Path})
	}
	return out, nil
}

func cmdGetNoteKey(s *Server, ctx context.Context, args []json.RawMessage) (any, error) {
	uri, err := argAt[struct {
		URI string `json:"uri"`
	}](args, 0)
	if err != nil {
		return nil, err
	}
	n, ok := s.api.NoteByPath(uri.URI)
	if !ok {
		return nil, invalidParams("no note at " + uri.URI)
	}
	return map[string]string{"key": string(n.Key)}, nil
}

type backlinkRef struct {
	Key   string `json:"key"`
	Title string `json:"title"`
	URI   string `json:"uri"`
}

func cmdGetBacklinks(s *Server, ctx context.Context, args []json.RawMessage) (any, error) {
	p, err := argAt[struct {
		NoteKey string `json:"note_key"`
	}](args, 0)
	if err != nil {
		return nil, err
	}
	notes := s.api.Backlinks(model.NoteKey(p.NoteKey))
	out := make([]backlinkRef, 0, len(notes))
	for _, n := range notes {
		out = append(out, backlinkRef{Key: string(n.Key), Title: n.Title, URI: n.Path})
	}
	return map[string]any{"backlinks": out}, nil
}

func cmdCreateNote(s *Server, ctx context.Context, args []json.RawMessage) (any, error) {
	p, err := argAt[struct {
		NoteKey string `json:"note_key"`
	}](args, 0)
	if err != nil {
		return nil, err
	}
	key := model.NoteKey(p.NoteKey)
	if _, exists := s.api.ResolveKey(key); exists {
		return nil, invalidParams("note already exists: " + p.NoteKey)
	}
	path := s.model.PathFromKey(key)
	edit := workspaceEdit{DocumentChanges: []any{createFileOp{Kind: "create", URI: path}}}
	return map[string]any{"uri": path, "edit": edit}, nil
}

func cmdDeleteNote(s *Server, ctx context.Context, args []json.RawMessage) (any, error) {
	p, err := argAt[struct {
		NoteKey string `json:"note_key"`
	}](args, 0)
	if err != nil {
		return nil, err
	}
	note, ok := s.api.ResolveKey(model.NoteKey(p.NoteKey))
	if !ok {
		return nil, invalidParams("unknown note: " + p.NoteKey)
	}
	edit := workspaceEdit{DocumentChanges: []any{deleteFileOp{Kind: "delete", URI: note.Path}}}
	return edit, nil
}

func cmdSplitNote(s *Server, ctx context.Context, args []json.RawMessage) (any, error) {
	uri, err := argAt[string](args, 0)
	if err != nil {
		return nil, err
	}
	rng, err := argAt[lspRange](args, 1)
	if err != nil {
		return nil, err
	}
	newName, err := argAt[string](args, 2)
	if err != nil {
		return nil, err
	}
	plan, err := s.planner.SplitNote(s.overlay, uri, rng.toTextRange(), model.NoteKey(newName))
	if err != nil {
		return nil, internalErr(err.Error())
	}
	edit := planToWorkspaceEdit(*plan)
	s.planner.Record(*plan, s.digestOfURI)
	return edit, nil
}

func cmdReorganizeHierarchy(s *Server, ctx context.Context, args []json.RawMessage) (any, error) {
	oldPrefix, err := argAt[string](args, 0)
	if err != nil {
		return nil, err
	}
	newPrefix, err := argAt[string](args, 1)
	if err != nil {
		return nil, err
	}
	plan, err := s.planner.RenameHierarchy(s.overlay, model.NoteKey(oldPrefix), model.NoteKey(newPrefix))
	if err != nil {
		return nil, internalErr(err.Error())
	}
	edit := planToWorkspaceEdit(*plan)
	s.planner.Record(*plan, s.digestOfURI)
	return edit, nil
}

type keyPair struct {
	OldKey string `json:"old_key"`
	NewKey string `json:"new_key"`
}

// cmdResolveHierarchyEdits is the dry-run preview: the same set of notes
// Reorganize would move, reported as (old_key, new_key) pairs in sorted
// order without emitting or recording an edit, per spec.md §4.10's
// "Reorganize... before commit, a dry-run pass is offered."
func cmdResolveHierarchyEdits(s *Server, ctx context.Context, args []json.RawMessage) (any, error) {
	oldPrefix, err := argAt[string](args, 0)
	if err != nil {
		return nil, err
	}
	newPrefix, err := argAt[string](args, 1)
	if err != nil {
		return nil, err
	}
	oldKey := model.NoteKey(oldPrefix)
	newPrefixKey := model.NoteKey(newPrefix)

	pairs := make([]keyPair, 0)
	for _, n := range s.store.AllNotes() {
		if !n.HasPath() || !s.model.IsDescendant(oldKey, n.Key) {
			continue
		}
		newKey := s.model.ReparentKey(n.Key, oldKey, newPrefixKey)
		pairs = append(pairs, keyPair{OldKey: string(n.Key), NewKey: string(newKey)})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].OldKey < pairs[j].OldKey })
	return pairs, nil
}

func cmdWorkspaceAudit(s *Server, ctx context.Context, args []json.RawMessage) (any, error) {
	plan := s.planner.Audit()
	type diagnosticDTO struct {
		Severity string `json:"severity"`
		Message  string `json:"message"`
		URI      string `json:"uri"`
	}
	out := make([]diagnosticDTO, 0, len(plan.Diagnostics))
	for _, d := range plan.Diagnostics {
		sev := "info"
		switch d.Severity {
		case refactor.SeverityWarning:
			sev = "warning"
		case refactor.SeverityError:
			sev = "error"
		}
		out = append(out, diagnosticDTO{Severity: sev, Message: d.Message, URI: d.URI})
	}
	return out, nil
}

func cmdUndoMutation(s *Server, ctx context.Context, args []json.RawMessage) (any, error) {
	plan, err := s.planner.Undo(s.digestOfURI)
	if err != nil {
		return nil, internalErr(err.Error())
	}
	return planToWorkspaceEdit(*plan), nil
}
