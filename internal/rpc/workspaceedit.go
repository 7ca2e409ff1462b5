package rpc

import (
	"github.com/dendrite/dendrite/internal/model"
	"github.com/dendrite/dendrite/internal/refactor"
)

type wireTextEdit struct {
	Range   lspRange `json:"range"`
	NewText string   `json:"newText"`
}

type textDocumentEdit struct {
	TextDocument textDocumentIdentifier `json:"textDocument"`
	Edits        []wireTextEdit         `json:"edits"`
}

type createFileOp struct {
	Kind string `json:"kind"` // "create"
	URI  string `json:"uri"`
}

type renameFileOp struct {
	Kind    string `json:"kind"` // "rename"
	OldURI  string `json:"oldUri"`
	NewURI  string `json:"newUri"`
	Options struct {
		Overwrite bool `json:"overwrite"`
	} `json:"options"`
}

type deleteFileOp struct {
	Kind string `json:"kind"` // "delete"
	URI  string `json:"uri"`
}

// workspaceEdit is a minimal LSP WorkspaceEdit carrying documentChanges
// only (the ordered form), since this server always needs to interleave
// resource operations and text edits per spec.md §4.10's ordering rule.
type workspaceEdit struct {
	DocumentChanges []any `json:"documentChanges"`
}

// planToWorkspaceEdit converts a refactor.EditPlan into the wire shape a
// client applies via workspace/applyEdit. Within each group, resource
// operations are emitted before text edits in Create/Rename/Delete order,
// per spec.md §4.10: "Resource ops are ordered Create, Rename, Delete so
// that references never dangle mid-apply." Text edits within a group
// arrive already sorted by descending start offset —
// EditGroup.SortTextEditsDescending is applied by the calculator that
// built the plan — so they are emitted here in the order they appear.
func planToWorkspaceEdit(plan refactor.EditPlan) workspaceEdit {
	var creates, renames, deletes, edits []any

	for _, g := range plan.Edits {
		var fileEdits []wireTextEdit
		for _, c := range g.Changes {
			switch {
			case c.Resource != nil:
				switch c.Resource.Kind {
				case refactor.ResourceCreateFile:
					creates = append(creates, createFileOp{Kind: "create", URI: g.URI})
				case refactor.ResourceRenameFile:
					op := renameFileOp{Kind: "rename", OldURI: g.URI, NewURI: c.Resource.NewURI}
					op.Options.Overwrite = c.Resource.Overwrite
					renames = append(renames, op)
				case refactor.ResourceDeleteFile:
					deletes = append(deletes, deleteFileOp{Kind: "delete", URI: g.URI})
				}
			case c.TextEdit != nil:
				fileEdits = append(fileEdits, wireTextEdit{
					Range:   rangeFromModel(c.TextEdit.Range),
					NewText: c.TextEdit.NewText,
				})
			}
		}
		if len(fileEdits) > 0 {
			edits = append(edits, textDocumentEdit{
				TextDocument: textDocumentIdentifier{URI: g.URI},
				Edits:        fileEdits,
			})
		}
	}

	out := make([]any, 0, len(creates)+len(renames)+len(deletes)+len(edits))
	out = append(out, creates...)
	out = append(out, renames...)
	out = append(out, deletes...)
	out = append(out, edits...)
	return workspaceEdit{DocumentChanges: out}
}

func rangeFromModel(r model.TextRange) lspRange {
	return lspRange{
		Start: position{Line: r.Start.Line, Character: r.Start.Column},
		End:   position{Line: r.End.Line, Character: r.End.Column},
	}
}
