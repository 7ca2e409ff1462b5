package httpapi

import (
	"github.com/dendrite/dendrite/internal/hierarchy"
	"github.com/dendrite/dendrite/internal/model"
	"github.com/dendrite/dendrite/internal/refactor"
)

// NoteDTO is the wire shape for a note summary.
type NoteDTO struct {
	Key   string `json:"key"`
	Path  string `json:"path"`
	Title string `json:"title"`
}

func noteToDTO(n *model.Note) NoteDTO {
	return NoteDTO{Key: string(n.Key), Path: n.Path, Title: n.Title}
}

// HierarchyNodeDTO mirrors hierarchy.Node for JSON responses.
type HierarchyNodeDTO struct {
	Key         string              `json:"key"`
	DisplayName string              `json:"displayName"`
	IsGhost     bool                `json:"isGhost"`
	Children    []HierarchyNodeDTO  `json:"children,omitempty"`
}

func treeToDTO(t *hierarchy.Tree) HierarchyNodeDTO {
	return nodeToDTO(t.Root)
}

func nodeToDTO(n *hierarchy.Node) HierarchyNodeDTO {
	dto := HierarchyNodeDTO{
		Key:         string(n.Key),
		DisplayName: n.DisplayName,
		IsGhost:     n.IsGhost,
	}
	for _, c := range n.Children {
		dto.Children = append(dto.Children, nodeToDTO(c))
	}
	return dto
}

// DiagnosticDTO is the wire shape for an audit.Diagnostic.
type DiagnosticDTO struct {
	Severity string `json:"severity"`
	Message  string `json:"message"`
	URI      string `json:"uri"`
}

func diagnosticToDTO(d refactor.Diagnostic) DiagnosticDTO {
	sev := "info"
	switch d.Severity {
	case refactor.SeverityWarning:
		sev = "warning"
	case refactor.SeverityError:
		sev = "error"
	}
	return DiagnosticDTO{Severity: sev, Message: d.Message, URI: d.URI}
}

// ResolveResultDTO is the wire shape for a resolved anchor/link lookup.
type ResolveResultDTO struct {
	Found  bool   `json:"found"`
	URI    string `json:"uri,omitempty"`
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
}
