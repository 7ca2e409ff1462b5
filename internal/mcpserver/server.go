// Package mcpserver exposes the engine's read-only query surface and
// refactor audit as MCP (Model Context Protocol) tools over stdio, for
// non-LSP AI-assistant clients. Adapted from the teacher's
// internal/mcpserver: same mark3labs/mcp-go server construction and
// per-tool handler-method shape, repointed from note CRUD at
// get_hierarchy/get_backlinks/workspace_audit/resolve_link.
package mcpserver

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/dendrite/dendrite/internal/hierarchy"
	"github.com/dendrite/dendrite/internal/model"
	"github.com/dendrite/dendrite/internal/query"
	"github.com/dendrite/dendrite/internal/refactor"
	"github.com/dendrite/dendrite/internal/semantic"
	"github.com/dendrite/dendrite/internal/store"
)

// Server wraps the MCP server with the engine's query/refactor tools.
type Server struct {
	mcp   *server.MCPServer
	api   *query.API
	store *store.Store
	model semantic.Model
}

// New creates an MCP server with every tool registered.
func New(api *query.API, st *store.Store, m semantic.Model) *Server {
	s := &Server{api: api, store: st, model: m}

	s.mcp = server.NewMCPServer(
		"Dendrite",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("get_hierarchy",
		mcp.WithDescription("Return the note hierarchy as a tree of keys, including ghost ancestors that have no backing file."),
	), s.getHierarchy)

	s.mcp.AddTool(mcp.NewTool("get_backlinks",
		mcp.WithDescription("Find every note that links to the given note key."),
		mcp.WithString("key", mcp.Required(), mcp.Description("Note key to find backlinks for, e.g. project.alpha")),
	), s.getBacklinks)

	s.mcp.AddTool(mcp.NewTool("workspace_audit",
		mcp.WithDescription("Scan every note's outgoing links for broken targets, invalid anchors, and model-strict syntax violations."),
	), s.workspaceAudit)

	s.mcp.AddTool(mcp.NewTool("resolve_link",
		mcp.WithDescription("Resolve a note key and optional anchor to the note's path and, if an anchor was given, the position within it."),
		mcp.WithString("key", mcp.Required(), mcp.Description("Note key to resolve")),
		mcp.WithString("anchor", mcp.Description("Optional heading slug or ^block-id anchor")),
	), s.resolveLink)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

type hierarchyNode struct {
	Key         string          `json:"key"`
	DisplayName string          `json:"displayName"`
	IsGhost     bool            `json:"isGhost"`
	Children    []hierarchyNode `json:"children,omitempty"`
}

func (s *Server) getHierarchy(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tree := s.api.Hierarchy()
	out, err := json.MarshalIndent(toHierarchyNode(tree.Root), "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func toHierarchyNode(n *hierarchy.Node) hierarchyNode {
	out := hierarchyNode{Key: string(n.Key), DisplayName: n.DisplayName, IsGhost: n.IsGhost}
	for _, c := range n.Children {
		out.Children = append(out.Children, toHierarchyNode(c))
	}
	return out
}

func (s *Server) getBacklinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := req.RequireString("key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	notes := s.api.Backlinks(model.NoteKey(key))
	paths := make([]string, 0, len(notes))
	for _, n := range notes {
		paths = append(paths, n.Path)
	}
	out, _ := json.MarshalIndent(paths, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) workspaceAudit(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	plan := refactor.CalculateAuditDiagnostics(s.store, s.model)
	out, err := json.MarshalIndent(plan.Diagnostics, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) resolveLink(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := req.RequireString("key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	target, ok := s.api.ResolveKey(model.NoteKey(key))
	if !ok {
		return mcp.NewToolResultText(`{"found":false}`), nil
	}

	anchor := ""
	if a, err := req.RequireString("anchor"); err == nil {
		anchor = a
	}

	result := map[string]any{"found": true, "path": target.Path}
	if anchor != "" {
		if p, ok := query.ResolveAnchor(target, anchor); ok {
			result["line"] = p.Line
			result["column"] = p.Column
		} else {
			result["found"] = false
		}
	}
	out, _ := json.MarshalIndent(result, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}
