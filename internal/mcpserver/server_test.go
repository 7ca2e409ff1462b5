package mcpserver

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dendrite/dendrite/internal/identity"
	"github.com/dendrite/dendrite/internal/model"
	"github.com/dendrite/dendrite/internal/query"
	"github.com/dendrite/dendrite/internal/semantic"
	"github.com/dendrite/dendrite/internal/store"
)

func testServer(t *testing.T) *Server {
	t.Helper()

	st := store.New()
	reg := identity.NewRegistry()
	m := semantic.NewDendronModel()

	idParent := reg.GetOrCreate("parent")
	idChild := reg.GetOrCreate("parent.child")
	st.Upsert(&model.Note{ID: idParent, Key: "parent", Path: "parent.md", Title: "Parent"})
	st.Upsert(&model.Note{ID: idChild, Key: "parent.child", Path: "parent.child.md", Title: "Child",
		Links: []model.Link{{Target: idParent, Kind: model.LinkWikiLink}}})

	return New(query.New(m, st), st, m)
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	var result *mcp.CallToolResult
	var err error

	switch name {
	case "get_hierarchy":
		result, err = srv.getHierarchy(ctx, req)
	case "get_backlinks":
		result, err = srv.getBacklinks(ctx, req)
	case "workspace_audit":
		result, err = srv.workspaceAudit(ctx, req)
	case "resolve_link":
		result, err = srv.resolveLink(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestGetHierarchyReturnsTree(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "get_hierarchy", map[string]interface{}{})
	if resultText(r) == "" {
		t.Fatal("expected non-empty hierarchy output")
	}
}

func TestGetBacklinksFindsReferencingNote(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "get_backlinks", map[string]interface{}{"key": "parent"})
	text := resultText(r)
	if text == "" || r.IsError {
		t.Fatalf("backlinks result = %q, isError=%v", text, r.IsError)
	}
}

func TestWorkspaceAuditRunsCleanly(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "workspace_audit", map[string]interface{}{})
	if r.IsError {
		t.Fatalf("audit errored: %s", resultText(r))
	}
}

func TestResolveLinkFindsNote(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "resolve_link", map[string]interface{}{"key": "parent.child"})
	text := resultText(r)
	if text == "" || r.IsError {
		t.Fatalf("resolve result = %q, isError=%v", text, r.IsError)
	}
}

func TestResolveLinkMissingKey(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "resolve_link", map[string]interface{}{"key": "does.not.exist"})
	text := resultText(r)
	if text != `{"found":false}` {
		t.Fatalf("resolve result = %q", text)
	}
}
