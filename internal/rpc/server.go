package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/dendrite/dendrite/internal/checksum"
	"github.com/dendrite/dendrite/internal/identity"
	"github.com/dendrite/dendrite/internal/indexer"
	"github.com/dendrite/dendrite/internal/query"
	"github.com/dendrite/dendrite/internal/refactor"
	"github.com/dendrite/dendrite/internal/semantic"
	"github.com/dendrite/dendrite/internal/store"
	"github.com/dendrite/dendrite/internal/vfs"
)

// HierarchyNotifier is called whenever the server wants to broadcast a
// hierarchy-changed signal outside the LSP connection itself (the
// internal/sse debug stream mirrors the same event).
type HierarchyNotifier func()

// Server is the JSON-RPC/LSP engine-facing endpoint: one per client
// connection, dispatching requests and notifications against a shared
// Store/query.API/refactor.Planner.
type Server struct {
	fs       vfs.FileSystem
	model    semantic.Model
	identity *identity.Registry
	store    *store.Store
	idx      *indexer.Indexer
	api      *query.API
	planner  *refactor.Planner
	overlay  *Overlay
	logger   *slog.Logger
	onHierarchyChanged HierarchyNotifier

	mu       sync.Mutex
	writer   *Writer
	shutdown atomic.Bool
}

// New constructs a Server. The caller is responsible for performing the
// initial FullScan before serving requests.
func New(fs vfs.FileSystem, m semantic.Model, reg *identity.Registry, st *store.Store, idx *indexer.Indexer, planner *refactor.Planner, logger *slog.Logger, onHierarchyChanged HierarchyNotifier) *Server {
	s := &Server{
		fs:       fs,
		model:    m,
		identity: reg,
		store:    st,
		idx:      idx,
		api:      query.New(m, st),
		planner:  planner,
		logger:   logger,
		onHierarchyChanged: onHierarchyChanged,
	}
	s.overlay = NewOverlay(func(uri string) (string, error) {
		data, err := fs.Read(uri)
		if err != nil {
			return "", err
		}
		return string(data), nil
	})
	return s
}

// Overlay exposes the server's overlay map to callers outside this
// package. The indexer's digest tier does not consult it; the server
// itself hands open-buffer text to Indexer.IndexContent.
func (s *Server) Overlay() *Overlay { return s.overlay }

// Serve reads Content-Length-framed messages from r and writes responses
// to w until r is exhausted, the context is cancelled, or "shutdown" is
// received followed by "exit".
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	reader := NewReader(r)
	s.mu.Lock()
	s.writer = NewWriter(w)
	s.mu.Unlock()

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		msg, err := reader.ReadMessage()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if msg.Method == "exit" {
			return nil
		}
		s.dispatch(ctx, msg)
	}
}

func (s *Server) send(msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writer == nil {
		return
	}
	if err := s.writer.WriteMessage(msg); err != nil {
		s.logger.Error("rpc: write failed", slog.String("error", err.Error()))
	}
}

// notify sends a one-way notification to the client, e.g.
// dendrite/hierarchyChanged.
func (s *Server) notify(method string, params any) {
	s.send(notification(method, params))
}

func (s *Server) dispatch(ctx context.Context, msg Message) {
	handler, ok := dispatchTable[msg.Method]
	if !ok {
		if !msg.IsNotification() {
			s.send(errorResponse(msg.ID, ErrMethodNotFound, fmt.Sprintf("method not found: %s", msg.Method)))
		}
		return
	}

	result, err := handler(s, ctx, msg.Params)
	if msg.IsNotification() {
		if err != nil {
			s.logger.Warn("rpc: notification handler failed", slog.String("method", msg.Method), slog.String("error", err.Error()))
		}
		return
	}
	if err != nil {
		code := ErrInternal
		if ae, ok := err.(*rpcError); ok {
			code = ae.code
		}
		s.send(errorResponse(msg.ID, code, err.Error()))
		return
	}
	s.send(response(msg.ID, result))
}

type rpcError struct {
	code int
	msg  string
}

func (e *rpcError) Error() string { return e.msg }

func invalidParams(msg string) error { return &rpcError{code: ErrInvalidParams, msg: msg} }
func internalErr(msg string) error   { return &rpcError{code: ErrInternal, msg: msg} }

type handlerFunc func(s *Server, ctx context.Context, params json.RawMessage) (any, error)

var dispatchTable = map[string]handlerFunc{
	"initialize":                       handleInitialize,
	"initialized":                      handleInitialized,
	"shutdown":                         handleShutdown,
	"textDocument/didOpen":             handleDidOpen,
	"textDocument/didChange":           handleDidChange,
	"textDocument/didSave":             handleDidSave,
	"textDocument/didClose":            handleDidClose,
	"textDocument/definition":          handleDefinition,
	"textDocument/completion":          handleCompletion,
	"textDocument/references":         handleReferences,
	"textDocument/rename":             handleRename,
	"textDocument/codeAction":         handleCodeAction,
	"workspace/didChangeWatchedFiles": handleDidChangeWatchedFiles,
	"workspace/executeCommand":       handleExecuteCommand,
}

// digestOfURI computes the current on-disk (or overlay) digest for uri,
// used by Planner.Record/Undo's ContentUnchanged precondition checks.
func (s *Server) digestOfURI(uri string) string {
	content, err := s.overlay.GetContent(uri)
	if err != nil {
		return ""
	}
	return checksum.Sum([]byte(content))
}

func unmarshalParams[T any](raw json.RawMessage) (T, error) {
	var v T
	if len(raw) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, invalidParams(err.Error())
	}
	return v, nil
}
