package refactor

import (
	"fmt"
	"sync"

	"github.com/dendrite/dendrite/internal/apperr"
	"github.com/dendrite/dendrite/internal/identity"
	"github.com/dendrite/dendrite/internal/model"
	"github.com/dendrite/dendrite/internal/semantic"
	"github.com/dendrite/dendrite/internal/store"
)

// Planner is the single entry point LSP command handlers and the MCP
// server call into. It unifies rename/move/split/reorganize/audit behind
// one façade and keeps a bounded undo stack of inverse plans, grounded on
// original_source/.../workspace/refactor_api.rs's Workspace methods.
type Planner struct {
	store    *store.Store
	identity *identity.Registry
	model    semantic.Model

	mu          sync.Mutex
	undoStack   []appliedPlan
	historyCap  int
}

type appliedPlan struct {
	plan    EditPlan
	digests map[string]string // uri -> digest captured at apply time, for ContentUnchanged re-check
}

// NewPlanner constructs a Planner. historyCap bounds the undo stack depth
// (spec.md's mutationHistoryLimit).
func NewPlanner(st *store.Store, reg *identity.Registry, m semantic.Model, historyCap int) *Planner {
	if historyCap <= 0 {
		historyCap = 20
	}
	return &Planner{store: st, identity: reg, model: m, historyCap: historyCap}
}

// RenameNote renames a single note without touching its descendants.
func (p *Planner) RenameNote(content ContentProvider, oldKey, newKey model.NoteKey) (*EditPlan, error) {
	id, ok := p.identity.Lookup(oldKey)
	if !ok {
		return nil, apperr.ModelErr(fmt.Sprintf("unknown key %q", oldKey), nil)
	}
	newPath := p.model.PathFromKey(newKey)
	plan, ok := CalculateStructuralEdits(p.store, p.identity, content, p.model, id, newPath, newKey)
	if !ok {
		return nil, apperr.ModelErr("rename produces no change", nil)
	}
	return plan, nil
}

// RenameHierarchy renames oldPrefix and every descendant key beneath it.
func (p *Planner) RenameHierarchy(content ContentProvider, oldPrefix, newPrefix model.NoteKey) (*EditPlan, error) {
	plan, ok := CalculateReorganizeEdits(p.store, p.identity, content, p.model, oldPrefix, newPrefix)
	if !ok {
		return nil, apperr.ModelErr("reorganize produces no change", nil)
	}
	return plan, nil
}

// MoveNote moves a note to a new path, deriving its new key from the
// target path via the semantic model.
func (p *Planner) MoveNote(content ContentProvider, oldPath, newPath string) (*EditPlan, error) {
	note, ok := p.store.NoteByPath(oldPath)
	if !ok {
		return nil, apperr.ModelErr(fmt.Sprintf("no note at path %q", oldPath), nil)
	}
	newKey := p.model.KeyFromPath(newPath)
	plan, ok := CalculateStructuralEdits(p.store, p.identity, content, p.model, note.ID, newPath, newKey)
	if !ok {
		return nil, apperr.ModelErr("move produces no change", nil)
	}
	return plan, nil
}

// SplitNote extracts selection out of sourcePath's note into a new note.
func (p *Planner) SplitNote(content ContentProvider, sourcePath string, selection model.TextRange, newNoteTitle model.NoteKey) (*EditPlan, error) {
	note, ok := p.store.NoteByPath(sourcePath)
	if !ok {
		return nil, apperr.ModelErr(fmt.Sprintf("no note at path %q", sourcePath), nil)
	}
	plan, ok := CalculateSplitEdits(p.store, content, p.model, note.ID, selection, newNoteTitle)
	if !ok {
		return nil, apperr.ModelErr("split failed: bad selection or missing content", nil)
	}
	return plan, nil
}

// Audit scans the whole workspace for broken links, invalid anchors, and
// model-strict syntax violations.
func (p *Planner) Audit() *EditPlan {
	return CalculateAuditDiagnostics(p.store, p.model)
}

// Record pushes plan onto the undo stack after the caller has applied it,
// capturing each affected file's post-apply digest so a later Undo can
// detect an intervening edit and refuse rather than clobber it.
func (p *Planner) Record(plan EditPlan, digestOf func(uri string) string) {
	if !plan.Reversible {
		return
	}
	digests := make(map[string]string, len(plan.Edits))
	for _, g := range plan.Edits {
		digests[g.URI] = digestOf(g.URI)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.undoStack = append(p.undoStack, appliedPlan{plan: plan, digests: digests})
	if len(p.undoStack) > p.historyCap {
		p.undoStack = p.undoStack[len(p.undoStack)-p.historyCap:]
	}
}

// Undo pops the most recent applied plan and returns its inverse, or an
// error if any affected file's digest has drifted since Record (someone
// edited the file out from under the undo).
func (p *Planner) Undo(currentDigest func(uri string) string) (*EditPlan, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.undoStack) == 0 {
		return nil, apperr.ModelErr("nothing to undo", nil)
	}
	top := p.undoStack[len(p.undoStack)-1]
	for uri, digest := range top.digests {
		if currentDigest(uri) != digest {
			return nil, apperr.Conflict(fmt.Sprintf("%s changed since the last refactor; cannot undo safely", uri), nil)
		}
	}
	p.undoStack = p.undoStack[:len(p.undoStack)-1]
	inv := top.plan.Invert()
	return &inv, nil
}

// UndoDepth reports how many plans are currently recorded, for tests and
// diagnostics.
func (p *Planner) UndoDepth() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.undoStack)
}
