// Package assembler turns a raw parser.Result plus a source path into a
// semantically resolved model.Note, assigning a stable NoteId to every
// link target along the way.
package assembler

import (
	"github.com/dendrite/dendrite/internal/identity"
	"github.com/dendrite/dendrite/internal/model"
	"github.com/dendrite/dendrite/internal/parser"
	"github.com/dendrite/dendrite/internal/semantic"
)

// Assembler is grounded on
// original_source/crates/dendrite-core/src/workspace/assembler.rs's
// NoteAssembler: it owns no state of its own, delegating key resolution to
// a semantic.Model and id allocation to an identity.Registry.
type Assembler struct {
	model    semantic.Model
	identity *identity.Registry
}

// New constructs an Assembler over the given model and identity registry.
func New(model semantic.Model, identity *identity.Registry) *Assembler {
	return &Assembler{model: model, identity: identity}
}

// Assemble builds a model.Note for the file at path, given the id already
// allocated for it (by the indexer, via the identity registry) and the
// raw parse result.
func (a *Assembler) Assemble(path string, id model.NoteId, res *parser.Result) *model.Note {
	sourceKey := a.model.KeyFromPath(path)

	links := make([]model.Link, 0, len(res.Links))
	for _, ref := range res.Links {
		linkKey := a.resolveLinkKey(sourceKey, ref)
		links = append(links, model.Link{
			Target:    a.identity.GetOrCreate(linkKey),
			RawTarget: ref.RawTarget,
			Alias:     ref.Alias,
			Anchor:    ref.Anchor,
			Range:     ref.Range,
			Kind:      ref.Kind,
		})
	}

	return &model.Note{
		ID:            id,
		Key:           sourceKey,
		Path:          path,
		Title:         res.Title,
		Frontmatter:   res.Frontmatter,
		ContentOffset: res.ContentOffset,
		Links:         links,
		Headings:      res.Headings,
		Blocks:        res.Blocks,
		Digest:        res.Digest,
	}
}

// resolveLinkKey handles the self-reference case ([[#anchor]], where the
// raw target is empty) by pointing back at the source note, matching the
// original implementation's explicit carve-out; everything else is
// resolved through the semantic model relative to the source key.
func (a *Assembler) resolveLinkKey(sourceKey model.NoteKey, ref model.LinkRef) model.NoteKey {
	if ref.Target == "" {
		return sourceKey
	}
	return a.model.KeyFromLink(sourceKey, ref.Target)
}
