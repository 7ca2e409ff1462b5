// Package semantic provides pluggable strategies for mapping between file
// paths and the NoteKey addresses used by wikilinks and the hierarchy.
package semantic

import (
	"fmt"

	"github.com/dendrite/dendrite/internal/model"
)

// Model resolves the vocabulary a particular note-taking convention uses:
// how a path becomes a key, how a key becomes a parent, how a link target
// is written back out. Dendrite ships one implementation, DendronModel;
// the interface exists so a workspace can plug in another convention
// (flat folders, Zettelkasten IDs, ...) without touching the engine.
type Model interface {
	// ID names this model, e.g. "Dendron".
	ID() string

	// KeyFromPath derives the NoteKey a file at path would have.
	KeyFromPath(path string) model.NoteKey

	// KeyFromLink resolves a raw wikilink/markdown-link target written
	// inside the note identified by sourceKey into an absolute NoteKey.
	KeyFromLink(sourceKey model.NoteKey, rawTarget string) model.NoteKey

	// PathFromKey computes the vault-relative file path a key would be
	// materialized at, for split/create operations.
	PathFromKey(key model.NoteKey) string

	// Parent returns the key's parent in the hierarchy, or ("", false) at
	// the root.
	Parent(key model.NoteKey) (model.NoteKey, bool)

	// IsDescendant reports whether child is key or nests under key.
	IsDescendant(key, child model.NoteKey) bool

	// ReparentKey rewrites a key that lives under oldPrefix so that it
	// lives under newPrefix instead. Used by the Reorganize refactor.
	ReparentKey(key, oldPrefix, newPrefix model.NoteKey) model.NoteKey

	// DisplayName returns the human-facing label for a note (its title if
	// known, otherwise a derivation of the key).
	DisplayName(key model.NoteKey, title string) string

	// RenderWikilink formats a rewritten link back into source text.
	RenderWikilink(target model.NoteKey, alias, anchor string, embed bool) string

	// SupportedExtensions lists the file extensions this model indexes,
	// without the leading dot.
	SupportedExtensions() []string
}

// ForName constructs the Model named by a workspace's semantic.model
// config field. "Dendron" is the only convention dendrite ships today;
// the switch exists so a second convention slots in without callers
// changing.
func ForName(name string) (Model, error) {
	switch name {
	case "Dendron":
		return NewDendronModel(), nil
	default:
		return nil, fmt.Errorf("semantic: unknown model %q", name)
	}
}
