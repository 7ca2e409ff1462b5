// Package model defines the core domain types shared by every layer of the
// engine: identity, note content, links, and source ranges.
package model

import "github.com/google/uuid"

// NoteId is a stable 128-bit identifier for a note. It survives renames and
// moves; only the path/key binding changes, never the id.
type NoteId uuid.UUID

// NewNoteId allocates a fresh random NoteId.
func NewNoteId() NoteId {
	return NoteId(uuid.New())
}

// String returns the canonical UUID text form.
func (id NoteId) String() string {
	return uuid.UUID(id).String()
}

// IsZero reports whether id is the unset value.
func (id NoteId) IsZero() bool {
	return id == NoteId{}
}

// NoteKey is the semantic-model address of a note (e.g. a Dendron dotted
// path such as "project.roadmap"). Keys are derived from paths by a
// semantic.Model and are what wikilinks and hierarchy nodes are keyed on.
type NoteKey string

// Point is a zero-based line/column position, matching LSP's Position.
type Point struct {
	Line   int
	Column int
}

// TextRange is a half-open [Start, End) span of Points.
type TextRange struct {
	Start Point
	End   Point
}

// Contains reports whether p falls within r. Both ends are inclusive here:
// a point equal to r.End counts as inside.
func (r TextRange) Contains(p Point) bool {
	if p.Line < r.Start.Line || p.Line > r.End.Line {
		return false
	}
	if p.Line == r.Start.Line && p.Column < r.Start.Column {
		return false
	}
	if p.Line == r.End.Line && p.Column > r.End.Column {
		return false
	}
	return true
}

// LinkKind classifies how a link was written in source text.
type LinkKind int

const (
	LinkWikiLink LinkKind = iota
	LinkEmbeddedWikiLink
	LinkMarkdownLink
	LinkMarkdownImage
	LinkAutoLink
)

func (k LinkKind) String() string {
	switch k {
	case LinkWikiLink:
		return "wikilink"
	case LinkEmbeddedWikiLink:
		return "embedded-wikilink"
	case LinkMarkdownLink:
		return "markdown-link"
	case LinkMarkdownImage:
		return "markdown-image"
	case LinkAutoLink:
		return "autolink"
	default:
		return "unknown"
	}
}

// LinkRef is a single outgoing reference discovered by the parser, before
// its target has been resolved to a NoteId by the assembler.
type LinkRef struct {
	Target    string // raw target text, possibly empty for self-reference links
	RawTarget string // the untouched text between delimiters, for rewriting
	Alias     string
	Anchor    string // heading slug or "^block-id", without the leading marker
	Range     TextRange
	Kind      LinkKind
}

// Link is a LinkRef whose target has been resolved to a NoteId.
type Link struct {
	Target    NoteId
	RawTarget string
	Alias     string
	Anchor    string
	Range     TextRange
	Kind      LinkKind
}

// Heading is a single Markdown ATX heading.
type Heading struct {
	Level int
	Text  string
	Slug  string
	Range TextRange
}

// Block is a paragraph or list item carrying a `^block-id` anchor.
type Block struct {
	ID    string
	Range TextRange
}

// Note is the fully assembled, semantically resolved representation of one
// Markdown file. It is the unit the Store indexes and the unit refactor
// operations read and rewrite.
type Note struct {
	ID             NoteId
	Key            NoteKey
	Path           string // vault-relative path, empty for not-yet-materialized ghost targets
	Title          string
	Frontmatter    map[string]any
	ContentOffset  int // byte offset where the body starts, after frontmatter
	Links          []Link
	Headings       []Heading
	Blocks         []Block
	Digest         string // SHA-256 hex of the raw file bytes
}

// HasPath reports whether this note is backed by a real file.
func (n *Note) HasPath() bool {
	return n.Path != ""
}
