package semantic

import (
	"strings"

	"github.com/dendrite/dendrite/internal/model"
)

// DendronModel implements the Dendron note-taking convention: a note's key
// is its dot-delimited file stem ("project.roadmap.md" -> "project.roadmap"),
// and parents are formed by dropping trailing dot segments.
type DendronModel struct{}

// NewDendronModel constructs the default semantic model.
func NewDendronModel() *DendronModel {
	return &DendronModel{}
}

func (m *DendronModel) ID() string { return "Dendron" }

func (m *DendronModel) KeyFromPath(path string) model.NoteKey {
	base := path
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}
	base = strings.TrimSuffix(base, ".md")
	return model.NoteKey(base)
}

// KeyFromLink resolves rawTarget relative to sourceKey. Dendron wikilink
// targets are conventionally absolute dotted keys; a target containing a
// "/" is treated as a path and normalized the same way KeyFromPath would.
// An empty target with no anchor is invalid and resolves to sourceKey,
// matching the self-reference fallback the engine also applies upstream.
func (m *DendronModel) KeyFromLink(sourceKey model.NoteKey, rawTarget string) model.NoteKey {
	rawTarget = strings.TrimSpace(rawTarget)
	if rawTarget == "" {
		return sourceKey
	}
	if strings.Contains(rawTarget, "/") {
		return m.KeyFromPath(rawTarget)
	}
	return model.NoteKey(strings.TrimSuffix(rawTarget, ".md"))
}

func (m *DendronModel) PathFromKey(key model.NoteKey) string {
	return string(key) + ".md"
}

func (m *DendronModel) Parent(key model.NoteKey) (model.NoteKey, bool) {
	s := string(key)
	i := strings.LastIndexByte(s, '.')
	if i < 0 {
		return "", false
	}
	return model.NoteKey(s[:i]), true
}

// IsDescendant reports whether child equals key or nests under it at a
// "." boundary ("a.b" is a descendant of "a"; "ab" is not).
func (m *DendronModel) IsDescendant(key, child model.NoteKey) bool {
	if key == child {
		return true
	}
	prefix := string(key) + "."
	return strings.HasPrefix(string(child), prefix)
}

// ReparentKey rewrites key's oldPrefix segment to newPrefix. key must
// satisfy IsDescendant(oldPrefix, key).
func (m *DendronModel) ReparentKey(key, oldPrefix, newPrefix model.NoteKey) model.NoteKey {
	if key == oldPrefix {
		return newPrefix
	}
	suffix := strings.TrimPrefix(string(key), string(oldPrefix)+".")
	return model.NoteKey(string(newPrefix) + "." + suffix)
}

func (m *DendronModel) DisplayName(key model.NoteKey, title string) string {
	if title != "" {
		return title
	}
	s := string(key)
	if i := strings.LastIndexByte(s, '.'); i >= 0 {
		return s[i+1:]
	}
	return s
}

// RenderWikilink formats a Dendron-style link: `[[alias|target#anchor]]`,
// or `![[...]]` for an embed. Empty alias/anchor segments are omitted.
func (m *DendronModel) RenderWikilink(target model.NoteKey, alias, anchor string, embed bool) string {
	var b strings.Builder
	if embed {
		b.WriteString("![[")
	} else {
		b.WriteString("[[")
	}
	if alias != "" {
		b.WriteString(alias)
		b.WriteByte('|')
	}
	b.WriteString(string(target))
	if anchor != "" {
		b.WriteByte('#')
		b.WriteString(anchor)
	}
	b.WriteString("]]")
	return b.String()
}

func (m *DendronModel) SupportedExtensions() []string {
	return []string{"md"}
}

var _ Model = (*DendronModel)(nil)
