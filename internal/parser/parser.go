// Package parser extracts frontmatter, links, headings, and block anchors
// from raw Markdown bytes. It is pure: same input, same output, no I/O.
package parser

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dendrite/dendrite/internal/checksum"
	"github.com/dendrite/dendrite/internal/model"
)

var (
	wikilinkRe   = regexp.MustCompile(`(!)?\[\[([^\[\]]+)\]\]`)
	mdLinkRe     = regexp.MustCompile(`(!)?\[([^\[\]]*)\]\(([^()\s]+)\)`)
	headingRe    = regexp.MustCompile(`^(#{1,6})\s+(.*)$`)
	blockAnchorRe = regexp.MustCompile(`\^([A-Za-z0-9_-]+)\s*$`)
	slugInvalidRe = regexp.MustCompile(`[^a-z0-9-]+`)
)

// Diagnostic is a non-fatal problem found while parsing a single file.
type Diagnostic struct {
	Message string
	Range   model.TextRange
}

// Result holds everything the Assembler needs to build a model.Note.
type Result struct {
	Frontmatter   map[string]any
	Title         string
	ContentOffset int
	Links         []model.LinkRef
	Headings      []model.Heading
	Blocks        []model.Block
	Digest        string
	Diagnostics   []Diagnostic
}

// Parse extracts frontmatter, links, headings, and blocks from raw bytes.
// It never returns an error for malformed content; malformed frontmatter
// or duplicate block anchors are reported as Diagnostics instead, so a
// single broken file never prevents the rest of the vault from indexing.
func Parse(data []byte) (*Result, error) {
	fm, contentOffset, diags := splitFrontmatter(data)
	body := data[contentOffset:]
	lm := newLineMap(data)

	links := extractWikilinks(body, lm, contentOffset)
	links = append(links, extractMarkdownLinks(body, lm, contentOffset)...)

	headings := extractHeadings(body, lm, contentOffset)
	blocks, blockDiags := extractBlocks(body, lm, contentOffset)
	diags = append(diags, blockDiags...)

	title := deriveTitle(fm, headings)

	return &Result{
		Frontmatter:   fm,
		Title:         title,
		ContentOffset: contentOffset,
		Links:         links,
		Headings:      headings,
		Blocks:        blocks,
		Digest:        checksum.Sum(data),
		Diagnostics:   diags,
	}, nil
}

// splitFrontmatter separates a leading "---" YAML block from the body and
// returns the byte offset where the body begins. Invalid YAML produces a
// diagnostic and falls back to treating the whole file as body, per the
// engine's "never fail a whole file on a frontmatter typo" contract.
func splitFrontmatter(data []byte) (map[string]any, int, []Diagnostic) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")
	leadingWS := len(data) - len(trimmed)

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, 0, nil
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, 0, nil
	}

	yamlBlock := rest[:idx]
	closeLineEnd := idx + 1 + len(delim)
	afterDelim := rest[closeLineEnd:]
	skip := 0
	for skip < len(afterDelim) && (afterDelim[skip] == '\n' || afterDelim[skip] == '\r') {
		skip++
	}
	offset := leadingWS + len(delim) + closeLineEnd + skip

	var fm map[string]any
	if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
		return nil, 0, []Diagnostic{{
			Message: fmt.Sprintf("invalid frontmatter: %v", err),
			Range:   model.TextRange{},
		}}
	}
	return fm, offset, nil
}

// lineMap converts byte offsets within a buffer into (line, column) Points.
type lineMap struct {
	lineStarts []int
}

func newLineMap(data []byte) *lineMap {
	starts := []int{0}
	for i, b := range data {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &lineMap{lineStarts: starts}
}

func (lm *lineMap) point(offset int) model.Point {
	lo, hi := 0, len(lm.lineStarts)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if lm.lineStarts[mid] <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return model.Point{Line: lo, Column: offset - lm.lineStarts[lo]}
}

func (lm *lineMap) rangeOf(start, end int) model.TextRange {
	return model.TextRange{Start: lm.point(start), End: lm.point(end)}
}

// extractWikilinks finds [[target]] and ![[target]] spans, splitting the
// inner text into alias|target#anchor per Dendron convention: the segment
// before "|" is the alias (if a "|" is present, otherwise the whole thing
// is the target), and a trailing "#anchor" is stripped from the target.
// A span preceded by a backslash (an escaped "\[") is not a link.
func extractWikilinks(body []byte, lm *lineMap, contentOffset int) []model.LinkRef {
	var out []model.LinkRef
	for _, m := range wikilinkRe.FindAllSubmatchIndex(body, -1) {
		if m[0] > 0 && body[m[0]-1] == '\\' {
			continue
		}
		embed := m[2] >= 0 && m[3] > m[2]
		inner := string(body[m[4]:m[5]])
		kind := model.LinkWikiLink
		if embed {
			kind = model.LinkEmbeddedWikiLink
		}
		target, alias, anchor := splitWikilinkInner(inner)
		out = append(out, model.LinkRef{
			Target:    target,
			RawTarget: inner,
			Alias:     alias,
			Anchor:    anchor,
			Range:     lm.rangeOf(m[0]+contentOffset, m[1]+contentOffset),
			Kind:      kind,
		})
	}
	return out
}

// splitWikilinkInner parses "alias|target#anchor" (Dendron alias-first
// order). A self-reference like "#heading" (empty target) is preserved as
// an empty target string; the assembler resolves that to the source note.
func splitWikilinkInner(inner string) (target, alias, anchor string) {
	rest := inner
	if i := strings.IndexByte(rest, '|'); i >= 0 {
		alias = strings.TrimSpace(rest[:i])
		rest = rest[i+1:]
	}
	if i := strings.IndexByte(rest, '#'); i >= 0 {
		anchor = strings.TrimSpace(rest[i+1:])
		rest = rest[:i]
	}
	target = strings.TrimSpace(rest)
	return target, alias, anchor
}

// extractMarkdownLinks finds [label](dest) / ![label](dest) spans whose
// destination is a relative path or a bare "#fragment" (external URLs and
// absolute dests are left alone; they are never audited or rewritten).
// The destination's file extension is not checked.
func extractMarkdownLinks(body []byte, lm *lineMap, contentOffset int) []model.LinkRef {
	var out []model.LinkRef
	for _, m := range mdLinkRe.FindAllSubmatchIndex(body, -1) {
		isImage := m[2] >= 0 && m[3] > m[2]
		label := string(body[m[4]:m[5]])
		dest := string(body[m[6]:m[7]])
		if isExternalDest(dest) || strings.HasPrefix(dest, "/") {
			continue
		}
		target, anchor := dest, ""
		if i := strings.IndexByte(dest, '#'); i >= 0 {
			target = dest[:i]
			anchor = dest[i+1:]
		}
		kind := model.LinkMarkdownLink
		if isImage {
			kind = model.LinkMarkdownImage
		}
		out = append(out, model.LinkRef{
			Target:    target,
			RawTarget: dest,
			Alias:     label,
			Anchor:    anchor,
			Range:     lm.rangeOf(m[0]+contentOffset, m[1]+contentOffset),
			Kind:      kind,
		})
	}
	return out
}

func isExternalDest(dest string) bool {
	lower := strings.ToLower(dest)
	return strings.HasPrefix(lower, "http://") ||
		strings.HasPrefix(lower, "https://") ||
		strings.HasPrefix(lower, "mailto:") ||
		strings.Contains(lower, "://")
}

// extractHeadings scans line by line for ATX headings and computes each
// one's range up to (but not including) the next heading of equal or
// lesser level, or end of document.
func extractHeadings(body []byte, lm *lineMap, contentOffset int) []model.Heading {
	type raw struct {
		level int
		text  string
		start int
	}
	var rawHeadings []raw
	offset := 0
	for _, line := range bytes.SplitAfter(body, []byte("\n")) {
		trimmedLine := strings.TrimRight(string(line), "\r\n")
		if m := headingRe.FindStringSubmatch(trimmedLine); m != nil {
			rawHeadings = append(rawHeadings, raw{level: len(m[1]), text: strings.TrimSpace(m[2]), start: offset})
		}
		offset += len(line)
	}

	slugs := make(map[string]int)
	out := make([]model.Heading, 0, len(rawHeadings))
	for i, h := range rawHeadings {
		end := len(body)
		for j := i + 1; j < len(rawHeadings); j++ {
			if rawHeadings[j].level <= h.level {
				end = rawHeadings[j].start
				break
			}
		}
		slug := slugify(h.text)
		if n, seen := slugs[slug]; seen {
			slugs[slug] = n + 1
			slug = fmt.Sprintf("%s-%d", slug, n+1)
		} else {
			slugs[slug] = 1
		}
		out = append(out, model.Heading{
			Level: h.level,
			Text:  h.text,
			Slug:  slug,
			Range: lm.rangeOf(h.start+contentOffset, end+contentOffset),
		})
	}
	return out
}

func slugify(text string) string {
	s := strings.ToLower(strings.TrimSpace(text))
	s = strings.ReplaceAll(s, " ", "-")
	s = slugInvalidRe.ReplaceAllString(s, "")
	return strings.Trim(s, "-")
}

// extractBlocks finds trailing "^block-id" anchors on paragraph/list-item
// lines. A duplicate block id is reported as a diagnostic; the first
// occurrence wins, matching the original implementation's first-wins rule.
func extractBlocks(body []byte, lm *lineMap, contentOffset int) ([]model.Block, []Diagnostic) {
	var blocks []model.Block
	var diags []Diagnostic
	seen := make(map[string]bool)

	offset := 0
	for _, line := range bytes.SplitAfter(body, []byte("\n")) {
		trimmedLine := strings.TrimRight(string(line), "\r\n")
		if m := blockAnchorRe.FindStringSubmatchIndex(trimmedLine); m != nil {
			id := trimmedLine[m[2]:m[3]]
			if seen[id] {
				diags = append(diags, Diagnostic{
					Message: fmt.Sprintf("duplicate block anchor ^%s", id),
					Range:   lm.rangeOf(offset+contentOffset, offset+len(line)+contentOffset),
				})
				continue
			}
			seen[id] = true
			blocks = append(blocks, model.Block{
				ID:    id,
				Range: lm.rangeOf(offset+contentOffset, offset+len(line)+contentOffset),
			})
		}
		offset += len(line)
	}
	return blocks, diags
}

// deriveTitle prefers frontmatter["title"], then the first H1 heading.
func deriveTitle(fm map[string]any, headings []model.Heading) string {
	if fm != nil {
		if t, ok := fm["title"]; ok {
			if s, ok := t.(string); ok && s != "" {
				return s
			}
		}
	}
	for _, h := range headings {
		if h.Level == 1 {
			return h.Text
		}
	}
	return ""
}
