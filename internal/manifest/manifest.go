// Package manifest selects the chapters a document is built from. A
// document's include patterns are matched against chapter source paths and
// the matches keep the book's table of contents order.
package manifest

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/gobwas/glob"
)

// ErrNoMatchingChapters is returned when no chapter matches a document's
// include patterns
var ErrNoMatchingChapters = errors.New("no matching chapters")

// Chapter is one entry of the book manifest
type Chapter struct {
	// Path is relative to the book's source directory, slash separated
	Path    string
	Name    string
	Ordinal int
	Content string
}

type pattern struct {
	source string
	glob   glob.Glob
}

// Matcher tests chapter paths against an ordered list of include patterns
type Matcher struct {
	patterns []pattern
}

// Compile builds a Matcher. Patterns are compiled without separators so a
// single * also crosses directories. A backslash escapes the next character.
func Compile(patterns []string) (*Matcher, error) {
	m := &Matcher{patterns: make([]pattern, 0, len(patterns))}
	for _, p := range patterns {
		normalized := normalizePattern(p)
		if normalized == "" {
			return nil, fmt.Errorf("empty include pattern")
		}
		g, err := glob.Compile(normalized)
		if err != nil {
			return nil, fmt.Errorf("include pattern %q: %w", p, err)
		}
		m.patterns = append(m.patterns, pattern{source: p, glob: g})
	}
	return m, nil
}

// Match reports whether chapterPath matches any pattern
func (m *Matcher) Match(chapterPath string) bool {
	p := normalizePath(chapterPath)
	for _, pat := range m.patterns {
		if pat.glob.Match(p) {
			return true
		}
	}
	return false
}

// Patterns returns the patterns as written
func (m *Matcher) Patterns() []string {
	out := make([]string, len(m.patterns))
	for i, p := range m.patterns {
		out[i] = p.source
	}
	return out
}

// normalizePattern trims a pattern. Only patterns without glob syntax are
// cleaned, so escapes and classes reach the compiler untouched.
func normalizePattern(p string) string {
	p = trimDotSlash(strings.TrimSpace(p))
	if p == "" || strings.ContainsAny(p, "*?[{\\") {
		return p
	}
	return path.Clean(p)
}

// normalizePath turns a chapter path into clean slash form
func normalizePath(p string) string {
	p = trimDotSlash(strings.TrimSpace(strings.ReplaceAll(p, "\\", "/")))
	if p == "" {
		return ""
	}
	return path.Clean(p)
}

func trimDotSlash(p string) string {
	for strings.HasPrefix(p, "./") {
		p = p[2:]
	}
	return p
}

// Resolve returns the chapters of book matched by m in book order. A chapter
// listed more than once in book appears once, at its first position.
func Resolve(book []Chapter, m *Matcher) ([]Chapter, error) {
	seen := make(map[string]bool, len(book))
	var out []Chapter
	for _, ch := range book {
		key := normalizePath(ch.Path)
		if seen[key] || !m.Match(ch.Path) {
			continue
		}
		seen[key] = true
		out = append(out, ch)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w for include %s", ErrNoMatchingChapters, strings.Join(m.Patterns(), ", "))
	}
	return out, nil
}
