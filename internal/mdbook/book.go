package mdbook

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/RossMurr4y/mdbook-docx/internal/config"
	"github.com/RossMurr4y/mdbook-docx/internal/manifest"
)

const (
	configFile  = "book.toml"
	summaryFile = "SUMMARY.md"
)

// LoadBook reads a book directory without mdBook. Chapters follow the link
// order of SUMMARY.md, or the lexical order of every Markdown file under the
// source directory when there is no summary.
func LoadBook(root string) (*Project, error) {
	file := &config.File{}
	tomlPath := filepath.Join(root, configFile)
	if _, err := os.Stat(tomlPath); err == nil {
		if file, err = config.LoadTOML(tomlPath); err != nil {
			return nil, err
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	book := file.Resolve()
	project := &Project{
		Root:        root,
		Destination: filepath.Join(root, filepath.FromSlash(book.BuildDir), "docx"),
		Config:      book,
	}

	src := project.SrcDir()
	summary, err := os.ReadFile(filepath.Join(src, summaryFile))
	var entries []summaryEntry
	switch {
	case err == nil:
		entries = parseSummary(summary)
	case errors.Is(err, fs.ErrNotExist):
		if entries, err = walkSources(src); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if seen[e.path] {
			continue
		}
		seen[e.path] = true
		content, err := os.ReadFile(filepath.Join(src, filepath.FromSlash(e.path)))
		if err != nil {
			return nil, fmt.Errorf("reading chapter %s: %w", e.path, err)
		}
		project.Chapters = append(project.Chapters, manifest.Chapter{
			Path:    e.path,
			Name:    e.name,
			Ordinal: len(project.Chapters),
			Content: string(content),
		})
	}
	return project, nil
}

type summaryEntry struct {
	name string
	path string
}

// parseSummary collects chapter links in document order. Drafts, which link
// to nothing, and external links are skipped.
func parseSummary(source []byte) []summaryEntry {
	doc := goldmark.New().Parser().Parse(text.NewReader(source))
	var entries []summaryEntry
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		link, ok := n.(*ast.Link)
		if !entering || !ok {
			return ast.WalkContinue, nil
		}
		dest := string(link.Destination)
		if unescaped, err := url.PathUnescape(dest); err == nil {
			dest = unescaped
		}
		if i := strings.IndexAny(dest, "?#"); i >= 0 {
			dest = dest[:i]
		}
		if dest == "" || strings.Contains(dest, "://") || !strings.EqualFold(path.Ext(dest), ".md") {
			return ast.WalkSkipChildren, nil
		}
		entries = append(entries, summaryEntry{
			name: linkText(link, source),
			path: strings.TrimPrefix(path.Clean("/"+filepath.ToSlash(dest)), "/"),
		})
		return ast.WalkSkipChildren, nil
	})
	return entries
}

func linkText(n ast.Node, source []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(source))
			if t.SoftLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.String:
			sb.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}

func walkSources(src string) ([]summaryEntry, error) {
	var entries []summaryEntry
	err := filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(p), ".md") {
			return nil
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == summaryFile {
			return nil
		}
		name := strings.TrimSuffix(path.Base(rel), path.Ext(rel))
		entries = append(entries, summaryEntry{name: name, path: rel})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", src, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].path < entries[j].path })
	return entries, nil
}
