// Package mdbook reads books as mdBook presents them: the render context a
// renderer receives on stdin, or a book directory on disk.
package mdbook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/RossMurr4y/mdbook-docx/internal/config"
	"github.com/RossMurr4y/mdbook-docx/internal/manifest"
)

// RenderContext is the JSON document mdBook writes to a renderer's stdin
type RenderContext struct {
	Version     string      `json:"version"`
	Root        string      `json:"root"`
	Book        Book        `json:"book"`
	Config      config.File `json:"config"`
	Destination string      `json:"destination"`
}

// Book holds the table of contents. Older mdBook releases name the list
// sections, newer ones items.
type Book struct {
	Sections []BookItem `json:"sections"`
	Items    []BookItem `json:"items"`
}

// Chapter is a chapter as mdBook serializes it. Draft chapters have no path.
type Chapter struct {
	Name        string     `json:"name"`
	Content     string     `json:"content"`
	Number      []int      `json:"number"`
	SubItems    []BookItem `json:"sub_items"`
	Path        *string    `json:"path"`
	SourcePath  *string    `json:"source_path"`
	ParentNames []string   `json:"parent_names"`
}

// BookItem is one table of contents entry: a chapter, a separator or a part
// title.
type BookItem struct {
	Chapter   *Chapter
	PartTitle string
	Separator bool
}

// UnmarshalJSON decodes mdBook's externally tagged enum
func (it *BookItem) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var tag string
		if err := json.Unmarshal(data, &tag); err != nil {
			return err
		}
		if tag != "Separator" {
			return fmt.Errorf("unknown book item %q", tag)
		}
		*it = BookItem{Separator: true}
		return nil
	}

	var tagged struct {
		Chapter   *Chapter `json:"Chapter"`
		PartTitle *string  `json:"PartTitle"`
	}
	if err := json.Unmarshal(data, &tagged); err != nil {
		return err
	}
	switch {
	case tagged.Chapter != nil:
		*it = BookItem{Chapter: tagged.Chapter}
	case tagged.PartTitle != nil:
		*it = BookItem{PartTitle: *tagged.PartTitle}
	default:
		return fmt.Errorf("unknown book item %s", data)
	}
	return nil
}

// ReadRenderContext decodes a render context
func ReadRenderContext(r io.Reader) (*RenderContext, error) {
	var rc RenderContext
	if err := json.NewDecoder(r).Decode(&rc); err != nil {
		return nil, fmt.Errorf("reading render context: %w", err)
	}
	return &rc, nil
}

// Chapters flattens the table of contents depth first. Draft chapters are
// skipped.
func (b *Book) Chapters() []manifest.Chapter {
	items := b.Items
	if len(items) == 0 {
		items = b.Sections
	}
	var out []manifest.Chapter
	var walk func([]BookItem)
	walk = func(items []BookItem) {
		for _, it := range items {
			ch := it.Chapter
			if ch == nil {
				continue
			}
			if ch.Path != nil && *ch.Path != "" {
				out = append(out, manifest.Chapter{
					Path:    filepath.ToSlash(*ch.Path),
					Name:    ch.Name,
					Ordinal: len(out),
					Content: ch.Content,
				})
			}
			walk(ch.SubItems)
		}
	}
	walk(items)
	return out
}

// Project is a book ready to build
type Project struct {
	Root        string
	Destination string
	Config      *config.Book
	Chapters    []manifest.Chapter
}

// SrcDir is the directory chapter paths are relative to
func (p *Project) SrcDir() string {
	return filepath.Join(p.Root, filepath.FromSlash(p.Config.Src))
}

// Project converts the render context. mdBook already picked the
// destination directory.
func (rc *RenderContext) Project() *Project {
	return &Project{
		Root:        rc.Root,
		Destination: rc.Destination,
		Config:      rc.Config.Resolve(),
		Chapters:    rc.Book.Chapters(),
	}
}
