package docx

import (
	"fmt"
	"time"

	"github.com/RossMurr4y/mdbook-docx/pkg/docx/ooxml"
)

// DocumentProperties are written to docProps/core.xml
type DocumentProperties struct {
	Title      string
	Creator    string
	Language   string
	Identifier string
	Created    time.Time
}

// AssemblyInput is everything one output document is built from. Chapter
// blocks must already be bound to the template registry.
type AssemblyInput struct {
	Template   *Template
	Prepend    []*Fragment
	Chapters   [][]Block
	Append     []*Fragment
	Media      *MediaTable
	Properties DocumentProperties
}

// CompiledDocument is an assembled document ready to be packaged
type CompiledDocument struct {
	Blocks     []Block
	Registry   *StyleRegistry
	Media      *MediaTable
	Section    *ooxml.RawXMLElement
	Prefixes   ooxml.Prefixes
	Properties DocumentProperties
	Warnings   Warnings
}

// Assemble merges fragment styles into the template registry, rebinds
// fragment blocks, and concatenates prepend, chapter and append content in
// that order. Fragments are merged in the order given, prepend first.
func Assemble(in AssemblyInput) (*CompiledDocument, error) {
	if in.Template == nil {
		return nil, NewDocumentError(ErrAssemblyFailed, "assembly", "", fmt.Errorf("no template"))
	}

	registry := in.Template.Registry
	media := NewMediaTable()
	media.Merge(in.Media)
	prefixes := ooxml.Prefixes{}
	prefixes.Merge(in.Template.Prefixes)

	doc := &CompiledDocument{
		Section:    in.Template.Section,
		Prefixes:   prefixes,
		Properties: in.Properties,
	}
	doc.Warnings = append(doc.Warnings, registry.Warnings()...)

	fragments := make([]*Fragment, 0, len(in.Prepend)+len(in.Append))
	fragments = append(fragments, in.Prepend...)
	fragments = append(fragments, in.Append...)
	for _, frag := range fragments {
		merged, renames := registry.Merge(frag.Registry)
		ApplyRenames(frag.Blocks, renames, merged)
		media.Merge(frag.Media)
		doc.Warnings = append(doc.Warnings, frag.Warnings...)
		registry = merged
	}

	for _, frag := range in.Prepend {
		doc.Blocks = append(doc.Blocks, frag.Blocks...)
	}
	for _, chapter := range in.Chapters {
		doc.Blocks = append(doc.Blocks, chapter...)
	}
	for _, frag := range in.Append {
		doc.Blocks = append(doc.Blocks, frag.Blocks...)
	}

	doc.Registry = registry
	doc.Media = media
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return doc, nil
}

// Validate checks that every style, numbering and media reference in the
// document resolves.
func (d *CompiledDocument) Validate() error {
	var problem error
	WalkBlocks(d.Blocks, func(b Block) bool {
		if _, ok := d.Registry.Lookup(b.StyleRef()); !ok {
			problem = fmt.Errorf("%T bound to unknown style %q", b, b.StyleRef())
			return false
		}
		switch v := b.(type) {
		case *Paragraph:
			if v.Numbering != nil && !d.Registry.Numbering().HasNum(v.Numbering.NumID) {
				problem = fmt.Errorf("paragraph references unknown numbering %d", v.Numbering.NumID)
				return false
			}
		case *Image:
			if _, ok := d.Media.Get(v.Media.Key); !ok {
				problem = fmt.Errorf("image references unknown media %s", v.Media.Key)
				return false
			}
		}
		for _, run := range BlockRuns(b) {
			if run.StyleID != "" {
				if _, ok := d.Registry.Lookup(run.StyleID); !ok {
					problem = fmt.Errorf("run bound to unknown style %q", run.StyleID)
					return false
				}
			}
			if run.Image != nil {
				if _, ok := d.Media.Get(run.Image.Key); !ok {
					problem = fmt.Errorf("inline image references unknown media %s", run.Image.Key)
					return false
				}
			}
		}
		return true
	})
	if problem != nil {
		return NewDocumentError(ErrAssemblyFailed, "assembly", "", problem)
	}
	return nil
}
