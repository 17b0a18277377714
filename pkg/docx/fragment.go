package docx

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path"
	"reflect"

	"github.com/RossMurr4y/mdbook-docx/pkg/docx/ooxml"
)

// Fragment is a pre-authored .docx converted to blocks bound to its own
// style registry. Its media lives in its own table until assembly.
type Fragment struct {
	Path     string
	Blocks   []Block
	Registry *StyleRegistry
	Media    *MediaTable
	Warnings Warnings
}

// LoadFragment reads a .docx file as a fragment
func LoadFragment(filename string) (*Fragment, error) {
	data, err := os.ReadFile(filename)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, NewDocumentError(ErrFragmentNotFound, "fragment load", filename, err)
	}
	if err != nil {
		return nil, NewDocumentError(ErrFragmentCorrupt, "fragment load", filename, err)
	}
	return ParseFragment(filename, data)
}

// ParseFragment converts package bytes into a fragment
func ParseFragment(name string, data []byte) (*Fragment, error) {
	fail := func(cause error) error {
		return NewDocumentError(ErrFragmentCorrupt, "fragment load", name, cause)
	}

	pkg, err := NewPackage(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fail(err)
	}
	stylesXML, err := readRelatedPart(pkg, ooxml.RelTypeStyles, "word/styles.xml")
	if err != nil {
		return nil, fail(err)
	}
	numberingXML, err := readRelatedPart(pkg, ooxml.RelTypeNumbering, "word/numbering.xml")
	if err != nil {
		return nil, fail(err)
	}
	registry, err := BuildRegistry(name, stylesXML, numberingXML, RegistryOptions{})
	if err != nil {
		return nil, fail(err)
	}

	docXML, err := pkg.ReadPart(pkg.MainPart())
	if err != nil {
		return nil, fail(err)
	}
	doc, err := ooxml.ParseDocument(bytes.NewReader(docXML))
	if err != nil {
		return nil, fail(err)
	}
	rels, err := pkg.Relationships(pkg.MainPart())
	if err != nil {
		return nil, fail(err)
	}

	frag := &Fragment{
		Path:     name,
		Registry: registry,
		Media:    NewMediaTable(),
	}
	frag.Warnings = append(frag.Warnings, registry.Warnings()...)

	conv := &fragmentConverter{
		frag:         frag,
		pkg:          pkg,
		rels:         rels,
		defaultStyle: registry.DefaultStyle(KindParagraph),
		defaultTable: registry.DefaultStyle(KindTable),
		dropped:      map[string]int{},
	}
	frag.Blocks, err = conv.elements(doc.Body.Elements)
	if err != nil {
		return nil, fail(err)
	}
	for _, skipped := range doc.Body.Skipped {
		frag.Warnings.Addf(name, "dropped unsupported body element w:%s", skipped)
	}
	for _, prop := range conv.droppedOrder {
		frag.Warnings.Addf(name, "dropped unsupported paragraph property w:%s from %d paragraph(s)", prop, conv.dropped[prop])
	}
	return frag, nil
}

type fragmentConverter struct {
	frag         *Fragment
	pkg          *Package
	rels         *ooxml.Relationships
	defaultStyle string
	defaultTable string

	// paragraph properties not carried over, by first appearance
	dropped      map[string]int
	droppedOrder []string
}

func (c *fragmentConverter) elements(elements []ooxml.BodyElement) ([]Block, error) {
	blocks := make([]Block, 0, len(elements))
	for _, el := range elements {
		switch v := el.(type) {
		case *ooxml.Paragraph:
			p, err := c.paragraph(v)
			if err != nil {
				return nil, err
			}
			blocks = append(blocks, p)
		case *ooxml.Table:
			t, err := c.table(v)
			if err != nil {
				return nil, err
			}
			blocks = append(blocks, t)
		}
	}
	return blocks, nil
}

func (c *fragmentConverter) paragraph(p *ooxml.Paragraph) (*Paragraph, error) {
	out := &Paragraph{StyleID: c.defaultStyle}
	if props := p.Properties; props != nil {
		format := props.Clone()
		if format.Style != nil {
			out.StyleID = format.Style.Val
			format.Style = nil
		}
		if format.Numbering != nil {
			if format.Numbering.NumID != 0 {
				out.Numbering = &NumberingRef{NumID: format.Numbering.NumID, Level: format.Numbering.Level}
			}
			format.Numbering = nil
		}
		for _, name := range format.Dropped {
			if c.dropped[name] == 0 {
				c.droppedOrder = append(c.droppedOrder, name)
			}
			c.dropped[name]++
		}
		format.Dropped = nil
		if !reflect.DeepEqual(*format, ooxml.ParagraphProperties{}) {
			out.Format = format
		}
	}

	for _, content := range p.Content {
		switch v := content.(type) {
		case *ooxml.Run:
			runs, err := c.runs(v, nil)
			if err != nil {
				return nil, err
			}
			out.Runs = append(out.Runs, runs...)
		case *ooxml.Hyperlink:
			link := c.link(v)
			for i := range v.Runs {
				runs, err := c.runs(&v.Runs[i], link)
				if err != nil {
					return nil, err
				}
				out.Runs = append(out.Runs, runs...)
			}
		}
	}
	return out, nil
}

func (c *fragmentConverter) link(h *ooxml.Hyperlink) *Link {
	if h.ID != "" {
		rel, ok := c.rels.ByID(h.ID)
		if !ok || rel.Type != ooxml.RelTypeHyperlink {
			c.frag.Warnings.Addf(c.frag.Path, "hyperlink relationship %s not found; keeping text", h.ID)
			return nil
		}
		return &Link{URL: rel.Target, Anchor: h.Anchor}
	}
	if h.Anchor != "" {
		return &Link{Anchor: h.Anchor}
	}
	return nil
}

// runs splits one OOXML run into block runs, one per text, break, tab or
// picture, sharing the same formatting.
func (c *fragmentConverter) runs(r *ooxml.Run, link *Link) ([]Run, error) {
	base := Run{Link: link}
	if props := r.Properties; props != nil {
		format := props.Clone()
		if format.Style != nil {
			base.StyleID = format.Style.Val
			format.Style = nil
		}
		// explicit offs stay in Format so they still override the style
		if format.Bold.On() {
			base.Bold, format.Bold = true, ooxml.ToggleUnset
		}
		if format.Italic.On() {
			base.Italic, format.Italic = true, ooxml.ToggleUnset
		}
		if format.Strike.On() {
			base.Strike, format.Strike = true, ooxml.ToggleUnset
		}
		base.Underline = format.Underline == "single"
		if base.Underline {
			format.Underline = ""
		}
		if !format.IsEmpty() {
			base.Format = format
		}
	}

	var out []Run
	for _, content := range r.Content {
		run := base
		switch v := content.(type) {
		case *ooxml.Text:
			run.Text = v.Content
		case *ooxml.Break:
			if v.Type == "page" {
				run.Break = PageBreak
			} else if v.Type == "column" {
				continue
			} else {
				run.Break = LineBreak
			}
		case *ooxml.Tab:
			run.Tab = true
		case *ooxml.Drawing:
			ref, err := c.image(v)
			if err != nil {
				return nil, err
			}
			if ref == nil {
				continue
			}
			run.Image = ref
		default:
			continue
		}
		out = append(out, run)
	}
	return out, nil
}

func (c *fragmentConverter) image(d *ooxml.Drawing) (*MediaRef, error) {
	rel, ok := c.rels.ByID(d.RelID)
	if !ok || rel.Type != ooxml.RelTypeImage {
		c.frag.Warnings.Addf(c.frag.Path, "image relationship %s not found; picture dropped", d.RelID)
		return nil, nil
	}
	if rel.TargetMode == "External" {
		c.frag.Warnings.Addf(c.frag.Path, "linked image %s dropped", rel.Target)
		return nil, nil
	}
	part := c.pkg.RelatedPart(c.pkg.MainPart(), rel)
	data, err := c.pkg.ReadPart(part)
	if err != nil {
		return nil, err
	}
	ext := ExtensionFor(path.Base(part), data)
	if ext == "" {
		c.frag.Warnings.Addf(c.frag.Path, "unsupported image format %s; picture dropped", part)
		return nil, nil
	}
	return &MediaRef{
		Key:         c.frag.Media.Register(data, ext),
		Width:       d.Cx,
		Height:      d.Cy,
		Name:        d.Name,
		Description: d.Description,
	}, nil
}

func (c *fragmentConverter) table(t *ooxml.Table) (*Table, error) {
	out := &Table{StyleID: c.defaultTable, Widths: append([]int(nil), t.Grid...)}
	if t.Properties != nil && t.Properties.Style != nil {
		out.StyleID = t.Properties.Style.Val
	}
	out.Columns = len(t.Grid)
	for _, row := range t.Rows {
		r := TableRow{Header: row.Header}
		for _, cell := range row.Cells {
			blocks, err := c.elements(cell.Elements)
			if err != nil {
				return nil, err
			}
			span := cell.GridSpan
			if span < 1 {
				span = 1
			}
			r.Cells = append(r.Cells, TableCell{Span: span, Blocks: blocks})
		}
		if n := rowWidth(r); n > out.Columns {
			out.Columns = n
		}
		out.Rows = append(out.Rows, r)
	}
	return out, nil
}

func rowWidth(r TableRow) int {
	n := 0
	for _, cell := range r.Cells {
		n += cell.Span
	}
	return n
}
