package docx

import "github.com/RossMurr4y/mdbook-docx/pkg/docx/ooxml"

// Block is one structural unit of document content. Every block carries the
// id of the style it is bound to.
type Block interface {
	StyleRef() string
	setStyleRef(string)
}

// Heading is a section heading bound to a Title or Heading k role
type Heading struct {
	Level   int
	Role    Role
	StyleID string
	// Anchor is the bookmark name internal links resolve to
	Anchor string
	Runs   []Run
}

// Paragraph is a body paragraph. Fragment paragraphs keep their numbering
// and direct formatting.
type Paragraph struct {
	StyleID   string
	Runs      []Run
	Numbering *NumberingRef
	Format    *ooxml.ParagraphProperties
}

// CodeBlock is preformatted text rendered as a single paragraph
type CodeBlock struct {
	StyleID  string
	Language string
	Lines    []string
}

// List is an ordered or unordered list. Each item is a sequence of blocks.
type List struct {
	StyleID string
	Ordered bool
	Start   int
	Items   [][]Block
}

// Table is a grid of cells
type Table struct {
	StyleID string
	Columns int
	// Widths holds grid column widths in twips; empty means equal columns
	Widths []int
	Rows   []TableRow
}

// TableRow is one table row
type TableRow struct {
	Header bool
	Cells  []TableCell
}

// TableCell holds the blocks of one cell
type TableCell struct {
	Span   int
	Blocks []Block
}

// Image is a block-level picture
type Image struct {
	StyleID string
	Media   MediaRef
}

// ThematicBreak is a horizontal rule
type ThematicBreak struct {
	StyleID string
}

// NumberingRef points a paragraph at a numbering instance
type NumberingRef struct {
	NumID int
	Level int
}

// MediaRef places a media entry in the document
type MediaRef struct {
	Key         string
	Width       int64
	Height      int64
	Name        string
	Description string
}

// BreakKind is the kind of break a run carries
type BreakKind int

const (
	NoBreak BreakKind = iota
	LineBreak
	PageBreak
)

// Run is a span of inline content with uniform formatting
type Run struct {
	Text      string
	StyleID   string
	Bold      bool
	Italic    bool
	Strike    bool
	Underline bool
	Break     BreakKind
	Tab       bool
	Link      *Link
	Image     *MediaRef
	// Format carries direct formatting read from fragments
	Format *ooxml.RunProperties
}

// Link is a hyperlink target. Runs sharing the same *Link render as one
// hyperlink.
type Link struct {
	URL    string
	Anchor string
}

func (b *Heading) StyleRef() string       { return b.StyleID }
func (b *Paragraph) StyleRef() string     { return b.StyleID }
func (b *CodeBlock) StyleRef() string     { return b.StyleID }
func (b *List) StyleRef() string          { return b.StyleID }
func (b *Table) StyleRef() string         { return b.StyleID }
func (b *Image) StyleRef() string         { return b.StyleID }
func (b *ThematicBreak) StyleRef() string { return b.StyleID }

func (b *Heading) setStyleRef(id string)       { b.StyleID = id }
func (b *Paragraph) setStyleRef(id string)     { b.StyleID = id }
func (b *CodeBlock) setStyleRef(id string)     { b.StyleID = id }
func (b *List) setStyleRef(id string)          { b.StyleID = id }
func (b *Table) setStyleRef(id string)         { b.StyleID = id }
func (b *Image) setStyleRef(id string)         { b.StyleID = id }
func (b *ThematicBreak) setStyleRef(id string) { b.StyleID = id }

// WalkBlocks calls fn for every block, descending into list items and table
// cells. Returning false from fn stops the walk.
func WalkBlocks(blocks []Block, fn func(Block) bool) bool {
	for _, b := range blocks {
		if !fn(b) {
			return false
		}
		switch v := b.(type) {
		case *List:
			for _, item := range v.Items {
				if !WalkBlocks(item, fn) {
					return false
				}
			}
		case *Table:
			for _, row := range v.Rows {
				for _, cell := range row.Cells {
					if !WalkBlocks(cell.Blocks, fn) {
						return false
					}
				}
			}
		}
	}
	return true
}

// BlockRuns returns the runs owned directly by a block
func BlockRuns(b Block) []Run {
	switch v := b.(type) {
	case *Heading:
		return v.Runs
	case *Paragraph:
		return v.Runs
	}
	return nil
}

// PlainText returns the text of a run sequence
func PlainText(runs []Run) string {
	var out []byte
	for _, r := range runs {
		out = append(out, r.Text...)
		if r.Tab {
			out = append(out, '\t')
		}
		if r.Break == LineBreak {
			out = append(out, '\n')
		}
	}
	return string(out)
}
