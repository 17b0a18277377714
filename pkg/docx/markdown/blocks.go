package markdown

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"

	"github.com/RossMurr4y/mdbook-docx/pkg/docx"
	"github.com/RossMurr4y/mdbook-docx/pkg/docx/ooxml"
)

// blockContext carries what enclosing containers impose on their children
type blockContext struct {
	// style is the paragraph style body text is bound to
	style string
}

const tabWidth = 4

func (s *state) blocks(parent ast.Node, ctx blockContext) []docx.Block {
	var out []docx.Block
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		out = append(out, s.block(n, ctx)...)
	}
	return out
}

func (s *state) block(n ast.Node, ctx blockContext) []docx.Block {
	switch v := n.(type) {
	case *ast.Heading:
		return []docx.Block{s.heading(v)}
	case *ast.Paragraph, *ast.TextBlock:
		if img := s.soleImage(n); img != nil {
			if ref := s.image(img); ref != nil {
				return []docx.Block{&docx.Image{StyleID: ctx.style, Media: *ref}}
			}
			alt := s.plainText(img)
			if alt == "" {
				return nil
			}
			return []docx.Block{&docx.Paragraph{StyleID: ctx.style, Runs: []docx.Run{s.textRun(alt, inlineStyle{})}}}
		}
		runs := s.inline(n, inlineStyle{})
		if len(runs) == 0 {
			return nil
		}
		return []docx.Block{&docx.Paragraph{StyleID: ctx.style, Runs: runs}}
	case *ast.FencedCodeBlock:
		return []docx.Block{s.codeBlock(v, string(v.Language(s.source)))}
	case *ast.CodeBlock:
		return []docx.Block{s.codeBlock(v, "")}
	case *ast.List:
		return []docx.Block{s.list(v)}
	case *ast.Blockquote:
		return s.blocks(v, blockContext{style: s.c.styles.quote})
	case *ast.ThematicBreak:
		return []docx.Block{&docx.ThematicBreak{StyleID: s.c.styles.normal}}
	case *ast.HTMLBlock:
		return s.htmlBlock(v, ctx)
	case *east.Table:
		return []docx.Block{s.table(v)}
	case *east.FootnoteList:
		return s.footnotes(v)
	}
	if n.HasChildren() {
		return s.blocks(n, ctx)
	}
	s.warnf("unsupported %s block skipped", n.Kind())
	return nil
}

func (s *state) heading(h *ast.Heading) *docx.Heading {
	role := docx.HeadingRole(docx.HeadingRank(h.Level, s.c.opts.OffsetHeadingsBy))
	heading := &docx.Heading{
		Level:   h.Level,
		Role:    role,
		StyleID: s.c.registry.RoleID(role),
		Runs:    s.inline(h, inlineStyle{}),
	}
	if id, ok := h.AttributeString("id"); ok {
		switch v := id.(type) {
		case []byte:
			heading.Anchor = string(v)
		case string:
			heading.Anchor = v
		}
	}
	return heading
}

func (s *state) codeBlock(n ast.Node, info string) *docx.CodeBlock {
	language := info
	if i := strings.IndexAny(language, " \t,{"); i >= 0 {
		language = language[:i]
	}
	body := string(s.linesText(n))
	body = strings.TrimRight(body, "\r\n")
	var lines []string
	if body != "" {
		for _, line := range strings.Split(body, "\n") {
			line = strings.TrimSuffix(line, "\r")
			lines = append(lines, expandTabs(line))
		}
	}
	return &docx.CodeBlock{StyleID: s.c.styles.code, Language: language, Lines: lines}
}

func expandTabs(line string) string {
	if !strings.Contains(line, "\t") {
		return line
	}
	var sb strings.Builder
	col := 0
	for _, r := range line {
		if r == '\t' {
			pad := tabWidth - col%tabWidth
			sb.WriteString(strings.Repeat(" ", pad))
			col += pad
			continue
		}
		sb.WriteRune(r)
		col++
	}
	return sb.String()
}

func (s *state) list(l *ast.List) *docx.List {
	out := &docx.List{StyleID: s.c.styles.list, Ordered: l.IsOrdered()}
	if out.Ordered {
		out.Start = l.Start
	}
	for item := l.FirstChild(); item != nil; item = item.NextSibling() {
		out.Items = append(out.Items, s.blocks(item, blockContext{style: s.c.styles.list}))
	}
	return out
}

func (s *state) table(t *east.Table) *docx.Table {
	out := &docx.Table{StyleID: s.c.styles.table, Columns: len(t.Alignments)}
	for row := t.FirstChild(); row != nil; row = row.NextSibling() {
		_, header := row.(*east.TableHeader)
		r := docx.TableRow{Header: header}
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			c, ok := cell.(*east.TableCell)
			if !ok {
				continue
			}
			runs := s.inline(c, inlineStyle{bold: header})
			p := &docx.Paragraph{StyleID: s.c.styles.normal, Runs: runs}
			if align := cellAlignment(c.Alignment); align != "" {
				p.Format = &ooxml.ParagraphProperties{Alignment: align}
			}
			r.Cells = append(r.Cells, docx.TableCell{Span: 1, Blocks: []docx.Block{p}})
		}
		out.Rows = append(out.Rows, r)
	}
	return out
}

func cellAlignment(a east.Alignment) string {
	switch a {
	case east.AlignLeft:
		return "left"
	case east.AlignCenter:
		return "center"
	case east.AlignRight:
		return "right"
	}
	return ""
}

// footnotes renders footnote definitions as paragraphs prefixed with their
// number
func (s *state) footnotes(list *east.FootnoteList) []docx.Block {
	out := []docx.Block{&docx.ThematicBreak{StyleID: s.c.styles.normal}}
	for n := list.FirstChild(); n != nil; n = n.NextSibling() {
		fn, ok := n.(*east.Footnote)
		if !ok {
			continue
		}
		blocks := s.blocks(fn, blockContext{style: s.c.styles.normal})
		marker := docx.Run{Text: "[" + strconv.Itoa(fn.Index) + "] "}
		if len(blocks) > 0 {
			if p, ok := blocks[0].(*docx.Paragraph); ok {
				p.Runs = append([]docx.Run{marker}, p.Runs...)
				out = append(out, blocks...)
				continue
			}
		}
		out = append(out, &docx.Paragraph{StyleID: s.c.styles.normal, Runs: []docx.Run{marker}})
		out = append(out, blocks...)
	}
	return out
}

var htmlCommentPattern = regexp.MustCompile(`(?s)^\s*<!--.*-->\s*$`)

// htmlBlock converts a raw HTML block to Markdown and compiles the result.
// HTML found inside converted HTML is dropped.
func (s *state) htmlBlock(n *ast.HTMLBlock, ctx blockContext) []docx.Block {
	raw := s.linesText(n)
	if n.HasClosure() {
		raw = append(raw, n.ClosureLine.Value(s.source)...)
	}
	if len(bytes.TrimSpace(raw)) == 0 || htmlCommentPattern.Match(raw) {
		return nil
	}
	if !s.allowHTML {
		s.warnf("nested HTML block dropped")
		return nil
	}

	converted, err := htmltomarkdown.ConvertString(string(raw))
	if err != nil {
		s.warnf("HTML block dropped: %v", err)
		return nil
	}
	if strings.TrimSpace(converted) == "" {
		return nil
	}
	return s.nested([]byte(converted), ctx)
}

// soleImage returns the image a paragraph consists of, if any
func (s *state) soleImage(p ast.Node) *ast.Image {
	var img *ast.Image
	for n := p.FirstChild(); n != nil; n = n.NextSibling() {
		switch v := n.(type) {
		case *ast.Image:
			if img != nil {
				return nil
			}
			img = v
		case *ast.Text:
			if len(bytes.TrimSpace(v.Segment.Value(s.source))) != 0 {
				return nil
			}
		default:
			return nil
		}
	}
	return img
}
