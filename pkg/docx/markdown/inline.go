package markdown

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"

	"github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"

	"github.com/RossMurr4y/mdbook-docx/pkg/docx"
	"github.com/RossMurr4y/mdbook-docx/pkg/docx/ooxml"
)

// inlineStyle is the formatting accumulated from enclosing inline nodes
type inlineStyle struct {
	bold   bool
	italic bool
	strike bool
	link   *docx.Link
}

var (
	lineBreakTag = regexp.MustCompile(`(?i)^<br\s*/?>$`)
	openingTag   = regexp.MustCompile(`^<([A-Za-z][A-Za-z0-9-]*)`)
)

func (s *state) inline(parent ast.Node, st inlineStyle) []docx.Run {
	var runs []docx.Run
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		switch v := n.(type) {
		case *ast.Text:
			runs = appendRun(runs, s.textRun(string(v.Segment.Value(s.source)), st))
			switch {
			case v.HardLineBreak():
				runs = append(runs, docx.Run{Break: docx.LineBreak})
			case v.SoftLineBreak() && s.c.opts.HardLineBreaks:
				runs = append(runs, docx.Run{Break: docx.LineBreak})
			case v.SoftLineBreak():
				runs = appendRun(runs, s.textRun(" ", st))
			}
		case *ast.String:
			runs = appendRun(runs, s.textRun(string(v.Value), st))
		case *ast.CodeSpan:
			r := s.textRun(s.codeSpanText(v), st)
			r.StyleID = s.c.styles.verbatim
			runs = append(runs, r)
		case *ast.Emphasis:
			inner := st
			if v.Level >= 2 {
				inner.bold = true
			} else {
				inner.italic = true
			}
			runs = append(runs, s.inline(v, inner)...)
		case *east.Strikethrough:
			inner := st
			inner.strike = true
			runs = append(runs, s.inline(v, inner)...)
		case *ast.Link:
			inner := st
			if link := s.link(string(v.Destination)); link != nil {
				inner.link = link
			}
			runs = append(runs, s.inline(v, inner)...)
		case *ast.AutoLink:
			runs = append(runs, s.autoLink(v, st))
		case *ast.Image:
			if ref := s.image(v); ref != nil {
				runs = append(runs, docx.Run{Image: ref, Link: st.link})
			} else if alt := s.plainText(v); alt != "" {
				runs = appendRun(runs, s.textRun(alt, st))
			}
		case *ast.RawHTML:
			runs = append(runs, s.rawHTML(v)...)
		case *east.TaskCheckBox:
			box := "☐ "
			if v.IsChecked {
				box = "☒ "
			}
			runs = appendRun(runs, s.textRun(box, st))
		case *east.FootnoteLink:
			runs = append(runs, docx.Run{
				Text:   "[" + strconv.Itoa(v.Index) + "]",
				Format: &ooxml.RunProperties{VerticalAlign: "superscript"},
			})
		case *east.FootnoteBacklink:
		default:
			runs = append(runs, s.inline(n, st)...)
		}
	}
	return runs
}

func (s *state) textRun(text string, st inlineStyle) docx.Run {
	r := docx.Run{
		Text:   text,
		Bold:   st.bold,
		Italic: st.italic,
		Strike: st.strike,
		Link:   st.link,
	}
	if st.link != nil {
		r.StyleID = s.c.styles.hyperlink
	}
	return r
}

// appendRun adds r, joining it to the previous run when both are plain text
// with the same formatting
func appendRun(runs []docx.Run, r docx.Run) []docx.Run {
	if r.Text == "" && r.Break == docx.NoBreak && !r.Tab && r.Image == nil {
		return runs
	}
	if n := len(runs); n > 0 && plainTextRun(r) && plainTextRun(runs[n-1]) {
		last := &runs[n-1]
		if last.StyleID == r.StyleID && last.Bold == r.Bold && last.Italic == r.Italic &&
			last.Strike == r.Strike && last.Underline == r.Underline && last.Link == r.Link {
			last.Text += r.Text
			return runs
		}
	}
	return append(runs, r)
}

func plainTextRun(r docx.Run) bool {
	return r.Break == docx.NoBreak && !r.Tab && r.Image == nil && r.Format == nil
}

func (s *state) codeSpanText(n ast.Node) string {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch v := c.(type) {
		case *ast.Text:
			value := v.Segment.Value(s.source)
			if bytes.HasSuffix(value, []byte("\n")) {
				buf.Write(value[:len(value)-1])
				buf.WriteByte(' ')
			} else {
				buf.Write(value)
			}
		case *ast.String:
			buf.Write(v.Value)
		}
	}
	return buf.String()
}

// plainText returns the text content of an inline node
func (s *state) plainText(n ast.Node) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := c.(type) {
		case *ast.Text:
			sb.Write(v.Segment.Value(s.source))
			if v.SoftLineBreak() || v.HardLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.String:
			sb.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})
	return sb.String()
}

func (s *state) autoLink(v *ast.AutoLink, st inlineStyle) docx.Run {
	url := string(v.URL(s.source))
	label := string(v.Label(s.source))
	switch {
	case v.AutoLinkType == ast.AutoLinkEmail && !strings.HasPrefix(strings.ToLower(url), "mailto:"):
		url = "mailto:" + url
	case v.AutoLinkType == ast.AutoLinkURL && !hasScheme(url):
		url = "http://" + url
	}
	st.link = &docx.Link{URL: url}
	return s.textRun(label, st)
}

// link resolves a link destination. External URLs and in-document anchors
// become links; links to other chapters resolve to the heading anchor they
// name. Anything else is kept as text.
func (s *state) link(dest string) *docx.Link {
	switch {
	case dest == "":
		return nil
	case strings.HasPrefix(dest, "#"):
		if dest == "#" {
			return nil
		}
		return &docx.Link{Anchor: dest[1:]}
	case hasScheme(dest):
		return &docx.Link{URL: dest}
	}

	target, fragment, _ := strings.Cut(dest, "#")
	if strings.HasSuffix(target, ".md") || strings.HasSuffix(target, ".html") {
		if fragment != "" {
			return &docx.Link{Anchor: fragment}
		}
		s.warnf("link to chapter %s has no anchor; kept as text", target)
		return nil
	}
	s.warnf("relative link %s kept as text", dest)
	return nil
}

// rawHTML handles inline HTML. Line breaks are kept; every other tag is
// dropped and the text around it stays.
func (s *state) rawHTML(v *ast.RawHTML) []docx.Run {
	var raw bytes.Buffer
	for i := 0; i < v.Segments.Len(); i++ {
		seg := v.Segments.At(i)
		raw.Write(seg.Value(s.source))
	}
	tag := strings.TrimSpace(raw.String())
	if lineBreakTag.MatchString(tag) {
		return []docx.Run{{Break: docx.LineBreak}}
	}
	if m := openingTag.FindStringSubmatch(tag); m != nil {
		s.warnf("inline HTML <%s> dropped", strings.ToLower(m[1]))
	}
	return nil
}
