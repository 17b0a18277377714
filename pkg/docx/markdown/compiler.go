package markdown

import (
	"bytes"
	"fmt"

	"github.com/adrg/frontmatter"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"github.com/RossMurr4y/mdbook-docx/pkg/docx"
)

// DefaultMaxImageWidth is the width images are scaled down to when no
// maximum is configured: 6.5 inches in EMUs, the text width of a Letter page
// with one inch margins.
const DefaultMaxImageWidth int64 = 5943600

// Options control how chapters are compiled
type Options struct {
	// OffsetHeadingsBy shifts every heading level. A level 1 heading maps to
	// Title at offset 0 and to Heading 1 at offset 1.
	OffsetHeadingsBy int
	// HardLineBreaks turns soft line breaks into line breaks
	HardLineBreaks bool
	// Resources loads images. Nil disables local images.
	Resources ResourceLoader
	// MaxImageWidth bounds image width in EMUs
	MaxImageWidth int64
}

// Result is the output of compiling one chapter
type Result struct {
	Blocks   []docx.Block
	Warnings docx.Warnings
}

// Compiler turns chapter Markdown into blocks bound to a style registry.
// Images are registered in the compiler's media table, so a Compiler must
// not be shared by concurrent builds.
type Compiler struct {
	registry *docx.StyleRegistry
	media    *docx.MediaTable
	opts     Options
	engine   goldmark.Markdown
	styles   roleStyles
}

type roleStyles struct {
	normal    string
	code      string
	quote     string
	list      string
	table     string
	hyperlink string
	verbatim  string
}

// New creates a compiler bound to registry. Images are stored in media.
func New(registry *docx.StyleRegistry, media *docx.MediaTable, opts Options) *Compiler {
	if opts.MaxImageWidth <= 0 {
		opts.MaxImageWidth = DefaultMaxImageWidth
	}
	if media == nil {
		media = docx.NewMediaTable()
	}
	return &Compiler{
		registry: registry,
		media:    media,
		opts:     opts,
		engine:   newEngine(),
		styles: roleStyles{
			normal:    registry.RoleID(docx.RoleNormal),
			code:      registry.RoleID(docx.RoleCodeBlock),
			quote:     registry.RoleID(docx.RoleBlockQuote),
			list:      registry.RoleID(docx.RoleListParagraph),
			table:     registry.RoleID(docx.RoleTable),
			hyperlink: registry.RoleID(docx.RoleHyperlink),
			verbatim:  registry.RoleID(docx.RoleVerbatimChar),
		},
	}
}

func newEngine() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithAttribute(),
		),
		goldmark.WithExtensions(
			extension.Table,
			extension.Strikethrough,
			extension.TaskList,
			extension.Linkify,
			extension.Footnote,
		),
	)
}

// Media returns the table images are registered in
func (c *Compiler) Media() *docx.MediaTable {
	return c.media
}

// Compile parses one chapter. name is the chapter's path relative to the
// source directory and anchors relative image paths.
func (c *Compiler) Compile(name string, source []byte) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("compile %s: %w", name, docx.RecoverError(r))
			result = nil
		}
	}()

	st := &state{c: c, name: name, warnings: &docx.Warnings{}, allowHTML: true}
	st.source = st.stripFrontMatter(source)
	blocks := st.document()
	return &Result{Blocks: blocks, Warnings: *st.warnings}, nil
}

// stripFrontMatter removes a leading YAML or TOML front matter block. Input
// that does not parse as front matter is compiled unchanged.
func (s *state) stripFrontMatter(source []byte) []byte {
	if !bytes.HasPrefix(source, []byte("---")) && !bytes.HasPrefix(source, []byte("+++")) {
		return source
	}
	var meta map[string]interface{}
	rest, err := frontmatter.Parse(bytes.NewReader(source), &meta)
	if err != nil || len(meta) == 0 {
		return source
	}
	return rest
}

// state is the per-chapter compilation state
type state struct {
	c         *Compiler
	name      string
	source    []byte
	warnings  *docx.Warnings
	allowHTML bool
}

func (s *state) warnf(format string, args ...interface{}) {
	s.warnings.Addf(s.name, format, args...)
}

func (s *state) document() []docx.Block {
	doc := s.c.engine.Parser().Parse(text.NewReader(s.source))
	return s.blocks(doc, blockContext{style: s.c.styles.normal})
}

// nested compiles Markdown produced while compiling this chapter, such as
// converted HTML. Raw HTML in it is not converted again.
func (s *state) nested(source []byte, ctx blockContext) []docx.Block {
	child := &state{c: s.c, name: s.name, source: source, warnings: s.warnings}
	doc := s.c.engine.Parser().Parse(text.NewReader(source))
	return child.blocks(doc, ctx)
}

// linesText joins the source lines of a block node
func (s *state) linesText(n ast.Node) []byte {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(s.source))
	}
	return buf.Bytes()
}
