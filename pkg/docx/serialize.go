package docx

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/RossMurr4y/mdbook-docx/pkg/docx/ooxml"
)

const (
	// textWidth is the usable width of a Letter page with one inch margins
	textWidth   = 9360
	listIndent  = 720
	listHanging = 360
	maxLevels   = 9
)

// Package serializes the document as a complete .docx package
func (d *CompiledDocument) Package() ([]byte, error) {
	s := newSerializer(d)
	data, err := s.write()
	if err != nil {
		return nil, NewDocumentError(ErrAssemblyFailed, "serialization", "", err)
	}
	return data, nil
}

type serializer struct {
	doc        *CompiledDocument
	rels       []ooxml.Relationship
	nextRel    int
	hyperlinks map[string]string
	mediaParts map[string]string
	mediaOrder []*MediaEntry
	numbering  *ooxml.Numbering
	bullet     int
	decimal    int
	maxNum     int
	maxAbs     int
	bookmarks  int
	drawings   int
}

func newSerializer(d *CompiledDocument) *serializer {
	s := &serializer{
		doc:        d,
		nextRel:    4,
		hyperlinks: make(map[string]string),
		mediaParts: make(map[string]string),
		numbering:  d.Registry.Numbering().Clone(),
		bullet:     -1,
		decimal:    -1,
	}
	if s.numbering == nil {
		s.numbering = &ooxml.Numbering{Prefixes: ooxml.Prefixes{}}
	}
	s.maxAbs, s.maxNum = s.numbering.MaxIDs()
	return s
}

func (s *serializer) write() ([]byte, error) {
	body := ooxml.Body{Elements: s.blocks(s.doc.Blocks, 0)}
	body.SectionProperties = s.doc.Section
	if body.SectionProperties == nil {
		if tmpl, err := DefaultTemplate(); err == nil {
			body.SectionProperties = tmpl.Section
		}
	}
	documentXML, err := ooxml.MarshalDocument(&ooxml.Document{Prefixes: s.doc.Prefixes, Body: body})
	if err != nil {
		return nil, err
	}

	hasNumbering := len(s.numbering.Nums) > 0
	rels := []ooxml.Relationship{
		{ID: "rId1", Type: ooxml.RelTypeStyles, Target: "styles.xml"},
		{ID: "rId2", Type: ooxml.RelTypeSettings, Target: "settings.xml"},
	}
	if hasNumbering {
		rels = append(rels, ooxml.Relationship{ID: "rId3", Type: ooxml.RelTypeNumbering, Target: "numbering.xml"})
	}
	rels = append(rels, s.rels...)
	documentRels, err := ooxml.MarshalRelationships(rels)
	if err != nil {
		return nil, err
	}

	packageRels, err := ooxml.MarshalRelationships([]ooxml.Relationship{
		{ID: "rId1", Type: ooxml.RelTypeOfficeDocument, Target: "word/document.xml"},
		{ID: "rId2", Type: ooxml.RelTypeCoreProperties, Target: "docProps/core.xml"},
		{ID: "rId3", Type: ooxml.RelTypeExtendedProps, Target: "docProps/app.xml"},
	})
	if err != nil {
		return nil, err
	}

	props := s.doc.Properties
	created := props.Created
	if created.IsZero() {
		created = time.Now()
	}
	coreXML, err := ooxml.MarshalCoreProperties(props.Title, props.Creator, props.Language, props.Identifier, created)
	if err != nil {
		return nil, err
	}
	appXML, err := ooxml.MarshalAppProperties("mdbook-docx", "")
	if err != nil {
		return nil, err
	}

	contentTypes, err := ooxml.MarshalContentTypes(s.contentTypes(hasNumbering))
	if err != nil {
		return nil, err
	}

	parts := []struct {
		name string
		data []byte
	}{
		{"[Content_Types].xml", contentTypes},
		{"_rels/.rels", packageRels},
		{"docProps/core.xml", coreXML},
		{"docProps/app.xml", appXML},
		{"word/document.xml", documentXML},
		{"word/_rels/document.xml.rels", documentRels},
		{"word/styles.xml", s.doc.Registry.StylesXML()},
		{"word/settings.xml", []byte(settingsXML)},
	}
	if hasNumbering {
		parts = append(parts, struct {
			name string
			data []byte
		}{"word/numbering.xml", ooxml.MarshalNumbering(s.numbering)})
	}
	for _, entry := range s.mediaOrder {
		parts = append(parts, struct {
			name string
			data []byte
		}{"word/" + s.mediaParts[entry.Key], entry.Data})
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, part := range parts {
		w, err := zw.Create(part.name)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", part.name, err)
		}
		if _, err := w.Write(part.data); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", part.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close package: %w", err)
	}
	return buf.Bytes(), nil
}

const settingsXML = ooxml.Header + `<w:settings xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
	`<w:defaultTabStop w:val="720"/><w:characterSpacingControl w:val="doNotCompress"/>` +
	`<w:compat><w:compatSetting w:name="compatibilityMode" w:uri="http://schemas.microsoft.com/office/word" w:val="15"/></w:compat>` +
	`</w:settings>`

func (s *serializer) contentTypes(hasNumbering bool) ooxml.ContentTypes {
	ct := ooxml.ContentTypes{
		Defaults: []ooxml.Default{
			{Extension: "rels", ContentType: ooxml.ContentTypeRelationships},
			{Extension: "xml", ContentType: ooxml.ContentTypeXML},
		},
		Overrides: []ooxml.Override{
			{PartName: "/word/document.xml", ContentType: ooxml.ContentTypeDocument},
			{PartName: "/word/styles.xml", ContentType: ooxml.ContentTypeStyles},
			{PartName: "/word/settings.xml", ContentType: ooxml.ContentTypeSettings},
			{PartName: "/docProps/core.xml", ContentType: ooxml.ContentTypeCore},
			{PartName: "/docProps/app.xml", ContentType: ooxml.ContentTypeExtended},
		},
	}
	if hasNumbering {
		ct.Overrides = append(ct.Overrides, ooxml.Override{PartName: "/word/numbering.xml", ContentType: ooxml.ContentTypeNumbering})
	}
	seen := map[string]bool{}
	for _, entry := range s.mediaOrder {
		if seen[entry.Extension] {
			continue
		}
		seen[entry.Extension] = true
		ct.Defaults = append(ct.Defaults, ooxml.Default{Extension: entry.Extension, ContentType: entry.ContentType()})
	}
	return ct
}

func (s *serializer) relationship(relType, target, mode string) string {
	id := "rId" + strconv.Itoa(s.nextRel)
	s.nextRel++
	s.rels = append(s.rels, ooxml.Relationship{ID: id, Type: relType, Target: target, TargetMode: mode})
	return id
}

// imageRel adds a relationship for one occurrence of a media entry. The
// part is written once however many times the entry is placed.
func (s *serializer) imageRel(key string) string {
	part, ok := s.mediaParts[key]
	if !ok {
		entry, _ := s.doc.Media.Get(key)
		part = fmt.Sprintf("media/image%d.%s", len(s.mediaOrder)+1, entry.Extension)
		s.mediaParts[key] = part
		s.mediaOrder = append(s.mediaOrder, entry)
	}
	return s.relationship(ooxml.RelTypeImage, part, "")
}

func (s *serializer) hyperlinkRel(url string) string {
	if id, ok := s.hyperlinks[url]; ok {
		return id
	}
	id := s.relationship(ooxml.RelTypeHyperlink, url, "External")
	s.hyperlinks[url] = id
	return id
}

func (s *serializer) blocks(blocks []Block, depth int) []ooxml.BodyElement {
	var out []ooxml.BodyElement
	for _, b := range blocks {
		out = append(out, s.block(b, depth)...)
	}
	return out
}

func (s *serializer) block(b Block, depth int) []ooxml.BodyElement {
	switch v := b.(type) {
	case *Heading:
		p := s.paragraph(v.StyleID, nil, v.Runs)
		if v.Anchor != "" {
			s.bookmarks++
			id := strconv.Itoa(s.bookmarks)
			content := []ooxml.ParagraphContent{&ooxml.BookmarkStart{ID: id, Name: v.Anchor}}
			content = append(content, p.Content...)
			p.Content = append(content, &ooxml.BookmarkEnd{ID: id})
		}
		return []ooxml.BodyElement{p}
	case *Paragraph:
		p := s.paragraph(v.StyleID, v.Format, v.Runs)
		if v.Numbering != nil {
			p.Properties.Numbering = &ooxml.NumberingProperties{Level: v.Numbering.Level, NumID: v.Numbering.NumID}
		}
		return []ooxml.BodyElement{p}
	case *CodeBlock:
		runs := make([]Run, 0, 2*len(v.Lines))
		for i, line := range v.Lines {
			if i > 0 {
				runs = append(runs, Run{Break: LineBreak})
			}
			runs = append(runs, Run{Text: line})
		}
		return []ooxml.BodyElement{s.paragraph(v.StyleID, nil, runs)}
	case *List:
		return s.list(v, depth)
	case *Table:
		return []ooxml.BodyElement{s.table(v)}
	case *Image:
		ref := v.Media
		return []ooxml.BodyElement{s.paragraph(v.StyleID, nil, []Run{{Image: &ref}})}
	case *ThematicBreak:
		p := s.paragraph(v.StyleID, nil, nil)
		p.Properties.Border = &ooxml.ParagraphBorder{
			Bottom: &ooxml.Border{Val: "single", Size: 6, Space: 1, Color: "auto"},
		}
		return []ooxml.BodyElement{p}
	}
	return nil
}

func (s *serializer) paragraph(styleID string, format *ooxml.ParagraphProperties, runs []Run) *ooxml.Paragraph {
	props := format.Clone()
	if props == nil {
		props = &ooxml.ParagraphProperties{}
	}
	if styleID != "" {
		props.Style = &ooxml.Style{Val: styleID}
	}
	return &ooxml.Paragraph{Properties: props, Content: s.inline(runs)}
}

// inline converts runs, grouping consecutive runs that share a *Link into
// one hyperlink.
func (s *serializer) inline(runs []Run) []ooxml.ParagraphContent {
	var out []ooxml.ParagraphContent
	for i := 0; i < len(runs); {
		link := runs[i].Link
		if link == nil {
			out = append(out, s.run(&runs[i]))
			i++
			continue
		}
		h := &ooxml.Hyperlink{Anchor: link.Anchor}
		if link.URL != "" {
			h.ID = s.hyperlinkRel(link.URL)
		}
		for i < len(runs) && runs[i].Link == link {
			h.Runs = append(h.Runs, *s.run(&runs[i]))
			i++
		}
		out = append(out, h)
	}
	return out
}

func (s *serializer) run(r *Run) *ooxml.Run {
	props := r.Format.Clone()
	if props == nil {
		props = &ooxml.RunProperties{}
	}
	if r.StyleID != "" {
		props.Style = &ooxml.Style{Val: r.StyleID}
	}
	if r.Bold {
		props.Bold = ooxml.ToggleOn
	}
	if r.Italic {
		props.Italic = ooxml.ToggleOn
	}
	if r.Strike {
		props.Strike = ooxml.ToggleOn
	}
	if r.Underline && props.Underline == "" {
		props.Underline = "single"
	}

	out := &ooxml.Run{Properties: props}
	if r.Text != "" {
		out.Content = append(out.Content, &ooxml.Text{Content: r.Text})
	}
	if r.Tab {
		out.Content = append(out.Content, &ooxml.Tab{})
	}
	switch r.Break {
	case LineBreak:
		out.Content = append(out.Content, &ooxml.Break{})
	case PageBreak:
		out.Content = append(out.Content, &ooxml.Break{Type: "page"})
	}
	if r.Image != nil {
		s.drawings++
		out.Content = append(out.Content, &ooxml.Drawing{
			RelID:       s.imageRel(r.Image.Key),
			Cx:          r.Image.Width,
			Cy:          r.Image.Height,
			ID:          s.drawings,
			Name:        pictureName(r.Image, s.drawings),
			Description: r.Image.Description,
		})
	}
	return out
}

func pictureName(ref *MediaRef, n int) string {
	if ref.Name != "" {
		return ref.Name
	}
	return "Picture " + strconv.Itoa(n)
}

func (s *serializer) list(l *List, depth int) []ooxml.BodyElement {
	if depth >= maxLevels {
		depth = maxLevels - 1
	}
	numID := s.allocateNum(l.Ordered, l.Start, depth)
	var out []ooxml.BodyElement
	for _, item := range l.Items {
		first := true
		for _, b := range item {
			switch v := b.(type) {
			case *List:
				out = append(out, s.list(v, depth+1)...)
				continue
			case *Paragraph:
				p := s.paragraph(v.StyleID, v.Format, v.Runs)
				if first {
					p.Properties.Numbering = &ooxml.NumberingProperties{Level: depth, NumID: numID}
				} else {
					p.Properties.Indentation = &ooxml.Indentation{Left: listIndent * (depth + 1)}
				}
				out = append(out, p)
			default:
				out = append(out, s.block(b, depth+1)...)
			}
			first = false
		}
	}
	return out
}

// allocateNum creates a numbering instance for one list. Ordered lists
// restart at their start value.
func (s *serializer) allocateNum(ordered bool, start, level int) int {
	var abstractID int
	if ordered {
		if s.decimal < 0 {
			s.decimal = s.addAbstract(true)
		}
		abstractID = s.decimal
	} else {
		if s.bullet < 0 {
			s.bullet = s.addAbstract(false)
		}
		abstractID = s.bullet
	}

	s.maxNum++
	num := ooxml.Num{ID: s.maxNum, AbstractNumID: abstractID}
	if ordered {
		if start < 0 {
			start = 0
		}
		num.Overrides = []byte(fmt.Sprintf(`<w:lvlOverride w:ilvl="%d"><w:startOverride w:val="%d"></w:startOverride></w:lvlOverride>`, level, start))
	}
	s.numbering.Nums = append(s.numbering.Nums, num)
	return num.ID
}

var (
	bulletGlyphs  = []string{"•", "◦", "▪"}
	numberFormats = []string{"decimal", "lowerLetter", "lowerRoman"}
)

func (s *serializer) addAbstract(ordered bool) int {
	s.maxAbs++
	var sb strings.Builder
	sb.WriteString(`<w:multiLevelType w:val="hybridMultilevel"></w:multiLevelType>`)
	for lvl := 0; lvl < maxLevels; lvl++ {
		format, text := "bullet", bulletGlyphs[lvl%len(bulletGlyphs)]
		if ordered {
			format = numberFormats[lvl%len(numberFormats)]
			text = fmt.Sprintf("%%%d.", lvl+1)
		}
		fmt.Fprintf(&sb, `<w:lvl w:ilvl="%d"><w:start w:val="1"></w:start><w:numFmt w:val="%s"></w:numFmt>`, lvl, format)
		fmt.Fprintf(&sb, `<w:lvlText w:val="%s"></w:lvlText><w:lvlJc w:val="left"></w:lvlJc>`, text)
		fmt.Fprintf(&sb, `<w:pPr><w:ind w:left="%d" w:hanging="%d"></w:ind></w:pPr></w:lvl>`, listIndent*(lvl+1), listHanging)
	}
	s.numbering.AbstractNums = append(s.numbering.AbstractNums, ooxml.AbstractNum{ID: s.maxAbs, Content: []byte(sb.String())})
	return s.maxAbs
}

func (s *serializer) table(t *Table) *ooxml.Table {
	columns := t.Columns
	for _, row := range t.Rows {
		if n := rowWidth(row); n > columns {
			columns = n
		}
	}
	if columns < 1 {
		columns = 1
	}
	grid := t.Widths
	if len(grid) != columns {
		grid = make([]int, columns)
		for i := range grid {
			grid[i] = textWidth / columns
		}
	}

	out := &ooxml.Table{
		Properties: &ooxml.TableProperties{
			Width: &ooxml.Width{W: 5000, Type: "pct"},
			Look:  "04A0",
		},
		Grid: grid,
	}
	if t.StyleID != "" {
		out.Properties.Style = &ooxml.Style{Val: t.StyleID}
	}
	for _, row := range t.Rows {
		r := ooxml.TableRow{Header: row.Header}
		col := 0
		for _, cell := range row.Cells {
			span := cell.Span
			if span < 1 {
				span = 1
			}
			width := 0
			for i := col; i < col+span && i < len(grid); i++ {
				width += grid[i]
			}
			col += span
			r.Cells = append(r.Cells, ooxml.TableCell{
				Width:    &ooxml.Width{W: width, Type: "dxa"},
				GridSpan: span,
				Elements: s.blocks(cell.Blocks, 0),
			})
		}
		out.Rows = append(out.Rows, r)
	}
	return out
}
