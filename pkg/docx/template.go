package docx

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/RossMurr4y/mdbook-docx/pkg/docx/ooxml"
)

// Template is a parsed reference document: its style registry and the page
// setup new documents inherit.
type Template struct {
	Path     string
	Registry *StyleRegistry
	Section  *ooxml.RawXMLElement
	Prefixes ooxml.Prefixes
}

// LoadTemplate builds a Template from a .docx file. An empty path selects
// the built-in template.
func LoadTemplate(path string) (*Template, error) {
	if path == "" {
		return DefaultTemplate()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewDocumentError(ErrTemplateCorrupt, "template load", path, err)
	}
	return ParseTemplate(path, data)
}

// ParseTemplate builds a Template from package bytes
func ParseTemplate(path string, data []byte) (*Template, error) {
	fail := func(cause error) error {
		return NewDocumentError(ErrTemplateCorrupt, "template load", path, cause)
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

	registry, err := BuildRegistry(path, stylesXML, numberingXML, RegistryOptions{BindRoles: true})
	if errors.Is(err, errMissingNormal) {
		return nil, NewDocumentError(ErrTemplateIncomplete, "template load", path, err)
	}
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

	tmpl := &Template{Path: path, Registry: registry, Prefixes: doc.Prefixes}
	if sect := doc.Body.SectionProperties; sect != nil {
		tmpl.Section = &ooxml.RawXMLElement{
			XMLName: sect.XMLName,
			Attrs:   sect.Attrs,
			Content: ooxml.RemoveLeaves(sect.Content, "headerReference", "footerReference", "printerSettings"),
		}
	}
	return tmpl, nil
}

// readRelatedPart returns the part related to the main document by relType,
// falling back to the conventional name. A missing part yields nil.
func readRelatedPart(pkg *Package, relType, fallback string) ([]byte, error) {
	name, ok := pkg.PartOfType(relType)
	if !ok {
		name = fallback
	}
	if !pkg.HasPart(name) {
		return nil, nil
	}
	return pkg.ReadPart(name)
}

var (
	builtinOnce     sync.Once
	builtinTemplate *Template
	builtinErr      error
)

// DefaultTemplate returns the built-in template used when a document names
// none
func DefaultTemplate() (*Template, error) {
	builtinOnce.Do(func() {
		builtinTemplate, builtinErr = ParseTemplate("", DefaultTemplateBytes())
	})
	return builtinTemplate, builtinErr
}

func builtinRegistry() (*StyleRegistry, error) {
	tmpl, err := DefaultTemplate()
	if err != nil {
		return nil, err
	}
	return tmpl.Registry, nil
}

// DefaultTemplateBytes returns the built-in reference document
func DefaultTemplateBytes() []byte {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	parts := []struct{ name, content string }{
		{"[Content_Types].xml", defaultContentTypes},
		{"_rels/.rels", defaultPackageRels},
		{"word/_rels/document.xml.rels", defaultDocumentRels},
		{"word/document.xml", defaultDocument},
		{"word/styles.xml", defaultStyles()},
	}
	for _, part := range parts {
		w, err := zw.Create(part.name)
		if err != nil {
			panic(fmt.Sprintf("built-in template: %v", err))
		}
		if _, err := w.Write([]byte(part.content)); err != nil {
			panic(fmt.Sprintf("built-in template: %v", err))
		}
	}
	if err := zw.Close(); err != nil {
		panic(fmt.Sprintf("built-in template: %v", err))
	}
	return buf.Bytes()
}

const defaultContentTypes = ooxml.Header + `<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
	`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
	`<Default Extension="xml" ContentType="application/xml"/>` +
	`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
	`<Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/>` +
	`</Types>`

const defaultPackageRels = ooxml.Header + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
	`</Relationships>`

const defaultDocumentRels = ooxml.Header + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>` +
	`</Relationships>`

const defaultDocument = ooxml.Header + `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" ` +
	`xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"><w:body>` +
	`<w:sectPr><w:pgSz w:w="12240" w:h="15840"/>` +
	`<w:pgMar w:top="1440" w:right="1440" w:bottom="1440" w:left="1440" w:header="720" w:footer="720" w:gutter="0"/>` +
	`<w:cols w:space="720"/></w:sectPr>` +
	`</w:body></w:document>`

type builtinStyle struct {
	kind, id, name, basedOn, next string
	isDefault                     bool
	body                          string
}

var builtinStyles = []builtinStyle{
	{kind: "paragraph", id: "Normal", name: "Normal", isDefault: true,
		body: `<w:qFormat/><w:pPr><w:spacing w:after="160" w:line="276" w:lineRule="auto"/></w:pPr>` +
			`<w:rPr><w:rFonts w:ascii="Calibri" w:hAnsi="Calibri" w:eastAsia="Calibri" w:cs="Calibri"/><w:sz w:val="22"/><w:szCs w:val="22"/></w:rPr>`},
	{kind: "paragraph", id: "Title", name: "Title", basedOn: "Normal", next: "Normal",
		body: `<w:qFormat/><w:pPr><w:keepNext/><w:keepLines/><w:spacing w:before="480" w:after="240"/><w:jc w:val="center"/></w:pPr>` +
			`<w:rPr><w:b/><w:sz w:val="56"/><w:szCs w:val="56"/></w:rPr>`},
	{kind: "paragraph", id: "Heading1", name: "heading 1", basedOn: "Normal", next: "Normal", body: headingBody(0, 32)},
	{kind: "paragraph", id: "Heading2", name: "heading 2", basedOn: "Normal", next: "Normal", body: headingBody(1, 28)},
	{kind: "paragraph", id: "Heading3", name: "heading 3", basedOn: "Normal", next: "Normal", body: headingBody(2, 26)},
	{kind: "paragraph", id: "Heading4", name: "heading 4", basedOn: "Normal", next: "Normal", body: headingBody(3, 24)},
	{kind: "paragraph", id: "Heading5", name: "heading 5", basedOn: "Normal", next: "Normal", body: headingBody(4, 22)},
	{kind: "paragraph", id: "Heading6", name: "heading 6", basedOn: "Normal", next: "Normal", body: headingBody(5, 22)},
	{kind: "paragraph", id: "Heading7", name: "heading 7", basedOn: "Normal", next: "Normal", body: headingBody(6, 22)},
	{kind: "paragraph", id: "Heading8", name: "heading 8", basedOn: "Normal", next: "Normal", body: headingBody(7, 22)},
	{kind: "paragraph", id: "SourceCode", name: "Source Code", basedOn: "Normal",
		body: `<w:qFormat/><w:pPr><w:shd w:val="clear" w:color="auto" w:fill="F5F5F5"/><w:wordWrap w:val="0"/><w:spacing w:before="120" w:after="120" w:line="240" w:lineRule="auto"/></w:pPr>` +
			`<w:rPr><w:rFonts w:ascii="Consolas" w:hAnsi="Consolas" w:cs="Consolas"/><w:sz w:val="20"/></w:rPr>`},
	{kind: "paragraph", id: "ListParagraph", name: "List Paragraph", basedOn: "Normal",
		body: `<w:qFormat/><w:pPr><w:spacing w:after="60"/><w:ind w:left="720"/><w:contextualSpacing/></w:pPr>`},
	{kind: "paragraph", id: "BlockText", name: "Block Text", basedOn: "Normal", next: "Normal",
		body: `<w:qFormat/><w:pPr><w:pBdr><w:left w:val="single" w:sz="18" w:space="8" w:color="BFBFBF"/></w:pBdr><w:ind w:left="720" w:right="720"/></w:pPr>` +
			`<w:rPr><w:i/><w:color w:val="595959"/></w:rPr>`},
	{kind: "character", id: "DefaultParagraphFont", name: "Default Paragraph Font", isDefault: true,
		body: `<w:uiPriority w:val="1"/><w:semiHidden/><w:unhideWhenUsed/>`},
	{kind: "character", id: "Hyperlink", name: "Hyperlink", basedOn: "DefaultParagraphFont",
		body: `<w:rPr><w:color w:val="0563C1"/><w:u w:val="single"/></w:rPr>`},
	{kind: "character", id: "VerbatimChar", name: "Verbatim Char", basedOn: "DefaultParagraphFont",
		body: `<w:rPr><w:rFonts w:ascii="Consolas" w:hAnsi="Consolas" w:cs="Consolas"/><w:sz w:val="20"/></w:rPr>`},
	{kind: "table", id: "TableNormal", name: "Normal Table", isDefault: true,
		body: `<w:uiPriority w:val="99"/><w:semiHidden/><w:unhideWhenUsed/>` +
			`<w:tblPr><w:tblInd w:w="0" w:type="dxa"/><w:tblCellMar><w:top w:w="0" w:type="dxa"/><w:left w:w="108" w:type="dxa"/>` +
			`<w:bottom w:w="0" w:type="dxa"/><w:right w:w="108" w:type="dxa"/></w:tblCellMar></w:tblPr>`},
	{kind: "table", id: "TableGrid", name: "Table Grid", basedOn: "TableNormal",
		body: `<w:pPr><w:spacing w:after="0" w:line="240" w:lineRule="auto"/></w:pPr>` +
			`<w:tblPr><w:tblBorders><w:top w:val="single" w:sz="4" w:space="0" w:color="auto"/>` +
			`<w:left w:val="single" w:sz="4" w:space="0" w:color="auto"/><w:bottom w:val="single" w:sz="4" w:space="0" w:color="auto"/>` +
			`<w:right w:val="single" w:sz="4" w:space="0" w:color="auto"/><w:insideH w:val="single" w:sz="4" w:space="0" w:color="auto"/>` +
			`<w:insideV w:val="single" w:sz="4" w:space="0" w:color="auto"/></w:tblBorders></w:tblPr>`},
}

func headingBody(level, size int) string {
	return fmt.Sprintf(`<w:qFormat/><w:pPr><w:keepNext/><w:keepLines/><w:spacing w:before="240" w:after="80"/><w:outlineLvl w:val="%d"/></w:pPr>`+
		`<w:rPr><w:b/><w:sz w:val="%d"/><w:szCs w:val="%d"/></w:rPr>`, level, size, size)
}

func defaultStyles() string {
	var buf bytes.Buffer
	buf.WriteString(ooxml.Header)
	buf.WriteString(`<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">`)
	buf.WriteString(`<w:docDefaults><w:rPrDefault><w:rPr><w:lang w:val="en-US" w:eastAsia="en-US" w:bidi="ar-SA"/></w:rPr></w:rPrDefault>`)
	buf.WriteString(`<w:pPrDefault/></w:docDefaults>`)
	for _, s := range builtinStyles {
		buf.WriteString(`<w:style w:type="` + s.kind + `"`)
		if s.isDefault {
			buf.WriteString(` w:default="1"`)
		}
		buf.WriteString(` w:styleId="` + s.id + `">`)
		buf.WriteString(`<w:name w:val="` + s.name + `"/>`)
		if s.basedOn != "" {
			buf.WriteString(`<w:basedOn w:val="` + s.basedOn + `"/>`)
		}
		if s.next != "" {
			buf.WriteString(`<w:next w:val="` + s.next + `"/>`)
		}
		buf.WriteString(s.body)
		buf.WriteString(`</w:style>`)
	}
	buf.WriteString(`</w:styles>`)
	return buf.String()
}
