package docx

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"

	"github.com/RossMurr4y/mdbook-docx/pkg/docx/ooxml"
)

const (
	testContentTypes = ooxml.Header + `<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
		`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
		`<Default Extension="xml" ContentType="application/xml"/>` +
		`<Default Extension="png" ContentType="image/png"/>` +
		`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
		`</Types>`

	testPackageRels = ooxml.Header + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
		`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
		`</Relationships>`

	testStylesOpen  = ooxml.Header + `<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">`
	testStylesClose = `</w:styles>`

	testNormalStyle = `<w:style w:type="paragraph" w:default="1" w:styleId="Normal"><w:name w:val="Normal"/>` +
		`<w:rPr><w:sz w:val="22"/></w:rPr></w:style>`
)

// testBody wraps paragraphs in a document part
func testBody(content string) string {
	return ooxml.Header + `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" ` +
		`xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" ` +
		`xmlns:wp="http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing" ` +
		`xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" ` +
		`xmlns:pic="http://schemas.openxmlformats.org/drawingml/2006/picture"><w:body>` +
		content + `</w:body></w:document>`
}

func testStyles(styles ...string) string {
	out := testStylesOpen
	for _, s := range styles {
		out += s
	}
	return out + testStylesClose
}

func testParagraph(style, text string) string {
	props := ""
	if style != "" {
		props = `<w:pPr><w:pStyle w:val="` + style + `"/></w:pPr>`
	}
	return `<w:p>` + props + `<w:r><w:t>` + text + `</w:t></w:r></w:p>`
}

// buildPackage zips parts into a .docx. Content types and package
// relationships are added when missing.
func buildPackage(t *testing.T, parts map[string]string) []byte {
	t.Helper()
	if _, ok := parts["[Content_Types].xml"]; !ok {
		parts["[Content_Types].xml"] = testContentTypes
	}
	if _, ok := parts["_rels/.rels"]; !ok {
		parts["_rels/.rels"] = testPackageRels
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range parts {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

// readParts unzips a package into a name to content map
func readParts(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	parts := make(map[string][]byte, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", f.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("read %s: %v", f.Name, err)
		}
		parts[f.Name] = content
	}
	return parts
}

func mustRegistry(t *testing.T, stylesXML string, opts RegistryOptions) *StyleRegistry {
	t.Helper()
	r, err := BuildRegistry("test", []byte(stylesXML), nil, opts)
	if err != nil {
		t.Fatalf("BuildRegistry() error = %v", err)
	}
	return r
}

func blockTexts(blocks []Block) []string {
	var texts []string
	WalkBlocks(blocks, func(b Block) bool {
		if runs := BlockRuns(b); runs != nil {
			texts = append(texts, PlainText(runs))
		}
		return true
	})
	return texts
}
