package ooxml

import (
	"bytes"
	"encoding/xml"
	"strings"
	"testing"
)

const testDocument = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"
  xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"
  xmlns:wp="http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing"
  xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"
  xmlns:pic="http://schemas.openxmlformats.org/drawingml/2006/picture">
<w:body>
  <w:p>
    <w:pPr><w:pStyle w:val="Heading1"/><w:numPr><w:ilvl w:val="1"/><w:numId w:val="4"/></w:numPr><w:jc w:val="center"/></w:pPr>
    <w:r><w:rPr><w:b/><w:i w:val="0"/></w:rPr><w:t xml:space="preserve">Hello </w:t></w:r>
    <w:proofErr w:type="spellStart"/>
    <w:hyperlink r:id="rId7"><w:r><w:t>world</w:t></w:r></w:hyperlink>
    <w:ins w:id="1"><w:r><w:t>!</w:t><w:br/><w:tab/></w:r></w:ins>
  </w:p>
  <w:tbl>
    <w:tblPr><w:tblStyle w:val="TableGrid"/></w:tblPr>
    <w:tblGrid><w:gridCol w:w="4000"/><w:gridCol w:w="5000"/></w:tblGrid>
    <w:tr><w:trPr><w:tblHeader/></w:trPr><w:tc><w:p><w:r><w:t>A</w:t></w:r></w:p></w:tc><w:tc><w:p/></w:tc></w:tr>
  </w:tbl>
  <w:p><w:r><w:drawing><wp:inline><wp:extent cx="100" cy="200"/><wp:docPr id="3" name="Picture 3" descr="alt"/>
    <a:graphic><a:graphicData><pic:pic><pic:blipFill><a:blip r:embed="rId9"/></pic:blipFill></pic:pic></a:graphicData></a:graphic>
  </wp:inline></w:drawing></w:r></w:p>
  <w:altChunk r:id="rId10"/>
  <w:sectPr><w:pgSz w:w="11906" w:h="16838"/><w:headerReference w:type="default" r:id="rId2"/></w:sectPr>
</w:body>
</w:document>`

func TestParseDocument(t *testing.T) {
	doc, err := ParseDocument(strings.NewReader(testDocument))
	if err != nil {
		t.Fatalf("ParseDocument failed: %v", err)
	}

	if len(doc.Body.Elements) != 3 {
		t.Fatalf("Expected 3 body elements, got %d", len(doc.Body.Elements))
	}

	para, ok := doc.Body.Elements[0].(*Paragraph)
	if !ok {
		t.Fatalf("Expected first element to be a paragraph, got %T", doc.Body.Elements[0])
	}
	if para.Properties == nil || para.Properties.Style == nil || para.Properties.Style.Val != "Heading1" {
		t.Errorf("Expected pStyle Heading1, got %+v", para.Properties)
	}
	if para.Properties.Numbering == nil || para.Properties.Numbering.NumID != 4 || para.Properties.Numbering.Level != 1 {
		t.Errorf("Expected numPr level 1 numId 4, got %+v", para.Properties.Numbering)
	}
	if para.Properties.Alignment != "center" {
		t.Errorf("Expected alignment center, got %q", para.Properties.Alignment)
	}
	if got := para.GetText(); got != "Hello world!\n\t" {
		t.Errorf("Expected paragraph text %q, got %q", "Hello world!\n\t", got)
	}
	run := para.Content[0].(*Run)
	if run.Properties.Bold != ToggleOn || run.Properties.Italic != ToggleOff {
		t.Errorf("Expected bold and not italic, got %+v", run.Properties)
	}
	link, ok := para.Content[1].(*Hyperlink)
	if !ok || link.ID != "rId7" {
		t.Errorf("Expected hyperlink rId7, got %#v", para.Content[1])
	}

	table, ok := doc.Body.Elements[1].(*Table)
	if !ok {
		t.Fatalf("Expected table, got %T", doc.Body.Elements[1])
	}
	if table.Properties.Style.Val != "TableGrid" {
		t.Errorf("Expected table style TableGrid, got %q", table.Properties.Style.Val)
	}
	if len(table.Grid) != 2 || table.Grid[1] != 5000 {
		t.Errorf("Expected grid [4000 5000], got %v", table.Grid)
	}
	if len(table.Rows) != 1 || !table.Rows[0].Header || len(table.Rows[0].Cells) != 2 {
		t.Errorf("Unexpected rows: %+v", table.Rows)
	}

	picture := doc.Body.Elements[2].(*Paragraph).Content[0].(*Run).Content[0].(*Drawing)
	if picture.RelID != "rId9" || picture.Cx != 100 || picture.Cy != 200 || picture.Description != "alt" {
		t.Errorf("Unexpected drawing: %+v", picture)
	}

	if len(doc.Body.Skipped) != 1 || doc.Body.Skipped[0] != "altChunk" {
		t.Errorf("Expected altChunk to be reported as skipped, got %v", doc.Body.Skipped)
	}
	if doc.Body.SectionProperties == nil {
		t.Fatal("Expected section properties to be captured")
	}
	if !bytes.Contains(doc.Body.SectionProperties.Content, []byte(`<w:pgSz w:w="11906" w:h="16838">`)) {
		t.Errorf("Expected prefixed pgSz in section properties, got %s", doc.Body.SectionProperties.Content)
	}
}

func TestMarshalDocumentRoundTrip(t *testing.T) {
	doc, err := ParseDocument(strings.NewReader(testDocument))
	if err != nil {
		t.Fatalf("ParseDocument failed: %v", err)
	}

	data, err := MarshalDocument(doc)
	if err != nil {
		t.Fatalf("MarshalDocument failed: %v", err)
	}
	out := string(data)

	for _, want := range []string{
		`xmlns:w="` + NamespaceW + `"`,
		`<w:pStyle w:val="Heading1">`,
		`<w:t xml:space="preserve">Hello </w:t>`,
		`<w:b></w:b><w:i w:val="0"></w:i>`,
		`<w:hyperlink r:id="rId7">`,
		`<a:blip r:embed="rId9">`,
		`<w:sectPr>`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q", want)
		}
	}
	if idx := strings.Index(out, "<w:sectPr>"); idx > strings.Index(out, "</w:body>") {
		t.Error("Expected sectPr before closing body tag")
	}

	reparsed, err := ParseDocument(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Reparse failed: %v", err)
	}
	if len(reparsed.Body.Elements) != 3 {
		t.Errorf("Expected 3 elements after round trip, got %d", len(reparsed.Body.Elements))
	}
	if err := xml.Unmarshal(data, new(interface{})); err != nil {
		t.Errorf("Output is not well-formed XML: %v", err)
	}
}

func TestParseDocumentRejectsOtherRoots(t *testing.T) {
	_, err := ParseDocument(strings.NewReader(`<w:styles xmlns:w="` + NamespaceW + `"/>`))
	if err == nil {
		t.Fatal("Expected error for non-document root")
	}
}
