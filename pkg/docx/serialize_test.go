package docx

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/antchfx/xmlquery"

	"github.com/RossMurr4y/mdbook-docx/pkg/docx/ooxml"
)

// tinyPNG is a 1x1 transparent PNG
var tinyPNG = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d, 0x49, 0x48, 0x44, 0x52,
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01, 0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4,
	0x89, 0x00, 0x00, 0x00, 0x0d, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x60, 0x00, 0x02, 0x00,
	0x00, 0x05, 0x00, 0x01, 0xe9, 0xfa, 0xdc, 0xd8, 0x00, 0x00, 0x00, 0x00, 0x49, 0x45, 0x4e, 0x44,
	0xae, 0x42, 0x60, 0x82,
}

func sampleDocument(t *testing.T) *CompiledDocument {
	t.Helper()
	tmpl, err := DefaultTemplate()
	if err != nil {
		t.Fatalf("DefaultTemplate() error = %v", err)
	}
	r := tmpl.Registry
	media := NewMediaTable()
	key := media.Register(tinyPNG, "png")
	site := &Link{URL: "https://example.com/?a=1&b=2"}
	ref := MediaRef{Key: key, Width: 9525, Height: 9525, Name: "dot.png"}

	blocks := []Block{
		&Heading{Level: 1, Role: RoleTitle, StyleID: r.RoleID(RoleTitle), Anchor: "intro", Runs: []Run{{Text: "Intro"}}},
		&Paragraph{StyleID: r.RoleID(RoleNormal), Runs: []Run{
			{Text: "See "},
			{Text: "the site", Link: site, StyleID: r.RoleID(RoleHyperlink)},
			{Text: " or "},
			{Text: "again", Link: site, StyleID: r.RoleID(RoleHyperlink)},
			{Text: " and "},
			{Text: "intro", Link: &Link{Anchor: "intro"}, StyleID: r.RoleID(RoleHyperlink)},
		}},
		&List{StyleID: r.RoleID(RoleListParagraph), Ordered: true, Start: 3, Items: [][]Block{
			{&Paragraph{StyleID: r.RoleID(RoleListParagraph), Runs: []Run{{Text: "three"}}}},
			{&Paragraph{StyleID: r.RoleID(RoleListParagraph), Runs: []Run{{Text: "four"}}},
				&List{StyleID: r.RoleID(RoleListParagraph), Items: [][]Block{
					{&Paragraph{StyleID: r.RoleID(RoleListParagraph), Runs: []Run{{Text: "nested"}}}},
				}}},
		}},
		&CodeBlock{StyleID: r.RoleID(RoleCodeBlock), Lines: []string{"a := 1", "  b := 2"}},
		&Table{StyleID: r.RoleID(RoleTable), Columns: 2, Rows: []TableRow{
			{Header: true, Cells: []TableCell{
				{Blocks: []Block{&Paragraph{StyleID: r.RoleID(RoleNormal), Runs: []Run{{Text: "k", Bold: true}}}}},
				{Blocks: []Block{&Paragraph{StyleID: r.RoleID(RoleNormal), Runs: []Run{{Text: "v", Bold: true}}}}},
			}},
			{Cells: []TableCell{{Span: 2}}},
		}},
		&Image{StyleID: r.RoleID(RoleNormal), Media: ref},
		&Paragraph{StyleID: r.RoleID(RoleNormal), Runs: []Run{{Text: "inline "}, {Image: &ref}}},
		&ThematicBreak{StyleID: r.RoleID(RoleNormal)},
	}

	doc, err := Assemble(AssemblyInput{
		Template: tmpl,
		Chapters: [][]Block{blocks},
		Media:    media,
		Properties: DocumentProperties{
			Title:   "Sample",
			Creator: "Tester",
			Created: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		},
	})
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	return doc
}

func TestPackageParts(t *testing.T) {
	data, err := sampleDocument(t).Package()
	if err != nil {
		t.Fatalf("Package() error = %v", err)
	}
	parts := readParts(t, data)

	for _, name := range []string{
		"[Content_Types].xml",
		"_rels/.rels",
		"docProps/core.xml",
		"docProps/app.xml",
		"word/document.xml",
		"word/_rels/document.xml.rels",
		"word/styles.xml",
		"word/settings.xml",
		"word/numbering.xml",
		"word/media/image1.png",
	} {
		if _, ok := parts[name]; !ok {
			t.Errorf("package is missing %s", name)
		}
	}

	media := 0
	for name := range parts {
		if strings.HasPrefix(name, "word/media/") {
			media++
		}
	}
	if media != 1 {
		t.Errorf("package holds %d media parts, want 1", media)
	}

	if !bytes.Contains(parts["[Content_Types].xml"], []byte(`Extension="png"`)) {
		t.Error("content types do not register png")
	}
	if !bytes.Contains(parts["docProps/core.xml"], []byte("Sample")) {
		t.Error("core properties do not carry the title")
	}
}

func TestPackageRelationships(t *testing.T) {
	data, err := sampleDocument(t).Package()
	if err != nil {
		t.Fatalf("Package() error = %v", err)
	}
	parts := readParts(t, data)

	rels, err := ooxml.ParseRelationships(bytes.NewReader(parts["word/_rels/document.xml.rels"]))
	if err != nil {
		t.Fatalf("ParseRelationships() error = %v", err)
	}
	counts := map[string]int{}
	for _, rel := range rels.Relationships {
		counts[rel.Type]++
		if rel.Type == ooxml.RelTypeHyperlink {
			if rel.TargetMode != "External" {
				t.Errorf("hyperlink %s is not external", rel.ID)
			}
			if rel.Target != "https://example.com/?a=1&b=2" {
				t.Errorf("hyperlink target = %q", rel.Target)
			}
		}
	}
	if counts[ooxml.RelTypeImage] != 2 {
		t.Errorf("got %d image relationships, want one per occurrence (2)", counts[ooxml.RelTypeImage])
	}
	if counts[ooxml.RelTypeHyperlink] != 1 {
		t.Errorf("got %d hyperlink relationships, want 1", counts[ooxml.RelTypeHyperlink])
	}
	for _, want := range []string{ooxml.RelTypeStyles, ooxml.RelTypeSettings, ooxml.RelTypeNumbering} {
		if counts[want] != 1 {
			t.Errorf("missing relationship %s", want)
		}
	}
}

func TestPackageDocumentBody(t *testing.T) {
	data, err := sampleDocument(t).Package()
	if err != nil {
		t.Fatalf("Package() error = %v", err)
	}
	parts := readParts(t, data)

	doc, err := xmlquery.Parse(bytes.NewReader(parts["word/document.xml"]))
	if err != nil {
		t.Fatalf("document.xml is not well formed: %v", err)
	}

	title := xmlquery.FindOne(doc, "//w:body/w:p[1]")
	if title == nil {
		t.Fatal("no first paragraph")
	}
	if style := xmlquery.FindOne(title, "w:pPr/w:pStyle"); style == nil || style.SelectAttr("w:val") != "Title" {
		t.Errorf("first paragraph is not bound to Title")
	}
	if bm := xmlquery.FindOne(title, "w:bookmarkStart"); bm == nil || bm.SelectAttr("w:name") != "intro" {
		t.Error("heading has no bookmark named intro")
	}

	if n := len(xmlquery.Find(doc, "//w:hyperlink")); n != 3 {
		t.Errorf("got %d hyperlinks, want 3", n)
	}
	if a := xmlquery.FindOne(doc, "//w:hyperlink[@w:anchor='intro']"); a == nil {
		t.Error("internal link to intro missing")
	}

	numbered := xmlquery.Find(doc, "//w:p[w:pPr/w:numPr]")
	if len(numbered) != 3 {
		t.Errorf("got %d numbered paragraphs, want 3", len(numbered))
	}
	if lvl := xmlquery.FindOne(doc, "//w:p[w:r/w:t='nested']/w:pPr/w:numPr/w:ilvl"); lvl == nil || lvl.SelectAttr("w:val") != "1" {
		t.Error("nested list item is not at level 1")
	}

	code := xmlquery.FindOne(doc, "//w:p[w:pPr/w:pStyle/@w:val='SourceCode']")
	if code == nil {
		t.Fatal("code block paragraph missing")
	}
	if n := len(xmlquery.Find(code, "w:r/w:br")); n != 1 {
		t.Errorf("code block has %d line breaks, want 1", n)
	}
	if !bytes.Contains(parts["word/document.xml"], []byte(`<w:t xml:space="preserve">  b := 2</w:t>`)) {
		t.Error("leading spaces in code are not preserved")
	}

	if n := len(xmlquery.Find(doc, "//w:tbl/w:tr")); n != 2 {
		t.Errorf("got %d table rows, want 2", n)
	}
	if n := len(xmlquery.Find(doc, "//w:drawing")); n != 2 {
		t.Errorf("got %d drawings, want 2", n)
	}
	if xmlquery.FindOne(doc, "//w:pBdr/w:bottom") == nil {
		t.Error("thematic break has no bottom border")
	}
	if xmlquery.FindOne(doc, "/w:document/w:body/w:sectPr") == nil {
		t.Error("body has no section properties")
	}
}

func TestPackageStartOverride(t *testing.T) {
	data, err := sampleDocument(t).Package()
	if err != nil {
		t.Fatalf("Package() error = %v", err)
	}
	parts := readParts(t, data)

	numbering, err := xmlquery.Parse(bytes.NewReader(parts["word/numbering.xml"]))
	if err != nil {
		t.Fatalf("numbering.xml is not well formed: %v", err)
	}
	if n := len(xmlquery.Find(numbering, "//w:num")); n != 2 {
		t.Errorf("got %d numbering instances, want one per list (2)", n)
	}
	start := xmlquery.FindOne(numbering, "//w:startOverride")
	if start == nil || start.SelectAttr("w:val") != "3" {
		t.Error("ordered list does not restart at 3")
	}
}

func TestPackageRoundTrip(t *testing.T) {
	data, err := sampleDocument(t).Package()
	if err != nil {
		t.Fatalf("Package() error = %v", err)
	}

	tmpl, err := ParseTemplate("out.docx", data)
	if err != nil {
		t.Fatalf("output does not load as a template: %v", err)
	}
	if tmpl.Registry.RoleID(RoleTitle) != "Title" {
		t.Errorf("Title role bound to %q", tmpl.Registry.RoleID(RoleTitle))
	}

	frag, err := ParseFragment("out.docx", data)
	if err != nil {
		t.Fatalf("output does not load as a fragment: %v", err)
	}
	texts := blockTexts(frag.Blocks)
	want := []string{"Intro", "See the site or again and intro", "three", "four", "nested"}
	if !reflect.DeepEqual(texts[:len(want)], want) {
		t.Errorf("texts = %v, want prefix %v", texts, want)
	}
	if frag.Media.Len() != 1 {
		t.Errorf("fragment media = %d entries, want 1", frag.Media.Len())
	}
}

func TestPackageKeepsExplicitOffs(t *testing.T) {
	body := `<w:p><w:pPr><w:pStyle w:val="Heading1"/><w:keepNext w:val="0"/></w:pPr>` +
		`<w:r><w:t>on</w:t></w:r>` +
		`<w:r><w:rPr><w:b w:val="0"/><w:u w:val="none"/></w:rPr><w:t>off</w:t></w:r></w:p>`
	data := buildPackage(t, map[string]string{
		"word/document.xml": testBody(body),
		"word/styles.xml":   testStyles(testNormalStyle, redHeading),
	})
	frag, err := ParseFragment("cover.docx", data)
	if err != nil {
		t.Fatalf("ParseFragment() error = %v", err)
	}
	off := frag.Blocks[0].(*Paragraph).Runs[1]
	if off.Bold || off.Format == nil || off.Format.Bold != ooxml.ToggleOff {
		t.Fatalf("explicit bold off not kept on the run: %+v", off)
	}

	tmpl, err := DefaultTemplate()
	if err != nil {
		t.Fatalf("DefaultTemplate() error = %v", err)
	}
	doc, err := Assemble(AssemblyInput{Template: tmpl, Prepend: []*Fragment{frag}})
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	out, err := doc.Package()
	if err != nil {
		t.Fatalf("Package() error = %v", err)
	}
	parsed, err := xmlquery.Parse(bytes.NewReader(readParts(t, out)["word/document.xml"]))
	if err != nil {
		t.Fatalf("parse document.xml: %v", err)
	}

	tests := []struct {
		query string
		want  string
	}{
		{"//w:r[w:t='off']/w:rPr/w:b", "0"},
		{"//w:r[w:t='off']/w:rPr/w:u", "none"},
		{"//w:p[w:r/w:t='on']/w:pPr/w:keepNext", "0"},
	}
	for _, tt := range tests {
		n := xmlquery.FindOne(parsed, tt.query)
		if n == nil {
			t.Errorf("%s missing", tt.query)
			continue
		}
		if got := n.SelectAttr("w:val"); got != tt.want {
			t.Errorf("%s w:val = %q, want %q", tt.query, got, tt.want)
		}
	}
	if xmlquery.FindOne(parsed, "//w:r[w:t='on']/w:rPr/w:b") != nil {
		t.Error("run without formatting gained w:b")
	}
}
