package docx

import (
	"errors"
	"reflect"
	"testing"
)

func testFragment(t *testing.T, name string, paragraphs ...string) *Fragment {
	t.Helper()
	body := ""
	for _, p := range paragraphs {
		body += testParagraph("Heading1", p)
	}
	data := buildPackage(t, map[string]string{
		"word/document.xml": testBody(body),
		"word/styles.xml":   testStyles(testNormalStyle, redHeading),
	})
	frag, err := ParseFragment(name, data)
	if err != nil {
		t.Fatalf("ParseFragment(%s) error = %v", name, err)
	}
	return frag
}

func TestAssembleOrdersPrependChaptersAppend(t *testing.T) {
	tmpl, err := DefaultTemplate()
	if err != nil {
		t.Fatalf("DefaultTemplate() error = %v", err)
	}
	normal := tmpl.Registry.RoleID(RoleNormal)
	chapter := func(text string) []Block {
		return []Block{&Paragraph{StyleID: normal, Runs: []Run{{Text: text}}}}
	}

	doc, err := Assemble(AssemblyInput{
		Template: tmpl,
		Prepend:  []*Fragment{testFragment(t, "cover.docx", "cover")},
		Chapters: [][]Block{chapter("one"), chapter("two")},
		Append:   []*Fragment{testFragment(t, "back.docx", "back")},
	})
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}

	want := []string{"cover", "one", "two", "back"}
	if got := blockTexts(doc.Blocks); !reflect.DeepEqual(got, want) {
		t.Errorf("block order = %v, want %v", got, want)
	}

	// both fragments carry the same Normal and red heading; each is added once
	cover := doc.Blocks[0].(*Paragraph)
	back := doc.Blocks[3].(*Paragraph)
	if cover.StyleID != back.StyleID {
		t.Errorf("identical fragment styles bound to %q and %q", cover.StyleID, back.StyleID)
	}
	if cover.StyleID == tmpl.Registry.RoleID(RoleHeading1) {
		t.Error("fragment heading overwrote the template heading")
	}
	if doc.Registry.Len() != tmpl.Registry.Len()+2 {
		t.Errorf("merged registry has %d styles, want %d", doc.Registry.Len(), tmpl.Registry.Len()+2)
	}
}

func TestAssembleRejectsDanglingReferences(t *testing.T) {
	tmpl, err := DefaultTemplate()
	if err != nil {
		t.Fatalf("DefaultTemplate() error = %v", err)
	}
	normal := tmpl.Registry.RoleID(RoleNormal)

	tests := []struct {
		name   string
		blocks []Block
	}{
		{"unknown paragraph style", []Block{&Paragraph{StyleID: "Missing"}}},
		{"unknown run style", []Block{&Paragraph{StyleID: normal, Runs: []Run{{Text: "x", StyleID: "Missing"}}}}},
		{"unknown numbering", []Block{&Paragraph{StyleID: normal, Numbering: &NumberingRef{NumID: 9}}}},
		{"unknown media", []Block{&Image{StyleID: normal, Media: MediaRef{Key: "nope"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Assemble(AssemblyInput{Template: tmpl, Chapters: [][]Block{tt.blocks}})
			if !errors.Is(err, ErrAssemblyFailed) {
				t.Fatalf("Assemble() error = %v, want ErrAssemblyFailed", err)
			}
		})
	}
}

func TestParseFragment(t *testing.T) {
	body := testParagraph("", "plain") +
		`<w:p><w:pPr><w:pStyle w:val="Heading1"/><w:jc w:val="center"/></w:pPr>` +
		`<w:r><w:rPr><w:b/></w:rPr><w:t>bold</w:t></w:r><w:r><w:tab/><w:t xml:space="preserve"> tail</w:t></w:r></w:p>` +
		`<w:tbl><w:tblGrid><w:gridCol w:w="4000"/></w:tblGrid><w:tr><w:tc><w:p><w:r><w:t>cell</w:t></w:r></w:p></w:tc></w:tr></w:tbl>`
	data := buildPackage(t, map[string]string{
		"word/document.xml": testBody(body),
		"word/styles.xml":   testStyles(testNormalStyle, redHeading),
	})

	frag, err := ParseFragment("frag.docx", data)
	if err != nil {
		t.Fatalf("ParseFragment() error = %v", err)
	}
	if len(frag.Blocks) != 3 {
		t.Fatalf("got %d blocks, want 3", len(frag.Blocks))
	}

	plain := frag.Blocks[0].(*Paragraph)
	if plain.StyleID != "Normal" {
		t.Errorf("unstyled paragraph bound to %q, want the default style", plain.StyleID)
	}

	styled := frag.Blocks[1].(*Paragraph)
	if styled.StyleID != "Heading1" {
		t.Errorf("styled paragraph bound to %q", styled.StyleID)
	}
	if styled.Format == nil || styled.Format.Alignment != "center" {
		t.Errorf("paragraph formatting not kept: %+v", styled.Format)
	}
	if got := PlainText(styled.Runs); got != "bold\t tail" {
		t.Errorf("runs text = %q", got)
	}

	table := frag.Blocks[2].(*Table)
	if got := blockTexts(table.Rows[0].Cells[0].Blocks); !reflect.DeepEqual(got, []string{"cell"}) {
		t.Errorf("cell text = %v", got)
	}
}

func TestParseFragmentWarnsOnDroppedParagraphProperties(t *testing.T) {
	sectPr := `<w:p><w:pPr><w:pStyle w:val="Heading1"/><w:sectPr><w:pgSz w:w="11906" w:h="16838"/></w:sectPr></w:pPr>` +
		`<w:r><w:t>last</w:t></w:r></w:p>`
	tabs := `<w:p><w:pPr><w:tabs><w:tab w:val="left" w:pos="720"/></w:tabs><w:jc w:val="right"/></w:pPr>` +
		`<w:r><w:t>tabbed</w:t></w:r></w:p>`
	data := buildPackage(t, map[string]string{
		"word/document.xml": testBody(tabs + tabs + sectPr),
		"word/styles.xml":   testStyles(testNormalStyle, redHeading),
	})

	frag, err := ParseFragment("frag.docx", data)
	if err != nil {
		t.Fatalf("ParseFragment() error = %v", err)
	}
	want := []string{
		"frag.docx: dropped unsupported paragraph property w:tabs from 2 paragraph(s)",
		"frag.docx: dropped unsupported paragraph property w:sectPr from 1 paragraph(s)",
	}
	var got []string
	for _, w := range frag.Warnings {
		got = append(got, w.String())
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("warnings = %v, want %v", got, want)
	}

	last := frag.Blocks[2].(*Paragraph)
	if last.Format != nil {
		t.Errorf("paragraph with only dropped properties kept a format: %+v", last.Format)
	}
	tabbed := frag.Blocks[0].(*Paragraph)
	if tabbed.Format == nil || tabbed.Format.Alignment != "right" || tabbed.Format.Dropped != nil {
		t.Errorf("tabbed paragraph format = %+v", tabbed.Format)
	}
}

func TestLoadFragmentErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFragment(dir + "/missing.docx")
	if !errors.Is(err, ErrFragmentNotFound) {
		t.Errorf("missing fragment error = %v, want ErrFragmentNotFound", err)
	}

	corrupt := dir + "/corrupt.docx"
	if err := WritePackage(corrupt, []byte("not a zip")); err != nil {
		t.Fatalf("WritePackage() error = %v", err)
	}
	_, err = LoadFragment(corrupt)
	if !errors.Is(err, ErrFragmentCorrupt) {
		t.Errorf("corrupt fragment error = %v, want ErrFragmentCorrupt", err)
	}
	if !IsDocumentError(err) {
		t.Errorf("error %T is not a DocumentError", err)
	}
}
