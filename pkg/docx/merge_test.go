package docx

import (
	"testing"
)

const (
	baseHeading = `<w:style w:type="paragraph" w:styleId="Heading1"><w:name w:val="heading 1"/><w:basedOn w:val="Normal"/>` +
		`<w:rPr><w:b/></w:rPr></w:style>`
	redHeading = `<w:style w:type="paragraph" w:styleId="Heading1"><w:name w:val="heading 1"/><w:basedOn w:val="Normal"/>` +
		`<w:rPr><w:b/><w:color w:val="FF0000"/></w:rPr></w:style>`
	renamedNormal = `<w:style w:type="paragraph" w:styleId="BodyText"><w:name w:val="Body Text"/>` +
		`<w:rPr><w:sz w:val="22"/></w:rPr></w:style>`
	childOfRed = `<w:style w:type="paragraph" w:styleId="Sub"><w:name w:val="Sub"/><w:basedOn w:val="Heading1"/>` +
		`<w:next w:val="BodyText"/><w:rPr><w:i/></w:rPr></w:style>`
)

func TestMergeIsIdempotent(t *testing.T) {
	tmpl, err := DefaultTemplate()
	if err != nil {
		t.Fatalf("DefaultTemplate() error = %v", err)
	}
	base := tmpl.Registry

	merged, renames := base.Merge(base)
	if merged.Len() != base.Len() {
		t.Errorf("self merge grew registry from %d to %d styles", base.Len(), merged.Len())
	}
	for id, mapped := range renames.Styles {
		if id != mapped {
			t.Errorf("self merge renamed %q to %q", id, mapped)
		}
	}

	again, _ := merged.Merge(merged)
	if again.Len() != merged.Len() {
		t.Errorf("second self merge grew registry from %d to %d styles", merged.Len(), again.Len())
	}
}

func TestMergeCollapsesAndRenames(t *testing.T) {
	base := mustRegistry(t, testStyles(testNormalStyle, baseHeading), RegistryOptions{})
	frag := mustRegistry(t, testStyles(testNormalStyle, redHeading, renamedNormal, childOfRed), RegistryOptions{})

	merged, renames := base.Merge(frag)

	want := map[string]string{
		"Normal":   "Normal",
		"BodyText": "Normal",
		"Heading1": "Heading1-2",
		"Sub":      "Sub",
	}
	for src, dst := range want {
		if got, ok := renames.Style(src); !ok || got != dst {
			t.Errorf("rename of %q = %q (%v), want %q", src, got, ok, dst)
		}
	}

	red, ok := merged.Lookup("Heading1-2")
	if !ok {
		t.Fatal("renamed fragment heading missing from merged registry")
	}
	if red.Name != "heading 1 (2)" {
		t.Errorf("renamed heading name = %q, want %q", red.Name, "heading 1 (2)")
	}
	if red.BasedOn != "Normal" {
		t.Errorf("renamed heading basedOn = %q, want Normal", red.BasedOn)
	}

	sub, ok := merged.Lookup("Sub")
	if !ok {
		t.Fatal("fragment child style missing from merged registry")
	}
	if sub.BasedOn != "Heading1-2" {
		t.Errorf("child basedOn = %q, want Heading1-2", sub.BasedOn)
	}
	if sub.Next != "Normal" {
		t.Errorf("child next = %q, want Normal", sub.Next)
	}

	orig, _ := merged.Lookup("Heading1")
	baseHeadingDef, _ := base.Lookup("Heading1")
	if string(orig.Body) != string(baseHeadingDef.Body) {
		t.Error("merge modified a base style")
	}
	if base.Len() != 2 {
		t.Errorf("merge modified the base registry: %d styles", base.Len())
	}
}

func TestMergeNumberingReusesInstances(t *testing.T) {
	numbering := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:numbering xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
		`<w:abstractNum w:abstractNumId="0"><w:lvl w:ilvl="0"><w:start w:val="1"/><w:numFmt w:val="decimal"/>` +
		`<w:lvlText w:val="%1."/></w:lvl></w:abstractNum>` +
		`<w:num w:numId="1"><w:abstractNumId w:val="0"/></w:num></w:numbering>`
	listStyle := `<w:style w:type="paragraph" w:styleId="Steps"><w:name w:val="Steps"/>` +
		`<w:pPr><w:numPr><w:numId w:val="1"/></w:numPr></w:pPr></w:style>`

	base := mustRegistry(t, testStyles(testNormalStyle), RegistryOptions{})
	frag, err := BuildRegistry("frag", []byte(testStyles(testNormalStyle, listStyle)), []byte(numbering), RegistryOptions{})
	if err != nil {
		t.Fatalf("BuildRegistry() error = %v", err)
	}

	merged, renames := base.Merge(frag)
	numID, ok := renames.Numbering[1]
	if !ok {
		t.Fatal("numbering instance 1 was not mapped")
	}
	if !merged.Numbering().HasNum(numID) {
		t.Fatalf("merged numbering has no num %d", numID)
	}

	twice, renames2 := merged.Merge(frag)
	if renames2.Numbering[1] != numID {
		t.Errorf("second merge mapped num 1 to %d, want %d", renames2.Numbering[1], numID)
	}
	if got, want := len(twice.Numbering().Nums), len(merged.Numbering().Nums); got != want {
		t.Errorf("second merge added numbering instances: %d, want %d", got, want)
	}
	if twice.Len() != merged.Len() {
		t.Errorf("second merge added styles: %d, want %d", twice.Len(), merged.Len())
	}
}

func TestApplyRenames(t *testing.T) {
	base := mustRegistry(t, testStyles(testNormalStyle, baseHeading), RegistryOptions{BindRoles: true})
	renames := &RenameMap{
		Styles:    map[string]string{"Heading1": "Heading1-2", "Strong": "Strong-2"},
		Numbering: map[int]int{3: 7},
	}
	blocks := []Block{
		&Paragraph{StyleID: "Heading1", Runs: []Run{{Text: "a", StyleID: "Strong"}, {Text: "b", StyleID: "Gone"}}},
		&Paragraph{StyleID: "Ghost", Numbering: &NumberingRef{NumID: 3}},
		&Paragraph{StyleID: "Normal", Numbering: &NumberingRef{NumID: 4}},
		&Table{StyleID: "Ghost", Rows: []TableRow{{Cells: []TableCell{{Blocks: []Block{&Paragraph{StyleID: "Heading1"}}}}}}},
	}

	ApplyRenames(blocks, renames, base)

	first := blocks[0].(*Paragraph)
	if first.StyleID != "Heading1-2" {
		t.Errorf("paragraph style = %q, want Heading1-2", first.StyleID)
	}
	if first.Runs[0].StyleID != "Strong-2" || first.Runs[1].StyleID != "" {
		t.Errorf("run styles = %q, %q", first.Runs[0].StyleID, first.Runs[1].StyleID)
	}

	ghost := blocks[1].(*Paragraph)
	if ghost.StyleID != base.RoleID(RoleNormal) {
		t.Errorf("unmapped paragraph style = %q, want Normal", ghost.StyleID)
	}
	if ghost.Numbering == nil || ghost.Numbering.NumID != 7 {
		t.Errorf("numbering = %+v, want num 7", ghost.Numbering)
	}
	if blocks[2].(*Paragraph).Numbering != nil {
		t.Error("unmapped numbering should be dropped")
	}

	table := blocks[3].(*Table)
	if table.StyleID != base.RoleID(RoleTable) {
		t.Errorf("unmapped table style = %q, want %q", table.StyleID, base.RoleID(RoleTable))
	}
	if got := table.Rows[0].Cells[0].Blocks[0].StyleRef(); got != "Heading1-2" {
		t.Errorf("cell paragraph style = %q, want Heading1-2", got)
	}
}
