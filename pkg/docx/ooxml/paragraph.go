package ooxml

import (
	"encoding/xml"
	"io"
	"strconv"
	"strings"
)

// Paragraph represents a w:p element
type Paragraph struct {
	Properties *ParagraphProperties
	// Content maintains the order of runs, hyperlinks and bookmarks
	Content []ParagraphContent
}

func (p Paragraph) isBodyElement() {}

// transparentContainers wrap paragraph content without changing its meaning.
var transparentContainers = map[string]bool{
	"ins":        true,
	"smartTag":   true,
	"fldSimple":  true,
	"customXml":  true,
	"sdt":        true,
	"sdtContent": true,
	"dir":        true,
	"bdo":        true,
}

// UnmarshalXML implements custom XML unmarshaling to preserve element order
func (p *Paragraph) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		token, err := d.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		switch t := token.(type) {
		case xml.StartElement:
			switch {
			case t.Name.Local == "pPr":
				var props ParagraphProperties
				if err := d.DecodeElement(&props, &t); err != nil {
					return err
				}
				p.Properties = &props
			case t.Name.Local == "r":
				var run Run
				if err := d.DecodeElement(&run, &t); err != nil {
					return err
				}
				p.Content = append(p.Content, &run)
			case t.Name.Local == "hyperlink":
				var hyperlink Hyperlink
				if err := d.DecodeElement(&hyperlink, &t); err != nil {
					return err
				}
				p.Content = append(p.Content, &hyperlink)
			case t.Name.Local == "bookmarkStart":
				p.Content = append(p.Content, &BookmarkStart{
					ID:   attrValue(t.Attr, "id"),
					Name: attrValue(t.Attr, "name"),
				})
				if err := d.Skip(); err != nil {
					return err
				}
			case t.Name.Local == "bookmarkEnd":
				p.Content = append(p.Content, &BookmarkEnd{ID: attrValue(t.Attr, "id")})
				if err := d.Skip(); err != nil {
					return err
				}
			case transparentContainers[t.Name.Local]:
				// children are read by this loop
			default:
				if err := d.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			if t.Name.Local == start.Name.Local && t.Name.Space == start.Name.Space {
				return nil
			}
		}
	}
}

// MarshalXML implements custom XML marshaling for Paragraph to ensure proper namespacing
func (p Paragraph) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start = xml.StartElement{Name: xml.Name{Local: "w:p"}}
	if err := e.EncodeToken(start); err != nil {
		return err
	}

	if p.Properties != nil {
		if err := e.EncodeElement(p.Properties, xml.StartElement{Name: xml.Name{Local: "w:pPr"}}); err != nil {
			return err
		}
	}

	for _, content := range p.Content {
		var local string
		switch content.(type) {
		case *Run:
			local = "w:r"
		case *Hyperlink:
			local = "w:hyperlink"
		case *BookmarkStart:
			local = "w:bookmarkStart"
		case *BookmarkEnd:
			local = "w:bookmarkEnd"
		default:
			continue
		}
		if err := e.EncodeElement(content, xml.StartElement{Name: xml.Name{Local: local}}); err != nil {
			return err
		}
	}

	return e.EncodeToken(start.End())
}

// GetText returns the concatenated text of all runs in a paragraph
func (p *Paragraph) GetText() string {
	var sb strings.Builder
	for _, content := range p.Content {
		switch c := content.(type) {
		case *Run:
			sb.WriteString(c.GetText())
		case *Hyperlink:
			sb.WriteString(c.GetText())
		}
	}
	return sb.String()
}

// ParagraphProperties represents the subset of w:pPr this package models.
// Other children are dropped on read and named in Dropped.
type ParagraphProperties struct {
	Style           *Style
	KeepNext        Toggle
	KeepLines       Toggle
	PageBreakBefore Toggle
	Numbering       *NumberingProperties
	Border          *ParagraphBorder
	Spacing         *Spacing
	Indentation     *Indentation
	Alignment       string
	// Dropped lists the local names of children that were not modelled
	Dropped []string
}

// NumberingProperties is w:numPr
type NumberingProperties struct {
	Level int
	NumID int
}

// ParagraphBorder is w:pBdr. Only the edges used by generated content are kept.
type ParagraphBorder struct {
	Top    *Border
	Bottom *Border
}

// Border is one edge of a paragraph or table border
type Border struct {
	Val   string
	Size  int
	Space int
	Color string
}

// Spacing is w:spacing in twentieths of a point
type Spacing struct {
	Before   int
	After    int
	Line     int
	LineRule string
}

// Indentation is w:ind in twentieths of a point
type Indentation struct {
	Left      int
	Right     int
	Hanging   int
	FirstLine int
}

// Clone returns a deep copy of the properties
func (p *ParagraphProperties) Clone() *ParagraphProperties {
	if p == nil {
		return nil
	}
	c := *p
	if p.Style != nil {
		s := *p.Style
		c.Style = &s
	}
	if p.Numbering != nil {
		n := *p.Numbering
		c.Numbering = &n
	}
	if p.Border != nil {
		b := ParagraphBorder{}
		if p.Border.Top != nil {
			top := *p.Border.Top
			b.Top = &top
		}
		if p.Border.Bottom != nil {
			bottom := *p.Border.Bottom
			b.Bottom = &bottom
		}
		c.Border = &b
	}
	if p.Spacing != nil {
		s := *p.Spacing
		c.Spacing = &s
	}
	if p.Indentation != nil {
		i := *p.Indentation
		c.Indentation = &i
	}
	c.Dropped = append([]string(nil), p.Dropped...)
	return &c
}

// UnmarshalXML reads the supported children and skips everything else
func (p *ParagraphProperties) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		token, err := d.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "pStyle":
				p.Style = &Style{Val: attrValue(t.Attr, "val")}
			case "keepNext":
				p.KeepNext = parseToggle(t.Attr)
			case "keepLines":
				p.KeepLines = parseToggle(t.Attr)
			case "pageBreakBefore":
				p.PageBreakBefore = parseToggle(t.Attr)
			case "numPr":
				var num NumberingProperties
				if err := d.DecodeElement(&num, &t); err != nil {
					return err
				}
				p.Numbering = &num
				continue
			case "pBdr":
				var border ParagraphBorder
				if err := d.DecodeElement(&border, &t); err != nil {
					return err
				}
				p.Border = &border
				continue
			case "spacing":
				p.Spacing = &Spacing{
					Before:   atoi(attrValue(t.Attr, "before")),
					After:    atoi(attrValue(t.Attr, "after")),
					Line:     atoi(attrValue(t.Attr, "line")),
					LineRule: attrValue(t.Attr, "lineRule"),
				}
			case "ind":
				ind := &Indentation{
					Left:      atoi(attrValue(t.Attr, "left")),
					Right:     atoi(attrValue(t.Attr, "right")),
					Hanging:   atoi(attrValue(t.Attr, "hanging")),
					FirstLine: atoi(attrValue(t.Attr, "firstLine")),
				}
				if v := attrValue(t.Attr, "start"); v != "" {
					ind.Left = atoi(v)
				}
				if v := attrValue(t.Attr, "end"); v != "" {
					ind.Right = atoi(v)
				}
				p.Indentation = ind
			case "jc":
				p.Alignment = attrValue(t.Attr, "val")
			default:
				p.Dropped = append(p.Dropped, t.Name.Local)
			}
			if err := d.Skip(); err != nil {
				return err
			}
		case xml.EndElement:
			if t.Name.Local == start.Name.Local {
				return nil
			}
		}
	}
}

// MarshalXML writes the children in schema order
func (p ParagraphProperties) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start = xml.StartElement{Name: xml.Name{Local: "w:pPr"}}
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	if p.Style != nil {
		if err := e.EncodeElement(p.Style, xml.StartElement{Name: xml.Name{Local: "w:pStyle"}}); err != nil {
			return err
		}
	}
	for _, flag := range []struct {
		value Toggle
		local string
	}{
		{p.KeepNext, "w:keepNext"},
		{p.KeepLines, "w:keepLines"},
		{p.PageBreakBefore, "w:pageBreakBefore"},
	} {
		if err := writeToggle(e, flag.local, flag.value); err != nil {
			return err
		}
	}
	if p.Numbering != nil {
		if err := e.EncodeElement(p.Numbering, xml.StartElement{Name: xml.Name{Local: "w:numPr"}}); err != nil {
			return err
		}
	}
	if p.Border != nil {
		if err := e.EncodeElement(p.Border, xml.StartElement{Name: xml.Name{Local: "w:pBdr"}}); err != nil {
			return err
		}
	}
	if p.Spacing != nil {
		attrs := []xml.Attr{}
		if p.Spacing.Before != 0 {
			attrs = append(attrs, intAttr("w:before", p.Spacing.Before))
		}
		if p.Spacing.After != 0 {
			attrs = append(attrs, intAttr("w:after", p.Spacing.After))
		}
		if p.Spacing.Line != 0 {
			attrs = append(attrs, intAttr("w:line", p.Spacing.Line))
		}
		if p.Spacing.LineRule != "" {
			attrs = append(attrs, xml.Attr{Name: xml.Name{Local: "w:lineRule"}, Value: p.Spacing.LineRule})
		}
		if err := emptyElement(e, "w:spacing", attrs...); err != nil {
			return err
		}
	}
	if p.Indentation != nil {
		attrs := []xml.Attr{}
		if p.Indentation.Left != 0 {
			attrs = append(attrs, intAttr("w:left", p.Indentation.Left))
		}
		if p.Indentation.Right != 0 {
			attrs = append(attrs, intAttr("w:right", p.Indentation.Right))
		}
		if p.Indentation.Hanging != 0 {
			attrs = append(attrs, intAttr("w:hanging", p.Indentation.Hanging))
		} else if p.Indentation.FirstLine != 0 {
			attrs = append(attrs, intAttr("w:firstLine", p.Indentation.FirstLine))
		}
		if err := emptyElement(e, "w:ind", attrs...); err != nil {
			return err
		}
	}
	if p.Alignment != "" {
		if err := emptyElement(e, "w:jc", valAttr(p.Alignment)); err != nil {
			return err
		}
	}
	return e.EncodeToken(start.End())
}

// UnmarshalXML reads w:ilvl and w:numId
func (n *NumberingProperties) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		token, err := d.Token()
		if err != nil {
			return err
		}
		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "ilvl":
				n.Level = atoi(attrValue(t.Attr, "val"))
			case "numId":
				n.NumID = atoi(attrValue(t.Attr, "val"))
			}
			if err := d.Skip(); err != nil {
				return err
			}
		case xml.EndElement:
			if t.Name.Local == start.Name.Local {
				return nil
			}
		}
	}
}

// MarshalXML writes w:numPr
func (n NumberingProperties) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start = xml.StartElement{Name: xml.Name{Local: "w:numPr"}}
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	if err := emptyElement(e, "w:ilvl", valAttr(strconv.Itoa(n.Level))); err != nil {
		return err
	}
	if err := emptyElement(e, "w:numId", valAttr(strconv.Itoa(n.NumID))); err != nil {
		return err
	}
	return e.EncodeToken(start.End())
}

// UnmarshalXML reads the top and bottom edges
func (b *ParagraphBorder) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		token, err := d.Token()
		if err != nil {
			return err
		}
		switch t := token.(type) {
		case xml.StartElement:
			edge := &Border{
				Val:   attrValue(t.Attr, "val"),
				Size:  atoi(attrValue(t.Attr, "sz")),
				Space: atoi(attrValue(t.Attr, "space")),
				Color: attrValue(t.Attr, "color"),
			}
			switch t.Name.Local {
			case "top":
				b.Top = edge
			case "bottom":
				b.Bottom = edge
			}
			if err := d.Skip(); err != nil {
				return err
			}
		case xml.EndElement:
			if t.Name.Local == start.Name.Local {
				return nil
			}
		}
	}
}

// MarshalXML writes w:pBdr
func (b ParagraphBorder) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start = xml.StartElement{Name: xml.Name{Local: "w:pBdr"}}
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	if b.Top != nil {
		if err := emptyElement(e, "w:top", b.Top.attrs()...); err != nil {
			return err
		}
	}
	if b.Bottom != nil {
		if err := emptyElement(e, "w:bottom", b.Bottom.attrs()...); err != nil {
			return err
		}
	}
	return e.EncodeToken(start.End())
}

func (b *Border) attrs() []xml.Attr {
	attrs := []xml.Attr{valAttr(b.Val), intAttr("w:sz", b.Size), intAttr("w:space", b.Space)}
	if b.Color != "" {
		attrs = append(attrs, xml.Attr{Name: xml.Name{Local: "w:color"}, Value: b.Color})
	}
	return attrs
}

// Hyperlink is a w:hyperlink to an external relationship or an internal bookmark
type Hyperlink struct {
	ID     string
	Anchor string
	Runs   []Run
}

func (h Hyperlink) isParagraphContent() {}

// UnmarshalXML reads the r:id, w:anchor and child runs
func (h *Hyperlink) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for _, attr := range start.Attr {
		switch {
		case attr.Name.Local == "id":
			h.ID = attr.Value
		case attr.Name.Local == "anchor":
			h.Anchor = attr.Value
		}
	}
	for {
		token, err := d.Token()
		if err != nil {
			return err
		}
		switch t := token.(type) {
		case xml.StartElement:
			if t.Name.Local == "r" {
				var run Run
				if err := d.DecodeElement(&run, &t); err != nil {
					return err
				}
				h.Runs = append(h.Runs, run)
				continue
			}
			if transparentContainers[t.Name.Local] {
				continue
			}
			if err := d.Skip(); err != nil {
				return err
			}
		case xml.EndElement:
			if t.Name.Local == start.Name.Local {
				return nil
			}
		}
	}
}

// MarshalXML writes w:hyperlink
func (h Hyperlink) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start = xml.StartElement{Name: xml.Name{Local: "w:hyperlink"}}
	if h.ID != "" {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "r:id"}, Value: h.ID})
	}
	if h.Anchor != "" {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "w:anchor"}, Value: h.Anchor})
	}
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	for i := range h.Runs {
		if err := e.EncodeElement(&h.Runs[i], xml.StartElement{Name: xml.Name{Local: "w:r"}}); err != nil {
			return err
		}
	}
	return e.EncodeToken(start.End())
}

// GetText returns the text of the hyperlink runs
func (h *Hyperlink) GetText() string {
	var sb strings.Builder
	for i := range h.Runs {
		sb.WriteString(h.Runs[i].GetText())
	}
	return sb.String()
}

// BookmarkStart is w:bookmarkStart
type BookmarkStart struct {
	ID   string
	Name string
}

func (b BookmarkStart) isParagraphContent() {}

// MarshalXML writes w:bookmarkStart
func (b BookmarkStart) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	return emptyElement(e, "w:bookmarkStart",
		xml.Attr{Name: xml.Name{Local: "w:id"}, Value: b.ID},
		xml.Attr{Name: xml.Name{Local: "w:name"}, Value: b.Name},
	)
}

// BookmarkEnd is w:bookmarkEnd
type BookmarkEnd struct {
	ID string
}

func (b BookmarkEnd) isParagraphContent() {}

// MarshalXML writes w:bookmarkEnd
func (b BookmarkEnd) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	return emptyElement(e, "w:bookmarkEnd", xml.Attr{Name: xml.Name{Local: "w:id"}, Value: b.ID})
}

func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

func intAttr(name string, v int) xml.Attr {
	return xml.Attr{Name: xml.Name{Local: name}, Value: strconv.Itoa(v)}
}
