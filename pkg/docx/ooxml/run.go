package ooxml

import (
	"encoding/xml"
	"io"
	"strings"
)

// Run represents a w:r element
type Run struct {
	Properties *RunProperties
	Content    []RunContent
}

func (r Run) isParagraphContent() {}

// UnmarshalXML keeps text, breaks, tabs and drawings in document order
func (r *Run) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
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
			case "rPr":
				var props RunProperties
				if err := d.DecodeElement(&props, &t); err != nil {
					return err
				}
				r.Properties = &props
			case "t":
				var text Text
				if err := d.DecodeElement(&text, &t); err != nil {
					return err
				}
				r.Content = append(r.Content, &text)
			case "br":
				r.Content = append(r.Content, &Break{Type: attrValue(t.Attr, "type")})
				if err := d.Skip(); err != nil {
					return err
				}
			case "cr":
				r.Content = append(r.Content, &Break{})
				if err := d.Skip(); err != nil {
					return err
				}
			case "tab":
				r.Content = append(r.Content, &Tab{})
				if err := d.Skip(); err != nil {
					return err
				}
			case "noBreakHyphen":
				r.Content = append(r.Content, &Text{Content: "‑"})
				if err := d.Skip(); err != nil {
					return err
				}
			case "drawing":
				var drawing Drawing
				if err := d.DecodeElement(&drawing, &t); err != nil {
					return err
				}
				if drawing.RelID != "" {
					r.Content = append(r.Content, &drawing)
				}
			default:
				if err := d.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			if t.Name.Local == start.Name.Local {
				return nil
			}
		}
	}
}

// MarshalXML implements custom XML marshaling for Run
func (r Run) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start = xml.StartElement{Name: xml.Name{Local: "w:r"}}
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	if r.Properties != nil && !r.Properties.IsEmpty() {
		if err := e.EncodeElement(r.Properties, xml.StartElement{Name: xml.Name{Local: "w:rPr"}}); err != nil {
			return err
		}
	}
	for _, content := range r.Content {
		var local string
		switch content.(type) {
		case *Text:
			local = "w:t"
		case *Break:
			local = "w:br"
		case *Tab:
			local = "w:tab"
		case *Drawing:
			local = "w:drawing"
		default:
			continue
		}
		if err := e.EncodeElement(content, xml.StartElement{Name: xml.Name{Local: local}}); err != nil {
			return err
		}
	}
	return e.EncodeToken(start.End())
}

// GetText returns the text content of the run
func (r *Run) GetText() string {
	var sb strings.Builder
	for _, content := range r.Content {
		switch c := content.(type) {
		case *Text:
			sb.WriteString(c.Content)
		case *Tab:
			sb.WriteString("\t")
		case *Break:
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// Text is w:t
type Text struct {
	Space   string `xml:"space,attr,omitempty"`
	Content string `xml:",chardata"`
}

func (t Text) isRunContent() {}

// MarshalXML writes w:t, preserving leading and trailing whitespace
func (t Text) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start = xml.StartElement{Name: xml.Name{Local: "w:t"}}
	if t.Space == "preserve" || strings.TrimSpace(t.Content) != t.Content {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "xml:space"}, Value: "preserve"})
	}
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	if err := e.EncodeToken(xml.CharData(t.Content)); err != nil {
		return err
	}
	return e.EncodeToken(start.End())
}

// Break is w:br. An empty Type is a line break.
type Break struct {
	Type string
}

func (b Break) isRunContent() {}

// MarshalXML writes w:br
func (b Break) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	if b.Type == "" || b.Type == "textWrapping" {
		return emptyElement(e, "w:br")
	}
	return emptyElement(e, "w:br", xml.Attr{Name: xml.Name{Local: "w:type"}, Value: b.Type})
}

// Tab is w:tab inside a run
type Tab struct{}

func (t Tab) isRunContent() {}

// MarshalXML writes w:tab
func (t Tab) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	return emptyElement(e, "w:tab")
}

// RunProperties represents the subset of w:rPr this package models
type RunProperties struct {
	Style         *Style
	Font          *Font
	Bold          Toggle
	Italic        Toggle
	Caps          Toggle
	SmallCaps     Toggle
	Strike        Toggle
	NoProof       Toggle
	Color         string
	Size          string
	Highlight     string
	Underline     string
	VerticalAlign string
}

// Font is w:rFonts
type Font struct {
	ASCII    string
	HAnsi    string
	EastAsia string
	CS       string
}

// IsEmpty reports whether no property is set
func (p *RunProperties) IsEmpty() bool {
	return p == nil || *p == RunProperties{}
}

// Clone returns a copy of the properties
func (p *RunProperties) Clone() *RunProperties {
	if p == nil {
		return nil
	}
	c := *p
	if p.Style != nil {
		s := *p.Style
		c.Style = &s
	}
	if p.Font != nil {
		f := *p.Font
		c.Font = &f
	}
	return &c
}

// UnmarshalXML reads the supported children and skips everything else
func (p *RunProperties) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
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
			case "rStyle":
				p.Style = &Style{Val: attrValue(t.Attr, "val")}
			case "rFonts":
				p.Font = &Font{
					ASCII:    attrValue(t.Attr, "ascii"),
					HAnsi:    attrValue(t.Attr, "hAnsi"),
					EastAsia: attrValue(t.Attr, "eastAsia"),
					CS:       attrValue(t.Attr, "cs"),
				}
			case "b":
				p.Bold = parseToggle(t.Attr)
			case "i":
				p.Italic = parseToggle(t.Attr)
			case "caps":
				p.Caps = parseToggle(t.Attr)
			case "smallCaps":
				p.SmallCaps = parseToggle(t.Attr)
			case "strike":
				p.Strike = parseToggle(t.Attr)
			case "noProof":
				p.NoProof = parseToggle(t.Attr)
			case "color":
				p.Color = attrValue(t.Attr, "val")
			case "sz":
				p.Size = attrValue(t.Attr, "val")
			case "highlight":
				p.Highlight = attrValue(t.Attr, "val")
			case "u":
				p.Underline = attrValue(t.Attr, "val")
				if p.Underline == "" {
					p.Underline = "single"
				}
			case "vertAlign":
				p.VerticalAlign = attrValue(t.Attr, "val")
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
func (p RunProperties) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start = xml.StartElement{Name: xml.Name{Local: "w:rPr"}}
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	if p.Style != nil {
		if err := e.EncodeElement(p.Style, xml.StartElement{Name: xml.Name{Local: "w:rStyle"}}); err != nil {
			return err
		}
	}
	if p.Font != nil {
		var attrs []xml.Attr
		for _, f := range []struct{ name, val string }{
			{"w:ascii", p.Font.ASCII},
			{"w:hAnsi", p.Font.HAnsi},
			{"w:eastAsia", p.Font.EastAsia},
			{"w:cs", p.Font.CS},
		} {
			if f.val != "" {
				attrs = append(attrs, xml.Attr{Name: xml.Name{Local: f.name}, Value: f.val})
			}
		}
		if err := emptyElement(e, "w:rFonts", attrs...); err != nil {
			return err
		}
	}
	for _, flag := range []struct {
		value Toggle
		local string
	}{
		{p.Bold, "w:b"},
		{p.Italic, "w:i"},
		{p.Caps, "w:caps"},
		{p.SmallCaps, "w:smallCaps"},
		{p.Strike, "w:strike"},
		{p.NoProof, "w:noProof"},
	} {
		if err := writeToggle(e, flag.local, flag.value); err != nil {
			return err
		}
	}
	for _, prop := range []struct{ local, val string }{
		{"w:color", p.Color},
		{"w:sz", p.Size},
		{"w:highlight", p.Highlight},
		{"w:u", p.Underline},
		{"w:vertAlign", p.VerticalAlign},
	} {
		if prop.val != "" {
			if err := emptyElement(e, prop.local, valAttr(prop.val)); err != nil {
				return err
			}
		}
	}
	return e.EncodeToken(start.End())
}
