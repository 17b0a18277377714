package ooxml

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
)

// Styles is a parsed word/styles.xml part. Style bodies stay as raw inner XML.
type Styles struct {
	Prefixes     Prefixes
	Ignorable    string
	DocDefaults  *RawXMLElement
	LatentStyles *RawXMLElement
	Styles       []StyleElement
}

// StyleElement is one w:style element
type StyleElement struct {
	Type        string
	StyleID     string
	Default     bool
	CustomStyle bool
	// Content is the inner XML of the element in canonical prefix form
	Content []byte
}

// ParseStyles decodes a styles part
func ParseStyles(r io.Reader) (*Styles, error) {
	d := xml.NewDecoder(r)
	styles := &Styles{}
	var root bool
	for {
		token, err := d.Token()
		if err == io.EOF {
			if !root {
				return nil, fmt.Errorf("failed to parse styles: no w:styles element")
			}
			return styles, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse styles: %w", err)
		}
		t, ok := token.(xml.StartElement)
		if !ok {
			continue
		}
		if !root {
			if t.Name.Local != "styles" {
				return nil, fmt.Errorf("failed to parse styles: unexpected root element %q", t.Name.Local)
			}
			root = true
			styles.Prefixes = PrefixesFromAttrs(t.Attr)
			styles.Ignorable = attrValue(t.Attr, "Ignorable")
			continue
		}
		switch t.Name.Local {
		case "docDefaults":
			raw, err := CaptureRaw(d, t, styles.Prefixes)
			if err != nil {
				return nil, fmt.Errorf("failed to parse styles: %w", err)
			}
			styles.DocDefaults = raw
		case "latentStyles":
			raw, err := CaptureRaw(d, t, styles.Prefixes)
			if err != nil {
				return nil, fmt.Errorf("failed to parse styles: %w", err)
			}
			styles.LatentStyles = raw
		case "style":
			raw, err := CaptureRaw(d, t, styles.Prefixes)
			if err != nil {
				return nil, fmt.Errorf("failed to parse styles: %w", err)
			}
			styles.Styles = append(styles.Styles, StyleElement{
				Type:        attrValue(t.Attr, "type"),
				StyleID:     attrValue(t.Attr, "styleId"),
				Default:     toggleValue(attrValue(t.Attr, "default")),
				CustomStyle: toggleValue(attrValue(t.Attr, "customStyle")),
				Content:     raw.Content,
			})
		default:
			if err := d.Skip(); err != nil {
				return nil, fmt.Errorf("failed to parse styles: %w", err)
			}
		}
	}
}

// MarshalStyles rebuilds a styles part
func MarshalStyles(styles *Styles) []byte {
	var buf bytes.Buffer
	buf.WriteString(Header)
	buf.WriteString("<w:styles")
	for _, attr := range styles.Prefixes.Declarations() {
		writeAttr(&buf, attr.Name.Local, attr.Value)
	}
	if styles.Ignorable != "" {
		writeAttr(&buf, "mc:Ignorable", styles.Ignorable)
	}
	buf.WriteByte('>')
	if styles.DocDefaults != nil {
		buf.Write(styles.DocDefaults.Outer(styles.Prefixes))
	}
	if styles.LatentStyles != nil {
		buf.Write(styles.LatentStyles.Outer(styles.Prefixes))
	}
	for _, s := range styles.Styles {
		buf.WriteString("<w:style")
		writeAttr(&buf, "w:type", s.Type)
		if s.Default {
			writeAttr(&buf, "w:default", "1")
		}
		if s.CustomStyle {
			writeAttr(&buf, "w:customStyle", "1")
		}
		writeAttr(&buf, "w:styleId", s.StyleID)
		buf.WriteByte('>')
		buf.Write(s.Content)
		buf.WriteString("</w:style>")
	}
	buf.WriteString("</w:styles>")
	return buf.Bytes()
}

func toggleValue(v string) bool {
	switch v {
	case "1", "true", "on":
		return true
	}
	return false
}
