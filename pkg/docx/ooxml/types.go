package ooxml

import (
	"bytes"
	"encoding/xml"
	"strings"
)

// Namespace URIs used by the WordprocessingML parts this package reads and writes.
const (
	NamespaceW       = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	NamespaceR       = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	NamespaceWP      = "http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing"
	NamespaceA       = "http://schemas.openxmlformats.org/drawingml/2006/main"
	NamespacePic     = "http://schemas.openxmlformats.org/drawingml/2006/picture"
	NamespaceMC      = "http://schemas.openxmlformats.org/markup-compatibility/2006"
	NamespaceW14     = "http://schemas.microsoft.com/office/word/2010/wordml"
	NamespaceW15     = "http://schemas.microsoft.com/office/word/2012/wordml"
	NamespaceWP14    = "http://schemas.microsoft.com/office/word/2010/wordprocessingDrawing"
	NamespaceA14     = "http://schemas.microsoft.com/office/drawing/2010/main"
	NamespaceXML     = "http://www.w3.org/XML/1998/namespace"
	NamespaceV       = "urn:schemas-microsoft-com:vml"
	NamespaceO       = "urn:schemas-microsoft-com:office:office"
	NamespaceW10     = "urn:schemas-microsoft-com:office:word"
	NamespaceM       = "http://schemas.openxmlformats.org/officeDocument/2006/math"
	NamespaceW16SE   = "http://schemas.microsoft.com/office/word/2015/wordml/symex"
	NamespaceW16CID  = "http://schemas.microsoft.com/office/word/2016/wordml/cid"
	NamespaceW16     = "http://schemas.microsoft.com/office/word/2018/wordml"
	NamespaceW16CEX  = "http://schemas.microsoft.com/office/word/2018/wordml/cex"
	NamespaceW16SDTD = "http://schemas.microsoft.com/office/word/2020/wordml/sdtdatahash"
)

// canonicalPrefixes maps well-known namespace URIs to the prefix every part
// written by this package uses for them.
var canonicalPrefixes = map[string]string{
	NamespaceW:       "w",
	NamespaceR:       "r",
	NamespaceWP:      "wp",
	NamespaceA:       "a",
	NamespacePic:     "pic",
	NamespaceMC:      "mc",
	NamespaceW14:     "w14",
	NamespaceW15:     "w15",
	NamespaceWP14:    "wp14",
	NamespaceA14:     "a14",
	NamespaceXML:     "xml",
	NamespaceV:       "v",
	NamespaceO:       "o",
	NamespaceW10:     "w10",
	NamespaceM:       "m",
	NamespaceW16SE:   "w16se",
	NamespaceW16CID:  "w16cid",
	NamespaceW16:     "w16",
	NamespaceW16CEX:  "w16cex",
	NamespaceW16SDTD: "w16sdtdh",
}

// BodyElement represents any element that can appear in a document body
type BodyElement interface {
	isBodyElement()
}

// ParagraphContent represents any content that can appear in a paragraph
type ParagraphContent interface {
	isParagraphContent()
}

// RunContent represents any content that can appear in a run
type RunContent interface {
	isRunContent()
}

// Empty represents an empty element (used for boolean properties)
type Empty struct{}

// Style represents a style reference such as w:pStyle, w:rStyle or w:tblStyle
type Style struct {
	Val string `xml:"val,attr"`
}

// MarshalXML keeps the element name chosen by the caller.
func (s Style) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Attr = []xml.Attr{
		{Name: xml.Name{Local: "w:val"}, Value: s.Val},
	}
	return e.EncodeElement(struct{}{}, start)
}

// RawXMLElement is an element preserved verbatim. Content holds the inner XML
// with every namespace rewritten to its prefix.
type RawXMLElement struct {
	XMLName xml.Name
	Attrs   []xml.Attr
	Content []byte
}

// Outer returns the element including its start and end tags.
func (r *RawXMLElement) Outer(prefixes Prefixes) []byte {
	var buf bytes.Buffer
	name := prefixes.Qualify(r.XMLName)
	buf.WriteByte('<')
	buf.WriteString(name)
	for _, attr := range r.Attrs {
		writeAttr(&buf, prefixes.Qualify(attr.Name), attr.Value)
	}
	if len(r.Content) == 0 {
		buf.WriteString("/>")
		return buf.Bytes()
	}
	buf.WriteByte('>')
	buf.Write(r.Content)
	buf.WriteString("</")
	buf.WriteString(name)
	buf.WriteByte('>')
	return buf.Bytes()
}

// Prefixes maps namespace URIs to prefixes for one part.
type Prefixes map[string]string

// PrefixesFromAttrs collects the xmlns declarations of a root element. Known
// namespaces always keep their canonical prefix.
func PrefixesFromAttrs(attrs []xml.Attr) Prefixes {
	p := Prefixes{}
	for _, attr := range attrs {
		prefix, ok := declaredPrefix(attr)
		if !ok || prefix == "" {
			continue
		}
		if _, known := canonicalPrefixes[attr.Value]; known {
			continue
		}
		p[attr.Value] = prefix
	}
	return p
}

// Qualify renders a decoded name in prefix:local form.
func (p Prefixes) Qualify(name xml.Name) string {
	if name.Space == "" {
		return name.Local
	}
	if name.Space == "xmlns" {
		return "xmlns:" + name.Local
	}
	return p.Prefix(name.Space) + ":" + name.Local
}

// Prefix returns the prefix for a namespace URI. Unknown URIs that already
// look like a prefix are returned unchanged.
func (p Prefixes) Prefix(uri string) string {
	if prefix, ok := canonicalPrefixes[uri]; ok {
		return prefix
	}
	if prefix, ok := p[uri]; ok {
		return prefix
	}
	return uri
}

// Declarations returns xmlns attributes for every canonical namespace plus
// the extra ones collected from parsed parts.
func (p Prefixes) Declarations() []xml.Attr {
	attrs := make([]xml.Attr, 0, len(canonicalPrefixes)+len(p))
	seen := map[string]bool{"xml": true}
	for _, uri := range canonicalOrder {
		prefix := canonicalPrefixes[uri]
		seen[prefix] = true
		attrs = append(attrs, xml.Attr{Name: xml.Name{Local: "xmlns:" + prefix}, Value: uri})
	}
	for uri, prefix := range p {
		if seen[prefix] {
			continue
		}
		seen[prefix] = true
		attrs = append(attrs, xml.Attr{Name: xml.Name{Local: "xmlns:" + prefix}, Value: uri})
	}
	sortAttrs(attrs[len(canonicalOrder):])
	return attrs
}

// Merge copies declarations from other that are not already present.
func (p Prefixes) Merge(other Prefixes) {
	for uri, prefix := range other {
		if _, ok := p[uri]; !ok {
			p[uri] = prefix
		}
	}
}

var canonicalOrder = []string{
	NamespaceW, NamespaceR, NamespaceWP, NamespaceA, NamespacePic, NamespaceMC,
	NamespaceW14, NamespaceW15, NamespaceWP14, NamespaceA14, NamespaceV,
	NamespaceO, NamespaceW10, NamespaceM, NamespaceW16SE, NamespaceW16CID,
	NamespaceW16, NamespaceW16CEX, NamespaceW16SDTD,
}

func declaredPrefix(attr xml.Attr) (string, bool) {
	switch {
	case attr.Name.Space == "xmlns":
		return attr.Name.Local, true
	case attr.Name.Space == "" && attr.Name.Local == "xmlns":
		return "", true
	case attr.Name.Space == "" && strings.HasPrefix(attr.Name.Local, "xmlns:"):
		return strings.TrimPrefix(attr.Name.Local, "xmlns:"), true
	}
	return "", false
}

func sortAttrs(attrs []xml.Attr) {
	for i := 1; i < len(attrs); i++ {
		for j := i; j > 0 && attrs[j].Name.Local < attrs[j-1].Name.Local; j-- {
			attrs[j], attrs[j-1] = attrs[j-1], attrs[j]
		}
	}
}

// CaptureRaw reads the remainder of the element opened by start and returns
// it as a RawXMLElement.
func CaptureRaw(d *xml.Decoder, start xml.StartElement, prefixes Prefixes) (*RawXMLElement, error) {
	raw := &RawXMLElement{XMLName: start.Name}
	for _, attr := range start.Attr {
		if _, ok := declaredPrefix(attr); ok {
			continue
		}
		raw.Attrs = append(raw.Attrs, attr)
	}

	var buf bytes.Buffer
	depth := 1
	for depth > 0 {
		tok, err := d.Token()
		if err != nil {
			return nil, err
		}
		switch tt := tok.(type) {
		case xml.StartElement:
			depth++
			buf.WriteByte('<')
			buf.WriteString(prefixes.Qualify(tt.Name))
			for _, attr := range tt.Attr {
				if _, ok := declaredPrefix(attr); ok {
					continue
				}
				writeAttr(&buf, prefixes.Qualify(attr.Name), attr.Value)
			}
			buf.WriteByte('>')
		case xml.EndElement:
			depth--
			if depth > 0 {
				buf.WriteString("</")
				buf.WriteString(prefixes.Qualify(tt.Name))
				buf.WriteByte('>')
			}
		case xml.CharData:
			_ = xml.EscapeText(&buf, tt)
		}
	}
	raw.Content = buf.Bytes()
	return raw, nil
}

func writeAttr(buf *bytes.Buffer, name, value string) {
	buf.WriteByte(' ')
	buf.WriteString(name)
	buf.WriteString(`="`)
	_ = xml.EscapeText(buf, []byte(value))
	buf.WriteByte('"')
}

// attrValue returns the value of the first attribute with the given local name.
func attrValue(attrs []xml.Attr, local string) string {
	for _, attr := range attrs {
		if attr.Name.Local == local {
			return attr.Value
		}
	}
	return ""
}

// toggle interprets an OOXML on/off property such as w:b or w:b w:val="0".
func toggle(attrs []xml.Attr) bool {
	switch attrValue(attrs, "val") {
	case "0", "false", "off":
		return false
	}
	return true
}

// Toggle is an OOXML on/off property. The zero value leaves the property to
// the style; ToggleOff overrides a style that turns it on.
type Toggle int8

const (
	ToggleUnset Toggle = iota
	ToggleOn
	ToggleOff
)

// On reports whether the property is explicitly on
func (t Toggle) On() bool {
	return t == ToggleOn
}

func parseToggle(attrs []xml.Attr) Toggle {
	if toggle(attrs) {
		return ToggleOn
	}
	return ToggleOff
}

// writeToggle writes w:x for on and w:x w:val="0" for off
func writeToggle(e *xml.Encoder, local string, t Toggle) error {
	switch t {
	case ToggleOn:
		return emptyElement(e, local)
	case ToggleOff:
		return emptyElement(e, local, valAttr("0"))
	}
	return nil
}

func emptyElement(e *xml.Encoder, local string, attrs ...xml.Attr) error {
	start := xml.StartElement{Name: xml.Name{Local: local}, Attr: attrs}
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	return e.EncodeToken(start.End())
}

func valAttr(v string) xml.Attr {
	return xml.Attr{Name: xml.Name{Local: "w:val"}, Value: v}
}
