package ooxml

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
)

// Header is the XML declaration written at the top of every part
const Header = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

// Document represents a w:document part
type Document struct {
	Attrs    []xml.Attr
	Prefixes Prefixes
	Body     Body
}

// Body represents the document body
type Body struct {
	// Elements maintains the order of all body elements
	Elements []BodyElement
	// SectionProperties is the final w:sectPr, kept verbatim
	SectionProperties *RawXMLElement
	// Skipped lists the local names of body children that were not modelled
	Skipped []string
}

// ParseDocument parses a word/document.xml part
func ParseDocument(r io.Reader) (*Document, error) {
	decoder := xml.NewDecoder(r)
	for {
		token, err := decoder.Token()
		if err != nil {
			return nil, fmt.Errorf("failed to parse document: %w", err)
		}
		start, ok := token.(xml.StartElement)
		if !ok {
			continue
		}
		if start.Name.Local != "document" {
			return nil, fmt.Errorf("failed to parse document: unexpected root element %q", start.Name.Local)
		}
		doc := &Document{Attrs: start.Attr, Prefixes: PrefixesFromAttrs(start.Attr)}
		if err := doc.decodeChildren(decoder); err != nil {
			return nil, fmt.Errorf("failed to parse document: %w", err)
		}
		return doc, nil
	}
}

func (doc *Document) decodeChildren(d *xml.Decoder) error {
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
			if t.Name.Local == "body" {
				if err := doc.Body.decode(d, t, doc.Prefixes); err != nil {
					return err
				}
				continue
			}
			if err := d.Skip(); err != nil {
				return err
			}
		case xml.EndElement:
			if t.Name.Local == "document" {
				return nil
			}
		}
	}
}

func (b *Body) decode(d *xml.Decoder, start xml.StartElement, prefixes Prefixes) error {
	for {
		token, err := d.Token()
		if err != nil {
			return err
		}

		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				var para Paragraph
				if err := d.DecodeElement(&para, &t); err != nil {
					return err
				}
				b.Elements = append(b.Elements, &para)
			case "tbl":
				var table Table
				if err := d.DecodeElement(&table, &t); err != nil {
					return err
				}
				b.Elements = append(b.Elements, &table)
			case "sectPr":
				raw, err := CaptureRaw(d, t, prefixes)
				if err != nil {
					return err
				}
				b.SectionProperties = raw
			case "sdt", "sdtContent", "customXml":
				// block-level content controls are flattened
			case "sdtPr", "sdtEndPr":
				if err := d.Skip(); err != nil {
					return err
				}
			case "bookmarkStart", "bookmarkEnd", "proofErr", "permStart", "permEnd":
				if err := d.Skip(); err != nil {
					return err
				}
			default:
				b.Skipped = append(b.Skipped, t.Name.Local)
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

// MarshalXML implements custom XML marshaling to preserve element order
func (b Body) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start = xml.StartElement{Name: xml.Name{Local: "w:body"}}
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	if err := encodeBodyElements(e, b.Elements); err != nil {
		return err
	}
	// Section properties are spliced in by MarshalDocument
	return e.EncodeToken(start.End())
}

func encodeBodyElements(e *xml.Encoder, elements []BodyElement) error {
	for _, elem := range elements {
		switch el := elem.(type) {
		case *Paragraph:
			if err := e.EncodeElement(el, xml.StartElement{Name: xml.Name{Local: "w:p"}}); err != nil {
				return err
			}
		case *Table:
			if err := e.EncodeElement(el, xml.StartElement{Name: xml.Name{Local: "w:tbl"}}); err != nil {
				return err
			}
		}
	}
	return nil
}

// MarshalDocument serializes a document part with the namespace
// declarations required by the elements this package writes.
func MarshalDocument(doc *Document) ([]byte, error) {
	body, err := xml.Marshal(doc.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal body: %w", err)
	}

	if doc.Body.SectionProperties != nil {
		closing := []byte("</w:body>")
		idx := bytes.LastIndex(body, closing)
		if idx < 0 {
			return nil, fmt.Errorf("failed to marshal body: missing closing tag")
		}
		sect := doc.Body.SectionProperties.Outer(doc.Prefixes)
		spliced := make([]byte, 0, len(body)+len(sect))
		spliced = append(spliced, body[:idx]...)
		spliced = append(spliced, sect...)
		spliced = append(spliced, body[idx:]...)
		body = spliced
	}

	var buf bytes.Buffer
	buf.WriteString(Header)
	buf.WriteString("<w:document")
	for _, attr := range doc.Prefixes.Declarations() {
		writeAttr(&buf, attr.Name.Local, attr.Value)
	}
	buf.WriteString(` mc:Ignorable="w14 w15 wp14">`)
	buf.Write(body)
	buf.WriteString("</w:document>")
	return buf.Bytes(), nil
}
