package ooxml

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
)

// Numbering is a parsed word/numbering.xml part
type Numbering struct {
	Prefixes     Prefixes
	AbstractNums []AbstractNum
	Nums         []Num
}

// AbstractNum is a w:abstractNum definition kept as raw inner XML
type AbstractNum struct {
	ID      int
	Content []byte
}

// Num is a w:num instance pointing at an abstract definition
type Num struct {
	ID            int
	AbstractNumID int
	// Overrides holds raw w:lvlOverride children
	Overrides []byte
}

// ParseNumbering decodes a numbering part. Picture bullets are dropped
// because their image relationships are not carried over.
func ParseNumbering(r io.Reader) (*Numbering, error) {
	d := xml.NewDecoder(r)
	n := &Numbering{}
	root := false
	for {
		token, err := d.Token()
		if err == io.EOF {
			if !root {
				return nil, fmt.Errorf("failed to parse numbering: no w:numbering element")
			}
			return n, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse numbering: %w", err)
		}
		t, ok := token.(xml.StartElement)
		if !ok {
			continue
		}
		if !root {
			if t.Name.Local != "numbering" {
				return nil, fmt.Errorf("failed to parse numbering: unexpected root element %q", t.Name.Local)
			}
			root = true
			n.Prefixes = PrefixesFromAttrs(t.Attr)
			continue
		}
		switch t.Name.Local {
		case "abstractNum":
			raw, err := CaptureRaw(d, t, n.Prefixes)
			if err != nil {
				return nil, fmt.Errorf("failed to parse numbering: %w", err)
			}
			n.AbstractNums = append(n.AbstractNums, AbstractNum{
				ID:      atoi(attrValue(t.Attr, "abstractNumId")),
				Content: stripPictureBullets(raw.Content),
			})
		case "num":
			num, err := decodeNum(d, t, n.Prefixes)
			if err != nil {
				return nil, fmt.Errorf("failed to parse numbering: %w", err)
			}
			n.Nums = append(n.Nums, num)
		default:
			if err := d.Skip(); err != nil {
				return nil, fmt.Errorf("failed to parse numbering: %w", err)
			}
		}
	}
}

func decodeNum(d *xml.Decoder, start xml.StartElement, prefixes Prefixes) (Num, error) {
	num := Num{ID: atoi(attrValue(start.Attr, "numId"))}
	var overrides bytes.Buffer
	for {
		token, err := d.Token()
		if err != nil {
			return num, err
		}
		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "abstractNumId":
				num.AbstractNumID = atoi(attrValue(t.Attr, "val"))
				if err := d.Skip(); err != nil {
					return num, err
				}
			case "lvlOverride":
				raw, err := CaptureRaw(d, t, prefixes)
				if err != nil {
					return num, err
				}
				overrides.Write(raw.Outer(prefixes))
			default:
				if err := d.Skip(); err != nil {
					return num, err
				}
			}
		case xml.EndElement:
			if t.Name.Local == start.Name.Local {
				num.Overrides = overrides.Bytes()
				return num, nil
			}
		}
	}
}

// Clone returns a deep copy
func (n *Numbering) Clone() *Numbering {
	if n == nil {
		return nil
	}
	c := &Numbering{Prefixes: Prefixes{}}
	c.Prefixes.Merge(n.Prefixes)
	c.AbstractNums = append([]AbstractNum(nil), n.AbstractNums...)
	c.Nums = append([]Num(nil), n.Nums...)
	return c
}

// HasNum reports whether a w:num with the given id exists
func (n *Numbering) HasNum(id int) bool {
	if n == nil {
		return false
	}
	for _, num := range n.Nums {
		if num.ID == id {
			return true
		}
	}
	return false
}

// MaxIDs returns the largest abstractNumId and numId in use
func (n *Numbering) MaxIDs() (abstractID, numID int) {
	abstractID, numID = -1, 0
	if n == nil {
		return abstractID, numID
	}
	for _, a := range n.AbstractNums {
		if a.ID > abstractID {
			abstractID = a.ID
		}
	}
	for _, num := range n.Nums {
		if num.ID > numID {
			numID = num.ID
		}
	}
	return abstractID, numID
}

// MarshalNumbering serializes a numbering part. All abstract definitions
// precede all instances as the schema requires.
func MarshalNumbering(n *Numbering) []byte {
	var buf bytes.Buffer
	buf.WriteString(Header)
	buf.WriteString("<w:numbering")
	for _, attr := range n.Prefixes.Declarations() {
		writeAttr(&buf, attr.Name.Local, attr.Value)
	}
	buf.WriteByte('>')
	for _, a := range n.AbstractNums {
		buf.WriteString("<w:abstractNum")
		writeAttr(&buf, "w:abstractNumId", strconv.Itoa(a.ID))
		buf.WriteByte('>')
		buf.Write(a.Content)
		buf.WriteString("</w:abstractNum>")
	}
	for _, num := range n.Nums {
		buf.WriteString("<w:num")
		writeAttr(&buf, "w:numId", strconv.Itoa(num.ID))
		buf.WriteString(`><w:abstractNumId w:val="`)
		buf.WriteString(strconv.Itoa(num.AbstractNumID))
		buf.WriteString(`"></w:abstractNumId>`)
		buf.Write(num.Overrides)
		buf.WriteString("</w:num>")
	}
	buf.WriteString("</w:numbering>")
	return buf.Bytes()
}

func stripPictureBullets(content []byte) []byte {
	return pictureBulletPattern.ReplaceAll(content, nil)
}
