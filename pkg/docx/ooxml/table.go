package ooxml

import (
	"encoding/xml"
	"io"
	"strconv"
)

// Table represents a w:tbl element
type Table struct {
	Properties *TableProperties
	Grid       []int
	Rows       []TableRow
}

func (t Table) isBodyElement() {}

// TableProperties is the subset of w:tblPr this package models
type TableProperties struct {
	Style *Style
	Width *Width
	Look  string
}

// Width is a measurement with its unit type (dxa, pct, auto)
type Width struct {
	W    int
	Type string
}

// TableRow represents a w:tr element
type TableRow struct {
	Header bool
	Cells  []TableCell
}

// TableCell represents a w:tc element
type TableCell struct {
	Width    *Width
	GridSpan int
	Elements []BodyElement
}

// UnmarshalXML reads table properties, grid and rows
func (tbl *Table) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
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
			case "tblPr":
				props, err := decodeTableProperties(d, t)
				if err != nil {
					return err
				}
				tbl.Properties = props
			case "gridCol":
				tbl.Grid = append(tbl.Grid, atoi(attrValue(t.Attr, "w")))
				if err := d.Skip(); err != nil {
					return err
				}
			case "tblGrid":
				// gridCol children are read by this loop
			case "tr":
				var row TableRow
				if err := d.DecodeElement(&row, &t); err != nil {
					return err
				}
				tbl.Rows = append(tbl.Rows, row)
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

func decodeTableProperties(d *xml.Decoder, start xml.StartElement) (*TableProperties, error) {
	props := &TableProperties{}
	for {
		token, err := d.Token()
		if err != nil {
			return nil, err
		}
		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tblStyle":
				props.Style = &Style{Val: attrValue(t.Attr, "val")}
			case "tblW":
				props.Width = &Width{W: atoi(attrValue(t.Attr, "w")), Type: attrValue(t.Attr, "type")}
			case "tblLook":
				props.Look = attrValue(t.Attr, "val")
			}
			if err := d.Skip(); err != nil {
				return nil, err
			}
		case xml.EndElement:
			if t.Name.Local == start.Name.Local {
				return props, nil
			}
		}
	}
}

// MarshalXML writes w:tbl
func (tbl Table) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start = xml.StartElement{Name: xml.Name{Local: "w:tbl"}}
	if err := e.EncodeToken(start); err != nil {
		return err
	}

	pr := open("w:tblPr")
	if err := e.EncodeToken(pr); err != nil {
		return err
	}
	if tbl.Properties != nil {
		if tbl.Properties.Style != nil {
			if err := e.EncodeElement(tbl.Properties.Style, xml.StartElement{Name: xml.Name{Local: "w:tblStyle"}}); err != nil {
				return err
			}
		}
		if tbl.Properties.Width != nil {
			if err := emptyElement(e, "w:tblW", tbl.Properties.Width.attrs()...); err != nil {
				return err
			}
		}
		if tbl.Properties.Look != "" {
			if err := emptyElement(e, "w:tblLook", valAttr(tbl.Properties.Look)); err != nil {
				return err
			}
		}
	}
	if err := e.EncodeToken(pr.End()); err != nil {
		return err
	}

	grid := open("w:tblGrid")
	if err := e.EncodeToken(grid); err != nil {
		return err
	}
	for _, w := range tbl.Grid {
		if err := emptyElement(e, "w:gridCol", attr("w:w", strconv.Itoa(w))); err != nil {
			return err
		}
	}
	if err := e.EncodeToken(grid.End()); err != nil {
		return err
	}

	for i := range tbl.Rows {
		if err := e.EncodeElement(&tbl.Rows[i], xml.StartElement{Name: xml.Name{Local: "w:tr"}}); err != nil {
			return err
		}
	}
	return e.EncodeToken(start.End())
}

func (w *Width) attrs() []xml.Attr {
	return []xml.Attr{attr("w:w", strconv.Itoa(w.W)), attr("w:type", w.Type)}
}

// UnmarshalXML reads the header flag and cells
func (row *TableRow) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		token, err := d.Token()
		if err != nil {
			return err
		}
		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "trPr":
				// tblHeader is read by this loop
			case "tblHeader":
				row.Header = toggle(t.Attr)
				if err := d.Skip(); err != nil {
					return err
				}
			case "tc":
				var cell TableCell
				if err := d.DecodeElement(&cell, &t); err != nil {
					return err
				}
				row.Cells = append(row.Cells, cell)
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

// MarshalXML writes w:tr
func (row TableRow) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start = xml.StartElement{Name: xml.Name{Local: "w:tr"}}
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	if row.Header {
		pr := open("w:trPr")
		if err := e.EncodeToken(pr); err != nil {
			return err
		}
		if err := emptyElement(e, "w:tblHeader"); err != nil {
			return err
		}
		if err := e.EncodeToken(pr.End()); err != nil {
			return err
		}
	}
	for i := range row.Cells {
		if err := e.EncodeElement(&row.Cells[i], xml.StartElement{Name: xml.Name{Local: "w:tc"}}); err != nil {
			return err
		}
	}
	return e.EncodeToken(start.End())
}

// UnmarshalXML reads the cell width, span and nested content
func (cell *TableCell) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		token, err := d.Token()
		if err != nil {
			return err
		}
		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tcPr":
				// tcW and gridSpan are read by this loop
			case "tcW":
				cell.Width = &Width{W: atoi(attrValue(t.Attr, "w")), Type: attrValue(t.Attr, "type")}
				if err := d.Skip(); err != nil {
					return err
				}
			case "gridSpan":
				cell.GridSpan = atoi(attrValue(t.Attr, "val"))
				if err := d.Skip(); err != nil {
					return err
				}
			case "p":
				var para Paragraph
				if err := d.DecodeElement(&para, &t); err != nil {
					return err
				}
				cell.Elements = append(cell.Elements, &para)
			case "tbl":
				var table Table
				if err := d.DecodeElement(&table, &t); err != nil {
					return err
				}
				cell.Elements = append(cell.Elements, &table)
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

// MarshalXML writes w:tc. A cell always ends with a paragraph.
func (cell TableCell) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start = xml.StartElement{Name: xml.Name{Local: "w:tc"}}
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	if cell.Width != nil || cell.GridSpan > 1 {
		pr := open("w:tcPr")
		if err := e.EncodeToken(pr); err != nil {
			return err
		}
		if cell.Width != nil {
			if err := emptyElement(e, "w:tcW", cell.Width.attrs()...); err != nil {
				return err
			}
		}
		if cell.GridSpan > 1 {
			if err := emptyElement(e, "w:gridSpan", valAttr(strconv.Itoa(cell.GridSpan))); err != nil {
				return err
			}
		}
		if err := e.EncodeToken(pr.End()); err != nil {
			return err
		}
	}
	if err := encodeBodyElements(e, cell.Elements); err != nil {
		return err
	}
	if len(cell.Elements) == 0 {
		if err := e.EncodeElement(&Paragraph{}, xml.StartElement{Name: xml.Name{Local: "w:p"}}); err != nil {
			return err
		}
	} else if _, ok := cell.Elements[len(cell.Elements)-1].(*Paragraph); !ok {
		if err := e.EncodeElement(&Paragraph{}, xml.StartElement{Name: xml.Name{Local: "w:p"}}); err != nil {
			return err
		}
	}
	return e.EncodeToken(start.End())
}
