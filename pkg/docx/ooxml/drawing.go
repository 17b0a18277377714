package ooxml

import (
	"encoding/xml"
	"strconv"
)

// EMUsPerPixel converts 96 DPI pixels to English Metric Units.
const EMUsPerPixel = 9525

// Drawing is an inline picture. Floating anchors are read as inline pictures.
type Drawing struct {
	RelID       string
	Cx          int64
	Cy          int64
	ID          int
	Name        string
	Description string
}

func (dr Drawing) isRunContent() {}

// UnmarshalXML walks wp:inline or wp:anchor and keeps the extent, the
// docPr identity and the blip relationship.
func (dr *Drawing) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	extentSeen := false
	depth := 1
	for depth > 0 {
		token, err := d.Token()
		if err != nil {
			return err
		}
		switch t := token.(type) {
		case xml.StartElement:
			depth++
			switch t.Name.Local {
			case "extent":
				if !extentSeen && t.Name.Space == NamespaceWP {
					dr.Cx = atoi64(attrValue(t.Attr, "cx"))
					dr.Cy = atoi64(attrValue(t.Attr, "cy"))
					extentSeen = true
				}
			case "docPr":
				dr.ID = atoi(attrValue(t.Attr, "id"))
				dr.Name = attrValue(t.Attr, "name")
				dr.Description = attrValue(t.Attr, "descr")
			case "blip":
				for _, attr := range t.Attr {
					if attr.Name.Local == "embed" {
						dr.RelID = attr.Value
					}
				}
			}
		case xml.EndElement:
			depth--
		}
	}
	return nil
}

// MarshalXML writes a complete wp:inline picture
func (dr Drawing) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	cx := strconv.FormatInt(dr.Cx, 10)
	cy := strconv.FormatInt(dr.Cy, 10)
	id := strconv.Itoa(dr.ID)

	tokens := []xml.Token{
		open("w:drawing"),
		open("wp:inline", attr("distT", "0"), attr("distB", "0"), attr("distL", "0"), attr("distR", "0")),
		open("wp:extent", attr("cx", cx), attr("cy", cy)), end("wp:extent"),
		open("wp:effectExtent", attr("l", "0"), attr("t", "0"), attr("r", "0"), attr("b", "0")), end("wp:effectExtent"),
		open("wp:docPr", attr("id", id), attr("name", dr.Name), attr("descr", dr.Description)), end("wp:docPr"),
		open("wp:cNvGraphicFramePr"),
		open("a:graphicFrameLocks", attr("noChangeAspect", "1")), end("a:graphicFrameLocks"),
		end("wp:cNvGraphicFramePr"),
		open("a:graphic"),
		open("a:graphicData", attr("uri", NamespacePic)),
		open("pic:pic"),
		open("pic:nvPicPr"),
		open("pic:cNvPr", attr("id", "0"), attr("name", dr.Name), attr("descr", dr.Description)), end("pic:cNvPr"),
		open("pic:cNvPicPr"), end("pic:cNvPicPr"),
		end("pic:nvPicPr"),
		open("pic:blipFill"),
		open("a:blip", attr("r:embed", dr.RelID)), end("a:blip"),
		open("a:stretch"), open("a:fillRect"), end("a:fillRect"), end("a:stretch"),
		end("pic:blipFill"),
		open("pic:spPr", attr("bwMode", "auto")),
		open("a:xfrm"),
		open("a:off", attr("x", "0"), attr("y", "0")), end("a:off"),
		open("a:ext", attr("cx", cx), attr("cy", cy)), end("a:ext"),
		end("a:xfrm"),
		open("a:prstGeom", attr("prst", "rect")), open("a:avLst"), end("a:avLst"), end("a:prstGeom"),
		end("pic:spPr"),
		end("pic:pic"),
		end("a:graphicData"),
		end("a:graphic"),
		end("wp:inline"),
		end("w:drawing"),
	}
	for _, tok := range tokens {
		if err := e.EncodeToken(tok); err != nil {
			return err
		}
	}
	return nil
}

func open(local string, attrs ...xml.Attr) xml.StartElement {
	return xml.StartElement{Name: xml.Name{Local: local}, Attr: attrs}
}

func end(local string) xml.EndElement {
	return xml.EndElement{Name: xml.Name{Local: local}}
}

func attr(local, value string) xml.Attr {
	return xml.Attr{Name: xml.Name{Local: local}, Value: value}
}

func atoi64(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
