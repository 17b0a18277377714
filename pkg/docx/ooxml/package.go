package ooxml

import (
	"encoding/xml"
	"fmt"
	"io"
	"time"
)

// Relationship types
const (
	RelTypeOfficeDocument = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
	RelTypeStyles         = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles"
	RelTypeNumbering      = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/numbering"
	RelTypeSettings       = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/settings"
	RelTypeImage          = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"
	RelTypeHyperlink      = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/hyperlink"
	RelTypeCoreProperties = "http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties"
	RelTypeExtendedProps  = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/extended-properties"
)

// Content types
const (
	ContentTypeRelationships = "application/vnd.openxmlformats-package.relationships+xml"
	ContentTypeXML           = "application/xml"
	ContentTypeDocument      = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"
	ContentTypeStyles        = "application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"
	ContentTypeNumbering     = "application/vnd.openxmlformats-officedocument.wordprocessingml.numbering+xml"
	ContentTypeSettings      = "application/vnd.openxmlformats-officedocument.wordprocessingml.settings+xml"
	ContentTypeCore          = "application/vnd.openxmlformats-package.core-properties+xml"
	ContentTypeExtended      = "application/vnd.openxmlformats-officedocument.extended-properties+xml"
)

const (
	namespaceRelationships = "http://schemas.openxmlformats.org/package/2006/relationships"
	namespaceContentTypes  = "http://schemas.openxmlformats.org/package/2006/content-types"
)

// Relationships is a .rels part
type Relationships struct {
	XMLName       xml.Name       `xml:"Relationships"`
	Namespace     string         `xml:"xmlns,attr"`
	Relationships []Relationship `xml:"Relationship"`
}

// Relationship is one entry of a .rels part
type Relationship struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr,omitempty"`
}

// ParseRelationships decodes a .rels part
func ParseRelationships(r io.Reader) (*Relationships, error) {
	var rels Relationships
	if err := xml.NewDecoder(r).Decode(&rels); err != nil {
		return nil, fmt.Errorf("failed to parse relationships: %w", err)
	}
	return &rels, nil
}

// ByID returns the relationship with the given id
func (r *Relationships) ByID(id string) (Relationship, bool) {
	if r == nil {
		return Relationship{}, false
	}
	for _, rel := range r.Relationships {
		if rel.ID == id {
			return rel, true
		}
	}
	return Relationship{}, false
}

// ByType returns the first relationship of the given type
func (r *Relationships) ByType(relType string) (Relationship, bool) {
	if r == nil {
		return Relationship{}, false
	}
	for _, rel := range r.Relationships {
		if rel.Type == relType {
			return rel, true
		}
	}
	return Relationship{}, false
}

// MarshalRelationships serializes a .rels part
func MarshalRelationships(rels []Relationship) ([]byte, error) {
	doc := Relationships{Namespace: namespaceRelationships, Relationships: rels}
	data, err := xml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal relationships: %w", err)
	}
	return append([]byte(Header), data...), nil
}

// ContentTypes is the [Content_Types].xml part
type ContentTypes struct {
	XMLName   xml.Name   `xml:"Types"`
	Namespace string     `xml:"xmlns,attr"`
	Defaults  []Default  `xml:"Default"`
	Overrides []Override `xml:"Override"`
}

// Default maps a file extension to a content type
type Default struct {
	Extension   string `xml:"Extension,attr"`
	ContentType string `xml:"ContentType,attr"`
}

// Override maps a part name to a content type
type Override struct {
	PartName    string `xml:"PartName,attr"`
	ContentType string `xml:"ContentType,attr"`
}

// MarshalContentTypes serializes [Content_Types].xml
func MarshalContentTypes(ct ContentTypes) ([]byte, error) {
	ct.Namespace = namespaceContentTypes
	data, err := xml.Marshal(ct)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal content types: %w", err)
	}
	return append([]byte(Header), data...), nil
}

// CoreProperties is docProps/core.xml
type CoreProperties struct {
	XMLName    xml.Name `xml:"cp:coreProperties"`
	XmlnsCP    string   `xml:"xmlns:cp,attr"`
	XmlnsDC    string   `xml:"xmlns:dc,attr"`
	XmlnsDCT   string   `xml:"xmlns:dcterms,attr"`
	XmlnsXSI   string   `xml:"xmlns:xsi,attr"`
	Title      string   `xml:"dc:title,omitempty"`
	Creator    string   `xml:"dc:creator,omitempty"`
	Language   string   `xml:"dc:language,omitempty"`
	Identifier string   `xml:"dc:identifier,omitempty"`
	Created    w3cDate  `xml:"dcterms:created"`
	Modified   w3cDate  `xml:"dcterms:modified"`
}

type w3cDate struct {
	Type  string `xml:"xsi:type,attr"`
	Value string `xml:",chardata"`
}

// MarshalCoreProperties serializes docProps/core.xml
func MarshalCoreProperties(title, creator, language, identifier string, at time.Time) ([]byte, error) {
	stamp := at.UTC().Format(time.RFC3339)
	props := CoreProperties{
		XmlnsCP:    "http://schemas.openxmlformats.org/package/2006/metadata/core-properties",
		XmlnsDC:    "http://purl.org/dc/elements/1.1/",
		XmlnsDCT:   "http://purl.org/dc/terms/",
		XmlnsXSI:   "http://www.w3.org/2001/XMLSchema-instance",
		Title:      title,
		Creator:    creator,
		Language:   language,
		Identifier: identifier,
		Created:    w3cDate{Type: "dcterms:W3CDTF", Value: stamp},
		Modified:   w3cDate{Type: "dcterms:W3CDTF", Value: stamp},
	}
	data, err := xml.Marshal(props)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal core properties: %w", err)
	}
	return append([]byte(Header), data...), nil
}

// AppProperties is docProps/app.xml
type AppProperties struct {
	XMLName     xml.Name `xml:"Properties"`
	Namespace   string   `xml:"xmlns,attr"`
	Application string   `xml:"Application"`
	AppVersion  string   `xml:"AppVersion,omitempty"`
}

// MarshalAppProperties serializes docProps/app.xml
func MarshalAppProperties(application, version string) ([]byte, error) {
	props := AppProperties{
		Namespace:   "http://schemas.openxmlformats.org/officeDocument/2006/extended-properties",
		Application: application,
		AppVersion:  version,
	}
	data, err := xml.Marshal(props)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal app properties: %w", err)
	}
	return append([]byte(Header), data...), nil
}
