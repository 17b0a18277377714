package docx

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/RossMurr4y/mdbook-docx/pkg/docx/ooxml"
)

// Package is a read-only view of an OOXML zip package
type Package struct {
	reader *zip.Reader
	Parts  map[string]*zip.File
	main   string
}

// NewPackage indexes the parts of a package and locates its main document
func NewPackage(r io.ReaderAt, size int64) (*Package, error) {
	zipReader, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to read zip file: %w", err)
	}

	pkg := &Package{
		reader: zipReader,
		Parts:  make(map[string]*zip.File),
		main:   "word/document.xml",
	}
	for _, file := range zipReader.File {
		pkg.Parts[strings.TrimPrefix(file.Name, "/")] = file
	}

	rels, err := pkg.Relationships("")
	if err != nil {
		return nil, err
	}
	if rel, ok := rels.ByType(ooxml.RelTypeOfficeDocument); ok {
		pkg.main = strings.TrimPrefix(rel.Target, "/")
	}
	if _, ok := pkg.Parts[pkg.main]; !ok {
		return nil, fmt.Errorf("not a valid DOCX file: missing %s", pkg.main)
	}
	return pkg, nil
}

// MainPart returns the name of the main document part
func (p *Package) MainPart() string {
	return p.main
}

// HasPart reports whether the package contains a part
func (p *Package) HasPart(name string) bool {
	_, ok := p.Parts[name]
	return ok
}

// ReadPart returns the bytes of a part
func (p *Package) ReadPart(name string) ([]byte, error) {
	file, ok := p.Parts[name]
	if !ok {
		return nil, fmt.Errorf("part %s not found", name)
	}
	rc, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return content, nil
}

// Relationships returns the relationships of a part. The package-level
// relationships are returned for the empty part name. A missing .rels part
// yields an empty set.
func (p *Package) Relationships(partName string) (*ooxml.Relationships, error) {
	relPath := relationshipsPath(partName)
	if !p.HasPart(relPath) {
		return &ooxml.Relationships{}, nil
	}
	content, err := p.ReadPart(relPath)
	if err != nil {
		return nil, err
	}
	return ooxml.ParseRelationships(bytes.NewReader(content))
}

// RelatedPart resolves the target of a relationship owned by partName
func (p *Package) RelatedPart(partName string, rel ooxml.Relationship) string {
	if strings.HasPrefix(rel.Target, "/") {
		return strings.TrimPrefix(rel.Target, "/")
	}
	return path.Clean(path.Join(path.Dir(partName), rel.Target))
}

// PartOfType returns the part related to the main document by the given
// relationship type
func (p *Package) PartOfType(relType string) (string, bool) {
	rels, err := p.Relationships(p.main)
	if err != nil {
		return "", false
	}
	rel, ok := rels.ByType(relType)
	if !ok {
		return "", false
	}
	name := p.RelatedPart(p.main, rel)
	return name, p.HasPart(name)
}

func relationshipsPath(partName string) string {
	if partName == "" {
		return "_rels/.rels"
	}
	dir, base := path.Split(partName)
	return dir + "_rels/" + base + ".rels"
}
