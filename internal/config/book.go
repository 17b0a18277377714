// Package config holds the book configuration read from book.toml or the
// mdBook render context, and the runtime settings read from the
// environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/RossMurr4y/mdbook-docx/internal/manifest"
)

// ErrInvalidConfig marks configuration errors
var ErrInvalidConfig = errors.New("invalid config")

const (
	DefaultFilename = "output.docx"
	DefaultSrc      = "src"
	DefaultBuildDir = "book"
)

// File mirrors the parts of book.toml this renderer reads. The same shape
// arrives as JSON in the mdBook render context.
type File struct {
	Book   BookSection   `toml:"book" json:"book"`
	Build  BuildSection  `toml:"build" json:"build"`
	Output OutputSection `toml:"output" json:"output"`
}

type BookSection struct {
	Title    string   `toml:"title" json:"title"`
	Authors  []string `toml:"authors" json:"authors"`
	Language string   `toml:"language" json:"language"`
	Src      string   `toml:"src" json:"src"`
}

type BuildSection struct {
	BuildDir string `toml:"build-dir" json:"build-dir"`
}

type OutputSection struct {
	Docx *DocxSection `toml:"docx" json:"docx"`
}

// DocxSection is the [output.docx] table
type DocxSection struct {
	Documents []DocumentConfig `toml:"documents" json:"documents"`
}

// DocumentConfig describes one output package
type DocumentConfig struct {
	Filename         string   `toml:"filename" json:"filename"`
	Template         string   `toml:"template" json:"template"`
	Include          []string `toml:"include" json:"include"`
	OffsetHeadingsBy int      `toml:"offset_headings_by" json:"offset_headings_by"`
	Prepend          []string `toml:"prepend" json:"prepend"`
	Append           []string `toml:"append" json:"append"`
	HardLineBreaks   *bool    `toml:"hard_line_breaks" json:"hard_line_breaks"`
	Title            string   `toml:"title" json:"title"`
}

// LineBreaks reports whether soft line breaks become line breaks
func (d DocumentConfig) LineBreaks() bool {
	return d.HardLineBreaks == nil || *d.HardLineBreaks
}

// Validate checks one document entry on its own
func (d DocumentConfig) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Filename,
			validation.Required,
			validation.By(docxExtension),
			validation.By(relativePath),
		),
		validation.Field(&d.Include,
			validation.Each(validation.Required),
			validation.By(compiles),
		),
		validation.Field(&d.Prepend, validation.Each(validation.Required)),
		validation.Field(&d.Append, validation.Each(validation.Required)),
	)
}

func docxExtension(value interface{}) error {
	s, _ := value.(string)
	if !strings.EqualFold(path.Ext(s), ".docx") {
		return validation.NewError("validation_docx_extension", "must end with .docx")
	}
	return nil
}

func relativePath(value interface{}) error {
	s, _ := value.(string)
	s = filepath.ToSlash(s)
	if path.IsAbs(s) || filepath.IsAbs(s) {
		return validation.NewError("validation_relative_path", "must be relative to the output directory")
	}
	for _, part := range strings.Split(s, "/") {
		if part == ".." {
			return validation.NewError("validation_relative_path", "must not leave the output directory")
		}
	}
	return nil
}

func compiles(value interface{}) error {
	patterns, _ := value.([]string)
	if _, err := manifest.Compile(patterns); err != nil {
		return validation.NewError("validation_glob", err.Error())
	}
	return nil
}

// Book is the resolved configuration with defaults applied
type Book struct {
	Title     string
	Authors   []string
	Language  string
	Src       string
	BuildDir  string
	Documents []DocumentConfig
}

// Resolve applies defaults. A book without documents builds a single
// output.docx holding every chapter.
func (f File) Resolve() *Book {
	b := &Book{
		Title:    f.Book.Title,
		Authors:  append([]string(nil), f.Book.Authors...),
		Language: f.Book.Language,
		Src:      f.Book.Src,
		BuildDir: f.Build.BuildDir,
	}
	if b.Src == "" {
		b.Src = DefaultSrc
	}
	if b.BuildDir == "" {
		b.BuildDir = DefaultBuildDir
	}

	var docs []DocumentConfig
	if f.Output.Docx != nil {
		docs = f.Output.Docx.Documents
	}
	if len(docs) == 0 {
		docs = []DocumentConfig{{Filename: DefaultFilename}}
	}
	b.Documents = make([]DocumentConfig, len(docs))
	for i, d := range docs {
		if len(d.Include) == 0 {
			d.Include = []string{"*"}
		}
		if d.Title == "" {
			d.Title = b.Title
		}
		b.Documents[i] = d
	}
	return b
}

// DocumentErrors validates every document. The result is parallel to
// Documents, nil where the document is valid. A filename already used by an
// earlier document is an error for the later one.
func (b *Book) DocumentErrors() []error {
	errs := make([]error, len(b.Documents))
	seen := make(map[string]int, len(b.Documents))
	for i, d := range b.Documents {
		if err := d.Validate(); err != nil {
			errs[i] = fmt.Errorf("%w: document %d (%s): %v", ErrInvalidConfig, i+1, d.Filename, err)
			continue
		}
		key := strings.ToLower(path.Clean(filepath.ToSlash(d.Filename)))
		if first, ok := seen[key]; ok {
			errs[i] = fmt.Errorf("%w: document %d (%s): filename already used by document %d", ErrInvalidConfig, i+1, d.Filename, first+1)
			continue
		}
		seen[key] = i
	}
	return errs
}

// DecodeTOML reads a book.toml stream
func DecodeTOML(r io.Reader) (*File, error) {
	var f File
	if _, err := toml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return &f, nil
}

// LoadTOML reads a book.toml file
func LoadTOML(filename string) (*File, error) {
	var f File
	if _, err := toml.DecodeFile(filename, &f); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, filename, err)
	}
	return &f, nil
}
