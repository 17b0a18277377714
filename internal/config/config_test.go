package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleBookTOML = `
[book]
title = "Field Guide"
authors = ["Ada", "Grace"]
language = "en"

[build]
build-dir = "out"

[[output.docx.documents]]
filename = "guide.docx"
template = "reference.docx"
include = ["intro.md", "guide/*"]
offset_headings_by = 1
prepend = ["cover.docx"]
append = ["back.docx"]
hard_line_breaks = false

[[output.docx.documents]]
filename = "full.docx"
title = "Everything"
`

func TestDecodeTOML(t *testing.T) {
	f, err := DecodeTOML(strings.NewReader(sampleBookTOML))
	require.NoError(t, err)

	b := f.Resolve()
	assert.Equal(t, "Field Guide", b.Title)
	assert.Equal(t, []string{"Ada", "Grace"}, b.Authors)
	assert.Equal(t, "src", b.Src)
	assert.Equal(t, "out", b.BuildDir)
	require.Len(t, b.Documents, 2)

	guide := b.Documents[0]
	assert.Equal(t, "reference.docx", guide.Template)
	assert.Equal(t, []string{"intro.md", "guide/*"}, guide.Include)
	assert.Equal(t, 1, guide.OffsetHeadingsBy)
	assert.Equal(t, []string{"cover.docx"}, guide.Prepend)
	assert.Equal(t, []string{"back.docx"}, guide.Append)
	assert.False(t, guide.LineBreaks())
	assert.Equal(t, "Field Guide", guide.Title)

	full := b.Documents[1]
	assert.Equal(t, []string{"*"}, full.Include)
	assert.True(t, full.LineBreaks())
	assert.Equal(t, "Everything", full.Title)

	for _, err := range b.DocumentErrors() {
		assert.NoError(t, err)
	}
}

func TestResolveDefaults(t *testing.T) {
	b := File{Book: BookSection{Title: "T"}}.Resolve()
	require.Len(t, b.Documents, 1)
	assert.Equal(t, DefaultFilename, b.Documents[0].Filename)
	assert.Equal(t, []string{"*"}, b.Documents[0].Include)
	assert.Equal(t, DefaultSrc, b.Src)
	assert.Equal(t, DefaultBuildDir, b.BuildDir)
}

func TestDocumentErrors(t *testing.T) {
	tests := []struct {
		name  string
		doc   DocumentConfig
		field string
	}{
		{"missing filename", DocumentConfig{}, "filename"},
		{"wrong extension", DocumentConfig{Filename: "book.pdf"}, "filename"},
		{"absolute filename", DocumentConfig{Filename: "/tmp/book.docx"}, "filename"},
		{"escaping filename", DocumentConfig{Filename: "../book.docx"}, "filename"},
		{"bad glob", DocumentConfig{Filename: "a.docx", Include: []string{"[oops"}}, "include"},
		{"empty pattern", DocumentConfig{Filename: "a.docx", Include: []string{""}}, "include"},
		{"empty fragment", DocumentConfig{Filename: "a.docx", Prepend: []string{""}}, "prepend"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := File{Output: OutputSection{Docx: &DocxSection{Documents: []DocumentConfig{
				{Filename: "ok.docx"},
				tt.doc,
			}}}}.Resolve()

			errs := b.DocumentErrors()
			require.Len(t, errs, 2)
			assert.NoError(t, errs[0], "valid sibling must not fail")
			require.ErrorIs(t, errs[1], ErrInvalidConfig)
			assert.Contains(t, errs[1].Error(), tt.field)
		})
	}
}

func TestDocumentErrorsDuplicateFilename(t *testing.T) {
	b := File{Output: OutputSection{Docx: &DocxSection{Documents: []DocumentConfig{
		{Filename: "book.docx"},
		{Filename: "./Book.docx"},
	}}}}.Resolve()

	errs := b.DocumentErrors()
	assert.NoError(t, errs[0])
	require.ErrorIs(t, errs[1], ErrInvalidConfig)
	assert.Contains(t, errs[1].Error(), "already used by document 1")
}

func TestLoadTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "book.toml")
	require.NoError(t, os.WriteFile(path, []byte(sampleBookTOML), 0o644))

	f, err := LoadTOML(path)
	require.NoError(t, err)
	assert.Equal(t, "Field Guide", f.Book.Title)

	require.NoError(t, os.WriteFile(path, []byte("[book\n"), 0o644))
	_, err = LoadTOML(path)
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestRuntimeFromEnvironment(t *testing.T) {
	t.Setenv("MDBOOK_DOCX_LOG_LEVEL", "DEBUG")
	t.Setenv("MDBOOK_DOCX_PARALLELISM", "3")
	t.Setenv("MDBOOK_DOCX_MAX_IMAGE_WIDTH", "400")
	t.Setenv("MDBOOK_DOCX_CACHE_TEMPLATES", "off")

	rt := RuntimeFromEnvironment()
	assert.Equal(t, "debug", rt.LogLevel)
	assert.Equal(t, 3, rt.Parallelism)
	assert.Equal(t, 400, rt.MaxImageWidth)
	assert.Equal(t, int64(400*9525), rt.MaxImageWidthEMU())
	assert.False(t, rt.CacheTemplates)
	assert.NoError(t, rt.Validate())
}

func TestRuntimeValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Runtime)
		wantErr bool
	}{
		{"defaults", func(*Runtime) {}, false},
		{"bad level", func(r *Runtime) { r.LogLevel = "loud" }, true},
		{"zero parallelism", func(r *Runtime) { r.Parallelism = 0 }, true},
		{"negative width", func(r *Runtime) { r.MaxImageWidth = -1 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := DefaultRuntime()
			tt.mutate(rt)
			err := rt.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGlobalRuntime(t *testing.T) {
	defer SetRuntime(nil)

	SetRuntime(&Runtime{LogLevel: "warn", Parallelism: 2})
	got := GetRuntime()
	got.Parallelism = 9
	assert.Equal(t, 2, GetRuntime().Parallelism, "GetRuntime must return a copy")
}
