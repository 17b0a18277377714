package mdbook

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleContext = `{
  "version": "0.4.40",
  "root": "/books/guide",
  "book": {
    "sections": [
      {"Chapter": {
        "name": "Intro",
        "content": "# Intro\n",
        "number": [1],
        "sub_items": [
          {"Chapter": {"name": "Setup", "content": "# Setup\n", "number": [1, 1], "sub_items": [], "path": "intro/setup.md", "source_path": "intro/setup.md", "parent_names": ["Intro"]}},
          {"Chapter": {"name": "Later", "content": "", "number": null, "sub_items": [], "path": null, "source_path": null, "parent_names": ["Intro"]}}
        ],
        "path": "intro.md",
        "source_path": "intro.md",
        "parent_names": []
      }},
      "Separator",
      {"PartTitle": "Reference"},
      {"Chapter": {"name": "API", "content": "# API\n", "number": [2], "sub_items": [], "path": "api.md", "source_path": "api.md", "parent_names": []}}
    ],
    "__non_exhaustive": null
  },
  "config": {
    "book": {"title": "Guide", "authors": ["Ada"], "language": "en", "src": "src"},
    "output": {
      "html": {},
      "docx": {"documents": [{"filename": "guide.docx", "include": ["intro*"], "offset_headings_by": 1}]}
    }
  },
  "destination": "/books/guide/book/docx"
}`

func TestReadRenderContext(t *testing.T) {
	rc, err := ReadRenderContext(strings.NewReader(sampleContext))
	require.NoError(t, err)

	assert.Equal(t, "0.4.40", rc.Version)
	require.Len(t, rc.Book.Sections, 4)
	assert.True(t, rc.Book.Sections[1].Separator)
	assert.Equal(t, "Reference", rc.Book.Sections[2].PartTitle)

	project := rc.Project()
	assert.Equal(t, "/books/guide", project.Root)
	assert.Equal(t, "/books/guide/book/docx", project.Destination)
	assert.Equal(t, filepath.Join("/books/guide", "src"), project.SrcDir())
	assert.Equal(t, "Guide", project.Config.Title)
	require.Len(t, project.Config.Documents, 1)
	assert.Equal(t, 1, project.Config.Documents[0].OffsetHeadingsBy)

	require.Len(t, project.Chapters, 3)
	var got []string
	for i, ch := range project.Chapters {
		assert.Equal(t, i, ch.Ordinal)
		got = append(got, ch.Path)
	}
	assert.Equal(t, []string{"intro.md", "intro/setup.md", "api.md"}, got)
	assert.Equal(t, "# Setup\n", project.Chapters[1].Content)
}

func TestReadRenderContextItems(t *testing.T) {
	rc, err := ReadRenderContext(strings.NewReader(`{"root": "/b", "book": {"items": [
		{"Chapter": {"name": "One", "content": "x", "sub_items": [], "path": "one.md"}}
	]}, "config": {"book": {}}, "destination": "/b/book/docx"}`))
	require.NoError(t, err)

	chapters := rc.Book.Chapters()
	require.Len(t, chapters, 1)
	assert.Equal(t, "one.md", chapters[0].Path)
	assert.Equal(t, "output.docx", rc.Project().Config.Documents[0].Filename)
}

func TestReadRenderContextRejectsUnknownItems(t *testing.T) {
	_, err := ReadRenderContext(strings.NewReader(`{"book": {"sections": ["Spacer"]}}`))
	require.Error(t, err)
}

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

func TestLoadBookFromSummary(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"book.toml": "[book]\ntitle = \"Guide\"\nsrc = \"text\"\n\n[build]\nbuild-dir = \"out\"\n",
		"text/SUMMARY.md": `# Summary

[Preface](preface.md)

- [Getting *Started*](guide/start.md)
    - [Details](guide/details.md#top)
- [Draft]()
- [Website](https://example.com/page.md)

---

- [Again](preface.md)
`,
		"text/preface.md":       "# Preface\n",
		"text/guide/start.md":   "# Start\n",
		"text/guide/details.md": "# Details\n",
		"text/unlisted.md":      "# Unlisted\n",
	})

	project, err := LoadBook(root)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "out", "docx"), project.Destination)
	assert.Equal(t, filepath.Join(root, "text"), project.SrcDir())
	assert.Equal(t, "Guide", project.Config.Title)

	var paths, names []string
	for _, ch := range project.Chapters {
		paths = append(paths, ch.Path)
		names = append(names, ch.Name)
	}
	assert.Equal(t, []string{"preface.md", "guide/start.md", "guide/details.md"}, paths)
	assert.Equal(t, []string{"Preface", "Getting Started", "Details"}, names)
	assert.Equal(t, "# Start\n", project.Chapters[1].Content)
}

func TestLoadBookWithoutSummary(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"src/b.md":       "b",
		"src/a/z.md":     "z",
		"src/a.md":       "a",
		"src/notes.txt":  "skip",
		"src/c/image.md": "img",
	})

	project, err := LoadBook(root)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "book", "docx"), project.Destination)

	var paths []string
	for _, ch := range project.Chapters {
		paths = append(paths, ch.Path)
	}
	assert.Equal(t, []string{"a.md", "a/z.md", "b.md", "c/image.md"}, paths)
	assert.Equal(t, "z", project.Chapters[1].Name)
}

func TestLoadBookMissingChapter(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"src/SUMMARY.md": "- [Gone](gone.md)\n",
	})

	_, err := LoadBook(root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gone.md")
}
