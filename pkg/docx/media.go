package docx

import (
	"encoding/hex"
	"net/http"
	"path"
	"strings"

	"github.com/zeebo/blake3"
)

// imageContentTypes maps file extensions to the content types registered in
// [Content_Types].xml
var imageContentTypes = map[string]string{
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"bmp":  "image/bmp",
	"tiff": "image/tiff",
	"tif":  "image/tiff",
	"svg":  "image/svg+xml",
	"webp": "image/webp",
	"emf":  "image/x-emf",
	"wmf":  "image/x-wmf",
}

// ContentTypeForExtension returns the content type of an image extension
func ContentTypeForExtension(ext string) (string, bool) {
	ct, ok := imageContentTypes[strings.ToLower(strings.TrimPrefix(ext, "."))]
	return ct, ok
}

// ExtensionFor picks the extension to store media under. The name's
// extension wins; otherwise the content is sniffed.
func ExtensionFor(name string, data []byte) string {
	if ext := strings.ToLower(strings.TrimPrefix(path.Ext(name), ".")); ext != "" {
		if _, ok := imageContentTypes[ext]; ok {
			if ext == "jpeg" {
				return "jpg"
			}
			if ext == "tif" {
				return "tiff"
			}
			return ext
		}
	}
	switch http.DetectContentType(data) {
	case "image/png":
		return "png"
	case "image/jpeg":
		return "jpg"
	case "image/gif":
		return "gif"
	case "image/bmp":
		return "bmp"
	case "image/webp":
		return "webp"
	}
	return ""
}

// MediaEntry is one distinct piece of binary content
type MediaEntry struct {
	Key       string
	Extension string
	Data      []byte
}

// ContentType returns the content type of the entry
func (m *MediaEntry) ContentType() string {
	ct, _ := ContentTypeForExtension(m.Extension)
	return ct
}

// MediaTable stores binary content keyed by its BLAKE3 hash. Identical
// content registered twice yields one entry. A table belongs to one
// document build and is not safe for concurrent use.
type MediaTable struct {
	entries map[string]*MediaEntry
	order   []string
}

// NewMediaTable returns an empty table
func NewMediaTable() *MediaTable {
	return &MediaTable{entries: make(map[string]*MediaEntry)}
}

// HashContent returns the media key for data
func HashContent(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Register stores data and returns its key
func (t *MediaTable) Register(data []byte, extension string) string {
	key := HashContent(data)
	if _, ok := t.entries[key]; ok {
		return key
	}
	t.entries[key] = &MediaEntry{
		Key:       key,
		Extension: strings.ToLower(strings.TrimPrefix(extension, ".")),
		Data:      data,
	}
	t.order = append(t.order, key)
	return key
}

// Get returns the entry for a key
func (t *MediaTable) Get(key string) (*MediaEntry, bool) {
	entry, ok := t.entries[key]
	return entry, ok
}

// Len returns the number of distinct entries
func (t *MediaTable) Len() int {
	return len(t.order)
}

// Entries returns the entries in registration order
func (t *MediaTable) Entries() []*MediaEntry {
	entries := make([]*MediaEntry, 0, len(t.order))
	for _, key := range t.order {
		entries = append(entries, t.entries[key])
	}
	return entries
}

// Merge copies every entry of other into t
func (t *MediaTable) Merge(other *MediaTable) {
	if other == nil {
		return
	}
	for _, key := range other.order {
		if _, ok := t.entries[key]; ok {
			continue
		}
		t.entries[key] = other.entries[key]
		t.order = append(t.order, key)
	}
}
