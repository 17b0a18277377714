package markdown

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ResourceLoader reads files a chapter refers to. Names are slash separated
// and relative to the book's source directory.
type ResourceLoader interface {
	Load(name string) ([]byte, error)
}

// DirLoader loads resources from a directory on disk
type DirLoader struct {
	Root string
}

// Load reads name below Root. Names escaping Root are rejected.
func (l DirLoader) Load(name string) ([]byte, error) {
	clean := path.Clean("/" + name)
	if clean == "/" {
		return nil, fmt.Errorf("empty resource name")
	}
	return os.ReadFile(filepath.Join(l.Root, filepath.FromSlash(clean[1:])))
}

// MapLoader serves resources from memory
type MapLoader map[string][]byte

// Load returns the named entry
func (m MapLoader) Load(name string) ([]byte, error) {
	data, ok := m[path.Clean(name)]
	if !ok {
		return nil, os.ErrNotExist
	}
	return data, nil
}

// resolveResource turns a destination found in a chapter into a name below
// the source directory. Absolute destinations are rooted at the source
// directory; everything else is relative to the chapter.
func resolveResource(chapter, dest string) string {
	if unescaped, err := url.PathUnescape(dest); err == nil {
		dest = unescaped
	}
	if i := strings.IndexAny(dest, "?#"); i >= 0 {
		dest = dest[:i]
	}
	if strings.HasPrefix(dest, "/") {
		return path.Clean(strings.TrimPrefix(dest, "/"))
	}
	return path.Clean(path.Join(path.Dir(chapter), dest))
}

// parseDataURI decodes a base64 data URI and returns its MIME type and
// payload
func parseDataURI(uri string) (string, []byte, error) {
	if !strings.HasPrefix(uri, "data:") {
		return "", nil, fmt.Errorf("invalid data URI format")
	}
	uri = uri[len("data:"):]

	comma := strings.Index(uri, ",")
	if comma == -1 {
		return "", nil, fmt.Errorf("invalid data URI format")
	}
	metadata, payload := uri[:comma], uri[comma+1:]
	if payload == "" {
		return "", nil, fmt.Errorf("no image data")
	}
	if !strings.HasSuffix(metadata, ";base64") {
		return "", nil, fmt.Errorf("missing base64 marker")
	}
	mimeType := strings.TrimSuffix(metadata, ";base64")

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("invalid base64 data: %w", err)
	}
	return mimeType, data, nil
}

// extensionForMIME returns the media extension for an image MIME type
func extensionForMIME(mimeType string) string {
	switch mimeType {
	case "image/png":
		return "png"
	case "image/jpeg", "image/jpg":
		return "jpg"
	case "image/gif":
		return "gif"
	case "image/bmp":
		return "bmp"
	case "image/webp":
		return "webp"
	case "image/tiff":
		return "tiff"
	}
	return ""
}

func hasScheme(dest string) bool {
	for i, c := range dest {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case i > 0 && (c >= '0' && c <= '9' || c == '+' || c == '-' || c == '.'):
		case c == ':' && i > 0:
			return true
		default:
			return false
		}
	}
	return false
}
