package markdown

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"path"
	"strings"

	"github.com/yuin/goldmark/ast"

	"github.com/RossMurr4y/mdbook-docx/pkg/docx"
	"github.com/RossMurr4y/mdbook-docx/pkg/docx/ooxml"
)

// Size used when an image's dimensions cannot be decoded: 4 by 3 inches
const (
	fallbackWidth  int64 = 3657600
	fallbackHeight int64 = 2743200
)

// image loads the picture an image node refers to and registers it in the
// media table. Images that cannot be embedded are reported and nil is
// returned so the caller can fall back to the alt text.
func (s *state) image(n *ast.Image) *docx.MediaRef {
	dest := strings.TrimSpace(string(n.Destination))
	alt := s.plainText(n)

	var (
		data []byte
		ext  string
		name string
	)
	switch {
	case dest == "":
		return nil
	case strings.HasPrefix(dest, "data:"):
		mimeType, decoded, err := parseDataURI(dest)
		if err != nil {
			s.warnf("inline image skipped: %v", err)
			return nil
		}
		data, ext = decoded, extensionForMIME(mimeType)
	case hasScheme(dest):
		s.warnf("remote image %s skipped", dest)
		return nil
	default:
		if s.c.opts.Resources == nil {
			s.warnf("image %s skipped: no resource loader", dest)
			return nil
		}
		name = resolveResource(s.name, dest)
		loaded, err := s.c.opts.Resources.Load(name)
		if err != nil {
			s.warnf("image %s skipped: %v", dest, err)
			return nil
		}
		data, ext = loaded, docx.ExtensionFor(name, loaded)
	}

	if ext == "" || ext == "svg" {
		s.warnf("image %s skipped: unsupported format", displayName(dest, name))
		return nil
	}

	width, height := s.imageSize(data)
	ref := &docx.MediaRef{
		Key:         s.c.media.Register(data, ext),
		Width:       width,
		Height:      height,
		Description: alt,
	}
	if name != "" {
		ref.Name = path.Base(name)
	}
	return ref
}

// imageSize returns the display size of an image in EMUs, scaled down to
// the maximum width with the aspect ratio kept
func (s *state) imageSize(data []byte) (int64, int64) {
	width, height := fallbackWidth, fallbackHeight
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil && cfg.Width > 0 && cfg.Height > 0 {
		width = int64(cfg.Width) * ooxml.EMUsPerPixel
		height = int64(cfg.Height) * ooxml.EMUsPerPixel
	}
	if limit := s.c.opts.MaxImageWidth; width > limit {
		height = height * limit / width
		width = limit
	}
	return width, height
}

func displayName(dest, name string) string {
	if strings.HasPrefix(dest, "data:") {
		return "data URI"
	}
	if name != "" {
		return name
	}
	return dest
}
