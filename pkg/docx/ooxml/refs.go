package ooxml

import (
	"html"
	"regexp"
	"sync"
)

// Helpers for reading and rewriting the w:val of leaf elements inside raw
// XML captured by CaptureRaw. Leaf elements are always written as
// <w:x ...></w:x>, but the self-closing form is accepted as well.

var pictureBulletPattern = regexp.MustCompile(`<w:lvlPicBulletId\b[^>]*?(?:/>|></w:lvlPicBulletId>)`)

var leafPatterns sync.Map

func leafPattern(local string) *regexp.Regexp {
	if re, ok := leafPatterns.Load(local); ok {
		return re.(*regexp.Regexp)
	}
	re := regexp.MustCompile(`<w:` + regexp.QuoteMeta(local) + `\b([^>]*?)w:val="([^"]*)"([^>]*?)(?:/>|></w:` + regexp.QuoteMeta(local) + `>)`)
	actual, _ := leafPatterns.LoadOrStore(local, re)
	return actual.(*regexp.Regexp)
}

var removalPatterns sync.Map

func removalPattern(local string) *regexp.Regexp {
	if re, ok := removalPatterns.Load(local); ok {
		return re.(*regexp.Regexp)
	}
	re := regexp.MustCompile(`<w:` + regexp.QuoteMeta(local) + `\b[^>]*?(?:/>|></w:` + regexp.QuoteMeta(local) + `>)`)
	actual, _ := removalPatterns.LoadOrStore(local, re)
	return actual.(*regexp.Regexp)
}

// LeafVal returns the w:val of the first w:<local> element in content.
func LeafVal(content []byte, local string) (string, bool) {
	m := leafPattern(local).FindSubmatch(content)
	if m == nil {
		return "", false
	}
	return html.UnescapeString(string(m[2])), true
}

// RewriteLeafVal rewrites the w:val of every w:<local> element. When fn
// reports false the element is removed.
func RewriteLeafVal(content []byte, local string, fn func(string) (string, bool)) []byte {
	re := leafPattern(local)
	return re.ReplaceAllFunc(content, func(match []byte) []byte {
		m := re.FindSubmatch(match)
		replacement, keep := fn(html.UnescapeString(string(m[2])))
		if !keep {
			return nil
		}
		out := make([]byte, 0, len(match)+len(replacement))
		out = append(out, "<w:"+local...)
		out = append(out, m[1]...)
		out = append(out, `w:val="`...)
		out = append(out, escapeAttr(replacement)...)
		out = append(out, '"')
		out = append(out, m[3]...)
		out = append(out, "></w:"+local+">"...)
		return out
	})
}

// RemoveLeaves removes every w:<local> leaf element from content.
func RemoveLeaves(content []byte, locals ...string) []byte {
	for _, local := range locals {
		content = removalPattern(local).ReplaceAll(content, nil)
	}
	return content
}

// SetLeafVal replaces the w:val of w:<local>, inserting the element at the
// front of content when it is absent.
func SetLeafVal(content []byte, local, val string) []byte {
	if _, ok := LeafVal(content, local); ok {
		return RewriteLeafVal(content, local, func(string) (string, bool) { return val, true })
	}
	prefix := []byte(`<w:` + local + ` w:val="` + escapeAttr(val) + `"></w:` + local + `>`)
	return append(prefix, content...)
}

func escapeAttr(s string) string {
	var out []byte
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '&':
			out = append(out, "&amp;"...)
		case '<':
			out = append(out, "&lt;"...)
		case '>':
			out = append(out, "&gt;"...)
		case '"':
			out = append(out, "&#34;"...)
		default:
			out = append(out, s[i])
		}
	}
	return string(out)
}
