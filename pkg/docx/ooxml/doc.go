// Package ooxml provides the WordprocessingML element model used to read and
// write .docx parts.
//
// The package is organized by element type:
//
//   - types.go: core interfaces (BodyElement, ParagraphContent, RunContent),
//     RawXMLElement and namespace prefix handling
//   - document.go: the w:document part and its body
//   - paragraph.go: paragraphs, paragraph properties, hyperlinks, bookmarks
//   - run.go: runs, run properties, text, breaks and tabs
//   - drawing.go: inline pictures
//   - table.go: tables, rows and cells
//   - styles.go, numbering.go: the styles and numbering parts, with each
//     definition kept as raw inner XML
//   - package.go: relationships, content types and document properties
//
// # Namespaces
//
// Decoded names carry namespace URIs. Everything written by this package uses
// literal prefixed names (w:p, r:id, wp:inline) so the encoder never invents
// its own prefixes; the part root declares every prefix. Raw XML captured from
// a foreign part is rewritten to the same canonical prefixes, which keeps
// fragments from different packages comparable byte for byte.
//
// Only the subset of properties needed to carry authored content is modelled.
// Unknown children are skipped on read.
package ooxml
