// Package docx turns structural content blocks into styled Office Open XML
// documents.
//
// A build starts from a Template: a reference .docx whose style catalog is
// read into a StyleRegistry with every semantic Role (Title, Heading 1-8,
// Normal, code, tables, lists, links, quotes) bound to a concrete style.
// Markdown chapters are compiled against that registry elsewhere; this
// package supplies the block model they compile to.
//
// Pre-authored .docx fragments are loaded with LoadFragment. Their styles
// live in their own registry until Assemble merges them into the template's,
// collapsing styles with identical content and renaming the rest so no
// fragment style ever overwrites a template style. Media from every source is
// kept in a MediaTable keyed by content hash, so an image used twice is
// stored once.
//
// The result of Assemble is a CompiledDocument. Package serializes it to
// the bytes of a .docx and WritePackage stores them.
//
//	tmpl, err := docx.LoadTemplate("reference.docx")
//	if err != nil {
//	    return err
//	}
//	doc, err := docx.Assemble(docx.AssemblyInput{
//	    Template: tmpl,
//	    Chapters: [][]docx.Block{blocks},
//	    Media:    media,
//	})
//	if err != nil {
//	    return err
//	}
//	data, err := doc.Package()
//	if err != nil {
//	    return err
//	}
//	return docx.WritePackage("book/docx/output.docx", data)
//
// Every failure is a *DocumentError whose Kind is one of ErrTemplateCorrupt,
// ErrTemplateIncomplete, ErrFragmentNotFound, ErrFragmentCorrupt,
// ErrAssemblyFailed or ErrWriteError.
package docx
