// Package markdown compiles mdBook chapter Markdown into docx blocks.
//
// A Compiler is bound to the style registry of the template in use: every
// block it emits already carries the id of the style its role resolves to.
// Parsing is CommonMark with the GitHub extensions mdBook enables (tables,
// strikethrough, task lists, autolinks) and explicit heading ids.
//
//	c := markdown.New(tmpl.Registry, media, markdown.Options{
//	    OffsetHeadingsBy: 0,
//	    HardLineBreaks:   true,
//	    Resources:        markdown.DirLoader{Root: "book/src"},
//	})
//	res, err := c.Compile("chapter_1.md", source)
//
// Constructs Word cannot express, such as inline HTML, remote images and
// links between chapters without a fragment, degrade to text and are
// reported as warnings on the Result rather than failing the build.
package markdown
