package docx

import "fmt"

// Role is a semantic slot content is bound to. Templates supply a concrete
// style for each role by display name.
type Role int

const (
	RoleTitle Role = iota
	RoleHeading1
	RoleHeading2
	RoleHeading3
	RoleHeading4
	RoleHeading5
	RoleHeading6
	RoleHeading7
	RoleHeading8
	RoleNormal
	RoleCodeBlock
	RoleTable
	RoleListParagraph
	RoleHyperlink
	RoleBlockQuote
	RoleVerbatimChar
)

// MaxHeadingRole is the deepest heading role; deeper headings are clamped to it
const MaxHeadingRole = 8

// StyleKind is the w:type of a style definition
type StyleKind string

const (
	KindParagraph StyleKind = "paragraph"
	KindCharacter StyleKind = "character"
	KindTable     StyleKind = "table"
	KindNumbering StyleKind = "numbering"
)

type roleSpec struct {
	names []string
	kind  StyleKind
}

var roleSpecs = map[Role]roleSpec{
	RoleTitle:         {[]string{"Title"}, KindParagraph},
	RoleNormal:        {[]string{"Normal"}, KindParagraph},
	RoleCodeBlock:     {[]string{"Source Code", "Code", "HTML Preformatted"}, KindParagraph},
	RoleTable:         {[]string{"Table Grid", "Table"}, KindTable},
	RoleListParagraph: {[]string{"List Paragraph", "Compact"}, KindParagraph},
	RoleHyperlink:     {[]string{"Hyperlink"}, KindCharacter},
	RoleBlockQuote:    {[]string{"Block Text", "Quote", "Intense Quote"}, KindParagraph},
	RoleVerbatimChar:  {[]string{"Verbatim Char", "HTML Code"}, KindCharacter},
}

func init() {
	for k := 1; k <= MaxHeadingRole; k++ {
		roleSpecs[HeadingRole(k)] = roleSpec{[]string{fmt.Sprintf("Heading %d", k)}, KindParagraph}
	}
}

// AllRoles lists every role in declaration order
func AllRoles() []Role {
	roles := make([]Role, 0, int(RoleVerbatimChar)+1)
	for r := RoleTitle; r <= RoleVerbatimChar; r++ {
		roles = append(roles, r)
	}
	return roles
}

// HeadingRole returns the role for heading rank k, where 0 is Title
func HeadingRole(k int) Role {
	if k <= 0 {
		return RoleTitle
	}
	if k > MaxHeadingRole {
		k = MaxHeadingRole
	}
	return RoleTitle + Role(k)
}

// HeadingRank maps a Markdown heading level and offset to a role rank,
// clamped to [0, MaxHeadingRole]
func HeadingRank(level, offset int) int {
	k := level - 1 + offset
	if k < 0 {
		return 0
	}
	if k > MaxHeadingRole {
		return MaxHeadingRole
	}
	return k
}

// Kind returns the style kind a role must be bound to
func (r Role) Kind() StyleKind {
	return roleSpecs[r].kind
}

// Names returns the display names accepted for a role, in preference order
func (r Role) Names() []string {
	return roleSpecs[r].names
}

func (r Role) String() string {
	switch {
	case r == RoleTitle:
		return "Title"
	case r >= RoleHeading1 && r <= RoleHeading8:
		return fmt.Sprintf("Heading %d", int(r-RoleTitle))
	}
	switch r {
	case RoleNormal:
		return "Normal"
	case RoleCodeBlock:
		return "CodeBlock"
	case RoleTable:
		return "Table"
	case RoleListParagraph:
		return "ListParagraph"
	case RoleHyperlink:
		return "Hyperlink"
	case RoleBlockQuote:
		return "BlockQuote"
	case RoleVerbatimChar:
		return "VerbatimChar"
	}
	return fmt.Sprintf("Role(%d)", int(r))
}
