package docx

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/RossMurr4y/mdbook-docx/pkg/docx/ooxml"
)

var errMissingNormal = errors.New(`no paragraph style named "Normal"`)

// StyleDefinition is one named style of a registry
type StyleDefinition struct {
	ID      string
	Name    string
	Kind    StyleKind
	Default bool
	Custom  bool
	BasedOn string
	Next    string
	Link    string
	// Body is the inner XML of the w:style element
	Body []byte
}

var interElementSpace = regexp.MustCompile(`>\s+<`)

func newStyleDefinition(el ooxml.StyleElement) *StyleDefinition {
	body := interElementSpace.ReplaceAll(bytes.TrimSpace(el.Content), []byte("><"))
	def := &StyleDefinition{
		ID:      el.StyleID,
		Kind:    StyleKind(el.Type),
		Default: el.Default,
		Custom:  el.CustomStyle,
		Body:    body,
	}
	if def.Kind == "" {
		def.Kind = KindParagraph
	}
	def.Name, _ = ooxml.LeafVal(body, "name")
	def.BasedOn, _ = ooxml.LeafVal(body, "basedOn")
	def.Next, _ = ooxml.LeafVal(body, "next")
	def.Link, _ = ooxml.LeafVal(body, "link")
	if def.Name == "" {
		def.Name = def.ID
	}
	return def
}

func (d *StyleDefinition) clone() *StyleDefinition {
	c := *d
	c.Body = append([]byte(nil), d.Body...)
	return &c
}

func (d *StyleDefinition) element() ooxml.StyleElement {
	return ooxml.StyleElement{
		Type:        string(d.Kind),
		StyleID:     d.ID,
		Default:     d.Default,
		CustomStyle: d.Custom,
		Content:     d.Body,
	}
}

// rename changes the display name in both the struct and the body
func (d *StyleDefinition) rename(name string) {
	d.Name = name
	d.Body = ooxml.SetLeafVal(d.Body, "name", name)
}

// StyleRegistry is the style catalog of one package plus the bindings from
// roles to concrete styles. A registry is never modified after it is built;
// merging produces a new registry.
type StyleRegistry struct {
	source    string
	styles    ooxml.Styles
	defs      []*StyleDefinition
	byID      map[string]*StyleDefinition
	roles     map[Role]string
	numbering *ooxml.Numbering
	warnings  Warnings
}

// RegistryOptions controls role binding while building a registry
type RegistryOptions struct {
	// BindRoles binds every role and requires a Normal style
	BindRoles bool
}

// BuildRegistry builds a registry from the styles and numbering parts of a
// package. numberingXML may be nil.
func BuildRegistry(source string, stylesXML, numberingXML []byte, opts RegistryOptions) (*StyleRegistry, error) {
	r := &StyleRegistry{
		source: source,
		byID:   make(map[string]*StyleDefinition),
		roles:  make(map[Role]string),
	}

	if len(stylesXML) > 0 {
		parsed, err := ooxml.ParseStyles(bytes.NewReader(stylesXML))
		if err != nil {
			return nil, err
		}
		r.styles = *parsed
		r.styles.Styles = nil
		for _, el := range parsed.Styles {
			if el.StyleID == "" {
				continue
			}
			if _, dup := r.byID[el.StyleID]; dup {
				r.warnings.Addf(source, "duplicate style id %q ignored", el.StyleID)
				continue
			}
			r.add(newStyleDefinition(el))
		}
	}
	if r.styles.Prefixes == nil {
		r.styles.Prefixes = ooxml.Prefixes{}
	}

	if len(numberingXML) > 0 {
		numbering, err := ooxml.ParseNumbering(bytes.NewReader(numberingXML))
		if err != nil {
			return nil, err
		}
		r.numbering = numbering
	}

	if opts.BindRoles {
		if err := r.bindRoles(); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *StyleRegistry) add(def *StyleDefinition) {
	r.defs = append(r.defs, def)
	r.byID[def.ID] = def
}

func (r *StyleRegistry) findByName(name string, kind StyleKind) *StyleDefinition {
	for _, def := range r.defs {
		if def.Kind == kind && strings.EqualFold(def.Name, name) {
			return def
		}
	}
	return nil
}

func (r *StyleRegistry) bindRoles() error {
	normal := r.findByName("Normal", KindParagraph)
	if normal == nil {
		return errMissingNormal
	}
	r.roles[RoleNormal] = normal.ID

	for _, role := range AllRoles() {
		if role == RoleNormal {
			continue
		}
		if def := r.matchRole(role); def != nil {
			r.roles[role] = def.ID
			continue
		}
		if role.Kind() == KindParagraph {
			r.roles[role] = normal.ID
			r.warnings.Addf(r.source, "no %s style (%s); using Normal", role, strings.Join(role.Names(), ", "))
			continue
		}
		def, err := r.synthesize(role)
		if err != nil {
			return err
		}
		r.roles[role] = def.ID
		r.warnings.Addf(r.source, "no %s style (%s); added built-in %q", role, strings.Join(role.Names(), ", "), def.Name)
	}
	return nil
}

func (r *StyleRegistry) matchRole(role Role) *StyleDefinition {
	for _, name := range role.Names() {
		if def := r.findByName(name, role.Kind()); def != nil {
			return def
		}
	}
	return nil
}

// synthesize copies the built-in definition for a character or table role
// into the registry under an unused id.
func (r *StyleRegistry) synthesize(role Role) (*StyleDefinition, error) {
	builtin, err := builtinRegistry()
	if err != nil {
		return nil, err
	}
	src, ok := builtin.Role(role)
	if !ok {
		return nil, fmt.Errorf("built-in template has no %s style", role)
	}
	def := src.clone()
	def.Default = false
	def.ID = r.uniqueID(def.ID)
	if def.BasedOn != "" {
		if _, ok := r.byID[def.BasedOn]; !ok {
			def.Body = ooxml.RemoveLeaves(def.Body, "basedOn")
			def.BasedOn = ""
		}
	}
	def.Body = ooxml.RemoveLeaves(def.Body, "link", "next")
	def.Link, def.Next = "", ""
	if name := r.uniqueName(def.Name); name != def.Name {
		def.rename(name)
	}
	r.add(def)
	return def, nil
}

func (r *StyleRegistry) uniqueID(id string) string {
	if _, taken := r.byID[id]; !taken {
		return id
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s-%d", id, n)
		if _, taken := r.byID[candidate]; !taken {
			return candidate
		}
	}
}

func (r *StyleRegistry) uniqueName(name string) string {
	taken := func(n string) bool {
		for _, def := range r.defs {
			if strings.EqualFold(def.Name, n) {
				return true
			}
		}
		return false
	}
	if !taken(name) {
		return name
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s (%d)", name, n)
		if !taken(candidate) {
			return candidate
		}
	}
}

// Role returns the definition bound to a role
func (r *StyleRegistry) Role(role Role) (*StyleDefinition, bool) {
	id, ok := r.roles[role]
	if !ok {
		return nil, false
	}
	def, ok := r.byID[id]
	return def, ok
}

// RoleID returns the style id bound to a role, or "" when unbound
func (r *StyleRegistry) RoleID(role Role) string {
	return r.roles[role]
}

// Lookup returns the definition with the given id
func (r *StyleRegistry) Lookup(id string) (*StyleDefinition, bool) {
	def, ok := r.byID[id]
	return def, ok
}

// Len returns the number of definitions
func (r *StyleRegistry) Len() int {
	return len(r.defs)
}

// DefaultStyle returns the id of the default style of a kind, or ""
func (r *StyleRegistry) DefaultStyle(kind StyleKind) string {
	for _, def := range r.defs {
		if def.Kind == kind && def.Default {
			return def.ID
		}
	}
	return ""
}

// Numbering returns the numbering definitions, which may be nil
func (r *StyleRegistry) Numbering() *ooxml.Numbering {
	return r.numbering
}

// Warnings returns diagnostics raised while building the registry
func (r *StyleRegistry) Warnings() []Warning {
	return r.warnings
}

// clone returns a deep copy that can be extended without touching r
func (r *StyleRegistry) clone() *StyleRegistry {
	c := &StyleRegistry{
		source:    r.source,
		styles:    r.styles,
		byID:      make(map[string]*StyleDefinition, len(r.defs)),
		roles:     make(map[Role]string, len(r.roles)),
		numbering: r.numbering.Clone(),
	}
	c.styles.Prefixes = ooxml.Prefixes{}
	c.styles.Prefixes.Merge(r.styles.Prefixes)
	for _, def := range r.defs {
		c.add(def.clone())
	}
	for role, id := range r.roles {
		c.roles[role] = id
	}
	return c
}

// StylesXML serializes the registry as a word/styles.xml part
func (r *StyleRegistry) StylesXML() []byte {
	styles := r.styles
	styles.Styles = make([]ooxml.StyleElement, 0, len(r.defs))
	for _, def := range r.defs {
		styles.Styles = append(styles.Styles, def.element())
	}
	return ooxml.MarshalStyles(&styles)
}
