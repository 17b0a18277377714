package docx

import (
	"bytes"
	"encoding/hex"
	"strconv"

	"github.com/zeebo/blake3"

	"github.com/RossMurr4y/mdbook-docx/pkg/docx/ooxml"
)

// RenameMap records how a merged registry's ids map into the base
type RenameMap struct {
	Styles    map[string]string
	Numbering map[int]int
}

// Style returns the merged id for a source style id
func (m *RenameMap) Style(id string) (string, bool) {
	mapped, ok := m.Styles[id]
	return mapped, ok
}

// contentHash identifies a style by kind and body, ignoring its identity
// fields. References in body must already be rewritten into the target
// registry's id space.
func contentHash(kind StyleKind, body []byte) string {
	normalized := ooxml.RemoveLeaves(body, "name", "next", "link", "rsid", "aliases")
	h := blake3.New()
	_, _ = h.Write([]byte(kind))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write(normalized)
	return hex.EncodeToString(h.Sum(nil))
}

// Merge folds other into a copy of r. Styles whose content matches an
// existing style collapse onto it; the rest are added under fresh ids and
// display names. Numbering definitions are renumbered first so style bodies
// can be rewritten to the new numIds. The returned RenameMap must be applied
// to every block that was bound to other.
func (r *StyleRegistry) Merge(other *StyleRegistry) (*StyleRegistry, *RenameMap) {
	merged := r.clone()
	renames := &RenameMap{
		Styles:    make(map[string]string, len(other.defs)),
		Numbering: make(map[int]int),
	}

	merged.styles.Prefixes.Merge(other.styles.Prefixes)
	addedNumbering := merged.mergeNumbering(other.numbering, renames)

	byHash := make(map[string]string, len(merged.defs))
	for _, def := range merged.defs {
		h := contentHash(def.Kind, def.Body)
		if _, ok := byHash[h]; !ok {
			byHash[h] = def.ID
		}
	}

	var added []*StyleDefinition
	for _, src := range basedOnOrder(other.defs) {
		body := ooxml.RewriteLeafVal(src.Body, "basedOn", func(v string) (string, bool) {
			if mapped, ok := renames.Styles[v]; ok {
				return mapped, true
			}
			if _, ok := other.byID[v]; !ok {
				// parent missing from the fragment; inherit from the base style of that id
				_, ok := merged.byID[v]
				return v, ok
			}
			return "", false
		})
		body = rewriteNumIDs(body, renames.Numbering)

		h := contentHash(src.Kind, body)
		if id, ok := byHash[h]; ok {
			renames.Styles[src.ID] = id
			continue
		}

		def := src.clone()
		def.Body = body
		def.BasedOn, _ = ooxml.LeafVal(body, "basedOn")
		def.Default = false
		def.ID = merged.uniqueID(src.ID)
		if name := merged.uniqueName(src.Name); name != src.Name {
			def.rename(name)
		}
		merged.add(def)
		added = append(added, def)
		byHash[h] = def.ID
		renames.Styles[src.ID] = def.ID
	}

	for _, def := range added {
		for _, local := range []string{"next", "link"} {
			def.Body = ooxml.RewriteLeafVal(def.Body, local, func(v string) (string, bool) {
				mapped, ok := renames.Styles[v]
				return mapped, ok
			})
		}
		def.Next, _ = ooxml.LeafVal(def.Body, "next")
		def.Link, _ = ooxml.LeafVal(def.Body, "link")
	}

	merged.renameNumberingStyles(addedNumbering, renames)
	return merged, renames
}

// basedOnOrder returns defs with every style after the style it is based on.
// Cycles are broken at the first revisited style.
func basedOnOrder(defs []*StyleDefinition) []*StyleDefinition {
	byID := make(map[string]*StyleDefinition, len(defs))
	for _, def := range defs {
		byID[def.ID] = def
	}
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(defs))
	ordered := make([]*StyleDefinition, 0, len(defs))

	var visit func(def *StyleDefinition)
	visit = func(def *StyleDefinition) {
		if state[def.ID] != unvisited {
			return
		}
		state[def.ID] = visiting
		if parent, ok := byID[def.BasedOn]; ok {
			visit(parent)
		}
		state[def.ID] = done
		ordered = append(ordered, def)
	}
	for _, def := range defs {
		visit(def)
	}
	return ordered
}

func (r *StyleRegistry) mergeNumbering(other *ooxml.Numbering, renames *RenameMap) map[int]bool {
	added := make(map[int]bool)
	if other == nil || (len(other.AbstractNums) == 0 && len(other.Nums) == 0) {
		return added
	}
	if r.numbering == nil {
		r.numbering = &ooxml.Numbering{Prefixes: ooxml.Prefixes{}}
	}
	r.numbering.Prefixes.Merge(other.Prefixes)

	abstractByHash := make(map[string]int, len(r.numbering.AbstractNums))
	for _, a := range r.numbering.AbstractNums {
		h := contentHash(KindNumbering, a.Content)
		if _, ok := abstractByHash[h]; !ok {
			abstractByHash[h] = a.ID
		}
	}

	maxAbstract, maxNum := r.numbering.MaxIDs()
	abstractMap := make(map[int]int, len(other.AbstractNums))
	for _, a := range other.AbstractNums {
		h := contentHash(KindNumbering, a.Content)
		if id, ok := abstractByHash[h]; ok {
			abstractMap[a.ID] = id
			continue
		}
		maxAbstract++
		abstractMap[a.ID] = maxAbstract
		abstractByHash[h] = maxAbstract
		added[maxAbstract] = true
		r.numbering.AbstractNums = append(r.numbering.AbstractNums, ooxml.AbstractNum{
			ID:      maxAbstract,
			Content: append([]byte(nil), a.Content...),
		})
	}
	for _, num := range other.Nums {
		abstractID, ok := abstractMap[num.AbstractNumID]
		if !ok {
			continue
		}
		if existing, ok := r.findNum(abstractID, num.Overrides); ok {
			renames.Numbering[num.ID] = existing
			continue
		}
		maxNum++
		renames.Numbering[num.ID] = maxNum
		r.numbering.Nums = append(r.numbering.Nums, ooxml.Num{
			ID:            maxNum,
			AbstractNumID: abstractID,
			Overrides:     append([]byte(nil), num.Overrides...),
		})
	}
	return added
}

func (r *StyleRegistry) findNum(abstractID int, overrides []byte) (int, bool) {
	for _, num := range r.numbering.Nums {
		if num.AbstractNumID == abstractID && bytes.Equal(num.Overrides, overrides) {
			return num.ID, true
		}
	}
	return 0, false
}

// renameNumberingStyles rewrites style references inside the abstract
// numbering definitions that were just merged in.
func (r *StyleRegistry) renameNumberingStyles(added map[int]bool, renames *RenameMap) {
	if r.numbering == nil || len(added) == 0 {
		return
	}
	for i := range r.numbering.AbstractNums {
		a := &r.numbering.AbstractNums[i]
		if !added[a.ID] {
			continue
		}
		for _, local := range []string{"styleLink", "numStyleLink", "pStyle"} {
			a.Content = ooxml.RewriteLeafVal(a.Content, local, func(v string) (string, bool) {
				mapped, ok := renames.Styles[v]
				return mapped, ok
			})
		}
	}
}

func rewriteNumIDs(body []byte, numbering map[int]int) []byte {
	return ooxml.RewriteLeafVal(body, "numId", func(v string) (string, bool) {
		id, err := strconv.Atoi(v)
		if err != nil || id == 0 {
			return v, true
		}
		mapped, ok := numbering[id]
		if !ok {
			return "", false
		}
		return strconv.Itoa(mapped), true
	})
}

// ApplyRenames rebinds blocks from a merged registry's id space into the
// merged registry. Blocks whose style did not survive fall back to the
// Normal or Table role of target.
func ApplyRenames(blocks []Block, renames *RenameMap, target *StyleRegistry) {
	WalkBlocks(blocks, func(b Block) bool {
		if mapped, ok := renames.Styles[b.StyleRef()]; ok {
			b.setStyleRef(mapped)
		} else if _, isTable := b.(*Table); isTable {
			b.setStyleRef(target.RoleID(RoleTable))
		} else {
			b.setStyleRef(target.RoleID(RoleNormal))
		}
		if p, ok := b.(*Paragraph); ok && p.Numbering != nil {
			if mapped, ok := renames.Numbering[p.Numbering.NumID]; ok {
				p.Numbering.NumID = mapped
			} else {
				p.Numbering = nil
			}
		}
		runs := BlockRuns(b)
		for i := range runs {
			if runs[i].StyleID == "" {
				continue
			}
			if mapped, ok := renames.Styles[runs[i].StyleID]; ok {
				runs[i].StyleID = mapped
			} else {
				runs[i].StyleID = ""
			}
		}
		return true
	})
}
