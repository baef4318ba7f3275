package transform

import (
	"github.com/beevik/etree"
	"github.com/samber/lo"
)

// buildParts slices doc into one part per unit, keyed by structural path.
// Nested units are cut out of their parent's part. Digital objects get parts
// of their own only when separated.
func buildParts(doc *etree.Document, rules *Rules, separated bool) *etree.Document {
	out := etree.NewDocument()
	out.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := out.CreateElement("parts")

	var decls []etree.Attr
	if doc.Root() != nil {
		for _, a := range doc.Root().Attr {
			if a.Space == "xmlns" || (a.Space == "" && a.Key == "xmlns") {
				decls = append(decls, a)
			}
		}
	}

	for _, n := range walk(doc, rules) {
		if n.digital && !separated {
			continue
		}
		// Parts stand alone, so they carry the namespace declarations of
		// the document root.
		cp := n.el.Copy()
		for _, a := range decls {
			if cp.SelectAttr(a.FullKey()) == nil {
				cp.CreateAttr(a.FullKey(), a.Value)
			}
		}
		prune(cp, rules, separated)

		part := root.CreateElement("part")
		part.CreateAttr("xpath", n.path)
		part.AddChild(cp)
	}
	return out
}

// prune removes nested units from el, and digital objects when separated.
// Containers emptied along the way are removed too.
func prune(el *etree.Element, rules *Rules, separated bool) {
	var containers []*etree.Element
	stack := []*etree.Element{el}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, c := range cur.ChildElements() {
			_, isUnit := rules.unit(c.Tag)
			if isUnit || (separated && rules.isDigitalObject(c.Tag)) {
				cur.RemoveChild(c)
				continue
			}
			if lo.Contains(rules.Containers, c.Tag) {
				containers = append(containers, c)
			}
			stack = append(stack, c)
		}
	}
	// Nested containers were found after their ancestors.
	for i := len(containers) - 1; i >= 0; i-- {
		c := containers[i]
		if len(c.ChildElements()) == 0 && c.Parent() != nil {
			c.Parent().RemoveChild(c)
		}
	}
}
