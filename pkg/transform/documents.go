package transform

import (
	"path"
	"strings"

	"github.com/beevik/etree"

	"github.com/aretw0/eadimport/pkg/xmldoc"
)

// fieldValue is one mapped value: plain text for terms, the source element
// for element-set data.
type fieldValue struct {
	field Field
	text  string
	el    *etree.Element
}

// documentsBuilder renders the intermediate documents of an EAD document.
type documentsBuilder struct {
	baseID    string
	rules     *Rules
	mappings  Mappings
	separated bool
}

func (b *documentsBuilder) build(doc *etree.Document) *etree.Document {
	out := etree.NewDocument()
	out.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := out.CreateElement("documents")
	root.CreateAttr("xmlns", NamespaceDocuments)
	root.CreateAttr("xmlns:dc", NamespaceDC)
	root.CreateAttr("xmlns:dcterms", NamespaceDCTerms)

	nodes := walk(doc, b.rules)
	values := make(map[*node][]fieldValue, len(nodes))
	for _, n := range nodes {
		values[n] = b.values(n)
	}

	// Children follow their parents in document order, so a reverse pass
	// settles every child before its parent.
	emitted := make(map[*node]bool, len(nodes))
	for i := len(nodes) - 1; i >= 0; i-- {
		n := nodes[i]
		if n.digital {
			emitted[n] = href(n.el, b.rules.DigitalObjects.Href) != "" && n.parent != nil
			continue
		}
		keep := len(values[n]) > 0
		for _, c := range n.children {
			keep = keep || emitted[c]
		}
		emitted[n] = keep
	}

	records := make(map[*node]*etree.Element, len(nodes))
	for _, n := range nodes {
		if !emitted[n] {
			continue
		}
		if n.digital && !b.separated {
			if parent := records[n.parent]; parent != nil {
				b.fileRecord(parent, n, values[n])
			}
			continue
		}

		rec := root.CreateElement("record")
		records[n] = rec
		id := b.baseID + n.path
		rec.CreateAttr("name", id)
		rec.CreateAttr("internalId", id)
		rec.CreateAttr("itemType", n.unit.ItemType)
		rec.CreateAttr("xpath", n.path)

		rec.CreateElement("dcterms:identifier").SetText(id)
		b.writeValues(rec, values[n])

		if n.parent != nil && emitted[n.parent] {
			rec.CreateElement("dcterms:isPartOf").SetText(b.baseID + n.parent.path)
		}
		for _, c := range n.children {
			if emitted[c] && (!c.digital || b.separated) {
				rec.CreateElement("dcterms:hasPart").SetText(b.baseID + c.path)
			}
		}
		if n.digital {
			b.fileRecord(rec, n, nil)
		}
	}
	return out
}

// fileRecord nests a file record for a digital object inside rec.
func (b *documentsBuilder) fileRecord(rec *etree.Element, n *node, vals []fieldValue) {
	ref := href(n.el, b.rules.DigitalObjects.Href)
	file := rec.CreateElement("record")
	file.CreateAttr("file", ref)
	file.CreateAttr("xpath", n.path)
	b.writeValues(file, vals)
	if name := path.Base(ref); name != "" && name != "." && name != "/" {
		extra := file.CreateElement("extra")
		data := extra.CreateElement("data")
		data.CreateAttr("name", "original filename")
		data.SetText(name)
	}
}

func (b *documentsBuilder) writeValues(rec *etree.Element, vals []fieldValue) {
	sets := make(map[string]*etree.Element)
	for _, v := range vals {
		if v.field.Term != "" {
			rec.CreateElement(v.field.Term).SetText(v.text)
			continue
		}
		setName, elementName, _ := strings.Cut(v.field.Element, ":")
		set := sets[setName]
		if set == nil {
			set = rec.CreateElement("elementSet")
			set.CreateAttr("name", strings.TrimSpace(setName))
			sets[setName] = set
		}
		element := set.CreateElement("element")
		element.CreateAttr("name", strings.TrimSpace(elementName))
		data := element.CreateElement("data")
		if v.el == nil {
			data.SetText(v.text)
			continue
		}
		for _, tok := range v.el.Child {
			switch t := tok.(type) {
			case *etree.Element:
				data.AddChild(t.Copy())
			case *etree.CharData:
				if t.IsCData() {
					data.AddChild(etree.NewCData(t.Data))
				} else {
					data.AddChild(etree.NewText(t.Data))
				}
			}
		}
	}
}

// values evaluates the mapped fields of a node. Empty values are skipped.
func (b *documentsBuilder) values(n *node) []fieldValue {
	var out []fieldValue
	for _, f := range b.mappings[n.unit.Fields] {
		if f.Term == "" && f.Element == "" {
			continue
		}
		elPath, attr := f.Path, ""
		if i := strings.LastIndex(elPath, "@"); i >= 0 {
			elPath, attr = strings.TrimSuffix(elPath[:i], "/"), elPath[i+1:]
		}

		targets := []*etree.Element{n.el}
		if elPath != "" {
			targets = xmldoc.Query(n.el, elPath)
		}
		for _, t := range targets {
			if b.insideOtherUnit(n, t) {
				continue
			}
			switch {
			case attr != "":
				if v := strings.TrimSpace(t.SelectAttrValue(attr, "")); v != "" {
					out = append(out, fieldValue{field: f, text: v})
				}
			case f.Term != "":
				if v := xmldoc.TextContent(t); v != "" {
					out = append(out, fieldValue{field: f, text: v})
				}
			default:
				if strings.TrimSpace(xmldoc.InnerXML(t)) != "" {
					out = append(out, fieldValue{field: f, el: t})
				}
			}
		}
	}
	return out
}

// insideOtherUnit reports whether el sits in a nested unit of n rather than
// in n itself.
func (b *documentsBuilder) insideOtherUnit(n *node, el *etree.Element) bool {
	for p := el; p != nil && p != n.el; p = p.Parent() {
		if p == el {
			continue
		}
		if _, ok := b.rules.unit(p.Tag); ok {
			return !isAncestor(p, n.el)
		}
	}
	return false
}

func isAncestor(candidate, el *etree.Element) bool {
	for p := el; p != nil; p = p.Parent() {
		if p == candidate {
			return true
		}
	}
	return false
}
