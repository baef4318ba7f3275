package transform

import (
	"strconv"

	"github.com/beevik/etree"
)

// node is a structural unit or digital object of the source document.
type node struct {
	el       *etree.Element
	unit     Unit
	digital  bool
	path     string
	parent   *node
	children []*node
}

type frame struct {
	el     *etree.Element
	path   string
	parent *node
}

// walk lists units and digital objects in document order. Each node knows
// its nearest enclosing unit. Top-level units other than the rules root hang
// under the root unit when there is one.
func walk(doc *etree.Document, rules *Rules) []*node {
	root := doc.Root()
	if root == nil {
		return nil
	}

	var nodes []*node
	stack := []frame{{el: root, path: "/" + root.Tag}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		parent := f.parent
		if u, ok := rules.unit(f.el.Tag); ok {
			n := &node{el: f.el, unit: u, path: f.path, parent: parent}
			nodes = append(nodes, n)
			parent = n
		} else if rules.isDigitalObject(f.el.Tag) {
			nodes = append(nodes, &node{
				el:      f.el,
				digital: true,
				path:    f.path,
				parent:  parent,
				unit:    Unit{Tag: f.el.Tag, ItemType: rules.DigitalObjects.ItemType, Fields: rules.DigitalObjects.Fields},
			})
			continue
		}

		children := f.el.ChildElements()
		paths := stepPaths(f.path, children, rules)
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, frame{el: children[i], path: paths[i], parent: parent})
		}
	}

	var top *node
	for _, n := range nodes {
		if n.parent == nil && !n.digital && n.el.Tag == rules.Root {
			top = n
			break
		}
	}
	for _, n := range nodes {
		if n.parent == nil && top != nil && n != top {
			n.parent = top
		}
		if n.parent != nil {
			n.parent.children = append(n.parent.children, n)
		}
	}
	return nodes
}

// stepPaths computes the structural path of each child. Repeated tags,
// indexed units and digital objects carry their 1-based position.
func stepPaths(prefix string, children []*etree.Element, rules *Rules) []string {
	counts := make(map[string]int, len(children))
	for _, c := range children {
		counts[c.Tag]++
	}
	seen := make(map[string]int, len(children))
	out := make([]string, len(children))
	for i, c := range children {
		seen[c.Tag]++
		u, isUnit := rules.unit(c.Tag)
		step := c.Tag
		if counts[c.Tag] > 1 || (isUnit && u.Indexed) || rules.isDigitalObject(c.Tag) {
			step += "[" + strconv.Itoa(seen[c.Tag]) + "]"
		}
		out[i] = prefix + "/" + step
	}
	return out
}

// href returns the file reference of a digital object.
func href(el *etree.Element, attr string) string {
	if attr == "" {
		attr = "href"
	}
	for _, a := range el.Attr {
		if a.Key == attr {
			return a.Value
		}
	}
	return ""
}
