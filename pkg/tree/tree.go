// Package tree walks the hierarchy of imported resources through their
// dcterms:isPartOf and dcterms:hasPart links.
//
// Every walk keeps a visited set keyed by resource id, so links that loop
// back (a resource listed as its own descendant, two resources each part of
// the other) end the walk instead of running forever.
package tree

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/eadimport/pkg/core"
)

const (
	ParentTerm   = "dcterms:isPartOf"
	ChildTerm    = "dcterms:hasPart"
	RelationTerm = "dcterms:relation"

	ClassFindingAid  = "ead:ArchivalFindingAid"
	ClassDescription = "ead:ArchivalDescription"
	ClassComponent   = "ead:Component"
)

// Node is a resource with its descendants.
type Node struct {
	Resource core.Resource `json:"self"`
	Children []*Node       `json:"children,omitempty"`
}

// Navigator reads the hierarchy from a store.
type Navigator struct {
	Reader core.ResourceReader
}

// New returns a navigator over r.
func New(r core.ResourceReader) *Navigator {
	return &Navigator{Reader: r}
}

func (n *Navigator) get(ctx context.Context, id core.ResourceID) (core.Resource, error) {
	return n.Reader.Get(ctx, core.ResourceRef{Type: core.ResourceItems, ID: id})
}

// linked returns the ids of the resources linked through term, without
// duplicates, in value order.
func linked(res core.Resource, term string) []core.ResourceID {
	var out []core.ResourceID
	seen := make(map[core.ResourceID]bool)
	for _, v := range res.Data.Values.Get(term) {
		if v.Type != core.ValueResource || v.ResourceID == 0 || seen[v.ResourceID] {
			continue
		}
		seen[v.ResourceID] = true
		out = append(out, v.ResourceID)
	}
	return out
}

// resolve loads ids, skipping the ones that no longer exist.
func (n *Navigator) resolve(ctx context.Context, ids []core.ResourceID) ([]core.Resource, error) {
	var out []core.Resource
	for _, id := range ids {
		res, err := n.get(ctx, id)
		if errors.Is(err, core.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, nil
}

// Parent returns the broader resource, or nil at the top.
func (n *Navigator) Parent(ctx context.Context, res core.Resource) (*core.Resource, error) {
	for _, id := range linked(res, ParentTerm) {
		parent, err := n.get(ctx, id)
		if errors.Is(err, core.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get parent of %s: %w", res.Ref, err)
		}
		return &parent, nil
	}
	return nil, nil
}

// Children returns the narrower resources.
func (n *Navigator) Children(ctx context.Context, res core.Resource) ([]core.Resource, error) {
	return n.resolve(ctx, linked(res, ChildTerm))
}

// Related returns the resources linked through dcterms:relation. They may
// lie outside the finding aid.
func (n *Navigator) Related(ctx context.Context, res core.Resource) ([]core.Resource, error) {
	return n.resolve(ctx, linked(res, RelationTerm))
}

// Ancestors returns the parents of res, closest first.
func (n *Navigator) Ancestors(ctx context.Context, res core.Resource) ([]core.Resource, error) {
	var out []core.Resource
	visited := map[core.ResourceID]bool{res.Ref.ID: true}
	current := res
	for {
		parent, err := n.Parent(ctx, current)
		if err != nil {
			return nil, err
		}
		if parent == nil || visited[parent.Ref.ID] {
			return out, nil
		}
		visited[parent.Ref.ID] = true
		out = append(out, *parent)
		current = *parent
	}
}

// Root returns the top of the hierarchy of res, res itself when it has no
// parent.
func (n *Navigator) Root(ctx context.Context, res core.Resource) (core.Resource, error) {
	ancestors, err := n.Ancestors(ctx, res)
	if err != nil {
		return core.Resource{}, err
	}
	if len(ancestors) == 0 {
		return res, nil
	}
	return ancestors[len(ancestors)-1], nil
}

// Descendants returns every resource below res in depth-first order.
func (n *Navigator) Descendants(ctx context.Context, res core.Resource) ([]core.Resource, error) {
	var out []core.Resource
	visited := map[core.ResourceID]bool{res.Ref.ID: true}
	stack := []core.Resource{res}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if current.Ref.ID != res.Ref.ID {
			out = append(out, current)
		}
		children, err := n.Children(ctx, current)
		if err != nil {
			return nil, err
		}
		for i := len(children) - 1; i >= 0; i-- {
			child := children[i]
			if visited[child.Ref.ID] {
				continue
			}
			visited[child.Ref.ID] = true
			stack = append(stack, child)
		}
	}
	return out, nil
}

// Siblings returns the other children of the parent of res. Finding aids
// and archival descriptions have no siblings.
func (n *Navigator) Siblings(ctx context.Context, res core.Resource, withSelf bool) ([]core.Resource, error) {
	if IsFindingAid(res) || IsDescription(res) {
		return nil, nil
	}
	parent, err := n.Parent(ctx, res)
	if err != nil || parent == nil {
		return nil, err
	}
	children, err := n.Children(ctx, *parent)
	if err != nil {
		return nil, err
	}
	if withSelf {
		return children, nil
	}
	out := children[:0]
	for _, c := range children {
		if c.Ref.ID != res.Ref.ID {
			out = append(out, c)
		}
	}
	return out, nil
}

// Branch returns res with all its descendants as a tree.
func (n *Navigator) Branch(ctx context.Context, res core.Resource) (*Node, error) {
	root := &Node{Resource: res}
	visited := map[core.ResourceID]bool{res.Ref.ID: true}
	work := []*Node{root}
	for len(work) > 0 {
		node := work[0]
		work = work[1:]
		children, err := n.Children(ctx, node.Resource)
		if err != nil {
			return nil, err
		}
		for _, c := range children {
			if visited[c.Ref.ID] {
				continue
			}
			visited[c.Ref.ID] = true
			child := &Node{Resource: c}
			node.Children = append(node.Children, child)
			work = append(work, child)
		}
	}
	return root, nil
}

// Tree returns the whole hierarchy res belongs to.
func (n *Navigator) Tree(ctx context.Context, res core.Resource) (*Node, error) {
	root, err := n.Root(ctx, res)
	if err != nil {
		return nil, err
	}
	return n.Branch(ctx, root)
}

// IsFindingAid reports whether res is the header of a finding aid.
func IsFindingAid(res core.Resource) bool {
	return res.Data.Class == ClassFindingAid
}

// IsDescription reports whether res is an archival description.
func IsDescription(res core.Resource) bool {
	return res.Data.Class == ClassDescription
}

// IsComponent reports whether res is a component, either by class or by
// belonging to a finding aid.
func (n *Navigator) IsComponent(ctx context.Context, res core.Resource) (bool, error) {
	if res.Data.Class == ClassComponent {
		return true, nil
	}
	if IsFindingAid(res) {
		return false, nil
	}
	root, err := n.Root(ctx, res)
	if err != nil {
		return false, err
	}
	return root.Ref.ID != res.Ref.ID && IsFindingAid(root), nil
}

// Walk calls fn for every node of the branch in depth-first order with its
// depth, root at depth 0.
func Walk(node *Node, fn func(node *Node, depth int)) {
	type entry struct {
		node  *Node
		depth int
	}
	stack := []entry{{node, 0}}
	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		fn(e.node, e.depth)
		for i := len(e.node.Children) - 1; i >= 0; i-- {
			stack = append(stack, entry{e.node.Children[i], e.depth + 1})
		}
	}
}
