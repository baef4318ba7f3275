package tree_test

import (
	"context"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/eadimport/pkg/adapters/memory"
	"github.com/aretw0/eadimport/pkg/core"
	"github.com/aretw0/eadimport/pkg/tree"
)

type fixture struct {
	t     *testing.T
	ctx   context.Context
	store *memory.Store
}

func (f fixture) create(title, class string) core.ResourceRef {
	f.t.Helper()
	m := core.NewMetadata()
	m.Add("dcterms:title", core.Literal("dcterms:title", 1, title))
	ref, err := f.store.Create(f.ctx, core.ResourceItems, core.ResourceData{Class: class, Public: true, Values: m}, nil)
	require.NoError(f.t, err)
	return ref
}

func (f fixture) link(from core.ResourceRef, term string, to ...core.ResourceRef) {
	f.t.Helper()
	m := core.NewMetadata()
	for _, ref := range to {
		m.Add(term, core.Value{Property: term, Type: core.ValueResource, ResourceID: ref.ID, Public: true})
	}
	_, err := f.store.Update(f.ctx, core.ResourceItems, from.ID, core.ResourceData{Values: m})
	require.NoError(f.t, err)
}

func (f fixture) get(ref core.ResourceRef) core.Resource {
	f.t.Helper()
	res, err := f.store.Get(f.ctx, ref)
	require.NoError(f.t, err)
	return res
}

func titles(rs []core.Resource) []string {
	return lo.Map(rs, func(r core.Resource, _ int) string { return r.Title() })
}

func TestNavigator(t *testing.T) {
	f := fixture{t: t, ctx: context.Background(), store: memory.New()}

	header := f.create("Header", tree.ClassFindingAid)
	desc := f.create("Description", tree.ClassDescription)
	c1 := f.create("C1", tree.ClassComponent)
	c2 := f.create("C2", tree.ClassComponent)
	c11 := f.create("C1.1", "")

	f.link(header, tree.ChildTerm, desc)
	f.link(desc, tree.ParentTerm, header)
	f.link(desc, tree.ChildTerm, c1, c2)
	f.link(c1, tree.ParentTerm, desc)
	f.link(c1, tree.ChildTerm, c11)
	f.link(c2, tree.ParentTerm, desc)
	f.link(c11, tree.ParentTerm, c1)
	f.link(c11, tree.RelationTerm, c2)

	nav := tree.New(f.store)
	ctx := f.ctx

	t.Run("Parent and Children", func(t *testing.T) {
		parent, err := nav.Parent(ctx, f.get(c1))
		require.NoError(t, err)
		require.NotNil(t, parent)
		assert.Equal(t, "Description", parent.Title())

		top, err := nav.Parent(ctx, f.get(header))
		require.NoError(t, err)
		assert.Nil(t, top)

		children, err := nav.Children(ctx, f.get(desc))
		require.NoError(t, err)
		assert.Equal(t, []string{"C1", "C2"}, titles(children))
	})

	t.Run("Ancestors and Root", func(t *testing.T) {
		ancestors, err := nav.Ancestors(ctx, f.get(c11))
		require.NoError(t, err)
		assert.Equal(t, []string{"C1", "Description", "Header"}, titles(ancestors))

		root, err := nav.Root(ctx, f.get(c11))
		require.NoError(t, err)
		assert.Equal(t, header, root.Ref)
	})

	t.Run("Descendants", func(t *testing.T) {
		all, err := nav.Descendants(ctx, f.get(header))
		require.NoError(t, err)
		assert.Equal(t, []string{"Description", "C1", "C1.1", "C2"}, titles(all))
	})

	t.Run("Siblings", func(t *testing.T) {
		others, err := nav.Siblings(ctx, f.get(c1), false)
		require.NoError(t, err)
		assert.Equal(t, []string{"C2"}, titles(others))

		all, err := nav.Siblings(ctx, f.get(c1), true)
		require.NoError(t, err)
		assert.Equal(t, []string{"C1", "C2"}, titles(all))

		none, err := nav.Siblings(ctx, f.get(desc), false)
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("Related", func(t *testing.T) {
		related, err := nav.Related(ctx, f.get(c11))
		require.NoError(t, err)
		assert.Equal(t, []string{"C2"}, titles(related))
	})

	t.Run("Tree", func(t *testing.T) {
		root, err := nav.Tree(ctx, f.get(c2))
		require.NoError(t, err)

		var lines []string
		tree.Walk(root, func(n *tree.Node, depth int) {
			lines = append(lines, string(rune('0'+depth))+n.Resource.Title())
		})
		assert.Equal(t, []string{"0Header", "1Description", "2C1", "3C1.1", "2C2"}, lines)
	})

	t.Run("Component classification", func(t *testing.T) {
		ok, err := nav.IsComponent(ctx, f.get(c11))
		require.NoError(t, err)
		assert.True(t, ok, "belongs to a finding aid")

		ok, err = nav.IsComponent(ctx, f.get(header))
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestCycles(t *testing.T) {
	f := fixture{t: t, ctx: context.Background(), store: memory.New()}
	a := f.create("A", "")
	b := f.create("B", "")
	c := f.create("C", "")

	f.link(a, tree.ChildTerm, b)
	f.link(b, tree.ChildTerm, c)
	f.link(c, tree.ChildTerm, a)
	f.link(a, tree.ParentTerm, c)
	f.link(b, tree.ParentTerm, a)
	f.link(c, tree.ParentTerm, b)

	nav := tree.New(f.store)

	all, err := nav.Descendants(f.ctx, f.get(a))
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "C"}, titles(all))

	ancestors, err := nav.Ancestors(f.ctx, f.get(a))
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "B"}, titles(ancestors))

	branch, err := nav.Branch(f.ctx, f.get(a))
	require.NoError(t, err)
	count := 0
	tree.Walk(branch, func(*tree.Node, int) { count++ })
	assert.Equal(t, 3, count)
}
