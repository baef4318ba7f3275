package linker_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/eadimport/pkg/adapters/memory"
	"github.com/aretw0/eadimport/pkg/core"
	"github.com/aretw0/eadimport/pkg/importer"
	"github.com/aretw0/eadimport/pkg/linker"
	"github.com/aretw0/eadimport/pkg/vocab"
)

func newRun() *core.Run {
	return core.NewRun(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func unit(id string, relations map[string][]string) *core.Record {
	r := core.NewRecord()
	r.Process.RecordType = core.RecordItem
	r.Process.Name = id
	r.Metadata.Add("dcterms:identifier", core.Literal("dcterms:identifier", 10, id))
	for _, term := range linker.RelationTerms {
		for _, v := range relations[term] {
			r.Metadata.Add(term, core.Literal(term, 20, v))
		}
	}
	return r
}

func imported(t *testing.T, run *core.Run, records ...*core.Record) *memory.Store {
	t.Helper()
	store := memory.New()
	importer.New(store, vocab.Default()).Import(context.Background(), run, records)
	for _, r := range records {
		require.NotZero(t, r.Process.ResourceID)
	}
	return store
}

func relation(t *testing.T, store *memory.Store, rec *core.Record, term string) []core.Value {
	t.Helper()
	res, err := store.Get(context.Background(), core.ResourceRef{Type: core.ResourceItems, ID: rec.Process.ResourceID})
	require.NoError(t, err)
	return res.Data.Values.Get(term)
}

func TestLink(t *testing.T) {
	run := newRun()
	parent := unit("fa/ead/archdesc", map[string][]string{
		"dcterms:hasPart": {"fa/ead/archdesc/dsc/c[1]", "fa/ead/archdesc/dsc/c[2]", "elsewhere"},
	})
	first := unit("fa/ead/archdesc/dsc/c[1]", map[string][]string{"dcterms:isPartOf": {"fa/ead/archdesc"}})
	second := unit("fa/ead/archdesc/dsc/c[2]", map[string][]string{"dcterms:isPartOf": {"fa/ead/archdesc"}})
	store := imported(t, run, parent, first, second)

	linker.New(store).Link(context.Background(), run, []*core.Record{parent, first, second})

	parts := relation(t, store, parent, "dcterms:hasPart")
	require.Len(t, parts, 3)
	assert.Equal(t, core.ValueResource, parts[0].Type)
	assert.Equal(t, first.Process.ResourceID, parts[0].ResourceID)
	assert.Equal(t, second.Process.ResourceID, parts[1].ResourceID)
	assert.Equal(t, 20, parts[0].PropertyID)
	assert.True(t, parts[0].Public)
	assert.Equal(t, core.ValueLiteral, parts[2].Type, "unknown identifier stays literal")
	assert.Equal(t, "elsewhere", parts[2].Value)

	up := relation(t, store, first, "dcterms:isPartOf")
	require.Len(t, up, 1)
	assert.Equal(t, parent.Process.ResourceID, up[0].ResourceID)

	assert.Equal(t, 3, run.Stats().Linked)
	assert.Equal(t, core.ValueLiteral, parent.Metadata.Get("dcterms:hasPart")[0].Type, "records are not modified")
}

func TestDuplicateIdentifier(t *testing.T) {
	run := newRun()
	a := unit("X", nil)
	b := unit("X", nil)
	c := unit("C", map[string][]string{"dcterms:isPartOf": {"X"}})
	store := imported(t, run, a, b, c)

	table := linker.Identifiers(run, []*core.Record{a, b, c})
	assert.Equal(t, a.Process.ResourceID, table["X"].ID, "first registrant wins")
	assert.Equal(t, 1, run.Stats().Warnings)

	linker.New(store).Link(context.Background(), run, []*core.Record{a, b, c})
	up := relation(t, store, c, "dcterms:isPartOf")
	require.Len(t, up, 1)
	assert.Equal(t, a.Process.ResourceID, up[0].ResourceID)
}

func TestSelfReferenceIsKept(t *testing.T) {
	run := newRun()
	r := unit("S", map[string][]string{"dcterms:isPartOf": {"S"}})
	imported(t, run, r)

	_, dirty := linker.Rewrite(r, linker.Identifiers(run, []*core.Record{r}))
	assert.False(t, dirty)
}

func TestIdentifierTerm(t *testing.T) {
	r := core.NewRecord()
	assert.Equal(t, "dcterms:identifier", linker.IdentifierTerm(r))
	r.Process.IdentifierField = "internal id"
	assert.Equal(t, "dcterms:identifier", linker.IdentifierTerm(r))
	r.Process.IdentifierField = "bibo:uri"
	assert.Equal(t, "bibo:uri", linker.IdentifierTerm(r))
}

func TestNoIdentifiers(t *testing.T) {
	run := newRun()
	r := core.NewRecord()
	r.Process.RecordType = core.RecordItem
	r.Metadata.Add("dcterms:title", core.Literal("dcterms:title", 1, "untitled"))
	store := imported(t, run, r)

	linker.New(store).Link(context.Background(), run, []*core.Record{r})
	// one for the record, one for the run
	assert.Equal(t, 2, run.Stats().Warnings)
	assert.Zero(t, run.Stats().Linked)
}
