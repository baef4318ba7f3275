package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/eadimport/pkg/adapters/fs"
	"github.com/aretw0/eadimport/pkg/adapters/memory"
	"github.com/aretw0/eadimport/pkg/baseid"
	"github.com/aretw0/eadimport/pkg/core"
	"github.com/aretw0/eadimport/pkg/parts"
	"github.com/aretw0/eadimport/pkg/pipeline"
	"github.com/aretw0/eadimport/pkg/vocab"
)

func fixture(name string) string {
	return filepath.Join("..", "..", "testdata", name)
}

func newPipeline(t *testing.T, store core.ResourceStore, opts pipeline.Options) *pipeline.Pipeline {
	t.Helper()
	p := pipeline.New(store, vocab.Default(), opts, slog.New(slog.DiscardHandler))
	p.TempDir = t.TempDir()
	return p
}

func TestRunSimpleHierarchy(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	p := newPipeline(t, store, pipeline.Options{})

	res, err := p.Run(ctx, pipeline.Input{Path: fixture("simple.xml")})
	require.NoError(t, err)
	assert.Equal(t, core.JobCompleted, res.Run.Status())

	stats := res.Run.Stats()
	assert.Equal(t, 3, stats.Records)
	assert.Equal(t, 3, stats.Created)
	assert.Equal(t, 3, stats.Linked)
	assert.Zero(t, stats.Failed)

	require.Len(t, res.Records, 3)
	archdesc := res.Records[0]
	assert.Equal(t, parts.FormatEAD, archdesc.Process.FormatXML)
	assert.Contains(t, archdesc.Process.XML, "archdesc")
	assert.Len(t, res.Table, 6, "internal ids and unitids")
	assert.Equal(t, archdesc.Process.ResourceID, res.Table["simple.xml/ead/archdesc"].ID)

	stored, err := store.Get(ctx, core.ResourceRef{Type: core.ResourceItems, ID: archdesc.Process.ResourceID})
	require.NoError(t, err)
	hasPart := stored.Data.Values.Get("dcterms:hasPart")
	require.Len(t, hasPart, 2)
	assert.Equal(t, core.ValueResource, hasPart[0].Type)
	assert.Equal(t, res.Records[1].Process.ResourceID, hasPart[0].ResourceID)
	assert.Equal(t, "ead:ArchivalDescription", stored.Data.Class)

	t.Run("Scratch files are removed", func(t *testing.T) {
		entries, err := os.ReadDir(p.TempDir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("State", func(t *testing.T) {
		state := p.State().(pipeline.PipelineState)
		assert.Equal(t, 1, state.Runs)
		require.NotNil(t, state.LastRun)
		assert.Equal(t, res.Run.ID, state.LastRun.ID)
	})
}

func TestRunCustomBaseID(t *testing.T) {
	p := newPipeline(t, memory.New(), pipeline.Options{
		BaseID:        baseid.Custom,
		CustomBaseIDs: "FR = france\nfa12 = martin",
	})

	res, err := p.Run(context.Background(), pipeline.Input{Path: fixture("findingaid.xml")})
	require.NoError(t, err)
	require.NotEmpty(t, res.Records)

	ids := res.Records[0].Metadata.Get("dcterms:identifier")
	require.NotEmpty(t, ids)
	assert.Equal(t, "france/ead/eadheader", ids[0].Value, "first matching key wins")
	assert.Equal(t, 6, res.Run.Stats().Created)
}

func TestRunWithoutContent(t *testing.T) {
	store := memory.New()
	p := newPipeline(t, store, pipeline.Options{})

	res, err := p.Run(context.Background(), pipeline.Input{Path: fixture("empty.xml")})
	require.NoError(t, err)
	assert.Equal(t, core.JobCompleted, res.Run.Status())
	assert.Equal(t, 1, res.Run.Stats().Warnings)
	assert.Zero(t, res.Run.Stats().Created)

	all, err := store.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestRunFatal(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
		return path
	}

	tests := []struct {
		name string
		path string
		want error
	}{
		{"Not EAD", write("tei.xml", `<TEI xmlns="http://www.tei-c.org/ns/1.0"/>`), core.ErrNotEAD},
		{"Malformed", write("broken.xml", `<ead xmlns="http://www.loc.gov/ead"><archdesc>`), core.ErrInvalidXML},
		{"Empty file", write("blank.xml", "  \n"), core.ErrEmptyInput},
		{"Traversal", write("escape.xml", `<ead xmlns="http://www.loc.gov/ead" xmlns:xlink="http://www.w3.org/1999/xlink">
  <archdesc level="fonds">
    <did><unitid>X</unitid><unittitle>Escape</unittitle><dao xlink:href="../secret.jpg"/></did>
  </archdesc>
</ead>`), core.ErrUnsafePath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.New()
			p := newPipeline(t, store, pipeline.Options{})
			res, err := p.Run(context.Background(), pipeline.Input{Path: tt.path})
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			assert.True(t, pipeline.IsFatal(err))
			assert.Equal(t, core.JobFailed, res.Run.Status())
			assert.Equal(t, 1, p.State().(pipeline.PipelineState).Failed)
		})
	}
}

type blank struct{}

func (blank) Apply(ctx context.Context, input, stylesheet, output string, params map[string]string) (string, error) {
	return output, os.WriteFile(output, nil, 0644)
}

func TestRunEmptyTransform(t *testing.T) {
	p := newPipeline(t, memory.New(), pipeline.Options{})
	p.Transformer = blank{}

	_, err := p.Run(context.Background(), pipeline.Input{Path: fixture("simple.xml")})
	assert.True(t, errors.Is(err, core.ErrEmptyTransform), "got %v", err)
}

func TestRunIntoVault(t *testing.T) {
	ctx := context.Background()
	vault, err := fs.NewVault(fs.Config{Path: filepath.Join(t.TempDir(), "vault"), AutoInit: true, Gitless: true})
	require.NoError(t, err)
	require.NoError(t, vault.Initialize(ctx))

	p := newPipeline(t, vault, pipeline.Options{})
	res, err := p.Run(ctx, pipeline.Input{Path: fixture("findingaid.xml")})
	require.NoError(t, err)

	state := vault.State().(fs.VaultState)
	assert.Equal(t, 1, state.Commits, "one run, one commit")
	assert.Equal(t, 7, state.IndexSize, "six items and one media")

	media, err := vault.List(ctx, core.ResourceMedia)
	require.NoError(t, err)
	require.Len(t, media, 1)
	assert.Equal(t, fmt.Sprintf("files/%d.jpg", media[0].Ref.ID), media[0].Data.Storage)

	for _, rec := range res.Records {
		assert.NotZero(t, rec.Process.ResourceID, rec.Process.Name)
	}
}
