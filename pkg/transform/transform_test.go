package transform_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/eadimport/pkg/baseid"
	"github.com/aretw0/eadimport/pkg/core"
	"github.com/aretw0/eadimport/pkg/transform"
)

func fixture(name string) string {
	return filepath.Join("..", "..", "testdata", name)
}

// prepare writes the built-in configuration and a scratch copy carrying d.
func prepare(t *testing.T, d baseid.Directive) (string, string) {
	t.Helper()
	dir := t.TempDir()
	base, err := transform.WriteDefaults(filepath.Join(dir))
	require.NoError(t, err)
	scratch := t.TempDir()
	cfg, err := transform.PrepareConfig(base, d, scratch)
	require.NoError(t, err)
	return cfg, scratch
}

func readDoc(t *testing.T, path string) *etree.Document {
	t.Helper()
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromFile(path))
	return doc
}

func TestPrepareConfig(t *testing.T) {
	dir := t.TempDir()
	base, err := transform.WriteDefaults(dir)
	require.NoError(t, err)

	scratch := t.TempDir()
	path, err := transform.PrepareConfig(base, baseid.Directive{From: "/ead/eadheader/eadid", Default: "a&b.xml"}, scratch)
	require.NoError(t, err)

	assert.Equal(t, scratch, filepath.Dir(path))
	assert.Contains(t, filepath.Base(path), transform.ScratchPrefix)

	cfg, err := transform.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/ead/eadheader/eadid", cfg.BaseID.From)
	assert.Equal(t, "a&b.xml", cfg.BaseID.Default)
	assert.Equal(t, filepath.Join(dir, "mappings.yaml"), cfg.Mappings)
	assert.Equal(t, filepath.Join(dir, "rules.yaml"), cfg.Rules)

	t.Run("Base configuration is untouched", func(t *testing.T) {
		orig, err := transform.LoadConfig(base)
		require.NoError(t, err)
		assert.Empty(t, orig.BaseID.Default)
	})

	t.Run("Missing configuration is fatal", func(t *testing.T) {
		_, err := transform.PrepareConfig(filepath.Join(dir, "missing.xml"), baseid.Directive{}, scratch)
		assert.True(t, errors.Is(err, core.ErrScratchConfig))
	})
}

func TestNativeDocuments(t *testing.T) {
	ctx := context.Background()

	t.Run("Simple hierarchy", func(t *testing.T) {
		cfg, scratch := prepare(t, baseid.Directive{Default: "simple.xml"})
		engine := transform.NewNative(scratch, nil)

		out, err := engine.Apply(ctx, fixture("simple.xml"), transform.StylesheetDocuments, "", map[string]string{
			transform.ParamConfiguration: cfg,
		})
		require.NoError(t, err)

		doc := readDoc(t, out)
		records := doc.Root().SelectElements("record")
		require.Len(t, records, 3)

		assert.Equal(t, "simple.xml/ead/archdesc", records[0].SelectAttrValue("internalId", ""))
		assert.Equal(t, "Archival Description", records[0].SelectAttrValue("itemType", ""))
		assert.Equal(t, "/ead/archdesc/dsc/c[2]", records[2].SelectAttrValue("xpath", ""))

		var parts []string
		for _, hp := range records[0].SelectElements("dcterms:hasPart") {
			parts = append(parts, hp.Text())
		}
		assert.Equal(t, []string{"simple.xml/ead/archdesc/dsc/c[1]", "simple.xml/ead/archdesc/dsc/c[2]"}, parts)

		isPartOf := records[1].SelectElement("dcterms:isPartOf")
		require.NotNil(t, isPartOf)
		assert.Equal(t, "simple.xml/ead/archdesc", isPartOf.Text())

		var ids []string
		for _, id := range records[1].SelectElements("dcterms:identifier") {
			ids = append(ids, id.Text())
		}
		assert.Equal(t, []string{"simple.xml/ead/archdesc/dsc/c[1]", "SER-1"}, ids)
	})

	t.Run("Base id from eadid", func(t *testing.T) {
		cfg, scratch := prepare(t, baseid.Directive{From: "/ead/eadheader/eadid/@identifier", Default: "ignored"})
		out, err := transform.NewNative(scratch, nil).Apply(ctx, fixture("findingaid.xml"), transform.StylesheetDocuments, "", map[string]string{
			transform.ParamConfiguration: cfg,
		})
		require.NoError(t, err)

		records := readDoc(t, out).Root().SelectElements("record")
		require.Len(t, records, 6, "empty component is not emitted")
		assert.Equal(t, "fa12/ead/eadheader", records[0].SelectAttrValue("name", ""))
		assert.Equal(t, "Archival Finding Aid", records[0].SelectAttrValue("itemType", ""))

		archdesc := records[1]
		assert.Equal(t, "fa12/ead/eadheader", archdesc.SelectElement("dcterms:isPartOf").Text())

		var level string
		for _, set := range archdesc.SelectElements("elementSet") {
			for _, el := range set.SelectElements("element") {
				if el.SelectAttrValue("name", "") == "Level" {
					level = el.SelectElement("data").Text()
				}
			}
		}
		assert.Equal(t, "fonds", level)
	})

	t.Run("Integrated digital objects are nested files", func(t *testing.T) {
		cfg, scratch := prepare(t, baseid.Directive{Default: "fa"})
		out, err := transform.NewNative(scratch, nil).Apply(ctx, fixture("findingaid.xml"), transform.StylesheetDocuments, "", map[string]string{
			transform.ParamConfiguration:  cfg,
			transform.ParamDigitalObjects: transform.DigitalObjectsIntegrated,
		})
		require.NoError(t, err)

		records := readDoc(t, out).Root().SelectElements("record")
		var files []*etree.Element
		for _, r := range records {
			files = append(files, r.SelectElements("record")...)
		}
		require.Len(t, files, 1)
		assert.Equal(t, "images/letter.jpg", files[0].SelectAttrValue("file", ""))
		assert.Equal(t, "First letter", files[0].SelectElement("dcterms:title").Text())
	})

	t.Run("Separated digital objects are records", func(t *testing.T) {
		cfg, scratch := prepare(t, baseid.Directive{Default: "fa"})
		out, err := transform.NewNative(scratch, nil).Apply(ctx, fixture("findingaid.xml"), transform.StylesheetDocuments, "", map[string]string{
			transform.ParamConfiguration:  cfg,
			transform.ParamDigitalObjects: transform.DigitalObjectsSeparated,
		})
		require.NoError(t, err)

		records := readDoc(t, out).Root().SelectElements("record")
		require.Len(t, records, 7)
		var digital *etree.Element
		for _, r := range records {
			if r.SelectAttrValue("itemType", "") == "Digital Object" {
				digital = r
			}
		}
		require.NotNil(t, digital)
		require.NotNil(t, digital.SelectElement("record"))
		assert.Equal(t, "fa/ead/archdesc/dsc/c01[1]/c02[1]", digital.SelectElement("dcterms:isPartOf").Text())
	})

	t.Run("Document without units yields no record", func(t *testing.T) {
		cfg, scratch := prepare(t, baseid.Directive{Default: "empty"})
		out, err := transform.NewNative(scratch, nil).Apply(ctx, fixture("empty.xml"), transform.StylesheetDocuments, "", map[string]string{
			transform.ParamConfiguration: cfg,
		})
		require.NoError(t, err)
		assert.Empty(t, readDoc(t, out).Root().SelectElements("record"))
	})

	t.Run("Unknown stylesheet", func(t *testing.T) {
		_, err := transform.NewNative(t.TempDir(), nil).Apply(ctx, fixture("simple.xml"), "builtin:nope", "", nil)
		assert.Error(t, err)
	})
}

func TestNativeParts(t *testing.T) {
	ctx := context.Background()
	scratch := t.TempDir()
	out := filepath.Join(scratch, "parts.xml")

	path, err := transform.NewNative(scratch, nil).Apply(ctx, fixture("findingaid.xml"), transform.StylesheetParts, out, map[string]string{
		transform.ParamDigitalObjects: transform.DigitalObjectsIntegrated,
	})
	require.NoError(t, err)
	assert.Equal(t, out, path)

	parts := readDoc(t, out).Root().SelectElements("part")
	require.Len(t, parts, 7)
	assert.Equal(t, "/ead/eadheader", parts[0].SelectAttrValue("xpath", ""))

	archdesc := parts[1].SelectElement("archdesc")
	require.NotNil(t, archdesc)
	assert.Equal(t, "http://www.loc.gov/ead", archdesc.SelectAttrValue("xmlns", ""))
	assert.Nil(t, archdesc.SelectElement("dsc"), "dsc emptied of components is dropped")
	assert.NotNil(t, archdesc.SelectElement("scopecontent"))

	c01 := parts[2].SelectElement("c01")
	require.NotNil(t, c01)
	assert.Empty(t, c01.SelectElements("c02"))

	t.Run("Separated digital objects get parts", func(t *testing.T) {
		sep, err := transform.NewNative(scratch, nil).Apply(ctx, fixture("findingaid.xml"), transform.StylesheetParts, "", map[string]string{
			transform.ParamDigitalObjects: transform.DigitalObjectsSeparated,
		})
		require.NoError(t, err)
		parts := readDoc(t, sep).Root().SelectElements("part")
		assert.Len(t, parts, 8)
		_, err = os.Stat(sep)
		assert.NoError(t, err)
	})
}
