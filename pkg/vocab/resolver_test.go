package vocab_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/eadimport/pkg/vocab"
)

func TestDefault(t *testing.T) {
	r := vocab.Default()

	assert.Equal(t, 1, r.PropertyID("dcterms:title"))
	assert.NotZero(t, r.PropertyID("dcterms:isPartOf"))
	assert.NotZero(t, r.PropertyID("ead:unitScopeContent"))
	assert.Zero(t, r.PropertyID("dcterms:unknown"))

	assert.NotZero(t, r.ResourceClassID("ead:Component"))
	assert.Zero(t, r.ResourceClassID("ead:Nothing"))
	assert.Equal(t, []string{"dcterms", "ead"}, r.Prefixes())
}

func TestLoad(t *testing.T) {
	r := vocab.Default()
	before := r.PropertyID("dcterms:title")

	err := r.Load(strings.NewReader(`
vocabularies:
  - prefix: foaf
    properties: [name, title]
  - prefix: dcterms
    properties: [title]
`))
	require.NoError(t, err)

	assert.Equal(t, before, r.PropertyID("dcterms:title"), "known terms keep their id")
	assert.NotZero(t, r.PropertyID("foaf:name"))
	assert.NotEqual(t, r.PropertyID("foaf:name"), r.PropertyID("foaf:title"))

	t.Run("Rejects vocabulary without prefix", func(t *testing.T) {
		err := vocab.New().Load(strings.NewReader("vocabularies:\n  - label: x\n"))
		assert.Error(t, err)
	})
}
