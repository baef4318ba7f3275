package baseid_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/eadimport/pkg/baseid"
	"github.com/aretw0/eadimport/pkg/xmldoc"
)

const header = `<ead xmlns="http://www.loc.gov/ead"><eadheader>
<eadid publicid="-//ARCH//FA 12//EN" identifier="ark:/12345/fa12" url="http://example.org/fa12.xml">FA-12</eadid>
</eadheader></ead>`

func TestResolve(t *testing.T) {
	doc, err := xmldoc.Load([]byte(header), xmldoc.LoadOptions{})
	require.NoError(t, err)
	uri := "https://example.org/ead/fa12.xml"

	cases := []struct {
		strategy baseid.Strategy
		from     string
		want     string
	}{
		{baseid.DocumentURI, "", uri},
		{"", "", uri},
		{baseid.Basename, "", "fa12.xml"},
		{baseid.Filename, "", "fa12"},
		{baseid.EADID, "/ead/eadheader/eadid", "FA-12"},
		{baseid.PublicID, "/ead/eadheader/eadid/@publicid", "-//ARCH//FA 12//EN"},
		{baseid.Identifier, "/ead/eadheader/eadid/@identifier", "ark:/12345/fa12"},
		{baseid.URL, "/ead/eadheader/eadid/@url", "http://example.org/fa12.xml"},
		{"unknown", "", uri},
	}
	for _, tc := range cases {
		t.Run(string(tc.strategy), func(t *testing.T) {
			d, err := baseid.Resolve(baseid.Input{Strategy: tc.strategy, DocumentURI: uri, Document: doc})
			require.NoError(t, err)
			assert.Equal(t, tc.from, d.From)
			assert.Equal(t, tc.want, d.Evaluate(doc))
		})
	}
}

func TestResolveCustom(t *testing.T) {
	doc, err := xmldoc.Load([]byte(header), xmldoc.LoadOptions{})
	require.NoError(t, err)

	t.Run("First table entry matching an eadid attribute wins", func(t *testing.T) {
		table := "# archives\nother = nope\nark:/12345/fa12 = https://archives.example.org/fa12\n-//ARCH//FA 12//EN = second\n"
		d, err := baseid.Resolve(baseid.Input{Strategy: baseid.Custom, Custom: table, DocumentURI: "fa12.xml", Document: doc})
		require.NoError(t, err)
		assert.Empty(t, d.From)
		assert.Equal(t, "https://archives.example.org/fa12", d.Evaluate(doc))
	})

	t.Run("No match falls back to document uri", func(t *testing.T) {
		d, err := baseid.Resolve(baseid.Input{Strategy: baseid.Custom, Custom: "x = y", DocumentURI: "fa12.xml", Document: doc})
		require.NoError(t, err)
		assert.Equal(t, "fa12.xml", d.Default)
	})

	t.Run("Malformed line is an error", func(t *testing.T) {
		_, err := baseid.Resolve(baseid.Input{Strategy: baseid.Custom, Custom: "no separator", Document: doc})
		assert.Error(t, err)
	})
}

func TestEvaluateEmptySource(t *testing.T) {
	doc, err := xmldoc.Load([]byte(`<ead xmlns="http://www.loc.gov/ead"><eadheader><eadid/></eadheader></ead>`), xmldoc.LoadOptions{})
	require.NoError(t, err)

	d, err := baseid.Resolve(baseid.Input{Strategy: baseid.EADID, DocumentURI: "fallback.xml"})
	require.NoError(t, err)
	assert.Equal(t, "fallback.xml", d.Evaluate(doc))
}
