package fetch_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/eadimport/pkg/fetch"
)

func TestIsRemote(t *testing.T) {
	assert.True(t, fetch.IsRemote("https://archives.example.org/fa12.xml"))
	assert.True(t, fetch.IsRemote("HTTP://archives.example.org/fa12.xml"))
	assert.False(t, fetch.IsRemote("/srv/ead/fa12.xml"))
	assert.False(t, fetch.IsRemote("ftp://archives.example.org/fa12.xml"))
	assert.False(t, fetch.IsRemote("http:///nohost"))
}

func TestLocal(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path == "/missing.xml" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `<ead xmlns="http://www.loc.gov/ead"/>`)
	}))
	defer srv.Close()

	f := fetch.New(t.TempDir(), srv.Client(), nil)
	ctx := context.Background()

	t.Run("Local path is unchanged", func(t *testing.T) {
		p, err := f.Local(ctx, "testdata/simple.xml")
		require.NoError(t, err)
		assert.Equal(t, "testdata/simple.xml", p)
	})

	t.Run("Remote document is cached", func(t *testing.T) {
		first, err := f.Local(ctx, srv.URL+"/fa12.xml")
		require.NoError(t, err)
		data, err := os.ReadFile(first)
		require.NoError(t, err)
		assert.Contains(t, string(data), "<ead")

		second, err := f.Local(ctx, srv.URL+"/fa12.xml")
		require.NoError(t, err)
		assert.Equal(t, first, second)
		assert.Equal(t, int32(1), hits.Load())
	})

	t.Run("Http error", func(t *testing.T) {
		_, err := f.Local(ctx, srv.URL+"/missing.xml")
		assert.ErrorContains(t, err, "404")
	})
}
