package fs_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/eadimport/pkg/adapters/fs"
	"github.com/aretw0/eadimport/pkg/core"
)

func TestTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("Staged Writes Are Visible Inside", func(t *testing.T) {
		vault, path, _ := setupVault(t)
		require.NoError(t, vault.Initialize(ctx))

		tx, err := vault.Begin(ctx)
		require.NoError(t, err)

		set, err := tx.Create(ctx, core.ResourceItemSets, titled("Letters"), nil)
		require.NoError(t, err)

		found, err := tx.Find(ctx, core.Criteria{Type: core.ResourceItemSets, Property: "dcterms:title", Value: "Letters"})
		require.NoError(t, err)
		assert.Equal(t, set, *found)

		_, err = vault.Find(ctx, core.Criteria{Type: core.ResourceItemSets, Property: "dcterms:title", Value: "Letters"})
		assert.True(t, errors.Is(err, core.ErrNotFound), "not visible outside before commit")

		_, err = os.Stat(filepath.Join(path, "item_sets", "1.json"))
		assert.True(t, os.IsNotExist(err))

		listed, err := tx.List(ctx, core.ResourceItemSets)
		require.NoError(t, err)
		assert.Len(t, listed, 1)

		require.NoError(t, tx.Commit(ctx, "import"))

		_, err = vault.Get(ctx, set)
		assert.NoError(t, err)
	})

	t.Run("Update Of Staged Resource", func(t *testing.T) {
		vault, _, _ := setupVault(t)
		require.NoError(t, vault.Initialize(ctx))

		tx, err := vault.Begin(ctx)
		require.NoError(t, err)
		item, err := tx.Create(ctx, core.ResourceItems, titled("Fonds"), nil)
		require.NoError(t, err)

		partial := core.NewMetadata()
		partial.Add("dcterms:title", core.Literal("dcterms:title", 1, "Renamed"))
		_, err = tx.Update(ctx, core.ResourceItems, item.ID, core.ResourceData{Values: partial})
		require.NoError(t, err)
		require.NoError(t, tx.Commit(ctx, ""))

		res, err := vault.Get(ctx, item)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", res.Title())
	})

	t.Run("Rollback Discards", func(t *testing.T) {
		vault, _, _ := setupVault(t)
		require.NoError(t, vault.Initialize(ctx))

		tx, err := vault.Begin(ctx)
		require.NoError(t, err)
		item, err := tx.Create(ctx, core.ResourceItems, titled("Fonds"), nil)
		require.NoError(t, err)
		require.NoError(t, tx.Rollback(ctx))

		_, err = vault.Get(ctx, item)
		assert.True(t, errors.Is(err, core.ErrNotFound))

		_, err = tx.Create(ctx, core.ResourceItems, titled("Late"), nil)
		assert.Error(t, err, "closed transaction")
		assert.Error(t, tx.Commit(ctx, ""))
	})

	t.Run("One Commit Per Transaction", func(t *testing.T) {
		if !fs.IsGitInstalled() {
			t.Skip("git not installed")
		}
		vault, _, client := setupVault(t, func(c *fs.Config) { c.Gitless = false })
		require.NoError(t, vault.Initialize(ctx))

		tx, err := vault.Begin(ctx)
		require.NoError(t, err)
		for _, title := range []string{"A", "B", "C"} {
			_, err := tx.Create(ctx, core.ResourceItems, titled(title), nil)
			require.NoError(t, err)
		}
		require.NoError(t, tx.Commit(ctx, "bulk/import/ead/run-1"))

		count, err := client.Run("rev-list", "--count", "HEAD")
		require.NoError(t, err)
		assert.Equal(t, "2", count, "ignore commit plus one run commit")
		msg, err := client.LastMessage()
		require.NoError(t, err)
		assert.Equal(t, "bulk/import/ead/run-1", msg)
	})
}
