package platform_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/eadimport/internal/platform"
	"github.com/aretw0/eadimport/pkg/adapters/fs"
	"github.com/aretw0/eadimport/pkg/adapters/memory"
	"github.com/aretw0/eadimport/pkg/core"
	"github.com/aretw0/eadimport/pkg/pipeline"
)

var quiet = platform.WithLogger(slog.New(slog.DiscardHandler))

func TestOpen(t *testing.T) {
	t.Run("AutoInit Creates Gitless Vault", func(t *testing.T) {
		vaultPath := filepath.Join(t.TempDir(), "vault")

		store, err := platform.Open(vaultPath, quiet, platform.WithAutoInit(true), platform.WithVersioning(false), platform.WithForceTemp(true))
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		vault, ok := store.(*fs.Vault)
		if !ok {
			t.Fatalf("expected *fs.Vault, got %T", store)
		}
		if vault.Path != vaultPath {
			t.Errorf("expected path %s, got %s", vaultPath, vault.Path)
		}
		if _, err := os.Stat(filepath.Join(vaultPath, ".git")); !os.IsNotExist(err) {
			t.Errorf(".git should not exist in a gitless vault")
		}
	})

	t.Run("Missing Vault Without AutoInit Fails", func(t *testing.T) {
		_, err := platform.Open(filepath.Join(t.TempDir(), "missing"), quiet, platform.WithForceTemp(true), platform.WithMustExist(true))
		if err == nil {
			t.Error("expected failure for a missing vault")
		}
	})

	t.Run("Read Only Vault Rejects Writes", func(t *testing.T) {
		vaultPath := t.TempDir()
		store, err := platform.Open(vaultPath, quiet, platform.WithReadOnly(true))
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		_, err = store.Create(context.Background(), core.ResourceItems, core.ResourceData{}, nil)
		if !errors.Is(err, core.ErrReadOnly) {
			t.Errorf("expected ErrReadOnly, got %v", err)
		}
	})

	t.Run("Memory Adapter", func(t *testing.T) {
		store, err := platform.Open("", platform.WithAdapter(platform.AdapterMemory))
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		if _, ok := store.(*memory.Store); !ok {
			t.Errorf("expected *memory.Store, got %T", store)
		}
	})

	t.Run("Unknown Adapter", func(t *testing.T) {
		if _, err := platform.Open("", platform.WithAdapter("s3")); err == nil {
			t.Error("expected unknown adapter error")
		}
	})
}

func TestNew(t *testing.T) {
	store := memory.New()
	p, err := platform.New("", quiet, platform.WithStore(store), platform.WithImportOptions(pipeline.Options{BaseID: "filename"}))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	res, err := p.Run(context.Background(), pipeline.Input{Path: filepath.Join("..", "..", "testdata", "simple.xml")})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got := res.Run.Stats().Created; got != 3 {
		t.Errorf("created %d resources, want 3", got)
	}
	ids := res.Records[0].Metadata.Get("dcterms:identifier")
	if len(ids) == 0 || ids[0].Value != "simple/ead/archdesc" {
		t.Errorf("unexpected identifiers %v", ids)
	}

	t.Run("Missing Vocabulary", func(t *testing.T) {
		_, err := platform.New("", quiet, platform.WithStore(store), platform.WithVocabularies("missing.yaml"))
		if err == nil {
			t.Error("expected vocabulary error")
		}
	})
}
