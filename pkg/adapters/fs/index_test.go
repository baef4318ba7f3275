package fs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/eadimport/pkg/core"
)

func TestCache_Load(t *testing.T) {
	t.Run("Starts Empty if File Missing", func(t *testing.T) {
		c := newCache(t.TempDir(), ".cache")
		if err := c.Load(); err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if c.Len() != 0 {
			t.Errorf("Expected empty entries, got %d", c.Len())
		}
		if id := c.Allocate(); id != 1 {
			t.Errorf("Expected first id 1, got %d", id)
		}
	})

	t.Run("Loads Valid JSON", func(t *testing.T) {
		tmpDir := t.TempDir()
		cacheDir := filepath.Join(tmpDir, ".cache")
		os.MkdirAll(cacheDir, 0755)

		jsonContent := `{
			"version": 1,
			"nextId": 8,
			"entries": {
				"items/7": {
					"ref": {"type": "items", "id": 7},
					"file": "items/7.json",
					"literals": {"dcterms:title": ["Fonds"]}
				}
			}
		}`
		os.WriteFile(filepath.Join(cacheDir, "index.json"), []byte(jsonContent), 0644)

		c := newCache(tmpDir, ".cache")
		if err := c.Load(); err != nil {
			t.Fatalf("Load failed: %v", err)
		}

		entry, ok := c.Get(core.ResourceRef{Type: core.ResourceItems, ID: 7})
		if !ok {
			t.Fatal("Expected entry items/7 not found")
		}
		if entry.Literals["dcterms:title"][0] != "Fonds" {
			t.Errorf("Expected title 'Fonds', got %v", entry.Literals)
		}
		if id := c.Allocate(); id != 8 {
			t.Errorf("Expected next id 8, got %d", id)
		}
	})

	t.Run("Resets on Corrupted JSON", func(t *testing.T) {
		tmpDir := t.TempDir()
		cacheDir := filepath.Join(tmpDir, ".cache")
		os.MkdirAll(cacheDir, 0755)
		os.WriteFile(filepath.Join(cacheDir, "index.json"), []byte("{ invalid json"), 0644)

		c := newCache(tmpDir, ".cache")
		if err := c.Load(); err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if c.Len() != 0 {
			t.Errorf("Expected empty entries after corruption, got %d", c.Len())
		}
	})
}

func TestCache_SaveAndRange(t *testing.T) {
	tmpDir := t.TempDir()
	c := newCache(tmpDir, ".cache")

	for _, id := range []core.ResourceID{3, 1, 2} {
		c.Set(&indexEntry{Ref: core.ResourceRef{Type: core.ResourceItems, ID: id}})
	}
	if err := c.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	reloaded := newCache(tmpDir, ".cache")
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	var order []core.ResourceID
	reloaded.Range(func(e *indexEntry) bool {
		order = append(order, e.Ref.ID)
		return true
	})
	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Errorf("Range not in id order: %v", order)
	}
	if id := reloaded.Allocate(); id != 4 {
		t.Errorf("Expected id sequence to continue at 4, got %d", id)
	}

	reloaded.Prune(map[string]bool{"items/2": true})
	if reloaded.Len() != 1 {
		t.Errorf("Expected one entry after prune, got %d", reloaded.Len())
	}
}
