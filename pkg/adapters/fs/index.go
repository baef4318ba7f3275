package fs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/eadimport/pkg/core"
)

// indexEntry is what the vault remembers about one resource file.
type indexEntry struct {
	Ref          core.ResourceRef    `json:"ref"`
	File         string              `json:"file"`
	Literals     map[string][]string `json:"literals,omitempty"`
	LastModified time.Time           `json:"lastModified"`
}

// index is the persistent state of the vault: the id sequence and one entry
// per resource.
type index struct {
	Version int                    `json:"version"`
	NextID  core.ResourceID        `json:"nextId"`
	Entries map[string]*indexEntry `json:"entries"` // keyed by "type/id"
	dirty   bool
	mu      sync.RWMutex
}

// cache loads and saves the index under the system directory.
type cache struct {
	Path  string
	index *index
}

func newCache(vaultPath, systemDir string) *cache {
	return &cache{
		Path: filepath.Join(vaultPath, systemDir, "index.json"),
		index: &index{
			Version: 1,
			NextID:  1,
			Entries: make(map[string]*indexEntry),
		},
	}
}

// Load reads the index. A missing or corrupted file leaves an empty index.
func (c *cache) Load() error {
	c.index.mu.Lock()
	defer c.index.mu.Unlock()

	data, err := os.ReadFile(c.Path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read index: %w", err)
	}
	if err := json.Unmarshal(data, c.index); err != nil || c.index.Entries == nil {
		c.index.Entries = make(map[string]*indexEntry)
		c.index.NextID = 1
		c.index.dirty = true
		return nil
	}
	if c.index.NextID < 1 {
		c.index.NextID = 1
	}
	c.index.dirty = false
	return nil
}

// Save writes the index if it changed.
func (c *cache) Save() error {
	c.index.mu.RLock()
	if !c.index.dirty {
		c.index.mu.RUnlock()
		return nil
	}
	data, err := json.MarshalIndent(c.index, "", "  ")
	c.index.mu.RUnlock()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(c.Path), 0755); err != nil {
		return err
	}
	if err := writeFileAtomic(c.Path, data, 0644); err != nil {
		return err
	}

	c.index.mu.Lock()
	c.index.dirty = false
	c.index.mu.Unlock()
	return nil
}

// Allocate reserves the next resource id.
func (c *cache) Allocate() core.ResourceID {
	c.index.mu.Lock()
	defer c.index.mu.Unlock()
	id := c.index.NextID
	c.index.NextID++
	c.index.dirty = true
	return id
}

// Get returns the entry of ref.
func (c *cache) Get(ref core.ResourceRef) (*indexEntry, bool) {
	c.index.mu.RLock()
	defer c.index.mu.RUnlock()
	e, ok := c.index.Entries[ref.String()]
	return e, ok
}

// Set stores an entry and keeps the id sequence ahead of it.
func (c *cache) Set(entry *indexEntry) {
	c.index.mu.Lock()
	defer c.index.mu.Unlock()
	c.index.Entries[entry.Ref.String()] = entry
	if entry.Ref.ID >= c.index.NextID {
		c.index.NextID = entry.Ref.ID + 1
	}
	c.index.dirty = true
}

// Delete removes the entry of ref.
func (c *cache) Delete(ref core.ResourceRef) {
	c.index.mu.Lock()
	defer c.index.mu.Unlock()
	delete(c.index.Entries, ref.String())
	c.index.dirty = true
}

// Prune removes the entries not in keep.
func (c *cache) Prune(keep map[string]bool) {
	c.index.mu.Lock()
	defer c.index.mu.Unlock()
	for key := range c.index.Entries {
		if !keep[key] {
			delete(c.index.Entries, key)
			c.index.dirty = true
		}
	}
}

// Range calls fn for the entries in id order until fn returns false.
func (c *cache) Range(fn func(entry *indexEntry) bool) {
	c.index.mu.RLock()
	entries := make([]*indexEntry, 0, len(c.index.Entries))
	for _, e := range c.index.Entries {
		entries = append(entries, e)
	}
	c.index.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].Ref.ID < entries[j].Ref.ID })
	for _, e := range entries {
		if !fn(e) {
			return
		}
	}
}

// Len returns the number of entries.
func (c *cache) Len() int {
	c.index.mu.RLock()
	defer c.index.mu.RUnlock()
	return len(c.index.Entries)
}

// literals collects the literal values of a resource by term.
func literals(values *core.Metadata) map[string][]string {
	out := make(map[string][]string)
	for _, term := range values.Terms() {
		for _, v := range values.Get(term) {
			if v.Type == core.ValueLiteral && v.Value != "" {
				out[term] = append(out[term], v.Value)
			}
		}
	}
	return out
}
