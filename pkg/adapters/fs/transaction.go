package fs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/aretw0/eadimport/pkg/core"
)

// Transaction stages resource writes in memory. Ids are taken from the
// vault sequence when a resource is staged, so they stay unique even if the
// transaction is rolled back.
type Transaction struct {
	vault  *Vault
	staged map[core.ResourceRef]*core.Resource
	copies map[core.ResourceRef]string // media ref -> source file
	mu     sync.Mutex
	closed bool
}

func newTransaction(v *Vault) *Transaction {
	return &Transaction{
		vault:  v,
		staged: make(map[core.ResourceRef]*core.Resource),
		copies: make(map[core.ResourceRef]string),
	}
}

// Create stages a resource and its media. Sideloaded media are checked
// against their checksum now and copied into the vault on Commit.
func (t *Transaction) Create(ctx context.Context, resourceType string, data core.ResourceData, nested []core.ResourceData) (core.ResourceRef, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return core.ResourceRef{}, errClosed
	}
	if resourceType == "" {
		return core.ResourceRef{}, fmt.Errorf("failed to create resource: missing type")
	}

	for i, m := range nested {
		if m.Ingester != core.IngestSideload {
			continue
		}
		if err := verifyMedia(m.Source, m.Checksum); err != nil {
			return core.ResourceRef{}, fmt.Errorf("media %d: %w", i+1, err)
		}
	}

	res := &core.Resource{
		Ref:  core.ResourceRef{Type: resourceType, ID: t.vault.cache.Allocate()},
		Data: data.Clone(),
	}
	if res.Data.Values == nil {
		res.Data.Values = core.NewMetadata()
	}
	for _, m := range nested {
		owner := res.Ref
		media := &core.Resource{
			Ref:   core.ResourceRef{Type: core.ResourceMedia, ID: t.vault.cache.Allocate()},
			Data:  m.Clone(),
			Owner: &owner,
		}
		if media.Data.Values == nil {
			media.Data.Values = core.NewMetadata()
		}
		if m.Ingester == core.IngestSideload && m.Source != "" {
			media.Data.Storage = MediaDir + "/" + strconv.FormatInt(int64(media.Ref.ID), 10) + filepath.Ext(m.Source)
			t.copies[media.Ref] = m.Source
		}
		t.staged[media.Ref] = media
		res.Media = append(res.Media, media.Ref)
	}
	t.staged[res.Ref] = res
	return res.Ref, nil
}

// Update stages the merge of partial into a resource.
func (t *Transaction) Update(ctx context.Context, resourceType string, id core.ResourceID, partial core.ResourceData) (core.ResourceRef, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return core.ResourceRef{}, errClosed
	}

	ref := core.ResourceRef{Type: resourceType, ID: id}
	res, ok := t.staged[ref]
	if !ok {
		stored, err := t.vault.Get(ctx, ref)
		if err != nil {
			return ref, fmt.Errorf("failed to update %s: %w", ref, err)
		}
		res = &stored
		t.staged[ref] = res
	}
	res.Data.Values.Merge(partial.Values)
	return ref, nil
}

// Find searches the vault first, then the staged resources. Staged ids are
// always higher than committed ones.
func (t *Transaction) Find(ctx context.Context, c core.Criteria) (*core.ResourceRef, error) {
	ref, err := t.vault.Find(ctx, c)
	if err == nil {
		return ref, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	for _, r := range t.sortedLocked() {
		if c.Type != "" && r.Ref.Type != c.Type {
			continue
		}
		if r.Data.Matches(c.Property, c.Value) {
			found := r.Ref
			return &found, nil
		}
	}
	return nil, core.ErrNotFound
}

// Get favors the staged version of a resource.
func (t *Transaction) Get(ctx context.Context, ref core.ResourceRef) (core.Resource, error) {
	t.mu.Lock()
	res, ok := t.staged[ref]
	t.mu.Unlock()
	if ok {
		out := *res
		out.Data = res.Data.Clone()
		return out, nil
	}
	return t.vault.Get(ctx, ref)
}

// List merges the vault listing with the staged resources.
func (t *Transaction) List(ctx context.Context, resourceType string) ([]core.Resource, error) {
	stored, err := t.vault.List(ctx, resourceType)
	if err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []core.Resource
	for _, r := range stored {
		if _, ok := t.staged[r.Ref]; !ok {
			out = append(out, r)
		}
	}
	for _, r := range t.sortedLocked() {
		if resourceType == "" || r.Ref.Type == resourceType {
			out = append(out, *r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Ref.ID < out[j].Ref.ID })
	return out, nil
}

func (t *Transaction) sortedLocked() []*core.Resource {
	out := make([]*core.Resource, 0, len(t.staged))
	for _, r := range t.staged {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ref.ID < out[j].Ref.ID })
	return out
}

// Commit writes the staged resources and media, updates the index and, on
// versioned vaults, records one git commit. An empty transaction commits
// nothing.
func (t *Transaction) Commit(ctx context.Context, changeReason string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return fmt.Errorf("transaction already closed")
	}
	t.closed = true
	v := t.vault

	if len(t.staged) == 0 {
		return v.saveIndex()
	}

	if !v.config.Gitless {
		unlock, err := v.git.Lock()
		if err != nil {
			return fmt.Errorf("failed to acquire git lock: %w", err)
		}
		defer unlock()
	}

	var filesToAdd []string
	for _, res := range t.sortedLocked() {
		if src, ok := t.copies[res.Ref]; ok {
			if err := t.copyMedia(src, res.Data.Storage); err != nil {
				return err
			}
			filesToAdd = append(filesToAdd, res.Data.Storage)
		}

		rel := v.relPath(res.Ref)
		fullPath := filepath.Join(v.Path, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
			return fmt.Errorf("failed to create directories for %s: %w", res.Ref, err)
		}
		data, err := v.serializer.Serialize(*res)
		if err != nil {
			return fmt.Errorf("failed to serialize %s: %w", res.Ref, err)
		}
		if err := writeFileAtomic(fullPath, data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", res.Ref, err)
		}
		filesToAdd = append(filesToAdd, rel)

		v.cache.Set(&indexEntry{
			Ref:          res.Ref,
			File:         rel,
			Literals:     literals(res.Data.Values),
			LastModified: time.Now(),
		})
	}

	if !v.config.Gitless {
		if err := v.git.Add(filesToAdd...); err != nil {
			return fmt.Errorf("failed to git add: %w", err)
		}
		msg := changeReason
		if msg == "" {
			msg = "batch transaction update"
		}
		if err := v.git.Commit(msg); err != nil {
			return fmt.Errorf("failed to git commit: %w", err)
		}
	}
	v.recordCommit()

	if err := v.saveIndex(); err != nil {
		v.config.Logger.Warn("index not saved", "error", err)
	}
	return nil
}

// Rollback discards the staged writes.
func (t *Transaction) Rollback(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.staged = nil
	t.copies = nil
	t.closed = true
	return nil
}

func (t *Transaction) copyMedia(src, rel string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open media %s: %w", src, err)
	}
	defer in.Close()

	dst := filepath.Join(t.vault.Path, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("failed to create media directory: %w", err)
	}
	if err := copyFileAtomic(dst, in, 0644); err != nil {
		return fmt.Errorf("failed to copy media %s: %w", src, err)
	}
	return nil
}

var _ core.Transaction = (*Transaction)(nil)
