// Package memory is an in-memory resource store. It backs dry runs and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/introspection"

	"github.com/aretw0/eadimport/pkg/core"
)

// Store keeps resources in maps keyed by reference. Ids are allocated from a
// single sequence shared by every resource type.
type Store struct {
	mu        sync.RWMutex
	nextID    core.ResourceID
	resources map[core.ResourceRef]*core.Resource
	order     []core.ResourceRef
	updates   int
}

// New returns an empty store.
func New() *Store {
	return &Store{
		nextID:    1,
		resources: make(map[core.ResourceRef]*core.Resource),
	}
}

func (s *Store) add(resourceType string, data core.ResourceData) *core.Resource {
	ref := core.ResourceRef{Type: resourceType, ID: s.nextID}
	s.nextID++
	res := &core.Resource{Ref: ref, Data: data.Clone()}
	if res.Data.Values == nil {
		res.Data.Values = core.NewMetadata()
	}
	s.resources[ref] = res
	s.order = append(s.order, ref)
	return res
}

// Create stores a resource and its nested media.
func (s *Store) Create(ctx context.Context, resourceType string, data core.ResourceData, nested []core.ResourceData) (core.ResourceRef, error) {
	if err := ctx.Err(); err != nil {
		return core.ResourceRef{}, err
	}
	if resourceType == "" {
		return core.ResourceRef{}, fmt.Errorf("failed to create resource: missing type")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	res := s.add(resourceType, data)
	for _, m := range nested {
		media := s.add(core.ResourceMedia, m)
		owner := res.Ref
		media.Owner = &owner
		res.Media = append(res.Media, media.Ref)
	}
	return res.Ref, nil
}

// Update replaces the terms present in partial.Values.
func (s *Store) Update(ctx context.Context, resourceType string, id core.ResourceID, partial core.ResourceData) (core.ResourceRef, error) {
	if err := ctx.Err(); err != nil {
		return core.ResourceRef{}, err
	}
	ref := core.ResourceRef{Type: resourceType, ID: id}
	s.mu.Lock()
	defer s.mu.Unlock()

	res, ok := s.resources[ref]
	if !ok {
		return ref, fmt.Errorf("failed to update %s: %w", ref, core.ErrNotFound)
	}
	res.Data.Values.Merge(partial.Values)
	s.updates++
	return ref, nil
}

// Find returns the first resource, in creation order, holding the literal.
func (s *Store) Find(ctx context.Context, c core.Criteria) (*core.ResourceRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, ref := range s.order {
		if c.Type != "" && ref.Type != c.Type {
			continue
		}
		if s.resources[ref].Data.Matches(c.Property, c.Value) {
			found := ref
			return &found, nil
		}
	}
	return nil, core.ErrNotFound
}

// Get returns a copy of a stored resource.
func (s *Store) Get(ctx context.Context, ref core.ResourceRef) (core.Resource, error) {
	if err := ctx.Err(); err != nil {
		return core.Resource{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	res, ok := s.resources[ref]
	if !ok {
		return core.Resource{}, fmt.Errorf("failed to get %s: %w", ref, core.ErrNotFound)
	}
	return copyResource(res), nil
}

// List returns the resources of a type ordered by id. An empty type lists
// everything.
func (s *Store) List(ctx context.Context, resourceType string) ([]core.Resource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []core.Resource
	for _, ref := range s.order {
		if resourceType != "" && ref.Type != resourceType {
			continue
		}
		out = append(out, copyResource(s.resources[ref]))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Ref.ID < out[j].Ref.ID })
	return out, nil
}

func copyResource(r *core.Resource) core.Resource {
	out := *r
	out.Data = r.Data.Clone()
	out.Media = append([]core.ResourceRef(nil), r.Media...)
	if r.Owner != nil {
		owner := *r.Owner
		out.Owner = &owner
	}
	return out
}

// StoreState is the observable state of a Store.
type StoreState struct {
	Resources map[string]int `json:"resources"`
	Updates   int            `json:"updates"`
	NextID    int64          `json:"next_id"`
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[string]int)
	for ref := range s.resources {
		counts[ref.Type]++
	}
	return StoreState{Resources: counts, Updates: s.updates, NextID: int64(s.nextID)}
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string {
	return "memory-store"
}

var (
	_ core.Store                   = (*Store)(nil)
	_ introspection.Introspectable = (*Store)(nil)
	_ introspection.Component      = (*Store)(nil)
)
