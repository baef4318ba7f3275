package core

import "context"

// ResourceStore is the storage port of the importer and the link resolver.
type ResourceStore interface {
	// Create stores a resource with its nested media and returns its reference.
	Create(ctx context.Context, resourceType string, data ResourceData, nested []ResourceData) (ResourceRef, error)

	// Update merges a partial payload: every term present in partial.Values
	// replaces the stored values of that term, the other terms are kept.
	Update(ctx context.Context, resourceType string, id ResourceID, partial ResourceData) (ResourceRef, error)

	// Find returns the first resource matching the criteria, or ErrNotFound.
	Find(ctx context.Context, criteria Criteria) (*ResourceRef, error)
}

// ResourceReader gives read access to stored resources.
type ResourceReader interface {
	Get(ctx context.Context, ref ResourceRef) (Resource, error)
	List(ctx context.Context, resourceType string) ([]Resource, error)
}

// Store is a store that can also be read back.
type Store interface {
	ResourceStore
	ResourceReader
}

// Transaction stages writes until Commit. Reads see the staged writes.
type Transaction interface {
	Store
	Commit(ctx context.Context, changeReason string) error
	Rollback(ctx context.Context) error
}

// Transactional is implemented by stores that can batch the writes of a run.
type Transactional interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Criteria selects resources by a literal value of a term.
type Criteria struct {
	Type     string
	Property string
	Value    string
}

// TermResolver maps vocabulary terms to the numeric ids used by the store.
// Unknown terms resolve to 0.
type TermResolver interface {
	PropertyID(term string) int
	ResourceClassID(class string) int
}

type contextKey string

// ChangeReasonKey carries a change reason (commit message) for stores that
// version their writes.
const ChangeReasonKey contextKey = "change_reason"
