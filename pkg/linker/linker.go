// Package linker rebuilds the hierarchy between imported resources. Relation
// values written as identifiers are turned into links to the resources that
// declare those identifiers.
package linker

import (
	"context"
	"strings"

	"github.com/samber/lo"

	"github.com/aretw0/eadimport/pkg/core"
)

const defaultIdentifierTerm = "dcterms:identifier"

// RelationTerms are the terms rewritten into resource links.
var RelationTerms = []string{"dcterms:hasPart", "dcterms:isPartOf"}

// Table maps declared identifiers to resources.
type Table map[string]core.ResourceRef

// Linker updates stored resources with their relations.
type Linker struct {
	Store core.ResourceStore
}

// New returns a linker writing to store.
func New(store core.ResourceStore) *Linker {
	return &Linker{Store: store}
}

// Link runs both passes over the imported records and returns the
// identifier table. Records that were not created are ignored.
func (l *Linker) Link(ctx context.Context, run *core.Run, records []*core.Record) Table {
	table := Identifiers(run, records)
	if len(table) == 0 {
		run.Warn("import has no identifier, no link can be created between components")
		return table
	}

	for i, rec := range records {
		if rec.Process.ResourceID == 0 {
			continue
		}
		partial, dirty := Rewrite(rec, table)
		if !dirty {
			continue
		}
		ref, err := l.Store.Update(ctx, resourceType(rec), rec.Process.ResourceID, core.ResourceData{Values: partial})
		if err != nil {
			run.Warn("unable to link resource", "index", i+1, "id", rec.Process.ResourceID, "error", err)
			continue
		}
		run.Count(func(s *core.RunStats) { s.Linked++ })
		run.Logger.Debug("resource linked", "index", i+1, "ref", ref.String())
	}
	return table
}

// Identifiers builds the identifier table. The first record declaring an
// identifier keeps it; later claims are logged and ignored.
func Identifiers(run *core.Run, records []*core.Record) Table {
	table := make(Table)
	for i, rec := range records {
		id := rec.Process.ResourceID
		if id == 0 {
			continue
		}
		own := ownIdentifiers(rec)
		if len(own) == 0 {
			run.Warn("resource has no identifier", "index", i+1, "id", id)
			continue
		}
		ref := core.ResourceRef{Type: resourceType(rec), ID: id}
		for _, identifier := range own {
			if prev, ok := table[identifier]; ok {
				if prev != ref {
					run.Warn("duplicate identifier", "index", i+1, "identifier", identifier, "kept", prev.ID, "ignored", id)
				}
				continue
			}
			table[identifier] = ref
		}
	}
	return table
}

// Rewrite returns the relation terms of rec with every value found in the
// table replaced by a resource link. dirty is false when nothing changed.
// rec itself is left untouched.
func Rewrite(rec *core.Record, table Table) (partial *core.Metadata, dirty bool) {
	own := ownIdentifiers(rec)
	partial = core.NewMetadata()
	for _, term := range RelationTerms {
		values := rec.Metadata.Get(term)
		if len(values) == 0 {
			continue
		}
		out := make([]core.Value, len(values))
		for j, v := range values {
			out[j] = v
			if v.Type != core.ValueLiteral || v.Value == "" || lo.Contains(own, v.Value) {
				continue
			}
			target, ok := table[v.Value]
			if !ok {
				continue
			}
			out[j] = core.Value{
				Property:   v.Property,
				PropertyID: v.PropertyID,
				Type:       core.ValueResource,
				ResourceID: target.ID,
				Public:     v.Public,
			}
			dirty = true
		}
		partial.Set(term, out)
	}
	return partial, dirty
}

// IdentifierTerm is the term holding the identifiers of rec: its identifier
// field when that names a property, else dcterms:identifier.
func IdentifierTerm(rec *core.Record) string {
	if f := rec.Process.IdentifierField; strings.Contains(f, ":") {
		return f
	}
	return defaultIdentifierTerm
}

func ownIdentifiers(rec *core.Record) []string {
	var out []string
	for _, v := range rec.Metadata.Get(IdentifierTerm(rec)) {
		if v.Value != "" {
			out = append(out, v.Value)
		}
	}
	return out
}

func resourceType(rec *core.Record) string {
	if rec.Process.RecordType == core.RecordCollection {
		return core.ResourceItemSets
	}
	return core.ResourceItems
}
