// Package importer creates one stored resource per top-level record.
package importer

import (
	"context"

	"github.com/aretw0/eadimport/pkg/core"
	"github.com/aretw0/eadimport/pkg/extract"
)

// Terms looked up when resolving the collection of an item.
var collectionTerms = []string{"dcterms:title", "dcterms:identifier"}

// Importer writes records to a store.
type Importer struct {
	Store core.ResourceStore
	Terms core.TermResolver
}

// New returns an importer.
func New(store core.ResourceStore, terms core.TermResolver) *Importer {
	return &Importer{Store: store, Terms: terms}
}

// Import creates the records in order. Nested files travel with their record
// in the same create call. A failed create is logged and counted, and the
// run goes on with the next record. On success the record gets the id of
// its resource.
func (im *Importer) Import(ctx context.Context, run *core.Run, records []*core.Record) {
	index := 0
	for _, rec := range records {
		index++
		resourceType, data := im.payload(ctx, run, rec, index)

		var nested []core.ResourceData
		files := rec.Files
		if rec.Process.RecordType == core.RecordFile {
			// A loose file becomes an item holding that single media.
			files = []*core.Record{rec}
		}
		for _, f := range files {
			if f != rec {
				index++
			}
			nested = append(nested, mediaPayload(f))
		}

		ref, err := im.Store.Create(ctx, resourceType, data, nested)
		if err != nil {
			run.Count(func(s *core.RunStats) { s.Failed++ })
			run.Warn("unable to create resource", "index", index, "record", rec.Process.Name, "error", err)
			continue
		}
		rec.Process.ResourceID = ref.ID
		run.Created(ref)
		run.Logger.Info("resource created", "index", index, "type", ref.Type, "id", ref.ID)
	}
}

func (im *Importer) payload(ctx context.Context, run *core.Run, rec *core.Record, index int) (string, core.ResourceData) {
	data := baseline(rec)

	if rec.Process.RecordType == core.RecordCollection {
		return core.ResourceItemSets, data
	}

	if name := rec.Specific.ItemType; name != "" {
		class, ok := extract.ItemTypeClasses[name]
		if !ok {
			run.Warn("item type has no resource class", "index", index, "item_type", name)
		} else if id := im.Terms.ResourceClassID(class); id == 0 {
			run.Warn("resource class is not managed", "index", index, "class", class)
		} else {
			data.ClassID = id
			data.Class = class
		}
	}

	if name := rec.Specific.Collection; name != "" {
		if ref := im.findCollection(ctx, name); ref != nil {
			data.ItemSets = []core.ResourceID{ref.ID}
		} else {
			run.Warn("collection not found", "index", index, "collection", name)
		}
	}
	return core.ResourceItems, data
}

func (im *Importer) findCollection(ctx context.Context, name string) *core.ResourceRef {
	for _, term := range collectionTerms {
		ref, err := im.Store.Find(ctx, core.Criteria{Type: core.ResourceItemSets, Property: term, Value: name})
		if err == nil && ref != nil {
			return ref
		}
	}
	return nil
}

// baseline forces visibility and clears template and thumbnail.
func baseline(rec *core.Record) core.ResourceData {
	return core.ResourceData{
		Public:    true,
		Values:    rec.Metadata.Clone(),
		XML:       rec.Process.XML,
		FormatXML: rec.Process.FormatXML,
	}
}

func mediaPayload(f *core.Record) core.ResourceData {
	data := baseline(f)
	data.Source = f.Process.FullPath
	data.Ingester = core.IngestSideload
	if f.Specific.External {
		data.Ingester = core.IngestURL
	}
	data.Checksum = f.Specific.Authentication
	return data
}
