// Package extract reads the intermediate documents produced by the
// normalizer and turns each record element into a normalized core.Record.
package extract

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/beevik/etree"

	"github.com/aretw0/eadimport/pkg/core"
	"github.com/aretw0/eadimport/pkg/paths"
	"github.com/aretw0/eadimport/pkg/transform"
	"github.com/aretw0/eadimport/pkg/xmldoc"
)

// FormatDocuments marks xml copied from the intermediate documents.
const FormatDocuments = "doc"

// Extractor builds records from intermediate documents.
type Extractor struct {
	Terms core.TermResolver
	Paths *paths.Resolver
}

// New returns an extractor resolving terms with terms and file paths with p.
func New(terms core.TermResolver, p *paths.Resolver) *Extractor {
	if p == nil {
		p = &paths.Resolver{}
	}
	return &Extractor{Terms: terms, Paths: p}
}

// Extract reads the intermediate documents at path.
func (x *Extractor) Extract(run *core.Run, path string) ([]*core.Record, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = xmldoc.CharsetReader
	if err := doc.ReadFromFile(path); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidXML, err)
	}
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return x.ExtractDocument(run, doc, base)
}

// ExtractDocument reads every top-level record of doc. Records whose blocks
// are all empty are dropped. nameBase prefixes the default record names.
func (x *Extractor) ExtractDocument(run *core.Run, doc *etree.Document, nameBase string) ([]*core.Record, error) {
	root := doc.Root()
	if root == nil {
		return nil, nil
	}

	var records []*core.Record
	for i, el := range root.SelectElements("record") {
		rec, fields := x.read(run, el)
		for _, fileEl := range el.SelectElements("record") {
			file, fileFields := x.read(run, fileEl)
			if pathOf(fileFields) == "" {
				run.Logger.Debug("file record without path skipped", "record", i+1)
				continue
			}
			if err := x.normalize(file, fileFields, core.RecordFile); err != nil {
				return nil, fmt.Errorf("record %d, file: %w", i+1, err)
			}
			rec.AddFile(file)
		}

		if err := x.normalize(rec, fields, ""); err != nil {
			return nil, fmt.Errorf("record %d: %w", i+1, err)
		}
		if rec.IsEmpty() {
			run.Logger.Debug("empty record dropped", "record", i+1)
			continue
		}
		if rec.Process.Name == "" {
			rec.Process.Name = fmt.Sprintf("%s-%d", nameBase, i+1)
		}
		if err := x.validate(rec); err != nil {
			return nil, fmt.Errorf("record %q: %w", rec.Process.Name, err)
		}
		records = append(records, rec)
	}

	run.Count(func(s *core.RunStats) { s.Records += len(records) })
	return records, nil
}

// read gathers the metadata and raw extra fields of a record element. Nested
// records are left to the caller.
func (x *Extractor) read(run *core.Run, el *etree.Element) (*core.Record, []core.Field) {
	rec := core.NewRecord()
	rec.Process.XML = xmldoc.OuterXML(el)
	rec.Process.FormatXML = FormatDocuments

	var fields []core.Field
	index := make(map[string]int)
	addField := func(name, value string) {
		if i, ok := index[name]; ok {
			fields[i].Values = append(fields[i].Values, value)
			return
		}
		index[name] = len(fields)
		fields = append(fields, core.Field{Kind: core.KindOf(FoldName(name)), Name: name, Values: []string{value}})
	}

	for _, child := range el.ChildElements() {
		switch {
		case isDublinCore(child):
			term := "dcterms:" + child.Tag
			if v := xmldoc.Content(child); v != "" {
				rec.Metadata.Add(term, core.Literal(term, x.Terms.PropertyID(term), v))
			}
		case child.Tag == "elementSet":
			x.readElementSet(run, rec, child)
		}
	}

	for _, a := range el.Attr {
		if a.Space == "xmlns" || (a.Space == "" && a.Key == "xmlns") {
			continue
		}
		addField(a.Key, a.Value)
	}
	for _, extra := range el.SelectElements("extra") {
		for _, data := range extra.SelectElements("data") {
			name := data.SelectAttrValue("name", "")
			if name == "" {
				continue
			}
			addField(name, xmldoc.Content(data))
		}
	}
	return rec, fields
}

func (x *Extractor) readElementSet(run *core.Run, rec *core.Record, set *etree.Element) {
	setName := strings.TrimSpace(set.SelectAttrValue("name", ""))
	for _, element := range set.SelectElements("element") {
		elementName := strings.TrimSpace(element.SelectAttrValue("name", ""))
		key := setName + ":" + elementName
		term, ok := elementTerms[key]
		if !ok {
			run.Warn("element has no equivalent term", "element", key)
			continue
		}
		id := x.Terms.PropertyID(term)
		if id == 0 {
			run.Warn("term is not managed", "element", key, "term", term)
			continue
		}
		for _, data := range element.SelectElements("data") {
			if v := xmldoc.Content(data); v != "" {
				rec.Metadata.Add(term, core.Literal(term, id, v))
			}
		}
	}
}

func isDublinCore(el *etree.Element) bool {
	switch el.NamespaceURI() {
	case transform.NamespaceDC, transform.NamespaceDCTerms:
		return true
	}
	return el.Space == "dc" || el.Space == "dcterms"
}

func pathOf(fields []core.Field) string {
	var p string
	for _, f := range fields {
		if f.Kind == core.FieldPath {
			p = f.Last()
		}
	}
	return strings.TrimSpace(p)
}
