// Package parts puts the original EAD markup of each unit back on the record
// derived from it.
package parts

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"

	"github.com/aretw0/eadimport/pkg/core"
	"github.com/aretw0/eadimport/pkg/xmldoc"
)

// FormatEAD marks xml holding the original EAD markup.
const FormatEAD = "ead"

// rootSegment starts the structural path inside a record name.
const rootSegment = "/ead/eadheader"

// Part is one slice of the source document.
type Part struct {
	XPath  string
	Markup string
}

// Parts is a parts document in document order.
type Parts []Part

// Load reads a parts document.
func Load(path string) (Parts, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = xmldoc.CharsetReader
	if err := doc.ReadFromFile(path); err != nil {
		return nil, fmt.Errorf("failed to read parts %s: %w", path, err)
	}
	root := doc.Root()
	if root == nil {
		return nil, nil
	}
	var out Parts
	for _, el := range root.SelectElements("part") {
		out = append(out, Part{
			XPath:  el.SelectAttrValue("xpath", ""),
			Markup: strings.TrimSpace(xmldoc.InnerXML(el)),
		})
	}
	return out, nil
}

// Lookup scans the parts in order and returns the markup of the first part
// whose path equals xpath.
func (p Parts) Lookup(xpath string) (string, bool) {
	for _, part := range p {
		if part.XPath == xpath {
			return part.Markup, true
		}
	}
	return "", false
}

// Attach sets the xml of every record and file to the markup of its part.
// The part path is the record's declared xpath, or else the tail of its name
// from the document root segment on, located in the first record's name.
// Records without a part keep an empty xml.
func Attach(run *core.Run, records []*core.Record, p Parts) {
	if len(records) == 0 {
		return
	}
	pos := strings.Index(records[0].Process.Name, rootSegment)

	for i, rec := range records {
		key := xpathOf(rec)
		if key == "" && pos >= 0 && len(rec.Process.Name) > pos {
			key = rec.Process.Name[pos:]
		}
		if !set(rec, p, key) && key != "" {
			run.Warn("no part for record", "index", i+1, "record", rec.Process.Name, "xpath", key)
		}
		for _, f := range rec.Files {
			// Integrated digital objects have no part of their own.
			if !set(f, p, xpathOf(f)) {
				run.Logger.Debug("no part for file", "index", i+1, "path", f.Specific.Path)
			}
		}
	}
}

func set(rec *core.Record, p Parts, key string) bool {
	rec.Process.XML = ""
	rec.Process.FormatXML = ""
	if key == "" {
		return false
	}
	markup, ok := p.Lookup(key)
	if !ok || markup == "" {
		return false
	}
	rec.Process.XML = markup
	rec.Process.FormatXML = FormatEAD
	return true
}

func xpathOf(rec *core.Record) string {
	return rec.Extra.Lookup("xpath")
}
