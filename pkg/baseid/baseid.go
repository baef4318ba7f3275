// Package baseid decides the prefix of every internal id derived from an EAD
// document.
package baseid

import (
	"bufio"
	"fmt"
	"path"
	"strings"

	"github.com/beevik/etree"

	"github.com/aretw0/eadimport/pkg/xmldoc"
)

// Strategy names a way to compute the base id.
type Strategy string

const (
	DocumentURI Strategy = "documentUri"
	Basename    Strategy = "basename"
	Filename    Strategy = "filename"
	EADID       Strategy = "eadid"
	PublicID    Strategy = "publicid"
	Identifier  Strategy = "identifier"
	URL         Strategy = "url"
	Custom      Strategy = "custom"
)

// Strategies lists the known strategies.
var Strategies = []Strategy{DocumentURI, Basename, Filename, EADID, PublicID, Identifier, URL, Custom}

const eadidPath = "/ead/eadheader/eadid"

var sourcePaths = map[Strategy]string{
	EADID:      eadidPath,
	PublicID:   eadidPath + "/@publicid",
	Identifier: eadidPath + "/@identifier",
	URL:        eadidPath + "/@url",
}

// Directive tells the normalizer where to read the base id from, and which
// value to use when that source is empty.
type Directive struct {
	From    string
	Default string
}

// Input gathers what the resolver needs.
type Input struct {
	Strategy Strategy
	// Custom is the raw "key = value" table used by the custom strategy.
	Custom string
	// DocumentURI is the uploaded file name or the remote URI of the document.
	DocumentURI string
	// Document is consulted by the custom strategy.
	Document *etree.Document
}

// Resolve returns the directive for in. An unknown strategy falls back to
// DocumentURI.
func Resolve(in Input) (Directive, error) {
	uri := in.DocumentURI
	switch in.Strategy {
	case "", DocumentURI:
		return Directive{Default: uri}, nil
	case Basename:
		return Directive{Default: basename(uri)}, nil
	case Filename:
		b := basename(uri)
		return Directive{Default: strings.TrimSuffix(b, path.Ext(b))}, nil
	case EADID, PublicID, Identifier, URL:
		return Directive{From: sourcePaths[in.Strategy], Default: uri}, nil
	case Custom:
		table, err := ParseTable(in.Custom)
		if err != nil {
			return Directive{}, err
		}
		return Directive{Default: matchCustom(table, in.Document, uri)}, nil
	default:
		return Directive{Default: uri}, nil
	}
}

// Evaluate applies a directive to a document.
func (d Directive) Evaluate(doc *etree.Document) string {
	if d.From != "" && doc != nil && doc.Root() != nil {
		if v, ok := xmldoc.Select(doc.Root(), d.From); ok && v != "" {
			return v
		}
	}
	return d.Default
}

// Entry is one row of a custom table.
type Entry struct {
	Key   string
	Value string
}

// ParseTable reads newline separated "key = value" lines. Blank lines and
// lines starting with '#' are skipped.
func ParseTable(raw string) ([]Entry, error) {
	var out []Entry
	sc := bufio.NewScanner(strings.NewReader(raw))
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("invalid custom base id line %d: %q", n, line)
		}
		out = append(out, Entry{Key: strings.TrimSpace(key), Value: strings.TrimSpace(value)})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read custom base ids: %w", err)
	}
	return out, nil
}

// matchCustom returns the value of the first table entry whose key equals an
// attribute value of the eadid element.
func matchCustom(table []Entry, doc *etree.Document, fallback string) string {
	if doc == nil || doc.Root() == nil {
		return fallback
	}
	eadid := xmldoc.FindOne(doc.Root(), "eadheader/eadid")
	if eadid == nil {
		return fallback
	}
	values := make(map[string]bool, len(eadid.Attr))
	for _, a := range eadid.Attr {
		if a.Space == "xmlns" || (a.Space == "" && a.Key == "xmlns") {
			continue
		}
		values[strings.TrimSpace(a.Value)] = true
	}
	for _, e := range table {
		if values[e.Key] {
			return e.Value
		}
	}
	return fallback
}

func basename(uri string) string {
	uri = strings.TrimRight(uri, "/")
	if i := strings.IndexAny(uri, "?#"); i >= 0 {
		uri = uri[:i]
	}
	return path.Base(strings.ReplaceAll(uri, "\\", "/"))
}
