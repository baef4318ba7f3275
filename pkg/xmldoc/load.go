// Package xmldoc loads and inspects the XML documents handled by the import
// pipeline.
package xmldoc

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/text/encoding/ianaindex"

	"github.com/aretw0/eadimport/pkg/core"
)

const (
	// EADRoot is the local name of the root element of an EAD document.
	EADRoot = "ead"
	// EADNamespace is the namespace of the EAD documents accepted as input.
	EADNamespace = "http://www.loc.gov/ead"
	// DefaultMaxDepth bounds element nesting when no limit is configured.
	DefaultMaxDepth = 256
)

// CharsetReader decodes documents declaring a non UTF-8 encoding.
func CharsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := ianaindex.IANA.Encoding(strings.TrimSpace(label))
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", label, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("unsupported charset %q", label)
	}
	return enc.NewDecoder().Reader(input), nil
}

// LoadOptions bound the parsing of an input document.
type LoadOptions struct {
	MaxDepth int
}

// LoadFile reads and parses a file. See Load.
func LoadFile(path string, opts LoadOptions) (*etree.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return Load(data, opts)
}

// Load parses data after checking it is non-empty, well-formed and nested no
// deeper than opts.MaxDepth.
func Load(data []byte, opts LoadOptions) (*etree.Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, core.ErrEmptyInput
	}
	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	if err := checkDepth(bytes.NewReader(data), maxDepth); err != nil {
		return nil, err
	}

	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = CharsetReader
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidXML, err)
	}
	if doc.Root() == nil {
		return nil, fmt.Errorf("%w: no root element", core.ErrInvalidXML)
	}
	return doc, nil
}

// checkDepth streams the document once, rejecting malformed input and
// excessive nesting before a tree is built.
func checkDepth(r io.Reader, maxDepth int) error {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = CharsetReader
	depth := 0
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("%w: %v", core.ErrInvalidXML, err)
		}
		switch tok.(type) {
		case xml.StartElement:
			depth++
			if depth > maxDepth {
				return fmt.Errorf("%w: depth %d > %d", core.ErrTooDeep, depth, maxDepth)
			}
		case xml.EndElement:
			depth--
		}
	}
	return nil
}

// CheckEAD verifies the root element and namespace of an EAD document.
func CheckEAD(doc *etree.Document) error {
	root := doc.Root()
	if root == nil {
		return fmt.Errorf("%w: no root element", core.ErrNotEAD)
	}
	if root.Tag != EADRoot {
		return fmt.Errorf("%w: root element is %q", core.ErrNotEAD, root.Tag)
	}
	if ns := root.NamespaceURI(); ns != EADNamespace {
		return fmt.Errorf("%w: namespace is %q, expected %q", core.ErrNotEAD, ns, EADNamespace)
	}
	return nil
}
