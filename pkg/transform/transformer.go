// Package transform turns an EAD document into the intermediate documents
// read by the record extractor, and slices it into parts.
//
// Two engines implement Transformer: Native runs the built-in stylesheets in
// process, Exec delegates to an external XSLT processor.
package transform

import (
	"context"
	"fmt"
	"os"
	"strconv"
)

// Built-in stylesheets.
const (
	StylesheetDocuments = "builtin:ead2documents"
	StylesheetParts     = "builtin:ead-parts"
)

// Parameters understood by the built-in stylesheets.
const (
	ParamConfiguration  = "configuration"
	ParamDigitalObjects = "set_digital_objects"
	ParamMaxDepth       = "max_depth"
)

// Values of ParamDigitalObjects.
const (
	DigitalObjectsSeparated  = "separated"
	DigitalObjectsIntegrated = "integrated"
)

// Namespaces of the intermediate documents.
const (
	NamespaceDocuments = "http://localhost/documents/"
	NamespaceDC        = "http://purl.org/dc/elements/1.1/"
	NamespaceDCTerms   = "http://purl.org/dc/terms/"
)

// Transformer applies a stylesheet to an input file and writes the result to
// output. An empty output asks the engine for a scratch file. The returned
// path is the file written.
type Transformer interface {
	Apply(ctx context.Context, input, stylesheet, output string, params map[string]string) (string, error)
}

func outputFile(output, tempDir string) (string, error) {
	if output != "" {
		return output, nil
	}
	f, err := os.CreateTemp(tempDir, "ead-*.xml")
	if err != nil {
		return "", fmt.Errorf("failed to create output file: %w", err)
	}
	name := f.Name()
	if err := f.Close(); err != nil {
		return "", err
	}
	return name, nil
}

func intParam(params map[string]string, key string) int {
	n, err := strconv.Atoi(params[key])
	if err != nil {
		return 0
	}
	return n
}
