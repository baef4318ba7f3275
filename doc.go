// Package eadimport is the composition root of the EAD import pipeline.
//
// It wires the pipeline (pkg/pipeline) to a resource store (a filesystem
// vault by default, see pkg/adapters/fs) and to the vocabularies that give
// terms their ids.
//
// An import decomposes one EAD document into flat resources:
//
//   - the document is checked and normalized into intermediate records, one
//     per archival unit, whose ids derive from a base id and the unit path
//   - the records are extracted and normalized, and get back the original
//     markup of their unit
//   - one resource is created per record, digital objects travel as media
//   - a second pass rewrites dcterms:isPartOf and dcterms:hasPart values
//     into links between the created resources
//
// Usage:
//
//	p, err := eadimport.New("./vault",
//		eadimport.WithAutoInit(true),
//		eadimport.WithLogger(logger),
//	)
//
//	res, err := p.Run(ctx, eadimport.Input{Path: "fonds.xml"})
package eadimport
