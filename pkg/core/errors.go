package core

import "errors"

// Errors that abort an import run.
var (
	ErrEmptyInput      = errors.New("input document is empty")
	ErrInvalidXML      = errors.New("input is not well-formed xml")
	ErrNotEAD          = errors.New("input is not an ead document")
	ErrTooDeep         = errors.New("xml nesting exceeds the maximum depth")
	ErrScratchConfig   = errors.New("scratch configuration cannot be prepared")
	ErrEmptyTransform  = errors.New("transformation produced no output")
	ErrRecordType      = errors.New("record type is not managed")
	ErrAction          = errors.New("action is not managed")
	ErrIdentifierField = errors.New("identifier field is not allowed")
	ErrUnsafePath      = errors.New("file path is not allowed")
)

// Errors returned by resource stores.
var (
	ErrNotFound = errors.New("resource not found")
	ErrReadOnly = errors.New("store is in read-only mode")
)
