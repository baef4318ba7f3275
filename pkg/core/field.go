package core

import (
	"bytes"
	"encoding/json"
	"strings"
)

// FieldKind enumerates the extra fields the extractor recognizes. Anything
// else is FieldOpaque and kept as residual extra data.
type FieldKind int

const (
	FieldOpaque FieldKind = iota
	FieldRecordType
	FieldAction
	FieldName
	FieldIdentifierField
	FieldInternalID
	FieldItem
	FieldPath
	FieldOriginalFilename
	FieldFilename
	FieldChecksum
	FieldAuthentication
	FieldCollection
	FieldItemType
	FieldTags
	FieldFeatured
	FieldPublic
)

var fieldKinds = map[string]FieldKind{
	"record type":       FieldRecordType,
	"action":            FieldAction,
	"name":              FieldName,
	"identifier field":  FieldIdentifierField,
	"internal id":       FieldInternalID,
	"item":              FieldItem,
	"file":              FieldPath,
	"path":              FieldPath,
	"original filename": FieldOriginalFilename,
	"filename":          FieldFilename,
	"md5":               FieldChecksum,
	"authentication":    FieldAuthentication,
	"collection":        FieldCollection,
	"item type":         FieldItemType,
	"tag":               FieldTags,
	"tags":              FieldTags,
	"featured":          FieldFeatured,
	"public":            FieldPublic,
}

// KindOf returns the kind of a folded field name.
func KindOf(folded string) FieldKind {
	return fieldKinds[folded]
}

// Multi reports whether values of this kind accumulate instead of the last
// one winning.
func (k FieldKind) Multi() bool {
	return k == FieldTags
}

// Field is one raw extra field gathered from the intermediate document.
type Field struct {
	Kind   FieldKind
	Name   string
	Values []string
}

// Last returns the last value of the field, or "".
func (f Field) Last() string {
	if len(f.Values) == 0 {
		return ""
	}
	return f.Values[len(f.Values)-1]
}

// ExtraEntry is one residual extra field. Value is a string, a []string or a
// map[string]any built from bracket notation.
type ExtraEntry struct {
	Name  string
	Value any
}

// Extra is the ordered set of residual extra fields of a record.
type Extra struct {
	entries []ExtraEntry
}

// NewExtra returns an empty set.
func NewExtra() *Extra {
	return &Extra{}
}

// Set stores a value, replacing any previous value under the same name.
func (e *Extra) Set(name string, v any) {
	for i := range e.entries {
		if e.entries[i].Name == name {
			e.entries[i].Value = v
			return
		}
	}
	e.entries = append(e.entries, ExtraEntry{Name: name, Value: v})
}

// Get returns the value stored under name.
func (e *Extra) Get(name string) (any, bool) {
	if e == nil {
		return nil, false
	}
	for _, entry := range e.entries {
		if entry.Name == name {
			return entry.Value, true
		}
	}
	return nil, false
}

// Lookup finds a value by case-insensitive name and returns its first
// string.
func (e *Extra) Lookup(name string) string {
	if e == nil {
		return ""
	}
	for _, entry := range e.entries {
		if !strings.EqualFold(entry.Name, name) {
			continue
		}
		switch v := entry.Value.(type) {
		case string:
			return v
		case []string:
			if len(v) > 0 {
				return v[0]
			}
		}
	}
	return ""
}

// Delete removes a value.
func (e *Extra) Delete(name string) {
	for i := range e.entries {
		if e.entries[i].Name == name {
			e.entries = append(e.entries[:i], e.entries[i+1:]...)
			return
		}
	}
}

// Entries returns the entries in order.
func (e *Extra) Entries() []ExtraEntry {
	if e == nil {
		return nil
	}
	out := make([]ExtraEntry, len(e.entries))
	copy(out, e.entries)
	return out
}

// Len returns the number of entries.
func (e *Extra) Len() int {
	if e == nil {
		return 0
	}
	return len(e.entries)
}

// MarshalJSON writes entries in order.
func (e *Extra) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, entry := range e.Entries() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(entry.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(entry.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
