package extract

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/aretw0/eadimport/pkg/core"
)

var titleCase = cases.Title(language.Und)

// Values accepted by the identifier field, after folding.
var identifierFields = map[string]string{
	"none":              "",
	"internal id":       "internal id",
	"original filename": "original filename",
	"filename":          "filename",
	"authentication":    "authentication",
	"md5":               "authentication",
}

var fileOnlyIdentifiers = []string{"original filename", "filename", "authentication"}

// normalize applies the recognized fields to rec, decides its record type and
// files the residual fields into Extra. A non empty forced type wins over
// both the declared type and the default rule.
func (x *Extractor) normalize(rec *core.Record, fields []core.Field, forced core.RecordType) error {
	special := make(map[core.FieldKind]core.Field)
	var residual []core.Field
	for _, f := range fields {
		if f.Kind == core.FieldOpaque {
			residual = append(residual, f)
			continue
		}
		// Several names may fold to the same field ("tag" and "tags"). Values
		// accumulate: multi-valued fields keep them all, the others use the
		// last one.
		if prev, ok := special[f.Kind]; ok {
			prev.Values = append(prev.Values, f.Values...)
			special[f.Kind] = prev
			continue
		}
		special[f.Kind] = f
	}
	last := func(k core.FieldKind) string {
		return strings.TrimSpace(special[k].Last())
	}

	// Record type.
	rt := forced
	if v := last(core.FieldRecordType); v != "" && forced == "" {
		rt = core.RecordType(titleCase.String(strings.ToLower(v)))
	}
	if rt == "" {
		rt = core.RecordItem
		if last(core.FieldPath) != "" && len(rec.Files) == 0 {
			rt = core.RecordFile
		}
	}
	if !lo.Contains(core.RecordTypes, rt) {
		return fmt.Errorf("%w: %q", core.ErrRecordType, rt)
	}
	rec.Process.RecordType = rt

	// Action.
	if v := last(core.FieldAction); v != "" {
		action := core.Action(strings.ToLower(v))
		if !lo.Contains(core.Actions, action) {
			return fmt.Errorf("%w: %q", core.ErrAction, v)
		}
		rec.Process.Action = action
	}

	rec.Process.Name = last(core.FieldName)
	rec.Process.InternalID = last(core.FieldInternalID)

	// Identifier field.
	if v := last(core.FieldIdentifierField); v != "" {
		folded := FoldName(v)
		id, known := identifierFields[folded]
		switch {
		case known:
			if rt != core.RecordFile && lo.Contains(fileOnlyIdentifiers, id) {
				return fmt.Errorf("%w: %q on a %s record", core.ErrIdentifierField, v, rt)
			}
			rec.Process.IdentifierField = id
		case strings.Contains(v, ":"):
			// A property term such as "dcterms:identifier".
			rec.Process.IdentifierField = v
		default:
			return fmt.Errorf("%w: %q", core.ErrIdentifierField, v)
		}
	}

	// Type specific fields; the others are dropped.
	switch rt {
	case core.RecordFile:
		rec.Specific.Path = last(core.FieldPath)
		rec.Specific.OriginalFilename = last(core.FieldOriginalFilename)
		rec.Specific.Filename = last(core.FieldFilename)
		rec.Specific.Authentication = last(core.FieldAuthentication)
		if md5 := last(core.FieldChecksum); md5 != "" {
			rec.Specific.Authentication = md5
		}
	case core.RecordItem:
		rec.Specific.Collection = last(core.FieldCollection)
		rec.Specific.ItemType = last(core.FieldItemType)
		rec.Specific.Tags = lo.Filter(trimAll(special[core.FieldTags].Values), func(s string, _ int) bool { return s != "" })
		rec.Specific.Public = parseFlag(special, core.FieldPublic)
		rec.Specific.Featured = parseFlag(special, core.FieldFeatured)
	case core.RecordCollection:
		rec.Specific.Public = parseFlag(special, core.FieldPublic)
		rec.Specific.Featured = parseFlag(special, core.FieldFeatured)
	}

	// Residual fields.
	for _, f := range residual {
		v := collapse(f.Values)
		keys, nested := splitBrackets(f.Name)
		if !nested {
			rec.Extra.Set(f.Name, v)
			continue
		}
		top := nest(keys[1:], v)
		if existing, ok := rec.Extra.Get(keys[0]); ok {
			top = mergeValues(existing, top)
		}
		rec.Extra.Set(keys[0], top)
	}

	// Metadata values are trimmed.
	for _, term := range rec.Metadata.Terms() {
		vs := rec.Metadata.Get(term)
		for i := range vs {
			vs[i].Value = strings.TrimSpace(vs[i].Value)
		}
		rec.Metadata.Set(term, vs)
	}
	return nil
}

// validate resolves the file paths of rec and its files.
func (x *Extractor) validate(rec *core.Record) error {
	if rec.Process.RecordType == core.RecordFile {
		if err := x.resolveFile(rec); err != nil {
			return err
		}
	}
	for _, f := range rec.Files {
		if err := x.resolveFile(f); err != nil {
			return err
		}
	}
	return nil
}

func (x *Extractor) resolveFile(rec *core.Record) error {
	resolved, err := x.Paths.Resolve(rec.Specific.Path)
	if err != nil {
		return err
	}
	rec.Process.FullPath = resolved.Path
	rec.Specific.External = resolved.External
	if rec.Process.Name == "" {
		rec.Process.Name = x.Paths.Relative(resolved.Path)
	}
	return nil
}

func parseFlag(special map[core.FieldKind]core.Field, k core.FieldKind) *bool {
	f, ok := special[k]
	if !ok {
		return nil
	}
	var v bool
	switch strings.ToLower(strings.TrimSpace(f.Last())) {
	case "1", "true", "yes", "on":
		v = true
	}
	return &v
}

func trimAll(values []string) []string {
	return lo.Map(values, func(s string, _ int) string { return strings.TrimSpace(s) })
}
