// Package core holds the records produced by an EAD import run and the ports
// the pipeline talks to.
package core

import (
	"fmt"
	"strings"
)

// RecordType is the kind of resource a record becomes once imported.
type RecordType string

const (
	RecordItem       RecordType = "Item"
	RecordFile       RecordType = "File"
	RecordCollection RecordType = "Collection"
)

// RecordTypes lists the accepted record types.
var RecordTypes = []RecordType{RecordFile, RecordItem, RecordCollection}

// Action is the import action requested for a record.
type Action string

const (
	ActionUpdateElseCreate Action = "update else create"
	ActionCreate           Action = "create"
	ActionUpdate           Action = "update"
	ActionAdd              Action = "add"
	ActionReplace          Action = "replace"
	ActionDelete           Action = "delete"
	ActionSkip             Action = "skip"
)

// Actions lists the accepted actions.
var Actions = []Action{
	ActionUpdateElseCreate, ActionCreate, ActionUpdate, ActionAdd,
	ActionReplace, ActionDelete, ActionSkip,
}

// Value types of a metadata value.
const (
	ValueLiteral  = "literal"
	ValueResource = "resource"
)

// Value is one metadata value attached to a term.
type Value struct {
	Property   string     `json:"property" yaml:"property"`
	PropertyID int        `json:"property_id" yaml:"property_id"`
	Type       string     `json:"type" yaml:"type"`
	Language   string     `json:"@language,omitempty" yaml:"language,omitempty"`
	Value      string     `json:"@value,omitempty" yaml:"value,omitempty"`
	ResourceID ResourceID `json:"value_resource_id,omitempty" yaml:"value_resource_id,omitempty"`
	Public     bool       `json:"is_public" yaml:"is_public"`
}

// Literal builds a public literal value.
func Literal(term string, propertyID int, v string) Value {
	return Value{Property: term, PropertyID: propertyID, Type: ValueLiteral, Value: v, Public: true}
}

// Process holds the control fields of a record.
type Process struct {
	RecordType      RecordType `json:"record_type,omitempty"`
	Action          Action     `json:"action,omitempty"`
	Name            string     `json:"name,omitempty"`
	IdentifierField string     `json:"identifier_field,omitempty"`
	InternalID      string     `json:"internal_id,omitempty"`
	FullPath        string     `json:"fullpath,omitempty"`
	XML             string     `json:"xml,omitempty"`
	FormatXML       string     `json:"format_xml,omitempty"`
	ResourceID      ResourceID `json:"resource_id,omitempty"`
}

// Specific holds the type-specific fields of a record.
type Specific struct {
	// File records.
	Path             string `json:"path,omitempty"`
	OriginalFilename string `json:"original_filename,omitempty"`
	Filename         string `json:"filename,omitempty"`
	Authentication   string `json:"authentication,omitempty"`
	External         bool   `json:"external,omitempty"`

	// Item records.
	Collection string   `json:"collection,omitempty"`
	ItemType   string   `json:"item_type_name,omitempty"`
	Tags       []string `json:"tags,omitempty"`

	// Item and Collection records.
	Public   *bool `json:"public,omitempty"`
	Featured *bool `json:"featured,omitempty"`
}

// IsEmpty reports whether no specific field is set.
func (s Specific) IsEmpty() bool {
	return s.Path == "" && s.OriginalFilename == "" && s.Filename == "" &&
		s.Authentication == "" && s.Collection == "" && s.ItemType == "" &&
		len(s.Tags) == 0 && s.Public == nil && s.Featured == nil
}

// Record is one resource derived from the source document.
type Record struct {
	Process  Process   `json:"process"`
	Specific Specific  `json:"specific"`
	Metadata *Metadata `json:"metadata"`
	Extra    *Extra    `json:"extra"`
	Files    []*Record `json:"files,omitempty"`
}

// NewRecord returns a record with empty blocks.
func NewRecord() *Record {
	return &Record{Metadata: NewMetadata(), Extra: NewExtra()}
}

// IsEmpty reports whether all four content blocks are empty.
func (r *Record) IsEmpty() bool {
	return r.Specific.IsEmpty() && r.Metadata.Len() == 0 && r.Extra.Len() == 0 && len(r.Files) == 0
}

// AddFile adds a nested file record keyed by its path. A later file with the
// same path replaces the earlier one in place.
func (r *Record) AddFile(f *Record) {
	for i, existing := range r.Files {
		if existing.Specific.Path == f.Specific.Path {
			r.Files[i] = f
			return
		}
	}
	r.Files = append(r.Files, f)
}

func (r *Record) String() string {
	name := r.Process.Name
	if name == "" {
		name = r.Process.InternalID
	}
	return fmt.Sprintf("%s %q", strings.ToLower(string(r.Process.RecordType)), name)
}

// ResourceID identifies a stored resource.
type ResourceID int64

// Resource types understood by the stores.
const (
	ResourceItems    = "items"
	ResourceMedia    = "media"
	ResourceItemSets = "item_sets"
)

// ResourceRef points at a stored resource.
type ResourceRef struct {
	Type string     `json:"type"`
	ID   ResourceID `json:"id"`
}

func (r ResourceRef) String() string {
	return fmt.Sprintf("%s/%d", r.Type, r.ID)
}

// ResourceData is the payload of a create or update call.
type ResourceData struct {
	ClassID     int          `json:"resource_class,omitempty" yaml:"resource_class,omitempty"`
	Class       string       `json:"resource_class_term,omitempty" yaml:"resource_class_term,omitempty"`
	TemplateID  *int         `json:"resource_template" yaml:"resource_template"`
	ThumbnailID *int         `json:"thumbnail" yaml:"thumbnail"`
	Public      bool         `json:"is_public" yaml:"is_public"`
	ItemSets    []ResourceID `json:"item_set,omitempty" yaml:"item_set,omitempty"`
	Values      *Metadata    `json:"values,omitempty" yaml:"values,omitempty"`
	XML         string       `json:"xml,omitempty" yaml:"xml,omitempty"`
	FormatXML   string       `json:"format_xml,omitempty" yaml:"format_xml,omitempty"`

	// Media payloads.
	Ingester string `json:"ingester,omitempty" yaml:"ingester,omitempty"`
	Source   string `json:"source,omitempty" yaml:"source,omitempty"`
	Checksum string `json:"checksum,omitempty" yaml:"checksum,omitempty"`
	// Storage is where a store keeps its copy of the media file.
	Storage string `json:"storage,omitempty" yaml:"storage,omitempty"`
}

// Media ingesters.
const (
	IngestSideload = "sideload"
	IngestURL      = "url"
)

// Resource is a stored resource as returned by a ResourceReader.
type Resource struct {
	Ref   ResourceRef   `json:"ref" yaml:"ref"`
	Data  ResourceData  `json:"data" yaml:"data"`
	Media []ResourceRef `json:"media,omitempty" yaml:"media,omitempty"`
	Owner *ResourceRef  `json:"item,omitempty" yaml:"item,omitempty"`
}

// Title returns the first dcterms:title value, if any.
func (r Resource) Title() string {
	if r.Data.Values == nil {
		return ""
	}
	for _, v := range r.Data.Values.Get("dcterms:title") {
		if v.Value != "" {
			return v.Value
		}
	}
	return ""
}

// Clone returns a copy that shares no mutable state with d.
func (d ResourceData) Clone() ResourceData {
	out := d
	if d.Values != nil {
		out.Values = d.Values.Clone()
	}
	if d.ItemSets != nil {
		out.ItemSets = append([]ResourceID(nil), d.ItemSets...)
	}
	if d.TemplateID != nil {
		v := *d.TemplateID
		out.TemplateID = &v
	}
	if d.ThumbnailID != nil {
		v := *d.ThumbnailID
		out.ThumbnailID = &v
	}
	return out
}

// Matches reports whether the payload holds a literal value equal to value
// for term.
func (d ResourceData) Matches(term, value string) bool {
	for _, v := range d.Values.Get(term) {
		if v.Type == ValueLiteral && v.Value == value {
			return true
		}
	}
	return false
}
