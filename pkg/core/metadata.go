package core

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Metadata maps terms to their values. Terms keep first-insertion order and
// values keep append order.
type Metadata struct {
	terms  []string
	values map[string][]Value
}

// NewMetadata returns empty metadata.
func NewMetadata() *Metadata {
	return &Metadata{values: make(map[string][]Value)}
}

// Add appends a value to a term.
func (m *Metadata) Add(term string, v Value) {
	if m.values == nil {
		m.values = make(map[string][]Value)
	}
	if _, ok := m.values[term]; !ok {
		m.terms = append(m.terms, term)
	}
	m.values[term] = append(m.values[term], v)
}

// Set replaces all values of a term.
func (m *Metadata) Set(term string, vs []Value) {
	if m.values == nil {
		m.values = make(map[string][]Value)
	}
	if _, ok := m.values[term]; !ok {
		m.terms = append(m.terms, term)
	}
	m.values[term] = vs
}

// Get returns the values of a term.
func (m *Metadata) Get(term string) []Value {
	if m == nil {
		return nil
	}
	return m.values[term]
}

// Has reports whether the term carries at least one value.
func (m *Metadata) Has(term string) bool {
	return len(m.Get(term)) > 0
}

// Terms returns terms in insertion order.
func (m *Metadata) Terms() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.terms))
	copy(out, m.terms)
	return out
}

// Len returns the number of terms.
func (m *Metadata) Len() int {
	if m == nil {
		return 0
	}
	return len(m.terms)
}

// Clone returns a deep copy.
func (m *Metadata) Clone() *Metadata {
	out := NewMetadata()
	if m == nil {
		return out
	}
	for _, term := range m.terms {
		vs := make([]Value, len(m.values[term]))
		copy(vs, m.values[term])
		out.Set(term, vs)
	}
	return out
}

// Merge replaces the terms present in other and keeps the rest.
func (m *Metadata) Merge(other *Metadata) {
	for _, term := range other.Terms() {
		vs := make([]Value, len(other.values[term]))
		copy(vs, other.values[term])
		m.Set(term, vs)
	}
}

// MarshalJSON writes terms in insertion order.
func (m *Metadata) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, term := range m.Terms() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(term)
		if err != nil {
			return nil, err
		}
		vals, err := json.Marshal(m.values[term])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(vals)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads terms keeping document order.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	*m = Metadata{values: make(map[string][]Value)}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("metadata: expected object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		term, ok := tok.(string)
		if !ok {
			return fmt.Errorf("metadata: expected term, got %v", tok)
		}
		var vs []Value
		if err := dec.Decode(&vs); err != nil {
			return fmt.Errorf("metadata: term %s: %w", term, err)
		}
		m.Set(term, vs)
	}
	_, err = dec.Token()
	return err
}

// MarshalYAML writes terms in insertion order.
func (m *Metadata) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, term := range m.Terms() {
		var val yaml.Node
		if err := val.Encode(m.values[term]); err != nil {
			return nil, err
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: term}, &val)
	}
	return node, nil
}

// UnmarshalYAML reads terms keeping document order.
func (m *Metadata) UnmarshalYAML(node *yaml.Node) error {
	*m = Metadata{values: make(map[string][]Value)}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("metadata: expected mapping at line %d", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		var vs []Value
		if err := node.Content[i+1].Decode(&vs); err != nil {
			return fmt.Errorf("metadata: term %s: %w", node.Content[i].Value, err)
		}
		m.Set(node.Content[i].Value, vs)
	}
	return nil
}
