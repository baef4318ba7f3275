// Package vocab resolves vocabulary terms such as "dcterms:title" to the
// numeric ids a resource store uses.
package vocab

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/eadimport/pkg/core"
)

//go:embed vocabularies.yaml
var defaultVocabularies []byte

// Vocabulary is one prefixed set of terms.
type Vocabulary struct {
	Prefix     string   `yaml:"prefix"`
	Namespace  string   `yaml:"namespace"`
	Label      string   `yaml:"label"`
	Properties []string `yaml:"properties"`
	Classes    []string `yaml:"classes"`
}

type file struct {
	Vocabularies []Vocabulary `yaml:"vocabularies"`
}

// Resolver implements core.TermResolver over loaded vocabularies.
type Resolver struct {
	mu         sync.RWMutex
	prefixes   []string
	properties map[string]int
	classes    map[string]int
}

var _ core.TermResolver = (*Resolver)(nil)

// New returns an empty resolver.
func New() *Resolver {
	return &Resolver{
		properties: make(map[string]int),
		classes:    make(map[string]int),
	}
}

// Default returns a resolver loaded with the embedded Dublin Core and EAD
// vocabularies.
func Default() *Resolver {
	r := New()
	if err := r.Parse(defaultVocabularies); err != nil {
		panic(fmt.Sprintf("vocab: embedded vocabularies are invalid: %v", err))
	}
	return r
}

// LoadFile adds the vocabularies of a YAML file.
func (r *Resolver) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read vocabularies: %w", err)
	}
	return r.Parse(data)
}

// Load adds the vocabularies read from rd.
func (r *Resolver) Load(rd io.Reader) error {
	data, err := io.ReadAll(rd)
	if err != nil {
		return fmt.Errorf("failed to read vocabularies: %w", err)
	}
	return r.Parse(data)
}

// Parse adds the vocabularies of a YAML document. Terms already known keep
// their id.
func (r *Resolver) Parse(data []byte) error {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("invalid vocabularies: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, v := range f.Vocabularies {
		if v.Prefix == "" {
			return fmt.Errorf("invalid vocabularies: vocabulary %q has no prefix", v.Label)
		}
		r.prefixes = append(r.prefixes, v.Prefix)
		for _, p := range v.Properties {
			term := v.Prefix + ":" + p
			if _, ok := r.properties[term]; !ok {
				r.properties[term] = len(r.properties) + 1
			}
		}
		for _, c := range v.Classes {
			term := v.Prefix + ":" + c
			if _, ok := r.classes[term]; !ok {
				r.classes[term] = len(r.classes) + 1
			}
		}
	}
	return nil
}

// PropertyID implements core.TermResolver.
func (r *Resolver) PropertyID(term string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.properties[term]
}

// ResourceClassID implements core.TermResolver.
func (r *Resolver) ResourceClassID(class string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.classes[class]
}

// Prefixes returns the loaded vocabulary prefixes.
func (r *Resolver) Prefixes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.prefixes))
	copy(out, r.prefixes)
	return out
}
