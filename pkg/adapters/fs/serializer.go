package fs

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/eadimport/pkg/core"
)

// Serializer reads and writes one resource file format.
type Serializer interface {
	Ext() string
	Serialize(res core.Resource) ([]byte, error)
	Parse(data []byte) (core.Resource, error)
}

// DefaultSerializers returns the formats a vault can store, by extension.
func DefaultSerializers() map[string]Serializer {
	return map[string]Serializer{
		".json": JSONSerializer{},
		".yaml": YAMLSerializer{},
		".yml":  YAMLSerializer{},
	}
}

// JSONSerializer writes indented JSON.
type JSONSerializer struct{}

func (JSONSerializer) Ext() string { return ".json" }

func (JSONSerializer) Serialize(res core.Resource) ([]byte, error) {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func (JSONSerializer) Parse(data []byte) (core.Resource, error) {
	var res core.Resource
	if err := json.Unmarshal(data, &res); err != nil {
		return res, fmt.Errorf("invalid json: %w", err)
	}
	if res.Data.Values == nil {
		res.Data.Values = core.NewMetadata()
	}
	return res, nil
}

// YAMLSerializer writes YAML with two space indentation.
type YAMLSerializer struct{}

func (YAMLSerializer) Ext() string { return ".yaml" }

func (YAMLSerializer) Serialize(res core.Resource) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(res); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (YAMLSerializer) Parse(data []byte) (core.Resource, error) {
	var res core.Resource
	if err := yaml.Unmarshal(data, &res); err != nil {
		return res, fmt.Errorf("invalid yaml: %w", err)
	}
	if res.Data.Values == nil {
		res.Data.Values = core.NewMetadata()
	}
	return res, nil
}
