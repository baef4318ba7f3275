package transform

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/beevik/etree"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/eadimport/pkg/baseid"
	"github.com/aretw0/eadimport/pkg/core"
)

//go:embed defaults
var defaults embed.FS

// ScratchPrefix prefixes the scratch copies of the configuration.
const ScratchPrefix = "ead2dcterms_"

// Options of the configuration file that hold paths.
var pathOptions = []string{"mappings", "rules"}

// Config is the parsed transform configuration file.
type Config struct {
	BaseID   baseid.Directive
	Mappings string
	Rules    string
}

// LoadConfig reads a configuration file. Relative option paths are resolved
// against the folder of the file.
func LoadConfig(path string) (*Config, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(path); err != nil {
		return nil, fmt.Errorf("failed to read configuration %s: %w", path, err)
	}
	root := doc.SelectElement("config")
	if root == nil {
		return nil, fmt.Errorf("configuration %s has no config element", path)
	}

	cfg := &Config{}
	if b := root.SelectElement("baseid"); b != nil {
		cfg.BaseID = baseid.Directive{
			From:    b.SelectAttrValue("from", ""),
			Default: b.SelectAttrValue("default", ""),
		}
	}
	dir := filepath.Dir(path)
	for _, opt := range root.SelectElements("option") {
		value := opt.SelectAttrValue("value", "")
		if value != "" && !filepath.IsAbs(value) {
			value = filepath.Join(dir, value)
		}
		switch opt.SelectAttrValue("name", "") {
		case "mappings":
			cfg.Mappings = value
		case "rules":
			cfg.Rules = value
		}
	}
	return cfg, nil
}

// PrepareConfig copies the configuration at base into scratchDir, writes the
// base-id directive into it and makes the mapping paths absolute against the
// folder of base. The caller owns the returned file.
func PrepareConfig(base string, d baseid.Directive, scratchDir string) (string, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(base); err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrScratchConfig, err)
	}
	root := doc.SelectElement("config")
	if root == nil {
		return "", fmt.Errorf("%w: %s has no config element", core.ErrScratchConfig, base)
	}

	b := root.SelectElement("baseid")
	if b == nil {
		b = root.CreateElement("baseid")
	}
	b.CreateAttr("from", d.From)
	b.CreateAttr("default", d.Default)

	dir, err := filepath.Abs(filepath.Dir(base))
	if err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrScratchConfig, err)
	}
	for _, opt := range root.SelectElements("option") {
		name := opt.SelectAttrValue("name", "")
		value := opt.SelectAttrValue("value", "")
		if value == "" || filepath.IsAbs(value) || !lo.Contains(pathOptions, name) {
			continue
		}
		opt.CreateAttr("value", filepath.Join(dir, value))
	}

	tmp, err := os.CreateTemp(scratchDir, ScratchPrefix+"*.xml")
	if err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrScratchConfig, err)
	}
	defer tmp.Close()
	if _, err := doc.WriteTo(tmp); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("%w: %v", core.ErrScratchConfig, err)
	}
	return tmp.Name(), nil
}

// WriteDefaults writes the built-in configuration, mappings and rules into
// dir and returns the path of the configuration file.
func WriteDefaults(dir string) (string, error) {
	for _, name := range []string{"config.xml", "mappings.yaml", "rules.yaml"} {
		data, err := defaults.ReadFile("defaults/" + name)
		if err != nil {
			return "", fmt.Errorf("failed to read built-in %s: %w", name, err)
		}
		if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
			return "", fmt.Errorf("failed to write %s: %w", name, err)
		}
	}
	return filepath.Join(dir, "config.xml"), nil
}

// Field maps a path of a unit to a term or an element-set element.
type Field struct {
	Path    string `yaml:"path"`
	Term    string `yaml:"term,omitempty"`
	Element string `yaml:"element,omitempty"`
}

// Mappings holds the field lists, keyed by field list name.
type Mappings map[string][]Field

// Unit describes an element that becomes a record.
type Unit struct {
	Tag      string `yaml:"tag"`
	ItemType string `yaml:"item_type"`
	Fields   string `yaml:"fields"`
	Indexed  bool   `yaml:"indexed"`
}

// DigitalObjects describes file references.
type DigitalObjects struct {
	Tags     []string `yaml:"tags"`
	Href     string   `yaml:"href"`
	ItemType string   `yaml:"item_type"`
	Fields   string   `yaml:"fields"`
}

// Rules drive the decomposition of a document into units.
type Rules struct {
	Root           string         `yaml:"root"`
	Units          []Unit         `yaml:"units"`
	Containers     []string       `yaml:"containers"`
	DigitalObjects DigitalObjects `yaml:"digital_objects"`
}

func (r *Rules) unit(tag string) (Unit, bool) {
	for _, u := range r.Units {
		if u.Tag == tag {
			return u, true
		}
	}
	return Unit{}, false
}

func (r *Rules) isDigitalObject(tag string) bool {
	return lo.Contains(r.DigitalObjects.Tags, tag)
}

// LoadMappings reads a mappings file; an empty path loads the built-in one.
func LoadMappings(path string) (Mappings, error) {
	var m Mappings
	if err := loadYAML(path, "mappings.yaml", &m); err != nil {
		return nil, err
	}
	return m, nil
}

// LoadRules reads a rules file; an empty path loads the built-in one.
func LoadRules(path string) (*Rules, error) {
	var r Rules
	if err := loadYAML(path, "rules.yaml", &r); err != nil {
		return nil, err
	}
	if len(r.Units) == 0 {
		return nil, fmt.Errorf("rules define no unit")
	}
	return &r, nil
}

func loadYAML(path, builtin string, out any) error {
	var data []byte
	var err error
	if path == "" {
		data, err = defaults.ReadFile("defaults/" + builtin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", builtin, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("invalid %s: %w", builtin, err)
	}
	return nil
}
